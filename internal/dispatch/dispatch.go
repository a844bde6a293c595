package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	bmerrors "github.com/sklevenz/brokermake/internal/errors"
	"github.com/sklevenz/brokermake/internal/logfields"
)

// Operations is the set of actions a Command can select.
type Operations interface {
	Build(ctx context.Context, verbose bool) error
	Run(ctx context.Context, verbose bool) error
	Test(ctx context.Context, verbose bool) error
	Generate(ctx context.Context, verbose bool) error
	Release(ctx context.Context, verbose bool) error
}

// Dispatcher selects and invokes operations by name.
type Dispatcher struct {
	ops   Operations
	usage func()
}

// New creates a dispatcher. usage is called when no command or an unknown
// command is given.
func New(ops Operations, usage func()) *Dispatcher {
	if usage == nil {
		usage = func() {}
	}
	return &Dispatcher{ops: ops, usage: usage}
}

// Dispatch invokes the operation named by name, passing verbose through.
// An empty or unrecognized name prints usage and is not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, verbose bool) error {
	cmd, ok := ParseCommand(name)
	if !ok {
		if name != "" {
			slog.Debug("Unrecognized command", logfields.Command(name))
		}
		d.usage()
		return nil
	}
	return d.Invoke(ctx, cmd, verbose)
}

// Invoke runs the operation for an already parsed command.
func (d *Dispatcher) Invoke(ctx context.Context, cmd Command, verbose bool) error {
	slog.Debug("Dispatching command", logfields.Command(cmd.String()), logfields.Verbose(verbose))

	switch cmd {
	case Build:
		return d.ops.Build(ctx, verbose)
	case Run:
		return d.ops.Run(ctx, verbose)
	case Test:
		return d.ops.Test(ctx, verbose)
	case Generate:
		return d.ops.Generate(ctx, verbose)
	case Release:
		return d.ops.Release(ctx, verbose)
	default:
		return bmerrors.InternalError(fmt.Sprintf("no operation for command %d", int(cmd)), nil)
	}
}
