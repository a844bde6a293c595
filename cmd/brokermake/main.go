package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/sklevenz/brokermake/cmd/brokermake/commands"
	bmerrors "github.com/sklevenz/brokermake/internal/errors"
	"github.com/sklevenz/brokermake/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Must(cli,
		kong.Name("brokermake"),
		kong.Description("Make tool for the cloud foundry api broker."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = cli.Run(ctx, func() { _ = kctx.PrintUsage(false) })
	stop()

	bmerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
