package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if bme, ok := As(err); ok {
		return a.exitCodeFromBrokerMake(bme)
	}

	return 1
}

// exitCodeFromBrokerMake maps BrokerMakeError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromBrokerMake(err *BrokerMakeError) int {
	switch err.Category {
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryVCS, CategoryNetwork:
		return 8 // External system error
	case CategoryToolchain, CategoryGenerator, CategoryBuild, CategoryFileSystem:
		return 11 // Build error
	case CategoryCanceled:
		return 130
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError renders err for the terminal. Failures collected by a
// keep-going run are printed one per line.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		lines := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			if line := a.FormatError(e); line != "" {
				lines = append(lines, line)
			}
		}
		return strings.Join(lines, "\n")
	}

	if bme, ok := err.(*BrokerMakeError); ok {
		return a.formatBrokerMake(bme)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatBrokerMake formats a BrokerMakeError for display.
func (a *CLIErrorAdapter) formatBrokerMake(err *BrokerMakeError) string {
	if a.verbose {
		return err.Error()
	}

	if err.Category == CategoryConfig {
		return err.Message
	}
	return fmt.Sprintf("%s: %s", err.Category, err.Message)
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	if a.verbose || IsCategory(err, CategoryInternal) {
		a.record(err)
	}

	_, _ = fmt.Fprintf(a.out, "%s\n", a.FormatError(err))
	a.exit(exitCode)
}

// record emits one log entry per failure, with the step and tool context
// attached so the full cause chain survives the terse terminal output.
func (a *CLIErrorAdapter) record(err error) {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			a.record(e)
		}
		return
	}

	bme, ok := As(err)
	if !ok {
		a.logger.Error("brokermake failed", slog.String("error", err.Error()))
		return
	}

	level := slog.LevelError
	if bme.Severity == SeverityWarning {
		level = slog.LevelWarn
	}
	attrs := make([]slog.Attr, 0, len(bme.Context)+2)
	attrs = append(attrs, slog.String("category", string(bme.Category)))
	for k, v := range bme.Context {
		attrs = append(attrs, slog.Any(k, v))
	}
	attrs = append(attrs, slog.String("error", err.Error()))
	a.logger.LogAttrs(context.Background(), level, bme.Message, attrs...)
}
