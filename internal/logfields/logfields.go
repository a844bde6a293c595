package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyCommand    = "command"
	KeyStep       = "step"
	KeyStepIndex  = "step_index"
	KeyArgv       = "argv"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyIdentity   = "identity"
	KeyExitCode   = "exit_code"
	KeyAttempt    = "attempt"
	KeyDurationMS = "duration_ms"
	KeySize       = "size"
	KeyVerbose    = "verbose"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr          { return slog.String(KeyRunID, id) }
func Command(name string) slog.Attr      { return slog.String(KeyCommand, name) }
func Step(name string) slog.Attr         { return slog.String(KeyStep, name) }
func StepIndex(i int) slog.Attr          { return slog.Int(KeyStepIndex, i) }
func Argv(argv []string) slog.Attr       { return slog.Any(KeyArgv, argv) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr             { return slog.String(KeyURL, u) }
func Identity(id string) slog.Attr       { return slog.String(KeyIdentity, id) }
func ExitCode(code int) slog.Attr        { return slog.Int(KeyExitCode, code) }
func Attempt(n int) slog.Attr            { return slog.Int(KeyAttempt, n) }
func DurationMS(ms float64) slog.Attr    { return slog.Float64(KeyDurationMS, ms) }
func Size(human string) slog.Attr        { return slog.String(KeySize, human) }
func Verbose(v bool) slog.Attr           { return slog.Bool(KeyVerbose, v) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
