package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyDependency = "dependency"
	KeyRevision   = "revision"
	KeyCommit     = "commit"
	KeyURL        = "url"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyCommand    = "command"
	KeyExitCode   = "exit_code"
	KeyToolset    = "toolset"
	KeyBackend    = "backend"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Dependency(n string) slog.Attr   { return slog.String(KeyDependency, n) }
func Revision(r string) slog.Attr     { return slog.String(KeyRevision, r) }
func Commit(c string) slog.Attr       { return slog.String(KeyCommit, c) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func Toolset(t string) slog.Attr      { return slog.String(KeyToolset, t) }
func Backend(b string) slog.Attr      { return slog.String(KeyBackend, b) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
