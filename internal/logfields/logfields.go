package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID         = "run_id"
	KeyProject       = "project"
	KeyTarget        = "target"
	KeyConfiguration = "configuration"
	KeyPath          = "path"
	KeyOutputPath    = "output_path"
	KeyFormat        = "format"
	KeyEntry         = "entry"
	KeyPackage       = "package"
	KeyVersion       = "version"
	KeyCommand       = "command"
	KeyDir           = "dir"
	KeyAsset         = "asset"
	KeyDurationMS    = "duration_ms"
	KeyError         = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Project(name string) slog.Attr    { return slog.String(KeyProject, name) }
func Target(name string) slog.Attr     { return slog.String(KeyTarget, name) }
func Configuration(c string) slog.Attr { return slog.String(KeyConfiguration, c) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func OutputPath(p string) slog.Attr    { return slog.String(KeyOutputPath, p) }
func Format(f string) slog.Attr        { return slog.String(KeyFormat, f) }
func Entry(e string) slog.Attr         { return slog.String(KeyEntry, e) }
func Package(name string) slog.Attr    { return slog.String(KeyPackage, name) }
func Version(v string) slog.Attr       { return slog.String(KeyVersion, v) }
func Command(c string) slog.Attr       { return slog.String(KeyCommand, c) }
func Dir(d string) slog.Attr           { return slog.String(KeyDir, d) }
func Asset(a string) slog.Attr         { return slog.String(KeyAsset, a) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
