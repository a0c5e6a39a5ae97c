package packagejson

import (
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/libbuilder/internal/entrypoints"
)

// Condition is an export condition key.
type Condition string

const (
	ConditionImport  Condition = "import"
	ConditionRequire Condition = "require"
)

// Target is the file pair an export condition points at.
type Target struct {
	Types   string
	Default string
}

func (t Target) value() map[string]any {
	v := map[string]any{"default": t.Default}
	if t.Types != "" {
		v["types"] = t.Types
	}
	return v
}

// Conditions maps condition keys to their targets for one subpath.
type Conditions map[Condition]Target

// Exports maps subpaths ("." and "./name") to their conditions.
type Exports map[string]Conditions

// ExportOptions are the inputs of BuildExports.
type ExportOptions struct {
	Entries entrypoints.Set
	OutDir  string // relative to the package root; "" for the root itself
	FileExt string // ".js", ".mjs", ".cjs"
	Typings bool
}

// BuildExports computes the export map of one module format. It does not touch
// the filesystem. The primary entry maps to "." and every secondary entry to
// "./<name>".
func BuildExports(opts ExportOptions, cond Condition) (Exports, error) {
	primary, err := entrypoints.Primary(opts.Entries)
	if err != nil {
		return nil, err
	}
	secondary := entrypoints.Secondary(opts.Entries)

	exports := make(Exports, len(secondary)+1)
	exports["."] = Conditions{cond: exportTarget(opts, primary.Name)}
	for _, e := range secondary {
		exports["./"+e.Name] = Conditions{cond: exportTarget(opts, e.Name)}
	}
	return exports, nil
}

func exportTarget(opts ExportOptions, name string) Target {
	dir := relativeDir(opts.OutDir)
	t := Target{Default: dir + name + opts.FileExt}
	if opts.Typings {
		t.Types = dir + name + ".d" + DeclarationExt(opts.FileExt)
	}
	return t
}

// DeclarationExt maps a JavaScript extension to its declaration counterpart
// without the ".d" prefix: ".mjs" -> ".mts", ".cjs" -> ".cts", ".js" -> ".ts".
func DeclarationExt(ext string) string {
	return strings.Replace(ext, "js", "ts", 1)
}

func relativeDir(outDir string) string {
	clean := path.Clean(filepath.ToSlash(outDir))
	clean = strings.TrimPrefix(clean, "./")
	if clean == "." || clean == "" || clean == "/" {
		return "./"
	}
	return "./" + strings.Trim(clean, "/") + "/"
}
