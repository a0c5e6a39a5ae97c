package bundler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MetafilePattern matches the esbuild metafiles tsup writes into the output
// directory when --metafile is given, one per format.
const MetafilePattern = "metafile-*.json"

// Metafile is the esbuild metafile.
type Metafile struct {
	Inputs  map[string]MetafileInput  `json:"inputs"`
	Outputs map[string]MetafileOutput `json:"outputs"`
}

// MetafileInput is one source file of the bundle.
type MetafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []MetafileImport `json:"imports"`
	Format  string           `json:"format,omitempty"`
}

// MetafileImport is one import statement.
type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
	Original string `json:"original,omitempty"`
}

// MetafileOutput is one emitted file.
type MetafileOutput struct {
	Bytes      int              `json:"bytes"`
	Imports    []MetafileImport `json:"imports"`
	Exports    []string         `json:"exports"`
	EntryPoint string           `json:"entryPoint,omitempty"`
}

// ExternalPackages returns the package names the emitted files import at
// runtime: external imports that are neither relative paths nor Node builtins.
func (m *Metafile) ExternalPackages() []string {
	seen := make(map[string]bool)
	for _, out := range m.Outputs {
		for _, imp := range out.Imports {
			if !imp.External {
				continue
			}
			if name := PackageName(imp.Path); name != "" {
				seen[name] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ReadMetafile decodes the metafile at path.
func ReadMetafile(path string) (*Metafile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Metafile
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse metafile %s: %w", path, err)
	}
	return &m, nil
}

// ImportedPackages collects the external packages of every metafile in dir.
// A directory without metafiles yields nothing.
func ImportedPackages(dir string) ([]string, error) {
	matches, err := metafiles(dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, path := range matches {
		m, err := ReadMetafile(path)
		if err != nil {
			return nil, err
		}
		for _, name := range m.ExternalPackages() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	return names, nil
}

// RemoveMetafiles deletes the metafiles in dir so they are not published.
func RemoveMetafiles(dir string) error {
	matches, err := metafiles(dir)
	if err != nil {
		return err
	}
	var errs []error
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func metafiles(dir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), MetafilePattern)
	if err != nil {
		return nil, fmt.Errorf("list metafiles in %s: %w", dir, err)
	}
	for i, m := range matches {
		matches[i] = filepath.Join(dir, filepath.FromSlash(m))
	}
	return matches, nil
}

// PackageName returns the package an import specifier refers to, or "" for
// relative, absolute, URL and builtin specifiers. Subpaths are dropped, so
// "@scope/pkg/sub" becomes "@scope/pkg" and "pkg/sub" becomes "pkg".
func PackageName(specifier string) string {
	switch {
	case specifier == "",
		strings.HasPrefix(specifier, "."),
		strings.HasPrefix(specifier, "/"),
		strings.HasPrefix(specifier, "node:"),
		strings.Contains(specifier, "://"):
		return ""
	}
	parts := strings.SplitN(specifier, "/", 3)
	name := parts[0]
	if strings.HasPrefix(name, "@") {
		if len(parts) < 2 || parts[1] == "" {
			return ""
		}
		name += "/" + parts[1]
	}
	if nodeBuiltins[name] {
		return ""
	}
	return name
}

var nodeBuiltins = map[string]bool{
	"assert": true, "async_hooks": true, "buffer": true, "child_process": true,
	"cluster": true, "console": true, "constants": true, "crypto": true,
	"dgram": true, "diagnostics_channel": true, "dns": true, "domain": true,
	"events": true, "fs": true, "http": true, "http2": true, "https": true,
	"inspector": true, "module": true, "net": true, "os": true, "path": true,
	"perf_hooks": true, "process": true, "punycode": true, "querystring": true,
	"readline": true, "repl": true, "stream": true, "string_decoder": true,
	"sys": true, "timers": true, "tls": true, "trace_events": true, "tty": true,
	"url": true, "util": true, "v8": true, "vm": true, "wasi": true,
	"worker_threads": true, "zlib": true,
}
