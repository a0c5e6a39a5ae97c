package bundler

import (
	"context"

	"git.home.luguber.info/inful/libbuilder/internal/entrypoints"
	"git.home.luguber.info/inful/libbuilder/internal/packagejson"
)

// Options configure one bundler invocation.
type Options struct {
	// Entries are absolute entry point paths.
	Entries entrypoints.Set
	// OutDir is the absolute directory receiving the bundled files.
	OutDir     string
	Formats    []packagejson.Format
	Sourcemap  bool
	DTS        bool
	DTSResolve bool
	TSConfig   string
	External   []string
	Watch      bool
	// Metafile asks for esbuild metafiles in OutDir (see ImportedPackages).
	Metafile bool
	// WorkDir is the directory the bundler runs in, so that it finds the
	// project's own bundler configuration.
	WorkDir string
	// OnSuccess runs after every successful compilation pass. An error stops
	// the bundler.
	OnSuccess func(ctx context.Context) error
}

// Bundler compiles a library. Build blocks until the bundler exits, which in
// watch mode is when ctx is cancelled.
type Bundler interface {
	Build(ctx context.Context, opts Options) error
}

// FuncBundler adapts a function to Bundler.
type FuncBundler func(ctx context.Context, opts Options) error

// Build calls f.
func (f FuncBundler) Build(ctx context.Context, opts Options) error {
	return f(ctx, opts)
}
