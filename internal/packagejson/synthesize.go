package packagejson

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/libbuilder/internal/logfields"
)

// LockfileGenerator writes a lockfile for the descriptor in dir and returns the
// lockfile path.
type LockfileGenerator interface {
	GenerateLockfile(ctx context.Context, dir string) (string, error)
}

// SynthesizeOptions are the inputs of Synthesize.
type SynthesizeOptions struct {
	WorkspaceRoot string
	// ProjectRoot is relative to WorkspaceRoot.
	ProjectRoot string
	ProjectName string
	// OutputPath is the absolute directory receiving package.json.
	OutputPath string

	Update UpdateOptions

	UpdateBuildableProjectDeps bool
	// DependencyField is dependencies (default) or peerDependencies.
	DependencyField string
	ExcludeLibs     bool
	Dependencies    []Dependency
	Outputs         OutputResolver

	GenerateLockfile bool
	Lockfile         LockfileGenerator
}

// Synthesize derives the output package.json of a build from the project's own
// descriptor and writes it to OutputPath.
func Synthesize(ctx context.Context, opts SynthesizeOptions) (Descriptor, error) {
	projectRoot := opts.ProjectRoot
	if !filepath.IsAbs(projectRoot) {
		projectRoot = filepath.Join(opts.WorkspaceRoot, projectRoot)
	}

	d, err := readOrDefault(filepath.Join(projectRoot, FileName), opts.ProjectName)
	if err != nil {
		return nil, err
	}

	update := opts.Update
	if update.SourceType == "" {
		update.SourceType = d.String("type")
	}

	if opts.UpdateBuildableProjectDeps {
		// Production descriptor.
		delete(d, FieldDevDependencies)

		deps := opts.Dependencies
		if opts.ExcludeLibs {
			deps = make([]Dependency, 0, len(opts.Dependencies))
			for _, dep := range opts.Dependencies {
				if dep.Kind != KindWorkspace {
					deps = append(deps, dep)
				}
			}
		}

		root, err := readOrDefault(filepath.Join(opts.WorkspaceRoot, FileName), "")
		if err != nil {
			return nil, err
		}
		AddMissingDependencies(d, root, opts.WorkspaceRoot, deps, opts.DependencyField, opts.Outputs)
	}

	d, err = Update(d, update)
	if err != nil {
		return nil, err
	}

	target := filepath.Join(opts.OutputPath, FileName)
	if err := Write(target, d); err != nil {
		return nil, fmt.Errorf("write %s: %w", target, err)
	}
	slog.Debug("Wrote package.json", logfields.Path(target))

	if opts.GenerateLockfile && opts.Lockfile != nil {
		lockfile, err := opts.Lockfile.GenerateLockfile(ctx, opts.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("generate lockfile: %w", err)
		}
		slog.Debug("Generated lockfile", logfields.Path(lockfile))
	}
	return d, nil
}

// readOrDefault reads path, falling back to {name, version: 0.0.1} when the file
// does not exist. An empty name yields an empty descriptor.
func readOrDefault(path, name string) (Descriptor, error) {
	d, err := Read(path)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if name == "" {
		return Descriptor{}, nil
	}
	return Descriptor{"name": name, "version": "0.0.1"}, nil
}
