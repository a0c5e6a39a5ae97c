package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"git.home.luguber.info/inful/libbuilder/internal/assets"
	"git.home.luguber.info/inful/libbuilder/internal/bundler"
	"git.home.luguber.info/inful/libbuilder/internal/entrypoints"
	ferrors "git.home.luguber.info/inful/libbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/libbuilder/internal/logfields"
	"git.home.luguber.info/inful/libbuilder/internal/metrics"
	"git.home.luguber.info/inful/libbuilder/internal/observability"
	"git.home.luguber.info/inful/libbuilder/internal/packagejson"
)

// Result is the outcome of a build.
type Result struct {
	Success bool
	Error   error
	// OutputPath is the absolute output directory.
	OutputPath string
}

// Executor runs builds.
type Executor struct {
	Bundler bundler.Bundler
	// Lockfile generates the output lockfile when generateLockfile is set.
	Lockfile packagejson.LockfileGenerator
	Recorder metrics.Recorder
	// AssetDebounce overrides the asset watch debounce.
	AssetDebounce time.Duration
}

// Run builds one project.
//
// A missing or unusable entry point configuration is returned as an error
// before anything is touched. Every other failure is reported in Result.
func (e *Executor) Run(ctx context.Context, opts Options, bc Context) (Result, error) {
	ctx = observability.WithProject(ctx, bc.ProjectName, bc.TargetName)
	recorder := e.recorder()

	if err := validate(opts); err != nil {
		recorder.IncBuildOutcome(bc.ProjectName, metrics.OutcomeConfigInvalid)
		return Result{}, err
	}

	start := time.Now()
	r := opts.resolve(bc)
	result := e.run(ctx, opts, bc, r)
	result.OutputPath = r.outputPath

	recorder.ObserveBuildDuration(bc.ProjectName, time.Since(start))
	if result.Success {
		recorder.IncBuildOutcome(bc.ProjectName, metrics.OutcomeSuccess)
	} else {
		recorder.IncBuildOutcome(bc.ProjectName, metrics.OutcomeFailed)
	}
	return result, nil
}

func validate(opts Options) error {
	primary, err := entrypoints.Primary(opts.Main)
	if err != nil {
		return ferrors.ConfigError("no primary entry point configured (option \"main\")").WithCause(err).
			Fatal().
			UserAction().
			Build()
	}
	if opts.OutputPath == "" {
		return ferrors.ConfigError("option \"outputPath\" is required").
			WithContext("entry", primary.Path).
			Build()
	}
	for _, f := range opts.Format {
		if _, err := packagejson.ParseFormat(string(f)); err != nil {
			return ferrors.ConfigError("invalid option \"format\"").WithCause(err).Build()
		}
	}
	switch opts.BuildableProjectDepsInPackageJSONType {
	case "", packagejson.FieldDependencies, packagejson.FieldPeerDependencies:
	default:
		return ferrors.ConfigError(fmt.Sprintf("invalid option \"buildableProjectDepsInPackageJsonType\": %q", opts.BuildableProjectDepsInPackageJSONType)).
			Build()
	}
	for _, a := range opts.Assets {
		if err := a.Validate(); err != nil {
			return ferrors.ConfigError("invalid option \"assets\"").WithCause(err).Build()
		}
	}
	return nil
}

func (e *Executor) run(ctx context.Context, opts Options, bc Context, r resolved) Result {
	if opts.Clean {
		if err := clean(r.outputPath); err != nil {
			observability.ErrorContext(ctx, "Failed to clean output path", logfields.OutputPath(r.outputPath), logfields.Error(err))
			return Result{Error: err}
		}
	}

	handler := &assets.Handler{
		RootDir:    bc.WorkspaceRoot,
		ProjectDir: bc.projectDir(),
		OutputDir:  r.outputPath,
		Assets:     opts.Assets,
	}

	var (
		once       sync.Once
		unregister assets.Unregister
	)
	stopWatch := func() {
		if unregister != nil {
			unregister()
			unregister = nil
		}
	}
	defer stopWatch()

	// Building is monotonic: only the first successful pass synthesizes the
	// descriptor and copies the assets.
	onSuccess := func(ctx context.Context) error {
		var err error
		once.Do(func() {
			err = e.afterFirstPass(ctx, opts, bc, r, handler, &unregister)
		})
		if r.metafile {
			if rmErr := bundler.RemoveMetafiles(r.bundleDir); rmErr != nil {
				observability.WarnContext(ctx, "Failed to remove bundler metafiles", logfields.Path(r.bundleDir), logfields.Error(rmErr))
			}
		}
		return err
	}

	ctx = observability.WithStage(ctx, "bundle")
	observability.InfoContext(ctx, "Bundling",
		logfields.OutputPath(r.bundleDir),
		logfields.Entry(fmt.Sprint(r.entries.Paths())))

	err := e.Bundler.Build(ctx, bundler.Options{
		Entries:    r.entries,
		OutDir:     r.bundleDir,
		Formats:    opts.Format,
		Sourcemap:  opts.SourceMap,
		DTS:        opts.Typings,
		DTSResolve: opts.DTSResolve,
		TSConfig:   r.tsconfig,
		External:   opts.External,
		Watch:      opts.Watch,
		Metafile:   r.metafile,
		WorkDir:    bc.projectDir(),
		OnSuccess:  onSuccess,
	})
	if err != nil {
		observability.ErrorContext(ctx, "Build failed", logfields.Error(err))
		stopWatch()
		return Result{Error: classifyBundlerError(err)}
	}
	observability.InfoContext(ctx, "Build succeeded", logfields.OutputPath(r.outputPath))
	return Result{Success: true}
}

func (e *Executor) afterFirstPass(ctx context.Context, opts Options, bc Context, r resolved, handler *assets.Handler, unregister *assets.Unregister) error {
	if !opts.SkipPackageJSONGeneration {
		ctx := observability.WithStage(ctx, "package-json")
		so := opts.SynthesizeOptions(bc, r.outputPath)
		so.Lockfile = e.Lockfile
		if r.metafile {
			so.Dependencies = importedDependencies(ctx, bc, r, so.Dependencies)
		}
		_, err := packagejson.Synthesize(ctx, so)
		if err != nil {
			return ferrors.FileSystemError("failed to write package.json").WithCause(err).Build()
		}
		observability.InfoContext(ctx, "Generated package.json", logfields.OutputPath(r.outputPath))
	}

	if len(opts.Assets) == 0 {
		return nil
	}
	ctx = observability.WithStage(ctx, "assets")
	copied, err := handler.ProcessAllAssetsOnce(ctx)
	if err != nil {
		return ferrors.FileSystemError("failed to copy assets").WithCause(err).Build()
	}
	observability.InfoContext(ctx, "Copied assets", slog.Int("files", copied))

	if opts.Watch {
		u, err := handler.WatchAndProcessOnAssetChange(ctx, e.AssetDebounce)
		if err != nil {
			return ferrors.FileSystemError("failed to watch assets").WithCause(err).Build()
		}
		*unregister = u
	}
	return nil
}

// importedDependencies adds the packages the bundle imports to deps. An
// unreadable metafile leaves deps as they are.
func importedDependencies(ctx context.Context, bc Context, r resolved, deps []packagejson.Dependency) []packagejson.Dependency {
	packages, err := bundler.ImportedPackages(r.bundleDir)
	if err != nil {
		observability.WarnContext(ctx, "Cannot read bundler metafile", logfields.Path(r.bundleDir), logfields.Error(err))
		return deps
	}
	observability.DebugContext(ctx, "Bundle imports", slog.Any("packages", packages))
	return packagejson.MergeDependencies(deps, bc.Imports(packages))
}

// clean removes the output path. A missing directory is not an error.
func clean(outputPath string) error {
	err := os.RemoveAll(outputPath)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return ferrors.FileSystemError("failed to clean output path").WithCause(err).
		WithContext("path", outputPath).
		Build()
}

func classifyBundlerError(err error) error {
	if _, ok := ferrors.AsClassified(err); ok {
		return err
	}
	return ferrors.BundlerError("bundler failed").WithCause(err).Build()
}

func (e *Executor) recorder() metrics.Recorder {
	if e.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return e.Recorder
}
