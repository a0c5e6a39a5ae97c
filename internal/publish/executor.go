package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	ferrors "git.home.luguber.info/inful/libbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/libbuilder/internal/git"
	"git.home.luguber.info/inful/libbuilder/internal/logfields"
	"git.home.luguber.info/inful/libbuilder/internal/metrics"
	"git.home.luguber.info/inful/libbuilder/internal/observability"
	"git.home.luguber.info/inful/libbuilder/internal/packagejson"
	"git.home.luguber.info/inful/libbuilder/internal/pkgmanager"
	"git.home.luguber.info/inful/libbuilder/internal/retry"
)

// Options are the publish target options as declared in project.json.
type Options struct {
	OutputPath string `json:"outputPath"`
	PublishTag string `json:"publishTag,omitempty"`
	Access     string `json:"access,omitempty"`
	DryRun     bool   `json:"dryRun,omitempty"`
}

// Context describes the project being published.
type Context struct {
	WorkspaceRoot string
	ProjectName   string
	// ProjectRoot is relative to WorkspaceRoot, as listed in "workspaces".
	ProjectRoot string
	TargetName  string
	Verbose     bool
}

// Result is the outcome of a publish.
type Result struct {
	Success bool
	Error   error
}

// PackageManager installs and publishes.
type PackageManager interface {
	Install(ctx context.Context, dir string) error
	Publish(ctx context.Context, dir string, opts pkgmanager.PublishOptions) error
}

// Executor runs publishes.
type Executor struct {
	PackageManager PackageManager
	// Retry applies to installs.
	Retry    retry.Policy
	Recorder metrics.Recorder
	// GitHead resolves the commit recorded as gitHead; nil uses the
	// repository of the workspace.
	GitHead func(dir string) (string, error)
	// RestoreTimeout bounds the reinstall after the workspace member list is
	// restored. Zero means DefaultRestoreTimeout.
	RestoreTimeout time.Duration
}

// DefaultRestoreTimeout is the restore reinstall limit used when none is set.
const DefaultRestoreTimeout = 10 * time.Minute

// Run publishes the output of one project. Failures are reported in Result.
func (e *Executor) Run(ctx context.Context, opts Options, pc Context) Result {
	ctx = observability.WithProject(ctx, pc.ProjectName, pc.TargetName)
	result := e.run(ctx, opts, pc)
	outcome := metrics.OutcomeSuccess
	if !result.Success {
		outcome = metrics.OutcomeFailed
	}
	e.recorder().IncPublishOutcome(pc.ProjectName, outcome)
	return result
}

func (e *Executor) run(ctx context.Context, opts Options, pc Context) (result Result) {
	projectDir := filepath.Join(pc.WorkspaceRoot, pc.ProjectRoot)
	outputDir := opts.OutputPath
	if !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(pc.WorkspaceRoot, outputDir)
	}

	if err := validate(opts); err != nil {
		observability.ErrorContext(ctx, "Invalid publish options", logfields.Error(err))
		return Result{Error: err}
	}
	if err := ensureIsDir(projectDir); err != nil {
		return invalid(ctx, pc, "Invalid project root", err)
	}
	if err := ensureIsDir(outputDir); err != nil {
		return invalid(ctx, pc, "Invalid outputPath", err)
	}

	e.recordGitHead(ctx, pc.WorkspaceRoot, outputDir)

	rootDescriptor := filepath.Join(pc.WorkspaceRoot, packagejson.FileName)
	tx, err := beginWorkspaceTx(rootDescriptor, memberPath(pc.WorkspaceRoot, outputDir), pc.ProjectRoot)
	if err != nil {
		err = ferrors.FileSystemError("failed to update workspace members").WithCause(err).
			WithContext("path", rootDescriptor).
			Build()
		observability.ErrorContext(ctx, "Publish failed", logfields.Error(err))
		return Result{Error: err}
	}
	observability.DebugContext(ctx, "Declared output as workspace member", logfields.OutputPath(opts.OutputPath))

	defer func() {
		// The restore must run even after the caller's context was cancelled.
		timeout := e.RestoreTimeout
		if timeout <= 0 {
			timeout = DefaultRestoreTimeout
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(observability.WithStage(ctx, "restore")), timeout)
		defer cancel()
		if err := tx.Rollback(); err != nil {
			observability.ErrorContext(ctx, "Failed to restore workspace package.json", logfields.Path(rootDescriptor), logfields.Error(err))
			result = Result{Error: ferrors.FileSystemError("failed to restore workspace package.json").WithCause(err).Fatal().Build()}
			return
		}
		if err := e.install(ctx, pc.WorkspaceRoot); err != nil {
			observability.ErrorContext(ctx, "Reinstall after restoring workspace failed", logfields.Error(err))
			if result.Success {
				result = Result{Error: err}
			}
		}
	}()

	if err := e.install(observability.WithStage(ctx, "install"), pc.WorkspaceRoot); err != nil {
		observability.ErrorContext(ctx, "Install failed", logfields.Error(err))
		return Result{Error: err}
	}

	ctx = observability.WithStage(ctx, "publish")
	err = e.PackageManager.Publish(ctx, outputDir, pkgmanager.PublishOptions{
		Tag:    opts.PublishTag,
		Access: opts.Access,
		DryRun: opts.DryRun,
	})
	if err != nil {
		err = ferrors.PackageManagerError("publish failed").WithCause(err).
			WithContext("dir", outputDir).
			Build()
		observability.ErrorContext(ctx, "Publish failed", logfields.Error(err))
		return Result{Error: err}
	}

	observability.InfoContext(ctx, "Published", logfields.OutputPath(outputDir), slog.String("tag", opts.PublishTag))
	return Result{Success: true}
}

// memberPath returns outputDir as a workspace member entry.
func memberPath(workspaceRoot, outputDir string) string {
	rel, err := filepath.Rel(workspaceRoot, outputDir)
	if err != nil {
		return filepath.ToSlash(outputDir)
	}
	return filepath.ToSlash(rel)
}

func validate(opts Options) error {
	if opts.OutputPath == "" {
		return ferrors.ConfigError("option \"outputPath\" is required").Build()
	}
	switch opts.Access {
	case "", "public", "restricted":
	default:
		return ferrors.ConfigError(fmt.Sprintf("invalid option \"access\": %q (expected public or restricted)", opts.Access)).Build()
	}
	return nil
}

// invalid logs a root validation failure. The inner error is shown only in
// verbose mode.
func invalid(ctx context.Context, pc Context, msg string, err error) Result {
	if pc.Verbose {
		observability.ErrorContext(ctx, msg, logfields.Error(err))
	} else {
		observability.ErrorContext(ctx, msg)
	}
	return Result{Error: ferrors.ValidationError(msg).WithCause(err).Build()}
}

func ensureIsDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

func (e *Executor) install(ctx context.Context, dir string) error {
	err := e.Retry.Do(ctx, func() error {
		return e.PackageManager.Install(ctx, dir)
	}, func(attempt int, err error) {
		observability.WarnContext(ctx, "Install failed, retrying", slog.Int("attempt", attempt), logfields.Error(err))
	})
	if err != nil {
		return ferrors.PackageManagerError("install failed").WithCause(err).
			WithContext("dir", dir).
			Build()
	}
	return nil
}

// recordGitHead stores the workspace HEAD commit as gitHead in the output
// package.json. Outside a repository nothing is recorded.
func (e *Executor) recordGitHead(ctx context.Context, workspaceRoot, outputDir string) {
	head := e.GitHead
	if head == nil {
		head = git.Head
	}
	path := filepath.Join(outputDir, packagejson.FileName)
	d, err := packagejson.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			observability.WarnContext(ctx, "Cannot read output package.json", logfields.Path(path), logfields.Error(err))
		}
		return
	}
	hash, err := head(workspaceRoot)
	if err != nil {
		observability.DebugContext(ctx, "No git HEAD to record", logfields.Error(err))
		return
	}
	if d.String("gitHead") == hash {
		return
	}
	d["gitHead"] = hash
	if err := packagejson.Write(path, d); err != nil {
		observability.WarnContext(ctx, "Cannot record gitHead", logfields.Path(path), logfields.Error(err))
	}
}

func (e *Executor) recorder() metrics.Recorder {
	if e.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return e.Recorder
}
