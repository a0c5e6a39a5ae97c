package pkgmanager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/libbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/libbuilder/internal/logfields"
	"git.home.luguber.info/inful/libbuilder/internal/metrics"
)

var (
	// ErrBinaryNotFound indicates the package manager executable is not on PATH.
	ErrBinaryNotFound = errors.New("package manager binary not found")
	// ErrPackageManagerFailed indicates the package manager exited non-zero.
	ErrPackageManagerFailed = errors.New("package manager command failed")
)

// Runner executes a command in dir.
type Runner interface {
	Run(ctx context.Context, dir string, argv []string) error
}

// ExecRunner runs commands as subprocesses.
type ExecRunner struct {
	Recorder metrics.Recorder
}

func (r *ExecRunner) Run(ctx context.Context, dir string, argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return ferrors.PackageManagerError("package manager not installed").
			WithCause(fmt.Errorf("%w: %w", ErrBinaryNotFound, err)).
			WithContext("command", argv[0]).
			UserAction().
			Build()
	}

	command := strings.Join(argv, " ")
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("Running package manager", logfields.Command(command), logfields.Dir(dir))
	start := time.Now()
	err := cmd.Run()
	r.recorder().ObserveSubprocessDuration(argv[0], time.Since(start), err == nil)

	if out := strings.TrimSpace(stdout.String()); out != "" {
		slog.Debug("package manager stdout", logfields.Command(command), slog.String("output", out))
	}
	errOut := strings.TrimSpace(stderr.String())
	if errOut != "" {
		slog.Debug("package manager stderr", logfields.Command(command), slog.String("error_output", errOut))
	}

	if err != nil {
		output := errOut
		if output == "" {
			output = strings.TrimSpace(stdout.String())
		}
		if output != "" {
			return fmt.Errorf("%w: %s: %w: %s", ErrPackageManagerFailed, command, err, output)
		}
		return fmt.Errorf("%w: %s: %w", ErrPackageManagerFailed, command, err)
	}
	return nil
}

func (r *ExecRunner) recorder() metrics.Recorder {
	if r.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return r.Recorder
}
