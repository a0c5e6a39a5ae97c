package pkgmanager

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mvdan.cc/sh/v3/shell"

	"git.home.luguber.info/inful/libbuilder/internal/logfields"
)

// PublishOptions are the flags of a publish invocation.
type PublishOptions struct {
	Tag    string
	Access string // public | restricted
	DryRun bool
}

// Manager builds and runs the commands of one package manager.
type Manager struct {
	name    Name
	command []string
	runner  Runner
}

// New returns a Manager for name. A non-empty command replaces the executable
// (for example "corepack yarn"); it is split like a shell word list with
// environment variables expanded.
func New(name Name, command string, runner Runner) (*Manager, error) {
	if _, err := ParseName(string(name)); err != nil {
		return nil, err
	}
	argv := []string{string(name)}
	if command != "" {
		fields, err := shell.Fields(command, os.Getenv)
		if err != nil {
			return nil, fmt.Errorf("parse package manager command %q: %w", command, err)
		}
		if len(fields) == 0 {
			return nil, fmt.Errorf("package manager command %q is empty", command)
		}
		argv = fields
	}
	if runner == nil {
		runner = &ExecRunner{}
	}
	return &Manager{name: name, command: argv, runner: runner}, nil
}

// Name returns the package manager name.
func (m *Manager) Name() Name { return m.name }

// InstallArgs returns the arguments of a workspace install.
func (m *Manager) InstallArgs() []string {
	return []string{"install"}
}

// PublishArgs returns the arguments of a publish.
func (m *Manager) PublishArgs(opts PublishOptions) []string {
	var args []string
	switch m.name {
	case Yarn:
		args = []string{"npm", "publish"}
	case PNPM:
		args = []string{"publish", "--no-git-checks"}
	default:
		args = []string{"publish"}
	}
	if opts.Tag != "" {
		args = append(args, "--tag="+opts.Tag)
	}
	if opts.Access != "" {
		args = append(args, "--access="+opts.Access)
	}
	if opts.DryRun {
		args = append(args, "--dry-run")
	}
	return args
}

// LockfileArgs returns the arguments of an install that only writes the lockfile.
func (m *Manager) LockfileArgs() []string {
	switch m.name {
	case Yarn:
		return []string{"install", "--mode=update-lockfile"}
	case PNPM:
		return []string{"install", "--lockfile-only", "--ignore-workspace"}
	case Bun:
		return []string{"install", "--lockfile-only"}
	default:
		return []string{"install", "--package-lock-only", "--no-workspaces"}
	}
}

// Install installs the dependencies of the workspace at dir.
func (m *Manager) Install(ctx context.Context, dir string) error {
	return m.run(ctx, dir, m.InstallArgs())
}

// Publish publishes the package at dir.
func (m *Manager) Publish(ctx context.Context, dir string, opts PublishOptions) error {
	return m.run(ctx, dir, m.PublishArgs(opts))
}

// GenerateLockfile writes the lockfile for the package.json in dir and returns
// its path.
func (m *Manager) GenerateLockfile(ctx context.Context, dir string) (string, error) {
	lockfile := filepath.Join(dir, LockfileName(m.name))
	if m.name == Yarn {
		// An existing yarn.lock makes yarn treat dir as its own project
		// instead of a member of the enclosing workspace.
		if _, err := os.Stat(lockfile); os.IsNotExist(err) {
			if err := os.WriteFile(lockfile, nil, 0o644); err != nil {
				return "", fmt.Errorf("create %s: %w", lockfile, err)
			}
		}
	}
	if err := m.run(ctx, dir, m.LockfileArgs()); err != nil {
		return "", err
	}
	return lockfile, nil
}

func (m *Manager) run(ctx context.Context, dir string, args []string) error {
	argv := make([]string, 0, len(m.command)+len(args))
	argv = append(argv, m.command...)
	argv = append(argv, args...)
	slog.Info("Running package manager", logfields.Command(argv[0]), logfields.Dir(dir), slog.Any("args", argv[1:]))
	return m.runner.Run(ctx, dir, argv)
}
