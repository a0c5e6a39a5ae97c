package commands

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/libbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/libbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/libbuilder/internal/logfields"
	"git.home.luguber.info/inful/libbuilder/internal/metrics"
	"git.home.luguber.info/inful/libbuilder/internal/observability"
	"git.home.luguber.info/inful/libbuilder/internal/pkgmanager"
	"git.home.luguber.info/inful/libbuilder/internal/workspace"
	"github.com/alecthomas/kong"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: libbuilder.yaml at the workspace root)"`
	Root    string           `help:"Workspace root (default: nearest directory holding nx.json)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Bundle a library with tsup and generate its package.json"`
	Publish  PublishCmd  `cmd:"" help:"Publish the build output of a library"`
	Exports  ExportsCmd  `cmd:"" help:"Print the package.json a build would generate"`
	Projects ProjectsCmd `cmd:"" help:"List the projects of the workspace"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := observability.ParseLevel(os.Getenv("LIBBUILDER_LOG_LEVEL"))
	if c.Verbose {
		level = slog.LevelDebug
	}
	c.setLogger(g, level, os.Getenv("LIBBUILDER_LOG_FORMAT"))
	return nil
}

func (c *CLI) setLogger(g *Global, level slog.Level, format string) {
	logger := observability.NewLogger(os.Stderr, level, format)
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
}

// session is the state shared by commands operating on a workspace.
type session struct {
	cfg      *config.Config
	ws       *workspace.Workspace
	recorder metrics.Recorder
	prom     *metrics.PrometheusRecorder
}

// open locates the workspace, loads the tool configuration and applies its
// logging settings unless -v was given.
func (c *CLI) open(g *Global) (*session, error) {
	start := c.Root
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, ferrors.InternalError("failed to determine working directory").WithCause(err).Build()
		}
		start = wd
	}
	root, err := workspace.FindRoot(start)
	if err != nil {
		return nil, ferrors.WorkspaceError("not inside a workspace").WithCause(err).
			WithContext("start", start).
			UserAction().
			Build()
	}

	cfgPath := c.Config
	if cfgPath == "" {
		cfgPath = filepath.Join(root, config.DefaultFileName)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, ferrors.ConfigError("failed to load configuration").WithCause(err).
			WithContext("path", cfgPath).
			Build()
	}
	if !c.Verbose {
		c.setLogger(g, observability.ParseLevel(string(cfg.Log.Level)), string(cfg.Log.Format))
	}

	ws, err := workspace.Load(root)
	if err != nil {
		return nil, ferrors.WorkspaceError("failed to load workspace").WithCause(err).
			WithContext("root", root).
			Build()
	}
	s := &session{cfg: cfg, ws: ws, recorder: metrics.NoopRecorder{}}
	if cfg.Metrics.Textfile != "" {
		s.prom = metrics.NewPrometheusRecorder(nil)
		s.recorder = s.prom
	}
	return s, nil
}

// project looks up a project by name.
func (s *session) project(name string) (*workspace.Project, error) {
	p, err := s.ws.Project(name)
	if err != nil {
		if errors.Is(err, workspace.ErrUnknownProject) {
			return nil, ferrors.NotFoundError("unknown project").WithCause(err).WithContext("project", name).Build()
		}
		return nil, ferrors.WorkspaceError("failed to resolve project").WithCause(err).WithContext("project", name).Build()
	}
	return p, nil
}

// targetOptions decodes the options of target into out.
func (s *session) targetOptions(p *workspace.Project, target, configuration string, out any) error {
	raw, err := p.TargetOptions(target, configuration)
	if err != nil {
		return ferrors.ConfigError("failed to resolve target options").WithCause(err).
			WithContext("project", p.Name).
			WithContext("target", target).
			Build()
	}
	if err := workspace.DecodeOptions(raw, out); err != nil {
		return ferrors.ConfigError("invalid target options").WithCause(err).
			WithContext("project", p.Name).
			WithContext("target", target).
			Build()
	}
	return nil
}

// packageManager returns the configured or detected package manager.
func (s *session) packageManager() (*pkgmanager.Manager, error) {
	name := pkgmanager.Detect(s.ws.Root)
	if s.cfg.PackageManager.Name != "" {
		n, err := pkgmanager.ParseName(s.cfg.PackageManager.Name)
		if err != nil {
			return nil, ferrors.ConfigError("invalid package manager").WithCause(err).Build()
		}
		name = n
	}
	m, err := pkgmanager.New(name, s.cfg.PackageManager.Command, &pkgmanager.ExecRunner{Recorder: s.recorder})
	if err != nil {
		return nil, ferrors.ConfigError("invalid package manager command").WithCause(err).
			WithContext("command", s.cfg.PackageManager.Command).
			Build()
	}
	slog.Debug("Using package manager", slog.String("name", string(m.Name())))
	return m, nil
}

// close writes the metrics textfile when configured.
func (s *session) close() {
	if s.prom == nil {
		return
	}
	if err := s.prom.WriteTextfile(s.cfg.Metrics.Textfile); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(s.cfg.Metrics.Textfile), logfields.Error(err))
	}
}
