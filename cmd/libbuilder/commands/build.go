package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/libbuilder/internal/build"
	"git.home.luguber.info/inful/libbuilder/internal/bundler"
	ferrors "git.home.luguber.info/inful/libbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/libbuilder/internal/logfields"
	"git.home.luguber.info/inful/libbuilder/internal/packagejson"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Project       string `arg:"" help:"Project to build"`
	Target        string `short:"t" help:"Target whose options are used" default:"build"`
	Configuration string `short:"C" help:"Target configuration (default: the target's defaultConfiguration)"`
	Watch         bool   `short:"w" help:"Rebuild on change"`
	OutputPath    string `name:"output-path" help:"Override the outputPath option"`
	Clean         bool   `help:"Remove the output path before building"`
}

func (b *BuildCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	s, err := root.open(g)
	if err != nil {
		return err
	}
	defer s.close()

	p, err := s.project(b.Project)
	if err != nil {
		return err
	}
	var opts build.Options
	if err := s.targetOptions(p, b.Target, b.Configuration, &opts); err != nil {
		return err
	}
	b.applyOverrides(&opts)

	lockfile, err := s.packageManager()
	if err != nil {
		return err
	}
	executor := &build.Executor{
		Bundler: &bundler.TsupBundler{
			Binary:        s.cfg.Bundler.Binary,
			WorkspaceRoot: s.ws.Root,
			ExtraArgs:     s.cfg.Bundler.Args,
			Recorder:      s.recorder,
			Project:       p.Name,
		},
		Lockfile: lockfile,
		Recorder: s.recorder,
	}

	slog.Info("Building project",
		logfields.Project(p.Name),
		logfields.Target(b.Target),
		logfields.Configuration(b.Configuration))

	result, err := executor.Run(ctx, opts, build.Context{
		WorkspaceRoot: s.ws.Root,
		ProjectName:   p.Name,
		ProjectRoot:   p.Root,
		TargetName:    b.Target,
		Configuration: b.Configuration,
		Dependencies:  s.ws.Dependencies(p),
		Outputs:       s.ws.OutputResolver(b.Target, b.Configuration),
		Imports: func(packages []string) []packagejson.Dependency {
			return s.ws.ImportedDependencies(p, packages)
		},
	})
	if err != nil {
		return err
	}
	if result.Success {
		fmt.Printf("Built %s into %s\n", p.Name, result.OutputPath)
		return nil
	}
	if opts.Watch && ctx.Err() != nil {
		slog.Info("Watch stopped", logfields.Project(p.Name))
		return nil
	}
	return failed(result.Error, ferrors.CategoryBundler, "build failed")
}

func (b *BuildCmd) applyOverrides(opts *build.Options) {
	if b.Watch {
		opts.Watch = true
	}
	if b.Clean {
		opts.Clean = true
	}
	if b.OutputPath != "" {
		opts.OutputPath = b.OutputPath
	}
}

// failed turns the error of an unsuccessful result into a classified error.
func failed(err error, category ferrors.ErrorCategory, msg string) error {
	if err == nil {
		return ferrors.NewError(category, msg).Build()
	}
	if _, ok := ferrors.AsClassified(err); ok {
		return err
	}
	return ferrors.WrapError(err, category, msg).Build()
}
