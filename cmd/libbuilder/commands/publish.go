package commands

import (
	"context"
	"fmt"

	ferrors "git.home.luguber.info/inful/libbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/libbuilder/internal/publish"
	"git.home.luguber.info/inful/libbuilder/internal/retry"
)

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	Project       string `arg:"" help:"Project to publish"`
	Target        string `short:"t" help:"Target whose options are used" default:"publish"`
	Configuration string `short:"C" help:"Target configuration"`
	DryRun        bool   `name:"dry-run" help:"Run the package manager's publish in dry-run mode"`
	Tag           string `help:"Override the publishTag option"`
	Access        string `help:"Override the access option (public or restricted)"`
}

func (p *PublishCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	s, err := root.open(g)
	if err != nil {
		return err
	}
	defer s.close()

	project, err := s.project(p.Project)
	if err != nil {
		return err
	}
	var opts publish.Options
	if err := s.targetOptions(project, p.Target, p.Configuration, &opts); err != nil {
		return err
	}
	if p.DryRun {
		opts.DryRun = true
	}
	if p.Tag != "" {
		opts.PublishTag = p.Tag
	}
	if p.Access != "" {
		opts.Access = p.Access
	}

	pm, err := s.packageManager()
	if err != nil {
		return err
	}
	policy := retry.FromConfig(s.cfg.PackageManager.Retry)
	if err := policy.Validate(); err != nil {
		return ferrors.ConfigError("invalid retry policy").WithCause(err).Build()
	}
	executor := &publish.Executor{
		PackageManager: pm,
		Retry:          policy,
		Recorder:       s.recorder,
	}
	result := executor.Run(ctx, opts, publish.Context{
		WorkspaceRoot: s.ws.Root,
		ProjectName:   project.Name,
		ProjectRoot:   project.Root,
		TargetName:    p.Target,
		Verbose:       root.Verbose,
	})
	if !result.Success {
		return failed(result.Error, ferrors.CategoryPackageManager, "publish failed")
	}
	if opts.DryRun {
		fmt.Printf("Dry run of %s publish succeeded\n", project.PackageName())
		return nil
	}
	fmt.Printf("Published %s\n", project.PackageName())
	return nil
}
