package commands

import (
	"context"
	"io"
	"os"

	"git.home.luguber.info/inful/libbuilder/internal/build"
	ferrors "git.home.luguber.info/inful/libbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/libbuilder/internal/packagejson"
)

// ExportsCmd implements the 'exports' command. It synthesizes the output
// package.json into a scratch directory and prints it; the output path is not
// touched.
type ExportsCmd struct {
	Project       string `arg:"" help:"Project whose package.json is printed"`
	Target        string `short:"t" help:"Target whose options are used" default:"build"`
	Configuration string `short:"C" help:"Target configuration"`
	ExportsOnly   bool   `name:"exports-only" help:"Print only the exports field"`
}

func (c *ExportsCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	s, err := root.open(g)
	if err != nil {
		return err
	}
	defer s.close()
	return c.print(ctx, os.Stdout, s)
}

func (c *ExportsCmd) print(ctx context.Context, w io.Writer, s *session) error {
	p, err := s.project(c.Project)
	if err != nil {
		return err
	}
	var opts build.Options
	if err := s.targetOptions(p, c.Target, c.Configuration, &opts); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	scratch, err := os.MkdirTemp("", "libbuilder-exports-")
	if err != nil {
		return ferrors.FileSystemError("failed to create scratch directory").WithCause(err).Build()
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	so := opts.SynthesizeOptions(build.Context{
		WorkspaceRoot: s.ws.Root,
		ProjectName:   p.Name,
		ProjectRoot:   p.Root,
		TargetName:    c.Target,
		Configuration: c.Configuration,
		Dependencies:  s.ws.Dependencies(p),
		Outputs:       s.ws.OutputResolver(c.Target, c.Configuration),
	}, scratch)
	so.GenerateLockfile = false
	d, err := packagejson.Synthesize(ctx, so)
	if err != nil {
		return ferrors.ConfigError("failed to synthesize package.json").WithCause(err).
			WithContext("project", p.Name).
			Build()
	}
	if c.ExportsOnly {
		exports := packagejson.Descriptor{}
		if v, ok := d["exports"]; ok {
			exports["exports"] = v
		}
		d = exports
	}
	data, err := packagejson.Marshal(d)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
