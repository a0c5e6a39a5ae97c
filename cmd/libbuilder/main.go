package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/libbuilder/cmd/libbuilder/commands"
	ferrors "git.home.luguber.info/inful/libbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/libbuilder/internal/logfields"
	"git.home.luguber.info/inful/libbuilder/internal/observability"
	"git.home.luguber.info/inful/libbuilder/internal/version"
	"github.com/alecthomas/kong"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var cli commands.CLI
	global := &commands.Global{Logger: slog.Default()}

	parser, err := kong.New(&cli,
		kong.Name("libbuilder"),
		kong.Description("Build and publish TypeScript libraries of an Nx workspace."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global, &cli),
	)
	if err != nil {
		slog.Error("Failed to build CLI", logfields.Error(err))
		return 1
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = observability.WithNewRunID(ctx)
	kctx.BindTo(ctx, (*context.Context)(nil))

	return ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(kctx.Run())
}
