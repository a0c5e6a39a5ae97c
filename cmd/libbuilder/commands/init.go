package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/libbuilder/internal/config"
	"git.home.luguber.info/inful/libbuilder/internal/workspace"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Output directory for generated config file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	if i.Output != "" {
		return RunInit(filepath.Join(i.Output, config.DefaultFileName), i.Force)
	}
	if root.Config != "" {
		return RunInit(root.Config, i.Force)
	}
	dir := root.Root
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		// Prefer the workspace root; outside a workspace use the current directory.
		dir = wd
		if ws, err := workspace.FindRoot(wd); err == nil {
			dir = ws
		}
	}
	return RunInit(filepath.Join(dir, config.DefaultFileName), i.Force)
}

func RunInit(configPath string, force bool) error {
	fmt.Printf("Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		fmt.Println("Initialization failed")
		return err
	}
	fmt.Println("initialized successfully")
	return nil
}
