package commands

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// ProjectsCmd implements the 'projects' command.
type ProjectsCmd struct {
	Target string `short:"t" help:"Only list projects that have this target"`
}

func (c *ProjectsCmd) Run(g *Global, root *CLI) error {
	s, err := root.open(g)
	if err != nil {
		return err
	}
	defer s.close()
	return c.list(os.Stdout, s)
}

func (c *ProjectsCmd) list(w io.Writer, s *session) error {
	for _, name := range s.ws.ProjectNames() {
		p := s.ws.Projects[name]
		if c.Target != "" {
			if _, ok := p.Targets[c.Target]; !ok {
				continue
			}
		}
		targets := make([]string, 0, len(p.Targets))
		for t := range p.Targets {
			targets = append(targets, t)
		}
		slices.Sort(targets)
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", name, p.Root, strings.Join(targets, ",")); err != nil {
			return err
		}
	}
	return nil
}
