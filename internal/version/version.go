package version

import "fmt"

// Build metadata, set with ldflags:
// go build -ldflags "-X git.home.luguber.info/inful/libbuilder/internal/version.Version=v0.3.0".
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// String renders the version line printed by --version.
func String() string {
	s := "libbuilder " + Version
	switch {
	case GitCommit != "" && BuildTime != "":
		s += fmt.Sprintf(" (%s, built %s)", GitCommit, BuildTime)
	case GitCommit != "":
		s += fmt.Sprintf(" (%s)", GitCommit)
	}
	return s
}
