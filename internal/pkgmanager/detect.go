package pkgmanager

import (
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/libbuilder/internal/foundation/normalization"
	"git.home.luguber.info/inful/libbuilder/internal/packagejson"
)

// Name identifies a package manager.
type Name string

const (
	NPM  Name = "npm"
	Yarn Name = "yarn"
	PNPM Name = "pnpm"
	Bun  Name = "bun"
)

// lockfiles in detection order.
var lockfiles = []struct {
	file string
	name Name
}{
	{"bun.lockb", Bun},
	{"bun.lock", Bun},
	{"pnpm-lock.yaml", PNPM},
	{"yarn.lock", Yarn},
	{"package-lock.json", NPM},
}

var names = normalization.NewNormalizer("package manager", map[string]Name{
	"npm":  NPM,
	"yarn": Yarn,
	"pnpm": PNPM,
	"bun":  Bun,
}, "")

// ParseName validates a package manager name.
func ParseName(s string) (Name, error) {
	return names.NormalizeWithError(s)
}

// Detect picks the package manager of the workspace at root: the
// "packageManager" field of the root package.json wins, then the first lockfile
// found, then npm.
func Detect(root string) Name {
	if d, err := packagejson.Read(filepath.Join(root, packagejson.FileName)); err == nil {
		if field := d.String("packageManager"); field != "" {
			name, _, _ := strings.Cut(field, "@")
			if n, err := ParseName(name); err == nil {
				return n
			}
		}
	}
	for _, lf := range lockfiles {
		if _, err := os.Stat(filepath.Join(root, lf.file)); err == nil {
			return lf.name
		}
	}
	return NPM
}

// LockfileName returns the lockfile a package manager writes.
func LockfileName(n Name) string {
	switch n {
	case Yarn:
		return "yarn.lock"
	case PNPM:
		return "pnpm-lock.yaml"
	case Bun:
		return "bun.lockb"
	default:
		return "package-lock.json"
	}
}
