package packagejson

import (
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"

	"git.home.luguber.info/inful/libbuilder/internal/logfields"
)

// DependencyKind tells registry packages apart from workspace projects.
type DependencyKind string

const (
	// KindExternal is a package fetched from a registry.
	KindExternal DependencyKind = "npm"
	// KindWorkspace is a project built within the same workspace.
	KindWorkspace DependencyKind = "lib"
)

// Dependency is a project or package the building project depends on.
type Dependency struct {
	// Name is the package name written to the dependency field.
	Name string
	Kind DependencyKind
	// Version is the declared version of an external dependency.
	Version string
	// Project is the workspace project name of an in-workspace dependency.
	Project string
}

// OutputResolver returns the build output directories (relative to the
// workspace root) of an in-workspace project for the current target and
// configuration.
type OutputResolver func(project string) []string

// MergeDependencies combines dependency lists by package name. The first list
// naming a package wins. The result is ordered by name.
func MergeDependencies(lists ...[]Dependency) []Dependency {
	seen := make(map[string]bool)
	var out []Dependency
	for _, list := range lists {
		for _, dep := range list {
			if dep.Name == "" || seen[dep.Name] {
				continue
			}
			seen[dep.Name] = true
			out = append(out, dep)
		}
	}
	slices.SortFunc(out, func(a, b Dependency) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// AddMissingDependencies adds every dependency of deps not yet declared by d to
// d[field]. field defaults to dependencies.
//
// A dependency is skipped when d declares it in any dependency field or when the
// workspace root descriptor lists it under devDependencies. External
// dependencies get their declared version. In-workspace dependencies get the
// version of their own emitted package.json; when that file is missing the
// dependency is skipped. This never fails.
func AddMissingDependencies(d, root Descriptor, workspaceRoot string, deps []Dependency, field string, outputs OutputResolver) {
	if field == "" {
		field = FieldDependencies
	}
	rootDev := root.Deps(FieldDevDependencies)

	for _, dep := range deps {
		if dep.Name == "" || d.HasDependency(dep.Name) {
			continue
		}
		if _, dev := rootDev[dep.Name]; dev {
			continue
		}

		var version string
		switch dep.Kind {
		case KindExternal:
			version = dep.Version
		case KindWorkspace:
			version = emittedVersion(workspaceRoot, dep, outputs)
		}
		if version == "" {
			slog.Debug("Skipping dependency without a resolvable version",
				logfields.Package(dep.Name))
			continue
		}
		if _, err := semver.NewConstraint(version); err != nil {
			slog.Debug("Dependency version is not a semver range",
				logfields.Package(dep.Name),
				logfields.Version(version),
				logfields.Error(err))
		}
		d.SetDependency(field, dep.Name, version)
	}
}

func emittedVersion(workspaceRoot string, dep Dependency, outputs OutputResolver) string {
	if outputs == nil {
		return ""
	}
	dirs := outputs(dep.Project)
	if len(dirs) == 0 {
		return ""
	}
	dir := dirs[0]
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(workspaceRoot, dir)
	}
	emitted, err := Read(filepath.Join(dir, FileName))
	if err != nil {
		slog.Debug("In-workspace dependency not built yet",
			logfields.Package(dep.Name),
			logfields.Path(dir))
		return ""
	}
	return emitted.Version()
}
