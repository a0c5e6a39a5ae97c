package workspace

import (
	"slices"
	"strings"

	"git.home.luguber.info/inful/libbuilder/internal/packagejson"
)

// Dependencies returns the in-workspace projects and external packages p
// depends on, ordered by package name. A package declared by p's package.json
// is a workspace dependency when a project publishes under that name, and an
// external one when the root package.json installs it. Implicit dependencies
// name projects directly.
func (w *Workspace) Dependencies(p *Project) []packagejson.Dependency {
	byPackage := w.byPackage()

	seen := make(map[string]bool)
	var deps []packagejson.Dependency
	add := func(dep packagejson.Dependency) {
		if seen[dep.Name] || dep.Name == p.PackageName() {
			return
		}
		seen[dep.Name] = true
		deps = append(deps, dep)
	}

	for _, field := range []string{packagejson.FieldDependencies, packagejson.FieldPeerDependencies} {
		for name, declared := range p.Descriptor.Deps(field) {
			add(w.resolvePackage(byPackage, name, declared))
		}
	}
	for _, name := range p.ImplicitDependencies {
		if project, ok := w.Projects[name]; ok {
			add(packagejson.Dependency{Name: project.PackageName(), Kind: packagejson.KindWorkspace, Project: project.Name})
		}
	}
	sortDependencies(deps)
	return deps
}

// ImportedDependencies resolves the package names a bundle of p imports. A
// package published by a workspace project is a workspace dependency; any
// other package is external with the version the root installs, or no version
// when the root does not know it.
func (w *Workspace) ImportedDependencies(p *Project, packages []string) []packagejson.Dependency {
	byPackage := w.byPackage()
	seen := make(map[string]bool, len(packages))
	var deps []packagejson.Dependency
	for _, name := range packages {
		if name == "" || seen[name] || name == p.PackageName() {
			continue
		}
		seen[name] = true
		deps = append(deps, w.resolvePackage(byPackage, name, ""))
	}
	sortDependencies(deps)
	return deps
}

func (w *Workspace) byPackage() map[string]*Project {
	byPackage := make(map[string]*Project, len(w.Projects))
	for _, other := range w.Projects {
		byPackage[other.PackageName()] = other
	}
	return byPackage
}

func (w *Workspace) resolvePackage(byPackage map[string]*Project, name, declared string) packagejson.Dependency {
	if project, ok := byPackage[name]; ok {
		return packagejson.Dependency{Name: name, Kind: packagejson.KindWorkspace, Project: project.Name}
	}
	version, ok := w.External[name]
	if !ok {
		version = declared
	}
	return packagejson.Dependency{Name: name, Kind: packagejson.KindExternal, Version: version}
}

func sortDependencies(deps []packagejson.Dependency) {
	slices.SortFunc(deps, func(a, b packagejson.Dependency) int {
		return strings.Compare(a.Name, b.Name)
	})
}

// OutputResolver returns a resolver of project outputs for target and
// configuration. Projects without that target resolve to nothing.
func (w *Workspace) OutputResolver(target, configuration string) packagejson.OutputResolver {
	return func(name string) []string {
		p, ok := w.Projects[name]
		if !ok {
			return nil
		}
		return p.OutputsForTarget(target, configuration)
	}
}
