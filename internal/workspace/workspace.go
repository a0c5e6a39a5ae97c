package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/libbuilder/internal/logfields"
	"git.home.luguber.info/inful/libbuilder/internal/packagejson"
)

// MarkerFile identifies the workspace root.
const MarkerFile = "nx.json"

// ProjectFile declares a project.
const ProjectFile = "project.json"

// ErrNoWorkspace is returned when no nx.json is found above the start directory.
var ErrNoWorkspace = errors.New("no workspace root (nx.json) found")

// ErrUnknownProject is returned for a project name the workspace does not declare.
var ErrUnknownProject = errors.New("unknown project")

var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	".nx":          true,
	"dist":         true,
	"tmp":          true,
}

// Workspace is a loaded project graph.
type Workspace struct {
	Root     string
	Projects map[string]*Project
	// External maps registry package names to their installed (or declared) version.
	External map[string]string
	// Descriptor is the root package.json, empty when missing.
	Descriptor packagejson.Descriptor
}

// FindRoot walks up from start to the first directory holding nx.json.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, MarkerFile)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w from %s", ErrNoWorkspace, start)
		}
		dir = parent
	}
}

// Load reads the project graph rooted at root.
func Load(root string) (*Workspace, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	ws := &Workspace{
		Root:       root,
		Projects:   make(map[string]*Project),
		External:   make(map[string]string),
		Descriptor: packagejson.Descriptor{},
	}

	if d, err := packagejson.Read(filepath.Join(root, packagejson.FileName)); err == nil {
		ws.Descriptor = d
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	ws.loadExternal()

	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			if path != root && skipDirs[entry.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.Name() != ProjectFile {
			return nil
		}
		p, err := readProject(root, path)
		if err != nil {
			return err
		}
		if existing, dup := ws.Projects[p.Name]; dup {
			return fmt.Errorf("project %q declared twice: %s and %s", p.Name, existing.Root, p.Root)
		}
		ws.Projects[p.Name] = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover projects: %w", err)
	}

	slog.Debug("Loaded workspace",
		logfields.Path(root),
		slog.Int("projects", len(ws.Projects)),
		slog.Int("external", len(ws.External)))
	return ws, nil
}

// Project returns the named project.
func (w *Workspace) Project(name string) (*Project, error) {
	p, ok := w.Projects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProject, name)
	}
	return p, nil
}

// ProjectNames returns every project name, sorted.
func (w *Workspace) ProjectNames() []string {
	names := make([]string, 0, len(w.Projects))
	for name := range w.Projects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (w *Workspace) loadExternal() {
	for _, field := range []string{packagejson.FieldDependencies, "optionalDependencies", packagejson.FieldDevDependencies} {
		for name, declared := range w.Descriptor.Deps(field) {
			if _, seen := w.External[name]; seen {
				continue
			}
			w.External[name] = w.installedVersion(name, declared)
		}
	}
}

func (w *Workspace) installedVersion(name, declared string) string {
	installed, err := packagejson.Read(filepath.Join(w.Root, "node_modules", filepath.FromSlash(name), packagejson.FileName))
	if err != nil || installed.Version() == "" {
		return declared
	}
	return installed.Version()
}

func readProject(root, path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return nil, err
	}
	if p.Root == "" {
		p.Root = filepath.ToSlash(rel)
	}
	if p.Name == "" {
		p.Name = filepath.Base(dir)
	}
	p.Root = strings.TrimPrefix(filepath.ToSlash(p.Root), "./")

	if d, err := packagejson.Read(filepath.Join(dir, packagejson.FileName)); err == nil {
		p.Descriptor = d
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return &p, nil
}
