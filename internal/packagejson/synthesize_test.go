package packagejson

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/libbuilder/internal/entrypoints"
)

type fakeLockfile struct {
	dirs []string
	err  error
}

func (f *fakeLockfile) GenerateLockfile(_ context.Context, dir string) (string, error) {
	f.dirs = append(f.dirs, dir)
	if f.err != nil {
		return "", f.err
	}
	return filepath.Join(dir, "package-lock.json"), nil
}

func TestSynthesize_ReadsProjectDescriptor(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Write(filepath.Join(root, "libs", "core", FileName), Descriptor{
		"name":               "@acme/core",
		"version":            "2.0.0",
		"type":               "module",
		FieldDevDependencies: map[string]any{"vitest": "^1.0.0"},
	}))
	out := filepath.Join(root, "dist", "libs", "core")

	d, err := Synthesize(context.Background(), SynthesizeOptions{
		WorkspaceRoot: root,
		ProjectRoot:   "libs/core",
		ProjectName:   "core",
		OutputPath:    out,
		Update: UpdateOptions{
			Entries: entrypoints.Single("src/index.ts"),
			OutDir:  "dist",
			Formats: []Format{FormatESM},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "./dist/index.js", d["module"])
	assert.Contains(t, d, FieldDevDependencies)

	written, err := Read(filepath.Join(out, FileName))
	require.NoError(t, err)
	assert.Equal(t, "@acme/core", written.Name())
	assert.Equal(t, "./dist/index.js", written["module"])
}

func TestSynthesize_DefaultDescriptor(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")

	d, err := Synthesize(context.Background(), SynthesizeOptions{
		WorkspaceRoot: root,
		ProjectRoot:   "libs/missing",
		ProjectName:   "missing",
		OutputPath:    out,
		Update:        UpdateOptions{Entries: entrypoints.Single("src/index.ts")},
	})
	require.NoError(t, err)

	assert.Equal(t, "missing", d.Name())
	assert.Equal(t, "0.0.1", d.Version())
	assert.FileExists(t, filepath.Join(out, FileName))
}

func TestSynthesize_ProductionDependencies(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Write(filepath.Join(root, FileName), Descriptor{
		FieldDevDependencies: map[string]any{"tsup": "^8.0.0"},
	}))
	require.NoError(t, Write(filepath.Join(root, "libs", "app", FileName), Descriptor{
		"name":               "app",
		"version":            "1.0.0",
		FieldDevDependencies: map[string]any{"vitest": "^1.0.0"},
	}))
	require.NoError(t, Write(filepath.Join(root, "dist", "libs", "core", FileName),
		Descriptor{"name": "@acme/core", "version": "3.1.0"}))

	deps := []Dependency{
		{Name: "tsup", Kind: KindExternal, Version: "8.0.2"},
		{Name: "tslib", Kind: KindExternal, Version: "2.6.2"},
		{Name: "@acme/core", Kind: KindWorkspace, Project: "core"},
	}
	resolver := func(string) []string { return []string{"dist/libs/core"} }

	t.Run("with libs", func(t *testing.T) {
		d, err := Synthesize(context.Background(), SynthesizeOptions{
			WorkspaceRoot:              root,
			ProjectRoot:                "libs/app",
			ProjectName:                "app",
			OutputPath:                 filepath.Join(root, "dist", "libs", "app"),
			Update:                     UpdateOptions{Entries: entrypoints.Single("src/index.ts")},
			UpdateBuildableProjectDeps: true,
			Dependencies:               deps,
			Outputs:                    resolver,
		})
		require.NoError(t, err)

		assert.NotContains(t, d, FieldDevDependencies)
		assert.Equal(t, map[string]string{"tslib": "2.6.2", "@acme/core": "3.1.0"}, d.Deps(FieldDependencies))
	})

	t.Run("exclude libs", func(t *testing.T) {
		d, err := Synthesize(context.Background(), SynthesizeOptions{
			WorkspaceRoot:              root,
			ProjectRoot:                "libs/app",
			ProjectName:                "app",
			OutputPath:                 filepath.Join(root, "dist", "libs", "app"),
			Update:                     UpdateOptions{Entries: entrypoints.Single("src/index.ts")},
			UpdateBuildableProjectDeps: true,
			DependencyField:            FieldPeerDependencies,
			ExcludeLibs:                true,
			Dependencies:               deps,
			Outputs:                    resolver,
		})
		require.NoError(t, err)

		assert.Equal(t, map[string]string{"tslib": "2.6.2"}, d.Deps(FieldPeerDependencies))
	})
}

func TestSynthesize_Lockfile(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	lock := &fakeLockfile{}

	_, err := Synthesize(context.Background(), SynthesizeOptions{
		WorkspaceRoot:    root,
		ProjectRoot:      ".",
		ProjectName:      "lib",
		OutputPath:       out,
		Update:           UpdateOptions{Entries: entrypoints.Single("src/index.ts")},
		GenerateLockfile: true,
		Lockfile:         lock,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{out}, lock.dirs)

	lock.err = errors.New("boom")
	_, err = Synthesize(context.Background(), SynthesizeOptions{
		WorkspaceRoot:    root,
		ProjectRoot:      ".",
		ProjectName:      "lib",
		OutputPath:       out,
		Update:           UpdateOptions{Entries: entrypoints.Single("src/index.ts")},
		GenerateLockfile: true,
		Lockfile:         lock,
	})
	assert.Error(t, err)
}

func TestSynthesize_InvalidProjectDescriptor(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte("{"), 0o644))

	_, err := Synthesize(context.Background(), SynthesizeOptions{
		WorkspaceRoot: root,
		ProjectRoot:   ".",
		OutputPath:    filepath.Join(root, "dist"),
		Update:        UpdateOptions{Entries: entrypoints.Single("src/index.ts")},
	})
	assert.Error(t, err)
}

func TestSynthesize_ImportedUndeclaredDependencies(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Write(filepath.Join(root, FileName), Descriptor{
		"name":               "acme",
		FieldDevDependencies: map[string]any{"vitest": "^1.0.0"},
	}))
	require.NoError(t, Write(filepath.Join(root, "libs", "app", FileName), Descriptor{
		"name":            "@acme/app",
		"version":         "1.0.0",
		FieldDependencies: map[string]any{"tslib": "^2.6.0"},
	}))
	require.NoError(t, Write(filepath.Join(root, "dist", "libs", "core", FileName), Descriptor{
		"name": "@acme/core", "version": "1.4.0",
	}))

	declared := []Dependency{{Name: "tslib", Kind: KindExternal, Version: "2.6.2"}}
	imported := []Dependency{
		{Name: "@acme/core", Kind: KindWorkspace, Project: "core"},
		{Name: "tslib", Kind: KindExternal, Version: "2.6.2"},
		{Name: "vitest", Kind: KindExternal, Version: "1.0.0"},
		{Name: "zod", Kind: KindExternal, Version: "3.22.4"},
	}
	out := filepath.Join(root, "dist", "libs", "app")
	d, err := Synthesize(context.Background(), SynthesizeOptions{
		WorkspaceRoot:              root,
		ProjectRoot:                "libs/app",
		ProjectName:                "app",
		OutputPath:                 out,
		Update:                     UpdateOptions{Entries: entrypoints.Single("src/index.ts")},
		UpdateBuildableProjectDeps: true,
		Dependencies:               MergeDependencies(declared, imported),
		Outputs: func(project string) []string {
			return []string{"dist/libs/" + project}
		},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"@acme/core": "1.4.0",
		"tslib":      "^2.6.0",
		"zod":        "3.22.4",
	}, d.Deps(FieldDependencies))
}

func TestMergeDependencies(t *testing.T) {
	got := MergeDependencies(
		[]Dependency{{Name: "zod", Kind: KindExternal, Version: "^3.0.0"}},
		[]Dependency{{Name: "zod", Kind: KindExternal, Version: "3.22.4"}, {Name: "@acme/core", Kind: KindWorkspace, Project: "core"}, {}},
	)
	assert.Equal(t, []Dependency{
		{Name: "@acme/core", Kind: KindWorkspace, Project: "core"},
		{Name: "zod", Kind: KindExternal, Version: "^3.0.0"},
	}, got)
}
