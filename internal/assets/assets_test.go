package assets

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestAsset_UnmarshalJSON(t *testing.T) {
	var assets []Asset
	require.NoError(t, json.Unmarshal([]byte(`[
		"libs/core/README.md",
		"libs/core/src/**/*.css",
		{"input": "libs/core/templates", "glob": "**/*", "output": "templates", "ignore": ["**/*.tmp"]},
		{"input": "docs", "glob": "*.md"}
	]`), &assets))

	assert.Equal(t, []Asset{
		{Input: "libs/core", Glob: "README.md", Output: "."},
		{Input: "libs/core/src", Glob: "**/*.css", Output: "."},
		{Input: "libs/core/templates", Glob: "**/*", Output: "templates", Ignore: []string{"**/*.tmp"}},
		{Input: "docs", Glob: "*.md", Output: "."},
	}, assets)

	var bad Asset
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestAsset_Validate(t *testing.T) {
	assert.NoError(t, Asset{Input: "a", Glob: "**/*.md", Output: "."}.Validate())
	assert.Error(t, Asset{Glob: "*.md"}.Validate())
	assert.Error(t, Asset{Input: "a", Glob: "[", Output: "."}.Validate())
	assert.Error(t, Asset{Input: "a", Glob: "*", Output: "../up"}.Validate())
	assert.Error(t, Asset{Input: "a", Glob: "*", Ignore: []string{"["}}.Validate())
}

func TestProcessAllAssetsOnce(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	writeFile(t, filepath.Join(root, "libs", "core", "README.md"), "readme")
	writeFile(t, filepath.Join(root, "libs", "core", "src", "a.css"), "a")
	writeFile(t, filepath.Join(root, "libs", "core", "src", "nested", "b.css"), "b")
	writeFile(t, filepath.Join(root, "libs", "core", "src", "index.ts"), "ts")
	writeFile(t, filepath.Join(root, "libs", "core", "templates", "x.hbs"), "x")
	writeFile(t, filepath.Join(root, "libs", "core", "templates", "x.tmp"), "tmp")

	h := &Handler{
		RootDir:    root,
		ProjectDir: filepath.Join(root, "libs", "core"),
		OutputDir:  out,
		Assets: []Asset{
			FromPattern("libs/core/README.md"),
			FromPattern("libs/core/src/**/*.css"),
			{Input: "libs/core/templates", Glob: "**/*", Output: "templates", Ignore: []string{"**/*.tmp"}},
			{Input: "libs/missing", Glob: "*", Output: "."},
		},
	}

	n, err := h.ProcessAllAssetsOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.Equal(t, "readme", readFile(t, filepath.Join(out, "README.md")))
	assert.Equal(t, "a", readFile(t, filepath.Join(out, "a.css")))
	assert.Equal(t, "b", readFile(t, filepath.Join(out, "nested", "b.css")))
	assert.Equal(t, "x", readFile(t, filepath.Join(out, "templates", "x.hbs")))
	assert.NoFileExists(t, filepath.Join(out, "index.ts"))
	assert.NoFileExists(t, filepath.Join(out, "templates", "x.tmp"))
}

func TestProcessAllAssetsOnce_InvalidGlob(t *testing.T) {
	h := &Handler{RootDir: t.TempDir(), OutputDir: t.TempDir(), Assets: []Asset{{Input: "a", Glob: "[", Output: "."}}}
	_, err := h.ProcessAllAssetsOnce(context.Background())
	assert.Error(t, err)
}

func TestWatchAndProcessOnAssetChange(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	src := filepath.Join(root, "assets")
	writeFile(t, filepath.Join(src, "keep.txt"), "v1")

	h := &Handler{
		RootDir:   root,
		OutputDir: out,
		Assets:    []Asset{{Input: "assets", Glob: "**/*.txt", Output: "."}},
	}
	_, err := h.ProcessAllAssetsOnce(context.Background())
	require.NoError(t, err)

	unregister, err := h.WatchAndProcessOnAssetChange(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	defer unregister()

	writeFile(t, filepath.Join(src, "keep.txt"), "v2")
	writeFile(t, filepath.Join(src, "new.txt"), "new")
	writeFile(t, filepath.Join(src, "skip.bin"), "bin")

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(filepath.Join(out, "keep.txt"))
		if err != nil || string(data) != "v2" {
			return false
		}
		_, err = os.Stat(filepath.Join(out, "new.txt"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(src, "new.txt")))
	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(out, "new.txt"))
		return os.IsNotExist(err)
	}, 5*time.Second, 20*time.Millisecond)

	assert.NoFileExists(t, filepath.Join(out, "skip.bin"))
}

func TestWatch_UnregisterTwice(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "assets"), 0o755))
	h := &Handler{RootDir: root, OutputDir: t.TempDir(), Assets: []Asset{{Input: "assets", Glob: "*", Output: "."}}}

	unregister, err := h.WatchAndProcessOnAssetChange(context.Background(), 0)
	require.NoError(t, err)
	unregister()
	unregister()
}

func TestProcessAllAssetsOnce_DirectoryPattern(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	writeFile(t, filepath.Join(root, "libs", "core", "docs", "guide.md"), "guide")
	writeFile(t, filepath.Join(root, "libs", "core", "docs", "img", "logo.svg"), "svg")

	h := &Handler{RootDir: root, OutputDir: out, Assets: []Asset{FromPattern("libs/core/docs")}}
	n, err := h.ProcessAllAssetsOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, "guide", readFile(t, filepath.Join(out, "docs", "guide.md")))
	assert.Equal(t, "svg", readFile(t, filepath.Join(out, "docs", "img", "logo.svg")))
}
