package packagejson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/libbuilder/internal/entrypoints"
)

func TestBuildExports_NamedEsmWithTypings(t *testing.T) {
	entries := entrypoints.NamedOrdered(
		[]string{"index", "cli"},
		map[string]string{"index": "src/index.ts", "cli": "src/cli.ts"},
	)

	got, err := BuildExports(ExportOptions{
		Entries: entries,
		OutDir:  "dist",
		FileExt: ".mjs",
		Typings: true,
	}, ConditionImport)
	require.NoError(t, err)

	assert.Equal(t, Exports{
		".": {ConditionImport: {Types: "./dist/index.d.mts", Default: "./dist/index.mjs"}},
		"./cli": {ConditionImport: {Types: "./dist/cli.d.mts", Default: "./dist/cli.mjs"}},
	}, got)
}

func TestBuildExports_KeyCount(t *testing.T) {
	tests := []struct {
		name    string
		entries entrypoints.Set
		want    []string
	}{
		{"single", entrypoints.Single("src/index.ts"), []string{"."}},
		{"list", entrypoints.List("src/index.ts", "src/a.ts", "src/b.mts"), []string{".", "./a", "./b"}},
		{"named", entrypoints.NamedOrdered([]string{"x", "main", "y", "z"}, map[string]string{"main": "src/main.ts", "x": "src/x.ts", "y": "src/y.ts", "z": "src/z.ts"}), []string{".", "./x", "./y", "./z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildExports(ExportOptions{Entries: tt.entries, FileExt: ".js"}, ConditionRequire)
			require.NoError(t, err)
			assert.Len(t, got, tt.entries.Len())
			for _, key := range tt.want {
				assert.Contains(t, got, key)
			}
		})
	}
}

func TestBuildExports_NoTypingsAndEmptyOutDir(t *testing.T) {
	got, err := BuildExports(ExportOptions{
		Entries: entrypoints.Single("./src/index.ts"),
		FileExt: ".cjs",
	}, ConditionRequire)
	require.NoError(t, err)

	target := got["."][ConditionRequire]
	assert.Equal(t, "./index.cjs", target.Default)
	assert.Empty(t, target.Types)
}

func TestBuildExports_NoPrimary(t *testing.T) {
	_, err := BuildExports(ExportOptions{FileExt: ".js"}, ConditionImport)
	assert.ErrorIs(t, err, entrypoints.ErrNoPrimaryEntry)
}

func TestDeclarationExt(t *testing.T) {
	assert.Equal(t, ".mts", DeclarationExt(".mjs"))
	assert.Equal(t, ".cts", DeclarationExt(".cjs"))
	assert.Equal(t, ".ts", DeclarationExt(".js"))
}

func TestRelativeDir(t *testing.T) {
	assert.Equal(t, "./", relativeDir(""))
	assert.Equal(t, "./", relativeDir("."))
	assert.Equal(t, "./dist/", relativeDir("dist"))
	assert.Equal(t, "./dist/", relativeDir("./dist/"))
	assert.Equal(t, "./lib/esm/", relativeDir("lib/esm"))
}
