package bundler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/libbuilder/internal/entrypoints"
	"git.home.luguber.info/inful/libbuilder/internal/packagejson"
)

func TestArgs_Named(t *testing.T) {
	b := &TsupBundler{ExtraArgs: []string{"--minify"}}
	args := b.Args(Options{
		Entries:    entrypoints.NamedOrdered([]string{"index", "cli"}, map[string]string{"index": "/ws/src/index.ts", "cli": "/ws/src/cli.ts"}),
		OutDir:     "/ws/dist/lib/dist",
		Formats:    []packagejson.Format{packagejson.FormatCJS, packagejson.FormatESM},
		Sourcemap:  true,
		DTS:        true,
		DTSResolve: true,
		TSConfig:   "/ws/lib/tsconfig.lib.json",
		External:   []string{"react"},
		Watch:      true,
		Metafile:   true,
	})

	assert.Equal(t, []string{
		"--entry.index=/ws/src/index.ts",
		"--entry.cli=/ws/src/cli.ts",
		"--out-dir", "/ws/dist/lib/dist",
		"--format", "cjs,esm",
		"--sourcemap",
		"--dts",
		"--dts-resolve",
		"--tsconfig", "/ws/lib/tsconfig.lib.json",
		"--external", "react",
		"--metafile",
		"--watch",
		"--minify",
	}, args)
}

func TestArgs_ListDefaultsToCjs(t *testing.T) {
	b := &TsupBundler{}
	args := b.Args(Options{Entries: entrypoints.List("/a.ts", "/b.ts"), OutDir: "/out"})
	assert.Equal(t, []string{"/a.ts", "/b.ts", "--out-dir", "/out", "--format", "cjs"}, args)
}

func TestPassTracker(t *testing.T) {
	p := newPassTracker([]packagejson.Format{packagejson.FormatCJS, packagejson.FormatESM}, true)

	assert.False(t, p.observe("CLI Building entry: src/index.ts"))
	assert.False(t, p.observe("CJS Build success in 12ms"))
	assert.False(t, p.observe("ESM ⚡️ Build success in 13ms"))
	assert.True(t, p.observe("DTS ⚡️ Build success in 900ms"))

	// next watch pass starts from scratch
	assert.False(t, p.observe("CJS Build success in 5ms"))
	assert.False(t, p.observe("ESM Build failed"))
	assert.False(t, p.observe("ESM Build success in 5ms"))
	assert.False(t, p.observe("DTS Build success in 5ms"))
	assert.True(t, p.observe("CJS Build success in 5ms"))
}

func TestPassTracker_IgnoresUnrequestedFormats(t *testing.T) {
	p := newPassTracker(nil, false)
	assert.False(t, p.observe("ESM Build success in 1ms"))
	assert.False(t, p.observe("DTS Build success in 1ms"))
	assert.True(t, p.observe(stripANSI("\x1b[34mCJS\x1b[39m Build success in 1ms")))
}

func fakeTsup(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script bundler stub")
	}
	path := filepath.Join(t.TempDir(), "tsup")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestBuild_CallsOnSuccessInWorkDir(t *testing.T) {
	bin := fakeTsup(t, `pwd > "$PWD/cwd.txt"
echo "CJS Build success in 3ms"
echo "ESM Build success in 3ms"
`)
	work := t.TempDir()
	calls := 0
	b := &TsupBundler{Binary: bin}

	err := b.Build(context.Background(), Options{
		Entries: entrypoints.Single(filepath.Join(work, "src", "index.ts")),
		OutDir:  filepath.Join(work, "dist"),
		Formats: []packagejson.Format{packagejson.FormatCJS, packagejson.FormatESM},
		WorkDir: work,
		OnSuccess: func(context.Context) error {
			calls++
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.FileExists(t, filepath.Join(work, "cwd.txt"))
}

func TestBuild_Failure(t *testing.T) {
	bin := fakeTsup(t, `echo "error TS2304: Cannot find name 'x'" >&2
exit 1
`)
	work := t.TempDir()
	called := false
	b := &TsupBundler{Binary: bin}

	err := b.Build(context.Background(), Options{
		Entries:   entrypoints.Single("src/index.ts"),
		OutDir:    "dist",
		WorkDir:   work,
		OnSuccess: func(context.Context) error { called = true; return nil },
	})
	require.ErrorIs(t, err, ErrBundlerFailed)
	assert.Contains(t, err.Error(), "Cannot find name")
	assert.False(t, called)
}

func TestBuild_CallbackErrorStopsBundler(t *testing.T) {
	bin := fakeTsup(t, `echo "CJS Build success in 1ms"
exec sleep 5
`)
	boom := errors.New("synthesis failed")
	b := &TsupBundler{Binary: bin}

	err := b.Build(context.Background(), Options{
		Entries:   entrypoints.Single("src/index.ts"),
		OutDir:    "dist",
		WorkDir:   t.TempDir(),
		OnSuccess: func(context.Context) error { return boom },
	})
	assert.ErrorIs(t, err, boom)
}

func TestBuild_MissingBinary(t *testing.T) {
	b := &TsupBundler{Binary: filepath.Join(t.TempDir(), "nope", "tsup")}
	err := b.Build(context.Background(), Options{Entries: entrypoints.Single("a.ts"), WorkDir: t.TempDir()})
	assert.ErrorIs(t, err, ErrBundlerNotFound)
}

func TestBuild_NoEntries(t *testing.T) {
	err := (&TsupBundler{}).Build(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrNoEntries)
}

func TestBinary_PrefersWorkspaceLocal(t *testing.T) {
	root := t.TempDir()
	local := filepath.Join(root, "node_modules", ".bin", "tsup")
	require.NoError(t, os.MkdirAll(filepath.Dir(local), 0o755))
	require.NoError(t, os.WriteFile(local, []byte("#!/bin/sh\n"), 0o755))

	got, err := (&TsupBundler{WorkspaceRoot: root}).binary()
	require.NoError(t, err)
	assert.Equal(t, local, got)
}

func TestFuncBundler(t *testing.T) {
	var got Options
	f := FuncBundler(func(_ context.Context, opts Options) error {
		got = opts
		return nil
	})
	require.NoError(t, f.Build(context.Background(), Options{OutDir: "x"}))
	assert.Equal(t, "x", got.OutDir)
}
