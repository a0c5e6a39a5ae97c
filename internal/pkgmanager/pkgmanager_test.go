package pkgmanager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	dir  string
	argv []string
}

type fakeRunner struct {
	calls []call
	err   error
}

func (f *fakeRunner) Run(_ context.Context, dir string, argv []string) error {
	f.calls = append(f.calls, call{dir: dir, argv: argv})
	return f.err
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  Name
	}{
		{"default npm", nil, NPM},
		{"yarn lockfile", map[string]string{"yarn.lock": ""}, Yarn},
		{"pnpm lockfile", map[string]string{"pnpm-lock.yaml": ""}, PNPM},
		{"bun lockfile", map[string]string{"bun.lockb": ""}, Bun},
		{"npm lockfile", map[string]string{"package-lock.json": "{}"}, NPM},
		{"packageManager wins", map[string]string{
			"package.json": `{"packageManager": "pnpm@9.1.0"}`,
			"yarn.lock":    "",
		}, PNPM},
		{"unknown packageManager ignored", map[string]string{
			"package.json": `{"packageManager": "deno@1.0.0"}`,
			"yarn.lock":    "",
		}, Yarn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for name, content := range tt.files {
				require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
			}
			assert.Equal(t, tt.want, Detect(root))
		})
	}
}

func TestLockfileName(t *testing.T) {
	assert.Equal(t, "package-lock.json", LockfileName(NPM))
	assert.Equal(t, "yarn.lock", LockfileName(Yarn))
	assert.Equal(t, "pnpm-lock.yaml", LockfileName(PNPM))
	assert.Equal(t, "bun.lockb", LockfileName(Bun))
}

func TestParseName(t *testing.T) {
	n, err := ParseName(" Yarn ")
	require.NoError(t, err)
	assert.Equal(t, Yarn, n)

	_, err = ParseName("deno")
	assert.Error(t, err)
}

func TestPublishArgs(t *testing.T) {
	opts := PublishOptions{Tag: "next", Access: "public"}
	tests := []struct {
		name Name
		want []string
	}{
		{NPM, []string{"publish", "--tag=next", "--access=public"}},
		{Yarn, []string{"npm", "publish", "--tag=next", "--access=public"}},
		{PNPM, []string{"publish", "--no-git-checks", "--tag=next", "--access=public"}},
		{Bun, []string{"publish", "--tag=next", "--access=public"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			m, err := New(tt.name, "", &fakeRunner{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.PublishArgs(opts))
		})
	}

	m, err := New(NPM, "", &fakeRunner{})
	require.NoError(t, err)
	assert.Equal(t, []string{"publish", "--dry-run"}, m.PublishArgs(PublishOptions{DryRun: true}))
}

func TestManager_CommandOverride(t *testing.T) {
	t.Setenv("LIBBUILDER_TEST_YARN", "yarn")
	runner := &fakeRunner{}
	m, err := New(Yarn, `corepack "$LIBBUILDER_TEST_YARN"`, runner)
	require.NoError(t, err)

	require.NoError(t, m.Install(context.Background(), "/ws"))
	require.NoError(t, m.Publish(context.Background(), "/ws/dist", PublishOptions{Access: "restricted"}))

	assert.Equal(t, []call{
		{dir: "/ws", argv: []string{"corepack", "yarn", "install"}},
		{dir: "/ws/dist", argv: []string{"corepack", "yarn", "npm", "publish", "--access=restricted"}},
	}, runner.calls)
}

func TestNew_Errors(t *testing.T) {
	_, err := New("deno", "", nil)
	assert.Error(t, err)

	_, err = New(NPM, `"unterminated`, nil)
	assert.Error(t, err)

	_, err = New(NPM, "   ", nil)
	assert.Error(t, err)
}

func TestGenerateLockfile(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	m, err := New(Yarn, "", runner)
	require.NoError(t, err)

	path, err := m.GenerateLockfile(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "yarn.lock"), path)
	assert.FileExists(t, path)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"yarn", "install", "--mode=update-lockfile"}, runner.calls[0].argv)

	runner.err = errors.New("exit status 1")
	_, err = m.GenerateLockfile(context.Background(), dir)
	assert.Error(t, err)
}

func TestExecRunner_MissingBinary(t *testing.T) {
	r := &ExecRunner{}
	err := r.Run(context.Background(), t.TempDir(), []string{"libbuilder-no-such-binary"})
	assert.ErrorIs(t, err, ErrBinaryNotFound)
}
