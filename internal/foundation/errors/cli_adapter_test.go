package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "config", err: ConfigError("no entry").Build(), expected: 7},
		{name: "workspace", err: WorkspaceError("no nx.json").Build(), expected: 7},
		{name: "not found", err: NotFoundError("unknown project").Build(), expected: 4},
		{name: "package manager", err: PackageManagerError("publish failed").Build(), expected: 8},
		{name: "bundler", err: BundlerError("tsup failed").Build(), expected: 11},
		{name: "filesystem", err: FileSystemError("rm failed").Build(), expected: 11},
		{name: "internal", err: InternalError("boom").Build(), expected: 10},
		{name: "unclassified", err: errors.New("unknown"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	cause := errors.New("exit status 2")
	err := WrapError(cause, CategoryBundler, "bundler failed").Build()

	quiet := NewCLIErrorAdapter(false, nil)
	assert.Equal(t, "Error: bundler failed (use -v for details)", quiet.FormatError(err))

	verbose := NewCLIErrorAdapter(true, nil)
	assert.Contains(t, verbose.FormatError(err), "exit status 2")

	assert.Equal(t, "Error: plain", quiet.FormatError(errors.New("plain")))
	assert.Empty(t, quiet.FormatError(nil))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	adapter := NewCLIErrorAdapter(false, logger)
	adapter.out = &out

	code := adapter.HandleError(ConfigError("no primary entry").WithContext("project", "utils").Build())

	assert.Equal(t, 7, code)
	assert.Contains(t, out.String(), "no primary entry")
	assert.Contains(t, logs.String(), "category=config")
	assert.Contains(t, logs.String(), "project=utils")
}
