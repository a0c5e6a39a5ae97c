package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "no primary entry").
			WithSeverity(SeverityFatal).
			WithContext("project", "utils").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "no primary entry", err.Message())
		assert.Equal(t, "config: no primary entry", err.Error())

		project, exists := err.Context().GetString("project")
		assert.True(t, exists)
		assert.Equal(t, "utils", project)
	})

	t.Run("Config errors need the user", func(t *testing.T) {
		err := ConfigError("bad options").Build()

		assert.True(t, HasCategory(err, CategoryConfig))
		assert.False(t, err.CanRetry())
		assert.True(t, err.IsFatal())
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		inner := BundlerError("tsup exited").Build()
		wrapped := fmt.Errorf("build utils: %w", inner)

		got, ok := AsClassified(wrapped)
		require.True(t, ok)
		assert.Same(t, inner, got)
		assert.True(t, HasCategory(wrapped, CategoryBundler))
		assert.False(t, HasCategory(errors.New("plain"), CategoryBundler))
	})
}

func TestErrorBuilder(t *testing.T) {
	originalErr := errors.New("exit status 1")
	err := WrapError(originalErr, CategoryPackageManager, "yarn install failed").
		Fatal().
		Retryable().
		WithContext("dir", "/ws").
		WithContext("attempt", 2).
		Build()

	assert.Equal(t, SeverityFatal, err.Severity())
	assert.Equal(t, RetryBackoff, err.RetryStrategy())
	assert.True(t, err.CanRetry())
	require.ErrorIs(t, err, originalErr)
	assert.Equal(t, "package_manager: yarn install failed: exit status 1", err.Error())

	attempt, ok := err.Context().Get("attempt")
	require.True(t, ok)
	assert.Equal(t, 2, attempt)
}

func TestConstructors_WithCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := FileSystemError("failed to clean output path").WithCause(cause).WithContext("path", "dist").Build()

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CategoryFileSystem, err.Category())
	assert.Equal(t, SeverityError, err.Severity())
	assert.Equal(t, "filesystem: failed to clean output path: permission denied", err.Error())

	missing := PackageManagerError("package manager not installed").WithCause(cause).UserAction().Build()
	assert.False(t, missing.CanRetry())
	assert.False(t, Retryable(missing))
	assert.True(t, Retryable(PackageManagerError("publish failed").WithCause(cause).Build()))

	unknown := NotFoundError("unknown project").Build()
	assert.Equal(t, RetryUserAction, unknown.RetryStrategy())
	assert.False(t, unknown.IsFatal())
}

func TestClassifiedError_WithContextDoesNotMutate(t *testing.T) {
	base := FileSystemError("clean failed").WithContext("path", "dist").Build()
	extended := base.WithContext("op", "remove")

	_, ok := base.Context().Get("op")
	assert.False(t, ok)
	op, _ := extended.Context().GetString("op")
	assert.Equal(t, "remove", op)
	path, _ := extended.Context().GetString("path")
	assert.Equal(t, "dist", path)
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.True(t, Retryable(errors.New("ETIMEDOUT")))
	assert.True(t, Retryable(PackageManagerError("install failed").Build()))
	assert.False(t, Retryable(fmt.Errorf("install: %w", PackageManagerError("yarn not found").UserAction().Build())))
	assert.False(t, Retryable(ValidationError("invalid outputPath").Build()))
}
