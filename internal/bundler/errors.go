package bundler

import "errors"

var (
	// ErrBundlerNotFound indicates the bundler executable could not be located.
	ErrBundlerNotFound = errors.New("bundler binary not found")
	// ErrBundlerFailed indicates the bundler exited with a non-zero status.
	ErrBundlerFailed = errors.New("bundler execution failed")
	// ErrNoEntries indicates the bundler was invoked without entry points.
	ErrNoEntries = errors.New("bundler invoked without entry points")
)
