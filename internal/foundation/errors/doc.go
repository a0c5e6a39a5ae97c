// Package errors provides classified error primitives used across libbuilder.
//
// A ClassifiedError carries a category (config, bundler, package_manager, ...),
// a severity, a retry hint and structured context. Errors are built with the
// fluent ErrorBuilder and mapped to exit codes by the CLI adapter.
//
// Example usage:
//
//	err := errors.FileSystemError("clean output path").
//		WithCause(cause).
//		WithContext("path", outputPath).
//		Build()
package errors
