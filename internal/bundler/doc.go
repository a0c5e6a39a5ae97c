// Package bundler runs the external bundler that compiles a library.
//
// The Bundler interface hides the binary: TsupBundler drives the tsup CLI in
// the project directory and reports every successful compilation pass through
// Options.OnSuccess, FuncBundler adapts a plain function for tests.
package bundler
