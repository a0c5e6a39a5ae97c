// Package build is the library build executor.
//
// Executor.Run resolves the entry points of a project, cleans and bundles its
// output, and on the first successful bundler pass synthesizes the output
// package.json and copies the static assets. In watch mode the assets stay in
// sync until the bundler stops.
package build
