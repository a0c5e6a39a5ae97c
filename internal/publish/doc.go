// Package publish is the library publish executor.
//
// The build output directory is published from inside the workspace so that
// the package manager resolves workspace dependencies and auth the same way it
// does for the source project. To do so the root package.json temporarily
// lists the output directory as a workspace member in place of the project
// root; the original file is restored after publishing, whatever the outcome.
package publish
