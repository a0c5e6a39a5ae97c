// Package workspace reads the project graph of an Nx-style workspace.
//
// The workspace root is the nearest directory holding nx.json. Projects are
// declared by project.json files below it; external packages come from the root
// package.json. The graph answers the questions the build and publish commands
// ask: where a project lives, what its target options are, which outputs a
// target produces and which projects or packages it depends on.
package workspace
