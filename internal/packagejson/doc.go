// Package packagejson synthesizes the package.json of a built library.
//
// BuildExports computes the "exports" map for one module format, Update merges
// the per-format results into a descriptor (main, module, type, types, exports),
// AddMissingDependencies enriches the dependency fields from the workspace graph
// and Synthesize ties those steps together for the build executor.
package packagejson
