// Package entrypoints models the entry point set of a library build: a single
// path, an ordered list of paths, or an ordered mapping of output names to paths.
//
// Exactly one entry is primary. Primary resolves it with a fixed priority list
// (PrimaryNames) and is shared by path resolution in the build executor and by
// the export map computation, so both always agree on which entry maps to ".".
package entrypoints
