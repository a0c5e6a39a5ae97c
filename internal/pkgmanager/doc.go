// Package pkgmanager runs the workspace package manager (npm, yarn, pnpm or
// bun) as a subprocess: install, publish and lockfile-only installs.
package pkgmanager
