// Package git reads repository metadata recorded in published packages.
package git
