// Package assets copies static files next to the bundled output, once or on
// every change while a watch build runs.
package assets
