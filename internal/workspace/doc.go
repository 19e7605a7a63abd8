// Package workspace manages the build directory a plugin build runs in.
//
// The build directory is persistent: dependency checkouts, the copied project
// file, the synthesized solution and the history database survive between
// runs so later builds only fetch what changed. Layout exposes the well-known
// paths below it.
package workspace
