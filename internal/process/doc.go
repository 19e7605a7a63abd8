// Package process runs external commands (git, msbuild) on behalf of the build
// pipeline. Each command is echoed before it starts, its output streams through
// to the caller, and a non-zero exit becomes a classified process error that
// carries the command's exit status.
package process
