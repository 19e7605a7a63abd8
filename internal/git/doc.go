// Package git fetches the source dependencies a plugin build compiles against.
//
// A dependency is either pinned to a branch or tag, or tracks the remote's
// default branch head. Fetching converges an existing checkout onto the wanted
// revision, or performs a fresh shallow clone when no checkout exists yet.
//
// Two interchangeable backends are provided:
//   - CLIFetcher runs the git client through a process.Runner, so a failing
//     command's exit status propagates unchanged to the caller.
//   - NativeFetcher uses go-git in-process and needs no git installation.
//
// Both report the resolved HEAD commit of every dependency.
package git
