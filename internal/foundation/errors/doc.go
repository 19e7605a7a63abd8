// Package errors provides the classified error primitives used across pluginbuild.
//
// A ClassifiedError carries a category, a severity, a retry hint, structured context
// and, for failed external commands, the exit status the CLI must propagate.
//
//   - ErrorCategory: broad classification (config, git, build, process, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - ClassifiedError: structured error with category, severity and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: exit code mapping and user-facing formatting
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryGit, "clone failed").
//		WithContext("url", repoURL).
//		Build()
package errors
