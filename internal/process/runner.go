package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	foundation "git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/pluginbuild/internal/logfields"
)

// ErrBinaryNotFound is returned when the command's program is not on PATH.
var ErrBinaryNotFound = errors.New("binary not found")

// Runner abstracts how external commands are executed so that stages can be
// exercised without git or msbuild installed.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands as child processes.
type ExecRunner struct {
	// Echo receives a "Running: <command>" line before each command. Nil disables it.
	Echo   io.Writer
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner streaming to the process's own stdout/stderr.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Echo: os.Stderr, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes cmd and waits for it to finish.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	line := cmd.String()
	if r.Echo != nil {
		_, _ = fmt.Fprintf(r.Echo, "Running: %s\n", line)
	}

	path, err := exec.LookPath(cmd.Name)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBinaryNotFound, cmd.Name, err)
	}

	c := exec.CommandContext(ctx, path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	slog.Debug("Starting command", logfields.Command(line), logfields.Path(cmd.Dir))
	if err := c.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", cmd.Name, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			slog.Error("Command failed", logfields.Command(line), logfields.ExitCode(code))
			return foundation.ProcessError(cmd.Argv(), code, err).Build()
		}
		return foundation.WrapError(err, foundation.CategoryProcess, "failed to start command").
			Fatal().
			WithContext("command", line).
			Build()
	}
	return nil
}
