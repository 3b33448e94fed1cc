package execx

// Package execx runs the external command-line collaborators (az, kubectl,
// istioctl). Each call is a typed Command descriptor rather than a
// free-form token list; retry policy belongs to callers.

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/yaegashi/aksmesh/domain/model"
	"github.com/yaegashi/aksmesh/internal/logging"
)

// Command describes one external process invocation.
type Command struct {
	// Name is the executable to run, resolved via PATH.
	Name string
	// Args are the positional arguments.
	Args []string
	// Stdin, when non-empty, is streamed to the process input.
	Stdin string
	// Check makes a non-zero exit an *model.ExecutionError.
	Check bool
	// Quiet suppresses the command line log.
	Quiet bool
	// Desc is a short operator-facing description of the invocation.
	Desc string
}

// Line renders the command as a single shell-like line for logging.
func (c Command) Line() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result captures the outcome of a completed process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes commands. The local implementation shells out; tests
// substitute a scripted fake.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Local runs commands as child processes of this one.
type Local struct{}

// Run executes cmd synchronously, capturing stdout and stderr. When
// cmd.Check is set and the process exits non-zero the error is a
// *model.ExecutionError carrying the stderr text. Failure to start the
// process at all is always an error.
func (Local) Run(ctx context.Context, cmd Command) (*Result, error) {
	logger := logging.FromContext(ctx)
	if !cmd.Quiet {
		logger.Info(ctx, "exec", "command", cmd.Line(), "desc", cmd.Desc)
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if cmd.Stdin != "" {
		c.Stdin = strings.NewReader(cmd.Stdin)
	}
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, err
		}
		res.ExitCode = exitErr.ExitCode()
	}
	if !cmd.Quiet {
		logger.Debug(ctx, "exec done", "command", cmd.Name, "exit_code", res.ExitCode)
	}
	if cmd.Check && res.ExitCode != 0 {
		return res, &model.ExecutionError{Command: cmd.Line(), ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res, nil
}
