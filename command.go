package harnessup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Exit statuses used when a failure does not come from a child process
const (
	ExitFailure         = 1
	ExitTimeout         = 124
	ExitCommandNotFound = 127
	ExitInterrupted     = 130
)

// CommandError reports a child process that could not start or exited with a
// non-zero status.
type CommandError struct {
	Command  []string
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	switch e.ExitCode {
	case ExitCommandNotFound:
		return fmt.Sprintf("command %q not found: %s", e.Command[0], e.Err)
	case ExitTimeout, ExitInterrupted:
		return fmt.Sprintf("command %q stopped: %s", strings.Join(e.Command, " "), e.Err)
	}
	return fmt.Sprintf("command %q failed with exit status %d", strings.Join(e.Command, " "), e.ExitCode)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCode maps err to a process exit status: 0 for nil, the child's status for
// a CommandError, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
		return cmdErr.ExitCode
	}
	return ExitFailure
}

// CommandOptions configures a child process
type CommandOptions struct {
	// Dir is the working directory of the child
	Dir string

	// Stdin, Stdout and Stderr are handed to the child directly. Nil discards.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Timeout kills the child after the given duration, zero means no timeout
	Timeout time.Duration
}

// RunCommand runs command[0] with the remaining arguments and waits for it.
// The child is killed when ctx is done.
func RunCommand(ctx context.Context, command []string, opts CommandOptions) error {
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = opts.Dir
	cmd.Stdin = opts.Stdin
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	zlog.Debug("executing command",
		zap.Strings("command", command),
		zap.String("dir", opts.Dir),
		zap.Duration("timeout", opts.Timeout))

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if errors.Is(err, exec.ErrNotFound) {
		return &CommandError{Command: command, ExitCode: ExitCommandNotFound, Err: err}
	}

	switch ctxErr := ctx.Err(); {
	case errors.Is(ctxErr, context.DeadlineExceeded):
		return &CommandError{Command: command, ExitCode: ExitTimeout, Err: fmt.Errorf("%w: %w", ctxErr, err)}
	case ctxErr != nil:
		return &CommandError{Command: command, ExitCode: ExitInterrupted, Err: fmt.Errorf("%w: %w", ctxErr, err)}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &CommandError{Command: command, ExitCode: exitStatus(err), Err: err}
	}

	return fmt.Errorf("failed to run %q: %w", strings.Join(command, " "), err)
}

// RunCommandOutput is RunCommand with stdout and stderr captured together. The
// captured output is attached to the returned CommandError on failure.
func RunCommandOutput(ctx context.Context, command []string, opts CommandOptions) (string, error) {
	var output bytes.Buffer
	opts.Stdout = &output
	opts.Stderr = &output

	err := RunCommand(ctx, command, opts)

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		cmdErr.Output = output.String()
	}
	return output.String(), err
}

// exitStatus extracts the child's status. A child killed by a signal reports
// 128+signal like a shell does.
func exitStatus(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return 128 + int(status.Signal())
		}
		if code := exitErr.ExitCode(); code > 0 {
			return code
		}
	}
	return ExitFailure
}
