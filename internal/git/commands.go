package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

const DefaultBinary = "git"

// CommandError is returned when a native git command fails to start, is killed,
// or exits with a non-zero status. ExitCode is -1 when no exit status is available.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	name := ""
	if len(e.Args) > 0 {
		name = e.Args[0]
	}
	return fmt.Sprintf("failed to run git %s: %v - %s", name, e.Err, strings.TrimSpace(e.Stderr))
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Runner executes native git commands. The zero value runs "git" from PATH with no timeout.
type Runner struct {
	Binary  string
	Timeout time.Duration
}

var DefaultRunner = Runner{Binary: DefaultBinary}

func (r Runner) binary() string {
	if r.Binary == "" {
		return DefaultBinary
	}
	return r.Binary
}

// Run executes git with the given arguments in dir, feeding stdin when non-nil, and returns stdout.
// Failures are reported as *CommandError carrying stderr and the exit status.
func (r Runner) Run(ctx context.Context, dir string, stdin io.Reader, args ...string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.binary(), args...)
	cmd.Dir = dir
	if stdin != nil {
		cmd.Stdin = stdin
	}
	var outb, errb bytes.Buffer
	cmd.Stdout = &outb
	cmd.Stderr = &errb

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", ctx.Err(), err)
			exitCode = -1
		}
		return outb.String(), &CommandError{
			Args:     args,
			ExitCode: exitCode,
			Stderr:   errb.String(),
			Err:      err,
		}
	}

	return outb.String(), nil
}

// ExitCode extracts the exit status from an error returned by Runner.Run.
// ok is false when err did not come from a git invocation.
func ExitCode(err error) (code int, ok bool) {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode, true
	}
	return 0, false
}
