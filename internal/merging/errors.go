package merging

import (
	"errors"
	"fmt"
	"strings"

	"github.com/skillmerge/skillmerge/internal/git"
)

// ErrExecutionFailure matches every error caused by an external invocation that did not
// run to completion (killed, timed out, missing binary, unexpected exit status, I/O failure).
// Merge conflicts are never reported through it.
var ErrExecutionFailure = errors.New("execution failure")

type ExecutionError struct {
	Op       string
	ExitCode int
	Message  string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}

func (e *ExecutionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExecutionFailure}
	}
	return []error{ErrExecutionFailure, e.Err}
}

func executionError(op string, err error) *ExecutionError {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr
	}

	e := &ExecutionError{Op: op, ExitCode: -1, Message: err.Error(), Err: err}

	var cmdErr *git.CommandError
	if errors.As(err, &cmdErr) {
		e.ExitCode = cmdErr.ExitCode
		if stderr := strings.TrimSpace(cmdErr.Stderr); stderr != "" {
			e.Message = stderr
		}
	}

	return e
}
