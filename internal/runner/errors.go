package runner

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
)

// exitNotFound mirrors the status a shell reports for a missing program.
const exitNotFound = 127

// ExitError reports an external command that did not exit cleanly.
type ExitError struct {
	// Command is the rendered command line.
	Command string
	// Code is the external program's exit status.
	Code int
	// Stderr holds captured standard error for queries; it is empty for
	// mutating commands whose stderr is passed through.
	Stderr string
}

func (e *ExitError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return fmt.Sprintf("command failed with exit status %d: %s: %s", e.Code, e.Command, msg)
	}
	return fmt.Sprintf("command failed with exit status %d: %s", e.Code, e.Command)
}

func wrapExecError(err error, line, stderr string) error {
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return errors.WithStack(&ExitError{Command: line, Code: exitErr.ExitCode(), Stderr: stderr})
	}
	if errors.Is(err, exec.ErrNotFound) {
		return errors.WithStack(&ExitError{Command: line, Code: exitNotFound, Stderr: err.Error()})
	}
	return errors.Wrapf(err, "failed to run %s", line)
}

// ExitCode maps an error to a process exit status: 0 for nil, the external
// program's status for an *ExitError anywhere in the chain, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return exitErr.Code
	}
	return 1
}
