// Package runner executes the external virtualization tools that vmctl
// orchestrates.
//
// Every invocation goes through a Runner so that tracing and dry-run mode
// are applied in one place. Mutating invocations (Run, Remove) are echoed
// to the trace writer and suppressed entirely in dry-run mode. Read-only
// queries (Output) always execute because later steps depend on their
// output.
package runner

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"mvdan.cc/sh/v3/syntax"
)

// Executor is the subset of Runner used by the tool adapters.
type Executor interface {
	// Run executes a mutating command, honouring dry-run mode.
	Run(ctx context.Context, name string, args ...string) error

	// Output executes a read-only query and returns its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Runner runs external commands synchronously.
type Runner struct {
	// DryRun suppresses Run and Remove. It is set once when the session is
	// built and never reset.
	DryRun bool

	// Trace receives one line per mutating command before it runs.
	Trace io.Writer

	// Stdout and Stderr receive the output of mutating commands.
	Stdout io.Writer
	Stderr io.Writer

	Log *zap.Logger

	command func(ctx context.Context, name string, args ...string) *exec.Cmd
	remove  func(path string) error
}

// New returns a Runner writing to the process standard streams.
func New(log *zap.Logger, dryRun bool) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		DryRun:  dryRun,
		Trace:   os.Stderr,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Log:     log,
		command: exec.CommandContext,
		remove:  os.Remove,
	}
}

// Run prints the command line and executes it unless dry-run mode is set.
// A non-zero exit status is returned as an *ExitError carrying the status
// unchanged.
func (r *Runner) Run(ctx context.Context, name string, args ...string) error {
	line := CommandLine(name, args...)
	if r.DryRun {
		r.trace("[dry-run] " + line)
		return nil
	}
	r.trace("+ " + line)

	cmd := r.cmd(ctx, name, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	return wrapExecError(cmd.Run(), line, "")
}

// Output executes a read-only query and returns its standard output. It
// runs in dry-run mode as well.
func (r *Runner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	line := CommandLine(name, args...)
	r.logger().Debug("query", zap.String("command", line))

	var stdout, stderr bytes.Buffer
	cmd := r.cmd(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), wrapExecError(err, line, stderr.String())
	}
	return stdout.Bytes(), nil
}

// Remove deletes a file. It is traced as "rm -f" and suppressed in dry-run
// mode. A file that is already gone is not an error.
func (r *Runner) Remove(path string) error {
	line := CommandLine("rm", "-f", path)
	if r.DryRun {
		r.trace("[dry-run] " + line)
		return nil
	}
	r.trace("+ " + line)

	remove := r.remove
	if remove == nil {
		remove = os.Remove
	}
	if err := remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "failed to remove %s", path)
	}
	return nil
}

func (r *Runner) cmd(ctx context.Context, name string, args ...string) *exec.Cmd {
	if r.command == nil {
		return exec.CommandContext(ctx, name, args...)
	}
	return r.command(ctx, name, args...)
}

func (r *Runner) trace(line string) {
	if r.Trace == nil {
		return
	}
	_, _ = io.WriteString(r.Trace, line+"\n")
}

func (r *Runner) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

// CommandLine renders a command and its arguments the way a shell user
// would type them, quoting only where needed.
func CommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, s := range append([]string{name}, args...) {
		parts = append(parts, quote(s))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		// Only strings with NUL bytes fail; fall back to Go quoting.
		return strconv.Quote(s)
	}
	return q
}
