// Package exithook collects cleanup actions that must run when a command
// finishes, whatever the outcome.
//
// Hooks run in reverse registration order. Each hook runs in isolation: an
// error or panic in one hook is logged and the remaining hooks still run.
// The registry is drained at most once.
package exithook

import (
	"context"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/jbweber/vmctl/internal/runner"
)

// Func is a cleanup action.
type Func func(ctx context.Context) error

type hook struct {
	name string
	fn   Func
}

// Registry holds pending cleanup actions. It is not safe for concurrent
// use; a command and its hooks run on one goroutine.
type Registry struct {
	hooks   []hook
	drained bool

	log    *zap.Logger
	stderr io.Writer
}

// New returns an empty registry. Hook failures are logged to log and the
// exit trace is written to stderr.
func New(log *zap.Logger, stderr io.Writer) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Registry{log: log, stderr: stderr}
}

// Register adds a cleanup action. The most recently registered action runs
// first.
func (r *Registry) Register(name string, fn Func) {
	r.hooks = append([]hook{{name: name, fn: fn}}, r.hooks...)
}

// RegisterCommand adds a cleanup action that runs an external command
// through ex. The command is subject to the runner's dry-run mode.
func (r *Registry) RegisterCommand(ex runner.Executor, name string, args ...string) {
	r.Register(runner.CommandLine(name, args...), func(ctx context.Context) error {
		return ex.Run(ctx, name, args...)
	})
}

// Len returns the number of pending actions.
func (r *Registry) Len() int {
	return len(r.hooks)
}

// Drain runs every pending action once. When exitErr is non-nil the call
// trace recorded in it is printed before cleanup starts. exitErr itself is
// never modified; hook failures are only logged. Calls after the first are
// no-ops.
func (r *Registry) Drain(ctx context.Context, exitErr error) {
	if r.drained {
		return
	}
	r.drained = true
	hooks := r.hooks
	r.hooks = nil

	if exitErr != nil {
		WriteTrace(r.stderr, exitErr)
	}

	for _, h := range hooks {
		if err := runHook(ctx, h); err != nil {
			r.log.Warn("exit hook failed",
				zap.String("hook", h.name),
				zap.Error(err),
			)
			continue
		}
		r.log.Debug("exit hook done", zap.String("hook", h.name))
	}
}

func runHook(ctx context.Context, h hook) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.AssertionFailedf("panic in exit hook %s: %v", h.name, p)
		}
	}()
	return h.fn(ctx)
}
