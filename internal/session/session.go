// Package session carries the state of a single vmctl invocation.
//
// Everything that would otherwise be process-wide (the dry-run flag, the
// exit-hook list, the logger, output streams) lives on a Session that is
// passed explicitly to every command.
package session

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jbweber/vmctl/internal/config"
	"github.com/jbweber/vmctl/internal/exithook"
	"github.com/jbweber/vmctl/internal/runner"
)

// Session is the execution context of one command.
type Session struct {
	Ctx    context.Context
	RunID  string
	DryRun bool

	Config *config.Config
	Log    *zap.Logger
	Runner *runner.Runner
	Hooks  *exithook.Registry

	// Stdout receives command results; Stderr receives usage and traces.
	Stdout io.Writer
	Stderr io.Writer
}

// Options configures New.
type Options struct {
	Config *config.Config
	Log    *zap.Logger
	DryRun bool
	Stdout io.Writer
	Stderr io.Writer
}

// New builds a session. Nil fields in opts fall back to defaults and the
// process standard streams.
func New(ctx context.Context, opts Options) *Session {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	runID := uuid.NewString()
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	log.Debug("session started",
		zap.String("run_id", runID),
		zap.Bool("dry_run", opts.DryRun),
	)

	r := runner.New(log, opts.DryRun)
	r.Trace = stderr
	r.Stdout = stdout
	r.Stderr = stderr

	return &Session{
		Ctx:    ctx,
		RunID:  runID,
		DryRun: opts.DryRun,
		Config: cfg,
		Log:    log,
		Runner: r,
		Hooks:  exithook.New(log, stderr),
		Stdout: stdout,
		Stderr: stderr,
	}
}
