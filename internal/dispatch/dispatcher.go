package dispatch

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/jbweber/vmctl/internal/runner"
	"github.com/jbweber/vmctl/internal/session"
)

// ErrUsage marks errors caused by bad command-line usage. Commands wrap it
// so the dispatcher prints usage alongside the message.
var ErrUsage = errors.New("usage error")

// Usagef returns an error wrapping ErrUsage.
func Usagef(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrUsage)
}

// SessionFactory builds the session for a command once global flags are
// known.
type SessionFactory func(dryRun bool) *session.Session

// Dispatcher resolves argv to a registered command and runs it.
type Dispatcher struct {
	Program    string
	Registry   *Registry
	NewSession SessionFactory
	Stdout     io.Writer
	Stderr     io.Writer
}

// Dispatch runs the command named in argv and returns the process exit
// status. Global flags are -h/--help, which stops flag scanning, and
// --dry-run. All other tokens are left for the command.
func (d *Dispatcher) Dispatch(argv []string) int {
	if len(argv) == 0 {
		d.Usage(d.stderr())
		return 1
	}

	var (
		showUsage bool
		dryRun    bool
		rest      []string
	)
	for i, arg := range argv {
		if arg == "-h" || arg == "--help" {
			showUsage = true
			rest = append(rest, argv[i+1:]...)
			break
		}
		if arg == "--dry-run" {
			dryRun = true
			continue
		}
		rest = append(rest, arg)
	}

	if showUsage {
		d.Usage(d.stdout())
		return 0
	}

	if len(rest) == 0 {
		d.Usage(d.stderr())
		return 1
	}

	cmd, ok := d.Registry.Lookup(rest[0])
	if !ok {
		_, _ = fmt.Fprintf(d.stderr(), "%s: unknown command %q\n\n", d.Program, rest[0])
		d.Usage(d.stderr())
		return 1
	}

	s := d.NewSession(dryRun)
	err := d.run(s, cmd, rest[1:])
	s.Hooks.Drain(s.Ctx, err)

	if err == nil {
		return 0
	}

	s.Log.Error(err.Error())
	if hint := errors.FlattenHints(err); hint != "" {
		s.Log.Info(hint)
	}
	if errors.Is(err, ErrUsage) {
		d.CommandUsage(d.stderr(), cmd)
	}
	return runner.ExitCode(err)
}

func (d *Dispatcher) run(s *session.Session, cmd *Command, args []string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.AssertionFailedf("panic in %s: %v", cmd.Name, p)
		}
	}()

	if cmd.Parse != nil {
		if args, err = cmd.Parse(s, args); err != nil {
			return err
		}
	}
	if cmd.Validate != nil {
		if err = cmd.Validate(s); err != nil {
			return err
		}
	}

	s.Log.Debug("running command", zap.String("command", cmd.Name), zap.Strings("args", args))
	return cmd.Run(s, args)
}

// Usage writes the program usage, listing every registered command.
func (d *Dispatcher) Usage(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Usage: %s [--dry-run] <command> [args...]\n\n", d.Program)
	_, _ = fmt.Fprintln(w, "Commands:")

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range d.Registry.Commands() {
		_, _ = fmt.Fprintf(tw, "  %s %s\t%s\n", c.Name, c.Args, c.Summary)
	}
	_ = tw.Flush()

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Flags:")
	_, _ = fmt.Fprintln(w, "  -h, --help   show this help")
	_, _ = fmt.Fprintln(w, "  --dry-run    print external commands instead of running them")
}

// CommandUsage writes the synopsis of a single command.
func (d *Dispatcher) CommandUsage(w io.Writer, c *Command) {
	_, _ = fmt.Fprintf(w, "Usage: %s %s %s\n", d.Program, c.Name, c.Args)
}

func (d *Dispatcher) stdout() io.Writer {
	if d.Stdout == nil {
		return os.Stdout
	}
	return d.Stdout
}

func (d *Dispatcher) stderr() io.Writer {
	if d.Stderr == nil {
		return os.Stderr
	}
	return d.Stderr
}
