package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jbweber/vmctl/internal/cli"
	"github.com/jbweber/vmctl/internal/config"
	"github.com/jbweber/vmctl/internal/dispatch"
	"github.com/jbweber/vmctl/internal/logging"
	"github.com/jbweber/vmctl/internal/session"
)

var (
	version = "dev"
	commit  = "unknown"
)

// exitCode carries a non-zero dispatcher result through cobra.
type exitCode int

func (c exitCode) Error() string { return fmt.Sprintf("exit status %d", int(c)) }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes vmctl with args and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ec exitCode
	if errors.As(err, &ec) {
		return int(ec)
	}
	fmt.Fprintf(stderr, "%s Error: %v\n", logging.MarkerError, err)
	if hint := errors.FlattenHints(err); hint != "" {
		fmt.Fprintf(stderr, "%s %s\n", logging.MarkerInfo, hint)
	}
	return 1
}

// newRootCmd builds the vmctl entry point. Flag parsing is left to the
// dispatcher so that --dry-run may appear anywhere before the command name.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "vmctl",
		Short: "vmctl - clone, destroy and inspect libvirt VMs",
		Long: `vmctl wraps virsh, qemu-img and virt-clone to clone VMs onto
copy-on-write overlays, tear them down, and look up their addresses.`,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.DefaultPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			log, err := logging.New(logging.Options{Level: cfg.LogLevel, Output: stderr})
			if err != nil {
				return errors.WithHint(err, "set log_level in "+cfgPath+" or "+config.EnvPrefix+"_LOG_LEVEL")
			}
			defer func() { _ = log.Sync() }()
			log.Debug("vmctl starting",
				zap.String("version", version),
				zap.String("commit", commit),
				zap.String("config", cfgPath))

			reg := dispatch.NewRegistry()
			cli.Register(reg)

			d := &dispatch.Dispatcher{
				Program:  "vmctl",
				Registry: reg,
				Stdout:   stdout,
				Stderr:   stderr,
				NewSession: func(dryRun bool) *session.Session {
					return session.New(cmd.Context(), session.Options{
						Config: cfg,
						Log:    log,
						DryRun: dryRun,
						Stdout: stdout,
						Stderr: stderr,
					})
				},
			}

			if code := d.Dispatch(args); code != 0 {
				return exitCode(code)
			}
			return nil
		},
	}
}
