package vm

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/jbweber/vmctl/internal/session"
)

// CheckOptions configures Check.
type CheckOptions struct {
	// Tools are the binaries that must resolve on PATH.
	Tools []string
	// Socket is the libvirt daemon socket.
	Socket string
	// SkipDaemon skips the daemon connection test.
	SkipDaemon bool
}

// Check verifies that the tools vmctl drives are installed and that the
// libvirt daemon answers on its socket. It changes nothing.
func Check(s *session.Session, opts CheckOptions) error {
	if opts.Tools == nil {
		opts.Tools = s.Config.Tools.All()
	}
	if opts.Socket == "" {
		opts.Socket = s.Config.LibvirtSocket
	}
	return checkWithDeps(s.Ctx, opts, newDeps(s))
}

func checkWithDeps(ctx context.Context, opts CheckOptions, d *deps) error {
	var result *multierror.Error

	for _, tool := range opts.Tools {
		path, err := d.lookPath(tool)
		if err != nil {
			d.log.Error(fmt.Sprintf("%s not found", tool), zap.Error(err))
			result = multierror.Append(result, errors.Wrapf(err, "tool %s", tool))
			continue
		}
		_, _ = fmt.Fprintf(d.stdout, "✓ %s: %s\n", tool, path)
	}

	if !opts.SkipDaemon {
		if err := probeDaemon(ctx, opts.Socket, d); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return errors.WithHint(
			errors.Wrap(err, "environment check failed"),
			"Install libvirt-clients, qemu-img and virt-install, and make sure libvirtd is running.",
		)
	}

	_, _ = fmt.Fprintln(d.stdout, "\nEnvironment check successful!")
	return nil
}

func probeDaemon(ctx context.Context, socket string, d *deps) error {
	client, err := d.dial(ctx, socket)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			d.log.Warn("failed to close libvirt connection", zap.Error(closeErr))
		}
	}()

	if err := client.Ping(); err != nil {
		return errors.Wrap(err, "connection test failed")
	}
	_, _ = fmt.Fprintf(d.stdout, "✓ Connected to libvirt daemon at %s\n", socket)

	info, err := client.Info()
	if err != nil {
		return errors.Wrap(err, "failed to query daemon")
	}

	_, _ = fmt.Fprintf(d.stdout, "✓ Libvirt version: %s\n", info.LibvirtVersion)
	_, _ = fmt.Fprintf(d.stdout, "✓ Hypervisor: %s %s\n", info.Hypervisor, info.HypervisorVersion)
	_, _ = fmt.Fprintf(d.stdout, "✓ Hypervisor hostname: %s\n", info.Hostname)
	_, _ = fmt.Fprintf(d.stdout, "✓ Connection URI: %s\n", info.URI)
	return nil
}
