package vm

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/jbweber/vmctl/internal/libvirt"
	"github.com/jbweber/vmctl/internal/naming"
	"github.com/jbweber/vmctl/internal/session"
)

// CloneOptions configures Clone.
type CloneOptions struct {
	// Source is the VM to copy.
	Source string
	// Name is the new VM.
	Name string
	// NoStart leaves the new VM defined but shut off.
	NoStart bool
	// CleanupOnFailure removes the overlay image if a later step fails.
	CleanupOnFailure bool
}

// Clone creates a new VM backed by a copy-on-write overlay of the source
// VM's disk.
//
// This orchestrates the clone:
//  1. Read the source definition and find its backing image
//  2. Check the backing image is readable
//  3. Create <image dir>/<name>.qcow2 backed by that image
//  4. Define the new VM on the overlay with virt-clone, preserving data
//  5. List all VMs and start the new one
//
// Clone is not transactional. Unless CleanupOnFailure is set, an overlay
// created before a failing step stays on disk.
func Clone(s *session.Session, opts CloneOptions) error {
	return cloneWithDeps(s.Ctx, opts, newDeps(s))
}

// cloneWithDeps clones a VM with injected dependencies.
func cloneWithDeps(ctx context.Context, opts CloneOptions, d *deps) (err error) {
	if err := naming.ValidateVMName(opts.Name); err != nil {
		return errors.WithStack(err)
	}
	if opts.Source == opts.Name {
		return errors.Newf("source and new VM are both named %s", opts.Name)
	}

	// Step 1: Find the backing image
	d.log.Info(fmt.Sprintf("Reading definition of %s...", opts.Source))
	xml, err := d.tools.DumpXML(ctx, opts.Source)
	if err != nil {
		return err
	}
	dom, err := libvirt.ParseDomain(xml)
	if err != nil {
		return err
	}
	disk, err := libvirt.BackingDisk(dom)
	if err != nil {
		return err
	}
	d.log.Debug("backing disk",
		zap.String("path", disk.Path),
		zap.String("format", disk.Format),
		zap.String("target", disk.Target),
	)

	// Step 2: Source image must be readable
	if rerr := d.readable(disk.Path); rerr != nil {
		return errors.WithHint(
			errors.Wrapf(rerr, "source image %s of %s is not readable", disk.Path, opts.Source),
			"Run vmctl as a user that can read the libvirt image directory.",
		)
	}

	if disk.Format == "" {
		disk.Format = libvirt.DefaultDiskFormat
		if f, ferr := d.detectFormat(disk.Path); ferr == nil {
			disk.Format = f
		} else {
			d.log.Debug("could not detect image format, assuming "+libvirt.DefaultDiskFormat, zap.Error(ferr))
		}
	}

	// Step 3: Create the overlay next to the backing image
	overlay := naming.OverlayPath(disk.Path, opts.Name)
	if overlay == disk.Path {
		return errors.Newf("overlay %s would replace the backing image of %s", overlay, opts.Source)
	}
	if d.exists(overlay) {
		return errors.WithHint(
			errors.Newf("overlay %s already exists", overlay),
			fmt.Sprintf("Remove it or destroy the VM that uses it before cloning to %s.", opts.Name),
		)
	}

	d.log.Info(fmt.Sprintf("Creating overlay %s...", overlay))
	if err := d.tools.CreateOverlay(ctx, disk.Path, disk.Format, overlay); err != nil {
		return errors.Wrapf(err, "failed to create overlay for %s", opts.Name)
	}

	if opts.CleanupOnFailure {
		committed := false
		defer func() { committed = err == nil }()
		d.hooks.Register("remove overlay "+overlay, func(context.Context) error {
			if committed {
				return nil
			}
			d.log.Warn(fmt.Sprintf("Removing overlay %s after failed clone", overlay))
			return d.files.Remove(overlay)
		})
	}

	// Step 4: Define the new VM on the overlay
	d.log.Info(fmt.Sprintf("Cloning %s to %s...", opts.Source, opts.Name))
	if err := d.tools.Clone(ctx, opts.Source, opts.Name, overlay); err != nil {
		return errors.Wrapf(err, "failed to clone %s", opts.Source)
	}

	// Step 5: Show the result and boot it
	if err := d.tools.ShowList(ctx); err != nil {
		return errors.Wrap(err, "failed to list VMs")
	}
	if opts.NoStart {
		d.log.Info(fmt.Sprintf("VM %s defined, not started", opts.Name))
		return nil
	}
	if err := d.tools.Start(ctx, opts.Name); err != nil {
		return errors.Wrapf(err, "failed to start %s", opts.Name)
	}

	_, _ = fmt.Fprintf(d.stdout, "Run \"vmctl ip %s\" once the VM has booted.\n", opts.Name)
	return nil
}
