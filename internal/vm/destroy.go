package vm

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/jbweber/vmctl/internal/session"
)

// DestroyOptions configures Destroy.
type DestroyOptions struct {
	// Name is the VM to destroy.
	Name string
	// NVRAM also removes the UEFI variable store on undefine.
	NVRAM bool
	// KeepDisks leaves the backing files on disk.
	KeepDisks bool
}

// Destroy destroys a VM by name.
//
// This orchestrates the entire VM destruction process:
//  1. Check the VM exists
//  2. Force-stop it (failure ignored: it may already be stopped)
//  3. Collect its backing files
//  4. Undefine it
//  5. Delete the backing files
//
// Undefine always precedes deletion. File deletion is best-effort: every
// file is attempted, failures are logged as warnings and returned together
// once all have been tried.
func Destroy(s *session.Session, opts DestroyOptions) error {
	return destroyWithDeps(s.Ctx, opts, newDeps(s))
}

// destroyWithDeps destroys a VM with injected dependencies.
func destroyWithDeps(ctx context.Context, opts DestroyOptions, d *deps) error {
	name := opts.Name

	// Step 1: Check if VM exists
	exists, err := d.tools.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return errors.WithHint(
			errors.Newf("VM %s not found", name),
			`Run "vmctl list" to see the defined VMs.`,
		)
	}

	// Step 2: Force stop
	d.log.Info(fmt.Sprintf("Stopping %s...", name))
	if err := d.tools.Destroy(ctx, name); err != nil {
		d.log.Info(fmt.Sprintf("Could not stop %s, it may already be stopped", name))
		d.log.Debug("force stop failed", zap.String("vm", name), zap.Error(err))
	}

	// Step 3: Collect backing files before the definition is gone
	paths, err := d.tools.BlockDevices(ctx, name)
	if err != nil {
		return err
	}

	// Step 4: Undefine
	d.log.Info(fmt.Sprintf("Undefining %s...", name))
	if err := d.tools.Undefine(ctx, name, opts.NVRAM); err != nil {
		return errors.Wrapf(err, "failed to undefine %s", name)
	}

	// Step 5: Delete backing files
	if opts.KeepDisks {
		for _, p := range paths {
			d.log.Info(fmt.Sprintf("Keeping %s", p))
		}
		d.log.Info(fmt.Sprintf("VM %s destroyed", name))
		return nil
	}

	var result *multierror.Error
	for _, p := range paths {
		d.log.Info(fmt.Sprintf("Deleting %s...", p))
		if err := d.files.Remove(p); err != nil {
			d.log.Warn(fmt.Sprintf("failed to delete %s", p), zap.Error(err))
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return errors.Wrapf(err, "VM %s undefined but %d of %d disk(s) could not be deleted",
			name, len(result.Errors), len(paths))
	}

	d.log.Info(fmt.Sprintf("VM %s destroyed (%d disk(s) deleted)", name, len(paths)))
	return nil
}
