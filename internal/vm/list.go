package vm

import (
	"context"
	"fmt"

	"github.com/jbweber/vmctl/internal/output"
	"github.com/jbweber/vmctl/internal/session"
)

// ListOptions configures List.
type ListOptions struct {
	Format    output.Format
	NoHeaders bool
}

// List prints every defined VM with its id and state.
func List(s *session.Session, opts ListOptions) error {
	return listWithDeps(s.Ctx, opts, newDeps(s))
}

func listWithDeps(ctx context.Context, opts ListOptions, d *deps) error {
	format := opts.Format
	if format == "" {
		format = output.FormatTable
	}
	formatter, err := output.NewFormatter(output.Options{Format: format, NoHeaders: opts.NoHeaders})
	if err != nil {
		return err
	}

	domains, err := d.tools.ListAll(ctx)
	if err != nil {
		return err
	}

	out, err := formatter.FormatDomains(domains)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(d.stdout, out)
	return nil
}
