package vm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jbweber/vmctl/internal/output"
	"github.com/jbweber/vmctl/internal/session"
)

// IPOptions configures IP.
type IPOptions struct {
	Name      string
	Format    output.Format
	NoHeaders bool
}

// IP prints the addresses the ARP cache holds for a VM's interfaces.
//
// It is a point-in-time lookup: a VM that has not obtained a lease yet
// prints nothing and is not an error.
func IP(s *session.Session, opts IPOptions) error {
	return ipWithDeps(s.Ctx, opts, newDeps(s))
}

func ipWithDeps(ctx context.Context, opts IPOptions, d *deps) error {
	format := opts.Format
	if format == "" {
		format = output.FormatPlain
	}
	formatter, err := output.NewFormatter(output.Options{Format: format, NoHeaders: opts.NoHeaders})
	if err != nil {
		return err
	}

	macs, err := d.tools.InterfaceMACs(ctx, opts.Name)
	if err != nil {
		return err
	}
	if len(macs) == 0 {
		d.log.Debug("no interfaces with a MAC address", zap.String("vm", opts.Name))
	}

	table, err := d.loadARP()
	if err != nil {
		return err
	}

	var addrs []output.Address
	seen := make(map[string]bool)
	for _, mac := range macs {
		entries := table.Lookup(mac)
		if len(entries) == 0 {
			d.log.Debug("no ARP entry", zap.String("mac", mac))
		}
		for _, e := range entries {
			if seen[e.IP] {
				continue
			}
			seen[e.IP] = true
			addrs = append(addrs, output.Address{VM: opts.Name, MAC: mac, IP: e.IP, Device: e.Device})
		}
	}

	out, err := formatter.FormatAddresses(addrs)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(d.stdout, out)
	return nil
}
