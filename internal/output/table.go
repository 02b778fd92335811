package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/jbweber/vmctl/internal/virsh"
)

// TableFormatter formats results as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

// FormatDomains formats a domain listing as a table.
func (f *TableFormatter) FormatDomains(domains []virsh.Domain) (string, error) {
	if len(domains) == 0 {
		return "No VMs found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "ID\tNAME\tSTATE")
	}
	for _, d := range domains {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", dash(d.ID), d.Name, dash(d.State))
	}

	_ = w.Flush()
	return buf.String(), nil
}

// FormatAddresses formats resolved addresses as a table. An empty list
// prints nothing, since a VM without a lease yet is not an error.
func (f *TableFormatter) FormatAddresses(addrs []Address) (string, error) {
	if len(addrs) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "VM\tMAC\tIP\tDEVICE")
	}
	for _, a := range addrs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.VM, a.MAC, a.IP, dash(a.Device))
	}

	_ = w.Flush()
	return buf.String(), nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
