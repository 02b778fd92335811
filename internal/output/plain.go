package output

import (
	"strings"

	"github.com/jbweber/vmctl/internal/virsh"
)

// PlainFormatter prints one bare value per line.
type PlainFormatter struct{}

// FormatDomains prints one domain name per line.
func (f *PlainFormatter) FormatDomains(domains []virsh.Domain) (string, error) {
	var b strings.Builder
	for _, d := range domains {
		b.WriteString(d.Name)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// FormatAddresses prints one IP address per line. No addresses means no
// output at all.
func (f *PlainFormatter) FormatAddresses(addrs []Address) (string, error) {
	var b strings.Builder
	for _, a := range addrs {
		b.WriteString(a.IP)
		b.WriteByte('\n')
	}
	return b.String(), nil
}
