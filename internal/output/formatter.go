// Package output provides formatters for displaying vmctl results
// in various formats (plain, table, YAML, JSON).
package output

import (
	"github.com/cockroachdb/errors"

	"github.com/jbweber/vmctl/internal/virsh"
)

// Format represents an output format type.
type Format string

const (
	// FormatPlain prints bare values, one per line, for scripts.
	FormatPlain Format = "plain"
	// FormatTable is a human-readable table format.
	FormatTable Format = "table"
	// FormatYAML is a YAML format.
	FormatYAML Format = "yaml"
	// FormatJSON is a JSON format for machine consumption.
	FormatJSON Format = "json"
)

// Address is an IP address resolved for one interface of a VM.
type Address struct {
	VM     string `json:"vm" yaml:"vm"`
	MAC    string `json:"mac" yaml:"mac"`
	IP     string `json:"ip" yaml:"ip"`
	Device string `json:"device,omitempty" yaml:"device,omitempty"`
}

// Formatter formats vmctl results for output.
type Formatter interface {
	// FormatDomains formats the rows of a domain listing.
	FormatDomains(domains []virsh.Domain) (string, error)

	// FormatAddresses formats resolved IP addresses.
	FormatAddresses(addrs []Address) (string, error)
}

// Options contains options for formatting output.
type Options struct {
	// Format specifies the output format.
	Format Format
	// NoHeaders omits headers in table format.
	NoHeaders bool
}

// NewFormatter creates a new Formatter based on the specified format.
func NewFormatter(opts Options) (Formatter, error) {
	switch opts.Format {
	case FormatPlain:
		return &PlainFormatter{}, nil
	case FormatTable:
		return &TableFormatter{NoHeaders: opts.NoHeaders}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, errors.Newf("unsupported output format: %s (supported: plain, table, yaml, json)", opts.Format)
	}
}

// ValidateFormat checks if a format string is valid.
func ValidateFormat(format string) error {
	f := Format(format)
	switch f {
	case FormatPlain, FormatTable, FormatYAML, FormatJSON:
		return nil
	default:
		return errors.Newf("invalid format: %s (valid formats: plain, table, yaml, json)", format)
	}
}
