package output

import (
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/jbweber/vmctl/internal/virsh"
)

// JSONFormatter formats results as JSON arrays.
type JSONFormatter struct{}

// FormatDomains formats a domain listing as JSON.
func (f *JSONFormatter) FormatDomains(domains []virsh.Domain) (string, error) {
	if len(domains) == 0 {
		return "[]\n", nil
	}

	data, err := json.MarshalIndent(domains, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal domains to JSON")
	}

	return string(data) + "\n", nil
}

// FormatAddresses formats resolved addresses as JSON.
func (f *JSONFormatter) FormatAddresses(addrs []Address) (string, error) {
	if len(addrs) == 0 {
		return "[]\n", nil
	}

	data, err := json.MarshalIndent(addrs, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal addresses to JSON")
	}

	return string(data) + "\n", nil
}
