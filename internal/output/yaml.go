package output

import (
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/jbweber/vmctl/internal/virsh"
)

// YAMLFormatter formats results as YAML sequences.
type YAMLFormatter struct{}

// FormatDomains formats a domain listing as YAML.
func (f *YAMLFormatter) FormatDomains(domains []virsh.Domain) (string, error) {
	if len(domains) == 0 {
		return "[]\n", nil
	}

	data, err := yaml.Marshal(domains)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal domains to YAML")
	}

	return string(data), nil
}

// FormatAddresses formats resolved addresses as YAML.
func (f *YAMLFormatter) FormatAddresses(addrs []Address) (string, error) {
	if len(addrs) == 0 {
		return "[]\n", nil
	}

	data, err := yaml.Marshal(addrs)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal addresses to YAML")
	}

	return string(data), nil
}
