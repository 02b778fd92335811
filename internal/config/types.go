// Package config defines vmctl's configuration: which tool binaries to run,
// which libvirt connection to target, and where to read the ARP cache.
package config

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/jbweber/vmctl/internal/logging"
)

const (
	// DefaultLibvirtSocket is the qemu:///system daemon socket.
	DefaultLibvirtSocket = "/var/run/libvirt/libvirt-sock"

	// DefaultARPTable is the kernel's IPv4 neighbour cache.
	DefaultARPTable = "/proc/net/arp"
)

// Config is the complete vmctl configuration.
type Config struct {
	// ConnectURI is passed to virsh (-c) and virt-clone (--connect).
	// Empty leaves the choice to the tools.
	ConnectURI    string      `yaml:"connect_uri" mapstructure:"connect_uri"`
	LibvirtSocket string      `yaml:"libvirt_socket" mapstructure:"libvirt_socket"`
	ARPTable      string      `yaml:"arp_table" mapstructure:"arp_table"`
	LogLevel      string      `yaml:"log_level" mapstructure:"log_level"`
	Tools         ToolsConfig `yaml:"tools" mapstructure:"tools"`
}

// ToolsConfig names the external binaries. Bare names are resolved on PATH.
type ToolsConfig struct {
	Virsh     string `yaml:"virsh" mapstructure:"virsh"`
	QemuImg   string `yaml:"qemu_img" mapstructure:"qemu_img"`
	VirtClone string `yaml:"virt_clone" mapstructure:"virt_clone"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LibvirtSocket: DefaultLibvirtSocket,
		ARPTable:      DefaultARPTable,
		LogLevel:      "info",
		Tools: ToolsConfig{
			Virsh:     "virsh",
			QemuImg:   "qemu-img",
			VirtClone: "virt-clone",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}

	if c.LibvirtSocket == "" || !filepath.IsAbs(c.LibvirtSocket) {
		return errors.Newf("libvirt_socket must be an absolute path, got %q", c.LibvirtSocket)
	}
	if c.ARPTable == "" || !filepath.IsAbs(c.ARPTable) {
		return errors.Newf("arp_table must be an absolute path, got %q", c.ARPTable)
	}

	if err := c.Tools.Validate(); err != nil {
		return errors.Wrap(err, "tools")
	}
	return nil
}

// Validate checks that every tool is named.
func (t *ToolsConfig) Validate() error {
	tools := []struct{ key, value string }{
		{"virsh", t.Virsh},
		{"qemu_img", t.QemuImg},
		{"virt_clone", t.VirtClone},
	}
	for _, tool := range tools {
		if strings.TrimSpace(tool.value) == "" {
			return errors.Newf("%s must not be empty", tool.key)
		}
	}
	return nil
}

// All returns the configured tool binaries in a stable order.
func (t *ToolsConfig) All() []string {
	return []string{t.Virsh, t.QemuImg, t.VirtClone}
}
