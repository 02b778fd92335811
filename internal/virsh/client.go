// Package virsh drives the libvirt command-line tools: virsh, qemu-img and
// virt-clone.
//
// Every invocation goes through a runner.Executor. Read-only queries use
// Output; anything that changes libvirt or the filesystem uses Run so it is
// traced and suppressed in dry-run mode. Text output is turned into values
// by the Parse* functions in parse.go, one per output shape.
package virsh

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/jbweber/vmctl/internal/config"
	"github.com/jbweber/vmctl/internal/runner"
)

// Client runs libvirt tools against one connection URI.
type Client struct {
	exec  runner.Executor
	tools config.ToolsConfig
	uri   string
}

// NewClient creates a client. An empty uri leaves the tools on their
// default connection.
func NewClient(exec runner.Executor, tools config.ToolsConfig, uri string) *Client {
	return &Client{exec: exec, tools: tools, uri: uri}
}

func (c *Client) virsh(args ...string) []string {
	if c.uri == "" {
		return args
	}
	return append([]string{"-c", c.uri}, args...)
}

func (c *Client) query(ctx context.Context, args ...string) (string, error) {
	out, err := c.exec.Output(ctx, c.tools.Virsh, c.virsh(args...)...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// DumpXML returns the domain definition of name.
func (c *Client) DumpXML(ctx context.Context, name string) (string, error) {
	xml, err := c.query(ctx, "dumpxml", name)
	if err != nil {
		return "", errors.Wrapf(err, "failed to dump definition of %s", name)
	}
	return xml, nil
}

// ListAll returns every defined domain, running or not.
func (c *Client) ListAll(ctx context.Context) ([]Domain, error) {
	out, err := c.query(ctx, "list", "--all")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list domains")
	}
	return ParseDomainList(out), nil
}

// DomainNames returns the names of every defined domain.
func (c *Client) DomainNames(ctx context.Context) ([]string, error) {
	out, err := c.query(ctx, "list", "--all", "--name")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list domain names")
	}
	return ParseDomainNames(out), nil
}

// Exists reports whether a domain called name is defined.
func (c *Client) Exists(ctx context.Context, name string) (bool, error) {
	names, err := c.DomainNames(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// BlockDevices returns the absolute source paths of name's block devices.
func (c *Client) BlockDevices(ctx context.Context, name string) ([]string, error) {
	out, err := c.query(ctx, "domblklist", name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list block devices of %s", name)
	}
	return ParseBlockDevices(out), nil
}

// InterfaceMACs returns the MAC address of every interface of name.
func (c *Client) InterfaceMACs(ctx context.Context, name string) ([]string, error) {
	out, err := c.query(ctx, "domiflist", name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list interfaces of %s", name)
	}
	return ParseInterfaceMACs(out), nil
}

// ShowList prints the domain list to the user. Tool errors are returned
// unwrapped so their exit status propagates.
func (c *Client) ShowList(ctx context.Context) error {
	return c.exec.Run(ctx, c.tools.Virsh, c.virsh("list", "--all")...)
}

// Start boots a defined domain.
func (c *Client) Start(ctx context.Context, name string) error {
	return c.exec.Run(ctx, c.tools.Virsh, c.virsh("start", name)...)
}

// Destroy force-stops a running domain.
func (c *Client) Destroy(ctx context.Context, name string) error {
	return c.exec.Run(ctx, c.tools.Virsh, c.virsh("destroy", name)...)
}

// Undefine removes a domain definition. With nvram set, the domain's
// UEFI variable store is removed too.
func (c *Client) Undefine(ctx context.Context, name string, nvram bool) error {
	args := []string{"undefine", name}
	if nvram {
		args = append(args, "--nvram")
	}
	return c.exec.Run(ctx, c.tools.Virsh, c.virsh(args...)...)
}

// CreateOverlay creates a qcow2 copy-on-write image at overlay backed by
// backing, whose format is backingFormat.
func (c *Client) CreateOverlay(ctx context.Context, backing, backingFormat, overlay string) error {
	return c.exec.Run(ctx, c.tools.QemuImg,
		"create", "-f", "qcow2", "-F", backingFormat, "-b", backing, overlay)
}

// Clone defines newName as a copy of source using file as its disk. The
// disk contents are preserved as they are.
func (c *Client) Clone(ctx context.Context, source, newName, file string) error {
	var args []string
	if c.uri != "" {
		args = append(args, "--connect", c.uri)
	}
	args = append(args,
		"--original", source,
		"--name", newName,
		"--file", file,
		"--preserve-data",
	)
	return c.exec.Run(ctx, c.tools.VirtClone, args...)
}
