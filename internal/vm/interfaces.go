package vm

import (
	"context"

	"github.com/jbweber/vmctl/internal/arp"
	"github.com/jbweber/vmctl/internal/exithook"
	"github.com/jbweber/vmctl/internal/libvirt"
	"github.com/jbweber/vmctl/internal/virsh"
)

// toolClient defines the libvirt tool invocations needed for VM management.
//
// In production, this is satisfied by *virsh.Client.
// In tests, this is satisfied by mock implementations.
type toolClient interface {
	// DumpXML returns a domain definition
	DumpXML(ctx context.Context, name string) (string, error)

	// ListAll lists every defined domain
	ListAll(ctx context.Context) ([]virsh.Domain, error)

	// Exists reports whether a domain is defined
	Exists(ctx context.Context, name string) (bool, error)

	// BlockDevices lists the absolute source paths of a domain's disks
	BlockDevices(ctx context.Context, name string) ([]string, error)

	// InterfaceMACs lists the MAC addresses of a domain's interfaces
	InterfaceMACs(ctx context.Context, name string) ([]string, error)

	// ShowList prints the domain list to the user
	ShowList(ctx context.Context) error

	// Start boots a domain
	Start(ctx context.Context, name string) error

	// Destroy force-stops a domain
	Destroy(ctx context.Context, name string) error

	// Undefine removes a domain definition
	Undefine(ctx context.Context, name string, nvram bool) error

	// CreateOverlay creates a copy-on-write image over a backing image
	CreateOverlay(ctx context.Context, backing, backingFormat, overlay string) error

	// Clone defines a new domain from an existing one
	Clone(ctx context.Context, source, newName, file string) error
}

// fileRemover deletes files, honouring dry-run mode.
//
// In production, this is satisfied by *runner.Runner.
type fileRemover interface {
	Remove(path string) error
}

// hookRegistry registers cleanup actions run when the command finishes.
//
// In production, this is satisfied by *exithook.Registry.
type hookRegistry interface {
	Register(name string, fn exithook.Func)
}

// daemonClient is an open connection to the libvirt daemon.
//
// In production, this is satisfied by *libvirt.Client.
type daemonClient interface {
	Ping() error
	Info() (*libvirt.DaemonInfo, error)
	Close() error
}

// arpLoader reads the ARP cache.
type arpLoader func() (*arp.Table, error)
