package libvirt

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"libvirt.org/go/libvirtxml"
)

// DefaultDiskFormat is assumed when neither the disk driver nor the image
// header names a format.
const DefaultDiskFormat = "qcow2"

// ErrNoBackingDisk is returned when a domain has no file-backed disk.
var ErrNoBackingDisk = errors.New("no file-backed disk")

// Disk is a file-backed disk attached to a domain.
type Disk struct {
	// Path is the image file on the host.
	Path string
	// Format is the image format from the disk driver, e.g. qcow2 or raw.
	// Empty when the driver does not say.
	Format string
	// Target is the guest device name, e.g. vda.
	Target string
}

// ParseDomain parses the output of "virsh dumpxml".
func ParseDomain(xml string) (*libvirtxml.Domain, error) {
	dom := &libvirtxml.Domain{}
	if err := dom.Unmarshal(xml); err != nil {
		return nil, errors.Wrap(err, "failed to parse domain XML")
	}
	return dom, nil
}

// BackingDisk returns the first disk with device="disk" whose source is a
// file. CD-ROMs, floppies and volume or network sources are skipped.
func BackingDisk(dom *libvirtxml.Domain) (*Disk, error) {
	if dom.Devices != nil {
		for _, d := range dom.Devices.Disks {
			if d.Device != "" && d.Device != "disk" {
				continue
			}
			if d.Source == nil || d.Source.File == nil || d.Source.File.File == "" {
				continue
			}

			disk := &Disk{Path: filepath.Clean(d.Source.File.File)}
			if d.Driver != nil {
				disk.Format = d.Driver.Type
			}
			if d.Target != nil {
				disk.Target = d.Target.Dev
			}
			return disk, nil
		}
	}

	return nil, errors.WithHint(
		errors.Wrapf(ErrNoBackingDisk, "domain %s", dom.Name),
		"Only domains whose disk is a local image file can be cloned.",
	)
}
