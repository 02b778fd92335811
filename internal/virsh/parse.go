package virsh

import (
	"path/filepath"
	"strings"

	"github.com/jbweber/vmctl/internal/naming"
)

// tableHeaderLines is the column heading plus the dashed rule that virsh
// prints above every table.
const tableHeaderLines = 2

// Domain is one row of "virsh list --all".
type Domain struct {
	// ID is the runtime id, or "-" for a domain that is not running.
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	State string `json:"state" yaml:"state"`
}

// Running reports whether the domain has a runtime id.
func (d Domain) Running() bool {
	return d.ID != "" && d.ID != "-"
}

// tableRows returns the non-blank lines below a virsh table heading.
func tableRows(out string) []string {
	lines := strings.Split(out, "\n")
	if len(lines) <= tableHeaderLines {
		return nil
	}
	var rows []string
	for _, line := range lines[tableHeaderLines:] {
		if strings.TrimSpace(line) != "" {
			rows = append(rows, line)
		}
	}
	return rows
}

// ParseDomainList parses "virsh list --all":
//
//	 Id   Name      State
//	--------------------------
//	 1    web1      running
//	 -    base-vm   shut off
func ParseDomainList(out string) []Domain {
	var domains []Domain
	for _, row := range tableRows(out) {
		fields := strings.Fields(row)
		if len(fields) < 3 {
			continue
		}
		domains = append(domains, Domain{
			ID:    fields[0],
			Name:  fields[1],
			State: strings.Join(fields[2:], " "),
		})
	}
	return domains
}

// ParseDomainNames parses "virsh list --all --name": one name per line.
func ParseDomainNames(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ParseBlockDevices parses "virsh domblklist" and returns the Source column
// entries that are absolute paths:
//
//	 Target   Source
//	------------------------------------
//	 vda      /vms/web1.qcow2
//	 sda      -
func ParseBlockDevices(out string) []string {
	var paths []string
	for _, row := range tableRows(out) {
		row = strings.TrimSpace(row)
		i := strings.IndexAny(row, " \t")
		if i < 0 {
			continue
		}
		source := strings.TrimSpace(row[i:])
		if filepath.IsAbs(source) {
			paths = append(paths, source)
		}
	}
	return paths
}

// ParseInterfaceMACs extracts every MAC address from "virsh domiflist":
//
//	 Interface   Type      Source    Model    MAC
//	-------------------------------------------------------------
//	 vnet0       network   default   virtio   52:54:00:ab:cd:01
func ParseInterfaceMACs(out string) []string {
	return naming.FindMACs(out)
}
