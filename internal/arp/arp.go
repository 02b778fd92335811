// Package arp reads the kernel's address-resolution cache.
//
// The cache is read from /proc/net/arp, whose layout is:
//
//	IP address       HW type     Flags       HW address            Mask     Device
//	192.168.122.45   0x1         0x2         52:54:00:ab:cd:01     *        virbr0
//
// Only complete entries (flag ATF_COM set, non-zero hardware address) are
// kept. The cache is a point-in-time snapshot; nothing here waits for an
// entry to appear.
package arp

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/jbweber/vmctl/internal/naming"
)

// flagComplete is ATF_COM from <net/if_arp.h>.
const flagComplete = 0x2

const zeroMAC = "00:00:00:00:00:00"

// Entry is one resolved neighbour.
type Entry struct {
	IP     string `json:"ip" yaml:"ip"`
	MAC    string `json:"mac" yaml:"mac"`
	Device string `json:"device" yaml:"device"`
}

// Table is a parsed ARP cache.
type Table struct {
	entries []Entry
}

// Load reads and parses the ARP cache at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open ARP table %s", path)
	}
	defer func() { _ = f.Close() }()

	t, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read ARP table %s", path)
	}
	return t, nil
}

// Parse reads an ARP cache in /proc/net/arp format. The header line and
// malformed or incomplete rows are skipped.
func Parse(r io.Reader) (*Table, error) {
	t := &Table{}
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false
			if strings.HasPrefix(strings.TrimSpace(line), "IP address") {
				continue
			}
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}

		flags, err := strconv.ParseUint(fields[2], 0, 32)
		if err != nil || flags&flagComplete == 0 {
			continue
		}
		mac, err := naming.NormalizeMAC(fields[3])
		if err != nil || mac == zeroMAC {
			continue
		}

		e := Entry{IP: fields[0], MAC: mac}
		if len(fields) >= 6 {
			e.Device = fields[5]
		}
		t.entries = append(t.entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// Entries returns every complete entry in file order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Lookup returns every entry for mac, in file order. The MAC may be given
// in any case.
func (t *Table) Lookup(mac string) []Entry {
	norm, err := naming.NormalizeMAC(mac)
	if err != nil {
		return nil
	}
	var out []Entry
	for _, e := range t.entries {
		if e.MAC == norm {
			out = append(out, e)
		}
	}
	return out
}
