// Package naming provides naming conventions shared by the vmctl commands:
// MAC address normalisation, overlay image paths, and VM name checks.
package naming

import (
	"net"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// OverlayFormat is the image format of every overlay vmctl creates.
const OverlayFormat = "qcow2"

// MACPattern matches six colon-separated hex byte pairs, in either case.
var MACPattern = regexp.MustCompile(`(?i)([0-9a-f]{2}:){5}[0-9a-f]{2}`)

// NormalizeMAC parses a hardware address and returns it as lowercase
// colon-separated hex.
//
// Example: 52:54:00:AB:CD:01 → 52:54:00:ab:cd:01
func NormalizeMAC(mac string) (string, error) {
	hw, err := net.ParseMAC(strings.TrimSpace(mac))
	if err != nil {
		return "", errors.Wrapf(err, "invalid MAC address %q", mac)
	}
	if len(hw) != 6 {
		return "", errors.Newf("not a 48-bit MAC address: %s", mac)
	}
	return hw.String(), nil
}

// FindMACs returns every MAC address in text, normalised and in order of
// appearance. Duplicates are kept once.
func FindMACs(text string) []string {
	var macs []string
	seen := make(map[string]bool)
	for _, m := range MACPattern.FindAllString(text, -1) {
		mac := strings.ToLower(m)
		if seen[mac] {
			continue
		}
		seen[mac] = true
		macs = append(macs, mac)
	}
	return macs
}

// OverlayPath returns the path of the copy-on-write overlay for a new VM:
// same directory as the backing image, named after the VM.
//
// Example: ("/vms/base-vm.qcow2", "web1") → /vms/web1.qcow2
func OverlayPath(backingImage, vmName string) string {
	return filepath.Join(filepath.Dir(backingImage), vmName+"."+OverlayFormat)
}

// ValidateVMName rejects names that cannot safely become a file name next
// to the backing image.
func ValidateVMName(name string) error {
	switch {
	case name == "":
		return errors.New("VM name must not be empty")
	case name == "." || name == "..":
		return errors.Newf("invalid VM name %q", name)
	case strings.ContainsRune(name, '/'):
		return errors.Newf("VM name %q must not contain '/'", name)
	case strings.HasPrefix(name, "-"):
		return errors.Newf("VM name %q must not start with '-'", name)
	case strings.IndexFunc(name, func(r rune) bool { return r < 0x20 || r == 0x7f }) >= 0:
		return errors.Newf("VM name %q contains control characters", name)
	}
	return nil
}
