// Package image identifies disk image formats from their on-disk headers.
package image

import (
	"bytes"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// Formats understood by qemu-img as a backing format.
const (
	FormatQCOW2 = "qcow2"
	FormatRaw   = "raw"
)

var (
	// qcow2Magic is "QFI" followed by 0xfb at offset 0.
	qcow2Magic = []byte{0x51, 0x46, 0x49, 0xfb}

	// bootSignature ends the first sector of MBR and GPT (protective MBR) disks.
	bootSignature = []byte{0x55, 0xaa}
)

// ErrUnknownFormat is returned for files that are neither qcow2 nor a
// bootable raw image.
var ErrUnknownFormat = errors.New("unknown image format")

// DetectFormat reads the header of the image at path and returns FormatQCOW2
// or FormatRaw. Raw images are only recognised when their first sector
// carries a boot signature.
func DetectFormat(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open image %s", path)
	}
	defer func() { _ = f.Close() }()
	return detect(f, path)
}

func detect(r io.ReaderAt, path string) (string, error) {
	magic := make([]byte, len(qcow2Magic))
	if _, err := r.ReadAt(magic, 0); err != nil {
		return "", errors.Wrapf(ErrUnknownFormat, "%s is too small to be an image", path)
	}
	if bytes.Equal(magic, qcow2Magic) {
		return FormatQCOW2, nil
	}

	sig := make([]byte, len(bootSignature))
	if _, err := r.ReadAt(sig, 510); err != nil {
		return "", errors.Wrapf(ErrUnknownFormat, "%s is shorter than one boot sector", path)
	}
	if bytes.Equal(sig, bootSignature) {
		return FormatRaw, nil
	}

	return "", errors.Wrapf(ErrUnknownFormat, "%s has neither a qcow2 header nor a boot signature", path)
}
