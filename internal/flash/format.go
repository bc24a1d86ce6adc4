// Package flash resolves on-disk firmware image formats for the
// download orchestration.
package flash

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/embedkit/probelink/internal/probe"
)

// UnsupportedFormatError reports a file extension no image format is
// registered for.
type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format extension: %q", e.Path)
}

// MissingBaseError reports a raw binary image without a load address.
// Raw binaries carry no placement information of their own.
type MissingBaseError struct {
	Path string
}

func (e *MissingBaseError) Error() string {
	return fmt.Sprintf("base address required for bin format: %q", e.Path)
}

// Detect sniffs the image format from the file extension. base of 0
// is treated as "not provided"; a .bin image then fails with
// MissingBaseError. ELF and HEX images ignore base and skip since they
// embed their own load addresses.
func Detect(path string, base uint64, skip uint32) (probe.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".elf", ".axf":
		return probe.Format{Kind: probe.FormatELF}, nil
	case ".hex", ".ihex":
		return probe.Format{Kind: probe.FormatHex}, nil
	case ".bin":
		if base == 0 {
			return probe.Format{}, &MissingBaseError{Path: path}
		}
		return probe.Format{
			Kind: probe.FormatBin,
			Bin:  probe.BinOptions{BaseAddress: base, Skip: skip},
		}, nil
	default:
		return probe.Format{}, &UnsupportedFormatError{Path: path}
	}
}
