package flash

import (
	"errors"
	"testing"

	"github.com/embedkit/probelink/internal/probe"
)

func TestDetectByExtension(t *testing.T) {
	cases := []struct {
		path string
		want probe.FormatKind
	}{
		{"firmware.elf", probe.FormatELF},
		{"firmware.axf", probe.FormatELF},
		{"FIRMWARE.ELF", probe.FormatELF},
		{"app.hex", probe.FormatHex},
		{"app.ihex", probe.FormatHex},
		{"image.bin", probe.FormatBin},
	}
	for _, c := range cases {
		f, err := Detect(c.path, 0x0800_0000, 0)
		if err != nil {
			t.Errorf("Detect(%q): %v", c.path, err)
			continue
		}
		if f.Kind != c.want {
			t.Errorf("Detect(%q) kind = %v, want %v", c.path, f.Kind, c.want)
		}
	}
}

func TestDetectBinCarriesPlacement(t *testing.T) {
	f, err := Detect("image.bin", 0x2000_0000, 16)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if f.Bin.BaseAddress != 0x2000_0000 || f.Bin.Skip != 16 {
		t.Errorf("bin placement = %+v", f.Bin)
	}
}

func TestDetectBinWithoutBase(t *testing.T) {
	_, err := Detect("image.bin", 0, 0)
	var mb *MissingBaseError
	if !errors.As(err, &mb) {
		t.Fatalf("err = %v, want MissingBaseError", err)
	}
	if mb.Path != "image.bin" {
		t.Errorf("Path = %q", mb.Path)
	}
}

func TestDetectUnknownExtension(t *testing.T) {
	for _, path := range []string{"firmware.exe", "firmware", "firmware.s19"} {
		_, err := Detect(path, 0x1000, 0)
		var uf *UnsupportedFormatError
		if !errors.As(err, &uf) {
			t.Errorf("Detect(%q) err = %v, want UnsupportedFormatError", path, err)
		}
	}
}
