package probe

import (
	"fmt"
	"strconv"
	"strings"
)

// Selector picks a probe by USB identity: "VID:PID" or
// "VID:PID:SERIAL", with VID and PID in hexadecimal.
type Selector struct {
	VendorID  uint16
	ProductID uint16
	Serial    string
}

// ParseSelector parses the textual selector form.
func ParseSelector(s string) (Selector, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 3)
	if len(parts) < 2 {
		return Selector{}, fmt.Errorf("selector %q: want VID:PID[:SERIAL]", s)
	}
	vid, err := strconv.ParseUint(parts[0], 16, 16)
	if err != nil {
		return Selector{}, fmt.Errorf("selector %q: bad vendor id: %w", s, err)
	}
	pid, err := strconv.ParseUint(parts[1], 16, 16)
	if err != nil {
		return Selector{}, fmt.Errorf("selector %q: bad product id: %w", s, err)
	}
	sel := Selector{VendorID: uint16(vid), ProductID: uint16(pid)}
	if len(parts) == 3 {
		sel.Serial = parts[2]
	}
	return sel, nil
}

// Matches reports whether info satisfies the selector. A selector
// without a serial matches any serial; one with a serial requires an
// exact match.
func (sel Selector) Matches(info ProbeInfo) bool {
	if info.VendorID != sel.VendorID || info.ProductID != sel.ProductID {
		return false
	}
	if sel.Serial == "" {
		return true
	}
	return info.Serial == sel.Serial
}

func (sel Selector) String() string {
	if sel.Serial != "" {
		return fmt.Sprintf("%04x:%04x:%s", sel.VendorID, sel.ProductID, sel.Serial)
	}
	return fmt.Sprintf("%04x:%04x", sel.VendorID, sel.ProductID)
}
