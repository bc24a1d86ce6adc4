package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseBase parses a flash base address. Accepts 0x/0X hex, 0b/0B
// binary, 0o/0O octal and plain decimal.
func ParseBase(s string) (uint64, error) {
	t := strings.TrimSpace(s)
	base := 10
	switch {
	case len(t) > 2 && (t[:2] == "0x" || t[:2] == "0X"):
		t, base = t[2:], 16
	case len(t) > 2 && (t[:2] == "0b" || t[:2] == "0B"):
		t, base = t[2:], 2
	case len(t) > 2 && (t[:2] == "0o" || t[:2] == "0O"):
		t, base = t[2:], 8
	}
	v, err := strconv.ParseUint(t, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid base address %q", s)
	}
	return v, nil
}

// parseProtocol maps a protocol name to its boundary code: 0 auto,
// 1 SWD, 2 JTAG.
func parseProtocol(s string) (int32, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case "swd":
		return 1, nil
	case "jtag":
		return 2, nil
	}
	return 0, fmt.Errorf("invalid protocol %q (want swd or jtag)", s)
}
