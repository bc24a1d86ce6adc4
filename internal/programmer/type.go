// Package programmer enumerates the debug-probe driver families the
// boundary can filter probe discovery by.
//
// The integer code assigned to each family is part of the C boundary
// contract and must never change. Code 0 (and anything negative or
// unknown) means "no filter / invalid".
package programmer

import "strings"

// Type identifies one driver family.
type Type int32

const (
	TypeUnset Type = 0

	CMSISDAP     Type = 1
	STLink       Type = 2
	JLink        Type = 3
	FTDI         Type = 4
	ESPUSBJTAG   Type = 5
	WCHLink      Type = 6
	SifliUART    Type = 7
	Glasgow      Type = 8
	CH347USBJTAG Type = 9
)

// canonical holds the wire spelling for each supported family.
var canonical = map[Type]string{
	CMSISDAP:     "cmsis-dap",
	STLink:       "stlink",
	JLink:        "jlink",
	FTDI:         "ftdi",
	ESPUSBJTAG:   "esp-usb-jtag",
	WCHLink:      "wch-link",
	SifliUART:    "sifli-uart",
	Glasgow:      "glasgow",
	CH347USBJTAG: "ch347-usb-jtag",
}

// aliases maps accepted spellings, canonical ones included, to types.
var aliases = map[string]Type{
	"cmsis-dap":      CMSISDAP,
	"cmsisdap":       CMSISDAP,
	"stlink":         STLink,
	"st-link":        STLink,
	"jlink":          JLink,
	"ftdi":           FTDI,
	"esp-usb-jtag":   ESPUSBJTAG,
	"espusbjtag":     ESPUSBJTAG,
	"wch-link":       WCHLink,
	"wlink":          WCHLink,
	"sifli-uart":     SifliUART,
	"sifliuart":      SifliUART,
	"glasgow":        Glasgow,
	"ch347-usb-jtag": CH347USBJTAG,
	"ch347usbjtag":   CH347USBJTAG,
}

// FromString resolves a canonical or alias spelling. Matching is
// case-insensitive and ignores surrounding whitespace.
func FromString(name string) (Type, bool) {
	t, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// FromCode validates an integer code received across the boundary.
func FromCode(code int32) (Type, bool) {
	t := Type(code)
	_, ok := canonical[t]
	return t, ok
}

// Supported reports whether code names a known driver family.
func Supported(code int32) bool {
	_, ok := FromCode(code)
	return ok
}

// String returns the canonical spelling, or "" for unknown types.
func (t Type) String() string {
	return canonical[t]
}

// Code returns the stable integer representation used across the
// boundary.
func (t Type) Code() int32 {
	return int32(t)
}

// DriverFlag returns the family's bit in the probe driver-flags word.
func (t Type) DriverFlag() uint32 {
	if _, ok := canonical[t]; !ok {
		return 0
	}
	return 1 << uint(t-1)
}

// All lists the supported families in code order.
func All() []Type {
	return []Type{
		CMSISDAP, STLink, JLink, FTDI, ESPUSBJTAG,
		WCHLink, SifliUART, Glasgow, CH347USBJTAG,
	}
}
