// Package probe defines the contract between probelink and the
// debug-probe runtime that owns probe drivers, the attach state
// machine, memory access and flash programming.
//
// Everything behind the Runtime interface is an external collaborator:
// this module never implements wire protocols or flashing algorithms
// itself. All hardware-facing calls block on the calling goroutine for
// the duration of the operation.
package probe

import (
	"context"
	"time"

	"github.com/embedkit/probelink/internal/programmer"
)

// Protocol selects the low-level debug transport.
type Protocol int32

const (
	ProtocolAuto Protocol = 0
	ProtocolSWD  Protocol = 1
	ProtocolJTAG Protocol = 2
)

// ProtocolFromCode maps a boundary integer to a protocol. Unknown
// codes fall back to ProtocolAuto, matching the probe's own default.
func ProtocolFromCode(code int32) Protocol {
	switch code {
	case 1:
		return ProtocolSWD
	case 2:
		return ProtocolJTAG
	default:
		return ProtocolAuto
	}
}

// Feature is a bitmask of probe capabilities.
type Feature uint32

const (
	FeatureSWD          Feature = 1 << 0
	FeatureJTAG         Feature = 1 << 1
	FeatureARM          Feature = 1 << 2
	FeatureRISCV        Feature = 1 << 3
	FeatureXtensa       Feature = 1 << 4
	FeatureSWO          Feature = 1 << 5
	FeatureSpeedControl Feature = 1 << 6
)

// ProbeInfo describes one discovered debug adapter.
type ProbeInfo struct {
	Identifier string
	VendorID   uint16
	ProductID  uint16
	Serial     string
	Driver     programmer.Type
}

// CoreStatus is the execution state of one target core.
type CoreStatus int32

const (
	CoreStatusUnknown CoreStatus = 0
	CoreStatusHalted  CoreStatus = 1
	CoreStatusRunning CoreStatus = 2
)

// RegisterInfo describes one core register.
type RegisterInfo struct {
	ID      uint16
	Name    string
	BitSize uint32
}

// RegionKind classifies a target memory region.
type RegionKind uint8

const (
	RegionRAM RegionKind = iota
	RegionNVM
	RegionGeneric
)

// MemoryRegion is a half-open [Start, End) address range.
type MemoryRegion struct {
	Kind  RegionKind
	Start uint64
	End   uint64
}

// Size returns the region length in bytes.
func (r MemoryRegion) Size() uint64 {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// CoreDesc names one core of a target and its type.
type CoreDesc struct {
	Name string
	Type string
}

// ManufacturerCode is a JEP106-style vendor identity. Two families
// with the same (CC, ID) pair belong to the same manufacturer.
type ManufacturerCode struct {
	CC   uint8
	ID   uint8
	Name string
}

// Family groups the targets of one chip family. Manufacturer is nil
// when the family registry carries no vendor code.
type Family struct {
	Name         string
	Manufacturer *ManufacturerCode
	Targets      []string
}

// Target is the runtime's description of one chip.
type Target struct {
	Name            string
	Architecture    string
	Cores           []CoreDesc
	MemoryMap       []MemoryRegion
	FlashAlgorithms []string
	DefaultFormat   string
}

// Runtime is the debug-probe engine: probe enumeration plus the
// target registry the chip database is derived from.
type Runtime interface {
	// Probes enumerates currently visible debug adapters.
	Probes() []ProbeInfo
	// Open claims the probe described by info.
	Open(info ProbeInfo) (Probe, error)
	// Families lists the known target families.
	Families() []Family
	// Target resolves a chip name to its full description.
	Target(name string) (Target, error)
}

// Probe is one opened debug adapter.
type Probe interface {
	Info() ProbeInfo
	Features() Feature
	SelectProtocol(p Protocol) error
	SetSpeed(khz uint32) error
	// AttachUnspecified connects to whatever target is wired up,
	// without naming a chip. Used to answer "is something there".
	AttachUnspecified() error
	Detach() error
	// Attach opens a session against the named target. The probe's
	// ownership moves into the session.
	Attach(target string) (Session, error)
}

// Session is a live attached connection to one target.
type Session interface {
	Cores() int
	Core(index int) (Core, error)
	ClearAllHWBreakpoints() error
	// Download programs the image at path into the target, reporting
	// raw progress events synchronously through opts.Progress.
	Download(ctx context.Context, path string, format Format, opts DownloadOptions) error
	// EraseAll mass-erases the target's non-volatile memory.
	EraseAll(ctx context.Context, progress func(ProgressEvent)) error
	Close() error
}

// Core is one independently controllable execution unit.
type Core interface {
	Halt(timeout time.Duration) error
	Run() error
	Step() error
	Reset() error
	ResetAndHalt(timeout time.Duration) error
	Status() (CoreStatus, error)

	Read8(addr uint64, dst []byte) error
	Write8(addr uint64, data []byte) error
	Read32(addr uint64, dst []uint32) error
	Write32(addr uint64, data []uint32) error

	Registers() []RegisterInfo
	ReadRegister(id uint16) (uint64, error)
	WriteRegister(id uint16, value uint64) error

	AvailableBreakpointUnits() (uint32, error)
	SetHWBreakpoint(addr uint64) error
	ClearHWBreakpoint(addr uint64) error
}
