package probe

import "time"

// FormatKind is the on-disk encoding of a firmware image.
type FormatKind int32

const (
	FormatELF FormatKind = iota
	FormatHex
	FormatBin
)

// BinOptions carries the placement of a raw binary image, which has no
// embedded load addresses.
type BinOptions struct {
	BaseAddress uint64
	Skip        uint32
}

// Format pairs a format kind with its bin placement, if any.
type Format struct {
	Kind FormatKind
	Bin  BinOptions
}

// DownloadOptions configures one flash download.
type DownloadOptions struct {
	Verify    bool
	Preverify bool
	ChipErase bool
	// Progress, when non-nil, receives the runtime's raw event stream
	// synchronously from the flashing call.
	Progress func(ProgressEvent)
}

// Operation is one phase of a flash download. The integer values are
// the operation codes reported through the boundary progress callback.
type Operation int32

const (
	OpFill    Operation = 0
	OpErase   Operation = 1
	OpProgram Operation = 2
	OpVerify  Operation = 3
)

// StatusText is the human-readable label reported for the operation.
func (op Operation) StatusText() string {
	switch op {
	case OpErase:
		return "erasing"
	case OpProgram:
		return "programming"
	case OpVerify:
		return "verifying"
	default:
		return "filling"
	}
}

// EventKind discriminates ProgressEvent variants.
type EventKind int32

const (
	// EventAddProgressBar announces an upcoming operation and its
	// expected total size, when known.
	EventAddProgressBar EventKind = iota
	EventStarted
	EventProgress
	EventFinished
	EventFailed
)

// ProgressEvent is one raw notification from the flashing engine.
// The runtime may emit duplicate or arbitrarily fine-grained Progress
// events; consumers are expected to throttle.
type ProgressEvent struct {
	Kind      EventKind
	Operation Operation

	// AddProgressBar payload.
	Total    uint64
	HasTotal bool

	// Progress payload: bytes processed and time spent since the
	// previous event for this operation.
	Size    uint64
	Elapsed time.Duration
}
