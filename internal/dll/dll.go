// Package dll loads the probelink boundary shared library at runtime
// and wraps its C surface in Go-friendly calls. The CLI deliberately
// links against nothing at build time so one binary can drive whatever
// library build is installed next to it.
package dll

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

// ProbeInfo is one discovered probe as reported by the library.
type ProbeInfo struct {
	Identifier string
	VendorID   uint16
	ProductID  uint16
	Serial     string
}

// ProgressFunc receives throttled flash progress notifications.
type ProgressFunc func(op int32, percent float32, status string, etaMS int32)

// Library is an open handle to the boundary shared library. All
// methods are thin wrappers over the C calls; failing calls leave a
// message readable through LastError.
type Library struct {
	handle uintptr

	version    func(unsafe.Pointer, uintptr) uintptr
	lastError  func(unsafe.Pointer, uintptr) uintptr
	probeCount func() uint32
	probeInfo  func(uint32, unsafe.Pointer, uintptr, unsafe.Pointer, unsafe.Pointer, unsafe.Pointer, uintptr) int32
	checkTgt   func(uint32) int32

	typeFromString func(string, unsafe.Pointer) int32
	setTypeCode    func(int32) int32

	sessionOpenAuto      func(string, uint32, int32) uint64
	sessionOpenWithProbe func(string, string, uint32, int32) uint64
	sessionClose         func(uint64) int32

	setProgressCB   func(uintptr)
	clearProgressCB func()

	flashAuto func(string, string, uint64, uint32, int32, int32, int32, uint32, int32) int32
	chipErase func(string, uint32, int32) int32
}

// Open dlopens the library at path and binds the calls the CLI uses.
func Open(path string) (*Library, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("load library %s: %w", path, err)
	}
	l := &Library{handle: h}
	purego.RegisterLibFunc(&l.version, h, "pl_version")
	purego.RegisterLibFunc(&l.lastError, h, "pl_last_error")
	purego.RegisterLibFunc(&l.probeCount, h, "pl_probe_count")
	purego.RegisterLibFunc(&l.probeInfo, h, "pl_probe_info")
	purego.RegisterLibFunc(&l.checkTgt, h, "pl_probe_check_target")
	purego.RegisterLibFunc(&l.typeFromString, h, "pl_programmer_type_from_string")
	purego.RegisterLibFunc(&l.setTypeCode, h, "pl_set_programmer_type_code")
	purego.RegisterLibFunc(&l.sessionOpenAuto, h, "pl_session_open_auto")
	purego.RegisterLibFunc(&l.sessionOpenWithProbe, h, "pl_session_open_with_probe")
	purego.RegisterLibFunc(&l.sessionClose, h, "pl_session_close")
	purego.RegisterLibFunc(&l.setProgressCB, h, "pl_set_progress_callback")
	purego.RegisterLibFunc(&l.clearProgressCB, h, "pl_clear_progress_callback")
	purego.RegisterLibFunc(&l.flashAuto, h, "pl_flash_auto")
	purego.RegisterLibFunc(&l.chipErase, h, "pl_chip_erase")
	return l, nil
}

// Close unloads the library.
func (l *Library) Close() error {
	return purego.Dlclose(l.handle)
}

// Locate returns the first existing library path from: the explicit
// hint, the configured path, then the default file name next to the
// executable and in the working directory.
func Locate(hint, configured string) (string, error) {
	name := "libprobelink.so"
	if runtime.GOOS == "darwin" {
		name = "libprobelink.dylib"
	}

	var candidates []string
	if hint != "" {
		candidates = append(candidates, hint)
	}
	if configured != "" {
		candidates = append(candidates, configured)
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), name))
	}
	candidates = append(candidates, name)

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("boundary library not found, tried %v", candidates)
}

// fill drives one two-phase buffer call to completion.
func fill(f func(unsafe.Pointer, uintptr) uintptr) string {
	need := f(nil, 0)
	if need <= 1 {
		return ""
	}
	buf := make([]byte, need)
	f(unsafe.Pointer(&buf[0]), uintptr(len(buf)))
	return string(buf[:need-1])
}

// Version returns the library version string.
func (l *Library) Version() string {
	return fill(l.version)
}

// LastError returns the library's most recent error message.
func (l *Library) LastError() string {
	return fill(l.lastError)
}

// ProbeCount enumerates currently visible probes.
func (l *Library) ProbeCount() uint32 {
	return l.probeCount()
}

// ProbeInfo describes the probe at index.
func (l *Library) ProbeInfo(index uint32) (ProbeInfo, error) {
	const bufLen = 256
	var (
		id     [bufLen]byte
		serial [bufLen]byte
		vid    uint16
		pid    uint16
	)
	rc := l.probeInfo(index,
		unsafe.Pointer(&id[0]), bufLen,
		unsafe.Pointer(&vid), unsafe.Pointer(&pid),
		unsafe.Pointer(&serial[0]), bufLen)
	if rc != 0 {
		return ProbeInfo{}, fmt.Errorf("probe info failed: %s", l.LastError())
	}
	return ProbeInfo{
		Identifier: cString(id[:]),
		VendorID:   vid,
		ProductID:  pid,
		Serial:     cString(serial[:]),
	}, nil
}

// CheckTarget reports whether a target responds behind the probe at
// index: 1 connected, 0 not reachable, negative on probe error.
func (l *Library) CheckTarget(index uint32) int32 {
	return l.checkTgt(index)
}

// ProgrammerTypeFromString resolves a driver family name to its code.
func (l *Library) ProgrammerTypeFromString(name string) (int32, bool) {
	var code int32
	if rc := l.typeFromString(name, unsafe.Pointer(&code)); rc != 0 {
		return -1, false
	}
	return code, true
}

// SetProgrammerTypeCode activates the library's driver-family filter.
func (l *Library) SetProgrammerTypeCode(code int32) error {
	if rc := l.setTypeCode(code); rc != 0 {
		return fmt.Errorf("set programmer type: %s", l.LastError())
	}
	return nil
}

// SessionOpenAuto attaches to chip through any probe the library's
// filter allows; 0 means failure, with the reason in LastError.
func (l *Library) SessionOpenAuto(chip string, speedKHz uint32, protocol int32) uint64 {
	return l.sessionOpenAuto(chip, speedKHz, protocol)
}

// SessionOpenWithProbe is SessionOpenAuto narrowed to an explicit
// "VID:PID[:SERIAL]" selector.
func (l *Library) SessionOpenWithProbe(selector, chip string, speedKHz uint32, protocol int32) uint64 {
	return l.sessionOpenWithProbe(selector, chip, speedKHz, protocol)
}

// SessionClose releases the session behind handle.
func (l *Library) SessionClose(handle uint64) int32 {
	return l.sessionClose(handle)
}

// activeProgress pins the installed callback for the lifetime of the
// registration. purego callbacks are never released, so re-installing
// reuses one trampoline and swaps the target.
var activeProgress ProgressFunc

var progressTrampoline = purego.NewCallback(func(op int32, percent float32, status uintptr, etaMS int32) uintptr {
	if fn := activeProgress; fn != nil {
		fn(op, percent, cStringPtr(status), etaMS)
	}
	return 0
})

// SetProgressCallback installs fn as the library's progress sink.
func (l *Library) SetProgressCallback(fn ProgressFunc) {
	activeProgress = fn
	l.setProgressCB(progressTrampoline)
}

// ClearProgressCallback removes the progress sink.
func (l *Library) ClearProgressCallback() {
	l.clearProgressCB()
	activeProgress = nil
}

// FlashOptions mirrors the flash call's tail arguments.
type FlashOptions struct {
	BaseAddress uint64
	Skip        uint32
	Verify      bool
	Preverify   bool
	ChipErase   bool
	SpeedKHz    uint32
	Protocol    int32
}

// FlashAuto programs path into chip, detecting the image format from
// the file extension. The returned code is 0 on success, 1 for
// argument or probe failures, 2 for flash failures.
func (l *Library) FlashAuto(chip, path string, o FlashOptions) int32 {
	return l.flashAuto(chip, path, o.BaseAddress, o.Skip,
		cBool(o.Verify), cBool(o.Preverify), cBool(o.ChipErase),
		o.SpeedKHz, o.Protocol)
}

// ChipErase mass-erases the named chip. Returns 0 on success.
func (l *Library) ChipErase(chip string, speedKHz uint32, protocol int32) int32 {
	return l.chipErase(chip, speedKHz, protocol)
}

func cBool(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// cString reads a NUL-terminated string out of a fixed buffer.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// cStringPtr reads a NUL-terminated C string from raw memory.
func cStringPtr(p uintptr) string {
	if p == 0 {
		return ""
	}
	var b []byte
	for i := uintptr(0); ; i++ {
		c := *(*byte)(unsafe.Pointer(p + i))
		if c == 0 {
			break
		}
		b = append(b, c)
	}
	return string(b)
}
