package sim

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/embedkit/probelink/internal/probe"
)

const breakpointUnits = 6

// Session simulates one attached target: cores, sparse memory inside
// the target's mapped regions, registers and hardware breakpoints.
type Session struct {
	mu     sync.Mutex
	target probe.Target
	cores  []*simCore
	closed bool
}

func newSession(t probe.Target) *Session {
	s := &Session{target: t}
	n := len(t.Cores)
	if n == 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		s.cores = append(s.cores, newCore(s))
	}
	return s
}

func (s *Session) Cores() int { return len(s.cores) }

func (s *Session) Core(index int) (probe.Core, error) {
	if index < 0 || index >= len(s.cores) {
		return nil, fmt.Errorf("core index %d out of range", index)
	}
	return s.cores[index], nil
}

func (s *Session) ClearAllHWBreakpoints() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cores {
		c.breakpoints = make(map[uint64]struct{})
	}
	return nil
}

// Download simulates a flash download, emitting the same event shapes
// a hardware runtime produces: a sizing event, a start, a fixed number
// of progress chunks and a finish per operation.
func (s *Session) Download(ctx context.Context, path string, format probe.Format, opts probe.DownloadOptions) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	total := uint64(fi.Size())
	if total == 0 {
		return fmt.Errorf("image %q is empty", path)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ops := []probe.Operation{probe.OpErase, probe.OpProgram}
	if opts.Verify {
		ops = append(ops, probe.OpVerify)
	}
	for _, op := range ops {
		s.runOperation(op, total, opts.Progress)
	}
	return nil
}

func (s *Session) EraseAll(ctx context.Context, progress func(probe.ProgressEvent)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var total uint64
	for _, r := range s.target.MemoryMap {
		if r.Kind == probe.RegionNVM {
			total += r.Size()
		}
	}
	if total == 0 {
		return fmt.Errorf("target has no non-volatile memory")
	}
	s.runOperation(probe.OpErase, total, progress)
	return nil
}

func (s *Session) runOperation(op probe.Operation, total uint64, progress func(probe.ProgressEvent)) {
	if progress == nil {
		return
	}
	progress(probe.ProgressEvent{
		Kind: probe.EventAddProgressBar, Operation: op,
		Total: total, HasTotal: true,
	})
	progress(probe.ProgressEvent{Kind: probe.EventStarted, Operation: op})

	const chunks = 4
	sent := uint64(0)
	for i := 0; i < chunks; i++ {
		size := total / chunks
		if i == chunks-1 {
			size = total - sent
		}
		sent += size
		progress(probe.ProgressEvent{
			Kind: probe.EventProgress, Operation: op,
			Size: size, Elapsed: 10 * time.Millisecond,
		})
	}
	progress(probe.ProgressEvent{Kind: probe.EventFinished, Operation: op})
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type simCore struct {
	sess        *Session
	halted      bool
	registers   []uint64
	regInfo     []probe.RegisterInfo
	memory      map[uint64]byte
	breakpoints map[uint64]struct{}
}

func newCore(s *Session) *simCore {
	c := &simCore{
		sess:        s,
		memory:      make(map[uint64]byte),
		breakpoints: make(map[uint64]struct{}),
	}
	for i := 0; i < 16; i++ {
		c.regInfo = append(c.regInfo, probe.RegisterInfo{
			ID: uint16(i), Name: fmt.Sprintf("R%d", i), BitSize: 32,
		})
	}
	c.regInfo = append(c.regInfo, probe.RegisterInfo{ID: 16, Name: "XPSR", BitSize: 32})
	c.registers = make([]uint64, len(c.regInfo))
	return c
}

func (c *simCore) lock() func() {
	c.sess.mu.Lock()
	return c.sess.mu.Unlock
}

func (c *simCore) Halt(timeout time.Duration) error {
	defer c.lock()()
	c.halted = true
	return nil
}

func (c *simCore) Run() error {
	defer c.lock()()
	c.halted = false
	return nil
}

func (c *simCore) Step() error {
	defer c.lock()()
	if !c.halted {
		return fmt.Errorf("core is running")
	}
	c.registers[15] += 2 // advance PC one Thumb instruction
	return nil
}

func (c *simCore) Reset() error {
	defer c.lock()()
	c.halted = false
	for i := range c.registers {
		c.registers[i] = 0
	}
	return nil
}

func (c *simCore) ResetAndHalt(timeout time.Duration) error {
	if err := c.Reset(); err != nil {
		return err
	}
	return c.Halt(timeout)
}

func (c *simCore) Status() (probe.CoreStatus, error) {
	defer c.lock()()
	if c.halted {
		return probe.CoreStatusHalted, nil
	}
	return probe.CoreStatusRunning, nil
}

// mapped reports whether [addr, addr+n) falls inside the target's
// memory map.
func (c *simCore) mapped(addr, n uint64) bool {
	for _, r := range c.sess.target.MemoryMap {
		if addr >= r.Start && addr+n <= r.End {
			return true
		}
	}
	return false
}

func (c *simCore) Read8(addr uint64, dst []byte) error {
	defer c.lock()()
	if !c.mapped(addr, uint64(len(dst))) {
		return fmt.Errorf("address %#x not mapped", addr)
	}
	for i := range dst {
		dst[i] = c.memory[addr+uint64(i)]
	}
	return nil
}

func (c *simCore) Write8(addr uint64, data []byte) error {
	defer c.lock()()
	if !c.mapped(addr, uint64(len(data))) {
		return fmt.Errorf("address %#x not mapped", addr)
	}
	for i, b := range data {
		c.memory[addr+uint64(i)] = b
	}
	return nil
}

func (c *simCore) Read32(addr uint64, dst []uint32) error {
	buf := make([]byte, len(dst)*4)
	if err := c.Read8(addr, buf); err != nil {
		return err
	}
	for i := range dst {
		dst[i] = uint32(buf[i*4]) | uint32(buf[i*4+1])<<8 |
			uint32(buf[i*4+2])<<16 | uint32(buf[i*4+3])<<24
	}
	return nil
}

func (c *simCore) Write32(addr uint64, data []uint32) error {
	buf := make([]byte, len(data)*4)
	for i, w := range data {
		buf[i*4] = byte(w)
		buf[i*4+1] = byte(w >> 8)
		buf[i*4+2] = byte(w >> 16)
		buf[i*4+3] = byte(w >> 24)
	}
	return c.Write8(addr, buf)
}

func (c *simCore) Registers() []probe.RegisterInfo {
	return c.regInfo
}

func (c *simCore) ReadRegister(id uint16) (uint64, error) {
	defer c.lock()()
	if int(id) >= len(c.registers) {
		return 0, fmt.Errorf("register id %d unknown", id)
	}
	return c.registers[id], nil
}

func (c *simCore) WriteRegister(id uint16, value uint64) error {
	defer c.lock()()
	if int(id) >= len(c.registers) {
		return fmt.Errorf("register id %d unknown", id)
	}
	c.registers[id] = value
	return nil
}

func (c *simCore) AvailableBreakpointUnits() (uint32, error) {
	defer c.lock()()
	return uint32(breakpointUnits - len(c.breakpoints)), nil
}

func (c *simCore) SetHWBreakpoint(addr uint64) error {
	defer c.lock()()
	if len(c.breakpoints) >= breakpointUnits {
		return fmt.Errorf("no breakpoint units available")
	}
	c.breakpoints[addr] = struct{}{}
	return nil
}

func (c *simCore) ClearHWBreakpoint(addr uint64) error {
	defer c.lock()()
	if _, ok := c.breakpoints[addr]; !ok {
		return fmt.Errorf("no breakpoint at %#x", addr)
	}
	delete(c.breakpoints, addr)
	return nil
}
