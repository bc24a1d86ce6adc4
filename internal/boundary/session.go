package boundary

import (
	"time"

	"github.com/embedkit/probelink/internal/cbuf"
	"github.com/embedkit/probelink/internal/handles"
	"github.com/embedkit/probelink/internal/probe"
)

// SessionOpenAuto resolves any probe allowed by the active filter,
// attaches to chip and returns a session handle, or 0 on failure.
func (c *Context) SessionOpenAuto(chip string, speedKHz uint32, protocolCode int32) uint64 {
	return c.openSession(nil, chip, speedKHz, protocolCode)
}

// SessionOpenWithProbe is SessionOpenAuto narrowed to an explicit
// "VID:PID[:SERIAL]" selector.
func (c *Context) SessionOpenWithProbe(selector, chip string, speedKHz uint32, protocolCode int32) uint64 {
	sel, err := probe.ParseSelector(selector)
	if err != nil {
		c.setError("selector parse error: %v", err)
		return 0
	}
	return c.openSession(&sel, chip, speedKHz, protocolCode)
}

func (c *Context) openSession(sel *probe.Selector, chip string, speedKHz uint32, protocolCode int32) uint64 {
	p, err := c.resolveProbe(sel, probe.ProtocolFromCode(protocolCode), speedKHz)
	if err != nil {
		c.setError("%v", err)
		return 0
	}
	sess, err := p.Attach(chip)
	if err != nil {
		c.setError("attach error: %v", err)
		return 0
	}
	h := c.sessions.Open(sess)
	c.logInfo("session opened", "chip", chip, "handle", h)
	return h
}

// SessionClose removes the handle and closes the session once any
// in-flight operation on it finishes.
func (c *Context) SessionClose(handle uint64) int32 {
	if err := c.sessions.Close(handle); err != nil {
		c.setError("invalid session handle")
		return -1
	}
	c.logInfo("session closed", "handle", handle)
	return 0
}

// withCore runs fn against one core of the session behind handle,
// holding the session's lock. opName prefixes failure messages; rc is
// 0 on success, -1 for handle/core resolution failures, -2 when the
// operation itself fails.
func (c *Context) withCore(handle uint64, core uint32, opName string, fn func(probe.Core) error) (rc int32) {
	e, err := c.sessions.Resolve(handle)
	if err != nil {
		c.setError("invalid session handle")
		return -1
	}
	err = e.Do(func(s probe.Session) {
		cr, cerr := s.Core(int(core))
		if cerr != nil {
			c.setError("core access error: %v", cerr)
			rc = -1
			return
		}
		if oerr := fn(cr); oerr != nil {
			c.setError("%s error: %v", opName, oerr)
			rc = -2
		}
	})
	if err == handles.ErrNotFound {
		c.setError("invalid session handle")
		return -1
	}
	return rc
}

// CoreCount returns the number of cores behind handle, 0 for unknown
// handles.
func (c *Context) CoreCount(handle uint64) uint32 {
	e, err := c.sessions.Resolve(handle)
	if err != nil {
		return 0
	}
	var n uint32
	e.Do(func(s probe.Session) { n = uint32(s.Cores()) })
	return n
}

func (c *Context) CoreHalt(handle uint64, core, timeoutMS uint32) int32 {
	return c.withCore(handle, core, "halt", func(cr probe.Core) error {
		return cr.Halt(time.Duration(timeoutMS) * time.Millisecond)
	})
}

func (c *Context) CoreRun(handle uint64, core uint32) int32 {
	return c.withCore(handle, core, "run", probe.Core.Run)
}

func (c *Context) CoreStep(handle uint64, core uint32) int32 {
	return c.withCore(handle, core, "step", probe.Core.Step)
}

func (c *Context) CoreReset(handle uint64, core uint32) int32 {
	return c.withCore(handle, core, "reset", probe.Core.Reset)
}

func (c *Context) CoreResetAndHalt(handle uint64, core, timeoutMS uint32) int32 {
	return c.withCore(handle, core, "reset_and_halt", func(cr probe.Core) error {
		return cr.ResetAndHalt(time.Duration(timeoutMS) * time.Millisecond)
	})
}

// CoreStatus returns 1 halted, 2 running, 0 unknown, negative on
// failure.
func (c *Context) CoreStatus(handle uint64, core uint32) int32 {
	var status probe.CoreStatus
	rc := c.withCore(handle, core, "status", func(cr probe.Core) error {
		st, err := cr.Status()
		status = st
		return err
	})
	if rc != 0 {
		return rc
	}
	return int32(status)
}

// Read8 reads len(dst) bytes from target memory at address.
func (c *Context) Read8(handle uint64, core uint32, address uint64, dst []byte) int32 {
	if dst == nil {
		c.setError("buf is null")
		return -1
	}
	return c.withCore(handle, core, "read_8", func(cr probe.Core) error {
		return cr.Read8(address, dst)
	})
}

func (c *Context) Write8(handle uint64, core uint32, address uint64, data []byte) int32 {
	if data == nil {
		c.setError("buf is null")
		return -1
	}
	return c.withCore(handle, core, "write_8", func(cr probe.Core) error {
		return cr.Write8(address, data)
	})
}

func (c *Context) Read32(handle uint64, core uint32, address uint64, dst []uint32) int32 {
	if dst == nil {
		c.setError("buf is null")
		return -1
	}
	return c.withCore(handle, core, "read_32", func(cr probe.Core) error {
		return cr.Read32(address, dst)
	})
}

func (c *Context) Write32(handle uint64, core uint32, address uint64, data []uint32) int32 {
	if data == nil {
		c.setError("buf is null")
		return -1
	}
	return c.withCore(handle, core, "write_32", func(cr probe.Core) error {
		return cr.Write32(address, data)
	})
}

// RegistersCount returns the size of the core's register set, 0 on
// any failure.
func (c *Context) RegistersCount(handle uint64, core uint32) uint32 {
	var n uint32
	c.withCore(handle, core, "registers", func(cr probe.Core) error {
		n = uint32(len(cr.Registers()))
		return nil
	})
	return n
}

// RegisterInfoAt describes one register; name is filled clamped to
// its buffer. An out-of-range register index is an argument failure
// (rc -1), not an operation failure.
func (c *Context) RegisterInfoAt(handle uint64, core, regIndex uint32, name []byte) (regID uint16, bitSize uint32, rc int32) {
	var outOfRange bool
	rc = c.withCore(handle, core, "register_info", func(cr probe.Core) error {
		regs := cr.Registers()
		if int(regIndex) >= len(regs) {
			outOfRange = true
			return nil
		}
		desc := regs[regIndex]
		regID = desc.ID
		bitSize = desc.BitSize
		cbuf.Fill(name, desc.Name)
		return nil
	})
	if rc == 0 && outOfRange {
		c.setError("reg index out of range")
		rc = -1
	}
	return regID, bitSize, rc
}

func (c *Context) ReadRegU64(handle uint64, core uint32, regID uint16) (value uint64, rc int32) {
	rc = c.withCore(handle, core, "read reg", func(cr probe.Core) error {
		v, err := cr.ReadRegister(regID)
		value = v
		return err
	})
	return value, rc
}

func (c *Context) WriteRegU64(handle uint64, core uint32, regID uint16, value uint64) int32 {
	return c.withCore(handle, core, "write reg", func(cr probe.Core) error {
		return cr.WriteRegister(regID, value)
	})
}

func (c *Context) AvailableBreakpointUnits(handle uint64, core uint32) (units uint32, rc int32) {
	rc = c.withCore(handle, core, "bp units", func(cr probe.Core) error {
		u, err := cr.AvailableBreakpointUnits()
		units = u
		return err
	})
	return units, rc
}

func (c *Context) SetHWBreakpoint(handle uint64, core uint32, address uint64) int32 {
	return c.withCore(handle, core, "set bp", func(cr probe.Core) error {
		return cr.SetHWBreakpoint(address)
	})
}

func (c *Context) ClearHWBreakpoint(handle uint64, core uint32, address uint64) int32 {
	return c.withCore(handle, core, "clear bp", func(cr probe.Core) error {
		return cr.ClearHWBreakpoint(address)
	})
}

func (c *Context) ClearAllHWBreakpoints(handle uint64) int32 {
	e, err := c.sessions.Resolve(handle)
	if err != nil {
		c.setError("invalid session handle")
		return -1
	}
	var rc int32
	err = e.Do(func(s probe.Session) {
		if cerr := s.ClearAllHWBreakpoints(); cerr != nil {
			c.setError("clear all bp error: %v", cerr)
			rc = -2
		}
	})
	if err == handles.ErrNotFound {
		c.setError("invalid session handle")
		return -1
	}
	return rc
}
