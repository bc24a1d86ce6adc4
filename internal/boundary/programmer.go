package boundary

import (
	"github.com/embedkit/probelink/internal/cbuf"
	"github.com/embedkit/probelink/internal/programmer"
)

// SetTypeCode activates the programmer-type filter. All probe
// discovery and session-open calls are narrowed to the selected driver
// family until the context is discarded.
func (c *Context) SetTypeCode(code int32) int32 {
	t, ok := programmer.FromCode(code)
	if !ok {
		c.setError("unsupported programmer type code")
		return -1
	}
	c.typeMu.Lock()
	c.activeType = t
	c.typeMu.Unlock()
	c.logInfo("programmer type filter set", "type", t.String())
	return 0
}

// TypeCode returns the active filter code, or -1 when none is set.
func (c *Context) TypeCode() int32 {
	t := c.ActiveType()
	if t == programmer.TypeUnset {
		return -1
	}
	return t.Code()
}

// ActiveType snapshots the filter.
func (c *Context) ActiveType() programmer.Type {
	c.typeMu.Lock()
	defer c.typeMu.Unlock()
	return c.activeType
}

// TypeSupported reports 1 when code names a known driver family.
func (c *Context) TypeSupported(code int32) int32 {
	if programmer.Supported(code) {
		return 1
	}
	return 0
}

// TypeName fills dst with the canonical spelling for code, or the
// empty string for unknown codes.
func (c *Context) TypeName(code int32, dst []byte) int {
	t, _ := programmer.FromCode(code)
	return cbuf.Fill(dst, t.String())
}

// TypeFromString resolves a canonical or alias spelling. rc is 0 on
// success, -1 for unknown names.
func (c *Context) TypeFromString(name string) (code int32, rc int32) {
	t, ok := programmer.FromString(name)
	if !ok {
		return -1, -1
	}
	return t.Code(), 0
}
