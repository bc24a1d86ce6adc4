// Package boundary implements the semantics of the C-callable surface
// on plain Go types: the process-wide error slot, the session handle
// registry, the lazily built chip database, the programmer-type filter
// and flash orchestration. The cgo layer in cmd/libprobelink is a thin
// marshaling shim over one Context.
package boundary

import (
	"fmt"
	"sync"

	"github.com/embedkit/probelink/internal/cbuf"
	"github.com/embedkit/probelink/internal/chipdb"
	"github.com/embedkit/probelink/internal/handles"
	"github.com/embedkit/probelink/internal/probe"
	"github.com/embedkit/probelink/internal/programmer"
	"github.com/embedkit/probelink/internal/progress"
)

// Version is reported through the version boundary call.
const Version = "0.3.0"

// Logger is an optional structured logging sink. Integrators adapt
// their own logging framework; a nil logger disables logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Context owns all state the boundary exposes. Hosting applications
// typically hold exactly one, but contexts are independent and several
// can coexist in-process.
type Context struct {
	rt       probe.Runtime
	log      Logger
	sessions *handles.Registry

	errMu   sync.Mutex
	lastErr string

	typeMu     sync.Mutex
	activeType programmer.Type

	cbMu   sync.Mutex
	notify progress.NotifyFunc

	dbOnce sync.Once
	db     *chipdb.DB
}

// Option configures a Context.
type Option func(*Context)

// WithLogger installs a logging sink.
func WithLogger(l Logger) Option {
	return func(c *Context) { c.log = l }
}

// New creates a boundary context over the given runtime.
func New(rt probe.Runtime, opts ...Option) *Context {
	if rt == nil {
		panic("runtime cannot be nil")
	}
	c := &Context{rt: rt, sessions: handles.NewRegistry()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// setError overwrites the error slot. Every failing operation across
// the boundary funnels through here.
func (c *Context) setError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.errMu.Lock()
	c.lastErr = msg
	c.errMu.Unlock()
	c.logError(msg)
}

// LastError fills dst with the most recent error message per the
// two-phase buffer protocol and returns the required size. Reading
// does not clear the slot.
func (c *Context) LastError(dst []byte) int {
	c.errMu.Lock()
	msg := c.lastErr
	c.errMu.Unlock()
	return cbuf.Fill(dst, msg)
}

// VersionString fills dst with the library version.
func (c *Context) VersionString(dst []byte) int {
	return cbuf.Fill(dst, Version)
}

func (c *Context) logDebug(msg string, kv ...any) {
	if c.log != nil {
		c.log.Debug(msg, kv...)
	}
}

func (c *Context) logInfo(msg string, kv ...any) {
	if c.log != nil {
		c.log.Info(msg, kv...)
	}
}

func (c *Context) logError(msg string, kv ...any) {
	if c.log != nil {
		c.log.Error(msg, kv...)
	}
}
