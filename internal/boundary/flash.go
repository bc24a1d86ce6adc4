package boundary

import (
	"context"

	"github.com/embedkit/probelink/internal/flash"
	"github.com/embedkit/probelink/internal/probe"
	"github.com/embedkit/probelink/internal/progress"
)

// FlashOptions carries the per-call download settings shared by every
// flash entry point.
type FlashOptions struct {
	Verify    bool
	Preverify bool
	ChipErase bool
	SpeedKHz  uint32
	Protocol  int32
}

// SetProgressCallback installs the single progress sink for
// subsequent flash calls. The callback runs synchronously on the
// flashing call's goroutine and must not call back into the boundary.
func (c *Context) SetProgressCallback(fn progress.NotifyFunc) {
	c.cbMu.Lock()
	c.notify = fn
	c.cbMu.Unlock()
}

// ClearProgressCallback removes the progress sink.
func (c *Context) ClearProgressCallback() {
	c.SetProgressCallback(nil)
}

func (c *Context) progressSink() progress.NotifyFunc {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	return c.notify
}

// FlashELF programs an ELF image; load addresses come from the image.
func (c *Context) FlashELF(chip, path string, o FlashOptions) int32 {
	return c.doFlash(chip, path, probe.Format{Kind: probe.FormatELF}, o)
}

// FlashHex programs an Intel HEX image.
func (c *Context) FlashHex(chip, path string, o FlashOptions) int32 {
	return c.doFlash(chip, path, probe.Format{Kind: probe.FormatHex}, o)
}

// FlashBin programs a raw binary at base, skipping the first skip
// bytes of the file.
func (c *Context) FlashBin(chip, path string, base uint64, skip uint32, o FlashOptions) int32 {
	f := probe.Format{
		Kind: probe.FormatBin,
		Bin:  probe.BinOptions{BaseAddress: base, Skip: skip},
	}
	return c.doFlash(chip, path, f, o)
}

// FlashAuto sniffs the image format from the file extension. A base
// of 0 counts as "not provided", so raw binaries fail without an
// explicit base address.
func (c *Context) FlashAuto(chip, path string, base uint64, skip uint32, o FlashOptions) int32 {
	f, err := flash.Detect(path, base, skip)
	if err != nil {
		c.setError("%v", err)
		return 1
	}
	return c.doFlash(chip, path, f, o)
}

func (c *Context) doFlash(chip, path string, format probe.Format, o FlashOptions) int32 {
	opts := probe.DownloadOptions{
		Verify:    o.Verify,
		Preverify: o.Preverify,
		ChipErase: o.ChipErase,
	}
	if sink := c.progressSink(); sink != nil {
		opts.Progress = progress.NewAggregator(sink).Handle
	}

	p, err := c.resolveProbe(nil, probe.ProtocolFromCode(o.Protocol), o.SpeedKHz)
	if err != nil {
		c.setError("%v", err)
		return 1
	}
	sess, err := p.Attach(chip)
	if err != nil {
		c.setError("attach error: %v", err)
		return 1
	}
	defer sess.Close()

	c.logInfo("flash started", "chip", chip, "path", path)
	if err := sess.Download(context.Background(), path, format, opts); err != nil {
		c.setError("flash error: %v", err)
		return 2
	}
	c.logInfo("flash complete", "chip", chip, "path", path)
	return 0
}

// ChipErase mass-erases the named chip's non-volatile memory.
func (c *Context) ChipErase(chip string, speedKHz uint32, protocolCode int32) int32 {
	p, err := c.resolveProbe(nil, probe.ProtocolFromCode(protocolCode), speedKHz)
	if err != nil {
		c.setError("%v", err)
		return -1
	}
	sess, err := p.Attach(chip)
	if err != nil {
		c.setError("attach error: %v", err)
		return -1
	}
	defer sess.Close()

	if err := sess.EraseAll(context.Background(), nil); err != nil {
		c.setError("%v", err)
		return -1
	}
	return 0
}
