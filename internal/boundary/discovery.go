package boundary

import (
	"errors"
	"fmt"

	"github.com/embedkit/probelink/internal/probe"
	"github.com/embedkit/probelink/internal/programmer"
)

// ProbeCount enumerates currently visible probes.
func (c *Context) ProbeCount() uint32 {
	return uint32(len(c.rt.Probes()))
}

// ProbeInfoAt returns the probe description at index, or rc -1 with
// the error slot set.
func (c *Context) ProbeInfoAt(index uint32) (probe.ProbeInfo, int32) {
	infos := c.rt.Probes()
	if int(index) >= len(infos) {
		c.setError("probe index out of range")
		return probe.ProbeInfo{}, -1
	}
	return infos[index], 0
}

// ProbeFeatures opens the probe at index and reports its driver-family
// bit and capability bits.
func (c *Context) ProbeFeatures(index uint32) (driverFlags, featureFlags uint32, rc int32) {
	infos := c.rt.Probes()
	if int(index) >= len(infos) {
		c.setError("probe index out of range")
		return 0, 0, -1
	}
	info := infos[index]
	p, err := c.rt.Open(info)
	if err != nil {
		c.setError("open probe error: %v", err)
		return 0, 0, -1
	}
	defer p.Detach()
	return info.Driver.DriverFlag(), uint32(p.Features()), 0
}

// ProbeCheckTarget reports whether a target responds behind the probe
// at index: 1 connected, 0 not reachable, -1 probe error. Both wire
// protocols are tried.
func (c *Context) ProbeCheckTarget(index uint32) int32 {
	infos := c.rt.Probes()
	if int(index) >= len(infos) {
		c.setError("probe index out of range")
		return -1
	}
	p, err := c.rt.Open(infos[index])
	if err != nil {
		c.setError("open probe error: %v", err)
		return -1
	}
	defer p.Detach()

	var lastErr error
	for _, proto := range []probe.Protocol{probe.ProtocolSWD, probe.ProtocolJTAG} {
		if err := p.SelectProtocol(proto); err != nil {
			continue
		}
		if err := p.AttachUnspecified(); err != nil {
			lastErr = err
			continue
		}
		return 1
	}
	if lastErr != nil {
		c.setError("attach failed: %v", lastErr)
	}
	return 0
}

// resolveProbe is the single probe-selection routine: an explicit
// selector narrows the candidate list first, the active programmer
// type second, then the first remaining probe is opened and the
// protocol and speed settings applied.
func (c *Context) resolveProbe(sel *probe.Selector, proto probe.Protocol, speedKHz uint32) (probe.Probe, error) {
	infos := c.rt.Probes()

	if sel != nil {
		infos = filterInfos(infos, sel.Matches)
		if len(infos) == 0 {
			return nil, errors.New("probe not found")
		}
	}
	if t := c.ActiveType(); t != programmer.TypeUnset {
		infos = filterInfos(infos, func(i probe.ProbeInfo) bool { return i.Driver == t })
		if len(infos) == 0 {
			if sel != nil {
				return nil, errors.New("programmer type mismatch")
			}
			return nil, errors.New("no probe matching programmer type")
		}
	}
	if len(infos) == 0 {
		return nil, errors.New("no matching probes found")
	}

	p, err := c.rt.Open(infos[0])
	if err != nil {
		return nil, fmt.Errorf("open probe error: %w", err)
	}
	if proto != probe.ProtocolAuto {
		if err := p.SelectProtocol(proto); err != nil {
			p.Detach()
			return nil, fmt.Errorf("select protocol error: %w", err)
		}
	}
	if speedKHz > 0 {
		if err := p.SetSpeed(speedKHz); err != nil {
			p.Detach()
			return nil, fmt.Errorf("set speed error: %w", err)
		}
	}
	return p, nil
}

func filterInfos(infos []probe.ProbeInfo, keep func(probe.ProbeInfo) bool) []probe.ProbeInfo {
	out := infos[:0:0]
	for _, i := range infos {
		if keep(i) {
			out = append(out, i)
		}
	}
	return out
}
