// Package sim is an in-memory probe.Runtime: virtual probes and a
// built-in target catalog with scripted flash progress streams.
//
// It backs the package tests and is the runtime wired into library
// builds that link no hardware driver stack. Real driver integrations
// replace it by implementing probe.Runtime.
package sim

import (
	"fmt"
	"sync"

	"github.com/embedkit/probelink/internal/probe"
)

// ProbeConfig describes one virtual probe.
type ProbeConfig struct {
	Info            probe.ProbeInfo
	Features        probe.Feature
	TargetConnected bool // AttachUnspecified succeeds
	OpenErr         error
	AttachErr       error
}

// Runtime implements probe.Runtime over static configuration.
type Runtime struct {
	mu       sync.Mutex
	probes   []ProbeConfig
	families []probe.Family
	targets  map[string]probe.Target
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithProbe adds a virtual probe.
func WithProbe(cfg ProbeConfig) Option {
	return func(rt *Runtime) { rt.probes = append(rt.probes, cfg) }
}

// WithFamily adds a target family to the registry.
func WithFamily(fam probe.Family) Option {
	return func(rt *Runtime) { rt.families = append(rt.families, fam) }
}

// WithTarget adds a target description, resolvable by name.
func WithTarget(t probe.Target) Option {
	return func(rt *Runtime) { rt.targets[t.Name] = t }
}

// New builds a Runtime from the given options.
func New(opts ...Option) *Runtime {
	rt := &Runtime{targets: make(map[string]probe.Target)}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Runtime) Probes() []probe.ProbeInfo {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	infos := make([]probe.ProbeInfo, 0, len(rt.probes))
	for _, p := range rt.probes {
		infos = append(infos, p.Info)
	}
	return infos
}

func (rt *Runtime) Open(info probe.ProbeInfo) (probe.Probe, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for _, cfg := range rt.probes {
		if cfg.Info.VendorID == info.VendorID &&
			cfg.Info.ProductID == info.ProductID &&
			cfg.Info.Serial == info.Serial {
			if cfg.OpenErr != nil {
				return nil, cfg.OpenErr
			}
			return &simProbe{rt: rt, cfg: cfg}, nil
		}
	}
	return nil, fmt.Errorf("probe %04x:%04x not present", info.VendorID, info.ProductID)
}

func (rt *Runtime) Families() []probe.Family {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.families
}

func (rt *Runtime) Target(name string) (probe.Target, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	t, ok := rt.targets[name]
	if !ok {
		return probe.Target{}, fmt.Errorf("target %q not found in registry", name)
	}
	return t, nil
}

type simProbe struct {
	rt       *Runtime
	cfg      ProbeConfig
	protocol probe.Protocol
	speedKHz uint32
	attached bool
}

func (p *simProbe) Info() probe.ProbeInfo   { return p.cfg.Info }
func (p *simProbe) Features() probe.Feature { return p.cfg.Features }

func (p *simProbe) SelectProtocol(proto probe.Protocol) error {
	switch proto {
	case probe.ProtocolSWD:
		if p.cfg.Features&probe.FeatureSWD == 0 {
			return fmt.Errorf("probe does not support SWD")
		}
	case probe.ProtocolJTAG:
		if p.cfg.Features&probe.FeatureJTAG == 0 {
			return fmt.Errorf("probe does not support JTAG")
		}
	}
	p.protocol = proto
	return nil
}

func (p *simProbe) SetSpeed(khz uint32) error {
	if p.cfg.Features&probe.FeatureSpeedControl == 0 {
		return fmt.Errorf("probe has fixed speed")
	}
	p.speedKHz = khz
	return nil
}

func (p *simProbe) AttachUnspecified() error {
	if !p.cfg.TargetConnected {
		return fmt.Errorf("no target detected on debug port")
	}
	p.attached = true
	return nil
}

func (p *simProbe) Detach() error {
	p.attached = false
	return nil
}

func (p *simProbe) Attach(target string) (probe.Session, error) {
	if p.cfg.AttachErr != nil {
		return nil, p.cfg.AttachErr
	}
	t, err := p.rt.Target(target)
	if err != nil {
		return nil, err
	}
	return newSession(t), nil
}
