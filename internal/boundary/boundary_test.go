package boundary

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/embedkit/probelink/internal/probe"
	"github.com/embedkit/probelink/internal/probe/sim"
	"github.com/embedkit/probelink/internal/programmer"
)

func newCatalogContext(t *testing.T) *Context {
	t.Helper()
	return New(sim.New(sim.WithCatalog()))
}

// fetch drives one two-phase buffer call to completion.
func fetch(f func([]byte) int) string {
	need := f(nil)
	if need <= 1 {
		return ""
	}
	buf := make([]byte, need)
	f(buf)
	return string(buf[:need-1])
}

func writeImage(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersionBufferProtocol(t *testing.T) {
	c := newCatalogContext(t)

	need := c.VersionString(nil)
	if need != len(Version)+1 {
		t.Fatalf("length query = %d, want %d", need, len(Version)+1)
	}
	if got := fetch(c.VersionString); got != Version {
		t.Errorf("version = %q, want %q", got, Version)
	}

	// A short buffer still terminates and reports the full need.
	short := make([]byte, 3)
	if got := c.VersionString(short); got != need {
		t.Errorf("short-buffer need = %d, want %d", got, need)
	}
	if short[2] != 0 {
		t.Error("short buffer not NUL-terminated")
	}
}

func TestLastErrorPersistsAcrossReads(t *testing.T) {
	c := newCatalogContext(t)
	if got := fetch(c.LastError); got != "" {
		t.Fatalf("fresh context error = %q", got)
	}

	c.setError("boom %d", 42)
	if got := fetch(c.LastError); got != "boom 42" {
		t.Fatalf("error = %q", got)
	}
	// Reading does not clear.
	if got := fetch(c.LastError); got != "boom 42" {
		t.Fatalf("second read = %q", got)
	}
}

func TestProbeDiscovery(t *testing.T) {
	c := newCatalogContext(t)
	if n := c.ProbeCount(); n != 2 {
		t.Fatalf("ProbeCount = %d, want 2", n)
	}

	info, rc := c.ProbeInfoAt(0)
	if rc != 0 {
		t.Fatalf("ProbeInfoAt rc = %d", rc)
	}
	if info.VendorID != 0x0d28 || info.ProductID != 0x0204 {
		t.Errorf("probe 0 = %+v", info)
	}

	if _, rc := c.ProbeInfoAt(99); rc != -1 {
		t.Errorf("out-of-range rc = %d, want -1", rc)
	}
	if got := fetch(c.LastError); !strings.Contains(got, "out of range") {
		t.Errorf("error = %q", got)
	}
}

func TestProbeFeatures(t *testing.T) {
	c := newCatalogContext(t)
	driver, features, rc := c.ProbeFeatures(0)
	if rc != 0 {
		t.Fatalf("rc = %d", rc)
	}
	if driver != programmer.CMSISDAP.DriverFlag() {
		t.Errorf("driver flags = %#x", driver)
	}
	if features&uint32(probe.FeatureSWD) == 0 || features&uint32(probe.FeatureJTAG) == 0 {
		t.Errorf("feature flags = %#x", features)
	}
}

func TestProbeCheckTarget(t *testing.T) {
	c := newCatalogContext(t)
	if rc := c.ProbeCheckTarget(0); rc != 1 {
		t.Errorf("connected probe rc = %d, want 1", rc)
	}

	disconnected := New(sim.New(sim.WithProbe(sim.ProbeConfig{
		Info:     probe.ProbeInfo{VendorID: 1, ProductID: 2, Driver: programmer.CMSISDAP},
		Features: probe.FeatureSWD,
	})))
	if rc := disconnected.ProbeCheckTarget(0); rc != 0 {
		t.Errorf("disconnected probe rc = %d, want 0", rc)
	}
}

// trackingRuntime hands out probes that record how often they are
// released.
type trackingRuntime struct {
	features probe.Feature
	attachOK bool
	detaches int
}

func (r *trackingRuntime) Probes() []probe.ProbeInfo {
	return []probe.ProbeInfo{{Identifier: "tracked", VendorID: 1, ProductID: 2}}
}

func (r *trackingRuntime) Open(probe.ProbeInfo) (probe.Probe, error) {
	return &trackingProbe{rt: r}, nil
}

func (r *trackingRuntime) Families() []probe.Family { return nil }

func (r *trackingRuntime) Target(name string) (probe.Target, error) {
	return probe.Target{}, errors.New("no targets")
}

type trackingProbe struct{ rt *trackingRuntime }

func (p *trackingProbe) Info() probe.ProbeInfo   { return p.rt.Probes()[0] }
func (p *trackingProbe) Features() probe.Feature { return p.rt.features }

func (p *trackingProbe) SelectProtocol(proto probe.Protocol) error {
	switch proto {
	case probe.ProtocolSWD:
		if p.rt.features&probe.FeatureSWD == 0 {
			return errors.New("no SWD support")
		}
	case probe.ProtocolJTAG:
		if p.rt.features&probe.FeatureJTAG == 0 {
			return errors.New("no JTAG support")
		}
	}
	return nil
}

func (p *trackingProbe) SetSpeed(uint32) error { return nil }

func (p *trackingProbe) AttachUnspecified() error {
	if !p.rt.attachOK {
		return errors.New("no target detected")
	}
	return nil
}

func (p *trackingProbe) Detach() error {
	p.rt.detaches++
	return nil
}

func (p *trackingProbe) Attach(string) (probe.Session, error) {
	return nil, errors.New("attach unsupported")
}

func TestProbeCheckTargetReleasesProbe(t *testing.T) {
	cases := []struct {
		name     string
		features probe.Feature
		attachOK bool
		wantRC   int32
	}{
		{"target connected", probe.FeatureSWD, true, 1},
		{"attach fails on every protocol", probe.FeatureSWD | probe.FeatureJTAG, false, 0},
		{"no usable protocol", 0, false, 0},
	}
	for _, tc := range cases {
		rt := &trackingRuntime{features: tc.features, attachOK: tc.attachOK}
		c := New(rt)
		if rc := c.ProbeCheckTarget(0); rc != tc.wantRC {
			t.Errorf("%s: rc = %d, want %d", tc.name, rc, tc.wantRC)
		}
		if rt.detaches != 1 {
			t.Errorf("%s: probe detached %d times, want 1", tc.name, rt.detaches)
		}
	}
}

func TestProgrammerTypeFilter(t *testing.T) {
	c := newCatalogContext(t)

	if rc := c.SetTypeCode(999); rc != -1 {
		t.Fatalf("bad code accepted, rc = %d", rc)
	}
	if got := fetch(c.LastError); !strings.Contains(got, "unsupported programmer type") {
		t.Errorf("error = %q", got)
	}
	if c.TypeCode() != -1 {
		t.Errorf("TypeCode = %d before any filter", c.TypeCode())
	}

	if rc := c.SetTypeCode(programmer.STLink.Code()); rc != 0 {
		t.Fatalf("SetTypeCode rc = %d", rc)
	}
	if c.TypeCode() != programmer.STLink.Code() {
		t.Errorf("TypeCode = %d", c.TypeCode())
	}

	code, rc := c.TypeFromString("wlink")
	if rc != 0 || code != programmer.WCHLink.Code() {
		t.Errorf("TypeFromString(wlink) = (%d, %d)", code, rc)
	}
	if code, rc := c.TypeFromString("segger"); rc != -1 || code != -1 {
		t.Errorf("TypeFromString(segger) = (%d, %d), want (-1, -1)", code, rc)
	}

	if got := fetch(func(dst []byte) int { return c.TypeName(programmer.JLink.Code(), dst) }); got != "jlink" {
		t.Errorf("TypeName = %q", got)
	}
	if got := fetch(func(dst []byte) int { return c.TypeName(999, dst) }); got != "" {
		t.Errorf("unknown TypeName = %q", got)
	}
}

func TestFilterNarrowsSessionOpen(t *testing.T) {
	c := newCatalogContext(t)
	c.SetTypeCode(programmer.STLink.Code())

	// The CMSIS-DAP probe no longer qualifies even when selected
	// explicitly.
	if h := c.SessionOpenWithProbe("0d28:0204", "STM32F407VGTx", 0, 0); h != 0 {
		t.Fatalf("mismatching probe produced handle %d", h)
	}
	if got := fetch(c.LastError); got != "programmer type mismatch" {
		t.Errorf("error = %q", got)
	}

	// Without a selector the filter alone decides.
	c.SetTypeCode(programmer.JLink.Code())
	if h := c.SessionOpenAuto("STM32F407VGTx", 0, 0); h != 0 {
		t.Fatal("handle issued with no matching probe")
	}
	if got := fetch(c.LastError); got != "no probe matching programmer type" {
		t.Errorf("error = %q", got)
	}
}

func TestSessionOpenErrors(t *testing.T) {
	c := newCatalogContext(t)

	if h := c.SessionOpenAuto("not_a_real_chip", 0, 0); h != 0 {
		t.Fatalf("unknown chip produced handle %d", h)
	}
	if got := fetch(c.LastError); got == "" || !strings.Contains(got, "attach error") {
		t.Errorf("error = %q", got)
	}

	if h := c.SessionOpenWithProbe("garbage", "STM32F407VGTx", 0, 0); h != 0 {
		t.Fatal("bad selector produced a handle")
	}
	if got := fetch(c.LastError); !strings.Contains(got, "selector parse error") {
		t.Errorf("error = %q", got)
	}

	if h := c.SessionOpenWithProbe("ffff:ffff", "STM32F407VGTx", 0, 0); h != 0 {
		t.Fatal("absent probe produced a handle")
	}
	if got := fetch(c.LastError); got != "probe not found" {
		t.Errorf("error = %q", got)
	}
}

func TestSessionLifecycle(t *testing.T) {
	c := newCatalogContext(t)

	h := c.SessionOpenAuto("STM32F407VGTx", 4000, 1)
	if h == 0 {
		t.Fatalf("open failed: %s", fetch(c.LastError))
	}
	if n := c.CoreCount(h); n != 1 {
		t.Errorf("CoreCount = %d, want 1", n)
	}

	if rc := c.CoreHalt(h, 0, 100); rc != 0 {
		t.Fatalf("CoreHalt rc = %d: %s", rc, fetch(c.LastError))
	}
	if st := c.CoreStatus(h, 0); st != 1 {
		t.Errorf("CoreStatus = %d, want 1 (halted)", st)
	}
	if rc := c.CoreRun(h, 0); rc != 0 {
		t.Fatalf("CoreRun rc = %d", rc)
	}
	if st := c.CoreStatus(h, 0); st != 2 {
		t.Errorf("CoreStatus = %d, want 2 (running)", st)
	}

	// Stepping a running core is an operation failure, not a handle
	// failure.
	if rc := c.CoreStep(h, 0); rc != -2 {
		t.Errorf("CoreStep on running core rc = %d, want -2", rc)
	}
	if got := fetch(c.LastError); !strings.Contains(got, "step error") {
		t.Errorf("error = %q", got)
	}

	if rc := c.SessionClose(h); rc != 0 {
		t.Fatalf("SessionClose rc = %d", rc)
	}
	if rc := c.SessionClose(h); rc != -1 {
		t.Errorf("double close rc = %d, want -1", rc)
	}
	if rc := c.CoreHalt(h, 0, 100); rc != -1 {
		t.Errorf("CoreHalt after close rc = %d, want -1", rc)
	}
	if n := c.CoreCount(h); n != 0 {
		t.Errorf("CoreCount after close = %d, want 0", n)
	}
}

func TestInvalidCoreIndex(t *testing.T) {
	c := newCatalogContext(t)
	h := c.SessionOpenAuto("STM32F407VGTx", 0, 0)
	if h == 0 {
		t.Fatal("open failed")
	}
	defer c.SessionClose(h)

	if rc := c.CoreHalt(h, 7, 100); rc != -1 {
		t.Errorf("bad core index rc = %d, want -1", rc)
	}
	if got := fetch(c.LastError); !strings.Contains(got, "core access error") {
		t.Errorf("error = %q", got)
	}
}

func TestMemoryAccessThroughBoundary(t *testing.T) {
	c := newCatalogContext(t)
	h := c.SessionOpenAuto("STM32F407VGTx", 0, 0)
	if h == 0 {
		t.Fatal("open failed")
	}
	defer c.SessionClose(h)

	data := []byte{1, 2, 3, 4}
	if rc := c.Write8(h, 0, 0x2000_0000, data); rc != 0 {
		t.Fatalf("Write8 rc = %d: %s", rc, fetch(c.LastError))
	}
	got := make([]byte, 4)
	if rc := c.Read8(h, 0, 0x2000_0000, got); rc != 0 {
		t.Fatalf("Read8 rc = %d", rc)
	}
	if string(got) != string(data) {
		t.Errorf("read back %v, want %v", got, data)
	}

	words := []uint32{0xcafebabe}
	if rc := c.Write32(h, 0, 0x2000_0010, words); rc != 0 {
		t.Fatalf("Write32 rc = %d", rc)
	}
	gotW := make([]uint32, 1)
	if rc := c.Read32(h, 0, 0x2000_0010, gotW); rc != 0 {
		t.Fatalf("Read32 rc = %d", rc)
	}
	if gotW[0] != words[0] {
		t.Errorf("read back %#x, want %#x", gotW[0], words[0])
	}

	if rc := c.Read8(h, 0, 0x2000_0000, nil); rc != -1 {
		t.Errorf("nil buffer rc = %d, want -1", rc)
	}
	if got := fetch(c.LastError); got != "buf is null" {
		t.Errorf("error = %q", got)
	}
	if rc := c.Read8(h, 0, 0xdead_0000, got); rc != -2 {
		t.Errorf("unmapped read rc = %d, want -2", rc)
	}
}

func TestRegistersThroughBoundary(t *testing.T) {
	c := newCatalogContext(t)
	h := c.SessionOpenAuto("STM32F407VGTx", 0, 0)
	if h == 0 {
		t.Fatal("open failed")
	}
	defer c.SessionClose(h)

	n := c.RegistersCount(h, 0)
	if n != 17 {
		t.Fatalf("RegistersCount = %d, want 17", n)
	}

	name := make([]byte, 16)
	id, bits, rc := c.RegisterInfoAt(h, 0, 0, name)
	if rc != 0 {
		t.Fatalf("RegisterInfoAt rc = %d", rc)
	}
	if id != 0 || bits != 32 {
		t.Errorf("register 0 = id %d, %d bits", id, bits)
	}
	if got := string(name[:2]); got != "R0" {
		t.Errorf("register 0 name = %q", got)
	}

	badID, badBits, rc := c.RegisterInfoAt(h, 0, 99, name)
	if rc != -1 {
		t.Errorf("out-of-range register rc = %d, want -1", rc)
	}
	if badID != 0 || badBits != 0 {
		t.Errorf("out-of-range register outputs = (%d, %d), want zeroed", badID, badBits)
	}
	if got := fetch(c.LastError); !strings.Contains(got, "reg index out of range") {
		t.Errorf("error = %q", got)
	}

	if rc := c.WriteRegU64(h, 0, 3, 0x1234); rc != 0 {
		t.Fatalf("WriteRegU64 rc = %d", rc)
	}
	v, rc := c.ReadRegU64(h, 0, 3)
	if rc != 0 || v != 0x1234 {
		t.Errorf("ReadRegU64 = (%#x, %d)", v, rc)
	}
}

func TestBreakpointsThroughBoundary(t *testing.T) {
	c := newCatalogContext(t)
	h := c.SessionOpenAuto("STM32F407VGTx", 0, 0)
	if h == 0 {
		t.Fatal("open failed")
	}
	defer c.SessionClose(h)

	units, rc := c.AvailableBreakpointUnits(h, 0)
	if rc != 0 || units == 0 {
		t.Fatalf("AvailableBreakpointUnits = (%d, %d)", units, rc)
	}
	if rc := c.SetHWBreakpoint(h, 0, 0x0800_0100); rc != 0 {
		t.Fatalf("SetHWBreakpoint rc = %d", rc)
	}
	after, _ := c.AvailableBreakpointUnits(h, 0)
	if after != units-1 {
		t.Errorf("units after set = %d, want %d", after, units-1)
	}
	if rc := c.ClearHWBreakpoint(h, 0, 0x0800_0100); rc != 0 {
		t.Errorf("ClearHWBreakpoint rc = %d", rc)
	}
	if rc := c.ClearAllHWBreakpoints(h); rc != 0 {
		t.Errorf("ClearAllHWBreakpoints rc = %d", rc)
	}
	if rc := c.ClearAllHWBreakpoints(12345); rc != -1 {
		t.Errorf("unknown handle rc = %d, want -1", rc)
	}
}

func TestFlashAutoFormats(t *testing.T) {
	c := newCatalogContext(t)

	elf := writeImage(t, "firmware.elf", 2048)
	if rc := c.FlashAuto("STM32F407VGTx", elf, 0, 0, FlashOptions{}); rc != 0 {
		t.Fatalf("elf flash rc = %d: %s", rc, fetch(c.LastError))
	}

	bin := writeImage(t, "image.bin", 1024)
	if rc := c.FlashAuto("STM32F407VGTx", bin, 0, 0, FlashOptions{}); rc != 1 {
		t.Fatalf("bin without base rc = %d, want 1", rc)
	}
	if got := fetch(c.LastError); !strings.Contains(got, "base address required") {
		t.Errorf("error = %q", got)
	}
	if rc := c.FlashAuto("STM32F407VGTx", bin, 0x0800_0000, 0, FlashOptions{}); rc != 0 {
		t.Fatalf("bin with base rc = %d: %s", rc, fetch(c.LastError))
	}

	exe := writeImage(t, "firmware.exe", 16)
	if rc := c.FlashAuto("STM32F407VGTx", exe, 0, 0, FlashOptions{}); rc != 1 {
		t.Fatalf("unknown extension rc = %d, want 1", rc)
	}
	if got := fetch(c.LastError); !strings.Contains(got, "unsupported file format") {
		t.Errorf("error = %q", got)
	}
}

func TestFlashErrorCodes(t *testing.T) {
	c := newCatalogContext(t)

	// Unknown chip fails at attach, before any flashing starts.
	elf := writeImage(t, "firmware.elf", 128)
	if rc := c.FlashELF("not_a_real_chip", elf, FlashOptions{}); rc != 1 {
		t.Fatalf("unknown chip rc = %d, want 1", rc)
	}
	if got := fetch(c.LastError); !strings.Contains(got, "attach error") {
		t.Errorf("error = %q", got)
	}

	// A missing image passes probe resolution and fails downloading.
	if rc := c.FlashELF("STM32F407VGTx", "no_such_file.elf", FlashOptions{}); rc != 2 {
		t.Fatalf("missing image rc = %d, want 2", rc)
	}
	if got := fetch(c.LastError); !strings.Contains(got, "flash error") {
		t.Errorf("error = %q", got)
	}
}

func TestFlashProgressCallback(t *testing.T) {
	c := newCatalogContext(t)

	type call struct {
		op      probe.Operation
		percent float32
		status  string
	}
	var calls []call
	c.SetProgressCallback(func(op probe.Operation, percent float32, status string, etaMS int32) {
		calls = append(calls, call{op, percent, status})
	})
	defer c.ClearProgressCallback()

	elf := writeImage(t, "firmware.elf", 4096)
	if rc := c.FlashELF("STM32F407VGTx", elf, FlashOptions{Verify: true}); rc != 0 {
		t.Fatalf("flash rc = %d: %s", rc, fetch(c.LastError))
	}
	if len(calls) == 0 {
		t.Fatal("no progress notifications")
	}

	// Each exercised operation reaches exactly one 100%.
	hundreds := map[probe.Operation]int{}
	statuses := map[string]bool{}
	for _, cl := range calls {
		if cl.percent >= 100 {
			hundreds[cl.op]++
		}
		statuses[cl.status] = true
	}
	for _, op := range []probe.Operation{probe.OpErase, probe.OpProgram, probe.OpVerify} {
		if hundreds[op] != 1 {
			t.Errorf("op %v reached 100%% %d times, want 1", op, hundreds[op])
		}
	}
	for _, want := range []string{"erasing", "programming", "verifying"} {
		if !statuses[want] {
			t.Errorf("status %q never reported", want)
		}
	}

	// Cleared callback means no notifications.
	c.ClearProgressCallback()
	before := len(calls)
	if rc := c.FlashELF("STM32F407VGTx", elf, FlashOptions{}); rc != 0 {
		t.Fatalf("second flash rc = %d", rc)
	}
	if len(calls) != before {
		t.Error("notifications delivered after ClearProgressCallback")
	}
}

func TestChipErase(t *testing.T) {
	c := newCatalogContext(t)
	if rc := c.ChipErase("STM32F407VGTx", 0, 0); rc != 0 {
		t.Fatalf("ChipErase rc = %d: %s", rc, fetch(c.LastError))
	}
	if rc := c.ChipErase("not_a_real_chip", 0, 0); rc != -1 {
		t.Errorf("unknown chip rc = %d, want -1", rc)
	}
}

func TestChipDatabaseQueries(t *testing.T) {
	c := newCatalogContext(t)

	n := c.ManufacturerCount()
	if n != 4 {
		t.Fatalf("ManufacturerCount = %d, want 4", n)
	}

	found := false
	for i := uint32(0); i < n; i++ {
		name := fetch(func(dst []byte) int { return c.ManufacturerName(i, dst) })
		if name == "STMicroelectronics" {
			found = true
			chips := c.ModelCount(i)
			if chips != 4 {
				t.Errorf("STMicroelectronics chips = %d, want 4", chips)
			}
			first := fetch(func(dst []byte) int { return c.ModelName(i, 0, dst) })
			if first != "STM32F405RGTx" {
				t.Errorf("first chip = %q", first)
			}
			raw := fetch(func(dst []byte) int { return c.ModelSpecs(i, 0, dst) })
			var s map[string]any
			if err := json.Unmarshal([]byte(raw), &s); err != nil {
				t.Fatalf("spec is not valid JSON: %v", err)
			}
			if s["chip"] != "STM32F405RGTx" {
				t.Errorf("spec chip = %v", s["chip"])
			}
		}
	}
	if !found {
		t.Fatal("STMicroelectronics bucket missing")
	}

	if need := c.ManufacturerName(99, nil); need != 0 {
		t.Errorf("bad index need = %d, want 0", need)
	}
	if got := fetch(c.LastError); !strings.Contains(got, "out of range") {
		t.Errorf("error = %q", got)
	}

	raw := fetch(func(dst []byte) int { return c.SpecsByName("nRF52840_xxAA", dst) })
	if !strings.Contains(raw, "nRF52840_xxAA") {
		t.Errorf("SpecsByName = %q", raw)
	}
	if need := c.SpecsByName("not_a_real_chip", nil); need != 0 {
		t.Errorf("unknown chip need = %d, want 0", need)
	}
}
