package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SpeedKHz != 4000 {
		t.Errorf("SpeedKHz = %d, want 4000", cfg.SpeedKHz)
	}
	if cfg.Chip != "" || cfg.Library != "" {
		t.Errorf("unexpected non-zero fields: %+v", cfg)
	}
}

func TestLoadFullFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
library: /opt/probelink/libprobelink.so
chip: STM32F407VGTx
probe: "0483:374e"
protocol: swd
speed_khz: 1800
programmer_type: stlink
verify: true
chip_erase: false
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Library != "/opt/probelink/libprobelink.so" {
		t.Errorf("Library = %q", cfg.Library)
	}
	if cfg.Chip != "STM32F407VGTx" || cfg.Probe != "0483:374e" {
		t.Errorf("target fields = %q / %q", cfg.Chip, cfg.Probe)
	}
	if cfg.Protocol != "swd" || cfg.SpeedKHz != 1800 || cfg.ProgrammerType != "stlink" {
		t.Errorf("link fields = %q / %d / %q", cfg.Protocol, cfg.SpeedKHz, cfg.ProgrammerType)
	}
	if cfg.Verify == nil || !*cfg.Verify {
		t.Error("Verify not set true")
	}
	if cfg.ChipErase == nil || *cfg.ChipErase {
		t.Error("ChipErase not set false")
	}
	if cfg.Preverify != nil {
		t.Error("Preverify should stay unset")
	}
}

func TestLoadZeroSpeedFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("chip: nRF52840_xxAA\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SpeedKHz != 4000 {
		t.Errorf("SpeedKHz = %d, want default 4000", cfg.SpeedKHz)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("chip: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ParseError", err)
	}
	if pe.Path != path {
		t.Errorf("ParseError path = %q", pe.Path)
	}
}
