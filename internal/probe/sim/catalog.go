package sim

import (
	"github.com/embedkit/probelink/internal/probe"
	"github.com/embedkit/probelink/internal/programmer"
)

// WithCatalog seeds the runtime with a small representative target
// registry and two virtual probes, enough for the chip database and
// the session paths to be exercised without hardware.
func WithCatalog() Option {
	return func(rt *Runtime) {
		for _, opt := range catalog() {
			opt(rt)
		}
	}
}

func catalog() []Option {
	st := &probe.ManufacturerCode{CC: 0, ID: 0x20, Name: "STMicroelectronics"}
	nordic := &probe.ManufacturerCode{CC: 2, ID: 0x44, Name: "Nordic Semiconductor"}
	espressif := &probe.ManufacturerCode{CC: 9, ID: 0x12, Name: "Espressif Systems"}

	return []Option{
		WithFamily(probe.Family{
			Name: "STM32F4 Series", Manufacturer: st,
			Targets: []string{"STM32F407VGTx", "STM32F405RGTx", "STM32F429ZITx"},
		}),
		WithFamily(probe.Family{
			Name: "STM32L4 Series", Manufacturer: st,
			Targets: []string{"STM32L476RGTx"},
		}),
		WithFamily(probe.Family{
			Name: "nRF52 Series", Manufacturer: nordic,
			Targets: []string{"nRF52840_xxAA", "nRF52832_xxAA"},
		}),
		WithFamily(probe.Family{
			Name: "ESP32 Series", Manufacturer: espressif,
			Targets: []string{"ESP32-C3", "ESP32-S3"},
		}),
		WithFamily(probe.Family{
			Name:    "Generic ARMv7-M",
			Targets: []string{"armv7m-generic"},
		}),

		WithTarget(probe.Target{
			Name:         "STM32F407VGTx",
			Architecture: "Arm",
			Cores:        []probe.CoreDesc{{Name: "main", Type: "Armv7em"}},
			MemoryMap: []probe.MemoryRegion{
				{Kind: probe.RegionNVM, Start: 0x0800_0000, End: 0x0810_0000},
				{Kind: probe.RegionRAM, Start: 0x2000_0000, End: 0x2002_0000},
				{Kind: probe.RegionRAM, Start: 0x1000_0000, End: 0x1001_0000},
			},
			FlashAlgorithms: []string{"stm32f4xx_1mb"},
			DefaultFormat:   "elf",
		}),
		WithTarget(probe.Target{
			Name:         "STM32F405RGTx",
			Architecture: "Arm",
			Cores:        []probe.CoreDesc{{Name: "main", Type: "Armv7em"}},
			MemoryMap: []probe.MemoryRegion{
				{Kind: probe.RegionNVM, Start: 0x0800_0000, End: 0x0810_0000},
				{Kind: probe.RegionRAM, Start: 0x2000_0000, End: 0x2002_0000},
			},
			FlashAlgorithms: []string{"stm32f4xx_1mb"},
			DefaultFormat:   "elf",
		}),
		WithTarget(probe.Target{
			Name:         "STM32F429ZITx",
			Architecture: "Arm",
			Cores:        []probe.CoreDesc{{Name: "main", Type: "Armv7em"}},
			MemoryMap: []probe.MemoryRegion{
				{Kind: probe.RegionNVM, Start: 0x0800_0000, End: 0x0820_0000},
				{Kind: probe.RegionRAM, Start: 0x2000_0000, End: 0x2003_0000},
			},
			FlashAlgorithms: []string{"stm32f4xx_2mb"},
			DefaultFormat:   "elf",
		}),
		WithTarget(probe.Target{
			Name:         "STM32L476RGTx",
			Architecture: "Arm",
			Cores:        []probe.CoreDesc{{Name: "main", Type: "Armv7em"}},
			MemoryMap: []probe.MemoryRegion{
				{Kind: probe.RegionNVM, Start: 0x0800_0000, End: 0x0810_0000},
				{Kind: probe.RegionRAM, Start: 0x2000_0000, End: 0x2001_8000},
			},
			FlashAlgorithms: []string{"stm32l4xx_1mb"},
			DefaultFormat:   "elf",
		}),
		WithTarget(probe.Target{
			Name:         "nRF52840_xxAA",
			Architecture: "Arm",
			Cores:        []probe.CoreDesc{{Name: "main", Type: "Armv7em"}},
			MemoryMap: []probe.MemoryRegion{
				{Kind: probe.RegionNVM, Start: 0x0000_0000, End: 0x0010_0000},
				{Kind: probe.RegionRAM, Start: 0x2000_0000, End: 0x2004_0000},
			},
			FlashAlgorithms: []string{"nrf52_k256"},
			DefaultFormat:   "hex",
		}),
		WithTarget(probe.Target{
			Name:         "nRF52832_xxAA",
			Architecture: "Arm",
			Cores:        []probe.CoreDesc{{Name: "main", Type: "Armv7em"}},
			MemoryMap: []probe.MemoryRegion{
				{Kind: probe.RegionNVM, Start: 0x0000_0000, End: 0x0008_0000},
				{Kind: probe.RegionRAM, Start: 0x2000_0000, End: 0x2001_0000},
			},
			FlashAlgorithms: []string{"nrf52_k256"},
			DefaultFormat:   "hex",
		}),
		WithTarget(probe.Target{
			Name:         "ESP32-C3",
			Architecture: "Riscv",
			Cores:        []probe.CoreDesc{{Name: "cpu0", Type: "Riscv32"}},
			MemoryMap: []probe.MemoryRegion{
				{Kind: probe.RegionNVM, Start: 0x0000_0000, End: 0x0040_0000},
				{Kind: probe.RegionRAM, Start: 0x3FC8_0000, End: 0x3FCE_0000},
			},
			FlashAlgorithms: []string{"esp32c3_flasher"},
			DefaultFormat:   "bin",
		}),
		WithTarget(probe.Target{
			Name:         "ESP32-S3",
			Architecture: "Xtensa",
			Cores: []probe.CoreDesc{
				{Name: "cpu0", Type: "Xtensa"},
				{Name: "cpu1", Type: "Xtensa"},
			},
			MemoryMap: []probe.MemoryRegion{
				{Kind: probe.RegionNVM, Start: 0x0000_0000, End: 0x0080_0000},
				{Kind: probe.RegionRAM, Start: 0x3FC8_8000, End: 0x3FD0_0000},
			},
			FlashAlgorithms: []string{"esp32s3_flasher"},
			DefaultFormat:   "bin",
		}),
		WithTarget(probe.Target{
			Name:         "armv7m-generic",
			Architecture: "Arm",
			Cores:        []probe.CoreDesc{{Name: "main", Type: "Armv7m"}},
			MemoryMap: []probe.MemoryRegion{
				{Kind: probe.RegionNVM, Start: 0x0000_0000, End: 0x0010_0000},
				{Kind: probe.RegionRAM, Start: 0x2000_0000, End: 0x2010_0000},
			},
		}),

		WithProbe(ProbeConfig{
			Info: probe.ProbeInfo{
				Identifier: "CMSIS-DAP v2 Probe",
				VendorID:   0x0d28, ProductID: 0x0204,
				Serial: "000012345678",
				Driver: programmer.CMSISDAP,
			},
			Features: probe.FeatureSWD | probe.FeatureJTAG | probe.FeatureARM |
				probe.FeatureSWO | probe.FeatureSpeedControl,
			TargetConnected: true,
		}),
		WithProbe(ProbeConfig{
			Info: probe.ProbeInfo{
				Identifier: "STLink V3",
				VendorID:   0x0483, ProductID: 0x374e,
				Serial: "STL003A4B5C6D",
				Driver: programmer.STLink,
			},
			Features: probe.FeatureSWD | probe.FeatureARM |
				probe.FeatureSWO | probe.FeatureSpeedControl,
			TargetConnected: true,
		}),
	}
}
