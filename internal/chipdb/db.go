// Package chipdb builds an indexed view over the runtime's target
// registry: chips grouped by manufacturer, with a global name lookup.
package chipdb

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/embedkit/probelink/internal/probe"
)

// Manufacturer is one vendor bucket with its sorted, deduplicated
// chip list.
type Manufacturer struct {
	Name  string
	Chips []string
}

// Pos locates a chip inside the database.
type Pos struct {
	Manufacturer int
	Chip         int
}

// DB is immutable after Build.
type DB struct {
	rt            probe.Runtime
	manufacturers []Manufacturer
	index         map[string]Pos
}

// Build walks the runtime's family registry once. Families sharing a
// (CC, ID) manufacturer code collapse into one bucket; families with
// no code land in "Generic".
func Build(rt probe.Runtime) *DB {
	type key struct{ cc, id uint8 }
	buckets := make(map[key]int)
	var manufacturers []Manufacturer

	for _, fam := range rt.Families() {
		k := key{}
		name := "Generic"
		if fam.Manufacturer != nil {
			k = key{cc: fam.Manufacturer.CC, id: fam.Manufacturer.ID}
			name = fam.Manufacturer.Name
			if name == "" {
				name = "<unknown>"
			}
		}
		idx, ok := buckets[k]
		if !ok {
			idx = len(manufacturers)
			buckets[k] = idx
			manufacturers = append(manufacturers, Manufacturer{Name: name})
		}
		manufacturers[idx].Chips = append(manufacturers[idx].Chips, fam.Targets...)
	}

	for i := range manufacturers {
		sort.Strings(manufacturers[i].Chips)
		manufacturers[i].Chips = dedup(manufacturers[i].Chips)
	}

	index := make(map[string]Pos)
	for mi, m := range manufacturers {
		for ci, chip := range m.Chips {
			index[chip] = Pos{Manufacturer: mi, Chip: ci}
		}
	}

	return &DB{rt: rt, manufacturers: manufacturers, index: index}
}

func dedup(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || sorted[i-1] != s {
			out = append(out, s)
		}
	}
	return out
}

// ManufacturerCount returns the number of vendor buckets.
func (db *DB) ManufacturerCount() int {
	return len(db.manufacturers)
}

// ManufacturerName returns the vendor name at index.
func (db *DB) ManufacturerName(index int) (string, error) {
	if index < 0 || index >= len(db.manufacturers) {
		return "", fmt.Errorf("manufacturer index out of range")
	}
	return db.manufacturers[index].Name, nil
}

// ModelCount returns the number of chips under one vendor.
func (db *DB) ModelCount(index int) (int, error) {
	if index < 0 || index >= len(db.manufacturers) {
		return 0, fmt.Errorf("manufacturer index out of range")
	}
	return len(db.manufacturers[index].Chips), nil
}

// ModelName returns one chip name.
func (db *DB) ModelName(mi, ci int) (string, error) {
	if mi < 0 || mi >= len(db.manufacturers) {
		return "", fmt.Errorf("manufacturer index out of range")
	}
	chips := db.manufacturers[mi].Chips
	if ci < 0 || ci >= len(chips) {
		return "", fmt.Errorf("chip index out of range")
	}
	return chips[ci], nil
}

// Lookup finds a chip by name.
func (db *DB) Lookup(name string) (Pos, bool) {
	p, ok := db.index[name]
	return p, ok
}

// spec is the serialized form of one chip description.
type spec struct {
	Manufacturer    string `json:"manufacturer"`
	Chip            string `json:"chip"`
	Architecture    string `json:"architecture"`
	Cores           string `json:"cores"`
	RAMBytes        uint64 `json:"ram_bytes"`
	NVMBytes        uint64 `json:"nvm_bytes"`
	Regions         string `json:"regions"`
	FlashAlgorithms string `json:"flash_algorithms"`
	DefaultFormat   string `json:"default_format"`
}

// ModelSpec serializes the chip at (mi, ci) as a compact JSON record.
func (db *DB) ModelSpec(mi, ci int) (string, error) {
	name, err := db.ModelName(mi, ci)
	if err != nil {
		return "", err
	}
	return db.buildSpec(db.manufacturers[mi].Name, name)
}

// SpecByName serializes a chip found by name. Names outside the index
// still resolve through the runtime, with an unknown manufacturer.
func (db *DB) SpecByName(name string) (string, error) {
	manufacturer := "<unknown>"
	if pos, ok := db.index[name]; ok {
		manufacturer = db.manufacturers[pos.Manufacturer].Name
	}
	return db.buildSpec(manufacturer, name)
}

func (db *DB) buildSpec(manufacturer, chip string) (string, error) {
	target, err := db.rt.Target(chip)
	if err != nil {
		return "", fmt.Errorf("get target error: %w", err)
	}

	cores := make([]string, 0, len(target.Cores))
	for _, c := range target.Cores {
		cores = append(cores, fmt.Sprintf("%s:%s", c.Name, c.Type))
	}

	var ramTotal, nvmTotal uint64
	regions := make([]string, 0, len(target.MemoryMap))
	for _, r := range target.MemoryMap {
		label := "Generic"
		switch r.Kind {
		case probe.RegionRAM:
			label = "Ram"
			ramTotal += r.Size()
		case probe.RegionNVM:
			label = "Nvm"
			nvmTotal += r.Size()
		}
		regions = append(regions, fmt.Sprintf("%s(%#010x-%#010x)", label, r.Start, r.End))
	}

	out, err := json.Marshal(spec{
		Manufacturer:    manufacturer,
		Chip:            chip,
		Architecture:    target.Architecture,
		Cores:           strings.Join(cores, ", "),
		RAMBytes:        ramTotal,
		NVMBytes:        nvmTotal,
		Regions:         strings.Join(regions, ";"),
		FlashAlgorithms: strings.Join(target.FlashAlgorithms, ", "),
		DefaultFormat:   target.DefaultFormat,
	})
	if err != nil {
		return "", fmt.Errorf("encode spec: %w", err)
	}
	return string(out), nil
}
