package boundary

import (
	"github.com/embedkit/probelink/internal/cbuf"
	"github.com/embedkit/probelink/internal/chipdb"
)

// chipDB builds the database on first use.
func (c *Context) chipDB() *chipdb.DB {
	c.dbOnce.Do(func() { c.db = chipdb.Build(c.rt) })
	return c.db
}

// ManufacturerCount returns the number of vendor buckets.
func (c *Context) ManufacturerCount() uint32 {
	return uint32(c.chipDB().ManufacturerCount())
}

// ManufacturerName fills dst with the vendor name at index; a need of
// 0 means failure, with the error slot set.
func (c *Context) ManufacturerName(index uint32, dst []byte) int {
	name, err := c.chipDB().ManufacturerName(int(index))
	if err != nil {
		c.setError("%v", err)
		return 0
	}
	return cbuf.Fill(dst, name)
}

// ModelCount returns the number of chips under one vendor, 0 with the
// error slot set for bad indices.
func (c *Context) ModelCount(manufacturerIndex uint32) uint32 {
	n, err := c.chipDB().ModelCount(int(manufacturerIndex))
	if err != nil {
		c.setError("%v", err)
		return 0
	}
	return uint32(n)
}

// ModelName fills dst with one chip name.
func (c *Context) ModelName(manufacturerIndex, chipIndex uint32, dst []byte) int {
	name, err := c.chipDB().ModelName(int(manufacturerIndex), int(chipIndex))
	if err != nil {
		c.setError("%v", err)
		return 0
	}
	return cbuf.Fill(dst, name)
}

// ModelSpecs fills dst with the serialized chip description at the
// given indices.
func (c *Context) ModelSpecs(manufacturerIndex, chipIndex uint32, dst []byte) int {
	spec, err := c.chipDB().ModelSpec(int(manufacturerIndex), int(chipIndex))
	if err != nil {
		c.setError("%v", err)
		return 0
	}
	return cbuf.Fill(dst, spec)
}

// SpecsByName fills dst with the serialized description of the named
// chip.
func (c *Context) SpecsByName(name string, dst []byte) int {
	spec, err := c.chipDB().SpecByName(name)
	if err != nil {
		c.setError("%v", err)
		return 0
	}
	return cbuf.Fill(dst, spec)
}
