// Package register implements range-checked register cells: 8-bit and
// 16-bit integer cells plus single-bit flag cells, each carrying a debug
// name used only in error messages. internal/ioregs.LCD.Ly is backed by a
// Cell8 capped at 153 so an out-of-range Load is a catchable
// gberr.ValueRange instead of a silent truncation or wraparound; CPU's own
// A/B/C/D/E/H/L and PC/SP fields remain plain byte/uint16, since the
// instruction decoder mutates them too densely per-opcode for a Load-style
// checked setter to pay for itself there.
package register

import "github.com/dmgcore/gbcore/internal/gberr"

// Cell8 is an 8-bit register cell. Its Load-time ceiling defaults to 0xFF
// (the full byte range) but can be narrowed, e.g. for a scanline counter
// that only ever holds 0..153.
type Cell8 struct {
	name string
	max  byte
	v    byte
}

// NewCell8 creates a named 8-bit cell initialized to 0, accepting the full
// 0..255 range.
func NewCell8(name string) *Cell8 { return &Cell8{name: name, max: 0xFF} }

// NewCell8Max creates a named 8-bit cell initialized to 0 whose Load only
// accepts 0..max.
func NewCell8Max(name string, max byte) *Cell8 { return &Cell8{name: name, max: max} }

// Val returns the current value.
func (c *Cell8) Val() byte { return c.v }

// Load validates 0<=n<=max and stores it. The signature accepts an int so
// callers computing a value via wider arithmetic (e.g. an increment that
// may overflow the cell's ceiling) get a real range check instead of an
// implicit truncation or silent wraparound.
func (c *Cell8) Load(n int) error {
	if n < 0 || n > int(c.max) {
		return gberr.New(gberr.ValueRange, "register.Cell8.Load", c.name+" out of range")
	}
	c.v = byte(n)
	return nil
}

// Set stores an already-byte-typed value directly, bypassing the range
// check; it cannot fail. Used for resets to a constant known to be in range.
func (c *Cell8) Set(v byte) { c.v = v }

// Cell16 is a 16-bit register cell (PC, SP).
type Cell16 struct {
	name string
	v    uint16
}

// NewCell16 creates a named 16-bit cell initialized to 0.
func NewCell16(name string) *Cell16 { return &Cell16{name: name} }

// Val returns the current value.
func (c *Cell16) Val() uint16 { return c.v }

// Load validates 0<=n<=65535 and stores it.
func (c *Cell16) Load(n int) error {
	if n < 0 || n > 0xFFFF {
		return gberr.New(gberr.ValueRange, "register.Cell16.Load", c.name+" out of 16-bit range")
	}
	c.v = uint16(n)
	return nil
}

// Set stores an already-uint16-typed value directly; it cannot fail.
func (c *Cell16) Set(v uint16) { c.v = v }

// Flag is a single-bit flag cell (Z, N, H, C).
type Flag struct {
	name string
	v    bool
}

// NewFlag creates a named flag cell, initially reset.
func NewFlag(name string) *Flag { return &Flag{name: name} }

// Val reports whether the flag is set.
func (f *Flag) Val() bool { return f.v }

// Set forces the flag to true.
func (f *Flag) Set() { f.v = true }

// Reset forces the flag to false.
func (f *Flag) Reset() { f.v = false }

// SetTo assigns the flag to on.
func (f *Flag) SetTo(on bool) { f.v = on }
