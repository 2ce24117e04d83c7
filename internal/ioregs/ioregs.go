// Package ioregs names the subset of the FF00-FFFF I/O page the memory bus
// and LCD controller share: LCDC/STAT/SCY/SCX/LY/LYC/BGP/OBP0/OBP1/WY/WX and
// the IF/IE interrupt pair. It builds named accessors on internal/bits so
// the bus and LCD controller read named booleans and fields instead of
// repeating the same shift-and-mask at every call site.
package ioregs

import (
	"github.com/dmgcore/gbcore/internal/bits"
	"github.com/dmgcore/gbcore/internal/register"
)

// LCD modes, matching STAT bits 0-1.
const (
	ModeHBlank byte = 0
	ModeVBlank byte = 1
	ModeOAM    byte = 2
	ModeVRAM   byte = 3
)

// Interrupt bit positions shared by IF and IE.
const (
	IntVBlank  = 0
	IntLCDStat = 1
	IntTimer   = 2
	IntSerial  = 3
	IntJoypad  = 4
)

// LCD is the FF40-FF4B LCD controller register file. Ly is backed by a
// register.Cell8 capped at 153, the real hardware scanline ceiling (144
// visible lines plus 10 VBlank lines); NewLCD must be used to construct a
// usable zero value, since the cell's ceiling has to be set at construction.
type LCD struct {
	Lcdc byte           // FF40
	Stat byte           // FF41
	Scy  byte           // FF42
	Scx  byte           // FF43
	Ly   register.Cell8 // FF44
	Lyc  byte           // FF45
	Bgp  byte           // FF47
	Obp0 byte           // FF48
	Obp1 byte           // FF49
	Wy   byte           // FF4A
	Wx   byte           // FF4B
}

// NewLCD constructs an LCD register file with Ly range-checked to 0..153.
func NewLCD() LCD {
	var l LCD
	l.Ly = *register.NewCell8Max("LY", 153)
	return l
}

// DisplayOn reports LCDC bit 7.
func (l *LCD) DisplayOn() bool { return bits.Bit(l.Lcdc, 7) }

// BGTileDataSelect reports LCDC bit 4 (1: 0x8000 unsigned, 0: 0x8800 signed).
func (l *LCD) BGTileDataSelect() bool { return bits.Bit(l.Lcdc, 4) }

// BGTileMapSelect reports LCDC bit 3 (1: 0x9C00, 0: 0x9800).
func (l *LCD) BGTileMapSelect() bool { return bits.Bit(l.Lcdc, 3) }

// BGAndWindowOn reports LCDC bit 0.
func (l *LCD) BGAndWindowOn() bool { return bits.Bit(l.Lcdc, 0) }

// Mode returns STAT bits 0-1.
func (l *LCD) Mode() byte { return l.Stat & 0x03 }

// SetMode stores mode into STAT bits 0-1, leaving the rest of STAT intact.
func (l *LCD) SetMode(mode byte) {
	l.Stat = (l.Stat &^ 0x03) | (mode & 0x03)
}

// HBlankIntEnabled reports STAT bit 3.
func (l *LCD) HBlankIntEnabled() bool { return bits.Bit(l.Stat, 3) }

// VBlankStatIntEnabled reports STAT bit 4.
func (l *LCD) VBlankStatIntEnabled() bool { return bits.Bit(l.Stat, 4) }

// OAMIntEnabled reports STAT bit 5.
func (l *LCD) OAMIntEnabled() bool { return bits.Bit(l.Stat, 5) }

// LYCIntEnabled reports STAT bit 6.
func (l *LCD) LYCIntEnabled() bool { return bits.Bit(l.Stat, 6) }

// CoincidenceFlag reports STAT bit 2 (LY == LYC).
func (l *LCD) CoincidenceFlag() bool { return bits.Bit(l.Stat, 2) }

// SetCoincidenceFlag assigns STAT bit 2.
func (l *LCD) SetCoincidenceFlag(on bool) { l.Stat = bits.AssignBit(l.Stat, 2, on) }

// UpdateLYC refreshes the coincidence flag against Lyc and reports whether an
// LYC=LY STAT interrupt should fire on this transition.
func (l *LCD) UpdateLYC() (shouldInterrupt bool) {
	match := l.Ly.Val() == l.Lyc
	l.SetCoincidenceFlag(match)
	return match && l.LYCIntEnabled()
}

// ReadStat returns FF41 as the CPU observes it: bit 7 always reads high.
func (l *LCD) ReadStat() byte { return 0x80 | (l.Stat & 0x7F) }

// WriteStat stores a CPU write to FF41: only the enable bits (3-6) are
// writable, the mode and coincidence-flag bits are hardware-owned.
func (l *LCD) WriteStat(value byte) {
	l.Stat = (l.Stat & 0x07) | (value & 0x78)
}

// Interrupts holds the IF (FF0F) / IE (FFFF) register pair.
type Interrupts struct {
	IF byte
	IE byte
}

// Request sets bit in IF (0 VBlank, 1 LCDC-STAT, 2 Timer, 3 Serial, 4 Joypad).
func (ir *Interrupts) Request(bit int) {
	ir.IF = bits.SetBit(ir.IF, uint(bit))
}

// Pending returns the bits that are both requested and enabled, masked to
// the five real interrupt sources.
func (ir *Interrupts) Pending() byte {
	return ir.IF & ir.IE & 0x1F
}

// Clear resets bit in IF, called once an interrupt has been dispatched.
func (ir *Interrupts) Clear(bit int) {
	ir.IF = bits.ClearBit(ir.IF, uint(bit))
}
