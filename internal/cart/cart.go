// Package cart implements the cartridge model of spec §3/§4.3: a ROM byte
// slice plus {cartType, mode, bank} state, with MBC1 bank/mode switching
// decoded from write addresses and a ROM-only cartridge that rejects any
// write into the 0x2000-0x7FFF bank/mode-switch window with
// gberr.CartImmutable.
package cart

// Cartridge is the minimal interface the bus needs for ROM/RAM banking. Two
// concrete implementations exist, matching spec §3's two defined cart_type
// behaviors: ROMOnly (type 0) and MBC1 (type 1, and — per the Open Question
// resolution recorded in DESIGN.md — any other header cart_type byte, so a
// ROM declaring an MBC this core doesn't model still boots under MBC1
// banking rather than failing to load).
type Cartridge interface {
	// Read8 returns a byte from ROM (0x0000-0x7FFF) or external RAM
	// (0xA000-0xBFFF). Addresses outside those two windows fail with
	// gberr.AddrRange.
	Read8(addr uint16) (byte, error)
	// Write8 decodes MBC control writes (0x0000-0x7FFF) and external RAM
	// writes (0xA000-0xBFFF). A ROM-only cartridge fails every write to
	// 0x2000-0x7FFF with gberr.CartImmutable and ignores the rest;
	// addresses outside the two windows fail with gberr.AddrRange.
	Write8(addr uint16, val byte) error
	// Mode reports the current MBC1 banking mode (0 or 1); always 0 for
	// ROM-only.
	Mode() byte
	// Bank reports the current switchable ROM bank (1..31); always 1 for
	// ROM-only.
	Bank() byte
}

func inCartAddressSpace(addr uint16) bool {
	return addr < 0x8000 || (addr >= 0xA000 && addr <= 0xBFFF)
}

// NewCartridge inspects rom's header (byte 0x0147) and constructs the
// matching implementation. A ROM too small or malformed to carry a header,
// or one declaring cart_type 0, is treated as ROM-only; everything else
// banks under MBC1 rules.
func NewCartridge(rom []byte) Cartridge {
	h, err := ParseHeader(rom)
	if err != nil {
		return NewROMOnly(rom)
	}
	if h.CartType == 0x00 {
		return NewROMOnly(rom)
	}
	return NewMBC1(rom)
}
