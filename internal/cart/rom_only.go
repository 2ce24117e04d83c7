package cart

import "github.com/dmgcore/gbcore/internal/gberr"

// ROMOnly implements cart_type 0: a fixed ROM image with no banking and no
// external RAM. A write into what would be MBC1's bank-select or mode
// window (0x2000-0x7FFF) fails with gberr.CartImmutable, since a ROM-only
// cartridge has no such register to switch. Writes elsewhere in cartridge
// space (0x0000-0x1FFF RAM-enable, 0xA000-0xBFFF external RAM) are not
// control writes and are silently ignored, matching real ROM-only hardware
// wired with no RAM-enable latch or external RAM to receive them.
type ROMOnly struct {
	rom []byte
}

// NewROMOnly wraps rom as a ROM-only cartridge.
func NewROMOnly(rom []byte) *ROMOnly {
	return &ROMOnly{rom: rom}
}

func (c *ROMOnly) Read8(addr uint16) (byte, error) {
	if !inCartAddressSpace(addr) {
		return 0, gberr.New(gberr.AddrRange, "cart.ROMOnly.Read8", "address outside cartridge space")
	}
	switch {
	case addr < 0x8000:
		if int(addr) < len(c.rom) {
			return c.rom[addr], nil
		}
		return 0xFF, nil
	default: // 0xA000-0xBFFF: no external RAM present
		return 0xFF, nil
	}
}

func (c *ROMOnly) Write8(addr uint16, value byte) error {
	if !inCartAddressSpace(addr) {
		return gberr.New(gberr.AddrRange, "cart.ROMOnly.Write8", "address outside cartridge space")
	}
	if addr >= 0x2000 && addr <= 0x7FFF {
		return gberr.New(gberr.CartImmutable, "cart.ROMOnly.Write8", "ROM-only cartridge rejects bank/mode-switch writes")
	}
	return nil
}

func (c *ROMOnly) Mode() byte { return 0 }
func (c *ROMOnly) Bank() byte { return 1 }
