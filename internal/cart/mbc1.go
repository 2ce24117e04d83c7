package cart

import "github.com/dmgcore/gbcore/internal/gberr"

// MBC1 implements a simplified MBC1 banking scheme: a 5-bit bank-select
// register (0x2000-0x3FFF) and a 1-bit mode register (0x6000-0x7FFF).
// Unlike real MBC1 hardware, there is no second 2-bit register feeding ROM
// bank bits 5-6 or a RAM bank select; writes to other sub-ranges have no
// effect. External RAM is accordingly not modeled either.
type MBC1 struct {
	rom  []byte
	mode byte // 0: ROM banking (default), 1: RAM banking
	bank byte // 1..31, never 0
}

// NewMBC1 wraps rom as an MBC1 cartridge, defaulting to bank 1 mode 0.
func NewMBC1(rom []byte) *MBC1 {
	return &MBC1{rom: rom, bank: 1}
}

func (m *MBC1) Read8(addr uint16) (byte, error) {
	if !inCartAddressSpace(addr) {
		return 0, gberr.New(gberr.AddrRange, "cart.MBC1.Read8", "address outside cartridge space")
	}
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr], nil
		}
		return 0xFF, nil
	case addr < 0x8000:
		off := int(m.bank)*0x4000 + int(addr-0x4000)
		if off < len(m.rom) {
			return m.rom[off], nil
		}
		return 0xFF, nil
	default: // 0xA000-0xBFFF: external RAM not modeled
		return 0xFF, nil
	}
}

func (m *MBC1) Write8(addr uint16, value byte) error {
	if !inCartAddressSpace(addr) {
		return gberr.New(gberr.AddrRange, "cart.MBC1.Write8", "address outside cartridge space")
	}
	switch {
	case addr >= 0x2000 && addr <= 0x3FFF:
		bank := value & 0x1F
		if bank == 0 {
			bank = 1
		}
		m.bank = bank
	case addr >= 0x6000 && addr <= 0x7FFF:
		m.mode = value & 1
	case addr >= 0xA000 && addr <= 0xBFFF:
		// No external RAM modeled; writes are accepted and discarded.
	default:
		// Other sub-ranges (e.g. 0x0000-0x1FFF RAM-enable) have no effect.
	}
	return nil
}

func (m *MBC1) Mode() byte { return m.mode }
func (m *MBC1) Bank() byte { return m.bank }
