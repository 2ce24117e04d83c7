package cart

import "testing"

func mustRead8(t *testing.T, m *MBC1, addr uint16) byte {
	t.Helper()
	v, err := m.Read8(addr)
	if err != nil {
		t.Fatalf("Read8(%04X) unexpected error: %v", addr, err)
	}
	return v
}

func mustWrite8(t *testing.T, m *MBC1, addr uint16, val byte) {
	t.Helper()
	if err := m.Write8(addr, val); err != nil {
		t.Fatalf("Write8(%04X, %02X) unexpected error: %v", addr, val, err)
	}
}

func TestMBC1_ROMBanking(t *testing.T) {
	// Build a 128KB ROM with distinct bytes per bank at start of each bank
	rom := make([]byte, 128*1024)
	for bank := 0; bank < 8; bank++ {
		rom[bank*0x4000] = byte(bank)
	}
	m := NewMBC1(rom)

	// Bank0 region always reads fixed bank 0
	if got := mustRead8(t, m, 0x0000); got != 0x00 {
		t.Fatalf("bank0 read got %02X want 00", got)
	}

	// Switchable bank defaults to 1
	if got := mustRead8(t, m, 0x4000); got != 0x01 {
		t.Fatalf("bank1 read got %02X want 01", got)
	}

	// Select bank 3
	mustWrite8(t, m, 0x2000, 0x03)
	if got := mustRead8(t, m, 0x4000); got != 0x03 {
		t.Fatalf("bank3 read got %02X want 03", got)
	}

	// Writing 0 maps to 1
	mustWrite8(t, m, 0x2000, 0x00)
	if got := mustRead8(t, m, 0x4000); got != 0x01 {
		t.Fatalf("bank0->1 remap failed: got %02X", got)
	}
}

func TestMBC1_ModeRegister(t *testing.T) {
	rom := make([]byte, 128*1024)
	m := NewMBC1(rom)

	if m.Mode() != 0 {
		t.Fatalf("default mode = %d, want 0", m.Mode())
	}
	mustWrite8(t, m, 0x6000, 0x01)
	if m.Mode() != 1 {
		t.Fatalf("Mode() = %d, want 1 after writing mode register", m.Mode())
	}
}

func TestMBC1_ExternalRAMNotModeled(t *testing.T) {
	rom := make([]byte, 128*1024)
	m := NewMBC1(rom)

	mustWrite8(t, m, 0xA000, 0x77)
	if got := mustRead8(t, m, 0xA000); got != 0xFF {
		t.Fatalf("unmodeled external RAM read got %02X, want FF", got)
	}
}

func TestMBC1_OutOfCartAddressSpace(t *testing.T) {
	rom := make([]byte, 128*1024)
	m := NewMBC1(rom)

	if _, err := m.Read8(0x8000); err == nil {
		t.Fatalf("Read8(0x8000) expected AddrRange error, got nil")
	}
	if err := m.Write8(0x9FFF, 0x00); err == nil {
		t.Fatalf("Write8(0x9FFF) expected AddrRange error, got nil")
	}
}
