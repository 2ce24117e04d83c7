package ioregs

import "testing"

func TestLCDBits(t *testing.T) {
	l := NewLCD()
	l.Lcdc = 0x91 // bit7 | bit4 | bit0
	if !l.DisplayOn() {
		t.Fatalf("DisplayOn() = false, want true")
	}
	if !l.BGTileDataSelect() {
		t.Fatalf("BGTileDataSelect() = false, want true")
	}
	if l.BGTileMapSelect() {
		t.Fatalf("BGTileMapSelect() = true, want false")
	}
	if !l.BGAndWindowOn() {
		t.Fatalf("BGAndWindowOn() = false, want true")
	}
}

func TestLCDModeRoundTrip(t *testing.T) {
	l := NewLCD()
	l.SetMode(ModeVRAM)
	if got := l.Mode(); got != ModeVRAM {
		t.Fatalf("Mode() = %d, want %d", got, ModeVRAM)
	}
	l.Stat |= 0x78 // set all enable bits so SetMode doesn't clobber them
	l.SetMode(ModeHBlank)
	if l.Stat&0x78 != 0x78 {
		t.Fatalf("SetMode clobbered enable bits: stat=%02X", l.Stat)
	}
}

func TestLCDReadWriteStat(t *testing.T) {
	l := NewLCD()
	l.WriteStat(0xFF)
	if got := l.ReadStat(); got != 0xF8 {
		t.Fatalf("ReadStat() = %02X, want F8 (bit7 fixed, mode/coincidence unwritable)", got)
	}
	if l.Mode() != 0 {
		t.Fatalf("WriteStat should not change mode bits, got mode=%d", l.Mode())
	}
}

func TestLCDUpdateLYC(t *testing.T) {
	l := NewLCD()
	l.Ly.Set(42)
	l.Lyc = 42
	l.WriteStat(0x40) // enable LYC interrupt
	if !l.UpdateLYC() {
		t.Fatalf("UpdateLYC() = false, want true when LY==LYC and interrupt enabled")
	}
	if !l.CoincidenceFlag() {
		t.Fatalf("CoincidenceFlag() = false after LY==LYC")
	}

	l.Ly.Set(43)
	if l.UpdateLYC() {
		t.Fatalf("UpdateLYC() = true, want false when LY!=LYC")
	}
	if l.CoincidenceFlag() {
		t.Fatalf("CoincidenceFlag() = true after LY!=LYC")
	}
}

func TestLCDLyRejectsOutOfRange(t *testing.T) {
	l := NewLCD()
	if err := l.Ly.Load(154); err == nil {
		t.Fatalf("Load(154) on Ly should fail: max is 153")
	}
	if err := l.Ly.Load(153); err != nil {
		t.Fatalf("Load(153) on Ly: unexpected error: %v", err)
	}
}

func TestInterrupts(t *testing.T) {
	ir := &Interrupts{}
	ir.Request(IntVBlank)
	ir.Request(IntTimer)
	if ir.Pending() != 0 {
		t.Fatalf("Pending() = %02X, want 0 before IE enables anything", ir.Pending())
	}
	ir.IE = 1 << IntVBlank
	if got := ir.Pending(); got != 1<<IntVBlank {
		t.Fatalf("Pending() = %02X, want %02X", got, byte(1<<IntVBlank))
	}
	ir.Clear(IntVBlank)
	if ir.Pending() != 0 {
		t.Fatalf("Pending() = %02X after Clear, want 0", ir.Pending())
	}
}
