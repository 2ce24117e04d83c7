package bus

import "testing"

func tick(b *Bus, n int) { b.Tick(n) }

func TestPPU_STAT_HBlankInterrupt(t *testing.T) {
	b := New(make([]byte, 0x8000))
	mustWrite8(t, b, 0xFF40, 0x80)
	mustWrite8(t, b, 0xFF41, 1<<3)
	mustWrite8(t, b, 0xFF0F, 0)
	tick(b, 80+172)
	if (mustRead8(t, b, 0xFF0F) & (1 << 1)) == 0 {
		t.Fatalf("expected STAT IF on HBlank mode change")
	}
}

func TestPPU_LYC_InterruptAndFlag(t *testing.T) {
	b := New(make([]byte, 0x8000))
	mustWrite8(t, b, 0xFF40, 0x80)
	mustWrite8(t, b, 0xFF41, 1<<6)
	mustWrite8(t, b, 0xFF45, 0x01)
	mustWrite8(t, b, 0xFF0F, 0)
	tick(b, 456)
	if (mustRead8(t, b, 0xFF0F) & (1 << 1)) == 0 {
		t.Fatalf("expected STAT IF on LYC=LY match at LY=1")
	}
	stat := mustRead8(t, b, 0xFF41)
	if (stat & (1 << 2)) == 0 {
		t.Fatalf("expected STAT coincidence flag set when LY==LYC")
	}
}

func TestPPU_VRAM_OAM_AccessRestrictions(t *testing.T) {
	b := New(make([]byte, 0x8000))
	mustWrite8(t, b, 0xFF40, 0x80)
	tick(b, 80+172) // mode 0
	mustWrite8(t, b, 0x8000, 0x11)
	mustWrite8(t, b, 0xFE00, 0x22)
	tick(b, 456-252) // new line start (mode 2)
	tick(b, 80)      // enter mode 3
	mustWrite8(t, b, 0x8000, 0xAA)
	mustWrite8(t, b, 0xFE00, 0xBB)
	if got := mustRead8(t, b, 0x8000); got != 0xFF {
		t.Fatalf("VRAM read during mode3 got %02X want FF", got)
	}
	if got := mustRead8(t, b, 0xFE00); got != 0xFF {
		t.Fatalf("OAM read during mode3 got %02X want FF", got)
	}
	tick(b, 172)
	if got := mustRead8(t, b, 0x8000); got != 0x11 {
		t.Fatalf("VRAM value changed despite blocked write: got %02X want 11", got)
	}
	if got := mustRead8(t, b, 0xFE00); got != 0x22 {
		t.Fatalf("OAM value changed despite blocked write: got %02X want 22", got)
	}
}

func TestBus_OAMDMA_StepwiseAndBlocking(t *testing.T) {
	b := New(make([]byte, 0x8000))
	for i := 0; i < 0xA0; i++ {
		mustWrite8(t, b, 0xC000+uint16(i), byte(i))
	}
	mustWrite8(t, b, 0xFF46, 0xC0)
	if got := mustRead8(t, b, 0xFE00); got != 0xFF {
		t.Fatalf("OAM read during DMA got %02X want FF", got)
	}
	mustWrite8(t, b, 0xFE00, 0xEE)
	tick(b, 80)
	if got := mustRead8(t, b, 0xFE10); got != 0xFF {
		t.Fatalf("mid-DMA OAM read got %02X want FF", got)
	}
	tick(b, 80)
	for i := 0; i < 0xA0; i++ {
		if got := mustRead8(t, b, 0xFE00+uint16(i)); got != byte(i) {
			t.Fatalf("OAM[%02X] got %02X want %02X", i, got, byte(i))
		}
	}
	mustWrite8(t, b, 0xFE00, 0x99)
	if got := mustRead8(t, b, 0xFE00); got != 0x99 {
		t.Fatalf("OAM write post-DMA failed: got %02X", got)
	}
}

func TestPPU_ModeSequenceVisibleLine(t *testing.T) {
	b := New(make([]byte, 0x8000))
	mustWrite8(t, b, 0xFF40, 0x80)
	if mode := mustRead8(t, b, 0xFF41) & 0x03; mode != 2 {
		t.Fatalf("mode at start got %d want 2", mode)
	}
	tick(b, 80)
	if mode := mustRead8(t, b, 0xFF41) & 0x03; mode != 3 {
		t.Fatalf("mode at dot80 got %d want 3", mode)
	}
	tick(b, 172)
	if mode := mustRead8(t, b, 0xFF41) & 0x03; mode != 0 {
		t.Fatalf("mode at dot252 got %d want 0", mode)
	}
	tick(b, 456-252)
	if ly := mustRead8(t, b, 0xFF44); ly != 1 {
		t.Fatalf("LY after 1 line got %d want 1", ly)
	}
	if mode := mustRead8(t, b, 0xFF41) & 0x03; mode != 2 {
		t.Fatalf("mode at new line got %d want 2", mode)
	}
}

func TestPPU_VBlankDurationAndIF(t *testing.T) {
	b := New(make([]byte, 0x8000))
	mustWrite8(t, b, 0xFF40, 0x80)
	mustWrite8(t, b, 0xFF0F, 0)
	tick(b, 144*456)
	if ly := mustRead8(t, b, 0xFF44); ly != 144 {
		t.Fatalf("LY at vblank start got %d want 144", ly)
	}
	if mode := mustRead8(t, b, 0xFF41) & 0x03; mode != 1 {
		t.Fatalf("mode at vblank start got %d want 1", mode)
	}
	if (mustRead8(t, b, 0xFF0F) & 0x01) == 0 {
		t.Fatalf("VBlank IF not set on entering vblank")
	}
	tick(b, 10*456)
	if ly := mustRead8(t, b, 0xFF44); ly != 0 {
		t.Fatalf("LY after vblank wrap got %d want 0", ly)
	}
}

func TestPPU_WriteLYIsReadOnly(t *testing.T) {
	b := New(make([]byte, 0x8000))
	mustWrite8(t, b, 0xFF40, 0x80)
	tick(b, 252) // mid-line HBlank
	before := mustRead8(t, b, 0xFF44)
	mustWrite8(t, b, 0xFF44, 0x99)
	if got := mustRead8(t, b, 0xFF44); got != before {
		t.Fatalf("LY write should be a no-op: got %d want %d", got, before)
	}
}

func TestPPU_STAT_VBlankInterruptEnable(t *testing.T) {
	b := New(make([]byte, 0x8000))
	mustWrite8(t, b, 0xFF40, 0x80)
	mustWrite8(t, b, 0xFF0F, 0)
	mustWrite8(t, b, 0xFF41, 0)
	tick(b, 144*456)
	if (mustRead8(t, b, 0xFF0F) & 0x01) == 0 {
		t.Fatalf("VBlank IF not set")
	}
	if (mustRead8(t, b, 0xFF0F) & 0x02) != 0 {
		t.Fatalf("STAT IF set unexpectedly when disabled")
	}
	mustWrite8(t, b, 0xFF0F, 0)
	mustWrite8(t, b, 0xFF41, 1<<4)
	tick(b, 154*456)
	if (mustRead8(t, b, 0xFF0F) & 0x02) == 0 {
		t.Fatalf("STAT IF not set on VBlank when enabled")
	}
}
