package cpu

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dmgcore/gbcore/internal/bus"
	"github.com/dmgcore/gbcore/internal/gberr"
)

// recordingLogger captures Errorf calls for trap-logging assertions.
type recordingLogger struct {
	errors []string
}

func (r *recordingLogger) Infof(format string, args ...interface{}) {}
func (r *recordingLogger) Errorf(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}
func (r *recordingLogger) Debugf(format string, args ...interface{}) {}

func newCPUWithROM(code []byte) *CPU {
	rom := make([]byte, 0x8000)
	copy(rom, code)
	b := bus.New(rom)
	return New(b)
}

func mustRead8(t *testing.T, c *CPU, addr uint16) byte {
	t.Helper()
	v, err := c.Bus().Read8(addr)
	if err != nil {
		t.Fatalf("Read8(%04X) unexpected error: %v", addr, err)
	}
	return v
}

func mustWrite8(t *testing.T, c *CPU, addr uint16, val byte) {
	t.Helper()
	if err := c.Bus().Write8(addr, val); err != nil {
		t.Fatalf("Write8(%04X, %02X) unexpected error: %v", addr, val, err)
	}
}

func mustStep(t *testing.T, c *CPU) int {
	t.Helper()
	cycles, err := c.Step()
	if err != nil {
		t.Fatalf("Step() unexpected error: %v", err)
	}
	return cycles
}

func TestCPU_NopAndPC(t *testing.T) {
	c := newCPUWithROM([]byte{0x00})
	cycles := mustStep(t, c)
	if cycles != 4 {
		t.Fatalf("NOP cycles got %d want 4", cycles)
	}
	if c.PC != 1 {
		t.Fatalf("PC after NOP got %#04x want 0x0001", c.PC)
	}
}

func TestCPU_LD_A_d8_And_XOR_A(t *testing.T) {
	c := newCPUWithROM([]byte{0x3E, 0x12, 0xAF})
	mustStep(t, c) // LD A,0x12
	if c.A != 0x12 {
		t.Fatalf("A after LD got %02x want 12", c.A)
	}
	mustStep(t, c) // XOR A
	if c.A != 0x00 {
		t.Fatalf("A after XOR got %02x want 00", c.A)
	}
	if (c.F & flagZ) == 0 {
		t.Fatalf("Z flag not set after XOR A")
	}
}

func TestCPU_LD_a16_A_and_LD_A_a16(t *testing.T) {
	prog := []byte{0x3E, 0x77, 0xEA, 0x00, 0xC0, 0x3E, 0x00, 0xFA, 0x00, 0xC0}
	c := newCPUWithROM(prog)
	mustStep(t, c) // LD A,0x77
	mustStep(t, c) // LD (C000),A
	if a := mustRead8(t, c, 0xC000); a != 0x77 {
		t.Fatalf("WRAM at C000 got %02x want 77", a)
	}
	mustStep(t, c) // LD A,0x00
	mustStep(t, c) // LD A,(C000)
	if c.A != 0x77 {
		t.Fatalf("A after LD A,(C000) got %02x want 77", c.A)
	}
}

func TestCPU_JP_and_JR(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x0000] = 0xC3 // JP 0x0010
	rom[0x0001] = 0x10
	rom[0x0002] = 0x00
	rom[0x0010] = 0x18 // JR -2 (loops on itself)
	rom[0x0011] = 0xFE
	b := bus.New(rom)
	c := New(b)

	cycles := mustStep(t, c) // JP
	if cycles != 16 || c.PC != 0x0010 {
		t.Fatalf("JP cycles=%d PC=%#04x want cycles=16 PC=0x0010", cycles, c.PC)
	}
	pcBefore := c.PC
	mustStep(t, c) // JR -2
	if c.PC != pcBefore {
		t.Fatalf("JR -2 PC got %#04x want %#04x", c.PC, pcBefore)
	}
}

func TestCPU_INC_B_Flags(t *testing.T) {
	c := newCPUWithROM([]byte{0x04, 0x04})
	c.B = 0x0F
	c.F = flagC
	mustStep(t, c)
	if c.B != 0x10 {
		t.Fatalf("INC B result got %02x want 10", c.B)
	}
	if (c.F & flagH) == 0 {
		t.Fatalf("INC B should set H flag")
	}
	if (c.F & flagC) == 0 {
		t.Fatalf("INC B should preserve C flag")
	}
	c.B = 0xFF
	mustStep(t, c)
	if c.B != 0x00 || (c.F&flagZ) == 0 {
		t.Fatalf("INC B to 0 should set Z flag, B=%02x, F=%02x", c.B, c.F)
	}
}

func TestCPU_LD_16bit_and_LDH(t *testing.T) {
	prog := []byte{
		0x21, 0x00, 0xC0, // LD HL,C000
		0x36, 0x5A, // LD (HL),0x5A
		0x3E, 0x00, // LD A,0x00
		0xF0, 0x80, // LDH A,(0x80)
		0xE0, 0x01, // LDH (0x01),A (writes FF01, serial SB)
	}
	c := newCPUWithROM(prog)
	mustWrite8(t, c, 0xFF80, 0xA7) // HRAM base

	for i := 0; i < 5; i++ {
		mustStep(t, c)
	}
	if v := mustRead8(t, c, 0xC000); v != 0x5A {
		t.Fatalf("WRAM C000 got %02x want 5A", v)
	}
	if c.A != 0xA7 {
		t.Fatalf("A after LDH A,(0x80) got %02x want A7", c.A)
	}
	if v := mustRead8(t, c, 0xFF01); v != c.A {
		t.Fatalf("LDH (0x01),A expected write to FF01 with A=%02x got %02x", c.A, v)
	}
}

func TestCPU_CALL_RET(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x0000] = 0xCD // CALL 0x0005
	rom[0x0001] = 0x05
	rom[0x0002] = 0x00
	rom[0x0005] = 0xC9 // RET
	b := bus.New(rom)
	c := New(b)

	mustStep(t, c) // CALL
	if c.PC != 0x0005 {
		t.Fatalf("PC after CALL got %04x want 0005", c.PC)
	}
	retCycles := mustStep(t, c)
	if c.PC != 0x0003 || retCycles != 16 {
		t.Fatalf("RET did not return to 0003; PC=%04x cyc=%d", c.PC, retCycles)
	}
}

func TestCPU_STOP_RaisesNotImplemented(t *testing.T) {
	c := newCPUWithROM([]byte{0x10, 0x00})
	_, err := c.Step()
	if err == nil {
		t.Fatalf("expected error from STOP")
	}
	if !errors.Is(err, gberr.NotImplementedErr) {
		t.Fatalf("err = %v, want NotImplemented", err)
	}
}

func TestCPU_DAA_RaisesNotImplemented(t *testing.T) {
	c := newCPUWithROM([]byte{0x27})
	_, err := c.Step()
	if err == nil {
		t.Fatalf("expected error from DAA")
	}
	if !errors.Is(err, gberr.NotImplementedErr) {
		t.Fatalf("err = %v, want NotImplemented", err)
	}
}

func TestCPU_IllegalOpcodes_RaiseIllegalOpcode(t *testing.T) {
	illegal := []byte{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD}
	for _, op := range illegal {
		c := newCPUWithROM([]byte{op})
		_, err := c.Step()
		if err == nil {
			t.Fatalf("opcode %02X: expected IllegalOpcode error", op)
		}
		if !errors.Is(err, gberr.IllegalOpcodeErr) {
			t.Fatalf("opcode %02X: err = %v, want IllegalOpcode", op, err)
		}
	}
}

func TestCPU_ConditionalBranch_FixedCycleRegardlessOfOutcome(t *testing.T) {
	notTaken := newCPUWithROM([]byte{0x20, 0x05}) // JR NZ,+5
	notTaken.F = flagZ
	cyclesNotTaken := mustStep(t, notTaken)

	taken := newCPUWithROM([]byte{0x20, 0x05})
	taken.F = 0
	cyclesTaken := mustStep(t, taken)

	if cyclesNotTaken != cyclesTaken {
		t.Fatalf("JR NZ cycles differ by outcome: taken=%d not-taken=%d", cyclesTaken, cyclesNotTaken)
	}
	if cyclesTaken != 12 {
		t.Fatalf("JR cc cycles got %d want fixed 12", cyclesTaken)
	}
}

func TestCPU_EI_DelaysIMEByOneInstruction(t *testing.T) {
	c := newCPUWithROM([]byte{0xFB, 0x00, 0x00})
	mustStep(t, c) // EI
	if c.IME {
		t.Fatalf("IME set immediately after EI, want delayed")
	}
	mustStep(t, c) // NOP: still before the delay elapses
	if c.IME {
		t.Fatalf("IME set after only one instruction following EI")
	}
	mustStep(t, c) // NOP: delay has now elapsed
	if !c.IME {
		t.Fatalf("IME not set two instructions after EI")
	}
}

func TestCPU_PushPop(t *testing.T) {
	c := newCPUWithROM([]byte{0xC5, 0xC1})
	c.setBC(0x1234)
	mustStep(t, c) // PUSH BC
	c.setBC(0)
	mustStep(t, c) // POP BC
	if c.getBC() != 0x1234 {
		t.Fatalf("BC after PUSH/POP got %04x want 1234", c.getBC())
	}
}

func TestCPU_IllegalOpcode_LogsBeforeErroring(t *testing.T) {
	c := newCPUWithROM([]byte{0xD3})
	rec := &recordingLogger{}
	c.SetLogger(rec)
	_, err := c.Step()
	if err == nil {
		t.Fatalf("expected IllegalOpcode error")
	}
	if len(rec.errors) != 1 {
		t.Fatalf("expected one Errorf call, got %d", len(rec.errors))
	}
}

func TestCPU_PeekOpcode_DoesNotAdvanceOrFetch(t *testing.T) {
	c := newCPUWithROM([]byte{0x3E, 0x42}) // LD A,0x42
	if got := c.PeekOpcode(); got != 0x3E {
		t.Fatalf("PeekOpcode() = %02X, want 3E", got)
	}
	if c.PC != 0 {
		t.Fatalf("PeekOpcode must not advance PC, got %04X", c.PC)
	}
	mustStep(t, c)
	if c.A != 0x42 {
		t.Fatalf("A = %02X, want 42", c.A)
	}
}

func TestCPU_HaltWithIMEStaysParkedUntilInterruptPending(t *testing.T) {
	// EI; HALT; NOP — the EI;HALT idiom used to wait for VBLANK. With no
	// interrupt pending yet, Step must keep idling on HALT rather than
	// falling through to execute the NOP.
	c := newCPUWithROM([]byte{0xFB, 0x76, 0x00})
	mustStep(t, c) // EI (IME takes effect after the next instruction)
	mustStep(t, c) // HALT
	if !c.Halted() {
		t.Fatalf("expected halted after HALT opcode")
	}
	pcAfterHalt := c.PC
	for i := 0; i < 5; i++ {
		cycles := mustStep(t, c)
		if cycles != 4 {
			t.Fatalf("idle HALT step cycles = %d, want 4", cycles)
		}
		if !c.Halted() {
			t.Fatalf("CPU woke up with no interrupt pending")
		}
		if c.PC != pcAfterHalt {
			t.Fatalf("PC advanced while halted: got %04X, want %04X", c.PC, pcAfterHalt)
		}
	}

	// Now request and enable VBlank; the next Step must service it rather
	// than fetch the NOP.
	mustWrite8(t, c, 0xFFFF, 1<<0)
	mustWrite8(t, c, 0xFF0F, 1<<0)
	mustStep(t, c)
	if c.Halted() {
		t.Fatalf("expected HALT to clear once the interrupt services")
	}
	if c.PC != 0x40 {
		t.Fatalf("PC after servicing VBlank = %04X, want 0x0040", c.PC)
	}
}
