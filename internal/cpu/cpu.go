// Package cpu implements the Sharp SM83 interpreter: an 8-bit accumulator
// machine with 16-bit addressing, dispatched through an exhaustive switch
// over the fetched opcode byte covering the full 256-entry primary table
// and the CB-prefixed table. Every opcode reports one fixed cycle count
// regardless of branch outcome: the taken-branch cost is always used for
// JR/JP/CALL/RET's conditional forms, rather than varying with whether the
// branch was actually taken.
package cpu

import (
	"github.com/dmgcore/gbcore/internal/bus"
	"github.com/dmgcore/gbcore/internal/gberr"
	"github.com/dmgcore/gbcore/internal/gblog"
	"github.com/dmgcore/gbcore/internal/ioregs"
)

// CPU implements the SM83 core: registers, flags, and an exhaustive-switch
// instruction dispatcher.
type CPU struct {
	A, F byte
	B, C byte
	D, E byte
	H, L byte

	SP uint16
	PC uint16

	IME    bool
	halted bool
	// eiDelay implements EI's one-instruction-late enable: EI sets it to 2;
	// it counts down at the top of each Step, and IME rises to true only
	// when it reaches zero, so the instruction immediately after EI still
	// runs with interrupts disabled.
	eiDelay int

	// err latches the first error a memory access raises during the
	// current Step, so every opcode body can read/write without an error
	// check at each call site; Step surfaces it once, at the end.
	err error

	// frameReady reports whether the most recent Step's bus.Tick call
	// presented a complete frame, for the driver loop in internal/gameboy.
	frameReady bool

	log gblog.Logger

	bus *bus.Bus
}

// FrameReady reports whether the instruction just executed by Step drove
// the LCD controller through a full frame (VBlank entry).
func (c *CPU) FrameReady() bool { return c.frameReady }

// New creates a CPU with PC at 0x0000 and SP at 0xFFFE (boot-ROM entry state).
func New(b *bus.Bus) *CPU {
	return &CPU{bus: b, SP: 0xFFFE, PC: 0x0000, log: gblog.NewNull()}
}

// SetLogger attaches l as the destination for illegal-opcode and
// not-yet-implemented-instruction traps. Defaults to a no-op logger.
func (c *CPU) SetLogger(l gblog.Logger) {
	if l != nil {
		c.log = l
	}
}

// SetPC allows tests or a boot stub to set the program counter.
func (c *CPU) SetPC(pc uint16) { c.PC = pc }

// PeekOpcode returns the byte at PC without fetching it (no PC advance, no
// sticky error latch), for callers that want to trace the next instruction
// before Step executes it.
func (c *CPU) PeekOpcode() byte {
	v, _ := c.bus.Read8(c.PC)
	return v
}

// Bus exposes the underlying bus for tests/tools.
func (c *CPU) Bus() *bus.Bus { return c.bus }

// Halted reports whether the CPU is in the HALT state.
func (c *CPU) Halted() bool { return c.halted }

// ResetNoBoot sets registers to typical DMG post-boot state, for running
// without a boot ROM image.
func (c *CPU) ResetNoBoot() {
	c.A, c.F = 0x01, 0xB0
	c.B, c.C = 0x00, 0x13
	c.D, c.E = 0x00, 0xD8
	c.H, c.L = 0x01, 0x4D
	c.SP = 0xFFFE
	c.IME = false
	c.halted = false
	c.eiDelay = 0
}

const (
	flagZ byte = 1 << 7
	flagN byte = 1 << 6
	flagH byte = 1 << 5
	flagC byte = 1 << 4
)

func (c *CPU) setZNHC(z, n, h, carry bool) {
	var f byte
	if z {
		f |= flagZ
	}
	if n {
		f |= flagN
	}
	if h {
		f |= flagH
	}
	if carry {
		f |= flagC
	}
	c.F = f
}

func (c *CPU) add8(a, b byte) (res byte, z, n, h, cy bool) {
	r := uint16(a) + uint16(b)
	res = byte(r)
	z = res == 0
	n = false
	h = ((a & 0x0F) + (b & 0x0F)) > 0x0F
	cy = r > 0xFF
	return
}

func (c *CPU) adc8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	ci := byte(0)
	if carryIn {
		ci = 1
	}
	r := uint16(a) + uint16(b) + uint16(ci)
	res = byte(r)
	z = res == 0
	n = false
	h = ((a & 0x0F) + (b & 0x0F) + ci) > 0x0F
	cy = r > 0xFF
	return
}

func (c *CPU) sub8(a, b byte) (res byte, z, n, h, cy bool) {
	r := int16(a) - int16(b)
	res = byte(r)
	z = res == 0
	n = true
	h = (a & 0x0F) < (b & 0x0F)
	cy = int16(a) < int16(b)
	return
}

func (c *CPU) sbc8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	ci := byte(0)
	if carryIn {
		ci = 1
	}
	r := int16(a) - int16(b) - int16(ci)
	res = byte(r)
	z = res == 0
	n = true
	h = (a & 0x0F) < ((b & 0x0F) + ci)
	cy = int16(a) < int16(b)+int16(ci)
	return
}

func (c *CPU) and8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a & b
	z = res == 0
	n = false
	h = true
	cy = false
	return
}

func (c *CPU) xor8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a ^ b
	z = res == 0
	return
}

func (c *CPU) or8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a | b
	z = res == 0
	return
}

func (c *CPU) cp8(a, b byte) (z, n, h, cy bool) {
	_, z, n, h, cy = c.sub8(a, b)
	return
}

// read8/write8 latch the first error a bus access raises rather than
// threading an error return through every opcode body; Step checks c.err
// once, after the instruction has run.
func (c *CPU) read8(addr uint16) byte {
	v, err := c.bus.Read8(addr)
	if err != nil && c.err == nil {
		c.err = err
	}
	return v
}

func (c *CPU) write8(addr uint16, v byte) {
	if err := c.bus.Write8(addr, v); err != nil && c.err == nil {
		c.err = err
	}
}

func (c *CPU) fetch8() byte {
	b := c.read8(c.PC)
	c.PC++
	return b
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | (hi << 8)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read8(addr))
	hi := uint16(c.read8(addr + 1))
	return lo | (hi << 8)
}

func (c *CPU) write16(addr uint16, v uint16) {
	c.write8(addr, byte(v&0x00FF))
	c.write8(addr+1, byte(v>>8))
}

func (c *CPU) getAF() uint16  { return uint16(c.A)<<8 | uint16(c.F&0xF0) }
func (c *CPU) setAF(v uint16) { c.A = byte(v >> 8); c.F = byte(v) & 0xF0 }
func (c *CPU) getBC() uint16  { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU) setBC(v uint16) { c.B = byte(v >> 8); c.C = byte(v) }
func (c *CPU) getDE() uint16  { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPU) setDE(v uint16) { c.D = byte(v >> 8); c.E = byte(v) }
func (c *CPU) getHL() uint16  { return uint16(c.H)<<8 | uint16(c.L) }
func (c *CPU) setHL(v uint16) { c.H = byte(v >> 8); c.L = byte(v) }

func (c *CPU) push16(v uint16) {
	c.SP -= 2
	c.write16(c.SP, v)
}

func (c *CPU) pop16() uint16 {
	v := c.read16(c.SP)
	c.SP += 2
	return v
}

func (c *CPU) getReg(idx byte) byte {
	switch idx {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 6:
		return c.read8(c.getHL())
	default:
		return c.A
	}
}

func (c *CPU) setReg(idx byte, val byte) {
	switch idx {
	case 0:
		c.B = val
	case 1:
		c.C = val
	case 2:
		c.D = val
	case 3:
		c.E = val
	case 4:
		c.H = val
	case 5:
		c.L = val
	case 6:
		c.write8(c.getHL(), val)
	case 7:
		c.A = val
	}
}

// Step executes one instruction (or services a pending interrupt, or
// advances HALT) and returns the cycles it consumed. A non-nil error means
// an illegal opcode, an unimplemented stub, or a cartridge/register write
// was rejected; every kind here is fatal for the session, so callers should
// stop stepping once Step returns an error.
func (c *CPU) Step() (cycles int, err error) {
	c.err = nil
	c.frameReady = false

	if c.eiDelay > 0 {
		c.eiDelay--
		if c.eiDelay == 0 {
			c.IME = true
		}
	}

	defer func() {
		if c.err != nil {
			err = c.err
		}
		if err == nil && c.bus != nil && cycles > 0 {
			c.frameReady = c.bus.Tick(cycles)
		}
	}()

	serviceInterrupt := func() int {
		ie := c.read8(0xFFFF)
		ifReg := c.read8(0xFF0F) & 0x1F
		pending := ie & ifReg
		if pending == 0 {
			return 0
		}
		bit := ioregs.IntVBlank
		for _, b := range []int{ioregs.IntVBlank, ioregs.IntLCDStat, ioregs.IntTimer, ioregs.IntSerial, ioregs.IntJoypad} {
			if (pending & (1 << uint(b))) != 0 {
				bit = b
				break
			}
		}
		c.write8(0xFF0F, (ifReg&^(1<<uint(bit)))&0x1F)
		c.halted = false
		c.IME = false
		c.push16(c.PC)
		c.PC = 0x40 + uint16(bit)*8
		return 20
	}

	if c.halted {
		if c.IME {
			if cyc := serviceInterrupt(); cyc != 0 {
				return cyc, nil
			}
			// IME set but nothing pending yet: stay parked rather than
			// falling through to fetch the instruction after HALT.
			return 4, nil
		} else {
			ifReg := c.read8(0xFF0F) & 0x1F
			ie := c.read8(0xFFFF)
			if (ifReg & ie) != 0 {
				c.halted = false
			} else {
				return 4, nil
			}
		}
	}

	if c.IME {
		if cyc := serviceInterrupt(); cyc != 0 {
			return cyc, nil
		}
	}

	op := c.fetch8()
	switch op {
	case 0x00: // NOP
		return 4, nil

	// LD r,d8
	case 0x06:
		c.B = c.fetch8()
		return 8, nil
	case 0x0E:
		c.C = c.fetch8()
		return 8, nil
	case 0x16:
		c.D = c.fetch8()
		return 8, nil
	case 0x1E:
		c.E = c.fetch8()
		return 8, nil
	case 0x26:
		c.H = c.fetch8()
		return 8, nil
	case 0x2E:
		c.L = c.fetch8()
		return 8, nil
	case 0x3E:
		c.A = c.fetch8()
		return 8, nil

	// LD r,r' / LD (HL),r / LD r,(HL) / HALT (0x76 overlaps this block)
	case 0x40, 0x41, 0x42, 0x43, 0x44, 0x45, 0x46, 0x47,
		0x48, 0x49, 0x4A, 0x4B, 0x4C, 0x4D, 0x4E, 0x4F,
		0x50, 0x51, 0x52, 0x53, 0x54, 0x55, 0x56, 0x57,
		0x58, 0x59, 0x5A, 0x5B, 0x5C, 0x5D, 0x5E, 0x5F,
		0x60, 0x61, 0x62, 0x63, 0x64, 0x65, 0x66, 0x67,
		0x68, 0x69, 0x6A, 0x6B, 0x6C, 0x6D, 0x6E, 0x6F,
		0x70, 0x71, 0x72, 0x73, 0x74, 0x75, 0x77,
		0x78, 0x79, 0x7A, 0x7B, 0x7C, 0x7D, 0x7E, 0x7F:
		d := (op >> 3) & 7
		s := op & 7
		val := c.getReg(s)
		c.setReg(d, val)
		if d == 6 || s == 6 {
			return 8, nil
		}
		return 4, nil

	case 0x76: // HALT
		c.halted = true
		return 4, nil

	// 16-bit loads
	case 0x01:
		c.setBC(c.fetch16())
		return 12, nil
	case 0x11:
		c.setDE(c.fetch16())
		return 12, nil
	case 0x21:
		c.setHL(c.fetch16())
		return 12, nil
	case 0x31:
		c.SP = c.fetch16()
		return 12, nil
	case 0x08: // LD (a16),SP
		addr := c.fetch16()
		c.write16(addr, c.SP)
		return 20, nil

	case 0x36: // LD (HL),d8
		v := c.fetch8()
		c.write8(c.getHL(), v)
		return 12, nil

	case 0x02:
		c.write8(c.getBC(), c.A)
		return 8, nil
	case 0x12:
		c.write8(c.getDE(), c.A)
		return 8, nil
	case 0x0A:
		c.A = c.read8(c.getBC())
		return 8, nil
	case 0x1A:
		c.A = c.read8(c.getDE())
		return 8, nil

	case 0x22: // LD (HL+),A
		hl := c.getHL()
		c.write8(hl, c.A)
		c.setHL(hl + 1)
		return 8, nil
	case 0x2A: // LD A,(HL+)
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl + 1)
		return 8, nil
	case 0x32: // LD (HL-),A
		hl := c.getHL()
		c.write8(hl, c.A)
		c.setHL(hl - 1)
		return 8, nil
	case 0x3A: // LD A,(HL-)
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl - 1)
		return 8, nil

	case 0xE0: // LDH (a8),A
		n := uint16(c.fetch8())
		c.write8(0xFF00+n, c.A)
		return 12, nil
	case 0xF0: // LDH A,(a8)
		n := uint16(c.fetch8())
		c.A = c.read8(0xFF00 + n)
		return 12, nil
	case 0xE2: // LD (C),A
		c.write8(0xFF00+uint16(c.C), c.A)
		return 8, nil
	case 0xF2: // LD A,(C)
		c.A = c.read8(0xFF00 + uint16(c.C))
		return 8, nil

	case 0x07: // RLCA
		cval := (c.A >> 7) & 1
		c.A = (c.A << 1) | cval
		c.setZNHC(false, false, false, cval == 1)
		return 4, nil
	case 0x0F: // RRCA
		cval := c.A & 1
		c.A = (c.A >> 1) | (cval << 7)
		c.setZNHC(false, false, false, cval == 1)
		return 4, nil
	case 0x17: // RLA
		cval := (c.A >> 7) & 1
		carry := byte(0)
		if (c.F & flagC) != 0 {
			carry = 1
		}
		c.A = (c.A << 1) | carry
		c.setZNHC(false, false, false, cval == 1)
		return 4, nil
	case 0x1F: // RRA
		cval := c.A & 1
		carry := byte(0)
		if (c.F & flagC) != 0 {
			carry = 1
		}
		c.A = (c.A >> 1) | (carry << 7)
		c.setZNHC(false, false, false, cval == 1)
		return 4, nil

	case 0x27: // DAA: not implemented
		c.log.Errorf("cpu: DAA at PC=%04X not implemented", c.PC-1)
		c.err = gberr.New(gberr.NotImplemented, "cpu.Step", "DAA not implemented")
		return 4, c.err

	case 0x2F: // CPL
		c.A = ^c.A
		c.F = (c.F & (flagZ | flagC)) | flagN | flagH
		return 4, nil
	case 0x37: // SCF
		c.F = (c.F & flagZ) | flagC
		return 4, nil
	case 0x3F: // CCF
		carrySet := (c.F & flagC) != 0
		c.F = (c.F & flagZ)
		if !carrySet {
			c.F |= flagC
		}
		return 4, nil

	case 0x04:
		old := c.B
		c.B++
		c.setZNHC(c.B == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4, nil
	case 0x0C:
		old := c.C
		c.C++
		c.setZNHC(c.C == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4, nil
	case 0x14:
		old := c.D
		c.D++
		c.setZNHC(c.D == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4, nil
	case 0x1C:
		old := c.E
		c.E++
		c.setZNHC(c.E == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4, nil
	case 0x24:
		old := c.H
		c.H++
		c.setZNHC(c.H == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4, nil
	case 0x2C:
		old := c.L
		c.L++
		c.setZNHC(c.L == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4, nil
	case 0x3C:
		old := c.A
		c.A++
		c.setZNHC(c.A == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4, nil
	case 0x34: // INC (HL)
		addr := c.getHL()
		v := c.read8(addr)
		old := v
		v++
		c.write8(addr, v)
		c.setZNHC(v == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 12, nil

	case 0x05:
		old := c.B
		c.B--
		c.setZNHC(c.B == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4, nil
	case 0x0D:
		old := c.C
		c.C--
		c.setZNHC(c.C == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4, nil
	case 0x15:
		old := c.D
		c.D--
		c.setZNHC(c.D == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4, nil
	case 0x1D:
		old := c.E
		c.E--
		c.setZNHC(c.E == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4, nil
	case 0x25:
		old := c.H
		c.H--
		c.setZNHC(c.H == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4, nil
	case 0x2D:
		old := c.L
		c.L--
		c.setZNHC(c.L == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4, nil
	case 0x3D:
		old := c.A
		c.A--
		c.setZNHC(c.A == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4, nil
	case 0x35: // DEC (HL)
		addr := c.getHL()
		v := c.read8(addr)
		old := v
		v--
		c.write8(addr, v)
		c.setZNHC(v == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 12, nil

	// ALU r, (HL), and immediate forms
	case 0x80, 0x81, 0x82, 0x83, 0x84, 0x85, 0x86, 0x87, 0xC6:
		src := c.aluOperand(op, 0x80, 0xC6)
		r, z, n, h, cy := c.add8(c.A, src)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return c.aluCycles(op, 0x80, 0xC6), nil
	case 0x88, 0x89, 0x8A, 0x8B, 0x8C, 0x8D, 0x8E, 0x8F, 0xCE:
		src := c.aluOperand(op, 0x88, 0xCE)
		r, z, n, h, cy := c.adc8(c.A, src, (c.F&flagC) != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return c.aluCycles(op, 0x88, 0xCE), nil
	case 0x90, 0x91, 0x92, 0x93, 0x94, 0x95, 0x96, 0x97, 0xD6:
		src := c.aluOperand(op, 0x90, 0xD6)
		r, z, n, h, cy := c.sub8(c.A, src)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return c.aluCycles(op, 0x90, 0xD6), nil
	case 0x98, 0x99, 0x9A, 0x9B, 0x9C, 0x9D, 0x9E, 0x9F, 0xDE:
		src := c.aluOperand(op, 0x98, 0xDE)
		r, z, n, h, cy := c.sbc8(c.A, src, (c.F&flagC) != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return c.aluCycles(op, 0x98, 0xDE), nil
	case 0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5, 0xA6, 0xA7, 0xE6:
		src := c.aluOperand(op, 0xA0, 0xE6)
		r, z, n, h, cy := c.and8(c.A, src)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return c.aluCycles(op, 0xA0, 0xE6), nil
	case 0xA8, 0xA9, 0xAA, 0xAB, 0xAC, 0xAD, 0xAE, 0xAF, 0xEE:
		src := c.aluOperand(op, 0xA8, 0xEE)
		r, z, n, h, cy := c.xor8(c.A, src)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return c.aluCycles(op, 0xA8, 0xEE), nil
	case 0xB0, 0xB1, 0xB2, 0xB3, 0xB4, 0xB5, 0xB6, 0xB7, 0xF6:
		src := c.aluOperand(op, 0xB0, 0xF6)
		r, z, n, h, cy := c.or8(c.A, src)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return c.aluCycles(op, 0xB0, 0xF6), nil
	case 0xB8, 0xB9, 0xBA, 0xBB, 0xBC, 0xBD, 0xBE, 0xBF, 0xFE:
		src := c.aluOperand(op, 0xB8, 0xFE)
		z, n, h, cy := c.cp8(c.A, src)
		c.setZNHC(z, n, h, cy)
		return c.aluCycles(op, 0xB8, 0xFE), nil

	case 0xEA: // LD (a16),A
		addr := c.fetch16()
		c.write8(addr, c.A)
		return 16, nil
	case 0xFA: // LD A,(a16)
		addr := c.fetch16()
		c.A = c.read8(addr)
		return 16, nil

	case 0xC3: // JP a16
		c.PC = c.fetch16()
		return 16, nil
	case 0xE9: // JP (HL)
		c.PC = c.getHL()
		return 4, nil
	case 0x18: // JR r8
		off := int8(c.fetch8())
		c.PC = uint16(int32(c.PC) + int32(off))
		return 12, nil

	// JR cc,r8: fixed taken-branch cost (12) regardless of outcome.
	case 0x20:
		off := int8(c.fetch8())
		if (c.F & flagZ) == 0 {
			c.PC = uint16(int32(c.PC) + int32(off))
		}
		return 12, nil
	case 0x28:
		off := int8(c.fetch8())
		if (c.F & flagZ) != 0 {
			c.PC = uint16(int32(c.PC) + int32(off))
		}
		return 12, nil
	case 0x30:
		off := int8(c.fetch8())
		if (c.F & flagC) == 0 {
			c.PC = uint16(int32(c.PC) + int32(off))
		}
		return 12, nil
	case 0x38:
		off := int8(c.fetch8())
		if (c.F & flagC) != 0 {
			c.PC = uint16(int32(c.PC) + int32(off))
		}
		return 12, nil

	case 0xCD: // CALL a16
		addr := c.fetch16()
		c.push16(c.PC)
		c.PC = addr
		return 24, nil
	case 0xC9: // RET
		c.PC = c.pop16()
		return 16, nil
	case 0xD9: // RETI
		c.PC = c.pop16()
		c.IME = true
		return 16, nil

	case 0xC7:
		c.push16(c.PC)
		c.PC = 0x00
		return 16, nil
	case 0xCF:
		c.push16(c.PC)
		c.PC = 0x08
		return 16, nil
	case 0xD7:
		c.push16(c.PC)
		c.PC = 0x10
		return 16, nil
	case 0xDF:
		c.push16(c.PC)
		c.PC = 0x18
		return 16, nil
	case 0xE7:
		c.push16(c.PC)
		c.PC = 0x20
		return 16, nil
	case 0xEF:
		c.push16(c.PC)
		c.PC = 0x28
		return 16, nil
	case 0xF7:
		c.push16(c.PC)
		c.PC = 0x30
		return 16, nil
	case 0xFF:
		c.push16(c.PC)
		c.PC = 0x38
		return 16, nil

	// CALL cc,a16: fixed taken-branch cost (24) regardless of outcome.
	case 0xC4:
		addr := c.fetch16()
		if (c.F & flagZ) == 0 {
			c.push16(c.PC)
			c.PC = addr
		}
		return 24, nil
	case 0xCC:
		addr := c.fetch16()
		if (c.F & flagZ) != 0 {
			c.push16(c.PC)
			c.PC = addr
		}
		return 24, nil
	case 0xD4:
		addr := c.fetch16()
		if (c.F & flagC) == 0 {
			c.push16(c.PC)
			c.PC = addr
		}
		return 24, nil
	case 0xDC:
		addr := c.fetch16()
		if (c.F & flagC) != 0 {
			c.push16(c.PC)
			c.PC = addr
		}
		return 24, nil

	// RET cc: fixed taken-branch cost (20) regardless of outcome.
	case 0xC0:
		if (c.F & flagZ) == 0 {
			c.PC = c.pop16()
		}
		return 20, nil
	case 0xC8:
		if (c.F & flagZ) != 0 {
			c.PC = c.pop16()
		}
		return 20, nil
	case 0xD0:
		if (c.F & flagC) == 0 {
			c.PC = c.pop16()
		}
		return 20, nil
	case 0xD8:
		if (c.F & flagC) != 0 {
			c.PC = c.pop16()
		}
		return 20, nil

	// JP cc,a16: fixed taken-branch cost (16) regardless of outcome.
	case 0xC2:
		addr := c.fetch16()
		if (c.F & flagZ) == 0 {
			c.PC = addr
		}
		return 16, nil
	case 0xCA:
		addr := c.fetch16()
		if (c.F & flagZ) != 0 {
			c.PC = addr
		}
		return 16, nil
	case 0xD2:
		addr := c.fetch16()
		if (c.F & flagC) == 0 {
			c.PC = addr
		}
		return 16, nil
	case 0xDA:
		addr := c.fetch16()
		if (c.F & flagC) != 0 {
			c.PC = addr
		}
		return 16, nil

	case 0x03:
		c.setBC(c.getBC() + 1)
		return 8, nil
	case 0x13:
		c.setDE(c.getDE() + 1)
		return 8, nil
	case 0x23:
		c.setHL(c.getHL() + 1)
		return 8, nil
	case 0x33:
		c.SP++
		return 8, nil
	case 0x0B:
		c.setBC(c.getBC() - 1)
		return 8, nil
	case 0x1B:
		c.setDE(c.getDE() - 1)
		return 8, nil
	case 0x2B:
		c.setHL(c.getHL() - 1)
		return 8, nil
	case 0x3B:
		c.SP--
		return 8, nil

	case 0x09: // ADD HL,BC
		c.addHL(c.getBC())
		return 8, nil
	case 0x19: // ADD HL,DE
		c.addHL(c.getDE())
		return 8, nil
	case 0x29: // ADD HL,HL
		c.addHL(c.getHL())
		return 8, nil
	case 0x39: // ADD HL,SP
		c.addHL(c.SP)
		return 8, nil

	case 0xF8: // LD HL,SP+r8
		off := int8(c.fetch8())
		res := uint16(int32(int16(c.SP)) + int32(off))
		low := byte(c.SP & 0xFF)
		_, _, _, h, cy := c.add8(low, byte(off))
		c.setHL(res)
		c.setZNHC(false, false, h, cy)
		return 12, nil
	case 0xF9: // LD SP,HL
		c.SP = c.getHL()
		return 8, nil
	case 0xE8: // ADD SP,r8
		off := int8(c.fetch8())
		low := byte(c.SP & 0xFF)
		_, _, _, h, cy := c.add8(low, byte(off))
		c.SP = uint16(int32(int16(c.SP)) + int32(off))
		c.setZNHC(false, false, h, cy)
		return 16, nil

	case 0xF3: // DI
		c.IME = false
		c.eiDelay = 0
		return 4, nil
	case 0xFB: // EI
		c.eiDelay = 2
		return 4, nil

	case 0x10: // STOP: not implemented
		c.fetch8() // STOP's mandatory padding byte
		c.log.Errorf("cpu: STOP at PC=%04X not implemented", c.PC-2)
		c.err = gberr.New(gberr.NotImplemented, "cpu.Step", "STOP not implemented")
		return 4, c.err

	case 0xCB:
		return c.stepCB(), nil

	case 0xF5:
		c.push16(c.getAF())
		return 16, nil
	case 0xC5:
		c.push16(c.getBC())
		return 16, nil
	case 0xD5:
		c.push16(c.getDE())
		return 16, nil
	case 0xE5:
		c.push16(c.getHL())
		return 16, nil
	case 0xF1:
		c.setAF(c.pop16())
		return 12, nil
	case 0xC1:
		c.setBC(c.pop16())
		return 12, nil
	case 0xD1:
		c.setDE(c.pop16())
		return 12, nil
	case 0xE1:
		c.setHL(c.pop16())
		return 12, nil

	// Reserved opcodes: real hardware locks up executing any of these.
	case 0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD:
		c.log.Errorf("cpu: reserved opcode %02X executed at PC=%04X", op, c.PC-1)
		c.err = gberr.New(gberr.IllegalOpcode, "cpu.Step", "reserved opcode executed")
		return 4, c.err

	default:
		c.log.Errorf("cpu: unhandled opcode %02X at PC=%04X", op, c.PC-1)
		c.err = gberr.New(gberr.IllegalOpcode, "cpu.Step", "unhandled opcode")
		return 4, c.err
	}
}

// aluOperand returns the right-hand operand for an ALU opcode whose
// register form starts at regBase (the 0x-- case with reg index 0 in bits
// 0-2) and whose immediate form is immOp.
func (c *CPU) aluOperand(op, regBase, immOp byte) byte {
	if op == immOp {
		return c.fetch8()
	}
	return c.getReg(op - regBase)
}

func (c *CPU) aluCycles(op, regBase, immOp byte) int {
	switch {
	case op == immOp:
		return 8
	case op-regBase == 6: // (HL)
		return 8
	default:
		return 4
	}
}

func (c *CPU) addHL(rr uint16) {
	hl := c.getHL()
	r := uint32(hl) + uint32(rr)
	h := ((hl & 0x0FFF) + (rr & 0x0FFF)) > 0x0FFF
	c.setHL(uint16(r))
	c.setZNHC((c.F&flagZ) != 0, false, h, r > 0xFFFF)
}

// stepCB decodes and executes a CB-prefixed opcode, already having consumed
// the 0xCB byte; the second byte is fetched here.
func (c *CPU) stepCB() int {
	cb := c.fetch8()
	reg := cb & 7
	opg := (cb >> 6) & 3
	y := (cb >> 3) & 7

	cycles := 8
	if reg == 6 {
		cycles = 16
	}

	switch opg {
	case 0: // rotate/shift/swap
		v := c.getReg(reg)
		var cflag byte
		switch y {
		case 0: // RLC
			cflag = (v >> 7) & 1
			v = (v << 1) | cflag
			c.setZNHC(v == 0, false, false, cflag == 1)
		case 1: // RRC
			cflag = v & 1
			v = (v >> 1) | (cflag << 7)
			c.setZNHC(v == 0, false, false, cflag == 1)
		case 2: // RL
			cflag = (v >> 7) & 1
			cin := byte(0)
			if (c.F & flagC) != 0 {
				cin = 1
			}
			v = (v << 1) | cin
			c.setZNHC(v == 0, false, false, cflag == 1)
		case 3: // RR
			cflag = v & 1
			cin := byte(0)
			if (c.F & flagC) != 0 {
				cin = 1
			}
			v = (v >> 1) | (cin << 7)
			c.setZNHC(v == 0, false, false, cflag == 1)
		case 4: // SLA
			cflag = (v >> 7) & 1
			v <<= 1
			c.setZNHC(v == 0, false, false, cflag == 1)
		case 5: // SRA
			cflag = v & 1
			v = (v >> 1) | (v & 0x80)
			c.setZNHC(v == 0, false, false, cflag == 1)
		case 6: // SWAP
			v = (v << 4) | (v >> 4)
			c.setZNHC(v == 0, false, false, false)
		case 7: // SRL
			cflag = v & 1
			v >>= 1
			c.setZNHC(v == 0, false, false, cflag == 1)
		}
		c.setReg(reg, v)

	case 1: // BIT y,r: Z reflects bit, N=0, H=1, C unchanged
		v := c.getReg(reg)
		bit := (v >> y) & 1
		c.F = (c.F & flagC) | flagH
		if bit == 0 {
			c.F |= flagZ
		}
		if reg == 6 {
			return 12 // BIT y,(HL) is cheaper than RES/SET/rotate on (HL)
		}

	case 2: // RES y,r
		v := c.getReg(reg)
		c.setReg(reg, v&^(1<<y))

	case 3: // SET y,r
		v := c.getReg(reg)
		c.setReg(reg, v|(1<<y))
	}
	return cycles
}
