// Package ppu implements the LCD controller: a four-state pixel-pipeline
// state machine advanced by elapsed CPU cycles, driving background
// rasterization into a display.Display and raising VBLANK/LCDC-STAT
// interrupts through an InterruptRequester callback.
package ppu

import (
	"github.com/dmgcore/gbcore/internal/display"
	"github.com/dmgcore/gbcore/internal/ioregs"
)

// InterruptRequester requests that IF bit be set (0 VBlank, 1 LCDC-STAT).
type InterruptRequester func(bit int)

// background palette, index 0..3, as 0xRRGGBBAA values.
var bgPalette = [4]uint32{0xDDFFDDFF, 0x99BB99FF, 0x446644FF, 0x002200FF}

// Mode durations in CPU cycles, one per mode (see modeDuration).
const (
	durationOAM    = 80
	durationVRAM   = 172
	durationHBlank = 204
	durationVBlank = 456
)

// PPU holds VRAM/OAM, the LCD register file, and the mode FSM's running
// cycle counter.
type PPU struct {
	vram [0x2000]byte // 0x8000-0x9FFF
	oam  [0xA0]byte   // 0xFE00-0xFE9F

	regs ioregs.LCD

	ticks int // cycles accumulated in the current mode
	disp  display.Display
	req   InterruptRequester
}

// New constructs a controller that draws into disp and requests interrupts
// through req. disp may be nil for headless CPU-only use (cmd/cpurunner).
// LCDC starts at 0 (display off), so the controller starts in the same
// state a display-off write leaves it in: LY 0, mode HBlank. Switching the
// display on moves it to OAM_READ.
func New(disp display.Display, req InterruptRequester) *PPU {
	p := &PPU{disp: disp, req: req, regs: ioregs.NewLCD()}
	p.regs.SetMode(ioregs.ModeHBlank)
	return p
}

// CPURead returns VRAM, OAM, and LCD register bytes as the CPU observes
// them: VRAM is inaccessible during mode 3, OAM during modes 2 and 3.
func (p *PPU) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if p.regs.Mode() == ioregs.ModeVRAM {
			return 0xFF
		}
		return p.vram[addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m := p.regs.Mode()
		if m == ioregs.ModeOAM || m == ioregs.ModeVRAM {
			return 0xFF
		}
		return p.oam[addr-0xFE00]
	case addr == 0xFF40:
		return p.regs.Lcdc
	case addr == 0xFF41:
		return p.regs.ReadStat()
	case addr == 0xFF42:
		return p.regs.Scy
	case addr == 0xFF43:
		return p.regs.Scx
	case addr == 0xFF44:
		return p.regs.Ly.Val()
	case addr == 0xFF45:
		return p.regs.Lyc
	case addr == 0xFF47:
		return p.regs.Bgp
	case addr == 0xFF48:
		return p.regs.Obp0
	case addr == 0xFF49:
		return p.regs.Obp1
	case addr == 0xFF4A:
		return p.regs.Wy
	case addr == 0xFF4B:
		return p.regs.Wx
	default:
		return 0xFF
	}
}

// CPUWrite writes VRAM, OAM, and LCD register bytes, respecting the same
// access-window gating CPURead enforces.
func (p *PPU) CPUWrite(addr uint16, value byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if p.regs.Mode() == ioregs.ModeVRAM {
			return
		}
		p.vram[addr-0x8000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m := p.regs.Mode()
		if m == ioregs.ModeOAM || m == ioregs.ModeVRAM {
			return
		}
		p.oam[addr-0xFE00] = value
	case addr == 0xFF40:
		prev := p.regs.Lcdc
		p.regs.Lcdc = value
		if !p.regs.DisplayOn() && (prev&0x80) != 0 {
			p.regs.Ly.Set(0)
			p.ticks = 0
			p.regs.SetMode(ioregs.ModeHBlank)
			p.regs.UpdateLYC()
		} else if p.regs.DisplayOn() && (prev&0x80) == 0 {
			p.regs.Ly.Set(0)
			p.ticks = 0
			p.regs.SetMode(ioregs.ModeOAM)
			p.regs.UpdateLYC()
		}
	case addr == 0xFF41:
		p.regs.WriteStat(value)
	case addr == 0xFF42:
		p.regs.Scy = value
	case addr == 0xFF43:
		p.regs.Scx = value
	case addr == 0xFF44:
		// LY is read-only on real hardware; writes have no effect.
	case addr == 0xFF45:
		p.regs.Lyc = value
		if p.regs.UpdateLYC() && p.req != nil {
			p.req(ioregs.IntLCDStat)
		}
	case addr == 0xFF47:
		p.regs.Bgp = value
	case addr == 0xFF48:
		p.regs.Obp0 = value
	case addr == 0xFF49:
		p.regs.Obp1 = value
	case addr == 0xFF4A:
		p.regs.Wy = value
	case addr == 0xFF4B:
		p.regs.Wx = value
	}
}

// Update advances the controller by ticks CPU cycles, iterating through as
// many mode transitions as the budget covers rather than stopping after one
// — a tick batch larger than the shortest mode duration (80 cycles) would
// otherwise fall behind. Reports whether a VBLANK (frame-complete) entry
// occurred during this call.
func (p *PPU) Update(ticks int) (frameReady bool) {
	if ticks <= 0 {
		return false
	}
	p.ticks += ticks
	for {
		budget := p.modeDuration()
		if p.ticks < budget {
			return frameReady
		}
		p.ticks -= budget
		if p.transition() {
			frameReady = true
		}
	}
}

func (p *PPU) modeDuration() int {
	switch p.regs.Mode() {
	case ioregs.ModeOAM:
		return durationOAM
	case ioregs.ModeVRAM:
		return durationVRAM
	case ioregs.ModeHBlank:
		return durationHBlank
	default: // ModeVBlank
		return durationVBlank
	}
}

// transition runs the exit action for the current mode and advances to the
// next one, reporting whether a frame was just presented.
func (p *PPU) transition() (framePresented bool) {
	switch p.regs.Mode() {
	case ioregs.ModeOAM:
		if p.regs.DisplayOn() {
			p.rasterizeScanline()
		}
		p.regs.SetMode(ioregs.ModeVRAM)

	case ioregs.ModeVRAM:
		if p.regs.HBlankIntEnabled() && p.req != nil {
			p.req(ioregs.IntLCDStat)
		}
		p.incLy()
		p.raiseLYCIfMatched()
		p.regs.SetMode(ioregs.ModeHBlank)

	case ioregs.ModeHBlank:
		if p.regs.Ly.Val() == 144 {
			if p.req != nil {
				p.req(ioregs.IntVBlank)
			}
			if p.regs.VBlankStatIntEnabled() && p.req != nil {
				p.req(ioregs.IntLCDStat)
			}
			if !p.regs.DisplayOn() && p.disp != nil {
				p.disp.Fill(bgPalette[3])
			}
			if p.disp != nil {
				p.disp.Present()
			}
			framePresented = true
			p.regs.SetMode(ioregs.ModeVBlank)
		} else {
			if p.regs.OAMIntEnabled() && p.req != nil {
				p.req(ioregs.IntLCDStat)
			}
			p.regs.SetMode(ioregs.ModeOAM)
		}

	case ioregs.ModeVBlank:
		if p.regs.Ly.Val() == 153 {
			p.regs.Ly.Set(0)
			p.regs.SetMode(ioregs.ModeOAM)
		} else {
			p.incLy()
		}
		p.raiseLYCIfMatched()
	}
	return framePresented
}

// incLy advances Ly by one within its 0..153 cell ceiling. Callers are
// responsible for wrapping at 153 themselves since Load rejects 154.
func (p *PPU) incLy() {
	_ = p.regs.Ly.Load(int(p.regs.Ly.Val()) + 1)
}

func (p *PPU) raiseLYCIfMatched() {
	if p.regs.UpdateLYC() && p.req != nil {
		p.req(ioregs.IntLCDStat)
	}
}

// rasterizeScanline draws the background for the current LY: map lookup,
// tile-data select, two-bitplane decode, BGP palette mapping, one
// display.DrawPixel call per column.
func (p *PPU) rasterizeScanline() {
	if p.disp == nil || !p.regs.BGAndWindowOn() {
		return
	}
	ly := int(p.regs.Ly.Val())
	y := (ly + int(p.regs.Scy)) & 0xFF
	mapBase := 0x1800
	if p.regs.BGTileMapSelect() {
		mapBase += 0x400
	}
	mapBase += (y >> 3) << 5

	for x := 0; x < display.Width; x++ {
		xp := (x + int(p.regs.Scx)) & 0xFF
		tileBit := uint(7 - (xp & 7))
		tileNo := int(p.vram[mapBase+(xp>>3)])
		if tileNo < 0x80 && !p.regs.BGTileDataSelect() {
			tileNo += 0x80
		}
		tileAddr := tileNo*16 + (y&7)*2
		plane0 := p.vram[tileAddr]
		plane1 := p.vram[tileAddr+1]
		paletteIndex := (bit(plane1, tileBit) << 1) | bit(plane0, tileBit)
		colorIndex := (p.regs.Bgp >> (paletteIndex * 2)) & 0x03
		p.disp.DrawPixel(x, ly, bgPalette[colorIndex])
	}
}

func bit(v byte, n uint) byte {
	return (v >> n) & 1
}

// LY reports the current scanline, 0..153.
func (p *PPU) LY() byte { return p.regs.Ly.Val() }

// Mode reports the current LCD mode (ioregs.Mode*).
func (p *PPU) Mode() byte { return p.regs.Mode() }
