// Package gameboy wires a cartridge, bus, and CPU into a runnable machine
// and drives it frame by frame: the real cartridge->bus->CPU/LCD pipeline.
package gameboy

import (
	"io"
	"os"
	"time"

	"github.com/dmgcore/gbcore/internal/bus"
	"github.com/dmgcore/gbcore/internal/cart"
	"github.com/dmgcore/gbcore/internal/cpu"
	"github.com/dmgcore/gbcore/internal/display"
	"github.com/dmgcore/gbcore/internal/gblog"
)

// cyclesPerSecond is the DMG's fixed CPU clock, used to pace RunFrame when
// Config.LimitFPS throttles emulation to real time.
const cyclesPerSecond = 4194304.0

// cyclesPerFrame is the cycle count between successive VBlank entries.
const cyclesPerFrame = 70224.0

// Buttons is the set of eight DMG joypad inputs, passed through verbatim to
// the bus's JOYP register.
type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

func (b Buttons) mask() byte {
	var m byte
	if b.Right {
		m |= bus.JoypRight
	}
	if b.Left {
		m |= bus.JoypLeft
	}
	if b.Up {
		m |= bus.JoypUp
	}
	if b.Down {
		m |= bus.JoypDown
	}
	if b.A {
		m |= bus.JoypA
	}
	if b.B {
		m |= bus.JoypB
	}
	if b.Select {
		m |= bus.JoypSelectBtn
	}
	if b.Start {
		m |= bus.JoypStart
	}
	return m
}

// Machine owns one loaded cartridge's worth of emulation state: a Bus, a
// CPU, and the Display the LCD controller rasterizes into.
type Machine struct {
	cfg     Config
	disp    display.Display
	bus     *bus.Bus
	cpu     *cpu.CPU
	romPath string
	log     gblog.Logger

	lastFrame time.Time
}

// New creates a Machine with no cartridge loaded yet. Call SetDisplay
// before LoadCartridge if a display is wanted (nil is valid for headless
// conformance runs that only inspect serial output).
func New(cfg Config) *Machine {
	return &Machine{cfg: cfg, log: gblog.NewNull()}
}

// SetLogger attaches l as the destination for Config.Trace's per-instruction
// log lines. Defaults to a no-op logger.
func (m *Machine) SetLogger(l gblog.Logger) {
	if l != nil {
		m.log = l
	}
}

// SetDisplay attaches the pixel sink the LCD controller draws into. Must be
// called before LoadCartridge/LoadROMFromFile to take effect.
func (m *Machine) SetDisplay(d display.Display) { m.disp = d }

// LoadCartridge replaces the current cartridge and resets the CPU. boot, if
// at least 256 bytes, is mapped at 0x0000 until the cartridge's own code
// disables it via FF50; otherwise the CPU starts at the typical post-boot
// DMG state.
func (m *Machine) LoadCartridge(rom []byte, boot []byte) error {
	c := cart.NewCartridge(rom)
	b := bus.NewWithCartridge(c, m.disp)

	if len(boot) >= 0x100 {
		b.SetBootROM(boot)
	}

	cp := cpu.New(b)
	if len(boot) >= 0x100 {
		cp.SetPC(0x0000)
	} else {
		cp.ResetNoBoot()
		cp.SetPC(0x0100)
		postBootIO(b)
	}

	b.SetLogger(m.log)
	cp.SetLogger(m.log)

	m.bus = b
	m.cpu = cp
	m.lastFrame = time.Time{}
	return nil
}

// postBootIO applies the typical DMG post-boot-ROM register state when a
// ROM is started directly at 0x0100 without running the real boot ROM.
func postBootIO(b *bus.Bus) {
	_ = b.Write8(0xFF00, 0xCF)
	_ = b.Write8(0xFF05, 0x00)
	_ = b.Write8(0xFF06, 0x00)
	_ = b.Write8(0xFF07, 0x00)
	_ = b.Write8(0xFF40, 0x91)
	_ = b.Write8(0xFF42, 0x00)
	_ = b.Write8(0xFF43, 0x00)
	_ = b.Write8(0xFF45, 0x00)
	_ = b.Write8(0xFF47, 0xFC)
	_ = b.Write8(0xFF48, 0xFF)
	_ = b.Write8(0xFF49, 0xFF)
	_ = b.Write8(0xFF4A, 0x00)
	_ = b.Write8(0xFF4B, 0x00)
	_ = b.Write8(0xFFFF, 0x00)
}

// LoadROMFromFile reads path and loads it as the cartridge, recording path
// so front-ends can derive sibling files (e.g. a save path) from it.
func (m *Machine) LoadROMFromFile(path string) error {
	rom, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := m.LoadCartridge(rom, nil); err != nil {
		return err
	}
	m.romPath = path
	return nil
}

// ROMPath returns the path passed to the most recent LoadROMFromFile call,
// or SetROMPath.
func (m *Machine) ROMPath() string { return m.romPath }

// SetROMPath records path for front-ends that load a cartridge through
// LoadCartridge (e.g. because they also supply a boot ROM) but still want
// ROMPath to reflect the source file.
func (m *Machine) SetROMPath(path string) { m.romPath = path }

// SetSerialWriter attaches a sink for bytes written through SB/SC, useful
// for blargg-style test ROMs that report pass/fail over the serial port.
func (m *Machine) SetSerialWriter(w io.Writer) {
	if m.bus != nil {
		m.bus.SetSerialWriter(w)
	}
}

// SetButtons updates which joypad buttons are currently held.
func (m *Machine) SetButtons(b Buttons) {
	if m.bus != nil {
		m.bus.SetJoypadState(b.mask())
	}
}

// CPU exposes the underlying CPU for tools that want register-level access
// (tracing, debugging).
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

// Bus exposes the underlying bus for tools that want direct register access.
func (m *Machine) Bus() *bus.Bus { return m.bus }

// RunFrame steps the CPU, which in turn drives the LCD controller and the
// ambient I/O subsystems (timers, OAM DMA) via its per-Step bus.Tick call,
// until a complete frame (70224 cycles' worth of LCD-controller transitions)
// has been presented. Any error a Step returns is fatal: RunFrame stops
// immediately and propagates it rather than trying to resynchronize. If
// Config.LimitFPS is set, RunFrame sleeps off whatever time remains in the
// ~59.7275 Hz DMG frame period before returning, so a tight caller loop
// doesn't outrun real hardware speed. cmd/gbemu sets LimitFPS only for the
// windowed front-end; headless runs leave it off and run flat out.
func (m *Machine) RunFrame() error {
	for {
		if m.cfg.Trace {
			m.log.Debugf("cpu: PC=%04X OP=%02X", m.cpu.PC, m.cpu.PeekOpcode())
		}
		_, err := m.cpu.Step()
		if err != nil {
			return err
		}
		if m.cpu.FrameReady() {
			break
		}
	}
	if m.cfg.LimitFPS {
		m.throttle()
	}
	return nil
}

// throttle sleeps off whatever wall-clock time remains in a DMG frame
// period, measuring elapsed time since the previous RunFrame return rather
// than assuming the caller invokes RunFrame back to back with no other work.
func (m *Machine) throttle() {
	frameSecs := cyclesPerFrame / cyclesPerSecond
	frameDur := time.Duration(frameSecs * float64(time.Second))
	now := time.Now()
	if !m.lastFrame.IsZero() {
		elapsed := now.Sub(m.lastFrame)
		if remaining := frameDur - elapsed; remaining > 0 {
			time.Sleep(remaining)
			now = time.Now()
		}
	}
	m.lastFrame = now
}
