// Package ui provides a minimal ebiten front-end: window creation, input
// polling, and an implementation of internal/display.Display backed by an
// *ebiten.Image. It deliberately omits a menu system, save-state slots,
// audio mixing/buffering, and shell-overlay skinning: sound and save states
// are out of scope, and the rest is GUI chrome with no emulation component
// behind it; see DESIGN.md.
package ui

import (
	"image/color"

	"github.com/dmgcore/gbcore/internal/display"
	"github.com/dmgcore/gbcore/internal/gameboy"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// App drives a *gameboy.Machine inside an ebiten window, and is itself the
// Display the Machine's LCD controller draws into.
type App struct {
	cfg Config
	m   *gameboy.Machine

	tex    *ebiten.Image
	pix    []byte // packed RGBA, written by DrawPixel/Fill and blitted in Draw
	paused bool
}

// NewApp wires an App around an already-constructed Machine, sets the
// window title/size, and attaches itself as the Machine's display.
func NewApp(cfg Config, m *gameboy.Machine) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(display.Width*cfg.Scale, display.Height*cfg.Scale)
	a := &App{cfg: cfg, m: m, pix: make([]byte, display.Width*display.Height*4)}
	if m != nil {
		m.SetDisplay(a)
	}
	return a
}

// Run starts the ebiten game loop.
func (a *App) Run() error { return ebiten.RunGame(a) }

// DrawPixel implements display.Display.
func (a *App) DrawPixel(x, y int, c uint32) {
	if x < 0 || x >= display.Width || y < 0 || y >= display.Height {
		return
	}
	i := (y*display.Width + x) * 4
	a.pix[i+0] = byte(c >> 24)
	a.pix[i+1] = byte(c >> 16)
	a.pix[i+2] = byte(c >> 8)
	a.pix[i+3] = byte(c)
}

// Fill implements display.Display.
func (a *App) Fill(c uint32) {
	for y := 0; y < display.Height; y++ {
		for x := 0; x < display.Width; x++ {
			a.DrawPixel(x, y, c)
		}
	}
}

// Present implements display.Display; the actual blit happens in Draw, so
// this is a no-op.
func (a *App) Present() {}

func (a *App) Update() error {
	var btn gameboy.Buttons
	if !a.paused {
		if ebiten.IsKeyPressed(ebiten.KeyRight) {
			btn.Right = true
		}
		if ebiten.IsKeyPressed(ebiten.KeyLeft) {
			btn.Left = true
		}
		if ebiten.IsKeyPressed(ebiten.KeyUp) {
			btn.Up = true
		}
		if ebiten.IsKeyPressed(ebiten.KeyDown) {
			btn.Down = true
		}
		if ebiten.IsKeyPressed(ebiten.KeyZ) {
			btn.A = true
		}
		if ebiten.IsKeyPressed(ebiten.KeyX) {
			btn.B = true
		}
		if ebiten.IsKeyPressed(ebiten.KeyEnter) {
			btn.Start = true
		}
		if ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
			btn.Select = true
		}
	}
	if a.m != nil {
		a.m.SetButtons(btn)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) && a.paused {
		return a.m.RunFrame()
	}

	if a.paused || a.m == nil {
		return nil
	}
	return a.m.RunFrame()
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(display.Width, display.Height)
	}
	a.tex.WritePixels(a.pix)
	screen.DrawImage(a.tex, nil)
	if a.paused {
		overlay := ebiten.NewImage(display.Width, display.Height)
		overlay.Fill(color.RGBA{0, 0, 0, 90})
		screen.DrawImage(overlay, nil)
	}
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return display.Width, display.Height
}
