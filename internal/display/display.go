// Package display defines the pixel sink the LCD controller draws into.
// The framebuffer lives outside the core's own state: the controller never
// owns a pixel buffer directly, it only ever calls out to whatever Display
// the front-end supplied.
package display

// Display is a 160x144 RGBA surface the LCD controller rasterizes into.
type Display interface {
	// DrawPixel sets the pixel at (x, y) to color, an 0xRRGGBBAA value.
	DrawPixel(x, y int, color uint32)
	// Fill sets every pixel to color, used when the display is switched off.
	Fill(color uint32)
	// Present marks the current frame as complete, once per VBLANK entry.
	Present()
}

// Width and Height are the DMG's fixed screen dimensions.
const (
	Width  = 160
	Height = 144
)

// FrameBuffer is an in-memory Display backed by a packed RGBA byte slice,
// for headless driving (cmd/gbemu -headless, cmd/cpurunner, blargg-style
// conformance tests) where no windowing toolkit is attached.
type FrameBuffer struct {
	pix      []byte // RGBA, Width*Height*4
	presents int
}

// NewFrameBuffer allocates a zeroed 160x144 RGBA buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{pix: make([]byte, Width*Height*4)}
}

func (f *FrameBuffer) DrawPixel(x, y int, color uint32) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	i := (y*Width + x) * 4
	f.pix[i+0] = byte(color >> 24)
	f.pix[i+1] = byte(color >> 16)
	f.pix[i+2] = byte(color >> 8)
	f.pix[i+3] = byte(color)
}

func (f *FrameBuffer) Fill(color uint32) {
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			f.DrawPixel(x, y, color)
		}
	}
}

func (f *FrameBuffer) Present() { f.presents++ }

// Pix returns the live packed RGBA buffer that DrawPixel and Fill write
// into. It is not copied on Present: it holds the last presented frame
// only until the next scanline is drawn.
func (f *FrameBuffer) Pix() []byte { return f.pix }

// Presents reports how many frames have been presented so far.
func (f *FrameBuffer) Presents() int { return f.presents }
