package argb8888

import (
	"errors"
	"image"
	"image/color"
)

// BytesPerPixel is the size of one ARGB8888 pixel.
const BytesPerPixel = 4

// ARGB is a non-premultiplied 32-bit color.
type ARGB struct {
	A, R, G, B uint8
}

// RGBA returns the alpha-premultiplied 16-bit channels.
func (c ARGB) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}.RGBA()
}

// Word returns the color as the 0xAARRGGBB word stored in video memory.
func (c ARGB) Word() uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func toARGB(c color.Color) color.Color {
	if v, ok := c.(ARGB); ok {
		return v
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return ARGB{A: n.A, R: n.R, G: n.G, B: n.B}
}

// Model converts colors to ARGB.
var Model = color.ModelFunc(toARGB)

// Image is an ARGB8888 image.
type Image struct {
	Pix    []byte          // Pixel data, 4 bytes per pixel in B, G, R, A order
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
}

// New allocates an ARGB8888 image with the given bounds.
func New(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &Image{Rect: r}
	}
	return &Image{
		Pix:    make([]byte, w*h*BytesPerPixel),
		Stride: w * BytesPerPixel,
		Rect:   r,
	}
}

// Wrap returns an image backed by pix without copying it. Rows are packed,
// so pix must hold at least r.Dx()*r.Dy()*4 bytes.
func Wrap(pix []byte, r image.Rectangle) (*Image, error) {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return nil, errors.New("argb8888: empty bounds")
	}
	n := w * h * BytesPerPixel
	if len(pix) < n {
		return nil, errors.New("argb8888: buffer too small")
	}
	return &Image{Pix: pix[:n:n], Stride: w * BytesPerPixel, Rect: r}, nil
}

// ColorModel returns Model.
func (p *Image) ColorModel() color.Model {
	return Model
}

// Bounds returns the image bounds.
func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the color of the pixel at (x, y).
func (p *Image) At(x, y int) color.Color {
	return p.ARGBAt(x, y)
}

// ARGBAt returns the ARGB color of the pixel at (x, y).
func (p *Image) ARGBAt(x, y int) ARGB {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return ARGB{}
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+4 : i+4]
	return ARGB{B: s[0], G: s[1], R: s[2], A: s[3]}
}

// Set sets the color of the pixel at (x, y).
func (p *Image) Set(x, y int, c color.Color) {
	p.SetARGB(x, y, Model.Convert(c).(ARGB))
}

// SetARGB sets the pixel at (x, y) without color conversion.
func (p *Image) SetARGB(x, y int, c ARGB) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+4 : i+4]
	s[0] = c.B
	s[1] = c.G
	s[2] = c.R
	s[3] = c.A
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*BytesPerPixel
}

// Fill sets every pixel to c.
func (p *Image) Fill(c ARGB) {
	w := p.Rect.Dx()
	if w <= 0 || p.Rect.Dy() <= 0 {
		return
	}
	row := p.Pix[:w*BytesPerPixel]
	for x := 0; x < w; x++ {
		row[x*4] = c.B
		row[x*4+1] = c.G
		row[x*4+2] = c.R
		row[x*4+3] = c.A
	}
	for y := 1; y < p.Rect.Dy(); y++ {
		copy(p.Pix[y*p.Stride:y*p.Stride+len(row)], row)
	}
}
