package sunxigfx

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/flavioheleno/sunxigfx/argb8888"
	"periph.io/x/conn/v3/display"
)

var _ display.Drawer = (*Dev)(nil)

// ColorModel returns the color model of the sprite layer.
func (d *Dev) ColorModel() color.Model {
	return argb8888.Model
}

// Draw draws src into the primary slot, which the sprite blocks scan out.
// The dst rectangle is clipped to the screen.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	front, err := d.slotImage(d.primary)
	if err != nil {
		return err
	}
	dst = dst.Intersect(front.Rect)
	if dst.Empty() {
		return nil
	}
	draw.Draw(front, dst, src, sp, draw.Src)
	return nil
}

// Back returns the secondary slot as an image. Drawing into it does not
// change the screen until Flush.
func (d *Dev) Back() (*argb8888.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.slotImage(d.secondary)
}

// Flush copies the part of the secondary slot that differs from the primary
// slot into the primary slot. It returns the copied rectangle, which is empty
// when both slots already match.
func (d *Dev) Flush() (image.Rectangle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	front, err := d.slotImage(d.primary)
	if err != nil {
		return image.Rectangle{}, err
	}
	back, err := d.slotImage(d.secondary)
	if err != nil {
		return image.Rectangle{}, err
	}

	r := diffRect(front, back)
	if r.Empty() {
		return r, nil
	}
	copyRect(front, back, r)
	return r, nil
}

func (d *Dev) slotImage(s Slot) (*argb8888.Image, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if d.geo.BitsPerPixel != 8*argb8888.BytesPerPixel {
		return nil, fmt.Errorf("%w: %d bits per pixel, pixel access needs 32", ErrFormat, d.geo.BitsPerPixel)
	}
	if n := d.geo.Width * argb8888.BytesPerPixel; d.geo.LineLength != 0 && d.geo.LineLength != n {
		return nil, fmt.Errorf("%w: %d byte scanlines, pixel access needs packed rows of %d", ErrFormat, d.geo.LineLength, n)
	}
	return argb8888.Wrap(s.Mem, d.Bounds())
}

// diffRect returns the bounding rectangle of the pixels that differ between
// a and b, which must have the same bounds.
func diffRect(a, b *argb8888.Image) image.Rectangle {
	width := a.Rect.Dx()
	height := a.Rect.Dy()
	rowLen := width * argb8888.BytesPerPixel

	minRow, maxRow := height, -1
	minCol, maxCol := width, -1

	for y := 0; y < height; y++ {
		ra := a.Pix[y*a.Stride : y*a.Stride+rowLen]
		rb := b.Pix[y*b.Stride : y*b.Stride+rowLen]
		if bytes.Equal(ra, rb) {
			continue
		}
		if y < minRow {
			minRow = y
		}
		maxRow = y

		// Narrow down the columns within this row
		for x := 0; x < width; x++ {
			i := x * argb8888.BytesPerPixel
			if !bytes.Equal(ra[i:i+4], rb[i:i+4]) {
				if x < minCol {
					minCol = x
				}
				break
			}
		}
		for x := width - 1; x > maxCol; x-- {
			i := x * argb8888.BytesPerPixel
			if !bytes.Equal(ra[i:i+4], rb[i:i+4]) {
				maxCol = x
				break
			}
		}
	}

	if maxRow < 0 {
		return image.Rectangle{}
	}
	return image.Rect(minCol, minRow, maxCol+1, maxRow+1).Add(a.Rect.Min)
}

// copyRect copies r from src to dst row by row.
func copyRect(dst, src *argb8888.Image, r image.Rectangle) {
	n := r.Dx() * argb8888.BytesPerPixel
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := dst.PixOffset(r.Min.X, y)
		j := src.PixOffset(r.Min.X, y)
		copy(dst.Pix[i:i+n], src.Pix[j:j+n])
	}
}
