package sunxigfx

import (
	"errors"
	"fmt"
)

// Geometry is the screen geometry and video memory window reported by the
// framebuffer device.
type Geometry struct {
	Width, Height int // visible resolution in pixels
	BitsPerPixel  int
	LineLength    int     // bytes per scanline as reported by the driver
	MemStart      uintptr // physical address of video memory
	MemLen        int     // bytes of mappable video memory
}

// LayerSize returns the size in bytes of one screen-sized buffer.
func (g Geometry) LayerSize() int {
	return g.Width * g.Height * (g.BitsPerPixel >> 3)
}

// Slot is one screen-sized buffer in the mapped framebuffer, addressable
// both by the driver (Phys) and by the process (Mem).
type Slot struct {
	Phys uintptr
	Mem  []byte
}

// Len returns the size of the slot in bytes.
func (s Slot) Len() int {
	return len(s.Mem)
}

// Valid reports whether the slot is backed by mapped memory.
func (s Slot) Valid() bool {
	return s.Mem != nil
}

// FrameBuffer is a framebuffer device: geometry queries plus a shared
// mapping of its video memory.
type FrameBuffer interface {
	// Geometry reads the fixed and variable screen info.
	Geometry() (Geometry, error)
	// Map maps length bytes of video memory read/write and shared.
	Map(length int) ([]byte, error)
	// Unmap releases a mapping returned by Map.
	Unmap(mem []byte) error
	// Close closes the device handle.
	Close() error
}

// validateGeometry checks that video memory holds RequiredSlots screens.
func validateGeometry(g Geometry) error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: resolution %dx%d", ErrGeometry, g.Width, g.Height)
	}
	if g.BitsPerPixel < 8 {
		return fmt.Errorf("%w: %d bits per pixel", ErrGeometry, g.BitsPerPixel)
	}
	if need := g.LayerSize() * RequiredSlots; g.MemLen < need {
		return fmt.Errorf("%w: %d bytes of video memory, %d screens of %d bytes needed",
			ErrGeometry, g.MemLen, RequiredSlots, g.LayerSize())
	}
	return nil
}

// mapSlots maps the whole video memory and splits its first two screens
// into the primary and secondary slots.
func mapSlots(fb FrameBuffer, g Geometry) (mem []byte, primary, secondary Slot, err error) {
	mem, err = fb.Map(g.MemLen)
	if err != nil {
		return nil, Slot{}, Slot{}, fmt.Errorf("%w: %w", ErrMapping, err)
	}
	n := g.LayerSize()
	if len(mem) < n*RequiredSlots {
		err = fmt.Errorf("%w: mapped %d bytes, want %d", ErrMapping, len(mem), n*RequiredSlots)
		return nil, Slot{}, Slot{}, errors.Join(err, fb.Unmap(mem))
	}
	primary = Slot{Phys: g.MemStart, Mem: mem[:n:n]}
	secondary = Slot{Phys: g.MemStart + uintptr(n), Mem: mem[n : 2*n : 2*n]}
	return mem, primary, secondary, nil
}
