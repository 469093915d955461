package sunxigfx

import (
	"errors"
	"image"
)

// BlockID identifies a sprite block allocated by the driver. It is only
// valid while the block is allocated.
type BlockID int32

// NoBlock marks a grid cell that holds no allocated block.
const NoBlock BlockID = 0

// PixelFormat is a display engine framebuffer format.
type PixelFormat uint32

// FormatARGB8888 is 32-bit ARGB with 8 bits per channel.
const FormatARGB8888 PixelFormat = 0x0a

// PixelSeq is the component order within a pixel.
type PixelSeq uint32

// SeqARGB orders the components A, R, G, B from the most significant byte.
const SeqARGB PixelSeq = 0x00

// PixelMode is the framebuffer plane layout.
type PixelMode uint32

// ModeInterleaved stores all components of a pixel together.
const ModeInterleaved PixelMode = 0x01

// ColorSpace is the framebuffer color space.
type ColorSpace uint32

// BT601 is the driver's default color space.
const BT601 ColorSpace = 0

// ErrNotAllocated is reported by a Driver when asked to release a block that
// is not currently allocated.
var ErrNotAllocated = errors.New("sunxigfx: sprite block not allocated")

// BlockParams describes one sprite block: where its pixels live and which
// screen window it covers.
type BlockParams struct {
	Addr       uintptr     // physical address of the backing framebuffer
	FBSize     image.Point // backing framebuffer size in pixels
	Format     PixelFormat
	Seq        PixelSeq
	Mode       PixelMode
	ColorSpace ColorSpace
	Src        image.Rectangle // source window in the framebuffer
	Scn        image.Rectangle // screen window
}

// Driver is the sprite command set of the display driver. Every command is
// addressed to a screen index.
type Driver interface {
	// Version performs the protocol handshake.
	Version(v uint32) error
	// SetFormat sets the pixel format of the whole sprite layer.
	SetFormat(screen int, f PixelFormat, s PixelSeq) error
	// RequestBlock allocates one sprite block.
	RequestBlock(screen int, p *BlockParams) (BlockID, error)
	// ReleaseBlock frees a block. Releasing a free block returns an error
	// wrapping ErrNotAllocated.
	ReleaseBlock(screen int, id BlockID) error
	// OpenSprites and CloseSprites switch the sprite layer on and off.
	OpenSprites(screen int) error
	CloseSprites(screen int) error
	// Close closes the driver handle.
	Close() error
}
