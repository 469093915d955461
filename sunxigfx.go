package sunxigfx

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3"
)

var _ conn.Resource = (*Dev)(nil)

const (
	// MaxSprites is the number of sprite blocks the display engine provides.
	MaxSprites = 32

	// RequiredSlots is the number of screen-sized buffers the framebuffer
	// must hold: one scanned out by the sprites, one for image blits.
	RequiredSlots = 2

	// Screen is the display engine screen every command addresses.
	Screen = 0

	// Default sprite block size. Width must be even and ≤512, height even
	// and ≤1024.
	DefaultSpriteW = 512
	DefaultSpriteH = 1024

	// DispVersion is the protocol version sent in the driver handshake.
	DispVersion uint32 = 1<<16 | 0

	DefaultDispPath = "/dev/disp"
	DefaultFBPath   = "/dev/fb0"
)

// DefaultReserved is the block id range the driver hands out on the known
// sunxi kernels. It must be confirmed against the target driver.
var DefaultReserved = IDRange{First: 0x64, Last: 0x83}

// DefaultSignals are the signals that cancel a Dev.
var DefaultSignals = []os.Signal{unix.SIGINT, unix.SIGTERM}

var (
	ErrDeviceOpen   = errors.New("sunxigfx: device open failed")
	ErrHandshake    = errors.New("sunxigfx: driver version handshake failed")
	ErrGeometry     = errors.New("sunxigfx: invalid framebuffer geometry")
	ErrMapping      = errors.New("sunxigfx: framebuffer mapping failed")
	ErrCapacity     = errors.New("sunxigfx: sprite grid exceeds hardware capacity")
	ErrBlockRequest = errors.New("sunxigfx: sprite block request rejected")
	ErrCommand      = errors.New("sunxigfx: sprite command rejected")
	ErrClosed       = errors.New("sunxigfx: closed")
	ErrCancelled    = errors.New("sunxigfx: cancelled")
	ErrFormat       = errors.New("sunxigfx: unsupported pixel depth")
)

// IDRange is an inclusive range of driver block ids.
type IDRange struct {
	First, Last BlockID
}

// Len returns the number of ids in the range.
func (r IDRange) Len() int {
	if r.Last < r.First {
		return 0
	}
	return int(r.Last-r.First) + 1
}

// Opts is the configuration for a Dev.
type Opts struct {
	// Device nodes (defaults: /dev/disp, /dev/fb0). Only used by Open.
	DispPath string
	FBPath   string

	// Block ids swept by ReleaseAll (default: DefaultReserved).
	Reserved IDRange

	// Signals that cancel the Dev (default: SIGINT, SIGTERM).
	Signals []os.Signal

	// SanitizeOnOpen runs ReleaseAll once the Dev is up, reclaiming blocks
	// left behind by a process that did not exit cleanly.
	SanitizeOnOpen bool

	// Logger receives diagnostics. nil discards them.
	Logger *slog.Logger
}

func (o *Opts) normalize() (Opts, error) {
	var n Opts
	if o != nil {
		n = *o
	}
	if n.DispPath == "" {
		n.DispPath = DefaultDispPath
	}
	if n.FBPath == "" {
		n.FBPath = DefaultFBPath
	}
	if n.Reserved == (IDRange{}) {
		n.Reserved = DefaultReserved
	}
	if n.Reserved.First <= NoBlock || n.Reserved.Last < n.Reserved.First {
		return Opts{}, errors.New("sunxigfx: reserved id range must be positive and ordered")
	}
	if len(n.Signals) == 0 {
		n.Signals = DefaultSignals
	}
	if n.Logger == nil {
		n.Logger = newNopLogger()
	}
	return n, nil
}

// Dev is the device context: the driver and framebuffer handles plus the
// geometry and mapping derived from them.
type Dev struct {
	mu sync.Mutex

	// Handles
	drv Driver
	fb  FrameBuffer

	// Geometry and mapping
	geo       Geometry
	mem       []byte
	primary   Slot // scanned out by the sprite blocks
	secondary Slot // image blits

	lc       *Lifecycle
	reserved IDRange
	log      *slog.Logger

	closed bool
}

// Geometry returns the framebuffer geometry queried at open time.
func (d *Dev) Geometry() Geometry {
	return d.geo
}

// Bounds returns the screen rectangle.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.geo.Width, d.geo.Height)
}

// Primary returns the offscreen slot the sprite blocks scan out of.
func (d *Dev) Primary() Slot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.primary
}

// Secondary returns the offscreen slot reserved for image blits.
func (d *Dev) Secondary() Slot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.secondary
}

// Context returns a context that is cancelled when one of the configured
// signals is delivered or the Dev is closed.
func (d *Dev) Context() context.Context {
	return d.lc.Context()
}

// Cancelled reports whether a signal has been delivered.
func (d *Dev) Cancelled() bool {
	return d.lc.Cancelled()
}

// Halt turns the sprite layer off. The Dev stays usable; Show turns it back
// on.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := d.drv.CloseSprites(Screen); err != nil {
		return fmt.Errorf("%w: close sprites: %w", ErrCommand, err)
	}
	return nil
}

// Close unmaps the framebuffer, closes both device handles and restores the
// default signal disposition.
//
// Close is idempotent: only the first call does any work and later calls
// return nil. Sprite layers still allocated are not released; call Release
// first.
func (d *Dev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	var errs []error
	if d.mem != nil {
		if err := d.fb.Unmap(d.mem); err != nil {
			errs = append(errs, fmt.Errorf("sunxigfx: unmap framebuffer: %w", err))
		}
		d.mem = nil
		d.primary, d.secondary = Slot{}, Slot{}
	}
	if d.fb != nil {
		if err := d.fb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sunxigfx: close framebuffer: %w", err))
		}
		d.fb = nil
	}
	if d.drv != nil {
		if err := d.drv.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sunxigfx: close driver: %w", err))
		}
		d.drv = nil
	}
	d.lc.Restore()

	for _, err := range errs {
		d.log.Warn("teardown step failed", "err", err)
	}
	d.log.Info("closed", "dev", d.String())
	return errors.Join(errs...)
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("sunxigfx.Dev{%dx%d}", d.geo.Width, d.geo.Height)
}
