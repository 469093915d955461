// Package sunxigfx drives the hardware sprite layer of the Allwinner (sunxi)
// display engine found on A10/A13/A20 boards running the linux-sunxi 3.4
// kernel.
//
// The display engine composites up to 32 sprite blocks over the console.
// This package tiles the screen with a grid of equally sized blocks that all
// scan out of an offscreen region of the memory-mapped framebuffer, so the
// whole screen can be redrawn through plain memory writes.
//
// # Devices
//
// Two device nodes are used:
//
//	/dev/disp  sunxi display driver, sprite commands
//	/dev/fb0   framebuffer, geometry queries and video memory mapping
//
// The framebuffer must hold at least two screens of video memory. The first
// screen (the primary slot) is scanned out by the sprite blocks; the second
// (the secondary slot) is a back buffer for image blits.
//
// # Basic Usage
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/flavioheleno/sunxigfx"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		// Initialize periph.io
//		host.Init()
//
//		dev, err := sunxigfx.Open(&sunxigfx.Opts{SanitizeOnOpen: true})
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer dev.Close()
//
//		// Tile the screen with 512×1024 blocks
//		layer, err := dev.AllocateDefaultLayer(dev.Context())
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer dev.Release(layer)
//
//		dev.Show(layer)
//		defer dev.Hide(layer)
//
//		<-dev.Context().Done()
//	}
//
// # Sprite Grid
//
// AllocateLayer requests one block per cell of the smallest grid covering
// the screen, in row-major order. The cell at (row, col) covers the screen
// region starting at (col*SpriteW, row*SpriteH); the last row and column may
// overhang the screen edge. A 1920×1080 screen with the default 512×1024
// blocks needs a 2×4 grid:
//
//	rows, cols := sunxigfx.Grid(1920, 1080, 512, 1024) // 2, 4
//
// A grid larger than MaxSprites fails with ErrCapacity before the driver is
// asked for anything.
//
// Sprite width must be even and ≤512. Height must be even and ≤1024.
//
// # Allocation Modes
//
// The driver may reject individual block requests. In BestEffort mode (the
// default) the rejected cells are left without a block, recorded in
// Layer.Failed and reported in a *GridError next to the layer. In
// AllOrNothing mode the first rejection releases the blocks requested so far
// and no layer is returned.
//
// # Showing and Hiding
//
// Show and Hide switch the whole sprite subsystem on and off; the driver has
// no per-layer visibility. Hide never fails teardown: a rejection is logged
// and nil is returned.
//
// # Releasing Blocks
//
// Release frees the blocks of a layer and marks every cell empty, so
// releasing twice is harmless. ReleaseAll sweeps the whole reserved id range
// (0x64–0x83 on the known kernels, see Opts.Reserved) and reclaims blocks
// leaked by a process that was killed before it could release its layer.
// Opts.SanitizeOnOpen runs the sweep as part of Open.
//
// # Signals
//
// SIGINT and SIGTERM are caught for the lifetime of the Dev. Delivery only
// cancels Dev.Context; AllocateLayer notices it before its next block
// request and returns the partial layer with an error wrapping ErrCancelled.
// Cleanup stays with the caller:
//
//	select {
//	case <-dev.Context().Done():
//	case <-time.After(hold):
//	}
//	dev.Hide(layer)
//	dev.Release(layer)
//	dev.Close()
//
// Close unmaps the framebuffer, closes both devices and restores the default
// signal disposition. It is idempotent.
//
// # Pixel Access
//
// On a 32 bpp framebuffer with packed scanlines Dev implements
// display.Drawer from periph.io. Draw writes straight into the primary slot. Back returns the secondary slot as
// an *argb8888.Image; Flush copies the bounding rectangle of the pixels that
// differ from the primary slot across:
//
//	back, _ := dev.Back()
//	draw.Draw(back, back.Bounds(), image.NewUniform(colornames.Navy), image.Point{}, draw.Src)
//	dev.Flush()
//
// # Logging
//
// Diagnostics go to Opts.Logger, a *slog.Logger. A nil logger discards them.
//
// # Testing
//
// New brings up a Dev on any Driver and FrameBuffer implementation, which
// lets the allocation and teardown logic run without the hardware.
package sunxigfx
