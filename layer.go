package sunxigfx

import (
	"context"
	"fmt"
	"image"
	"strings"
)

// AllocMode selects what AllocateLayer does when the driver rejects a block.
type AllocMode int

const (
	// BestEffort records the failed cell and keeps going.
	BestEffort AllocMode = iota
	// AllOrNothing releases every block requested so far and fails.
	AllOrNothing
)

func (m AllocMode) String() string {
	switch m {
	case BestEffort:
		return "best-effort"
	case AllOrNothing:
		return "all-or-nothing"
	}
	return fmt.Sprintf("AllocMode(%d)", int(m))
}

// LayerOpts is the configuration for AllocateLayer.
type LayerOpts struct {
	// Sprite block size in pixels (default: 512x1024). Both must be even;
	// the driver caps width at 512 and height at 1024.
	SpriteW int
	SpriteH int

	Mode AllocMode
}

// Sprite is one allocated sprite block.
type Sprite struct {
	ID   BlockID
	X, Y int // top-left corner of the screen region the block covers
}

// Offset returns the top-left pixel of the sprite.
func (s Sprite) Offset() image.Point {
	return image.Point{X: s.X, Y: s.Y}
}

// Cell addresses a sprite in the grid.
type Cell struct {
	Row, Col int
}

// CellError is a block request the driver rejected.
type CellError struct {
	Cell
	Err error
}

func (e CellError) Error() string {
	return fmt.Sprintf("cell (%d, %d): %v", e.Row, e.Col, e.Err)
}

func (e CellError) Unwrap() error {
	return e.Err
}

// GridError lists the cells of a layer whose blocks could not be requested.
type GridError struct {
	Cells []CellError
}

func (e *GridError) Error() string {
	parts := make([]string, len(e.Cells))
	for i, c := range e.Cells {
		parts[i] = c.Error()
	}
	return fmt.Sprintf("%v: %d cells failed: %s", ErrBlockRequest, len(e.Cells), strings.Join(parts, "; "))
}

// Is reports ErrBlockRequest.
func (e *GridError) Is(target error) bool {
	return target == ErrBlockRequest
}

// Unwrap returns the per-cell errors.
func (e *GridError) Unwrap() []error {
	errs := make([]error, len(e.Cells))
	for i, c := range e.Cells {
		errs[i] = c
	}
	return errs
}

// Layer is a grid of sprite blocks covering the screen. The last row and
// column may overhang the screen edge.
type Layer struct {
	Rows, Cols       int
	SpriteW, SpriteH int
	Sprites          []Sprite    // row-major
	Phys             uintptr     // physical address of the backing slot
	Failed           []CellError // cells left without a block
}

// At returns the sprite at row, col.
func (l *Layer) At(row, col int) Sprite {
	return l.Sprites[row*l.Cols+col]
}

// Allocated returns the number of cells holding a block.
func (l *Layer) Allocated() int {
	n := 0
	for _, s := range l.Sprites {
		if s.ID != NoBlock {
			n++
		}
	}
	return n
}

// Grid returns the smallest grid of spriteW x spriteH blocks covering a
// screenW x screenH screen.
func Grid(screenW, screenH, spriteW, spriteH int) (rows, cols int) {
	rows = (screenH + spriteH - 1) / spriteH
	cols = (screenW + spriteW - 1) / spriteW
	return rows, cols
}

// AllocateDefaultLayer allocates a best-effort layer of 512x1024 blocks.
func (d *Dev) AllocateDefaultLayer(ctx context.Context) (*Layer, error) {
	return d.AllocateLayer(ctx, nil)
}

// AllocateLayer tiles the screen with sprite blocks backed by the primary
// slot, requesting one block per cell in row-major order.
//
// A grid larger than MaxSprites fails with ErrCapacity before any block is
// requested. Cancellation (ctx or a delivered signal) is checked before each
// request; on cancellation the partial layer is returned with an error
// wrapping ErrCancelled, and the blocks it holds stay allocated.
//
// In BestEffort mode a rejected cell is recorded in Layer.Failed and the
// layer is returned together with a *GridError. In AllOrNothing mode the
// first rejection releases the blocks requested so far and no layer is
// returned.
//
// opts can be nil to use defaults.
func (d *Dev) AllocateLayer(ctx context.Context, opts *LayerOpts) (*Layer, error) {
	if opts == nil {
		opts = &LayerOpts{}
	}
	w, h := opts.SpriteW, opts.SpriteH
	if w == 0 && h == 0 {
		w, h = DefaultSpriteW, DefaultSpriteH
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("sunxigfx: invalid sprite size %dx%d", w, h)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}

	rows, cols := Grid(d.geo.Width, d.geo.Height, w, h)
	if rows*cols > MaxSprites {
		return nil, fmt.Errorf("%w: %dx%d sprites need a %dx%d grid (%d) to cover %dx%d, %d available",
			ErrCapacity, w, h, rows, cols, rows*cols, d.geo.Width, d.geo.Height, MaxSprites)
	}

	if err := d.drv.SetFormat(Screen, FormatARGB8888, SeqARGB); err != nil {
		return nil, fmt.Errorf("%w: set sprite format: %w", ErrCommand, err)
	}

	l := &Layer{
		Rows:    rows,
		Cols:    cols,
		SpriteW: w,
		SpriteH: h,
		Sprites: make([]Sprite, rows*cols),
		Phys:    d.primary.Phys,
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if err := d.checkpoint(ctx); err != nil {
				d.log.Warn("allocation interrupted",
					"allocated", l.Allocated(), "cells", rows*cols, "err", err)
				return l, err
			}

			i := row*cols + col
			s := &l.Sprites[i]
			s.X, s.Y = col*w, row*h
			p := d.blockParams(s.X, s.Y, w, h)
			id, err := d.drv.RequestBlock(Screen, &p)
			if err == nil && id <= NoBlock {
				err = fmt.Errorf("driver returned block id %d", id)
			}
			if err != nil {
				ce := CellError{Cell: Cell{Row: row, Col: col}, Err: err}
				d.log.Warn("sprite block request failed",
					"index", i, "x", s.X, "y", s.Y, "err", err)
				if opts.Mode == AllOrNothing {
					d.releaseLocked(l)
					return nil, &GridError{Cells: []CellError{ce}}
				}
				l.Failed = append(l.Failed, ce)
				continue
			}
			s.ID = id
			d.log.Debug("allocated sprite block", "id", id, "index", i, "x", s.X, "y", s.Y)
		}
	}

	if len(l.Failed) > 0 {
		return l, &GridError{Cells: l.Failed}
	}
	return l, nil
}

// blockParams describes a block at (x, y) scanning out of the primary slot
// unscaled.
func (d *Dev) blockParams(x, y, w, h int) BlockParams {
	win := image.Rect(x, y, x+w, y+h)
	return BlockParams{
		Addr:       d.primary.Phys,
		FBSize:     image.Point{X: d.geo.Width, Y: d.geo.Height},
		Format:     FormatARGB8888,
		Seq:        SeqARGB,
		Mode:       ModeInterleaved,
		ColorSpace: BT601,
		Src:        win,
		Scn:        win,
	}
}

// checkpoint is a safe point: it reports cancellation by signal or ctx.
func (d *Dev) checkpoint(ctx context.Context) error {
	if s := d.lc.Signal(); s != nil {
		return fmt.Errorf("%w: %v: %w", ErrCancelled, s, context.Canceled)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}
