package sunxigfx

import (
	"errors"
	"fmt"
)

// Show turns the sprite layer on. Visibility is switched for the whole
// sprite subsystem at once, so an empty layer can be shown too.
func (d *Dev) Show(l *Layer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := d.drv.OpenSprites(Screen); err != nil {
		return fmt.Errorf("%w: open sprites: %w", ErrCommand, err)
	}
	d.log.Debug("sprite layer shown", "blocks", allocated(l))
	return nil
}

// Hide turns the sprite layer off. A rejection by the driver is logged and
// not returned: hiding never blocks teardown.
func (d *Dev) Hide(l *Layer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := d.drv.CloseSprites(Screen); err != nil {
		d.log.Warn("closing sprite layer failed", "err", err)
		return nil
	}
	d.log.Debug("sprite layer hidden", "blocks", allocated(l))
	return nil
}

// Release frees every block of l, best-effort: a rejected release is logged
// and the remaining blocks are still released. Afterwards every cell holds
// NoBlock, so releasing l again is a no-op. A nil layer is a no-op.
func (d *Dev) Release(l *Layer) error {
	if l == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.releaseLocked(l)
	return nil
}

func (d *Dev) releaseLocked(l *Layer) {
	for i := range l.Sprites {
		s := &l.Sprites[i]
		if s.ID == NoBlock {
			continue
		}
		if err := d.drv.ReleaseBlock(Screen, s.ID); err != nil && !errors.Is(err, ErrNotAllocated) {
			d.log.Warn("sprite block release failed", "id", s.ID, "index", i, "err", err)
		} else {
			d.log.Debug("released sprite block", "id", s.ID, "index", i)
		}
		s.ID = NoBlock
	}
	l.Failed = nil
}

// ReleaseAll releases every block id in the reserved range, whether or not
// this process allocated it. It reclaims blocks left allocated by a process
// that was killed before releasing its layer. Ids the driver reports as not
// allocated count as released; other rejections are logged and skipped.
//
// It returns how many ids the driver acknowledged.
func (d *Dev) ReleaseAll() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrClosed
	}
	n := 0
	for i := 0; i < d.reserved.Len(); i++ {
		id := d.reserved.First + BlockID(i)
		if err := d.drv.ReleaseBlock(Screen, id); err != nil && !errors.Is(err, ErrNotAllocated) {
			d.log.Debug("reserved block release failed", "id", id, "err", err)
			continue
		}
		n++
	}
	return n, nil
}

func allocated(l *Layer) int {
	if l == nil {
		return 0
	}
	return l.Allocated()
}
