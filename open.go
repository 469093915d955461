package sunxigfx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Device openers, replaced in tests.
var (
	openDriver      = openDisp
	openFrameBuffer = openFBDev
)

// undo is a stack of release steps for resources acquired so far.
type undo struct {
	steps []undoStep
}

type undoStep struct {
	name string
	fn   func() error
}

func (u *undo) push(name string, fn func() error) {
	u.steps = append(u.steps, undoStep{name, fn})
}

// unwind runs the steps in reverse order and returns cause joined with any
// step failures.
func (u *undo) unwind(cause error, log *slog.Logger) error {
	errs := []error{cause}
	for i := len(u.steps) - 1; i >= 0; i-- {
		s := u.steps[i]
		if err := s.fn(); err != nil {
			log.Warn("unwind step failed", "step", s.name, "err", err)
			errs = append(errs, fmt.Errorf("sunxigfx: %s: %w", s.name, err))
		}
	}
	u.steps = nil
	return errors.Join(errs...)
}

// Open opens the display driver and framebuffer devices and brings up a Dev:
// driver handshake, geometry query, framebuffer mapping and signal handling,
// in that order.
//
// If any step fails, everything acquired by the earlier steps is released
// before Open returns.
//
// opts can be nil to use defaults.
func Open(opts *Opts) (*Dev, error) {
	o, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	var u undo

	drv, err := openDriver(o.DispPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceOpen, o.DispPath, err)
	}
	u.push("close "+o.DispPath, drv.Close)

	if err := handshake(drv); err != nil {
		return nil, u.unwind(err, o.Logger)
	}

	fb, err := openFrameBuffer(o.FBPath)
	if err != nil {
		return nil, u.unwind(fmt.Errorf("%w: %s: %w", ErrDeviceOpen, o.FBPath, err), o.Logger)
	}
	u.push("close "+o.FBPath, fb.Close)

	d, err := attach(drv, fb, o)
	if err != nil {
		return nil, u.unwind(err, o.Logger)
	}
	return d, nil
}

// New brings up a Dev on already-open device handles. It performs the same
// sequence as Open from the handshake on. On success the Dev owns drv and fb
// and closes them in Close; on failure the caller still owns them.
//
// opts can be nil to use defaults. DispPath and FBPath are ignored.
func New(drv Driver, fb FrameBuffer, opts *Opts) (*Dev, error) {
	o, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	if err := handshake(drv); err != nil {
		return nil, err
	}
	return attach(drv, fb, o)
}

func handshake(drv Driver) error {
	if err := drv.Version(DispVersion); err != nil {
		return fmt.Errorf("%w: version %#x: %w", ErrHandshake, DispVersion, err)
	}
	return nil
}

// attach queries and maps the framebuffer and installs signal handling.
func attach(drv Driver, fb FrameBuffer, o Opts) (*Dev, error) {
	var u undo

	geo, err := fb.Geometry()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeometry, err)
	}
	if err := validateGeometry(geo); err != nil {
		return nil, err
	}

	mem, primary, secondary, err := mapSlots(fb, geo)
	if err != nil {
		return nil, err
	}
	u.push("unmap framebuffer", func() error { return fb.Unmap(mem) })

	d := &Dev{
		drv:       drv,
		fb:        fb,
		geo:       geo,
		mem:       mem,
		primary:   primary,
		secondary: secondary,
		lc:        NewLifecycle(o.Signals...),
		reserved:  o.Reserved,
		log:       o.Logger,
	}
	d.lc.Install(context.Background())

	d.log.Info("opened",
		"dev", d.String(),
		"bpp", geo.BitsPerPixel,
		"layer_size", geo.LayerSize(),
		"mem_len", geo.MemLen,
		"phys", fmt.Sprintf("%#x", primary.Phys),
		"phys2", fmt.Sprintf("%#x", secondary.Phys))

	if o.SanitizeOnOpen {
		n, err := d.ReleaseAll()
		if err != nil {
			d.lc.Restore()
			return nil, u.unwind(err, o.Logger)
		}
		d.log.Info("reclaimed stale sprite blocks", "count", n)
	}
	return d, nil
}
