package sunxigfx

import (
	"errors"
	"fmt"
	"testing"
)

// fakeDriver records every command and answers from its fields.
type fakeDriver struct {
	versionErr   error
	setFormatErr error
	openErr      error
	closeErr     error // CloseSprites
	handleErr    error // Close

	// requestErr, if set, decides the outcome of the n-th request (0-based).
	requestErr func(n int) error
	// onRequest runs before each request is answered.
	onRequest func(n int)
	// releaseErr overrides the outcome of releasing a specific id.
	releaseErr map[BlockID]error

	nextID    BlockID
	versions  []uint32
	formats   int
	requests  []BlockParams
	released  []BlockID
	live      map[BlockID]bool
	opened    int
	closedSpr int
	closed    int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{nextID: 0x64, live: map[BlockID]bool{}}
}

func (f *fakeDriver) Version(v uint32) error {
	f.versions = append(f.versions, v)
	return f.versionErr
}

func (f *fakeDriver) SetFormat(screen int, pf PixelFormat, s PixelSeq) error {
	if screen != Screen || pf != FormatARGB8888 || s != SeqARGB {
		return fmt.Errorf("unexpected format %d/%#x/%d", screen, pf, s)
	}
	f.formats++
	return f.setFormatErr
}

func (f *fakeDriver) RequestBlock(screen int, p *BlockParams) (BlockID, error) {
	n := len(f.requests)
	f.requests = append(f.requests, *p)
	if f.onRequest != nil {
		f.onRequest(n)
	}
	if f.requestErr != nil {
		if err := f.requestErr(n); err != nil {
			return NoBlock, err
		}
	}
	id := f.nextID
	f.nextID++
	f.live[id] = true
	return id, nil
}

func (f *fakeDriver) ReleaseBlock(screen int, id BlockID) error {
	f.released = append(f.released, id)
	if err, ok := f.releaseErr[id]; ok {
		return err
	}
	if !f.live[id] {
		return fmt.Errorf("release block %d: %w", id, ErrNotAllocated)
	}
	delete(f.live, id)
	return nil
}

func (f *fakeDriver) OpenSprites(screen int) error {
	f.opened++
	return f.openErr
}

func (f *fakeDriver) CloseSprites(screen int) error {
	f.closedSpr++
	return f.closeErr
}

func (f *fakeDriver) Close() error {
	f.closed++
	return f.handleErr
}

// fakeFB backs the mapping with ordinary memory.
type fakeFB struct {
	geo      Geometry
	geoErr   error
	mapErr   error
	unmapErr error
	closeErr error
	short    bool // map less than asked for

	mapped   []byte
	maps     int
	unmapped int
	closed   int
}

func newFakeFB(w, h int) *fakeFB {
	return &fakeFB{geo: Geometry{
		Width:        w,
		Height:       h,
		BitsPerPixel: 32,
		LineLength:   w * 4,
		MemStart:     0x4a000000,
		MemLen:       w * h * 4 * 3,
	}}
}

func (f *fakeFB) Geometry() (Geometry, error) {
	return f.geo, f.geoErr
}

func (f *fakeFB) Map(length int) ([]byte, error) {
	if f.mapErr != nil {
		return nil, f.mapErr
	}
	f.maps++
	if f.short {
		length /= 4
	}
	f.mapped = make([]byte, length)
	return f.mapped, nil
}

func (f *fakeFB) Unmap(mem []byte) error {
	f.unmapped++
	return f.unmapErr
}

func (f *fakeFB) Close() error {
	f.closed++
	return f.closeErr
}

var errFake = errors.New("fake device error")

// newTestDev brings up a Dev on fakes and closes it at the end of the test.
func newTestDev(t *testing.T, w, h int) (*Dev, *fakeDriver, *fakeFB) {
	t.Helper()
	drv, fb := newFakeDriver(), newFakeFB(w, h)
	d, err := New(drv, fb, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d, drv, fb
}
