package sunxigfx

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/flavioheleno/sunxigfx/argb8888"
)

func TestDraw(t *testing.T) {
	d, _, fb := newTestDev(t, 16, 8)
	red := argb8888.ARGB{A: 0xff, R: 0xff}

	src := image.NewUniform(red)
	if err := d.Draw(image.Rect(2, 1, 4, 3), src, image.Point{}); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}

	front, err := argb8888.Wrap(fb.mapped, d.Bounds())
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			want := argb8888.ARGB{}
			if image.Pt(x, y).In(image.Rect(2, 1, 4, 3)) {
				want = red
			}
			if got := front.ARGBAt(x, y); got != want {
				t.Errorf("pixel (%d, %d) = %+v, want %+v", x, y, got, want)
			}
		}
	}

	// The secondary slot is untouched.
	size := d.Geometry().LayerSize()
	for i, b := range fb.mapped[size : 2*size] {
		if b != 0 {
			t.Fatalf("secondary byte %d = %#x, want 0", i, b)
		}
	}
}

func TestDrawClipped(t *testing.T) {
	d, _, _ := newTestDev(t, 16, 8)
	src := image.NewUniform(color.White)

	tests := []struct {
		name string
		dst  image.Rectangle
	}{
		{"overhang", image.Rect(10, 4, 40, 40)},
		{"outside", image.Rect(100, 100, 120, 120)},
		{"negative", image.Rect(-10, -10, 2, 2)},
		{"empty", image.Rectangle{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.Draw(tt.dst, src, image.Point{}); err != nil {
				t.Errorf("Draw(%v) error = %v", tt.dst, err)
			}
		})
	}
}

func TestBackFlush(t *testing.T) {
	d, _, fb := newTestDev(t, 16, 8)

	back, err := d.Back()
	if err != nil {
		t.Fatalf("Back() error = %v", err)
	}
	if back.Bounds() != d.Bounds() {
		t.Fatalf("Back().Bounds() = %v, want %v", back.Bounds(), d.Bounds())
	}

	r, err := d.Flush()
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if !r.Empty() {
		t.Errorf("Flush() of identical slots = %v, want empty", r)
	}

	blue := argb8888.ARGB{A: 0xff, B: 0xff}
	back.SetARGB(3, 2, blue)
	back.SetARGB(9, 5, blue)
	// Drawing into the back buffer does not reach the screen.
	if fb.mapped[d.Primary().Len()-1] != 0 {
		t.Fatal("primary slot changed before Flush")
	}

	r, err = d.Flush()
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if want := image.Rect(3, 2, 10, 6); r != want {
		t.Errorf("Flush() = %v, want %v", r, want)
	}

	front, err := argb8888.Wrap(fb.mapped, d.Bounds())
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []image.Point{{3, 2}, {9, 5}} {
		if got := front.ARGBAt(p.X, p.Y); got != blue {
			t.Errorf("front pixel %v = %+v, want %+v", p, got, blue)
		}
	}

	if r, _ := d.Flush(); !r.Empty() {
		t.Errorf("second Flush() = %v, want empty", r)
	}
}

func TestBackFullRedraw(t *testing.T) {
	d, _, _ := newTestDev(t, 16, 8)
	back, err := d.Back()
	if err != nil {
		t.Fatal(err)
	}
	draw.Draw(back, back.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	r, err := d.Flush()
	if err != nil {
		t.Fatal(err)
	}
	if r != d.Bounds() {
		t.Errorf("Flush() = %v, want the whole screen", r)
	}
}

func TestDiffRect(t *testing.T) {
	tests := []struct {
		name   string
		pixels []image.Point
		want   image.Rectangle
	}{
		{"no change", nil, image.Rectangle{}},
		{"single pixel", []image.Point{{5, 3}}, image.Rect(5, 3, 6, 4)},
		{"corners", []image.Point{{0, 0}, {15, 7}}, image.Rect(0, 0, 16, 8)},
		{"same row", []image.Point{{2, 4}, {12, 4}}, image.Rect(2, 4, 13, 5)},
		{"diagonal", []image.Point{{10, 1}, {4, 6}}, image.Rect(4, 1, 11, 7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := argb8888.New(image.Rect(0, 0, 16, 8))
			b := argb8888.New(image.Rect(0, 0, 16, 8))
			for _, p := range tt.pixels {
				b.SetARGB(p.X, p.Y, argb8888.ARGB{A: 1})
			}
			if got := diffRect(a, b); got != tt.want {
				t.Errorf("diffRect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPixelAccessNeeds32bpp(t *testing.T) {
	drv, fb := newFakeDriver(), newFakeFB(16, 8)
	fb.geo.BitsPerPixel = 16
	d, err := New(drv, fb, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer d.Close()

	if _, err := d.Back(); !errors.Is(err, ErrFormat) {
		t.Errorf("Back() error = %v, want ErrFormat", err)
	}
	if _, err := d.Flush(); !errors.Is(err, ErrFormat) {
		t.Errorf("Flush() error = %v, want ErrFormat", err)
	}
	if err := d.Draw(d.Bounds(), image.White, image.Point{}); !errors.Is(err, ErrFormat) {
		t.Errorf("Draw() error = %v, want ErrFormat", err)
	}
}

func TestPixelAccessNeedsPackedRows(t *testing.T) {
	tests := []struct {
		name       string
		lineLength int
		wantErr    bool
	}{
		{"packed", 16 * 4, false},
		{"not reported", 0, false},
		{"padded", 32 * 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv, fb := newFakeDriver(), newFakeFB(16, 8)
			fb.geo.LineLength = tt.lineLength
			d, err := New(drv, fb, nil)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer d.Close()

			_, err = d.Back()
			if tt.wantErr != errors.Is(err, ErrFormat) {
				t.Errorf("Back() error = %v, wantErr %v", err, tt.wantErr)
			}
			err = d.Draw(d.Bounds(), image.White, image.Point{})
			if tt.wantErr != errors.Is(err, ErrFormat) {
				t.Errorf("Draw() error = %v, wantErr %v", err, tt.wantErr)
			}
			_, err = d.Flush()
			if tt.wantErr != errors.Is(err, ErrFormat) {
				t.Errorf("Flush() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestColorModel(t *testing.T) {
	d, _, _ := newTestDev(t, 16, 8)
	if d.ColorModel() != argb8888.Model {
		t.Error("ColorModel() should be argb8888.Model")
	}
}
