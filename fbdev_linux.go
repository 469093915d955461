//go:build linux

package sunxigfx

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
	"periph.io/x/host/v3/fs"
)

// <linux/fb.h> ioctls
const (
	fbioGetVScreenInfo = 0x4600
	fbioGetFScreenInfo = 0x4602
)

// fbFixScreenInfo mirrors struct fb_fix_screeninfo.
type fbFixScreenInfo struct {
	ID           [16]byte
	SMemStart    uintptr // framebuffer memory, physical address
	SMemLen      uint32
	Type         uint32
	TypeAux      uint32
	Visual       uint32
	XPanStep     uint16
	YPanStep     uint16
	YWrapStep    uint16
	LineLength   uint32
	MmioStart    uintptr
	MmioLen      uint32
	Accel        uint32
	Capabilities uint16
	_            [2]uint16
}

type fbBitField struct {
	Offset, Length, MsbRight uint32
}

// fbVarScreenInfo mirrors struct fb_var_screeninfo.
type fbVarScreenInfo struct {
	XRes, YRes               uint32
	XResVirtual, YResVirtual uint32
	XOffset, YOffset         uint32
	BitsPerPixel             uint32
	Grayscale                uint32
	Red, Green, Blue, Transp fbBitField
	NonStd                   uint32
	Activate                 uint32
	Height, Width            uint32
	_                        uint32
	PixClock                 uint32
	LeftMargin, RightMargin  uint32
	UpperMargin, LowerMargin uint32
	HSyncLen, VSyncLen       uint32
	Sync                     uint32
	VMode                    uint32
	Rotate                   uint32
	ColorSpace               uint32
	_                        [4]uint32
}

// fbDev is a Linux framebuffer device such as /dev/fb0.
type fbDev struct {
	f *fs.File
}

func openFBDev(path string) (FrameBuffer, error) {
	f, err := fs.Open(path, os.O_RDWR)
	if err != nil {
		return nil, err
	}
	return &fbDev{f: f}, nil
}

func (fb *fbDev) Geometry() (Geometry, error) {
	var fix fbFixScreenInfo
	if err := fb.f.Ioctl(fbioGetFScreenInfo, uintptr(unsafe.Pointer(&fix))); err != nil {
		return Geometry{}, fmt.Errorf("get fixed screen info: %w", err)
	}
	var v fbVarScreenInfo
	if err := fb.f.Ioctl(fbioGetVScreenInfo, uintptr(unsafe.Pointer(&v))); err != nil {
		return Geometry{}, fmt.Errorf("get variable screen info: %w", err)
	}
	return Geometry{
		Width:        int(v.XRes),
		Height:       int(v.YRes),
		BitsPerPixel: int(v.BitsPerPixel),
		LineLength:   int(fix.LineLength),
		MemStart:     fix.SMemStart,
		MemLen:       int(fix.SMemLen),
	}, nil
}

func (fb *fbDev) Map(length int) ([]byte, error) {
	return unix.Mmap(int(fb.f.Fd()), 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func (fb *fbDev) Unmap(mem []byte) error {
	return unix.Munmap(mem)
}

func (fb *fbDev) Close() error {
	return fb.f.Close()
}
