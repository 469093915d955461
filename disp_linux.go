//go:build linux

package sunxigfx

import (
	"fmt"
	"image"
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
	"periph.io/x/host/v3/fs"
)

// sunxi display driver commands (linux-sunxi 3.4 drv_display.h).
const (
	dispCmdVersion            = 0x00
	dispCmdSpriteOpen         = 0x200
	dispCmdSpriteClose        = 0x201
	dispCmdSpriteSetFormat    = 0x202
	dispCmdSpriteBlockRequest = 0x207
	dispCmdSpriteBlockRelease = 0x208
)

// errObjNotInited is the driver's DIS_OBJ_NOT_INITED (-4) status. The
// ioctl layer turns it into errno 4, which has the value of EINTR.
const errObjNotInited = unix.Errno(4)

// dispRect mirrors __disp_rect_t.
type dispRect struct {
	X, Y          int32
	Width, Height uint32
}

// dispFB mirrors __disp_fb_t.
type dispFB struct {
	Addr         [3]uint32
	Width        uint32
	Height       uint32
	Format       uint32
	Seq          uint32
	Mode         uint32
	BRSwap       int8
	CSMode       uint32
	TrdSrc       int8
	TrdMode      uint32
	TrdRightAddr [3]uint32
	PreMultiply  int8
}

// dispSpriteBlockPara mirrors __disp_sprite_block_para_t.
type dispSpriteBlockPara struct {
	ID     uint32
	SrcWin dispRect
	ScnWin dispRect
	FB     dispFB
}

// dispDriver is the sunxi /dev/disp device.
type dispDriver struct {
	f *fs.File
}

func openDisp(path string) (Driver, error) {
	f, err := fs.Open(path, os.O_RDWR)
	if err != nil {
		return nil, err
	}
	return &dispDriver{f: f}, nil
}

// cmd issues a driver command with the 4-word argument block every sunxi
// display command takes, and returns the command's result.
func (d *dispDriver) cmd(op uintptr, args *[4]uintptr) (int32, error) {
	r, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), op, uintptr(unsafe.Pointer(args)))
	if errno != 0 {
		return -1, errno
	}
	return int32(r), nil
}

// status issues a command whose non-zero result is a failure.
func (d *dispDriver) status(name string, op uintptr, args *[4]uintptr) error {
	ret, err := d.cmd(op, args)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if ret != 0 {
		return fmt.Errorf("%s: driver returned %d", name, ret)
	}
	return nil
}

func (d *dispDriver) Version(v uint32) error {
	// The driver reads the version from the first word.
	args := [4]uintptr{uintptr(v)}
	if _, err := d.cmd(dispCmdVersion, &args); err != nil {
		return fmt.Errorf("version: %w", err)
	}
	return nil
}

func (d *dispDriver) SetFormat(screen int, f PixelFormat, s PixelSeq) error {
	args := [4]uintptr{uintptr(screen), uintptr(f), uintptr(s)}
	return d.status("set format", dispCmdSpriteSetFormat, &args)
}

func (d *dispDriver) RequestBlock(screen int, p *BlockParams) (BlockID, error) {
	para := dispSpriteBlockPara{
		SrcWin: toDispRect(p.Src),
		ScnWin: toDispRect(p.Scn),
		FB: dispFB{
			Addr:   [3]uint32{uint32(p.Addr)},
			Width:  uint32(p.FBSize.X),
			Height: uint32(p.FBSize.Y),
			Format: uint32(p.Format),
			Seq:    uint32(p.Seq),
			Mode:   uint32(p.Mode),
			CSMode: uint32(p.ColorSpace),
		},
	}
	args := [4]uintptr{uintptr(screen), uintptr(unsafe.Pointer(&para))}
	ret, err := d.cmd(dispCmdSpriteBlockRequest, &args)
	runtime.KeepAlive(&para)
	if err != nil {
		return NoBlock, fmt.Errorf("request block: %w", err)
	}
	if ret <= 0 {
		return NoBlock, fmt.Errorf("request block: driver returned %d", ret)
	}
	return BlockID(ret), nil
}

func (d *dispDriver) ReleaseBlock(screen int, id BlockID) error {
	args := [4]uintptr{uintptr(screen), uintptr(id)}
	ret, err := d.cmd(dispCmdSpriteBlockRelease, &args)
	if err == errObjNotInited {
		return fmt.Errorf("release block %d: %w", id, ErrNotAllocated)
	}
	if err != nil {
		return fmt.Errorf("release block %d: %w", id, err)
	}
	if ret != 0 {
		return fmt.Errorf("release block %d: driver returned %d", id, ret)
	}
	return nil
}

func (d *dispDriver) OpenSprites(screen int) error {
	args := [4]uintptr{uintptr(screen)}
	return d.status("open sprites", dispCmdSpriteOpen, &args)
}

func (d *dispDriver) CloseSprites(screen int) error {
	args := [4]uintptr{uintptr(screen)}
	return d.status("close sprites", dispCmdSpriteClose, &args)
}

func (d *dispDriver) Close() error {
	return d.f.Close()
}

func toDispRect(r image.Rectangle) dispRect {
	return dispRect{
		X:      int32(r.Min.X),
		Y:      int32(r.Min.Y),
		Width:  uint32(r.Dx()),
		Height: uint32(r.Dy()),
	}
}
