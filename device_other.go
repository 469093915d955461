//go:build !linux

package sunxigfx

import "errors"

var errUnsupported = errors.New("sunxigfx: display devices are only supported on linux")

func openDisp(string) (Driver, error) {
	return nil, errUnsupported
}

func openFBDev(string) (FrameBuffer, error) {
	return nil, errUnsupported
}
