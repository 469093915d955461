// Package argb8888 provides the 32-bit ARGB image format scanned out by the
// sunxi display engine.
//
// Each pixel is one little-endian 32-bit word 0xAARRGGBB, so in memory the
// bytes appear in blue, green, red, alpha order:
//
//	Pixel:  0                  1
//	Word:   0xFF102030         0x80A0B0C0
//	Bytes:  30 20 10 FF        C0 B0 A0 80
//
// Colors are not premultiplied. This package provides:
//
// - ARGB: a color type holding the four 8-bit channels
// - Model: a color model converting standard Go colors to ARGB
// - Image: a draw.Image over a byte slice, either owned (New) or borrowed
// from a memory-mapped framebuffer (Wrap)
//
// Example usage:
//
//	img := argb8888.New(image.Rect(0, 0, 1920, 1080))
//	img.SetARGB(10, 20, argb8888.ARGB{A: 0xFF, R: 0xFF})
//	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
package argb8888
