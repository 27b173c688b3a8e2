package engine

import "github.com/go-gl/mathgl/mgl32"

// colorRef packs a 0..1 color into a Win32 COLORREF (0x00BBGGRR).
func colorRef(c mgl32.Vec3) uint32 {
	to8 := func(f float32) uint32 {
		return uint32(mgl32.Clamp(f, 0, 1)*255 + 0.5)
	}
	return to8(c[2])<<16 | to8(c[1])<<8 | to8(c[0])
}
