package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
)

var FaceCullingEnabled bool = false
var DepthTestEnabled bool = true

// Viewport is a rectangle in framebuffer pixels, origin bottom-left as GL expects.
type Viewport struct {
	X, Y          int32
	Width, Height int32
}

func (v Viewport) AspectRatio() float32 {
	if v.Height == 0 {
		return 1
	}
	return float32(v.Width) / float32(v.Height)
}

// Region is a viewport expressed as fractions of the window, origin top-left.
type Region struct {
	X, Y, W, H float32
}

// FullRegion covers the whole window.
var FullRegion = Region{X: 0, Y: 0, W: 1, H: 1}

// Resolve converts the region to pixels for a framebuffer of the given size,
// flipping the y axis into GL's bottom-left origin.
func (r Region) Resolve(fbWidth, fbHeight int32) Viewport {
	x := int32(r.X * float32(fbWidth))
	w := int32(r.W * float32(fbWidth))
	h := int32(r.H * float32(fbHeight))
	top := int32(r.Y * float32(fbHeight))
	return Viewport{
		X:      x,
		Y:      fbHeight - top - h,
		Width:  w,
		Height: h,
	}
}

type Render interface {
	Init(viewport Viewport, clearColor mgl32.Vec3)
	SetViewport(viewport Viewport)
	Viewport() Viewport
	Render(camera *Camera, lighting *Lighting)
	AddModel(model *Model)
	Cleanup()
}
