package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
)

// HemisphereLight blends between a sky and a ground color by surface normal.
type HemisphereLight struct {
	SkyColor    mgl32.Vec3
	GroundColor mgl32.Vec3
	Intensity   float32
	Position    mgl32.Vec3
}

// DirectionalLight shines from Position towards the origin.
type DirectionalLight struct {
	Color     mgl32.Vec3
	Intensity float32
	Position  mgl32.Vec3
}

type AmbientLight struct {
	Color     mgl32.Vec3
	Intensity float32
}

type Lighting struct {
	Hemisphere  HemisphereLight
	Directional DirectionalLight
	Ambient     AmbientLight
}

// NewDefaultLighting returns the showcase rig: a bright hemisphere from above,
// a key light from behind-left and a soft ambient fill.
func NewDefaultLighting() *Lighting {
	return &Lighting{
		Hemisphere: HemisphereLight{
			SkyColor:    mgl32.Vec3{1, 1, 1},
			GroundColor: HexColor(0x444444),
			Intensity:   0.7,
			Position:    mgl32.Vec3{0, 20, 0},
		},
		Directional: DirectionalLight{
			Color:     mgl32.Vec3{1, 1, 1},
			Intensity: 1.0,
			Position:  mgl32.Vec3{-3, 10, -10},
		},
		Ambient: AmbientLight{
			Color:     mgl32.Vec3{1, 1, 1},
			Intensity: 0.5,
		},
	}
}

// Direction returns the normalized direction the light travels in.
func (l DirectionalLight) Direction() mgl32.Vec3 {
	if l.Position.Len() == 0 {
		return mgl32.Vec3{0, -1, 0}
	}
	return l.Position.Mul(-1).Normalize()
}

// HexColor converts 0xRRGGBB to a linear 0..1 vector.
func HexColor(hex uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32((hex>>16)&0xff) / 255,
		float32((hex>>8)&0xff) / 255,
		float32(hex&0xff) / 255,
	}
}
