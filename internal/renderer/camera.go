// camera.go
package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type Camera struct {
	// HOT DATA - read every frame for view/projection
	Position   mgl32.Vec3 // Camera position in world space
	Front      mgl32.Vec3 // Forward direction vector
	Up         mgl32.Vec3 // Up direction vector
	Right      mgl32.Vec3 // Right direction vector
	Projection mgl32.Mat4 // Projection matrix
	Pitch      float32    // Degrees
	Yaw        float32    // Degrees

	// COLD DATA - configuration
	WorldUp     mgl32.Vec3
	Fov         float32 // Vertical field of view in degrees
	Near        float32
	Far         float32
	AspectRatio float32

	Name string
}

// NewPerspectiveCamera builds a camera at the origin looking down -Z.
func NewPerspectiveCamera(fov, aspectRatio, near, far float32) *Camera {
	camera := Camera{
		Position:    mgl32.Vec3{0, 0, 0},
		Front:       mgl32.Vec3{0, 0, -1},
		Up:          mgl32.Vec3{0, 1, 0},
		WorldUp:     mgl32.Vec3{0, 1, 0},
		Pitch:       0.0,
		Yaw:         -90.0,
		Fov:         fov,
		Near:        near,
		Far:         far,
		AspectRatio: aspectRatio,
	}
	camera.updateCameraVectors()
	camera.UpdateProjection()
	return &camera
}

func NewDefaultCamera(width, height int32) *Camera {
	return NewPerspectiveCamera(75, float32(width)/float32(height), 0.1, 1000)
}

func (c *Camera) UpdateProjection() {
	c.Projection = mgl32.Perspective(mgl32.DegToRad(c.Fov), c.AspectRatio, c.Near, c.Far)
}

func (c *Camera) SetFov(fov float32) {
	c.Fov = fov
	c.UpdateProjection()
}

func (c *Camera) SetAspectRatio(aspectRatio float32) {
	c.AspectRatio = aspectRatio
	c.UpdateProjection()
}

func (c *Camera) SetPosition(x, y, z float32) {
	c.Position = mgl32.Vec3{x, y, z}
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front), c.Up)
}

func (c *Camera) GetProjectionMatrix() mgl32.Mat4 {
	return c.Projection
}

func (c *Camera) GetViewProjection() mgl32.Mat4 {
	return c.Projection.Mul4(c.GetViewMatrix())
}

// LookAt points the camera at target, keeping its position.
func (c *Camera) LookAt(target mgl32.Vec3) {
	direction := target.Sub(c.Position)
	if direction.Len() == 0 {
		return
	}
	direction = direction.Normalize()
	c.Yaw = float32(mgl32.RadToDeg(float32(math.Atan2(float64(direction.Z()), float64(direction.X())))))
	c.Pitch = float32(mgl32.RadToDeg(float32(math.Asin(float64(direction.Y())))))
	c.Pitch = mgl32.Clamp(c.Pitch, -89.0, 89.0)
	c.updateCameraVectors()
}

func (c *Camera) updateCameraVectors() {
	yawRad := mgl32.DegToRad(c.Yaw)
	pitchRad := mgl32.DegToRad(c.Pitch)

	front := mgl32.Vec3{
		float32(math.Cos(float64(yawRad)) * math.Cos(float64(pitchRad))),
		float32(math.Sin(float64(pitchRad))),
		float32(math.Sin(float64(yawRad)) * math.Cos(float64(pitchRad))),
	}

	c.Front = front.Normalize()
	c.Right = c.Front.Cross(c.WorldUp).Normalize()
	c.Up = c.Right.Cross(c.Front).Normalize()
}
