//go:build !windows

package engine

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// setTitleBarColor is only supported by the Windows compositor.
func setTitleBarColor(_ *glfw.Window, _ mgl32.Vec3) {}
