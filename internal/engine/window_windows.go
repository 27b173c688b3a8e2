//go:build windows

package engine

import (
	"syscall"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	dwmapi                    = syscall.NewLazyDLL("dwmapi.dll")
	procDwmSetWindowAttribute = dwmapi.NewProc("DwmSetWindowAttribute")
)

const (
	DWMWA_BORDER_COLOR  = 34
	DWMWA_CAPTION_COLOR = 35
)

// setTitleBarColor paints the caption and border in the scene background so
// the window chrome blends with the first container.
func setTitleBarColor(window *glfw.Window, color mgl32.Vec3) {
	hwnd := window.GetWin32Window()
	if hwnd == nil {
		return
	}
	colorBGR := colorRef(color)
	for _, attr := range []uintptr{DWMWA_BORDER_COLOR, DWMWA_CAPTION_COLOR} {
		procDwmSetWindowAttribute.Call(
			uintptr(unsafe.Pointer(hwnd)),
			attr,
			uintptr(unsafe.Pointer(&colorBGR)),
			unsafe.Sizeof(colorBGR),
		)
	}
}
