package engine

// Device describes the host. It is injected at startup rather than detected.
type Device struct {
	Touch bool
}

// ResizesViewports reports whether window resizes should reconfigure cameras
// and viewports. Touch hosts keep their startup layout.
func (d Device) ResizesViewports() bool {
	return !d.Touch
}
