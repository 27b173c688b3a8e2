package engine

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

// ScrollSource stands in for a document scroll position. Wheel and keyboard
// input move a virtual page of PageHeight pixels.
type ScrollSource struct {
	offset         float64
	pageHeight     float64
	lineHeight     float64
	viewportHeight float64
	onChange       func(offset float64)
}

func NewScrollSource(pageHeight, lineHeight float64, onChange func(float64)) *ScrollSource {
	return &ScrollSource{
		pageHeight: pageHeight,
		lineHeight: lineHeight,
		onChange:   onChange,
	}
}

func (s *ScrollSource) Offset() float64 {
	return s.offset
}

func (s *ScrollSource) SetViewportHeight(h float64) {
	s.viewportHeight = h
}

// SetPageHeight changes the scrollable extent and re-clamps the offset.
func (s *ScrollSource) SetPageHeight(h float64) {
	s.pageHeight = h
	if s.offset > h {
		s.set(h)
	}
}

// Wheel applies a GLFW scroll delta. Positive yoff is wheel up, which moves
// towards the top of the page.
func (s *ScrollSource) Wheel(yoff float64) {
	s.set(s.offset - yoff*s.lineHeight)
}

// Key handles page navigation keys and reports whether key was one of them.
func (s *ScrollSource) Key(key glfw.Key) bool {
	switch key {
	case glfw.KeyPageDown, glfw.KeySpace:
		s.set(s.offset + s.page())
	case glfw.KeyPageUp:
		s.set(s.offset - s.page())
	case glfw.KeyDown:
		s.set(s.offset + s.lineHeight)
	case glfw.KeyUp:
		s.set(s.offset - s.lineHeight)
	case glfw.KeyHome:
		s.set(0)
	case glfw.KeyEnd:
		s.set(s.pageHeight)
	default:
		return false
	}
	return true
}

func (s *ScrollSource) page() float64 {
	if s.viewportHeight > 0 {
		return s.viewportHeight
	}
	return s.lineHeight
}

// set clamps offset to the page and notifies on every input, moved or not.
func (s *ScrollSource) set(offset float64) {
	if offset < 0 {
		offset = 0
	}
	if offset > s.pageHeight {
		offset = s.pageHeight
	}
	s.offset = offset
	if s.onChange != nil {
		s.onChange(offset)
	}
}
