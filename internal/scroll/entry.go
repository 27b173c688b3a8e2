package scroll

import "Scroll3D/internal/renderer"

// Orientable is anything whose orientation the controller can drive.
// Angles are radians and are never wrapped.
type Orientable interface {
	SetRotationX(rad float64)
	SetRotationY(rad float64)
}

// Coefficients map scroll distance to radians of rotation.
type Coefficients struct {
	Y float64
	X float64
	// ApplyX leaves the x axis untouched when false.
	ApplyX bool
}

type LoadState int

const (
	Pending LoadState = iota
	Loaded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Entry is one independent scene: a container with its own camera, renderer
// and model. The controller never reads Camera or Renderer.
type Entry struct {
	Container    string
	Camera       *renderer.Camera
	Renderer     renderer.Render
	Coefficients Coefficients

	model Orientable
	state LoadState
	err   error
}

func NewEntry(container string, coefficients Coefficients) *Entry {
	return &Entry{
		Container:    container,
		Coefficients: coefficients,
		state:        Pending,
	}
}

func (e *Entry) Model() Orientable {
	return e.model
}

func (e *Entry) State() LoadState {
	return e.state
}

// Err returns the load failure, if any.
func (e *Entry) Err() error {
	return e.err
}

// apply sets the orientation for offset. It is a no-op until the model is set.
func (e *Entry) apply(offset float64) {
	if e.state != Loaded || e.model == nil {
		return
	}
	e.model.SetRotationY(offset * e.Coefficients.Y)
	if e.Coefficients.ApplyX {
		e.model.SetRotationX(offset * e.Coefficients.X)
	}
}
