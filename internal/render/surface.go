// Package render implements the render workflow: a per-identifier session
// state machine over an abstract rendering surface, and the orchestrator that
// owns at most one in-flight load at a time.
package render

// Surface is one exclusive rendering surface. It is owned by exactly one
// Session; no two sessions ever write to the same surface. Surfaces are never
// reused: a new session always gets a fresh surface and the previous one is
// cleared first.
type Surface interface {
	// LoadModel loads a structure payload (SDF text) into the surface.
	LoadModel(raw string) error

	// SetStyle applies the fixed stick-and-sphere presentation.
	SetStyle() error

	// ZoomTo fits the camera to the loaded model.
	ZoomTo() error

	// Rotate advances the model by the given angle in degrees.
	Rotate(degrees float64) error

	// Render draws a frame.
	Render() error

	// Clear releases everything the surface holds. Safe to call repeatedly.
	Clear()
}

// CapabilityProvider reports availability of the external rendering
// capability, which loads asynchronously, and creates surfaces once ready.
type CapabilityProvider interface {
	// Ready reports whether the capability is available right now. Sessions
	// poll this at a fixed interval while in the awaiting-library state.
	Ready() bool

	// CreateSurface returns a fresh surface. Only valid once Ready is true.
	CreateSurface() (Surface, error)
}
