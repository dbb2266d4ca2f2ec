package render

import (
	"sync"
	"sync/atomic"
)

// HeadlessProvider is an always-ready capability backed by in-memory
// surfaces. It backs the CLI workflow runner and exercises the full session
// lifecycle without an actual display.
type HeadlessProvider struct {
	created atomic.Int64
}

// NewHeadlessProvider returns a ready provider.
func NewHeadlessProvider() *HeadlessProvider {
	return &HeadlessProvider{}
}

func (p *HeadlessProvider) Ready() bool { return true }

func (p *HeadlessProvider) CreateSurface() (Surface, error) {
	p.created.Add(1)
	return &HeadlessSurface{}, nil
}

// SurfacesCreated reports how many surfaces the provider has handed out.
func (p *HeadlessProvider) SurfacesCreated() int64 {
	return p.created.Load()
}

// HeadlessSurface records operations instead of drawing. All methods succeed.
type HeadlessSurface struct {
	mu      sync.Mutex
	model   string
	styled  bool
	fitted  bool
	rotated float64
	frames  int
	cleared bool
}

func (s *HeadlessSurface) LoadModel(raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = raw
	return nil
}

func (s *HeadlessSurface) SetStyle() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.styled = true
	return nil
}

func (s *HeadlessSurface) ZoomTo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
	return nil
}

func (s *HeadlessSurface) Rotate(degrees float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotated += degrees
	return nil
}

func (s *HeadlessSurface) Render() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	return nil
}

func (s *HeadlessSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = ""
	s.styled = false
	s.fitted = false
	s.rotated = 0
	s.cleared = true
}

// Frames reports how many frames have been rendered.
func (s *HeadlessSurface) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Rotated reports the total rotation applied since the last clear.
func (s *HeadlessSurface) Rotated() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotated
}

// Cleared reports whether the surface has been released.
func (s *HeadlessSurface) Cleared() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}
