package render

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/molvista/molvista/internal/config"
	"github.com/molvista/molvista/internal/domain/molecule"
	"github.com/molvista/molvista/internal/infrastructure/monitoring/logging"
	"github.com/molvista/molvista/internal/infrastructure/monitoring/prometheus"
	"github.com/molvista/molvista/pkg/errors"
)

// State is a render session lifecycle state.
type State string

const (
	StateUninitialized   State = "uninitialized"
	StateAwaitingLibrary State = "awaiting_library"
	StateAwaitingPayload State = "awaiting_payload"
	StateRendering       State = "rendering"
	StateFallback        State = "fallback"
	StateTornDown        State = "torn_down"
)

// Terminal reports whether no forward transition can leave the state.
// Fallback is terminal for the identifier (only teardown leaves it);
// torn-down is absolutely final.
func (s State) Terminal() bool {
	return s == StateFallback || s == StateTornDown
}

// fullRevolution is the accumulated angle at which rotation stops.
const fullRevolution = 360.0

// StructureProvider supplies the validated payload for an identifier.
// *structure.Fetcher satisfies it.
type StructureProvider interface {
	Fetch(ctx context.Context, id molecule.Identifier) (*molecule.Structure, error)
}

// Session drives the render lifecycle for exactly one identifier. Sessions
// are single-use: a new identifier always means a new session. All timing
// goes through the injected clock so the deadline-versus-step race is
// deterministic under test.
type Session struct {
	id        molecule.Identifier
	sessionID string

	provider CapabilityProvider
	fetcher  StructureProvider
	cfg      config.RenderConfig
	clock    clock.Clock
	logger   logging.Logger
	metrics  *prometheus.Metrics

	mu           sync.Mutex
	state        State
	surface      Surface
	rotationStop chan struct{}
	rotated      float64
}

// NewSession builds a session in the uninitialized state.
func NewSession(id molecule.Identifier, provider CapabilityProvider, fetcher StructureProvider,
	cfg config.RenderConfig, clk clock.Clock, log logging.Logger, metrics *prometheus.Metrics) *Session {
	if clk == nil {
		clk = clock.New()
	}
	sessionID := uuid.NewString()
	return &Session{
		id:        id,
		sessionID: sessionID,
		provider:  provider,
		fetcher:   fetcher,
		cfg:       cfg,
		clock:     clk,
		logger:    log.With(logging.String("session_id", sessionID), logging.String("identifier", id.String())),
		metrics:   metrics,
		state:     StateUninitialized,
	}
}

// ID returns the identifier this session renders.
func (s *Session) ID() molecule.Identifier { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RotationDegrees returns the accumulated rotation angle.
func (s *Session) RotationDegrees() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotated
}

// Run drives the session from uninitialized through a successful first frame
// with the rotation animation started. The context is the load's cancellation
// token; it is checked before every state mutation that follows a suspension
// point. Run returns the failure for the caller to map — it never transitions
// to fallback itself.
func (s *Session) Run(ctx context.Context) error {
	if err := s.transition(ctx, StateAwaitingLibrary); err != nil {
		return err
	}
	if err := s.awaitCapability(ctx); err != nil {
		return err
	}

	if err := s.transition(ctx, StateAwaitingPayload); err != nil {
		return err
	}
	payload, err := s.fetcher.Fetch(ctx, s.id)
	if err != nil {
		return err
	}

	if err := s.transition(ctx, StateRendering); err != nil {
		return err
	}
	return s.render(ctx, payload)
}

// awaitCapability polls the capability at the configured interval up to the
// configured attempt count. Exhaustion is a library-unavailable error.
func (s *Session) awaitCapability(ctx context.Context) error {
	for attempt := 0; attempt < s.cfg.MaxPollAttempts; attempt++ {
		if s.provider.Ready() {
			return nil
		}
		timer := s.clock.Timer(s.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return cancelError(ctx.Err())
		case <-timer.C:
		}
	}
	if s.provider.Ready() {
		return nil
	}
	return errors.New(errors.ErrCodeRenderLibraryUnavailable, "rendering capability did not become available").
		WithDetail("attempts exhausted")
}

// render clears any previous surface, loads the payload into a fresh one,
// applies style, fits the camera, draws the first frame, and starts the
// rotation animation.
func (s *Session) render(ctx context.Context, payload *molecule.Structure) error {
	surface, err := s.provider.CreateSurface()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeRenderSurfaceFailed, "failed to create rendering surface")
	}

	if err := ctx.Err(); err != nil {
		surface.Clear()
		return cancelError(err)
	}

	s.mu.Lock()
	if s.state != StateRendering {
		s.mu.Unlock()
		surface.Clear()
		return errors.New(errors.ErrCodeCancelled, "session superseded before render")
	}
	if s.surface != nil {
		s.surface.Clear()
	}
	s.surface = surface
	s.mu.Unlock()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"load model", func() error { return surface.LoadModel(payload.Raw) }},
		{"apply style", surface.SetStyle},
		{"fit camera", surface.ZoomTo},
		{"render frame", surface.Render},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return errors.Wrap(err, errors.ErrCodeRenderSurfaceFailed, "surface "+step.name+" failed")
		}
		if err := ctx.Err(); err != nil {
			return cancelError(err)
		}
	}

	s.startRotation(ctx)
	s.logger.Info("Render session live",
		logging.String("source", payload.Source),
		logging.Int("atoms", payload.AtomCount))
	return nil
}

// startRotation begins the tick-driven rotation animation. The animation
// advances a fixed step per tick until a full revolution has accumulated,
// then stops; it never restarts on its own.
func (s *Session) startRotation(ctx context.Context) {
	stop := make(chan struct{})

	s.mu.Lock()
	s.rotationStop = stop
	s.rotated = 0
	s.mu.Unlock()

	go func() {
		ticker := s.clock.Ticker(s.cfg.RotationTick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
			}
			if !s.rotateStep() {
				return
			}
		}
	}()
}

// rotateStep applies one rotation tick. Returns false once rotation is done
// or the session left the rendering state.
func (s *Session) rotateStep() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRendering || s.rotated >= fullRevolution {
		return false
	}
	if err := s.surface.Rotate(s.cfg.RotationStepDegrees); err != nil {
		s.logger.Warn("Rotation step failed", logging.Err(err))
		return false
	}
	if err := s.surface.Render(); err != nil {
		s.logger.Warn("Frame render failed", logging.Err(err))
		return false
	}
	s.rotated += s.cfg.RotationStepDegrees
	return s.rotated < fullRevolution
}

// ResetView re-fits the camera and redraws. It does not restart rotation.
func (s *Session) ResetView() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRendering {
		return errors.New(errors.ErrCodeRenderSessionTornDown, "session is not rendering")
	}
	if err := s.surface.ZoomTo(); err != nil {
		return errors.Wrap(err, errors.ErrCodeRenderSurfaceFailed, "camera re-fit failed")
	}
	if err := s.surface.Render(); err != nil {
		return errors.Wrap(err, errors.ErrCodeRenderSurfaceFailed, "frame render failed")
	}
	return nil
}

// Fallback moves the session to the fallback state from any non-terminal
// state. Rotation stops and the surface is released; the state is terminal
// for this identifier.
func (s *Session) Fallback(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.stopRotationLocked()
	s.releaseSurfaceLocked()
	s.setStateLocked(StateFallback)
	if s.metrics != nil {
		s.metrics.FallbacksTotal.WithLabelValues(reason).Inc()
	}
	s.logger.Warn("Session degraded to fallback", logging.String("reason", reason))
}

// Teardown cancels rotation, releases the surface, and moves to torn-down.
// Reachable from every state and idempotent.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateTornDown {
		return
	}
	s.stopRotationLocked()
	s.releaseSurfaceLocked()
	s.setStateLocked(StateTornDown)
}

// transition performs a forward lifecycle transition, honoring the
// cancellation token and terminal states.
func (s *Session) transition(ctx context.Context, to State) error {
	if err := ctx.Err(); err != nil {
		return cancelError(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		// A fallback or teardown raced the run loop; the loop must stop
		// silently rather than resurrect the session.
		return errors.New(errors.ErrCodeCancelled, "session reached a terminal state").
			WithDetail("state=" + string(s.state))
	}
	s.setStateLocked(to)
	return nil
}

func (s *Session) setStateLocked(to State) {
	from := s.state
	s.state = to
	if s.metrics != nil {
		s.metrics.SessionTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	}
	s.logger.Debug("Session transition",
		logging.String("from", string(from)), logging.String("to", string(to)))
}

func (s *Session) stopRotationLocked() {
	if s.rotationStop != nil {
		close(s.rotationStop)
		s.rotationStop = nil
	}
}

func (s *Session) releaseSurfaceLocked() {
	if s.surface != nil {
		s.surface.Clear()
		s.surface = nil
	}
}

// cancelError maps a context error to the cancellation code. Cancellation is
// never user-visible; the orchestrator suppresses fallback for it.
func cancelError(err error) error {
	return errors.Wrap(err, errors.ErrCodeCancelled, "load cancelled")
}
