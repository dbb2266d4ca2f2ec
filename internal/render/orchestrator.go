package render

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"

	"github.com/molvista/molvista/internal/config"
	"github.com/molvista/molvista/internal/domain/molecule"
	"github.com/molvista/molvista/internal/infrastructure/monitoring/logging"
	"github.com/molvista/molvista/internal/infrastructure/monitoring/prometheus"
	"github.com/molvista/molvista/pkg/errors"
)

// NameResolver is the best-effort name lookup. *structure.Resolver satisfies it.
type NameResolver interface {
	Resolve(ctx context.Context, id molecule.Identifier) (string, error)
}

// load is one in-flight (or completed) load: a session, its cancellation
// token, and the at-most-once display name.
type load struct {
	id      molecule.Identifier
	session *Session
	cancel  context.CancelFunc
	done    chan struct{}

	// deadlineFired distinguishes the deadline cancelling the token from an
	// identifier change doing so; only the former degrades to fallback.
	deadlineFired atomic.Bool

	nameMu  sync.Mutex
	name    string
	nameSet bool
}

func (l *load) setName(name string) {
	l.nameMu.Lock()
	defer l.nameMu.Unlock()
	if l.nameSet {
		return
	}
	l.name = name
	l.nameSet = true
}

func (l *load) displayName() (string, bool) {
	l.nameMu.Lock()
	defer l.nameMu.Unlock()
	return l.name, l.nameSet
}

// Snapshot is a point-in-time view of the active load.
type Snapshot struct {
	Identifier      molecule.Identifier `json:"identifier"`
	State           State               `json:"state"`
	RotationDegrees float64             `json:"rotation_degrees"`
	Name            string              `json:"name,omitempty"`
}

// Orchestrator owns at most one load at a time. Load is idempotent per
// identifier: re-invoking with the in-flight identifier is a no-op, invoking
// with a different identifier synchronously cancels the in-flight load before
// starting the new one. Every failure inside a load degrades the session to
// fallback; nothing propagates to the caller.
type Orchestrator struct {
	provider CapabilityProvider
	fetcher  StructureProvider
	resolver NameResolver
	cfg      config.RenderConfig
	clock    clock.Clock
	logger   logging.Logger
	metrics  *prometheus.Metrics

	mu      sync.Mutex
	current *load
}

// NewOrchestrator wires the workflow dependencies. The resolver may be nil
// (name enrichment disabled); clk nil means the wall clock.
func NewOrchestrator(provider CapabilityProvider, fetcher StructureProvider, resolver NameResolver,
	cfg config.RenderConfig, clk clock.Clock, log logging.Logger, metrics *prometheus.Metrics) *Orchestrator {
	if clk == nil {
		clk = clock.New()
	}
	return &Orchestrator{
		provider: provider,
		fetcher:  fetcher,
		resolver: resolver,
		cfg:      cfg,
		clock:    clk,
		logger:   log,
		metrics:  metrics,
	}
}

// Load starts (or re-targets) the load workflow for an identifier and returns
// immediately; the workflow runs in the background until it renders, degrades
// to fallback, or is superseded.
func (o *Orchestrator) Load(id molecule.Identifier) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != nil {
		if o.current.id == id {
			// Idempotent per identifier: nothing to do, whether the load is
			// still in flight or already terminal.
			return
		}
		o.cancelCurrentLocked()
	}

	loadCtx, cancel := context.WithCancel(context.Background())
	ld := &load{
		id:      id,
		session: NewSession(id, o.provider, o.fetcher, o.cfg, o.clock, o.logger, o.metrics),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	o.current = ld

	go o.run(loadCtx, ld)
	go o.enforceDeadline(ld)
	if o.resolver != nil {
		go o.resolveName(loadCtx, ld)
	}
}

// run drives the session and maps every failure to fallback. Cancellation by
// identifier change or teardown is silent; cancellation by the deadline
// degrades to fallback like any other failure.
func (o *Orchestrator) run(ctx context.Context, ld *load) {
	defer close(ld.done)

	start := o.clock.Now()
	err := ld.session.Run(ctx)
	if err == nil {
		if o.metrics != nil {
			o.metrics.LoadsTotal.WithLabelValues("ok").Inc()
			o.metrics.LoadDuration.Observe(o.clock.Now().Sub(start).Seconds())
		}
		return
	}

	if errors.IsCancelled(err) && !ld.deadlineFired.Load() {
		if o.metrics != nil {
			o.metrics.LoadsTotal.WithLabelValues("cancelled").Inc()
		}
		return
	}

	if ld.deadlineFired.Load() {
		// The deadline cancels the token, so the session reports a plain
		// cancellation; reclassify it before mapping the reason.
		err = errors.New(errors.ErrCodeRenderDeadlineExceeded, "load deadline elapsed before first frame").
			WithCause(err)
	}

	reason := fallbackReason(err)
	ld.session.Fallback(reason)
	if o.metrics != nil {
		o.metrics.LoadsTotal.WithLabelValues("fallback").Inc()
	}
	o.logger.Warn("Load degraded to fallback",
		logging.String("identifier", ld.id.String()),
		logging.String("reason", reason),
		logging.Err(err))
}

// enforceDeadline bounds the whole sequence, awaiting-library through
// successful render. The timer is released as soon as the load finishes.
func (o *Orchestrator) enforceDeadline(ld *load) {
	timer := o.clock.Timer(o.cfg.Deadline)
	defer timer.Stop()
	select {
	case <-ld.done:
	case <-timer.C:
		ld.deadlineFired.Store(true)
		ld.cancel()
	}
}

// resolveName runs the best-effort name lookup concurrently with the load.
// The name is set at most once; failures do nothing.
func (o *Orchestrator) resolveName(ctx context.Context, ld *load) {
	name, err := o.resolver.Resolve(ctx, ld.id)
	if err != nil {
		return
	}
	ld.setName(name)
}

// Cancel tears down the active load, if any. Used on unmount.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return
	}
	o.cancelCurrentLocked()
	o.current = nil
}

// cancelCurrentLocked synchronously stops the in-flight load: the token is
// cancelled, the session torn down, and the run goroutine awaited so no
// in-flight response can mutate state afterwards.
func (o *Orchestrator) cancelCurrentLocked() {
	ld := o.current
	ld.cancel()
	ld.session.Teardown()
	<-ld.done
}

// Snapshot reports the active load. The second return is false when no load
// has been started.
func (o *Orchestrator) Snapshot() (Snapshot, bool) {
	o.mu.Lock()
	ld := o.current
	o.mu.Unlock()
	if ld == nil {
		return Snapshot{}, false
	}
	snap := Snapshot{
		Identifier:      ld.id,
		State:           ld.session.State(),
		RotationDegrees: ld.session.RotationDegrees(),
	}
	if name, ok := ld.displayName(); ok {
		snap.Name = name
	}
	return snap, true
}

// ResetView re-fits the camera on the active session without restarting
// rotation.
func (o *Orchestrator) ResetView() error {
	o.mu.Lock()
	ld := o.current
	o.mu.Unlock()
	if ld == nil {
		return errors.New(errors.ErrCodeRenderSessionTornDown, "no active session")
	}
	return ld.session.ResetView()
}

// fallbackReason maps a load failure to the metrics label.
func fallbackReason(err error) string {
	switch errors.GetCode(err) {
	case errors.ErrCodeRenderDeadlineExceeded:
		return "deadline"
	case errors.ErrCodeRenderLibraryUnavailable:
		return "library_unavailable"
	case errors.ErrCodeStructureNotFound:
		return "payload_not_found"
	case errors.ErrCodeStructureInvalid:
		return "payload_invalid"
	case errors.ErrCodeRenderSurfaceFailed:
		return "render_failed"
	case errors.ErrCodeTimeout:
		return "timeout"
	default:
		return "error"
	}
}
