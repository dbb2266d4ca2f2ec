package render

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/molvista/molvista/internal/config"
	"github.com/molvista/molvista/internal/domain/molecule"
	"github.com/molvista/molvista/internal/infrastructure/monitoring/logging"
	"github.com/molvista/molvista/pkg/errors"
)

// testPayload returns a validated structure for session tests.
func testPayload(t *testing.T) *molecule.Structure {
	t.Helper()
	lines := []string{
		"ethanol",
		"  MolVista",
		"",
		"  3  2  0  0  0  0  0  0  0  0999 V2000",
		"    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0",
		"    1.5000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0",
		"    2.2000    1.2000    0.0000 O   0  0  0  0  0  0  0  0  0  0  0  0",
		"  1  2  1  0  0  0  0",
		"  2  3  1  0  0  0  0",
		"M  END",
	}
	s, err := molecule.NewStructure(strings.Join(lines, "\n"), "pubchem")
	require.NoError(t, err)
	return s
}

// testRenderConfig uses a coarse rotation step so a full revolution takes
// eight ticks instead of 360.
func testRenderConfig() config.RenderConfig {
	return config.RenderConfig{
		Deadline:            7 * time.Second,
		PollInterval:        100 * time.Millisecond,
		MaxPollAttempts:     30,
		RotationStepDegrees: 45,
		RotationTick:        50 * time.Millisecond,
	}
}

type fakeProvider struct {
	mu         sync.Mutex
	ready      bool
	readyAfter int // Ready() calls remaining before the capability appears
	createErr  error
	surfaces   []*HeadlessSurface
}

func (p *fakeProvider) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready && p.readyAfter > 0 {
		p.readyAfter--
		p.ready = p.readyAfter == 0
	}
	return p.ready
}

func (p *fakeProvider) CreateSurface() (Surface, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	s := &HeadlessSurface{}
	p.surfaces = append(p.surfaces, s)
	return s, nil
}

func (p *fakeProvider) surface(i int) *HeadlessSurface {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.surfaces[i]
}

type fakeFetcher struct {
	mu      sync.Mutex
	payload *molecule.Structure
	err     error
	block   chan struct{} // when non-nil, Fetch waits for close or cancellation
	ctxs    []context.Context
}

func (f *fakeFetcher) Fetch(ctx context.Context, _ molecule.Identifier) (*molecule.Structure, error) {
	f.mu.Lock()
	f.ctxs = append(f.ctxs, ctx)
	block := f.block
	payload, err := f.payload, f.err
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, cancelError(ctx.Err())
		}
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ctxs)
}

func (f *fakeFetcher) callCtx(i int) context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ctxs[i]
}

// advanceUntil steps the mock clock until cond holds.
func advanceUntil(t *testing.T, mock *clock.Mock, step time.Duration, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		mock.Add(step)
		return cond()
	}, 5*time.Second, time.Millisecond)
}

func TestSessionHappyPathRotatesAndStops(t *testing.T) {
	mock := clock.NewMock()
	provider := &fakeProvider{ready: true}
	fetcher := &fakeFetcher{payload: testPayload(t)}
	cfg := testRenderConfig()
	sess := NewSession("CCO", provider, fetcher, cfg, mock, logging.NewNopLogger(), nil)

	errCh := make(chan error, 1)
	go func() { errCh <- sess.Run(context.Background()) }()

	require.Eventually(t, func() bool { return sess.State() == StateRendering },
		time.Second, time.Millisecond)
	require.NoError(t, <-errCh)

	// Rotation accumulates to exactly one revolution, then halts.
	advanceUntil(t, mock, cfg.RotationTick, func() bool {
		return sess.RotationDegrees() >= fullRevolution
	})
	assert.Equal(t, fullRevolution, sess.RotationDegrees())

	surface := provider.surface(0)
	rotatedAtStop := surface.Rotated()
	for i := 0; i < 10; i++ {
		mock.Add(cfg.RotationTick)
	}
	assert.Equal(t, rotatedAtStop, surface.Rotated(), "rotation must not restart after a full revolution")
	assert.Equal(t, StateRendering, sess.State())
}

func TestSessionCapabilityExhaustionNeverRenders(t *testing.T) {
	mock := clock.NewMock()
	provider := &fakeProvider{} // never becomes ready
	fetcher := &fakeFetcher{payload: testPayload(t)}
	cfg := testRenderConfig()
	cfg.MaxPollAttempts = 3
	sess := NewSession("CCO", provider, fetcher, cfg, mock, logging.NewNopLogger(), nil)

	errCh := make(chan error, 1)
	go func() { errCh <- sess.Run(context.Background()) }()

	var err error
	advanceUntil(t, mock, cfg.PollInterval, func() bool {
		select {
		case err = <-errCh:
			return true
		default:
			return false
		}
	})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRenderLibraryUnavailable))
	assert.Zero(t, fetcher.calls(), "payload must not be fetched without the capability")
	assert.NotEqual(t, StateRendering, sess.State())
}

func TestSessionCapabilityAppearsMidPoll(t *testing.T) {
	mock := clock.NewMock()
	provider := &fakeProvider{readyAfter: 3}
	fetcher := &fakeFetcher{payload: testPayload(t)}
	sess := NewSession("CCO", provider, fetcher, testRenderConfig(), mock, logging.NewNopLogger(), nil)

	errCh := make(chan error, 1)
	go func() { errCh <- sess.Run(context.Background()) }()

	advanceUntil(t, mock, testRenderConfig().PollInterval, func() bool {
		return sess.State() == StateRendering
	})
	require.NoError(t, <-errCh)
}

func TestSessionTeardownIsIdempotent(t *testing.T) {
	mock := clock.NewMock()
	provider := &fakeProvider{ready: true}
	fetcher := &fakeFetcher{payload: testPayload(t)}
	cfg := testRenderConfig()
	sess := NewSession("CCO", provider, fetcher, cfg, mock, logging.NewNopLogger(), nil)

	errCh := make(chan error, 1)
	go func() { errCh <- sess.Run(context.Background()) }()
	require.Eventually(t, func() bool { return sess.State() == StateRendering },
		time.Second, time.Millisecond)
	require.NoError(t, <-errCh)

	sess.Teardown()
	sess.Teardown()
	assert.Equal(t, StateTornDown, sess.State())
	assert.True(t, provider.surface(0).Cleared())

	// Rotation timers are dead: further ticks change nothing.
	rotated := sess.RotationDegrees()
	for i := 0; i < 5; i++ {
		mock.Add(cfg.RotationTick)
	}
	assert.Equal(t, rotated, sess.RotationDegrees())
}

func TestSessionResetViewDoesNotRestartRotation(t *testing.T) {
	mock := clock.NewMock()
	provider := &fakeProvider{ready: true}
	fetcher := &fakeFetcher{payload: testPayload(t)}
	cfg := testRenderConfig()
	sess := NewSession("CCO", provider, fetcher, cfg, mock, logging.NewNopLogger(), nil)

	errCh := make(chan error, 1)
	go func() { errCh <- sess.Run(context.Background()) }()
	require.Eventually(t, func() bool { return sess.State() == StateRendering },
		time.Second, time.Millisecond)
	require.NoError(t, <-errCh)

	advanceUntil(t, mock, cfg.RotationTick, func() bool {
		return sess.RotationDegrees() >= fullRevolution
	})

	require.NoError(t, sess.ResetView())

	for i := 0; i < 5; i++ {
		mock.Add(cfg.RotationTick)
	}
	assert.Equal(t, fullRevolution, sess.RotationDegrees())
}

func TestSessionFallbackIsTerminalForIdentifier(t *testing.T) {
	mock := clock.NewMock()
	provider := &fakeProvider{ready: true}
	fetcher := &fakeFetcher{err: errors.New(errors.ErrCodeStructureNotFound, "nope")}
	sess := NewSession("CCO", provider, fetcher, testRenderConfig(), mock, logging.NewNopLogger(), nil)

	errCh := make(chan error, 1)
	go func() { errCh <- sess.Run(context.Background()) }()
	err := <-errCh
	require.Error(t, err)

	sess.Fallback("payload_not_found")
	assert.Equal(t, StateFallback, sess.State())

	// Fallback again is a no-op; only teardown leaves the state.
	sess.Fallback("again")
	assert.Equal(t, StateFallback, sess.State())

	sess.Teardown()
	assert.Equal(t, StateTornDown, sess.State())
}

func TestSessionCancellationGuardsStateMutation(t *testing.T) {
	mock := clock.NewMock()
	provider := &fakeProvider{ready: true}
	block := make(chan struct{})
	fetcher := &fakeFetcher{payload: testPayload(t), block: block}
	sess := NewSession("CCO", provider, fetcher, testRenderConfig(), mock, logging.NewNopLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- sess.Run(ctx) }()

	require.Eventually(t, func() bool { return sess.State() == StateAwaitingPayload },
		time.Second, time.Millisecond)
	cancel()
	close(block)

	err := <-errCh
	require.Error(t, err)
	assert.True(t, errors.IsCancelled(err))
	assert.NotEqual(t, StateRendering, sess.State(),
		"a cancelled load must not mutate state after the suspension point")
}

func TestSessionSurfaceFailureSurfacesTypedError(t *testing.T) {
	mock := clock.NewMock()
	provider := &fakeProvider{ready: true, createErr: errors.Internal("gl context lost")}
	fetcher := &fakeFetcher{payload: testPayload(t)}
	sess := NewSession("CCO", provider, fetcher, testRenderConfig(), mock, logging.NewNopLogger(), nil)

	err := sess.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRenderSurfaceFailed))
}
