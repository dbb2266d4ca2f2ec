package render

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/molvista/molvista/internal/domain/molecule"
	"github.com/molvista/molvista/internal/infrastructure/monitoring/logging"
	"github.com/molvista/molvista/internal/infrastructure/monitoring/prometheus"
	"github.com/molvista/molvista/pkg/errors"
)

type fakeResolver struct {
	name  string
	err   error
	calls atomic.Int32
}

func (r *fakeResolver) Resolve(_ context.Context, _ molecule.Identifier) (string, error) {
	r.calls.Add(1)
	return r.name, r.err
}

func newTestOrchestrator(provider CapabilityProvider, fetcher StructureProvider, resolver NameResolver,
	mock *clock.Mock) (*Orchestrator, *prometheus.Metrics) {
	m := prometheus.NewMetrics()
	o := NewOrchestrator(provider, fetcher, resolver, testRenderConfig(), mock, logging.NewNopLogger(), m)
	return o, m
}

func snapshotState(o *Orchestrator) State {
	snap, ok := o.Snapshot()
	if !ok {
		return ""
	}
	return snap.State
}

func TestOrchestratorAllSourcesFailFallbackExactlyOnce(t *testing.T) {
	mock := clock.NewMock()
	provider := &fakeProvider{ready: true}
	fetcher := &fakeFetcher{err: errors.New(errors.ErrCodeStructureNotFound, "all sources exhausted")}
	o, m := newTestOrchestrator(provider, fetcher, nil, mock)

	o.Load("CCO")
	require.Eventually(t, func() bool { return snapshotState(o) == StateFallback },
		time.Second, time.Millisecond)

	assert.Equal(t, 1.0, promtest.ToFloat64(m.FallbacksTotal.WithLabelValues("payload_not_found")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.LoadsTotal.WithLabelValues("fallback")))

	// Same identifier again: fallback is terminal, no second sequence.
	o.Load("CCO")
	assert.Equal(t, 1, fetcher.calls())
	assert.Equal(t, 1.0, promtest.ToFloat64(m.FallbacksTotal.WithLabelValues("payload_not_found")))
}

func TestOrchestratorIdempotentWhileInFlight(t *testing.T) {
	mock := clock.NewMock()
	provider := &fakeProvider{ready: true}
	block := make(chan struct{})
	fetcher := &fakeFetcher{payload: testPayload(t), block: block}
	o, _ := newTestOrchestrator(provider, fetcher, nil, mock)

	o.Load("CCO")
	require.Eventually(t, func() bool { return fetcher.calls() == 1 },
		time.Second, time.Millisecond)

	// Re-invoking with the same identifier is a no-op.
	o.Load("CCO")
	o.Load("CCO")
	assert.Equal(t, 1, fetcher.calls())

	close(block)
	require.Eventually(t, func() bool { return snapshotState(o) == StateRendering },
		time.Second, time.Millisecond)
}

func TestOrchestratorIdentifierChangeCancelsSynchronously(t *testing.T) {
	mock := clock.NewMock()
	provider := &fakeProvider{ready: true}
	block := make(chan struct{})
	fetcher := &fakeFetcher{payload: testPayload(t), block: block}
	o, m := newTestOrchestrator(provider, fetcher, nil, mock)

	o.Load("CCO")
	require.Eventually(t, func() bool { return fetcher.calls() == 1 },
		time.Second, time.Millisecond)

	o.Load("c1ccccc1")

	// By the time Load returns, the first load's token is cancelled and its
	// session torn down.
	assert.Error(t, fetcher.callCtx(0).Err())
	assert.Equal(t, 1.0, promtest.ToFloat64(m.LoadsTotal.WithLabelValues("cancelled")))
	assert.Equal(t, 0.0, promtest.ToFloat64(m.LoadsTotal.WithLabelValues("fallback")),
		"cancellation must not be reported as fallback")

	snap, ok := o.Snapshot()
	require.True(t, ok)
	assert.Equal(t, molecule.Identifier("c1ccccc1"), snap.Identifier)

	close(block)
	require.Eventually(t, func() bool { return snapshotState(o) == StateRendering },
		time.Second, time.Millisecond)
}

func TestOrchestratorIdentifierChangeClearsPreviousSurface(t *testing.T) {
	mock := clock.NewMock()
	provider := &fakeProvider{ready: true}
	fetcher := &fakeFetcher{payload: testPayload(t)}
	o, _ := newTestOrchestrator(provider, fetcher, nil, mock)

	o.Load("CCO")
	require.Eventually(t, func() bool { return snapshotState(o) == StateRendering },
		time.Second, time.Millisecond)

	o.Load("c1ccccc1")
	require.Eventually(t, func() bool { return snapshotState(o) == StateRendering },
		time.Second, time.Millisecond)

	assert.True(t, provider.surface(0).Cleared(), "previous surface must be released")
	assert.False(t, provider.surface(1).Cleared())
}

func TestOrchestratorDeadlineForcesFallback(t *testing.T) {
	mock := clock.NewMock()
	provider := &fakeProvider{ready: true}
	block := make(chan struct{}) // fetch hangs past the deadline
	fetcher := &fakeFetcher{payload: testPayload(t), block: block}
	o, m := newTestOrchestrator(provider, fetcher, nil, mock)

	o.Load("CCO")
	require.Eventually(t, func() bool { return fetcher.calls() == 1 },
		time.Second, time.Millisecond)

	advanceUntil(t, mock, time.Second, func() bool {
		return snapshotState(o) == StateFallback
	})
	assert.Equal(t, 1.0, promtest.ToFloat64(m.FallbacksTotal.WithLabelValues("deadline")))
}

func TestFallbackReasonLabels(t *testing.T) {
	cases := []struct {
		code   errors.ErrorCode
		reason string
	}{
		{errors.ErrCodeRenderDeadlineExceeded, "deadline"},
		{errors.ErrCodeRenderLibraryUnavailable, "library_unavailable"},
		{errors.ErrCodeStructureNotFound, "payload_not_found"},
		{errors.ErrCodeStructureInvalid, "payload_invalid"},
		{errors.ErrCodeRenderSurfaceFailed, "render_failed"},
		{errors.ErrCodeTimeout, "timeout"},
		{errors.ErrCodeInternal, "error"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.reason, fallbackReason(errors.New(tc.code, "boom")), string(tc.code))
	}

	// A deadline wrapping the underlying cancellation keeps its label.
	wrapped := errors.New(errors.ErrCodeRenderDeadlineExceeded, "load deadline elapsed before first frame").
		WithCause(errors.New(errors.ErrCodeCancelled, "load cancelled"))
	assert.Equal(t, "deadline", fallbackReason(wrapped))
}

func TestOrchestratorRenderSuccessCancelsDeadline(t *testing.T) {
	mock := clock.NewMock()
	provider := &fakeProvider{ready: true}
	fetcher := &fakeFetcher{payload: testPayload(t)}
	o, m := newTestOrchestrator(provider, fetcher, nil, mock)

	o.Load("CCO")
	require.Eventually(t, func() bool { return snapshotState(o) == StateRendering },
		time.Second, time.Millisecond)

	// Blow well past the deadline; the session must stay live.
	for i := 0; i < 20; i++ {
		mock.Add(time.Second)
	}
	assert.Equal(t, StateRendering, snapshotState(o))
	assert.Equal(t, 0.0, promtest.ToFloat64(m.LoadsTotal.WithLabelValues("fallback")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.LoadsTotal.WithLabelValues("ok")))
}

func TestOrchestratorNamePublishedAlongsideLoad(t *testing.T) {
	mock := clock.NewMock()
	provider := &fakeProvider{ready: true}
	fetcher := &fakeFetcher{payload: testPayload(t)}
	resolver := &fakeResolver{name: "ethanol"}
	o, _ := newTestOrchestrator(provider, fetcher, resolver, mock)

	o.Load("CCO")
	require.Eventually(t, func() bool {
		snap, ok := o.Snapshot()
		return ok && snap.Name == "ethanol"
	}, time.Second, time.Millisecond)
}

func TestOrchestratorResolverFailureIsSilent(t *testing.T) {
	mock := clock.NewMock()
	provider := &fakeProvider{ready: true}
	fetcher := &fakeFetcher{payload: testPayload(t)}
	resolver := &fakeResolver{err: errors.New(errors.ErrCodeNameUnavailable, "no name")}
	o, _ := newTestOrchestrator(provider, fetcher, resolver, mock)

	o.Load("CCO")
	require.Eventually(t, func() bool { return snapshotState(o) == StateRendering },
		time.Second, time.Millisecond)

	snap, ok := o.Snapshot()
	require.True(t, ok)
	assert.Empty(t, snap.Name, "a failed lookup must not publish a name")
}

func TestLoadNameIsSetAtMostOnce(t *testing.T) {
	ld := &load{}
	ld.setName("ethanol")
	ld.setName("grain alcohol")

	name, ok := ld.displayName()
	assert.True(t, ok)
	assert.Equal(t, "ethanol", name)
}

func TestOrchestratorCancelTearsDown(t *testing.T) {
	mock := clock.NewMock()
	provider := &fakeProvider{ready: true}
	fetcher := &fakeFetcher{payload: testPayload(t)}
	o, _ := newTestOrchestrator(provider, fetcher, nil, mock)

	o.Load("CCO")
	require.Eventually(t, func() bool { return snapshotState(o) == StateRendering },
		time.Second, time.Millisecond)

	o.Cancel()
	_, ok := o.Snapshot()
	assert.False(t, ok)
	assert.True(t, provider.surface(0).Cleared())

	o.Cancel() // idempotent
}

func TestOrchestratorResetViewWithoutLoad(t *testing.T) {
	mock := clock.NewMock()
	o, _ := newTestOrchestrator(&fakeProvider{ready: true}, &fakeFetcher{}, nil, mock)
	err := o.ResetView()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRenderSessionTornDown))
}
