package health_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arllen133/wikisvc/internal/health"
)

// fakePinger lets tests flip store reachability.
type fakePinger struct {
	mu  sync.Mutex
	err error
}

func (p *fakePinger) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakePinger) setErr(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func probe(t *testing.T, h http.HandlerFunc, path string) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code
}

func TestStartingStateGatesReadiness(t *testing.T) {
	c := health.NewController(&fakePinger{})

	// Before schema init: not started, not ready, but live.
	assert.False(t, c.Started())
	require.ErrorIs(t, c.Ready(context.Background()), health.ErrStarting)
	assert.True(t, c.Live())

	assert.Equal(t, http.StatusServiceUnavailable, probe(t, c.StartupHandler(), "/health/startup"))
	assert.Equal(t, http.StatusServiceUnavailable, probe(t, c.ReadyHandler(), "/health/ready"))
	assert.Equal(t, http.StatusOK, probe(t, c.LiveHandler(), "/health/live"))
}

func TestReadyAfterStartup(t *testing.T) {
	c := health.NewController(&fakePinger{})
	c.MarkStarted()

	assert.True(t, c.Started())
	require.NoError(t, c.Ready(context.Background()))

	assert.Equal(t, http.StatusOK, probe(t, c.StartupHandler(), "/health/startup"))
	assert.Equal(t, http.StatusOK, probe(t, c.ReadyHandler(), "/health/ready"))
}

func TestReadinessTogglesWithStore(t *testing.T) {
	p := &fakePinger{}
	c := health.NewController(p, health.WithProbeTTL(0))
	c.MarkStarted()

	require.NoError(t, c.Ready(context.Background()))

	p.setErr(errors.New("connection refused"))
	require.Error(t, c.Ready(context.Background()))
	// A failing store never affects liveness.
	assert.True(t, c.Live())
	assert.Equal(t, http.StatusOK, probe(t, c.LiveHandler(), "/health/live"))
	assert.Equal(t, http.StatusServiceUnavailable, probe(t, c.ReadyHandler(), "/health/ready"))

	p.setErr(nil)
	require.NoError(t, c.Ready(context.Background()))
}

func TestReadinessProbeCache(t *testing.T) {
	p := &fakePinger{}
	c := health.NewController(p, health.WithProbeTTL(time.Hour))
	c.MarkStarted()

	require.NoError(t, c.Ready(context.Background()))

	// Within the TTL the cached result is served, so the flip is not
	// observed yet.
	p.setErr(errors.New("connection refused"))
	require.NoError(t, c.Ready(context.Background()))
}

func TestStartupFlagIsMonotonic(t *testing.T) {
	c := health.NewController(&fakePinger{err: errors.New("down")}, health.WithProbeTTL(0))
	c.MarkStarted()

	// Store outage after startup flips readiness only; startup stays true.
	require.Error(t, c.Ready(context.Background()))
	assert.True(t, c.Started())
	assert.Equal(t, http.StatusOK, probe(t, c.StartupHandler(), "/health/startup"))
}
