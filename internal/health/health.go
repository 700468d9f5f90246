// Package health tracks the three probe states an orchestrator uses to
// gate traffic and restarts: startup (schema initialized), readiness
// (store reachable right now), and liveness (process responsive).
//
// The three states are deliberately independent. Liveness performs no
// external I/O, so a store outage can never make the orchestrator restart
// a healthy process; it only pulls the process out of the traffic pool
// through readiness.
package health

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultProbeTTL     = 2 * time.Second
	defaultProbeTimeout = time.Second
)

// ErrStarting is reported by Ready while schema initialization has not
// completed. Readiness is false in this state regardless of store
// reachability.
var ErrStarting = errors.New("health: startup not complete")

// Pinger is the store-side connectivity probe. Satisfied by *store.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller holds the per-process probe state. All methods are safe for
// concurrent use and return promptly: the readiness ping carries its own
// timeout and a short-lived cache keeps probe load off the store.
type Controller struct {
	pinger       Pinger
	probeTTL     time.Duration
	probeTimeout time.Duration

	started atomic.Bool

	mu       sync.Mutex
	probedAt time.Time
	probeErr error
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithProbeTTL sets how long a readiness probe result is reused.
func WithProbeTTL(d time.Duration) ControllerOption {
	return func(c *Controller) { c.probeTTL = d }
}

// WithProbeTimeout bounds a single readiness ping.
func WithProbeTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) { c.probeTimeout = d }
}

// NewController creates a Controller in the Starting state.
func NewController(p Pinger, opts ...ControllerOption) *Controller {
	c := &Controller{
		pinger:       p,
		probeTTL:     defaultProbeTTL,
		probeTimeout: defaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MarkStarted records that schema initialization completed. Called once;
// the flag never reverts.
func (c *Controller) MarkStarted() {
	c.started.Store(true)
}

// Started reports whether the process has left the Starting state.
func (c *Controller) Started() bool {
	return c.started.Load()
}

// Live reports process responsiveness. It performs no I/O: if this code
// runs at all, the request-handling loop is alive.
func (c *Controller) Live() bool {
	return true
}

// Ready returns nil when the process may receive traffic: startup is
// complete and the store answered a connectivity probe within the last
// probeTTL. A failing store makes Ready report an error without affecting
// liveness.
func (c *Controller) Ready(ctx context.Context) error {
	if !c.started.Load() {
		return ErrStarting
	}

	c.mu.Lock()
	if !c.probedAt.IsZero() && time.Since(c.probedAt) < c.probeTTL {
		err := c.probeErr
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	// Probe outside the lock so concurrent probes never serialize on a
	// slow store; the timeout bounds each attempt.
	pctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()
	err := c.pinger.Ping(pctx)

	c.mu.Lock()
	c.probedAt = time.Now()
	c.probeErr = err
	c.mu.Unlock()
	return err
}
