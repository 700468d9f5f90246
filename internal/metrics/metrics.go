// Package metrics holds the process-wide counter registry and its
// Prometheus text exposition handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns a process-local prometheus registry seeded with the
// baseline Go and process collectors, plus the creation counters. Counters
// start at zero and only ever increase; increments are atomic, so an
// export always reflects every increment that completed before it began.
type Registry struct {
	registry     *prometheus.Registry
	usersCreated prometheus.Counter
	postsCreated prometheus.Counter
}

// New creates a Registry with all collectors registered. Each process
// instance owns exactly one; values are not aggregated across replicas.
func New() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		usersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "users_created_total",
			Help: "Total number of users created since process start.",
		}),
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "posts_created_total",
			Help: "Total number of posts created since process start.",
		}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.usersCreated,
		r.postsCreated,
	)
	return r
}

// UserCreated increments users_created_total.
func (r *Registry) UserCreated() { r.usersCreated.Inc() }

// PostCreated increments posts_created_total.
func (r *Registry) PostCreated() { r.postsCreated.Inc() }

// Handler returns the pull-based text exposition handler for scraping.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
