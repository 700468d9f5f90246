package health

import (
	"encoding/json"
	"net/http"
)

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// LiveHandler serves the liveness probe. Always 200 while the process can
// run handlers; never touches the store.
func (c *Controller) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "alive")
	}
}

// ReadyHandler serves the readiness probe: 200 when traffic may be routed
// here, 503 while starting or while the store is unreachable.
func (c *Controller) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.Ready(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	}
}

// StartupHandler serves the startup probe: 503 until schema initialization
// completes, 200 from then on.
func (c *Controller) StartupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !c.Started() {
			writeStatus(w, http.StatusServiceUnavailable, "starting")
			return
		}
		writeStatus(w, http.StatusOK, "started")
	}
}
