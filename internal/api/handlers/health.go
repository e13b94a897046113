package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// Pinger checks one backing dependency.
type Pinger func(ctx context.Context) error

// HealthHandler reports liveness plus the state of optional dependencies.
// With no checks configured it always answers ok.
type HealthHandler struct {
	Checks map[string]Pinger
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	res := map[string]string{"status": "ok"}
	for _, name := range names {
		if err := h.Checks[name](ctx); err != nil {
			res[name] = err.Error()
			res["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		res[name] = "ok"
	}

	writeJSON(w, r, status, res)
}
