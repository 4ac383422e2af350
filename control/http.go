package control

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jonwraymond/depshield/resilience"
)

// BreakerResponse is the JSON representation of one breaker's state.
type BreakerResponse struct {
	State      string `json:"state"`
	Failures   int    `json:"failures"`
	Successes  int    `json:"successes"`
	TotalCalls int64  `json:"total_calls"`
}

// BreakersResponse is the JSON response for the breaker listing endpoint.
type BreakersResponse struct {
	Timestamp string                     `json:"timestamp"`
	Breakers  map[string]BreakerResponse `json:"breakers"`
}

// ListHandler returns an HTTP handler that reports every bound breaker's state.
func ListHandler(reg *resilience.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		states := reg.States()

		response := BreakersResponse{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Breakers:  make(map[string]BreakerResponse, len(states)),
		}
		for name, stats := range states {
			response.Breakers[name] = toBreakerResponse(stats)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// SingleHandler returns an HTTP handler that reports one breaker's state.
// Responds 404 when the dependency has no binding yet.
func SingleHandler(reg *resilience.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")

		stats, ok := reg.States()[name]
		if !ok {
			writeError(w, http.StatusNotFound, "unknown dependency: "+name)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(toBreakerResponse(stats))
	}
}

// ResetHandler returns an HTTP handler that forces a breaker back to closed.
// Responds 404 when the dependency has no binding yet.
func ResetHandler(reg *resilience.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")

		if err := reg.Reset(name); err != nil {
			if errors.Is(err, resilience.ErrUnknownDependency) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// RegisterHandlers registers all control endpoints on the given mux.
// The reset endpoint mutates breaker state; pass middleware such as
// BearerAuth to guard it.
func RegisterHandlers(mux *http.ServeMux, reg *resilience.Registry, guard func(http.Handler) http.Handler) {
	if guard == nil {
		guard = func(h http.Handler) http.Handler { return h }
	}

	mux.HandleFunc("GET /breakers", ListHandler(reg))
	mux.HandleFunc("GET /breakers/{name}", SingleHandler(reg))
	mux.Handle("POST /breakers/{name}/reset", guard(ResetHandler(reg)))
}

func toBreakerResponse(stats resilience.Stats) BreakerResponse {
	return BreakerResponse{
		State:      stats.State.String(),
		Failures:   stats.Failures,
		Successes:  stats.Successes,
		TotalCalls: stats.TotalCalls,
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
