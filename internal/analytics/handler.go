package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// StatsPath is where Register mounts the stats endpoint.
const StatsPath = "/api/v1/analytics"

const maxTopN = 100

// Handler serves the aggregator's totals as JSON.
type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

// Register mounts Stats on mux for GET and HEAD.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+StatsPath, h.Stats)
}

// Stats writes the current totals. The optional top parameter (1-100,
// default DefaultTopN) sets how many queries each ranking lists.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	topN := DefaultTopN
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxTopN {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "top must be an integer between 1 and " + strconv.Itoa(maxTopN),
			})
			return
		}
		topN = n
	}
	w.Header().Set("Cache-Control", "no-store")
	h.writeJSON(w, http.StatusOK, h.aggregator.Snapshot(topN))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
