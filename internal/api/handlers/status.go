package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/focusflow/internal/history"
)

// StatusHandler handles status requests
type StatusHandler struct {
	store  *history.Store
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(store *history.Store, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		store:  store,
		logger: logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	TotalRecords      int `json:"total_records"`
	Completed         int `json:"completed"`
	WithNotes         int `json:"with_notes"`
	TotalWatchSeconds int `json:"total_watch_seconds"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records := h.store.Records()

	response := StatusResponse{
		TotalRecords: len(records),
	}
	for _, rec := range records {
		if rec.Completed {
			response.Completed++
		}
		if rec.Notes != "" {
			response.WithNotes++
		}
		response.TotalWatchSeconds += rec.Progress
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
