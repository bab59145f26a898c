package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/focusflow/internal/history"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	store  *history.Store
	logger *logrus.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store *history.Store, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// ServeHTTP handles the health check endpoint. Readiness amounts to
// the history store being hydrated and answering queries.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":  "healthy",
		"records": h.store.Len(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
