package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/focusflow/internal/controllers"
	"github.com/amaumene/focusflow/internal/history"
	"github.com/amaumene/focusflow/internal/models"
)

const exportFilename = "focusflow_history.json"

// Import bodies are small personal history files; cap them anyway.
const maxImportBytes = 8 << 20

// HistoryHandler handles the history collection endpoints
type HistoryHandler struct {
	store    *history.Store
	sessions *controllers.SessionController
	logger   *logrus.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(store *history.Store, sessions *controllers.SessionController, logger *logrus.Logger) *HistoryHandler {
	return &HistoryHandler{
		store:    store,
		sessions: sessions,
		logger:   logger,
	}
}

// List handles GET /api/history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.store.Records())
}

// Item handles /api/history/{id} (DELETE only)
func (h *HistoryHandler) Item(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	recordID := strings.TrimPrefix(r.URL.Path, "/api/history/")
	if recordID == "" || strings.Contains(recordID, "/") {
		http.Error(w, "Missing record ID", http.StatusBadRequest)
		return
	}

	h.sessions.DeleteRecord(recordID)
	w.WriteHeader(http.StatusNoContent)
}

// Select handles POST /api/history/select
func (h *HistoryHandler) Select(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	rec, err := h.sessions.SelectExisting(payload.ID)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			http.Error(w, "Record not found", http.StatusNotFound)
			return
		}
		h.logger.WithError(err).Error("Failed to select record")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// Export handles GET /api/history/export
func (h *HistoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := h.store.Serialize()
	if err != nil {
		h.logger.WithError(err).Error("Failed to serialize history for export")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.Write(data)
}

// Import handles POST /api/history/import. The upload replaces the
// whole collection; a malformed blob is rejected and the existing
// collection is left untouched.
func (h *HistoryHandler) Import(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	var records []*models.SessionRecord
	if err := json.Unmarshal(data, &records); err != nil || records == nil {
		http.Error(w, "Invalid JSON file.", http.StatusBadRequest)
		return
	}
	if err := h.store.ReplaceAll(records); err != nil {
		if errors.Is(err, models.ErrMalformedHistory) {
			http.Error(w, "Invalid JSON file.", http.StatusBadRequest)
			return
		}
		h.logger.WithError(err).Error("Failed to import history")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.WithField("count", h.store.Len()).Info("History imported")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"imported": h.store.Len()})
}
