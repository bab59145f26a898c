package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/focusflow/internal/controllers"
	"github.com/amaumene/focusflow/internal/models"
)

// SessionHandler handles the active session endpoints
type SessionHandler struct {
	sessions *controllers.SessionController
	enrich   *controllers.EnrichmentCoordinator
	logger   *logrus.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *controllers.SessionController, enrich *controllers.EnrichmentCoordinator, logger *logrus.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		enrich:   enrich,
		logger:   logger,
	}
}

// SessionResponse represents the active session and its enrichment state
type SessionResponse struct {
	Active     *models.SessionRecord  `json:"active"`
	Enrichment models.EnrichmentState `json:"enrichment"`
}

// ServeHTTP dispatches the /api/session endpoint
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPost:
		h.load(w, r)
	case http.MethodPatch:
		h.update(w, r)
	case http.MethodDelete:
		h.sessions.ClearActive()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	response := SessionResponse{
		Active:     h.sessions.Active(),
		Enrichment: h.enrich.State(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *SessionHandler) load(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	rec, err := h.sessions.LoadLink(payload.URL)
	if err != nil {
		if errors.Is(err, models.ErrInvalidLink) {
			http.Error(w, "Please paste a valid YouTube link.", http.StatusBadRequest)
			return
		}
		h.logger.WithError(err).Error("Failed to load link")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

func (h *SessionHandler) update(w http.ResponseWriter, r *http.Request) {
	var update models.RecordUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	h.sessions.ApplyUpdate(update)

	// ApplyUpdate is a deliberate no-op without an active session;
	// report the (possibly nil) result rather than an error.
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.sessions.Active())
}

// Generate handles POST /api/session/generate
func (h *SessionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		Kind models.GenerationKind `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	if !payload.Kind.Valid() {
		http.Error(w, "Unknown generation kind", http.StatusBadRequest)
		return
	}

	if err := h.enrich.Generate(payload.Kind); err != nil {
		if errors.Is(err, models.ErrNoActiveSession) {
			http.Error(w, "No active session", http.StatusConflict)
			return
		}
		h.logger.WithError(err).Error("Failed to start generation")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.enrich.State())
}

// Promote handles POST /api/session/promote
func (h *SessionHandler) Promote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.enrich.PromoteToNotes(); err != nil {
		if errors.Is(err, models.ErrNoActiveSession) || errors.Is(err, models.ErrNoEnrichmentOutput) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.logger.WithError(err).Error("Failed to promote output to notes")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.sessions.Active())
}
