package controllers

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/focusflow/internal/models"
)

// Generator produces a study aid from a session's title and notes.
// Implemented by the Gemini client; tests stub it.
type Generator interface {
	GenerateStudyAid(ctx context.Context, title, notes string, kind models.GenerationKind) (string, error)
}

const generateTimeout = 90 * time.Second

// EnrichmentCoordinator manages the asynchronous request/response
// lifecycle for AI study aids tied to the active session.
//
// The state is tagged with the record ID it was issued for, which
// gives both guards for free: a second trigger for the same session
// while one is in flight is ignored (single-flight), and a response
// arriving after the active session changed is discarded instead of
// applied (staleness guard). AI output is ephemeral display state; it
// is never merged into persisted notes unless the user explicitly
// promotes it.
type EnrichmentCoordinator struct {
	mu        sync.Mutex
	sessions  *SessionController
	generator Generator
	state     models.EnrichmentState
	logger    *logrus.Logger
}

// NewEnrichmentCoordinator creates a new enrichment coordinator
func NewEnrichmentCoordinator(sessions *SessionController, generator Generator, logger *logrus.Logger) *EnrichmentCoordinator {
	return &EnrichmentCoordinator{
		sessions:  sessions,
		generator: generator,
		state:     models.EnrichmentState{Status: models.EnrichmentIdle},
		logger:    logger,
	}
}

// Generate starts an asynchronous study-aid request for the active
// session. It returns ErrNoActiveSession when nothing is active and
// silently ignores a trigger while a request for the same session is
// already in flight; the duplicate is dropped, never queued.
func (e *EnrichmentCoordinator) Generate(kind models.GenerationKind) error {
	active := e.sessions.Active()
	if active == nil {
		return models.ErrNoActiveSession
	}

	e.mu.Lock()
	if e.state.Status == models.EnrichmentRequesting && e.state.RecordID == active.ID {
		e.mu.Unlock()
		e.logger.WithField("record_id", active.ID).Debug("Generation already in flight, ignoring trigger")
		return nil
	}
	e.state = models.EnrichmentState{
		Status:   models.EnrichmentRequesting,
		RecordID: active.ID,
		Kind:     kind,
	}
	e.mu.Unlock()

	e.logger.WithFields(logrus.Fields{
		"record_id": active.ID,
		"kind":      kind,
	}).Info("Starting study-aid generation")

	go e.run(active, kind)
	return nil
}

func (e *EnrichmentCoordinator) run(rec *models.SessionRecord, kind models.GenerationKind) {
	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	output, err := e.generator.GenerateStudyAid(ctx, rec.Title, rec.Notes, kind)

	e.mu.Lock()
	defer e.mu.Unlock()

	// Another request superseded this one while it was in flight.
	if e.state.RecordID != rec.ID || e.state.Status != models.EnrichmentRequesting || e.state.Kind != kind {
		e.logger.WithField("record_id", rec.ID).Debug("Discarding superseded generation result")
		return
	}

	// The user moved to a different video; the result no longer
	// belongs to the active session.
	if e.sessions.ActiveRecordID() != rec.ID {
		e.logger.WithField("record_id", rec.ID).Info("Discarding stale generation result")
		e.state = models.EnrichmentState{Status: models.EnrichmentIdle}
		return
	}

	if err != nil {
		e.logger.WithError(err).Error("Study-aid generation failed")
		e.state = models.EnrichmentState{
			Status:   models.EnrichmentFailed,
			RecordID: rec.ID,
			Kind:     kind,
			Error:    err.Error(),
		}
		return
	}

	e.state = models.EnrichmentState{
		Status:   models.EnrichmentReady,
		RecordID: rec.ID,
		Kind:     kind,
		Output:   output,
	}
	e.logger.WithFields(logrus.Fields{
		"record_id": rec.ID,
		"kind":      kind,
		"length":    len(output),
	}).Info("Study-aid generation completed")
}

// State returns the coordinator state as seen against the current
// active session. A state tagged for a different record reads as
// idle, which makes "reset on active change" implicit.
func (e *EnrichmentCoordinator) State() models.EnrichmentState {
	activeID := e.sessions.ActiveRecordID()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Status == models.EnrichmentIdle || e.state.RecordID != activeID {
		return models.EnrichmentState{Status: models.EnrichmentIdle}
	}
	return e.state
}

// PromoteToNotes appends a ready output to the active session's notes
// through the regular update path. This is the only way AI output
// reaches persisted notes.
func (e *EnrichmentCoordinator) PromoteToNotes() error {
	active := e.sessions.Active()
	if active == nil {
		return models.ErrNoActiveSession
	}

	e.mu.Lock()
	if e.state.Status != models.EnrichmentReady || e.state.RecordID != active.ID {
		e.mu.Unlock()
		return models.ErrNoEnrichmentOutput
	}
	output := e.state.Output
	e.state = models.EnrichmentState{Status: models.EnrichmentIdle}
	e.mu.Unlock()

	notes := active.Notes
	if notes != "" {
		notes += "\n\n"
	}
	notes += output

	e.sessions.ApplyUpdate(models.RecordUpdate{Notes: &notes})
	return nil
}
