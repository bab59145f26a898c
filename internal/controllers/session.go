package controllers

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/amaumene/focusflow/internal/history"
	"github.com/amaumene/focusflow/internal/models"
	"github.com/amaumene/focusflow/internal/resolver"
)

const defaultTitle = "Focus Session"

// SessionController owns the currently active session and orchestrates
// loading links and applying updates against the history store. The
// store itself holds no notion of "active"; only this controller does.
// The mutex serializes compound operations (resolve, find, upsert) so
// no two mutations interleave.
type SessionController struct {
	mu     sync.Mutex
	store  *history.Store
	active *models.SessionRecord
	logger *logrus.Logger
}

// NewSessionController creates a new session controller
func NewSessionController(store *history.Store, logger *logrus.Logger) *SessionController {
	return &SessionController{
		store:  store,
		logger: logger,
	}
}

// LoadLink resolves a raw link, finds or creates the matching record,
// and activates it. An unresolvable link returns ErrInvalidLink and
// clears the active session without touching the store.
func (c *SessionController) LoadLink(rawInput string) (*models.SessionRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	canonicalID, ok := resolver.Resolve(rawInput)
	if !ok {
		c.logger.WithField("input", rawInput).Debug("Link did not resolve to a video ID")
		c.active = nil
		return nil, models.ErrInvalidLink
	}

	rec := c.store.FindByCanonicalID(canonicalID)
	if rec == nil {
		rec = &models.SessionRecord{
			ID:    uuid.NewString(),
			URL:   resolver.WatchURL(canonicalID),
			Title: defaultTitle,
		}
		rec.Touch()
		c.store.Upsert(rec)
		c.logger.WithFields(logrus.Fields{
			"record_id": rec.ID,
			"video_id":  canonicalID,
		}).Info("Created new session record")
	} else {
		rec.Touch()
		c.store.Upsert(rec)
		c.logger.WithFields(logrus.Fields{
			"record_id": rec.ID,
			"video_id":  canonicalID,
		}).Info("Resumed existing session record")
	}

	c.active = rec
	return rec.Clone(), nil
}

// SelectExisting activates a record picked directly from history,
// keyed by stored identity instead of re-resolving a URL
func (c *SessionController) SelectExisting(recordID string) (*models.SessionRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.store.FindByID(recordID)
	if rec == nil {
		return nil, models.ErrRecordNotFound
	}

	rec.Touch()
	c.store.Upsert(rec)
	c.active = rec

	return rec.Clone(), nil
}

// ApplyUpdate merges partial fields into the active record, bumps its
// recency, and upserts. This is the sole path by which notes and
// progress edits reach durable storage. No-op without an active
// session.
func (c *SessionController) ApplyUpdate(update models.RecordUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		c.logger.Debug("ApplyUpdate with no active session, ignoring")
		return
	}

	// Progress and duration are seconds and can never go negative;
	// a bad field must not reach the store, where it would fail
	// validation on the next hydrate.
	if update.Progress != nil && *update.Progress < 0 {
		c.logger.WithField("progress", *update.Progress).Debug("Ignoring negative progress update")
		update.Progress = nil
	}
	if update.Duration != nil && *update.Duration < 0 {
		c.logger.WithField("duration", *update.Duration).Debug("Ignoring negative duration update")
		update.Duration = nil
	}

	update.Apply(c.active)
	c.active.Touch()
	c.store.Upsert(c.active)
}

// DeleteRecord removes a record from history. Deleting the active
// record clears activation.
func (c *SessionController) DeleteRecord(recordID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Remove(recordID)
	if c.active != nil && c.active.ID == recordID {
		c.active = nil
		c.logger.WithField("record_id", recordID).Info("Deleted the active session record")
	}
}

// ClearActive drops the active session without touching history
func (c *SessionController) ClearActive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = nil
}

// Active returns a copy of the active session record, or nil
func (c *SessionController) Active() *models.SessionRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return nil
	}
	return c.active.Clone()
}

// ActiveRecordID returns the active record's ID, or empty when none
func (c *SessionController) ActiveRecordID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return ""
	}
	return c.active.ID
}
