package models

import (
	"fmt"
	"time"
)

// SessionRecord represents one watched or queued video with its notes
// and advisory progress. The JSON tags are the import/export wire
// shape and the persisted history shape; LastPlayed is epoch millis.
type SessionRecord struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	LastPlayed int64  `json:"lastPlayed"`
	Progress   int    `json:"progress"`
	Duration   int    `json:"duration"`
	Completed  bool   `json:"completed"`
	Notes      string `json:"notes"`
}

// Touch bumps LastPlayed to the current time
func (r *SessionRecord) Touch() {
	r.LastPlayed = time.Now().UnixMilli()
}

// Validate checks that an imported record is well formed
func (r *SessionRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record is missing id")
	}
	if r.URL == "" {
		return fmt.Errorf("record %s is missing url", r.ID)
	}
	if r.Progress < 0 {
		return fmt.Errorf("record %s has negative progress", r.ID)
	}
	if r.Duration < 0 {
		return fmt.Errorf("record %s has negative duration", r.ID)
	}
	return nil
}

// Clone returns a copy so callers cannot mutate stored state in place
func (r *SessionRecord) Clone() *SessionRecord {
	c := *r
	return &c
}

// RecordUpdate carries partial field updates applied to the active
// session. Nil fields are left untouched.
type RecordUpdate struct {
	Title     *string `json:"title,omitempty"`
	Progress  *int    `json:"progress,omitempty"`
	Duration  *int    `json:"duration,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// Apply merges the update into the record
func (u RecordUpdate) Apply(r *SessionRecord) {
	if u.Title != nil {
		r.Title = *u.Title
	}
	if u.Progress != nil {
		r.Progress = *u.Progress
	}
	if u.Duration != nil {
		r.Duration = *u.Duration
	}
	if u.Completed != nil {
		r.Completed = *u.Completed
	}
	if u.Notes != nil {
		r.Notes = *u.Notes
	}
}
