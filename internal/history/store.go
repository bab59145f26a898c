// Package history owns the ordered, deduplicated collection of
// session records and its write-through persistence.
package history

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/focusflow/internal/models"
	"github.com/amaumene/focusflow/internal/resolver"
)

// Store holds the history collection ordered by descending LastPlayed
// with at most one record per resolved canonical video ID. Every
// successful mutation synchronously writes the full serialized
// collection to durable storage; a failed write is logged and the
// mutation stands in memory, so the user never loses an edit to a
// storage hiccup.
//
// Canonical identity is recomputed from each record's URL on every
// comparison rather than stored redundantly. Lookups are O(n), which
// is fine for a personal history list.
type Store struct {
	mu      sync.Mutex
	records []*models.SessionRecord
	storage Storage
	logger  *logrus.Logger
}

// NewStore creates a store backed by the given storage
func NewStore(storage Storage, logger *logrus.Logger) *Store {
	return &Store{storage: storage, logger: logger}
}

// Load hydrates the collection from durable storage. An absent blob
// is a normal first run and leaves the collection empty.
func (s *Store) Load() error {
	data, err := s.storage.Read()
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if data == nil {
		s.logger.Debug("No stored history, starting empty")
		return nil
	}
	if err := s.Hydrate(data); err != nil {
		return err
	}
	s.logger.WithField("count", s.Len()).Info("History loaded")
	return nil
}

// Upsert inserts the record at the front, or replaces an existing
// record with the same resolved canonical ID in place (the stored
// RecordID is preserved) and moves it to the front. This is the
// single path through which persistence is triggered.
func (s *Store) Upsert(record *models.SessionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := record.Clone()

	if id, ok := resolver.Resolve(rec.URL); ok {
		if existing := s.findByCanonicalID(id); existing != nil && existing.ID != rec.ID {
			rec.ID = existing.ID
		}
	}

	filtered := s.records[:0:0]
	for _, r := range s.records {
		if r.ID != rec.ID {
			filtered = append(filtered, r)
		}
	}
	s.records = append([]*models.SessionRecord{rec}, filtered...)

	s.persist()
}

// Remove deletes the record with the given ID; absent IDs are a no-op
func (s *Store) Remove(recordID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := s.records[:0:0]
	removed := false
	for _, r := range s.records {
		if r.ID == recordID {
			removed = true
			continue
		}
		filtered = append(filtered, r)
	}
	if !removed {
		return
	}
	s.records = filtered
	s.persist()
}

// FindByCanonicalID returns a copy of the first record whose URL
// resolves to the given canonical ID, in current order
func (s *Store) FindByCanonicalID(canonicalID string) *models.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r := s.findByCanonicalID(canonicalID); r != nil {
		return r.Clone()
	}
	return nil
}

func (s *Store) findByCanonicalID(canonicalID string) *models.SessionRecord {
	for _, r := range s.records {
		if id, ok := resolver.Resolve(r.URL); ok && id == canonicalID {
			return r
		}
	}
	return nil
}

// FindByID returns a copy of the record with the given record ID
func (s *Store) FindByID(recordID string) *models.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.ID == recordID {
			return r.Clone()
		}
	}
	return nil
}

// ReplaceAll swaps in an imported collection. The input is validated
// as a whole first; any bad record rejects the entire import and the
// existing collection is left untouched.
func (s *Store) ReplaceAll(records []*models.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateAll(records); err != nil {
		return err
	}
	s.setAll(records)
	s.persist()
	return nil
}

// Records returns a copy of the collection in recency order
func (s *Store) Records() []*models.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.SessionRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Clone())
	}
	return out
}

// Len returns the number of records in the collection
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Serialize renders the collection as a JSON array in the export
// wire shape
func (s *Store) Serialize() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serialize()
}

// Hydrate replaces the collection from a serialized blob. Corrupt or
// non-array input fails with ErrMalformedHistory and leaves the
// in-memory collection at its prior state. Unlike ReplaceAll this
// does not write back to storage; it is the read side of persistence.
func (s *Store) Hydrate(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []*models.SessionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("%w: %v", models.ErrMalformedHistory, err)
	}
	// JSON null unmarshals into a nil slice; only a real array may
	// replace the collection.
	if records == nil {
		return fmt.Errorf("%w: not an array", models.ErrMalformedHistory)
	}
	if err := validateAll(records); err != nil {
		return err
	}
	s.setAll(records)
	return nil
}

func validateAll(records []*models.SessionRecord) error {
	for _, r := range records {
		if r == nil {
			return fmt.Errorf("%w: null record", models.ErrMalformedHistory)
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%w: %v", models.ErrMalformedHistory, err)
		}
	}
	return nil
}

func (s *Store) setAll(records []*models.SessionRecord) {
	next := make([]*models.SessionRecord, 0, len(records))
	for _, r := range records {
		next = append(next, r.Clone())
	}
	sort.SliceStable(next, func(i, j int) bool {
		return next[i].LastPlayed > next[j].LastPlayed
	})

	// Collapse records that resolve to the same video, keeping the
	// most recent one, so an import cannot seed duplicates that
	// Upsert would otherwise have to untangle later. Records with
	// unresolvable URLs coexist untouched.
	seen := make(map[string]struct{}, len(next))
	deduped := next[:0]
	for _, r := range next {
		if id, ok := resolver.Resolve(r.URL); ok {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}
		deduped = append(deduped, r)
	}
	s.records = deduped
}

func (s *Store) serialize() ([]byte, error) {
	records := s.records
	if records == nil {
		records = []*models.SessionRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize history: %w", err)
	}
	return data, nil
}

// persist writes the full collection through to durable storage with
// the lock held. Failure is logged, not propagated: losing durability
// beats blocking the user.
func (s *Store) persist() {
	data, err := s.serialize()
	if err != nil {
		s.logger.WithError(err).Error("Failed to serialize history for persistence")
		return
	}
	if err := s.storage.Write(data); err != nil {
		s.logger.WithError(err).Warn("Failed to persist history, continuing in memory")
	}
}
