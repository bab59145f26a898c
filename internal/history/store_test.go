package history

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/focusflow/internal/models"
)

// memStorage is an in-memory Storage for tests
type memStorage struct {
	data   []byte
	writes int
	fail   bool
}

func (m *memStorage) Read() ([]byte, error) { return m.data, nil }

func (m *memStorage) Write(data []byte) error {
	if m.fail {
		return errors.New("disk on fire")
	}
	m.data = data
	m.writes++
	return nil
}

func (m *memStorage) Close() error { return nil }

func newTestStore() (*Store, *memStorage) {
	storage := &memStorage{}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewStore(storage, logger), storage
}

func record(id, url string, lastPlayed int64) *models.SessionRecord {
	return &models.SessionRecord{
		ID:         id,
		URL:        url,
		Title:      "Focus Session",
		LastPlayed: lastPlayed,
	}
}

func TestUpsertDedupAcrossURLSpellings(t *testing.T) {
	store, _ := newTestStore()

	store.Upsert(record("a", "https://youtu.be/dQw4w9WgXcQ", 100))
	// Same video, different spelling, different record ID.
	store.Upsert(record("b", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=x", 200))

	require.Equal(t, 1, store.Len())
	// The original record ID survives the replacement.
	got := store.Records()[0]
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, int64(200), got.LastPlayed)
}

func TestUpsertIdempotent(t *testing.T) {
	store, _ := newTestStore()

	rec := record("a", "https://youtu.be/dQw4w9WgXcQ", 100)
	for i := 0; i < 5; i++ {
		store.Upsert(rec)
	}
	assert.Equal(t, 1, store.Len())
}

func TestUpsertMovesToFront(t *testing.T) {
	store, _ := newTestStore()

	store.Upsert(record("a", "https://youtu.be/aaaaaaaaaaa", 100))
	store.Upsert(record("b", "https://youtu.be/bbbbbbbbbbb", 200))
	store.Upsert(record("c", "https://youtu.be/ccccccccccc", 300))

	// Re-touch the oldest record.
	store.Upsert(record("a", "https://youtu.be/aaaaaaaaaaa", 400))

	records := store.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "c", records[1].ID)
	assert.Equal(t, "b", records[2].ID)
}

func TestUpsertUnresolvableURLsCoexist(t *testing.T) {
	store, _ := newTestStore()

	// Records whose URL does not resolve dedup by record ID only.
	store.Upsert(record("a", "not a link", 100))
	store.Upsert(record("b", "also not a link", 200))

	assert.Equal(t, 2, store.Len())
}

func TestRemove(t *testing.T) {
	store, storage := newTestStore()

	store.Upsert(record("a", "https://youtu.be/aaaaaaaaaaa", 100))
	writesBefore := storage.writes

	store.Remove("a")
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, writesBefore+1, storage.writes)

	// Removing an absent ID is a no-op and does not persist.
	store.Remove("nope")
	assert.Equal(t, writesBefore+1, storage.writes)
}

func TestFindByCanonicalID(t *testing.T) {
	store, _ := newTestStore()

	store.Upsert(record("a", "https://youtu.be/dQw4w9WgXcQ", 100))

	found := store.FindByCanonicalID("dQw4w9WgXcQ")
	require.NotNil(t, found)
	assert.Equal(t, "a", found.ID)

	assert.Nil(t, store.FindByCanonicalID("zzzzzzzzzzz"))

	// Returned record is a copy; mutating it does not touch the store.
	found.Title = "changed"
	assert.Equal(t, "Focus Session", store.Records()[0].Title)
}

func TestReplaceAllRejectsMalformed(t *testing.T) {
	store, _ := newTestStore()

	store.Upsert(record("a", "https://youtu.be/aaaaaaaaaaa", 100))
	before, err := store.Serialize()
	require.NoError(t, err)

	err = store.ReplaceAll([]*models.SessionRecord{
		record("b", "https://youtu.be/bbbbbbbbbbb", 200),
		{URL: "missing id"},
	})
	require.ErrorIs(t, err, models.ErrMalformedHistory)

	negative := record("c", "https://youtu.be/ccccccccccc", 300)
	negative.Progress = -5
	err = store.ReplaceAll([]*models.SessionRecord{negative})
	require.ErrorIs(t, err, models.ErrMalformedHistory)

	after, err := store.Serialize()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestReplaceAllSortsByRecency(t *testing.T) {
	store, _ := newTestStore()

	err := store.ReplaceAll([]*models.SessionRecord{
		record("old", "https://youtu.be/aaaaaaaaaaa", 100),
		record("new", "https://youtu.be/bbbbbbbbbbb", 300),
		record("mid", "https://youtu.be/ccccccccccc", 200),
	})
	require.NoError(t, err)

	records := store.Records()
	require.Len(t, records, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{records[0].ID, records[1].ID, records[2].ID})
}

func TestReplaceAllDedupsByCanonicalID(t *testing.T) {
	store, _ := newTestStore()

	// Two spellings of the same video in one import.
	err := store.ReplaceAll([]*models.SessionRecord{
		record("short", "https://youtu.be/dQw4w9WgXcQ", 100),
		record("long", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=x", 200),
		record("other", "https://youtu.be/aaaaaaaaaaa", 150),
	})
	require.NoError(t, err)

	records := store.Records()
	require.Len(t, records, 2)
	// The most recent spelling wins.
	assert.Equal(t, "long", records[0].ID)
	assert.Equal(t, "other", records[1].ID)
}

func TestHydrateRejectsNonArray(t *testing.T) {
	store, _ := newTestStore()

	store.Upsert(record("a", "https://youtu.be/aaaaaaaaaaa", 100))

	err := store.Hydrate([]byte(`{"id":"x","url":"y"}`))
	require.ErrorIs(t, err, models.ErrMalformedHistory)
	assert.Equal(t, 1, store.Len())

	err = store.Hydrate([]byte(`not json`))
	require.ErrorIs(t, err, models.ErrMalformedHistory)
	assert.Equal(t, 1, store.Len())

	// null parses fine but is not an array either.
	err = store.Hydrate([]byte(`null`))
	require.ErrorIs(t, err, models.ErrMalformedHistory)
	assert.Equal(t, 1, store.Len())
}

func TestSerializeHydrateRoundTrip(t *testing.T) {
	store, _ := newTestStore()

	rec := record("a", "https://youtu.be/dQw4w9WgXcQ", time.Now().UnixMilli())
	rec.Notes = "key points at 12:30"
	rec.Progress = 750
	rec.Duration = 1800
	rec.Completed = true
	store.Upsert(rec)

	data, err := store.Serialize()
	require.NoError(t, err)

	other, _ := newTestStore()
	require.NoError(t, other.Hydrate(data))

	require.Equal(t, 1, other.Len())
	assert.Equal(t, rec, other.Records()[0])
}

func TestLoadEmptyStorage(t *testing.T) {
	store, _ := newTestStore()
	require.NoError(t, store.Load())
	assert.Equal(t, 0, store.Len())
}

func TestPersistenceFailureKeepsMutation(t *testing.T) {
	store, storage := newTestStore()
	storage.fail = true

	store.Upsert(record("a", "https://youtu.be/aaaaaaaaaaa", 100))

	// The write failed, but the in-memory mutation stands.
	assert.Equal(t, 1, store.Len())
	assert.Nil(t, storage.data)
}

func TestWriteThroughOnEveryMutation(t *testing.T) {
	store, storage := newTestStore()

	store.Upsert(record("a", "https://youtu.be/aaaaaaaaaaa", 100))
	store.Upsert(record("b", "https://youtu.be/bbbbbbbbbbb", 200))
	store.Remove("a")
	require.NoError(t, store.ReplaceAll(nil))

	assert.Equal(t, 4, storage.writes)
}
