package history

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// Storage is the durable backing for the serialized history
// collection. Read returns nil on first run (absent is not an error).
type Storage interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Close() error
}

var (
	historyBucket = []byte("focusflow")
	historyKey    = []byte("history")
)

// BoltStorage stores the whole collection as one blob under a fixed
// key in a bbolt bucket.
type BoltStorage struct {
	db *bbolt.DB
}

// NewBoltStorage opens (or creates) the history database file
func NewBoltStorage(path string) (*BoltStorage, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(historyBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history bucket: %w", err)
	}

	return &BoltStorage{db: db}, nil
}

// Read returns the stored blob, or nil when nothing has been written
func (s *BoltStorage) Read() ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(historyBucket).Get(historyKey)
		if v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return data, nil
}

// Write replaces the stored blob
func (s *BoltStorage) Write(data []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(historyBucket).Put(historyKey, data)
	})
	if err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (s *BoltStorage) Close() error {
	return s.db.Close()
}
