// Package history keeps a local record of completed summaries in a bbolt
// database so previously summarized videos can be listed and re-read without
// touching the backend.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var summariesBucket = []byte("summaries")

// Record is one completed summary.
type Record struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video_id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists summary records. The database is opened per operation with
// a short timeout so a second process never deadlocks on the file lock.
type Store struct {
	path string
}

// NewStore creates a store backed by the database file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Record stores a completed summary, keyed by video id so resubmitting the
// same video overwrites the previous entry.
func (s *Store) Record(videoID, title, summary string) error {
	if videoID == "" {
		return fmt.Errorf("history: video id is empty")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("history: create dir failed: %w", err)
	}

	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return fmt.Errorf("history: open failed: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	record := Record{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		Title:     title,
		Summary:   summary,
		CreatedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("history: marshal failed: %w", err)
	}

	return db.Update(func(tx *bolt.Tx) error {
		bucket, errBucket := tx.CreateBucketIfNotExists(summariesBucket)
		if errBucket != nil {
			return errBucket
		}
		return bucket.Put([]byte(videoID), raw)
	})
}

// List returns all stored records, newest first.
func (s *Store) List() ([]Record, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, nil
	}

	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("history: open failed: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	var records []Record
	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(summariesBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			var record Record
			if errUnmarshal := json.Unmarshal(v, &record); errUnmarshal != nil {
				// Skip corrupt entries rather than failing the whole listing.
				return nil
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// Get returns the stored record for a video id, or nil when absent.
func (s *Store) Get(videoID string) (*Record, error) {
	records, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].VideoID == videoID {
			return &records[i], nil
		}
	}
	return nil, nil
}
