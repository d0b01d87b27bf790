package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketAppState = []byte("app_state")
	keyAppState    = []byte("state")
)

// AppState is the small client-side state that survives restarts. The
// daemon owns everything else.
type AppState struct {
	SelectedVault string    `json:"selected_vault,omitempty"`
	LastSessionID string    `json:"last_session_id,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

type AppStateStore struct {
	db *bolt.DB
}

func OpenAppStateStore(path string) (*AppStateStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("state db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAppState)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &AppStateStore{db: db}, nil
}

func (s *AppStateStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *AppStateStore) Load() (AppState, error) {
	var state AppState
	if s == nil || s.db == nil {
		return state, errors.New("state store is not open")
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketAppState)
		if bucket == nil {
			return nil
		}
		data := bucket.Get(keyAppState)
		if len(data) == 0 {
			return nil
		}
		return json.Unmarshal(data, &state)
	})
	return state, err
}

func (s *AppStateStore) Save(state AppState) error {
	if s == nil || s.db == nil {
		return errors.New("state store is not open")
	}
	state.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketAppState)
		if err != nil {
			return err
		}
		return bucket.Put(keyAppState, data)
	})
}
