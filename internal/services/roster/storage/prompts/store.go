// Package prompts provides a BoltDB-backed store for pending free-text
// prompts. Prompt state is transient conversational context; it lives outside
// the roster snapshot database so a snapshot restore never resurrects stale
// prompts.
package prompts

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/louisbranch/pickup.football/internal/services/roster/storage"
)

const promptBucket = "prompts"

// Store provides a BoltDB-backed prompt store.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// PutPrompt persists the pending prompt for a user, replacing any previous
// one.
func (s *Store) PutPrompt(ctx context.Context, record storage.PromptRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal prompt: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(promptBucket))
		if bucket == nil {
			return fmt.Errorf("prompt bucket is missing")
		}
		return bucket.Put(promptKey(record.UserID), payload)
	})
}

// GetPrompt fetches the pending prompt for a user.
func (s *Store) GetPrompt(ctx context.Context, userID int64) (storage.PromptRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.PromptRecord{}, err
	}
	if s == nil || s.db == nil {
		return storage.PromptRecord{}, fmt.Errorf("storage is not configured")
	}

	var record storage.PromptRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(promptBucket))
		if bucket == nil {
			return fmt.Errorf("prompt bucket is missing")
		}
		payload := bucket.Get(promptKey(userID))
		if payload == nil {
			return storage.ErrNotFound
		}
		if err := json.Unmarshal(payload, &record); err != nil {
			return fmt.Errorf("unmarshal prompt: %w", err)
		}
		return nil
	})
	if err != nil {
		return storage.PromptRecord{}, err
	}
	return record, nil
}

// DeletePrompt removes the pending prompt for a user. Deleting a missing
// prompt is not an error.
func (s *Store) DeletePrompt(ctx context.Context, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(promptBucket))
		if bucket == nil {
			return fmt.Errorf("prompt bucket is missing")
		}
		return bucket.Delete(promptKey(userID))
	})
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(promptBucket)); err != nil {
			return fmt.Errorf("create prompt bucket: %w", err)
		}
		return nil
	})
}

func promptKey(userID int64) []byte {
	return []byte(strconv.FormatInt(userID, 10))
}
