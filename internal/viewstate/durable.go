// Durable per-collection storage for view state.

package viewstate

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DurableStore persists one view state blob per collection id.
// Last write wins; two writers on the same collection overwrite each other.
type DurableStore interface {
	Load(collectionID string) (*ViewState, error)
	Save(collectionID string, v *ViewState) error
	Close() error
}

// SQLiteStore is a DurableStore backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the durable store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open view state store %s: %w", path, err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS view_state (
		collection_id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init view state store: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load returns the stored state for a collection, or nil if none exists.
func (s *SQLiteStore) Load(collectionID string) (*ViewState, error) {
	var blob string
	err := s.db.QueryRow(`SELECT state FROM view_state WHERE collection_id = ?`, collectionID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var v ViewState
	if err := json.Unmarshal([]byte(blob), &v); err != nil {
		// A corrupt blob degrades to defaults rather than wedging the view.
		return nil, nil
	}
	return &v, nil
}

// Save writes the full state blob for a collection.
func (s *SQLiteStore) Save(collectionID string, v *ViewState) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO view_state (collection_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (collection_id)
		DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		collectionID, string(blob), time.Now().UTC().Format(time.RFC3339))
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// MemoryStore is an in-process DurableStore, used in tests and embedders
// that do not want an on-disk database.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string]*ViewState
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]*ViewState)}
}

// Load returns the stored state for a collection, or nil if none exists.
func (s *MemoryStore) Load(collectionID string) (*ViewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.blobs[collectionID]
	if !ok {
		return nil, nil
	}
	return v.Clone(), nil
}

// Save stores a copy of the state for a collection.
func (s *MemoryStore) Save(collectionID string, v *ViewState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[collectionID] = v.Clone()
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
