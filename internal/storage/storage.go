// Package storage implements the server-side persistence layer for
// collections: schemas, items, and uploaded assets. Two backends exist, a
// directory-per-collection file store and a Postgres store; both satisfy
// Store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gridbase/gridbase/internal/collection"
)

// ErrNotFound is returned when a collection or item does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence surface consumed by the HTTP handlers.
type Store interface {
	// ListCollections returns all collections, schema only.
	ListCollections(ctx context.Context) ([]*collection.Collection, error)
	// GetCollection returns one collection with all its items.
	GetCollection(ctx context.Context, id string) (*collection.Collection, []*collection.Item, error)
	// CreateCollection persists a new collection.
	CreateCollection(ctx context.Context, c *collection.Collection) error
	// UpdateCollection replaces a collection's schema and metadata.
	UpdateCollection(ctx context.Context, c *collection.Collection) error
	// DeleteCollection removes a collection and all its items.
	DeleteCollection(ctx context.Context, id string) error

	// CreateItem persists a new item in a collection.
	CreateItem(ctx context.Context, collectionID string, it *collection.Item) error
	// UpdateItem replaces an existing item.
	UpdateItem(ctx context.Context, collectionID string, it *collection.Item) error
	// DeleteItem removes an item.
	DeleteItem(ctx context.Context, collectionID, itemID string) error

	// SaveAsset stores an uploaded file and returns the URL path to serve it
	// under.
	SaveAsset(ctx context.Context, collectionID, filename string, r io.Reader) (string, error)
	// OpenAsset opens a previously stored file.
	OpenAsset(ctx context.Context, collectionID, name string) (io.ReadCloser, error)

	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Backend is "file" or "postgres".
	Backend string `yaml:"backend"`
	// Root is the data directory for the file backend.
	Root string `yaml:"root"`
	// DSN is the connection string for the postgres backend. File assets
	// still go under Root.
	DSN string `yaml:"dsn"`
}

// New builds the configured Store.
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Root)
	case "postgres":
		return NewPostgresStore(cfg.DSN, cfg.Root)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
