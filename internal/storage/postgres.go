// Postgres backend. Collections and items are stored as JSON documents in
// two tables; the connection and schema are initialized lazily on first use.
// Uploaded assets stay on the local file system under the configured root.

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/lib/pq"

	"github.com/gridbase/gridbase/internal/collection"
)

// PostgresStore is a Store backed by Postgres.
type PostgresStore struct {
	dsn     string
	rootDir string

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

// NewPostgresStore creates a PostgresStore. The connection is not opened
// until the first operation.
func NewPostgresStore(dsn, rootDir string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	if rootDir == "" {
		return nil, fmt.Errorf("storage root is required for assets")
	}
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create asset root: %w", err)
	}
	return &PostgresStore{dsn: dsn, rootDir: rootDir}, nil
}

func (p *PostgresStore) ensureReady() error {
	p.initOnce.Do(func() {
		db, err := sql.Open("postgres", p.dsn)
		if err != nil {
			p.initErr = err
			return
		}
		const schema = `
			CREATE TABLE IF NOT EXISTS collections (
				id TEXT PRIMARY KEY,
				doc TEXT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE TABLE IF NOT EXISTS items (
				id TEXT NOT NULL,
				collection_id TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
				doc TEXT NOT NULL,
				seq BIGSERIAL,
				PRIMARY KEY (collection_id, id)
			)`
		if _, err := db.Exec(schema); err != nil {
			_ = db.Close()
			p.initErr = err
			return
		}
		p.db = db
	})
	return p.initErr
}

// ListCollections returns every collection's schema, without items.
func (p *PostgresStore) ListCollections(ctx context.Context) ([]*collection.Collection, error) {
	if err := p.ensureReady(); err != nil {
		return nil, err
	}
	rows, err := p.db.QueryContext(ctx, `SELECT doc FROM collections ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*collection.Collection
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var c collection.Collection
		if err := json.Unmarshal([]byte(doc), &c); err != nil {
			return nil, fmt.Errorf("failed to parse collection document: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// GetCollection returns one collection and all its items.
func (p *PostgresStore) GetCollection(ctx context.Context, id string) (*collection.Collection, []*collection.Item, error) {
	if err := p.ensureReady(); err != nil {
		return nil, nil, err
	}
	var doc string
	err := p.db.QueryRowContext(ctx, `SELECT doc FROM collections WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("collection %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	var c collection.Collection
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return nil, nil, fmt.Errorf("failed to parse collection document: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, `SELECT doc FROM items WHERE collection_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []*collection.Item
	for rows.Next() {
		var itemDoc string
		if err := rows.Scan(&itemDoc); err != nil {
			return nil, nil, err
		}
		var it collection.Item
		if err := json.Unmarshal([]byte(itemDoc), &it); err != nil {
			return nil, nil, fmt.Errorf("failed to parse item document: %w", err)
		}
		items = append(items, &it)
	}
	return &c, items, rows.Err()
}

// CreateCollection persists a new collection.
func (p *PostgresStore) CreateCollection(ctx context.Context, c *collection.Collection) error {
	if err := p.ensureReady(); err != nil {
		return err
	}
	doc, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO collections (id, doc) VALUES ($1, $2)`, c.ID, string(doc))
	return err
}

// UpdateCollection replaces a collection's schema and metadata.
func (p *PostgresStore) UpdateCollection(ctx context.Context, c *collection.Collection) error {
	if err := p.ensureReady(); err != nil {
		return err
	}
	doc, err := json.Marshal(c)
	if err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx,
		`UPDATE collections SET doc = $2, updated_at = NOW() WHERE id = $1`, c.ID, string(doc))
	if err != nil {
		return err
	}
	return checkAffected(res, c.ID)
}

// DeleteCollection removes a collection; its items cascade.
func (p *PostgresStore) DeleteCollection(ctx context.Context, id string) error {
	if err := p.ensureReady(); err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, id)
}

// CreateItem persists a new item.
func (p *PostgresStore) CreateItem(ctx context.Context, collectionID string, it *collection.Item) error {
	if err := p.ensureReady(); err != nil {
		return err
	}
	doc, err := json.Marshal(it)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO items (id, collection_id, doc) VALUES ($1, $2, $3)`,
		it.ID, collectionID, string(doc))
	return err
}

// UpdateItem replaces an existing item.
func (p *PostgresStore) UpdateItem(ctx context.Context, collectionID string, it *collection.Item) error {
	if err := p.ensureReady(); err != nil {
		return err
	}
	doc, err := json.Marshal(it)
	if err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx,
		`UPDATE items SET doc = $3 WHERE collection_id = $1 AND id = $2`,
		collectionID, it.ID, string(doc))
	if err != nil {
		return err
	}
	return checkAffected(res, it.ID)
}

// DeleteItem removes an item.
func (p *PostgresStore) DeleteItem(ctx context.Context, collectionID, itemID string) error {
	if err := p.ensureReady(); err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM items WHERE collection_id = $1 AND id = $2`, collectionID, itemID)
	if err != nil {
		return err
	}
	return checkAffected(res, itemID)
}

// SaveAsset stores the file on the local file system, same as the file
// backend.
func (p *PostgresStore) SaveAsset(ctx context.Context, collectionID, filename string, r io.Reader) (string, error) {
	if err := p.ensureReady(); err != nil {
		return "", err
	}
	var exists int
	err := p.db.QueryRowContext(ctx,
		`SELECT 1 FROM collections WHERE id = $1`, collectionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("collection %s: %w", collectionID, ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	name := sanitizeFilename(filename)
	if name == "" {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	dir := filepath.Join(p.rootDir, collectionID, "assets")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create assets directory: %w", err)
	}
	f, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write asset: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := os.Rename(f.Name(), filepath.Join(dir, name)); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return "/assets/" + collectionID + "/" + name, nil
}

// OpenAsset opens a stored file for reading.
func (p *PostgresStore) OpenAsset(_ context.Context, collectionID, name string) (io.ReadCloser, error) {
	clean := sanitizeFilename(name)
	if clean == "" || clean != name {
		return nil, fmt.Errorf("invalid asset name %q", name)
	}
	f, err := os.Open(filepath.Join(p.rootDir, collectionID, "assets", clean))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("asset %s: %w", name, ErrNotFound)
	}
	return f, err
}

// Close releases the database handle if it was opened.
func (p *PostgresStore) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

func checkAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}
