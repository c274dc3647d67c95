// File-system backend. Each collection is a directory named by its id:
//
//	<root>/<id>/collection.json  - schema and metadata
//	<root>/<id>/items.jsonl      - one JSON item per line
//	<root>/<id>/assets/          - uploaded files
//
// Writes go through a temp file and rename so a crash never leaves a
// half-written document behind.

package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gridbase/gridbase/internal/collection"
)

// FileStore is a Store rooted at a directory.
type FileStore struct {
	rootDir string
	mu      sync.Mutex
}

// NewFileStore initializes a FileStore at rootDir, creating it if needed.
func NewFileStore(rootDir string) (*FileStore, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}
	return &FileStore{rootDir: rootDir}, nil
}

func (fs *FileStore) collectionDir(id string) string {
	return filepath.Join(fs.rootDir, id)
}

func (fs *FileStore) collectionPath(id string) string {
	return filepath.Join(fs.collectionDir(id), "collection.json")
}

func (fs *FileStore) itemsPath(id string) string {
	return filepath.Join(fs.collectionDir(id), "items.jsonl")
}

// ListCollections returns every collection's schema, without items.
func (fs *FileStore) ListCollections(_ context.Context) ([]*collection.Collection, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	entries, err := os.ReadDir(fs.rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read root directory: %w", err)
	}
	var out []*collection.Collection
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		c, err := fs.readCollection(entry.Name())
		if err != nil {
			// A stray directory without collection.json is skipped, not fatal.
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// GetCollection returns one collection and all its items.
func (fs *FileStore) GetCollection(_ context.Context, id string) (*collection.Collection, []*collection.Item, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	c, err := fs.readCollection(id)
	if err != nil {
		return nil, nil, err
	}
	items, err := fs.readItems(id)
	if err != nil {
		return nil, nil, err
	}
	return c, items, nil
}

// CreateCollection persists a new collection. An existing id is an error.
func (fs *FileStore) CreateCollection(_ context.Context, c *collection.Collection) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	dir := fs.collectionDir(c.ID)
	if _, err := os.Stat(fs.collectionPath(c.ID)); err == nil {
		return fmt.Errorf("collection %s already exists", c.ID)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create collection directory: %w", err)
	}
	if err := fs.writeCollection(c); err != nil {
		return err
	}
	return fs.writeItems(c.ID, nil)
}

// UpdateCollection replaces a collection's schema and metadata.
func (fs *FileStore) UpdateCollection(_ context.Context, c *collection.Collection) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := fs.readCollection(c.ID); err != nil {
		return err
	}
	return fs.writeCollection(c)
}

// DeleteCollection removes a collection directory and everything in it.
func (fs *FileStore) DeleteCollection(_ context.Context, id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := fs.readCollection(id); err != nil {
		return err
	}
	return os.RemoveAll(fs.collectionDir(id))
}

// CreateItem appends a new item.
func (fs *FileStore) CreateItem(_ context.Context, collectionID string, it *collection.Item) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	items, err := fs.readItems(collectionID)
	if err != nil {
		return err
	}
	for _, existing := range items {
		if existing.ID == it.ID {
			return fmt.Errorf("item %s already exists", it.ID)
		}
	}
	return fs.writeItems(collectionID, append(items, it))
}

// UpdateItem replaces an existing item.
func (fs *FileStore) UpdateItem(_ context.Context, collectionID string, it *collection.Item) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	items, err := fs.readItems(collectionID)
	if err != nil {
		return err
	}
	for i, existing := range items {
		if existing.ID == it.ID {
			items[i] = it
			return fs.writeItems(collectionID, items)
		}
	}
	return fmt.Errorf("item %s: %w", it.ID, ErrNotFound)
}

// DeleteItem removes an item.
func (fs *FileStore) DeleteItem(_ context.Context, collectionID, itemID string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	items, err := fs.readItems(collectionID)
	if err != nil {
		return err
	}
	for i, existing := range items {
		if existing.ID == itemID {
			return fs.writeItems(collectionID, append(items[:i], items[i+1:]...))
		}
	}
	return fmt.Errorf("item %s: %w", itemID, ErrNotFound)
}

// SaveAsset stores an uploaded file under the collection's assets directory
// and returns the URL path it is served at.
func (fs *FileStore) SaveAsset(_ context.Context, collectionID, filename string, r io.Reader) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := fs.readCollection(collectionID); err != nil {
		return "", err
	}
	name := sanitizeFilename(filename)
	if name == "" {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	dir := filepath.Join(fs.collectionDir(collectionID), "assets")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create assets directory: %w", err)
	}
	f, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create asset file: %w", err)
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
		return "", fmt.Errorf("failed to finalize asset: %w", err)
	}
	return "/assets/" + collectionID + "/" + name, nil
}

// OpenAsset opens a stored file for reading.
func (fs *FileStore) OpenAsset(_ context.Context, collectionID, name string) (io.ReadCloser, error) {
	clean := sanitizeFilename(name)
	if clean == "" || clean != name {
		return nil, fmt.Errorf("invalid asset name %q", name)
	}
	f, err := os.Open(filepath.Join(fs.collectionDir(collectionID), "assets", clean))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("asset %s: %w", name, ErrNotFound)
	}
	return f, err
}

// Close is a no-op for the file backend.
func (fs *FileStore) Close() error {
	return nil
}

func (fs *FileStore) readCollection(id string) (*collection.Collection, error) {
	data, err := os.ReadFile(fs.collectionPath(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("collection %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", id, err)
	}
	var c collection.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse collection %s: %w", id, err)
	}
	return &c, nil
}

func (fs *FileStore) writeCollection(c *collection.Collection) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}
	return atomicWrite(fs.collectionPath(c.ID), append(data, '\n'))
}

func (fs *FileStore) readItems(id string) ([]*collection.Item, error) {
	f, err := os.Open(fs.itemsPath(id))
	if os.IsNotExist(err) {
		if _, cerr := os.Stat(fs.collectionPath(id)); cerr != nil {
			return nil, fmt.Errorf("collection %s: %w", id, ErrNotFound)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open items for %s: %w", id, err)
	}
	defer func() { _ = f.Close() }()

	var items []*collection.Item
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var it collection.Item
		if err := json.Unmarshal(line, &it); err != nil {
			return nil, fmt.Errorf("failed to parse item line in %s: %w", id, err)
		}
		items = append(items, &it)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items for %s: %w", id, err)
	}
	return items, nil
}

func (fs *FileStore) writeItems(id string, items []*collection.Item) error {
	var buf strings.Builder
	for _, it := range items {
		line, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("failed to marshal item %s: %w", it.ID, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return atomicWrite(fs.itemsPath(id), []byte(buf.String()))
}

// atomicWrite writes via a temp file and rename in the target directory.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	if err := os.Rename(f.Name(), path); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// sanitizeFilename strips path components and leading dots so uploads cannot
// escape the assets directory.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimLeft(name, ".")
	if name == "" || name == "/" {
		return ""
	}
	return name
}
