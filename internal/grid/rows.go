// Row mutators. Creation is the one non-optimistic operation: the row only
// appears once the server echoes the created item back, and the echoed copy
// is canonical. Cell updates are optimistic without rollback; an update that
// fails to persist leaves the local edit in place and is only logged.

package grid

import (
	"context"
	"io"

	"github.com/gridbase/gridbase/internal/collection"
)

// AddRow creates a new item seeded with the schema defaults. Nothing changes
// locally until the server confirms; a failed call keeps the table as it
// was.
func (t *Table) AddRow(ctx context.Context) {
	t.mu.Lock()
	data := collection.DefaultData(t.coll.Columns, t.now())
	t.mu.Unlock()

	created, err := t.client.CreateItem(ctx, t.collectionID, data)
	if err != nil {
		t.logger.Warn("Failed to create item", "collection", t.collectionID, "err", err)
		return
	}
	t.mu.Lock()
	t.items = append(t.items, created)
	t.mu.Unlock()
}

// DeleteRow removes an item, locally first. The id also leaves the
// selection. On persistence failure the local removal stands; the next
// refresh reconciles.
func (t *Table) DeleteRow(ctx context.Context, itemID string) {
	t.mu.Lock()
	t.removeItem(itemID)
	delete(t.selection, itemID)
	t.mu.Unlock()

	if err := t.client.DeleteItem(ctx, t.collectionID, itemID); err != nil {
		t.logger.Warn("Failed to delete item",
			"collection", t.collectionID, "item", itemID, "err", err)
	}
}

// SetCell writes one field of one item, locally first, then persists the
// full data map. A persistence failure is logged and the local value kept.
func (t *Table) SetCell(ctx context.Context, itemID, columnID string, value any) {
	t.mu.Lock()
	it := t.findItem(itemID)
	if it == nil {
		t.mu.Unlock()
		return
	}
	if it.Data == nil {
		it.Data = make(map[string]any)
	}
	col, ok := collection.FindColumn(t.coll.Columns, columnID)
	if ok {
		value = collection.ParseValue(col.Type, value)
	}
	it.Data[columnID] = value
	data := it.Clone().Data
	t.mu.Unlock()

	if _, err := t.client.UpdateItem(ctx, t.collectionID, itemID, data); err != nil {
		t.logger.Warn("Failed to update cell",
			"collection", t.collectionID, "item", itemID, "column", columnID, "err", err)
	}
}

// AttachFile uploads a file and appends its URL to a files cell. The cell
// only changes once the upload succeeds; the subsequent cell write follows
// the usual optimistic protocol.
func (t *Table) AttachFile(ctx context.Context, itemID, columnID, filename string, r io.Reader) {
	t.mu.Lock()
	col, ok := collection.FindColumn(t.coll.Columns, columnID)
	it := t.findItem(itemID)
	var current []string
	if it != nil {
		if v, isList := collection.ParseValue(col.Type, it.Data[columnID]).([]string); isList {
			current = v
		}
	}
	t.mu.Unlock()
	if !ok || col.Type != collection.ColumnTypeFiles || it == nil {
		return
	}

	url, err := t.client.Upload(ctx, t.collectionID, filename, r)
	if err != nil {
		t.logger.Warn("Failed to upload file",
			"collection", t.collectionID, "item", itemID, "file", filename, "err", err)
		return
	}
	t.SetCell(ctx, itemID, columnID, append(current, url))
}
