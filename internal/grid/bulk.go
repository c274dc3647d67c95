// Bulk mutations fan out one persistence call per selected row, await them
// all, and settle optimistically: local state is updated for the whole batch
// once every call has returned, regardless of individual outcomes. The
// per-request results are returned so callers can surface partial failures
// instead of silently assuming success.

package grid

import (
	"context"
	"sync"

	"github.com/gridbase/gridbase/internal/collection"
)

// BulkResult is the outcome of one request within a bulk operation.
type BulkResult struct {
	ItemID string
	Err    error
}

// BulkDelete deletes every selected row. All rows leave the local store and
// the selection clears whether or not the individual calls succeeded; the
// results report which ones did.
func (t *Table) BulkDelete(ctx context.Context) []BulkResult {
	t.mu.Lock()
	ids := t.selectedIDsLocked()
	t.mu.Unlock()
	if len(ids) == 0 {
		return nil
	}

	results := t.fanOut(ids, func(id string) error {
		return t.client.DeleteItem(ctx, t.collectionID, id)
	})

	t.mu.Lock()
	for _, id := range ids {
		t.removeItem(id)
	}
	clear(t.selection)
	t.mu.Unlock()

	t.logFailures("bulk delete", results)
	return results
}

// BulkSetValue writes one column's value on every selected row. Each call
// carries the row's full existing data map with the one field overridden.
// Rows that vanished from the store since selection are skipped. The local
// values update and the selection clears once every call has settled.
func (t *Table) BulkSetValue(ctx context.Context, columnID string, value any) []BulkResult {
	t.mu.Lock()
	col, ok := collection.FindColumn(t.coll.Columns, columnID)
	if !ok {
		t.mu.Unlock()
		return nil
	}
	value = collection.ParseValue(col.Type, value)
	ids := t.selectedIDsLocked()
	payloads := make(map[string]map[string]any, len(ids))
	for _, id := range ids {
		it := t.findItem(id)
		if it == nil {
			continue
		}
		data := it.Clone().Data
		if data == nil {
			data = make(map[string]any)
		}
		data[columnID] = value
		payloads[id] = data
	}
	t.mu.Unlock()
	if len(payloads) == 0 {
		return nil
	}

	kept := ids[:0]
	for _, id := range ids {
		if _, ok := payloads[id]; ok {
			kept = append(kept, id)
		}
	}
	results := t.fanOut(kept, func(id string) error {
		_, err := t.client.UpdateItem(ctx, t.collectionID, id, payloads[id])
		return err
	})

	t.mu.Lock()
	for id, data := range payloads {
		if it := t.findItem(id); it != nil {
			it.Data = data
		}
	}
	clear(t.selection)
	t.mu.Unlock()

	t.logFailures("bulk set value", results)
	return results
}

// fanOut runs one call per id concurrently and waits for all of them.
func (t *Table) fanOut(ids []string, call func(id string) error) []BulkResult {
	results := make([]BulkResult, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = BulkResult{ItemID: id, Err: call(id)}
		}()
	}
	wg.Wait()
	return results
}

func (t *Table) logFailures(op string, results []BulkResult) {
	for _, r := range results {
		if r.Err != nil {
			t.logger.Warn("Bulk operation request failed",
				"collection", t.collectionID, "op", op, "item", r.ItemID, "err", r.Err)
		}
	}
}
