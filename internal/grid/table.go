// The Table owns one collection's in-memory state: schema, items, view
// state, selection, and the drag interaction. All mutators follow the same
// protocol: apply locally first, persist, reconcile on failure. They never
// return errors to the caller; failures are logged where they occur and the
// table stays interactive.

package grid

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gridbase/gridbase/internal/collection"
	"github.com/gridbase/gridbase/internal/viewstate"
)

// Table is the interactive state of one collection.
type Table struct {
	mu       sync.Mutex
	client   PersistClient
	viewSync *viewstate.Synchronizer
	logger   *slog.Logger

	collectionID string
	coll         *collection.Collection
	items        []*collection.Item

	selection map[string]bool
	drag      dragState

	// isAdmin gates the schema mutators. Row and view-state operations are
	// open to everyone.
	isAdmin bool

	now func() time.Time
}

// Options configures a Table.
type Options struct {
	// Admin enables the schema mutators.
	Admin bool
	// Logger overrides slog.Default().
	Logger *slog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Open fetches the collection and builds a Table around it. Unlike the
// mutators, the initial load is a hard dependency and its failure is
// returned.
func Open(ctx context.Context, client PersistClient, collectionID string, nav viewstate.Navigator, durable viewstate.DurableStore, opts Options) (*Table, error) {
	coll, items, err := client.FetchCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Table{
		client:       client,
		viewSync:     viewstate.NewSynchronizer(collectionID, nav, durable),
		logger:       logger,
		collectionID: coll.ID,
		coll:         coll,
		items:        items,
		selection:    make(map[string]bool),
		isAdmin:      opts.Admin,
		now:          now,
	}, nil
}

// Collection returns a copy of the current schema and metadata.
func (t *Table) Collection() *collection.Collection {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.coll.Clone()
}

// ViewState returns a copy of the current view state.
func (t *Table) ViewState() *viewstate.ViewState {
	return t.viewSync.State()
}

// Render absorbs any external navigation, then projects the current items
// through the view state.
func (t *Table) Render() *collection.Projection {
	t.viewSync.Absorb()
	vs := t.viewSync.State()
	t.mu.Lock()
	defer t.mu.Unlock()
	return collection.Project(t.items, t.coll.Columns, vs)
}

// Refresh re-fetches the collection from the server, discarding local items
// and schema in favor of the canonical copies. Selection and view state
// survive.
func (t *Table) Refresh(ctx context.Context) {
	coll, items, err := t.client.FetchCollection(ctx, t.collectionID)
	if err != nil {
		t.logger.Warn("Failed to refresh collection", "collection", t.collectionID, "err", err)
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.coll = coll
	t.items = items
}

// SetSort sorts by a column. An empty columnID clears the sort.
func (t *Table) SetSort(columnID string, dir viewstate.SortDir) {
	t.viewSync.Update(func(v *viewstate.ViewState) {
		v.SortColumnID = columnID
		if dir == "" {
			dir = viewstate.SortAsc
		}
		v.SortDir = dir
	})
}

// ToggleSort cycles a column header click: unsorted -> asc -> desc -> asc.
func (t *Table) ToggleSort(columnID string) {
	t.viewSync.Update(func(v *viewstate.ViewState) {
		if v.SortColumnID == columnID && v.SortDir == viewstate.SortAsc {
			v.SortDir = viewstate.SortDesc
			return
		}
		v.SortColumnID = columnID
		v.SortDir = viewstate.SortAsc
	})
}

// SetGroup groups by a column. An empty columnID clears the grouping.
func (t *Table) SetGroup(columnID string) {
	t.viewSync.Update(func(v *viewstate.ViewState) {
		v.GroupColumnID = columnID
	})
}

// SetFilter filters a column by a substring. An empty columnID or value
// clears the filter.
func (t *Table) SetFilter(columnID, value string) {
	t.viewSync.Update(func(v *viewstate.ViewState) {
		v.FilterColumnID = columnID
		v.FilterValue = value
	})
}

// HideColumn adds a column to the hidden set.
func (t *Table) HideColumn(columnID string) {
	t.viewSync.Update(func(v *viewstate.ViewState) {
		v.Hide(columnID)
	})
}

// ShowColumn removes a column from the hidden set.
func (t *Table) ShowColumn(columnID string) {
	t.viewSync.Update(func(v *viewstate.ViewState) {
		v.Show(columnID)
	})
}

// SetColumnWidth records a column's pixel width.
func (t *Table) SetColumnWidth(columnID string, px int) {
	t.viewSync.Update(func(v *viewstate.ViewState) {
		v.SetWidth(columnID, px)
	})
}

// Item returns a copy of one item by id.
func (t *Table) Item(itemID string) (*collection.Item, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if it := t.findItem(itemID); it != nil {
		return it.Clone(), true
	}
	return nil, false
}

// findItem returns the live item for an id. Caller holds t.mu.
func (t *Table) findItem(itemID string) *collection.Item {
	for _, it := range t.items {
		if it.ID == itemID {
			return it
		}
	}
	return nil
}

// removeItem drops an item from the list. Caller holds t.mu.
func (t *Table) removeItem(itemID string) {
	t.items = slices.DeleteFunc(t.items, func(it *collection.Item) bool {
		return it.ID == itemID
	})
}
