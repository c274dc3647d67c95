// Schema mutators. Every operation takes a snapshot of the column array,
// applies the change locally, persists the full array, and restores the
// snapshot when persistence fails. Row values for deleted columns are left
// in place; they are orphaned but harmless.

package grid

import (
	"context"
	"slices"

	"github.com/gridbase/gridbase/internal/collection"
	"github.com/gridbase/gridbase/internal/viewstate"
)

// AddColumn appends a new column of the given type. A blank name is a no-op;
// callers keep the action disabled until the name is non-empty, so a blank
// name never reaches the network.
func (t *Table) AddColumn(ctx context.Context, name string, typ collection.ColumnType) {
	if !t.isAdmin || name == "" || !typ.Valid() {
		return
	}
	t.mutateColumns(ctx, "add column", func(columns []collection.Column) []collection.Column {
		return append(columns, collection.Column{
			ID:   collection.NewColumnID(),
			Name: name,
			Type: typ,
		})
	})
}

// RenameColumn changes a column's display name.
func (t *Table) RenameColumn(ctx context.Context, columnID, name string) {
	if !t.isAdmin || name == "" {
		return
	}
	t.mutateColumns(ctx, "rename column", func(columns []collection.Column) []collection.Column {
		for i := range columns {
			if columns[i].ID == columnID {
				columns[i].Name = name
			}
		}
		return columns
	})
}

// DeleteColumn removes a column from the schema. The view state drops its
// hidden and width entries immediately, even while the persistence call is
// in flight; on failure the column comes back but the cleaned view state
// stays, which consumers tolerate.
func (t *Table) DeleteColumn(ctx context.Context, columnID string) {
	if !t.isAdmin {
		return
	}
	t.viewSync.Update(func(v *viewstate.ViewState) {
		v.RemoveColumnRefs(columnID)
	})
	t.mutateColumns(ctx, "delete column", func(columns []collection.Column) []collection.Column {
		return slices.DeleteFunc(columns, func(c collection.Column) bool {
			return c.ID == columnID
		})
	})
}

// AddSelectOption appends an allowed value to a select column. Duplicate and
// blank options are no-ops, as are non-select columns.
func (t *Table) AddSelectOption(ctx context.Context, columnID, option string) {
	if !t.isAdmin || option == "" {
		return
	}
	t.mutateColumns(ctx, "add select option", func(columns []collection.Column) []collection.Column {
		for i := range columns {
			c := &columns[i]
			if c.ID != columnID || c.Type != collection.ColumnTypeSelect {
				continue
			}
			if !slices.Contains(c.Options, option) {
				c.Options = append(c.Options, option)
			}
		}
		return columns
	})
}

// RemoveSelectOption drops an allowed value from a select column. Cell
// values holding the removed option are untouched.
func (t *Table) RemoveSelectOption(ctx context.Context, columnID, option string) {
	if !t.isAdmin {
		return
	}
	t.mutateColumns(ctx, "remove select option", func(columns []collection.Column) []collection.Column {
		for i := range columns {
			c := &columns[i]
			if c.ID != columnID || c.Type != collection.ColumnTypeSelect {
				continue
			}
			c.Options = slices.DeleteFunc(c.Options, func(o string) bool {
				return o == option
			})
		}
		return columns
	})
}

// MoveColumnBefore removes the source column and reinserts it immediately
// before the target. Used by the drag controller on drop.
func (t *Table) MoveColumnBefore(ctx context.Context, sourceID, targetID string) {
	if !t.isAdmin || sourceID == targetID {
		return
	}
	t.mutateColumns(ctx, "reorder columns", func(columns []collection.Column) []collection.Column {
		src := slices.IndexFunc(columns, func(c collection.Column) bool { return c.ID == sourceID })
		if src < 0 {
			return columns
		}
		moved := columns[src]
		columns = slices.Delete(columns, src, src+1)
		dst := slices.IndexFunc(columns, func(c collection.Column) bool { return c.ID == targetID })
		if dst < 0 {
			dst = len(columns)
		}
		return slices.Insert(columns, dst, moved)
	})
}

// mutateColumns runs the optimistic schema mutation protocol: snapshot,
// apply, persist, restore on failure.
func (t *Table) mutateColumns(ctx context.Context, op string, apply func([]collection.Column) []collection.Column) {
	t.mu.Lock()
	snapshot := collection.CloneColumns(t.coll.Columns)
	t.coll.Columns = apply(collection.CloneColumns(t.coll.Columns))
	updated := collection.CloneColumns(t.coll.Columns)
	t.mu.Unlock()

	if err := t.client.UpdateColumns(ctx, t.collectionID, updated); err != nil {
		t.logger.Warn("Schema mutation failed, rolling back",
			"collection", t.collectionID, "op", op, "err", err)
		t.mu.Lock()
		t.coll.Columns = snapshot
		t.mu.Unlock()
	}
}
