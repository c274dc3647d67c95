// Selection tracking. The set may hold ids that the current projection no
// longer shows (a filter applied after selecting, say); those linger until a
// bulk action or an explicit clear removes them.

package grid

import "sort"

// ToggleSelect flips one item's membership in the selection.
func (t *Table) ToggleSelect(itemID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.selection[itemID] {
		delete(t.selection, itemID)
	} else {
		t.selection[itemID] = true
	}
}

// Selected reports whether an item is in the selection.
func (t *Table) Selected(itemID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selection[itemID]
}

// SelectedIDs returns the selected ids in a stable order.
func (t *Table) SelectedIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selectedIDsLocked()
}

func (t *Table) selectedIDsLocked() []string {
	out := make([]string, 0, len(t.selection))
	for id := range t.selection {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ClearSelection empties the selection.
func (t *Table) ClearSelection() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.selection)
}

// ToggleSelectAll operates on the projected subset, not the full row store:
// if every currently visible row is selected it clears the whole selection,
// otherwise it selects every visible row. With an active filter matching 3
// of 10 rows, select-all selects exactly those 3.
func (t *Table) ToggleSelectAll() {
	projected := t.Render().Items

	t.mu.Lock()
	defer t.mu.Unlock()
	all := len(projected) > 0
	for _, it := range projected {
		if !t.selection[it.ID] {
			all = false
			break
		}
	}
	if all {
		clear(t.selection)
		return
	}
	for _, it := range projected {
		t.selection[it.ID] = true
	}
}
