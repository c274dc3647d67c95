// Package viewstate manages the sort/filter/group/visibility/width
// configuration of one rendering of a collection.
//
// The same logical state exists in two external representations: a navigable
// one (shareable query parameters) and a durable one (a local per-collection
// store). The Synchronizer reconciles them with a defined precedence and
// keeps them in step as the state changes.
package viewstate

import (
	"maps"
	"slices"
)

// SortDir defines the sort direction.
type SortDir string

const (
	// SortAsc sorts in ascending order (A-Z, 0-9, oldest-newest).
	SortAsc SortDir = "asc"
	// SortDesc sorts in descending order (Z-A, 9-0, newest-oldest).
	SortDesc SortDir = "desc"
)

// ViewState is the ephemeral view configuration for one collection.
//
// Column ids referenced here may point at columns that no longer exist;
// consumers treat such fields as unset rather than failing.
type ViewState struct {
	SortColumnID   string         `json:"sort,omitempty"`
	SortDir        SortDir        `json:"dir,omitempty"`
	GroupColumnID  string         `json:"group,omitempty"`
	FilterColumnID string         `json:"filterCol,omitempty"`
	FilterValue    string         `json:"filterVal,omitempty"`
	HiddenColumns  []string       `json:"hidden,omitempty"`
	ColumnWidths   map[string]int `json:"widths,omitempty"`
}

// Default returns a ViewState with the hard defaults.
func Default() *ViewState {
	return &ViewState{SortDir: SortAsc}
}

// Clone returns a deep copy of the ViewState.
func (v *ViewState) Clone() *ViewState {
	c := *v
	c.HiddenColumns = slices.Clone(v.HiddenColumns)
	if v.ColumnWidths != nil {
		c.ColumnWidths = maps.Clone(v.ColumnWidths)
	}
	return &c
}

// IsHidden reports whether a column is in the hidden set.
func (v *ViewState) IsHidden(columnID string) bool {
	return slices.Contains(v.HiddenColumns, columnID)
}

// Hide adds a column to the hidden set.
func (v *ViewState) Hide(columnID string) {
	if columnID == "" || v.IsHidden(columnID) {
		return
	}
	v.HiddenColumns = append(v.HiddenColumns, columnID)
}

// Show removes a column from the hidden set.
func (v *ViewState) Show(columnID string) {
	v.HiddenColumns = slices.DeleteFunc(v.HiddenColumns, func(id string) bool {
		return id == columnID
	})
}

// Width returns the configured pixel width for a column, or 0 if unset.
func (v *ViewState) Width(columnID string) int {
	return v.ColumnWidths[columnID]
}

// SetWidth records a pixel width for a column. A width <= 0 clears it.
func (v *ViewState) SetWidth(columnID string, px int) {
	if px <= 0 {
		delete(v.ColumnWidths, columnID)
		return
	}
	if v.ColumnWidths == nil {
		v.ColumnWidths = make(map[string]int)
	}
	v.ColumnWidths[columnID] = px
}

// RemoveColumnRefs drops a deleted column from the hidden set and the width
// map. Sort/filter/group references to the column are left in place; all
// consumers treat dangling references as unset.
func (v *ViewState) RemoveColumnRefs(columnID string) {
	v.Show(columnID)
	delete(v.ColumnWidths, columnID)
}

// Merge resolves the initial state from the two representations.
// For each field, a non-empty navigable value wins, then the durable value,
// then the hard default. Either input may be nil.
func Merge(nav, durable *ViewState) *ViewState {
	out := Default()
	if durable != nil {
		apply(out, durable)
	}
	if nav != nil {
		apply(out, nav)
	}
	return out
}

func apply(dst, src *ViewState) {
	if src.SortColumnID != "" {
		dst.SortColumnID = src.SortColumnID
	}
	if src.SortDir != "" {
		dst.SortDir = src.SortDir
	}
	if src.GroupColumnID != "" {
		dst.GroupColumnID = src.GroupColumnID
	}
	if src.FilterColumnID != "" {
		dst.FilterColumnID = src.FilterColumnID
	}
	if src.FilterValue != "" {
		dst.FilterValue = src.FilterValue
	}
	if len(src.HiddenColumns) > 0 {
		dst.HiddenColumns = slices.Clone(src.HiddenColumns)
	}
	if len(src.ColumnWidths) > 0 {
		dst.ColumnWidths = maps.Clone(src.ColumnWidths)
	}
}
