// The projection pipeline: (items, schema, view state) -> display list.
// Pure; applied in fixed order filter -> sort -> group.

package collection

import (
	"slices"
	"strings"

	"github.com/gridbase/gridbase/internal/viewstate"
)

// NoneBucketKey is the sentinel bucket for rows with no value in the group
// column.
const NoneBucketKey = "(none)"

// Bucket is one group of projected items.
type Bucket struct {
	Key   string
	Items []*Item
}

// Projection is the filtered, sorted, optionally grouped display list.
// Hidden columns and widths do not affect it; they are a rendering concern
// consumed at the boundary.
type Projection struct {
	// Items is the filtered and sorted list.
	Items []*Item
	// Buckets is populated only when Grouped; iteration order is the order
	// of first occurrence in Items, not alphabetical. Sort order is
	// preserved within each bucket.
	Buckets []Bucket
	Grouped bool
}

// Project runs the pipeline. View-state references to columns that no longer
// exist in the schema are treated as unset.
func Project(items []*Item, columns []Column, vs *viewstate.ViewState) *Projection {
	if vs == nil {
		vs = viewstate.Default()
	}
	out := slices.Clone(items)

	if col, ok := FindColumn(columns, vs.FilterColumnID); ok && vs.FilterValue != "" {
		out = filterItems(out, col, vs.FilterValue)
	}
	if col, ok := FindColumn(columns, vs.SortColumnID); ok {
		out = sortItems(out, col, vs.SortDir)
	}

	p := &Projection{Items: out}
	if col, ok := FindColumn(columns, vs.GroupColumnID); ok {
		p.Buckets = groupItems(out, col)
		p.Grouped = true
	}
	return p
}

// filterItems keeps items whose display value for the column contains the
// needle case-insensitively. Items with an empty value are excluded.
func filterItems(items []*Item, col Column, needle string) []*Item {
	needle = strings.ToLower(needle)
	out := items[:0]
	for _, it := range items {
		raw := it.Data[col.ID]
		if IsEmptyValue(col.Type, raw) {
			continue
		}
		if strings.Contains(strings.ToLower(FormatValue(col.Type, raw)), needle) {
			out = append(out, it)
		}
	}
	return out
}

// sortItems stable-sorts by the column's codec ordering. Items with an empty
// value always come last; the descending direction reverses only the
// non-empty segment.
func sortItems(items []*Item, col Column, dir viewstate.SortDir) []*Item {
	present := make([]*Item, 0, len(items))
	var missing []*Item
	for _, it := range items {
		if IsEmptyValue(col.Type, it.Data[col.ID]) {
			missing = append(missing, it)
		} else {
			present = append(present, it)
		}
	}
	slices.SortStableFunc(present, func(a, b *Item) int {
		return CompareValues(col.Type, a.Data[col.ID], b.Data[col.ID])
	})
	if dir == viewstate.SortDesc {
		slices.Reverse(present)
	}
	return append(present, missing...)
}

// groupItems buckets already filtered and sorted items by the column's group
// key, in order of first occurrence.
func groupItems(items []*Item, col Column) []Bucket {
	index := make(map[string]int)
	var buckets []Bucket
	for _, it := range items {
		raw := it.Data[col.ID]
		key := NoneBucketKey
		if !IsEmptyValue(col.Type, raw) {
			key = GroupKey(col.Type, raw)
		}
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Key: key})
		}
		buckets[i].Items = append(buckets[i].Items, it)
	}
	return buckets
}
