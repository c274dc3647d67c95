// Query-parameter codec for the navigable representation.

package viewstate

import (
	"net/url"
	"strings"
)

// Query parameter keys for the navigable representation.
const (
	paramSort      = "sort"
	paramDir       = "dir"
	paramGroup     = "group"
	paramFilterCol = "filterCol"
	paramFilterVal = "filterVal"
	paramHidden    = "hidden"
)

// EncodeQuery serializes the non-default subset of the state as query
// parameters. Column widths are not part of the navigable representation;
// they only travel through the durable one.
func EncodeQuery(v *ViewState) url.Values {
	q := url.Values{}
	if v == nil {
		return q
	}
	if v.SortColumnID != "" {
		q.Set(paramSort, v.SortColumnID)
	}
	if v.SortDir == SortDesc {
		q.Set(paramDir, string(SortDesc))
	}
	if v.GroupColumnID != "" {
		q.Set(paramGroup, v.GroupColumnID)
	}
	if v.FilterColumnID != "" {
		q.Set(paramFilterCol, v.FilterColumnID)
	}
	if v.FilterValue != "" {
		q.Set(paramFilterVal, v.FilterValue)
	}
	if len(v.HiddenColumns) > 0 {
		q.Set(paramHidden, strings.Join(v.HiddenColumns, ","))
	}
	return q
}

// DecodeQuery parses query parameters into a partial ViewState. Absent keys
// stay zero so Merge can fall back to the durable representation.
func DecodeQuery(q url.Values) *ViewState {
	v := &ViewState{
		SortColumnID:   q.Get(paramSort),
		GroupColumnID:  q.Get(paramGroup),
		FilterColumnID: q.Get(paramFilterCol),
		FilterValue:    q.Get(paramFilterVal),
	}
	switch q.Get(paramDir) {
	case string(SortAsc):
		v.SortDir = SortAsc
	case string(SortDesc):
		v.SortDir = SortDesc
	}
	if raw := q.Get(paramHidden); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				v.Hide(id)
			}
		}
	}
	return v
}
