// The value codec: the single place that interprets a raw cell value
// according to its column's declared type. Display and sort logic never
// inspect raw shapes directly.

package collection

import (
	"math"
	"strconv"
	"strings"
)

// ParseValue coerces a raw cell value (typically fresh from JSON) into the
// canonical in-memory shape for the column type: string for the scalar
// types, []string for files, DateRange for dateRange. Invalid or missing
// values coerce to the type's empty representation; ParseValue never fails.
func ParseValue(t ColumnType, raw any) any {
	switch t {
	case ColumnTypeFiles:
		return toStringSlice(raw)
	case ColumnTypeDateRange:
		return toDateRange(raw)
	default:
		return toString(raw)
	}
}

// FormatValue returns the display representation of a raw cell value.
func FormatValue(t ColumnType, raw any) string {
	switch t {
	case ColumnTypeFiles:
		return strings.Join(toStringSlice(raw), ", ")
	case ColumnTypeDateRange:
		r := toDateRange(raw)
		switch {
		case r.Start == "" && r.End == "":
			return ""
		case r.End == "":
			return r.Start
		case r.Start == "":
			return r.End
		default:
			return r.Start + " - " + r.End
		}
	default:
		return toString(raw)
	}
}

// IsEmptyValue reports whether a raw cell value is empty for its type.
func IsEmptyValue(t ColumnType, raw any) bool {
	switch t {
	case ColumnTypeFiles:
		return len(toStringSlice(raw)) == 0
	case ColumnTypeDateRange:
		return toDateRange(raw).Start == "" && toDateRange(raw).End == ""
	default:
		return toString(raw) == ""
	}
}

// CompareValues compares two raw cell values of the same column type,
// returning -1, 0, or 1. Empty values compare after non-empty ones.
//
// All scalar types, numbers included, compare by their lexical string form:
// "10" sorts before "2". That matches the stored behavior this codec is
// compatible with; callers that need numeric ordering must not get it here.
func CompareValues(t ColumnType, a, b any) int {
	ae, be := IsEmptyValue(t, a), IsEmptyValue(t, b)
	switch {
	case ae && be:
		return 0
	case ae:
		return 1
	case be:
		return -1
	}
	return strings.Compare(sortKey(t, a), sortKey(t, b))
}

// sortKey returns the lexical key a value sorts by. Date ranges sort by
// their start date; files by their joined display form.
func sortKey(t ColumnType, raw any) string {
	if t == ColumnTypeDateRange {
		return toDateRange(raw).Start
	}
	return FormatValue(t, raw)
}

// GroupKey returns the bucket key a value groups under. Date and date-range
// values bucket by year (the first four characters of the date); everything
// else buckets by its display form.
func GroupKey(t ColumnType, raw any) string {
	switch t {
	case ColumnTypeDate:
		s := toString(raw)
		if len(s) > 4 {
			return s[:4]
		}
		return s
	case ColumnTypeDateRange:
		s := toDateRange(raw).Start
		if len(s) > 4 {
			return s[:4]
		}
		return s
	default:
		return FormatValue(t, raw)
	}
}

func toString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// JSON numbers arrive as float64; render whole numbers without a
		// trailing decimal to keep the lexical form stable.
		if v == math.Trunc(v) && !math.IsInf(v, 0) && !math.IsNaN(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func toStringSlice(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		// JSON unmarshal produces []any; keep the string elements.
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func toDateRange(raw any) DateRange {
	switch v := raw.(type) {
	case DateRange:
		return v
	case *DateRange:
		if v != nil {
			return *v
		}
	case map[string]any:
		var r DateRange
		if s, ok := v["start"].(string); ok {
			r.Start = s
		}
		if s, ok := v["end"].(string); ok {
			r.End = s
		}
		return r
	}
	return DateRange{}
}
