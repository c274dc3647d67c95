// Tests for the value codec.

package collection

import "testing"

func TestParseValue(t *testing.T) {
	tests := []struct {
		name string
		typ  ColumnType
		raw  any
		want any
	}{
		{"text string", ColumnTypeText, "hello", "hello"},
		{"text nil", ColumnTypeText, nil, ""},
		{"number float", ColumnTypeNumber, float64(3), "3"},
		{"number fraction", ColumnTypeNumber, 3.5, "3.5"},
		{"files from json", ColumnTypeFiles, []any{"a.png", "b.png"}, []string{"a.png", "b.png"}},
		{"files nil", ColumnTypeFiles, nil, []string(nil)},
		{"range from json", ColumnTypeDateRange, map[string]any{"start": "2024-01-01", "end": "2024-02-01"}, DateRange{Start: "2024-01-01", End: "2024-02-01"}},
		{"range invalid", ColumnTypeDateRange, "nope", DateRange{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseValue(tt.typ, tt.raw)
			switch want := tt.want.(type) {
			case []string:
				gs, ok := got.([]string)
				if !ok || len(gs) != len(want) {
					t.Fatalf("ParseValue() = %#v, want %#v", got, tt.want)
				}
				for i := range want {
					if gs[i] != want[i] {
						t.Errorf("ParseValue()[%d] = %q, want %q", i, gs[i], want[i])
					}
				}
			default:
				if got != tt.want {
					t.Errorf("ParseValue() = %#v, want %#v", got, tt.want)
				}
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		typ  ColumnType
		raw  any
		want string
	}{
		{"date passthrough", ColumnTypeDate, "2024-01-01", "2024-01-01"},
		{"files joined", ColumnTypeFiles, []string{"a", "b"}, "a, b"},
		{"range both", ColumnTypeDateRange, DateRange{Start: "2024-01-01", End: "2024-02-01"}, "2024-01-01 - 2024-02-01"},
		{"range start only", ColumnTypeDateRange, DateRange{Start: "2024-01-01"}, "2024-01-01"},
		{"range empty", ColumnTypeDateRange, DateRange{}, ""},
		{"missing value", ColumnTypeTitle, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.typ, tt.raw); got != tt.want {
				t.Errorf("FormatValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsEmptyValue(t *testing.T) {
	tests := []struct {
		name string
		typ  ColumnType
		raw  any
		want bool
	}{
		{"nil is empty", ColumnTypeText, nil, true},
		{"empty string", ColumnTypeSelect, "", true},
		{"value present", ColumnTypeSelect, "A", false},
		{"empty list", ColumnTypeFiles, []string{}, true},
		{"non-empty list", ColumnTypeFiles, []string{"a"}, false},
		{"empty range", ColumnTypeDateRange, DateRange{}, true},
		{"half range", ColumnTypeDateRange, DateRange{End: "2024-01-01"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEmptyValue(tt.typ, tt.raw); got != tt.want {
				t.Errorf("IsEmptyValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name string
		typ  ColumnType
		a, b any
		want int
	}{
		{"dates lexical", ColumnTypeDate, "2023-06-01", "2024-01-01", -1},
		{"equal dates", ColumnTypeDate, "2024-01-01", "2024-01-01", 0},
		{"empty after value", ColumnTypeDate, "", "2024-01-01", 1},
		{"value before empty", ColumnTypeDate, "2024-01-01", nil, -1},
		{"range by start", ColumnTypeDateRange, DateRange{Start: "2023-01-01", End: "2025-01-01"}, DateRange{Start: "2024-01-01"}, -1},
		{"empty range after", ColumnTypeDateRange, DateRange{}, DateRange{Start: "2024-01-01"}, 1},
		// Numbers keep the lexical ordering of the stored data: "10" < "2".
		{"numbers lexical", ColumnTypeNumber, "10", "2", -1},
		{"text case sensitive", ColumnTypeText, "Apple", "apple", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareValues(tt.typ, tt.a, tt.b); got != tt.want {
				t.Errorf("CompareValues() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGroupKey(t *testing.T) {
	tests := []struct {
		name string
		typ  ColumnType
		raw  any
		want string
	}{
		{"date groups by year", ColumnTypeDate, "2024-01-01", "2024"},
		{"range groups by start year", ColumnTypeDateRange, DateRange{Start: "2023-06-01", End: "2024-06-01"}, "2023"},
		{"select groups by value", ColumnTypeSelect, "A", "A"},
		{"short date kept whole", ColumnTypeDate, "2024", "2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GroupKey(tt.typ, tt.raw); got != tt.want {
				t.Errorf("GroupKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultData(t *testing.T) {
	columns := []Column{
		{ID: "c1", Name: "Due", Type: ColumnTypeDate},
		{ID: "c2", Name: "Name", Type: ColumnTypeTitle},
		{ID: "c3", Name: "Notes", Type: ColumnTypeText},
	}
	now := mustTime(t, "2024-03-05")
	data := DefaultData(columns, now)

	if data["c1"] != "2024-03-05" {
		t.Errorf("date default = %v, want 2024-03-05", data["c1"])
	}
	if data["c2"] != TitlePlaceholder {
		t.Errorf("title default = %v, want %q", data["c2"], TitlePlaceholder)
	}
	if _, ok := data["c3"]; ok {
		t.Errorf("text column should not be seeded, got %v", data["c3"])
	}
}
