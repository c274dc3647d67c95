package viewstate

import (
	"net/url"
	"testing"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name         string
		nav, durable *ViewState
		want         ViewState
	}{
		{
			name: "nav wins per field",
			nav:  &ViewState{SortColumnID: "B"},
			durable: &ViewState{
				SortColumnID: "A", GroupColumnID: "G",
			},
			want: ViewState{SortColumnID: "B", GroupColumnID: "G", SortDir: SortAsc},
		},
		{
			name:    "durable fills gaps",
			nav:     &ViewState{FilterColumnID: "F", FilterValue: "x"},
			durable: &ViewState{SortColumnID: "A", SortDir: SortDesc},
			want: ViewState{
				SortColumnID: "A", SortDir: SortDesc,
				FilterColumnID: "F", FilterValue: "x",
			},
		},
		{
			name: "both nil yields defaults",
			want: ViewState{SortDir: SortAsc},
		},
		{
			name:    "widths only live in the durable half",
			nav:     &ViewState{SortColumnID: "A"},
			durable: &ViewState{ColumnWidths: map[string]int{"A": 120}},
			want: ViewState{
				SortColumnID: "A", SortDir: SortAsc,
				ColumnWidths: map[string]int{"A": 120},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.nav, tt.durable)
			if got.SortColumnID != tt.want.SortColumnID ||
				got.SortDir != tt.want.SortDir ||
				got.GroupColumnID != tt.want.GroupColumnID ||
				got.FilterColumnID != tt.want.FilterColumnID ||
				got.FilterValue != tt.want.FilterValue {
				t.Errorf("Merge() = %+v, want %+v", *got, tt.want)
			}
			if len(tt.want.ColumnWidths) > 0 && got.Width("A") != tt.want.ColumnWidths["A"] {
				t.Errorf("Width(A) = %d, want %d", got.Width("A"), tt.want.ColumnWidths["A"])
			}
		})
	}
}

func TestHiddenColumns(t *testing.T) {
	v := Default()
	v.Hide("a")
	v.Hide("b")
	v.Hide("a")
	if !v.IsHidden("a") || !v.IsHidden("b") {
		t.Fatal("expected a and b hidden")
	}
	if len(v.HiddenColumns) != 2 {
		t.Errorf("duplicate hide grew the set: %v", v.HiddenColumns)
	}
	v.Show("a")
	if v.IsHidden("a") {
		t.Error("a still hidden after Show")
	}
	v.Show("never-hidden")
}

func TestSetWidth(t *testing.T) {
	v := Default()
	v.SetWidth("a", 140)
	if v.Width("a") != 140 {
		t.Errorf("Width = %d, want 140", v.Width("a"))
	}
	v.SetWidth("a", 0)
	if v.Width("a") != 0 {
		t.Error("zero width should clear the entry")
	}
}

func TestRemoveColumnRefs(t *testing.T) {
	v := &ViewState{
		SortColumnID:  "dead",
		GroupColumnID: "dead",
		HiddenColumns: []string{"dead", "live"},
		ColumnWidths:  map[string]int{"dead": 99, "live": 100},
	}
	v.RemoveColumnRefs("dead")
	if v.IsHidden("dead") {
		t.Error("deleted column still in hidden set")
	}
	if _, ok := v.ColumnWidths["dead"]; ok {
		t.Error("deleted column still in width map")
	}
	if !v.IsHidden("live") || v.Width("live") != 100 {
		t.Error("unrelated column refs were disturbed")
	}
	// Dangling sort/group refs stay; consumers treat them as unset.
	if v.SortColumnID != "dead" || v.GroupColumnID != "dead" {
		t.Error("sort/group refs should be left alone")
	}
}

func TestEncodeDecodeQuery(t *testing.T) {
	t.Run("round trip of the navigable subset", func(t *testing.T) {
		v := &ViewState{
			SortColumnID:   "c1",
			SortDir:        SortDesc,
			GroupColumnID:  "c2",
			FilterColumnID: "c3",
			FilterValue:    "needle",
			HiddenColumns:  []string{"c4", "c5"},
			ColumnWidths:   map[string]int{"c1": 200},
		}
		got := DecodeQuery(EncodeQuery(v))
		if got.SortColumnID != "c1" || got.SortDir != SortDesc ||
			got.GroupColumnID != "c2" || got.FilterColumnID != "c3" ||
			got.FilterValue != "needle" {
			t.Errorf("round trip = %+v", *got)
		}
		if !got.IsHidden("c4") || !got.IsHidden("c5") {
			t.Errorf("hidden set lost: %v", got.HiddenColumns)
		}
		if len(got.ColumnWidths) != 0 {
			t.Error("widths must not travel through the query")
		}
	})
	t.Run("defaults encode to an empty query", func(t *testing.T) {
		if q := EncodeQuery(Default()); len(q) != 0 {
			t.Errorf("EncodeQuery(Default()) = %v", q)
		}
	})
	t.Run("asc dir is implicit", func(t *testing.T) {
		q := EncodeQuery(&ViewState{SortColumnID: "c1", SortDir: SortAsc})
		if q.Has(paramDir) {
			t.Error("asc should not be serialized")
		}
	})
	t.Run("junk dir is ignored", func(t *testing.T) {
		got := DecodeQuery(url.Values{paramDir: {"sideways"}})
		if got.SortDir != "" {
			t.Errorf("SortDir = %q, want empty", got.SortDir)
		}
	})
}
