package collection

import (
	"testing"
	"time"

	"github.com/gridbase/gridbase/internal/viewstate"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	out, err := time.Parse(DateFormat, s)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

// Fixture mirroring a two column collection: a date column c1 and a select
// column c2.
func fixtureColumns() []Column {
	return []Column{
		{ID: "c1", Name: "Due", Type: ColumnTypeDate},
		{ID: "c2", Name: "Status", Type: ColumnTypeSelect, Options: []string{"A", "B"}},
	}
}

func fixtureItems() []*Item {
	return []*Item{
		{ID: "r1", Data: map[string]any{"c1": "2024-01-01", "c2": "A"}},
		{ID: "r2", Data: map[string]any{"c1": "2023-06-15", "c2": "B"}},
		{ID: "r3", Data: map[string]any{"c2": "A"}},
	}
}

func ids(items []*Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func assertIDs(t *testing.T, got []*Item, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("got %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("got %v, want %v", g, want)
		}
	}
}

func TestProjectDefault(t *testing.T) {
	p := Project(fixtureItems(), fixtureColumns(), nil)
	if p.Grouped {
		t.Error("unexpected grouping")
	}
	assertIDs(t, p.Items, "r1", "r2", "r3")
}

func TestProjectSort(t *testing.T) {
	t.Run("asc puts older date first", func(t *testing.T) {
		vs := &viewstate.ViewState{SortColumnID: "c1", SortDir: viewstate.SortAsc}
		p := Project(fixtureItems(), fixtureColumns(), vs)
		assertIDs(t, p.Items, "r2", "r1", "r3")
	})
	t.Run("desc reverses values but empties stay last", func(t *testing.T) {
		vs := &viewstate.ViewState{SortColumnID: "c1", SortDir: viewstate.SortDesc}
		p := Project(fixtureItems(), fixtureColumns(), vs)
		assertIDs(t, p.Items, "r1", "r2", "r3")
	})
	t.Run("stable for equal keys", func(t *testing.T) {
		items := []*Item{
			{ID: "x", Data: map[string]any{"c2": "A"}},
			{ID: "y", Data: map[string]any{"c2": "A"}},
			{ID: "z", Data: map[string]any{"c2": "A"}},
		}
		vs := &viewstate.ViewState{SortColumnID: "c2", SortDir: viewstate.SortAsc}
		p := Project(items, fixtureColumns(), vs)
		assertIDs(t, p.Items, "x", "y", "z")
	})
	t.Run("unknown sort column is ignored", func(t *testing.T) {
		vs := &viewstate.ViewState{SortColumnID: "gone", SortDir: viewstate.SortAsc}
		p := Project(fixtureItems(), fixtureColumns(), vs)
		assertIDs(t, p.Items, "r1", "r2", "r3")
	})
}

func TestProjectFilter(t *testing.T) {
	t.Run("substring match is case insensitive", func(t *testing.T) {
		vs := &viewstate.ViewState{FilterColumnID: "c2", FilterValue: "a"}
		p := Project(fixtureItems(), fixtureColumns(), vs)
		assertIDs(t, p.Items, "r1", "r3")
	})
	t.Run("empty values never match", func(t *testing.T) {
		vs := &viewstate.ViewState{FilterColumnID: "c1", FilterValue: "20"}
		p := Project(fixtureItems(), fixtureColumns(), vs)
		assertIDs(t, p.Items, "r1", "r2")
	})
	t.Run("empty needle means no filter", func(t *testing.T) {
		vs := &viewstate.ViewState{FilterColumnID: "c2"}
		p := Project(fixtureItems(), fixtureColumns(), vs)
		assertIDs(t, p.Items, "r1", "r2", "r3")
	})
	t.Run("idempotent", func(t *testing.T) {
		vs := &viewstate.ViewState{FilterColumnID: "c2", FilterValue: "A"}
		p1 := Project(fixtureItems(), fixtureColumns(), vs)
		p2 := Project(p1.Items, fixtureColumns(), vs)
		assertIDs(t, p2.Items, ids(p1.Items)...)
	})
}

func TestProjectGroup(t *testing.T) {
	t.Run("dates bucket by year with empties in none", func(t *testing.T) {
		vs := &viewstate.ViewState{GroupColumnID: "c1"}
		p := Project(fixtureItems(), fixtureColumns(), vs)
		if !p.Grouped {
			t.Fatal("expected grouping")
		}
		if len(p.Buckets) != 3 {
			t.Fatalf("got %d buckets, want 3", len(p.Buckets))
		}
		want := []struct {
			key string
			ids []string
		}{
			{"2024", []string{"r1"}},
			{"2023", []string{"r2"}},
			{NoneBucketKey, []string{"r3"}},
		}
		for i, w := range want {
			if p.Buckets[i].Key != w.key {
				t.Errorf("bucket[%d].Key = %q, want %q", i, p.Buckets[i].Key, w.key)
			}
			assertIDs(t, p.Buckets[i].Items, w.ids...)
		}
	})
	t.Run("buckets follow sort order of first occurrence", func(t *testing.T) {
		vs := &viewstate.ViewState{
			SortColumnID: "c1", SortDir: viewstate.SortAsc, GroupColumnID: "c1",
		}
		p := Project(fixtureItems(), fixtureColumns(), vs)
		if got := []string{p.Buckets[0].Key, p.Buckets[1].Key, p.Buckets[2].Key}; got[0] != "2023" || got[1] != "2024" || got[2] != NoneBucketKey {
			t.Errorf("bucket order = %v", got)
		}
	})
	t.Run("every projected item lands in exactly one bucket", func(t *testing.T) {
		vs := &viewstate.ViewState{GroupColumnID: "c2"}
		p := Project(fixtureItems(), fixtureColumns(), vs)
		total := 0
		seen := map[string]bool{}
		for _, b := range p.Buckets {
			for _, it := range b.Items {
				if seen[it.ID] {
					t.Errorf("item %s appears twice", it.ID)
				}
				seen[it.ID] = true
				total++
			}
		}
		if total != len(p.Items) {
			t.Errorf("bucketed %d items, projected %d", total, len(p.Items))
		}
	})
}

func TestProjectPipelineOrder(t *testing.T) {
	// Filter first, then sort, then group: filtered-out rows never reach a
	// bucket, and bucket contents keep the sorted order.
	items := []*Item{
		{ID: "a", Data: map[string]any{"c1": "2024-05-01", "c2": "A"}},
		{ID: "b", Data: map[string]any{"c1": "2024-01-01", "c2": "A"}},
		{ID: "c", Data: map[string]any{"c1": "2024-03-01", "c2": "B"}},
	}
	vs := &viewstate.ViewState{
		FilterColumnID: "c2", FilterValue: "A",
		SortColumnID: "c1", SortDir: viewstate.SortAsc,
		GroupColumnID: "c1",
	}
	p := Project(items, fixtureColumns(), vs)
	assertIDs(t, p.Items, "b", "a")
	if len(p.Buckets) != 1 || p.Buckets[0].Key != "2024" {
		t.Fatalf("buckets = %+v", p.Buckets)
	}
	assertIDs(t, p.Buckets[0].Items, "b", "a")
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	items := fixtureItems()
	vs := &viewstate.ViewState{SortColumnID: "c1", SortDir: viewstate.SortAsc}
	Project(items, fixtureColumns(), vs)
	assertIDs(t, items, "r1", "r2", "r3")
}
