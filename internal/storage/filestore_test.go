package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/gridbase/gridbase/internal/collection"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

func sampleCollection() *collection.Collection {
	return &collection.Collection{
		ID:    "col1",
		Title: "Tasks",
		Columns: []collection.Column{
			{ID: "c1", Name: "Due", Type: collection.ColumnTypeDate},
			{ID: "c2", Name: "Status", Type: collection.ColumnTypeSelect, Options: []string{"A", "B"}},
		},
		Created: time.Now().UTC().Truncate(time.Second),
	}
}

func TestFileStoreCollectionLifecycle(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()

	c := sampleCollection()
	if err := fs.CreateCollection(ctx, c); err != nil {
		t.Fatal(err)
	}
	if err := fs.CreateCollection(ctx, c); err == nil {
		t.Error("duplicate create should fail")
	}

	got, items, err := fs.GetCollection(ctx, "col1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Tasks" || len(got.Columns) != 2 || len(items) != 0 {
		t.Errorf("got %+v with %d items", got, len(items))
	}

	got.Title = "Renamed"
	got.Columns = got.Columns[:1]
	if err := fs.UpdateCollection(ctx, got); err != nil {
		t.Fatal(err)
	}
	got, _, err = fs.GetCollection(ctx, "col1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Renamed" || len(got.Columns) != 1 {
		t.Errorf("update not persisted: %+v", got)
	}

	all, err := fs.ListCollections(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].ID != "col1" {
		t.Errorf("ListCollections = %+v", all)
	}

	if err := fs.DeleteCollection(ctx, "col1"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := fs.GetCollection(ctx, "col1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFileStoreItems(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()
	if err := fs.CreateCollection(ctx, sampleCollection()); err != nil {
		t.Fatal(err)
	}

	r1 := &collection.Item{ID: "r1", Data: map[string]any{"c1": "2024-01-01", "c2": "A"}}
	r2 := &collection.Item{ID: "r2", Data: map[string]any{"c2": "B"}}
	if err := fs.CreateItem(ctx, "col1", r1); err != nil {
		t.Fatal(err)
	}
	if err := fs.CreateItem(ctx, "col1", r2); err != nil {
		t.Fatal(err)
	}
	if err := fs.CreateItem(ctx, "col1", r1); err == nil {
		t.Error("duplicate item id should fail")
	}

	_, items, err := fs.GetCollection(ctx, "col1")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].ID != "r1" || items[1].ID != "r2" {
		t.Fatalf("items = %+v", items)
	}
	if items[0].Data["c1"] != "2024-01-01" {
		t.Errorf("data round trip: %v", items[0].Data)
	}

	r1.Data["c2"] = "B"
	if err := fs.UpdateItem(ctx, "col1", r1); err != nil {
		t.Fatal(err)
	}
	if err := fs.UpdateItem(ctx, "col1", &collection.Item{ID: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	if err := fs.DeleteItem(ctx, "col1", "r1"); err != nil {
		t.Fatal(err)
	}
	if err := fs.DeleteItem(ctx, "col1", "r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	_, items, _ = fs.GetCollection(ctx, "col1")
	if len(items) != 1 || items[0].ID != "r2" {
		t.Errorf("items = %+v", items)
	}
}

func TestFileStoreAssets(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()
	if err := fs.CreateCollection(ctx, sampleCollection()); err != nil {
		t.Fatal(err)
	}

	url, err := fs.SaveAsset(ctx, "col1", "report.pdf", strings.NewReader("content"))
	if err != nil {
		t.Fatal(err)
	}
	if url != "/assets/col1/report.pdf" {
		t.Errorf("url = %q", url)
	}

	rc, err := fs.OpenAsset(ctx, "col1", "report.pdf")
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "content" {
		t.Errorf("asset content = %q", data)
	}

	// Path traversal attempts are rejected.
	if _, err := fs.SaveAsset(ctx, "col1", "../../evil", strings.NewReader("x")); err == nil {
		// The base name "evil" is still legal after sanitizing; reading back
		// outside the directory must not be possible.
		if _, err := fs.OpenAsset(ctx, "col1", "../../evil"); err == nil {
			t.Error("traversal name accepted on read")
		}
	}
	if _, err := fs.SaveAsset(ctx, "col1", "...", strings.NewReader("x")); err == nil {
		t.Error("dot-only name accepted")
	}
}

func TestValidateImport(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{
			name: "valid document",
			doc: `{"collection": {"title": "T", "columns": [
				{"id": "c1", "name": "Due", "type": "date"}
			]}, "items": [{"data": {"c1": "2024-01-01"}}]}`,
		},
		{
			name:    "missing collection",
			doc:     `{"items": []}`,
			wantErr: true,
		},
		{
			name:    "unknown column type",
			doc:     `{"collection": {"title": "T", "columns": [{"id": "c1", "name": "N", "type": "boolean"}]}}`,
			wantErr: true,
		},
		{
			name:    "blank title",
			doc:     `{"collection": {"title": "", "columns": []}}`,
			wantErr: true,
		},
		{
			name:    "not json",
			doc:     `{{`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImport([]byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateImport() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
