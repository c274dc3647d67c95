package grid

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gridbase/gridbase/internal/collection"
)

func TestClientFetchCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/collections/col1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"collection": map[string]any{
				"id":    "col1",
				"title": "Tasks",
				"columns": []map[string]any{
					{"id": "c1", "name": "Due", "type": "date"},
				},
			},
			"items": []map[string]any{
				{"id": "r1", "data": map[string]any{"c1": "2024-01-01"}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	coll, items, err := c.FetchCollection(context.Background(), "col1")
	if err != nil {
		t.Fatal(err)
	}
	if coll.ID != "col1" || len(coll.Columns) != 1 {
		t.Errorf("collection = %+v", coll)
	}
	if len(items) != 1 || items[0].ID != "r1" {
		t.Errorf("items = %+v", items)
	}
}

func TestClientCreateItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/collections/col1/items" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Data map[string]any `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Error(err)
		}
		_ = json.NewEncoder(w).Encode(collection.Item{ID: "srv1", Data: body.Data})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	item, err := c.CreateItem(context.Background(), "col1", map[string]any{"c1": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if item.ID != "srv1" || item.Data["c1"] != "x" {
		t.Errorf("item = %+v", item)
	}
}

func TestClientErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": "not_found", "message": "no such collection"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, _, err := c.FetchCollection(context.Background(), "nope")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Code != "not_found" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestClientUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/collections/col1/upload" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("filename"); got != "a b.png" {
			t.Errorf("filename = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "https://files.test/a-b.png"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	url, err := c.Upload(context.Background(), "col1", "a b.png", strings.NewReader("data"))
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://files.test/a-b.png" {
		t.Errorf("url = %q", url)
	}
}

func TestClientDeleteItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/collections/col1/items/r1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, "").DeleteItem(context.Background(), "col1", "r1"); err != nil {
		t.Fatal(err)
	}
}
