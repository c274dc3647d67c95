// Collection and item handlers.

package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gridbase/gridbase/internal/collection"
	"github.com/gridbase/gridbase/internal/server/dto"
	"github.com/gridbase/gridbase/internal/storage"
)

// Health reports liveness.
func (s *Server) Health(_ context.Context, _ *dto.HealthRequest) (*dto.HealthResponse, error) {
	return &dto.HealthResponse{Status: "ok", Version: s.version}, nil
}

// ListCollections returns every collection's schema.
func (s *Server) ListCollections(ctx context.Context, _ *dto.ListCollectionsRequest) (*dto.CollectionListResponse, error) {
	collections, err := s.store.ListCollections(ctx)
	if err != nil {
		return nil, dto.StorageError(err)
	}
	if collections == nil {
		collections = []*collection.Collection{}
	}
	return &dto.CollectionListResponse{Collections: collections}, nil
}

// CreateCollection creates a new collection, optionally with an initial
// schema.
func (s *Server) CreateCollection(ctx context.Context, req *dto.CreateCollectionRequest) (*dto.CollectionResponse, error) {
	now := time.Now().UTC()
	c := &collection.Collection{
		ID:       collection.NewColumnID(),
		Title:    req.Title,
		Columns:  collection.CloneColumns(req.Columns),
		Created:  now,
		Modified: now,
	}
	if err := s.store.CreateCollection(ctx, c); err != nil {
		return nil, dto.StorageError(err)
	}
	return &dto.CollectionResponse{Collection: c, Items: []*collection.Item{}}, nil
}

// GetCollection returns one collection with all its items.
func (s *Server) GetCollection(ctx context.Context, req *dto.GetCollectionRequest) (*dto.CollectionResponse, error) {
	c, items, err := s.store.GetCollection(ctx, req.ID)
	if err != nil {
		return nil, storeError("collection", err)
	}
	if items == nil {
		items = []*collection.Item{}
	}
	return &dto.CollectionResponse{Collection: c, Items: items}, nil
}

// UpdateCollection replaces a collection's columns and/or title. This is
// the single endpoint behind every schema mutation.
func (s *Server) UpdateCollection(ctx context.Context, req *dto.UpdateCollectionRequest) (*dto.CollectionResponse, error) {
	c, items, err := s.store.GetCollection(ctx, req.ID)
	if err != nil {
		return nil, storeError("collection", err)
	}
	if req.Title != "" {
		c.Title = req.Title
	}
	if req.Columns != nil {
		c.Columns = collection.CloneColumns(*req.Columns)
	}
	c.Modified = time.Now().UTC()
	if err := s.store.UpdateCollection(ctx, c); err != nil {
		return nil, dto.StorageError(err)
	}
	s.hub.NotifyRefresh(req.ID)
	return &dto.CollectionResponse{Collection: c, Items: items}, nil
}

// DeleteCollection removes a collection and everything in it.
func (s *Server) DeleteCollection(ctx context.Context, req *dto.DeleteCollectionRequest) (*dto.OkResponse, error) {
	if err := s.store.DeleteCollection(ctx, req.ID); err != nil {
		return nil, storeError("collection", err)
	}
	s.hub.NotifyRefresh(req.ID)
	return &dto.OkResponse{OK: true}, nil
}

// CreateItem creates an item. The server assigns the id; the response item
// is the canonical object clients must adopt.
func (s *Server) CreateItem(ctx context.Context, req *dto.CreateItemRequest) (*collection.Item, error) {
	c, items, err := s.store.GetCollection(ctx, req.CollectionID)
	if err != nil {
		return nil, storeError("collection", err)
	}
	data := req.Data
	if data == nil {
		data = collection.DefaultData(c.Columns, time.Now())
	}
	order := 0.0
	for _, existing := range items {
		if existing.Order > order {
			order = existing.Order
		}
	}
	it := &collection.Item{
		ID:        collection.NewItemID(),
		Data:      data,
		Content:   req.Content,
		Order:     order + 1,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateItem(ctx, req.CollectionID, it); err != nil {
		return nil, dto.StorageError(err)
	}
	s.hub.NotifyRefresh(req.CollectionID)
	return it, nil
}

// UpdateItem replaces an item's data map.
func (s *Server) UpdateItem(ctx context.Context, req *dto.UpdateItemRequest) (*collection.Item, error) {
	_, items, err := s.store.GetCollection(ctx, req.CollectionID)
	if err != nil {
		return nil, storeError("collection", err)
	}
	var it *collection.Item
	for _, existing := range items {
		if existing.ID == req.ItemID {
			it = existing
			break
		}
	}
	if it == nil {
		return nil, dto.NotFound("item")
	}
	if req.Data != nil {
		it.Data = req.Data
	}
	if req.Content != nil {
		it.Content = *req.Content
	}
	if err := s.store.UpdateItem(ctx, req.CollectionID, it); err != nil {
		return nil, storeError("item", err)
	}
	s.hub.NotifyRefresh(req.CollectionID)
	return it, nil
}

// DeleteItem removes an item.
func (s *Server) DeleteItem(ctx context.Context, req *dto.DeleteItemRequest) (*dto.OkResponse, error) {
	if err := s.store.DeleteItem(ctx, req.CollectionID, req.ItemID); err != nil {
		return nil, storeError("item", err)
	}
	s.hub.NotifyRefresh(req.CollectionID)
	return &dto.OkResponse{OK: true}, nil
}

// Upload is a raw handler storing a file attachment. The body is the file;
// the name comes from the filename query parameter.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	collectionID := r.PathValue("id")
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		writeError(ctx, w, dto.MissingField("filename"))
		return
	}
	url, err := s.store.SaveAsset(ctx, collectionID, filename, r.Body)
	if err != nil {
		writeError(ctx, w, storeError("collection", err))
		return
	}
	writeJSONResponse(ctx, w, &dto.UploadResponse{URL: url}, nil)
}

// ServeAsset is a raw handler streaming a stored attachment back.
func (s *Server) ServeAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc, err := s.store.OpenAsset(ctx, r.PathValue("id"), r.PathValue("name"))
	if err != nil {
		writeError(ctx, w, storeError("asset", err))
		return
	}
	defer func() { _ = rc.Close() }()
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = io.Copy(w, rc)
}

// Import is a raw handler accepting a full collection export. The document
// is validated against the import schema before anything is stored.
func (s *Server) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(ctx, w, dto.BadRequest("Failed to read request body"))
		return
	}
	if err := storage.ValidateImport(raw); err != nil {
		writeError(ctx, w, dto.BadRequest(err.Error()))
		return
	}
	doc, err := storage.ParseImport(raw)
	if err != nil {
		writeError(ctx, w, dto.BadRequest(err.Error()))
		return
	}

	now := time.Now().UTC()
	c := doc.Collection
	if c.ID == "" {
		c.ID = collection.NewColumnID()
	}
	c.Created = now
	c.Modified = now
	if err := s.store.CreateCollection(ctx, c); err != nil {
		writeError(ctx, w, dto.StorageError(err))
		return
	}
	for i, it := range doc.Items {
		if it.ID == "" {
			it.ID = collection.NewItemID()
		}
		if it.Order == 0 {
			it.Order = float64(i + 1)
		}
		it.CreatedAt = now
		if err := s.store.CreateItem(ctx, c.ID, it); err != nil {
			writeError(ctx, w, dto.StorageError(err))
			return
		}
	}
	writeJSONResponse(ctx, w, &dto.CollectionResponse{Collection: c, Items: doc.Items}, nil)
}

func storeError(resource string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return dto.NotFound(resource)
	}
	return dto.StorageError(err)
}
