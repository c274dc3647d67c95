package dto

import "github.com/gridbase/gridbase/internal/collection"

// Validatable is implemented by every request type so the handler wrapper
// can reject bad input before it reaches a handler.
type Validatable interface {
	Validate() error
}

// LoginRequest authenticates the admin user.
type LoginRequest struct {
	Password string `json:"password"`
}

// Validate implements Validatable.
func (r *LoginRequest) Validate() error {
	if r.Password == "" {
		return MissingField("password")
	}
	return nil
}

// ListCollectionsRequest lists all collections.
type ListCollectionsRequest struct{}

// Validate implements Validatable.
func (r *ListCollectionsRequest) Validate() error { return nil }

// CreateCollectionRequest creates a new, empty collection.
type CreateCollectionRequest struct {
	Title   string              `json:"title"`
	Columns []collection.Column `json:"columns,omitempty"`
}

// Validate implements Validatable.
func (r *CreateCollectionRequest) Validate() error {
	if r.Title == "" {
		return MissingField("title")
	}
	return validateColumns(r.Columns)
}

// GetCollectionRequest fetches one collection with its items.
type GetCollectionRequest struct {
	ID string `path:"id"`
}

// Validate implements Validatable.
func (r *GetCollectionRequest) Validate() error {
	if r.ID == "" {
		return MissingField("id")
	}
	return nil
}

// UpdateCollectionRequest replaces a collection's columns and/or title.
// A nil Columns leaves the schema untouched; an empty non-nil slice clears
// it.
type UpdateCollectionRequest struct {
	ID      string               `path:"id"`
	Title   string               `json:"title,omitempty"`
	Columns *[]collection.Column `json:"columns,omitempty"`
}

// Validate implements Validatable.
func (r *UpdateCollectionRequest) Validate() error {
	if r.ID == "" {
		return MissingField("id")
	}
	if r.Columns != nil {
		return validateColumns(*r.Columns)
	}
	return nil
}

// DeleteCollectionRequest removes a collection and its items.
type DeleteCollectionRequest struct {
	ID string `path:"id"`
}

// Validate implements Validatable.
func (r *DeleteCollectionRequest) Validate() error {
	if r.ID == "" {
		return MissingField("id")
	}
	return nil
}

// CreateItemRequest creates an item in a collection.
type CreateItemRequest struct {
	CollectionID string         `path:"id"`
	Data         map[string]any `json:"data"`
	Content      string         `json:"content,omitempty"`
}

// Validate implements Validatable.
func (r *CreateItemRequest) Validate() error {
	if r.CollectionID == "" {
		return MissingField("id")
	}
	return nil
}

// UpdateItemRequest replaces an item's data map.
type UpdateItemRequest struct {
	CollectionID string         `path:"id"`
	ItemID       string         `path:"itemID"`
	Data         map[string]any `json:"data"`
	Content      *string        `json:"content,omitempty"`
}

// Validate implements Validatable.
func (r *UpdateItemRequest) Validate() error {
	if r.CollectionID == "" {
		return MissingField("id")
	}
	if r.ItemID == "" {
		return MissingField("itemID")
	}
	return nil
}

// DeleteItemRequest removes an item.
type DeleteItemRequest struct {
	CollectionID string `path:"id"`
	ItemID       string `path:"itemID"`
}

// Validate implements Validatable.
func (r *DeleteItemRequest) Validate() error {
	if r.CollectionID == "" {
		return MissingField("id")
	}
	if r.ItemID == "" {
		return MissingField("itemID")
	}
	return nil
}

// HealthRequest is the empty health-check request.
type HealthRequest struct{}

// Validate implements Validatable.
func (r *HealthRequest) Validate() error { return nil }

// MetaSchemaRequest asks for the JSON Schema of the data model.
type MetaSchemaRequest struct{}

// Validate implements Validatable.
func (r *MetaSchemaRequest) Validate() error { return nil }

func validateColumns(columns []collection.Column) error {
	seen := make(map[string]bool, len(columns))
	for i := range columns {
		c := &columns[i]
		if c.ID == "" {
			return MissingField("columns[].id")
		}
		if c.Name == "" {
			return MissingField("columns[].name")
		}
		if !c.Type.Valid() {
			return BadRequest("unknown column type " + string(c.Type))
		}
		if seen[c.ID] {
			return BadRequest("duplicate column id " + c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}
