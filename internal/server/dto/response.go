package dto

import "github.com/gridbase/gridbase/internal/collection"

// LoginResponse carries the issued admin token.
type LoginResponse struct {
	Token string `json:"token"`
}

// CollectionListResponse lists collection schemas without items.
type CollectionListResponse struct {
	Collections []*collection.Collection `json:"collections"`
}

// CollectionResponse is one collection with its items.
type CollectionResponse struct {
	Collection *collection.Collection `json:"collection"`
	Items      []*collection.Item     `json:"items"`
}

// UploadResponse carries the URL of a stored attachment.
type UploadResponse struct {
	URL string `json:"url"`
}

// OkResponse is the generic success response for operations with no payload.
type OkResponse struct {
	OK bool `json:"ok"`
}

// HealthResponse reports server liveness and build info.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
