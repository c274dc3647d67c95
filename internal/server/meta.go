// Data-model introspection. The JSON Schema is reflected from the Go types
// so it never drifts from the structs the API actually serves.

package server

import (
	"context"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/gridbase/gridbase/internal/collection"
	"github.com/gridbase/gridbase/internal/server/dto"
)

var (
	metaSchemaOnce sync.Once
	metaSchema     *jsonschema.Schema
)

// MetaSchema returns the JSON Schema of the collection data model.
func (s *Server) MetaSchema(_ context.Context, _ *dto.MetaSchemaRequest) (*jsonschema.Schema, error) {
	metaSchemaOnce.Do(func() {
		r := &jsonschema.Reflector{ExpandedStruct: true}
		metaSchema = r.Reflect(&struct {
			Collection collection.Collection `json:"collection"`
			Items      []collection.Item     `json:"items"`
		}{})
	})
	return metaSchema, nil
}
