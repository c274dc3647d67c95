// Import validation. Collection documents accepted through the import
// endpoint are checked against a JSON Schema before anything touches the
// store, so a malformed export cannot corrupt a backend.

package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/gridbase/gridbase/internal/collection"
)

const importSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["collection"],
	"properties": {
		"collection": {
			"type": "object",
			"required": ["title", "columns"],
			"properties": {
				"id": {"type": "string"},
				"title": {"type": "string", "minLength": 1},
				"columns": {
					"type": "array",
					"items": {
						"type": "object",
						"required": ["id", "name", "type"],
						"properties": {
							"id": {"type": "string", "minLength": 1},
							"name": {"type": "string", "minLength": 1},
							"type": {"enum": ["date", "dateRange", "title", "text", "files", "url", "select", "number"]},
							"options": {"type": "array", "items": {"type": "string"}}
						}
					}
				}
			}
		},
		"items": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["data"],
				"properties": {
					"id": {"type": "string"},
					"data": {"type": "object"},
					"content": {"type": "string"},
					"order": {"type": "number"}
				}
			}
		}
	}
}`

var (
	importSchemaOnce sync.Once
	importSchema     *jsonschema.Schema
	importSchemaErr  error
)

func compiledImportSchema() (*jsonschema.Schema, error) {
	importSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(importSchemaJSON))
		if err != nil {
			importSchemaErr = fmt.Errorf("failed to parse import schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("import.json", doc); err != nil {
			importSchemaErr = fmt.Errorf("failed to register import schema: %w", err)
			return
		}
		importSchema, importSchemaErr = compiler.Compile("import.json")
	})
	return importSchema, importSchemaErr
}

// ImportDocument is a full collection export: schema plus items.
type ImportDocument struct {
	Collection *collection.Collection `json:"collection"`
	Items      []*collection.Item     `json:"items"`
}

// ValidateImport checks a raw import document against the schema and
// returns the validation error verbatim, suitable for surfacing to the
// caller.
func ValidateImport(raw []byte) error {
	schema, err := compiledImportSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("import document rejected: %w", err)
	}
	return nil
}

// ParseImport decodes an already validated import document.
func ParseImport(raw []byte) (*ImportDocument, error) {
	var doc ImportDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid import document: %w", err)
	}
	if doc.Collection == nil {
		return nil, fmt.Errorf("import document has no collection")
	}
	return &doc, nil
}
