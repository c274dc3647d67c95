// Package collection defines the domain types for a schema-flexible
// mini-database: typed columns, freeform items keyed by column id, the value
// codec that interprets cell values, and the pure projection pipeline that
// turns items plus view state into a display list.
package collection

import (
	"time"

	"github.com/maruel/ksid"
)

// ColumnType represents the declared type of a column.
type ColumnType string

const (
	// ColumnTypeDate stores an ISO8601 date string (YYYY-MM-DD).
	ColumnTypeDate ColumnType = "date"
	// ColumnTypeDateRange stores a {start, end} pair of ISO8601 date strings.
	ColumnTypeDateRange ColumnType = "dateRange"
	// ColumnTypeTitle stores the record's primary label. By convention a
	// collection has exactly one title column; this is not enforced.
	ColumnTypeTitle ColumnType = "title"
	// ColumnTypeText stores plain text values.
	ColumnTypeText ColumnType = "text"
	// ColumnTypeFiles stores a list of uploaded file URLs.
	ColumnTypeFiles ColumnType = "files"
	// ColumnTypeURL stores a single URL string.
	ColumnTypeURL ColumnType = "url"
	// ColumnTypeSelect stores a single selection from the column's options.
	ColumnTypeSelect ColumnType = "select"
	// ColumnTypeNumber stores a numeric value in its string form.
	ColumnTypeNumber ColumnType = "number"
)

// Valid reports whether the column type is one of the known types.
func (t ColumnType) Valid() bool {
	switch t {
	case ColumnTypeDate, ColumnTypeDateRange, ColumnTypeTitle, ColumnTypeText,
		ColumnTypeFiles, ColumnTypeURL, ColumnTypeSelect, ColumnTypeNumber:
		return true
	}
	return false
}

// Column represents one typed column of a collection. Column order in the
// schema slice is the authoritative display order.
type Column struct {
	ID   string     `json:"id" jsonschema:"description=Unique stable column identifier"`
	Name string     `json:"name" jsonschema:"description=Column header label"`
	Type ColumnType `json:"type" jsonschema:"description=Column value type"`

	// Options contains the allowed values for select columns, in display
	// order. Ignored for other column types.
	Options []string `json:"options,omitempty" jsonschema:"description=Allowed values for select columns"`
}

// Clone returns a deep copy of the Column.
func (c *Column) Clone() Column {
	out := *c
	if c.Options != nil {
		out.Options = append([]string(nil), c.Options...)
	}
	return out
}

// Collection is the schema and metadata of one mini-database.
type Collection struct {
	ID       string    `json:"id" jsonschema:"description=Unique collection identifier"`
	Title    string    `json:"title" jsonschema:"description=Collection display title"`
	Columns  []Column  `json:"columns" jsonschema:"description=Ordered column schema"`
	Created  time.Time `json:"created" jsonschema:"description=Creation timestamp"`
	Modified time.Time `json:"modified" jsonschema:"description=Last modification timestamp"`
}

// Clone returns a deep copy of the Collection.
func (c *Collection) Clone() *Collection {
	out := *c
	out.Columns = CloneColumns(c.Columns)
	return &out
}

// Column returns the column with the given id, or false if absent.
func (c *Collection) Column(id string) (Column, bool) {
	return FindColumn(c.Columns, id)
}

// FindColumn returns the column with the given id from a schema slice.
func FindColumn(columns []Column, id string) (Column, bool) {
	for i := range columns {
		if columns[i].ID == id {
			return columns[i], true
		}
	}
	return Column{}, false
}

// CloneColumns returns a deep copy of a schema slice.
func CloneColumns(columns []Column) []Column {
	if columns == nil {
		return nil
	}
	out := make([]Column, len(columns))
	for i := range columns {
		out[i] = columns[i].Clone()
	}
	return out
}

// DateRange is the value shape of a dateRange column.
type DateRange struct {
	Start string `json:"start" jsonschema:"description=Range start date (YYYY-MM-DD)"`
	End   string `json:"end" jsonschema:"description=Range end date (YYYY-MM-DD)"`
}

// Item represents one record. Data is keyed by column id; a key may be
// missing for any column defined after the item was created, so all
// accessors default to the type's empty value rather than fail.
type Item struct {
	ID        string         `json:"id" jsonschema:"description=Unique item identifier"`
	Data      map[string]any `json:"data" jsonschema:"description=Cell values keyed by column id"`
	Content   string         `json:"content,omitempty" jsonschema:"description=Long-form body text, unused by the table view"`
	Order     float64        `json:"order" jsonschema:"description=Manual ordering weight"`
	CreatedAt time.Time      `json:"createdAt" jsonschema:"description=Creation timestamp"`
}

// Clone returns a deep copy of the Item.
func (it *Item) Clone() *Item {
	out := *it
	if it.Data != nil {
		out.Data = make(map[string]any, len(it.Data))
		for k, v := range it.Data {
			out.Data[k] = v
		}
	}
	return &out
}

// TitlePlaceholder is the label seeded into title columns on item creation.
const TitlePlaceholder = "Untitled"

// DateFormat is the lexical form of stored dates. ISO dates sort correctly
// as plain strings, which the sort pipeline relies on.
const DateFormat = "2006-01-02"

// NewColumnID generates a fresh column id. Ids are time-sortable and never
// reused.
func NewColumnID() string {
	return ksid.NewID().String()
}

// NewItemID generates a fresh client-side item id. The server's echoed item
// is canonical; this id only exists until the create call settles.
func NewItemID() string {
	return ksid.NewID().String()
}

// DefaultData seeds a new item's values from the schema: today's date for
// date columns, a placeholder for title columns, empty for everything else.
func DefaultData(columns []Column, now time.Time) map[string]any {
	data := make(map[string]any, len(columns))
	for i := range columns {
		switch columns[i].Type {
		case ColumnTypeDate:
			data[columns[i].ID] = now.Format(DateFormat)
		case ColumnTypeTitle:
			data[columns[i].ID] = TitlePlaceholder
		}
	}
	return data
}
