package grist

import "encoding/json"

// Record is a table row. ID is omitted when adding records.
type Record struct {
	ID     int64          `json:"id,omitempty"`
	Fields map[string]any `json:"fields"`
}

// UpsertRecord matches existing rows on Require and sets Fields
type UpsertRecord struct {
	Require map[string]any `json:"require"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Column describes a table column. A "widgetOptions" field given as an
// object is sent JSON-encoded, as Grist expects.
type Column struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Table describes a table to add (ID and Columns) or update (ID and Fields)
type Table struct {
	ID      string         `json:"id,omitempty"`
	Columns []Column       `json:"columns,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Webhook is a webhook definition
type Webhook struct {
	Fields map[string]any `json:"fields"`
}

// Access maps user emails to roles ("owners", "editors", "viewers", ...).
// An empty role removes the user.
type Access map[string]string

// MarshalJSON encodes an empty role as null
func (a Access) MarshalJSON() ([]byte, error) {
	users := make(map[string]*string, len(a))
	for email, role := range a {
		if role == "" {
			users[email] = nil
			continue
		}
		users[email] = &role
	}
	return json.Marshal(users)
}

// Filter selects records by column value: {"Name": ["Ada", "Grace"]}
type Filter map[string][]any

// RecordQuery narrows a record listing
type RecordQuery struct {
	Filter Filter
	// Sort is a comma separated list of column ids, "-" for descending
	Sort  string
	Limit int
	// Hidden includes hidden columns
	Hidden bool
}

// UpsertOptions control an add-or-update of records
type UpsertOptions struct {
	NoParse bool
	// OnMany is "first", "none" or "all"; empty means the server default
	OnMany            string
	NoAdd             bool
	NoUpdate          bool
	AllowEmptyRequire bool
}

// ColumnUpsertOptions control an add-or-update of columns
type ColumnUpsertOptions struct {
	NoAdd      bool
	NoUpdate   bool
	ReplaceAll bool
}

// AttachmentQuery narrows an attachment listing. Filters apply to attachment
// metadata only.
type AttachmentQuery struct {
	Filter Filter
	Sort   string
	Limit  int
}

// HeaderFormat selects column labels or ids in exported files
type HeaderFormat string

const (
	HeaderLabel  HeaderFormat = "label"
	HeaderColumn HeaderFormat = "colId"
)
