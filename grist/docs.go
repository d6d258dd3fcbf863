package grist

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/s0up4200/grister/apicall"
)

// Accept headers of the export endpoints
const (
	MIMESQLite = "application/x-sqlite3"
	MIMEExcel  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMECSV    = "text/csv"
)

// AddDoc creates a document in a workspace
func (c *Client) AddDoc(ctx context.Context, name string, pinned bool, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.join(s.server, "workspaces", s.workspaceID(), "docs"),
		Method: http.MethodPost,
		Body:   map[string]any{"name": name, "isPinned": pinned},
	})
}

// GetDoc describes a document, the configured one by default
func (c *Client) GetDoc(ctx context.Context, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.read(ctx, apicall.Call{URL: c.docURL(s)}, "")
}

// UpdateDoc renames a document and sets its pinned flag
func (c *Client) UpdateDoc(ctx context.Context, name string, pinned bool, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.docURL(s),
		Method: http.MethodPatch,
		Body:   map[string]any{"name": name, "isPinned": pinned},
	})
}

// DeleteDoc deletes a document. The id is never taken from the configuration.
func (c *Client) DeleteDoc(ctx context.Context, docID string, opts ...ScopeOption) (apicall.Outcome, error) {
	if docID == "" {
		return apicall.Outcome{}, fmt.Errorf("delete doc: %w", ErrMissingTarget)
	}
	s := c.scope(opts)
	s.doc = docID
	return c.write(ctx, apicall.Call{URL: c.docURL(s), Method: http.MethodDelete})
}

// MoveDoc moves a document to another workspace
func (c *Client) MoveDoc(ctx context.Context, workspaceID int, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.docURL(s, "move"),
		Method: http.MethodPatch,
		Body:   map[string]any{"workspace": workspaceID},
	})
}

// ListDocUsers lists the users of a document
func (c *Client) ListDocUsers(ctx context.Context, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.read(ctx, apicall.Call{URL: c.docURL(s, "access")}, "users")
}

// UpdateDocUsers changes the roles of document users. maxInherited caps the
// roles inherited from the workspace, "owners" when empty.
func (c *Client) UpdateDocUsers(ctx context.Context, users Access, maxInherited string, opts ...ScopeOption) (apicall.Outcome, error) {
	if maxInherited == "" {
		maxInherited = "owners"
	}
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.docURL(s, "access"),
		Method: http.MethodPatch,
		Body: map[string]any{"delta": map[string]any{
			"maxInheritedRole": maxInherited,
			"users":            users,
		}},
	})
}

// DownloadSQLite saves the whole document as a SQLite file
func (c *Client) DownloadSQLite(ctx context.Context, path string, noHistory, template bool, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.read(ctx, apicall.Call{
		URL:     c.docURL(s, "download"),
		Headers: map[string]string{"Accept": MIMESQLite},
		Query: url.Values{
			"nohistory": {strconv.FormatBool(noHistory)},
			"template":  {strconv.FormatBool(template)},
		},
		OutputPath: path,
	}, "")
}

// DownloadExcel saves a table as an xlsx file
func (c *Client) DownloadExcel(ctx context.Context, path, tableID string, header HeaderFormat, opts ...ScopeOption) (apicall.Outcome, error) {
	return c.export(ctx, "xlsx", MIMEExcel, path, tableID, header, opts)
}

// DownloadCSV saves a table as a csv file
func (c *Client) DownloadCSV(ctx context.Context, path, tableID string, header HeaderFormat, opts ...ScopeOption) (apicall.Outcome, error) {
	return c.export(ctx, "csv", MIMECSV, path, tableID, header, opts)
}

// DownloadSchema returns the frictionless table schema of a table, or saves
// it when path is not empty
func (c *Client) DownloadSchema(ctx context.Context, path, tableID string, header HeaderFormat, opts ...ScopeOption) (apicall.Outcome, error) {
	return c.export(ctx, "table-schema", MIMECSV, path, tableID, header, opts)
}

func (c *Client) export(ctx context.Context, format, accept, path, tableID string, header HeaderFormat, opts []ScopeOption) (apicall.Outcome, error) {
	if header == "" {
		header = HeaderLabel
	}
	s := c.scope(opts)
	return c.read(ctx, apicall.Call{
		URL:        c.docURL(s, "download", format),
		Headers:    map[string]string{"Accept": accept},
		Query:      url.Values{"tableId": {tableID}, "header": {string(header)}},
		OutputPath: path,
	}, "")
}
