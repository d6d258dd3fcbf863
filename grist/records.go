package grist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/s0up4200/grister/apicall"
)

// ListRecords lists the records of a table. Filters are sent
// percent-encoded; sort and limit travel in the X-Sort and X-Limit headers.
func (c *Client) ListRecords(ctx context.Context, tableID string, q RecordQuery, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)

	headers := map[string]string{}
	if q.Sort != "" {
		headers["X-Sort"] = q.Sort
	}
	if q.Limit > 0 {
		headers["X-Limit"] = strconv.Itoa(q.Limit)
	}

	values := url.Values{"hidden": {strconv.FormatBool(q.Hidden)}}
	if len(q.Filter) > 0 {
		filter, err := json.Marshal(q.Filter)
		if err != nil {
			return apicall.Outcome{}, fmt.Errorf("failed to encode filter: %w", err)
		}
		values.Set("filter", string(filter))
	}

	return c.read(ctx, apicall.Call{
		URL:     c.docURL(s, "tables", tableID, "records") + "?" + encodeQuery(values),
		Headers: headers,
	}, "records")
}

// AddRecords appends records to a table
func (c *Client) AddRecords(ctx context.Context, tableID string, records []Record, noParse bool, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.docURL(s, "tables", tableID, "records"),
		Method: http.MethodPost,
		Query:  url.Values{"noparse": {strconv.FormatBool(noParse)}},
		Body:   map[string]any{"records": records},
	})
}

// UpdateRecords modifies records by id
func (c *Client) UpdateRecords(ctx context.Context, tableID string, records []Record, noParse bool, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.docURL(s, "tables", tableID, "records"),
		Method: http.MethodPatch,
		Query:  url.Values{"noparse": {strconv.FormatBool(noParse)}},
		Body:   map[string]any{"records": records},
	})
}

// AddUpdateRecords adds or updates records matched on their required fields
func (c *Client) AddUpdateRecords(ctx context.Context, tableID string, records []UpsertRecord, o UpsertOptions, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)

	query := url.Values{
		"noparse":             {strconv.FormatBool(o.NoParse)},
		"noadd":               {strconv.FormatBool(o.NoAdd)},
		"noupdate":            {strconv.FormatBool(o.NoUpdate)},
		"allow_empty_require": {strconv.FormatBool(o.AllowEmptyRequire)},
	}
	if o.OnMany != "" {
		query.Set("onmany", o.OnMany)
	}

	return c.write(ctx, apicall.Call{
		URL:    c.docURL(s, "tables", tableID, "records"),
		Method: http.MethodPut,
		Query:  query,
		Body:   map[string]any{"records": records},
	})
}

// DeleteRows deletes rows by id
func (c *Client) DeleteRows(ctx context.Context, tableID string, rows []int64, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	if rows == nil {
		rows = []int64{}
	}
	return c.write(ctx, apicall.Call{
		URL:    c.docURL(s, "tables", tableID, "data", "delete"),
		Method: http.MethodPost,
		Body:   rows,
	})
}

// ListTables lists the tables of a document
func (c *Client) ListTables(ctx context.Context, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.read(ctx, apicall.Call{URL: c.docURL(s, "tables")}, "tables")
}

// AddTables creates tables
func (c *Client) AddTables(ctx context.Context, tables []Table, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.docURL(s, "tables"),
		Method: http.MethodPost,
		Body:   map[string]any{"tables": encodeTables(tables)},
	})
}

// UpdateTables modifies table metadata
func (c *Client) UpdateTables(ctx context.Context, tables []Table, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.docURL(s, "tables"),
		Method: http.MethodPatch,
		Body:   map[string]any{"tables": encodeTables(tables)},
	})
}

// ListColumns lists the columns of a table
func (c *Client) ListColumns(ctx context.Context, tableID string, hidden bool, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.read(ctx, apicall.Call{
		URL:   c.docURL(s, "tables", tableID, "columns"),
		Query: url.Values{"hidden": {strconv.FormatBool(hidden)}},
	}, "columns")
}

// AddColumns adds columns to a table
func (c *Client) AddColumns(ctx context.Context, tableID string, cols []Column, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.docURL(s, "tables", tableID, "columns"),
		Method: http.MethodPost,
		Body:   map[string]any{"columns": encodeColumns(cols)},
	})
}

// UpdateColumns modifies columns
func (c *Client) UpdateColumns(ctx context.Context, tableID string, cols []Column, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.docURL(s, "tables", tableID, "columns"),
		Method: http.MethodPatch,
		Body:   map[string]any{"columns": encodeColumns(cols)},
	})
}

// AddUpdateColumns adds or updates columns by id
func (c *Client) AddUpdateColumns(ctx context.Context, tableID string, cols []Column, o ColumnUpsertOptions, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.docURL(s, "tables", tableID, "columns"),
		Method: http.MethodPut,
		Query: url.Values{
			"noadd":      {strconv.FormatBool(o.NoAdd)},
			"noupdate":   {strconv.FormatBool(o.NoUpdate)},
			"replaceall": {strconv.FormatBool(o.ReplaceAll)},
		},
		Body: map[string]any{"columns": encodeColumns(cols)},
	})
}

// DeleteColumn deletes one column
func (c *Client) DeleteColumn(ctx context.Context, tableID, colID string, opts ...ScopeOption) (apicall.Outcome, error) {
	if tableID == "" || colID == "" {
		return apicall.Outcome{}, fmt.Errorf("delete column: %w", ErrMissingTarget)
	}
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.docURL(s, "tables", tableID, "columns", colID),
		Method: http.MethodDelete,
	})
}

// encodeColumns returns copies of cols with object widget options
// serialized to a JSON string
func encodeColumns(cols []Column) []Column {
	out := make([]Column, len(cols))
	for i, col := range cols {
		out[i] = col
		opts, ok := col.Fields["widgetOptions"]
		if !ok {
			continue
		}
		if _, isString := opts.(string); isString {
			continue
		}
		data, err := json.Marshal(opts)
		if err != nil {
			continue
		}
		fields := make(map[string]any, len(col.Fields))
		for k, v := range col.Fields {
			fields[k] = v
		}
		fields["widgetOptions"] = string(data)
		out[i].Fields = fields
	}
	return out
}

func encodeTables(tables []Table) []Table {
	out := make([]Table, len(tables))
	for i, t := range tables {
		out[i] = t
		if t.Columns != nil {
			out[i].Columns = encodeColumns(t.Columns)
		}
	}
	return out
}
