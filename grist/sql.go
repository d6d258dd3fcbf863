package grist

import (
	"context"
	"net/http"
	"net/url"

	"github.com/s0up4200/grister/apicall"
)

// DefaultSQLTimeout is the server-side timeout of parameterized queries, in milliseconds
const DefaultSQLTimeout = 1000

// RunSQL runs a read-only SELECT statement
func (c *Client) RunSQL(ctx context.Context, query string, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.read(ctx, apicall.Call{
		URL:   c.docURL(s, "sql"),
		Query: url.Values{"q": {query}},
	}, "records")
}

// RunSQLWithArgs runs a SELECT statement with ? placeholders bound to args.
// timeoutMS is the server-side limit, DefaultSQLTimeout when not positive.
func (c *Client) RunSQLWithArgs(ctx context.Context, query string, args []any, timeoutMS int, opts ...ScopeOption) (apicall.Outcome, error) {
	if timeoutMS <= 0 {
		timeoutMS = DefaultSQLTimeout
	}
	if args == nil {
		args = []any{}
	}
	s := c.scope(opts)
	return c.read(ctx, apicall.Call{
		URL:    c.docURL(s, "sql"),
		Method: http.MethodPost,
		Body:   map[string]any{"sql": query, "args": args, "timeout": timeoutMS},
	}, "records")
}
