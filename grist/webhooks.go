package grist

import (
	"context"
	"fmt"
	"net/http"

	"github.com/s0up4200/grister/apicall"
)

// ListWebhooks lists the webhooks of a document
func (c *Client) ListWebhooks(ctx context.Context, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.read(ctx, apicall.Call{URL: c.docURL(s, "webhooks")}, "webhooks")
}

// AddWebhooks creates webhooks
func (c *Client) AddWebhooks(ctx context.Context, webhooks []Webhook, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.docURL(s, "webhooks"),
		Method: http.MethodPost,
		Body:   map[string]any{"webhooks": webhooks},
	})
}

// UpdateWebhook modifies one webhook
func (c *Client) UpdateWebhook(ctx context.Context, id string, fields map[string]any, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.docURL(s, "webhooks", id),
		Method: http.MethodPatch,
		Body:   fields,
	})
}

// DeleteWebhook removes one webhook
func (c *Client) DeleteWebhook(ctx context.Context, id string, opts ...ScopeOption) (apicall.Outcome, error) {
	if id == "" {
		return apicall.Outcome{}, fmt.Errorf("delete webhook: %w", ErrMissingTarget)
	}
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{URL: c.docURL(s, "webhooks", id), Method: http.MethodDelete})
}

// EmptyWebhookQueue drops every pending webhook payload of a document
func (c *Client) EmptyWebhookQueue(ctx context.Context, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{URL: c.docURL(s, "webhooks", "queue"), Method: http.MethodDelete})
}
