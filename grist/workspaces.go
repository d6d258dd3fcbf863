package grist

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/s0up4200/grister/apicall"
)

// ListWorkspaces lists the workspaces of a team site
func (c *Client) ListWorkspaces(ctx context.Context, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.read(ctx, apicall.Call{URL: c.join(s.server, "orgs", s.team, "workspaces")}, "")
}

// AddWorkspace creates a workspace in a team site
func (c *Client) AddWorkspace(ctx context.Context, name string, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.join(s.server, "orgs", s.team, "workspaces"),
		Method: http.MethodPost,
		Body:   map[string]any{"name": name},
	})
}

// GetWorkspace describes a workspace, the configured one by default
func (c *Client) GetWorkspace(ctx context.Context, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.read(ctx, apicall.Call{URL: c.join(s.server, "workspaces", s.workspaceID())}, "")
}

// UpdateWorkspace renames a workspace
func (c *Client) UpdateWorkspace(ctx context.Context, name string, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.join(s.server, "workspaces", s.workspaceID()),
		Method: http.MethodPatch,
		Body:   map[string]any{"name": name},
	})
}

// DeleteWorkspace deletes a workspace. The id is never taken from the
// configuration.
func (c *Client) DeleteWorkspace(ctx context.Context, id int, opts ...ScopeOption) (apicall.Outcome, error) {
	if id <= 0 {
		return apicall.Outcome{}, fmt.Errorf("delete workspace: %w", ErrMissingTarget)
	}
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.join(s.server, "workspaces", strconv.Itoa(id)),
		Method: http.MethodDelete,
	})
}

// ListWorkspaceUsers lists the users of a workspace
func (c *Client) ListWorkspaceUsers(ctx context.Context, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.read(ctx, apicall.Call{URL: c.join(s.server, "workspaces", s.workspaceID(), "access")}, "users")
}

// UpdateWorkspaceUsers changes the roles of workspace users
func (c *Client) UpdateWorkspaceUsers(ctx context.Context, users Access, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.join(s.server, "workspaces", s.workspaceID(), "access"),
		Method: http.MethodPatch,
		Body:   map[string]any{"delta": map[string]any{"users": users}},
	})
}
