package grist

import (
	"context"
	"net/http"

	"github.com/s0up4200/grister/apicall"
)

// ListTeamSites lists the team sites the key can access
func (c *Client) ListTeamSites(ctx context.Context) (apicall.Outcome, error) {
	s := c.scope(nil)
	return c.read(ctx, apicall.Call{URL: c.join(s.server, "orgs")}, "")
}

// GetTeam describes a team site, the current one by default
func (c *Client) GetTeam(ctx context.Context, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.read(ctx, apicall.Call{URL: c.join(s.server, "orgs", s.team)}, "")
}

// UpdateTeam renames a team site. The subdomain does not change.
func (c *Client) UpdateTeam(ctx context.Context, name string, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.join(s.server, "orgs", s.team),
		Method: http.MethodPatch,
		Body:   map[string]any{"name": name},
	})
}

// ListTeamUsers lists the users of a team site
func (c *Client) ListTeamUsers(ctx context.Context, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.read(ctx, apicall.Call{URL: c.join(s.server, "orgs", s.team, "access")}, "users")
}

// UpdateTeamUsers changes the roles of team users
func (c *Client) UpdateTeamUsers(ctx context.Context, users Access, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:    c.join(s.server, "orgs", s.team, "access"),
		Method: http.MethodPatch,
		Body:   map[string]any{"delta": map[string]any{"users": users}},
	})
}
