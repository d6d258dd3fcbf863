package grist

import "strconv"

// CurrentTeam is the path alias Grist resolves to the team of the server URL
const CurrentTeam = "current"

// ScopeOption selects the team, workspace or document a single call targets
// instead of the configured defaults
type ScopeOption func(*scopeOverrides)

type scopeOverrides struct {
	team      string
	workspace int
	doc       string
}

// WithTeam targets another team site. Document operations are sent to that
// team's server URL; team operations address it by id.
func WithTeam(team string) ScopeOption {
	return func(o *scopeOverrides) {
		o.team = team
	}
}

// WithWorkspace targets another workspace
func WithWorkspace(id int) ScopeOption {
	return func(o *scopeOverrides) {
		o.workspace = id
	}
}

// WithDoc targets another document
func WithDoc(id string) ScopeOption {
	return func(o *scopeOverrides) {
		o.doc = id
	}
}

// scope is the resolved target of one call
type scope struct {
	server    string
	team      string
	workspace int
	doc       string
}

func (c *Client) scope(opts []ScopeOption) scope {
	var o scopeOverrides
	for _, opt := range opts {
		opt(&o)
	}

	s := scope{
		server:    c.config.ServerURL(o.team),
		team:      o.team,
		workspace: o.workspace,
		doc:       o.doc,
	}
	if s.team == "" {
		s.team = CurrentTeam
	}
	if s.workspace == 0 {
		s.workspace = c.config.WorkspaceID()
	}
	if s.doc == "" {
		s.doc = c.config.DocID()
	}
	return s
}

func (s scope) workspaceID() string {
	return strconv.Itoa(s.workspace)
}
