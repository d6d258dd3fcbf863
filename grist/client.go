package grist

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/s0up4200/grister/apicall"
	"github.com/s0up4200/grister/config"
)

// Client is a configured Grist API client. Each Client owns its
// configuration, dispatcher and diagnostics; use Clone to get an independent
// client for another goroutine.
type Client struct {
	config *config.Resolver
	caller *apicall.Dispatcher
	guard  *apicall.Guard
	logger zerolog.Logger

	configOpts []config.Option
	callerOpts []apicall.Option
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger shared by the client, its resolver and dispatcher
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithConfigOptions forwards options to the configuration resolver
func WithConfigOptions(opts ...config.Option) Option {
	return func(c *Client) {
		c.configOpts = append(c.configOpts, opts...)
	}
}

// WithCallerOptions forwards options to the request dispatcher
func WithCallerOptions(opts ...apicall.Option) Option {
	return func(c *Client) {
		c.callerOpts = append(c.callerOpts, opts...)
	}
}

// NewClient resolves the configuration, applying overrides last, and builds
// a client. It fails with a *config.NotConfiguredError when the result is
// incomplete.
func NewClient(overrides map[string]string, opts ...Option) (*Client, error) {
	c := &Client{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}

	resolverOpts := append([]config.Option{config.WithLogger(c.logger)}, c.configOpts...)
	resolver, err := config.New(overrides, resolverOpts...)
	if err != nil {
		return nil, err
	}

	c.config = resolver
	c.caller = apicall.New(resolver, c.logger, c.callerOpts...)
	c.guard = apicall.NewGuard(resolver, c.caller)
	return c, nil
}

// Clone returns an independent client with the same configuration and dry-run
// state. The session, if any, is not shared.
func (c *Client) Clone() (*Client, error) {
	clone, err := NewClient(c.config.Config(),
		WithLogger(c.logger),
		WithConfigOptions(c.configOpts...),
		WithCallerOptions(c.callerOpts...))
	if err != nil {
		return nil, fmt.Errorf("failed to clone client: %w", err)
	}
	clone.caller.SetDryRun(c.caller.DryRun())
	return clone, nil
}

// Reconfig rebuilds the configuration from every source, then applies
// overrides. On failure the current configuration is kept.
func (c *Client) Reconfig(overrides map[string]string) error {
	return c.config.Resolve(overrides)
}

// UpdateConfig patches the current configuration
func (c *Client) UpdateConfig(patch map[string]string) error {
	return c.config.Update(patch)
}

// Settings returns the live configuration
func (c *Client) Settings() *config.Resolver {
	return c.config
}

// Server returns the API base URL for the configured team
func (c *Client) Server() string {
	return c.config.ServerURL("")
}

// OpenSession keeps one HTTP session for all following calls
func (c *Client) OpenSession() {
	c.caller.OpenSession()
}

// CloseSession ends the persistent session, if any
func (c *Client) CloseSession() {
	c.caller.CloseSession()
}

// SetDryRun toggles dry-run mode: calls are prepared but never sent
func (c *Client) SetDryRun(dryRun bool) {
	c.caller.SetDryRun(dryRun)
}

// DryRun reports whether dry-run mode is active
func (c *Client) DryRun() bool {
	return c.caller.DryRun()
}

// Calls returns the number of requests actually sent
func (c *Client) Calls() int {
	return c.caller.Calls()
}

// Diagnostics returns the last request and response
func (c *Client) Diagnostics() apicall.Diagnostics {
	return c.caller.Diagnostics()
}

// Inspect describes the last call, one item per line, with the key masked
func (c *Client) Inspect() string {
	return c.caller.Inspect("\n", apicall.DefaultMaxSavedContent)
}

// Call executes a raw call through the safe-mode guard. It is the escape
// hatch for endpoints without a dedicated method.
func (c *Client) Call(ctx context.Context, mutating bool, call apicall.Call) (apicall.Outcome, error) {
	return c.guard.Do(ctx, mutating, func(ctx context.Context) (apicall.Outcome, error) {
		return c.caller.Execute(ctx, call)
	})
}

// read runs a non-mutating call and unwraps the envelope field, if given
func (c *Client) read(ctx context.Context, call apicall.Call, envelope string) (apicall.Outcome, error) {
	out, err := c.Call(ctx, false, call)
	if envelope != "" {
		out = out.Envelope(envelope)
	}
	return out, err
}

// write runs a mutating call
func (c *Client) write(ctx context.Context, call apicall.Call) (apicall.Outcome, error) {
	return c.Call(ctx, true, call)
}

// docURL joins path segments under /docs/{doc} on the scope's server
func (c *Client) docURL(s scope, segments ...string) string {
	return c.join(s.server, append([]string{"docs", s.doc}, segments...)...)
}

func (c *Client) join(base string, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = url.PathEscape(seg)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(escaped, "/")
}

// encodeQuery percent-encodes values with spaces as %20, which the records
// and attachments filters require
func encodeQuery(values url.Values) string {
	return strings.ReplaceAll(values.Encode(), "+", "%20")
}
