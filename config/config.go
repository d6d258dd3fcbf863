package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Resolver owns the effective configuration of one client. Sources are merged
// in increasing precedence: built-in defaults, the home config file, the
// optional local config file, environment variables (exact key names),
// forced values and finally caller overrides.
//
// A Resolver is not safe for concurrent mutation; concurrent reads are fine.
type Resolver struct {
	defaults  map[string]string
	forced    map[string]string
	homeDir   string
	localFile string
	fs        afero.Fs
	logger    zerolog.Logger

	config map[string]string
}

// Option configures a Resolver
type Option func(*Resolver)

// WithDefaults adds (or replaces) default values. New keys become recognized
// keys and are subject to the same validation as the built-in ones.
func WithDefaults(extra map[string]string) Option {
	return func(r *Resolver) {
		maps.Copy(r.defaults, extra)
	}
}

// WithHomeDir sets the directory searched for HomeConfigFile
func WithHomeDir(dir string) Option {
	return func(r *Resolver) {
		r.homeDir = dir
	}
}

// WithLocalFile adds an optional config file merged after the home file
func WithLocalFile(path string) Option {
	return func(r *Resolver) {
		r.localFile = path
	}
}

// WithFs sets the filesystem config files are read from
func WithFs(fs afero.Fs) Option {
	return func(r *Resolver) {
		r.fs = fs
	}
}

// WithForced pins values after the environment is merged. Caller overrides
// still win over forced values.
func WithForced(values map[string]string) Option {
	return func(r *Resolver) {
		r.forced = maps.Clone(values)
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New builds a Resolver and resolves the configuration once, applying overrides last
func New(overrides map[string]string, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		defaults: Defaults(),
		fs:       afero.NewOsFs(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.homeDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			r.homeDir = home
		}
	}

	if err := r.Resolve(overrides); err != nil {
		return nil, err
	}
	return r, nil
}

// Resolve rebuilds the configuration from all sources, then applies
// overrides. On failure the current configuration is left untouched.
func (r *Resolver) Resolve(overrides map[string]string) error {
	candidate, err := r.load()
	if err != nil {
		return err
	}

	if err := r.commit(candidate, overrides); err != nil {
		return err
	}

	r.logger.Debug().
		Str("server", r.ServerURL("")).
		Bool("safe_mode", r.SafeMode()).
		Msg("Resolved Grist configuration")
	return nil
}

// Update patches the current configuration without re-reading files or the
// environment. The patch is applied only if the result validates.
func (r *Resolver) Update(patch map[string]string) error {
	return r.commit(maps.Clone(r.config), patch)
}

func (r *Resolver) commit(candidate, patch map[string]string) error {
	var problems *multierror.Error
	for _, key := range sortedKeys(patch) {
		if _, ok := r.defaults[key]; !ok {
			problems = multierror.Append(problems, fmt.Errorf("unknown config key %s", key))
			continue
		}
		candidate[key] = patch[key]
	}

	if err := validate(candidate); err != nil {
		problems = multierror.Append(problems, err)
	}

	if err := problems.ErrorOrNil(); err != nil {
		return &NotConfiguredError{
			Dump:     Dump(candidate, false),
			Problems: err,
		}
	}

	r.config = candidate
	return nil
}

// load merges defaults, config files, environment and forced values
func (r *Resolver) load() (map[string]string, error) {
	v := viper.New()
	v.SetFs(r.fs)
	v.SetConfigType("json")
	v.AllowEmptyEnv(true)

	for key, value := range r.defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key, key); err != nil {
			return nil, fmt.Errorf("error binding env %s: %w", key, err)
		}
	}

	for _, path := range r.files() {
		exists, err := afero.Exists(r.fs, path)
		if err != nil {
			return nil, fmt.Errorf("error checking config file %s: %w", path, err)
		}
		if !exists {
			continue
		}

		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config %s: %w", path, err)
		}
		r.logger.Debug().Str("path", path).Msg("Merged config file")
	}

	config := make(map[string]string, len(r.defaults))
	for key := range r.defaults {
		config[key] = v.GetString(key)
	}
	maps.Copy(config, r.forced)

	return config, nil
}

// files lists config files in increasing precedence
func (r *Resolver) files() []string {
	var files []string
	if r.homeDir != "" {
		files = append(files, filepath.Join(r.homeDir, HomeConfigFile))
	}
	if r.localFile != "" {
		files = append(files, r.localFile)
	}
	return files
}

// validate checks completeness, flag values and the workspace id
func validate(config map[string]string) error {
	var result *multierror.Error

	for _, key := range sortedKeys(config) {
		if config[key] == "" {
			result = multierror.Append(result, fmt.Errorf("%s is empty", key))
		}
	}

	for _, key := range flagKeys {
		if v := config[key]; v != "" && v != Yes && v != No {
			result = multierror.Append(result, fmt.Errorf("%s must be %q or %q, got %q", key, Yes, No, v))
		}
	}

	if v := config[KeyWorkspaceID]; v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s must be an integer, got %q", KeyWorkspaceID, v))
		}
	}

	return result.ErrorOrNil()
}

// ServerURL derives the API base URL. A non-empty teamOverride replaces the
// configured team for this derivation only.
func (r *Resolver) ServerURL(teamOverride string) string {
	return ServerURL(r.config, teamOverride)
}

// ServerURL derives the API base URL from a validated configuration:
//
//	SaaS:                    {protocol}{team}.{host}/{root}
//	self-managed single org: {home}/{root}
//	self-managed multi org:  {home}/o/{team}/{root}
func ServerURL(config map[string]string, teamOverride string) string {
	team := config[KeyTeamSite]
	if teamOverride != "" {
		team = teamOverride
	}
	root := strings.Trim(config[KeyAPIRoot], "/")

	if config[KeySelfManaged] != Yes {
		return fmt.Sprintf("%s%s.%s/%s", config[KeyProtocol], team, config[KeyAPIServer], root)
	}

	home := strings.TrimRight(config[KeySelfManagedHome], "/")
	if config[KeySingleOrg] == Yes {
		return fmt.Sprintf("%s/%s", home, root)
	}
	return fmt.Sprintf("%s/o/%s/%s", home, team, root)
}

// RedactedDump formats the current configuration with the API key masked
func (r *Resolver) RedactedDump(multiline bool) string {
	return Dump(r.config, multiline)
}

// Config returns a copy of the effective configuration
func (r *Resolver) Config() map[string]string {
	return maps.Clone(r.config)
}

// Get returns a single configuration value
func (r *Resolver) Get(key string) string {
	return r.config[key]
}

// APIKey returns the secret API key
func (r *Resolver) APIKey() string {
	return r.config[KeyAPIKey]
}

// RaiseOnError reports whether HTTP error statuses should fail calls
func (r *Resolver) RaiseOnError() bool {
	return r.config[KeyRaiseError] == Yes
}

// SafeMode reports whether mutating calls are blocked
func (r *Resolver) SafeMode() bool {
	return r.config[KeySafeMode] == Yes
}

// Team returns the configured team site
func (r *Resolver) Team() string {
	return r.config[KeyTeamSite]
}

// DocID returns the configured document id
func (r *Resolver) DocID() string {
	return r.config[KeyDocID]
}

// WorkspaceID returns the configured workspace id. It is validated at
// resolution time, so the conversion cannot fail on a resolved config.
func (r *Resolver) WorkspaceID() int {
	id, _ := strconv.Atoi(r.config[KeyWorkspaceID])
	return id
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
