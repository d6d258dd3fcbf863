package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHome = "/home/tester"

// clearEnv makes sure no GRIST_* variable from the outer environment leaks in
func clearEnv(t *testing.T) {
	t.Helper()
	for key := range Defaults() {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func validOverrides() map[string]string {
	return map[string]string{
		KeyAPIKey:      "abcdefghijklm",
		KeyWorkspaceID: "42",
		KeyDocID:       "doc123",
	}
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestResolvePrecedence(t *testing.T) {
	clearEnv(t)
	fs := afero.NewMemMapFs()
	writeFile(t, fs, filepath.Join(testHome, HomeConfigFile), `{
		"GRIST_API_KEY": "from-home-file",
		"GRIST_TEAM_SITE": "hometeam",
		"GRIST_API_SERVER": "home.example.com",
		"GRIST_WORKSPACE_ID": 7,
		"SOMETHING_ELSE": "ignored"
	}`)
	writeFile(t, fs, "/work/gryconf.json", `{
		"GRIST_TEAM_SITE": "localteam",
		"GRIST_DOC_ID": "localdoc"
	}`)
	t.Setenv(KeyDocID, "envdoc")
	t.Setenv("UNRELATED_VAR", "x")

	r, err := New(map[string]string{KeyAPIKey: "override-key"},
		WithFs(fs), WithHomeDir(testHome), WithLocalFile("/work/gryconf.json"))
	require.NoError(t, err)

	cfg := r.Config()
	assert.Equal(t, "override-key", cfg[KeyAPIKey], "override wins over file")
	assert.Equal(t, "envdoc", cfg[KeyDocID], "env wins over local file")
	assert.Equal(t, "localteam", cfg[KeyTeamSite], "local file wins over home file")
	assert.Equal(t, "home.example.com", cfg[KeyAPIServer], "home file wins over defaults")
	assert.Equal(t, "7", cfg[KeyWorkspaceID])
	assert.Equal(t, "api", cfg[KeyAPIRoot], "default kept")
	assert.NotContains(t, cfg, "SOMETHING_ELSE")
	assert.NotContains(t, cfg, "UNRELATED_VAR")
	assert.Len(t, cfg, len(Defaults()))
}

func TestResolveMissingFilesAreSkipped(t *testing.T) {
	clearEnv(t)
	r, err := New(validOverrides(), WithFs(afero.NewMemMapFs()), WithHomeDir(testHome),
		WithLocalFile("gryconf.json"))
	require.NoError(t, err)
	assert.Equal(t, "docs", r.Team())
	assert.Equal(t, 42, r.WorkspaceID())
}

func TestResolveValidation(t *testing.T) {
	tests := []struct {
		name      string
		skipBase  bool
		overrides map[string]string
		env       map[string]string
		errMsg    string
	}{
		{
			name:      "placeholder workspace id",
			skipBase:  true,
			overrides: map[string]string{KeyAPIKey: "key12345"},
			errMsg:    "GRIST_WORKSPACE_ID must be an integer",
		},
		{
			name:      "empty override",
			overrides: map[string]string{KeyAPIRoot: ""},
			errMsg:    "GRIST_API_ROOT is empty",
		},
		{
			name:   "empty environment variable",
			env:    map[string]string{KeyTeamSite: ""},
			errMsg: "GRIST_TEAM_SITE is empty",
		},
		{
			name:      "bad flag value",
			overrides: map[string]string{KeySafeMode: "yes"},
			errMsg:    "GRIST_SAFEMODE must be",
		},
		{
			name:      "unknown key",
			overrides: map[string]string{"GRIST_NOPE": "x"},
			errMsg:    "unknown config key GRIST_NOPE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			overrides := validOverrides()
			if tt.skipBase {
				overrides = map[string]string{}
			}
			for k, v := range tt.overrides {
				overrides[k] = v
			}

			_, err := New(overrides, WithFs(afero.NewMemMapFs()), WithHomeDir(testHome))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotConfigured))
			assert.Contains(t, err.Error(), tt.errMsg)

			var nc *NotConfiguredError
			require.True(t, errors.As(err, &nc))
			assert.NotContains(t, nc.Dump, "abcdefghijklm", "dump must be redacted")
		})
	}
}

func TestResolveKeepsPreviousConfigOnFailure(t *testing.T) {
	clearEnv(t)
	r, err := New(validOverrides(), WithFs(afero.NewMemMapFs()), WithHomeDir(testHome))
	require.NoError(t, err)

	err = r.Resolve(map[string]string{KeyWorkspaceID: "nope"})
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, "abcdefghijklm", r.APIKey())
	assert.Equal(t, 42, r.WorkspaceID())
}

func TestResolveRereadsSources(t *testing.T) {
	clearEnv(t)
	r, err := New(validOverrides(), WithFs(afero.NewMemMapFs()), WithHomeDir(testHome))
	require.NoError(t, err)

	t.Setenv(KeyTeamSite, "newteam")
	overrides := validOverrides()
	overrides[KeySafeMode] = Yes
	require.NoError(t, r.Resolve(overrides))

	assert.Equal(t, "newteam", r.Team())
	assert.True(t, r.SafeMode())
}

func TestUpdate(t *testing.T) {
	clearEnv(t)
	r, err := New(validOverrides(), WithFs(afero.NewMemMapFs()), WithHomeDir(testHome))
	require.NoError(t, err)
	before := r.Config()

	// Update must not pick up new environment values
	t.Setenv(KeyAPIServer, "env.example.com")

	require.NoError(t, r.Update(map[string]string{KeyTeamSite: "acme", KeyRaiseError: No}))
	after := r.Config()

	assert.Equal(t, "acme", after[KeyTeamSite])
	assert.Equal(t, No, after[KeyRaiseError])
	assert.False(t, r.RaiseOnError())
	for key, value := range before {
		if key == KeyTeamSite || key == KeyRaiseError {
			continue
		}
		assert.Equal(t, value, after[key], key)
	}
	assert.Equal(t, "getgrist.com", after[KeyAPIServer])
}

func TestUpdateIsAtomic(t *testing.T) {
	clearEnv(t)
	r, err := New(validOverrides(), WithFs(afero.NewMemMapFs()), WithHomeDir(testHome))
	require.NoError(t, err)

	err = r.Update(map[string]string{KeyTeamSite: "acme", KeyWorkspaceID: "x"})
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, "docs", r.Team())
	assert.Equal(t, 42, r.WorkspaceID())
}

func TestConfigReturnsCopy(t *testing.T) {
	clearEnv(t)
	r, err := New(validOverrides(), WithFs(afero.NewMemMapFs()), WithHomeDir(testHome))
	require.NoError(t, err)

	cfg := r.Config()
	cfg[KeyTeamSite] = "mutated"
	assert.Equal(t, "docs", r.Team())
}

func TestForcedAndExtraDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(KeySafeMode, Yes)
	t.Setenv("GRIST_GRY_TIMEOUT", "15")

	r, err := New(validOverrides(), WithFs(afero.NewMemMapFs()), WithHomeDir(testHome),
		WithDefaults(map[string]string{"GRIST_GRY_TIMEOUT": "60"}),
		WithForced(map[string]string{KeySafeMode: No, KeyRaiseError: No}))
	require.NoError(t, err)

	assert.False(t, r.SafeMode(), "forced value wins over env")
	assert.False(t, r.RaiseOnError())
	assert.Equal(t, "15", r.Get("GRIST_GRY_TIMEOUT"))
}

func TestServerURL(t *testing.T) {
	tests := []struct {
		name     string
		patch    map[string]string
		team     string
		expected string
	}{
		{
			name: "saas",
			patch: map[string]string{
				KeySelfManaged: No,
				KeyProtocol:    "https://",
				KeyTeamSite:    "acme",
				KeyAPIServer:   "example.com",
			},
			expected: "https://acme.example.com/api",
		},
		{
			name: "saas with team override",
			patch: map[string]string{
				KeyTeamSite:  "acme",
				KeyAPIServer: "example.com",
			},
			team:     "other",
			expected: "https://other.example.com/api",
		},
		{
			name: "self-managed single org ignores team",
			patch: map[string]string{
				KeySelfManaged:     Yes,
				KeySingleOrg:       Yes,
				KeySelfManagedHome: "http://localhost:8484",
				KeyTeamSite:        "acme",
			},
			team:     "other",
			expected: "http://localhost:8484/api",
		},
		{
			name: "self-managed multi org",
			patch: map[string]string{
				KeySelfManaged:     Yes,
				KeySingleOrg:       No,
				KeySelfManagedHome: "https://grist.internal/",
				KeyTeamSite:        "acme",
			},
			expected: "https://grist.internal/o/acme/api",
		},
		{
			name: "self-managed multi org with override",
			patch: map[string]string{
				KeySelfManaged: Yes,
				KeySingleOrg:   No,
				KeyTeamSite:    "acme",
			},
			team:     "other",
			expected: "http://localhost:8484/o/other/api",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			r, err := New(validOverrides(), WithFs(afero.NewMemMapFs()), WithHomeDir(testHome))
			require.NoError(t, err)
			require.NoError(t, r.Update(tt.patch))

			before := r.Config()
			got := r.ServerURL(tt.team)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, got, r.ServerURL(tt.team), "derivation is stable")
			assert.Equal(t, before, r.Config(), "derivation never mutates")
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"abcdefghijklm", "ab<9>lm"},
		{"abcde", "ab<1>de"},
		{"abcd", "<4>"},
		{"", "<0>"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskAPIKey(tt.key))
		})
	}
}

func TestDump(t *testing.T) {
	assert.Equal(t, "{<empty>}", Dump(nil, false))

	cfg := map[string]string{KeyAPIKey: "abcdefghijklm", KeyTeamSite: "acme"}
	assert.Equal(t, "{GRIST_API_KEY: ab<9>lm, GRIST_TEAM_SITE: acme}", Dump(cfg, false))
	assert.Equal(t, "GRIST_API_KEY: ab<9>lm\nGRIST_TEAM_SITE: acme", Dump(cfg, true))
	assert.Equal(t, "abcdefghijklm", cfg[KeyAPIKey], "input is not modified")
}
