package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/grister/config"
	"github.com/s0up4200/grister/grist"
)

const testKey = "abcdefghijklm"

type fakeServer struct {
	*httptest.Server
	mu     sync.Mutex
	paths  []string
	status int
	body   string
}

func newFakeServer(t *testing.T, status int, body string) *fakeServer {
	t.Helper()
	f := &fakeServer{status: status, body: body}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.paths = append(f.paths, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		w.Write([]byte(f.body))
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeServer) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

// setupEnv points the CLI configuration at url through the environment only
func setupEnv(t *testing.T, url string) {
	t.Helper()
	for key := range config.Defaults() {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv(keyTimeout, "")
	require.NoError(t, os.Unsetenv(keyTimeout))
	t.Setenv("HOME", t.TempDir())

	if url == "" {
		return
	}
	t.Setenv(config.KeyAPIKey, testKey)
	t.Setenv(config.KeySelfManaged, config.Yes)
	t.Setenv(config.KeySingleOrg, config.Yes)
	t.Setenv(config.KeySelfManagedHome, url)
	t.Setenv(config.KeyWorkspaceID, "7")
	t.Setenv(config.KeyDocID, "doc1")
	// Forced off by the CLI regardless of the environment
	t.Setenv(config.KeyRaiseError, config.Yes)
}

func resetFlags() {
	quiet, verbose, inspect = false, 0, false
	teamID, workspaceID, docID = "", 0, ""
	recTable, recFilters, recWhere, recStrict = "", nil, "", false
	recSort, recLimit, recHidden, recNoParse = "", 0, false, false
	showAPIKey = false
	client = nil
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	stdout, stderr = &out, &errOut
	t.Cleanup(func() {
		stdout, stderr = os.Stdout, os.Stderr
		if client != nil {
			client.CloseSession()
		}
	})

	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRecListWhere(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, `{"records": [
		{"id": 1, "fields": {"name": "Rex", "age": 5}},
		{"id": 2, "fields": {"name": "Tom", "age": 2}},
		{"id": 3, "fields": {"name": "Bob", "age": 9}}
	]}`)
	setupEnv(t, srv.URL)

	out, _, err := run(t, "rec", "list", "-b", "Pets", "--where", "age > 3")
	require.NoError(t, err)

	assert.Contains(t, out, "Rex")
	assert.Contains(t, out, "Bob")
	assert.NotContains(t, out, "Tom")
	assert.Equal(t, []string{"GET /api/docs/doc1/tables/Pets/records"}, srv.requests())
}

func TestRecListBadExpressionSendsNothing(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, `{"records": []}`)
	setupEnv(t, srv.URL)

	_, _, err := run(t, "rec", "list", "-b", "Pets", "--where", "age >")
	require.Error(t, err)
	assert.Empty(t, srv.requests())
}

func TestBadCall(t *testing.T) {
	srv := newFakeServer(t, http.StatusNotFound, `{"error": "document not found"}`)
	setupEnv(t, srv.URL)

	out, errOut, err := run(t, "doc", "see")

	var bad *badCallError
	require.True(t, errors.As(err, &bad), "got %v", err)
	assert.Equal(t, http.StatusNotFound, bad.status)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Status: 404")
	assert.Contains(t, errOut, "document not found")
}

func TestBadCallQuiet(t *testing.T) {
	srv := newFakeServer(t, http.StatusForbidden, `{"error": "no access"}`)
	setupEnv(t, srv.URL)

	out, errOut, err := run(t, "ws", "see", "-q")

	var bad *badCallError
	require.True(t, errors.As(err, &bad))
	assert.Empty(t, out)
	assert.Empty(t, errOut)
}

func TestWriteCommandPrintsDone(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, `null`)
	setupEnv(t, srv.URL)

	out, _, err := run(t, "doc", "update", "Renamed", "-d", "other")
	require.NoError(t, err)
	assert.Contains(t, out, "Done.")
	assert.Equal(t, []string{"PATCH /api/docs/other"}, srv.requests())
}

func TestInspect(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, `{"id": "doc1", "name": "Pets"}`)
	setupEnv(t, srv.URL)

	out, _, err := run(t, "doc", "see", "-i")
	require.NoError(t, err)
	assert.Contains(t, out, "request url:")
	assert.Contains(t, out, "ab<9>lm")
	assert.NotContains(t, out, testKey)
	assert.Contains(t, out, "Pets")
}

func TestVerbosity(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, `{"users": [{"id": 1, "name": "Ada", "email": "ada@example.com", "access": "owners"}]}`)
	setupEnv(t, srv.URL)

	out, _, err := run(t, "doc", "users")
	require.NoError(t, err)
	assert.Contains(t, out, "ada@example.com")
	assert.NotContains(t, out, `"users"`)

	out, _, err = run(t, "doc", "users", "-vv")
	require.NoError(t, err)
	assert.Contains(t, out, `"users"`, "raw response keeps the envelope")
}

func TestConfMasksKey(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, `{}`)
	setupEnv(t, srv.URL)

	out, _, err := run(t, "conf")
	require.NoError(t, err)
	assert.Contains(t, out, "ab<9>lm")
	assert.NotContains(t, out, testKey)
	assert.Contains(t, out, "GRIST_GRY_TIMEOUT")
	assert.Regexp(t, `GRIST_RAISE_ERROR\s+N\n`, out)
	assert.Empty(t, srv.requests())

	out, _, err = run(t, "conf", "--show-apikey")
	require.NoError(t, err)
	assert.Contains(t, out, testKey)
}

func TestNotConfigured(t *testing.T) {
	setupEnv(t, "")

	_, _, err := run(t, "doc", "see")
	require.ErrorIs(t, err, config.ErrNotConfigured)
}

func TestVersionNeedsNoConfig(t *testing.T) {
	setupEnv(t, "")

	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "gry "+version)
}

func TestParseColumns(t *testing.T) {
	cols, err := parseColumns([]string{"name:Text:Name", "age:Int:"})
	require.NoError(t, err)
	assert.Equal(t, []grist.Column{
		{ID: "name", Fields: map[string]any{"type": "Text", "label": "Name"}},
		{ID: "age", Fields: map[string]any{"type": "Int", "label": ""}},
	}, cols)

	for _, bad := range []string{"name", "name:Text", ":Text:Name", "a:b:c:d"} {
		_, err := parseColumns([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestParseAssignments(t *testing.T) {
	fields, err := parseAssignments([]string{"name:Rex", "url:http://example.com"}, ":")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Rex", "url": "http://example.com"}, fields)

	_, err = parseAssignments([]string{"novalue"}, "=")
	assert.Error(t, err)
	_, err = parseAssignments([]string{"=x"}, "=")
	assert.Error(t, err)
}

func TestAccessDelta(t *testing.T) {
	users, err := accessDelta("ada@example.com", "editors")
	require.NoError(t, err)
	assert.Equal(t, grist.Access{"ada@example.com": "editors"}, users)

	users, err = accessDelta("ada@example.com", "none")
	require.NoError(t, err)
	assert.Equal(t, grist.Access{"ada@example.com": ""}, users)

	_, err = accessDelta("ada@example.com", "admins")
	assert.Error(t, err)
}

func TestRecordTable(t *testing.T) {
	assert.Equal(t, "No records found.\n", recordTable(nil, nil, true).String())

	records := []grist.Record{
		{ID: 1, Fields: map[string]any{"name": "Rex", "age": float64(5), "tags": []any{"L", "good"}}},
		{ID: 2, Fields: map[string]any{"name": "Tom", "age": 2.5, "tags": nil}},
	}
	got := recordTable(records, nil, true).String()
	assert.Equal(t, "id  age  name  tags\n"+
		"--  ---  ----  ----\n"+
		"1   5    Rex   [\"L\",\"good\"]\n"+
		"2   2.5  Tom   \n", got)
}
