package cmd

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"ghostline/pkg/models"
	"ghostline/pkg/retention"
	"ghostline/pkg/store"
)

func inmemoryClient(t *testing.T, h fasthttp.RequestHandler) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: h}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	c := NewClient("http://ghostline.test/", "ad-key", time.Second)
	c.hc.Dial = func(string) (net.Conn, error) { return ln.Dial() }
	return c
}

func TestClientDo(t *testing.T) {
	c := inmemoryClient(t, func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Request.Header.Peek("Authorization")) != "Bearer ad-key" {
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
			ctx.SetBodyString(`{"error":"invalid API key"}`)
			return
		}
		switch string(ctx.Path()) {
		case "/admin/jobs/sweep":
			ctx.SetBodyString(`{"run_id":"r1","dry_run":true,"scanned":3,"tombstoned":1}`)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			ctx.SetBodyString(`{"error":"message not found"}`)
		}
	})

	var res retention.Result
	require.NoError(t, c.Do(fasthttp.MethodPost, "/admin/jobs/sweep?dry_run=true", &res))
	assert.Equal(t, "r1", res.RunID)
	assert.True(t, res.DryRun)
	assert.Equal(t, 3, res.Scanned)

	err := c.Do(fasthttp.MethodGet, "/admin/messages/nope", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, fasthttp.StatusNotFound, apiErr.Status)
	assert.Equal(t, "message not found", apiErr.Message)
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, retention.Result{
		RunID:      "r2",
		Scanned:    1200,
		Tombstoned: 1,
		Items: []retention.Item{
			{MessageID: "m1", Tombstoned: true, Reason: "all_participants_expired"},
			{MessageID: "m2", Expired: []string{"bob"}},
		},
	}, true)
	out := buf.String()
	assert.Contains(t, out, "Sweep r2 (applied)")
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "x m1 tombstoned")
	assert.Contains(t, out, "- m2 expired for [bob]")
}

func TestPrintStatus(t *testing.T) {
	now := time.Date(2025, 7, 4, 10, 0, 0, 0, time.UTC)
	last := now.Add(-2 * time.Minute)

	var buf bytes.Buffer
	printStatus(&buf, retention.Status{Enabled: true, Paused: true, Schedule: "every 30s", Runs: 4, LastRunAt: &last}, now)
	assert.Contains(t, buf.String(), "Retention: paused (every 30s)")
	assert.Contains(t, buf.String(), "Runs:      4")
	assert.Contains(t, buf.String(), "2 minutes ago")

	buf.Reset()
	printStatus(&buf, retention.Status{}, now)
	assert.Contains(t, buf.String(), "Retention: disabled")
}

func TestKeyFamily(t *testing.T) {
	cases := map[string]string{
		"m:abc":                     "message",
		"idx:s:team:m:0001:abc":     "scope index",
		"idx:rt:abc":                "retention index",
		"idx:g:message:abc:g1":      "grant index",
		"s:team":                    "scope",
		"p:alice":                   "profile",
		"g:g1":                      "grant",
		"rq:profile:alice:bob":      "access request",
		"something-else-altogether": "other",
	}
	for key, want := range cases {
		assert.Equal(t, want, keyFamily(key), key)
	}
}

func TestInspectDatabase(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "store"), store.Options{})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, st.PutScope(ctx, &models.Scope{Ref: "team", Label: "Team"}))
	require.NoError(t, st.PutProfile(ctx, &models.Profile{ID: "alice"}))
	require.NoError(t, st.Close())

	var buf bytes.Buffer
	require.NoError(t, inspectDatabase(&buf, filepath.Join(dir, "store"), 1))
	out := buf.String()
	assert.Contains(t, out, "Keys in")
	assert.Contains(t, out, "s:team")
	assert.Contains(t, out, "p:alice")
}

func resetGlobals(t *testing.T) {
	saved := globals
	t.Cleanup(func() { globals = saved })
}

func TestCommandsNeedAdminKey(t *testing.T) {
	resetGlobals(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GHOSTCTL_ADMIN_KEY", "")
	rootCmd.SetArgs([]string{"status"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin key required")
}

func TestResolveFromConfigFile(t *testing.T) {
	resetGlobals(t)
	t.Setenv("GHOSTCTL_SERVER", "")
	t.Setenv("GHOSTCTL_ADMIN_KEY", "")

	path := filepath.Join(t.TempDir(), "ghostctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: http://db1:8080\nadmin_key: file-key\ntimeout: 5s\noutput: yaml\n"), 0o600))
	globals.config = path

	require.NoError(t, resolve(statusCmd))
	assert.Equal(t, "http://db1:8080", globals.server)
	assert.Equal(t, "file-key", globals.adminKey)
	assert.Equal(t, 5*time.Second, globals.timeout)
	assert.Equal(t, outputYAML, globals.output)

	t.Setenv("GHOSTCTL_ADMIN_KEY", "env-key")
	require.NoError(t, resolve(statusCmd))
	assert.Equal(t, "env-key", globals.adminKey)
}

func TestResolveRejectsBadInput(t *testing.T) {
	resetGlobals(t)
	globals.config = filepath.Join(t.TempDir(), "missing.yaml")
	assert.Error(t, resolve(statusCmd))

	path := filepath.Join(t.TempDir(), "ghostctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: xml\n"), 0o600))
	globals.config = path
	assert.ErrorContains(t, resolve(statusCmd), "unknown output format")
}

func TestPrintValueYAML(t *testing.T) {
	resetGlobals(t)
	globals.output = outputYAML
	var buf bytes.Buffer
	require.NoError(t, printValue(&buf, map[string]interface{}{"runs": 3}))
	assert.Equal(t, "runs: 3\n", buf.String())

	globals.output = outputJSON
	buf.Reset()
	require.NoError(t, printValue(&buf, map[string]interface{}{"runs": 3}))
	assert.JSONEq(t, `{"runs":3}`, buf.String())
}
