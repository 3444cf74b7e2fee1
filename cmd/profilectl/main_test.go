package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/reboot-profile/config"
	"github.com/alem-hub/reboot-profile/internal/infrastructure/external/platform"
)

// fakePlatform accepts jdoe/secret at the signin endpoint.
func fakePlatform(t *testing.T) *httptest.Server {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "4242",
		"exp": time.Now().Add(2 * time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != platform.SigninPath {
			http.NotFound(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "jdoe" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`"` + tok + `"`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type harness struct {
	sessionFile string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(config.ConfigPathEnvVar, "")
	t.Setenv("PLATFORM_BASE_URL", fakePlatform(t).URL)
	t.Setenv("PLATFORM_MAX_ATTEMPTS", "1")
	return &harness{sessionFile: filepath.Join(dir, "session.json")}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetArgs(append([]string{"--no-color", "--session-file", h.sessionFile}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "secret\n", "login", "--user", "jdoe")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as jdoe.")
	assert.FileExists(t, h.sessionFile)

	out, err = h.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "jdoe")
	assert.Contains(t, out, "4242")
	assert.Contains(t, out, "from now")

	out, err = h.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")

	out, err = h.run(t, "", "whoami")
	assert.ErrorIs(t, err, errSilent)
	assert.Contains(t, out, "Not logged in")
}

func TestLogin_PromptsForIdentifier(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "jdoe\nsecret\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Username or email: ")
	assert.Contains(t, out, "Logged in as jdoe.")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "wrong\n", "login", "-u", "jdoe")
	assert.ErrorIs(t, err, errSilent)
	assert.Contains(t, out, "Invalid username/email or password")
	assert.NoFileExists(t, h.sessionFile)
}

func TestLogin_MissingPassword(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "\n", "login", "-u", "jdoe")
	assert.ErrorIs(t, err, errSilent)
	assert.Contains(t, out, "Please enter both username/email and password")
}

func TestLogout_WithoutSession(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Already logged out.")
}

func TestSummary_RequiresLogin(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "summary")
	assert.ErrorIs(t, err, errSilent)
	assert.Contains(t, out, "Not logged in")
}
