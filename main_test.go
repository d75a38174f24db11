package main

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"testing"

	"journal/config"
	"journal/crypto"
	"journal/db"
	"journal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var csrfTokenPattern = regexp.MustCompile(`name="gorilla.csrf.Token" value="([^"]+)"`)

func newTestServer(t *testing.T, secure bool) (*httptest.Server, *http.Client) {
	t.Helper()
	ctx := context.Background()

	hash, err := crypto.HashPassword("s3cret")
	require.NoError(t, err)

	cfg := config.Defaults()
	cfg.AuthUsername = "owner"
	cfg.AuthPassword = hash
	cfg.AuthSecret = "test-secret-key"
	cfg.SecureCookies = secure

	store, err := db.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(ctx, nil))

	logger := logging.Discard()
	app, err := newApp(cfg, store, logger)
	require.NoError(t, err)
	handler, err := newHandler(cfg, app, logger)
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return srv, client
}

// formToken fetches path and returns the CSRF token embedded in its form.
func formToken(t *testing.T, client *http.Client, target string) string {
	t.Helper()
	resp, err := client.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	m := csrfTokenPattern.FindSubmatch(body)
	require.Len(t, m, 2, "no csrf token in %s", target)
	return string(m[1])
}

func post(t *testing.T, client *http.Client, target string, form url.Values) *http.Response {
	t.Helper()
	resp, err := client.PostForm(target, form)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestCSRFOverPlainHTTP(t *testing.T) {
	srv, client := newTestServer(t, false)

	token := formToken(t, client, srv.URL+"/login")

	resp := post(t, client, srv.URL+"/login", url.Values{"username": {"owner"}, "password": {"s3cret"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "login without token")

	resp = post(t, client, srv.URL+"/login", url.Values{
		"username":           {"owner"},
		"password":           {"s3cret"},
		"gorilla.csrf.Token": {token},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	token = formToken(t, client, srv.URL+"/journal/new-entry")
	resp = post(t, client, srv.URL+"/journal/new-entry", url.Values{
		"title":              {"Day1"},
		"body":               {"Today I learned about Pyramid."},
		"gorilla.csrf.Token": {token},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = post(t, client, srv.URL+"/journal/new-entry", url.Values{"title": {"Day2"}, "body": {"No token."}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "create without token")

	listing, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	defer listing.Body.Close()
	body, err := io.ReadAll(listing.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, listing.StatusCode)
	assert.Contains(t, string(body), "Day1")
	assert.NotContains(t, string(body), "Day2")
}

func TestCSRFSecureConfigRefusesPlainHTTP(t *testing.T) {
	srv, client := newTestServer(t, true)

	// The CSRF cookie is Secure, so it never travels back over plain HTTP.
	token := formToken(t, client, srv.URL+"/login")
	resp := post(t, client, srv.URL+"/login", url.Values{
		"username":           {"owner"},
		"password":           {"s3cret"},
		"gorilla.csrf.Token": {token},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestNewHandlerRequiresSecret(t *testing.T) {
	cfg := config.Defaults()
	_, err := newHandler(cfg, http.NotFoundHandler(), logging.Discard())
	assert.Error(t, err)
}
