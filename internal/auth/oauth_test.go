package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newFakeGitHub(t *testing.T, user GitHubUser) *GitHubProvider {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gho_test","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gho_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(user)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := NewGitHubProvider("client", "secret", "http://localhost/callback")
	p.config.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/authorize", TokenURL: srv.URL + "/token"}
	p.userURL = srv.URL + "/user"
	return p
}

func TestGitHubProvider_AuthURLCarriesState(t *testing.T) {
	p := NewGitHubProvider("client", "secret", "http://localhost/callback")

	u, err := url.Parse(p.AuthURL("xyz"))
	require.NoError(t, err)
	assert.Equal(t, "xyz", u.Query().Get("state"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
}

func TestGitHubProvider_Exchange(t *testing.T) {
	p := newFakeGitHub(t, GitHubUser{ID: 42, Login: "octo", AvatarURL: "a.png"})

	u, err := p.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, int64(42), u.ID)
	assert.Equal(t, "octo", u.Login)
}

func TestGitHubProvider_ExchangeRejectsZeroID(t *testing.T) {
	p := newFakeGitHub(t, GitHubUser{Login: "nobody"})

	_, err := p.Exchange(context.Background(), "code")
	assert.Error(t, err)
}
