package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"golang.org/x/oauth2"
)

// newTestGitHub points the provider's token endpoint and API at srv.
func newTestGitHub(srv *httptest.Server) *GitHubProvider {
	p := NewGitHubProvider("client-id", "client-secret", "http://localhost:8000/auth/github/callback")
	p.config.Endpoint = oauth2.Endpoint{
		AuthURL:  srv.URL + "/login/oauth/authorize",
		TokenURL: srv.URL + "/login/oauth/access_token",
	}
	p.apiBase = srv.URL
	return p
}

func fakeGitHub(t *testing.T, user GitHubUser, emails []githubEmail) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"access_token": "gh-token", "token_type": "bearer"})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(user)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(emails)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthURL_CarriesState(t *testing.T) {
	p := NewGitHubProvider("client-id", "secret", "http://localhost:8000/auth/github/callback")

	u, err := url.Parse(p.AuthURL("state-123"))
	if err != nil {
		t.Fatalf("parsing AuthURL: %v", err)
	}
	q := u.Query()
	if q.Get("state") != "state-123" || q.Get("client_id") != "client-id" {
		t.Errorf("unexpected query %v", q)
	}
}

func TestExchange_PublicEmail(t *testing.T) {
	srv := fakeGitHub(t, GitHubUser{ID: 7, Login: "octo", Email: "octo@x.com"}, nil)

	user, err := newTestGitHub(srv).Exchange(t.Context(), "code")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if user.Email != "octo@x.com" || user.Login != "octo" {
		t.Errorf("user = %+v", user)
	}
}

func TestExchange_FallsBackToPrimaryVerifiedEmail(t *testing.T) {
	srv := fakeGitHub(t, GitHubUser{ID: 7, Login: "octo"}, []githubEmail{
		{Email: "old@x.com", Primary: false, Verified: true},
		{Email: "main@x.com", Primary: true, Verified: true},
	})

	user, err := newTestGitHub(srv).Exchange(t.Context(), "code")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if user.Email != "main@x.com" {
		t.Errorf("Email = %q, want main@x.com", user.Email)
	}
}

func TestExchange_NoVerifiedEmail(t *testing.T) {
	srv := fakeGitHub(t, GitHubUser{ID: 7, Login: "octo"}, []githubEmail{
		{Email: "main@x.com", Primary: true, Verified: false},
	})

	_, err := newTestGitHub(srv).Exchange(t.Context(), "code")
	if !errors.Is(err, ErrNoVerifiedEmail) {
		t.Errorf("expected ErrNoVerifiedEmail, got %v", err)
	}
}
