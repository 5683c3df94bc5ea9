// ABOUTME: OAuth configuration and token management for Google APIs
// ABOUTME: Handles OAuth flow, token storage at XDG paths, and auto-refresh
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	ScopeContacts = "https://www.googleapis.com/auth/contacts.readonly"
	ScopeCalendar = "https://www.googleapis.com/auth/calendar.readonly"

	callbackPath = "/oauth/callback"
)

// ErrNoCredentials means GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET is unset.
var ErrNoCredentials = errors.New("google OAuth credentials not configured; set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")

// NewOAuthConfig creates OAuth2 config for Google APIs. redirectAddr is the
// host:port the local callback server listens on.
func NewOAuthConfig(redirectAddr string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  "http://" + redirectAddr + callbackPath,
		Scopes:       []string{ScopeContacts, ScopeCalendar},
		Endpoint:     google.Endpoint,
	}
}

// CheckCredentials reports ErrNoCredentials when config has no client.
func CheckCredentials(config *oauth2.Config) error {
	if config.ClientID == "" || config.ClientSecret == "" {
		return ErrNoCredentials
	}
	return nil
}

// TokenPath returns XDG-compliant path for storing OAuth tokens.
func TokenPath() string {
	return filepath.Join(xdg.DataHome, "dealflow", "google-credentials.json")
}

// SaveToken writes token to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// LoadToken reads a token saved by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}

// HTTPClient returns a client that refreshes token as needed.
func HTTPClient(ctx context.Context, config *oauth2.Config, token *oauth2.Token) (*http.Client, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}
	return config.Client(ctx, token), nil
}

// Authorize runs the browser consent flow: it serves the callback on the
// config's redirect address, calls open with the consent URL and waits
// for the code to be exchanged.
func Authorize(ctx context.Context, config *oauth2.Config, addr string, open func(url string) error) (*oauth2.Token, error) {
	if err := CheckCredentials(config); err != nil {
		return nil, err
	}

	tokens := make(chan *oauth2.Token, 1)
	errs := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errs <- fmt.Errorf("no authorization code received")
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		token, err := config.Exchange(r.Context(), code)
		if err != nil {
			errs <- fmt.Errorf("failed to exchange code: %w", err)
			http.Error(w, "exchange failed", http.StatusBadGateway)
			return
		}

		tokens <- token
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	defer func() { _ = server.Shutdown(context.Background()) }()

	if err := open(config.AuthCodeURL("state", oauth2.AccessTypeOffline)); err != nil {
		return nil, fmt.Errorf("failed to open consent page: %w", err)
	}

	select {
	case token := <-tokens:
		return token, nil
	case err := <-errs:
		return nil, fmt.Errorf("OAuth flow failed: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
