package sync

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestOAuthConfigCreation(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	config := NewOAuthConfig("localhost:8085")
	require.NotNil(t, config)
	assert.ElementsMatch(t, []string{ScopeContacts, ScopeCalendar}, config.Scopes)
	assert.Equal(t, "http://localhost:8085/oauth/callback", config.RedirectURL)
	assert.NoError(t, CheckCredentials(config))
}

func TestMissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")

	assert.ErrorIs(t, CheckCredentials(NewOAuthConfig("localhost:8085")), ErrNoCredentials)
}

func TestTokenPathXDG(t *testing.T) {
	path := TokenPath()
	assert.True(t, strings.HasPrefix(path, filepath.Join(xdg.DataHome, "dealflow")), path)
	assert.Equal(t, "google-credentials.json", filepath.Base(path))
}

func TestSaveAndLoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")

	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "abc", RefreshToken: "def"}))

	token, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", token.AccessToken)
	assert.Equal(t, "def", token.RefreshToken)

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
