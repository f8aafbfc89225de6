package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scope grants access to the Assistant API.
const Scope = "https://www.googleapis.com/auth/assistant-sdk-prototype"

var ErrNoRefreshToken = errors.New("credentials have no refresh token")

// storedCredentials is the JSON layout written by the auth helper.
type storedCredentials struct {
	AccessToken  string   `json:"access_token,omitempty"`
	RefreshToken string   `json:"refresh_token"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes,omitempty"`
}

// LoadCredentials reads stored user credentials and returns a token source
// that refreshes the access token before its first use.
func LoadCredentials(ctx context.Context, path string, scopes []string) (oauth2.TokenSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var sc storedCredentials
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing credentials %s: %w", path, err)
	}
	if sc.RefreshToken == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrNoRefreshToken)
	}
	if len(scopes) == 0 {
		scopes = sc.Scopes
	}

	tokenURL := sc.TokenURI
	if tokenURL == "" {
		tokenURL = google.Endpoint.TokenURL
	}

	cfg := &oauth2.Config{
		ClientID:     sc.ClientID,
		ClientSecret: sc.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  google.Endpoint.AuthURL,
			TokenURL: tokenURL,
		},
		Scopes: scopes,
	}

	// A stored access token is likely stale; the past expiry forces a refresh.
	tok := &oauth2.Token{
		AccessToken:  sc.AccessToken,
		RefreshToken: sc.RefreshToken,
		Expiry:       time.Unix(1, 0),
	}
	return cfg.TokenSource(ctx, tok), nil
}

// SaveCredentials writes tok with the client details needed to refresh it.
func SaveCredentials(path string, cfg *oauth2.Config, tok *oauth2.Token) error {
	if tok.RefreshToken == "" {
		return ErrNoRefreshToken
	}

	sc := storedCredentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     cfg.Endpoint.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.Scopes,
	}
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}
