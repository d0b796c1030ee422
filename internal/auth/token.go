package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
)

// Scopes required for ownership checks, URL inspection and indexing
// notifications.
var scopes = []string{
	"https://www.googleapis.com/auth/webmasters",
	"https://www.googleapis.com/auth/indexing",
}

// TokenSource exchanges a credential for a bearer token.
type TokenSource interface {
	Token(ctx context.Context, cred Credential) (string, error)
}

// JWTTokenSource implements TokenSource using the two-legged OAuth flow for
// service accounts.
type JWTTokenSource struct {
	// TokenURL overrides the Google token endpoint, for tests.
	TokenURL string
}

// NewJWTTokenSource creates a JWTTokenSource against the production token
// endpoint.
func NewJWTTokenSource() *JWTTokenSource {
	return &JWTTokenSource{}
}

// Token performs the JWT assertion flow and returns a fresh access token.
func (s *JWTTokenSource) Token(ctx context.Context, cred Credential) (string, error) {
	tokenURL := s.TokenURL
	if tokenURL == "" {
		tokenURL = google.JWTTokenURL
	}
	cfg := &jwt.Config{
		Email:      cred.ClientEmail,
		PrivateKey: []byte(cred.PrivateKey),
		Scopes:     scopes,
		TokenURL:   tokenURL,
	}
	tok, err := cfg.TokenSource(ctx).Token()
	if err != nil {
		return "", fmt.Errorf("exchange token for %s: %w", cred.ClientEmail, err)
	}
	return tok.AccessToken, nil
}
