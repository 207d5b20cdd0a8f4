package pricing

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenProvider hands out bearer tokens and owns their refresh policy.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider for a fixed token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNotConfigured
	}
	return string(s), nil
}

type oauthTokens struct {
	src oauth2.TokenSource
}

func (o *oauthTokens) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tok, err := o.src.Token()
	if err != nil {
		return "", fmt.Errorf("fetch oauth token: %w", err)
	}
	return tok.AccessToken, nil
}

// tokenContext carries the HTTP client oauth2 uses for refreshes for the
// lifetime of the token source.
func tokenContext(timeout time.Duration) context.Context {
	return context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
}

// ClientCredentials returns a cached client-credentials token provider, or
// nil when id or secret is missing.
func ClientCredentials(clientID, clientSecret, tokenURL string, scopes []string, timeout time.Duration) TokenProvider {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	return &oauthTokens{src: cfg.TokenSource(tokenContext(timeout))}
}

// RefreshToken returns a provider that exchanges a long-lived refresh token
// for access tokens, reusing each until shortly before expiry. Nil when any
// credential is missing.
func RefreshToken(clientID, clientSecret, refreshToken, tokenURL string, timeout time.Duration) TokenProvider {
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil
	}
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
	}
	src := cfg.TokenSource(tokenContext(timeout), &oauth2.Token{RefreshToken: refreshToken})
	return &oauthTokens{src: oauth2.ReuseTokenSource(nil, src)}
}
