package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"

	"github.com/fivetwenty-io/logoapi/internal/constants"
)

// Provider supplies the credential header for a request.
type Provider interface {
	Header(ctx context.Context) (name, value string, err error)
}

// APIKeyProvider attaches a static API key. With an empty header name the
// key is sent as "Authorization: Bearer <key>"; otherwise the raw key is
// sent in the named header.
type APIKeyProvider struct {
	key    string
	header string
}

// NewAPIKeyProvider creates a provider for key.
func NewAPIKeyProvider(key, header string) *APIKeyProvider {
	return &APIKeyProvider{key: strings.TrimSpace(key), header: strings.TrimSpace(header)}
}

// Header implements Provider.
func (p *APIKeyProvider) Header(ctx context.Context) (string, string, error) {
	if p.key == "" {
		return "", "", constants.ErrNoCredentialValue
	}

	if p.header != "" {
		return p.header, p.key, nil
	}

	return constants.HeaderAuthorization, "Bearer " + p.key, nil
}

// StoreProvider reads the current token from a TokenStore on every call, so
// a rotated credential is picked up by the next request.
type StoreProvider struct {
	store *TokenStore
}

// NewStoreProvider creates a provider backed by store.
func NewStoreProvider(store *TokenStore) *StoreProvider {
	return &StoreProvider{store: store}
}

// Header implements Provider.
func (p *StoreProvider) Header(ctx context.Context) (string, string, error) {
	token := p.store.Get()
	if !token.Valid() {
		return "", "", constants.ErrNoCredentialValue
	}

	return constants.HeaderAuthorization, tokenType(token.TokenType) + " " + token.AccessToken, nil
}

// TokenSourceProvider adapts an oauth2.TokenSource. Tokens are reused until
// they expire.
type TokenSourceProvider struct {
	source oauth2.TokenSource
}

// NewTokenSourceProvider wraps source with oauth2.ReuseTokenSource.
func NewTokenSourceProvider(source oauth2.TokenSource) *TokenSourceProvider {
	return &TokenSourceProvider{source: oauth2.ReuseTokenSource(nil, source)}
}

// Header implements Provider.
func (p *TokenSourceProvider) Header(ctx context.Context) (string, string, error) {
	token, err := p.source.Token()
	if err != nil {
		return "", "", fmt.Errorf("fetching token: %w", err)
	}

	if token.AccessToken == "" {
		return "", "", constants.ErrNoCredentialValue
	}

	return constants.HeaderAuthorization, tokenType(token.Type()) + " " + token.AccessToken, nil
}

// tokenType normalizes the token type to the canonical "Bearer" spelling.
func tokenType(value string) string {
	if value == "" || strings.EqualFold(value, "bearer") {
		return "Bearer"
	}

	return value
}
