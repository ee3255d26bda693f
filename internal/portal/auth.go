package portal

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// TokenSource yields the bearer token issued by the portal login flow. The
// token is treated as opaque.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a fixed token.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token() (string, error) {
	return strings.TrimSpace(string(t)), nil
}

// FileToken reads the token from a file on every call so an external login
// helper can rotate it without restarting portalwatch.
type FileToken string

// Token implements TokenSource.
func (f FileToken) Token() (string, error) {
	path := strings.TrimSpace(string(f))
	if path == "" {
		return "", errors.New("token file not configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// AuthHeaders builds the headers attached to every portal request.
func AuthHeaders(token, userAgent string) http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	if userAgent != "" {
		h.Set("User-Agent", userAgent)
	}
	if token = strings.TrimSpace(token); token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
