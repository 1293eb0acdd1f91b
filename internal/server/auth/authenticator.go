package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/dmitrijs2005/mindkeeper/internal/common"
)

// Authenticator checks request headers against the configured credentials.
// A zero Authenticator accepts everything.
type Authenticator struct {
	apiKey    string
	secretKey []byte
}

func NewAuthenticator(apiKey, secretKey string) *Authenticator {
	a := &Authenticator{apiKey: apiKey}
	if secretKey != "" {
		a.secretKey = []byte(secretKey)
	}
	return a
}

// Enabled reports whether any credential is configured.
func (a *Authenticator) Enabled() bool {
	return a.apiKey != "" || len(a.secretKey) > 0
}

// Authenticate returns the caller identity: "api-key" for key auth, the
// token's client id for JWT auth, or "" when auth is disabled.
func (a *Authenticator) Authenticate(h http.Header) (string, error) {
	if !a.Enabled() {
		return "", nil
	}

	if key := h.Get(common.APIKeyHeaderName); key != "" && a.apiKey != "" {
		if subtle.ConstantTimeCompare([]byte(key), []byte(a.apiKey)) == 1 {
			return common.APIKeyHeaderName, nil
		}
	}

	if tok := h.Get(common.JWTTokenHeaderName); tok != "" && len(a.secretKey) > 0 {
		id, err := GetClientIDFromToken(tok, a.secretKey)
		if err != nil {
			return "", err
		}
		return id, nil
	}

	return "", common.ErrorUnauthorized
}
