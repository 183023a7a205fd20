package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	TestIssuer   = "https://tenant.example.com/"
	TestAudience = "https://api.peer-evaluation.test"
	testKeyID    = "test-key"
)

// TokenIssuer signs RS256 access tokens and publishes the matching JWKS, the
// way the Auth0 tenant does in production.
type TokenIssuer struct {
	key  *rsa.PrivateKey
	jwks *keyfunc.JWKS
}

func NewTokenIssuer(t testing.TB) *TokenIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	raw, err := json.Marshal(map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": testKeyID,
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	})
	require.NoError(t, err)

	jwks, err := keyfunc.NewJSON(raw)
	require.NoError(t, err)
	return &TokenIssuer{key: key, jwks: jwks}
}

// Keyfunc resolves keys from the published set.
func (ti *TokenIssuer) Keyfunc(token *jwt.Token) (interface{}, error) {
	return ti.jwks.Keyfunc(token)
}

// Sign returns a valid token for sub. mutate may adjust claims before signing.
func (ti *TokenIssuer) Sign(t testing.TB, sub string, mutate func(jwt.MapClaims)) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": sub,
		"iss": TestIssuer,
		"aud": []string{TestAudience, "https://tenant.example.com/userinfo"},
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if mutate != nil {
		mutate(claims)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(ti.key)
	require.NoError(t, err)
	return signed
}

// SignWith signs claims for sub with a foreign RSA key under the trusted kid.
func (ti *TokenIssuer) SignWith(t testing.TB, key *rsa.PrivateKey, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": sub,
		"iss": TestIssuer,
		"aud": TestAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}
