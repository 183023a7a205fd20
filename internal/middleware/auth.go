package middleware

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrUnexpectedAlg = errors.New("unexpected signing algorithm")
	ErrWrongIssuer   = errors.New("token issuer mismatch")
	ErrWrongAudience = errors.New("token audience mismatch")
)

// TokenVerifier resolves signing keys for Auth0 access tokens after checking
// algorithm, issuer and audience. Expiry is checked by the jwt parser.
type TokenVerifier struct {
	keys     jwt.Keyfunc
	issuer   string
	audience string
	alg      string
}

// NewTokenVerifier wraps keys, normally a JWKS-backed keyfunc.
func NewTokenVerifier(keys jwt.Keyfunc, issuer, audience, alg string) *TokenVerifier {
	return &TokenVerifier{keys: keys, issuer: issuer, audience: audience, alg: alg}
}

func (v *TokenVerifier) Keyfunc(token *jwt.Token) (interface{}, error) {
	if token.Method == nil || token.Method.Alg() != v.alg {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedAlg, token.Header["alg"])
	}
	iss, err := token.Claims.GetIssuer()
	if err != nil || iss != v.issuer {
		return nil, ErrWrongIssuer
	}
	aud, err := token.Claims.GetAudience()
	if err != nil || !slices.Contains(aud, v.audience) {
		return nil, ErrWrongAudience
	}
	return v.keys(token)
}

func JWTProtected(v *TokenVerifier) fiber.Handler {
	return jwtware.New(jwtware.Config{
		KeyFunc:      v.Keyfunc,
		ErrorHandler: unauthorized,
	})
}

// JWTOptional verifies a bearer token when one is sent and lets anonymous
// requests through. A bad token is still rejected.
func JWTOptional(v *TokenVerifier) fiber.Handler {
	return jwtware.New(jwtware.Config{
		KeyFunc:      v.Keyfunc,
		ErrorHandler: unauthorized,
		Filter: func(c *fiber.Ctx) bool {
			return c.Get(fiber.HeaderAuthorization) == ""
		},
	})
}

func unauthorized(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Message: "Unauthorized: invalid or expired token",
	})
}
