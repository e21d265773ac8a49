package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"alerta_social/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated covers absent, malformed, expired and tampered credentials.
var ErrUnauthenticated = errors.New("unauthenticated")

const claimsContextKey = "claims"

// Claims are the identity claims carried by the bearer token.
type Claims struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"nome"`
	jwt.RegisteredClaims
}

// Verifier validates shared-secret signed tokens. The HTTP middleware and the
// websocket handshake both go through Verify.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier builds a Verifier for the given secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("auth: jwt secret must be provided")
	}
	return &Verifier{secret: []byte(secret), now: time.Now}, nil
}

// WithClock overrides the time source used for expiry checks.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// Verify parses the token and returns its claims or an ErrUnauthenticated-wrapped error.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthenticated)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	)

	var claims Claims
	if _, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	if claims.ID == 0 {
		return nil, fmt.Errorf("%w: missing id claim", ErrUnauthenticated)
	}

	return &claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthMiddleware HTTP API authentication
func AuthMiddleware(verifier *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		tokenString := BearerToken(authHeader)
		if tokenString == "" {
			utils.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}

		claims, err := verifier.Verify(tokenString)
		if err != nil {
			utils.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// GetClaims returns the identity stored by AuthMiddleware.
func GetClaims(c *gin.Context) (*Claims, bool) {
	value, exists := c.Get(claimsContextKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*Claims)
	return claims, ok
}

// GetUserID returns the authenticated user id.
func GetUserID(c *gin.Context) (uint, bool) {
	claims, ok := GetClaims(c)
	if !ok {
		return 0, false
	}
	return claims.ID, true
}
