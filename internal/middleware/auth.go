// Package middleware provides HTTP middleware components for authentication,
// request correlation, logging, metrics and telemetry.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by RequireAuth.
const (
	ContextClientID = "client_id"
	ContextScopes   = "scopes"
)

// ScopeAdmin grants access to the cache and circuit breaker admin routes.
const ScopeAdmin = "admin"

var errInvalidClaims = errors.New("invalid token claims")

// JWTClaims represents the claims of an API client token.
type JWTClaims struct {
	// ClientID identifies the calling dashboard or integration.
	ClientID string   `json:"client_id"`
	Scopes   []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware provides JWT authentication middleware.
type AuthMiddleware struct {
	secretKey []byte
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(secretKey string) *AuthMiddleware {
	return &AuthMiddleware{
		secretKey: []byte(secretKey),
	}
}

// RequireAuth middleware validates JWT tokens.
// It requires a valid Bearer token in the Authorization header.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		// The scheme is case-insensitive (RFC 6750).
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "bearer") || tokenParts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		claims, err := am.ValidateToken(tokenParts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(ContextClientID, claims.ClientID)
		c.Set(ContextScopes, claims.Scopes)
		c.Next()
	}
}

// RequireScope rejects tokens that do not carry scope. It must run after RequireAuth.
func (am *AuthMiddleware) RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		scopes, _ := c.Get(ContextScopes)
		granted, _ := scopes.([]string)
		for _, got := range granted {
			if got == scope {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient scope"})
	}
}

// GenerateToken creates a signed token for an API client.
func (am *AuthMiddleware) GenerateToken(clientID string, scopes []string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		ClientID: clientID,
		Scopes:   scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(am.secretKey)
}

// ValidateToken validates a JWT token and returns its claims.
func (am *AuthMiddleware) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return am.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.ClientID == "" {
		return nil, errInvalidClaims
	}
	return claims, nil
}
