package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

// Context keys set by AuthMiddleware
const (
	callerKey   = "caller"
	operatorKey = "operator"
)

// Claims are the JWT claims of a ledger caller. The subject is the caller identity.
type Claims struct {
	Operator bool `json:"operator,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator issues and validates HS256 bearer tokens
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator signing with secret
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// GenerateToken issues a token for subject, valid for ttl
func (a *Authenticator) GenerateToken(subject string, operator bool, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := &Claims{
		Operator: operator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates a token and returns its claims
func (a *Authenticator) ValidateToken(tokenString string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}

// AuthMiddleware requires a valid bearer token and stores the caller in the context
func (a *Authenticator) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthenticated(c, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthenticated(c, "Invalid authorization header format. Expected: Bearer <token>")
			return
		}

		claims, err := a.ValidateToken(parts[1])
		if err != nil {
			log.WithError(err).Debug("Token validation failed")
			abortUnauthenticated(c, "Invalid or expired token")
			return
		}

		c.Set(callerKey, claims.Subject)
		c.Set(operatorKey, claims.Operator)
		c.Next()
	}
}

// RequireOperator rejects callers whose token lacks the operator claim
func RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsOperator(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Unauthorized",
				"message": "operator role required",
			})
			return
		}
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "Unauthenticated",
		"message": message,
	})
}

// GetCaller retrieves the caller identity from the context
func GetCaller(c *gin.Context) (string, bool) {
	caller, exists := c.Get(callerKey)
	if !exists {
		return "", false
	}
	id, ok := caller.(string)
	return id, ok
}

// IsOperator reports whether the token carried the operator claim
func IsOperator(c *gin.Context) bool {
	return c.GetBool(operatorKey)
}
