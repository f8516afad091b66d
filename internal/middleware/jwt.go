package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/playmatatu/pooltable/internal/models"
)

// OperatorKey is the gin context key holding the authenticated *models.OperatorAccount.
const OperatorKey = "operator"

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSecret     = errors.New("JWT secret not configured")
)

// IssueOperatorToken signs an HS256 token naming the operator and the tables
// they may command.
func IssueOperatorToken(secret string, op *models.OperatorAccount, ttl time.Duration) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, ErrNoSecret
	}
	exp := time.Now().Add(ttl)
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}
	custom := jwt.MapClaims{
		"operator": op.Name,
		"tables":   []string(op.Tables),
		"exp":      claims.ExpiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, custom)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign operator token: %w", err)
	}
	return signed, exp, nil
}

// ParseOperatorToken validates a token issued by IssueOperatorToken.
func ParseOperatorToken(secret, token string) (*models.OperatorAccount, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	if secret == "" {
		return nil, ErrNoSecret
	}
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	name, ok := claims["operator"].(string)
	if !ok || name == "" {
		return nil, ErrInvalidToken
	}

	op := &models.OperatorAccount{Name: name}
	if raw, ok := claims["tables"].([]interface{}); ok {
		for _, t := range raw {
			if s, ok := t.(string); ok {
				op.Tables = append(op.Tables, s)
			}
		}
	}
	return op, nil
}

// OperatorAuth validates the bearer JWT, checks the operator may command
// tableID and stores the account under OperatorKey.
func OperatorAuth(secret, tableID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		op, err := ParseOperatorToken(secret, strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if !op.CanOperate(tableID) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "operator may not command this table"})
			return
		}

		c.Set(OperatorKey, op)
		c.Next()
	}
}

// CurrentOperator returns the operator stored by OperatorAuth, or nil.
func CurrentOperator(c *gin.Context) *models.OperatorAccount {
	v, ok := c.Get(OperatorKey)
	if !ok {
		return nil
	}
	op, _ := v.(*models.OperatorAccount)
	return op
}
