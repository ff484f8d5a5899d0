package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/models"
)

type Claims struct {
	UserID int64       `json:"userId"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuth issues and verifies HS256 session tokens. It is the pluggable
// session/authorization component; the account core only sees it through
// the SessionIssuer interface and the gin gates below.
type JWTAuth struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTAuth(secret string, ttl time.Duration) (*JWTAuth, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTAuth{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// IssueSession signs a token carrying the user's id and role.
func (a *JWTAuth) IssueSession(userID int64, role models.Role) (string, error) {
	now := a.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

func (a *JWTAuth) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

// Authenticate rejects requests without a valid bearer token.
func (a *JWTAuth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			RespondWithError(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			RespondWithError(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := a.parse(parts[1])
		if err != nil {
			RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if ok {
			for _, r := range roles {
				if role == r {
					c.Next()
					return
				}
			}
		}
		RespondWithError(c, http.StatusForbidden, "Insufficient permissions")
		c.Abort()
	}
}

// AdminOnly chains authentication with the Administrator role check.
func (a *JWTAuth) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{a.Authenticate(), RequireRole(models.RoleAdministrator)}
}

func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get("userId")
	if !exists {
		return 0, false
	}
	id, ok := userID.(int64)
	return id, ok
}

func GetRole(c *gin.Context) (models.Role, bool) {
	role, exists := c.Get("role")
	if !exists {
		return "", false
	}
	r, ok := role.(models.Role)
	return r, ok
}
