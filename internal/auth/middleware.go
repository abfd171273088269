package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"overlaykit/internal/api"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID    = "user_id"
	ctxUserEmail = "user_email"
	ctxUserRole  = "user_role"
)

// RoleAdmin is the stored role an operator provisions for admin accounts.
const RoleAdmin = "admin"

var ErrForbidden = errors.New("forbidden")

// Principal is the stored account state behind a token.
type Principal struct {
	Email  string
	Role   string
	Locked bool
}

type PrincipalLookup interface {
	LookupPrincipal(ctx context.Context, userID int) (*Principal, error)
}

func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authorization header required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid authorization header format"})
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Token is empty"})
			return
		}

		claims, err := ValidateToken(tokenString, accessTokenSecret)
		if err != nil {
			msg := "Invalid or malformed token"
			if errors.Is(err, ErrTokenExpired) {
				msg = "Token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: msg})
			return
		}

		if claims.TokenType != tokenTypeAccess {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Access token required"})
			return
		}

		SetIdentity(c, claims.UserID, claims.Email, claims.Role)
		c.Next()
	}
}

// RequireAdmin re-reads the caller's account on every request. The account
// must be unlocked, hold the admin role and have its current e-mail on the
// allow-list. Token claims are not trusted for any of the three.
func RequireAdmin(list *AllowList, lookup PrincipalLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
			return
		}

		p, err := lookup.LookupPrincipal(c.Request.Context(), userID)
		if err != nil || p.Locked || p.Role != RoleAdmin || !list.IsAuthorized(p.Email) {
			c.AbortWithStatusJSON(http.StatusForbidden, api.ErrorResponse{Error: ErrForbidden.Error()})
			return
		}

		SetIdentity(c, userID, p.Email, p.Role)
		c.Next()
	}
}

func SetIdentity(c *gin.Context, userID int, email, role string) {
	c.Set(ctxUserID, userID)
	c.Set(ctxUserEmail, email)
	c.Set(ctxUserRole, role)
}

func GetUserID(c *gin.Context) (int, bool) {
	v, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}

func GetUserEmail(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxUserEmail)
	if !exists {
		return "", false
	}
	email, ok := v.(string)
	return email, ok && email != ""
}
