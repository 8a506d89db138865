package middleware

import (
	"net/http"
	"strings"

	"github.com/Juramirezlop/asamblea-voting-app/internal/models"
	"github.com/Juramirezlop/asamblea-voting-app/internal/services"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware.
const (
	CtxRole     = "role"
	CtxUsername = "username"
	CtxCode     = "participant_code"
)

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// AdminAuth only lets authenticated admins through. The admin username
// is set on the context.
func AdminAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		if claims.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Set(CtxRole, claims.Role)
		c.Set(CtxUsername, claims.Subject)
		c.Next()
	}
}

// VoterAuth only lets authenticated voters through. The participant
// code from the token is set on the context; handlers must use it and
// never trust a code from the request body.
func VoterAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		if claims.Role != models.RoleVoter {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "voter access required"})
			return
		}

		c.Set(CtxRole, claims.Role)
		c.Set(CtxCode, claims.Subject)
		c.Next()
	}
}

// AnyRole accepts both admin and voter tokens, for shared read
// endpoints like the active question list and live results.
func AnyRole(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(CtxRole, claims.Role)
		if claims.Role == models.RoleVoter {
			c.Set(CtxCode, claims.Subject)
		} else {
			c.Set(CtxUsername, claims.Subject)
		}
		c.Next()
	}
}
