package middleware

import (
	"net/http"
	"strings"

	"carvia/models"
	"carvia/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by JWTAuthMiddleware.
const (
	CtxActorID = "actorID"
	CtxRole    = "role"
)

// JWTAuthMiddleware validates the bearer token and stores the actor's
// identity and role on the request context.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		actorID, role, err := utils.ExtractIdentityFromToken(tokenString)
		if err != nil || actorID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
			return
		}

		c.Set(CtxActorID, actorID)
		c.Set(CtxRole, role)
		c.Next()
	}
}

// Identity reads the authenticated actor from the gin context.
func Identity(c *gin.Context) (string, models.Role) {
	actorID := c.GetString(CtxActorID)
	role := models.Role(c.GetString(CtxRole))
	return actorID, role
}
