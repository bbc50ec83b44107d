package middleware

import (
	"net/http"

	"carvia/models"

	"github.com/gin-gonic/gin"
)

// RequireRole aborts with 403 unless the authenticated actor holds one of the
// given roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, role := Identity(c)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
	}
}
