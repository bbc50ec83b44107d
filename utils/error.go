package utils

import (
	"net/http"

	"carvia/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler is a middleware to catch panics and return structured errors.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger := GetLogger()
				logger.Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, models.Envelope{
					Error: &models.APIError{
						Message: "Internal Server Error",
						Details: "An unexpected error occurred. Please try again later.",
					},
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONData sends a success response wrapped in the standard envelope.
func JSONData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, models.Envelope{Data: data})
}

// JSONError sends a standardized JSON error response.
func JSONError(c *gin.Context, status int, message string, details string) {
	logger := GetLogger()
	logger.Warn(message, zap.String("details", details))
	c.JSON(status, models.Envelope{Error: &models.APIError{Message: message, Details: details}})
}
