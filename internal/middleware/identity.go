package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/civicworks/idlewatch/internal/models"
	"github.com/civicworks/idlewatch/internal/repository"
)

const (
	// CurrentUserKey is the context key for the authenticated user
	CurrentUserKey = "current_user"
	// UserIDHeader carries the requester identity, set by the external
	// auth layer in front of this service. It is trusted as-is.
	UserIDHeader = "X-User-ID"
)

// Identity resolves the trusted user ID header into a full User row
// (role and agency loaded) and stores it in the context. Requests
// without a resolvable identity are rejected.
func Identity(users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := GetRequestID(c)

		raw := c.GetHeader(UserIDHeader)
		if raw == "" {
			abortUnauthenticated(c, requestID, "Missing "+UserIDHeader+" header")
			return
		}

		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			abortUnauthenticated(c, requestID, "Malformed "+UserIDHeader+" header")
			return
		}

		user, err := users.FindByID(c.Request.Context(), uint(id))
		if err != nil {
			if log := GetLogger(c); log != nil {
				log.Error("Failed to resolve requester identity", err, map[string]interface{}{
					"user_id": id,
				})
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":       "INTERNAL_SERVER_ERROR",
					"message":    "Failed to resolve requester identity",
					"request_id": requestID,
				},
			})
			return
		}
		if user == nil {
			abortUnauthenticated(c, requestID, "Unknown user")
			return
		}

		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context, requestID, message string) {
	if log := GetLogger(c); log != nil {
		log.Warn("Unauthenticated request", map[string]interface{}{
			"message": message,
			"path":    c.Request.URL.Path,
		})
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":       "UNAUTHORIZED",
			"message":    message,
			"request_id": requestID,
		},
	})
}

// GetCurrentUser retrieves the authenticated user from the Gin context.
// Returns nil if the Identity middleware did not run.
func GetCurrentUser(c *gin.Context) *models.User {
	if v, exists := c.Get(CurrentUserKey); exists {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}
