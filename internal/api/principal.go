package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lyra-backend-go/internal/core"
	"lyra-backend-go/internal/middleware"
)

// ContextKeyUserID holds the provisioned principal's id.
const ContextKeyUserID = "userID"

// PrincipalLoader provisions the authenticated principal on first login and
// stores its id under ContextKeyUserID. It must run after AuthMiddleware.
func PrincipalLoader(users core.UserService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.ClaimsFrom(c)
		if !ok {
			mapCoreErrorToStatus(c, logger, core.ErrAuthenticationRequired)
			return
		}
		user, _, err := users.FindOrCreate(c.Request.Context(), claims)
		if err != nil {
			mapCoreErrorToStatus(c, logger, err)
			return
		}
		c.Set(ContextKeyUserID, user.ID)
		c.Next()
	}
}

// currentUserID returns the principal set by PrincipalLoader.
func currentUserID(c *gin.Context) (int64, error) {
	v, ok := c.Get(ContextKeyUserID)
	if !ok {
		return 0, fmt.Errorf("%w: no principal in request context", core.ErrAuthenticationRequired)
	}
	id, ok := v.(int64)
	if !ok || id == 0 {
		return 0, fmt.Errorf("%w: malformed principal in request context", core.ErrAuthenticationRequired)
	}
	return id, nil
}

// principalRateKey keys the tool rate limit by principal.
func principalRateKey(c *gin.Context) string {
	id, err := currentUserID(c)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("user:%d", id)
}
