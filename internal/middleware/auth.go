package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/hr-portal/pkg/auth"
)

const UserIDKey = "userID"

// Revocations reports tokens revoked before their expiry.
type Revocations interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware проверяет JWT токен из заголовка или query-параметра token.
// revoked may be nil when no revocation list is configured.
func AuthMiddleware(jwtManager *auth.JWTManager, revoked Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.TokenFromRequest(c.Request)
		if err != nil {
			abort(c, "missing or invalid token")
			return
		}

		// Проверяем, не в черном списке ли токен
		if revoked != nil {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), token)
			if err != nil || isRevoked {
				abort(c, "token is revoked")
				return
			}
		}

		identity, err := jwtManager.Verify(token)
		if err != nil {
			abort(c, "invalid token")
			return
		}

		c.Set(UserIDKey, identity.UserID)
		c.Next()
	}
}

// UserID returns the authenticated caller set by AuthMiddleware.
func UserID(c *gin.Context) uuid.UUID {
	return c.MustGet(UserIDKey).(uuid.UUID)
}

func abort(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "kind": "Unauthenticated"})
}
