package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/tenant"
	"github.com/jwalitptl/hms-api/pkg/auth"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

type AuthMiddleware struct {
	tokens auth.TokenService
}

func NewAuthMiddleware(tokens auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate validates the bearer token and scopes the request to the
// organization and staff member it names.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		reject := func(message string, err error) {
			handler.Error(c, apperrors.Unauthorized(message, err))
			c.Abort()
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			reject("missing authorization header", nil)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			reject("invalid authorization format", nil)
			return
		}

		claims, err := m.tokens.Validate(parts[1])
		if err != nil {
			reject("invalid token", err)
			return
		}

		ctx := tenant.NewContext(c.Request.Context(), tenant.Scope{
			OrganizationID: claims.OrganizationID,
			StaffID:        claims.StaffID,
			RequestID:      c.GetString(handler.ContextRequestID),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
