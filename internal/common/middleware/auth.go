package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "contest-bot-backend/internal/common/errors"
	"contest-bot-backend/internal/service/admin"
)

// AdminChecker authorizes an administrator by bearer token.
type AdminChecker interface {
	Check(ctx context.Context, token string) error
}

// Setting is a named server-side value a route depends on.
type Setting struct {
	Name  string
	Value string
}

// RequireSettings answers with a configuration error when any setting is
// empty. It runs before authentication and body parsing.
func RequireSettings(settings ...Setting) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, s := range settings {
			if s.Value == "" {
				Abort(c, apperrors.NewConfigurationError(s.Name))
				return
			}
		}
		c.Next()
	}
}

// RequireAdmin lets through only callers whose bearer token resolves to an
// allowlisted administrator.
func RequireAdmin(checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := admin.BearerToken(c.GetHeader("Authorization"))
		if err := checker.Check(c.Request.Context(), token); err != nil {
			Abort(c, adminError(err))
			return
		}
		c.Next()
	}
}

func adminError(err error) error {
	switch {
	case errors.Is(err, admin.ErrMissingToken):
		return apperrors.NewUnauthorizedError("missing bearer token")
	case errors.Is(err, admin.ErrNotAdmin):
		return apperrors.NewForbiddenError("admin access required")
	default:
		return apperrors.NewUnauthorizedError("invalid token")
	}
}
