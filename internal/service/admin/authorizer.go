package admin

import (
	"context"
	"errors"
	"strings"

	"contest-bot-backend/internal/common/logger"
	"contest-bot-backend/internal/config"
	"contest-bot-backend/internal/service/identity"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
	ErrNotAdmin     = errors.New("caller is not an administrator")
)

// IdentityResolver turns an access token into the caller's identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*identity.Identity, error)
}

// Authorizer checks callers against an immutable allowlist of (email, id)
// pairs. A caller matches only if both fields match the same entry.
type Authorizer struct {
	resolver  IdentityResolver
	allowlist config.AdminAllowlist
}

func NewAuthorizer(resolver IdentityResolver, allowlist config.AdminAllowlist) *Authorizer {
	entries := make(config.AdminAllowlist, len(allowlist))
	copy(entries, allowlist)
	return &Authorizer{resolver: resolver, allowlist: entries}
}

// Check returns nil for an allowlisted caller, otherwise one of
// ErrMissingToken, ErrInvalidToken or ErrNotAdmin.
func (a *Authorizer) Check(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrMissingToken
	}

	ident, err := a.resolver.Resolve(ctx, token)
	if err != nil || ident == nil {
		logger.Warn().Err(err).Msg("Admin identity resolution failed")
		return ErrInvalidToken
	}

	for _, entry := range a.allowlist {
		if entry.Email == ident.Email && entry.ID == ident.ID {
			return nil
		}
	}

	logger.Warn().Str("user_id", ident.ID).Msg("Caller is not on the admin allowlist")
	return ErrNotAdmin
}

// IsAdmin reports whether token belongs to an allowlisted administrator.
func (a *Authorizer) IsAdmin(ctx context.Context, token string) bool {
	return a.Check(ctx, token) == nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
