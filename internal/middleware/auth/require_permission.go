package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"authcore/internal/blacklist"
	"authcore/internal/logging"
	"authcore/internal/tokens"
)

// Guard runs the per-request authorization decision. Signature and expiry
// are checked before the blacklist lookup so plainly invalid tokens never
// cost a round-trip to the revocation backend.
type Guard struct {
	JWTSecret []byte
	Blacklist blacklist.Strategy
}

// RequirePermission gates a route on a single permission string. An empty
// permission means the route only needs a valid, unrevoked token.
func (g *Guard) RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("middleware", "require_permission", "path", c.Path())

			token, ok := BearerToken(c)
			if !ok {
				l.Warn("deny", "reason", "missing_token")
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed authorization header")
			}

			claims, err := tokens.ParseAccess(token, g.JWTSecret)
			if err != nil {
				l.Warn("deny", "reason", "invalid_or_expired_token", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			revoked, err := g.Blacklist.IsBlacklisted(ctx, token)
			if err != nil {
				// Fail closed: an unreachable revocation backend denies.
				l.Error("deny", "reason", "blacklist_unavailable", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			if revoked {
				l.Warn("deny", "reason", "token_revoked", "user_id", claims.Subject)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set("userID", claims.Subject)
			c.Set("username", claims.Username)
			c.Set("permissions", claims.Permissions)

			if permission == "" {
				return next(c)
			}

			for _, p := range claims.Permissions {
				if p == permission {
					return next(c)
				}
			}

			l.Warn("deny", "reason", "insufficient_permission", "user_id", claims.Subject, "required", permission)
			return echo.NewHTTPError(http.StatusForbidden, "insufficient permission")
		}
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
