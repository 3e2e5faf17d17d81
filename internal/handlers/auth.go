package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"authcore/internal/events"
	"authcore/internal/logging"
	mwauth "authcore/internal/middleware/auth"
	"authcore/internal/service"
	"authcore/internal/tokens"
)

type AuthHandler struct {
	Auth   *service.AuthService
	Events events.Publisher
}

// Login collapses every credential failure into one unauthorized response
// so callers cannot probe which accounts exist.
func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, pair, err := h.Auth.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound),
			errors.Is(err, service.ErrUserInactive),
			errors.Is(err, service.ErrInvalidCredentials):
			l.Warn("login_failed", "status", 401)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		default:
			l.Error("login_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	h.publish(c, events.Event{Action: events.ActionLogin, UserID: user.ID.String()})

	l.Info("login_successful", "user_id", user.ID)
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		l.Warn("refresh_error", "status", 400)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	pair, err := h.Auth.Rotate(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, tokens.ErrInvalidToken),
			errors.Is(err, tokens.ErrInvalidTokenType),
			errors.Is(err, service.ErrUserNotFound),
			errors.Is(err, service.ErrUserInactive):
			l.Warn("refresh_failed", "status", 401, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		default:
			l.Error("refresh_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	return c.JSON(http.StatusOK, pair)
}

// Logout requires the bearer access token plus the refresh token in the
// body and blacklists both until their natural expiry.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	accessToken, ok := mwauth.BearerToken(c)
	if !ok {
		l.Warn("logout_failed", "status", 400, "reason", "missing_authorization_header")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid or missing authorization header")
	}

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		l.Warn("logout_failed", "status", 400, "reason", "missing_refresh_token")
		return echo.NewHTTPError(http.StatusBadRequest, "refreshToken is required")
	}

	if err := h.Auth.Logout(ctx, accessToken, req.RefreshToken); err != nil {
		if errors.Is(err, tokens.ErrInvalidToken) {
			l.Warn("logout_failed", "status", 401, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		l.Error("logout_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if claims, err := tokens.SignedClaims(accessToken, h.Auth.JWTSecret); err == nil {
		h.publish(c, events.Event{Action: events.ActionLogout, UserID: claims.Subject})
	}

	l.Info("logout_successful")
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) publish(c echo.Context, event events.Event) {
	if h.Events == nil {
		return
	}
	event.IP = c.RealIP()
	event.UserAgent = c.Request().UserAgent()
	if err := h.Events.Publish(c.Request().Context(), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("event_publish_failed", "action", event.Action, "error", err)
	}
}
