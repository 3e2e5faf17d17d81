package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"authcore/internal/logging"
	"authcore/internal/service"
)

type UserHandler struct {
	Users *service.UserService
}

func (h *UserHandler) Create(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "user_create")

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username, email and password are required")
	}

	user, err := h.Users.Create(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			l.Warn("create_failed", "status", 409, "reason", "user_exists")
			return echo.NewHTTPError(http.StatusConflict, "user already exists")
		}
		l.Error("create_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Update(c echo.Context) error {
	var req struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Users.Update(c.Request().Context(), c.Param("id"), req.Username, req.Email)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Deactivate(c echo.Context) error {
	if err := h.Users.Deactivate(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}
