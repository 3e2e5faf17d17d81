package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"authcore/internal/logging"
	"authcore/internal/service"
)

type RBACHandler struct {
	RBAC *service.RBACService
}

func (h *RBACHandler) CreateRole(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	role, err := h.RBAC.CreateRole(c.Request().Context(), req.Name)
	if err != nil {
		return rbacError(c, err)
	}
	return c.JSON(http.StatusCreated, role)
}

func (h *RBACHandler) CreatePermission(c echo.Context) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	perm, err := h.RBAC.CreatePermission(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		return rbacError(c, err)
	}
	return c.JSON(http.StatusCreated, perm)
}

func (h *RBACHandler) UpdatePermission(c echo.Context) error {
	var req struct {
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	perm, err := h.RBAC.UpdatePermissionDescription(c.Request().Context(), c.Param("id"), req.Description)
	if err != nil {
		return rbacError(c, err)
	}
	return c.JSON(http.StatusOK, perm)
}

func (h *RBACHandler) AssignPermissions(c echo.Context) error {
	var req struct {
		PermissionIDs []string `json:"permissionIds"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	role, err := h.RBAC.AssignPermissionsToRole(c.Request().Context(), c.Param("id"), req.PermissionIDs)
	if err != nil {
		return rbacError(c, err)
	}
	return c.JSON(http.StatusOK, role)
}

func (h *RBACHandler) RemovePermissions(c echo.Context) error {
	var req struct {
		PermissionIDs []string `json:"permissionIds"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	role, err := h.RBAC.RemovePermissionsFromRole(c.Request().Context(), c.Param("id"), req.PermissionIDs)
	if err != nil {
		return rbacError(c, err)
	}
	return c.JSON(http.StatusOK, role)
}

func (h *RBACHandler) ChangeUserRole(c echo.Context) error {
	var req struct {
		RoleID string `json:"roleId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.RBAC.AddOrChangeRole(c.Request().Context(), c.Param("id"), req.RoleID)
	if err != nil {
		return rbacError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *RBACHandler) AddUserRole(c echo.Context) error {
	var req struct {
		RoleID string `json:"roleId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.RBAC.AddRole(c.Request().Context(), c.Param("id"), req.RoleID)
	if err != nil {
		return rbacError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *RBACHandler) RemoveUserRole(c echo.Context) error {
	user, err := h.RBAC.RemoveRole(c.Request().Context(), c.Param("id"), c.Param("roleId"))
	if err != nil {
		return rbacError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *RBACHandler) RolePermissions(c echo.Context) error {
	perms, err := h.RBAC.GetPermissionsByRole(c.Request().Context(), c.Param("id"))
	if err != nil {
		return rbacError(c, err)
	}
	return c.JSON(http.StatusOK, perms)
}

func (h *RBACHandler) PermissionRoles(c echo.Context) error {
	roles, err := h.RBAC.GetRolesByPermission(c.Request().Context(), c.Param("id"))
	if err != nil {
		return rbacError(c, err)
	}
	return c.JSON(http.StatusOK, roles)
}

func (h *RBACHandler) UserRoles(c echo.Context) error {
	roles, err := h.RBAC.GetRolesByUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return rbacError(c, err)
	}
	return c.JSON(http.StatusOK, roles)
}

func (h *RBACHandler) RoleUsers(c echo.Context) error {
	users, err := h.RBAC.GetUsersByRole(c.Request().Context(), c.Param("id"))
	if err != nil {
		return rbacError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// rbacError keeps administrative errors precise: operators get the
// missing entity and id, unlike the deliberately opaque auth responses.
func rbacError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrRoleNotFound),
		errors.Is(err, service.ErrPermissionNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrNameTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		logging.FromContext(c.Request().Context()).Error("rbac_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
