package httpserver

import (
	"github.com/labstack/echo/v4"

	"authcore/internal/audit"
	"authcore/internal/handlers"
	mwauth "authcore/internal/middleware/auth"
)

type Deps struct {
	Guard       *mwauth.Guard
	AuthHandler *handlers.AuthHandler
	RBACHandler *handlers.RBACHandler
	UserHandler *handlers.UserHandler
	AuditSearch *audit.SearchHandler
}

// Register wires the routes. Each protected route declares the single
// permission it requires; auth routes are public.
func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	authGrp := v1.Group("/auth")
	authGrp.POST("/login", d.AuthHandler.Login)
	authGrp.POST("/refresh", d.AuthHandler.Refresh)
	authGrp.POST("/logout", d.AuthHandler.Logout)

	users := v1.Group("/users")
	users.POST("", d.UserHandler.Create, d.Guard.RequirePermission("Users.Create"))
	users.PATCH("/:id", d.UserHandler.Update, d.Guard.RequirePermission("Users.Update"))
	users.DELETE("/:id", d.UserHandler.Deactivate, d.Guard.RequirePermission("Users.Delete"))
	users.GET("/:id/roles", d.RBACHandler.UserRoles, d.Guard.RequirePermission("Users.Read"))
	users.PUT("/:id/role", d.RBACHandler.ChangeUserRole, d.Guard.RequirePermission("Users.Manage"))
	users.POST("/:id/roles", d.RBACHandler.AddUserRole, d.Guard.RequirePermission("Users.Manage"))
	users.DELETE("/:id/roles/:roleId", d.RBACHandler.RemoveUserRole, d.Guard.RequirePermission("Users.Manage"))

	roles := v1.Group("/roles")
	roles.POST("", d.RBACHandler.CreateRole, d.Guard.RequirePermission("Roles.Create"))
	roles.GET("/:id/permissions", d.RBACHandler.RolePermissions, d.Guard.RequirePermission("Roles.Read"))
	roles.GET("/:id/users", d.RBACHandler.RoleUsers, d.Guard.RequirePermission("Roles.Read"))
	roles.POST("/:id/permissions", d.RBACHandler.AssignPermissions, d.Guard.RequirePermission("Roles.Manage"))
	roles.DELETE("/:id/permissions", d.RBACHandler.RemovePermissions, d.Guard.RequirePermission("Roles.Manage"))

	perms := v1.Group("/permissions")
	perms.POST("", d.RBACHandler.CreatePermission, d.Guard.RequirePermission("Permissions.Create"))
	perms.PATCH("/:id", d.RBACHandler.UpdatePermission, d.Guard.RequirePermission("Permissions.Update"))
	perms.GET("/:id/roles", d.RBACHandler.PermissionRoles, d.Guard.RequirePermission("Permissions.Read"))

	if d.AuditSearch != nil {
		v1.GET("/audit/search", d.AuditSearch.Search, d.Guard.RequirePermission("AuthLogs.Read"))
	}
}
