package handler

import (
	"rentacar/internal/auth"

	"github.com/julienschmidt/httprouter"
)

// RegisterRoutes mounts the account, settings and admin routes. loginLimit
// throttles login attempts per client.
func RegisterRoutes(router *httprouter.Router, users *UserHandler, admin *AdminHandler, guard *auth.Guard, loginLimit auth.Decorator) {
	router.GET("/", guard.RequireSession(users.Me))

	router.POST("/user/login", loginLimit(users.Login))
	router.POST("/user/signup", users.Signup)
	router.POST("/user/logout", users.Logout)
	router.PUT("/user/:id", auth.Chain(users.Update, guard.CSRF, guard.RequireSession))
	router.DELETE("/user/:id", auth.Chain(users.Delete, guard.CSRF, guard.RequireSession))

	router.GET("/settings", guard.RequireSession(users.Settings))
	router.PUT("/settings/password", auth.Chain(users.ChangePassword, guard.CSRF, guard.RequireSession))

	router.GET("/admin/users", auth.Chain(admin.ListUsers, guard.RequireSession, guard.RequireAdmin))
	router.POST("/admin/users/add", auth.Chain(admin.CreateUser, guard.CSRF, guard.RequireSession, guard.RequireAdmin))
	router.PUT("/admin/users/role", auth.Chain(admin.ChangeRole, guard.CSRF, guard.RequireSession, guard.RequireAdmin))
	router.DELETE("/admin/users/:id", auth.Chain(admin.DeleteUser, guard.CSRF, guard.RequireSession, guard.RequireAdmin))
}
