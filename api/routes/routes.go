package routes

import (
	"time"

	"coffeeshop/api/handler"
	"coffeeshop/api/middleware"
	"coffeeshop/internal/entity"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Users          *handler.UserHandler
	AuthMiddleware middleware.AuthMiddleware
	AuthRate       *middleware.RateLimiter
}

func NewRouter(
	e *echo.Echo,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	authMiddleware middleware.AuthMiddleware,
	ratePerSec float64,
	burst int,
) *Router {
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		Users:          userHandler,
		AuthMiddleware: authMiddleware,
		AuthRate:       middleware.NewRateLimiter(rate.Limit(ratePerSec), burst, 10*time.Minute),
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo

	e.GET("/", handler.Health)
	e.GET("/health", handler.Health)

	auth := e.Group("/auth", r.AuthRate.Middleware())
	auth.POST("/signup", r.Auth.Signup)
	auth.POST("/login", r.Auth.Login)
	auth.POST("/refresh", r.Auth.Refresh)
	auth.POST("/verify", r.Auth.Verify)
	auth.POST("/resend", r.Auth.Resend)

	e.GET("/me", r.Auth.Me, r.AuthMiddleware.RequireAuth)

	adminOnly := middleware.RequireRole(entity.UserRoleAdmin)
	users := e.Group("/users", r.AuthMiddleware.RequireAuth)
	users.GET("", r.Users.List, adminOnly)
	users.GET("/:id", r.Users.Get, adminOnly)
	users.PATCH("/:id", r.Users.Update)
	users.DELETE("/:id", r.Users.Delete, adminOnly)
	users.GET("/:id/activity", r.Users.Activity, adminOnly)
}
