package middleware

import (
	"net/http"

	"coffeeshop/internal/dto"
	"coffeeshop/internal/entity"

	"github.com/labstack/echo/v4"
)

func RequireRole(role entity.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			currentRole, ok := RoleFromContext(c)
			if !ok || currentRole != role {
				return c.JSON(http.StatusForbidden, dto.ErrorResponse{
					Error:   "unauthorized",
					Message: "insufficient permissions",
				})
			}
			return next(c)
		}
	}
}
