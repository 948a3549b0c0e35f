package middleware

import (
	"coffeeshop/internal/entity"
	"coffeeshop/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	contextUserIDKey = "auth_user_id"
	contextRoleKey   = "auth_role"
)

func SetAuthContext(c echo.Context, userID uuid.UUID, role entity.UserRole) {
	c.Set(contextUserIDKey, userID)
	c.Set(contextRoleKey, role)
}

func UserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	value := c.Get(contextUserIDKey)
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

func RoleFromContext(c echo.Context) (entity.UserRole, bool) {
	value := c.Get(contextRoleKey)
	role, ok := value.(entity.UserRole)
	return role, ok
}

// ActorFromContext returns the caller set by RequireAuth.
func ActorFromContext(c echo.Context) (service.Actor, bool) {
	userID, ok := UserIDFromContext(c)
	if !ok {
		return service.Actor{}, false
	}
	role, ok := RoleFromContext(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{ID: userID, Role: role}, true
}
