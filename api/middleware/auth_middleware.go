package middleware

import (
	"errors"
	"net/http"
	"strings"

	"coffeeshop/internal/dto"
	"coffeeshop/internal/entity"
	"coffeeshop/internal/utils"

	"github.com/labstack/echo/v4"
)

type AccessTokenValidator interface {
	Validate(token string, expected utils.TokenType) (*utils.Claims, error)
}

// AuthMiddleware trusts the signed claims of an access token and does not
// load the user.
type AuthMiddleware struct {
	JWT AccessTokenValidator
}

func (m AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.JWT == nil {
			return tokenError(c, utils.ErrInvalidToken)
		}
		token := extractBearerToken(c.Request())
		if token == "" {
			return tokenError(c, utils.ErrInvalidToken)
		}
		claims, err := m.JWT.Validate(token, utils.TokenTypeAccess)
		if err != nil {
			return tokenError(c, err)
		}
		userID, err := claims.UserID()
		if err != nil {
			return tokenError(c, err)
		}
		role := entity.UserRole(claims.Role)
		if !role.Valid() {
			return tokenError(c, utils.ErrInvalidToken)
		}
		SetAuthContext(c, userID, role)
		return next(c)
	}
}

func tokenError(c echo.Context, err error) error {
	code := "invalid_token"
	switch {
	case errors.Is(err, utils.ErrTokenExpired):
		code = "expired_token"
	case errors.Is(err, utils.ErrWrongTokenType):
		code = "wrong_token_type"
	}
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: code, Message: err.Error()})
}

func extractBearerToken(r *http.Request) string {
	authorization := r.Header.Get(echo.HeaderAuthorization)
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
