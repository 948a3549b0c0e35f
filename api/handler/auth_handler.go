package handler

import (
	"net/http"

	"coffeeshop/api/middleware"
	"coffeeshop/internal/dto"
	"coffeeshop/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const tokenTypeBearer = "bearer"

type AuthHandler struct {
	Service  *service.AuthService
	Users    *service.UserService
	Validate *validator.Validate
}

func NewAuthHandler(svc *service.AuthService, users *service.UserService, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{
		Service:  svc,
		Users:    users,
		Validate: validate,
	}
}

func (h *AuthHandler) Signup(c echo.Context) error {
	var req dto.SignupRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeInvalidInput(c, err)
	}
	if err := h.Validate.Struct(req); err != nil {
		return writeInvalidInput(c, err)
	}
	user, err := h.Service.Signup(c.Request().Context(), service.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IPAddress: stringPtr(c.RealIP()),
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.UserResponseFromEntity(user))
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeInvalidInput(c, err)
	}
	if err := h.Validate.Struct(req); err != nil {
		return writeInvalidInput(c, err)
	}
	pair, err := h.Service.Login(c.Request().Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: stringPtr(c.RealIP()),
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		TokenType:        tokenTypeBearer,
		ExpiresIn:        pair.ExpiresIn,
		RefreshExpiresIn: pair.RefreshExpiresIn,
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req dto.RefreshRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeInvalidInput(c, err)
	}
	if err := h.Validate.Struct(req); err != nil {
		return writeInvalidInput(c, err)
	}
	grant, err := h.Service.Refresh(c.Request().Context(), req.RefreshToken, stringPtr(c.RealIP()))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.AccessTokenResponse{
		AccessToken: grant.AccessToken,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   grant.ExpiresIn,
	})
}

func (h *AuthHandler) Verify(c echo.Context) error {
	var req dto.VerifyRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeInvalidInput(c, err)
	}
	if err := h.Validate.Struct(req); err != nil {
		return writeInvalidInput(c, err)
	}
	user, err := h.Service.Verify(c.Request().Context(), service.VerifyInput{
		Email:     req.Email,
		Code:      req.Code,
		IPAddress: stringPtr(c.RealIP()),
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponseFromEntity(user))
}

func (h *AuthHandler) Resend(c echo.Context) error {
	var req dto.ResendRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeInvalidInput(c, err)
	}
	if err := h.Validate.Struct(req); err != nil {
		return writeInvalidInput(c, err)
	}
	if err := h.Service.ResendCode(c.Request().Context(), req.Email, stringPtr(c.RealIP())); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusAccepted, dto.MessageResponse{Message: "verification code sent"})
}

func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeServiceError(c, service.ErrInvalidToken)
	}
	user, err := h.Users.Get(c.Request().Context(), userID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponseFromEntity(user))
}
