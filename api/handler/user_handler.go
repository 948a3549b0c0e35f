package handler

import (
	"net/http"

	"coffeeshop/api/middleware"
	"coffeeshop/internal/dto"
	"coffeeshop/internal/entity"
	"coffeeshop/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	Service  *service.UserService
	Validate *validator.Validate
}

func NewUserHandler(svc *service.UserService, validate *validator.Validate) *UserHandler {
	return &UserHandler{Service: svc, Validate: validate}
}

func (h *UserHandler) List(c echo.Context) error {
	skip, limit, err := parseSkipLimit(c)
	if err != nil {
		return writeInvalidInput(c, err)
	}
	users, total, err := h.Service.List(c.Request().Context(), skip, limit)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserListResponseFromEntities(users, total))
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeServiceError(c, service.ErrUserNotFound)
	}
	user, err := h.Service.Get(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponseFromEntity(user))
}

func (h *UserHandler) Update(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return writeServiceError(c, service.ErrInvalidToken)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeServiceError(c, service.ErrUserNotFound)
	}

	var req dto.UpdateUserRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeInvalidInput(c, err)
	}
	if err := h.Validate.Struct(req); err != nil {
		return writeInvalidInput(c, err)
	}

	patch := service.UserPatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	}
	if req.Role != nil {
		role := entity.UserRole(*req.Role)
		patch.Role = &role
	}

	user, err := h.Service.Update(c.Request().Context(), actor, id, patch)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponseFromEntity(user))
}

func (h *UserHandler) Delete(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return writeServiceError(c, service.ErrInvalidToken)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeServiceError(c, service.ErrUserNotFound)
	}
	if err := h.Service.Delete(c.Request().Context(), actor, id); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) Activity(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeServiceError(c, service.ErrUserNotFound)
	}
	_, limit, err := parseSkipLimit(c)
	if err != nil {
		return writeInvalidInput(c, err)
	}
	logs, err := h.Service.Activity(c.Request().Context(), id, limit)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.SecurityLogResponsesFromEntities(logs))
}
