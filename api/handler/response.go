package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"coffeeshop/internal/dto"
	"coffeeshop/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// serviceErrors is matched in order with errors.Is.
var serviceErrors = []errorMapping{
	{service.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{service.ErrDuplicateEmail, http.StatusConflict, "duplicate_email"},
	{service.ErrUserNotFound, http.StatusNotFound, "not_found"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{service.ErrNotVerified, http.StatusForbidden, "not_verified"},
	{service.ErrAlreadyVerified, http.StatusConflict, "already_verified"},
	{service.ErrInvalidCode, http.StatusBadRequest, "invalid_code"},
	{service.ErrExpiredCode, http.StatusGone, "expired_code"},
	{service.ErrAlreadyUsedCode, http.StatusConflict, "already_used_code"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{service.ErrTokenExpired, http.StatusUnauthorized, "expired_token"},
	{service.ErrWrongTokenType, http.StatusUnauthorized, "wrong_token_type"},
	{service.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{service.ErrCannotDeleteSelf, http.StatusBadRequest, "cannot_delete_self"},
	{service.ErrStorageUnavailable, http.StatusServiceUnavailable, "storage_unavailable"},
}

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeError(c echo.Context, status int, code string, message string) error {
	return c.JSON(status, dto.ErrorResponse{Error: code, Message: message})
}

func writeInvalidInput(c echo.Context, err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]string, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			fields = append(fields, strings.ToLower(fieldErr.Field())+" failed "+fieldErr.Tag())
		}
		return writeError(c, http.StatusBadRequest, "invalid_input", strings.Join(fields, "; "))
	}
	return writeError(c, http.StatusBadRequest, "invalid_input", err.Error())
}

func writeServiceError(c echo.Context, err error) error {
	for _, mapping := range serviceErrors {
		if errors.Is(err, mapping.target) {
			message := mapping.target.Error()
			return writeError(c, mapping.status, mapping.code, message)
		}
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}

// ErrorHandler renders errors that reach echo in the same shape as service
// errors. Unmapped errors keep their cause for the request logger.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "internal server error"
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		if text, ok := httpErr.Message.(string); ok {
			message = text
		}
	}

	code := "internal"
	switch status {
	case http.StatusNotFound:
		code = "not_found"
	case http.StatusMethodNotAllowed:
		code = "method_not_allowed"
	case http.StatusBadRequest:
		code = "invalid_input"
	case http.StatusRequestEntityTooLarge:
		code = "invalid_input"
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = writeError(c, status, code, message)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}

// parseSkipLimit reads pagination query params. Absent values are zero and
// left for the service to default.
func parseSkipLimit(c echo.Context) (int, int, error) {
	skip, err := queryInt(c, "skip")
	if err != nil {
		return 0, 0, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return 0, 0, err
	}
	if skip < 0 || limit < 0 {
		return 0, 0, errors.New("skip and limit must not be negative")
	}
	return skip, limit, nil
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return value, nil
}

func stringPtr(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
