package handler

import (
	"net/http"

	"coffeeshop/internal/dto"

	"github.com/labstack/echo/v4"
)

const serviceName = "coffeeshop"

func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Service: serviceName})
}
