package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/auth/models"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/auth/services"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/response"
)

type AuthController struct {
	Service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{Service: service}
}

// Login handles POST /api/auth/login.
func (ac *AuthController) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return response.JSON(c, http.StatusBadRequest, "Invalid request payload", nil)
	}

	res, err := ac.Service.Login(c.Request().Context(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, "Login successful", res)
}
