package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/response"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/dashboard/services"
)

type DashboardController struct {
	Service *services.DashboardService
}

func NewDashboardController(svc *services.DashboardService) *DashboardController {
	return &DashboardController{Service: svc}
}

// GetStats handles GET /api/dashboard/stats?date=YYYY-MM-DD (default today).
func (dc *DashboardController) GetStats(c echo.Context) error {
	stats, err := dc.Service.GetDashboardStats(c.Request().Context(), c.QueryParam("date"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, "Dashboard stats retrieved successfully", stats)
}
