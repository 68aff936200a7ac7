package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/response"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/models"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/services"
)

type VisitController struct {
	Service *services.VisitService
	Events  Broadcaster
}

// NewVisitController wires the controller; events may be nil.
func NewVisitController(service *services.VisitService, events Broadcaster) *VisitController {
	if events == nil {
		events = nopBroadcaster{}
	}
	return &VisitController{Service: service, Events: events}
}

// CreateVisit handles POST /api/visits and answers with the issued token.
func (vc *VisitController) CreateVisit(c echo.Context) error {
	var req models.CreateVisitRequest
	if err := c.Bind(&req); err != nil {
		return response.JSON(c, http.StatusBadRequest, "Invalid request payload", nil)
	}

	visit, err := vc.Service.CreateVisit(c.Request().Context(), req.PatientID, req.ReasonForVisit)
	if err != nil {
		return response.Error(c, err)
	}
	vc.Events.Publish(EventVisitCreated, visit)
	return response.JSON(c, http.StatusCreated, "Visit created successfully", visit)
}

// ListVisits handles GET /api/visits?date=&status=. The date defaults to today.
func (vc *VisitController) ListVisits(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		date = vc.Service.Clock.Today()
	}

	ctx := c.Request().Context()
	var (
		visits []models.Visit
		err    error
	)
	switch status := models.VisitStatus(c.QueryParam("status")); status {
	case "":
		visits, err = vc.Service.ListForDate(ctx, date)
	case models.VisitPending:
		visits, err = vc.Service.ListPending(ctx, date)
	case models.VisitCompleted:
		visits, err = vc.Service.ListCompleted(ctx, date)
	default:
		return response.JSON(c, http.StatusBadRequest, "status must be one of [pending completed]", nil)
	}
	if err != nil {
		return response.Error(c, err)
	}
	if visits == nil {
		visits = []models.Visit{}
	}
	return response.JSON(c, http.StatusOK, "Visits retrieved successfully", visits)
}

// GetVisit handles GET /api/visits/:id
func (vc *VisitController) GetVisit(c echo.Context) error {
	id, ok := visitID(c)
	if !ok {
		return response.JSON(c, http.StatusBadRequest, "Invalid visit id", nil)
	}
	visit, err := vc.Service.GetVisit(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, "Visit retrieved successfully", visit)
}

// CompleteVisit handles PUT /api/visits/:id/complete with {"consultation_fee": n}.
func (vc *VisitController) CompleteVisit(c echo.Context) error {
	id, ok := visitID(c)
	if !ok {
		return response.JSON(c, http.StatusBadRequest, "Invalid visit id", nil)
	}
	var req models.CompleteVisitRequest
	if err := c.Bind(&req); err != nil {
		return response.JSON(c, http.StatusBadRequest, "Invalid request payload", nil)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	visit, err := vc.Service.CompleteVisit(c.Request().Context(), id, *req.ConsultationFee)
	if err != nil {
		return response.Error(c, err)
	}
	vc.Events.Publish(EventVisitCompleted, visit)
	return response.JSON(c, http.StatusOK, "Visit completed successfully", visit)
}

func visitID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
