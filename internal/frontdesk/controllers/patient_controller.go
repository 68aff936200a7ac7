package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/response"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/models"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/services"
)

// Broadcaster pushes front desk events to connected screens.
type Broadcaster interface {
	Publish(eventType string, data interface{})
}

type nopBroadcaster struct{}

func (nopBroadcaster) Publish(string, interface{}) {}

// Event types published to the live queue feed.
const (
	EventPatientRegistered = "patient.registered"
	EventVisitCreated      = "visit.created"
	EventVisitCompleted    = "visit.completed"
)

type PatientController struct {
	Service *services.PatientService
	Events  Broadcaster
}

// NewPatientController wires the controller; events may be nil.
func NewPatientController(service *services.PatientService, events Broadcaster) *PatientController {
	if events == nil {
		events = nopBroadcaster{}
	}
	return &PatientController{Service: service, Events: events}
}

// ListPatients handles GET /api/patients?search=
func (pc *PatientController) ListPatients(c echo.Context) error {
	rows, err := pc.Service.ListPatients(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return response.Error(c, err)
	}
	if rows == nil {
		rows = []models.PatientWithVisit{}
	}
	return response.JSON(c, http.StatusOK, "Patients retrieved successfully", rows)
}

// RegisterPatient handles POST /api/patients
func (pc *PatientController) RegisterPatient(c echo.Context) error {
	var req models.RegisterPatientRequest
	if err := c.Bind(&req); err != nil {
		return response.JSON(c, http.StatusBadRequest, "Invalid request payload", nil)
	}

	patient, err := pc.Service.Register(c.Request().Context(), req)
	if err != nil {
		return response.Error(c, err)
	}
	pc.Events.Publish(EventPatientRegistered, patient)
	return response.JSON(c, http.StatusCreated, "Patient registered successfully", patient)
}

// GetPatient handles GET /api/patients/:id
func (pc *PatientController) GetPatient(c echo.Context) error {
	patient, err := pc.Service.GetPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, "Patient retrieved successfully", patient)
}
