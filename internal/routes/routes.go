package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Srikanthmvtsc/doc-queue-plus/config"
	authControllers "github.com/Srikanthmvtsc/doc-queue-plus/internal/auth/controllers"
	authModels "github.com/Srikanthmvtsc/doc-queue-plus/internal/auth/models"
	authServices "github.com/Srikanthmvtsc/doc-queue-plus/internal/auth/services"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/middlewares"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/response"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/validation"
	dashboardControllers "github.com/Srikanthmvtsc/doc-queue-plus/internal/dashboard/controllers"
	dashboardServices "github.com/Srikanthmvtsc/doc-queue-plus/internal/dashboard/services"
	frontdeskControllers "github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/controllers"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/repository"
	frontdeskServices "github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/services"
	"github.com/Srikanthmvtsc/doc-queue-plus/pkg/cache"
	"github.com/Srikanthmvtsc/doc-queue-plus/ws"
)

// Deps are the long lived collaborators built in main.
type Deps struct {
	Config   *config.Config
	Store    repository.Store
	Clock    frontdeskServices.Clock
	Verifier authServices.CredentialVerifier
	Hub      *ws.Hub
	// Cache is optional.
	Cache cache.Cache
}

// Init registers every route on e and installs the request validator.
func Init(e *echo.Echo, d Deps) {
	cfg := d.Config
	secret := []byte(cfg.JWTSecret)
	e.Validator = validation.EchoValidator{}

	// Services
	tokenService := frontdeskServices.NewTokenService(d.Store, d.Clock, cfg.DBTimeout)
	visitService := frontdeskServices.NewVisitService(d.Store, tokenService, d.Clock, cfg.DBTimeout)
	patientService := frontdeskServices.NewPatientService(d.Store, d.Clock, cfg.DBTimeout)
	dashboardService := dashboardServices.NewDashboardService(d.Store, d.Clock, cfg.DBTimeout)
	if d.Cache != nil {
		dashboardService.WithCache(d.Cache, cfg.StatsCacheTTL)
	}
	visitService.AddObserver(dashboardService)
	authService := authServices.NewAuthService(d.Verifier, secret, cfg.JWTTTL)

	// Controllers
	var events frontdeskControllers.Broadcaster
	if d.Hub != nil {
		events = d.Hub
	}
	authController := authControllers.NewAuthController(authService)
	patientController := frontdeskControllers.NewPatientController(patientService, events)
	visitController := frontdeskControllers.NewVisitController(visitService, events)
	dashboardController := dashboardControllers.NewDashboardController(dashboardService)

	api := e.Group("/api")
	api.GET("/health", health(d.Store))

	api.POST("/auth/login", authController.Login)

	protected := api.Group("", middlewares.JWTMiddleware(secret), middlewares.RequireRole(authModels.RoleFrontDesk))

	protected.GET("/dashboard/stats", dashboardController.GetStats)

	patients := protected.Group("/patients")
	patients.GET("", patientController.ListPatients)
	patients.POST("", patientController.RegisterPatient)
	patients.GET("/:id", patientController.GetPatient)

	visits := protected.Group("/visits")
	visits.POST("", visitController.CreateVisit)
	visits.GET("", visitController.ListVisits)
	visits.GET("/:id", visitController.GetVisit)
	visits.PUT("/:id/complete", visitController.CompleteVisit)

	if d.Hub != nil {
		e.GET("/ws", ws.ServeWS(d.Hub, ws.NewUpgrader(cfg.CORSOrigins)))
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func health(store pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return response.JSON(c, http.StatusServiceUnavailable, "Storage unavailable", nil)
		}
		return response.JSON(c, http.StatusOK, "OK", nil)
	}
}
