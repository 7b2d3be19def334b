package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/studyhub/materials-portal/docs" // swagger docs

	"github.com/studyhub/materials-portal/internal/api/handler"
	"github.com/studyhub/materials-portal/internal/api/middleware"
	"github.com/studyhub/materials-portal/internal/core/ports"
	"github.com/studyhub/materials-portal/internal/infrastructure/http/handlers"
)

// Deps carries everything NewRouter needs to register routes.
type Deps struct {
	AuthService     ports.AuthService
	MaterialService ports.MaterialService
	// UploadRoles lists the roles allowed to POST /api/materials.
	UploadRoles    []string
	MaxUploadBytes int64
	HealthChecks   map[string]handlers.Checker
	Logger         zerolog.Logger

	// Metrics registry; nil uses the Prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	registerer, gatherer := d.Registerer, d.Gatherer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "materials",
		Subsystem:  "http",
		Registerer: registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.AuthService)
	materialHandler := handler.NewMaterialHandler(d.MaterialService, d.MaxUploadBytes, d.Logger)
	bearer := middleware.BearerAuth(d.AuthService)
	queryToken := middleware.QueryTokenAuth(d.AuthService)

	// --- API routes ---
	api := e.Group("/api")
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.GET("/verify-token", authHandler.VerifyToken, bearer)

	api.POST("/materials", materialHandler.Upload, bearer, middleware.RBAC(d.UploadRoles...))
	api.GET("/materials/:branch", materialHandler.List, bearer)

	// Download links are followed by the browser, so the token rides in the query.
	api.GET("/download/:branch/:filename", materialHandler.Download, queryToken)

	// --- Operational endpoints (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.HealthChecks)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			// URIPath, not URI: download links carry the token in the query.
			ev.Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
