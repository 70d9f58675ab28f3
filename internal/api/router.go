package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/taskvault/taskvault/docs"
	"github.com/taskvault/taskvault/internal/api/handler"
	"github.com/taskvault/taskvault/internal/api/middleware"
	"github.com/taskvault/taskvault/internal/core/ports"
	"github.com/taskvault/taskvault/internal/core/validation"
	"github.com/taskvault/taskvault/internal/infrastructure/http/handlers"
)

// Dependencies carries everything the router wires into handlers.
type Dependencies struct {
	AuthService ports.AuthService
	TaskService ports.TaskService
	Tokens      ports.TokenVerifier
	Logger      zerolog.Logger

	// TasksRequireAuth puts the /tasks routes behind the Auth middleware.
	TasksRequireAuth bool

	// HealthChecks are run by GET /health/ready.
	HealthChecks map[string]handlers.Checker

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echomiddleware.BodyLimit("1M"))
	e.Use(echomiddleware.Secure())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "taskvault",
		Registerer: deps.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	auth := middleware.Auth(deps.Tokens)

	authHandler := handler.NewAuthHandler(deps.AuthService)
	e.POST("/register", authHandler.Register)
	e.POST("/login", authHandler.Login)
	e.GET("/secure-route", authHandler.SecureRoute, auth)

	taskHandler := handler.NewTaskHandler(deps.TaskService)
	tasks := e.Group("/tasks")
	if deps.TasksRequireAuth {
		tasks.Use(auth)
	}
	tasks.GET("", taskHandler.List)
	tasks.POST("", taskHandler.Create)
	tasks.GET("/:id", taskHandler.Get)
	tasks.PATCH("/:id", taskHandler.Update)
	tasks.DELETE("/:id", taskHandler.Delete)

	health := handlers.NewHealthHandler(deps.HealthChecks, 0, deps.Logger)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)

	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
