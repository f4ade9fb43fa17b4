package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/unrolled/secure"

	_ "github.com/crmhub/accounts-api/docs"
	"github.com/crmhub/accounts-api/internal/api/handler"
	"github.com/crmhub/accounts-api/internal/api/middleware"
	"github.com/crmhub/accounts-api/internal/core/domain"
	"github.com/crmhub/accounts-api/internal/core/ports"
)

const defaultBodyLimit = "1M"

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Accounts ports.AccountService
	Activity ports.ActivityService
	Tokens   ports.TokenVerifier
	Logger   zerolog.Logger

	// HealthChecks are probed by /health/ready, keyed by dependency name.
	HealthChecks map[string]handler.HealthCheck

	CORSOrigins []string
	BodyLimit   string

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.BodyLimit == "" {
		deps.BodyLimit = defaultBodyLimit
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echo.WrapMiddleware(secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "no-referrer",
	}).Handler))
	e.Use(echomiddleware.BodyLimit(deps.BodyLimit))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "crm",
		Subsystem:  "http",
		Registerer: deps.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/health")
		},
	}))

	// --- Operational routes (no auth required) ---
	health := handler.NewHealthHandler(deps.HealthChecks)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Guards ---
	authenticated := middleware.Auth(deps.Tokens)
	adminOnly := middleware.Guard(deps.Tokens, domain.RoleAdmin)
	selfOrAdmin := middleware.SelfOrRole("id", domain.RoleAdmin)

	users := handler.NewUserHandler(deps.Accounts)
	admins := handler.NewAdminHandler(deps.Accounts)
	activity := handler.NewActivityHandler(deps.Activity)

	api := e.Group("/api")

	// --- User routes ---
	u := api.Group("/user")
	u.POST("/createCustomer", users.Register)
	u.POST("/login", users.Login)
	u.PATCH("/updating/:id", users.UpdateProfile, authenticated, selfOrAdmin)
	u.GET("/getAllUser", users.List, adminOnly)
	u.GET("/:id", users.Get, authenticated, selfOrAdmin)

	// --- Admin routes ---
	a := api.Group("/admin")
	a.POST("/adminRegister", admins.Register)
	a.POST("/adminLogin", admins.Login)
	a.PUT("/adminUpdating", admins.AdminUpdate, adminOnly)
	a.GET("/adminAllUsers", users.List, adminOnly)
	a.GET("/adminByID", users.Get, adminOnly)
	a.PATCH("/delete/:id", users.SoftDelete, adminOnly)
	a.PATCH("/updating/:id", users.UpdateProfile, adminOnly)
	a.GET("/activity/:id", activity.List, adminOnly)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
