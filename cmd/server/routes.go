package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel/trace"

	"apontamento/backend/internal/api"
	"apontamento/backend/internal/auth"
	"apontamento/backend/internal/config"
	"apontamento/backend/internal/logging"
	"apontamento/backend/internal/mcp"
	"apontamento/backend/internal/repository"
	"apontamento/backend/internal/services"
	"apontamento/backend/internal/telemetry"
)

// newEcho wires services, authentication and every route onto a new echo
// instance.
func newEcho(ctx context.Context, cfg *config.Config, store repository.Repository, tel *telemetry.Provider, logger *logging.Logger) (*echo.Echo, error) {
	metrics, err := services.NewMetrics(tel.Meter(services.MeterName))
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	svcLogger := logger.Named("services")
	orders := services.NewOrderService(store, svcLogger, metrics)
	tracking := services.NewTrackingService(store, svcLogger, metrics)
	reasons := services.NewReasonService(store, svcLogger)
	history := services.NewHistoryService(store)
	catalog := services.NewCatalogService(store, svcLogger)

	authz, err := auth.New(ctx, cfg, store, logger.Named("auth"))
	if err != nil {
		return nil, fmt.Errorf("auth initialization failed: %w", err)
	}
	if authz.Bypass() {
		logger.Warn("authentication bypass enabled", "dev_email", cfg.Auth.DevEmail)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = api.HTTPErrorHandler(logger.Named("http"))

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(otelecho.Middleware(cfg.Telemetry.ServiceName, otelecho.WithTracerProvider(tel.TracerProvider())))
	e.Use(requestLogger(logger.Named("http")))
	e.Use(middleware.Recover())

	srv := api.NewServer(orders, tracking, reasons, history, catalog, store)
	e.GET("/health", srv.HandleHealth)
	if h := tel.Handler(); h != nil {
		e.GET(telemetry.MetricsPath, echo.WrapHandler(h))
	}

	e.GET("/login", echo.WrapHandler(http.HandlerFunc(authz.LoginHandler)))
	e.GET("/auth/callback", echo.WrapHandler(http.HandlerFunc(authz.CallbackHandler)))
	e.GET("/logout", echo.WrapHandler(http.HandlerFunc(authz.LogoutHandler)))

	e.GET("/openapi.yaml", api.SpecHandler(cfg.Auth.OktaDomain))
	e.GET("/docs", api.SwaggerHandler(cfg.Auth.SwaggerClientID))
	e.GET("/docs/oauth2-redirect.html", api.OAuth2RedirectHandler)

	requireAuth := echo.WrapMiddleware(authz.RequireAuth)
	managerOnly := echo.WrapMiddleware(auth.RequireGestor)

	apiGroup := e.Group("/api/v1", requireAuth)
	api.RegisterHandlers(apiGroup, srv, managerOnly)

	mcpServer := mcp.NewServer(orders, tracking, reasons)
	e.Any(mcp.BasePath+"/*", echo.WrapHandler(mcpServer.Handler()), requireAuth)

	return e, nil
}

func requestLogger(logger *logging.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || c.Path() == telemetry.MetricsPath
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			kv := []any{"method", v.Method, "uri", v.URI, "status", v.Status,
				"latency", v.Latency.String(), "request_id", v.RequestID}
			if sc := trace.SpanContextFromContext(c.Request().Context()); sc.HasTraceID() {
				kv = append(kv, "trace_id", sc.TraceID().String())
			}
			if v.Error != nil {
				kv = append(kv, "error", v.Error.Error())
			}
			switch {
			case v.Status >= http.StatusInternalServerError:
				logger.Error("request", kv...)
			case v.Status >= http.StatusBadRequest:
				logger.Warn("request", kv...)
			default:
				logger.Info("request", kv...)
			}
			return nil
		},
	})
}
