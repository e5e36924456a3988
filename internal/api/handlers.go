// Package api contains the HTTP handlers for the production tracking service
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"apontamento/backend/internal/auth"
	"apontamento/backend/internal/services"
	"apontamento/backend/pkg/models"
)

const (
	serviceName    = "apontamento"
	serviceVersion = "1.0.0"
)

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server implements ServerInterface on top of the service layer.
type Server struct {
	Orders   *services.OrderService
	Tracking *services.TrackingService
	Reasons  *services.ReasonService
	History  *services.HistoryService
	Catalog  *services.CatalogService
	Store    Pinger
}

// NewServer creates a new Server.
func NewServer(orders *services.OrderService, tracking *services.TrackingService, reasons *services.ReasonService,
	history *services.HistoryService, catalog *services.CatalogService, store Pinger) *Server {
	return &Server{
		Orders:   orders,
		Tracking: tracking,
		Reasons:  reasons,
		History:  history,
		Catalog:  catalog,
		Store:    store,
	}
}

var _ ServerInterface = (*Server)(nil)

// HandleHealth reports liveness and database reachability. It answers 503
// when the database cannot be pinged.
func (s *Server) HandleHealth(c echo.Context) error {
	status := models.HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Service:   serviceName,
		Version:   serviceVersion,
		Checks:    map[string]string{"database": "ok"},
	}
	code := http.StatusOK

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		status.Status = "degraded"
		status.Checks["database"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

// GetMe returns the caller's session.
// (GET /api/v1/me)
func (s *Server) GetMe(c echo.Context) error {
	session, ok := auth.SessionFrom(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return c.JSON(http.StatusOK, session)
}

// actor returns the authenticated employee id, zero when unknown.
func actor(c echo.Context) int64 {
	return auth.EmployeeID(c.Request().Context())
}

// bindBody decodes the JSON request body into dst.
func bindBody(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+messageOf(err))
	}
	return nil
}

func messageOf(err error) string {
	if he, ok := err.(*echo.HTTPError); ok {
		if msg, ok := he.Message.(string); ok {
			return msg
		}
	}
	return err.Error()
}
