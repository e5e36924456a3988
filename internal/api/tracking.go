package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"apontamento/backend/pkg/models"
)

// StartTracking opens a tracking session.
// (POST /api/v1/tracking/start)
func (s *Server) StartTracking(c echo.Context) error {
	var in models.StartTracking
	if err := bindBody(c, &in); err != nil {
		return err
	}
	entry, err := s.Tracking.Start(c.Request().Context(), in, actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, entry)
}

// EndTracking closes a tracking session.
// (POST /api/v1/tracking/:id/end)
func (s *Server) EndTracking(c echo.Context, id int64) error {
	var in models.EndTracking
	if err := bindBody(c, &in); err != nil {
		return err
	}
	in.TrackingID = id
	if in.EmployeeID == 0 {
		in.EmployeeID = actor(c)
	}
	entry, err := s.Tracking.End(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

// ListTracking returns an order's tracking entries.
// (GET /api/v1/orders/:id/rastreamentos)
func (s *Server) ListTracking(c echo.Context, id int64) error {
	entries, err := s.Tracking.List(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

// GetReport aggregates an order's tracking ledger.
// (GET /api/v1/orders/:id/report)
func (s *Server) GetReport(c echo.Context, id int64) error {
	report, err := s.Tracking.Report(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}
