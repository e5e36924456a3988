package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"apontamento/backend/pkg/models"
)

func historyFilter(params ListHistoryParams) models.HistoryFilter {
	var filter models.HistoryFilter
	if params.OrderId != nil {
		filter.OrderID = *params.OrderId
	}
	if params.Type != nil {
		filter.Type = models.HistoryType(*params.Type)
	}
	if params.AfterId != nil {
		filter.AfterID = *params.AfterId
	}
	if params.Limit != nil {
		filter.Limit = *params.Limit
	}
	return filter
}

// ListHistory returns the history log, optionally narrowed to one order.
// (GET /api/v1/orders/historico)
func (s *Server) ListHistory(c echo.Context, params ListHistoryParams) error {
	records, err := s.History.List(c.Request().Context(), historyFilter(params))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, records)
}

// ListOrderHistory returns the history of one order.
// (GET /api/v1/orders/:id/historico)
func (s *Server) ListOrderHistory(c echo.Context, id int64, params ListHistoryParams) error {
	filter := historyFilter(params)
	filter.OrderID = id
	records, err := s.History.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, records)
}

type createReasonRequest struct {
	Description string `json:"description"`
}

// ListReasons returns the interruption reason catalog.
// (GET /api/v1/motivos-interrupcao)
func (s *Server) ListReasons(c echo.Context) error {
	reasons, err := s.Reasons.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reasons)
}

// CreateReason adds an interruption reason.
// (POST /api/v1/motivos-interrupcao)
func (s *Server) CreateReason(c echo.Context) error {
	var in createReasonRequest
	if err := bindBody(c, &in); err != nil {
		return err
	}
	reason, err := s.Reasons.Create(c.Request().Context(), in.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, reason)
}
