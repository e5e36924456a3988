package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"apontamento/backend/pkg/models"
)

// ListOrders returns orders newest first.
// (GET /api/v1/orders)
func (s *Server) ListOrders(c echo.Context, params ListOrdersParams) error {
	filter := models.OrderFilter{}
	if params.Status != nil {
		filter.Status = models.OrderStatus(*params.Status)
	}
	if params.FuncionarioId != nil {
		filter.EmployeeID = *params.FuncionarioId
	}
	if params.Limit != nil {
		filter.Limit = *params.Limit
	}
	if params.Offset != nil {
		filter.Offset = *params.Offset
	}
	orders, err := s.Orders.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

// CreateOrder registers a new order.
// (POST /api/v1/orders)
func (s *Server) CreateOrder(c echo.Context) error {
	var in models.CreateOrder
	if err := bindBody(c, &in); err != nil {
		return err
	}
	order, err := s.Orders.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("%s/%d", c.Request().URL.Path, order.ID))
	return c.JSON(http.StatusCreated, order)
}

// GetOrder returns one order with its stages.
// (GET /api/v1/orders/:id)
func (s *Server) GetOrder(c echo.Context, id int64) error {
	order, err := s.Orders.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// TransitionOrder applies a status change.
// (PATCH /api/v1/orders/:id/status)
func (s *Server) TransitionOrder(c echo.Context, id int64) error {
	var change models.StatusChange
	if err := bindBody(c, &change); err != nil {
		return err
	}
	if change.Status == "" {
		return models.Validationf("status is required")
	}
	order, err := s.Orders.Transition(c.Request().Context(), id, change, actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// ListStages returns an order's stages.
// (GET /api/v1/orders/:id/etapas)
func (s *Server) ListStages(c echo.Context, id int64) error {
	stages, err := s.Orders.ListStages(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stages)
}

// CreateStage appends a stage to an order.
// (POST /api/v1/orders/:id/etapas)
func (s *Server) CreateStage(c echo.Context, id int64) error {
	var in models.CreateStage
	if err := bindBody(c, &in); err != nil {
		return err
	}
	stage, err := s.Orders.CreateStage(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, stage)
}
