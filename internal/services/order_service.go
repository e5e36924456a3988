package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"apontamento/backend/internal/logging"
	"apontamento/backend/internal/repository"
	"apontamento/backend/pkg/models"
)

// maxPageSize caps list queries.
const maxPageSize = 500

// OrderService runs the order lifecycle: creation, stages and status
// transitions.
type OrderService struct {
	repo    repository.Repository
	logger  *logging.Logger
	metrics *Metrics
	now     func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(repo repository.Repository, logger *logging.Logger, metrics *Metrics) *OrderService {
	return &OrderService{
		repo:    repo,
		logger:  logger.Named("orders"),
		metrics: metrics,
		now:     time.Now,
	}
}

// Create registers a new order in status aberto. Product and employee are
// referenced by code.
func (s *OrderService) Create(ctx context.Context, in models.CreateOrder) (*models.Order, error) {
	in.ProductCode = strings.TrimSpace(in.ProductCode)
	in.EmployeeCode = strings.TrimSpace(in.EmployeeCode)
	in.FinalDestination = strings.TrimSpace(in.FinalDestination)
	switch {
	case in.ProductCode == "":
		return nil, models.Validationf("productCode is required")
	case in.EmployeeCode == "":
		return nil, models.Validationf("employeeCode is required")
	case in.LotQuantity <= 0:
		return nil, models.Validationf("lotQuantity must be positive")
	}

	product, err := s.repo.GetProductByCode(ctx, in.ProductCode)
	if err != nil {
		return nil, asValidation(err, "unknown productCode %q", in.ProductCode)
	}
	employee, err := s.repo.GetEmployeeByCode(ctx, in.EmployeeCode)
	if err != nil {
		return nil, asValidation(err, "unknown employeeCode %q", in.EmployeeCode)
	}

	now := s.now().UTC()
	order := &models.Order{
		ProductID:        product.ID,
		ProductCode:      product.Code,
		EmployeeID:       employee.ID,
		EmployeeCode:     employee.Code,
		LotQuantity:      in.LotQuantity,
		FinalDestination: in.FinalDestination,
		Status:           models.StatusAberto,
		CreatedAt:        now,
		UpdatedAt:        now,
		Stages:           []*models.Stage{},
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	s.logger.Info("order created", "order_id", order.ID, "product", product.Code, "lot", order.LotQuantity)
	return withNextStatuses(order), nil
}

// Get returns an order with its stages.
func (s *OrderService) Get(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return withNextStatuses(order), nil
}

// List returns orders newest first.
func (s *OrderService) List(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, models.Validationf("unknown status %q", filter.Status)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, models.Validationf("limit and offset must not be negative")
	}
	if filter.Limit == 0 || filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	orders, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		withNextStatuses(o)
	}
	return orders, nil
}

// Transition moves an order to change.Status. actor is the authenticated
// employee and is recorded when the request names no funcionarioId.
// Interrupting requires an existing interruption reason. Leaving em_andamento
// closes the open tracking session.
func (s *OrderService) Transition(ctx context.Context, id int64, change models.StatusChange, actor int64) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	event, err := ValidateTransition(ctx, order.Status, change.Status)
	if err != nil {
		s.metrics.transitionRejected(ctx, "invalid")
		return nil, err
	}

	t := models.Transition{
		OrderID:             id,
		From:                order.Status,
		To:                  change.Status,
		EmployeeID:          change.EmployeeID,
		Observation:         trimmed(change.Observation),
		At:                  s.now().UTC(),
		CloseActiveTracking: leavesRunning(order.Status),
	}
	if t.EmployeeID == nil && actor != 0 {
		t.EmployeeID = &actor
	}
	if event == EventInterrupt {
		reasonID := change.ReasonID()
		if reasonID == nil {
			s.metrics.transitionRejected(ctx, "missing_reason")
			return nil, models.Validationf("motivoInterrupcaoId is required to interrupt an order")
		}
		if _, err := s.repo.GetReason(ctx, *reasonID); err != nil {
			return nil, asValidation(err, "interruption reason %d does not exist", *reasonID)
		}
		t.ReasonID = reasonID
	}

	updated, err := s.repo.TransitionOrder(ctx, t)
	if err != nil {
		if errors.Is(err, models.ErrStatusChanged) {
			s.metrics.transitionRejected(ctx, "concurrent")
			s.logger.Warn("order status changed concurrently", "order_id", id, "from", t.From, "to", t.To)
		}
		return nil, err
	}
	s.metrics.transitioned(ctx, event)
	s.logger.Info("order transitioned", "order_id", id, "event", event, "from", t.From, "to", t.To)
	return withNextStatuses(updated), nil
}

func withNextStatuses(o *models.Order) *models.Order {
	o.NextStatuses = NextStatuses(o.Status)
	return o
}

// CreateStage appends a stage to an order. The assignee is given either by id
// or by employee code.
func (s *OrderService) CreateStage(ctx context.Context, orderID int64, in models.CreateStage) (*models.Stage, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.Validationf("stage name is required")
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.StatusFinalizado {
		return nil, models.ErrOrderFinished
	}

	employeeID := in.EmployeeID
	switch {
	case employeeID != 0:
		if _, err := s.repo.GetEmployee(ctx, employeeID); err != nil {
			return nil, asValidation(err, "employee %d does not exist", employeeID)
		}
	case strings.TrimSpace(in.EmployeeCode) != "":
		employee, err := s.repo.GetEmployeeByCode(ctx, strings.TrimSpace(in.EmployeeCode))
		if err != nil {
			return nil, asValidation(err, "unknown employeeCode %q", in.EmployeeCode)
		}
		employeeID = employee.ID
	default:
		employeeID = order.EmployeeID
	}

	stage := &models.Stage{
		OrderID:    orderID,
		Name:       name,
		EmployeeID: employeeID,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.CreateStage(ctx, stage); err != nil {
		return nil, err
	}
	s.logger.Info("stage created", "order_id", orderID, "etapa_id", stage.ID, "position", stage.Position)
	return stage, nil
}

// ListStages returns an order's stages in sequence.
func (s *OrderService) ListStages(ctx context.Context, orderID int64) ([]*models.Stage, error) {
	return s.repo.ListStages(ctx, orderID)
}

// asValidation turns a not-found lookup of a referenced entity into a
// validation error; other errors pass through.
func asValidation(err error, format string, args ...any) error {
	if errors.Is(err, models.ErrNotFound) {
		return models.Validationf(format, args...)
	}
	return err
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
