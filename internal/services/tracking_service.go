package services

import (
	"context"
	"strings"
	"time"

	"apontamento/backend/internal/logging"
	"apontamento/backend/internal/repository"
	"apontamento/backend/pkg/models"
)

// TrackingService maintains the tracking ledger and builds order reports.
type TrackingService struct {
	repo    repository.Repository
	logger  *logging.Logger
	metrics *Metrics
	now     func() time.Time
}

// NewTrackingService creates a new TrackingService.
func NewTrackingService(repo repository.Repository, logger *logging.Logger, metrics *Metrics) *TrackingService {
	return &TrackingService{
		repo:    repo,
		logger:  logger.Named("tracking"),
		metrics: metrics,
		now:     time.Now,
	}
}

// Start opens a tracking session on a stage. The worker is named by
// funcionarioId or employeeCode; actor is used when neither is given.
func (s *TrackingService) Start(ctx context.Context, in models.StartTracking, actor int64) (*models.TrackingEntry, error) {
	switch {
	case in.OrderID <= 0:
		return nil, models.Validationf("orderId is required")
	case in.StageID <= 0:
		return nil, models.Validationf("etapaId is required")
	case in.ProcessedQuantity < 0 || in.LostQuantity < 0:
		return nil, models.Validationf("quantities must not be negative")
	}

	employeeID := in.EmployeeID
	switch {
	case employeeID != 0:
	case strings.TrimSpace(in.EmployeeCode) != "":
		employee, err := s.repo.GetEmployeeByCode(ctx, strings.TrimSpace(in.EmployeeCode))
		if err != nil {
			return nil, asValidation(err, "unknown employeeCode %q", in.EmployeeCode)
		}
		employeeID = employee.ID
	case actor != 0:
		employeeID = actor
	default:
		return nil, models.Validationf("employeeCode or funcionarioId is required")
	}

	entry := &models.TrackingEntry{
		OrderID:           in.OrderID,
		StageID:           in.StageID,
		EmployeeID:        employeeID,
		StartedAt:         s.now().UTC(),
		ProcessedQuantity: in.ProcessedQuantity,
		LostQuantity:      in.LostQuantity,
	}
	if err := s.repo.StartTracking(ctx, entry); err != nil {
		return nil, err
	}
	s.metrics.trackingOpened(ctx)
	s.logger.Info("tracking started", "rastreamento_id", entry.ID, "order_id", entry.OrderID,
		"etapa_id", entry.StageID, "funcionario_id", entry.EmployeeID)
	return entry, nil
}

// End closes an active tracking session.
func (s *TrackingService) End(ctx context.Context, in models.EndTracking) (*models.TrackingEntry, error) {
	if in.TrackingID <= 0 {
		return nil, models.Validationf("tracking id is required")
	}
	if (in.ProcessedQuantity != nil && *in.ProcessedQuantity < 0) || (in.LostQuantity != nil && *in.LostQuantity < 0) {
		return nil, models.Validationf("quantities must not be negative")
	}
	in.Observation = trimmed(in.Observation)
	in.At = s.now().UTC()

	entry, err := s.repo.EndTracking(ctx, in)
	if err != nil {
		return nil, err
	}
	elapsed := entry.Elapsed(in.At)
	s.metrics.trackingClosed(ctx, elapsed.Seconds())
	s.logger.Info("tracking ended", "rastreamento_id", entry.ID, "order_id", entry.OrderID,
		"elapsed", elapsed.String(), "processed", entry.ProcessedQuantity, "lost", entry.LostQuantity)
	return entry, nil
}

// List returns every tracking entry of an order.
func (s *TrackingService) List(ctx context.Context, orderID int64) ([]*models.TrackingEntry, error) {
	return s.repo.ListTracking(ctx, orderID)
}

// Report aggregates the ledger of an order as of now.
func (s *TrackingService) Report(ctx context.Context, orderID int64) (*models.Report, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListTracking(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return BuildReport(order, entries, s.now().UTC()), nil
}
