package services

import (
	"context"

	"apontamento/backend/internal/repository"
	"apontamento/backend/pkg/models"
)

// HistoryService reads the audit log.
type HistoryService struct {
	repo repository.Repository
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(repo repository.Repository) *HistoryService {
	return &HistoryService{repo: repo}
}

// List returns history records oldest first. A non-zero OrderID must name an
// existing order.
func (s *HistoryService) List(ctx context.Context, filter models.HistoryFilter) ([]*models.HistoryRecord, error) {
	switch filter.Type {
	case "", models.HistoryStatusChange, models.HistoryEtapaStart, models.HistoryEtapaEnd:
	default:
		return nil, models.Validationf("unknown history type %q", filter.Type)
	}
	if filter.Limit < 0 {
		return nil, models.Validationf("limit must not be negative")
	}
	if filter.AfterID < 0 {
		return nil, models.Validationf("afterId must not be negative")
	}
	if filter.Limit == 0 || filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.OrderID != 0 {
		if _, err := s.repo.GetOrder(ctx, filter.OrderID); err != nil {
			return nil, err
		}
	}
	return s.repo.ListHistory(ctx, filter)
}
