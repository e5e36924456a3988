package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"apontamento/backend/internal/logging"
	"apontamento/backend/internal/repository"
	"apontamento/backend/pkg/models"
)

const reasonsCacheKey = "motivos-interrupcao"

// ReasonService serves the interruption reason catalog. The list is rarely
// written, so it is cached without expiry and dropped on every create.
type ReasonService struct {
	repo   repository.ReasonStore
	cache  *cache.Cache
	logger *logging.Logger
	now    func() time.Time

	// generation counts creates; a list loaded under an older generation is
	// returned but not cached.
	mu         sync.Mutex
	generation uint64
}

// NewReasonService creates a new ReasonService.
func NewReasonService(repo repository.ReasonStore, logger *logging.Logger) *ReasonService {
	return &ReasonService{
		repo:   repo,
		cache:  cache.New(cache.NoExpiration, 0),
		logger: logger.Named("reasons"),
		now:    time.Now,
	}
}

// Create adds a reason. The description must not be blank.
func (s *ReasonService) Create(ctx context.Context, description string) (*models.InterruptionReason, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, models.Validationf("description is required")
	}
	reason := &models.InterruptionReason{Description: description, CreatedAt: s.now().UTC()}
	if err := s.repo.CreateReason(ctx, reason); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.generation++
	s.cache.Delete(reasonsCacheKey)
	s.mu.Unlock()
	s.logger.Info("interruption reason created", "motivo_id", reason.ID)
	return reason, nil
}

// Get returns one reason.
func (s *ReasonService) Get(ctx context.Context, id int64) (*models.InterruptionReason, error) {
	return s.repo.GetReason(ctx, id)
}

// List returns every reason ordered by id.
func (s *ReasonService) List(ctx context.Context) ([]*models.InterruptionReason, error) {
	if cached, found := s.cache.Get(reasonsCacheKey); found {
		return cloneReasons(cached.([]*models.InterruptionReason)), nil
	}
	s.mu.Lock()
	loadedAt := s.generation
	s.mu.Unlock()

	reasons, err := s.repo.ListReasons(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != loadedAt {
		s.logger.Debug("interruption reasons changed while loading, not caching")
		return reasons, nil
	}
	s.cache.SetDefault(reasonsCacheKey, cloneReasons(reasons))
	s.logger.Debug("interruption reasons loaded", "count", len(reasons))
	return reasons, nil
}

func cloneReasons(in []*models.InterruptionReason) []*models.InterruptionReason {
	out := make([]*models.InterruptionReason, len(in))
	for i, r := range in {
		c := *r
		out[i] = &c
	}
	return out
}
