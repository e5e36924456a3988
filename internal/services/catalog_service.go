package services

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"apontamento/backend/internal/logging"
	"apontamento/backend/internal/repository"
	"apontamento/backend/pkg/models"
)

// CatalogService manages sectors, products and employees.
type CatalogService struct {
	repo   repository.CatalogStore
	logger *logging.Logger
	now    func() time.Time
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo repository.CatalogStore, logger *logging.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger.Named("catalog"), now: time.Now}
}

// ---- sectors ----

func (s *CatalogService) CreateSector(ctx context.Context, in models.Sector) (*models.Sector, error) {
	if err := normalizeSector(&in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	in.ID, in.CreatedAt, in.UpdatedAt = 0, now, now
	if err := s.repo.CreateSector(ctx, &in); err != nil {
		return nil, err
	}
	s.logger.Info("sector created", "setor_id", in.ID)
	return &in, nil
}

func (s *CatalogService) GetSector(ctx context.Context, id int64) (*models.Sector, error) {
	return s.repo.GetSector(ctx, id)
}

func (s *CatalogService) ListSectors(ctx context.Context) ([]*models.Sector, error) {
	return s.repo.ListSectors(ctx)
}

func (s *CatalogService) UpdateSector(ctx context.Context, id int64, in models.Sector) (*models.Sector, error) {
	if err := normalizeSector(&in); err != nil {
		return nil, err
	}
	in.ID, in.UpdatedAt = id, s.now().UTC()
	if err := s.repo.UpdateSector(ctx, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func (s *CatalogService) DeleteSector(ctx context.Context, id int64) error {
	if err := s.repo.DeleteSector(ctx, id); err != nil {
		return err
	}
	s.logger.Info("sector deleted", "setor_id", id)
	return nil
}

func normalizeSector(in *models.Sector) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return models.Validationf("name is required")
	}
	return nil
}

// ---- products ----

func (s *CatalogService) CreateProduct(ctx context.Context, in models.Product) (*models.Product, error) {
	if err := normalizeProduct(&in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	in.ID, in.CreatedAt, in.UpdatedAt = 0, now, now
	if err := s.repo.CreateProduct(ctx, &in); err != nil {
		return nil, err
	}
	s.logger.Info("product created", "produto_id", in.ID, "code", in.Code)
	return &in, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, in models.Product) (*models.Product, error) {
	if err := normalizeProduct(&in); err != nil {
		return nil, err
	}
	in.ID, in.UpdatedAt = id, s.now().UTC()
	if err := s.repo.UpdateProduct(ctx, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", "produto_id", id)
	return nil
}

func normalizeProduct(in *models.Product) error {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	switch {
	case in.Code == "":
		return models.Validationf("code is required")
	case in.Name == "":
		return models.Validationf("name is required")
	}
	return nil
}

// ---- employees ----

func (s *CatalogService) CreateEmployee(ctx context.Context, in models.Employee) (*models.Employee, error) {
	if err := normalizeEmployee(&in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	in.ID, in.CreatedAt, in.UpdatedAt = 0, now, now
	if err := s.repo.CreateEmployee(ctx, &in); err != nil {
		return nil, err
	}
	s.logger.Info("employee created", "funcionario_id", in.ID, "code", in.Code, "role", in.Role)
	return &in, nil
}

func (s *CatalogService) GetEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	return s.repo.GetEmployee(ctx, id)
}

func (s *CatalogService) ListEmployees(ctx context.Context) ([]*models.Employee, error) {
	return s.repo.ListEmployees(ctx)
}

func (s *CatalogService) UpdateEmployee(ctx context.Context, id int64, in models.Employee) (*models.Employee, error) {
	if err := normalizeEmployee(&in); err != nil {
		return nil, err
	}
	in.ID, in.UpdatedAt = id, s.now().UTC()
	if err := s.repo.UpdateEmployee(ctx, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func (s *CatalogService) DeleteEmployee(ctx context.Context, id int64) error {
	if err := s.repo.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	s.logger.Info("employee deleted", "funcionario_id", id)
	return nil
}

func normalizeEmployee(in *models.Employee) error {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = models.RoleFuncionario
	}
	switch {
	case in.Code == "":
		return models.Validationf("code is required")
	case in.Name == "":
		return models.Validationf("name is required")
	case !in.Role.Valid():
		return models.Validationf("unknown role %q", in.Role)
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return models.Validationf("invalid email %q", in.Email)
		}
	}
	return nil
}
