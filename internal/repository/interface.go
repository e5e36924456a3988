package repository

import (
	"context"

	"apontamento/backend/pkg/models"
)

// OrderStore persists production orders. TransitionOrder is the only way an
// order's status changes: it applies the change only if the order is still in
// t.From and appends the status_change history record atomically.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error)
	TransitionOrder(ctx context.Context, t models.Transition) (*models.Order, error)
}

// StageStore persists the stages (etapas) of an order.
type StageStore interface {
	CreateStage(ctx context.Context, stage *models.Stage) error
	ListStages(ctx context.Context, orderID int64) ([]*models.Stage, error)
}

// TrackingStore is the tracking ledger. StartTracking fails with
// models.ErrTrackingActive when the order already has an open entry, and
// EndTracking fails with models.ErrTrackingNotActive when the entry is already
// closed. Both append the matching etapa_start / etapa_end record.
type TrackingStore interface {
	StartTracking(ctx context.Context, entry *models.TrackingEntry) error
	EndTracking(ctx context.Context, end models.EndTracking) (*models.TrackingEntry, error)
	ListTracking(ctx context.Context, orderID int64) ([]*models.TrackingEntry, error)
}

// ReasonStore persists the interruption reason catalog.
type ReasonStore interface {
	CreateReason(ctx context.Context, reason *models.InterruptionReason) error
	GetReason(ctx context.Context, id int64) (*models.InterruptionReason, error)
	ListReasons(ctx context.Context) ([]*models.InterruptionReason, error)
}

// HistoryStore reads the append-only history log. Records are written only as
// side effects of OrderStore and TrackingStore operations.
type HistoryStore interface {
	ListHistory(ctx context.Context, filter models.HistoryFilter) ([]*models.HistoryRecord, error)
}

// CatalogStore persists sectors, products and employees.
type CatalogStore interface {
	CreateSector(ctx context.Context, sector *models.Sector) error
	GetSector(ctx context.Context, id int64) (*models.Sector, error)
	ListSectors(ctx context.Context) ([]*models.Sector, error)
	UpdateSector(ctx context.Context, sector *models.Sector) error
	DeleteSector(ctx context.Context, id int64) error

	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetProductByCode(ctx context.Context, code string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error

	CreateEmployee(ctx context.Context, employee *models.Employee) error
	GetEmployee(ctx context.Context, id int64) (*models.Employee, error)
	GetEmployeeByCode(ctx context.Context, code string) (*models.Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error)
	ListEmployees(ctx context.Context) ([]*models.Employee, error)
	UpdateEmployee(ctx context.Context, employee *models.Employee) error
	DeleteEmployee(ctx context.Context, id int64) error
}

// Repository is the full persistence surface of the service.
type Repository interface {
	OrderStore
	StageStore
	TrackingStore
	ReasonStore
	HistoryStore
	CatalogStore
	Ping(ctx context.Context) error
}
