package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"apontamento/backend/internal/logging"
	"apontamento/backend/internal/repository"
	"apontamento/backend/pkg/models"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type env struct {
	store    *repository.InMemoryStore
	orders   *OrderService
	tracking *TrackingService
	reasons  *ReasonService
	history  *HistoryService
	catalog  *CatalogService
	clock    *clock
	worker   *models.Employee
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithMeter(t, noop.NewMeterProvider().Meter("test"))
}

func newEnvWithMeter(t *testing.T, meter metric.Meter) *env {
	t.Helper()
	store := repository.NewInMemoryStore()
	metrics, err := NewMetrics(meter)
	require.NoError(t, err)
	logger := logging.Nop()
	c := &clock{t: time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC)}

	e := &env{
		store:    store,
		orders:   NewOrderService(store, logger, metrics),
		tracking: NewTrackingService(store, logger, metrics),
		reasons:  NewReasonService(store, logger),
		history:  NewHistoryService(store),
		catalog:  NewCatalogService(store, logger),
		clock:    c,
	}
	e.orders.now = c.now
	e.tracking.now = c.now
	e.reasons.now = c.now
	e.catalog.now = c.now

	ctx := context.Background()
	_, err = e.catalog.CreateProduct(ctx, models.Product{Code: "CAM-01", Name: "Camisa"})
	require.NoError(t, err)
	e.worker, err = e.catalog.CreateEmployee(ctx, models.Employee{Code: "F007", Name: "Ana", Email: "ana@fabrica.test"})
	require.NoError(t, err)
	return e
}

func (e *env) newOrder(t *testing.T) *models.Order {
	t.Helper()
	o, err := e.orders.Create(context.Background(), models.CreateOrder{
		ProductCode: "CAM-01", EmployeeCode: "F007", LotQuantity: 200, FinalDestination: "Loja Centro",
	})
	require.NoError(t, err)
	return o
}

func (e *env) newStage(t *testing.T, orderID int64, name string) *models.Stage {
	t.Helper()
	st, err := e.orders.CreateStage(context.Background(), orderID, models.CreateStage{Name: name, EmployeeCode: "F007"})
	require.NoError(t, err)
	return st
}

func (e *env) move(t *testing.T, orderID int64, to models.OrderStatus, reason *int64) *models.Order {
	t.Helper()
	e.clock.advance(time.Minute)
	o, err := e.orders.Transition(context.Background(), orderID, models.StatusChange{Status: to, MotivoInterrupcaoID: reason}, e.worker.ID)
	require.NoError(t, err)
	return o
}
