package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apontamento/backend/pkg/models"
)

var fixtureSeq atomic.Int64

type fixture struct {
	employee *models.Employee
	product  *models.Product
	order    *models.Order
	stage    *models.Stage
	reason   *models.InterruptionReason
	now      time.Time
}

func newFixture(t *testing.T, repo Repository) *fixture {
	t.Helper()
	ctx := context.Background()
	n := fixtureSeq.Add(1)
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	emp := &models.Employee{
		Code: fmt.Sprintf("F%03d", n), Name: "Operador", Email: fmt.Sprintf("op%d@fabrica.test", n),
		Role: models.RoleFuncionario, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.CreateEmployee(ctx, emp))
	prod := &models.Product{Code: fmt.Sprintf("P%03d", n), Name: "Eixo", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.CreateProduct(ctx, prod))

	order := &models.Order{
		ProductID: prod.ID, EmployeeID: emp.ID, LotQuantity: 100, FinalDestination: "Expedição",
		Status: models.StatusAberto, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.CreateOrder(ctx, order))

	stage := &models.Stage{OrderID: order.ID, Name: "Corte", EmployeeID: emp.ID, CreatedAt: now}
	require.NoError(t, repo.CreateStage(ctx, stage))

	reason := &models.InterruptionReason{Description: "Falta de material", CreatedAt: now}
	require.NoError(t, repo.CreateReason(ctx, reason))

	return &fixture{employee: emp, product: prod, order: order, stage: stage, reason: reason, now: now}
}

func (f *fixture) transition(t *testing.T, repo Repository, from, to models.OrderStatus, closeTracking bool) *models.Order {
	t.Helper()
	f.now = f.now.Add(time.Minute)
	o, err := repo.TransitionOrder(context.Background(), models.Transition{
		OrderID: f.order.ID, From: from, To: to, At: f.now, CloseActiveTracking: closeTracking,
	})
	require.NoError(t, err)
	return o
}

// runStoreContract exercises behaviour every Repository implementation must share.
func runStoreContract(t *testing.T, repo Repository) {
	ctx := context.Background()

	t.Run("order round trip with stages", func(t *testing.T) {
		f := newFixture(t, repo)
		second := &models.Stage{OrderID: f.order.ID, Name: "Solda", EmployeeID: f.employee.ID, CreatedAt: f.now}
		require.NoError(t, repo.CreateStage(ctx, second))
		assert.Equal(t, 1, second.Position)

		got, err := repo.GetOrder(ctx, f.order.ID)
		require.NoError(t, err)
		assert.Equal(t, f.product.Code, got.ProductCode)
		assert.Equal(t, f.employee.Code, got.EmployeeCode)
		assert.Equal(t, models.StatusAberto, got.Status)
		require.Len(t, got.Stages, 2)
		assert.Equal(t, "Corte", got.Stages[0].Name)
		assert.Equal(t, "Solda", got.Stages[1].Name)
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := repo.GetOrder(ctx, 987654)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("transition compare and swap", func(t *testing.T) {
		f := newFixture(t, repo)
		f.transition(t, repo, models.StatusAberto, models.StatusEmAndamento, false)

		_, err := repo.TransitionOrder(ctx, models.Transition{
			OrderID: f.order.ID, From: models.StatusAberto, To: models.StatusEmAndamento, At: f.now,
		})
		assert.ErrorIs(t, err, models.ErrStatusChanged)

		_, err = repo.TransitionOrder(ctx, models.Transition{
			OrderID: 987654, From: models.StatusAberto, To: models.StatusEmAndamento, At: f.now,
		})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("unknown reason is a validation error", func(t *testing.T) {
		f := newFixture(t, repo)
		f.transition(t, repo, models.StatusAberto, models.StatusEmAndamento, false)
		missing := int64(987654)
		_, err := repo.TransitionOrder(ctx, models.Transition{
			OrderID: f.order.ID, From: models.StatusEmAndamento, To: models.StatusInterrompido,
			ReasonID: &missing, At: f.now.Add(time.Minute),
		})
		assert.ErrorIs(t, err, models.ErrValidation)

		got, err := repo.GetOrder(ctx, f.order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusEmAndamento, got.Status)
	})

	t.Run("full lifecycle history", func(t *testing.T) {
		f := newFixture(t, repo)
		f.transition(t, repo, models.StatusAberto, models.StatusEmAndamento, false)

		f.now = f.now.Add(time.Minute)
		_, err := repo.TransitionOrder(ctx, models.Transition{
			OrderID: f.order.ID, From: models.StatusEmAndamento, To: models.StatusInterrompido,
			ReasonID: &f.reason.ID, At: f.now, CloseActiveTracking: true,
		})
		require.NoError(t, err)
		f.transition(t, repo, models.StatusInterrompido, models.StatusEmAndamento, false)
		final := f.transition(t, repo, models.StatusEmAndamento, models.StatusFinalizado, true)
		assert.Equal(t, models.StatusFinalizado, final.Status)

		records, err := repo.ListHistory(ctx, models.HistoryFilter{OrderID: f.order.ID})
		require.NoError(t, err)
		require.Len(t, records, 4)
		for _, r := range records {
			assert.Equal(t, models.HistoryStatusChange, r.Type)
		}
		assert.Equal(t, models.StatusAberto, *records[0].PreviousStatus)
		require.NotNil(t, records[1].ReasonID)
		assert.Equal(t, f.reason.ID, *records[1].ReasonID)
		assert.Equal(t, models.StatusFinalizado, *records[3].NewStatus)
	})

	t.Run("history pages past a full page", func(t *testing.T) {
		f := newFixture(t, repo)
		f.transition(t, repo, models.StatusAberto, models.StatusEmAndamento, false)
		for i := 0; i < 300; i++ {
			f.now = f.now.Add(time.Minute)
			_, err := repo.TransitionOrder(ctx, models.Transition{
				OrderID: f.order.ID, From: models.StatusEmAndamento, To: models.StatusInterrompido,
				ReasonID: &f.reason.ID, At: f.now, CloseActiveTracking: true,
			})
			require.NoError(t, err)
			f.transition(t, repo, models.StatusInterrompido, models.StatusEmAndamento, false)
		}
		f.transition(t, repo, models.StatusEmAndamento, models.StatusFinalizado, true)

		filter := models.HistoryFilter{OrderID: f.order.ID, Limit: 500}
		first, err := repo.ListHistory(ctx, filter)
		require.NoError(t, err)
		require.Len(t, first, 500)

		filter.AfterID = first[len(first)-1].ID
		rest, err := repo.ListHistory(ctx, filter)
		require.NoError(t, err)
		require.Len(t, rest, 102)
		assert.Greater(t, rest[0].ID, first[499].ID)
		last := rest[len(rest)-1]
		require.NotNil(t, last.NewStatus)
		assert.Equal(t, models.StatusFinalizado, *last.NewStatus)

		filter.AfterID = last.ID
		empty, err := repo.ListHistory(ctx, filter)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("tracking requires a running order", func(t *testing.T) {
		f := newFixture(t, repo)
		err := repo.StartTracking(ctx, &models.TrackingEntry{
			OrderID: f.order.ID, StageID: f.stage.ID, EmployeeID: f.employee.ID, StartedAt: f.now,
		})
		assert.ErrorIs(t, err, models.ErrOrderNotRunning)
	})

	t.Run("one active tracking entry per order", func(t *testing.T) {
		f := newFixture(t, repo)
		f.transition(t, repo, models.StatusAberto, models.StatusEmAndamento, false)

		first := &models.TrackingEntry{OrderID: f.order.ID, StageID: f.stage.ID, EmployeeID: f.employee.ID, StartedAt: f.now}
		require.NoError(t, repo.StartTracking(ctx, first))
		second := &models.TrackingEntry{OrderID: f.order.ID, StageID: f.stage.ID, EmployeeID: f.employee.ID, StartedAt: f.now}
		assert.ErrorIs(t, repo.StartTracking(ctx, second), models.ErrTrackingActive)

		processed := 40
		ended, err := repo.EndTracking(ctx, models.EndTracking{
			TrackingID: first.ID, ProcessedQuantity: &processed, At: f.now.Add(30 * time.Minute),
		})
		require.NoError(t, err)
		assert.False(t, ended.Active())
		assert.Equal(t, 40, ended.ProcessedQuantity)

		_, err = repo.EndTracking(ctx, models.EndTracking{TrackingID: first.ID, At: f.now.Add(time.Hour)})
		assert.ErrorIs(t, err, models.ErrTrackingNotActive)
		_, err = repo.EndTracking(ctx, models.EndTracking{TrackingID: 987654, At: f.now})
		assert.ErrorIs(t, err, models.ErrNotFound)

		stages, err := repo.ListStages(ctx, f.order.ID)
		require.NoError(t, err)
		require.NotNil(t, stages[0].StartedAt)
		require.NotNil(t, stages[0].EndedAt)

		records, err := repo.ListHistory(ctx, models.HistoryFilter{OrderID: f.order.ID})
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, models.HistoryEtapaStart, records[1].Type)
		assert.Equal(t, models.HistoryEtapaEnd, records[2].Type)
	})

	t.Run("concurrent starts admit exactly one", func(t *testing.T) {
		f := newFixture(t, repo)
		f.transition(t, repo, models.StatusAberto, models.StatusEmAndamento, false)

		const workers = 8
		var (
			wg        sync.WaitGroup
			succeeded atomic.Int32
			conflicts atomic.Int32
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.StartTracking(ctx, &models.TrackingEntry{
					OrderID: f.order.ID, StageID: f.stage.ID, EmployeeID: f.employee.ID, StartedAt: f.now,
				})
				switch {
				case err == nil:
					succeeded.Add(1)
				case assert.ErrorIs(t, err, models.ErrTrackingActive):
					conflicts.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.EqualValues(t, 1, succeeded.Load())
		assert.EqualValues(t, workers-1, conflicts.Load())
	})

	t.Run("interrupt closes the active entry", func(t *testing.T) {
		f := newFixture(t, repo)
		f.transition(t, repo, models.StatusAberto, models.StatusEmAndamento, false)
		entry := &models.TrackingEntry{OrderID: f.order.ID, StageID: f.stage.ID, EmployeeID: f.employee.ID, StartedAt: f.now}
		require.NoError(t, repo.StartTracking(ctx, entry))

		f.transition(t, repo, models.StatusEmAndamento, models.StatusInterrompido, true)

		entries, err := repo.ListTracking(ctx, f.order.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.False(t, entries[0].Active())

		records, err := repo.ListHistory(ctx, models.HistoryFilter{OrderID: f.order.ID, Type: models.HistoryEtapaEnd})
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("list orders filters", func(t *testing.T) {
		f := newFixture(t, repo)
		f.transition(t, repo, models.StatusAberto, models.StatusEmAndamento, false)

		running, err := repo.ListOrders(ctx, models.OrderFilter{Status: models.StatusEmAndamento, EmployeeID: f.employee.ID})
		require.NoError(t, err)
		require.Len(t, running, 1)
		assert.Equal(t, f.order.ID, running[0].ID)

		open, err := repo.ListOrders(ctx, models.OrderFilter{Status: models.StatusAberto, EmployeeID: f.employee.ID})
		require.NoError(t, err)
		assert.Empty(t, open)
	})

	t.Run("catalog uniqueness and references", func(t *testing.T) {
		f := newFixture(t, repo)
		dup := &models.Product{Code: f.product.Code, Name: "Outro", CreatedAt: f.now, UpdatedAt: f.now}
		assert.ErrorIs(t, repo.CreateProduct(ctx, dup), models.ErrConflict)

		assert.ErrorIs(t, repo.DeleteProduct(ctx, f.product.ID), models.ErrConflict)
		assert.ErrorIs(t, repo.DeleteSector(ctx, 987654), models.ErrNotFound)

		byEmail, err := repo.GetEmployeeByEmail(ctx, f.employee.Email)
		require.NoError(t, err)
		assert.Equal(t, f.employee.ID, byEmail.ID)

		sector := &models.Sector{Name: "Usinagem", CreatedAt: f.now, UpdatedAt: f.now}
		require.NoError(t, repo.CreateSector(ctx, sector))
		sector.Description = "Tornos CNC"
		require.NoError(t, repo.UpdateSector(ctx, sector))
		got, err := repo.GetSector(ctx, sector.ID)
		require.NoError(t, err)
		assert.Equal(t, "Tornos CNC", got.Description)
		require.NoError(t, repo.DeleteSector(ctx, sector.ID))
	})
}
