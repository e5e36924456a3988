package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apontamento/backend/pkg/models"
)

func TestOrderService_CreateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := map[string]models.CreateOrder{
		"missing product":  {EmployeeCode: "F007", LotQuantity: 1},
		"missing employee": {ProductCode: "CAM-01", LotQuantity: 1},
		"zero lot":         {ProductCode: "CAM-01", EmployeeCode: "F007"},
		"unknown product":  {ProductCode: "XXX", EmployeeCode: "F007", LotQuantity: 1},
		"unknown employee": {ProductCode: "CAM-01", EmployeeCode: "F999", LotQuantity: 1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.orders.Create(ctx, in)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestOrderService_Create(t *testing.T) {
	e := newEnv(t)
	o := e.newOrder(t)

	assert.Equal(t, models.StatusAberto, o.Status)
	assert.Equal(t, "CAM-01", o.ProductCode)
	assert.Equal(t, e.worker.ID, o.EmployeeID)
	assert.Equal(t, e.clock.t, o.CreatedAt)
}

func TestOrderService_LifecycleHistory(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.newOrder(t)

	// Reason ids are sequential, so the fifth reason gets id 5.
	var reason *models.InterruptionReason
	for _, d := range []string{"Setup", "Quebra", "Energia", "Almoço", "Falta de material"} {
		var err error
		reason, err = e.reasons.Create(ctx, d)
		require.NoError(t, err)
	}
	require.EqualValues(t, 5, reason.ID)

	e.move(t, o.ID, models.StatusEmAndamento, nil)
	e.move(t, o.ID, models.StatusInterrompido, &reason.ID)
	e.move(t, o.ID, models.StatusEmAndamento, nil)
	final := e.move(t, o.ID, models.StatusFinalizado, nil)
	assert.Equal(t, models.StatusFinalizado, final.Status)

	records, err := e.history.List(ctx, models.HistoryFilter{OrderID: o.ID})
	require.NoError(t, err)
	require.Len(t, records, 4)

	want := [][2]models.OrderStatus{
		{models.StatusAberto, models.StatusEmAndamento},
		{models.StatusEmAndamento, models.StatusInterrompido},
		{models.StatusInterrompido, models.StatusEmAndamento},
		{models.StatusEmAndamento, models.StatusFinalizado},
	}
	for i, r := range records {
		assert.Equal(t, models.HistoryStatusChange, r.Type)
		assert.Equal(t, want[i][0], *r.PreviousStatus)
		assert.Equal(t, want[i][1], *r.NewStatus)
		require.NotNil(t, r.EmployeeID)
		assert.Equal(t, e.worker.ID, *r.EmployeeID)
	}
	require.NotNil(t, records[1].ReasonID)
	assert.EqualValues(t, 5, *records[1].ReasonID)
	assert.Nil(t, records[0].ReasonID)
	assert.Nil(t, records[2].ReasonID)
}

func TestOrderService_InterruptRequiresReason(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.newOrder(t)
	e.move(t, o.ID, models.StatusEmAndamento, nil)

	_, err := e.orders.Transition(ctx, o.ID, models.StatusChange{Status: models.StatusInterrompido}, 0)
	assert.ErrorIs(t, err, models.ErrValidation)

	missing := int64(42)
	_, err = e.orders.Transition(ctx, o.ID, models.StatusChange{Status: models.StatusInterrompido, MotivoID: &missing}, 0)
	assert.ErrorIs(t, err, models.ErrValidation)

	got, err := e.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEmAndamento, got.Status)
}

func TestOrderService_RejectsJumps(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.newOrder(t)

	_, err := e.orders.Transition(ctx, o.ID, models.StatusChange{Status: models.StatusFinalizado}, 0)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	records, err := e.history.List(ctx, models.HistoryFilter{OrderID: o.ID})
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = e.orders.Transition(ctx, 9999, models.StatusChange{Status: models.StatusEmAndamento}, 0)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestOrderService_ConcurrentTransitions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.newOrder(t)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.orders.Transition(ctx, o.ID, models.StatusChange{Status: models.StatusEmAndamento}, 0)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, models.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)

	records, err := e.history.List(ctx, models.HistoryFilter{OrderID: o.ID})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestOrderService_FinishClosesTracking(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.newOrder(t)
	st := e.newStage(t, o.ID, "Corte")
	e.move(t, o.ID, models.StatusEmAndamento, nil)

	_, err := e.tracking.Start(ctx, models.StartTracking{OrderID: o.ID, StageID: st.ID, EmployeeCode: "F007"}, 0)
	require.NoError(t, err)
	e.clock.advance(time.Hour)
	e.move(t, o.ID, models.StatusFinalizado, nil)

	entries, err := e.tracking.List(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Active())

	types := []models.HistoryType{}
	records, err := e.history.List(ctx, models.HistoryFilter{OrderID: o.ID})
	require.NoError(t, err)
	for _, r := range records {
		types = append(types, r.Type)
	}
	assert.Equal(t, []models.HistoryType{
		models.HistoryStatusChange, models.HistoryEtapaStart, models.HistoryEtapaEnd, models.HistoryStatusChange,
	}, types)
}

func TestOrderService_Stages(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.newOrder(t)

	_, err := e.orders.CreateStage(ctx, o.ID, models.CreateStage{Name: "  "})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = e.orders.CreateStage(ctx, o.ID, models.CreateStage{Name: "Costura", EmployeeCode: "nope"})
	assert.ErrorIs(t, err, models.ErrValidation)

	first := e.newStage(t, o.ID, "Corte")
	second, err := e.orders.CreateStage(ctx, o.ID, models.CreateStage{Name: "Costura"})
	require.NoError(t, err)
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position)
	assert.Equal(t, o.EmployeeID, second.EmployeeID)

	stages, err := e.orders.ListStages(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "Costura", stages[1].Name)

	e.move(t, o.ID, models.StatusEmAndamento, nil)
	e.move(t, o.ID, models.StatusFinalizado, nil)
	_, err = e.orders.CreateStage(ctx, o.ID, models.CreateStage{Name: "Embalagem"})
	assert.ErrorIs(t, err, models.ErrOrderFinished)
}

func TestOrderService_ListFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newOrder(t)
	b := e.newOrder(t)
	e.move(t, b.ID, models.StatusEmAndamento, nil)

	all, err := e.orders.List(ctx, models.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID)

	open, err := e.orders.List(ctx, models.OrderFilter{Status: models.StatusAberto})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, a.ID, open[0].ID)

	_, err = e.orders.List(ctx, models.OrderFilter{Status: "pausado"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestOrderService_NextStatuses(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.newOrder(t)
	assert.Equal(t, []models.OrderStatus{models.StatusEmAndamento}, o.NextStatuses)

	running := e.move(t, o.ID, models.StatusEmAndamento, nil)
	assert.ElementsMatch(t, []models.OrderStatus{models.StatusInterrompido, models.StatusFinalizado}, running.NextStatuses)

	got, err := e.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, running.NextStatuses, got.NextStatuses)

	e.move(t, o.ID, models.StatusFinalizado, nil)
	list, err := e.orders.List(ctx, models.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].NextStatuses)
	assert.Empty(t, list[0].NextStatuses)
}
