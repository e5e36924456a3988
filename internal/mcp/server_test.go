package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"apontamento/backend/internal/auth"
	"apontamento/backend/internal/logging"
	"apontamento/backend/internal/repository"
	"apontamento/backend/internal/services"
	"apontamento/backend/pkg/models"
)

type fixture struct {
	srv    *Server
	store  *repository.InMemoryStore
	order  *models.Order
	stage  *models.Stage
	reason *models.InterruptionReason
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewInMemoryStore()
	logger := logging.Nop()
	metrics, err := services.NewMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	catalog := services.NewCatalogService(store, logger)
	orders := services.NewOrderService(store, logger, metrics)
	tracking := services.NewTrackingService(store, logger, metrics)
	reasons := services.NewReasonService(store, logger)

	_, err = catalog.CreateProduct(ctx, models.Product{Code: "CAM-01", Name: "Camisa"})
	require.NoError(t, err)
	_, err = catalog.CreateEmployee(ctx, models.Employee{Code: "F007", Name: "Ana"})
	require.NoError(t, err)
	order, err := orders.Create(ctx, models.CreateOrder{ProductCode: "CAM-01", EmployeeCode: "F007", LotQuantity: 50})
	require.NoError(t, err)
	stage, err := orders.CreateStage(ctx, order.ID, models.CreateStage{Name: "Costura"})
	require.NoError(t, err)
	reason, err := reasons.Create(ctx, "Máquina parada")
	require.NoError(t, err)

	return &fixture{srv: NewServer(orders, tracking, reasons), store: store, order: order, stage: stage, reason: reason}
}

func request(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestToolsDriveAnOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.srv.handleTransition(ctx, request(map[string]interface{}{
		"order_id": float64(f.order.ID), "status": "em_andamento",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	res, err = f.srv.handleStartTracking(ctx, request(map[string]interface{}{
		"order_id": float64(f.order.ID), "stage_id": float64(f.stage.ID), "employee_code": "F007",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	var entry models.TrackingEntry
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &entry))

	res, err = f.srv.handleEndTracking(ctx, request(map[string]interface{}{
		"tracking_id": float64(entry.ID), "processed": float64(20), "lost": float64(1), "observation": "ok",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	res, err = f.srv.handleTransition(ctx, request(map[string]interface{}{
		"order_id": float64(f.order.ID), "status": "interrompido", "reason_id": float64(f.reason.ID),
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	res, err = f.srv.handleReport(ctx, request(map[string]interface{}{"order_id": float64(f.order.ID)}))
	require.NoError(t, err)
	var report models.Report
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &report))
	assert.Equal(t, models.StatusInterrompido, report.Status)
	assert.Equal(t, 20, report.ProcessedQuantity)
	assert.InDelta(t, 95.24, report.YieldPercent, 0.001)

	res, err = f.srv.handleListOrders(ctx, request(map[string]interface{}{"status": "interrompido"}))
	require.NoError(t, err)
	var orders []models.Order
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &orders))
	assert.Len(t, orders, 1)

	res, err = f.srv.handleListReasons(ctx, request(nil))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "Máquina parada")
}

func TestToolErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]interface{}
		want    string
	}{
		{"missing order id", f.srv.handleTransition, map[string]interface{}{"status": "em_andamento"}, "order_id"},
		{"fractional id", f.srv.handleReport, map[string]interface{}{"order_id": 1.5}, "integer"},
		{"invalid transition", f.srv.handleTransition,
			map[string]interface{}{"order_id": float64(f.order.ID), "status": "finalizado"}, "Failed to change status"},
		{"interrupt without reason", f.srv.handleTransition,
			map[string]interface{}{"order_id": float64(f.order.ID), "status": "interrompido"}, "Failed to change status"},
		{"tracking on open order", f.srv.handleStartTracking,
			map[string]interface{}{"order_id": float64(f.order.ID), "stage_id": float64(f.stage.ID), "employee_code": "F007"}, "Failed to start tracking"},
		{"unknown tracking", f.srv.handleEndTracking, map[string]interface{}{"tracking_id": float64(42)}, "Failed to end tracking"},
		{"bad status filter", f.srv.handleListOrders, map[string]interface{}{"status": "parado"}, "Failed to list orders"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.handler(ctx, request(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, text(t, res), tt.want)
		})
	}
}

func TestInvalidArgumentsType(t *testing.T) {
	f := newFixture(t)
	var req mcp.CallToolRequest
	req.Params.Arguments = "not an object"
	res, err := f.srv.handleReport(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestRegisteredTools(t *testing.T) {
	f := newFixture(t)
	tools := f.srv.GetMCPServer().ListTools()
	for _, name := range []string{"list_orders", "list_interruption_reasons", "transition_order", "start_tracking", "end_tracking", "order_report"} {
		assert.Contains(t, tools, name)
	}
	assert.NotNil(t, f.srv.Handler())
}

func TestEndTrackingRecordsSessionEmployee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := &models.Employee{Code: "G001", Name: "Chefe", Email: "chefe@fabrica.test", Role: models.RoleGestor}
	require.NoError(t, f.store.CreateEmployee(ctx, boss))
	sessionCtx := auth.WithSession(ctx, &auth.Session{Role: boss.Role, EmployeeID: boss.ID, Email: boss.Email})

	res, err := f.srv.handleTransition(sessionCtx, request(map[string]interface{}{
		"order_id": float64(f.order.ID), "status": "em_andamento",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	res, err = f.srv.handleStartTracking(sessionCtx, request(map[string]interface{}{
		"order_id": float64(f.order.ID), "stage_id": float64(f.stage.ID), "employee_code": "F007",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	var entry models.TrackingEntry
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &entry))
	assert.NotEqual(t, boss.ID, entry.EmployeeID)

	res, err = f.srv.handleEndTracking(sessionCtx, request(map[string]interface{}{
		"tracking_id": float64(entry.ID), "processed": float64(10),
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	records, err := f.store.ListHistory(ctx, models.HistoryFilter{OrderID: f.order.ID, Type: models.HistoryEtapaEnd})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].EmployeeID)
	assert.Equal(t, boss.ID, *records[0].EmployeeID)
}
