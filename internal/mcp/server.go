// Package mcp exposes the production tracking operations as MCP tools so
// assistants on the shop floor can query and drive orders.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"apontamento/backend/internal/auth"
	"apontamento/backend/internal/services"
	"apontamento/backend/pkg/models"
)

// BasePath is where the SSE transport is mounted.
const BasePath = "/mcp"

type Server struct {
	mcpServer *server.MCPServer
	orders    *services.OrderService
	tracking  *services.TrackingService
	reasons   *services.ReasonService
}

func NewServer(orders *services.OrderService, tracking *services.TrackingService, reasons *services.ReasonService) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Apontamento",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		orders:   orders,
		tracking: tracking,
		reasons:  reasons,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_orders",
			mcp.WithDescription("List production orders, newest first"),
			mcp.WithString("status", mcp.Description("Filter by status: aberto, em_andamento, interrompido or finalizado")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of orders to return")),
		),
		s.handleListOrders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_interruption_reasons",
			mcp.WithDescription("List the catalog of interruption reasons"),
		),
		s.handleListReasons,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"transition_order",
			mcp.WithDescription("Change the status of a production order"),
			mcp.WithNumber("order_id", mcp.Required(), mcp.Description("The order id")),
			mcp.WithString("status", mcp.Required(), mcp.Description("The target status")),
			mcp.WithNumber("reason_id", mcp.Description("Interruption reason, required when interrupting")),
			mcp.WithNumber("employee_id", mcp.Description("Employee performing the change")),
		),
		s.handleTransition,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"start_tracking",
			mcp.WithDescription("Open a tracking session on a stage of a running order"),
			mcp.WithNumber("order_id", mcp.Required(), mcp.Description("The order id")),
			mcp.WithNumber("stage_id", mcp.Required(), mcp.Description("The stage (etapa) id")),
			mcp.WithString("employee_code", mcp.Description("Code of the employee doing the work")),
		),
		s.handleStartTracking,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"end_tracking",
			mcp.WithDescription("Close a tracking session and record quantities"),
			mcp.WithNumber("tracking_id", mcp.Required(), mcp.Description("The tracking entry id")),
			mcp.WithNumber("processed", mcp.Description("Units processed")),
			mcp.WithNumber("lost", mcp.Description("Units lost")),
			mcp.WithString("observation", mcp.Description("Free text note")),
		),
		s.handleEndTracking,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"order_report",
			mcp.WithDescription("Productivity report for an order"),
			mcp.WithNumber("order_id", mcp.Required(), mcp.Description("The order id")),
		),
		s.handleReport,
	)
}

func arguments(request mcp.CallToolRequest) (map[string]interface{}, bool) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok && request.Params.Arguments == nil {
		return map[string]interface{}{}, true
	}
	return args, ok
}

// intArg reads a JSON number argument. Present reports whether it was set.
func intArg(args map[string]interface{}, key string) (value int64, present bool, err error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	f, ok := raw.(float64)
	if !ok || f != float64(int64(f)) {
		return 0, true, fmt.Errorf("parameter %s must be an integer", key)
	}
	return int64(f), true, nil
}

func requiredID(args map[string]interface{}, key string) (int64, *mcp.CallToolResult) {
	id, present, err := intArg(args, key)
	if err != nil {
		return 0, mcp.NewToolResultError(err.Error())
	}
	if !present || id <= 0 {
		return 0, mcp.NewToolResultError("Missing required parameter: " + key)
	}
	return id, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleListOrders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := arguments(request)
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	filter := models.OrderFilter{}
	if status, ok := args["status"].(string); ok {
		filter.Status = models.OrderStatus(status)
	}
	limit, _, err := intArg(args, "limit")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filter.Limit = int(limit)

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list orders: %v", err)), nil
	}
	return jsonResult(orders)
}

func (s *Server) handleListReasons(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reasons, err := s.reasons.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list reasons: %v", err)), nil
	}
	return jsonResult(reasons)
}

func (s *Server) handleTransition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := arguments(request)
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	orderID, errResult := requiredID(args, "order_id")
	if errResult != nil {
		return errResult, nil
	}
	status, ok := args["status"].(string)
	if !ok || status == "" {
		return mcp.NewToolResultError("Missing required parameter: status"), nil
	}

	change := models.StatusChange{Status: models.OrderStatus(status)}
	reasonID, present, err := intArg(args, "reason_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if present {
		change.MotivoInterrupcaoID = &reasonID
	}
	employeeID, _, err := intArg(args, "employee_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if employeeID == 0 {
		employeeID = auth.EmployeeID(ctx)
	}

	order, err := s.orders.Transition(ctx, orderID, change, employeeID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to change status: %v", err)), nil
	}
	return jsonResult(order)
}

func (s *Server) handleStartTracking(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := arguments(request)
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	orderID, errResult := requiredID(args, "order_id")
	if errResult != nil {
		return errResult, nil
	}
	stageID, errResult := requiredID(args, "stage_id")
	if errResult != nil {
		return errResult, nil
	}
	code, _ := args["employee_code"].(string)

	entry, err := s.tracking.Start(ctx, models.StartTracking{OrderID: orderID, StageID: stageID, EmployeeCode: code}, auth.EmployeeID(ctx))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to start tracking: %v", err)), nil
	}
	return jsonResult(entry)
}

func (s *Server) handleEndTracking(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := arguments(request)
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	trackingID, errResult := requiredID(args, "tracking_id")
	if errResult != nil {
		return errResult, nil
	}
	in := models.EndTracking{TrackingID: trackingID, EmployeeID: auth.EmployeeID(ctx)}
	for key, dst := range map[string]**int{"processed": &in.ProcessedQuantity, "lost": &in.LostQuantity} {
		v, present, err := intArg(args, key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if present {
			n := int(v)
			*dst = &n
		}
	}
	if note, ok := args["observation"].(string); ok {
		in.Observation = &note
	}

	entry, err := s.tracking.End(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to end tracking: %v", err)), nil
	}
	return jsonResult(entry)
}

func (s *Server) handleReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := arguments(request)
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	orderID, errResult := requiredID(args, "order_id")
	if errResult != nil {
		return errResult, nil
	}
	report, err := s.tracking.Report(ctx, orderID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to build report: %v", err)), nil
	}
	return jsonResult(report)
}

// Handler returns the SSE transport serving BasePath+"/sse" and
// BasePath+"/message".
func (s *Server) Handler() http.Handler {
	return server.NewSSEServer(s.mcpServer, server.WithStaticBasePath(BasePath))
}
