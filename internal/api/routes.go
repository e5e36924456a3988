package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

const BearerAuthScopes = "bearerAuth.Scopes"

// ListOrdersParams defines parameters for ListOrders.
type ListOrdersParams struct {
	Status        *string `form:"status,omitempty" json:"status,omitempty"`
	FuncionarioId *int64  `form:"funcionarioId,omitempty" json:"funcionarioId,omitempty"`
	Limit         *int    `form:"limit,omitempty" json:"limit,omitempty"`
	Offset        *int    `form:"offset,omitempty" json:"offset,omitempty"`
}

// ListHistoryParams defines parameters for ListHistory and ListOrderHistory.
type ListHistoryParams struct {
	OrderId *int64  `form:"orderId,omitempty" json:"orderId,omitempty"`
	Type    *string `form:"type,omitempty" json:"type,omitempty"`
	AfterId *int64  `form:"afterId,omitempty" json:"afterId,omitempty"`
	Limit   *int    `form:"limit,omitempty" json:"limit,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /me)
	GetMe(ctx echo.Context) error
	// (GET /orders)
	ListOrders(ctx echo.Context, params ListOrdersParams) error
	// (POST /orders)
	CreateOrder(ctx echo.Context) error
	// (GET /orders/historico)
	ListHistory(ctx echo.Context, params ListHistoryParams) error
	// (GET /orders/{id})
	GetOrder(ctx echo.Context, id int64) error
	// (PATCH /orders/{id}/status)
	TransitionOrder(ctx echo.Context, id int64) error
	// (GET /orders/{id}/etapas)
	ListStages(ctx echo.Context, id int64) error
	// (POST /orders/{id}/etapas)
	CreateStage(ctx echo.Context, id int64) error
	// (GET /orders/{id}/rastreamentos)
	ListTracking(ctx echo.Context, id int64) error
	// (GET /orders/{id}/report)
	GetReport(ctx echo.Context, id int64) error
	// (GET /orders/{id}/historico)
	ListOrderHistory(ctx echo.Context, id int64, params ListHistoryParams) error
	// (POST /tracking/start)
	StartTracking(ctx echo.Context) error
	// (POST /tracking/{id}/end)
	EndTracking(ctx echo.Context, id int64) error
	// (GET /motivos-interrupcao)
	ListReasons(ctx echo.Context) error
	// (POST /motivos-interrupcao)
	CreateReason(ctx echo.Context) error

	ListSectors(ctx echo.Context) error
	CreateSector(ctx echo.Context) error
	GetSector(ctx echo.Context, id int64) error
	UpdateSector(ctx echo.Context, id int64) error
	DeleteSector(ctx echo.Context, id int64) error

	ListProducts(ctx echo.Context) error
	CreateProduct(ctx echo.Context) error
	GetProduct(ctx echo.Context, id int64) error
	UpdateProduct(ctx echo.Context, id int64) error
	DeleteProduct(ctx echo.Context, id int64) error

	ListEmployees(ctx echo.Context) error
	CreateEmployee(ctx echo.Context) error
	GetEmployee(ctx echo.Context, id int64) error
	UpdateEmployee(ctx echo.Context, id int64) error
	DeleteEmployee(ctx echo.Context, id int64) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func bindID(ctx echo.Context) (int64, error) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter id: %s", err))
	}
	if id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid format for parameter id: must be positive")
	}
	return id, nil
}

// withID binds the {id} path parameter before calling h.
func (w *ServerInterfaceWrapper) withID(h func(echo.Context, int64) error) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := bindID(ctx)
		if err != nil {
			return err
		}
		ctx.Set(BearerAuthScopes, []string{})
		return h(ctx, id)
	}
}

func (w *ServerInterfaceWrapper) plain(h func(echo.Context) error) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ctx.Set(BearerAuthScopes, []string{})
		return h(ctx)
	}
}

// ListOrders converts echo context to params.
func (w *ServerInterfaceWrapper) ListOrders(ctx echo.Context) error {
	var err error
	ctx.Set(BearerAuthScopes, []string{})

	var params ListOrdersParams
	// ------------- Optional query parameter "status" -------------
	err = runtime.BindQueryParameter("form", true, false, "status", ctx.QueryParams(), &params.Status)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter status: %s", err))
	}
	// ------------- Optional query parameter "funcionarioId" -------------
	err = runtime.BindQueryParameter("form", true, false, "funcionarioId", ctx.QueryParams(), &params.FuncionarioId)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter funcionarioId: %s", err))
	}
	// ------------- Optional query parameter "limit" -------------
	err = runtime.BindQueryParameter("form", true, false, "limit", ctx.QueryParams(), &params.Limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter limit: %s", err))
	}
	// ------------- Optional query parameter "offset" -------------
	err = runtime.BindQueryParameter("form", true, false, "offset", ctx.QueryParams(), &params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter offset: %s", err))
	}

	return w.Handler.ListOrders(ctx, params)
}

func bindHistoryParams(ctx echo.Context) (ListHistoryParams, error) {
	var params ListHistoryParams
	// ------------- Optional query parameter "orderId" -------------
	err := runtime.BindQueryParameter("form", true, false, "orderId", ctx.QueryParams(), &params.OrderId)
	if err != nil {
		return params, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter orderId: %s", err))
	}
	// ------------- Optional query parameter "type" -------------
	err = runtime.BindQueryParameter("form", true, false, "type", ctx.QueryParams(), &params.Type)
	if err != nil {
		return params, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter type: %s", err))
	}
	// ------------- Optional query parameter "afterId" -------------
	err = runtime.BindQueryParameter("form", true, false, "afterId", ctx.QueryParams(), &params.AfterId)
	if err != nil {
		return params, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter afterId: %s", err))
	}
	// ------------- Optional query parameter "limit" -------------
	err = runtime.BindQueryParameter("form", true, false, "limit", ctx.QueryParams(), &params.Limit)
	if err != nil {
		return params, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter limit: %s", err))
	}
	return params, nil
}

// ListHistory converts echo context to params.
func (w *ServerInterfaceWrapper) ListHistory(ctx echo.Context) error {
	ctx.Set(BearerAuthScopes, []string{})
	params, err := bindHistoryParams(ctx)
	if err != nil {
		return err
	}
	return w.Handler.ListHistory(ctx, params)
}

// ListOrderHistory converts echo context to params.
func (w *ServerInterfaceWrapper) ListOrderHistory(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	ctx.Set(BearerAuthScopes, []string{})
	params, err := bindHistoryParams(ctx)
	if err != nil {
		return err
	}
	return w.Handler.ListOrderHistory(ctx, id, params)
}

// EchoRouter is the subset of echo.Echo and echo.Group used for registration.
type EchoRouter interface {
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter. managerOnly
// guards the routes that change catalog data or create orders and stages.
func RegisterHandlers(router EchoRouter, si ServerInterface, managerOnly ...echo.MiddlewareFunc) {
	RegisterHandlersWithBaseURL(router, si, "", managerOnly...)
}

// RegisterHandlersWithBaseURL registers the handlers, prepending baseURL to
// every path.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string, managerOnly ...echo.MiddlewareFunc) {
	w := &ServerInterfaceWrapper{Handler: si}

	router.GET(baseURL+"/me", w.plain(si.GetMe))

	router.GET(baseURL+"/orders", w.ListOrders)
	router.POST(baseURL+"/orders", w.plain(si.CreateOrder), managerOnly...)
	router.GET(baseURL+"/orders/historico", w.ListHistory)
	router.GET(baseURL+"/orders/:id", w.withID(si.GetOrder))
	router.PATCH(baseURL+"/orders/:id/status", w.withID(si.TransitionOrder))
	router.GET(baseURL+"/orders/:id/etapas", w.withID(si.ListStages))
	router.POST(baseURL+"/orders/:id/etapas", w.withID(si.CreateStage), managerOnly...)
	router.GET(baseURL+"/orders/:id/rastreamentos", w.withID(si.ListTracking))
	router.GET(baseURL+"/orders/:id/report", w.withID(si.GetReport))
	router.GET(baseURL+"/orders/:id/historico", w.ListOrderHistory)

	router.POST(baseURL+"/tracking/start", w.plain(si.StartTracking))
	router.POST(baseURL+"/tracking/:id/end", w.withID(si.EndTracking))

	router.GET(baseURL+"/motivos-interrupcao", w.plain(si.ListReasons))
	router.POST(baseURL+"/motivos-interrupcao", w.plain(si.CreateReason), managerOnly...)

	router.GET(baseURL+"/setores", w.plain(si.ListSectors))
	router.POST(baseURL+"/setores", w.plain(si.CreateSector), managerOnly...)
	router.GET(baseURL+"/setores/:id", w.withID(si.GetSector))
	router.PUT(baseURL+"/setores/:id", w.withID(si.UpdateSector), managerOnly...)
	router.DELETE(baseURL+"/setores/:id", w.withID(si.DeleteSector), managerOnly...)

	router.GET(baseURL+"/produtos", w.plain(si.ListProducts))
	router.POST(baseURL+"/produtos", w.plain(si.CreateProduct), managerOnly...)
	router.GET(baseURL+"/produtos/:id", w.withID(si.GetProduct))
	router.PUT(baseURL+"/produtos/:id", w.withID(si.UpdateProduct), managerOnly...)
	router.DELETE(baseURL+"/produtos/:id", w.withID(si.DeleteProduct), managerOnly...)

	router.GET(baseURL+"/funcionarios", w.plain(si.ListEmployees))
	router.POST(baseURL+"/funcionarios", w.plain(si.CreateEmployee), managerOnly...)
	router.GET(baseURL+"/funcionarios/:id", w.withID(si.GetEmployee))
	router.PUT(baseURL+"/funcionarios/:id", w.withID(si.UpdateEmployee), managerOnly...)
	router.DELETE(baseURL+"/funcionarios/:id", w.withID(si.DeleteEmployee), managerOnly...)
}
