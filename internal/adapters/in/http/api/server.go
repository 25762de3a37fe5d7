package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /api/v1/agent/parcels)
	ListAgentParcels(ctx echo.Context, params ListAgentParcelsParams) error
	// (GET /api/v1/agents)
	ListAgents(ctx echo.Context, params ListAgentsParams) error
	// (POST /api/v1/agents)
	RegisterAgent(ctx echo.Context) error
	// (PUT /api/v1/agents/{id}/active)
	SetAgentActive(ctx echo.Context, id openapi_types.UUID) error
	// (GET /api/v1/events)
	StreamEvents(ctx echo.Context, params StreamEventsParams) error
	// (POST /api/v1/exports/parcels)
	ExportParcels(ctx echo.Context) error
	// (GET /api/v1/parcels)
	ListParcels(ctx echo.Context, params ListParcelsParams) error
	// (POST /api/v1/parcels)
	BookParcel(ctx echo.Context, params BookParcelParams) error
	// (GET /api/v1/parcels/mine)
	ListMyParcels(ctx echo.Context, params ListMyParcelsParams) error
	// (GET /api/v1/parcels/{id})
	GetParcel(ctx echo.Context, id openapi_types.UUID) error
	// (PUT /api/v1/parcels/{id}/assign)
	AssignParcel(ctx echo.Context, id openapi_types.UUID) error
	// (POST /api/v1/parcels/{id}/cancel)
	CancelParcel(ctx echo.Context, id openapi_types.UUID) error
	// (GET /api/v1/parcels/{id}/location)
	GetParcelLocation(ctx echo.Context, id openapi_types.UUID) error
	// (PUT /api/v1/parcels/{id}/location)
	ReportParcelLocation(ctx echo.Context, id openapi_types.UUID) error
	// (GET /api/v1/parcels/{id}/qrcode)
	GetParcelQRCode(ctx echo.Context, id openapi_types.UUID) error
	// (PUT /api/v1/parcels/{id}/status)
	UpdateParcelStatus(ctx echo.Context, id openapi_types.UUID) error
	// (POST /api/v1/qr/scan)
	ScanQRCode(ctx echo.Context) error
	// (POST /api/v1/qr/verify)
	VerifyQRCode(ctx echo.Context) error
	// (GET /api/v1/stats/dashboard)
	GetDashboardStats(ctx echo.Context) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func badParam(name string, err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
}

func bindPathID(ctx echo.Context) (openapi_types.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return id, badParam("id", err)
	}
	return id, nil
}

type pageParams struct {
	Status *string
	Page   *int
	Limit  *int
}

func bindPageParams(ctx echo.Context) (pageParams, error) {
	var p pageParams
	if err := runtime.BindQueryParameter("form", true, false, "status", ctx.QueryParams(), &p.Status); err != nil {
		return p, badParam("status", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "page", ctx.QueryParams(), &p.Page); err != nil {
		return p, badParam("page", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", ctx.QueryParams(), &p.Limit); err != nil {
		return p, badParam("limit", err)
	}
	return p, nil
}

// ListAgentParcels converts echo context to params.
func (w *ServerInterfaceWrapper) ListAgentParcels(ctx echo.Context) error {
	p, err := bindPageParams(ctx)
	if err != nil {
		return err
	}
	return w.Handler.ListAgentParcels(ctx, ListAgentParcelsParams{Status: p.Status, Page: p.Page, Limit: p.Limit})
}

// ListAgents converts echo context to params.
func (w *ServerInterfaceWrapper) ListAgents(ctx echo.Context) error {
	var params ListAgentsParams
	if err := runtime.BindQueryParameter("form", true, false, "active", ctx.QueryParams(), &params.Active); err != nil {
		return badParam("active", err)
	}
	return w.Handler.ListAgents(ctx, params)
}

// RegisterAgent converts echo context to params.
func (w *ServerInterfaceWrapper) RegisterAgent(ctx echo.Context) error {
	return w.Handler.RegisterAgent(ctx)
}

// SetAgentActive converts echo context to params.
func (w *ServerInterfaceWrapper) SetAgentActive(ctx echo.Context) error {
	id, err := bindPathID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.SetAgentActive(ctx, id)
}

// StreamEvents converts echo context to params.
func (w *ServerInterfaceWrapper) StreamEvents(ctx echo.Context) error {
	var params StreamEventsParams
	if err := runtime.BindQueryParameter("form", true, false, "parcelId", ctx.QueryParams(), &params.ParcelId); err != nil {
		return badParam("parcelId", err)
	}
	return w.Handler.StreamEvents(ctx, params)
}

// ExportParcels converts echo context to params.
func (w *ServerInterfaceWrapper) ExportParcels(ctx echo.Context) error {
	return w.Handler.ExportParcels(ctx)
}

// ListParcels converts echo context to params.
func (w *ServerInterfaceWrapper) ListParcels(ctx echo.Context) error {
	var params ListParcelsParams
	query := ctx.QueryParams()

	bindings := []struct {
		name string
		dest any
	}{
		{"status", &params.Status},
		{"agentId", &params.AgentId},
		{"customerId", &params.CustomerId},
		{"search", &params.Search},
		{"from", &params.From},
		{"to", &params.To},
		{"nearLat", &params.NearLat},
		{"nearLng", &params.NearLng},
		{"radiusKm", &params.RadiusKm},
		{"page", &params.Page},
		{"limit", &params.Limit},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			return badParam(b.name, err)
		}
	}

	return w.Handler.ListParcels(ctx, params)
}

// BookParcel converts echo context to params.
func (w *ServerInterfaceWrapper) BookParcel(ctx echo.Context) error {
	var params BookParcelParams

	if valueList, found := ctx.Request().Header[http.CanonicalHeaderKey("Idempotency-Key")]; found {
		if n := len(valueList); n != 1 {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("Expected one value for Idempotency-Key, got %d", n))
		}
		var key string
		err := runtime.BindStyledParameterWithOptions("simple", "Idempotency-Key", valueList[0], &key,
			runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationHeader, Explode: false, Required: false})
		if err != nil {
			return badParam("Idempotency-Key", err)
		}
		params.IdempotencyKey = &key
	}

	return w.Handler.BookParcel(ctx, params)
}

// ListMyParcels converts echo context to params.
func (w *ServerInterfaceWrapper) ListMyParcels(ctx echo.Context) error {
	p, err := bindPageParams(ctx)
	if err != nil {
		return err
	}
	return w.Handler.ListMyParcels(ctx, ListMyParcelsParams{Status: p.Status, Page: p.Page, Limit: p.Limit})
}

// GetParcel converts echo context to params.
func (w *ServerInterfaceWrapper) GetParcel(ctx echo.Context) error {
	id, err := bindPathID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetParcel(ctx, id)
}

// AssignParcel converts echo context to params.
func (w *ServerInterfaceWrapper) AssignParcel(ctx echo.Context) error {
	id, err := bindPathID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.AssignParcel(ctx, id)
}

// CancelParcel converts echo context to params.
func (w *ServerInterfaceWrapper) CancelParcel(ctx echo.Context) error {
	id, err := bindPathID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.CancelParcel(ctx, id)
}

// GetParcelLocation converts echo context to params.
func (w *ServerInterfaceWrapper) GetParcelLocation(ctx echo.Context) error {
	id, err := bindPathID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetParcelLocation(ctx, id)
}

// ReportParcelLocation converts echo context to params.
func (w *ServerInterfaceWrapper) ReportParcelLocation(ctx echo.Context) error {
	id, err := bindPathID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.ReportParcelLocation(ctx, id)
}

// GetParcelQRCode converts echo context to params.
func (w *ServerInterfaceWrapper) GetParcelQRCode(ctx echo.Context) error {
	id, err := bindPathID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetParcelQRCode(ctx, id)
}

// UpdateParcelStatus converts echo context to params.
func (w *ServerInterfaceWrapper) UpdateParcelStatus(ctx echo.Context) error {
	id, err := bindPathID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.UpdateParcelStatus(ctx, id)
}

// ScanQRCode converts echo context to params.
func (w *ServerInterfaceWrapper) ScanQRCode(ctx echo.Context) error {
	return w.Handler.ScanQRCode(ctx)
}

// VerifyQRCode converts echo context to params.
func (w *ServerInterfaceWrapper) VerifyQRCode(ctx echo.Context) error {
	return w.Handler.VerifyQRCode(ctx)
}

// GetDashboardStats converts echo context to params.
func (w *ServerInterfaceWrapper) GetDashboardStats(ctx echo.Context) error {
	return w.Handler.GetDashboardStats(ctx)
}

// EchoRouter is satisfied by *echo.Echo and *echo.Group.
type EchoRouter interface {
	CONNECT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	HEAD(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	OPTIONS(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	TRACE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// RegisterHandlersWithBaseURL registers handlers, and prepends BaseURL to the
// paths, so that the paths can be served under a prefix.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
	}

	router.GET(baseURL+"/api/v1/agent/parcels", wrapper.ListAgentParcels)
	router.GET(baseURL+"/api/v1/agents", wrapper.ListAgents)
	router.POST(baseURL+"/api/v1/agents", wrapper.RegisterAgent)
	router.PUT(baseURL+"/api/v1/agents/:id/active", wrapper.SetAgentActive)
	router.GET(baseURL+"/api/v1/events", wrapper.StreamEvents)
	router.POST(baseURL+"/api/v1/exports/parcels", wrapper.ExportParcels)
	router.GET(baseURL+"/api/v1/parcels", wrapper.ListParcels)
	router.POST(baseURL+"/api/v1/parcels", wrapper.BookParcel)
	router.GET(baseURL+"/api/v1/parcels/mine", wrapper.ListMyParcels)
	router.GET(baseURL+"/api/v1/parcels/:id", wrapper.GetParcel)
	router.PUT(baseURL+"/api/v1/parcels/:id/assign", wrapper.AssignParcel)
	router.POST(baseURL+"/api/v1/parcels/:id/cancel", wrapper.CancelParcel)
	router.GET(baseURL+"/api/v1/parcels/:id/location", wrapper.GetParcelLocation)
	router.PUT(baseURL+"/api/v1/parcels/:id/location", wrapper.ReportParcelLocation)
	router.GET(baseURL+"/api/v1/parcels/:id/qrcode", wrapper.GetParcelQRCode)
	router.PUT(baseURL+"/api/v1/parcels/:id/status", wrapper.UpdateParcelStatus)
	router.POST(baseURL+"/api/v1/qr/scan", wrapper.ScanQRCode)
	router.POST(baseURL+"/api/v1/qr/verify", wrapper.VerifyQRCode)
	router.GET(baseURL+"/api/v1/stats/dashboard", wrapper.GetDashboardStats)
}
