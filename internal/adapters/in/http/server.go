package http

import (
	"log/slog"
	"net/http"
	"time"

	"parceltrack/internal/adapters/in/http/api"
	"parceltrack/internal/adapters/out/realtime"
	"parceltrack/internal/core/application/usecases/commands"
	"parceltrack/internal/core/application/usecases/queries"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/core/ports"
	"parceltrack/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Handlers groups the use cases the HTTP server exposes.
type Handlers struct {
	// Command handlers
	BookParcel     commands.BookParcelCommandHandler
	AssignAgent    commands.AssignAgentCommandHandler
	UpdateStatus   commands.UpdateStatusCommandHandler
	CancelParcel   commands.CancelParcelCommandHandler
	ReportLocation commands.ReportLocationCommandHandler
	ScanAndUpdate  commands.ScanAndUpdateCommandHandler
	RegisterAgent  commands.RegisterAgentCommandHandler
	SetAgentActive commands.SetAgentActiveCommandHandler
	ExportParcels  commands.ExportParcelsCommandHandler

	// Query handlers
	GetParcel         queries.GetParcelQueryHandler
	ListParcels       queries.ListParcelsQueryHandler
	GetParcelLocation queries.GetParcelLocationQueryHandler
	VerifyQR          queries.VerifyQRQueryHandler
	ListAgents        queries.ListAgentsQueryHandler
	GetDashboardStats queries.GetDashboardStatsQueryHandler
}

// Server implements the ServerInterface for handling HTTP requests.
// It coordinates between HTTP handlers and application use cases.
type Server struct {
	handlers  Handlers
	hub       *realtime.Hub
	heartbeat time.Duration
	logger    *slog.Logger
}

var _ api.ServerInterface = (*Server)(nil)

// NewServer creates a new HTTP server with the required command and query handlers.
// The hub feeds the event stream.
func NewServer(handlers Handlers, hub *realtime.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		handlers:  handlers,
		hub:       hub,
		heartbeat: 25 * time.Second,
		logger:    logger.With("component", "HTTPServer"),
	}
}

func parcelID(id openapi_types.UUID) (kernel.UUID, error) {
	u, err := kernel.UUIDFromGoogle(id)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("id", err)
	}
	return u, nil
}

func bindBody(ctx echo.Context, dest any) error {
	if err := ctx.Bind(dest); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("body", err)
	}
	return nil
}

func parcelResult(ctx echo.Context, code int, result commands.ParcelResult) error {
	response := toParcel(result.Parcel)
	response.Warnings = warningsOf(result.Warnings)
	return ctx.JSON(code, response)
}

// BookParcel handles POST /api/v1/parcels - books a parcel for the calling customer.
func (s *Server) BookParcel(ctx echo.Context, params api.BookParcelParams) error {
	var req api.BookParcelRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	pickup, err := fromAddress("pickup", req.Pickup)
	if err != nil {
		return err
	}
	delivery, err := fromAddress("delivery", req.Delivery)
	if err != nil {
		return err
	}
	size, err := parcel.ParseSize(req.Size)
	if err != nil {
		return err
	}
	item, err := parcel.NewItem(size, req.Type, req.Weight)
	if err != nil {
		return err
	}
	mode, err := parcel.ParsePaymentMode(req.PaymentMode)
	if err != nil {
		return err
	}
	payment, err := parcel.NewPayment(mode, deref(req.Amount))
	if err != nil {
		return err
	}

	cmd, err := commands.NewBookParcelCommand(callerOf(ctx), pickup, delivery, item, payment, deref(params.IdempotencyKey))
	if err != nil {
		return err
	}

	result, err := s.handlers.BookParcel.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}

	code := http.StatusCreated
	if result.Replayed {
		code = http.StatusOK
	}
	return parcelResult(ctx, code, result)
}

// ListMyParcels handles GET /api/v1/parcels/mine - the caller's own bookings.
func (s *Server) ListMyParcels(ctx echo.Context, params api.ListMyParcelsParams) error {
	statuses, err := parseStatuses(params.Status)
	if err != nil {
		return err
	}
	query, err := queries.NewGetMyParcelsQuery(callerOf(ctx), statuses, deref(params.Page), deref(params.Limit))
	if err != nil {
		return err
	}

	page, err := s.handlers.ListParcels.HandleMine(ctx.Request().Context(), query)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, toParcelPage(page))
}

// ListAgentParcels handles GET /api/v1/agent/parcels - work assigned to the calling agent.
func (s *Server) ListAgentParcels(ctx echo.Context, params api.ListAgentParcelsParams) error {
	statuses, err := parseStatuses(params.Status)
	if err != nil {
		return err
	}
	query, err := queries.NewGetAgentParcelsQuery(callerOf(ctx), statuses, deref(params.Page), deref(params.Limit))
	if err != nil {
		return err
	}

	page, err := s.handlers.ListParcels.HandleAssigned(ctx.Request().Context(), query)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, toParcelPage(page))
}

// ListParcels handles GET /api/v1/parcels - the admin listing.
func (s *Server) ListParcels(ctx echo.Context, params api.ListParcelsParams) error {
	statuses, err := parseStatuses(params.Status)
	if err != nil {
		return err
	}
	agentID, err := optionalUUID("agentId", params.AgentId)
	if err != nil {
		return err
	}
	customerID, err := optionalUUID("customerId", params.CustomerId)
	if err != nil {
		return err
	}

	criteria := ports.SearchCriteria{
		CustomerID:  customerID,
		AgentID:     agentID,
		Statuses:    statuses,
		Text:        deref(params.Search),
		CreatedFrom: params.From,
		CreatedTo:   params.To,
		Page:        deref(params.Page),
		Limit:       deref(params.Limit),
	}

	switch {
	case params.NearLat != nil && params.NearLng != nil:
		center, err := kernel.NewLocation(*params.NearLat, *params.NearLng)
		if err != nil {
			return err
		}
		radius := 5.0
		if params.RadiusKm != nil {
			radius = *params.RadiusKm
		}
		criteria.Near = &ports.ProximityFilter{Center: center, RadiusKm: radius}
	case params.NearLat != nil || params.NearLng != nil:
		return errs.NewValueIsRequiredError("nearLat and nearLng")
	}

	query, err := queries.NewListParcelsQuery(callerOf(ctx), criteria)
	if err != nil {
		return err
	}

	page, err := s.handlers.ListParcels.Handle(ctx.Request().Context(), query)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, toParcelPage(page))
}

// GetParcel handles GET /api/v1/parcels/{id}.
func (s *Server) GetParcel(ctx echo.Context, id openapi_types.UUID) error {
	pid, err := parcelID(id)
	if err != nil {
		return err
	}
	query, err := queries.NewGetParcelQuery(callerOf(ctx), pid)
	if err != nil {
		return err
	}

	response, err := s.handlers.GetParcel.Handle(ctx.Request().Context(), query)
	if err != nil {
		return err
	}

	dto := toParcel(response.Parcel)
	dto.DistanceKm = &response.DistanceKm
	return ctx.JSON(http.StatusOK, dto)
}

// AssignParcel handles PUT /api/v1/parcels/{id}/assign - admin (re)assignment.
func (s *Server) AssignParcel(ctx echo.Context, id openapi_types.UUID) error {
	pid, err := parcelID(id)
	if err != nil {
		return err
	}
	var req api.AssignRequest
	if err = bindBody(ctx, &req); err != nil {
		return err
	}
	agentID, err := optionalUUID("agentId", &req.AgentId)
	if err != nil {
		return err
	}

	cmd, err := commands.NewAssignAgentCommand(callerOf(ctx), pid, *agentID, req.Notes)
	if err != nil {
		return err
	}

	result, err := s.handlers.AssignAgent.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return parcelResult(ctx, http.StatusOK, result)
}

// UpdateParcelStatus handles PUT /api/v1/parcels/{id}/status - agent status changes.
func (s *Server) UpdateParcelStatus(ctx echo.Context, id openapi_types.UUID) error {
	pid, err := parcelID(id)
	if err != nil {
		return err
	}
	var req api.StatusUpdateRequest
	if err = bindBody(ctx, &req); err != nil {
		return err
	}
	target, err := parcel.ParseStatus(req.Status)
	if err != nil {
		return err
	}

	cmd, err := commands.NewUpdateStatusCommand(callerOf(ctx), pid, target, req.Notes, req.Reason)
	if err != nil {
		return err
	}

	result, err := s.handlers.UpdateStatus.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return parcelResult(ctx, http.StatusOK, result)
}

// CancelParcel handles POST /api/v1/parcels/{id}/cancel. The body is optional.
func (s *Server) CancelParcel(ctx echo.Context, id openapi_types.UUID) error {
	pid, err := parcelID(id)
	if err != nil {
		return err
	}
	var req api.CancelRequest
	if ctx.Request().ContentLength != 0 {
		if err = bindBody(ctx, &req); err != nil {
			return err
		}
	}

	cmd, err := commands.NewCancelParcelCommand(callerOf(ctx), pid, req.Notes)
	if err != nil {
		return err
	}

	result, err := s.handlers.CancelParcel.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return parcelResult(ctx, http.StatusOK, result)
}

// ReportParcelLocation handles PUT /api/v1/parcels/{id}/location - agent position reports.
func (s *Server) ReportParcelLocation(ctx echo.Context, id openapi_types.UUID) error {
	pid, err := parcelID(id)
	if err != nil {
		return err
	}
	var req api.LocationReport
	if err = bindBody(ctx, &req); err != nil {
		return err
	}

	cmd, err := commands.NewReportLocationCommand(callerOf(ctx), pid, req.Lat, req.Lng, req.Accuracy, deref(req.RecordedAt))
	if err != nil {
		return err
	}

	result, err := s.handlers.ReportLocation.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}

	p := result.Parcel
	response := api.ParcelLocation{
		ParcelId:       p.ID().Bytes(),
		TrackingNumber: p.TrackingNumber().String(),
		Status:         p.Status().String(),
		Available:      p.AgentLocation() != nil,
		Location:       toLocation(p.AgentLocation()),
		Warnings:       warningsOf(result.Warnings),
	}
	return ctx.JSON(http.StatusOK, response)
}

// GetParcelLocation handles GET /api/v1/parcels/{id}/location.
func (s *Server) GetParcelLocation(ctx echo.Context, id openapi_types.UUID) error {
	pid, err := parcelID(id)
	if err != nil {
		return err
	}
	query, err := queries.NewGetParcelLocationQuery(callerOf(ctx), pid)
	if err != nil {
		return err
	}

	response, err := s.handlers.GetParcelLocation.Handle(ctx.Request().Context(), query)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, toParcelLocation(response))
}

// GetParcelQRCode handles GET /api/v1/parcels/{id}/qrcode.
func (s *Server) GetParcelQRCode(ctx echo.Context, id openapi_types.UUID) error {
	pid, err := parcelID(id)
	if err != nil {
		return err
	}
	query, err := queries.NewGetParcelQRCodeQuery(callerOf(ctx), pid)
	if err != nil {
		return err
	}

	response, err := s.handlers.GetParcelLocation.HandleQRCode(ctx.Request().Context(), query)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.QRCode{
		ParcelId:       response.ParcelID.Bytes(),
		TrackingNumber: response.TrackingNumber,
		Payload:        response.Payload,
	})
}

// ScanQRCode handles POST /api/v1/qr/scan - a status update addressed by label.
func (s *Server) ScanQRCode(ctx echo.Context) error {
	var req api.ScanRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}
	target, err := parcel.ParseStatus(req.Status)
	if err != nil {
		return err
	}

	cmd, err := commands.NewScanAndUpdateCommand(callerOf(ctx), req.Payload, target, req.Notes, req.Reason)
	if err != nil {
		return err
	}

	result, err := s.handlers.ScanAndUpdate.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return parcelResult(ctx, http.StatusOK, result)
}

// VerifyQRCode handles POST /api/v1/qr/verify.
func (s *Server) VerifyQRCode(ctx echo.Context) error {
	var req api.VerifyRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	query, err := queries.NewVerifyQRQuery(callerOf(ctx), req.Payload)
	if err != nil {
		return err
	}

	p, err := s.handlers.VerifyQR.Handle(ctx.Request().Context(), query)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, toParcel(p))
}

// RegisterAgent handles POST /api/v1/agents.
func (s *Server) RegisterAgent(ctx echo.Context) error {
	var req api.RegisterAgentRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}
	agentID, err := optionalUUID("id", &req.Id)
	if err != nil {
		return err
	}

	cmd, err := commands.NewRegisterAgentCommand(callerOf(ctx), *agentID, req.Name)
	if err != nil {
		return err
	}

	a, err := s.handlers.RegisterAgent.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, toAgent(a))
}

// ListAgents handles GET /api/v1/agents.
func (s *Server) ListAgents(ctx echo.Context, params api.ListAgentsParams) error {
	query, err := queries.NewListAgentsQuery(callerOf(ctx), deref(params.Active))
	if err != nil {
		return err
	}

	agents, err := s.handlers.ListAgents.Handle(ctx.Request().Context(), query)
	if err != nil {
		return err
	}

	response := make([]api.Agent, len(agents))
	for i, a := range agents {
		response[i] = toAgentListItem(a)
	}
	return ctx.JSON(http.StatusOK, response)
}

// SetAgentActive handles PUT /api/v1/agents/{id}/active.
func (s *Server) SetAgentActive(ctx echo.Context, id openapi_types.UUID) error {
	agentID, err := optionalUUID("id", &id)
	if err != nil {
		return err
	}
	var req api.SetAgentActiveRequest
	if err = bindBody(ctx, &req); err != nil {
		return err
	}

	cmd, err := commands.NewSetAgentActiveCommand(callerOf(ctx), *agentID, req.Active)
	if err != nil {
		return err
	}

	a, err := s.handlers.SetAgentActive.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, toAgent(a))
}

// GetDashboardStats handles GET /api/v1/stats/dashboard.
func (s *Server) GetDashboardStats(ctx echo.Context) error {
	query, err := queries.NewGetDashboardStatsQuery(callerOf(ctx), time.Now())
	if err != nil {
		return err
	}

	stats, err := s.handlers.GetDashboardStats.Handle(ctx.Request().Context(), query)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.DashboardStats{
		Total:          stats.Total,
		BookedToday:    stats.BookedToday,
		Pending:        stats.Pending,
		InFlight:       stats.InFlight,
		DeliveredToday: stats.DeliveredToday,
		Failed:         stats.Failed,
		CodCollected:   stats.CODCollected,
	})
}

// ExportParcels handles POST /api/v1/exports/parcels. Answers 503 when no export
// storage is configured.
func (s *Server) ExportParcels(ctx echo.Context) error {
	var req api.ExportRequest
	if ctx.Request().ContentLength != 0 {
		if err := bindBody(ctx, &req); err != nil {
			return err
		}
	}
	statuses, err := parseStatuses(&req.Status)
	if err != nil {
		return err
	}
	agentID, err := optionalUUID("agentId", req.AgentId)
	if err != nil {
		return err
	}
	customerID, err := optionalUUID("customerId", req.CustomerId)
	if err != nil {
		return err
	}

	cmd, err := commands.NewExportParcelsCommand(callerOf(ctx), ports.SearchCriteria{
		CustomerID:  customerID,
		AgentID:     agentID,
		Statuses:    statuses,
		Text:        req.Search,
		CreatedFrom: req.From,
		CreatedTo:   req.To,
	})
	if err != nil {
		return err
	}

	result, err := s.handlers.ExportParcels.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusAccepted, api.ExportResult{Location: result.Location, Rows: result.Rows})
}
