package http

import (
	"strings"

	"parceltrack/internal/adapters/in/http/api"
	"parceltrack/internal/core/application/usecases/queries"
	"parceltrack/internal/core/domain/model/agent"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/core/ports"
	"parceltrack/internal/pkg/errs"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

func toAddress(a kernel.Address) api.Address {
	return api.Address{
		Address: a.Line(),
		City:    a.City(),
		State:   a.State(),
		Zip:     a.Zip(),
		Lat:     a.Location().Lat(),
		Lng:     a.Location().Lng(),
	}
}

func fromAddress(param string, a api.Address) (kernel.Address, error) {
	location, err := kernel.NewLocation(a.Lat, a.Lng)
	if err != nil {
		return kernel.Address{}, errs.NewValueIsInvalidErrorWithCause(param, err)
	}
	addr, err := kernel.NewAddress(a.Address, a.City, a.State, a.Zip, location)
	if err != nil {
		return kernel.Address{}, errs.NewValueIsInvalidErrorWithCause(param, err)
	}
	return addr, nil
}

func toLocation(l *parcel.LocationSnapshot) *api.Location {
	if l == nil {
		return nil
	}
	return &api.Location{
		Lat:        l.Location.Lat(),
		Lng:        l.Location.Lng(),
		Accuracy:   l.Accuracy,
		RecordedAt: l.RecordedAt,
	}
}

func toParcel(p *parcel.Parcel) api.Parcel {
	history := make([]api.HistoryEntry, 0, len(p.History()))
	for _, h := range p.History() {
		history = append(history, api.HistoryEntry{
			Status:    h.Status.String(),
			At:        h.At,
			ActorId:   h.ActorID.Bytes(),
			ActorRole: h.ActorRole.String(),
			Notes:     h.Notes,
		})
	}

	dto := api.Parcel{
		Id:             p.ID().Bytes(),
		TrackingNumber: p.TrackingNumber().String(),
		CustomerId:     p.CustomerID().Bytes(),
		CustomerEmail:  p.CustomerEmail(),
		Pickup:         toAddress(p.Pickup()),
		Delivery:       toAddress(p.Delivery()),
		Size:           p.Item().Size().String(),
		Type:           p.Item().Type(),
		Weight:         p.Item().Weight(),
		PaymentMode:    p.Payment().Mode().String(),
		Amount:         p.Payment().Amount(),
		Status:         p.Status().String(),
		History:        history,
		AgentLocation:  toLocation(p.AgentLocation()),
		FailureReason:  p.FailureReason(),
		DeliveredAt:    p.DeliveredAt(),
		CreatedAt:      p.CreatedAt(),
		UpdatedAt:      p.UpdatedAt(),
		Version:        p.Version(),
	}
	if agentID := p.AgentID(); agentID != nil {
		id := agentID.Bytes()
		dto.AgentId = &id
	}
	return dto
}

func toParcelPage(page ports.Page) api.ParcelPage {
	items := make([]api.Parcel, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, toParcel(p))
	}
	return api.ParcelPage{Items: items, Total: page.Total, Page: page.Page, Limit: page.Limit}
}

func toAgent(a *agent.Agent) api.Agent {
	stats := a.Stats()
	return api.Agent{
		Id:                   a.ID().Bytes(),
		Name:                 a.Name(),
		Active:               a.IsActive(),
		TotalDeliveries:      stats.Total,
		SuccessfulDeliveries: stats.Successful,
		FailedDeliveries:     stats.Failed,
		AssignedParcels:      len(a.Parcels()),
	}
}

func toAgentListItem(a queries.ListAgentsQueryResponse) api.Agent {
	return api.Agent{
		Id:                   a.ID.Bytes(),
		Name:                 a.Name,
		Active:               a.Active,
		TotalDeliveries:      a.TotalDeliveries,
		SuccessfulDeliveries: a.SuccessfulDeliveries,
		FailedDeliveries:     a.FailedDeliveries,
		AssignedParcels:      a.AssignedParcels,
	}
}

func toParcelLocation(r queries.GetParcelLocationQueryResponse) api.ParcelLocation {
	return api.ParcelLocation{
		ParcelId:       r.ParcelID.Bytes(),
		TrackingNumber: r.TrackingNumber,
		Status:         r.Status.String(),
		Available:      r.Available,
		Location:       toLocation(r.Location),
	}
}

// parseStatuses reads a comma separated status filter. Empty means no filter.
func parseStatuses(raw *string) ([]parcel.Status, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	var statuses []parcel.Status
	for _, part := range strings.Split(*raw, ",") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		s, err := parcel.ParseStatus(part)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

func optionalUUID(param string, id *openapi_types.UUID) (*kernel.UUID, error) {
	if id == nil {
		return nil, nil
	}
	u, err := kernel.UUIDFromGoogle(*id)
	if err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause(param, err)
	}
	return &u, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
