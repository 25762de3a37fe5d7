package queries

import (
	"context"
	"slices"
	"strings"

	"parceltrack/internal/core/domain/model/agent"
	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/services"
	"parceltrack/internal/core/ports"
)

type ListAgentsQueryHandler struct {
	agents ports.AgentReader
	access services.AccessGuard
}

func NewListAgentsQueryHandler(agents ports.AgentReader) ListAgentsQueryHandler {
	return ListAgentsQueryHandler{agents: agents, access: services.NewAccessGuard()}
}

// Handle returns agents ordered by name, then ID. Admin only.
func (h ListAgentsQueryHandler) Handle(ctx context.Context, query ListAgentsQuery) ([]ListAgentsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if err := h.access.RequireRole(query.Caller(), "list agents", identity.RoleAdmin); err != nil {
		return nil, err
	}

	agents, err := h.agents.List(ctx, query.ActiveOnly())
	if err != nil {
		return nil, err
	}

	result := make([]ListAgentsQueryResponse, 0, len(agents))
	for _, a := range agents {
		result = append(result, toAgentResponse(a))
	}
	slices.SortStableFunc(result, func(a, b ListAgentsQueryResponse) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	return result, nil
}

func toAgentResponse(a *agent.Agent) ListAgentsQueryResponse {
	stats := a.Stats()
	return ListAgentsQueryResponse{
		ID:                   a.ID(),
		Name:                 a.Name(),
		Active:               a.IsActive(),
		TotalDeliveries:      stats.Total,
		SuccessfulDeliveries: stats.Successful,
		FailedDeliveries:     stats.Failed,
		AssignedParcels:      len(a.Parcels()),
	}
}
