package commands_test

import (
	"context"
	"testing"
	"time"

	"parceltrack/internal/core/application/usecases/commands"
	"parceltrack/internal/core/domain/events"
	"parceltrack/internal/core/domain/model/agent"
	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockParcelRepository struct{ mock.Mock }

func (m *MockParcelRepository) Add(ctx context.Context, p *parcel.Parcel) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockParcelRepository) Update(ctx context.Context, p *parcel.Parcel) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockParcelRepository) Get(ctx context.Context, id kernel.UUID) (*parcel.Parcel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*parcel.Parcel), args.Error(1)
}

func (m *MockParcelRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*parcel.Parcel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*parcel.Parcel), args.Error(1)
}

func (m *MockParcelRepository) GetByTrackingNumber(ctx context.Context, tn parcel.TrackingNumber) (*parcel.Parcel, error) {
	args := m.Called(ctx, tn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*parcel.Parcel), args.Error(1)
}

func (m *MockParcelRepository) Search(ctx context.Context, criteria ports.SearchCriteria) (ports.Page, error) {
	args := m.Called(ctx, criteria)
	return args.Get(0).(ports.Page), args.Error(1)
}

func (m *MockParcelRepository) Stats(ctx context.Context, dayStart time.Time) (ports.ParcelStats, error) {
	args := m.Called(ctx, dayStart)
	return args.Get(0).(ports.ParcelStats), args.Error(1)
}

type MockAgentRepository struct{ mock.Mock }

func (m *MockAgentRepository) Add(ctx context.Context, a *agent.Agent) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAgentRepository) Update(ctx context.Context, a *agent.Agent) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAgentRepository) Get(ctx context.Context, id kernel.UUID) (*agent.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agent.Agent), args.Error(1)
}

func (m *MockAgentRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*agent.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agent.Agent), args.Error(1)
}

func (m *MockAgentRepository) List(ctx context.Context, activeOnly bool) ([]*agent.Agent, error) {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).([]*agent.Agent), args.Error(1)
}

type MockIdempotencyRepository struct{ mock.Mock }

func (m *MockIdempotencyRepository) Find(ctx context.Context, customerID kernel.UUID, key string) (*kernel.UUID, error) {
	args := m.Called(ctx, customerID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kernel.UUID), args.Error(1)
}

func (m *MockIdempotencyRepository) Save(
	ctx context.Context,
	customerID kernel.UUID,
	key string,
	parcelID kernel.UUID,
	at time.Time,
) error {
	args := m.Called(ctx, customerID, key, parcelID, at)
	return args.Error(0)
}

func (m *MockIdempotencyRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockUoW satisfies every unit of work flavour used by the handlers.
type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) ParcelRepository() ports.ParcelRepository {
	args := m.Called()
	return args.Get(0).(ports.ParcelRepository)
}

func (m *MockUoW) AgentRepository() ports.AgentRepository {
	args := m.Called()
	return args.Get(0).(ports.AgentRepository)
}

func (m *MockUoW) IdempotencyRepository() ports.IdempotencyRepository {
	args := m.Called()
	return args.Get(0).(ports.IdempotencyRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockParcelUoWFactory struct{ mock.Mock }

func (m *MockParcelUoWFactory) Create() commands.ParcelUoW {
	args := m.Called()
	return args.Get(0).(commands.ParcelUoW)
}

type MockBookingUoWFactory struct{ mock.Mock }

func (m *MockBookingUoWFactory) Create() commands.BookingUoW {
	args := m.Called()
	return args.Get(0).(commands.BookingUoW)
}

type MockAgentUoWFactory struct{ mock.Mock }

func (m *MockAgentUoWFactory) Create() commands.AgentUoW {
	args := m.Called()
	return args.Get(0).(commands.AgentUoW)
}

type MockIdempotencyUoWFactory struct{ mock.Mock }

func (m *MockIdempotencyUoWFactory) Create() commands.IdempotencyUoW {
	args := m.Called()
	return args.Get(0).(commands.IdempotencyUoW)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockMailer struct{ mock.Mock }

func (m *MockMailer) Send(ctx context.Context, mail ports.Mail) error {
	args := m.Called(ctx, mail)
	return args.Error(0)
}

type MockArtifactStore struct{ mock.Mock }

func (m *MockArtifactStore) Put(ctx context.Context, key string, contentType string, body []byte) (string, error) {
	args := m.Called(ctx, key, contentType, body)
	return args.String(0), args.Error(1)
}

// fixtures

func newIdentity(t *testing.T, role identity.Role) identity.Identity {
	t.Helper()
	id, err := identity.NewIdentity(kernel.NewUUID(), role, role.String()+"@example.com")
	require.NoError(t, err)
	return id
}

func newAddress(t *testing.T, line string, lat, lng float64) kernel.Address {
	t.Helper()
	loc, err := kernel.NewLocation(lat, lng)
	require.NoError(t, err)
	addr, err := kernel.NewAddress(line, "Dhaka", "Dhaka", "1207", loc)
	require.NoError(t, err)
	return addr
}

func newParcel(t *testing.T, customer identity.Identity) *parcel.Parcel {
	t.Helper()
	now := time.Now()
	tn, err := parcel.NewTrackingNumber(now)
	require.NoError(t, err)
	item, err := parcel.NewItem(parcel.SizeSmall, "documents", nil)
	require.NoError(t, err)
	payment, err := parcel.NewPayment(parcel.PaymentCOD, 350)
	require.NoError(t, err)

	p, err := parcel.NewParcel(
		kernel.NewUUID(), tn, customer,
		newAddress(t, "Pickup Road 1", 23.81, 90.41),
		newAddress(t, "Delivery Road 2", 23.70, 90.40),
		item, payment, now,
	)
	require.NoError(t, err)
	return p
}

func newAgent(t *testing.T, who identity.Identity) *agent.Agent {
	t.Helper()
	a, err := agent.NewAgent(who.UserID(), "Agent Smith")
	require.NoError(t, err)
	return a
}

// assignedParcel returns a parcel assigned to agentIdentity, already moved to status.
func assignedParcel(t *testing.T, customer, agentIdentity identity.Identity, status parcel.Status) (*parcel.Parcel, *agent.Agent) {
	t.Helper()
	admin := newIdentity(t, identity.RoleAdmin)
	p := newParcel(t, customer)
	a := newAgent(t, agentIdentity)
	_, err := p.Assign(a.ID(), admin, time.Now(), "")
	require.NoError(t, err)
	require.NoError(t, a.TakeParcel(p.ID()))

	for _, next := range []parcel.Status{parcel.PickedUp, parcel.InTransit} {
		if p.Status() == status {
			break
		}
		require.NoError(t, p.Advance(next, agentIdentity, time.Now(), "", ""))
	}
	require.Equal(t, status, p.Status())
	return p, a
}
