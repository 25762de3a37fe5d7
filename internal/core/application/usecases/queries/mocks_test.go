package queries_test

import (
	"context"
	"testing"
	"time"

	"parceltrack/internal/core/domain/model/agent"
	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockParcelReader struct{ mock.Mock }

func (m *MockParcelReader) Get(ctx context.Context, id kernel.UUID) (*parcel.Parcel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*parcel.Parcel), args.Error(1)
}

func (m *MockParcelReader) GetByTrackingNumber(ctx context.Context, tn parcel.TrackingNumber) (*parcel.Parcel, error) {
	args := m.Called(ctx, tn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*parcel.Parcel), args.Error(1)
}

func (m *MockParcelReader) Search(ctx context.Context, criteria ports.SearchCriteria) (ports.Page, error) {
	args := m.Called(ctx, criteria)
	return args.Get(0).(ports.Page), args.Error(1)
}

func (m *MockParcelReader) Stats(ctx context.Context, dayStart time.Time) (ports.ParcelStats, error) {
	args := m.Called(ctx, dayStart)
	return args.Get(0).(ports.ParcelStats), args.Error(1)
}

type MockAgentReader struct{ mock.Mock }

func (m *MockAgentReader) Get(ctx context.Context, id kernel.UUID) (*agent.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agent.Agent), args.Error(1)
}

func (m *MockAgentReader) List(ctx context.Context, activeOnly bool) ([]*agent.Agent, error) {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).([]*agent.Agent), args.Error(1)
}

func newIdentity(t *testing.T, role identity.Role) identity.Identity {
	t.Helper()
	id, err := identity.NewIdentity(kernel.NewUUID(), role, "")
	require.NoError(t, err)
	return id
}

func newAddress(t *testing.T, lat, lng float64) kernel.Address {
	t.Helper()
	loc, err := kernel.NewLocation(lat, lng)
	require.NoError(t, err)
	addr, err := kernel.NewAddress("Road 7", "Dhaka", "Dhaka", "1212", loc)
	require.NoError(t, err)
	return addr
}

func newParcel(t *testing.T, customer identity.Identity) *parcel.Parcel {
	t.Helper()
	now := time.Now()
	tn, err := parcel.NewTrackingNumber(now)
	require.NoError(t, err)
	item, err := parcel.NewItem(parcel.SizeLarge, "furniture", nil)
	require.NoError(t, err)
	payment, err := parcel.NewPayment(parcel.PaymentPrepaid, 0)
	require.NoError(t, err)

	p, err := parcel.NewParcel(kernel.NewUUID(), tn, customer,
		newAddress(t, 23.8103, 90.4125), newAddress(t, 22.3569, 91.7832), item, payment, now)
	require.NoError(t, err)
	return p
}

// inTransit assigns p to courier and moves it to InTransit.
func inTransit(t *testing.T, p *parcel.Parcel, courier identity.Identity) {
	t.Helper()
	admin := newIdentity(t, identity.RoleAdmin)
	_, err := p.Assign(courier.UserID(), admin, time.Now(), "")
	require.NoError(t, err)
	require.NoError(t, p.Advance(parcel.PickedUp, courier, time.Now(), "", ""))
	require.NoError(t, p.Advance(parcel.InTransit, courier, time.Now(), "", ""))
}
