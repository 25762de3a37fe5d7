package events_test

import (
	"testing"
	"time"

	"parceltrack/internal/core/domain/events"
	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParcel(t *testing.T, customer identity.Identity) *parcel.Parcel {
	t.Helper()
	now := time.Now()
	loc, err := kernel.NewLocation(23.8, 90.4)
	require.NoError(t, err)
	addr, err := kernel.NewAddress("Road 1", "", "", "", loc)
	require.NoError(t, err)
	tn, err := parcel.NewTrackingNumber(now)
	require.NoError(t, err)
	item, err := parcel.NewItem(parcel.SizeLarge, "", nil)
	require.NoError(t, err)
	payment, err := parcel.NewPayment(parcel.PaymentPrepaid, 0)
	require.NoError(t, err)

	p, err := parcel.NewParcel(kernel.NewUUID(), tn, customer, addr, addr, item, payment, now)
	require.NoError(t, err)
	return p
}

func TestEvents_Channels(t *testing.T) {
	customer, err := identity.NewIdentity(kernel.NewUUID(), identity.RoleCustomer, "")
	require.NoError(t, err)
	admin, err := identity.NewIdentity(kernel.NewUUID(), identity.RoleAdmin, "")
	require.NoError(t, err)
	agentID := kernel.NewUUID()
	now := time.Now()

	t.Run("created goes to the customer and admins", func(t *testing.T) {
		p := newParcel(t, customer)

		e := events.NewParcelCreated(p, now)

		assert.Equal(t, events.ParcelCreated, e.Type)
		assert.Equal(t, "Pending", e.Status)
		assert.Empty(t, e.AgentID)
		assert.ElementsMatch(t, []string{"user:" + customer.UserID().String(), events.AdminChannel}, e.Channels)
	})

	t.Run("assigned also reaches the agent", func(t *testing.T) {
		p := newParcel(t, customer)
		_, err := p.Assign(agentID, admin, now, "")
		require.NoError(t, err)

		e := events.NewParcelAssigned(p, nil, now)

		assert.Equal(t, agentID.String(), e.AgentID)
		assert.Empty(t, e.PreviousAgentID)
		assert.Contains(t, e.Channels, events.UserChannel(agentID))
		assert.Contains(t, e.Channels, events.ParcelChannel(p.ID()))
	})

	t.Run("reassigned also reaches the previous agent", func(t *testing.T) {
		p := newParcel(t, customer)
		_, err := p.Assign(agentID, admin, now, "")
		require.NoError(t, err)
		nextID := kernel.NewUUID()
		previous, err := p.Assign(nextID, admin, now, "")
		require.NoError(t, err)

		e := events.NewParcelAssigned(p, previous, now)

		assert.Equal(t, nextID.String(), e.AgentID)
		assert.Equal(t, agentID.String(), e.PreviousAgentID)
		assert.Contains(t, e.Channels, events.UserChannel(nextID))
		assert.Contains(t, e.Channels, events.UserChannel(agentID))
	})

	t.Run("location changes stay on the parcel channel", func(t *testing.T) {
		p := newParcel(t, customer)
		agent, err := identity.NewIdentity(agentID, identity.RoleAgent, "")
		require.NoError(t, err)
		_, err = p.Assign(agentID, admin, now, "")
		require.NoError(t, err)
		require.NoError(t, p.Advance(parcel.PickedUp, agent, now, "", ""))
		loc, err := kernel.NewLocation(23.7, 90.3)
		require.NoError(t, err)
		snapshot, err := parcel.NewLocationSnapshot(loc, 8, now, now)
		require.NoError(t, err)
		require.NoError(t, p.RecordLocation(agentID, snapshot))

		e := events.NewLocationChanged(p, now)

		assert.Equal(t, []string{events.ParcelChannel(p.ID())}, e.Channels)
		require.NotNil(t, e.Location)
		assert.InDelta(t, 23.7, e.Location.Lat, 1e-9)
		assert.InDelta(t, 8.0, e.Location.Accuracy, 1e-9)
	})
}
