package agent_test

import (
	"testing"

	"parceltrack/internal/core/domain/model/agent"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAgent(t *testing.T) {
	t.Run("should create an active agent with empty counters", func(t *testing.T) {
		id := kernel.NewUUID()

		a, err := agent.NewAgent(id, "  Karim ")

		require.NoError(t, err)
		require.NoError(t, a.Validate())
		assert.True(t, a.ID().IsEqual(id))
		assert.Equal(t, "Karim", a.Name())
		assert.True(t, a.IsActive())
		assert.Equal(t, agent.Stats{}, a.Stats())
		assert.Empty(t, a.Parcels())
	})

	t.Run("should join id and name errors", func(t *testing.T) {
		a, err := agent.NewAgent(kernel.UUID{}, " ")

		require.Error(t, err)
		assert.Nil(t, a)
		assert.Contains(t, err.Error(), "UUID must be created")
		require.ErrorIs(t, err, agent.ErrNameIsRequired)
	})

	t.Run("nil agent is not constructed", func(t *testing.T) {
		var a *agent.Agent

		assert.Equal(t, agent.ErrAgentIsNotConstructed, a.Validate())
	})
}

func TestRestoreAgent(t *testing.T) {
	id := kernel.NewUUID()
	parcelID := kernel.NewUUID()

	t.Run("should restore every field", func(t *testing.T) {
		stats := agent.Stats{Total: 5, Successful: 4, Failed: 1}

		a, err := agent.RestoreAgent(id, "Nadia", false, stats, []kernel.UUID{parcelID}, 7)

		require.NoError(t, err)
		assert.False(t, a.IsActive())
		assert.Equal(t, stats, a.Stats())
		assert.True(t, a.HasParcel(parcelID))
		assert.Equal(t, int64(7), a.Version())
	})

	t.Run("should reject duplicate parcels", func(t *testing.T) {
		_, err := agent.RestoreAgent(id, "Nadia", true, agent.Stats{}, []kernel.UUID{parcelID, parcelID}, 1)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should reject negative counters", func(t *testing.T) {
		_, err := agent.RestoreAgent(id, "Nadia", true, agent.Stats{Failed: -1}, nil, 1)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestAgent_Parcels(t *testing.T) {
	a, err := agent.NewAgent(kernel.NewUUID(), "Karim")
	require.NoError(t, err)
	first, second := kernel.NewUUID(), kernel.NewUUID()

	t.Run("take is idempotent", func(t *testing.T) {
		require.NoError(t, a.TakeParcel(first))
		require.NoError(t, a.TakeParcel(first))
		require.NoError(t, a.TakeParcel(second))

		assert.Len(t, a.Parcels(), 2)
	})

	t.Run("release removes only the given parcel", func(t *testing.T) {
		require.NoError(t, a.ReleaseParcel(first))

		assert.False(t, a.HasParcel(first))
		assert.True(t, a.HasParcel(second))
		require.ErrorIs(t, a.ReleaseParcel(first), agent.ErrParcelNotHeld)
	})

	t.Run("inactive agents cannot take parcels", func(t *testing.T) {
		a.Deactivate()

		err := a.TakeParcel(kernel.NewUUID())

		require.ErrorIs(t, err, errs.ErrInvalidState)
		assert.True(t, a.HasParcel(second))

		a.Activate()
		require.NoError(t, a.TakeParcel(kernel.NewUUID()))
	})

	t.Run("parcels returns a copy", func(t *testing.T) {
		list := a.Parcels()
		list[0] = kernel.NewUUID()

		assert.True(t, a.HasParcel(second))
	})
}

func TestAgent_Counters(t *testing.T) {
	a, err := agent.NewAgent(kernel.NewUUID(), "Karim")
	require.NoError(t, err)
	delivered, failed := kernel.NewUUID(), kernel.NewUUID()
	require.NoError(t, a.TakeParcel(delivered))
	require.NoError(t, a.TakeParcel(failed))

	a.RecordDelivered(delivered)
	a.RecordFailed(failed)

	assert.Equal(t, agent.Stats{Total: 2, Successful: 1, Failed: 1}, a.Stats())
	assert.Empty(t, a.Parcels())
}
