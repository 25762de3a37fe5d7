package commands_test

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"parceltrack/internal/core/application/usecases/commands"
	"parceltrack/internal/core/domain/model/agent"
	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/core/ports"
	"parceltrack/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegisterAgentCommandHandler_Handle(t *testing.T) {
	admin := newIdentity(t, identity.RoleAdmin)

	t.Run("success", func(t *testing.T) {
		ctx := t.Context()
		agentID := kernel.NewUUID()
		cmd, err := commands.NewRegisterAgentCommand(admin, agentID, "Karim")
		require.NoError(t, err)

		repo := new(MockAgentRepository)
		uow := new(MockUoW)
		mock.InOrder(
			uow.On("Begin", mock.Anything).Return(nil).Once(),
			uow.On("AgentRepository").Return(repo).Once(),
			repo.On("Add", mock.Anything, mock.AnythingOfType("*agent.Agent")).Return(nil).Once(),
			uow.On("Commit", mock.Anything).Return(nil).Once(),
			uow.On("Rollback", mock.Anything).Return(nil).Once(),
		)
		factory := new(MockAgentUoWFactory)
		factory.On("Create").Return(uow).Once()

		h := commands.NewRegisterAgentCommandHandler(factory)
		a, err := h.Handle(ctx, cmd)

		require.NoError(t, err)
		assert.True(t, a.ID().IsEqual(agentID))
		assert.Equal(t, "Karim", a.Name())
		assert.True(t, a.IsActive())
		assert.Equal(t, agent.Stats{}, a.Stats())
		uow.AssertExpectations(t)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		ctx := t.Context()
		agentID := kernel.NewUUID()
		cmd, err := commands.NewRegisterAgentCommand(admin, agentID, "Karim")
		require.NoError(t, err)

		repo := new(MockAgentRepository)
		repo.On("Add", mock.Anything, mock.Anything).Return(errs.NewConflictError("agent", agentID)).Once()
		uow := new(MockUoW)
		uow.On("Begin", mock.Anything).Return(nil).Once()
		uow.On("AgentRepository").Return(repo).Once()
		uow.On("Rollback", mock.Anything).Return(nil).Once()
		factory := new(MockAgentUoWFactory)
		factory.On("Create").Return(uow).Once()

		h := commands.NewRegisterAgentCommandHandler(factory)
		_, err = h.Handle(ctx, cmd)

		require.ErrorIs(t, err, errs.ErrConflict)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("non-admin", func(t *testing.T) {
		ctx := t.Context()
		cmd, err := commands.NewRegisterAgentCommand(newIdentity(t, identity.RoleAgent), kernel.NewUUID(), "Me")
		require.NoError(t, err)
		factory := new(MockAgentUoWFactory)

		h := commands.NewRegisterAgentCommandHandler(factory)
		_, err = h.Handle(ctx, cmd)

		require.ErrorIs(t, err, errs.ErrForbidden)
		factory.AssertNotCalled(t, "Create")
	})
}

func TestSetAgentActiveCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()
	admin := newIdentity(t, identity.RoleAdmin)
	a := newAgent(t, newIdentity(t, identity.RoleAgent))
	cmd, err := commands.NewSetAgentActiveCommand(admin, a.ID(), false)
	require.NoError(t, err)

	repo := new(MockAgentRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("Begin", mock.Anything).Return(nil).Once(),
		uow.On("AgentRepository").Return(repo).Once(),
		repo.On("GetForUpdate", mock.Anything, a.ID()).Return(a, nil).Once(),
		repo.On("Update", mock.Anything, a).Return(nil).Once(),
		uow.On("Commit", mock.Anything).Return(nil).Once(),
		uow.On("Rollback", mock.Anything).Return(nil).Once(),
	)
	factory := new(MockAgentUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewSetAgentActiveCommandHandler(factory)
	updated, err := h.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.False(t, updated.IsActive())
	uow.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestPurgeIdempotencyKeysCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()
	cutoff := time.Now().Add(-24 * time.Hour)
	cmd, err := commands.NewPurgeIdempotencyKeysCommand(cutoff)
	require.NoError(t, err)

	keys := new(MockIdempotencyRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("Begin", mock.Anything).Return(nil).Once(),
		uow.On("IdempotencyRepository").Return(keys).Once(),
		keys.On("PurgeBefore", mock.Anything, cutoff).Return(int64(3), nil).Once(),
		uow.On("Commit", mock.Anything).Return(nil).Once(),
		uow.On("Rollback", mock.Anything).Return(nil).Once(),
	)
	factory := new(MockIdempotencyUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewPurgeIdempotencyKeysCommandHandler(factory)
	removed, err := h.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	uow.AssertExpectations(t)

	_, err = commands.NewPurgeIdempotencyKeysCommand(time.Time{})
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestExportParcelsCommandHandler_Handle(t *testing.T) {
	admin := newIdentity(t, identity.RoleAdmin)
	customer := newIdentity(t, identity.RoleCustomer)

	t.Run("writes every page as csv", func(t *testing.T) {
		ctx := t.Context()
		first := make([]*parcel.Parcel, 0, ports.MaxPageLimit)
		for range ports.MaxPageLimit {
			first = append(first, newParcel(t, customer))
		}
		courier := newIdentity(t, identity.RoleAgent)
		delivered, _ := assignedParcel(t, customer, courier, parcel.InTransit)
		require.NoError(t, delivered.Advance(parcel.Delivered, courier, time.Now(), "", ""))

		criteria := ports.SearchCriteria{Statuses: []parcel.Status{parcel.Pending, parcel.Delivered}}
		cmd, err := commands.NewExportParcelsCommand(admin, criteria)
		require.NoError(t, err)

		reader := new(MockParcelRepository)
		reader.On("Search", mock.Anything, mock.MatchedBy(func(c ports.SearchCriteria) bool {
			return c.Page == 1 && c.Limit == ports.MaxPageLimit && len(c.Statuses) == 2
		})).Return(ports.Page{Items: first, Total: ports.MaxPageLimit + 1, Page: 1, Limit: ports.MaxPageLimit}, nil).Once()
		reader.On("Search", mock.Anything, mock.MatchedBy(func(c ports.SearchCriteria) bool {
			return c.Page == 2
		})).Return(ports.Page{Items: []*parcel.Parcel{delivered}, Total: ports.MaxPageLimit + 1, Page: 2, Limit: ports.MaxPageLimit}, nil).Once()

		var written []byte
		store := new(MockArtifactStore)
		store.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
			return assert.Regexp(t, `^exports/parcels-.+\.csv$`, key)
		}), "text/csv", mock.Anything).
			Run(func(args mock.Arguments) { written = args.Get(3).([]byte) }).
			Return("s3://bucket/exports/parcels.csv", nil).Once()

		h := commands.NewExportParcelsCommandHandler(reader, store)
		result, err := h.Handle(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, ports.MaxPageLimit+1, result.Rows)
		assert.Equal(t, "s3://bucket/exports/parcels.csv", result.Location)

		records, err := csv.NewReader(bytes.NewReader(written)).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, ports.MaxPageLimit+2)
		assert.Equal(t, "tracking_number", records[0][0])
		last := records[len(records)-1]
		assert.Equal(t, delivered.TrackingNumber().String(), last[0])
		assert.Equal(t, "Delivered", last[1])
		assert.NotEmpty(t, last[3])
		assert.NotEmpty(t, last[14])
		reader.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("storage failure", func(t *testing.T) {
		ctx := t.Context()
		cmd, err := commands.NewExportParcelsCommand(admin, ports.SearchCriteria{})
		require.NoError(t, err)
		reader := new(MockParcelRepository)
		reader.On("Search", mock.Anything, mock.Anything).Return(ports.Page{}, nil).Once()
		store := new(MockArtifactStore)
		store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("access denied")).Once()

		h := commands.NewExportParcelsCommandHandler(reader, store)
		_, err = h.Handle(ctx, cmd)

		require.ErrorIs(t, err, errs.ErrDependencyFailure)
	})

	t.Run("storage not configured", func(t *testing.T) {
		ctx := t.Context()
		cmd, err := commands.NewExportParcelsCommand(admin, ports.SearchCriteria{})
		require.NoError(t, err)

		h := commands.NewExportParcelsCommandHandler(new(MockParcelRepository), nil)
		_, err = h.Handle(ctx, cmd)

		require.ErrorIs(t, err, commands.ErrExportStorageNotConfigured)
	})

	t.Run("customers cannot export", func(t *testing.T) {
		ctx := t.Context()
		cmd, err := commands.NewExportParcelsCommand(customer, ports.SearchCriteria{})
		require.NoError(t, err)
		reader := new(MockParcelRepository)

		h := commands.NewExportParcelsCommandHandler(reader, new(MockArtifactStore))
		_, err = h.Handle(ctx, cmd)

		require.ErrorIs(t, err, errs.ErrForbidden)
		reader.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	})
}
