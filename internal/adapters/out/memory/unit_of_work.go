package memory

import (
	"context"
	"errors"
	"time"

	"parceltrack/internal/core/domain/model/agent"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/core/ports"
	"parceltrack/internal/pkg/errs"
)

// ErrNoActiveTransaction is returned by Commit, Rollback and every write made
// outside Begin.
var ErrNoActiveTransaction = errors.New("no active transaction")

type pendingParcel struct {
	snapshot parcel.Snapshot
	expected int64
	isNew    bool
}

type pendingAgent struct {
	record   agentRecord
	expected int64
	isNew    bool
}

// UnitOfWork buffers writes and applies them in one critical section on Commit.
// It must not be shared between goroutines.
type UnitOfWork struct {
	store   *Store
	active  bool
	parcels map[string]pendingParcel
	agents  map[string]pendingAgent
	keys    map[keyID]keyRecord
	purge   *time.Time
}

func newUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{store: store}
}

// Begin starts buffering. A second Begin keeps the current buffer.
func (uow *UnitOfWork) Begin(_ context.Context) error {
	if uow.active {
		return nil
	}
	uow.reset()
	uow.active = true
	return nil
}

func (uow *UnitOfWork) reset() {
	uow.parcels = make(map[string]pendingParcel)
	uow.agents = make(map[string]pendingAgent)
	uow.keys = make(map[keyID]keyRecord)
	uow.purge = nil
}

// Commit verifies every buffered write against the committed versions and applies
// all of them, or none when any aggregate moved on since it was loaded.
func (uow *UnitOfWork) Commit(_ context.Context) error {
	if !uow.active {
		return ErrNoActiveTransaction
	}
	defer func() {
		uow.active = false
		uow.reset()
	}()

	s := uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := uow.verify(); err != nil {
		return err
	}

	for id, p := range uow.parcels {
		s.parcels[id] = p.snapshot
		s.byTN[p.snapshot.TrackingNumber.String()] = id
	}
	for id, a := range uow.agents {
		s.agents[id] = a.record
	}
	if uow.purge != nil {
		for k, v := range s.keys {
			if v.createdAt.Before(*uow.purge) {
				delete(s.keys, k)
			}
		}
	}
	for k, v := range uow.keys {
		s.keys[k] = v
	}
	return nil
}

// verify runs under the store's write lock.
func (uow *UnitOfWork) verify() error {
	s := uow.store
	for id, p := range uow.parcels {
		stored, exists := s.parcels[id]
		switch {
		case p.isNew && exists:
			return errs.NewConflictError("parcel", id)
		case p.isNew:
			if _, taken := s.byTN[p.snapshot.TrackingNumber.String()]; taken {
				return errs.NewConflictError("parcel", p.snapshot.TrackingNumber.String())
			}
		case !exists:
			return errs.NewObjectNotFoundError("parcel", id)
		case stored.Version != p.expected:
			return errs.NewConflictError("parcel", id)
		}
	}
	for id, a := range uow.agents {
		stored, exists := s.agents[id]
		switch {
		case a.isNew && exists:
			return errs.NewConflictError("agent", id)
		case a.isNew:
		case !exists:
			return errs.NewObjectNotFoundError("agent", id)
		case stored.version != a.expected:
			return errs.NewConflictError("agent", id)
		}
	}
	for k := range uow.keys {
		if _, taken := s.keys[k]; taken {
			return errs.NewConflictError("idempotencyKey", k.key)
		}
	}
	return nil
}

// Rollback drops the buffer.
func (uow *UnitOfWork) Rollback(_ context.Context) error {
	if !uow.active {
		return ErrNoActiveTransaction
	}
	uow.active = false
	uow.reset()
	return nil
}

func (uow *UnitOfWork) ParcelRepository() ports.ParcelRepository {
	return parcelRepository{parcelReader: parcelReader{store: uow.store}, uow: uow}
}

func (uow *UnitOfWork) AgentRepository() ports.AgentRepository {
	return agentRepository{agentReader: agentReader{store: uow.store}, uow: uow}
}

func (uow *UnitOfWork) IdempotencyRepository() ports.IdempotencyRepository {
	return idempotencyRepository{uow: uow}
}

// parcelRepository reads its own buffered writes first. Search and Stats see
// committed state only.
type parcelRepository struct {
	parcelReader
	uow *UnitOfWork
}

func (r parcelRepository) Get(ctx context.Context, id kernel.UUID) (*parcel.Parcel, error) {
	if p, ok := r.uow.parcels[id.String()]; ok {
		return restoreParcel(p.snapshot)
	}
	return r.parcelReader.Get(ctx, id)
}

func (r parcelRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*parcel.Parcel, error) {
	return r.Get(ctx, id)
}

func (r parcelRepository) GetByTrackingNumber(ctx context.Context, tn parcel.TrackingNumber) (*parcel.Parcel, error) {
	for _, p := range r.uow.parcels {
		if p.snapshot.TrackingNumber.IsEqual(tn) {
			return restoreParcel(p.snapshot)
		}
	}
	return r.parcelReader.GetByTrackingNumber(ctx, tn)
}

func (r parcelRepository) Add(_ context.Context, p *parcel.Parcel) error {
	if !r.uow.active {
		return ErrNoActiveTransaction
	}
	if err := p.Validate(); err != nil {
		return err
	}

	id := p.ID().String()
	s := r.uow.store
	s.mu.RLock()
	_, idTaken := s.parcels[id]
	_, tnTaken := s.byTN[p.TrackingNumber().String()]
	s.mu.RUnlock()
	if _, pending := r.uow.parcels[id]; idTaken || tnTaken || pending {
		return errs.NewConflictError("parcel", p.TrackingNumber().String())
	}

	snapshot := p.Snapshot()
	snapshot.Version = p.Version() + 1
	r.uow.parcels[id] = pendingParcel{snapshot: snapshot, isNew: true}
	p.MarkPersisted(snapshot.Version)
	return nil
}

func (r parcelRepository) Update(_ context.Context, p *parcel.Parcel) error {
	if !r.uow.active {
		return ErrNoActiveTransaction
	}
	if err := p.Validate(); err != nil {
		return err
	}

	id := p.ID().String()
	pending, buffered := r.uow.parcels[id]
	if !buffered {
		s := r.uow.store
		s.mu.RLock()
		stored, exists := s.parcels[id]
		s.mu.RUnlock()
		if !exists {
			return errs.NewObjectNotFoundError("parcel", id)
		}
		if stored.Version != p.Version() {
			return errs.NewConflictError("parcel", id)
		}
		pending = pendingParcel{expected: p.Version()}
	}

	pending.snapshot = p.Snapshot()
	pending.snapshot.Version = p.Version() + 1
	r.uow.parcels[id] = pending
	p.MarkPersisted(pending.snapshot.Version)
	return nil
}

type agentRepository struct {
	agentReader
	uow *UnitOfWork
}

func (r agentRepository) Get(ctx context.Context, id kernel.UUID) (*agent.Agent, error) {
	if a, ok := r.uow.agents[id.String()]; ok {
		return restoreAgent(a.record)
	}
	return r.agentReader.Get(ctx, id)
}

func (r agentRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*agent.Agent, error) {
	return r.Get(ctx, id)
}

func (r agentRepository) Add(_ context.Context, a *agent.Agent) error {
	if !r.uow.active {
		return ErrNoActiveTransaction
	}
	if err := a.Validate(); err != nil {
		return err
	}

	id := a.ID().String()
	s := r.uow.store
	s.mu.RLock()
	_, taken := s.agents[id]
	s.mu.RUnlock()
	if _, pending := r.uow.agents[id]; taken || pending {
		return errs.NewConflictError("agent", id)
	}

	record := recordOf(a)
	record.version = a.Version() + 1
	r.uow.agents[id] = pendingAgent{record: record, isNew: true}
	a.MarkPersisted(record.version)
	return nil
}

func (r agentRepository) Update(_ context.Context, a *agent.Agent) error {
	if !r.uow.active {
		return ErrNoActiveTransaction
	}
	if err := a.Validate(); err != nil {
		return err
	}

	id := a.ID().String()
	pending, buffered := r.uow.agents[id]
	if !buffered {
		s := r.uow.store
		s.mu.RLock()
		stored, exists := s.agents[id]
		s.mu.RUnlock()
		if !exists {
			return errs.NewObjectNotFoundError("agent", id)
		}
		if stored.version != a.Version() {
			return errs.NewConflictError("agent", id)
		}
		pending = pendingAgent{expected: a.Version()}
	}

	pending.record = recordOf(a)
	pending.record.version = a.Version() + 1
	r.uow.agents[id] = pending
	a.MarkPersisted(pending.record.version)
	return nil
}

type idempotencyRepository struct {
	uow *UnitOfWork
}

func (r idempotencyRepository) Find(_ context.Context, customerID kernel.UUID, key string) (*kernel.UUID, error) {
	k := keyID{customer: customerID.String(), key: key}
	if v, ok := r.uow.keys[k]; ok {
		id := v.parcelID
		return &id, nil
	}

	s := r.uow.store
	s.mu.RLock()
	v, ok := s.keys[k]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	id := v.parcelID
	return &id, nil
}

func (r idempotencyRepository) Save(_ context.Context, customerID kernel.UUID, key string, parcelID kernel.UUID, at time.Time) error {
	if !r.uow.active {
		return ErrNoActiveTransaction
	}
	k := keyID{customer: customerID.String(), key: key}

	s := r.uow.store
	s.mu.RLock()
	_, taken := s.keys[k]
	s.mu.RUnlock()
	if _, pending := r.uow.keys[k]; taken || pending {
		return errs.NewConflictError("idempotencyKey", key)
	}

	r.uow.keys[k] = keyRecord{parcelID: parcelID, createdAt: at}
	return nil
}

func (r idempotencyRepository) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	if !r.uow.active {
		return 0, ErrNoActiveTransaction
	}

	s := r.uow.store
	s.mu.RLock()
	var removed int64
	for _, v := range s.keys {
		if v.createdAt.Before(cutoff) {
			removed++
		}
	}
	s.mu.RUnlock()

	r.uow.purge = &cutoff
	return removed, nil
}
