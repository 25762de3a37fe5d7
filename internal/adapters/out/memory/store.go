// Package memory is the in-process storage backend. It keeps committed state in
// maps guarded by one mutex and applies a unit of work's writes atomically at
// commit, after checking that every touched aggregate still has the version it
// was loaded with.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"parceltrack/internal/core/domain/model/agent"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/core/ports"
	"parceltrack/internal/pkg/errs"
)

type agentRecord struct {
	id      kernel.UUID
	name    string
	active  bool
	stats   agent.Stats
	parcels []kernel.UUID
	version int64
}

type keyID struct {
	customer string
	key      string
}

type keyRecord struct {
	parcelID  kernel.UUID
	createdAt time.Time
}

// Store holds the committed state shared by every unit of work it creates.
type Store struct {
	mu      sync.RWMutex
	parcels map[string]parcel.Snapshot
	byTN    map[string]string
	agents  map[string]agentRecord
	keys    map[keyID]keyRecord
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		parcels: make(map[string]parcel.Snapshot),
		byTN:    make(map[string]string),
		agents:  make(map[string]agentRecord),
		keys:    make(map[keyID]keyRecord),
	}
}

// Create returns a unit of work over the store.
func (s *Store) Create() ports.UnitOfWork {
	return newUnitOfWork(s)
}

// Parcels returns the committed parcel reader.
func (s *Store) Parcels() ports.ParcelReader {
	return parcelReader{store: s}
}

// Agents returns the committed agent reader.
func (s *Store) Agents() ports.AgentReader {
	return agentReader{store: s}
}

func restoreParcel(snapshot parcel.Snapshot) (*parcel.Parcel, error) {
	snapshot.History = slices.Clone(snapshot.History)
	return parcel.RestoreParcel(snapshot)
}

func restoreAgent(r agentRecord) (*agent.Agent, error) {
	return agent.RestoreAgent(r.id, r.name, r.active, r.stats, slices.Clone(r.parcels), r.version)
}

func recordOf(a *agent.Agent) agentRecord {
	return agentRecord{
		id:      a.ID(),
		name:    a.Name(),
		active:  a.IsActive(),
		stats:   a.Stats(),
		parcels: a.Parcels(),
		version: a.Version(),
	}
}

type parcelReader struct {
	store *Store
}

func (r parcelReader) Get(_ context.Context, id kernel.UUID) (*parcel.Parcel, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	snapshot, ok := r.store.parcels[id.String()]
	r.store.mu.RUnlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("parcel", id.String())
	}
	return restoreParcel(snapshot)
}

func (r parcelReader) GetByTrackingNumber(ctx context.Context, tn parcel.TrackingNumber) (*parcel.Parcel, error) {
	if err := tn.Validate(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	id, ok := r.store.byTN[tn.String()]
	r.store.mu.RUnlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("parcel", tn.String())
	}
	parcelID, err := kernel.UUIDFromString(id)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, parcelID)
}

func (r parcelReader) Search(_ context.Context, criteria ports.SearchCriteria) (ports.Page, error) {
	criteria = criteria.Normalize()

	r.store.mu.RLock()
	matched := make([]parcel.Snapshot, 0)
	for _, snapshot := range r.store.parcels {
		if matches(snapshot, criteria) {
			matched = append(matched, snapshot)
		}
	}
	r.store.mu.RUnlock()

	slices.SortFunc(matched, func(a, b parcel.Snapshot) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID.String(), a.ID.String())
	})

	page := ports.Page{Total: int64(len(matched)), Page: criteria.Page, Limit: criteria.Limit}
	start := min(criteria.Offset(), len(matched))
	end := min(start+criteria.Limit, len(matched))
	page.Items = make([]*parcel.Parcel, 0, end-start)
	for _, snapshot := range matched[start:end] {
		p, err := restoreParcel(snapshot)
		if err != nil {
			return ports.Page{}, err
		}
		page.Items = append(page.Items, p)
	}
	return page, nil
}

func matches(s parcel.Snapshot, c ports.SearchCriteria) bool {
	if c.CustomerID != nil && !s.CustomerID.IsEqual(*c.CustomerID) {
		return false
	}
	if c.AgentID != nil && (s.AgentID == nil || !s.AgentID.IsEqual(*c.AgentID)) {
		return false
	}
	if len(c.Statuses) > 0 && !slices.Contains(c.Statuses, s.Status) {
		return false
	}
	if text := strings.ToLower(strings.TrimSpace(c.Text)); text != "" {
		haystacks := []string{s.TrackingNumber.String(), s.Pickup.City(), s.Delivery.City()}
		if !slices.ContainsFunc(haystacks, func(h string) bool { return strings.Contains(strings.ToLower(h), text) }) {
			return false
		}
	}
	if c.CreatedFrom != nil && s.CreatedAt.Before(*c.CreatedFrom) {
		return false
	}
	if c.CreatedTo != nil && s.CreatedAt.After(*c.CreatedTo) {
		return false
	}
	if c.Near != nil && !near(c.Near, s.Pickup) && !near(c.Near, s.Delivery) {
		return false
	}
	return true
}

func near(f *ports.ProximityFilter, a kernel.Address) bool {
	km := kernel.HaversineKm(f.Center.Lat(), f.Center.Lng(), a.Location().Lat(), a.Location().Lng())
	return km <= f.RadiusKm
}

func (r parcelReader) Stats(_ context.Context, dayStart time.Time) (ports.ParcelStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var stats ports.ParcelStats
	for _, s := range r.store.parcels {
		stats.Total++
		if !s.CreatedAt.Before(dayStart) {
			stats.BookedToday++
		}
		switch s.Status {
		case parcel.Pending:
			stats.Pending++
		case parcel.Assigned, parcel.PickedUp, parcel.InTransit:
			stats.InFlight++
		case parcel.Delivered:
			if s.DeliveredAt != nil && !s.DeliveredAt.Before(dayStart) {
				stats.DeliveredToday++
			}
			if s.Payment.Mode() == parcel.PaymentCOD {
				stats.CODCollected += s.Payment.Amount()
			}
		case parcel.Failed:
			stats.Failed++
		}
	}
	return stats, nil
}

type agentReader struct {
	store *Store
}

func (r agentReader) Get(_ context.Context, id kernel.UUID) (*agent.Agent, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	record, ok := r.store.agents[id.String()]
	r.store.mu.RUnlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("agent", id.String())
	}
	return restoreAgent(record)
}

func (r agentReader) List(_ context.Context, activeOnly bool) ([]*agent.Agent, error) {
	r.store.mu.RLock()
	records := make([]agentRecord, 0, len(r.store.agents))
	for _, record := range r.store.agents {
		if activeOnly && !record.active {
			continue
		}
		records = append(records, record)
	}
	r.store.mu.RUnlock()

	slices.SortFunc(records, func(a, b agentRecord) int {
		return cmp.Or(cmp.Compare(a.name, b.name), cmp.Compare(a.id.String(), b.id.String()))
	})

	agents := make([]*agent.Agent, 0, len(records))
	for _, record := range records {
		a, err := restoreAgent(record)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, nil
}
