package parcelrepo_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"parceltrack/internal/adapters/out/postgres/parcelrepo"
	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/core/ports"
	"parceltrack/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ParcelRepositoryIntegrationTestSuite verifies parcel persistence against PostgreSQL.
type ParcelRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *parcelrepo.GormParcelRepository
}

func (suite *ParcelRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{TranslateError: true})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&parcelrepo.ParcelDTO{}, &parcelrepo.HistoryEntryDTO{}))
}

func (suite *ParcelRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE parcels, parcel_history").Error)

	suite.repository = parcelrepo.NewGormParcelRepository(suite.db)
}

func (suite *ParcelRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *ParcelRepositoryIntegrationTestSuite) caller(role identity.Role) identity.Identity {
	id, err := identity.NewIdentity(kernel.NewUUID(), role, "")
	suite.Require().NoError(err)
	return id
}

func (suite *ParcelRepositoryIntegrationTestSuite) address(line, city string, lat, lng float64) kernel.Address {
	loc, err := kernel.NewLocation(lat, lng)
	suite.Require().NoError(err)
	addr, err := kernel.NewAddress(line, city, "", "", loc)
	suite.Require().NoError(err)
	return addr
}

type parcelSpec struct {
	customer  identity.Identity
	createdAt time.Time
	pickup    kernel.Address
	delivery  kernel.Address
	payment   parcel.Payment
}

func (suite *ParcelRepositoryIntegrationTestSuite) add(spec parcelSpec) *parcel.Parcel {
	if spec.createdAt.IsZero() {
		spec.createdAt = time.Now()
	}
	if spec.pickup.Validate() != nil {
		spec.pickup = suite.address("Mirpur 10", "Dhaka", 23.81, 90.37)
	}
	if spec.delivery.Validate() != nil {
		spec.delivery = suite.address("Agrabad", "Chittagong", 22.33, 91.81)
	}
	if spec.payment.Validate() != nil {
		spec.payment, _ = parcel.NewPayment(parcel.PaymentPrepaid, 0)
	}
	if spec.customer.Validate() != nil {
		spec.customer = suite.caller(identity.RoleCustomer)
	}

	tn, err := parcel.NewTrackingNumber(spec.createdAt)
	suite.Require().NoError(err)
	weight := 2.5
	item, err := parcel.NewItem(parcel.SizeLarge, "electronics", &weight)
	suite.Require().NoError(err)

	p, err := parcel.NewParcel(kernel.NewUUID(), tn, spec.customer, spec.pickup, spec.delivery, item, spec.payment, spec.createdAt)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Add(context.Background(), p))
	return p
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestAdd_RoundTripsEveryField() {
	ctx := context.Background()
	cod, err := parcel.NewPayment(parcel.PaymentCOD, 1250.5)
	suite.Require().NoError(err)
	p := suite.add(parcelSpec{payment: cod})

	suite.Equal(int64(1), p.Version())

	stored, err := suite.repository.Get(ctx, p.ID())
	suite.Require().NoError(err)
	suite.True(stored.TrackingNumber().IsEqual(p.TrackingNumber()))
	suite.True(stored.IsOwnedBy(p.CustomerID()))
	suite.Equal(parcel.Pending, stored.Status())
	suite.Equal("Agrabad", stored.Delivery().Line())
	suite.InDelta(22.33, stored.Delivery().Location().Lat(), 1e-9)
	suite.Equal(parcel.SizeLarge, stored.Item().Size())
	suite.Require().NotNil(stored.Item().Weight())
	suite.InDelta(2.5, *stored.Item().Weight(), 1e-9)
	suite.Equal(parcel.PaymentCOD, stored.Payment().Mode())
	suite.InDelta(1250.5, stored.Payment().Amount(), 1e-9)
	suite.Equal(p.QRPayload(), stored.QRPayload())
	suite.Nil(stored.AgentID())
	suite.Nil(stored.AgentLocation())
	suite.Require().Len(stored.History(), 1)
	suite.Equal(parcel.Pending, stored.History()[0].Status)
	suite.WithinDuration(p.CreatedAt(), stored.CreatedAt(), time.Millisecond)
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestAdd_DuplicateTrackingNumberIsConflict() {
	ctx := context.Background()
	p := suite.add(parcelSpec{})

	copyOf, err := parcel.NewParcel(
		kernel.NewUUID(), p.TrackingNumber(), suite.caller(identity.RoleCustomer),
		p.Pickup(), p.Delivery(), p.Item(), p.Payment(), time.Now(),
	)
	suite.Require().NoError(err)

	err = suite.repository.Add(ctx, copyOf)
	suite.Require().ErrorIs(err, errs.ErrConflict)
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestUpdate_PersistsAssignmentHistoryAndLocation() {
	ctx := context.Background()
	p := suite.add(parcelSpec{})
	admin := suite.caller(identity.RoleAdmin)
	courier := suite.caller(identity.RoleAgent)

	_, err := p.Assign(courier.UserID(), admin, time.Now(), "north route")
	suite.Require().NoError(err)
	suite.Require().NoError(p.Advance(parcel.PickedUp, courier, time.Now(), "", ""))
	suite.Require().NoError(p.Advance(parcel.InTransit, courier, time.Now(), "", ""))
	loc, _ := kernel.NewLocation(23.0, 91.0)
	snapshot, err := parcel.NewLocationSnapshot(loc, 12.5, time.Now(), time.Now())
	suite.Require().NoError(err)
	suite.Require().NoError(p.RecordLocation(courier.UserID(), snapshot))

	suite.Require().NoError(suite.repository.Update(ctx, p))
	suite.Equal(int64(2), p.Version())

	stored, err := suite.repository.GetForUpdate(ctx, p.ID())
	suite.Require().NoError(err)
	suite.Equal(parcel.InTransit, stored.Status())
	suite.True(stored.IsAssignedTo(courier.UserID()))
	suite.Require().Len(stored.History(), 4)
	suite.Equal("north route", stored.History()[1].Notes)
	suite.Equal(identity.RoleAgent, stored.History()[3].ActorRole)
	suite.Require().NotNil(stored.AgentLocation())
	suite.InDelta(12.5, stored.AgentLocation().Accuracy, 1e-9)
	suite.InDelta(91.0, stored.AgentLocation().Location.Lng(), 1e-9)
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestUpdate_StaleVersionIsConflict() {
	ctx := context.Background()
	p := suite.add(parcelSpec{})
	stale, err := suite.repository.Get(ctx, p.ID())
	suite.Require().NoError(err)

	_, err = p.Assign(kernel.NewUUID(), suite.caller(identity.RoleAdmin), time.Now(), "")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Update(ctx, p))

	_, err = stale.Assign(kernel.NewUUID(), suite.caller(identity.RoleAdmin), time.Now(), "")
	suite.Require().NoError(err)
	err = suite.repository.Update(ctx, stale)

	suite.Require().ErrorIs(err, errs.ErrConflict)
	stored, err := suite.repository.Get(ctx, p.ID())
	suite.Require().NoError(err)
	suite.True(stored.IsAssignedTo(*p.AgentID()))
	suite.Len(stored.History(), 2)
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestUpdate_UnknownParcelIsNotFound() {
	ctx := context.Background()
	p := suite.add(parcelSpec{})
	suite.Require().NoError(suite.db.Exec("DELETE FROM parcels").Error)

	err := suite.repository.Update(ctx, p)

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestGet_NotFound() {
	ctx := context.Background()

	_, err := suite.repository.Get(ctx, kernel.NewUUID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)

	tn, err := parcel.ParseTrackingNumber("GFNOPE12345678")
	suite.Require().NoError(err)
	_, err = suite.repository.GetByTrackingNumber(ctx, tn)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestGetByTrackingNumber() {
	ctx := context.Background()
	p := suite.add(parcelSpec{})
	lower, err := parcel.ParseTrackingNumber(p.TrackingNumber().String())
	suite.Require().NoError(err)

	stored, err := suite.repository.GetByTrackingNumber(ctx, lower)

	suite.Require().NoError(err)
	suite.True(stored.ID().IsEqual(p.ID()))
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestSearch_NewestFirstWithStablePaging() {
	ctx := context.Background()
	customer := suite.caller(identity.RoleCustomer)
	base := time.Now().Add(-time.Hour)
	ids := make([]kernel.UUID, 0, 5)
	for i := range 5 {
		ids = append(ids, suite.add(parcelSpec{customer: customer, createdAt: base.Add(time.Duration(i) * time.Minute)}).ID())
	}
	suite.add(parcelSpec{})

	owner := customer.UserID()
	first, err := suite.repository.Search(ctx, ports.SearchCriteria{CustomerID: &owner, Page: 1, Limit: 2})
	suite.Require().NoError(err)
	second, err := suite.repository.Search(ctx, ports.SearchCriteria{CustomerID: &owner, Page: 2, Limit: 2})
	suite.Require().NoError(err)
	third, err := suite.repository.Search(ctx, ports.SearchCriteria{CustomerID: &owner, Page: 3, Limit: 2})
	suite.Require().NoError(err)

	suite.Equal(int64(5), first.Total)
	suite.Require().Len(first.Items, 2)
	suite.Require().Len(second.Items, 2)
	suite.Require().Len(third.Items, 1)
	suite.True(first.Items[0].ID().IsEqual(ids[4]))
	suite.True(first.Items[1].ID().IsEqual(ids[3]))
	suite.True(second.Items[0].ID().IsEqual(ids[2]))
	suite.True(third.Items[0].ID().IsEqual(ids[0]))
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestSearch_Filters() {
	ctx := context.Background()
	admin := suite.caller(identity.RoleAdmin)
	courier := kernel.NewUUID()

	dhaka := suite.add(parcelSpec{
		pickup:   suite.address("Gulshan 2", "Dhaka", 23.79, 90.41),
		delivery: suite.address("Banani", "Dhaka", 23.79, 90.40),
	})
	sylhet := suite.add(parcelSpec{
		pickup:    suite.address("Zindabazar", "Sylhet", 24.89, 91.87),
		delivery:  suite.address("Amberkhana", "Sylhet", 24.90, 91.87),
		createdAt: time.Now().Add(-48 * time.Hour),
	})
	_, err := sylhet.Assign(courier, admin, time.Now(), "")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Update(ctx, sylhet))

	cases := []struct {
		name     string
		criteria ports.SearchCriteria
		want     []kernel.UUID
	}{
		{"status", ports.SearchCriteria{Statuses: []parcel.Status{parcel.Assigned}}, []kernel.UUID{sylhet.ID()}},
		{"agent", ports.SearchCriteria{AgentID: &courier}, []kernel.UUID{sylhet.ID()}},
		{"city text", ports.SearchCriteria{Text: "syl"}, []kernel.UUID{sylhet.ID()}},
		{"tracking text", ports.SearchCriteria{Text: strings.ToLower(suffix(dhaka))}, []kernel.UUID{dhaka.ID()}},
		{"wildcards are literal", ports.SearchCriteria{Text: "%"}, nil},
		{"created window", ports.SearchCriteria{CreatedFrom: ptr(time.Now().Add(-24 * time.Hour))}, []kernel.UUID{dhaka.ID()}},
		{"near", ports.SearchCriteria{Near: &ports.ProximityFilter{Center: mustLocation(23.80, 90.41), RadiusKm: 5}}, []kernel.UUID{dhaka.ID()}},
		{"nothing near", ports.SearchCriteria{Near: &ports.ProximityFilter{Center: mustLocation(0, 0), RadiusKm: 50}}, nil},
	}

	for _, tc := range cases {
		suite.Run(tc.name, func() {
			page, searchErr := suite.repository.Search(ctx, tc.criteria)
			suite.Require().NoError(searchErr)
			suite.Require().Len(page.Items, len(tc.want))
			suite.Equal(int64(len(tc.want)), page.Total)
			for i, id := range tc.want {
				suite.True(page.Items[i].ID().IsEqual(id))
			}
		})
	}
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestSearch_StatusFailedIgnoresHistory() {
	ctx := context.Background()
	admin := suite.caller(identity.RoleAdmin)
	courier := suite.caller(identity.RoleAgent)

	drive := func(path ...parcel.Status) *parcel.Parcel {
		p := suite.add(parcelSpec{})
		_, err := p.Assign(courier.UserID(), admin, time.Now(), "")
		suite.Require().NoError(err)
		for _, next := range path {
			reason := ""
			if next == parcel.Failed {
				reason = "recipient absent"
			}
			suite.Require().NoError(p.Advance(next, courier, time.Now(), "", reason))
		}
		suite.Require().NoError(suite.repository.Update(ctx, p))
		return p
	}

	failedEarly := drive(parcel.PickedUp, parcel.Failed)
	failedLate := drive(parcel.PickedUp, parcel.InTransit, parcel.Failed)
	drive(parcel.PickedUp, parcel.InTransit, parcel.Delivered)
	drive(parcel.PickedUp, parcel.InTransit)
	suite.add(parcelSpec{})

	page, err := suite.repository.Search(ctx, ports.SearchCriteria{Statuses: []parcel.Status{parcel.Failed}})
	suite.Require().NoError(err)
	suite.Equal(int64(2), page.Total)
	got := make([]kernel.UUID, 0, len(page.Items))
	for _, p := range page.Items {
		suite.Equal(parcel.Failed, p.Status())
		got = append(got, p.ID())
	}
	suite.ElementsMatch([]kernel.UUID{failedEarly.ID(), failedLate.ID()}, got)
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestSearch_PageBeyondLimitIsEmpty() {
	ctx := context.Background()
	suite.add(parcelSpec{})

	page, err := suite.repository.Search(ctx, ports.SearchCriteria{Page: 100_000_000_000_000_000, Limit: ports.MaxPageLimit})

	suite.Require().NoError(err)
	suite.Equal(int64(1), page.Total)
	suite.Empty(page.Items)
	suite.Equal(ports.MaxPage, page.Page)
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestStats() {
	ctx := context.Background()
	admin := suite.caller(identity.RoleAdmin)
	courier := suite.caller(identity.RoleAgent)
	dayStart := time.Now().UTC().Truncate(24 * time.Hour)

	suite.add(parcelSpec{})
	suite.add(parcelSpec{createdAt: dayStart.Add(-time.Hour)})

	cod, _ := parcel.NewPayment(parcel.PaymentCOD, 300)
	delivered := suite.add(parcelSpec{payment: cod})
	_, err := delivered.Assign(courier.UserID(), admin, time.Now(), "")
	suite.Require().NoError(err)
	for _, next := range []parcel.Status{parcel.PickedUp, parcel.InTransit, parcel.Delivered} {
		suite.Require().NoError(delivered.Advance(next, courier, time.Now(), "", ""))
	}
	suite.Require().NoError(suite.repository.Update(ctx, delivered))

	failed := suite.add(parcelSpec{})
	_, err = failed.Assign(courier.UserID(), admin, time.Now(), "")
	suite.Require().NoError(err)
	suite.Require().NoError(failed.Advance(parcel.PickedUp, courier, time.Now(), "", ""))
	suite.Require().NoError(failed.Advance(parcel.Failed, courier, time.Now(), "", "recipient absent"))
	suite.Require().NoError(suite.repository.Update(ctx, failed))

	stats, err := suite.repository.Stats(ctx, dayStart)

	suite.Require().NoError(err)
	suite.Equal(int64(4), stats.Total)
	suite.Equal(int64(2), stats.Pending)
	suite.Equal(int64(0), stats.InFlight)
	suite.Equal(int64(1), stats.DeliveredToday)
	suite.Equal(int64(1), stats.Failed)
	suite.InDelta(300, stats.CODCollected, 1e-9)
	suite.Equal(int64(3), stats.BookedToday)
}

func TestParcelRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(ParcelRepositoryIntegrationTestSuite))
}

func suffix(p *parcel.Parcel) string {
	tn := p.TrackingNumber().String()
	return tn[len(tn)-8:]
}

func ptr[T any](v T) *T {
	return &v
}

func mustLocation(lat, lng float64) kernel.Location {
	loc, err := kernel.NewLocation(lat, lng)
	if err != nil {
		panic(err)
	}
	return loc
}
