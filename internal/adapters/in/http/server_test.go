package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"parceltrack/cmd"
	httpin "parceltrack/internal/adapters/in/http"
	"parceltrack/internal/adapters/in/http/api"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type caller struct {
	id    uuid.UUID
	role  string
	email string
}

func newCaller(role string) caller {
	id := uuid.New()
	return caller{id: id, role: role, email: role + "-" + id.String()[:8] + "@example.com"}
}

type testApp struct {
	t    *testing.T
	e    *echo.Echo
	root *cmd.CompositionRoot
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	root, err := cmd.NewCompositionRoot(context.Background(), cmd.Config{
		HTTPPort:         "0",
		StorageDriver:    cmd.StorageMemory,
		RealtimeBridge:   cmd.BridgeNone,
		SubscriberBuffer: 16,
		IdempotencyTTL:   time.Hour,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	e, err := httpin.NewRouter(httpin.NewServer(root.CreateHTTPHandlers(), root.Hub(), logger), logger)
	require.NoError(t, err)

	return &testApp{t: t, e: e, root: root}
}

func (a *testApp) do(method, path string, who *caller, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if who != nil {
		setIdentity(req, *who)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func setIdentity(req *http.Request, who caller) {
	req.Header.Set(httpin.HeaderUserID, who.id.String())
	req.Header.Set(httpin.HeaderUserRole, who.role)
	req.Header.Set(httpin.HeaderUserEmail, who.email)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, code int, kind string) {
	t.Helper()
	require.Equal(t, code, rec.Code, rec.Body.String())
	body := decode[api.Error](t, rec)
	assert.Equal(t, kind, body.Kind)
	assert.NotEmpty(t, body.Message)
}

func bookingRequest() api.BookParcelRequest {
	amount := 120.0
	return api.BookParcelRequest{
		Pickup:      api.Address{Address: "12 Market St", City: "Pune", Lat: 18.5204, Lng: 73.8567},
		Delivery:    api.Address{Address: "4 Station Rd", City: "Pune", Lat: 18.5286, Lng: 73.8743},
		Size:        "medium",
		Type:        "documents",
		PaymentMode: "cod",
		Amount:      &amount,
	}
}

func (a *testApp) book(who caller) api.Parcel {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/v1/parcels", &who, bookingRequest())
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.Parcel](a.t, rec)
}

func (a *testApp) registerAgent(admin, agent caller) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/v1/agents", &admin, api.RegisterAgentRequest{Id: agent.id, Name: "Ravi"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (a *testApp) assign(admin caller, parcelID, agentID uuid.UUID) api.Parcel {
	a.t.Helper()
	rec := a.do(http.MethodPut, "/api/v1/parcels/"+parcelID.String()+"/assign", &admin, api.AssignRequest{AgentId: agentID})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[api.Parcel](a.t, rec)
}

func (a *testApp) setStatus(agent caller, parcelID uuid.UUID, status, reason string) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.do(http.MethodPut, "/api/v1/parcels/"+parcelID.String()+"/status", &agent,
		api.StatusUpdateRequest{Status: status, Reason: reason})
}

func TestRouter_PublicRoutes(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Healthy", rec.Body.String())

	rec = app.do(http.MethodGet, "/api/openapi.json", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"openapi"`)
}

func TestRouter_RequiresIdentity(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/api/v1/parcels/mine", nil, nil)
	assertError(t, rec, http.StatusUnauthorized, httpin.KindUnauthorized)

	rec = app.do(http.MethodGet, "/api/v1/parcels/mine", nil, nil,
		httpin.HeaderUserID, uuid.NewString(), httpin.HeaderUserRole, "courier")
	assertError(t, rec, http.StatusUnauthorized, httpin.KindUnauthorized)
}

func TestBookParcel(t *testing.T) {
	app := newTestApp(t)
	customer := newCaller("customer")

	t.Run("creates a pending parcel", func(t *testing.T) {
		p := app.book(customer)

		assert.Equal(t, "Pending", p.Status)
		assert.Equal(t, customer.id, p.CustomerId)
		assert.Equal(t, customer.email, p.CustomerEmail)
		assert.NotEmpty(t, p.TrackingNumber)
		require.Len(t, p.History, 1)
		assert.Equal(t, "Pending", p.History[0].Status)
	})

	t.Run("replays a known idempotency key", func(t *testing.T) {
		first := app.do(http.MethodPost, "/api/v1/parcels", &customer, bookingRequest(), "Idempotency-Key", "order-42")
		require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
		second := app.do(http.MethodPost, "/api/v1/parcels", &customer, bookingRequest(), "Idempotency-Key", "order-42")
		require.Equal(t, http.StatusOK, second.Code, second.Body.String())

		assert.Equal(t, decode[api.Parcel](t, first).Id, decode[api.Parcel](t, second).Id)
	})

	t.Run("rejects bodies outside the contract", func(t *testing.T) {
		req := bookingRequest()
		req.Size = "huge"
		rec := app.do(http.MethodPost, "/api/v1/parcels", &customer, req)
		assertError(t, rec, http.StatusBadRequest, "ValidationError")
	})

	t.Run("rejects a cod booking without an amount", func(t *testing.T) {
		req := bookingRequest()
		req.Amount = nil
		rec := app.do(http.MethodPost, "/api/v1/parcels", &customer, req)
		assertError(t, rec, http.StatusBadRequest, "ValidationError")
	})

	t.Run("only customers book", func(t *testing.T) {
		agent := newCaller("agent")
		rec := app.do(http.MethodPost, "/api/v1/parcels", &agent, bookingRequest())
		assertError(t, rec, http.StatusForbidden, "Forbidden")
	})
}

func TestParcelLifecycle(t *testing.T) {
	app := newTestApp(t)
	customer := newCaller("customer")
	admin := newCaller("admin")
	agent := newCaller("agent")

	app.registerAgent(admin, agent)
	p := app.book(customer)

	assigned := app.assign(admin, p.Id, agent.id)
	assert.Equal(t, "Assigned", assigned.Status)
	require.NotNil(t, assigned.AgentId)
	assert.Equal(t, agent.id, *assigned.AgentId)

	rec := app.setStatus(agent, p.Id, "PickedUp", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = app.setStatus(agent, p.Id, "InTransit", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(http.MethodPut, "/api/v1/parcels/"+p.Id.String()+"/location", &agent,
		api.LocationReport{Lat: 18.5250, Lng: 73.8650, Accuracy: 12})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reported := decode[api.ParcelLocation](t, rec)
	assert.True(t, reported.Available)

	rec = app.do(http.MethodGet, "/api/v1/parcels/"+p.Id.String()+"/location", &customer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	location := decode[api.ParcelLocation](t, rec)
	assert.True(t, location.Available)
	require.NotNil(t, location.Location)
	assert.InDelta(t, 18.5250, location.Location.Lat, 1e-9)

	rec = app.setStatus(agent, p.Id, "Delivered", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	delivered := decode[api.Parcel](t, rec)
	assert.Equal(t, "Delivered", delivered.Status)
	assert.NotNil(t, delivered.DeliveredAt)
	assert.Len(t, delivered.History, 5)

	rec = app.do(http.MethodGet, "/api/v1/parcels/"+p.Id.String(), &customer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fetched := decode[api.Parcel](t, rec)
	require.NotNil(t, fetched.DistanceKm)
	assert.Greater(t, *fetched.DistanceKm, 0.0)

	t.Run("terminal parcels reject further changes", func(t *testing.T) {
		rec := app.setStatus(agent, p.Id, "InTransit", "")
		assertError(t, rec, http.StatusConflict, "InvalidTransition")

		rec = app.do(http.MethodPost, "/api/v1/parcels/"+p.Id.String()+"/cancel", &customer, nil)
		assertError(t, rec, http.StatusConflict, "InvalidTransition")
	})

	t.Run("agent stats count the delivery", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/v1/agents", &admin, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		agents := decode[[]api.Agent](t, rec)
		require.Len(t, agents, 1)
		assert.Equal(t, 1, agents[0].TotalDeliveries)
		assert.Equal(t, 1, agents[0].SuccessfulDeliveries)
		assert.Equal(t, 0, agents[0].AssignedParcels)
	})
}

func TestUpdateStatus_FailureNeedsReason(t *testing.T) {
	app := newTestApp(t)
	customer := newCaller("customer")
	admin := newCaller("admin")
	agent := newCaller("agent")

	app.registerAgent(admin, agent)
	p := app.book(customer)
	app.assign(admin, p.Id, agent.id)
	require.Equal(t, http.StatusOK, app.setStatus(agent, p.Id, "PickedUp", "").Code)

	rec := app.setStatus(agent, p.Id, "Failed", "")
	assertError(t, rec, http.StatusBadRequest, "ValidationError")

	rec = app.setStatus(agent, p.Id, "Failed", "recipient unreachable")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	failed := decode[api.Parcel](t, rec)
	assert.Equal(t, "Failed", failed.Status)
	assert.Equal(t, "recipient unreachable", failed.FailureReason)
}

func TestCancelParcel(t *testing.T) {
	app := newTestApp(t)
	customer := newCaller("customer")
	p := app.book(customer)

	stranger := newCaller("customer")
	rec := app.do(http.MethodPost, "/api/v1/parcels/"+p.Id.String()+"/cancel", &stranger, nil)
	assertError(t, rec, http.StatusForbidden, "Forbidden")

	rec = app.do(http.MethodPost, "/api/v1/parcels/"+p.Id.String()+"/cancel", &customer,
		api.CancelRequest{Notes: "changed my mind"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cancelled := decode[api.Parcel](t, rec)
	assert.Equal(t, "Cancelled", cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.History[len(cancelled.History)-1].Notes)
}

func TestGetParcel_Access(t *testing.T) {
	app := newTestApp(t)
	customer := newCaller("customer")
	p := app.book(customer)

	stranger := newCaller("customer")
	rec := app.do(http.MethodGet, "/api/v1/parcels/"+p.Id.String(), &stranger, nil)
	assertError(t, rec, http.StatusForbidden, "Forbidden")

	unassigned := newCaller("agent")
	rec = app.do(http.MethodGet, "/api/v1/parcels/"+p.Id.String(), &unassigned, nil)
	assertError(t, rec, http.StatusForbidden, "Forbidden")

	admin := newCaller("admin")
	rec = app.do(http.MethodGet, "/api/v1/parcels/"+p.Id.String(), &admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(http.MethodGet, "/api/v1/parcels/"+uuid.NewString(), &admin, nil)
	assertError(t, rec, http.StatusNotFound, "NotFound")

	rec = app.do(http.MethodGet, "/api/v1/parcels/not-a-uuid", &admin, nil)
	assertError(t, rec, http.StatusBadRequest, "ValidationError")
}

func TestQRCode_ScanAndVerify(t *testing.T) {
	app := newTestApp(t)
	customer := newCaller("customer")
	admin := newCaller("admin")
	agent := newCaller("agent")

	app.registerAgent(admin, agent)
	p := app.book(customer)
	app.assign(admin, p.Id, agent.id)

	rec := app.do(http.MethodGet, "/api/v1/parcels/"+p.Id.String()+"/qrcode", &customer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	qr := decode[api.QRCode](t, rec)
	assert.Equal(t, p.TrackingNumber, qr.TrackingNumber)

	rec = app.do(http.MethodPost, "/api/v1/qr/verify", &agent, api.VerifyRequest{Payload: qr.Payload})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, p.Id, decode[api.Parcel](t, rec).Id)

	rec = app.do(http.MethodPost, "/api/v1/qr/scan", &agent, api.ScanRequest{Payload: qr.Payload, Status: "PickedUp"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "PickedUp", decode[api.Parcel](t, rec).Status)

	rec = app.do(http.MethodPost, "/api/v1/qr/verify", &agent, api.VerifyRequest{Payload: "garbage"})
	assertError(t, rec, http.StatusBadRequest, "ValidationError")
}

func TestListings(t *testing.T) {
	app := newTestApp(t)
	alice := newCaller("customer")
	bob := newCaller("customer")
	admin := newCaller("admin")
	agent := newCaller("agent")

	app.registerAgent(admin, agent)
	first := app.book(alice)
	app.book(alice)
	app.book(bob)
	app.assign(admin, first.Id, agent.id)

	rec := app.do(http.MethodGet, "/api/v1/parcels/mine", &alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	mine := decode[api.ParcelPage](t, rec)
	assert.EqualValues(t, 2, mine.Total)

	rec = app.do(http.MethodGet, "/api/v1/parcels/mine?status=Assigned", &alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode[api.ParcelPage](t, rec).Total)

	rec = app.do(http.MethodGet, "/api/v1/agent/parcels", &agent, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assigned := decode[api.ParcelPage](t, rec)
	require.Len(t, assigned.Items, 1)
	assert.Equal(t, first.Id, assigned.Items[0].Id)

	rec = app.do(http.MethodGet, "/api/v1/parcels?limit=2", &admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[api.ParcelPage](t, rec)
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Items, 2)

	rec = app.do(http.MethodGet, "/api/v1/parcels?customerId="+bob.id.String(), &admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode[api.ParcelPage](t, rec).Total)

	rec = app.do(http.MethodGet, "/api/v1/parcels?nearLat=18.5204&nearLng=73.8567&radiusKm=1", &admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 3, decode[api.ParcelPage](t, rec).Total)

	rec = app.do(http.MethodGet, "/api/v1/parcels?status=Lost", &admin, nil)
	assertError(t, rec, http.StatusBadRequest, "ValidationError")

	rec = app.do(http.MethodGet, "/api/v1/parcels", &alice, nil)
	assertError(t, rec, http.StatusForbidden, "Forbidden")
}

func TestAdminOperations(t *testing.T) {
	app := newTestApp(t)
	admin := newCaller("admin")
	agent := newCaller("agent")
	customer := newCaller("customer")

	app.registerAgent(admin, agent)

	rec := app.do(http.MethodPost, "/api/v1/agents", &admin, api.RegisterAgentRequest{Id: agent.id, Name: "Ravi"})
	assertError(t, rec, http.StatusConflict, "Conflict")

	rec = app.do(http.MethodPut, "/api/v1/agents/"+agent.id.String()+"/active", &admin, api.SetAgentActiveRequest{Active: false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decode[api.Agent](t, rec).Active)

	p := app.book(customer)
	rec = app.do(http.MethodPut, "/api/v1/parcels/"+p.Id.String()+"/assign", &admin, api.AssignRequest{AgentId: agent.id})
	assertError(t, rec, http.StatusUnprocessableEntity, "InvalidState")

	rec = app.do(http.MethodGet, "/api/v1/agents?active=true", &admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[[]api.Agent](t, rec))

	rec = app.do(http.MethodGet, "/api/v1/stats/dashboard", &admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stats := decode[api.DashboardStats](t, rec)
	assert.EqualValues(t, 1, stats.Total)
	assert.EqualValues(t, 1, stats.Pending)
	assert.EqualValues(t, 1, stats.BookedToday)

	rec = app.do(http.MethodGet, "/api/v1/stats/dashboard", &customer, nil)
	assertError(t, rec, http.StatusForbidden, "Forbidden")

	rec = app.do(http.MethodPost, "/api/v1/exports/parcels", &admin, api.ExportRequest{})
	assertError(t, rec, http.StatusServiceUnavailable, "DependencyFailure")
}

func TestStreamEvents(t *testing.T) {
	app := newTestApp(t)
	server := httptest.NewServer(app.e)
	t.Cleanup(server.Close)

	customer := newCaller("customer")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/events", nil)
	require.NoError(t, err)
	setIdentity(req, customer)

	res, err := server.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/event-stream", res.Header.Get(echo.HeaderContentType))

	lines := bufio.NewScanner(res.Body)
	require.True(t, lines.Scan())
	require.Equal(t, ": connected", lines.Text())

	p := app.book(customer)

	var eventType, data string
	for lines.Scan() {
		line := lines.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
		if data != "" {
			break
		}
	}
	require.Equal(t, "parcel.created", eventType)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(data), &payload))
	assert.Equal(t, p.Id.String(), payload["parcelId"])
	assert.Equal(t, "Pending", payload["status"])
	assert.NotContains(t, payload, "channels")
}

func TestStreamEvents_ParcelChannelNeedsViewAccess(t *testing.T) {
	app := newTestApp(t)
	owner := newCaller("customer")
	p := app.book(owner)

	stranger := newCaller("customer")
	rec := app.do(http.MethodGet, "/api/v1/events?parcelId="+p.Id.String(), &stranger, nil)
	assertError(t, rec, http.StatusForbidden, "Forbidden")
}

func openStream(t *testing.T, server *httptest.Server, who caller, query string) *bufio.Scanner {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/events"+query, nil)
	require.NoError(t, err)
	setIdentity(req, who)

	res, err := server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	require.Equal(t, http.StatusOK, res.StatusCode)

	lines := bufio.NewScanner(res.Body)
	require.True(t, lines.Scan())
	require.Equal(t, ": connected", lines.Text())
	return lines
}

func nextEvent(t *testing.T, lines *bufio.Scanner) (string, map[string]any) {
	t.Helper()
	var eventType string
	for lines.Scan() {
		line := lines.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			var payload map[string]any
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &payload))
			return eventType, payload
		}
	}
	require.FailNow(t, "event stream ended", "%v", lines.Err())
	return "", nil
}

func TestStreamEvents_ReassignmentRevokesParcelChannel(t *testing.T) {
	app := newTestApp(t)
	server := httptest.NewServer(app.e)
	t.Cleanup(server.Close)

	customer := newCaller("customer")
	admin := newCaller("admin")
	first := newCaller("agent")
	second := newCaller("agent")
	app.registerAgent(admin, first)
	app.registerAgent(admin, second)
	p := app.book(customer)
	app.assign(admin, p.Id, first.id)

	lines := openStream(t, server, first, "?parcelId="+p.Id.String())

	app.assign(admin, p.Id, second.id)
	eventType, payload := nextEvent(t, lines)
	require.Equal(t, "parcel.assigned", eventType)
	assert.Equal(t, p.Id.String(), payload["parcelId"])
	assert.Equal(t, second.id.String(), payload["agentId"])
	assert.Equal(t, first.id.String(), payload["previousAgentId"])

	rec := app.setStatus(second, p.Id, "PickedUp", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	other := app.book(customer)
	app.assign(admin, other.Id, first.id)

	eventType, payload = nextEvent(t, lines)
	assert.Equal(t, "parcel.assigned", eventType)
	assert.Equal(t, other.Id.String(), payload["parcelId"])
}

func TestListParcels_PageBounds(t *testing.T) {
	app := newTestApp(t)
	customer := newCaller("customer")
	app.book(customer)

	rec := app.do(http.MethodGet, "/api/v1/parcels/mine?page=100000000000000000&limit=100", &customer, nil)
	assertError(t, rec, http.StatusBadRequest, "ValidationError")

	rec = app.do(http.MethodGet, "/api/v1/parcels/mine?page=1000000&limit=100", &customer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[api.ParcelPage](t, rec)
	assert.EqualValues(t, 1, page.Total)
	assert.Empty(t, page.Items)
}

func TestListParcels_StatusFilterIgnoresHistory(t *testing.T) {
	app := newTestApp(t)
	customer := newCaller("customer")
	admin := newCaller("admin")
	agent := newCaller("agent")
	app.registerAgent(admin, agent)

	drive := func(path ...string) api.Parcel {
		p := app.book(customer)
		app.assign(admin, p.Id, agent.id)
		for _, status := range path {
			reason := ""
			if status == "Failed" {
				reason = "address not found"
			}
			rec := app.setStatus(agent, p.Id, status, reason)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		}
		return p
	}

	failedAtPickup := drive("PickedUp", "Failed")
	failedInTransit := drive("PickedUp", "InTransit", "Failed")
	drive("PickedUp", "InTransit", "Delivered")
	drive("PickedUp", "InTransit")
	app.book(customer)

	rec := app.do(http.MethodGet, "/api/v1/parcels?status=Failed", &admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[api.ParcelPage](t, rec)
	assert.EqualValues(t, 2, page.Total)
	ids := make([]uuid.UUID, 0, len(page.Items))
	for _, item := range page.Items {
		assert.Equal(t, "Failed", item.Status)
		ids = append(ids, item.Id)
	}
	assert.ElementsMatch(t, []uuid.UUID{failedAtPickup.Id, failedInTransit.Id}, ids)

	rec = app.do(http.MethodGet, "/api/v1/parcels?status=InTransit", &admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode[api.ParcelPage](t, rec).Total)
}

func TestQRCode_RoleCheckedBeforeLookup(t *testing.T) {
	app := newTestApp(t)
	customer := newCaller("customer")
	p := app.book(customer)

	rec := app.do(http.MethodGet, "/api/v1/parcels/"+p.Id.String()+"/qrcode", &customer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	qr := decode[api.QRCode](t, rec)

	tn, err := parcel.NewTrackingNumber(time.Now())
	require.NoError(t, err)
	unknown, err := parcel.EncodeQRPayload(kernel.NewUUID(), tn)
	require.NoError(t, err)

	stranger := newCaller("customer")
	for _, payload := range []string{qr.Payload, unknown, "garbage"} {
		rec = app.do(http.MethodPost, "/api/v1/qr/scan", &stranger, api.ScanRequest{Payload: payload, Status: "PickedUp"})
		assertError(t, rec, http.StatusForbidden, "Forbidden")

		rec = app.do(http.MethodPost, "/api/v1/qr/verify", &stranger, api.VerifyRequest{Payload: payload})
		assertError(t, rec, http.StatusForbidden, "Forbidden")
	}
}
