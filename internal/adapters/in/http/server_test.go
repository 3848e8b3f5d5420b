package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dispatch/cmd"
	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/adapters/out/notify"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

type fakeInbox struct {
	entries []notify.InboxEntry
	err     error
	limit   int
}

func (f *fakeInbox) Recent(_ context.Context, _ kernel.UUID, limit int) ([]notify.InboxEntry, error) {
	f.limit = limit
	return f.entries, f.err
}

type fixture struct {
	e        *echo.Echo
	store    *memory.Store
	sessions *notify.SessionRouter
	inbox    *fakeInbox
	shop     ports.Store
	bread    ports.Product
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	store := memory.NewStore(func() time.Time { return testNow })
	shop := ports.Store{
		ID:                      kernel.NewUUID(),
		OwnerID:                 kernel.NewUUID(),
		Name:                    "Corner Bakery",
		HasDelivery:             true,
		DeliveryFee:             decimal.NewFromInt(10),
		MinOrderForFreeDelivery: decimal.NewFromInt(100),
	}
	bread := ports.Product{ID: kernel.NewUUID(), StoreID: shop.ID, Name: "bread", Price: decimal.NewFromInt(10), Quantity: 3}
	require.NoError(t, store.Seed(t.Context(), []ports.Store{shop}, []ports.Product{bread}))

	sessions := notify.NewSessionRouter()
	inbox := &fakeInbox{}
	logger := slog.New(slog.DiscardHandler)
	app, err := cmd.NewCompositionRoot(
		cmd.Config{MaxDistanceKm: 10, PlatformDeliveryFee: decimal.NewFromInt(10), SnapshotTimeout: time.Second},
		cmd.NewMemoryBackend(store),
		cmd.Notifications{Notifier: notify.NewLogNotifier(logger), Sessions: sessions, Inbox: inbox},
		func() time.Time { return testNow },
		logger,
	)
	require.NoError(t, err)
	e, err := httpin.NewEcho(t.Context(), app.CreateServer())
	require.NoError(t, err)

	return fixture{
		e:        e,
		store:    store,
		sessions: sessions,
		inbox:    inbox,
		shop:     shop,
		bread:    bread,
	}
}

func (f fixture) do(method, path string, actor *kernel.Actor, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if actor != nil {
		req.Header.Set(httpin.HeaderUserID, actor.UserID.String())
		req.Header.Set(httpin.HeaderUserRole, actor.Role.String())
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func orderBody(productID kernel.UUID, quantity int) string {
	raw, _ := json.Marshal(map[string]any{
		"lines":          []map[string]any{{"product_id": productID.String(), "quantity": quantity}},
		"address":        map[string]any{"lat": 30.0444, "lon": 31.2357, "text": "12 Tahrir St"},
		"payment_method": "cash",
	})
	return string(raw)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/health", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Healthy", rec.Body.String())
}

func TestAPI_RequiresActorHeaders(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/orders", nil, orderBody(f.bread.ID, 1))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	customer := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Customer}

	rec := f.do(http.MethodPost, "/api/v1/orders", &customer, orderBody(f.bread.ID, 2))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[httpin.CreateOrderResponse](t, rec)
	assert.NotEmpty(t, resp.OrderID)
	assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(20)))
	assert.True(t, resp.DeliveryFee.Equal(decimal.NewFromInt(10)))
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, "store", resp.DeliveryType)
	assert.Nil(t, resp.Assignment)
}

func TestCreateOrder_ErrorMapping(t *testing.T) {
	f := newFixture(t)
	customer := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Customer}
	owner := kernel.Actor{UserID: f.shop.OwnerID, Role: kernel.StoreOwner}

	tests := []struct {
		name   string
		actor  kernel.Actor
		body   string
		status int
	}{
		{"short stock", customer, orderBody(f.bread.ID, 5), http.StatusConflict},
		{"unknown product", customer, orderBody(kernel.NewUUID(), 1), http.StatusNotFound},
		{"zero quantity", customer, orderBody(f.bread.ID, 0), http.StatusBadRequest},
		{"malformed body", customer, "{", http.StatusBadRequest},
		{"not a customer", owner, orderBody(f.bread.ID, 1), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/v1/orders", &tt.actor, tt.body)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decode[httpin.Error](t, rec)
			assert.Equal(t, tt.status, body.Code)
		})
	}
}

func TestTransitionOrderStatus(t *testing.T) {
	f := newFixture(t)
	customer := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Customer}
	owner := kernel.Actor{UserID: f.shop.OwnerID, Role: kernel.StoreOwner}

	created := decode[httpin.CreateOrderResponse](t, f.do(http.MethodPost, "/api/v1/orders", &customer, orderBody(f.bread.ID, 1)))
	path := "/api/v1/orders/" + created.OrderID + "/status"

	rec := f.do(http.MethodPost, path, &owner, `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[httpin.TransitionResponse](t, rec)
	assert.Equal(t, "pending", resp.From)
	assert.Equal(t, "confirmed", resp.To)

	rec = f.do(http.MethodPost, path, &customer, `{"status":"cancelled","reason":"changed my mind"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, path, &owner, `{"status":"flying"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/orders/not-an-id/status", &owner, `{"status":"ready"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignCourier_AdminOnly(t *testing.T) {
	f := newFixture(t)
	customer := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Customer}

	rec := f.do(http.MethodPost, "/api/v1/orders/"+kernel.NewUUID().String()+"/assign", &customer, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCourierWorkflow(t *testing.T) {
	f := newFixture(t)
	admin := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Admin}
	rider := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Delivery}

	rec := f.do(http.MethodPost, "/api/v1/couriers", &rider, `{"vehicle":"motorcycle","phone":"+20100","vehicle_number":"M 1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	courierID := decode[httpin.CreateCourierResponse](t, rec).CourierID

	rec = f.do(http.MethodPost, "/api/v1/couriers", &rider, `{"vehicle":"motorcycle","phone":"+20100"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/couriers?pending=true", &admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decode[[]httpin.Courier](t, rec)
	require.Len(t, pending, 1)
	assert.Equal(t, courierID, pending[0].ID)

	rec = f.do(http.MethodGet, "/api/v1/couriers", &rider, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/couriers/"+courierID+"/review", &admin, `{"approve":true}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPut, "/api/v1/couriers/"+courierID+"/location", &rider, `{"lat":30.05,"lon":31.24,"label":"Downtown"}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPut, "/api/v1/couriers/"+courierID+"/availability", &rider, `{"available":true}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	other := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Delivery}
	rec = f.do(http.MethodPut, "/api/v1/couriers/"+courierID+"/availability", &other, `{"available":false}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/couriers", &admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[[]httpin.Courier](t, rec)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsApproved)
	assert.True(t, all[0].IsAvailable)
	require.NotNil(t, all[0].Location)
	assert.InDelta(t, 30.05, all[0].Location.Lat, 1e-9)
	assert.Equal(t, "Downtown", all[0].LocationLabel)

	rec = f.do(http.MethodDelete, "/api/v1/couriers/"+courierID, &admin, "")
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func TestSessions(t *testing.T) {
	f := newFixture(t)
	user := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Customer}

	rec := f.do(http.MethodPost, "/api/v1/sessions", &user, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	sessionID := decode[httpin.SessionResponse](t, rec).SessionID
	assert.True(t, f.sessions.Online(user.UserID))

	rec = f.do(http.MethodDelete, "/api/v1/sessions/"+sessionID, &user, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, f.sessions.Online(user.UserID))

	rec = f.do(http.MethodDelete, "/api/v1/sessions/"+sessionID, &user, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	user := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Customer}
	f.inbox.entries = []notify.InboxEntry{{ID: "n1", UserID: user.UserID.String(), Title: "Order update", CreatedAt: testNow}}

	rec := f.do(http.MethodGet, "/api/v1/notifications?limit=5", &user, "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]notify.InboxEntry](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, "Order update", entries[0].Title)
	assert.Equal(t, 5, f.inbox.limit)

	f.inbox.err = errors.New("mongo unreachable")
	rec = f.do(http.MethodGet, "/api/v1/notifications", &user, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "mongo")

	rec = f.do(http.MethodGet, "/api/v1/notifications?limit=-1", &user, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCoordinatesAreRequired(t *testing.T) {
	f := newFixture(t)
	customer := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Customer}
	rider := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Delivery}

	rec := f.do(http.MethodPost, "/api/v1/couriers", &rider, `{"vehicle":"bicycle","phone":"+20100"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	courierID := decode[httpin.CreateCourierResponse](t, rec).CourierID

	tests := []struct {
		name    string
		method  string
		path    string
		actor   kernel.Actor
		body    string
		missing string
	}{
		{
			"order without lat",
			http.MethodPost, "/api/v1/orders", customer,
			`{"lines":[{"product_id":"` + f.bread.ID.String() + `","quantity":1}],` +
				`"address":{"lon":31.2357,"text":"12 Tahrir St"},"payment_method":"cash"}`,
			"lat",
		},
		{
			"order without lon",
			http.MethodPost, "/api/v1/orders", customer,
			`{"lines":[{"product_id":"` + f.bread.ID.String() + `","quantity":1}],` +
				`"address":{"lat":30.0444,"text":"12 Tahrir St"},"payment_method":"cash"}`,
			"lon",
		},
		{"location without lat", http.MethodPut, "/api/v1/couriers/" + courierID + "/location", rider, `{"lon":31.24}`, "lat"},
		{"location without lon", http.MethodPut, "/api/v1/couriers/" + courierID + "/location", rider, `{"lat":30.05}`, "lon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt.method, tt.path, &tt.actor, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			body := decode[httpin.Error](t, rec)
			assert.Equal(t, http.StatusBadRequest, body.Code)
			assert.Contains(t, body.Message, tt.missing)
		})
	}

	product, err := memory.NewUnitOfWorkFactory(f.store).Create().Catalog().GetProduct(t.Context(), f.bread.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, product.Quantity)
}

func TestZeroCoordinatesAreAccepted(t *testing.T) {
	f := newFixture(t)
	customer := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Customer}
	body := `{"lines":[{"product_id":"` + f.bread.ID.String() + `","quantity":1}],` +
		`"address":{"lat":0,"lon":0,"text":"Null Island"},"payment_method":"cash"}`

	rec := f.do(http.MethodPost, "/api/v1/orders", &customer, body)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestGetOrder(t *testing.T) {
	f := newFixture(t)
	customer := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Customer}
	owner := kernel.Actor{UserID: f.shop.OwnerID, Role: kernel.StoreOwner}

	created := decode[httpin.CreateOrderResponse](t, f.do(http.MethodPost, "/api/v1/orders", &customer, orderBody(f.bread.ID, 2)))
	path := "/api/v1/orders/" + created.OrderID

	for _, actor := range []kernel.Actor{customer, owner} {
		rec := f.do(http.MethodGet, path, &actor, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decode[httpin.Order](t, rec)
		assert.Equal(t, created.OrderID, got.ID)
		assert.Equal(t, "Corner Bakery", got.StoreName)
		assert.Equal(t, "pending", got.Status)
		assert.Equal(t, "12 Tahrir St", got.Address.Text)
		require.Len(t, got.Items, 1)
		assert.True(t, got.Items[0].LineTotal.Equal(decimal.NewFromInt(20)))
	}

	stranger := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Customer}
	rec := f.do(http.MethodGet, path, &stranger, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/orders/"+kernel.NewUUID().String(), &customer, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	customer := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Customer}
	owner := kernel.Actor{UserID: f.shop.OwnerID, Role: kernel.StoreOwner}

	first := decode[httpin.CreateOrderResponse](t, f.do(http.MethodPost, "/api/v1/orders", &customer, orderBody(f.bread.ID, 1)))
	rec := f.do(http.MethodPost, "/api/v1/orders", &customer, orderBody(f.bread.ID, 1))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = f.do(http.MethodPost, "/api/v1/orders/"+first.OrderID+"/status", &owner, `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/v1/orders", &customer, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[httpin.OrderPage](t, rec)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)

	rec = f.do(http.MethodGet, "/api/v1/orders?scope=store&status=confirmed", &owner, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page = decode[httpin.OrderPage](t, rec)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, first.OrderID, page.Orders[0].ID)

	rec = f.do(http.MethodGet, "/api/v1/orders?limit=1&page=2", &customer, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page = decode[httpin.OrderPage](t, rec)
	assert.Len(t, page.Orders, 1)
	assert.Equal(t, 2, page.Pages)

	tests := []struct {
		name   string
		actor  kernel.Actor
		query  string
		status int
	}{
		{"customer asks for store orders", customer, "?scope=store", http.StatusForbidden},
		{"unknown scope", customer, "?scope=everything", http.StatusBadRequest},
		{"unknown status", owner, "?status=flying", http.StatusBadRequest},
		{"bad limit", customer, "?limit=1000", http.StatusBadRequest},
		{"bad from", owner, "?from=yesterday", http.StatusBadRequest},
		{"owner without store", kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.StoreOwner}, "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, "/api/v1/orders"+tt.query, &tt.actor, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestGetCourierAndStats(t *testing.T) {
	f := newFixture(t)
	admin := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Admin}
	rider := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Delivery}

	rec := f.do(http.MethodPost, "/api/v1/couriers", &rider, `{"vehicle":"bicycle","phone":"+20100"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	courierID := decode[httpin.CreateCourierResponse](t, rec).CourierID

	for _, actor := range []kernel.Actor{rider, admin} {
		rec = f.do(http.MethodGet, "/api/v1/couriers/"+courierID, &actor, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		detail := decode[httpin.CourierDetail](t, rec)
		assert.Equal(t, courierID, detail.ID)
		assert.Equal(t, "bicycle", detail.Vehicle)
		assert.Empty(t, detail.RecentOrders)
	}

	rec = f.do(http.MethodGet, "/api/v1/couriers/"+courierID+"/stats", &rider, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stats := decode[httpin.CourierStats](t, rec)
	assert.Equal(t, courierID, stats.CourierID)
	assert.Equal(t, 0, stats.TotalOrders)
	assert.True(t, stats.TotalEarnings.IsZero())

	other := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Delivery}
	rec = f.do(http.MethodGet, "/api/v1/couriers/"+courierID+"/stats", &other, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	customer := kernel.Actor{UserID: kernel.NewUUID(), Role: kernel.Customer}
	rec = f.do(http.MethodGet, "/api/v1/couriers/"+courierID, &customer, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/couriers/"+kernel.NewUUID().String(), &admin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
