package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/andeanmarket/storefront/internal/cart"
	"github.com/andeanmarket/storefront/internal/catalog"
	"github.com/andeanmarket/storefront/internal/checkout"
	"github.com/andeanmarket/storefront/internal/metrics"
	"github.com/andeanmarket/storefront/internal/order"
	"github.com/andeanmarket/storefront/internal/payment"
	"github.com/andeanmarket/storefront/internal/stock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// missCache always misses so handler tests hit the repository directly.
type missCache struct{}

func (missCache) Get(context.Context, int64) (*cart.Cart, error) { return nil, cart.ErrCacheMiss }
func (missCache) Set(context.Context, int64, *cart.Cart) error   { return nil }
func (missCache) Delete(context.Context, int64) error            { return nil }

type testAPI struct {
	router http.Handler
	cat    *catalog.MemoryStore
	ledger *stock.MemoryLedger
	orders *order.MemoryRepository
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cat := catalog.NewMemoryStore()
	ledger := stock.NewMemoryLedger()
	orders := order.NewMemoryRepository()
	payments := payment.NewMemoryRepository()
	carts := cart.NewService(cart.NewMemoryRepository(), missCache{}, cat, ledger)

	orch := checkout.NewOrchestrator(
		carts,
		order.NewBuilder(orders, cat, ledger),
		orders,
		payment.NewCollector(payments, orders, ledger),
		payments,
		ledger,
		checkout.NewSession(client),
		checkout.NopPublisher{},
		metrics.NewCheckoutMetrics(prometheus.NewRegistry()),
	)

	router := NewRouter(
		NewProductHandler(cat),
		NewCartHandler(carts),
		NewCheckoutHandler(orch),
		NewOrdersHandler(orders, payments),
		NewAdminHandler(orch, orders, cat, ledger),
		5*time.Second,
	)

	return &testAPI{router: router, cat: cat, ledger: ledger, orders: orders}
}

func (a *testAPI) seedProduct(t *testing.T, id int64, name string, price float64, qty int) {
	t.Helper()
	a.cat.Seed(catalog.Product{ID: id, Name: name, Price: price, Stock: qty})
	require.NoError(t, a.ledger.SetStock(context.Background(), id, qty))
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func asUser(userID int64) map[string]string {
	return map[string]string{"X-User-ID": fmt.Sprint(userID)}
}

func asAdmin(userID int64) map[string]string {
	return map[string]string{"X-User-ID": fmt.Sprint(userID), "X-User-Role": RoleAdmin}
}

func TestProducts_ListAndGet(t *testing.T) {
	api := newTestAPI(t)
	api.seedProduct(t, 1, "Coffee Beans", 12.50, 10)

	rec := api.do(t, http.MethodGet, "/api/v1/products/", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/products/1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var p catalog.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Coffee Beans", p.Name)

	rec = api.do(t, http.MethodGet, "/api/v1/products/99", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_RequiresIdentity(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/cart/", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCart_AddAndView(t *testing.T) {
	api := newTestAPI(t)
	api.seedProduct(t, 1, "Coffee Beans", 12.50, 10)

	rec := api.do(t, http.MethodPost, "/api/v1/cart/items",
		AddItemRequest{ProductID: 1, Quantity: 2}, asUser(1))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/cart/", nil, asUser(1))
	require.Equal(t, http.StatusOK, rec.Code)

	var view cart.ReconciledCart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.InDelta(t, 25.0, view.Total, 1e-9)
}

func TestCart_AddRejectsBadInput(t *testing.T) {
	api := newTestAPI(t)
	api.seedProduct(t, 1, "Coffee Beans", 12.50, 10)

	rec := api.do(t, http.MethodPost, "/api/v1/cart/items",
		AddItemRequest{ProductID: 0, Quantity: 2}, asUser(1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/cart/items",
		AddItemRequest{ProductID: 1, Quantity: 100}, asUser(1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_EmptyCartRejected(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/checkout/", nil, asUser(1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutAndCardPayment_FullFlow(t *testing.T) {
	api := newTestAPI(t)
	api.seedProduct(t, 1, "Coffee Beans", 12.50, 10)

	rec := api.do(t, http.MethodPost, "/api/v1/cart/items",
		AddItemRequest{ProductID: 1, Quantity: 3}, asUser(1))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/checkout/", nil, asUser(1))
	require.Equal(t, http.StatusCreated, rec.Code)

	var result checkout.CheckoutResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	orderID := result.Order.ID.String()

	rec = api.do(t, http.MethodGet, "/api/v1/checkout/pending", nil, asUser(1))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/orders/"+orderID+"/payment/card",
		CardPaymentRequest{Number: "4532015112830366", Holder: "Ana Gomez", CVV: "123"}, asUser(1))
	require.Equal(t, http.StatusCreated, rec.Code)

	var p payment.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, payment.StatusApproved, p.Status)
	assert.Equal(t, "0366", p.CardLast4)

	avail, _ := api.ledger.CheckAvailable(context.Background(), 1)
	assert.Equal(t, 7, avail)

	rec = api.do(t, http.MethodGet, "/api/v1/orders/", nil, asUser(1))
	require.Equal(t, http.StatusOK, rec.Code)

	var orders []*order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, order.StatusConfirmed, orders[0].Status)

	// detail view includes the payment record
	rec = api.do(t, http.MethodGet, "/api/v1/orders/"+orderID, nil, asUser(1))
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Payment *payment.Payment `json:"payment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.NotNil(t, detail.Payment)
	assert.Equal(t, "0366", detail.Payment.CardLast4)

	// cart is gone after approval
	rec = api.do(t, http.MethodGet, "/api/v1/cart/", nil, asUser(1))
	require.Equal(t, http.StatusOK, rec.Code)
	var view cart.ReconciledCart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Empty(t, view.Lines)
}

func TestBankPayment_InvalidInputIsUnprocessable(t *testing.T) {
	api := newTestAPI(t)
	api.seedProduct(t, 1, "Coffee Beans", 12.50, 10)

	rec := api.do(t, http.MethodPost, "/api/v1/cart/items",
		AddItemRequest{ProductID: 1, Quantity: 1}, asUser(1))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/checkout/", nil, asUser(1))
	require.Equal(t, http.StatusCreated, rec.Code)
	var result checkout.CheckoutResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	rec = api.do(t, http.MethodPost, "/api/v1/orders/"+result.Order.ID.String()+"/payment/pse",
		BankPaymentRequest{Bank: "Banco Imaginario", PayerType: "Natural", DocumentType: "CC", DocumentNumber: "123456"},
		asUser(1))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestOrders_OwnershipEnforced(t *testing.T) {
	api := newTestAPI(t)
	api.seedProduct(t, 1, "Coffee Beans", 12.50, 10)

	rec := api.do(t, http.MethodPost, "/api/v1/cart/items",
		AddItemRequest{ProductID: 1, Quantity: 1}, asUser(1))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = api.do(t, http.MethodPost, "/api/v1/checkout/", nil, asUser(1))
	require.Equal(t, http.StatusCreated, rec.Code)
	var result checkout.CheckoutResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	orderID := result.Order.ID.String()

	rec = api.do(t, http.MethodGet, "/api/v1/orders/"+orderID, nil, asUser(2))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/orders/"+orderID, nil, asAdmin(99))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdmin_RoleRequired(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/admin/orders", nil, asUser(1))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/admin/orders", nil, asAdmin(1))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdmin_CancelConfirmedOrderRestoresStock(t *testing.T) {
	api := newTestAPI(t)
	api.seedProduct(t, 1, "Coffee Beans", 12.50, 10)

	rec := api.do(t, http.MethodPost, "/api/v1/cart/items",
		AddItemRequest{ProductID: 1, Quantity: 4}, asUser(1))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = api.do(t, http.MethodPost, "/api/v1/checkout/", nil, asUser(1))
	require.Equal(t, http.StatusCreated, rec.Code)
	var result checkout.CheckoutResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	orderID := result.Order.ID.String()

	rec = api.do(t, http.MethodPost, "/api/v1/orders/"+orderID+"/payment/card",
		CardPaymentRequest{Number: "4532015112830366", Holder: "Ana Gomez", CVV: "123"}, asUser(1))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/admin/orders/"+orderID+"/cancel", nil, asAdmin(99))
	require.Equal(t, http.StatusNoContent, rec.Code)

	avail, _ := api.ledger.CheckAvailable(context.Background(), 1)
	assert.Equal(t, 10, avail)

	// second cancel is rejected
	rec = api.do(t, http.MethodPost, "/api/v1/admin/orders/"+orderID+"/cancel", nil, asAdmin(99))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdmin_SetStockAndPrice(t *testing.T) {
	api := newTestAPI(t)
	api.seedProduct(t, 1, "Coffee Beans", 12.50, 2)

	rec := api.do(t, http.MethodPut, "/api/v1/admin/products/1/stock",
		SetStockRequest{Stock: 20}, asAdmin(1))
	require.Equal(t, http.StatusNoContent, rec.Code)

	avail, err := api.ledger.CheckAvailable(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 20, avail)

	rec = api.do(t, http.MethodPut, "/api/v1/admin/products/1/price",
		SetPriceRequest{Price: 15.0}, asAdmin(1))
	require.Equal(t, http.StatusNoContent, rec.Code)

	p, err := api.cat.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 15.0, p.Price)

	rec = api.do(t, http.MethodPut, "/api/v1/admin/products/1/stock",
		SetStockRequest{Stock: -1}, asAdmin(1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
