package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/andeanmarket/storefront/internal/catalog"
	"github.com/andeanmarket/storefront/internal/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo implements Repository with an in-memory map
type fakeRepo struct {
	mu    sync.Mutex
	carts map[int64]*Cart
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{carts: make(map[int64]*Cart)}
}

func (f *fakeRepo) GetCart(_ context.Context, userID int64) (*Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[userID]
	if !ok {
		return nil, ErrCartNotFound
	}
	copied := *c
	copied.Items = append([]CartItem(nil), c.Items...)
	return &copied, nil
}

func (f *fakeRepo) SetItemQuantity(_ context.Context, userID, productID int64, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[userID]
	if !ok {
		c = &Cart{UserID: userID, CreatedAt: time.Now()}
		f.carts[userID] = c
	}
	c.UpdatedAt = time.Now()
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: quantity, AddedAt: time.Now()})
	return nil
}

func (f *fakeRepo) RemoveItem(_ context.Context, userID, productID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[userID]
	if !ok {
		return ErrCartNotFound
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

func (f *fakeRepo) DeleteCart(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, userID)
	return nil
}

// fakeCache implements Cache; it misses unless primed
type fakeCache struct {
	mu    sync.Mutex
	carts map[int64]*Cart
}

func newFakeCache() *fakeCache {
	return &fakeCache{carts: make(map[int64]*Cart)}
}

func (f *fakeCache) Get(_ context.Context, userID int64) (*Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[userID]
	if !ok {
		return nil, ErrCacheMiss
	}
	return c, nil
}

func (f *fakeCache) Set(_ context.Context, userID int64, cart *Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[userID] = cart
	return nil
}

func (f *fakeCache) Delete(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, userID)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *catalog.MemoryStore, *stock.MemoryLedger) {
	t.Helper()
	repo := newFakeRepo()
	cat := catalog.NewMemoryStore()
	ledger := stock.NewMemoryLedger()
	svc := NewService(repo, newFakeCache(), cat, ledger)
	return svc, repo, cat, ledger
}

func seedProduct(t *testing.T, cat *catalog.MemoryStore, ledger *stock.MemoryLedger, id int64, name string, price float64, stockQty int) {
	t.Helper()
	cat.Seed(catalog.Product{ID: id, Name: name, Price: price, Stock: stockQty})
	require.NoError(t, ledger.SetStock(context.Background(), id, stockQty))
}

func TestGetCart_EmptyWhenMissing(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	c, err := svc.GetCart(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.UserID)
	assert.Empty(t, c.Items)
}

func TestAddItem_CreatesLine(t *testing.T) {
	svc, repo, cat, ledger := newTestService(t)
	seedProduct(t, cat, ledger, 1, "Coffee", 12.50, 10)

	warning, err := svc.AddItem(context.Background(), 7, 1, 3)
	require.NoError(t, err)
	assert.Empty(t, warning)

	c, err := repo.GetCart(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
}

func TestAddItem_MergesAndClamps(t *testing.T) {
	svc, repo, cat, ledger := newTestService(t)
	seedProduct(t, cat, ledger, 1, "Coffee", 12.50, 5)

	_, err := svc.AddItem(context.Background(), 7, 1, 2)
	require.NoError(t, err)

	// 2 already in cart + 10 requested, only 5 in stock
	warning, err := svc.AddItem(context.Background(), 7, 1, 10)
	require.NoError(t, err)
	assert.Contains(t, warning, "limited to 5")

	c, _ := repo.GetCart(context.Background(), 7)
	assert.Equal(t, 5, c.Items[0].Quantity)
}

func TestAddItem_OutOfStock(t *testing.T) {
	svc, _, cat, ledger := newTestService(t)
	seedProduct(t, cat, ledger, 1, "Coffee", 12.50, 0)

	_, err := svc.AddItem(context.Background(), 7, 1, 1)
	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.AddItem(context.Background(), 7, 999, 1)
	assert.ErrorIs(t, err, stock.ErrProductNotFound)
}

func TestAddItem_ClampsRequestToMinimumOne(t *testing.T) {
	svc, repo, cat, ledger := newTestService(t)
	seedProduct(t, cat, ledger, 1, "Coffee", 12.50, 10)

	_, err := svc.AddItem(context.Background(), 7, 1, -3)
	require.NoError(t, err)

	c, _ := repo.GetCart(context.Background(), 7)
	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestReconcile_AllLinesPass(t *testing.T) {
	svc, _, cat, ledger := newTestService(t)
	seedProduct(t, cat, ledger, 1, "Coffee", 10.0, 10)
	seedProduct(t, cat, ledger, 2, "Tea", 5.0, 10)

	_, err := svc.AddItem(context.Background(), 7, 1, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), 7, 2, 4)
	require.NoError(t, err)

	result, err := svc.Reconcile(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	require.Len(t, result.Lines, 2)
	assert.Equal(t, 40.0, result.Total) // 2*10 + 4*5
}

func TestReconcile_ClampsOversizedLine(t *testing.T) {
	svc, repo, cat, ledger := newTestService(t)
	seedProduct(t, cat, ledger, 1, "Coffee", 10.0, 10)

	_, err := svc.AddItem(context.Background(), 7, 1, 8)
	require.NoError(t, err)

	// Stock shrinks behind the cart's back
	require.NoError(t, ledger.SetStock(context.Background(), 1, 2))

	result, err := svc.Reconcile(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "reduced to 2")
	require.Len(t, result.Lines, 1)
	assert.Equal(t, 2, result.Lines[0].Quantity)
	assert.Equal(t, 20.0, result.Total)

	// The clamp was persisted
	c, _ := repo.GetCart(context.Background(), 7)
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestReconcile_PrunesExhaustedLine(t *testing.T) {
	svc, repo, cat, ledger := newTestService(t)
	seedProduct(t, cat, ledger, 1, "Coffee", 10.0, 10)

	_, err := svc.AddItem(context.Background(), 7, 1, 2)
	require.NoError(t, err)

	require.NoError(t, ledger.SetStock(context.Background(), 1, 0))

	result, err := svc.Reconcile(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "out of stock")
	assert.Empty(t, result.Lines)

	c, _ := repo.GetCart(context.Background(), 7)
	assert.Empty(t, c.Items)
}

func TestReconcile_RemovesVanishedProduct(t *testing.T) {
	svc, _, cat, ledger := newTestService(t)
	seedProduct(t, cat, ledger, 1, "Coffee", 10.0, 10)

	repo := newFakeRepo()
	svc = NewService(repo, newFakeCache(), cat, ledger)
	require.NoError(t, repo.SetItemQuantity(context.Background(), 7, 404, 1))

	result, err := svc.Reconcile(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "no longer available")
	assert.Empty(t, result.Lines)
}

func TestClear_RemovesCart(t *testing.T) {
	svc, repo, cat, ledger := newTestService(t)
	seedProduct(t, cat, ledger, 1, "Coffee", 10.0, 10)

	_, err := svc.AddItem(context.Background(), 7, 1, 2)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), 7))

	_, err = repo.GetCart(context.Background(), 7)
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestUpdateQuantity_SetsAbsoluteValue(t *testing.T) {
	svc, _, cat, ledger := newTestService(t)
	seedProduct(t, cat, ledger, 1, "Coffee Beans", 12.50, 10)

	_, err := svc.AddItem(context.Background(), 1, 1, 2)
	require.NoError(t, err)

	warning, err := svc.UpdateQuantity(context.Background(), 1, 1, 7)
	require.NoError(t, err)
	assert.Empty(t, warning)

	c, err := svc.GetCart(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, c.Item(1))
	assert.Equal(t, 7, c.Item(1).Quantity)
}

func TestUpdateQuantity_ClampsToStock(t *testing.T) {
	svc, _, cat, ledger := newTestService(t)
	seedProduct(t, cat, ledger, 1, "Coffee Beans", 12.50, 3)

	warning, err := svc.UpdateQuantity(context.Background(), 1, 1, 9)
	require.NoError(t, err)
	assert.NotEmpty(t, warning)

	c, err := svc.GetCart(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Item(1).Quantity)
}

func TestUpdateQuantity_OutOfStock(t *testing.T) {
	svc, _, cat, ledger := newTestService(t)
	seedProduct(t, cat, ledger, 1, "Coffee Beans", 12.50, 0)

	_, err := svc.UpdateQuantity(context.Background(), 1, 1, 2)
	assert.ErrorIs(t, err, ErrOutOfStock)
}

// countingCatalog counts product lookups so tests can pin down how many a
// reconciliation issues.
type countingCatalog struct {
	*catalog.MemoryStore
	mu   sync.Mutex
	gets int
}

func (c *countingCatalog) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	c.mu.Lock()
	c.gets++
	c.mu.Unlock()
	return c.MemoryStore.GetProduct(ctx, id)
}

func (c *countingCatalog) fetches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gets
}

func (c *countingCatalog) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets = 0
}

func TestReconcile_OneCatalogFetchPerLine(t *testing.T) {
	cat := &countingCatalog{MemoryStore: catalog.NewMemoryStore()}
	ledger := stock.NewMemoryLedger()
	svc := NewService(newFakeRepo(), newFakeCache(), cat, ledger)

	cat.Seed(catalog.Product{ID: 1, Name: "Coffee", Price: 10.0, Stock: 10})
	cat.Seed(catalog.Product{ID: 2, Name: "Tea", Price: 5.0, Stock: 10})
	require.NoError(t, ledger.SetStock(context.Background(), 1, 10))
	require.NoError(t, ledger.SetStock(context.Background(), 2, 10))

	_, err := svc.AddItem(context.Background(), 7, 1, 8)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), 7, 2, 4)
	require.NoError(t, err)

	// force a clamp on the first line
	require.NoError(t, ledger.SetStock(context.Background(), 1, 2))

	cat.reset()
	result, err := svc.Reconcile(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, result.Lines, 2)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "reduced to 2")

	// one lookup per line, clamped or not
	assert.Equal(t, 2, cat.fetches())
}
