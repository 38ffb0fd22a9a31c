package service

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/putridev/sparx-shop/internal/cart/models"
	"github.com/putridev/sparx-shop/internal/cart/repo"
	catalogmodels "github.com/putridev/sparx-shop/internal/catalog/models"
)

type fakeProducts map[string]catalogmodels.Product

func (f fakeProducts) Get(slug string) (catalogmodels.Product, bool) {
	p, ok := f[slug]
	return p, ok
}

func (f fakeProducts) All() map[string]catalogmodels.Product {
	out := make(map[string]catalogmodels.Product, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Record{}))
	return db
}

func newService(t *testing.T, products fakeProducts) *CartService {
	t.Helper()
	return &CartService{
		Repo:     &repo.GormRepo{DB: initTestDB(t)},
		Products: products,
	}
}

func product(slug string, price int64, stock int) catalogmodels.Product {
	return catalogmodels.Product{Slug: slug, Name: "Part " + slug, Price: price, Stock: stock}
}

func TestAddNewEntry(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, fakeProducts{"brake-pad": product("brake-pad", 45000, 10)})

	entries, err := svc.Add(ctx, "user:u1", "brake-pad", 3)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 3, entries[0].Qty)
	require.True(t, entries[0].Selected)
	require.Equal(t, int64(45000), entries[0].Price)
	require.Equal(t, 10, entries[0].Stock)
}

func TestAddMergesClampedToStock(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, fakeProducts{"brake-pad": product("brake-pad", 45000, 5)})

	_, err := svc.Add(ctx, "user:u1", "brake-pad", 4)
	require.NoError(t, err)

	// 4 + 3 would exceed stock 5, so the merge clamps to 5.
	entries, err := svc.Add(ctx, "user:u1", "brake-pad", 3)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 5, entries[0].Qty)
}

func TestAddUnknownSlugIsNoOp(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, fakeProducts{})

	entries, err := svc.Add(ctx, "user:u1", "does-not-exist", 2)
	require.NoError(t, err)
	require.Empty(t, entries)

	persisted, err := svc.Items(ctx, "user:u1")
	require.NoError(t, err)
	require.Empty(t, persisted)
}

func TestSetQuantityClampsBothWays(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, fakeProducts{"oil-filter": product("oil-filter", 20000, 4)})

	_, err := svc.Add(ctx, "user:u1", "oil-filter", 2)
	require.NoError(t, err)

	entries, err := svc.SetQuantity(ctx, "user:u1", "oil-filter", 99)
	require.NoError(t, err)
	require.Equal(t, 4, entries[0].Qty)

	entries, err = svc.SetQuantity(ctx, "user:u1", "oil-filter", -3)
	require.NoError(t, err)
	require.Equal(t, 1, entries[0].Qty)
}

func TestSetQuantityAbsentSlugNoEffect(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, fakeProducts{"oil-filter": product("oil-filter", 20000, 4)})

	entries, err := svc.SetQuantity(ctx, "user:u1", "oil-filter", 2)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestToggleAndSelectAll(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, fakeProducts{
		"a": product("a", 100, 10),
		"b": product("b", 200, 10),
	})

	_, err := svc.Add(ctx, "user:u1", "a", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "user:u1", "b", 1)
	require.NoError(t, err)

	entries, err := svc.ToggleSelected(ctx, "user:u1", "a")
	require.NoError(t, err)
	require.False(t, entries[0].Selected)
	require.True(t, entries[1].Selected)

	entries, err = svc.SelectAll(ctx, "user:u1", false)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, e.Selected)
	}

	entries, err = svc.SelectAll(ctx, "user:u1", true)
	require.NoError(t, err)
	for _, e := range entries {
		require.True(t, e.Selected)
	}
}

func TestTotalPriceCountsSelectedOnly(t *testing.T) {
	entries := []models.Entry{
		{Slug: "a", Price: 100, Qty: 2, Selected: true},
		{Slug: "b", Price: 50, Qty: 1, Selected: false},
	}
	require.Equal(t, int64(200), TotalPrice(entries))
	require.Equal(t, 2, TotalSelectedQty(entries))

	entries[1].Selected = true
	require.Equal(t, int64(250), TotalPrice(entries))
	require.Equal(t, 3, TotalSelectedQty(entries))
}

func TestReconcileClampsAndRefreshes(t *testing.T) {
	entries := []models.Entry{
		{Slug: "a", Name: "old name", Price: 100, Qty: 8, Stock: 10, Selected: true},
		{Slug: "b", Price: 50, Qty: 2, Stock: 5, Selected: true},
		{Slug: "gone", Price: 70, Qty: 1, Stock: 3, Selected: true},
	}
	products := map[string]catalogmodels.Product{
		"a": {Slug: "a", Name: "new name", Price: 120, Stock: 3},
		"b": {Slug: "b", Name: "Part b", Price: 50, Stock: 0},
	}

	out := Reconcile(entries, products)
	require.Equal(t, 3, out[0].Qty)
	require.Equal(t, int64(120), out[0].Price)
	require.Equal(t, "new name", out[0].Name)

	// Stock hit zero, so the quantity follows it down.
	require.Equal(t, 0, out[1].Qty)

	// Unknown product keeps its last snapshot.
	require.Equal(t, 1, out[2].Qty)
	require.Equal(t, int64(70), out[2].Price)
}

func TestReconcileAllPersistsEveryCart(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, fakeProducts{"a": product("a", 100, 10)})

	_, err := svc.Add(ctx, "user:u1", "a", 8)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "guest:g1", "a", 6)
	require.NoError(t, err)

	err = svc.ReconcileAll(ctx, map[string]catalogmodels.Product{
		"a": {Slug: "a", Name: "Part a", Price: 100, Stock: 2},
	})
	require.NoError(t, err)

	for _, owner := range []string{"user:u1", "guest:g1"} {
		entries, err := svc.Items(ctx, owner)
		require.NoError(t, err)
		require.Equal(t, 2, entries[0].Qty, "owner %s", owner)
		require.Equal(t, 2, entries[0].Stock)
	}
}

func TestRemoveAndClearSelected(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, fakeProducts{
		"a": product("a", 100, 10),
		"b": product("b", 200, 10),
	})

	_, err := svc.Add(ctx, "user:u1", "a", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "user:u1", "b", 1)
	require.NoError(t, err)
	_, err = svc.ToggleSelected(ctx, "user:u1", "b")
	require.NoError(t, err)

	entries, err := svc.Remove(ctx, "user:u1", "a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "b", entries[0].Slug)

	_, err = svc.Add(ctx, "user:u1", "a", 1)
	require.NoError(t, err)

	// "a" is selected, "b" is not: only "b" survives the clear.
	require.NoError(t, svc.ClearSelected(ctx, "user:u1"))
	entries, err = svc.Items(ctx, "user:u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "b", entries[0].Slug)
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, fakeProducts{
		"a": product("a", 100, 10),
		"b": product("b", 200, 10),
	})

	_, err := svc.Add(ctx, "user:u1", "a", 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "user:u1", "b", 1)
	require.NoError(t, err)
	saved, err := svc.ToggleSelected(ctx, "user:u1", "b")
	require.NoError(t, err)

	loaded, err := svc.Items(ctx, "user:u1")
	require.NoError(t, err)
	require.Equal(t, saved, loaded)
}

func TestCorruptPayloadLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, fakeProducts{"a": product("a", 100, 10)})

	require.NoError(t, svc.Repo.DB.Create(&models.Record{
		OwnerKey: "user:u1",
		Payload:  []byte("{not json"),
	}).Error)

	entries, err := svc.Items(ctx, "user:u1")
	require.NoError(t, err)
	require.Empty(t, entries)
}
