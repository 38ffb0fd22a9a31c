package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/putridev/sparx-shop/internal/catalog/models"
	"github.com/putridev/sparx-shop/internal/catalog/repo"
	"github.com/putridev/sparx-shop/internal/catalog/transport"
	"github.com/putridev/sparx-shop/internal/watch"
)

func newService(t *testing.T) *CatalogService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}))
	return &CatalogService{
		Repo: &repo.GormRepo{DB: db},
		Hub:  watch.NewHub(),
	}
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "brake-pad-abc-123", Slugify("Brake Pad (ABC) 123"))
	require.Equal(t, "kampas-rem", Slugify("  Kampas Rem  "))
	require.Empty(t, Slugify("!!!"))
}

func TestCreateProductDerivesSlugAndStatus(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	prod, err := svc.CreateProduct(ctx, transport.CreateProductRequest{
		Name:  "Brake Pad X1",
		Price: 45000,
		Stock: 3,
	})
	require.NoError(t, err)
	require.Equal(t, "brake-pad-x1", prod.Slug)
	require.Equal(t, models.StatusLowStock, prod.Status)

	_, err = svc.CreateProduct(ctx, transport.CreateProductRequest{
		Name: "Brake Pad X1",
	})
	require.ErrorIs(t, err, ErrConflict)

	_, err = svc.CreateProduct(ctx, transport.CreateProductRequest{Name: "   "})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateProduct(ctx, transport.CreateProductRequest{Name: "Neg", Price: -1})
	require.ErrorIs(t, err, ErrValidation)
}

func TestPatchProductRederivesStatus(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.CreateProduct(ctx, transport.CreateProductRequest{
		Name: "Oil Filter", Price: 20000, Stock: 20,
	})
	require.NoError(t, err)

	stock := 2
	prod, err := svc.PatchProduct(ctx, transport.PatchProductRequest{Stock: &stock}, "oil-filter")
	require.NoError(t, err)
	require.Equal(t, models.StatusLowStock, prod.Status)

	status := models.StatusInactive
	prod, err = svc.PatchProduct(ctx, transport.PatchProductRequest{Status: &status}, "oil-filter")
	require.NoError(t, err)
	require.Equal(t, models.StatusInactive, prod.Status)

	_, err = svc.PatchProduct(ctx, transport.PatchProductRequest{Stock: &stock}, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCustomerListingExcludesInactive(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.CreateProduct(ctx, transport.CreateProductRequest{
		Name: "Visible", Price: 100, Stock: 10,
	})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, transport.CreateProductRequest{
		Name: "Hidden", Price: 100, Stock: 10, Status: models.StatusInactive,
	})
	require.NoError(t, err)

	total, items, err := svc.ListProducts(ctx, repo.Filter{IncludeInactive: false}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "visible", items[0].Slug)

	total, _, err = svc.ListProducts(ctx, repo.Filter{IncludeInactive: true}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
}

func TestSetStockPublishesSnapshot(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.CreateProduct(ctx, transport.CreateProductRequest{
		Name: "Brake Pad", Price: 100, Stock: 10,
	})
	require.NoError(t, err)

	sub := svc.Hub.Watch(Collection)
	defer sub.Cancel()
	drain(t, sub) // replayed create snapshot

	require.NoError(t, svc.SetStock(ctx, "brake-pad", 4))

	snap := next(t, sub)
	var doc models.Product
	require.NoError(t, json.Unmarshal(snap.Docs["brake-pad"], &doc))
	require.Equal(t, 4, doc.Stock)
	require.Equal(t, models.StatusLowStock, doc.Status)
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.CreateProduct(ctx, transport.CreateProductRequest{
		Name: "Brake Pad", Price: 100, Stock: 10,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, "brake-pad"))
	require.ErrorIs(t, svc.DeleteProduct(ctx, "brake-pad"), ErrNotFound)

	_, err = svc.GetProduct(ctx, "brake-pad")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSearchFallsBackToDatabase(t *testing.T) {
	ctx := context.Background()
	svc := newService(t) // no ES client wired

	_, err := svc.CreateProduct(ctx, transport.CreateProductRequest{
		Name: "Brake Pad Honda", Price: 100, Stock: 10,
	})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, transport.CreateProductRequest{
		Name: "Oil Filter", Description: "fits Honda engines", Price: 100, Stock: 10,
	})
	require.NoError(t, err)

	total, items, err := svc.SearchProducts(ctx, "honda", 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, items, 2)

	_, _, err = svc.SearchProducts(ctx, "   ", 0, 20)
	require.ErrorIs(t, err, ErrValidation)
}

func next(t *testing.T, sub *watch.Subscription) watch.Snapshot {
	t.Helper()
	select {
	case s := <-sub.C:
		return s
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return watch.Snapshot{}
	}
}

func drain(t *testing.T, sub *watch.Subscription) {
	t.Helper()
	for {
		select {
		case <-sub.C:
		case <-time.After(20 * time.Millisecond):
			return
		}
	}
}
