package service

import (
	"context"

	"github.com/putridev/sparx-shop/internal/cart/models"
	"github.com/putridev/sparx-shop/internal/cart/repo"
	catalogmodels "github.com/putridev/sparx-shop/internal/catalog/models"
	"github.com/putridev/sparx-shop/pkg/logging"
)

// ProductSource is the catalog mirror view the cart needs: the latest
// known product per slug.
type ProductSource interface {
	Get(slug string) (catalogmodels.Product, bool)
	All() map[string]catalogmodels.Product
}

type CartService struct {
	Repo     *repo.GormRepo
	Products ProductSource
}

func (s *CartService) Items(ctx context.Context, ownerKey string) ([]models.Entry, error) {
	return s.Repo.Load(ctx, ownerKey)
}

// Add merges qty into an existing entry or inserts a new one, clamped to
// the product's current stock. An unknown slug is a silent no-op.
func (s *CartService) Add(ctx context.Context, ownerKey, slug string, qty int) ([]models.Entry, error) {
	if qty < 1 {
		qty = 1
	}
	product, ok := s.Products.Get(slug)
	if !ok {
		return s.Repo.Load(ctx, ownerKey)
	}

	entries, err := s.Repo.Load(ctx, ownerKey)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range entries {
		if entries[i].Slug != slug {
			continue
		}
		found = true
		entries[i].Qty = min(product.Stock, entries[i].Qty+qty)
		entries[i].Selected = true
		refresh(&entries[i], product)
	}
	if !found {
		e := models.Entry{
			Slug:     slug,
			Qty:      min(product.Stock, qty),
			Selected: true,
		}
		refresh(&e, product)
		entries = append(entries, e)
	}

	return entries, s.Repo.Save(ctx, ownerKey, entries)
}

// SetQuantity clamps qty into [1, stock] for the given entry. No effect
// when the slug is not in the cart.
func (s *CartService) SetQuantity(ctx context.Context, ownerKey, slug string, qty int) ([]models.Entry, error) {
	entries, err := s.Repo.Load(ctx, ownerKey)
	if err != nil {
		return nil, err
	}

	changed := false
	for i := range entries {
		if entries[i].Slug != slug {
			continue
		}
		ceiling := entries[i].Stock
		if product, ok := s.Products.Get(slug); ok {
			ceiling = product.Stock
			refresh(&entries[i], product)
		}
		entries[i].Qty = min(max(1, qty), ceiling)
		changed = true
	}
	if !changed {
		return entries, nil
	}

	return entries, s.Repo.Save(ctx, ownerKey, entries)
}

func (s *CartService) ToggleSelected(ctx context.Context, ownerKey, slug string) ([]models.Entry, error) {
	entries, err := s.Repo.Load(ctx, ownerKey)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Slug == slug {
			entries[i].Selected = !entries[i].Selected
		}
	}
	return entries, s.Repo.Save(ctx, ownerKey, entries)
}

func (s *CartService) SelectAll(ctx context.Context, ownerKey string, selected bool) ([]models.Entry, error) {
	entries, err := s.Repo.Load(ctx, ownerKey)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Selected = selected
	}
	return entries, s.Repo.Save(ctx, ownerKey, entries)
}

func (s *CartService) Remove(ctx context.Context, ownerKey, slug string) ([]models.Entry, error) {
	entries, err := s.Repo.Load(ctx, ownerKey)
	if err != nil {
		return nil, err
	}
	next := entries[:0]
	for _, e := range entries {
		if e.Slug != slug {
			next = append(next, e)
		}
	}
	return next, s.Repo.Save(ctx, ownerKey, next)
}

func (s *CartService) Clear(ctx context.Context, ownerKey string) error {
	return s.Repo.Save(ctx, ownerKey, nil)
}

// ClearSelected drops the selected entries and keeps the rest, used
// after a successful checkout.
func (s *CartService) ClearSelected(ctx context.Context, ownerKey string) error {
	entries, err := s.Repo.Load(ctx, ownerKey)
	if err != nil {
		return err
	}
	next := entries[:0]
	for _, e := range entries {
		if !e.Selected {
			next = append(next, e)
		}
	}
	return s.Repo.Save(ctx, ownerKey, next)
}

func (s *CartService) SelectedItems(ctx context.Context, ownerKey string) ([]models.Entry, error) {
	entries, err := s.Repo.Load(ctx, ownerKey)
	if err != nil {
		return nil, err
	}
	return Selected(entries), nil
}

// ReconcileAll re-derives every persisted cart against a fresh product
// map. This is the single reconciliation point: it runs on each catalog
// mirror update.
func (s *CartService) ReconcileAll(ctx context.Context, products map[string]catalogmodels.Product) error {
	owners, err := s.Repo.Owners(ctx)
	if err != nil {
		return err
	}
	for _, owner := range owners {
		entries, err := s.Repo.Load(ctx, owner)
		if err != nil {
			return err
		}
		if err := s.Repo.Save(ctx, owner, Reconcile(entries, products)); err != nil {
			return err
		}
	}
	return nil
}

// OnCatalogUpdate adapts ReconcileAll to the mirror callback signature.
func (s *CartService) OnCatalogUpdate(products map[string]catalogmodels.Product) {
	ctx := context.Background()
	if err := s.ReconcileAll(ctx, products); err != nil {
		logging.FromContext(ctx).Error("cart_reconcile_failed", "error", err)
	}
}

// Reconcile refreshes each entry's denormalized fields from the latest
// products and clamps its quantity to the new stock ceiling, which may
// be zero. Entries whose product disappeared keep their last snapshot.
func Reconcile(entries []models.Entry, products map[string]catalogmodels.Product) []models.Entry {
	out := make([]models.Entry, len(entries))
	for i, e := range entries {
		if product, ok := products[e.Slug]; ok {
			refresh(&e, product)
		}
		if e.Qty > e.Stock {
			e.Qty = e.Stock
		}
		out[i] = e
	}
	return out
}

func Selected(entries []models.Entry) []models.Entry {
	out := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Selected {
			out = append(out, e)
		}
	}
	return out
}

// TotalPrice sums qty times price over the selected entries.
func TotalPrice(entries []models.Entry) int64 {
	var total int64
	for _, e := range Selected(entries) {
		total += int64(e.Qty) * e.Price
	}
	return total
}

// TotalSelectedQty sums quantities over the selected entries.
func TotalSelectedQty(entries []models.Entry) int {
	var total int
	for _, e := range Selected(entries) {
		total += e.Qty
	}
	return total
}

func QtyBySlug(entries []models.Entry, slug string) int {
	for _, e := range entries {
		if e.Slug == slug {
			return e.Qty
		}
	}
	return 0
}

func refresh(e *models.Entry, product catalogmodels.Product) {
	e.Stock = product.Stock
	e.Price = product.Price
	e.Name = product.Name
	if len(product.Images) > 0 {
		e.Image = product.Images[0]
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
