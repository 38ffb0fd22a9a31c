package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	cartmodels "github.com/putridev/sparx-shop/internal/cart/models"
	catalogmodels "github.com/putridev/sparx-shop/internal/catalog/models"
	"github.com/putridev/sparx-shop/internal/events"
	"github.com/putridev/sparx-shop/internal/order/models"
	"github.com/putridev/sparx-shop/internal/order/repo"
	"github.com/putridev/sparx-shop/pkg/logging"
)

var (
	ErrValidation        = errors.New("validation")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrRetry covers write failures after the preconditions passed; the
	// customer's cart is untouched and the checkout can simply be retried.
	ErrRetry = errors.New("order could not be placed")
)

const maxProofSize = 2 << 20 // 2 MB

const signedProofTTL = time.Hour

// ProductSource provides the latest observed product state. Stock checks
// at checkout read from here, not from the database.
type ProductSource interface {
	Get(slug string) (catalogmodels.Product, bool)
}

// StockWriter applies the absolute post-checkout stock level per item.
type StockWriter interface {
	SetStock(ctx context.Context, slug string, stock int) error
}

// CartAccess is the slice of the cart service checkout needs.
type CartAccess interface {
	SelectedItems(ctx context.Context, ownerKey string) ([]cartmodels.Entry, error)
	ClearSelected(ctx context.Context, ownerKey string) error
}

// ObjectStore handles payment proof files.
type ObjectStore interface {
	Upload(ctx context.Context, path string, body io.Reader, contentType string) (string, error)
	CreateSignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, paths ...string) error
}

type OrderService struct {
	Repo        *repo.GormRepo
	Products    ProductSource
	Stock       StockWriter
	Cart        CartAccess
	Store       ObjectStore
	Producer    events.Publisher
	ShippingFee int64
}

type CheckoutRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Address       string `json:"address"`
	Note          string `json:"note"`
	PaymentMethod string `json:"payment_method"`
	// ProofPath/ProofName reference a payment proof already uploaded to
	// the object store, attached at checkout time.
	ProofPath string `json:"proof_path"`
	ProofName string `json:"proof_name"`
}

// Checkout places an order from the owner's selected cart entries.
//
// Preconditions are checked against the last observed stock: every
// selected entry must have stock above zero and a quantity at or below
// it. The per-item stock writes that follow are independent absolute
// updates, not a transaction; concurrent checkouts can interleave and
// the last write wins.
func (s *OrderService) Checkout(ctx context.Context, ownerKey, userID string, req CheckoutRequest) (*models.Order, error) {
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, fmt.Errorf("%w: customer name required", ErrValidation)
	}
	if strings.TrimSpace(req.Address) == "" {
		return nil, fmt.Errorf("%w: address required", ErrValidation)
	}

	entries, err := s.Cart.SelectedItems(ctx, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no items selected", ErrValidation)
	}

	observed := make(map[string]int, len(entries))
	var shortfalls []string
	for _, e := range entries {
		stock := 0
		if p, ok := s.Products.Get(e.Slug); ok {
			stock = p.Stock
		}
		observed[e.Slug] = stock
		if stock <= 0 || e.Qty > stock {
			shortfalls = append(shortfalls, fmt.Sprintf("%s: remaining %d", e.Name, stock))
		}
	}
	if len(shortfalls) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, strings.Join(shortfalls, "; "))
	}

	method := req.PaymentMethod
	if method == "" {
		method = models.PaymentTransfer
	}

	// An order with a proof already attached skips the upload stage.
	proofPath := strings.TrimSpace(req.ProofPath)
	status := models.StatusAwaitingUpload
	if proofPath != "" {
		status = models.StatusAwaitingVerification
	}

	var subtotal int64
	items := make([]models.Item, 0, len(entries))
	for _, e := range entries {
		subtotal += int64(e.Qty) * e.Price
		items = append(items, models.Item{
			Slug:  e.Slug,
			Name:  e.Name,
			Qty:   e.Qty,
			Price: e.Price,
			Image: e.Image,
		})
	}

	order := &models.Order{
		ID:            NewOrderID(),
		UserID:        userID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Address:       strings.TrimSpace(req.Address),
		Note:          req.Note,
		Status:        status,
		PaymentMethod: method,
		ProofPath:     proofPath,
		ProofName:     strings.TrimSpace(req.ProofName),
		Subtotal:      subtotal,
		Shipping:      s.ShippingFee,
		Total:         subtotal + s.ShippingFee,
		Items:         items,
	}

	if err := s.Repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetry, err)
	}

	l := logging.FromContext(ctx)
	for _, item := range items {
		next := observed[item.Slug] - item.Qty
		if next < 0 {
			next = 0
		}
		if err := s.Stock.SetStock(ctx, item.Slug, next); err != nil {
			l.Error("stock_write_failed", "order_id", order.ID, "slug", item.Slug, "error", err)
		}
	}

	s.publish(ctx, map[string]any{
		"type":     "order_created",
		"order_id": order.ID,
		"user_id":  userID,
		"total":    order.Total,
	}, order.ID)

	if err := s.Cart.ClearSelected(ctx, ownerKey); err != nil {
		l.Error("cart_clear_failed", "order_id", order.ID, "error", err)
	}

	return order, nil
}

type ManualItem struct {
	Slug string `json:"slug"`
	Qty  int    `json:"qty"`
}

type ManualOrderRequest struct {
	CustomerName  string       `json:"customer_name"`
	CustomerPhone string       `json:"customer_phone"`
	Address       string       `json:"address"`
	Note          string       `json:"note"`
	PaymentMethod string       `json:"payment_method"`
	Items         []ManualItem `json:"items"`
}

// CreateManual records an admin-entered sale. Manual orders are created
// Completed with no shipping fee; stock is decremented the same way as
// a customer checkout.
func (s *OrderService) CreateManual(ctx context.Context, userID string, req ManualOrderRequest) (*models.Order, error) {
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, fmt.Errorf("%w: customer name required", ErrValidation)
	}
	if req.PaymentMethod != models.PaymentCash && req.PaymentMethod != models.PaymentCashless {
		return nil, fmt.Errorf("%w: payment method must be CASH or CASHLESS", ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item required", ErrValidation)
	}

	observed := make(map[string]int, len(req.Items))
	var subtotal int64
	items := make([]models.Item, 0, len(req.Items))
	for _, in := range req.Items {
		if in.Qty < 1 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
		p, ok := s.Products.Get(in.Slug)
		if !ok {
			return nil, fmt.Errorf("%w: unknown product %s", ErrValidation, in.Slug)
		}
		if p.Stock <= 0 || in.Qty > p.Stock {
			return nil, fmt.Errorf("%w: %s: remaining %d", ErrInsufficientStock, p.Name, p.Stock)
		}
		observed[in.Slug] = p.Stock
		subtotal += int64(in.Qty) * p.Price
		image := ""
		if len(p.Images) > 0 {
			image = p.Images[0]
		}
		items = append(items, models.Item{
			Slug:  in.Slug,
			Name:  p.Name,
			Qty:   in.Qty,
			Price: p.Price,
			Image: image,
		})
	}

	order := &models.Order{
		ID:            NewOrderID(),
		UserID:        userID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Address:       strings.TrimSpace(req.Address),
		Note:          req.Note,
		Status:        models.StatusCompleted,
		PaymentMethod: req.PaymentMethod,
		Subtotal:      subtotal,
		Shipping:      0,
		Total:         subtotal,
		Items:         items,
	}

	if err := s.Repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetry, err)
	}

	l := logging.FromContext(ctx)
	for _, item := range items {
		next := observed[item.Slug] - item.Qty
		if next < 0 {
			next = 0
		}
		if err := s.Stock.SetStock(ctx, item.Slug, next); err != nil {
			l.Error("stock_write_failed", "order_id", order.ID, "slug", item.Slug, "error", err)
		}
	}

	s.publish(ctx, map[string]any{
		"type":     "order_created",
		"order_id": order.ID,
		"manual":   true,
		"total":    order.Total,
	}, order.ID)

	return order, nil
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// UploadProof stores a payment proof for the caller's own order and
// advances it to Awaiting Verification. Proofs for manual CASH orders
// are rejected; a CASHLESS manual order may carry one.
func (s *OrderService) UploadProof(ctx context.Context, userID, orderID, filename, contentType string, size int64, body io.Reader) (string, error) {
	if s.Store == nil {
		return "", fmt.Errorf("%w: proof uploads are disabled", ErrValidation)
	}
	order, err := s.getOwned(ctx, userID, orderID)
	if err != nil {
		return "", err
	}
	if order.PaymentMethod == models.PaymentCash {
		return "", fmt.Errorf("%w: cash orders carry no payment proof", ErrValidation)
	}
	if size > maxProofSize {
		return "", fmt.Errorf("%w: proof exceeds 2MB", ErrValidation)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: proof must be an image", ErrValidation)
	}

	safeName := unsafeFileChars.ReplaceAllString(filename, "_")
	path := fmt.Sprintf("proofs/%s/%s-%d-%s", userID, orderID, time.Now().UnixMilli(), safeName)

	if _, err := s.Store.Upload(ctx, path, body, contentType); err != nil {
		return "", fmt.Errorf("upload proof: %w", err)
	}

	l := logging.FromContext(ctx)
	if order.ProofPath != "" {
		if err := s.Store.Remove(ctx, order.ProofPath); err != nil {
			l.Warn("old_proof_remove_failed", "order_id", orderID, "error", err)
		}
	}

	fields := map[string]any{
		"proof_path": path,
		"proof_name": safeName,
	}
	if order.Status == models.StatusAwaitingUpload {
		fields["status"] = models.StatusAwaitingVerification
	}
	if err := s.Repo.UpdateFields(ctx, orderID, fields); err != nil {
		return "", fmt.Errorf("update order: %w", err)
	}

	s.publish(ctx, map[string]any{
		"type":     "order_proof_uploaded",
		"order_id": orderID,
	}, orderID)

	url, err := s.Store.CreateSignedURL(ctx, path, signedProofTTL)
	if err != nil {
		l.Warn("proof_sign_failed", "order_id", orderID, "error", err)
		return "", nil
	}
	return url, nil
}

type AdminPatch struct {
	Status *string `json:"status"`
	Total  *int64  `json:"total"`
}

// UpdateOrder applies an admin edit to status and/or total.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID string, patch AdminPatch) (*models.Order, error) {
	fields := map[string]any{}
	if patch.Status != nil {
		if !models.ValidStatus(*patch.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *patch.Status)
		}
		fields["status"] = *patch.Status
	}
	if patch.Total != nil {
		if *patch.Total < 0 {
			return nil, fmt.Errorf("%w: total cannot be negative", ErrValidation)
		}
		fields["total"] = *patch.Total
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}

	if err := s.Repo.UpdateFields(ctx, orderID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, err
	}

	if patch.Status != nil {
		s.publish(ctx, map[string]any{
			"type":     "order_status_changed",
			"order_id": orderID,
			"status":   *patch.Status,
		}, orderID)
	}

	return s.Get(ctx, orderID)
}

func (s *OrderService) Get(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.Repo.Get(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}
	return order, err
}

// GetOwned returns the order only when it belongs to the user; a
// mismatch reads the same as a missing order.
func (s *OrderService) GetOwned(ctx context.Context, userID, orderID string) (*models.Order, error) {
	return s.getOwned(ctx, userID, orderID)
}

func (s *OrderService) getOwned(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}
	return order, nil
}

// History lists the user's own orders, newest first, optionally bounded
// to a creation-time window. Zero bounds mean unbounded.
func (s *OrderService) History(ctx context.Context, userID string, from, to int64) ([]models.Order, error) {
	return s.Repo.ListByUser(ctx, userID, from, to)
}

func (s *OrderService) List(ctx context.Context, f repo.Filter, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.List(ctx, f, offset, limit)
}

// ProofURL resolves a temporary viewable URL for an order's proof, empty
// when there is none or signing fails.
func (s *OrderService) ProofURL(ctx context.Context, order *models.Order) string {
	if order.ProofPath == "" || s.Store == nil {
		return ""
	}
	url, err := s.Store.CreateSignedURL(ctx, order.ProofPath, signedProofTTL)
	if err != nil {
		return ""
	}
	return url
}

func (s *OrderService) publish(ctx context.Context, event map[string]any, key string) {
	if s.Producer == nil {
		return
	}
	if err := s.Producer.PublishEvent(ctx, "order_events", key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_failed", "error", err)
	}
}

// NewOrderID derives an order id from the wall clock, millisecond
// resolution.
func NewOrderID() string {
	return "ORD-" + strconv.FormatInt(time.Now().UnixMilli(), 10)
}
