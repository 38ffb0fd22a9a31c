// Package mirror keeps a subscription-fed, read-mostly cache of the
// product catalog. Everything that needs "the latest known product"
// (cart reconciliation, checkout stock checks, display) reads from here;
// writes never touch the mirror directly, it updates only through its
// own subscription.
package mirror

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/putridev/sparx-shop/internal/catalog/models"
	"github.com/putridev/sparx-shop/internal/watch"
)

const PlaceholderImage = "https://placehold.co/120x120/png?text=No+Image"

const signedURLTTL = time.Hour

// SignedURLCreator is the slice of the object store client the mirror
// needs for image resolution.
type SignedURLCreator interface {
	CreateSignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

type Mirror struct {
	mu       sync.RWMutex
	products map[string]models.Product
	resolved map[string]string

	store    SignedURLCreator
	onUpdate []func(products map[string]models.Product)

	sub  *watch.Subscription
	done chan struct{}
}

func New(store SignedURLCreator) *Mirror {
	return &Mirror{
		products: make(map[string]models.Product),
		resolved: make(map[string]string),
		store:    store,
	}
}

// OnUpdate registers a callback invoked after every applied snapshot with
// the full decoded product map. Register before Start.
func (m *Mirror) OnUpdate(fn func(products map[string]models.Product)) {
	m.onUpdate = append(m.onUpdate, fn)
}

// Start attaches the mirror to the hub's products feed.
func (m *Mirror) Start(hub *watch.Hub) {
	m.sub = hub.Watch("products")
	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		for snap := range m.sub.C {
			m.Apply(snap)
		}
	}()
}

// Stop detaches the subscription and waits for the consumer goroutine
// to drain out.
func (m *Mirror) Stop() {
	if m.sub == nil {
		return
	}
	m.sub.Cancel()
	<-m.done
}

// Apply decodes a raw snapshot into typed products and notifies
// listeners. Exposed so tests and synchronous callers can drive the
// mirror without a hub.
func (m *Mirror) Apply(snap watch.Snapshot) {
	next := make(map[string]models.Product, len(snap.Docs))
	for slug, doc := range snap.Docs {
		p := models.DecodeDoc(doc)
		if p.Slug == "" {
			p.Slug = slug
		}
		next[p.Slug] = p
	}

	m.mu.Lock()
	m.products = next
	m.mu.Unlock()

	for _, fn := range m.onUpdate {
		fn(m.All())
	}
}

func (m *Mirror) Get(slug string) (models.Product, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[slug]
	return p, ok
}

// All returns a copy of the product map.
func (m *Mirror) All() map[string]models.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]models.Product, len(m.products))
	for k, v := range m.products {
		out[k] = v
	}
	return out
}

// ResolveImage turns an image reference into a viewable URL. Absolute
// URLs pass through, storage paths are signed once and cached, anything
// that fails resolves to the placeholder. A single failed resolution is
// never surfaced as an error.
func (m *Mirror) ResolveImage(ctx context.Context, ref string) string {
	if ref == "" {
		return PlaceholderImage
	}
	if strings.HasPrefix(ref, "http") {
		return ref
	}

	path := strings.TrimPrefix(ref, "/")

	m.mu.RLock()
	url, ok := m.resolved[path]
	m.mu.RUnlock()
	if ok {
		return url
	}

	if m.store == nil {
		return PlaceholderImage
	}
	signed, err := m.store.CreateSignedURL(ctx, path, signedURLTTL)
	if err != nil {
		return PlaceholderImage
	}

	m.mu.Lock()
	m.resolved[path] = signed
	m.mu.Unlock()
	return signed
}
