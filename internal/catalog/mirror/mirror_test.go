package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/putridev/sparx-shop/internal/catalog/models"
	"github.com/putridev/sparx-shop/internal/watch"
)

type fakeSigner struct {
	calls int
	fail  bool
}

func (s *fakeSigner) CreateSignedURL(_ context.Context, path string, _ time.Duration) (string, error) {
	s.calls++
	if s.fail {
		return "", errors.New("sign failed")
	}
	return "https://store.test/signed/" + path, nil
}

func doc(t *testing.T, p map[string]any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return data
}

func TestApplyDecodesSnapshot(t *testing.T) {
	m := New(nil)

	var seen map[string]models.Product
	m.OnUpdate(func(products map[string]models.Product) { seen = products })

	m.Apply(watch.Snapshot{
		Collection: "products",
		Docs: map[string]json.RawMessage{
			"brake-pad": doc(t, map[string]any{
				"slug": "brake-pad", "name": "Brake Pad", "price": 45000, "stock": 2,
			}),
			"no-slug": doc(t, map[string]any{"name": "Orphan", "price": 10}),
		},
	})

	p, ok := m.Get("brake-pad")
	require.True(t, ok)
	require.Equal(t, int64(45000), p.Price)
	require.Equal(t, models.StatusLowStock, p.Status)

	// A document without its own slug falls back to the map key.
	_, ok = m.Get("no-slug")
	require.True(t, ok)

	require.Len(t, seen, 2)
}

func TestApplyReplacesWholeState(t *testing.T) {
	m := New(nil)
	m.Apply(watch.Snapshot{Docs: map[string]json.RawMessage{
		"a": doc(t, map[string]any{"slug": "a"}),
	}})
	m.Apply(watch.Snapshot{Docs: map[string]json.RawMessage{
		"b": doc(t, map[string]any{"slug": "b"}),
	}})

	_, ok := m.Get("a")
	require.False(t, ok)
	_, ok = m.Get("b")
	require.True(t, ok)
}

func TestStartConsumesHubFeed(t *testing.T) {
	m := New(nil)
	hub := watch.NewHub()

	hub.Publish(watch.Snapshot{
		Collection: "products",
		Docs: map[string]json.RawMessage{
			"a": doc(t, map[string]any{"slug": "a", "stock": 9}),
		},
	})
	m.Start(hub)
	defer m.Stop()

	require.Eventually(t, func() bool {
		_, ok := m.Get("a")
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestStopTerminatesFeedConsumer(t *testing.T) {
	m := New(nil)
	hub := watch.NewHub()
	m.Start(hub)

	stopped := make(chan struct{})
	go func() {
		m.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after cancelling the feed")
	}
}

func TestResolveImagePassthroughAndCache(t *testing.T) {
	signer := &fakeSigner{}
	m := New(signer)
	ctx := context.Background()

	require.Equal(t, "https://cdn.test/a.png", m.ResolveImage(ctx, "https://cdn.test/a.png"))
	require.Zero(t, signer.calls)

	first := m.ResolveImage(ctx, "products/a/1.png")
	require.Equal(t, "https://store.test/signed/products/a/1.png", first)
	require.Equal(t, 1, signer.calls)

	// Second resolution of the same path hits the cache.
	require.Equal(t, first, m.ResolveImage(ctx, "/products/a/1.png"))
	require.Equal(t, 1, signer.calls)
}

func TestResolveImageFallsBackToPlaceholder(t *testing.T) {
	ctx := context.Background()

	m := New(&fakeSigner{fail: true})
	require.Equal(t, PlaceholderImage, m.ResolveImage(ctx, "products/a/1.png"))

	m = New(nil)
	require.Equal(t, PlaceholderImage, m.ResolveImage(ctx, "products/a/1.png"))
	require.Equal(t, PlaceholderImage, m.ResolveImage(ctx, ""))
}
