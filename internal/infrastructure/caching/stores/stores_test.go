package stores

import (
	"context"
	"testing"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/harness"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleContext() harness.Context {
	svg := "/media/harness/1/a.svg"
	pn := "CON-1"
	sub := int64(9)
	ctx := harness.Empty()
	ctx.SVGFile = &svg
	ctx.BOMData = []harness.BomEntry{{Idx: 1, Designators: "X1", Description: "Connector", Quantity: 2, PN: &pn, SubPart: &sub}}
	ctx.Warnings = []string{"w"}
	return ctx
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	_, ok := store.GetContext(ctx, 1)
	assert.False(t, ok)

	store.SetContext(ctx, 1, sampleContext())
	got, ok := store.GetContext(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, sampleContext(), got)

	store.InvalidatePart(ctx, 1)
	_, ok = store.GetContext(ctx, 1)
	assert.False(t, ok)

	stats := store.Stats()
	assert.Equal(t, "memory", stats.Backend)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	store.SetContext(ctx, 1, sampleContext())
	store.SetContext(ctx, 2, sampleContext())
	now = now.Add(2 * time.Minute)

	_, ok := store.GetContext(ctx, 1)
	assert.False(t, ok)
	assert.Equal(t, 2, store.PurgeExpired())
	assert.Equal(t, 0, store.Stats().Entries)
}

func TestMemoryStoreInvalidateAll(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	store.SetContext(ctx, 1, sampleContext())
	store.SetContext(ctx, 2, sampleContext())
	store.InvalidateAll(ctx)
	assert.Equal(t, 0, store.Stats().Entries)
}

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStoreWithClient(client, "test:", time.Hour, logging.NewDiscardLogger()), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	_, ok := store.GetContext(ctx, 1)
	assert.False(t, ok)

	store.SetContext(ctx, 1, sampleContext())
	assert.True(t, mr.Exists("test:1"))
	assert.Equal(t, time.Hour, mr.TTL("test:1"))

	got, ok := store.GetContext(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, sampleContext(), got)

	store.InvalidatePart(ctx, 1)
	assert.False(t, mr.Exists("test:1"))
}

func TestRedisStoreInvalidateAllKeepsForeignKeys(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)
	require.NoError(t, mr.Set("other:1", "x"))

	store.SetContext(ctx, 1, sampleContext())
	store.SetContext(ctx, 2, sampleContext())
	assert.Equal(t, 2, store.Stats().Entries)

	store.InvalidateAll(ctx)
	assert.False(t, mr.Exists("test:1"))
	assert.False(t, mr.Exists("test:2"))
	assert.True(t, mr.Exists("other:1"))
}

func TestRedisStoreDiscardsGarbage(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)
	require.NoError(t, mr.Set("test:5", "not json"))

	_, ok := store.GetContext(ctx, 5)
	assert.False(t, ok)
	assert.Equal(t, int64(1), store.Stats().Misses)
}

func TestRedisStoreConnectFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), RedisConfig{Addr: addr}, logging.NewDiscardLogger())
	assert.Error(t, err)
}

func TestMemoryStoreFillKeepsNewerEntry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	assert.True(t, store.FillContext(ctx, 1, harness.Empty()))

	store.SetContext(ctx, 1, sampleContext())
	assert.False(t, store.FillContext(ctx, 1, harness.Empty()))
	got, ok := store.GetContext(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, sampleContext(), got)

	now = now.Add(2 * time.Minute)
	assert.True(t, store.FillContext(ctx, 1, harness.Empty()), "expired entries may be refilled")
}

func TestRedisStoreFillKeepsNewerEntry(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	store.SetContext(ctx, 1, sampleContext())
	assert.False(t, store.FillContext(ctx, 1, harness.Empty()))
	got, ok := store.GetContext(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, sampleContext(), got)

	assert.True(t, store.FillContext(ctx, 2, harness.Empty()))
	assert.Equal(t, time.Hour, mr.TTL("test:2"))
}
