package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/talent-cli/internal/model"
	"github.com/sells-group/talent-cli/internal/store"
)

func newGateway(t *testing.T, ttl time.Duration) *Gateway {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return New(s, ttl)
}

func TestKey_Deterministic(t *testing.T) {
	a := Key("hierarchy", "Acme Corp", "snippet-digest")
	b := Key("hierarchy", "Acme Corp", "snippet-digest")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestKey_NormalizesOperationAndQuery(t *testing.T) {
	assert.Equal(t,
		Key("hierarchy", "Acme Corp", "ctx"),
		Key(" HIERARCHY ", "acme corp", "ctx"),
	)
	assert.NotEqual(t,
		Key("hierarchy", "Acme Corp", "ctx-1"),
		Key("hierarchy", "Acme Corp", "ctx-2"),
	)
}

func TestTryGet_MissThenHit(t *testing.T) {
	g := newGateway(t, 0)
	ctx := context.Background()
	key := Key("hierarchy", "Acme Corp", "digest")

	_, ok := TryGet[model.HierarchyResult](ctx, g, "hierarchy", key)
	assert.False(t, ok)

	want := model.HierarchyResult{Items: []model.HierarchyItem{
		{Name: "Jane Smith", Title: "Engineering Manager"},
	}}
	require.NoError(t, Put(ctx, g, "hierarchy", key, want))

	got, ok := TryGet[model.HierarchyResult](ctx, g, "hierarchy", key)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestTryGet_ExpiredEntryIsMiss(t *testing.T) {
	g := newGateway(t, -time.Minute)
	ctx := context.Background()
	key := Key("hierarchy", "Acme Corp", "digest")

	require.NoError(t, Put(ctx, g, "hierarchy", key, "stale"))

	_, ok := TryGet[string](ctx, g, "hierarchy", key)
	assert.False(t, ok)
}

func TestPut_ReplacesExisting(t *testing.T) {
	g := newGateway(t, 0)
	ctx := context.Background()
	key := Key("discovery", "Acme Corp", "")

	require.NoError(t, Put(ctx, g, "discovery", key, "v1"))
	require.NoError(t, Put(ctx, g, "discovery", key, "v2"))

	got, ok := TryGet[string](ctx, g, "discovery", key)
	require.True(t, ok)
	assert.Equal(t, "v2", got)
}
