package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/compound/pkg/types"
)

func TestObjects_SaveLoad(t *testing.T) {
	b := attach(t, t.TempDir(), "")
	ctx := context.Background()

	obj := &types.CompoundObject{PID: "P:1", Label: "Book", Models: []string{types.CompoundContentModel}}
	require.NoError(t, b.Save(ctx, obj))
	assert.NotEmpty(t, obj.CreatedAt)
	created := obj.CreatedAt

	got, err := b.Load(ctx, "P:1")
	require.NoError(t, err)
	assert.Equal(t, obj, got)

	obj.Label = "Renamed"
	obj.CreatedAt = ""
	require.NoError(t, b.Save(ctx, obj))
	got, err = b.Load(ctx, "P:1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Label)
	assert.Equal(t, created, got.CreatedAt)
}

func TestObjects_LoadErrors(t *testing.T) {
	b := attach(t, t.TempDir(), "")
	ctx := context.Background()

	_, err := b.Load(ctx, "")
	assert.ErrorIs(t, err, types.ErrInvalidID)
	_, err = b.Load(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, b.Save(ctx, &types.CompoundObject{}), types.ErrInvalidID)
	assert.ErrorIs(t, b.Save(ctx, nil), types.ErrInvalidData)
}

func TestObjects_NilModelsRoundTrip(t *testing.T) {
	b := attach(t, t.TempDir(), "")
	ctx := context.Background()
	require.NoError(t, b.Save(ctx, &types.CompoundObject{PID: "A"}))

	got, err := b.Load(ctx, "A")
	require.NoError(t, err)
	assert.Empty(t, got.Models)
	assert.False(t, got.IsCompound())
}

func TestObjects_List(t *testing.T) {
	b := attach(t, t.TempDir(), "")
	ctx := context.Background()

	list, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	for _, pid := range []string{"C", "A", "B"} {
		require.NoError(t, b.Save(ctx, &types.CompoundObject{PID: pid}))
	}
	list, err = b.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, types.PIDs(list))
}

func TestObjects_DeleteCascades(t *testing.T) {
	b := attach(t, t.TempDir(), "")
	ctx := context.Background()
	preds := types.NewPredicates("")
	for _, pid := range []string{"P:1", "A", "B"} {
		require.NoError(t, b.Save(ctx, &types.CompoundObject{PID: pid}))
	}
	for i, child := range []string{"A", "B"} {
		rel, err := types.NewRelationship(child, "P:1", i+1)
		require.NoError(t, err)
		require.NoError(t, b.Commit(ctx, rel.AddChanges(preds)))
	}

	require.NoError(t, b.Delete(ctx, "P:1"))

	members, err := b.Find(ctx, types.RelsExtNamespace, preds.Membership, "P:1")
	require.NoError(t, err)
	assert.Empty(t, members)
	seq, err := b.Get(ctx, "A", types.IslandoraNamespace, types.SequencePredicate("P:1"))
	require.NoError(t, err)
	assert.Empty(t, seq)

	_, err = b.Load(ctx, "A")
	assert.NoError(t, err, "children survive their parent")
	assert.True(t, errors.Is(b.Delete(ctx, "P:1"), types.ErrNotFound))
}
