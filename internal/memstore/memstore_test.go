package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/compound/pkg/types"
)

func TestStore_ObjectLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Save(ctx, &types.CompoundObject{PID: "P:1", Label: "Book", Models: []string{types.CompoundContentModel}}))

	obj, err := s.Load(ctx, "P:1")
	require.NoError(t, err)
	assert.Equal(t, "Book", obj.Label)
	assert.True(t, obj.IsCompound())

	obj.Models[0] = "mutated"
	again, err := s.Load(ctx, "P:1")
	require.NoError(t, err)
	assert.True(t, again.IsCompound(), "Load must return a copy")

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)

	assert.ErrorIs(t, s.Save(ctx, &types.CompoundObject{}), types.ErrInvalidID)
}

func TestStore_CommitIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := types.NewPredicates("partOf")
	rel, err := types.NewRelationship("A", "P:1", 1)
	require.NoError(t, err)

	require.NoError(t, s.Commit(ctx, rel.AddChanges(p)))
	assert.Len(t, s.Triples(), 2)

	// Adding the same edges again is a no-op.
	require.NoError(t, s.Commit(ctx, rel.AddChanges(p)))
	assert.Len(t, s.Triples(), 2)

	boom := errors.New("boom")
	s.FailCommit("B", boom)
	relB, err := types.NewRelationship("B", "P:1", 2)
	require.NoError(t, err)
	mixed := append(relB.AddChanges(p), types.RemoveChanges(p, "A", "P:1")...)
	err = s.Commit(ctx, mixed)
	require.Error(t, err)
	assert.True(t, types.IsStoreFailure(err))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, s.Triples(), 2, "failed change set must leave the store untouched")

	s.FailCommit("B", nil)
	require.NoError(t, s.Commit(ctx, mixed))
	members, err := s.Find(ctx, types.RelsExtNamespace, "partOf", "P:1")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "B", members[0].Subject)
}

func TestStore_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := types.NewPredicates("")
	require.NoError(t, s.Save(ctx, &types.CompoundObject{PID: "P:1"}))
	require.NoError(t, s.Save(ctx, &types.CompoundObject{PID: "A"}))
	rel, err := types.NewRelationship("A", "P:1", 1)
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx, rel.AddChanges(p)))

	require.NoError(t, s.Delete(ctx, "P:1"))
	assert.Empty(t, s.Triples())
	assert.ErrorIs(t, s.Delete(ctx, "P:1"), types.ErrNotFound)
}

func TestStore_ReadFaults(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.FailRead("A", errors.New("timeout"))
	s.FailLoad("A", errors.New("timeout"))

	_, err := s.Get(ctx, "A", types.RelsExtNamespace, "partOf")
	assert.True(t, types.IsStoreFailure(err))
	_, err = s.Find(ctx, types.RelsExtNamespace, "partOf", "A")
	assert.True(t, types.IsStoreFailure(err))
	_, err = s.Load(ctx, "A")
	assert.True(t, types.IsStoreFailure(err))
}
