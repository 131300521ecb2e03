package compound

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/compound/internal/memstore"
	"github.com/mesh-intelligence/compound/pkg/types"
)

func newManager(s *memstore.Store, cfg types.Config) (*Manager, *Editor) {
	ed := NewEditor(s, cfg)
	return NewManager(s, NewValidator(s, cfg), ed), ed
}

func TestManager_LinkChildAndParent(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seed(t, s, "P:1", "P:2", "A")
	m, ed := newManager(s, testConfig)

	res, err := m.Submit(ctx, ManageRequest{Object: load(t, s, "P:1"), Child: "A", Parent: "P:2"})
	require.NoError(t, err)
	assert.Len(t, res.Edits, 2)

	children := mustParts(t, ed, "P:1")
	assert.Equal(t, []ChildPart{{PID: "A", Label: "Label A", Sequence: 1}}, children)
	children = mustParts(t, ed, "P:2")
	assert.Equal(t, []ChildPart{{PID: "P:1", Label: "Label P:1", Sequence: 1}}, children)
}

func TestManager_InvalidRequestWritesNothing(t *testing.T) {
	s := memstore.New()
	seed(t, s, "P:1", "A")
	m, _ := newManager(s, testConfig)

	_, err := m.Submit(context.Background(), ManageRequest{
		Object:         load(t, s, "P:1"),
		Child:          "missing",
		Parent:         "P:1",
		RemoveChildren: []string{"A"},
	})
	ve, ok := types.AsValidationError(err)
	require.True(t, ok, "got %v", err)
	assert.Len(t, ve.Errors, 2)
	assert.Zero(t, s.Commits())
}

func TestManager_RemoveChildrenAndUnlinkParents(t *testing.T) {
	ctx := context.Background()
	s := linked(t, "P:1", "A", "B", "ghost")
	seed(t, s, "P:9")
	require.NoError(t, s.Delete(ctx, "ghost"))
	// Re-add a dangling edge for a child whose object is gone.
	require.NoError(t, s.Commit(ctx, mustRel(t, "ghost", "P:1", 3).AddChanges(testConfig.Predicates())))

	m, ed := newManager(s, testConfig)
	_, err := ed.AddParent(ctx, []*types.CompoundObject{load(t, s, "P:1")}, []string{"P:9"})
	require.NoError(t, err)

	_, err = m.Submit(ctx, ManageRequest{
		Object:         load(t, s, "P:1"),
		RemoveChildren: []string{"A", "ghost"},
		UnlinkParents:  []string{"P:9"},
	})
	require.NoError(t, err)

	assert.Equal(t, []ChildPart{{PID: "B", Label: "Label B", Sequence: 2}}, mustParts(t, ed, "P:1"))
	parents, err := ed.Parents(ctx, "P:1")
	require.NoError(t, err)
	assert.Empty(t, parents)
}

func TestManager_NilObject(t *testing.T) {
	m, _ := newManager(memstore.New(), testConfig)
	_, err := m.Submit(context.Background(), ManageRequest{Child: "A"})
	assert.ErrorIs(t, err, types.ErrInvalidData)
}
