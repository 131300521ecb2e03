package compound

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/compound/internal/memstore"
	"github.com/mesh-intelligence/compound/pkg/types"
)

func TestEditor_AddParentWritesBothEdges(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seed(t, s, "P:1", "C")
	ed := NewEditor(s, testConfig)

	res, err := ed.AddParent(ctx, []*types.CompoundObject{load(t, s, "C")}, []string{"P:1"})
	require.NoError(t, err)
	assert.Equal(t, []Pair{{ChildID: "C", ParentID: "P:1"}}, res.Succeeded)

	membership, err := s.Get(ctx, "C", types.RelsExtNamespace, "partOf")
	require.NoError(t, err)
	require.Len(t, membership, 1)
	assert.Equal(t, "P:1", membership[0].Object)

	seq, err := s.Get(ctx, "C", types.IslandoraNamespace, "isSequenceNumberOfP_1")
	require.NoError(t, err)
	require.Len(t, seq, 1)
	assert.Equal(t, "1", seq[0].Object)
	assert.Equal(t, types.ValueTypePlainLiteral, seq[0].ValueType)
}

func TestEditor_AddParentAppends(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seed(t, s, "P:1", "A", "B", "C")
	ed := NewEditor(s, testConfig)

	// Existing children at 3 and 7; the next insertion goes after the max.
	require.NoError(t, s.Commit(ctx, mustRel(t, "A", "P:1", 3).AddChanges(ed.Predicates())))
	require.NoError(t, s.Commit(ctx, mustRel(t, "B", "P:1", 7).AddChanges(ed.Predicates())))

	_, err := ed.AddParent(ctx, []*types.CompoundObject{load(t, s, "C")}, []string{"P:1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 3, "B": 7, "C": 8}, sequences(t, s, "P:1"))
}

func TestEditor_AddParentMultipleObjectsAndParents(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seed(t, s, "P:1", "P:2", "A", "B")
	ed := NewEditor(s, testConfig)

	objs := []*types.CompoundObject{load(t, s, "A"), load(t, s, "B")}
	res, err := ed.AddParent(ctx, objs, []string{"P:1", "P:2"})
	require.NoError(t, err)
	assert.Len(t, res.Succeeded, 4)

	assert.Equal(t, map[string]int{"A": 1, "B": 2}, sequences(t, s, "P:1"))
	assert.Equal(t, map[string]int{"A": 1, "B": 2}, sequences(t, s, "P:2"))

	parents, err := ed.Parents(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []ChildPart{{PID: "P:1", Label: "Label P:1"}, {PID: "P:2", Label: "Label P:2"}}, parents)
}

func TestEditor_AddParentSkipsExistingMember(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seed(t, s, "P:1", "A")
	ed := NewEditor(s, testConfig)
	obj := []*types.CompoundObject{load(t, s, "A")}

	_, err := ed.AddParent(ctx, obj, []string{"P:1"})
	require.NoError(t, err)
	res, err := ed.AddParent(ctx, obj, []string{"P:1"})
	require.NoError(t, err)
	assert.Empty(t, res.Succeeded)
	assert.Equal(t, []Pair{{ChildID: "A", ParentID: "P:1"}}, res.Skipped)
	assert.Len(t, s.Triples(), 2)
}

func TestEditor_AddRemoveRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seed(t, s, "P:1", "O")
	ed := NewEditor(s, testConfig)
	obj := []*types.CompoundObject{load(t, s, "O")}

	_, err := ed.AddParent(ctx, obj, []string{"P:1"})
	require.NoError(t, err)
	_, err = ed.RemoveParent(ctx, obj, []string{"P:1"})
	require.NoError(t, err)
	assert.Empty(t, s.Triples())

	// Removing again is a no-op, not a failure.
	res, err := ed.RemoveParent(ctx, obj, []string{"P:1"})
	require.NoError(t, err)
	assert.Len(t, res.Succeeded, 1)
}

func TestEditor_RemoveParentKeepsOtherParents(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seed(t, s, "P:1", "P:2", "A")
	ed := NewEditor(s, testConfig)
	obj := []*types.CompoundObject{load(t, s, "A")}

	_, err := ed.AddParent(ctx, obj, []string{"P:1", "P:2"})
	require.NoError(t, err)
	_, err = ed.RemoveParent(ctx, obj, []string{"P:1"})
	require.NoError(t, err)

	assert.Empty(t, sequences(t, s, "P:1"))
	assert.Equal(t, map[string]int{"A": 1}, sequences(t, s, "P:2"))
}

func TestEditor_PartialFailureIsReported(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seed(t, s, "P:1", "A", "B", "C")
	boom := errors.New("write rejected")
	s.FailCommit("B", boom)
	ed := NewEditor(s, testConfig)

	objs := []*types.CompoundObject{load(t, s, "A"), load(t, s, "B"), load(t, s, "C")}
	res, err := ed.AddParent(ctx, objs, []string{"P:1"})
	require.Error(t, err)
	assert.True(t, types.IsStoreFailure(err))
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []Pair{{"A", "P:1"}, {"C", "P:1"}}, res.Succeeded)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "B", res.Failed[0].ChildID)

	// B left no half-written relationship.
	edges, err := s.Get(ctx, "B", types.RelsExtNamespace, "partOf")
	require.NoError(t, err)
	assert.Empty(t, edges)
	assert.Equal(t, map[string]int{"A": 1, "C": 2}, sequences(t, s, "P:1"))
}

func TestEditor_RejectsBadArguments(t *testing.T) {
	ctx := context.Background()
	ed := NewEditor(memstore.New(), testConfig)

	_, err := ed.AddParent(ctx, nil, []string{"P:1"})
	assert.ErrorIs(t, err, types.ErrNoObjects)
	_, err = ed.AddParent(ctx, []*types.CompoundObject{{PID: "A"}}, nil)
	assert.ErrorIs(t, err, types.ErrNoParents)
	_, err = ed.RemoveParent(ctx, []*types.CompoundObject{{PID: ""}}, []string{"P:1"})
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestEditor_SelfReferenceRecordedAsFailure(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seed(t, s, "P:1")
	ed := NewEditor(s, testConfig)

	res, err := ed.AddParent(ctx, []*types.CompoundObject{load(t, s, "P:1")}, []string{"P:1"})
	assert.ErrorIs(t, err, types.ErrSelfReference)
	assert.Len(t, res.Failed, 1)
	assert.Empty(t, s.Triples())
}

func TestEditor_PublishesOncePerCall(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seed(t, s, "P:1", "P:2", "A", "B")
	bus := NewBus(nil)
	var events []ChildrenEvent
	bus.Subscribe(SubscriberFunc(func(_ context.Context, ev ChildrenEvent) {
		events = append(events, ev)
	}))
	ed := NewEditor(s, testConfig, WithBus(bus))

	objs := []*types.CompoundObject{load(t, s, "A"), load(t, s, "B")}
	_, err := ed.AddParent(ctx, objs, []string{"P:1", "P:2"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventChildrenAdded, events[0].Kind)
	assert.Equal(t, []string{"A", "B"}, types.PIDs(events[0].Objects))
	assert.Equal(t, []string{"P:1", "P:2"}, events[0].ParentIDs)

	_, err = ed.RemoveParent(ctx, objs[:1], []string{"P:2"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventChildrenRemoved, events[1].Kind)

	// Nothing written, nothing published.
	_, err = ed.AddParent(ctx, objs[1:], []string{"P:1"})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestEditor_ChildParts(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seed(t, s, "P:1", "A", "B", "C")
	ed := NewEditor(s, testConfig)
	p := ed.Predicates()

	require.NoError(t, s.Commit(ctx, mustRel(t, "B", "P:1", 1).AddChanges(p)))
	require.NoError(t, s.Commit(ctx, mustRel(t, "A", "P:1", 2).AddChanges(p)))
	// D is a dangling member without a sequence.
	require.NoError(t, s.Commit(ctx, []types.Change{types.AddTriple(p.MembershipTriple("D", "P:1"))}))

	parts, err := ed.ChildParts(ctx, "P:1", true)
	require.NoError(t, err)
	assert.Equal(t, []ChildPart{
		{PID: "B", Label: "Label B", Sequence: 1},
		{PID: "A", Label: "Label A", Sequence: 2},
		{PID: "D", Label: ""},
	}, parts)

	parts, err = ed.ChildParts(ctx, "P:1", false)
	require.NoError(t, err)
	assert.Equal(t, []ChildPart{
		{PID: "A", Label: "Label A"},
		{PID: "B", Label: "Label B"},
		{PID: "D"},
	}, parts)

	assert.Equal(t, 3, NextInsertionSequence(mustParts(t, ed, "P:1")))
}

func TestEditor_ChildPartsReadFailure(t *testing.T) {
	s := memstore.New()
	s.FailRead("P:1", errors.New("timeout"))
	ed := NewEditor(s, testConfig)

	_, err := ed.ChildParts(context.Background(), "P:1", true)
	assert.True(t, types.IsStoreFailure(err))
}

func mustRel(t *testing.T, child, parent string, seq int) types.Relationship {
	t.Helper()
	rel, err := types.NewRelationship(child, parent, seq)
	require.NoError(t, err)
	return rel
}

func mustParts(t *testing.T, ed *Editor, parentID string) []ChildPart {
	t.Helper()
	parts, err := ed.ChildParts(context.Background(), parentID, true)
	require.NoError(t, err)
	return parts
}
