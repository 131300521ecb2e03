package compound

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/compound/pkg/types"
)

// Pair is one (child, parent) link.
type Pair struct {
	ChildID  string `json:"child"`
	ParentID string `json:"parent"`
}

// PairFailure records why a pair could not be written.
type PairFailure struct {
	Pair
	Err error `json:"-"`
}

// EditResult reports the outcome of every pair in an AddParent or
// RemoveParent call.
type EditResult struct {
	Succeeded []Pair        `json:"succeeded"`
	Skipped   []Pair        `json:"skipped,omitempty"`
	Failed    []PairFailure `json:"failed,omitempty"`
}

// Err joins the pair failures, or returns nil when every pair succeeded.
func (r *EditResult) Err() error {
	if r == nil || len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = fmt.Errorf("%s -> %s: %w", f.ChildID, f.ParentID, f.Err)
	}
	return errors.Join(errs...)
}

// Editor adds and removes parent links. Each (object, parent) pair is
// written as one atomic change set holding the membership and sequence
// edges.
type Editor struct {
	store   types.Store
	preds   types.Predicates
	bus     *Bus
	metrics *Metrics
	log     *zap.Logger
}

// NewEditor returns an Editor over store using the predicates in cfg.
func NewEditor(store types.Store, cfg types.Config, opts ...Option) *Editor {
	o := buildOptions(opts)
	return &Editor{
		store:   store,
		preds:   cfg.Predicates(),
		bus:     o.bus,
		metrics: o.metrics,
		log:     o.log,
	}
}

// Predicates returns the predicates the Editor writes.
func (e *Editor) Predicates() types.Predicates {
	return e.preds
}

// AddParent links every object to every parent, appending each object after
// the parent's current last child. Pairs that are already linked are
// skipped. Store failures are recorded per pair and the remaining pairs
// are still attempted. A ChildrenAdded event is published once when at
// least one pair was written.
func (e *Editor) AddParent(ctx context.Context, objects []*types.CompoundObject, parentIDs []string) (*EditResult, error) {
	if err := checkEditArgs(objects, parentIDs); err != nil {
		return nil, err
	}

	res := &EditResult{}
	for _, parentID := range parentIDs {
		for _, obj := range objects {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			pair := Pair{ChildID: obj.PID, ParentID: parentID}
			skipped, err := e.addOne(ctx, pair)
			switch {
			case err != nil:
				e.log.Warn("add parent failed",
					zap.String("child", pair.ChildID),
					zap.String("parent", pair.ParentID),
					zap.Error(err))
				e.metrics.edit("add", outcomeFailure)
				res.Failed = append(res.Failed, PairFailure{Pair: pair, Err: err})
			case skipped:
				e.metrics.edit("add", outcomeSkipped)
				res.Skipped = append(res.Skipped, pair)
			default:
				e.metrics.edit("add", outcomeSuccess)
				res.Succeeded = append(res.Succeeded, pair)
			}
		}
	}

	if len(res.Succeeded) > 0 {
		e.bus.Publish(ctx, ChildrenEvent{Kind: EventChildrenAdded, Objects: objects, ParentIDs: parentIDs})
	}
	return res, res.Err()
}

func (e *Editor) addOne(ctx context.Context, pair Pair) (skipped bool, err error) {
	children, err := e.members(ctx, pair.ParentID, true)
	if err != nil {
		return false, err
	}
	for _, c := range children {
		if c.PID == pair.ChildID {
			return true, nil
		}
	}

	seq := NextInsertionSequence(children)
	rel, err := types.NewRelationship(pair.ChildID, pair.ParentID, seq)
	if err != nil {
		return false, err
	}
	if err := e.store.Commit(ctx, rel.AddChanges(e.preds)); err != nil {
		return false, err
	}
	e.log.Debug("added parent",
		zap.String("child", pair.ChildID),
		zap.String("parent", pair.ParentID),
		zap.Int("sequence", seq))
	return false, nil
}

// RemoveParent unlinks every object from every parent, deleting both edges
// of each pair. Missing edges are not an error. A ChildrenRemoved event is
// published once when at least one pair was committed.
func (e *Editor) RemoveParent(ctx context.Context, objects []*types.CompoundObject, parentIDs []string) (*EditResult, error) {
	if err := checkEditArgs(objects, parentIDs); err != nil {
		return nil, err
	}

	res := &EditResult{}
	for _, parentID := range parentIDs {
		for _, obj := range objects {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			pair := Pair{ChildID: obj.PID, ParentID: parentID}
			if err := e.store.Commit(ctx, types.RemoveChanges(e.preds, pair.ChildID, pair.ParentID)); err != nil {
				e.log.Warn("remove parent failed",
					zap.String("child", pair.ChildID),
					zap.String("parent", pair.ParentID),
					zap.Error(err))
				e.metrics.edit("remove", outcomeFailure)
				res.Failed = append(res.Failed, PairFailure{Pair: pair, Err: err})
				continue
			}
			e.metrics.edit("remove", outcomeSuccess)
			res.Succeeded = append(res.Succeeded, pair)
		}
	}

	if len(res.Succeeded) > 0 {
		e.bus.Publish(ctx, ChildrenEvent{Kind: EventChildrenRemoved, Objects: objects, ParentIDs: parentIDs})
	}
	return res, res.Err()
}

func checkEditArgs(objects []*types.CompoundObject, parentIDs []string) error {
	if len(objects) == 0 {
		return types.ErrNoObjects
	}
	if len(parentIDs) == 0 {
		return types.ErrNoParents
	}
	for _, o := range objects {
		if o == nil || o.PID == "" {
			return types.ErrInvalidID
		}
	}
	for _, p := range parentIDs {
		if p == "" {
			return types.ErrInvalidID
		}
	}
	return nil
}

// ChildParts lists the children of parentID with their labels. With
// includeSequence the list is ordered by sequence (unsequenced children
// last, ties by PID); otherwise it is ordered by PID and Sequence is 0.
// Children whose object no longer resolves are listed with an empty label.
func (e *Editor) ChildParts(ctx context.Context, parentID string, includeSequence bool) ([]ChildPart, error) {
	children, err := e.members(ctx, parentID, includeSequence)
	if err != nil {
		return nil, err
	}
	for i := range children {
		label, err := e.label(ctx, children[i].PID)
		if err != nil {
			return nil, err
		}
		children[i].Label = label
	}
	return children, nil
}

// Parents lists the parents pid is a member of, ordered by PID.
func (e *Editor) Parents(ctx context.Context, pid string) ([]ChildPart, error) {
	if pid == "" {
		return nil, types.ErrInvalidID
	}
	edges, err := e.store.Get(ctx, pid, types.RelsExtNamespace, e.preds.Membership)
	if err != nil {
		return nil, err
	}
	parents := make([]ChildPart, 0, len(edges))
	for _, edge := range edges {
		label, err := e.label(ctx, edge.Object)
		if err != nil {
			return nil, err
		}
		parents = append(parents, ChildPart{PID: edge.Object, Label: label})
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i].PID < parents[j].PID })
	return parents, nil
}

// members returns the children of parentID without labels.
func (e *Editor) members(ctx context.Context, parentID string, withSequence bool) ([]ChildPart, error) {
	if parentID == "" {
		return nil, types.ErrInvalidID
	}
	edges, err := e.store.Find(ctx, types.RelsExtNamespace, e.preds.Membership, parentID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(edges))
	children := make([]ChildPart, 0, len(edges))
	for _, edge := range edges {
		if seen[edge.Subject] {
			continue
		}
		seen[edge.Subject] = true
		child := ChildPart{PID: edge.Subject}
		if withSequence {
			seq, err := e.sequenceOf(ctx, edge.Subject, parentID)
			if err != nil {
				return nil, err
			}
			child.Sequence = seq
		}
		children = append(children, child)
	}

	sort.Slice(children, func(i, j int) bool {
		a, b := children[i], children[j]
		if a.Sequence != b.Sequence {
			switch {
			case a.Sequence == 0:
				return false
			case b.Sequence == 0:
				return true
			default:
				return a.Sequence < b.Sequence
			}
		}
		return a.PID < b.PID
	})
	return children, nil
}

// sequenceOf returns the highest sequence value of childID under parentID,
// or 0 when none parses.
func (e *Editor) sequenceOf(ctx context.Context, childID, parentID string) (int, error) {
	edges, err := e.store.Get(ctx, childID, types.IslandoraNamespace, types.SequencePredicate(parentID))
	if err != nil {
		return 0, err
	}
	seq := 0
	for _, edge := range edges {
		if n, ok := edge.Int(); ok && n > seq {
			seq = n
		}
	}
	return seq, nil
}

func (e *Editor) label(ctx context.Context, pid string) (string, error) {
	obj, err := e.store.Load(ctx, pid)
	if errors.Is(err, types.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return obj.Label, nil
}
