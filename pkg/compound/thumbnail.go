package compound

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/compound/pkg/types"
)

// ThumbnailRefresher keeps a parent's derived thumbnail edge pointing at its
// first child. Image generation belongs to the host; the edge tells it which
// child to take the thumbnail from.
//
// It serves as the Executor's Finalizer and, when subscribed to a Bus,
// refreshes parents whose children were added or removed.
type ThumbnailRefresher struct {
	editor *Editor
	store  types.RelationshipStore
	log    *zap.Logger
}

var (
	_ Finalizer  = (*ThumbnailRefresher)(nil)
	_ Subscriber = (*ThumbnailRefresher)(nil)
)

// NewThumbnailRefresher returns a refresher that lists children with editor
// and writes the thumbnail edge to store.
func NewThumbnailRefresher(editor *Editor, store types.RelationshipStore, opts ...Option) *ThumbnailRefresher {
	o := buildOptions(opts)
	return &ThumbnailRefresher{editor: editor, store: store, log: o.log}
}

// Refresh rewrites the thumbnail edge of parentID from its first child by
// sequence, or clears it when the parent has no children.
func (r *ThumbnailRefresher) Refresh(ctx context.Context, parentID string) (string, error) {
	children, err := r.editor.ChildParts(ctx, parentID, true)
	if err != nil {
		return "", err
	}

	pattern := types.Triple{
		Subject:   parentID,
		Namespace: types.IslandoraNamespace,
		Predicate: types.ThumbnailPredicate,
	}
	changes := []types.Change{types.RemoveTriple(pattern)}
	msg := fmt.Sprintf("Cleared thumbnail of %s", parentID)
	if len(children) > 0 {
		edge := pattern
		edge.Object = children[0].PID
		edge.ValueType = types.ValueTypeURI
		changes = append(changes, types.AddTriple(edge))
		msg = fmt.Sprintf("Updated thumbnail of %s from %s", parentID, children[0].PID)
	}
	if err := r.store.Commit(ctx, changes); err != nil {
		return "", err
	}
	return msg, nil
}

// Finalize implements Finalizer.
func (r *ThumbnailRefresher) Finalize(ctx context.Context, parentID string) (string, error) {
	return r.Refresh(ctx, parentID)
}

// HandleChildrenEvent implements Subscriber. Failures are logged; events
// never fail the edit that published them.
func (r *ThumbnailRefresher) HandleChildrenEvent(ctx context.Context, ev ChildrenEvent) {
	for _, parentID := range ev.ParentIDs {
		if _, err := r.Refresh(ctx, parentID); err != nil {
			r.log.Warn("thumbnail refresh failed",
				zap.String("parent", parentID),
				zap.String("event", string(ev.Kind)),
				zap.Error(err))
		}
	}
}

// ThumbnailOf returns the child the parent's thumbnail is taken from, or ""
// when none is recorded.
func ThumbnailOf(ctx context.Context, store types.RelationshipStore, parentID string) (string, error) {
	edges, err := store.Get(ctx, parentID, types.IslandoraNamespace, types.ThumbnailPredicate)
	if err != nil || len(edges) == 0 {
		return "", err
	}
	return edges[0].Object, nil
}
