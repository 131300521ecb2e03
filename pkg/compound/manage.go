package compound

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/compound/pkg/types"
)

// ManageRequest is one submission of the compound management form for
// Object: link a new child, link to a new parent, drop children, and unlink
// parents, in that order.
type ManageRequest struct {
	Object         *types.CompoundObject
	Child          string
	Parent         string
	RemoveChildren []string
	UnlinkParents  []string
}

// ManageResult collects the edit results of a submission.
type ManageResult struct {
	Edits []*EditResult
}

// Manager validates and applies management requests.
type Manager struct {
	store     types.Store
	validator *Validator
	editor    *Editor
	log       *zap.Logger
}

// NewManager returns a Manager using validator and editor over store.
func NewManager(store types.Store, validator *Validator, editor *Editor, opts ...Option) *Manager {
	o := buildOptions(opts)
	return &Manager{store: store, validator: validator, editor: editor, log: o.log}
}

// Submit validates the link part of req and, when it passes, applies every
// requested change. A *types.ValidationError means nothing was written.
// Edit failures do not stop later parts of the request; they are joined in
// the returned error.
func (m *Manager) Submit(ctx context.Context, req ManageRequest) (*ManageResult, error) {
	if req.Object == nil || req.Object.PID == "" {
		return nil, types.ErrInvalidData
	}
	link := LinkRequest{Object: req.Object, Child: req.Child, Parent: req.Parent}
	if err := m.validator.Validate(ctx, link); err != nil {
		return nil, err
	}

	res := &ManageResult{}
	var errs []error
	apply := func(r *EditResult, err error) {
		if r != nil {
			res.Edits = append(res.Edits, r)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	if req.Child != "" {
		child, err := m.store.Load(ctx, req.Child)
		if err != nil {
			return res, err
		}
		apply(m.editor.AddParent(ctx, []*types.CompoundObject{child}, []string{req.Object.PID}))
	}
	if req.Parent != "" {
		apply(m.editor.AddParent(ctx, []*types.CompoundObject{req.Object}, []string{req.Parent}))
	}
	if len(req.RemoveChildren) > 0 {
		children, err := m.resolve(ctx, req.RemoveChildren)
		if err != nil {
			return res, err
		}
		apply(m.editor.RemoveParent(ctx, children, []string{req.Object.PID}))
	}
	for _, parentID := range req.UnlinkParents {
		apply(m.editor.RemoveParent(ctx, []*types.CompoundObject{req.Object}, []string{parentID}))
	}

	m.log.Info("compound relationships modified",
		zap.String("object", req.Object.PID),
		zap.Int("edits", len(res.Edits)),
		zap.Int("errors", len(errs)))
	return res, errors.Join(errs...)
}

// resolve loads pids, keeping a bare object for identifiers that no longer
// resolve so their dangling edges can still be removed.
func (m *Manager) resolve(ctx context.Context, pids []string) ([]*types.CompoundObject, error) {
	objects := make([]*types.CompoundObject, 0, len(pids))
	for _, pid := range pids {
		obj, err := m.store.Load(ctx, pid)
		switch {
		case errors.Is(err, types.ErrNotFound):
			obj = &types.CompoundObject{PID: pid}
		case err != nil:
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}
