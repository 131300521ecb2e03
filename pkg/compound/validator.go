package compound

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/compound/pkg/types"
)

// Validation messages.
const (
	msgNotCompound       = "This object is not a compound object"
	msgChildOfSelf       = "An object may not be a child of itself."
	msgAlreadyParent     = "The object is already a parent of the child."
	msgInvalidObject     = "Invalid object supplied."
	msgParentNotCompound = "The parent object (%s) is not a compound object!"
	msgParentOfSelf      = "An object may not be the parent of itself."
	msgAlreadyChild      = "The object is already a child of the parent."
	msgParentAndChild    = "An object may not be the parent and child of the same object."
)

// LinkRequest asks to give Object a new Child, a new Parent, or both.
// Empty Child or Parent means that side is not requested.
type LinkRequest struct {
	Object *types.CompoundObject
	Child  string
	Parent string
}

// Validator checks link requests before any relationship is written.
type Validator struct {
	store    types.Store
	preds    types.Predicates
	restrict bool
	log      *zap.Logger
}

// NewValidator returns a Validator over store configured by cfg.
func NewValidator(store types.Store, cfg types.Config, opts ...Option) *Validator {
	o := buildOptions(opts)
	return &Validator{
		store:    store,
		preds:    cfg.Predicates(),
		restrict: cfg.RestrictChildrenToCompound,
		log:      o.log,
	}
}

// Validate runs every rule and returns a *types.ValidationError listing all
// violations, or nil. A failed relationship read is returned as the store
// error it is.
func (v *Validator) Validate(ctx context.Context, req LinkRequest) error {
	if req.Object == nil || req.Object.PID == "" {
		return types.ErrInvalidData
	}
	self := req.Object.PID
	verr := &types.ValidationError{}

	if req.Child != "" {
		if err := v.checkChild(ctx, self, req, verr); err != nil {
			return err
		}
	}
	if req.Parent != "" {
		if err := v.checkParent(ctx, self, req, verr); err != nil {
			return err
		}
	}
	if req.Child != "" && req.Parent != "" && req.Child == req.Parent {
		verr.Add(types.FieldChild, msgParentAndChild)
		verr.Add(types.FieldParent, msgParentAndChild)
	}

	if !verr.Empty() {
		v.log.Debug("link request rejected",
			zap.String("object", self),
			zap.Int("violations", len(verr.Errors)))
	}
	return verr.Err()
}

func (v *Validator) checkChild(ctx context.Context, self string, req LinkRequest, verr *types.ValidationError) error {
	if v.restrict && !req.Object.IsCompound() {
		verr.Add(types.FieldChild, msgNotCompound)
	}
	if req.Child == self {
		verr.Add(types.FieldChild, msgChildOfSelf)
	}

	child, err := v.load(ctx, req.Child)
	if err != nil {
		return err
	}
	if child == nil {
		verr.Add(types.FieldChild, msgInvalidObject)
		return nil
	}

	linked, err := v.memberOf(ctx, child.PID, self)
	if err != nil {
		return err
	}
	if linked {
		verr.Add(types.FieldChild, msgAlreadyParent)
	}
	return nil
}

func (v *Validator) checkParent(ctx context.Context, self string, req LinkRequest, verr *types.ValidationError) error {
	parent, err := v.load(ctx, req.Parent)
	if err != nil {
		return err
	}
	if parent == nil {
		verr.Add(types.FieldParent, msgInvalidObject)
		return nil
	}

	if v.restrict && !parent.IsCompound() {
		verr.Add(types.FieldParent, fmt.Sprintf(msgParentNotCompound, req.Parent))
	}
	if req.Parent == self {
		verr.Add(types.FieldParent, msgParentOfSelf)
	}

	linked, err := v.memberOf(ctx, self, req.Parent)
	if err != nil {
		return err
	}
	if linked {
		verr.Add(types.FieldParent, msgAlreadyChild)
	}
	return nil
}

// load returns nil, nil when pid does not resolve.
func (v *Validator) load(ctx context.Context, pid string) (*types.CompoundObject, error) {
	obj, err := v.store.Load(ctx, pid)
	if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrInvalidID) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// memberOf scans childID's membership edges for one pointing at parentID.
func (v *Validator) memberOf(ctx context.Context, childID, parentID string) (bool, error) {
	edges, err := v.store.Get(ctx, childID, types.RelsExtNamespace, v.preds.Membership)
	if err != nil {
		return false, err
	}
	for _, edge := range edges {
		if edge.Object == parentID {
			return true, nil
		}
	}
	return false, nil
}
