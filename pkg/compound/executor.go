package compound

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/compound/pkg/types"
)

// Finalizer runs the finalize step of a sequencing run.
type Finalizer interface {
	Finalize(ctx context.Context, parentID string) (string, error)
}

// FinalizerFunc adapts a function to Finalizer.
type FinalizerFunc func(ctx context.Context, parentID string) (string, error)

// Finalize calls f.
func (f FinalizerFunc) Finalize(ctx context.Context, parentID string) (string, error) {
	return f(ctx, parentID)
}

// ProgressFunc observes a run after each step.
type ProgressFunc func(completed, total int, message string)

// Outcome is the recorded result of one step.
type Outcome struct {
	Index   int    `json:"index"`
	Step    Step   `json:"step"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Result is the progress and outcome of a sequencing run.
type Result struct {
	ParentID  string    `json:"parent"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
	Succeeded []Outcome `json:"succeeded"`
	Failed    []Outcome `json:"failed"`

	// NextIndex is the first step of the run that was not applied. After
	// an abort, RunFrom(plan, NextIndex) resumes without skipping a child.
	NextIndex int `json:"next_index"`

	// Aborted is set when the run stopped before attempting every step.
	// Err holds the cause. The step that raised it is listed in Failed but
	// not counted in Completed.
	Aborted bool  `json:"aborted"`
	Err     error `json:"-"`
}

// OK reports whether every step was attempted and none failed.
func (r *Result) OK() bool {
	return !r.Aborted && len(r.Failed) == 0
}

// FailedChildren returns the children whose update step failed, in plan
// order, so callers can retry them individually.
func (r *Result) FailedChildren() []string {
	var ids []string
	for _, o := range r.Failed {
		if o.Step.Kind == StepUpdateSequence {
			ids = append(ids, o.Step.ChildID)
		}
	}
	return ids
}

// Executor applies the steps of a Plan, recording an Outcome per step.
// Store failures and unresolvable children are recorded and the run moves
// on; context cancellation and unexpected errors abort it. Steps already
// applied stay applied.
type Executor struct {
	store       types.Store
	preds       types.Predicates
	thumbnails  bool
	finalizer   Finalizer
	concurrency int
	progress    ProgressFunc
	metrics     *Metrics
	log         *zap.Logger
}

// NewExecutor returns an Executor over store configured by cfg. The
// finalizer only runs when cfg.GenerateThumbnailOnChildChange is set.
func NewExecutor(store types.Store, cfg types.Config, opts ...Option) *Executor {
	o := buildOptions(opts)
	return &Executor{
		store:       store,
		preds:       cfg.Predicates(),
		thumbnails:  cfg.GenerateThumbnailOnChildChange,
		finalizer:   o.finalizer,
		concurrency: o.concurrency,
		progress:    o.progress,
		metrics:     o.metrics,
		log:         o.log,
	}
}

// Run applies every step of plan.
func (e *Executor) Run(ctx context.Context, plan *Plan) *Result {
	return e.RunFrom(ctx, plan, 0)
}

// RunFrom applies the steps of plan from index start, treating earlier
// steps as already applied.
func (e *Executor) RunFrom(ctx context.Context, plan *Plan, start int) *Result {
	start = min(max(start, 0), plan.Len())
	res := &Result{ParentID: plan.ParentID, Total: plan.Len(), Completed: start}
	e.log.Info("sequencing started",
		zap.String("parent", plan.ParentID),
		zap.Int("steps", plan.Len()),
		zap.Int("start", start))

	if e.concurrency > 1 {
		e.runParallel(ctx, plan, start, res)
	} else {
		e.runSequential(ctx, plan, start, res)
	}
	res.NextIndex = nextUnapplied(res, start, plan.Len())

	status := "completed"
	if res.Aborted {
		status = "aborted"
	}
	e.metrics.run(status)
	e.log.Info("sequencing finished",
		zap.String("parent", plan.ParentID),
		zap.String("status", status),
		zap.Int("succeeded", len(res.Succeeded)),
		zap.Int("failed", len(res.Failed)))
	return res
}

func (e *Executor) runSequential(ctx context.Context, plan *Plan, start int, res *Result) {
	for i, step := range plan.StepsFrom(start) {
		if err := ctx.Err(); err != nil {
			res.Aborted, res.Err = true, err
			return
		}
		msg, err := e.Apply(ctx, step)
		if !e.record(res, Outcome{Index: i, Step: step, Message: msg, Err: err}) {
			res.Aborted, res.Err = true, err
			return
		}
	}
}

// runParallel applies update steps on a bounded errgroup, then the
// finalize step once every update has been attempted.
func (e *Executor) runParallel(ctx context.Context, plan *Plan, start int, res *Result) {
	var (
		mu       sync.Mutex
		outcomes = make([]*Outcome, plan.Len())
		final    []int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, step := range plan.StepsFrom(start) {
		if step.Kind == StepFinalize {
			final = append(final, i)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			msg, err := e.Apply(gctx, step)
			mu.Lock()
			outcomes[i] = &Outcome{Index: i, Step: step, Message: msg, Err: err}
			mu.Unlock()
			if err != nil && !recoverable(err) {
				return err
			}
			return nil
		})
	}
	waitErr := g.Wait()

	for _, o := range outcomes {
		if o != nil {
			e.record(res, *o)
		}
	}
	if waitErr != nil {
		res.Aborted, res.Err = true, waitErr
		return
	}
	for _, i := range final {
		if err := ctx.Err(); err != nil {
			res.Aborted, res.Err = true, err
			return
		}
		step := plan.Step(i)
		msg, err := e.Apply(ctx, step)
		if !e.record(res, Outcome{Index: i, Step: step, Message: msg, Err: err}) {
			res.Aborted, res.Err = true, err
			return
		}
	}
}

// nextUnapplied returns the lowest index from start without a successful
// outcome, or total when every step succeeded.
func nextUnapplied(res *Result, start, total int) int {
	applied := make(map[int]bool, len(res.Succeeded))
	for _, o := range res.Succeeded {
		applied[o.Index] = true
	}
	for i := start; i < total; i++ {
		if !applied[i] {
			return i
		}
	}
	return total
}

// record adds o to res and reports whether the run may continue. A step
// that aborts the run is not counted as completed.
func (e *Executor) record(res *Result, o Outcome) bool {
	if o.Err != nil && !recoverable(o.Err) {
		res.Failed = append(res.Failed, o)
		e.metrics.step(o.Step.Kind, outcomeFailure)
		e.log.Error("sequencing step aborted the run",
			zap.Stringer("step", o.Step),
			zap.Int("index", o.Index),
			zap.Error(o.Err))
		return false
	}

	res.Completed++
	if o.Err == nil {
		res.Succeeded = append(res.Succeeded, o)
		e.metrics.step(o.Step.Kind, outcomeSuccess)
		e.log.Debug(o.Message, zap.Int("step", o.Index), zap.Int("completed", res.Completed), zap.Int("total", res.Total))
	} else {
		res.Failed = append(res.Failed, o)
		e.metrics.step(o.Step.Kind, outcomeFailure)
		e.log.Warn("sequencing step failed",
			zap.Stringer("step", o.Step),
			zap.Int("index", o.Index),
			zap.Error(o.Err))
	}
	if e.progress != nil {
		msg := o.Message
		if o.Err != nil {
			msg = fmt.Sprintf("Failed to %s: %v", o.Step, o.Err)
		}
		e.progress(res.Completed, res.Total, msg)
	}
	return true
}

// recoverable reports whether a step error is recorded without stopping
// the run.
func recoverable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return types.IsStoreFailure(err) ||
		errors.Is(err, types.ErrNotFound) ||
		errors.Is(err, types.ErrNotMember) ||
		errors.Is(err, types.ErrInvalidID) ||
		errors.Is(err, types.ErrSelfReference) ||
		errors.Is(err, types.ErrInvalidSequence)
}

// Apply performs a single step and returns its status message. It is safe
// to call again for a step that failed or was interrupted.
func (e *Executor) Apply(ctx context.Context, step Step) (string, error) {
	switch step.Kind {
	case StepUpdateSequence:
		return e.updateSequence(ctx, step)
	case StepFinalize:
		return e.finalize(ctx, step)
	default:
		return "", fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

func (e *Executor) updateSequence(ctx context.Context, step Step) (string, error) {
	rel, err := types.NewRelationship(step.ChildID, step.ParentID, step.Position)
	if err != nil {
		return "", err
	}
	child, err := e.store.Load(ctx, rel.ChildID())
	if err != nil {
		return "", fmt.Errorf("loading child %s: %w", rel.ChildID(), err)
	}
	member, err := e.isMember(ctx, rel.ChildID(), rel.ParentID())
	if err != nil {
		return "", err
	}
	if !member {
		return "", fmt.Errorf("placing %s under %s: %w", rel.ChildID(), rel.ParentID(), types.ErrNotMember)
	}
	changes := types.ResequenceChanges(e.preds, rel.ChildID(), rel.ParentID(), rel.Sequence())
	if err := e.store.Commit(ctx, changes); err != nil {
		return "", err
	}
	return fmt.Sprintf("Inserting page %q (%s) at position \"%d\"", child.Label, child.PID, rel.Sequence()), nil
}

// isMember reports whether childID has a membership edge to parentID.
func (e *Executor) isMember(ctx context.Context, childID, parentID string) (bool, error) {
	edges, err := e.store.Get(ctx, childID, types.RelsExtNamespace, e.preds.Membership)
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

func (e *Executor) finalize(ctx context.Context, step Step) (string, error) {
	if !e.thumbnails || e.finalizer == nil {
		return fmt.Sprintf("Finalized %s", step.ParentID), nil
	}
	return e.finalizer.Finalize(ctx, step.ParentID)
}
