package compound

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
)

// Entry is one child in a reorder request. Lower weights sort first.
type Entry struct {
	ChildID string `json:"child"`
	Weight  int    `json:"weight"`
}

// StepKind identifies what a Step does.
type StepKind string

const (
	// StepUpdateSequence sets the child's sequence under the parent.
	StepUpdateSequence StepKind = "update_sequence"
	// StepFinalize refreshes derived parent metadata once all children are placed.
	StepFinalize StepKind = "finalize"
)

// Step is one independently retryable unit of a sequencing run. It is pure
// data; applying the same Step twice leaves the same end state.
type Step struct {
	Kind     StepKind `json:"kind"`
	ParentID string   `json:"parent"`
	ChildID  string   `json:"child,omitempty"`
	Position int      `json:"position,omitempty"`
}

func (s Step) String() string {
	if s.Kind == StepFinalize {
		return fmt.Sprintf("finalize %s", s.ParentID)
	}
	return fmt.Sprintf("place %s at %d under %s", s.ChildID, s.Position, s.ParentID)
}

// Plan is the ordered list of steps that renumbers a parent's children.
type Plan struct {
	ParentID string
	steps    []Step
}

// PlanSequence orders entries by weight, keeping submission order for equal
// weights, and assigns positions 1..N followed by one finalize step. A child
// listed more than once keeps its first entry.
func PlanSequence(parentID string, entries []Entry) *Plan {
	seen := make(map[string]bool, len(entries))
	ordered := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.ChildID == "" || seen[e.ChildID] {
			continue
		}
		seen[e.ChildID] = true
		ordered = append(ordered, e)
	}
	slices.SortStableFunc(ordered, func(a, b Entry) int {
		return cmp.Compare(a.Weight, b.Weight)
	})

	steps := make([]Step, 0, len(ordered)+1)
	for i, e := range ordered {
		steps = append(steps, Step{
			Kind:     StepUpdateSequence,
			ParentID: parentID,
			ChildID:  e.ChildID,
			Position: i + 1,
		})
	}
	steps = append(steps, Step{Kind: StepFinalize, ParentID: parentID})
	return &Plan{ParentID: parentID, steps: steps}
}

// PlanFromChildren plans a renumbering that keeps the current order of
// children, as listed by Editor.ChildParts with sequences.
func PlanFromChildren(parentID string, children []ChildPart) *Plan {
	entries := make([]Entry, len(children))
	for i, c := range children {
		entries[i] = Entry{ChildID: c.PID, Weight: i + 1}
	}
	return PlanSequence(parentID, entries)
}

// Len returns the number of steps, including the finalize step.
func (p *Plan) Len() int {
	return len(p.steps)
}

// Step returns the step at index i.
func (p *Plan) Step(i int) Step {
	return p.steps[i]
}

// Steps yields every step with its index.
func (p *Plan) Steps() iter.Seq2[int, Step] {
	return p.StepsFrom(0)
}

// StepsFrom yields the steps from index start onwards, for resuming a run.
func (p *Plan) StepsFrom(start int) iter.Seq2[int, Step] {
	return func(yield func(int, Step) bool) {
		for i := max(start, 0); i < len(p.steps); i++ {
			if !yield(i, p.steps[i]) {
				return
			}
		}
	}
}

// Title is the human-readable name of the run for the given parent label.
func (p *Plan) Title(parentLabel string) string {
	if parentLabel == "" {
		parentLabel = p.ParentID
	}
	return fmt.Sprintf("Sequencing %s's compound objects ...", parentLabel)
}
