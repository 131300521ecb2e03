package compound

// ChildPart is one child of a parent as listed for callers.
type ChildPart struct {
	PID      string `json:"pid"`
	Label    string `json:"label"`
	Sequence int    `json:"sequence,omitempty"` // 0 when the child has no sequence under the parent.
}

// NextInsertionSequence returns the position after the highest sequence in
// children, or 1 when no child has a sequence yet.
func NextInsertionSequence(children []ChildPart) int {
	highest := 0
	for _, c := range children {
		if c.Sequence > highest {
			highest = c.Sequence
		}
	}
	return highest + 1
}
