package types

import (
	"strconv"
	"strings"
)

// Predicates names the two relationship kinds the engine manages. Membership
// is configurable; sequence predicates are derived per parent.
type Predicates struct {
	Membership string
}

// NewPredicates returns Predicates using the given membership predicate
// name, falling back to DefaultMembershipPredicate when empty.
func NewPredicates(membership string) Predicates {
	if membership == "" {
		membership = DefaultMembershipPredicate
	}
	return Predicates{Membership: membership}
}

// SequencePredicate returns the predicate name that scopes sequence numbers
// to parentID. Colons are not valid in the predicate local name, so they are
// replaced with underscores.
func SequencePredicate(parentID string) string {
	return SequencePredicatePrefix + strings.ReplaceAll(parentID, ":", "_")
}

// MembershipTriple returns the membership edge childID -> parentID.
func (p Predicates) MembershipTriple(childID, parentID string) Triple {
	return Triple{
		Subject:   childID,
		Namespace: RelsExtNamespace,
		Predicate: p.Membership,
		Object:    parentID,
		ValueType: ValueTypeURI,
	}
}

// SequencePattern returns a remove pattern matching any sequence value of
// childID under parentID.
func (p Predicates) SequencePattern(childID, parentID string) Triple {
	return Triple{
		Subject:   childID,
		Namespace: IslandoraNamespace,
		Predicate: SequencePredicate(parentID),
	}
}

// SequenceTriple returns the sequence edge for childID under parentID.
func (p Predicates) SequenceTriple(childID, parentID string, seq int) Triple {
	t := p.SequencePattern(childID, parentID)
	t.Object = strconv.Itoa(seq)
	t.ValueType = ValueTypePlainLiteral
	return t
}

// Relationship is the composite membership + sequence link between a child
// and one parent. The zero value is not usable; build it with
// NewRelationship so both edges always exist together.
type Relationship struct {
	childID  string
	parentID string
	sequence int
}

// NewRelationship builds a Relationship. It returns ErrInvalidID for empty
// identifiers, ErrSelfReference when child and parent are the same object,
// and ErrInvalidSequence for positions below 1.
func NewRelationship(childID, parentID string, sequence int) (Relationship, error) {
	if childID == "" || parentID == "" {
		return Relationship{}, ErrInvalidID
	}
	if childID == parentID {
		return Relationship{}, ErrSelfReference
	}
	if sequence < 1 {
		return Relationship{}, ErrInvalidSequence
	}
	return Relationship{childID: childID, parentID: parentID, sequence: sequence}, nil
}

// ChildID returns the child identifier.
func (r Relationship) ChildID() string { return r.childID }

// ParentID returns the parent identifier.
func (r Relationship) ParentID() string { return r.parentID }

// Sequence returns the child's position under the parent.
func (r Relationship) Sequence() int { return r.sequence }

// AddChanges returns the change set that writes both edges.
func (r Relationship) AddChanges(p Predicates) []Change {
	return []Change{
		AddTriple(p.MembershipTriple(r.childID, r.parentID)),
		AddTriple(p.SequenceTriple(r.childID, r.parentID, r.sequence)),
	}
}

// RemoveChanges returns the change set that deletes both edges of the
// (child, parent) pair regardless of the stored sequence value.
func RemoveChanges(p Predicates, childID, parentID string) []Change {
	return []Change{
		RemoveTriple(p.MembershipTriple(childID, parentID)),
		RemoveTriple(p.SequencePattern(childID, parentID)),
	}
}

// ResequenceChanges returns the change set that replaces the sequence edge of
// childID under parentID with position seq.
func ResequenceChanges(p Predicates, childID, parentID string, seq int) []Change {
	return []Change{
		RemoveTriple(p.SequencePattern(childID, parentID)),
		AddTriple(p.SequenceTriple(childID, parentID, seq)),
	}
}
