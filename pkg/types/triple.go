package types

import (
	"strconv"
	"strings"
)

// Relationship namespaces.
const (
	// RelsExtNamespace holds the membership predicate.
	RelsExtNamespace = "info:fedora/fedora-system:def/relations-external#"

	// IslandoraNamespace holds the per-parent sequence predicates and the
	// derived thumbnail predicate.
	IslandoraNamespace = "http://islandora.ca/ontology/relsext#"
)

// Default predicate names.
const (
	DefaultMembershipPredicate = "isConstituentOf"
	SequencePredicatePrefix    = "isSequenceNumberOf"
	ThumbnailPredicate         = "hasCompoundThumbnail"
)

// Triple value types.
const (
	ValueTypeURI          = "uri"
	ValueTypePlainLiteral = "plain_literal"
)

// Triple is a directed, typed relationship (subject, predicate, object).
type Triple struct {
	TripleID  string `json:"triple_id,omitempty"`
	Subject   string `json:"subject"`
	Namespace string `json:"namespace"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
	ValueType string `json:"value_type"`
}

// Int parses the object value as an integer literal.
func (t Triple) Int() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(t.Object))
	if err != nil {
		return 0, false
	}
	return n, true
}

// ChangeOp is the kind of a Change.
type ChangeOp string

// Change operations.
const (
	OpAdd    ChangeOp = "add"
	OpRemove ChangeOp = "remove"
)

// Change is one add or remove within an atomic change set. A remove with an
// empty Triple.Object removes every value of the predicate on the subject.
type Change struct {
	Op     ChangeOp
	Triple Triple
}

// AddTriple returns an add Change.
func AddTriple(t Triple) Change { return Change{Op: OpAdd, Triple: t} }

// RemoveTriple returns a remove Change.
func RemoveTriple(t Triple) Change { return Change{Op: OpRemove, Triple: t} }

// Matches reports whether t is selected by the remove pattern p.
func (p Triple) Matches(t Triple) bool {
	if p.Subject != t.Subject || p.Namespace != t.Namespace || p.Predicate != t.Predicate {
		return false
	}
	return p.Object == "" || p.Object == t.Object
}

// Validate checks a change before it is applied.
func (c Change) Validate() error {
	if c.Op != OpAdd && c.Op != OpRemove {
		return ErrInvalidData
	}
	if c.Triple.Subject == "" || c.Triple.Predicate == "" {
		return ErrInvalidData
	}
	if c.Op == OpAdd && c.Triple.Object == "" {
		return ErrInvalidData
	}
	return nil
}
