// Package compound manages parent/child relationships between repository
// objects: a parent holds an ordered sequence of child parts (pages of a
// book, tracks of an album).
//
// Each link is a pair of triples on the child: a membership edge pointing
// at the parent and a sequence edge whose predicate is scoped to that
// parent. The Editor adds and removes both edges as one atomic change set,
// the Validator checks link requests before they are applied, and the
// Executor renumbers a parent's children from a Plan of independent,
// retryable steps.
package compound

// Version is the release of the compound engine and CLI.
const Version = "v0.3.0"
