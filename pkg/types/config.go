package types

import "errors"

// Config holds backend selection and the relationship engine settings. It is
// passed explicitly to every component; nothing reads configuration globally.
type Config struct {
	Backend      string `json:"backend" yaml:"backend"`
	DataDir      string `json:"data_dir" yaml:"data_dir"`
	SyncStrategy string `json:"sync_strategy" yaml:"sync_strategy"`

	// RelationshipPredicate is the membership predicate name.
	RelationshipPredicate string `json:"relationship_predicate" yaml:"relationship_predicate"`

	// RestrictChildrenToCompound requires parents to carry CompoundContentModel.
	RestrictChildrenToCompound bool `json:"restrict_children_to_compound" yaml:"restrict_children_to_compound"`

	// GenerateThumbnailOnChildChange refreshes the parent thumbnail whenever
	// its children change or are resequenced.
	GenerateThumbnailOnChildChange bool `json:"generate_thumbnail_on_child_change" yaml:"generate_thumbnail_on_child_change"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Sync strategies for JSONL persistence.
const (
	SyncImmediate = "immediate"
	SyncOnClose   = "on_close"
)

// Config validation errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrSyncStrategyUnknown = errors.New("unknown sync strategy")
)

var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendMemory: true,
}

var knownSyncStrategies = map[string]bool{
	"":            true,
	SyncImmediate: true,
	SyncOnClose:   true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if !knownSyncStrategies[c.SyncStrategy] {
		return ErrSyncStrategyUnknown
	}
	return nil
}

// Predicates returns the relationship predicates selected by the config.
func (c Config) Predicates() Predicates {
	return NewPredicates(c.RelationshipPredicate)
}

// EffectiveSyncStrategy returns the sync strategy, defaulting to immediate.
func (c Config) EffectiveSyncStrategy() string {
	if c.SyncStrategy == "" {
		return SyncImmediate
	}
	return c.SyncStrategy
}
