// Package types defines the compound object value types, the relationship
// triple model, configuration, the store interfaces the engine consumes, and
// the standard errors shared by every backend.
package types
