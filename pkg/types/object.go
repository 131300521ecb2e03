package types

import "slices"

// Content model identifiers recognized by the engine.
const (
	// CompoundContentModel marks an object as able to hold child parts.
	CompoundContentModel = "islandora:compoundCModel"
)

// CompoundObject is a repository object referenced by the relationship
// engine. The engine only reads it; the repository store owns it.
type CompoundObject struct {
	PID       string   `json:"pid"`
	Label     string   `json:"label"`
	Models    []string `json:"models"`
	CreatedAt string   `json:"created_at,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

// HasModel reports whether the object carries the given content model.
func (o *CompoundObject) HasModel(model string) bool {
	if o == nil {
		return false
	}
	return slices.Contains(o.Models, model)
}

// IsCompound reports whether the object carries CompoundContentModel.
func (o *CompoundObject) IsCompound() bool {
	return o.HasModel(CompoundContentModel)
}

// Validate checks the fields a store requires before persisting an object.
func (o *CompoundObject) Validate() error {
	if o == nil {
		return ErrInvalidData
	}
	if o.PID == "" {
		return ErrInvalidID
	}
	return nil
}

// PIDs returns the identifiers of the given objects in order.
func PIDs(objects []*CompoundObject) []string {
	pids := make([]string, 0, len(objects))
	for _, o := range objects {
		if o != nil {
			pids = append(pids, o.PID)
		}
	}
	return pids
}
