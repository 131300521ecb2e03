package sqlite

// JSON record structures mirroring the JSONL file format.

// objectJSON is one line of objects.jsonl.
type objectJSON struct {
	PID       string   `json:"pid"`
	Label     string   `json:"label"`
	Models    []string `json:"models"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// tripleJSON is one line of triples.jsonl.
type tripleJSON struct {
	TripleID  string `json:"triple_id"`
	Subject   string `json:"subject"`
	Namespace string `json:"namespace"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
	ValueType string `json:"value_type"`
	CreatedAt string `json:"created_at"`
}
