// Package memstore provides an in-memory object repository and relationship
// store. It serves the memory backend and lets tests inject store failures
// for individual subjects.
package memstore

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/compound/pkg/types"
)

var _ types.Backend = (*Store)(nil)

// Store keeps objects and triples in memory.
type Store struct {
	mu      sync.RWMutex
	objects map[string]*types.CompoundObject
	triples []types.Triple

	// Fault injection, keyed by PID.
	commitFaults map[string]error
	loadFaults   map[string]error
	readFaults   map[string]error
	commits      int
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		objects:      make(map[string]*types.CompoundObject),
		commitFaults: make(map[string]error),
		loadFaults:   make(map[string]error),
		readFaults:   make(map[string]error),
	}
}

// FailCommit makes every Commit touching subject fail with err. A nil err
// clears the fault.
func (s *Store) FailCommit(subject string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setFault(s.commitFaults, subject, err)
}

// FailLoad makes Load(pid) fail with err. A nil err clears the fault.
func (s *Store) FailLoad(pid string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setFault(s.loadFaults, pid, err)
}

// FailRead makes Get for subject, and Find for object value pid, fail with
// err. A nil err clears the fault.
func (s *Store) FailRead(pid string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setFault(s.readFaults, pid, err)
}

func setFault(m map[string]error, key string, err error) {
	if err == nil {
		delete(m, key)
		return
	}
	m[key] = err
}

// Commits returns the number of successful Commit calls.
func (s *Store) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

// Save creates or replaces an object.
func (s *Store) Save(ctx context.Context, obj *types.CompoundObject) error {
	if err := obj.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *obj
	cp.Models = slices.Clone(obj.Models)
	s.objects[obj.PID] = &cp
	return nil
}

// Load returns a copy of the object with the given PID.
func (s *Store) Load(ctx context.Context, pid string) (*types.CompoundObject, error) {
	if pid == "" {
		return nil, types.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err, ok := s.loadFaults[pid]; ok {
		return nil, types.NewStoreError("load", pid, err)
	}
	obj, ok := s.objects[pid]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *obj
	cp.Models = slices.Clone(obj.Models)
	return &cp, nil
}

// Delete removes an object, its own triples, and triples whose object
// value is the deleted PID.
func (s *Store) Delete(ctx context.Context, pid string) error {
	if pid == "" {
		return types.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[pid]; !ok {
		return types.ErrNotFound
	}
	delete(s.objects, pid)
	seqPredicate := types.SequencePredicate(pid)
	s.triples = slices.DeleteFunc(s.triples, func(t types.Triple) bool {
		return t.Subject == pid || t.Object == pid || t.Predicate == seqPredicate
	})
	return nil
}

// List returns all objects ordered by PID.
func (s *Store) List(ctx context.Context) ([]*types.CompoundObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.CompoundObject, 0, len(s.objects))
	for _, obj := range s.objects {
		cp := *obj
		cp.Models = slices.Clone(obj.Models)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

// Get returns matching triples of subject.
func (s *Store) Get(ctx context.Context, subject, namespace, predicate string) ([]types.Triple, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err, ok := s.readFaults[subject]; ok {
		return nil, types.NewStoreError("get", subject, err)
	}
	var out []types.Triple
	for _, t := range s.triples {
		if t.Subject == subject && t.Namespace == namespace && t.Predicate == predicate {
			out = append(out, t)
		}
	}
	return out, nil
}

// Find returns triples with the given predicate and object value.
func (s *Store) Find(ctx context.Context, namespace, predicate, object string) ([]types.Triple, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err, ok := s.readFaults[object]; ok {
		return nil, types.NewStoreError("find", object, err)
	}
	var out []types.Triple
	for _, t := range s.triples {
		if t.Namespace == namespace && t.Predicate == predicate && t.Object == object {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out, nil
}

// Commit applies changes atomically. Any injected fault for a subject in
// the change set rejects the whole set.
func (s *Store) Commit(ctx context.Context, changes []types.Change) error {
	for _, c := range changes {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range changes {
		if err, ok := s.commitFaults[c.Triple.Subject]; ok {
			return types.NewStoreError("commit", c.Triple.Subject, err)
		}
	}

	next := slices.Clone(s.triples)
	for _, c := range changes {
		switch c.Op {
		case types.OpAdd:
			if !containsTriple(next, c.Triple) {
				t := c.Triple
				t.TripleID = uuid.Must(uuid.NewV7()).String()
				next = append(next, t)
			}
		case types.OpRemove:
			next = slices.DeleteFunc(next, c.Triple.Matches)
		}
	}
	s.triples = next
	s.commits++
	return nil
}

// Triples returns every stored triple sorted by subject and predicate.
func (s *Store) Triples() []types.Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.triples)
	sort.SliceStable(out, func(i, j int) bool {
		if c := strings.Compare(out[i].Subject, out[j].Subject); c != 0 {
			return c < 0
		}
		return out[i].Predicate < out[j].Predicate
	})
	return out
}

func containsTriple(ts []types.Triple, t types.Triple) bool {
	for _, x := range ts {
		if x.Subject == t.Subject && x.Namespace == t.Namespace && x.Predicate == t.Predicate && x.Object == t.Object {
			return true
		}
	}
	return false
}

// Attach validates cfg. The memory backend holds nothing to open.
func (s *Store) Attach(cfg types.Config) error {
	return cfg.Validate()
}

// Detach is a no-op; contents are kept until the Store is discarded.
func (s *Store) Detach() error {
	return nil
}
