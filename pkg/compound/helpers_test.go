package compound

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/compound/internal/memstore"
	"github.com/mesh-intelligence/compound/pkg/types"
)

var testConfig = types.Config{
	Backend:               types.BackendMemory,
	RelationshipPredicate: "partOf",
}

// seed saves an object per pid. Pids starting with "P:" are compound.
func seed(t *testing.T, s *memstore.Store, pids ...string) {
	t.Helper()
	for _, pid := range pids {
		obj := &types.CompoundObject{PID: pid, Label: "Label " + pid}
		if len(pid) > 2 && pid[:2] == "P:" {
			obj.Models = []string{types.CompoundContentModel}
		}
		require.NoError(t, s.Save(context.Background(), obj))
	}
}

func load(t *testing.T, s *memstore.Store, pid string) *types.CompoundObject {
	t.Helper()
	obj, err := s.Load(context.Background(), pid)
	require.NoError(t, err)
	return obj
}

// sequences returns child -> sequence under parentID.
func sequences(t *testing.T, s *memstore.Store, parentID string) map[string]int {
	t.Helper()
	out := make(map[string]int)
	for _, tr := range s.Triples() {
		if tr.Predicate == types.SequencePredicate(parentID) {
			n, ok := tr.Int()
			require.True(t, ok)
			out[tr.Subject] = n
		}
	}
	return out
}
