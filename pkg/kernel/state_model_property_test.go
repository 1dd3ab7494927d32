package kernel_test

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/valori-dev/valori/pkg/fxp"
	"github.com/valori-dev/valori/pkg/kernel"
	"github.com/valori-dev/valori/pkg/kernel/model"
	"github.com/valori-dev/valori/pkg/vecmath"
)

// TestStateModelProperty drives an oracle model.Model and a real
// kernel.Kernel through the same randomly generated command sequence and
// requires them to agree at every step: same success/failure, same
// allocated IDs, same resulting state, and — for commands that fail — no
// mutation on either side.
func TestStateModelProperty(t *testing.T) {
	const (
		dim        = 3
		capRecords = 12
		capNodes   = 8
		capEdges   = 8
		iterations = 2000
	)

	cfg := kernel.Config{Dim: dim, CapRecords: capRecords, CapNodes: capNodes, CapEdges: capEdges, IndexKind: kernel.IndexKindBruteForce}

	k, err := kernel.New(cfg)
	require.NoError(t, err)

	m := model.New(dim, capRecords, capNodes, capEdges)

	rng := rand.New(rand.NewSource(20260731))

	for i := 0; i < iterations; i++ {
		step(t, i, rng, k, m, dim, capRecords, capNodes, capEdges)
	}
}

func step(t *testing.T, i int, rng *rand.Rand, k *kernel.Kernel, m *model.Model, dim int, capRecords, capNodes, capEdges uint32) {
	t.Helper()

	preKernelHash := k.StateHash()
	preModelSnapshot := m.Snapshot()

	switch rng.Intn(7) {
	case 0:
		vector := randomVector(t, rng, dim)
		tag := uint64(rng.Intn(4))

		kAssign, kErr := k.Apply(kernel.InsertRecord{Vector: vector, Tag: tag, HasTag: true})
		mID, mErr := m.InsertRecord(vecmathToInt32(vector), tag, true)

		requireSameOutcome(t, i, "InsertRecord", kErr, mErr)

		if kErr == nil {
			require.EqualValues(t, mID, kAssign.RecordID, "step %d: allocated record id diverged", i)
		}

	case 1:
		id := rng.Intn(int(capRecords))

		kErr := applyErr(k, kernel.SoftDeleteRecord{ID: kernel.RecordID(id)})
		mErr := m.SoftDeleteRecord(uint32(id))
		requireSameOutcome(t, i, "SoftDeleteRecord", kErr, mErr)

	case 2:
		kind := uint8(rng.Intn(3))
		recordID := uint32(rng.Intn(int(capRecords)))
		hasRecord := rng.Intn(2) == 0

		kAssign, kErr := k.Apply(kernel.CreateNode{Kind: kind, Record: kernel.RecordID(recordID), HasRecord: hasRecord})
		mID, mErr := m.CreateNode(kind, recordID, hasRecord)

		requireSameOutcome(t, i, "CreateNode", kErr, mErr)

		if kErr == nil {
			require.EqualValues(t, mID, kAssign.NodeID, "step %d: allocated node id diverged", i)
		}

	case 3:
		id := rng.Intn(int(capNodes))

		kErr := applyErr(k, kernel.DeleteNode{ID: kernel.NodeID(id)})
		mErr := m.DeleteNode(uint32(id))
		requireSameOutcome(t, i, "DeleteNode", kErr, mErr)

	case 4:
		kind := uint8(rng.Intn(3))
		from := uint32(rng.Intn(int(capNodes)))
		to := uint32(rng.Intn(int(capNodes)))

		kAssign, kErr := k.Apply(kernel.CreateEdge{Kind: kind, From: kernel.NodeID(from), To: kernel.NodeID(to)})
		mID, mErr := m.CreateEdge(kind, from, to)

		requireSameOutcome(t, i, "CreateEdge", kErr, mErr)

		if kErr == nil {
			require.EqualValues(t, mID, kAssign.EdgeID, "step %d: allocated edge id diverged", i)
		}

	case 5:
		id := rng.Intn(int(capEdges))

		kErr := applyErr(k, kernel.DeleteEdge{ID: kernel.EdgeID(id)})
		mErr := m.DeleteEdge(uint32(id))
		requireSameOutcome(t, i, "DeleteEdge", kErr, mErr)

	case 6:
		id := uint32(rng.Intn(int(capRecords)))
		value := []byte{byte(rng.Intn(256)), byte(rng.Intn(256))}

		kErr := applyErr(k, kernel.SetMetadata{ID: kernel.RecordID(id), Value: value})
		mErr := m.SetMetadata(id, value)
		requireSameOutcome(t, i, "SetMetadata", kErr, mErr)
	}

	succeeded := k.StateHash() != preKernelHash

	if !succeeded {
		require.True(t, cmp.Equal(preModelSnapshot, m.Snapshot()), "step %d: a no-op kernel command mutated the model", i)

		return
	}

	require.Equal(t, kernelSnapshot(t, k, capRecords, capNodes, capEdges), m.Snapshot(), "step %d: kernel and model diverged after a successful command", i)
}

// requireSameOutcome asserts both sides agree on success/failure; it
// does not compare error *messages*, since the model's sentinel errors
// are deliberately distinct values from pkg/kernel's.
func requireSameOutcome(t *testing.T, i int, op string, kErr, mErr error) {
	t.Helper()
	require.Equalf(t, kErr == nil, mErr == nil, "step %d (%s): kernel err=%v, model err=%v", i, op, kErr, mErr)
}

func applyErr(k *kernel.Kernel, cmd kernel.Command) error {
	_, err := k.Apply(cmd)
	return err
}

func randomVector(t *testing.T, rng *rand.Rand, dim int) vecmath.Vector {
	t.Helper()

	v := make(vecmath.Vector, dim)

	for d := range v {
		f := float32(rng.Intn(2001)-1000) / 100
		s, err := fxp.FromFloat32(f)
		require.NoError(t, err)
		v[d] = s
	}

	return v
}

func vecmathToInt32(v vecmath.Vector) []int32 {
	out := make([]int32, len(v))
	for i, s := range v {
		out[i] = int32(s)
	}

	return out
}

// kernelSnapshot extracts the same comparable view from the real Kernel
// that model.Model.Snapshot returns, using only Kernel's public surface —
// exercising kernel.Kernel.OutgoingEdges along the way.
func kernelSnapshot(t *testing.T, k *kernel.Kernel, capRecords, capNodes, capEdges uint32) model.Snapshot {
	t.Helper()

	snap := model.Snapshot{Metadata: make(map[uint32]string)}

	for id := uint32(0); id < capRecords; id++ {
		rec, err := k.Record(kernel.RecordID(id))
		if err != nil {
			continue
		}

		if value, ok := k.Metadata(kernel.RecordID(id)); ok {
			snap.Metadata[id] = string(value)
		}

		if rec.Deleted {
			continue
		}

		snap.Records = append(snap.Records, model.RecordView{
			ID:     id,
			Vector: vecmathToInt32(rec.Vector),
			Tag:    rec.Tag,
			HasTag: rec.HasTag,
		})
	}

	for id := uint32(0); id < capNodes; id++ {
		node, err := k.Node(kernel.NodeID(id))
		if err != nil {
			continue
		}

		edgesIter, err := k.OutgoingEdges(kernel.NodeID(id))
		require.NoError(t, err)

		var outEdges []uint32
		for e := range edgesIter {
			outEdges = append(outEdges, uint32(e.ID))
		}

		snap.Nodes = append(snap.Nodes, model.NodeView{
			ID:        id,
			Kind:      node.Kind,
			Record:    uint32(node.Record),
			HasRecord: node.HasRecord,
			OutEdges:  outEdges,
		})
	}

	for id := uint32(0); id < capEdges; id++ {
		edge, err := k.Edge(kernel.EdgeID(id))
		if err != nil {
			continue
		}

		snap.Edges = append(snap.Edges, model.EdgeView{ID: id, Kind: edge.Kind, From: uint32(edge.From), To: uint32(edge.To)})
	}

	return snap
}
