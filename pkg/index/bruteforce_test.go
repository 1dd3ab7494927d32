package index_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/valori-dev/valori/pkg/fxp"
	"github.com/valori-dev/valori/pkg/index"
	"github.com/valori-dev/valori/pkg/vecmath"
)

// memSource is a minimal index.Source backed by a plain slice, used only to
// test BruteForce in isolation from the kernel's real record pool.
type memSource struct {
	entries []index.Entry
}

func (m memSource) RecordAt(id uint32) (index.Entry, bool) {
	if int(id) >= len(m.entries) {
		return index.Entry{}, false
	}

	return m.entries[id], true
}

func (m memSource) Capacity() uint32 { return uint32(len(m.entries)) }

func mustVec(t *testing.T, values ...float32) vecmath.Vector {
	t.Helper()

	out := make(vecmath.Vector, len(values))

	for i, v := range values {
		s, err := fxp.FromFloat32(v)
		require.NoError(t, err)

		out[i] = s
	}

	return out
}

// TestSearch_S1 reproduces spec.md §8 scenario S1.
func TestSearch_S1(t *testing.T) {
	idx := index.NewBruteForce()

	src := memSource{entries: []index.Entry{
		{ID: 0, Vector: mustVec(t, 1, 0, 0, 0), Live: true},
		{ID: 1, Vector: mustVec(t, 0, 1, 0, 0), Live: true},
		{ID: 2, Vector: mustVec(t, 0, 0, 1, 0), Live: true},
	}}

	for _, e := range src.entries {
		idx.OnInsert(e.ID, e.Vector, 0, false)
	}

	results, err := idx.Search(src, mustVec(t, 1, 0, 0, 0), 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, uint32(0), results[0].ID)
	require.Equal(t, fxp.Scalar(0), results[0].Score)

	require.Equal(t, uint32(1), results[1].ID)
	require.Equal(t, fxp.Scalar(2*fxp.Scale), results[1].Score)
}

// TestSearch_S2 reproduces spec.md §8 scenario S2: after soft-deleting
// record 0, it must never reappear, and the tie between records 1 and 2
// breaks by ascending ID.
func TestSearch_S2(t *testing.T) {
	idx := index.NewBruteForce()

	src := memSource{entries: []index.Entry{
		{ID: 0, Vector: mustVec(t, 1, 0, 0, 0), Live: false},
		{ID: 1, Vector: mustVec(t, 0, 1, 0, 0), Live: true},
		{ID: 2, Vector: mustVec(t, 0, 0, 1, 0), Live: true},
	}}

	idx.OnInsert(0, src.entries[0].Vector, 0, false)
	idx.OnInsert(1, src.entries[1].Vector, 0, false)
	idx.OnInsert(2, src.entries[2].Vector, 0, false)
	idx.OnDelete(0)

	results, err := idx.Search(src, mustVec(t, 1, 0, 0, 0), 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, uint32(1), results[0].ID)
	require.Equal(t, uint32(2), results[1].ID)
	require.Equal(t, results[0].Score, results[1].Score)
}

func TestSearch_FilterExcludes(t *testing.T) {
	idx := index.NewBruteForce()

	src := memSource{entries: []index.Entry{
		{ID: 0, Vector: mustVec(t, 1, 0), Live: true, Tag: 7, HasTag: true},
		{ID: 1, Vector: mustVec(t, 1, 0), Live: true, Tag: 9, HasTag: true},
	}}

	idx.OnInsert(0, src.entries[0].Vector, 7, true)
	idx.OnInsert(1, src.entries[1].Vector, 9, true)

	results, err := idx.Search(src, mustVec(t, 1, 0), 10, func(e index.Entry) bool {
		return e.HasTag && e.Tag == 9
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, uint32(1), results[0].ID)
}

func TestTagFilter_Equal(t *testing.T) {
	idx := index.NewBruteForce()

	src := memSource{entries: []index.Entry{
		{ID: 0, Vector: mustVec(t, 1, 0), Live: true, Tag: 7, HasTag: true},
		{ID: 1, Vector: mustVec(t, 1, 0), Live: true, Tag: 9, HasTag: true},
	}}

	idx.OnInsert(0, src.entries[0].Vector, 7, true)
	idx.OnInsert(1, src.entries[1].Vector, 9, true)

	filter := index.TagFilter{Tag: 9, Mode: index.Equal}

	results, err := idx.Search(src, mustVec(t, 1, 0), 10, filter.Filter())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, uint32(1), results[0].ID)
}

func TestTagFilter_BitmaskAny(t *testing.T) {
	idx := index.NewBruteForce()

	src := memSource{entries: []index.Entry{
		{ID: 0, Vector: mustVec(t, 1, 0), Live: true, Tag: 0b0100, HasTag: true},
		{ID: 1, Vector: mustVec(t, 1, 0), Live: true, Tag: 0b0011, HasTag: true},
		{ID: 2, Vector: mustVec(t, 1, 0), Live: true, Tag: 0, HasTag: true},
	}}

	for _, e := range src.entries {
		idx.OnInsert(e.ID, e.Vector, e.Tag, e.HasTag)
	}

	filter := index.TagFilter{Tag: 0b0001, Mode: index.BitmaskAny}

	results, err := idx.Search(src, mustVec(t, 1, 0), 10, filter.Filter())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, uint32(1), results[0].ID)
}
