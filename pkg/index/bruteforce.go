package index

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/valori-dev/valori/pkg/vecmath"
)

// BruteForce is the deterministic O(N*D) index required by spec.md §4.5: it
// scans every live record in ascending ID order, scores it with L2Sq, and
// returns the top-k under the strict (score asc, id asc) tie-break.
//
// liveIDs is an accelerator, not authoritative state: the record pool
// (Source) remains the single source of truth. Roaring bitmaps iterate
// their members in ascending order natively, which is exactly the
// canonical scan order spec.md requires, so BruteForce uses one instead of
// re-deriving "ascending live ids" from the pool on every search.
type BruteForce struct {
	liveIDs *roaring.Bitmap
}

// NewBruteForce returns an empty brute-force index.
func NewBruteForce() *BruteForce {
	return &BruteForce{liveIDs: roaring.New()}
}

// OnInsert marks id live. Called by the kernel after InsertRecord and after
// any internal record-slot reuse.
func (b *BruteForce) OnInsert(id uint32, _ vecmath.Vector, _ uint64, _ bool) {
	b.liveIDs.Add(id)
}

// OnDelete marks id no longer live (soft delete or slot free).
func (b *BruteForce) OnDelete(id uint32) {
	b.liveIDs.Remove(id)
}

// SchemeTag identifies BruteForce's (absent) persisted representation.
func (b *BruteForce) SchemeTag() uint32 { return 0 }

// SnapshotBytes is always empty: BruteForce carries no state the record
// pool doesn't already have, so it is always rebuilt on restore rather than
// serialized (spec.md §4.8).
func (b *BruteForce) SnapshotBytes() []byte { return nil }

// Restore always reports an unrecognized scheme, which is correct for a
// SchemeTag of 0: callers fall back to replaying OnInsert for every live
// record in ascending ID order, which is exactly how BruteForce rebuilds
// liveIDs anyway.
func (b *BruteForce) Restore(uint32, []byte, Source) error {
	return ErrUnrecognizedScheme
}

// Search scans liveIDs in ascending order, scores each record with L2Sq,
// applies filter, and returns the top-k ordered (score asc, id asc).
func (b *BruteForce) Search(source Source, query vecmath.Vector, k uint32, filter Filter) ([]SearchResult, error) {
	candidates := make([]SearchResult, 0, b.liveIDs.GetCardinality())

	it := b.liveIDs.Iterator()
	for it.HasNext() {
		id := it.Next()

		entry, ok := source.RecordAt(id)
		if !ok || !entry.Live {
			continue
		}

		if filter != nil && !filter(entry) {
			continue
		}

		score := vecmath.L2Sq(query, entry.Vector)
		candidates = append(candidates, SearchResult{Score: score, ID: id})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score < candidates[j].Score
		}

		return candidates[i].ID < candidates[j].ID
	})

	limit := int(k)
	if limit > len(candidates) {
		limit = len(candidates)
	}

	return candidates[:limit], nil
}
