package kernel

import "github.com/valori-dev/valori/pkg/index"

// newIndex constructs the pluggable index implementation named by kind.
// Only IndexKindBruteForce exists in this repository; external schemes
// extend this switch (spec.md §4.5/§9).
func newIndex(kind IndexKind) (index.Index, error) {
	switch kind {
	case IndexKindBruteForce:
		return index.NewBruteForce(), nil
	default:
		return nil, invariantViolation("unknown index kind")
	}
}

// rebuildIndex replays OnInsert for every live record in ascending ID
// order, which every index implementation must accept as a valid way to
// reconstruct its accelerator state from the authoritative record pool
// (spec.md §4.8: indexes with no recognized persisted scheme rebuild this
// way on restore).
func rebuildIndex(idx index.Index, records *recordPool) {
	records.iterAscending(func(id RecordID, rec Record, ok bool) {
		if !ok || rec.Deleted {
			return
		}

		idx.OnInsert(uint32(id), rec.Vector, rec.Tag, rec.HasTag)
	})
}
