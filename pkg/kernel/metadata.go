package kernel

import "github.com/google/btree"

// metadataStore is the sorted RecordID -> opaque bytes map of spec.md §4.6.
// A btree keeps entries sorted by RecordID without the kernel having to
// re-sort on every snapshot/hash pass the way a plain map would require.
type metadataStore struct {
	tree *btree.BTree
}

type metadataItem struct {
	id    RecordID
	value []byte
}

func (a metadataItem) Less(than btree.Item) bool {
	return a.id < than.(metadataItem).id
}

func newMetadataStore() *metadataStore {
	return &metadataStore{tree: btree.New(32)}
}

// set replaces the metadata blob for id. value must already have been
// validated against MaxMetadataBytes by the caller.
func (m *metadataStore) set(id RecordID, value []byte) {
	owned := make([]byte, len(value))
	copy(owned, value)

	m.tree.ReplaceOrInsert(metadataItem{id: id, value: owned})
}

// get returns the stored blob for id, if any.
func (m *metadataStore) get(id RecordID) ([]byte, bool) {
	item := m.tree.Get(metadataItem{id: id})
	if item == nil {
		return nil, false
	}

	return item.(metadataItem).value, true
}

// delete removes any metadata for id; used when a record is hard-deleted.
func (m *metadataStore) delete(id RecordID) {
	m.tree.Delete(metadataItem{id: id})
}

// iterAscending visits every (RecordID, value) pair in ascending RecordID
// order, for canonicalization.
func (m *metadataStore) iterAscending(fn func(id RecordID, value []byte)) {
	m.tree.Ascend(func(item btree.Item) bool {
		mi := item.(metadataItem)
		fn(mi.id, mi.value)

		return true
	})
}

func (m *metadataStore) len() int { return m.tree.Len() }
