package mempool

import "sort"

// feerateIndex keeps entries sorted ascending by (descendant score,
// sequence), so items[0] is always the next eviction victim and older
// entries lose ties. Mutated only under the pool mutex.
type feerateIndex struct {
	items []*Entry
}

// searchFor returns the position of the first item at or above the key.
// (score, sequence) is unique per entry, sequence never repeats.
func (idx *feerateIndex) searchFor(score float64, sequence uint64) int {
	return sort.Search(len(idx.items), func(i int) bool {
		item := idx.items[i]
		if item.indexScore != score {
			return item.indexScore > score
		}

		return item.Sequence >= sequence
	})
}

// insert places e by its current descendant score.
func (idx *feerateIndex) insert(e *Entry) {
	e.indexScore = e.DescendantScore()

	pos := idx.searchFor(e.indexScore, e.Sequence)

	idx.items = append(idx.items, nil)
	copy(idx.items[pos+1:], idx.items[pos:])
	idx.items[pos] = e
}

// remove takes e out, searching under the key it was inserted with.
func (idx *feerateIndex) remove(e *Entry) {
	pos := idx.searchFor(e.indexScore, e.Sequence)
	if pos >= len(idx.items) || idx.items[pos] != e {
		return
	}

	idx.items = append(idx.items[:pos], idx.items[pos+1:]...)
}

// reposition re-sorts e after its aggregates changed.
func (idx *feerateIndex) reposition(e *Entry) {
	idx.remove(e)
	idx.insert(e)
}

// lowest returns the entry with the worst score, nil when empty.
func (idx *feerateIndex) lowest() *Entry {
	if len(idx.items) == 0 {
		return nil
	}

	return idx.items[0]
}

// descending returns a fresh slice of the entries, best score first.
func (idx *feerateIndex) descending() []*Entry {
	out := make([]*Entry, len(idx.items))
	for i, e := range idx.items {
		out[len(out)-1-i] = e
	}

	return out
}
