package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexEntry(fee, size, sequence uint64) *Entry {
	return &Entry{
		Fee:      fee,
		Size:     size,
		FeeRate:  float64(fee) / float64(size),
		Sequence: sequence,

		FeeWithDescendants:  fee,
		SizeWithDescendants: size,
	}
}

func TestFeerateIndexOrdering(t *testing.T) {
	idx := &feerateIndex{}

	mid := indexEntry(300, 100, 1)
	low := indexEntry(100, 100, 2)
	high := indexEntry(500, 100, 3)

	idx.insert(mid)
	idx.insert(low)
	idx.insert(high)

	assert.Equal(t, low, idx.lowest())

	descending := idx.descending()
	require.Len(t, descending, 3)
	assert.Equal(t, []*Entry{high, mid, low}, descending)
}

func TestFeerateIndexTieBreaksOnSequence(t *testing.T) {
	idx := &feerateIndex{}

	older := indexEntry(100, 100, 1)
	newer := indexEntry(100, 100, 2)

	idx.insert(newer)
	idx.insert(older)

	assert.Equal(t, older, idx.lowest())
	assert.Equal(t, []*Entry{newer, older}, idx.descending())
}

func TestFeerateIndexReposition(t *testing.T) {
	idx := &feerateIndex{}

	cheap := indexEntry(100, 100, 1)
	rich := indexEntry(500, 100, 2)

	idx.insert(cheap)
	idx.insert(rich)

	require.Equal(t, cheap, idx.lowest())

	// a generous descendant arrives and reprices the cheap entry's package
	cheap.FeeWithDescendants += 10_000
	cheap.SizeWithDescendants += 100
	idx.reposition(cheap)

	assert.Equal(t, rich, idx.lowest())
}

func TestFeerateIndexRemove(t *testing.T) {
	idx := &feerateIndex{}

	a := indexEntry(100, 100, 1)
	b := indexEntry(200, 100, 2)

	idx.insert(a)
	idx.insert(b)

	idx.remove(a)
	assert.Equal(t, b, idx.lowest())
	assert.Len(t, idx.items, 1)

	// removing an entry that was never inserted is a no-op
	idx.remove(indexEntry(300, 100, 3))
	assert.Len(t, idx.items, 1)

	idx.remove(b)
	assert.Nil(t, idx.lowest())
	assert.Empty(t, idx.descending())
}
