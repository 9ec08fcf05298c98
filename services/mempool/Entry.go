package mempool

import (
	"time"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// Entry is one unconfirmed transaction together with the metadata admission
// and eviction decide on. A parent is an in-pool transaction one of whose
// outputs this entry spends; parents and children make the entries a DAG.
//
// The aggregate fields include the entry itself and are settled on every
// admission and removal, so pricing a package never walks the graph.
// Entries handed out by queries are shared, treat them as read only.
type Entry struct {
	Tx       *bt.Tx
	TxID     chainhash.Hash
	Fee      uint64
	Size     uint64
	FeeRate  float64 // satoshis per byte
	Sequence uint64  // admission order, ties in the feerate index break on it
	Added    time.Time

	CountWithAncestors int
	SizeWithAncestors  uint64
	FeeWithAncestors   uint64

	CountWithDescendants int
	SizeWithDescendants  uint64
	FeeWithDescendants   uint64

	parents  map[chainhash.Hash]*Entry
	children map[chainhash.Hash]*Entry

	// indexScore is the key the feerate index holds this entry under.
	// Aggregates drift between repositions; removal must search with the
	// key the entry was inserted with, not a recomputed one.
	indexScore float64
}

// DescendantScore is the eviction metric: the better of the entry's own
// feerate and its with-descendants package feerate. A cheap parent kept
// alive by a generous child is priced as the package.
func (e *Entry) DescendantScore() float64 {
	packageRate := float64(e.FeeWithDescendants) / float64(e.SizeWithDescendants)
	if e.FeeRate > packageRate {
		return e.FeeRate
	}

	return packageRate
}

// collectAncestors adds every in-pool ancestor of e to set, e excluded.
func (e *Entry) collectAncestors(set map[chainhash.Hash]*Entry) {
	for id, parent := range e.parents {
		if _, seen := set[id]; seen {
			continue
		}

		set[id] = parent
		parent.collectAncestors(set)
	}
}

// collectDescendants adds every in-pool descendant of e to set, e excluded.
func (e *Entry) collectDescendants(set map[chainhash.Hash]*Entry) {
	for id, child := range e.children {
		if _, seen := set[id]; seen {
			continue
		}

		set[id] = child
		child.collectDescendants(set)
	}
}
