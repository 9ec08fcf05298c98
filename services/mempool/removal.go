package mempool

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/utxonet/chainstate/model"
	"github.com/utxonet/chainstate/tracing"
)

// removeSetLocked removes a set of entries and notifies each one. The
// caller decides the cascade: eviction and conflict removal pass a set
// closed over descendants, block confirmation passes single entries whose
// descendants stay behind. Survivors on either side of the set have their
// aggregates settled before anything is unlinked.
func (m *Mempool) removeSetLocked(set map[chainhash.Hash]*Entry, reason RemovalReason) {
	for _, removed := range set {
		ancestors := make(map[chainhash.Hash]*Entry)
		removed.collectAncestors(ancestors)

		for id, ancestor := range ancestors {
			if _, gone := set[id]; gone {
				continue
			}

			ancestor.CountWithDescendants--
			ancestor.SizeWithDescendants -= removed.Size
			ancestor.FeeWithDescendants -= removed.Fee
			m.index.reposition(ancestor)
		}

		descendants := make(map[chainhash.Hash]*Entry)
		removed.collectDescendants(descendants)

		for id, descendant := range descendants {
			if _, gone := set[id]; gone {
				continue
			}

			descendant.CountWithAncestors--
			descendant.SizeWithAncestors -= removed.Size
			descendant.FeeWithAncestors -= removed.Fee
		}
	}

	for _, removed := range set {
		for id, parent := range removed.parents {
			if _, gone := set[id]; gone {
				continue
			}

			delete(parent.children, removed.TxID)
		}

		for id, child := range removed.children {
			if _, gone := set[id]; gone {
				continue
			}

			delete(child.parents, removed.TxID)
		}

		m.entries.Delete(removed.TxID)

		for _, input := range removed.Tx.Inputs {
			m.spends.Delete(model.NewOutpointFromInput(input))
		}

		m.index.remove(removed)
		m.usage.Sub(removed.Size)

		m.events.publish(Notification{Type: NotificationRemoved, Entry: removed, Reason: reason})
	}
}

// removeConflictsOfLocked removes every entry spending one of tx's inputs,
// with its descendants.
func (m *Mempool) removeConflictsOfLocked(tx *bt.Tx, reason RemovalReason) {
	for _, input := range tx.Inputs {
		spender, ok := m.spends.Get(model.NewOutpointFromInput(input))
		if !ok {
			continue
		}

		set := map[chainhash.Hash]*Entry{spender.TxID: spender}
		spender.collectDescendants(set)

		m.removeSetLocked(set, reason)
	}
}

// RemoveForBlock applies a confirmed block to the pool. Confirmed entries
// leave without touching their descendants, which now spend confirmed
// outputs; entries double-spending a confirmed input leave with their
// descendants. Policy rejections are forgotten, the climate they were
// judged under is gone with the new block.
func (m *Mempool) RemoveForBlock(ctx context.Context, blockTxs []*bt.Tx) {
	_, _, finish := tracing.Start(ctx, "Mempool:RemoveForBlock", tracing.WithParentStat(m.stats))
	defer finish()

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tx := range blockTxs {
		if tx == nil {
			continue
		}

		if entry, ok := m.entries.Get(*tx.TxIDChainHash()); ok {
			m.removeSetLocked(map[chainhash.Hash]*Entry{entry.TxID: entry}, ReasonBlock)
		}

		if tx.IsCoinbase() {
			continue
		}

		m.removeConflictsOfLocked(tx, ReasonConflict)
	}

	m.policyRejects.Reset()
	m.updateGauges()
}

// ReintroduceForReorg returns the transactions of disconnected blocks to
// the pool, oldest block first so parents precede children. Coinbase
// transactions stay out, anything failing admission is skipped and the rest
// of the batch continues. Inputs must be extended; disconnect restores them
// from undo data.
func (m *Mempool) ReintroduceForReorg(ctx context.Context, disconnectedTxs []*bt.Tx) {
	_, _, finish := tracing.Start(ctx, "Mempool:ReintroduceForReorg", tracing.WithParentStat(m.stats))
	defer finish()

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tx := range disconnectedTxs {
		if tx == nil || tx.IsCoinbase() {
			continue
		}

		// the once-confirmed spend outranks whatever was pooled against
		// it in the meantime
		m.removeConflictsOfLocked(tx, ReasonReorg)

		txFees, err := model.ComputeTxFees(tx, tx.TotalInputSatoshis())
		if err != nil {
			m.logger.Warnf("[Mempool] not reintroducing %s: %v", tx.TxIDChainHash(), err)
			continue
		}

		if _, err := m.tryAdmitLocked(tx, txFees); err != nil {
			m.logger.Debugf("[Mempool] not reintroducing %s: %v", tx.TxIDChainHash(), err)
		}
	}

	m.updateGauges()
}

// EvictExpired removes entries older than the configured expiry, with their
// descendants, and reports how many entries left the pool.
func (m *Mempool) EvictExpired(ctx context.Context) int {
	_, _, finish := tracing.Start(ctx, "Mempool:EvictExpired", tracing.WithParentStat(m.stats))
	defer finish()

	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.clk.Now().Add(-m.settings.Mempool.EntryExpiry)

	stale := make(map[chainhash.Hash]*Entry)

	for _, entry := range m.index.items {
		if _, seen := stale[entry.TxID]; seen {
			continue
		}

		if entry.Added.Before(cutoff) {
			stale[entry.TxID] = entry
			entry.collectDescendants(stale)
		}
	}

	if len(stale) == 0 {
		return 0
	}

	m.removeSetLocked(stale, ReasonExpiry)
	prometheusMempoolExpired.Add(float64(len(stale)))
	m.updateGauges()

	return len(stale)
}
