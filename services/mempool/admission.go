package mempool

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/model"
	"github.com/utxonet/chainstate/tracing"
)

// TryAdmit offers tx to the pool, called once script and consensus
// validation succeeded. txFees carries the fee and size the validator
// resolved; the pool does not recompute them.
//
// Rejections return a typed error and a result with the reject reason
// filled in. Only argument misuse returns a nil result.
func (m *Mempool) TryAdmit(ctx context.Context, tx *bt.Tx, txFees *model.TxFees) (*AdmissionResult, error) {
	_, _, finish := tracing.Start(ctx, "Mempool:TryAdmit",
		tracing.WithParentStat(m.stats),
		tracing.WithHistogram(prometheusMempoolTryAdmit),
	)
	defer finish()

	if tx == nil || txFees == nil {
		return nil, errors.NewInvalidArgumentError("mempool admission requires a transaction and its fees")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result, err := m.tryAdmitLocked(tx, txFees)
	if err != nil {
		prometheusMempoolRejected.Inc()
		m.MarkRejected(result.TxID, err)
		m.logger.Debugf("[Mempool] rejected %s: %s", result.TxID, result.RejectReason)
	}

	m.updateGauges()

	return result, err
}

func (m *Mempool) tryAdmitLocked(tx *bt.Tx, txFees *model.TxFees) (*AdmissionResult, error) {
	txid := *tx.TxIDChainHash()
	result := &AdmissionResult{TxID: txid}

	if tx.IsCoinbase() {
		result.RejectReason = "coinbase"
		return result, errors.NewTxInvalidError("coinbase %s is never pooled", txid)
	}

	if m.entries.Exists(txid) {
		result.RejectReason = "txn-already-in-mempool"
		return result, errors.NewTxConflictingError("%s is already in the pool", txid)
	}

	// in-pool parents and conflicting spenders, one pass over the inputs
	parents := make(map[chainhash.Hash]*Entry)
	directConflicts := make(map[chainhash.Hash]*Entry)

	for _, input := range tx.Inputs {
		outpoint := model.NewOutpointFromInput(input)

		if parent, ok := m.entries.Get(outpoint.Hash); ok {
			parents[parent.TxID] = parent
		}

		if spender, ok := m.spends.Get(outpoint); ok {
			directConflicts[spender.TxID] = spender
		}
	}

	ancestors := make(map[chainhash.Hash]*Entry, len(parents))
	for _, parent := range parents {
		if _, seen := ancestors[parent.TxID]; seen {
			continue
		}

		ancestors[parent.TxID] = parent
		parent.collectAncestors(ancestors)
	}

	if err := m.checkLimitsLocked(txid, txFees, ancestors); err != nil {
		result.RejectReason = "too-long-mempool-chain"
		return result, err
	}

	if minFee := m.rolling.current(m.usage.Load(), m.settings.Mempool.MaxSizeBytes); txFees.FeeRate < minFee {
		result.RejectReason = "mempool min fee not met"
		return result, errors.NewThresholdExceededError("feerate %.4f of %s is below the rolling minimum %.4f", txFees.FeeRate, txid, minFee)
	}

	if len(directConflicts) > 0 {
		replaced, err := m.checkReplacementLocked(result, txFees, ancestors, directConflicts)
		if err != nil {
			return result, err
		}

		for id := range replaced {
			result.Replaced = append(result.Replaced, id)
		}

		// the substitution is atomic: conflicts leave and the
		// replacement enters under the same lock hold
		m.removeSetLocked(replaced, ReasonReplaced)
		prometheusMempoolReplaced.Add(float64(len(replaced)))
	}

	entry := m.insertLocked(tx, txid, txFees, parents, ancestors)

	prometheusMempoolAdmitted.Inc()
	m.events.publish(Notification{Type: NotificationAdmitted, Entry: entry})

	if m.trimToSizeLocked() && !m.entries.Exists(txid) {
		result.Evicted = true
		result.RejectReason = "mempool full"

		return result, errors.NewMempoolFullError("%s was admitted and immediately evicted as the lowest package", txid)
	}

	result.Accepted = true

	return result, nil
}

// checkLimitsLocked enforces the ancestor and descendant package limits.
func (m *Mempool) checkLimitsLocked(txid chainhash.Hash, txFees *model.TxFees, ancestors map[chainhash.Hash]*Entry) error {
	limits := m.settings.Mempool

	if count := len(ancestors) + 1; count > limits.MaxAncestorCount {
		return errors.NewTxPolicyError("%s would have %d in-pool ancestors, limit %d", txid, count, limits.MaxAncestorCount)
	}

	ancestorSize := txFees.Size
	for _, ancestor := range ancestors {
		ancestorSize += ancestor.Size
	}

	if ancestorSize > limits.MaxAncestorSizeBytes {
		return errors.NewTxPolicyError("%s ancestor package is %d bytes, limit %d", txid, ancestorSize, limits.MaxAncestorSizeBytes)
	}

	for _, ancestor := range ancestors {
		if ancestor.CountWithDescendants+1 > limits.MaxDescendantCount {
			return errors.NewTxPolicyError("%s would give %s %d descendants, limit %d", txid, ancestor.TxID, ancestor.CountWithDescendants+1, limits.MaxDescendantCount)
		}

		if ancestor.SizeWithDescendants+txFees.Size > limits.MaxDescendantSizeBytes {
			return errors.NewTxPolicyError("%s would grow the descendant package of %s to %d bytes, limit %d", txid, ancestor.TxID, ancestor.SizeWithDescendants+txFees.Size, limits.MaxDescendantSizeBytes)
		}
	}

	return nil
}

// checkReplacementLocked applies the replacement rule: the newcomer has to
// beat the feerate of every entry it directly conflicts with and pay for
// everything it displaces. Returns the full removal set, direct conflicts
// plus their descendants.
func (m *Mempool) checkReplacementLocked(result *AdmissionResult, txFees *model.TxFees, ancestors, directConflicts map[chainhash.Hash]*Entry) (map[chainhash.Hash]*Entry, error) {
	conflicts := make(map[chainhash.Hash]*Entry, len(directConflicts))
	for id, conflict := range directConflicts {
		conflicts[id] = conflict
		conflict.collectDescendants(conflicts)
	}

	// a replacement cannot depend on an entry it removes
	for id := range conflicts {
		if _, ok := ancestors[id]; ok {
			result.RejectReason = "bad-txns-spends-conflicting-tx"
			return nil, errors.NewTxConflictingError("replacement %s depends on %s which it would remove", result.TxID, id)
		}
	}

	for _, conflict := range directConflicts {
		if txFees.FeeRate <= conflict.FeeRate {
			result.RejectReason = "insufficient feerate"
			return nil, errors.NewTxConflictingError("replacement %s at %.4f sat/b does not beat %s at %.4f sat/b", result.TxID, txFees.FeeRate, conflict.TxID, conflict.FeeRate)
		}
	}

	var conflictFees uint64
	for _, conflict := range conflicts {
		conflictFees += conflict.Fee
	}

	if txFees.Fee < conflictFees+m.settings.Mempool.ReplacementFeeDelta {
		result.RejectReason = "insufficient fee"
		return nil, errors.NewTxConflictingError("replacement %s pays %d, conflicts pay %d and the bar is %d more", result.TxID, txFees.Fee, conflictFees, m.settings.Mempool.ReplacementFeeDelta)
	}

	return conflicts, nil
}

// insertLocked links the new entry into the DAG and every index. The
// entry's ancestor aggregates and the descendant aggregates of each
// ancestor are settled here.
func (m *Mempool) insertLocked(tx *bt.Tx, txid chainhash.Hash, txFees *model.TxFees, parents, ancestors map[chainhash.Hash]*Entry) *Entry {
	m.sequence++

	entry := &Entry{
		Tx:       tx,
		TxID:     txid,
		Fee:      txFees.Fee,
		Size:     txFees.Size,
		FeeRate:  txFees.FeeRate,
		Sequence: m.sequence,
		Added:    m.clk.Now(),

		CountWithAncestors: 1,
		SizeWithAncestors:  txFees.Size,
		FeeWithAncestors:   txFees.Fee,

		CountWithDescendants: 1,
		SizeWithDescendants:  txFees.Size,
		FeeWithDescendants:   txFees.Fee,

		parents:  parents,
		children: make(map[chainhash.Hash]*Entry),
	}

	for _, parent := range parents {
		parent.children[txid] = entry
	}

	for _, ancestor := range ancestors {
		entry.CountWithAncestors++
		entry.SizeWithAncestors += ancestor.Size
		entry.FeeWithAncestors += ancestor.Fee

		ancestor.CountWithDescendants++
		ancestor.SizeWithDescendants += entry.Size
		ancestor.FeeWithDescendants += entry.Fee
		m.index.reposition(ancestor)
	}

	m.entries.Set(txid, entry)

	for _, input := range tx.Inputs {
		m.spends.Set(model.NewOutpointFromInput(input), entry)
	}

	m.index.insert(entry)
	m.usage.Add(entry.Size)

	return entry
}

// trimToSizeLocked evicts lowest-scored packages until the pool fits its
// byte cap, raising the admission bar above what it threw out. Reports
// whether anything was evicted.
func (m *Mempool) trimToSizeLocked() bool {
	maxBytes := m.settings.Mempool.MaxSizeBytes

	evicted := false

	for m.usage.Load() > maxBytes {
		victim := m.index.lowest()
		if victim == nil {
			break
		}

		m.rolling.bump(victim.DescendantScore() + m.settings.Mempool.IncrementalFeeRate)

		pkg := map[chainhash.Hash]*Entry{victim.TxID: victim}
		victim.collectDescendants(pkg)

		m.removeSetLocked(pkg, ReasonSizeLimit)
		prometheusMempoolEvicted.Add(float64(len(pkg)))

		evicted = true
	}

	return evicted
}
