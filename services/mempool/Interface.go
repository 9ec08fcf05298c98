// Package mempool bounds the memory held by unconfirmed transactions with
// a feerate driven admission and eviction policy.
//
// Entries form a dependency DAG through the outpoints they spend. Admission
// enforces ancestor and descendant package limits, a replacement rule for
// conflicting spends and a rolling minimum feerate that eviction raises and
// time decays. When the pool outgrows its byte cap the lowest scored
// package is evicted, descendants and all, and the admission bar moves
// above what was thrown out, so under sustained load the pool tunes its own
// entry price instead of growing without bound.
//
// All mutation happens under one pool mutex. Size, membership and spender
// lookups are served lock free from synced maps and atomics.
package mempool

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/utxonet/chainstate/model"
)

// Interface is the pool surface the daemon and block validation consume.
type Interface interface {
	// Health returns the health status of the pool.
	//
	// Parameters:
	//   - ctx: context for the health check
	//   - checkLiveness: when true only service liveness is verified
	//
	// Returns an HTTP status code, a status message and an error when
	// unhealthy.
	Health(ctx context.Context, checkLiveness bool) (int, string, error)

	// TryAdmit offers a fully validated transaction to the pool.
	//
	// Parameters:
	//   - ctx: context for tracing
	//   - tx: the transaction, inputs extended with the coins they spend
	//   - txFees: fee, size and feerate as resolved by the validator
	//
	// Returns the admission result and, for rejections, a typed error.
	// Rejections are verdicts on the transaction, not failures of the
	// pool; callers relay the reason and keep going.
	TryAdmit(ctx context.Context, tx *bt.Tx, txFees *model.TxFees) (*AdmissionResult, error)

	// RemoveForBlock applies a confirmed block: confirmed entries leave
	// without their descendants, entries conflicting with a confirmed
	// spend leave with them.
	RemoveForBlock(ctx context.Context, blockTxs []*bt.Tx)

	// ReintroduceForReorg returns the transactions of disconnected blocks
	// to the pool, oldest block first.
	ReintroduceForReorg(ctx context.Context, disconnectedTxs []*bt.Tx)

	// EvictExpired removes entries older than the configured expiry and
	// reports how many left the pool.
	EvictExpired(ctx context.Context) int

	// Size returns the number of entries in the pool.
	Size() int

	// Bytes returns the serialized size of all entries in the pool.
	Bytes() uint64

	// Contains reports whether txid is in the pool.
	Contains(txid chainhash.Hash) bool

	// Get returns the entry for txid.
	Get(txid chainhash.Hash) (*Entry, bool)

	// GetRollingMinFee returns the admission bar in satoshis per byte
	// after decay.
	GetRollingMinFee() float64

	// Snapshot returns the entries ordered best score first.
	Snapshot() []*Entry

	// MarkRejected remembers a rejected txid so repeated relay attempts
	// are dropped before validation.
	MarkRejected(txid chainhash.Hash, rejectErr error)

	// SeenRejected reports whether txid was recently rejected.
	SeenRejected(txid chainhash.Hash) bool

	// Subscribe returns a channel of admissions and removals. Subscribers
	// that stop draining lose events rather than blocking the pool.
	Subscribe() <-chan Notification
}

// AdmissionResult reports the outcome of TryAdmit. Rejections carry the
// reason here as well as in the returned error.
type AdmissionResult struct {
	Accepted bool
	TxID     chainhash.Hash

	// RejectReason is the relay-facing reason when Accepted is false.
	RejectReason string

	// Replaced lists the entries removed to make room for this
	// transaction under the replacement rule.
	Replaced []chainhash.Hash

	// Evicted is set when the transaction was admitted and immediately
	// trimmed away again as the lowest package of an overfull pool.
	Evicted bool
}
