// Package blockvalidation connects and disconnects blocks against the coin
// set. A connect applies every transaction of a block to a child cache layer
// over the long-lived tip view, verifying each one through the shared
// validator and batching all script checks of the block into a single check
// queue batch. Only a fully valid block is flushed into the tip; a failed
// block is discarded without touching it. The coins spent along the way are
// recorded as undo data so a disconnect can put them back in reverse order.
//
// The service owns the tip view's flush policy: when the overlay outgrows
// its byte budget the dirty set is written back to the backing store, and
// Close flushes whatever is left.
package blockvalidation

import (
	"context"

	"github.com/utxonet/chainstate/model"
)

// Interface is the contract of the block validation service.
type Interface interface {
	// Health performs health checks on the service and the store chain
	// under the tip view.
	//
	// Parameters:
	//   - ctx: Context for the health check operation
	//   - checkLiveness: If true, only checks basic liveness
	//
	// Returns:
	//   - int: HTTP status code indicating health status
	//   - string: Detailed health status message
	//   - error: Any errors encountered during health check
	Health(ctx context.Context, checkLiveness bool) (int, string, error)

	// ConnectBlock applies block to the coin set at height. All spends and
	// creates land in a child layer first and reach the tip view in one
	// step when every transaction of the block has passed validation. On
	// success the confirmed transactions are removed from the mempool and
	// the returned undo data lists every coin the block consumed, in spend
	// order.
	//
	// Parameters:
	//   - ctx: Context for the connect operation
	//   - block: The block to connect, coinbase first
	//   - height: The height the block attaches at
	//
	// Returns:
	//   - *model.BlockUndo: The spent coins needed to disconnect the block
	//   - error: Consensus, storage or argument error, nil on success
	ConnectBlock(ctx context.Context, block *model.Block, height uint32) (*model.BlockUndo, error)

	// DisconnectBlock removes a connected block: the coins it created are
	// deleted and the coins it spent are restored from undo, newest first.
	// The block's transactions are handed back to the mempool with their
	// inputs re-extended from the restored coins.
	//
	// Parameters:
	//   - ctx: Context for the disconnect operation
	//   - block: The block to disconnect, with PrevHash set
	//   - undo: The undo data the connect of this block returned
	//
	// Returns:
	//   - error: Inconsistency, storage or argument error, nil on success
	DisconnectBlock(ctx context.Context, block *model.Block, undo *model.BlockUndo) error
}
