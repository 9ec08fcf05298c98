// Package validator implements transaction admission checks: structural and
// value sanity, policy limits, input resolution against a coins view, and
// script verification through a shared check queue.
//
// The script engine is pluggable. Engines register themselves with
// TxScriptInterpreterFactory at init time and are selected by the
// validator_scriptInterpreter setting: "gobt" runs the go-bt interpreter,
// "mock" is a scriptable stand-in for tests.
package validator

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2"

	"github.com/utxonet/chainstate/model"
)

// CoinsView resolves outpoints to coins. Both coins.Store and
// cachedstore.CachedStore satisfy it, so callers choose which layer a
// validation run reads from.
type CoinsView interface {
	Get(ctx context.Context, outpoint model.Outpoint) (*model.Coin, error)
}

// Interface is the contract of the validator service.
type Interface interface {
	// Health performs health checks on the validator and its coins view.
	// Parameters:
	//   - ctx: Context for the health check operation
	//   - checkLiveness: If true, only checks basic liveness
	// Returns:
	//   - int: HTTP status code indicating health status
	//   - string: Detailed health status message
	//   - error: Any errors encountered during health check
	Health(ctx context.Context, checkLiveness bool) (int, string, error)

	// ValidateTransaction runs the full admission pipeline against tx at
	// blockHeight. A nil return means the transaction passed every
	// consensus, policy and script check. On success the transaction's
	// inputs are left extended with the values and scripts of the coins
	// they spend, so callers can derive fees without another store read.
	//
	// Parameters:
	//   - ctx: Context for the validation operation
	//   - tx: The transaction to validate
	//   - blockHeight: The height the transaction would confirm at
	//   - opts: Optional validation options to customize behavior
	// Returns:
	//   - error: Specific validation error with reason, nil on success
	ValidateTransaction(ctx context.Context, tx *bt.Tx, blockHeight uint32, opts ...Option) error
}
