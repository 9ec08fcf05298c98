package validator

import (
	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript/interpreter"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/ulogger"
)

// init registers the go-bt script verifier as the "gobt" engine.
func init() {
	TxScriptInterpreterFactory[TxInterpreterGoBT] = newScriptVerifierGoBT
}

// scriptVerifierGoBT runs scripts with the pure Go interpreter from the
// go-bt library. Fork and genesis flags are derived from the chain
// parameters and the height the transaction is validated at.
type scriptVerifierGoBT struct {
	logger   ulogger.Logger
	settings *settings.Settings
}

func newScriptVerifierGoBT(logger ulogger.Logger, tSettings *settings.Settings) TxScriptInterpreter {
	return &scriptVerifierGoBT{
		logger:   logger,
		settings: tSettings,
	}
}

// VerifyScript verifies every input of tx sequentially.
func (v *scriptVerifierGoBT) VerifyScript(tx *bt.Tx, blockHeight uint32, _ []uint32) error {
	for inputIdx := range tx.Inputs {
		if err := v.VerifyInputScript(tx, inputIdx, blockHeight); err != nil {
			return err
		}
	}

	return nil
}

// VerifyInputScript executes the unlocking script of input inputIdx against
// the locking script of the coin it spends. The input must be extended with
// the previous output script and value.
func (v *scriptVerifierGoBT) VerifyInputScript(tx *bt.Tx, inputIdx int, blockHeight uint32) error {
	input := tx.Inputs[inputIdx]

	if input.PreviousTxScript == nil {
		return errors.NewProcessingError("input %d of %s is not extended with its previous output", inputIdx, tx.TxIDChainHash())
	}

	prevOutput := &bt.Output{
		Satoshis:      input.PreviousTxSatoshis,
		LockingScript: input.PreviousTxScript,
	}

	opts := make([]interpreter.ExecutionOptionFunc, 0, 3)
	opts = append(opts, interpreter.WithTx(tx, inputIdx, prevOutput))

	if blockHeight > v.settings.ChainCfgParams.UahfForkHeight {
		opts = append(opts, interpreter.WithForkID())
	}

	if blockHeight > v.settings.ChainCfgParams.GenesisActivationHeight {
		opts = append(opts, interpreter.WithAfterGenesis())
	}

	if err := interpreter.NewEngine().Execute(opts...); err != nil {
		return errors.NewTxInvalidError("script verification failed for input %d of %s", inputIdx, tx.TxIDChainHash(), err)
	}

	return nil
}

// Interpreter returns the engine name.
func (v *scriptVerifierGoBT) Interpreter() TxInterpreter {
	return TxInterpreterGoBT
}
