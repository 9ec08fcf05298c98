package validator

import (
	"github.com/bsv-blockchain/go-bt/v2"

	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/ulogger"
)

// MockVerifyFn, when set, decides the outcome of every mock script
// verification. Tests inject failures with it the same way the daemon
// injects an external signature verifier into the real engine. Nil means
// every script passes.
var MockVerifyFn func(tx *bt.Tx, inputIdx int, blockHeight uint32) error

// init registers the mock verifier as the "mock" engine.
func init() {
	TxScriptInterpreterFactory[TxInterpreterMock] = newScriptVerifierMock
}

// scriptVerifierMock skips real script execution. It backs tests and
// benchmark rigs where the scripts are not the subject.
type scriptVerifierMock struct {
	logger ulogger.Logger
}

func newScriptVerifierMock(logger ulogger.Logger, _ *settings.Settings) TxScriptInterpreter {
	return &scriptVerifierMock{logger: logger}
}

func (v *scriptVerifierMock) VerifyScript(tx *bt.Tx, blockHeight uint32, _ []uint32) error {
	for inputIdx := range tx.Inputs {
		if err := v.VerifyInputScript(tx, inputIdx, blockHeight); err != nil {
			return err
		}
	}

	return nil
}

func (v *scriptVerifierMock) VerifyInputScript(tx *bt.Tx, inputIdx int, blockHeight uint32) error {
	if MockVerifyFn != nil {
		return MockVerifyFn(tx, inputIdx, blockHeight)
	}

	return nil
}

func (v *scriptVerifierMock) Interpreter() TxInterpreter {
	return TxInterpreterMock
}
