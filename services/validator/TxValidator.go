package validator

import (
	"encoding/binary"
	"time"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/bscript/interpreter"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/model"
	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/ulogger"
)

const (
	// MaxSatoshis is the total number of satoshis that can ever exist. No
	// single value, input total or output total may exceed it.
	MaxSatoshis = 21_000_000 * 100_000_000

	// DustLimit is the smallest spendable output value relay policy
	// accepts after genesis activation.
	DustLimit = 546

	// MaxBlockSize bounds a transaction when no size policy is configured.
	MaxBlockSize = 4 * 1024 * 1024 * 1024

	// maxTxSigopsCountAfterGenesis is the sigops ceiling applied when the
	// policy limit is unset or policy checks are skipped.
	maxTxSigopsCountAfterGenesis = int64(4_294_967_295)

	// coinbaseTxID is the null hash a coinbase input points at.
	coinbaseTxID = "0000000000000000000000000000000000000000000000000000000000000000"

	// lockTimeThreshold splits nLockTime into block-height values below it
	// and unix-time values above it.
	lockTimeThreshold = 500_000_000

	// finalSequence marks an input that opts out of locktime enforcement.
	finalSequence = 0xffffffff
)

// TxInterpreter names a script verification engine.
type TxInterpreter string

const (
	// TxInterpreterGoBT runs scripts with the pure Go interpreter from
	// the go-bt library.
	TxInterpreterGoBT TxInterpreter = "gobt"

	// TxInterpreterMock passes or fails scripts under test control.
	TxInterpreterMock TxInterpreter = "mock"
)

// TxScriptInterpreter runs unlocking scripts against the locking scripts of
// the coins a transaction spends. Implementations are stateless and safe
// for concurrent use.
type TxScriptInterpreter interface {
	// VerifyScript verifies every input of tx. Inputs must be extended
	// with the previous output script and value before the call.
	VerifyScript(tx *bt.Tx, blockHeight uint32, utxoHeights []uint32) error

	// VerifyInputScript verifies a single input, the unit of work a check
	// queue job carries.
	VerifyInputScript(tx *bt.Tx, inputIdx int, blockHeight uint32) error

	// Interpreter returns the engine name.
	Interpreter() TxInterpreter
}

// TxScriptInterpreterCreator builds a script interpreter for a settings set.
type TxScriptInterpreterCreator func(logger ulogger.Logger, tSettings *settings.Settings) TxScriptInterpreter

// TxScriptInterpreterFactory holds the registered engine constructors,
// keyed by the name the validator_scriptInterpreter setting selects.
// Engines register themselves in init.
var TxScriptInterpreterFactory = make(map[TxInterpreter]TxScriptInterpreterCreator)

// TxValidator enforces the per-transaction consensus and policy rules that
// need no store access once the spent coins are resolved: structure, sizes,
// value ranges, locktime finality, coinbase maturity, fees and sigop
// counts. Script execution is delegated to the configured
// TxScriptInterpreter.
type TxValidator struct {
	logger      ulogger.Logger
	settings    *settings.Settings
	interpreter TxScriptInterpreter
}

// NewTxValidator builds a TxValidator with the engine selected by
// settings.Validator.ScriptInterpreter.
func NewTxValidator(logger ulogger.Logger, tSettings *settings.Settings) (*TxValidator, error) {
	name := TxInterpreter(tSettings.Validator.ScriptInterpreter)

	create, ok := TxScriptInterpreterFactory[name]
	if !ok {
		return nil, errors.NewConfigurationError("unknown script interpreter %q", name)
	}

	return &TxValidator{
		logger:      logger,
		settings:    tSettings,
		interpreter: create(logger, tSettings),
	}, nil
}

// ScriptInterpreter returns the engine in use.
func (tv *TxValidator) ScriptInterpreter() TxScriptInterpreter {
	return tv.interpreter
}

// ValidateTransaction runs every non-script check against tx. spentCoins
// carries the resolved coin for each input, in input order.
func (tv *TxValidator) ValidateTransaction(tx *bt.Tx, blockHeight uint32, spentCoins []*model.Coin, validationOptions *Options) error {
	// 1) neither the list of inputs nor the list of outputs is empty
	if len(tx.Inputs) == 0 || len(tx.Outputs) == 0 {
		return errors.NewTxInvalidError("transaction has no inputs or outputs")
	}

	if len(spentCoins) != len(tx.Inputs) {
		return errors.NewProcessingError("resolved %d coins for %d inputs of %s", len(spentCoins), len(tx.Inputs), tx.TxIDChainHash())
	}

	// 2) the transaction size in bytes is within the size policy
	if !validationOptions.SkipPolicyChecks {
		if err := tv.checkTxSize(tx.Size()); err != nil {
			return err
		}
	}

	// 3) no duplicate inputs, no coinbase-shaped inputs, and each input
	//    value as well as the input total is in range
	if err := tv.checkInputs(tx, spentCoins); err != nil {
		return err
	}

	// 4) each output value as well as the output total is in range, and
	//    spendable outputs clear the dust floor after genesis
	if err := tv.checkOutputs(tx, blockHeight, validationOptions); err != nil {
		return err
	}

	// 5) nLockTime is satisfied at blockHeight or every input is final
	if err := tv.checkLockTime(tx, blockHeight); err != nil {
		return err
	}

	// 6) spent coinbase coins are mature at blockHeight
	if err := tv.checkCoinbaseMaturity(tx, blockHeight, spentCoins); err != nil {
		return err
	}

	// 7) the output total does not exceed the input total
	if err := tv.checkFees(tx, spentCoins); err != nil {
		return err
	}

	// 8) the number of signature operations is within the policy limit
	if err := tv.sigOpsCheck(tx, spentCoins, validationOptions); err != nil {
		return err
	}

	// 9) unlocking scripts only push data on the stack, enforced after the
	//    UAHF fork
	if blockHeight > tv.settings.ChainCfgParams.UahfForkHeight {
		if err := tv.pushDataCheck(tx); err != nil {
			return err
		}
	}

	return nil
}

// ValidateTransactionScripts verifies every input script in one call,
// outside the check queue. Callers that batch dispatch jobs instead.
func (tv *TxValidator) ValidateTransactionScripts(tx *bt.Tx, blockHeight uint32, utxoHeights []uint32) error {
	if tv.interpreter == nil {
		return errors.NewServiceError("no script interpreter configured, registered engines: %v", TxScriptInterpreterFactory)
	}

	return tv.interpreter.VerifyScript(tx, blockHeight, utxoHeights)
}

func (tv *TxValidator) checkTxSize(txSize int) error {
	maxSize := tv.settings.Validator.MaxTxSizePolicy
	if maxSize == 0 {
		maxSize = MaxBlockSize
	}

	if txSize > maxSize {
		return errors.NewTxPolicyError("transaction size %d exceeds policy limit %d", txSize, maxSize)
	}

	return nil
}

func (tv *TxValidator) checkInputs(tx *bt.Tx, spentCoins []*model.Coin) error {
	// fixed-size key, 32 byte txid plus 4 byte output index
	seenInputs := make(map[[36]byte]struct{}, len(tx.Inputs))

	total := uint64(0)

	for index, input := range tx.Inputs {
		var key [36]byte

		copy(key[:32], input.PreviousTxID())
		binary.BigEndian.PutUint32(key[32:], input.PreviousTxOutIndex)

		if _, exists := seenInputs[key]; exists {
			return errors.NewTxInvalidError("duplicate input at index %d", index)
		}

		seenInputs[key] = struct{}{}

		if input.PreviousTxIDStr() == coinbaseTxID {
			return errors.NewTxInvalidError("input %d spends the null outpoint", index)
		}

		value := spentCoins[index].Value
		if value > MaxSatoshis {
			return errors.NewTxInvalidError("input %d value is out of range", index)
		}

		total += value
		if total > MaxSatoshis {
			return errors.NewTxInvalidError("transaction input total is out of range")
		}
	}

	return nil
}

func (tv *TxValidator) checkOutputs(tx *bt.Tx, blockHeight uint32, validationOptions *Options) error {
	dustApplies := !validationOptions.SkipPolicyChecks &&
		!tv.settings.Validator.AcceptNonStdOutputs &&
		blockHeight > tv.settings.ChainCfgParams.GenesisActivationHeight

	maxScriptSize := tv.settings.Validator.MaxScriptSizePolicy

	total := uint64(0)

	for index, output := range tx.Outputs {
		if output.Satoshis > MaxSatoshis {
			return errors.NewTxInvalidError("output %d value is out of range", index)
		}

		if dustApplies && output.Satoshis < DustLimit && !isUnspendableOutput(output.LockingScript) {
			return errors.NewTxPolicyError("output %d pays %d satoshis, below the dust limit %d", index, output.Satoshis, DustLimit)
		}

		if !validationOptions.SkipPolicyChecks && maxScriptSize > 0 && output.LockingScript != nil && len(*output.LockingScript) > maxScriptSize {
			return errors.NewTxPolicyError("output %d locking script exceeds %d bytes", index, maxScriptSize)
		}

		total += output.Satoshis
		if total > MaxSatoshis {
			return errors.NewTxInvalidError("transaction output total is out of range")
		}
	}

	return nil
}

// checkLockTime enforces finality at blockHeight: a transaction is final
// when nLockTime is zero, already satisfied (by blockHeight for height
// locktimes, by wall time for unix-time locktimes), or when every input
// carries the final sequence number.
func (tv *TxValidator) checkLockTime(tx *bt.Tx, blockHeight uint32) error {
	if tx.LockTime == 0 {
		return nil
	}

	threshold := uint64(blockHeight)
	if tx.LockTime >= lockTimeThreshold {
		threshold = uint64(time.Now().Unix())
	}

	if uint64(tx.LockTime) < threshold {
		return nil
	}

	for index, input := range tx.Inputs {
		if input.SequenceNumber != finalSequence {
			return errors.NewTxLockTimeError("transaction locktime %d is not final at height %d, input %d is not final", tx.LockTime, blockHeight, index)
		}
	}

	return nil
}

func (tv *TxValidator) checkCoinbaseMaturity(tx *bt.Tx, blockHeight uint32, spentCoins []*model.Coin) error {
	maturity := uint32(tv.settings.ChainCfgParams.CoinbaseMaturity)

	for index, coin := range spentCoins {
		if !coin.IsSpendableAt(blockHeight, maturity) {
			return errors.NewTxCoinbaseImmatureError("input %d spends coinbase %s created at height %d, not mature at %d",
				index, tx.Inputs[index].PreviousTxIDStr(), coin.Height, blockHeight)
		}
	}

	return nil
}

// checkFees rejects transactions whose outputs exceed their inputs. Relay
// fee floors are mempool policy, enforced at admission time.
func (tv *TxValidator) checkFees(tx *bt.Tx, spentCoins []*model.Coin) error {
	totalIn := uint64(0)
	for _, coin := range spentCoins {
		totalIn += coin.Value
	}

	if _, err := model.ComputeTxFees(tx, totalIn); err != nil {
		return err
	}

	return nil
}

func (tv *TxValidator) sigOpsCheck(tx *bt.Tx, spentCoins []*model.Coin, validationOptions *Options) error {
	maxSigOps := tv.settings.Validator.MaxTxSigopsCount
	if maxSigOps == 0 || validationOptions.SkipPolicyChecks {
		maxSigOps = maxTxSigopsCountAfterGenesis
	}

	numSigOps := int64(0)

	countSigOps := func(script *bscript.Script) error {
		if script == nil {
			return nil
		}

		parser := interpreter.DefaultOpcodeParser{}

		parsedScript, err := parser.Parse(script)
		if err != nil {
			return errors.NewTxInvalidError("script does not parse", err)
		}

		for _, op := range parsedScript {
			if op.Value() == bscript.OpCHECKSIG || op.Value() == bscript.OpCHECKSIGVERIFY {
				numSigOps++
				if numSigOps > maxSigOps {
					return errors.NewTxPolicyError("transaction has too many sigops (%d > %d)", numSigOps, maxSigOps)
				}
			}
		}

		return nil
	}

	for index, input := range tx.Inputs {
		if err := countSigOps(input.UnlockingScript); err != nil {
			return err
		}

		if err := countSigOps(spentCoins[index].Script); err != nil {
			return err
		}
	}

	return nil
}

func (tv *TxValidator) pushDataCheck(tx *bt.Tx) error {
	for index, input := range tx.Inputs {
		if input.UnlockingScript == nil {
			return errors.NewTxInvalidError("input %d unlocking script is empty", index)
		}

		parser := interpreter.DefaultOpcodeParser{}

		parsedScript, err := parser.Parse(input.UnlockingScript)
		if err != nil {
			return errors.NewTxInvalidError("input %d unlocking script does not parse", index, err)
		}

		if !parsedScript.IsPushOnly() {
			return errors.NewTxInvalidError("input %d unlocking script is not push only", index)
		}
	}

	return nil
}

// isUnspendableOutput reports whether a locking script is provably
// unspendable, an OP_FALSE OP_RETURN prefix.
func isUnspendableOutput(script *bscript.Script) bool {
	if script == nil {
		return false
	}

	scriptBytes := *script

	return len(scriptBytes) >= 2 && scriptBytes[0] == 0x00 && scriptBytes[1] == 0x6a
}
