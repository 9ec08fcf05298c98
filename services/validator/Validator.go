package validator

import (
	"context"
	"net/http"
	"time"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/ordishs/gocore"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/model"
	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/stores/coins"
	"github.com/utxonet/chainstate/tracing"
	"github.com/utxonet/chainstate/ulogger"
	"github.com/utxonet/chainstate/util/checkqueue"
	"github.com/utxonet/chainstate/util/kafka"
	"github.com/utxonet/chainstate/util/smallvec"
)

// ScriptJob is the script verification of one input, sized for the check
// queue. Jobs only read the transaction, so inputs of the same transaction
// can verify on different workers.
type ScriptJob struct {
	verifier    TxScriptInterpreter
	tx          *bt.Tx
	inputIdx    int
	blockHeight uint32
}

// Execute runs the script check.
func (j *ScriptJob) Execute() error {
	return j.verifier.VerifyInputScript(j.tx, j.inputIdx, j.blockHeight)
}

// Validator is the admission service: it resolves inputs against a coins
// view, runs the TxValidator rule set and dispatches script jobs to the
// check queue. One Validator is shared by mempool admission and block
// validation; block validation collects the jobs of a whole block into a
// single batch on the same queue.
type Validator struct {
	logger      ulogger.Logger
	settings    *settings.Settings
	txValidator *TxValidator
	view        CoinsView
	queue       *checkqueue.Queue[*ScriptJob]
	stats       *gocore.Stat

	rejectedTxProducer kafka.AsyncProducerI
}

var _ Interface = (*Validator)(nil)

// ServiceOption configures a Validator at construction.
type ServiceOption func(*Validator)

// WithRejectedTxProducer publishes every rejected transaction id and reason
// to the rejected-tx topic.
func WithRejectedTxProducer(producer kafka.AsyncProducerI) ServiceOption {
	return func(v *Validator) {
		v.rejectedTxProducer = producer
	}
}

// NewValidator wires a validator over view, the default resolution layer
// for input coins. The check queue worker count follows
// validator_checkQueueWorkers; zero selects one worker per CPU.
func NewValidator(logger ulogger.Logger, tSettings *settings.Settings, view CoinsView, opts ...ServiceOption) (*Validator, error) {
	if view == nil {
		return nil, errors.NewInvalidArgumentError("validator requires a coins view")
	}

	initPrometheusMetrics()

	txValidator, err := NewTxValidator(logger, tSettings)
	if err != nil {
		return nil, err
	}

	workers := tSettings.Validator.CheckQueueWorkers
	if workers == 0 {
		workers = -1
	}

	v := &Validator{
		logger:      logger,
		settings:    tSettings,
		txValidator: txValidator,
		view:        view,
		queue:       checkqueue.New[*ScriptJob](logger, workers, tSettings.Validator.CheckQueueBatchSize),
		stats:       gocore.NewStat("validator"),
	}

	for _, opt := range opts {
		opt(v)
	}

	return v, nil
}

// TxValidator exposes the rule set, letting block validation run checks
// without the per-call plumbing of the service.
func (v *Validator) TxValidator() *TxValidator {
	return v.txValidator
}

// Queue exposes the shared check queue so block validation can run one
// batch per block.
func (v *Validator) Queue() *checkqueue.Queue[*ScriptJob] {
	return v.queue
}

// Close stops the check queue workers.
func (v *Validator) Close() {
	v.queue.Close()
}

// Health reports validator health. With checkLiveness only the service
// itself is checked, otherwise the coins view is included.
func (v *Validator) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	prometheusValidatorHealth.Inc()

	if checkLiveness {
		return http.StatusOK, "OK", nil
	}

	if store, ok := v.view.(coins.Store); ok {
		return store.Health(ctx, false)
	}

	return http.StatusOK, "OK", nil
}

// ValidateTransaction runs the full admission pipeline for tx at
// blockHeight. On success the inputs are left extended with the values and
// scripts of the coins they spend.
func (v *Validator) ValidateTransaction(ctx context.Context, tx *bt.Tx, blockHeight uint32, opts ...Option) error {
	ctx, _, finish := tracing.Start(ctx, "Validator:ValidateTransaction",
		tracing.WithParentStat(v.stats),
		tracing.WithHistogram(prometheusValidatorValidateTransaction),
	)
	defer finish()

	validationOptions := ProcessOptions(opts...)

	if err := v.validateTransaction(ctx, tx, blockHeight, validationOptions); err != nil {
		v.rejectTx(tx, blockHeight, err)
		return err
	}

	return nil
}

func (v *Validator) validateTransaction(ctx context.Context, tx *bt.Tx, blockHeight uint32, validationOptions *Options) error {
	if len(tx.Inputs) == 0 || len(tx.Outputs) == 0 {
		return errors.NewTxInvalidError("transaction has no inputs or outputs")
	}

	prometheusValidatorTransactionSize.Observe(float64(tx.Size()))

	if tx.IsCoinbase() {
		if !validationOptions.AllowCoinbase {
			return errors.NewTxInvalidError("coinbase transaction %s is only valid in a block", tx.TxIDChainHash())
		}

		// Coinbase inputs resolve no coins and run no scripts.
		return v.txValidator.checkOutputs(tx, blockHeight, validationOptions)
	}

	view := v.view
	if validationOptions.View != nil {
		view = validationOptions.View
	}

	spentCoins, err := v.resolveInputs(ctx, view, tx)
	if err != nil {
		return err
	}

	if err := v.txValidator.ValidateTransaction(tx, blockHeight, spentCoins, validationOptions); err != nil {
		return err
	}

	if validationOptions.SkipScriptChecks {
		return nil
	}

	return v.verifyScripts(tx, blockHeight, validationOptions)
}

// resolveInputs looks up the coin each input spends and extends the input
// with the previous script and value for script execution. A lookup miss is
// a missing parent, every other store failure propagates as is.
func (v *Validator) resolveInputs(ctx context.Context, view CoinsView, tx *bt.Tx) ([]*model.Coin, error) {
	start := gocore.CurrentNanos()
	defer func() {
		prometheusValidatorResolveInputs.Observe(time.Duration(gocore.CurrentNanos() - start).Seconds())
	}()

	var spentCoins smallvec.Vec[*model.Coin]

	for index, input := range tx.Inputs {
		outpoint := model.NewOutpointFromInput(input)

		coin, err := view.Get(ctx, outpoint)
		if err != nil {
			if errors.Is(err, errors.ErrUtxoNotFound) {
				return nil, errors.NewTxMissingParentError("input %d of %s spends unknown coin %s", index, tx.TxIDChainHash(), outpoint, err)
			}

			return nil, err
		}

		input.PreviousTxSatoshis = coin.Value
		input.PreviousTxScript = coin.Script

		spentCoins.Push(coin)
	}

	return spentCoins.Slice(), nil
}

// verifyScripts dispatches one job per input. Without a caller-owned
// control the batch is joined here; with one the caller joins it, typically
// once per block.
func (v *Validator) verifyScripts(tx *bt.Tx, blockHeight uint32, validationOptions *Options) error {
	var jobs smallvec.Vec[*ScriptJob]

	verifier := v.txValidator.ScriptInterpreter()

	for inputIdx := range tx.Inputs {
		jobs.Push(&ScriptJob{
			verifier:    verifier,
			tx:          tx,
			inputIdx:    inputIdx,
			blockHeight: blockHeight,
		})
	}

	if validationOptions.ScriptControl != nil {
		validationOptions.ScriptControl.Add(jobs.Slice())
		return nil
	}

	start := gocore.CurrentNanos()

	control := v.queue.Control()
	control.Add(jobs.Slice())

	err := control.Wait()

	prometheusValidatorVerifyScripts.Observe(time.Duration(gocore.CurrentNanos() - start).Seconds())

	return err
}

// rejectTx records a rejection and, when a producer is configured,
// publishes it to the rejected-tx topic. Store and internal failures are
// not verdicts on the transaction and are not published.
func (v *Validator) rejectTx(tx *bt.Tx, blockHeight uint32, rejectErr error) {
	if !errors.IsConsensusError(rejectErr) {
		return
	}

	prometheusValidatorInvalidTransactions.Inc()

	if v.settings.Validator.VerboseDebug {
		v.logger.Debugf("[Validator] rejected %s at height %d: %v", tx.TxIDChainHash(), blockHeight, rejectErr)
	}

	if v.rejectedTxProducer == nil {
		return
	}

	data := &RejectedTxData{
		TxID:   *tx.TxIDChainHash(),
		Height: blockHeight,
		Reason: rejectErr.Error(),
	}

	v.rejectedTxProducer.Publish(&kafka.Message{
		Key:   tx.TxIDChainHash().CloneBytes(),
		Value: data.Bytes(),
	})
}
