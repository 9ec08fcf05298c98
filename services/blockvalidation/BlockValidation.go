package blockvalidation

import (
	"context"
	"net/http"
	"sync"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	"github.com/jellydator/ttlcache/v3"
	"github.com/ordishs/gocore"
	"golang.org/x/sync/errgroup"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/model"
	"github.com/utxonet/chainstate/services/mempool"
	"github.com/utxonet/chainstate/services/validator"
	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/stores/cachedstore"
	"github.com/utxonet/chainstate/stores/coins"
	"github.com/utxonet/chainstate/tracing"
	"github.com/utxonet/chainstate/ulogger"
	"github.com/utxonet/chainstate/util"
	"github.com/utxonet/chainstate/util/checkqueue"
	"github.com/utxonet/chainstate/util/kafka"
)

// initialBlockSubsidy is the coinbase reward before the first halving, in
// satoshis.
const initialBlockSubsidy = 50 * 100_000_000

// BlockValidator connects and disconnects blocks. One mutex serializes all
// coin set mutation, so the tip view only ever sees whole blocks.
type BlockValidator struct {
	logger    ulogger.Logger
	settings  *settings.Settings
	validator *validator.Validator
	tip       *cachedstore.CachedStore
	mempool   mempool.Interface
	stats     *gocore.Stat

	mu sync.Mutex

	// recently processed block hashes, so repeated delivery of the same
	// block from several peers short-circuits before touching the stores
	recentBlocks *ttlcache.Cache[chainhash.Hash, bool]

	blockEventsProducer kafka.AsyncProducerI
}

var _ Interface = (*BlockValidator)(nil)

// ServiceOption configures a BlockValidator at construction.
type ServiceOption func(*BlockValidator)

// WithMempool couples the pool to the chain: connected blocks remove their
// transactions from it, disconnected blocks hand them back.
func WithMempool(pool mempool.Interface) ServiceOption {
	return func(bv *BlockValidator) {
		bv.mempool = pool
	}
}

// WithBlockEventsProducer publishes connects and disconnects to the block
// events topic.
func WithBlockEventsProducer(producer kafka.AsyncProducerI) ServiceOption {
	return func(bv *BlockValidator) {
		bv.blockEventsProducer = producer
	}
}

// New wires a block validator over the shared transaction validator and the
// tip view. The tip's parent chain stays owned by the caller; Close flushes
// the tip but closes nothing below it.
func New(logger ulogger.Logger, tSettings *settings.Settings, v *validator.Validator, tip *cachedstore.CachedStore, opts ...ServiceOption) (*BlockValidator, error) {
	if v == nil || tip == nil {
		return nil, errors.NewInvalidArgumentError("block validation requires a validator and a tip view")
	}

	initPrometheusMetrics()

	bv := &BlockValidator{
		logger:       logger,
		settings:     tSettings,
		validator:    v,
		tip:          tip,
		stats:        gocore.NewStat("blockvalidation"),
		recentBlocks: ttlcache.New[chainhash.Hash, bool](),
	}

	for _, opt := range opts {
		opt(bv)
	}

	go bv.recentBlocks.Start()

	return bv, nil
}

// Close stops the dedup janitor and flushes the tip view. The backing store
// stays open, it is owned by whoever built the layer stack.
func (bv *BlockValidator) Close(ctx context.Context) error {
	bv.recentBlocks.Stop()

	bv.mu.Lock()
	defer bv.mu.Unlock()

	return bv.tip.Flush(ctx)
}

// Health reports service health. With checkLiveness only the service itself
// is checked, otherwise the store chain under the tip view is included.
func (bv *BlockValidator) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	prometheusBlockValidationHealth.Inc()

	if checkLiveness {
		return http.StatusOK, "OK", nil
	}

	return bv.tip.Health(ctx, false)
}

// ConnectBlock applies block at height. Every transaction is validated with
// policy checks off and its script checks batched on the shared queue; the
// spends and creates land in a child layer that reaches the tip view only
// when the whole block has passed. The returned undo data lists every coin
// the block spent, in spend order.
func (bv *BlockValidator) ConnectBlock(ctx context.Context, block *model.Block, height uint32) (*model.BlockUndo, error) {
	ctx, _, finish := tracing.Start(ctx, "BlockValidation:ConnectBlock",
		tracing.WithParentStat(bv.stats),
		tracing.WithHistogram(prometheusBlockValidationConnectBlock),
	)
	defer finish()

	if block == nil || len(block.Txs) == 0 {
		return nil, errors.NewBlockInvalidError("block has no transactions")
	}

	if !block.CoinbaseTx().IsCoinbase() {
		return nil, errors.NewBlockInvalidError("block %s does not start with a coinbase", block.Hash)
	}

	for txIndex, tx := range block.Txs[1:] {
		if tx.IsCoinbase() {
			return nil, errors.NewBlockInvalidError("block %s has a second coinbase at index %d", block.Hash, txIndex+1)
		}
	}

	if bv.recentBlocks.Get(block.Hash) != nil {
		prometheusBlockValidationDuplicateBlocks.Inc()
		return nil, errors.NewBlockExistsError("block %s was already processed", block.Hash)
	}

	bv.mu.Lock()
	defer bv.mu.Unlock()

	// the check above ran without the lock, another connect may have won
	if bv.recentBlocks.Get(block.Hash) != nil {
		prometheusBlockValidationDuplicateBlocks.Inc()
		return nil, errors.NewBlockExistsError("block %s was already processed", block.Hash)
	}

	bv.recentBlocks.Set(block.Hash, true, bv.settings.Block.RecentBlocksTTL)

	if err := bv.checkAttachment(ctx, block, height); err != nil {
		bv.recentBlocks.Delete(block.Hash)
		return nil, err
	}

	child := cachedstore.New(bv.logger, bv.tip)

	if err := bv.prefetchInputs(ctx, child, block); err != nil {
		bv.recentBlocks.Delete(block.Hash)
		_ = child.Close()

		return nil, err
	}

	// one script batch for the whole block, joined below
	control := bv.validator.Queue().Control()

	undo, blockFees, applyErr := bv.applyTransactions(ctx, child, block, height, control)

	scriptErr := control.Wait()

	if applyErr == nil && scriptErr != nil {
		applyErr = errors.NewBlockInvalidError("block %s failed script verification", block.Hash, scriptErr)
	}

	if applyErr == nil {
		applyErr = bv.checkCoinbaseValue(block, height, blockFees)
	}

	if applyErr != nil {
		bv.recentBlocks.Delete(block.Hash)
		_ = child.Close()

		if errors.IsConsensusError(applyErr) {
			prometheusBlockValidationInvalidBlocks.Inc()
			bv.logger.Warnf("[BlockValidation] rejected block %s at height %d: %v", block.Hash, height, applyErr)
		}

		return nil, applyErr
	}

	child.SetBestBlock(&coins.BestBlock{Hash: block.Hash, Height: height})

	if err := child.Flush(ctx); err != nil {
		bv.recentBlocks.Delete(block.Hash)
		_ = child.Close()

		return nil, err
	}

	if bv.mempool != nil {
		bv.mempool.RemoveForBlock(ctx, block.Txs)
	}

	bv.publishBlockEvent(BlockEventConnected, block, height)

	prometheusBlockValidationConnectedBlocks.Inc()
	prometheusBlockValidationConnectedTransactions.Add(float64(len(block.Txs)))

	bv.logger.Infof("[BlockValidation] connected block %s at height %d, %d transactions, %d coins spent",
		block.Hash, height, len(block.Txs), len(undo.Spent))

	bv.flushTipIfOversized(ctx)

	return undo, nil
}

// checkAttachment verifies the block extends the stored coin state. An empty
// store accepts any starting point, which is how tests and snapshot loads
// begin a chain.
func (bv *BlockValidator) checkAttachment(ctx context.Context, block *model.Block, height uint32) error {
	best, err := bv.tip.GetBestBlock(ctx)
	if err != nil {
		return err
	}

	if best == nil {
		return nil
	}

	if best.Hash == block.Hash {
		return errors.NewBlockExistsError("block %s is already the best block", block.Hash)
	}

	if height != best.Height+1 {
		return errors.NewBlockInvalidError("block %s connects at height %d, the coin set is at height %d", block.Hash, height, best.Height)
	}

	if block.PrevHash != (chainhash.Hash{}) && block.PrevHash != best.Hash {
		return errors.NewBlockInvalidError("block %s builds on %s, the coin set is at %s", block.Hash, block.PrevHash, best.Hash)
	}

	return nil
}

// prefetchInputs warms the child layer with the coins the block spends, so
// the sequential apply mostly reads memory. Misses are expected, a child
// transaction spends coins its in-block parent has not created yet. Other
// failures abort the connect when fail fast is configured; otherwise the
// apply retries the read and decides.
func (bv *BlockValidator) prefetchInputs(ctx context.Context, child *cachedstore.CachedStore, block *model.Block) error {
	concurrency := bv.settings.Block.PrefetchConcurrency
	if concurrency <= 0 || len(block.Txs) < 2 {
		return nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	util.SafeSetLimit(g, concurrency)

	for _, tx := range block.Txs[1:] {
		for _, input := range tx.Inputs {
			outpoint := model.NewOutpointFromInput(input)

			g.Go(func() error {
				if _, err := child.Get(gCtx, outpoint); err != nil && !errors.Is(err, errors.ErrUtxoNotFound) {
					return err
				}

				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		if bv.settings.Block.FailFastValidation {
			return err
		}

		bv.logger.Warnf("[BlockValidation] input prefetch for block %s: %v", block.Hash, err)
	}

	return nil
}

// applyTransactions validates and applies every transaction of the block to
// the child layer, queueing script checks on control and recording each
// spent coin in the undo data. Returns the undo data and the fee total of
// the block. The caller joins the script batch whether or not this errors.
func (bv *BlockValidator) applyTransactions(ctx context.Context, child *cachedstore.CachedStore, block *model.Block, height uint32, control *checkqueue.ControlHandle[*validator.ScriptJob]) (*model.BlockUndo, uint64, error) {
	undo := model.NewBlockUndo(block.Hash, height, len(block.Txs))
	spentBy := make(map[model.Outpoint]int, len(block.Txs))

	var blockFees uint64

	for txIndex, tx := range block.Txs {
		if txIndex == 0 {
			if err := bv.validator.ValidateTransaction(ctx, tx, height,
				validator.WithCoinsView(child),
				validator.WithCoinbaseAllowed(true),
				validator.WithSkipPolicyChecks(true),
			); err != nil {
				return nil, 0, err
			}

			if err := bv.addOutputs(child, tx, height, true); err != nil {
				return nil, 0, err
			}

			continue
		}

		// a coin spent twice within the block is a conflict, not a missing
		// parent, so catch it before the spender's view lookup does
		for _, input := range tx.Inputs {
			outpoint := model.NewOutpointFromInput(input)

			if spender, ok := spentBy[outpoint]; ok {
				return nil, 0, errors.NewTxConflictingError("transaction %d of block %s spends %s, already spent by transaction %d",
					txIndex, block.Hash, outpoint, spender)
			}
		}

		if err := bv.validator.ValidateTransaction(ctx, tx, height,
			validator.WithCoinsView(child),
			validator.WithSkipPolicyChecks(true),
			validator.WithScriptControl(control),
		); err != nil {
			return nil, 0, err
		}

		// inputs are extended after validation, the fee needs no store read
		txFees, err := model.ComputeTxFees(tx, tx.TotalInputSatoshis())
		if err != nil {
			return nil, 0, err
		}

		blockFees += txFees.Fee

		for _, input := range tx.Inputs {
			outpoint := model.NewOutpointFromInput(input)

			coin, err := child.SpendCoin(ctx, outpoint)
			if err != nil {
				return nil, 0, err
			}

			undo.Add(outpoint, coin)
			spentBy[outpoint] = txIndex
		}

		if err := bv.addOutputs(child, tx, height, false); err != nil {
			return nil, 0, err
		}
	}

	return undo, blockFees, nil
}

// addOutputs creates the coins of tx at height. Data outputs never become
// coins, AddCoin drops them. A duplicate outpoint within the chain is an
// overwrite attempt and fails the block.
func (bv *BlockValidator) addOutputs(child *cachedstore.CachedStore, tx *bt.Tx, height uint32, coinbase bool) error {
	txid := *tx.TxIDChainHash()

	for vout, output := range tx.Outputs {
		outpoint := model.Outpoint{Hash: txid, Index: uint32(vout)} // nolint:gosec

		if err := child.AddCoin(outpoint, model.NewCoinFromOutput(output, height, coinbase), false); err != nil {
			return err
		}
	}

	return nil
}

// checkCoinbaseValue enforces the inflation bound: the coinbase claims at
// most the subsidy at height plus the fees of the block's transactions.
func (bv *BlockValidator) checkCoinbaseValue(block *model.Block, height uint32, blockFees uint64) error {
	claimed := block.CoinbaseTx().TotalOutputSatoshis()

	allowed := blockFees + bv.blockSubsidy(height)
	if claimed > allowed {
		return errors.NewBlockInvalidError("block %s coinbase claims %d satoshis, fees plus subsidy allow %d", block.Hash, claimed, allowed)
	}

	return nil
}

func (bv *BlockValidator) blockSubsidy(height uint32) uint64 {
	interval := bv.settings.ChainCfgParams.SubsidyReductionInterval
	if interval <= 0 {
		return initialBlockSubsidy
	}

	halvings := height / uint32(interval)
	if halvings >= 64 {
		return 0
	}

	return initialBlockSubsidy >> halvings
}

// DisconnectBlock takes a connected block off the coin set: per transaction,
// newest first, the created coins are removed and the spent coins restored
// from undo. The inputs of the block's transactions are re-extended from the
// restored coins before the mempool gets them back.
func (bv *BlockValidator) DisconnectBlock(ctx context.Context, block *model.Block, undo *model.BlockUndo) error {
	ctx, _, finish := tracing.Start(ctx, "BlockValidation:DisconnectBlock",
		tracing.WithParentStat(bv.stats),
		tracing.WithHistogram(prometheusBlockValidationDisconnectBlock),
	)
	defer finish()

	if block == nil || len(block.Txs) == 0 {
		return errors.NewInvalidArgumentError("block has no transactions")
	}

	if undo == nil {
		return errors.NewInvalidArgumentError("disconnect of block %s needs undo data", block.Hash)
	}

	if undo.BlockHash != block.Hash {
		return errors.NewInvalidArgumentError("undo data belongs to block %s, not %s", undo.BlockHash, block.Hash)
	}

	if undo.Height > 0 && block.PrevHash == (chainhash.Hash{}) {
		return errors.NewInvalidArgumentError("disconnect of block %s needs the previous block hash for the best block marker", block.Hash)
	}

	offsets, err := undoOffsets(block, undo)
	if err != nil {
		return err
	}

	bv.mu.Lock()
	defer bv.mu.Unlock()

	best, err := bv.tip.GetBestBlock(ctx)
	if err != nil {
		return err
	}

	if best != nil && best.Hash != block.Hash {
		return errors.NewInvalidArgumentError("cannot disconnect block %s, the coin set is at %s", block.Hash, best.Hash)
	}

	child := cachedstore.New(bv.logger, bv.tip)

	for txIndex := len(block.Txs) - 1; txIndex >= 0; txIndex-- {
		tx := block.Txs[txIndex]

		if err := bv.removeOutputs(ctx, child, block, tx); err != nil {
			_ = child.Close()
			return err
		}

		if txIndex == 0 {
			break
		}

		start := offsets[txIndex]

		for inputIdx := len(tx.Inputs) - 1; inputIdx >= 0; inputIdx-- {
			spent := undo.Spent[start+inputIdx]
			input := tx.Inputs[inputIdx]

			if spent.Outpoint != model.NewOutpointFromInput(input) {
				_ = child.Close()
				return errors.NewInvalidArgumentError("undo entry %d of block %s does not match input %d of %s",
					start+inputIdx, block.Hash, inputIdx, tx.TxIDChainHash())
			}

			if err := child.AddCoin(spent.Outpoint, spent.Coin, true); err != nil {
				_ = child.Close()
				return err
			}

			input.PreviousTxSatoshis = spent.Coin.Value
			input.PreviousTxScript = spent.Coin.Script
		}
	}

	// a genesis disconnect leaves the marker alone, there is no block below
	// to point it at
	if undo.Height > 0 {
		child.SetBestBlock(&coins.BestBlock{Hash: block.PrevHash, Height: undo.Height - 1})
	}

	if err := child.Flush(ctx); err != nil {
		_ = child.Close()
		return err
	}

	bv.recentBlocks.Delete(block.Hash)

	if bv.mempool != nil {
		bv.mempool.ReintroduceForReorg(ctx, block.Txs)
	}

	bv.publishBlockEvent(BlockEventDisconnected, block, undo.Height)

	prometheusBlockValidationDisconnectedBlocks.Inc()

	bv.logger.Infof("[BlockValidation] disconnected block %s at height %d, %d transactions, %d coins restored",
		block.Hash, undo.Height, len(block.Txs), len(undo.Spent))

	bv.flushTipIfOversized(ctx)

	return nil
}

// removeOutputs deletes the coins tx created. Data outputs never existed;
// any other missing coin means the caller disconnected out of order.
func (bv *BlockValidator) removeOutputs(ctx context.Context, child *cachedstore.CachedStore, block *model.Block, tx *bt.Tx) error {
	txid := *tx.TxIDChainHash()

	for vout, output := range tx.Outputs {
		if output.LockingScript != nil && output.LockingScript.IsData() {
			continue
		}

		outpoint := model.Outpoint{Hash: txid, Index: uint32(vout)} // nolint:gosec

		if _, err := child.SpendCoin(ctx, outpoint); err != nil {
			if errors.Is(err, errors.ErrUtxoNotFound) {
				return errors.NewProcessingError("disconnect of block %s: created coin %s is missing or spent", block.Hash, outpoint)
			}

			return err
		}
	}

	return nil
}

// undoOffsets maps each transaction to its slice of the undo list, which
// holds one entry per non-coinbase input in spend order.
func undoOffsets(block *model.Block, undo *model.BlockUndo) ([]int, error) {
	offsets := make([]int, len(block.Txs))

	next := 0

	for txIndex, tx := range block.Txs {
		offsets[txIndex] = next

		if txIndex > 0 {
			next += len(tx.Inputs)
		}
	}

	if next != len(undo.Spent) {
		return nil, errors.NewInvalidArgumentError("undo data for block %s holds %d spent coins, the block spends %d", block.Hash, len(undo.Spent), next)
	}

	return offsets, nil
}

// flushTipIfOversized writes the tip view back to the backing store when it
// outgrows the configured budget. A failed flush keeps the dirty set in
// memory and is retried on the next block or on Close.
func (bv *BlockValidator) flushTipIfOversized(ctx context.Context) {
	usage := bv.tip.DynamicMemoryUsage()
	prometheusBlockValidationTipMemory.Set(float64(usage))

	if usage <= uint64(bv.settings.Block.CoinsCacheMaxMB)*1024*1024 { // nolint:gosec
		return
	}

	if err := bv.tip.Flush(ctx); err != nil {
		prometheusBlockValidationTipFlushFailures.Inc()
		bv.logger.Errorf("[BlockValidation] tip flush failed: %v", err)

		return
	}

	prometheusBlockValidationTipFlushes.Inc()
}

func (bv *BlockValidator) publishBlockEvent(eventType byte, block *model.Block, height uint32) {
	if bv.blockEventsProducer == nil {
		return
	}

	txCount, err := safeconversion.IntToUint32(len(block.Txs))
	if err != nil {
		bv.logger.Errorf("[BlockValidation] block %s event not published: %v", block.Hash.String(), err)

		return
	}

	data := &BlockEventData{
		Type:    eventType,
		Hash:    block.Hash,
		Height:  height,
		TxCount: txCount,
	}

	bv.blockEventsProducer.Publish(&kafka.Message{
		Key:   block.Hash.CloneBytes(),
		Value: data.Bytes(),
	})
}
