package validator

import (
	"context"
	"net/http"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/stores/cachedstore"
	"github.com/utxonet/chainstate/stores/coins/memory"
	"github.com/utxonet/chainstate/ulogger"
	"github.com/utxonet/chainstate/util/kafka"
)

func TestValidatorHealth(t *testing.T) {
	v, _ := newTestValidator(t, "mock")

	status, msg, err := v.Health(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", msg)

	status, _, err = v.Health(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
}

func TestNewValidatorRequiresView(t *testing.T) {
	_, err := NewValidator(ulogger.TestLogger{}, testValidatorSettings("mock"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestValidateTransactionExtendsInputs(t *testing.T) {
	v, store := newTestValidator(t, "mock")

	outpoint := parentOutpoint("service-happy")
	coin := newCoin(t, 10_000, 1, false, p2pkhHex)
	addCoin(t, store, outpoint, coin)

	tx := newSpendTx(t, outpoint, coin, 9_000)

	// The view is authoritative, whatever the caller prefilled.
	tx.Inputs[0].PreviousTxSatoshis = 0
	tx.Inputs[0].PreviousTxScript = nil

	require.NoError(t, v.ValidateTransaction(context.Background(), tx, 100))

	assert.Equal(t, coin.Value, tx.Inputs[0].PreviousTxSatoshis)
	require.NotNil(t, tx.Inputs[0].PreviousTxScript)
	assert.Equal(t, coin.Script.String(), tx.Inputs[0].PreviousTxScript.String())
}

func TestValidateTransactionMissingParent(t *testing.T) {
	v, _ := newTestValidator(t, "mock")

	outpoint := parentOutpoint("unknown-parent")
	coin := newCoin(t, 10_000, 1, false, p2pkhHex)
	tx := newSpendTx(t, outpoint, coin, 9_000)

	err := v.ValidateTransaction(context.Background(), tx, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTxMissingParent))
}

func TestValidateTransactionScriptFailure(t *testing.T) {
	v, store := newTestValidator(t, "mock")

	outpoint := parentOutpoint("bad-script")
	coin := newCoin(t, 10_000, 1, false, p2pkhHex)
	addCoin(t, store, outpoint, coin)

	tx := newSpendTx(t, outpoint, coin, 9_000)

	MockVerifyFn = func(_ *bt.Tx, inputIdx int, _ uint32) error {
		return errors.NewTxInvalidError("input %d failed under test", inputIdx)
	}
	defer func() { MockVerifyFn = nil }()

	err := v.ValidateTransaction(context.Background(), tx, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTxInvalid))
	assert.Contains(t, err.Error(), "failed under test")
}

func TestValidateTransactionSkipScriptChecks(t *testing.T) {
	v, store := newTestValidator(t, "mock")

	outpoint := parentOutpoint("skip-scripts")
	coin := newCoin(t, 10_000, 1, false, p2pkhHex)
	addCoin(t, store, outpoint, coin)

	tx := newSpendTx(t, outpoint, coin, 9_000)

	MockVerifyFn = func(_ *bt.Tx, _ int, _ uint32) error {
		return errors.NewTxInvalidError("should not run")
	}
	defer func() { MockVerifyFn = nil }()

	require.NoError(t, v.ValidateTransaction(context.Background(), tx, 100, WithSkipScriptChecks(true)))
}

func TestValidateTransactionCoinbase(t *testing.T) {
	v, _ := newTestValidator(t, "mock")

	coinbaseTx, err := bt.NewTxFromString(coinbaseHex)
	require.NoError(t, err)
	require.True(t, coinbaseTx.IsCoinbase())

	err = v.ValidateTransaction(context.Background(), coinbaseTx, 1020)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTxInvalid))
	assert.Contains(t, err.Error(), "only valid in a block")

	require.NoError(t, v.ValidateTransaction(context.Background(), coinbaseTx, 1020, WithCoinbaseAllowed(true)))
}

func TestValidateTransactionPublishesRejects(t *testing.T) {
	producer := kafka.NewAsyncProducerMock()

	v, _ := newTestValidator(t, "mock", WithRejectedTxProducer(producer))

	outpoint := parentOutpoint("reject-kafka")
	coin := newCoin(t, 10_000, 1, false, p2pkhHex)
	tx := newSpendTx(t, outpoint, coin, 9_000)

	err := v.ValidateTransaction(context.Background(), tx, 42)
	require.Error(t, err)

	msgs := producer.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, tx.TxIDChainHash().CloneBytes(), msgs[0].Key)

	data, err := NewRejectedTxDataFromBytes(msgs[0].Value)
	require.NoError(t, err)
	assert.Equal(t, *tx.TxIDChainHash(), data.TxID)
	assert.Equal(t, uint32(42), data.Height)
	assert.Contains(t, data.Reason, "unknown coin")
}

func TestValidateTransactionCallerOwnedBatch(t *testing.T) {
	v, store := newTestValidator(t, "mock")

	outpoint := parentOutpoint("batched")
	coin := newCoin(t, 10_000, 1, false, p2pkhHex)
	addCoin(t, store, outpoint, coin)

	tx := newSpendTx(t, outpoint, coin, 9_000)

	control := v.Queue().Control()

	// The call queues the jobs without joining the batch.
	require.NoError(t, v.ValidateTransaction(context.Background(), tx, 100, WithScriptControl(control)))
	require.NoError(t, control.Wait())
}

func TestValidateTransactionViewOverride(t *testing.T) {
	v, _ := newTestValidator(t, "mock")

	backing := memory.New(ulogger.TestLogger{})
	t.Cleanup(func() { require.NoError(t, backing.Close()) })

	overlay := cachedstore.New(ulogger.TestLogger{}, backing)
	t.Cleanup(func() { require.NoError(t, overlay.Close()) })

	outpoint := parentOutpoint("override-view")
	coin := newCoin(t, 10_000, 1, false, p2pkhHex)
	require.NoError(t, overlay.AddCoin(outpoint, coin, false))

	tx := newSpendTx(t, outpoint, coin, 9_000)

	// The default view has no such coin.
	err := v.ValidateTransaction(context.Background(), tx, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTxMissingParent))

	require.NoError(t, v.ValidateTransaction(context.Background(), tx, 100, WithCoinsView(overlay)))
}

func TestValidateTransactionGoBTEngine(t *testing.T) {
	v, store := newTestValidator(t, "gobt")

	outpoint := parentOutpoint("gobt-anyone-can-spend")
	coin := newCoin(t, 10_000, 1, false, opTrueHex)
	addCoin(t, store, outpoint, coin)

	tx := newSpendTx(t, outpoint, coin, 9_000)

	require.NoError(t, v.ValidateTransaction(context.Background(), tx, 100))
}

func TestValidateTransactionGoBTEngineRejects(t *testing.T) {
	v, store := newTestValidator(t, "gobt")

	outpoint := parentOutpoint("gobt-unspendable")
	coin := newCoin(t, 10_000, 1, false, opFalseHex)
	addCoin(t, store, outpoint, coin)

	tx := newSpendTx(t, outpoint, coin, 9_000)

	err := v.ValidateTransaction(context.Background(), tx, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTxInvalid))
	assert.Contains(t, err.Error(), "script verification failed")
}
