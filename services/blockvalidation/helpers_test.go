package blockvalidation

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/model"
	"github.com/utxonet/chainstate/services/validator"
	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/stores/cachedstore"
	"github.com/utxonet/chainstate/stores/coins/memory"
	"github.com/utxonet/chainstate/ulogger"
	"github.com/utxonet/chainstate/util/test"
)

const (
	testAddress = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

	coinbaseHex = "01000000010000000000000000000000000000000000000000000000000000000000000000ffffffff1703fb03002f6d322d75732f0cb6d7d459fb411ef3ac6d65ffffffff03ac505763000000001976a914c362d5af234dd4e1f2a1bfbcab90036d38b0aa9f88acaa505763000000001976a9143c22b6d9ba7b50b6d6e615c69d11ecb2ba3db14588acaa505763000000001976a914b7177c7deb43f3869eabc25cfd9f618215f34d5588ac00000000"

	// the regtest subsidy before the first halving
	subsidy = 50 * 100_000_000
)

// testRig bundles a block validator with the store chain behind it, so tests
// can assert against any layer.
type testRig struct {
	store     *memory.Memory
	tip       *cachedstore.CachedStore
	validator *validator.Validator
	bv        *BlockValidator
}

// newBlockValidator builds the service over a fresh memory store with the
// mock script engine. tune adjusts settings before construction.
func newBlockValidator(t *testing.T, tune func(*settings.Settings), opts ...ServiceOption) *testRig {
	tSettings := test.CreateBaseTestSettings()
	tSettings.Validator.ScriptInterpreter = "mock"

	if tune != nil {
		tune(tSettings)
	}

	store := memory.New(ulogger.TestLogger{})
	tip := cachedstore.New(ulogger.TestLogger{}, store)

	v, err := validator.NewValidator(ulogger.TestLogger{}, tSettings, tip)
	require.NoError(t, err)

	bv, err := New(ulogger.TestLogger{}, tSettings, v, tip, opts...)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, store.Close()) })
	t.Cleanup(v.Close)
	t.Cleanup(func() { require.NoError(t, bv.Close(context.Background())) })

	return &testRig{store: store, tip: tip, validator: v, bv: bv}
}

// newCoinbaseTx returns a coinbase claiming claim satoshis to one P2PKH
// output. tag varies the unlocking script so every block gets a distinct
// coinbase txid.
func newCoinbaseTx(t *testing.T, claim uint64, tag string) *bt.Tx {
	tx, err := bt.NewTxFromString(coinbaseHex)
	require.NoError(t, err)

	unlocking := bscript.Script(append([]byte(*tx.Inputs[0].UnlockingScript), []byte(tag)...))
	tx.Inputs[0].UnlockingScript = &unlocking

	tx.Outputs = tx.Outputs[:1]
	tx.Outputs[0].Satoshis = claim

	require.True(t, tx.IsCoinbase())

	return tx
}

// newBlock assembles a block from a fresh coinbase claiming the full subsidy
// plus txs. A nil prev links the block to a synthetic genesis hash, which an
// empty coin set accepts.
func newBlock(t *testing.T, label string, prev *model.Block, height uint32, txs ...*bt.Tx) *model.Block {
	blockTxs := append([]*bt.Tx{newCoinbaseTx(t, subsidy, label)}, txs...)

	block := model.NewBlock(chainhash.HashH([]byte(label)), height, blockTxs)

	if prev != nil {
		block.PrevHash = prev.Hash
	} else {
		block.PrevHash = chainhash.HashH([]byte("genesis"))
	}

	return block
}

// newSpendTx spends vout of parent, paying fee and the rest to a P2PKH
// output. Varying the fee varies the txid.
func newSpendTx(t *testing.T, parent *bt.Tx, vout int, fee uint64) *bt.Tx {
	prevValue := parent.Outputs[vout].Satoshis

	tx := bt.NewTx()

	err := tx.From(parent.TxID(), uint32(vout), parent.Outputs[vout].LockingScript.String(), prevValue)
	require.NoError(t, err)

	tx.Inputs[0].UnlockingScript = &bscript.Script{}

	err = tx.AddP2PKHOutputFromAddress(testAddress, prevValue-fee)
	require.NoError(t, err)

	return tx
}

func outpointOf(tx *bt.Tx, vout uint32) model.Outpoint {
	return model.NewOutpoint(tx, vout)
}

// requireCoin asserts view holds a coin for outpoint and returns it.
func requireCoin(t *testing.T, view validator.CoinsView, outpoint model.Outpoint) *model.Coin {
	coin, err := view.Get(context.Background(), outpoint)
	require.NoError(t, err)
	require.NotNil(t, coin)

	return coin
}

func requireNoCoin(t *testing.T, view validator.CoinsView, outpoint model.Outpoint) {
	_, err := view.Get(context.Background(), outpoint)
	require.ErrorIs(t, err, errors.ErrUtxoNotFound)
}
