package validator

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/utxonet/chainstate/model"
	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/stores/coins"
	"github.com/utxonet/chainstate/stores/coins/memory"
	"github.com/utxonet/chainstate/ulogger"
	"github.com/utxonet/chainstate/util/test"
)

const (
	opTrueHex   = "51"
	opFalseHex  = "00"
	p2pkhHex    = "76a9144bca0c466925b875875a8e1355698bdcc0b2d45d88ac"
	testAddress = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

	coinbaseHex = "01000000010000000000000000000000000000000000000000000000000000000000000000ffffffff1703fb03002f6d322d75732f0cb6d7d459fb411ef3ac6d65ffffffff03ac505763000000001976a914c362d5af234dd4e1f2a1bfbcab90036d38b0aa9f88acaa505763000000001976a9143c22b6d9ba7b50b6d6e615c69d11ecb2ba3db14588acaa505763000000001976a914b7177c7deb43f3869eabc25cfd9f618215f34d5588ac00000000"
)

// testValidatorSettings returns regression net settings with every
// activation height at zero, so post-fork rules apply from height 1, and
// the given script engine selected.
func testValidatorSettings(engine string) *settings.Settings {
	tSettings := test.CreateBaseTestSettings()

	params := *tSettings.ChainCfgParams
	params.UahfForkHeight = 0
	params.GenesisActivationHeight = 0
	tSettings.ChainCfgParams = &params

	tSettings.Validator.ScriptInterpreter = engine

	return tSettings
}

func newTestTxValidator(t *testing.T, tSettings *settings.Settings) *TxValidator {
	tv, err := NewTxValidator(ulogger.TestLogger{}, tSettings)
	require.NoError(t, err)

	return tv
}

// newTestValidator builds the service over an empty in-memory store.
func newTestValidator(t *testing.T, engine string, opts ...ServiceOption) (*Validator, *memory.Memory) {
	store := memory.New(ulogger.TestLogger{})

	v, err := NewValidator(ulogger.TestLogger{}, testValidatorSettings(engine), store, opts...)
	require.NoError(t, err)

	t.Cleanup(v.Close)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	return v, store
}

func scriptFromHex(t *testing.T, h string) *bscript.Script {
	script, err := bscript.NewFromHexString(h)
	require.NoError(t, err)

	return script
}

func newCoin(t *testing.T, value uint64, height uint32, coinbase bool, scriptHex string) *model.Coin {
	return &model.Coin{
		Value:    value,
		Script:   scriptFromHex(t, scriptHex),
		Height:   height,
		Coinbase: coinbase,
	}
}

func parentOutpoint(label string) model.Outpoint {
	return model.Outpoint{
		Hash:  chainhash.HashH([]byte(label)),
		Index: 0,
	}
}

func addCoin(t *testing.T, store coins.Store, outpoint model.Outpoint, coin *model.Coin) {
	err := store.BatchWrite(context.Background(), &coins.BatchWrite{
		Coins: []coins.BatchedCoin{{Outpoint: outpoint, Coin: coin}},
	})
	require.NoError(t, err)
}

// newSpendTx spends outpoint, assuming it holds coin, paying outValue to a
// P2PKH output. The unlocking script is left empty, which satisfies an
// OP_TRUE locking script and the push-only rule.
func newSpendTx(t *testing.T, outpoint model.Outpoint, coin *model.Coin, outValue uint64) *bt.Tx {
	tx := bt.NewTx()

	err := tx.From(outpoint.Hash.String(), outpoint.Index, coin.Script.String(), coin.Value)
	require.NoError(t, err)

	tx.Inputs[0].UnlockingScript = &bscript.Script{}

	err = tx.AddP2PKHOutputFromAddress(testAddress, outValue)
	require.NoError(t, err)

	return tx
}
