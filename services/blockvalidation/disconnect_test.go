package blockvalidation

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/model"
)

func TestDisconnectBlockRestoresPriorState(t *testing.T) {
	ctx := context.Background()
	rig := newBlockValidator(t, nil)

	b1 := newBlock(t, "b1", nil, 1)

	_, err := rig.bv.ConnectBlock(ctx, b1, 1)
	require.NoError(t, err)

	spend := newSpendTx(t, b1.Txs[0], 0, 1000)
	b2 := newBlock(t, "b2", b1, 2, spend)

	undo2, err := rig.bv.ConnectBlock(ctx, b2, 2)
	require.NoError(t, err)

	require.NoError(t, rig.bv.DisconnectBlock(ctx, b2, undo2))

	// the coinbase coin is back exactly as it was
	coin := requireCoin(t, rig.tip, outpointOf(b1.Txs[0], 0))
	assert.Equal(t, uint64(subsidy), coin.Value)
	assert.Equal(t, uint32(1), coin.Height)
	assert.True(t, coin.Coinbase)

	// everything the block created is gone
	requireNoCoin(t, rig.tip, outpointOf(spend, 0))
	requireNoCoin(t, rig.tip, outpointOf(b2.Txs[0], 0))

	best, err := rig.tip.GetBestBlock(ctx)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, b1.Hash, best.Hash)
	assert.Equal(t, uint32(1), best.Height)

	// the reorged branch can win again
	_, err = rig.bv.ConnectBlock(ctx, b2, 2)
	require.NoError(t, err)

	best, err = rig.tip.GetBestBlock(ctx)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, b2.Hash, best.Hash)
}

func TestDisconnectBlockUnwindsInBlockChains(t *testing.T) {
	ctx := context.Background()
	rig := newBlockValidator(t, nil)

	b1 := newBlock(t, "b1", nil, 1)

	_, err := rig.bv.ConnectBlock(ctx, b1, 1)
	require.NoError(t, err)

	txA := newSpendTx(t, b1.Txs[0], 0, 1000)
	txB := newSpendTx(t, txA, 0, 2000)

	b2 := newBlock(t, "b2", b1, 2, txA, txB)

	undo, err := rig.bv.ConnectBlock(ctx, b2, 2)
	require.NoError(t, err)

	// txB's input coin only ever existed inside the block; the unwind has to
	// recreate it from undo before txA's outputs are removed
	require.NoError(t, rig.bv.DisconnectBlock(ctx, b2, undo))

	requireCoin(t, rig.tip, outpointOf(b1.Txs[0], 0))
	requireNoCoin(t, rig.tip, outpointOf(txA, 0))
	requireNoCoin(t, rig.tip, outpointOf(txB, 0))
	requireNoCoin(t, rig.tip, outpointOf(b2.Txs[0], 0))

	best, err := rig.tip.GetBestBlock(ctx)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, b1.Hash, best.Hash)
}

func TestDisconnectBlockReextendsInputs(t *testing.T) {
	ctx := context.Background()
	rig := newBlockValidator(t, nil)

	b1 := newBlock(t, "b1", nil, 1)

	_, err := rig.bv.ConnectBlock(ctx, b1, 1)
	require.NoError(t, err)

	spend := newSpendTx(t, b1.Txs[0], 0, 1000)
	b2 := newBlock(t, "b2", b1, 2, spend)

	undo2, err := rig.bv.ConnectBlock(ctx, b2, 2)
	require.NoError(t, err)

	// wipe what validation extended, the disconnect must restore it from undo
	spend.Inputs[0].PreviousTxSatoshis = 0
	spend.Inputs[0].PreviousTxScript = nil

	require.NoError(t, rig.bv.DisconnectBlock(ctx, b2, undo2))

	assert.Equal(t, uint64(subsidy), spend.Inputs[0].PreviousTxSatoshis)
	require.NotNil(t, spend.Inputs[0].PreviousTxScript)
	assert.Equal(t, b1.Txs[0].Outputs[0].LockingScript.String(), spend.Inputs[0].PreviousTxScript.String())
}

func TestDisconnectBlockValidatesArguments(t *testing.T) {
	ctx := context.Background()
	rig := newBlockValidator(t, nil)

	b1 := newBlock(t, "b1", nil, 1)

	undo1, err := rig.bv.ConnectBlock(ctx, b1, 1)
	require.NoError(t, err)

	spend := newSpendTx(t, b1.Txs[0], 0, 1000)
	b2 := newBlock(t, "b2", b1, 2, spend)

	undo2, err := rig.bv.ConnectBlock(ctx, b2, 2)
	require.NoError(t, err)

	t.Run("nil block", func(t *testing.T) {
		err := rig.bv.DisconnectBlock(ctx, nil, undo2)
		require.ErrorIs(t, err, errors.ErrInvalidArgument)
	})

	t.Run("nil undo", func(t *testing.T) {
		err := rig.bv.DisconnectBlock(ctx, b2, nil)
		require.ErrorIs(t, err, errors.ErrInvalidArgument)
		assert.Contains(t, err.Error(), "undo data")
	})

	t.Run("undo for another block", func(t *testing.T) {
		err := rig.bv.DisconnectBlock(ctx, b2, undo1)
		require.ErrorIs(t, err, errors.ErrInvalidArgument)
		assert.Contains(t, err.Error(), "belongs to")
	})

	t.Run("missing previous block hash", func(t *testing.T) {
		headless := *b2
		headless.PrevHash = chainhash.Hash{}

		err := rig.bv.DisconnectBlock(ctx, &headless, undo2)
		require.ErrorIs(t, err, errors.ErrInvalidArgument)
		assert.Contains(t, err.Error(), "previous block hash")
	})

	t.Run("undo entry count mismatch", func(t *testing.T) {
		short := model.NewBlockUndo(b2.Hash, 2, 0)

		err := rig.bv.DisconnectBlock(ctx, b2, short)
		require.ErrorIs(t, err, errors.ErrInvalidArgument)
	})

	t.Run("not the best block", func(t *testing.T) {
		err := rig.bv.DisconnectBlock(ctx, b1, undo1)
		require.ErrorIs(t, err, errors.ErrInvalidArgument)
		assert.Contains(t, err.Error(), "cannot disconnect")
	})

	// none of the rejected calls touched the coin set
	best, err := rig.tip.GetBestBlock(ctx)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, b2.Hash, best.Hash)
}

func TestDisconnectGenesisKeepsMarker(t *testing.T) {
	ctx := context.Background()
	rig := newBlockValidator(t, nil)

	b0 := newBlock(t, "genesis-block", nil, 0)
	b0.PrevHash = chainhash.Hash{}

	undo0, err := rig.bv.ConnectBlock(ctx, b0, 0)
	require.NoError(t, err)

	require.NoError(t, rig.bv.DisconnectBlock(ctx, b0, undo0))

	requireNoCoin(t, rig.tip, outpointOf(b0.Txs[0], 0))

	// there is no block below height zero to point the marker at
	best, err := rig.tip.GetBestBlock(ctx)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, b0.Hash, best.Hash)
	assert.Equal(t, uint32(0), best.Height)
}
