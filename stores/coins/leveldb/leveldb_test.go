package leveldb

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utxonet/chainstate/model"
	"github.com/utxonet/chainstate/stores/coins"
	"github.com/utxonet/chainstate/ulogger"
	"github.com/utxonet/chainstate/util/test"
)

func testCoin(t *testing.T, value uint64) *model.Coin {
	script, err := bscript.NewFromHexString("76a9144bca0c466925b875875a8e1355698bdcc0b2d45d88ac")
	require.NoError(t, err)

	return &model.Coin{Value: value, Script: script, Height: 100}
}

func TestLevelDBSurvivesReopen(t *testing.T) {
	path := t.TempDir()
	ctx := context.Background()

	store, err := New(ulogger.TestLogger{}, path, test.CreateBaseTestSettings())
	require.NoError(t, err)

	outpoint := model.Outpoint{Hash: chainhash.HashH([]byte("tx1"))}
	bestBlock := &coins.BestBlock{Hash: chainhash.HashH([]byte("block 10")), Height: 10}

	require.NoError(t, store.BatchWrite(ctx, &coins.BatchWrite{
		Coins:     []coins.BatchedCoin{{Outpoint: outpoint, Coin: testCoin(t, 5000)}},
		BestBlock: bestBlock,
	}))

	require.NoError(t, store.Close())

	// everything written before close comes back after reopening
	store, err = New(ulogger.TestLogger{}, path, test.CreateBaseTestSettings())
	require.NoError(t, err)

	defer store.Close()

	coin, err := store.Get(ctx, outpoint)
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), coin.Value)

	got, err := store.GetBestBlock(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, bestBlock.Hash, got.Hash)
	assert.Equal(t, uint32(10), got.Height)
}

func TestLevelDBCount(t *testing.T) {
	store, err := New(ulogger.TestLogger{}, t.TempDir(), test.CreateBaseTestSettings())
	require.NoError(t, err)

	defer store.Close()

	ctx := context.Background()

	batch := &coins.BatchWrite{
		BestBlock: &coins.BestBlock{Hash: chainhash.HashH([]byte("block 1")), Height: 1},
	}

	for i := uint32(0); i < 10; i++ {
		batch.Coins = append(batch.Coins, coins.BatchedCoin{
			Outpoint: model.Outpoint{Hash: chainhash.HashH([]byte("tx1")), Index: i},
			Coin:     testCoin(t, uint64(1000+i)),
		})
	}

	require.NoError(t, store.BatchWrite(ctx, batch))

	// the best block marker lives outside the coin keyspace
	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}

func TestLevelDBRequiresPath(t *testing.T) {
	_, err := New(ulogger.TestLogger{}, "", test.CreateBaseTestSettings())
	require.Error(t, err)
}
