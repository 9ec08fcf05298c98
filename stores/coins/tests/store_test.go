package tests

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/stores/coins"
)

func TestStoreGetMissing(t *testing.T) {
	for _, tc := range GetStoreTestCases() {
		t.Run(tc.Name, func(t *testing.T) {
			store := tc.CreateStore(t)
			defer store.Close()

			_, err := store.Get(context.Background(), Outpoint("missing", 0))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrUtxoNotFound))
		})
	}
}

func TestStoreBatchWriteRoundTrip(t *testing.T) {
	for _, tc := range GetStoreTestCases() {
		t.Run(tc.Name, func(t *testing.T) {
			store := tc.CreateStore(t)
			defer store.Close()

			ctx := context.Background()

			batch := &coins.BatchWrite{
				Coins: []coins.BatchedCoin{
					{Outpoint: Outpoint("tx1", 0), Coin: Coin(t, 5000, 100, false)},
					{Outpoint: Outpoint("tx1", 1), Coin: Coin(t, 2500, 100, false)},
					{Outpoint: Outpoint("coinbase", 0), Coin: Coin(t, 50_0000_0000, 1, true)},
				},
			}

			require.NoError(t, store.BatchWrite(ctx, batch))

			coin, err := store.Get(ctx, Outpoint("tx1", 0))
			require.NoError(t, err)
			assert.Equal(t, uint64(5000), coin.Value)
			assert.Equal(t, uint32(100), coin.Height)
			assert.False(t, coin.Coinbase)
			require.NotNil(t, coin.Script)
			assert.Equal(t, *Coin(t, 0, 0, false).Script, *coin.Script)

			coin, err = store.Get(ctx, Outpoint("coinbase", 0))
			require.NoError(t, err)
			assert.Equal(t, uint64(50_0000_0000), coin.Value)
			assert.Equal(t, uint32(1), coin.Height)
			assert.True(t, coin.Coinbase)
		})
	}
}

func TestStoreBatchWriteDelete(t *testing.T) {
	for _, tc := range GetStoreTestCases() {
		t.Run(tc.Name, func(t *testing.T) {
			store := tc.CreateStore(t)
			defer store.Close()

			ctx := context.Background()

			require.NoError(t, store.BatchWrite(ctx, &coins.BatchWrite{
				Coins: []coins.BatchedCoin{
					{Outpoint: Outpoint("tx1", 0), Coin: Coin(t, 5000, 100, false)},
					{Outpoint: Outpoint("tx1", 1), Coin: Coin(t, 2500, 100, false)},
				},
			}))

			// nil coin deletes the outpoint
			require.NoError(t, store.BatchWrite(ctx, &coins.BatchWrite{
				Coins: []coins.BatchedCoin{
					{Outpoint: Outpoint("tx1", 0), Coin: nil},
				},
			}))

			_, err := store.Get(ctx, Outpoint("tx1", 0))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrUtxoNotFound))

			_, err = store.Get(ctx, Outpoint("tx1", 1))
			require.NoError(t, err)
		})
	}
}

func TestStoreDeleteMissingIsNoop(t *testing.T) {
	for _, tc := range GetStoreTestCases() {
		t.Run(tc.Name, func(t *testing.T) {
			store := tc.CreateStore(t)
			defer store.Close()

			err := store.BatchWrite(context.Background(), &coins.BatchWrite{
				Coins: []coins.BatchedCoin{
					{Outpoint: Outpoint("never-existed", 3), Coin: nil},
				},
			})
			require.NoError(t, err)
		})
	}
}

func TestStoreOverwrite(t *testing.T) {
	for _, tc := range GetStoreTestCases() {
		t.Run(tc.Name, func(t *testing.T) {
			store := tc.CreateStore(t)
			defer store.Close()

			ctx := context.Background()
			outpoint := Outpoint("tx1", 0)

			require.NoError(t, store.BatchWrite(ctx, &coins.BatchWrite{
				Coins: []coins.BatchedCoin{{Outpoint: outpoint, Coin: Coin(t, 5000, 100, false)}},
			}))

			require.NoError(t, store.BatchWrite(ctx, &coins.BatchWrite{
				Coins: []coins.BatchedCoin{{Outpoint: outpoint, Coin: Coin(t, 7777, 101, false)}},
			}))

			coin, err := store.Get(ctx, outpoint)
			require.NoError(t, err)
			assert.Equal(t, uint64(7777), coin.Value)
			assert.Equal(t, uint32(101), coin.Height)
		})
	}
}

func TestStoreBestBlockMarker(t *testing.T) {
	for _, tc := range GetStoreTestCases() {
		t.Run(tc.Name, func(t *testing.T) {
			store := tc.CreateStore(t)
			defer store.Close()

			ctx := context.Background()

			bestBlock, err := store.GetBestBlock(ctx)
			require.NoError(t, err)
			assert.Nil(t, bestBlock, "fresh store must have no best block marker")

			want := &coins.BestBlock{
				Hash:   Outpoint("block 100", 0).Hash,
				Height: 100,
			}

			require.NoError(t, store.BatchWrite(ctx, &coins.BatchWrite{
				Coins:     []coins.BatchedCoin{{Outpoint: Outpoint("tx1", 0), Coin: Coin(t, 5000, 100, false)}},
				BestBlock: want,
			}))

			bestBlock, err = store.GetBestBlock(ctx)
			require.NoError(t, err)
			require.NotNil(t, bestBlock)
			assert.Equal(t, want.Hash, bestBlock.Hash)
			assert.Equal(t, uint32(100), bestBlock.Height)

			// a batch without a marker leaves the previous one in place
			require.NoError(t, store.BatchWrite(ctx, &coins.BatchWrite{
				Coins: []coins.BatchedCoin{{Outpoint: Outpoint("tx2", 0), Coin: Coin(t, 1000, 101, false)}},
			}))

			bestBlock, err = store.GetBestBlock(ctx)
			require.NoError(t, err)
			require.NotNil(t, bestBlock)
			assert.Equal(t, uint32(100), bestBlock.Height)
		})
	}
}

func TestStoreBatchVisibility(t *testing.T) {
	for _, tc := range GetStoreTestCases() {
		t.Run(tc.Name, func(t *testing.T) {
			store := tc.CreateStore(t)
			defer store.Close()

			ctx := context.Background()

			first := &coins.BatchWrite{}
			for i := 0; i < 50; i++ {
				first.Coins = append(first.Coins, coins.BatchedCoin{
					Outpoint: Outpoint(fmt.Sprintf("tx%d", i), 0),
					Coin:     Coin(t, uint64(1000+i), 100, false),
				})
			}

			require.NoError(t, store.BatchWrite(ctx, first))

			// the whole batch is visible
			for i := 0; i < 50; i++ {
				coin, err := store.Get(ctx, Outpoint(fmt.Sprintf("tx%d", i), 0))
				require.NoError(t, err)
				require.Equal(t, uint64(1000+i), coin.Value)
			}

			// a batch mixing deletes and upserts lands as a unit
			second := &coins.BatchWrite{}
			for i := 0; i < 25; i++ {
				second.Coins = append(second.Coins, coins.BatchedCoin{
					Outpoint: Outpoint(fmt.Sprintf("tx%d", i), 0),
				})
			}

			for i := 50; i < 75; i++ {
				second.Coins = append(second.Coins, coins.BatchedCoin{
					Outpoint: Outpoint(fmt.Sprintf("tx%d", i), 0),
					Coin:     Coin(t, uint64(1000+i), 101, false),
				})
			}

			require.NoError(t, store.BatchWrite(ctx, second))

			for i := 0; i < 25; i++ {
				_, err := store.Get(ctx, Outpoint(fmt.Sprintf("tx%d", i), 0))
				require.Error(t, err)
			}

			for i := 25; i < 75; i++ {
				_, err := store.Get(ctx, Outpoint(fmt.Sprintf("tx%d", i), 0))
				require.NoError(t, err)
			}
		})
	}
}

func TestStoreFreshFlagIgnored(t *testing.T) {
	for _, tc := range GetStoreTestCases() {
		t.Run(tc.Name, func(t *testing.T) {
			store := tc.CreateStore(t)
			defer store.Close()

			ctx := context.Background()

			// Fresh only matters to cache layers, backends persist regardless
			require.NoError(t, store.BatchWrite(ctx, &coins.BatchWrite{
				Coins: []coins.BatchedCoin{
					{Outpoint: Outpoint("tx1", 0), Coin: Coin(t, 5000, 100, false), Fresh: true},
				},
			}))

			_, err := store.Get(ctx, Outpoint("tx1", 0))
			require.NoError(t, err)
		})
	}
}

func TestStoreEmptyBatch(t *testing.T) {
	for _, tc := range GetStoreTestCases() {
		t.Run(tc.Name, func(t *testing.T) {
			store := tc.CreateStore(t)
			defer store.Close()

			require.NoError(t, store.BatchWrite(context.Background(), &coins.BatchWrite{}))
		})
	}
}

func TestStoreHealth(t *testing.T) {
	for _, tc := range GetStoreTestCases() {
		t.Run(tc.Name, func(t *testing.T) {
			store := tc.CreateStore(t)
			defer store.Close()

			status, details, err := store.Health(context.Background(), true)
			require.NoError(t, err)
			assert.NotEmpty(t, details)
			assert.Less(t, status, 300)
		})
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	for _, tc := range GetStoreTestCases() {
		t.Run(tc.Name, func(t *testing.T) {
			store := tc.CreateStore(t)
			defer store.Close()

			ctx := context.Background()
			outpoint := Outpoint("tx1", 0)

			require.NoError(t, store.BatchWrite(ctx, &coins.BatchWrite{
				Coins: []coins.BatchedCoin{{Outpoint: outpoint, Coin: Coin(t, 5000, 100, false)}},
			}))

			coin, err := store.Get(ctx, outpoint)
			require.NoError(t, err)

			// mutating the returned coin must not leak into the store
			(*coin.Script)[0] = 0xff

			again, err := store.Get(ctx, outpoint)
			require.NoError(t, err)
			assert.NotEqual(t, byte(0xff), (*again.Script)[0])
		})
	}
}
