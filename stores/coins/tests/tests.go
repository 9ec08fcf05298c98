// Package tests holds the store contract suite every coin store backend must
// pass. The suite is table driven over backend constructors so a new backend
// only adds an entry to GetStoreTestCases.
package tests

import (
	"net/url"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/utxonet/chainstate/model"
	"github.com/utxonet/chainstate/stores/coins"
	"github.com/utxonet/chainstate/stores/coins/leveldb"
	"github.com/utxonet/chainstate/stores/coins/memory"
	"github.com/utxonet/chainstate/stores/coins/sql"
	"github.com/utxonet/chainstate/ulogger"
	"github.com/utxonet/chainstate/util/test"
)

// StoreTestCase is one backend under contract test.
type StoreTestCase struct {
	Name        string
	CreateStore func(t *testing.T) coins.Store
}

// GetStoreTestCases returns every backend the contract suite runs against.
func GetStoreTestCases() []StoreTestCase {
	return []StoreTestCase{
		{
			Name: "memory",
			CreateStore: func(t *testing.T) coins.Store {
				return memory.New(ulogger.TestLogger{})
			},
		},
		{
			Name: "sql_sqlitememory",
			CreateStore: func(t *testing.T) coins.Store {
				storeURL, err := url.Parse("sqlitememory:///coins_test")
				require.NoError(t, err)

				store, err := sql.New(ulogger.TestLogger{}, storeURL, test.CreateBaseTestSettings())
				require.NoError(t, err)

				return store
			},
		},
		{
			Name: "leveldb",
			CreateStore: func(t *testing.T) coins.Store {
				store, err := leveldb.New(ulogger.TestLogger{}, t.TempDir(), test.CreateBaseTestSettings())
				require.NoError(t, err)

				return store
			},
		},
	}
}

// Outpoint derives a deterministic outpoint from a label.
func Outpoint(label string, index uint32) model.Outpoint {
	return model.Outpoint{
		Hash:  chainhash.HashH([]byte(label)),
		Index: index,
	}
}

// Coin builds a P2PKH coin for contract tests.
func Coin(t *testing.T, value uint64, height uint32, coinbase bool) *model.Coin {
	script, err := bscript.NewFromHexString("76a9144bca0c466925b875875a8e1355698bdcc0b2d45d88ac")
	require.NoError(t, err)

	return &model.Coin{
		Value:    value,
		Script:   script,
		Height:   height,
		Coinbase: coinbase,
	}
}
