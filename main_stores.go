package main

import (
	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/stores/cachedstore"
	"github.com/utxonet/chainstate/stores/coins"
	"github.com/utxonet/chainstate/stores/coins/factory"
	"github.com/utxonet/chainstate/ulogger"
)

// getCoinStore opens the backing store named by the coinstore URL setting.
// The URL scheme picks the backend: leveldb, postgres, sqlite, sqlitememory,
// memory or null.
func getCoinStore(logger ulogger.Logger, tSettings *settings.Settings) (coins.Store, error) {
	return factory.NewStore(logger, nil, tSettings)
}

// getTipView layers the write-back coin cache over the backing store. Every
// service reads and writes coins through this one view; block validation
// owns its flush policy.
func getTipView(logger ulogger.Logger, store coins.Store) *cachedstore.CachedStore {
	return cachedstore.New(logger, store)
}
