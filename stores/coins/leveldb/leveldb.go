// Package leveldb is the production coin store. Coins live under 'c' prefixed
// keys, the best block marker under a single 'B' key. One BatchWrite becomes
// one synced leveldb batch, which is the crash-atomicity unit of the store:
// after a crash either the whole flush is visible or none of it.
//
// The database is opened without compression. Coin records are short and
// mostly random bytes, compressing them costs CPU on every flush for very
// little space.
package leveldb

import (
	"context"
	"net/http"
	"time"

	"github.com/btcsuite/goleveldb/leveldb"
	"github.com/btcsuite/goleveldb/leveldb/opt"
	ldbutil "github.com/btcsuite/goleveldb/leveldb/util"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/model"
	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/stores/coins"
	"github.com/utxonet/chainstate/ulogger"
)

const (
	coinKeyPrefix = 'c'
	bestBlockKey  = 'B'
)

type Store struct {
	logger ulogger.Logger
	db     *leveldb.DB
	path   string
}

// New opens or creates the database at the path part of storeURL. Tuning
// comes from the coin store settings, not the URL.
func New(logger ulogger.Logger, path string, tSettings *settings.Settings) (*Store, error) {
	initPrometheusMetrics()

	if path == "" {
		return nil, errors.NewConfigurationError("leveldb store requires a path")
	}

	opts := &opt.Options{
		Compression: opt.NoCompression,
	}

	if tSettings.CoinStore.LevelDBWriteBufferMB > 0 {
		opts.WriteBuffer = tSettings.CoinStore.LevelDBWriteBufferMB * opt.MiB
	}

	if tSettings.CoinStore.LevelDBBlockCacheMB > 0 {
		opts.BlockCacheCapacity = tSettings.CoinStore.LevelDBBlockCacheMB * opt.MiB
	}

	if tSettings.CoinStore.LevelDBOpenFiles > 0 {
		opts.OpenFilesCacheCapacity = tSettings.CoinStore.LevelDBOpenFiles
	}

	logger.Infof("[CoinStore] opening leveldb at %s", path)

	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		return nil, errors.NewStorageError("couldn't open leveldb at %s", path, err)
	}

	return &Store{
		logger: logger,
		db:     db,
		path:   path,
	}, nil
}

func (s *Store) Health(_ context.Context, _ bool) (int, string, error) {
	if _, err := s.db.Get([]byte{bestBlockKey}, nil); err != nil && err != leveldb.ErrNotFound {
		return http.StatusInternalServerError, "LevelDB Store", err
	}

	return http.StatusOK, "LevelDB Store", nil
}

func (s *Store) Get(_ context.Context, outpoint model.Outpoint) (*model.Coin, error) {
	prometheusCoinStoreGet.Inc()

	value, err := s.db.Get(coinKey(outpoint), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, errors.NewUtxoNotFoundError("%s not found", outpoint)
		}

		return nil, errors.NewStorageError("failed to get coin %s", outpoint, err)
	}

	coin, err := model.NewCoinFromBytes(value)
	if err != nil {
		return nil, errors.NewStorageError("corrupt coin record for %s", outpoint, err)
	}

	return coin, nil
}

func (s *Store) BatchWrite(_ context.Context, batch *coins.BatchWrite) error {
	start := time.Now()

	ldbBatch := new(leveldb.Batch)

	for _, entry := range batch.Coins {
		if entry.Coin == nil {
			ldbBatch.Delete(coinKey(entry.Outpoint))
			continue
		}

		ldbBatch.Put(coinKey(entry.Outpoint), entry.Coin.Serialize())
	}

	if batch.BestBlock != nil {
		ldbBatch.Put([]byte{bestBlockKey}, batch.BestBlock.Bytes())
	}

	if err := s.db.Write(ldbBatch, &opt.WriteOptions{Sync: true}); err != nil {
		return errors.NewStorageError("failed to write coin batch of %d entries", len(batch.Coins), err)
	}

	prometheusCoinStoreBatchWrite.Observe(float64(time.Since(start).Microseconds()) / 1_000_000)
	prometheusCoinStoreBatchSize.Observe(float64(len(batch.Coins)))

	return nil
}

func (s *Store) GetBestBlock(_ context.Context) (*coins.BestBlock, error) {
	value, err := s.db.Get([]byte{bestBlockKey}, nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, nil
		}

		return nil, errors.NewStorageError("failed to get best block marker", err)
	}

	return coins.NewBestBlockFromBytes(value)
}

// Count iterates the coin keyspace. Linear, only meant for tests and
// diagnostics.
func (s *Store) Count() (int, error) {
	iter := s.db.NewIterator(ldbutil.BytesPrefix([]byte{coinKeyPrefix}), nil)
	defer iter.Release()

	var count int

	for iter.Next() {
		count++
	}

	if err := iter.Error(); err != nil {
		return 0, errors.NewStorageError("coin iteration failed", err)
	}

	return count, nil
}

func (s *Store) Close() error {
	s.logger.Infof("[CoinStore] closing leveldb at %s", s.path)

	return s.db.Close()
}

func coinKey(outpoint model.Outpoint) []byte {
	key := make([]byte, 1+model.OutpointSize)
	key[0] = coinKeyPrefix
	copy(key[1:], outpoint.Bytes())

	return key
}
