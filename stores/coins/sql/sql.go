// Package sql backs the coin store with postgres or sqlite through the shared
// instrumented database layer. Every BatchWrite runs in a single database
// transaction so the batch commits or rolls back as a unit.
package sql

import (
	"context"
	"database/sql"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/model"
	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/stores/coins"
	"github.com/utxonet/chainstate/ulogger"
	"github.com/utxonet/chainstate/util"
	"github.com/utxonet/chainstate/util/usql"
)

const bestBlockStateKey = "best_block"

type Store struct {
	logger ulogger.Logger
	db     *usql.DB
	engine util.SQLEngine
}

func New(logger ulogger.Logger, storeURL *url.URL, tSettings *settings.Settings) (*Store, error) {
	initPrometheusMetrics()

	db, err := util.InitSQLDB(logger, storeURL, tSettings)
	if err != nil {
		return nil, errors.NewStorageError("failed to init sql db", err)
	}

	switch util.SQLEngine(storeURL.Scheme) {
	case util.Postgres:
		if err = createPostgresSchema(db); err != nil {
			return nil, errors.NewStorageError("failed to create postgres schema", err)
		}

	case util.Sqlite, util.SqliteMemory:
		if err = createSqliteSchema(db); err != nil {
			return nil, errors.NewStorageError("failed to create sqlite schema", err)
		}

	default:
		return nil, errors.NewConfigurationError("unknown database engine: %s", storeURL.Scheme)
	}

	return &Store{
		logger: logger,
		db:     db,
		engine: util.SQLEngine(storeURL.Scheme),
	}, nil
}

func (s *Store) Health(ctx context.Context, _ bool) (int, string, error) {
	details := "SQL Engine is " + string(s.engine)

	var num int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&num); err != nil {
		return -1, details, err
	}

	return 0, details, nil
}

func (s *Store) Get(ctx context.Context, outpoint model.Outpoint) (*model.Coin, error) {
	prometheusCoinStoreGet.Inc()

	q := `
		SELECT coin
		FROM coins
		WHERE outpoint = $1
	`

	var coinBytes []byte

	if err := s.db.QueryRowContext(ctx, q, outpoint.Bytes()).Scan(&coinBytes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewUtxoNotFoundError("%s not found", outpoint)
		}

		prometheusCoinStoreErrors.WithLabelValues("Get").Inc()

		return nil, errors.NewStorageError("failed to get coin %s", outpoint, err)
	}

	coin, err := model.NewCoinFromBytes(coinBytes)
	if err != nil {
		prometheusCoinStoreErrors.WithLabelValues("Get").Inc()

		return nil, errors.NewStorageError("corrupt coin record for %s", outpoint, err)
	}

	return coin, nil
}

func (s *Store) BatchWrite(ctx context.Context, batch *coins.BatchWrite) error {
	start := time.Now()

	txn, err := s.db.Begin()
	if err != nil {
		return errors.NewStorageError("failed to begin coin batch", err)
	}

	defer func() {
		_ = txn.Rollback()
	}()

	upsert := `
		INSERT INTO coins (outpoint, coin)
		VALUES ($1, $2)
		ON CONFLICT (outpoint) DO UPDATE SET coin = EXCLUDED.coin
	`

	del := `
		DELETE FROM coins
		WHERE outpoint = $1
	`

	for _, entry := range batch.Coins {
		if entry.Coin == nil {
			if _, err = txn.ExecContext(ctx, del, entry.Outpoint.Bytes()); err != nil {
				prometheusCoinStoreErrors.WithLabelValues("BatchWrite").Inc()

				return errors.NewStorageError("failed to delete coin %s", entry.Outpoint, err)
			}

			continue
		}

		if _, err = txn.ExecContext(ctx, upsert, entry.Outpoint.Bytes(), entry.Coin.Serialize()); err != nil {
			prometheusCoinStoreErrors.WithLabelValues("BatchWrite").Inc()

			return errors.NewStorageError("failed to upsert coin %s", entry.Outpoint, err)
		}
	}

	if batch.BestBlock != nil {
		q := `
			INSERT INTO state (key, data)
			VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = CURRENT_TIMESTAMP
		`

		if _, err = txn.ExecContext(ctx, q, bestBlockStateKey, batch.BestBlock.Bytes()); err != nil {
			prometheusCoinStoreErrors.WithLabelValues("BatchWrite").Inc()

			return errors.NewStorageError("failed to upsert best block marker", err)
		}
	}

	if err = txn.Commit(); err != nil {
		prometheusCoinStoreErrors.WithLabelValues("BatchWrite").Inc()

		return errors.NewStorageError("failed to commit coin batch of %d entries", len(batch.Coins), err)
	}

	prometheusCoinStoreBatchWrite.Observe(float64(time.Since(start).Microseconds()) / 1_000_000)

	return nil
}

func (s *Store) GetBestBlock(ctx context.Context) (*coins.BestBlock, error) {
	q := `
		SELECT data
		FROM state
		WHERE key = $1
	`

	var data []byte

	if err := s.db.QueryRowContext(ctx, q, bestBlockStateKey).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, errors.NewStorageError("failed to get best block marker", err)
	}

	return coins.NewBestBlockFromBytes(data)
}

// Count returns the number of stored coins. Test helper.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM coins").Scan(&count); err != nil {
		return 0, errors.NewStorageError("failed to count coins", err)
	}

	return count, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func createPostgresSchema(db *usql.DB) error {
	if _, err := db.Exec(`
      CREATE TABLE IF NOT EXISTS coins (
	     outpoint      BYTEA PRIMARY KEY
	    ,coin          BYTEA NOT NULL
	    ,inserted_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	  );
	`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create coins table", err)
	}

	if _, err := db.Exec(`
      CREATE TABLE IF NOT EXISTS state (
	     key           VARCHAR(32) PRIMARY KEY
	    ,data          BYTEA NOT NULL
	    ,inserted_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	    ,updated_at    TIMESTAMPTZ NULL
	  );
	`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create state table", err)
	}

	return nil
}

func createSqliteSchema(db *usql.DB) error {
	if _, err := db.Exec(`
      CREATE TABLE IF NOT EXISTS coins (
	     outpoint      BLOB PRIMARY KEY
	    ,coin          BLOB NOT NULL
	    ,inserted_at   TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	  );
	`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create coins table", err)
	}

	if _, err := db.Exec(`
      CREATE TABLE IF NOT EXISTS state (
	     key           VARCHAR(32) PRIMARY KEY
	    ,data          BLOB NOT NULL
	    ,inserted_at   TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	    ,updated_at    TEXT NULL
	  );
	`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create state table", err)
	}

	return nil
}
