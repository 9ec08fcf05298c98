package util

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/gommon/random"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/ulogger"
	"github.com/utxonet/chainstate/util/usql"
)

type SQLEngine string

const (
	Postgres     SQLEngine = "postgres"
	Sqlite       SQLEngine = "sqlite"
	SqliteMemory SQLEngine = "sqlitememory"
)

// InitSQLDB opens the database named by storeURL. Supported schemes are
// postgres, sqlite and sqlitememory.
func InitSQLDB(logger ulogger.Logger, storeURL *url.URL, tSettings *settings.Settings) (*usql.DB, error) {
	switch storeURL.Scheme {
	case "postgres":
		return InitPostgresDB(logger, storeURL, tSettings)
	case "sqlite", "sqlitememory":
		return InitSQLiteDB(logger, storeURL, tSettings)
	}

	return nil, errors.NewConfigurationError("db: unknown scheme: %s", storeURL.Scheme)
}

func InitPostgresDB(logger ulogger.Logger, storeURL *url.URL, tSettings *settings.Settings) (*usql.DB, error) {
	host := storeURL.Hostname()
	port, _ := strconv.Atoi(storeURL.Port())
	dbName := strings.TrimPrefix(storeURL.Path, "/")

	var user, password string
	if storeURL.User != nil {
		user = storeURL.User.Username()
		password, _ = storeURL.User.Password()
	}

	sslMode := storeURL.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("user=%s password=%s dbname=%s sslmode=%s host=%s port=%d", user, password, dbName, sslMode, host, port)

	db, err := usql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.NewServiceError("failed to open postgres DB", err)
	}

	logger.Infof("Using postgres DB: %s@%s:%d/%s", user, host, port, dbName)

	db.SetMaxIdleConns(tSettings.CoinStore.PostgresMaxIdleConns)
	db.SetMaxOpenConns(tSettings.CoinStore.PostgresMaxOpenConns)

	return db, nil
}

func InitSQLiteDB(logger ulogger.Logger, storeURL *url.URL, tSettings *settings.Settings) (*usql.DB, error) {
	if storeURL.Scheme == "sqlitememory" {
		// a random name per open keeps parallel test databases apart
		return openSQLite(logger, fmt.Sprintf("file:%s?mode=memory&cache=shared", random.String(16)))
	}

	folder := tSettings.DataFolder
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, errors.NewServiceError("failed to create data folder %s", folder, err)
	}

	dbName := strings.TrimPrefix(storeURL.Path, "/")

	filename, err := filepath.Abs(filepath.Join(folder, dbName+".db"))
	if err != nil {
		return nil, errors.NewServiceError("failed to get absolute path for sqlite DB", err)
	}

	// a large busy_timeout would only mask contention, fail fast instead
	dsn := fmt.Sprintf("%s?cache=shared&_pragma=busy_timeout=5000&_pragma=journal_mode=WAL", filename)

	return openSQLite(logger, dsn)
}

func openSQLite(logger ulogger.Logger, dsn string) (*usql.DB, error) {
	logger.Infof("Using sqlite DB: %s", dsn)

	db, err := usql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.NewServiceError("failed to open sqlite DB", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA locking_mode = SHARED;",
	}

	for _, pragma := range pragmas {
		if _, err = db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.NewServiceError("could not apply %s", pragma, err)
		}
	}

	return db, nil
}
