package factory

import (
	"net/url"

	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/stores/coins"
	"github.com/utxonet/chainstate/stores/coins/sql"
	"github.com/utxonet/chainstate/ulogger"
)

func init() {
	sqlInit := func(logger ulogger.Logger, storeURL *url.URL, tSettings *settings.Settings) (coins.Store, error) {
		return sql.New(logger, storeURL, tSettings)
	}

	availableDatabases["postgres"] = sqlInit
	availableDatabases["sqlite"] = sqlInit
	availableDatabases["sqlitememory"] = sqlInit
}
