package factory

import (
	"net/url"
	"path/filepath"

	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/stores/coins"
	"github.com/utxonet/chainstate/stores/coins/leveldb"
	"github.com/utxonet/chainstate/ulogger"
)

func init() {
	availableDatabases["leveldb"] = func(logger ulogger.Logger, storeURL *url.URL, tSettings *settings.Settings) (coins.Store, error) {
		// leveldb://host/path keeps a relative path in Host, an absolute one in Path
		path := storeURL.Path
		if storeURL.Host != "" {
			path = filepath.Join(storeURL.Host, storeURL.Path)
		}

		return leveldb.New(logger, path, tSettings)
	}
}
