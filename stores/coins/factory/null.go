package factory

import (
	"net/url"

	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/stores/coins"
	"github.com/utxonet/chainstate/stores/coins/nullstore"
	"github.com/utxonet/chainstate/ulogger"
)

func init() {
	availableDatabases["null"] = func(_ ulogger.Logger, _ *url.URL, _ *settings.Settings) (coins.Store, error) {
		return nullstore.NewNullStore()
	}
}
