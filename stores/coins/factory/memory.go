package factory

import (
	"net/url"

	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/stores/coins"
	"github.com/utxonet/chainstate/stores/coins/memory"
	"github.com/utxonet/chainstate/ulogger"
)

func init() {
	availableDatabases["memory"] = func(logger ulogger.Logger, _ *url.URL, _ *settings.Settings) (coins.Store, error) {
		return memory.New(logger), nil
	}
}
