package test

import (
	"github.com/bsv-blockchain/go-chaincfg"

	"github.com/utxonet/chainstate/settings"
)

// CreateBaseTestSettings returns settings tuned for tests: regression net
// parameters with immediate coinbase maturity so funding chains stay short.
func CreateBaseTestSettings() *settings.Settings {
	tSettings := settings.NewSettings()

	params := chaincfg.RegressionNetParams
	params.CoinbaseMaturity = 1
	tSettings.ChainCfgParams = &params

	return tSettings
}
