// Command coinstool reads records from the coin store configured in the
// settings. It is intended for debugging and inspection of utxo data.
//
// Usage:
//
//	coinstool best               print the best block marker
//	coinstool get <txid> <vout>  print a single coin
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/model"
	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/stores/coins/factory"
	"github.com/utxonet/chainstate/ulogger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	ctx := context.Background()
	logger := ulogger.New("coinstool")
	tSettings := settings.NewSettings()

	store, err := factory.NewStore(logger, nil, tSettings)
	if err != nil {
		fmt.Printf("Failed to open coin store: %s\n", err)
		os.Exit(1)
	}

	defer func() {
		_ = store.Close()
	}()

	switch os.Args[1] {
	case "best":
		best, err := store.GetBestBlock(ctx)
		if err != nil {
			fmt.Printf("Failed to read best block: %s\n", err)
			os.Exit(1)
		}

		if best == nil {
			fmt.Println("Store is empty, no best block marker")
			return
		}

		fmt.Printf("Best block : %s\n", best.Hash.String())
		fmt.Printf("Height     : %d\n", best.Height)

	case "get":
		if len(os.Args) < 4 {
			usage()
		}

		hash, err := chainhash.NewHashFromStr(os.Args[2])
		if err != nil {
			fmt.Printf("Invalid txid: %s\n", os.Args[2])
			os.Exit(1)
		}

		vout, err := strconv.ParseUint(os.Args[3], 10, 32)
		if err != nil {
			fmt.Printf("Invalid vout: %s\n", os.Args[3])
			os.Exit(1)
		}

		outpoint := model.Outpoint{Hash: *hash, Index: uint32(vout)}

		coin, err := store.Get(ctx, outpoint)
		if err != nil {
			if errors.Is(err, errors.ErrUtxoNotFound) {
				fmt.Printf("Coin %s:%d not found (spent or never created)\n", hash.String(), vout)
				os.Exit(1)
			}

			fmt.Printf("Failed to read coin: %s\n", err)
			os.Exit(1)
		}

		fmt.Printf("Outpoint : %s:%d\n", hash.String(), vout)
		fmt.Printf("Value    : %d\n", coin.Value)
		fmt.Printf("Height   : %d\n", coin.Height)
		fmt.Printf("Coinbase : %t\n", coin.Coinbase)
		fmt.Printf("Script   : %s\n", coin.Script.String())

	default:
		usage()
	}
}

func usage() {
	fmt.Println("Usage: coinstool best")
	fmt.Println("       coinstool get <txid> <vout>")
	os.Exit(1)
}
