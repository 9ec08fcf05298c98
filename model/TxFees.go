package model

import (
	"github.com/bsv-blockchain/go-bt/v2"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"

	"github.com/utxonet/chainstate/errors"
)

// TxFees captures the fee a transaction pays relative to its serialized size.
type TxFees struct {
	Fee     uint64
	Size    uint64
	FeeRate float64 // satoshis per byte
}

// ComputeTxFees derives the fee from the resolved input total and the
// transaction outputs. Outputs exceeding inputs is consensus invalid.
func ComputeTxFees(tx *bt.Tx, totalInputSatoshis uint64) (*TxFees, error) {
	var totalOut uint64

	for _, output := range tx.Outputs {
		totalOut += output.Satoshis
	}

	if totalOut > totalInputSatoshis {
		return nil, errors.NewTxInvalidError("tx %s outputs %d exceed inputs %d", tx.TxIDChainHash(), totalOut, totalInputSatoshis)
	}

	size, err := safeconversion.IntToUint64(tx.Size())
	if err != nil {
		return nil, errors.NewTxInvalidError("tx %s has invalid size", tx.TxIDChainHash(), err)
	}

	if size == 0 {
		return nil, errors.NewTxInvalidError("tx %s has zero size", tx.TxIDChainHash())
	}

	fee := totalInputSatoshis - totalOut

	return &TxFees{
		Fee:     fee,
		Size:    size,
		FeeRate: float64(fee) / float64(size),
	}, nil
}
