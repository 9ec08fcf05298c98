package model

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utxonet/chainstate/errors"
)

func fundedTx(t *testing.T, outputSatoshis uint64) *bt.Tx {
	t.Helper()

	parentTx := bt.NewTx()
	err := parentTx.AddP2PKHOutputFromAddress("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", 100_000)
	require.NoError(t, err)

	tx := bt.NewTx()
	err = tx.From(parentTx.TxIDChainHash().String(), 0, parentTx.Outputs[0].LockingScript.String(), 100_000)
	require.NoError(t, err)

	err = tx.AddP2PKHOutputFromAddress("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", outputSatoshis)
	require.NoError(t, err)

	return tx
}

func TestComputeTxFees(t *testing.T) {
	tx := fundedTx(t, 90_000)

	fees, err := ComputeTxFees(tx, 100_000)
	require.NoError(t, err)

	assert.Equal(t, uint64(10_000), fees.Fee)
	assert.Equal(t, uint64(tx.Size()), fees.Size)
	assert.InDelta(t, float64(10_000)/float64(tx.Size()), fees.FeeRate, 0.0001)
}

func TestComputeTxFeesZeroFee(t *testing.T) {
	tx := fundedTx(t, 100_000)

	fees, err := ComputeTxFees(tx, 100_000)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), fees.Fee)
	assert.Equal(t, float64(0), fees.FeeRate)
}

func TestComputeTxFeesOutputsExceedInputs(t *testing.T) {
	tx := fundedTx(t, 100_001)

	_, err := ComputeTxFees(tx, 100_000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTxInvalid))
}
