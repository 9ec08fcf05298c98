package validator

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utxonet/chainstate/errors"
)

func TestRejectedTxDataRoundTrip(t *testing.T) {
	data := &RejectedTxData{
		TxID:   chainhash.HashH([]byte("rejected")),
		Height: 840_000,
		Reason: "transaction has no inputs or outputs",
	}

	decoded, err := NewRejectedTxDataFromBytes(data.Bytes())
	require.NoError(t, err)
	assert.Equal(t, data.TxID, decoded.TxID)
	assert.Equal(t, data.Height, decoded.Height)
	assert.Equal(t, data.Reason, decoded.Reason)
}

func TestRejectedTxDataEmptyReason(t *testing.T) {
	data := &RejectedTxData{
		TxID:   chainhash.HashH([]byte("no-reason")),
		Height: 1,
	}

	decoded, err := NewRejectedTxDataFromBytes(data.Bytes())
	require.NoError(t, err)
	assert.Empty(t, decoded.Reason)
}

func TestRejectedTxDataTooShort(t *testing.T) {
	_, err := NewRejectedTxDataFromBytes(make([]byte, 10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}
