package model

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utxonet/chainstate/errors"
)

func TestOutpointBytesRoundTrip(t *testing.T) {
	hash := chainhash.HashH([]byte("outpoint round trip"))

	outpoint := Outpoint{Hash: hash, Index: 7}

	b := outpoint.Bytes()
	require.Len(t, b, OutpointSize)

	decoded, err := NewOutpointFromBytes(b)
	require.NoError(t, err)

	assert.Equal(t, outpoint, decoded)
}

func TestNewOutpointFromBytesInvalidLength(t *testing.T) {
	_, err := NewOutpointFromBytes([]byte{0x01, 0x02})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	_, err = NewOutpointFromBytes(make([]byte, OutpointSize+1))
	require.Error(t, err)
}

func TestNewOutpointFromInput(t *testing.T) {
	parentTx := bt.NewTx()
	err := parentTx.AddP2PKHOutputFromAddress("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", 1000)
	require.NoError(t, err)

	childTx := bt.NewTx()
	err = childTx.From(parentTx.TxIDChainHash().String(), 0, parentTx.Outputs[0].LockingScript.String(), 1000)
	require.NoError(t, err)

	outpoint := NewOutpointFromInput(childTx.Inputs[0])

	assert.Equal(t, *parentTx.TxIDChainHash(), outpoint.Hash)
	assert.Equal(t, uint32(0), outpoint.Index)
}

func TestOutpointString(t *testing.T) {
	tx := bt.NewTx()
	err := tx.AddP2PKHOutputFromAddress("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", 1000)
	require.NoError(t, err)

	outpoint := NewOutpoint(tx, 3)

	assert.Equal(t, tx.TxIDChainHash().String()+":3", outpoint.String())
}

func TestOutpointMapKey(t *testing.T) {
	hash := chainhash.HashH([]byte("map key"))

	m := map[Outpoint]int{}
	m[Outpoint{Hash: hash, Index: 0}] = 1
	m[Outpoint{Hash: hash, Index: 1}] = 2

	assert.Len(t, m, 2)
	assert.Equal(t, 1, m[Outpoint{Hash: hash, Index: 0}])
}
