package model

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utxonet/chainstate/errors"
)

func TestCoinSerializeRoundTrip(t *testing.T) {
	tx := bt.NewTx()
	err := tx.AddP2PKHOutputFromAddress("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", 5_000_000_000)
	require.NoError(t, err)

	tests := []struct {
		name string
		coin *Coin
	}{
		{
			name: "p2pkh output",
			coin: NewCoinFromOutput(tx.Outputs[0], 100, false),
		},
		{
			name: "coinbase output",
			coin: NewCoinFromOutput(tx.Outputs[0], 0, true),
		},
		{
			name: "empty script",
			coin: &Coin{Value: 0, Script: bscript.NewFromBytes(nil), Height: 4_294_967_295 >> 1, Coinbase: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.coin.Serialize()

			decoded, err := NewCoinFromBytes(b)
			require.NoError(t, err)

			assert.Equal(t, tt.coin.Value, decoded.Value)
			assert.Equal(t, tt.coin.Height, decoded.Height)
			assert.Equal(t, tt.coin.Coinbase, decoded.Coinbase)
			assert.Equal(t, tt.coin.Script.Bytes(), decoded.Script.Bytes())
		})
	}
}

func TestNewCoinFromBytesMalformed(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
	}{
		{name: "empty", b: nil},
		{name: "value only", b: []byte{0x05}},
		{name: "script shorter than declared", b: []byte{0x05, 0x02, 0x0a, 0x51}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCoinFromBytes(tt.b)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrStorageError))
		})
	}
}

func TestCoinIsSpendableAt(t *testing.T) {
	regular := &Coin{Value: 100, Script: bscript.NewFromBytes([]byte{0x51}), Height: 50, Coinbase: false}
	coinbase := &Coin{Value: 100, Script: bscript.NewFromBytes([]byte{0x51}), Height: 50, Coinbase: true}

	const maturity = 100

	assert.True(t, regular.IsSpendableAt(50, maturity))
	assert.True(t, regular.IsSpendableAt(51, maturity))

	assert.False(t, coinbase.IsSpendableAt(50, maturity))
	assert.False(t, coinbase.IsSpendableAt(149, maturity))
	assert.True(t, coinbase.IsSpendableAt(150, maturity))
	assert.True(t, coinbase.IsSpendableAt(151, maturity))
}

func TestCoinClone(t *testing.T) {
	original := &Coin{Value: 42, Script: bscript.NewFromBytes([]byte{0x76, 0xa9}), Height: 10, Coinbase: false}

	clone := original.Clone()
	require.NotSame(t, original, clone)
	assert.Equal(t, original.Value, clone.Value)

	// mutating the clone's script must not leak into the original
	(*clone.Script)[0] = 0x00
	assert.Equal(t, byte(0x76), (*original.Script)[0])
}

func TestCoinEstimateSize(t *testing.T) {
	coin := &Coin{Value: 1, Script: bscript.NewFromBytes(make([]byte, 25)), Height: 1, Coinbase: false}
	assert.Equal(t, uint64(32+25), coin.EstimateSize())
}
