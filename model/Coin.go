package model

import (
	"encoding/binary"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/utxonet/chainstate/errors"
)

// Coin is a single unspent transaction output. It is immutable once created:
// the utxo set only ever adds or removes whole coins, never mutates them.
type Coin struct {
	Value    uint64
	Script   *bscript.Script
	Height   uint32
	Coinbase bool
}

// NewCoinFromOutput builds the coin created by output of a transaction
// confirmed at height.
func NewCoinFromOutput(out *bt.Output, height uint32, coinbase bool) *Coin {
	return &Coin{
		Value:    out.Satoshis,
		Script:   out.LockingScript,
		Height:   height,
		Coinbase: coinbase,
	}
}

// NewCoinFromBytes deserializes a coin written by Serialize.
func NewCoinFromBytes(b []byte) (*Coin, error) {
	value, n := binary.Uvarint(b)
	if n <= 0 {
		return nil, errors.NewStorageError("coin deserialize: invalid value varint")
	}

	b = b[n:]

	heightCode, n := binary.Uvarint(b)
	if n <= 0 {
		return nil, errors.NewStorageError("coin deserialize: invalid height varint")
	}

	b = b[n:]

	scriptLen, n := binary.Uvarint(b)
	if n <= 0 {
		return nil, errors.NewStorageError("coin deserialize: invalid script length varint")
	}

	b = b[n:]

	if uint64(len(b)) != scriptLen {
		return nil, errors.NewStorageError("coin deserialize: script length mismatch, expected %d got %d", scriptLen, len(b))
	}

	script := bscript.Script(make([]byte, scriptLen))
	copy(script, b)

	return &Coin{
		Value:    value,
		Script:   &script,
		Height:   uint32(heightCode >> 1),
		Coinbase: heightCode&1 == 1,
	}, nil
}

// Serialize encodes the coin as value varint, height<<1|coinbase varint,
// script length varint, script bytes.
func (c *Coin) Serialize() []byte {
	var script []byte
	if c.Script != nil {
		script = *c.Script
	}

	buf := make([]byte, 0, 2*binary.MaxVarintLen64+binary.MaxVarintLen32+len(script))

	var tmp [binary.MaxVarintLen64]byte

	n := binary.PutUvarint(tmp[:], c.Value)
	buf = append(buf, tmp[:n]...)

	heightCode := uint64(c.Height) << 1
	if c.Coinbase {
		heightCode |= 1
	}

	n = binary.PutUvarint(tmp[:], heightCode)
	buf = append(buf, tmp[:n]...)

	n = binary.PutUvarint(tmp[:], uint64(len(script)))
	buf = append(buf, tmp[:n]...)

	return append(buf, script...)
}

// IsSpendableAt reports whether the coin can be spent in a transaction
// confirmed at height, honouring coinbase maturity.
func (c *Coin) IsSpendableAt(height uint32, coinbaseMaturity uint32) bool {
	if !c.Coinbase {
		return true
	}

	return height >= c.Height+coinbaseMaturity
}

// EstimateSize approximates the in-memory footprint of the coin in bytes,
// used for cache flush decisions.
func (c *Coin) EstimateSize() uint64 {
	size := uint64(32) // struct overhead
	if c.Script != nil {
		size += uint64(len(*c.Script))
	}

	return size
}

// Clone returns a deep copy. Layers never share script storage with their
// parent, so a flush cannot alias memory owned by another view.
func (c *Coin) Clone() *Coin {
	clone := &Coin{
		Value:    c.Value,
		Height:   c.Height,
		Coinbase: c.Coinbase,
	}

	if c.Script != nil {
		script := bscript.Script(make([]byte, len(*c.Script)))
		copy(script, *c.Script)
		clone.Script = &script
	}

	return clone
}
