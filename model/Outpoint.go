package model

import (
	"encoding/binary"
	"fmt"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/utxonet/chainstate/errors"
)

// OutpointSize is the serialized size of an outpoint: 32 byte txid plus a
// 4 byte little-endian output index.
const OutpointSize = chainhash.HashSize + 4

// Outpoint identifies a single transaction output. It is a value type and can
// be used directly as a map key.
type Outpoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// NewOutpoint returns the outpoint for output index of tx.
func NewOutpoint(tx *bt.Tx, index uint32) Outpoint {
	return Outpoint{
		Hash:  *tx.TxIDChainHash(),
		Index: index,
	}
}

// NewOutpointFromInput returns the outpoint an input spends.
func NewOutpointFromInput(in *bt.Input) Outpoint {
	return Outpoint{
		Hash:  *in.PreviousTxIDChainHash(),
		Index: in.PreviousTxOutIndex,
	}
}

func NewOutpointFromBytes(b []byte) (Outpoint, error) {
	if len(b) != OutpointSize {
		return Outpoint{}, errors.NewInvalidArgumentError("outpoint must be %d bytes, got %d", OutpointSize, len(b))
	}

	var o Outpoint

	copy(o.Hash[:], b[:chainhash.HashSize])
	o.Index = binary.LittleEndian.Uint32(b[chainhash.HashSize:])

	return o, nil
}

// Bytes returns the 36 byte store key for the outpoint.
func (o Outpoint) Bytes() []byte {
	b := make([]byte, OutpointSize)
	copy(b, o.Hash[:])
	binary.LittleEndian.PutUint32(b[chainhash.HashSize:], o.Index)

	return b
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.Hash.String(), o.Index)
}
