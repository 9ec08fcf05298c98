package blockvalidation

import (
	"encoding/binary"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/utxonet/chainstate/errors"
)

// Block event types on the wire.
const (
	BlockEventConnected byte = iota
	BlockEventDisconnected
)

// blockEventDataSize is the fixed payload size: type, block hash, height and
// transaction count.
const blockEventDataSize = 1 + chainhash.HashSize + 4 + 4

// BlockEventData is the payload published to the block events topic.
type BlockEventData struct {
	Type    byte
	Hash    chainhash.Hash
	Height  uint32
	TxCount uint32
}

// Bytes serializes the payload as the type byte, 32 bytes of block hash and
// the height and transaction count in little-endian.
func (d *BlockEventData) Bytes() []byte {
	b := make([]byte, blockEventDataSize)

	b[0] = d.Type
	copy(b[1:], d.Hash[:])
	binary.LittleEndian.PutUint32(b[1+chainhash.HashSize:], d.Height)
	binary.LittleEndian.PutUint32(b[1+chainhash.HashSize+4:], d.TxCount)

	return b
}

// NewBlockEventDataFromBytes deserializes a payload written by Bytes.
func NewBlockEventDataFromBytes(b []byte) (*BlockEventData, error) {
	if len(b) != blockEventDataSize {
		return nil, errors.NewInvalidArgumentError("block event payload must be %d bytes, got %d", blockEventDataSize, len(b))
	}

	d := &BlockEventData{
		Type: b[0],
	}

	copy(d.Hash[:], b[1:1+chainhash.HashSize])
	d.Height = binary.LittleEndian.Uint32(b[1+chainhash.HashSize:])
	d.TxCount = binary.LittleEndian.Uint32(b[1+chainhash.HashSize+4:])

	return d, nil
}
