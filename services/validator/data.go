package validator

import (
	"encoding/binary"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/utxonet/chainstate/errors"
)

// RejectedTxData is the payload published to the rejected-tx topic: the
// transaction id, the height it was validated at and the rejection reason.
type RejectedTxData struct {
	TxID   chainhash.Hash
	Height uint32
	Reason string
}

// Bytes serializes the payload as 32 bytes of txid, 4 bytes of height in
// little-endian and the reason string.
func (d *RejectedTxData) Bytes() []byte {
	b := make([]byte, 0, chainhash.HashSize+4+len(d.Reason))
	b = append(b, d.TxID[:]...)

	var height [4]byte

	binary.LittleEndian.PutUint32(height[:], d.Height)
	b = append(b, height[:]...)

	return append(b, d.Reason...)
}

// NewRejectedTxDataFromBytes deserializes a payload written by Bytes.
func NewRejectedTxDataFromBytes(b []byte) (*RejectedTxData, error) {
	if len(b) < chainhash.HashSize+4 {
		return nil, errors.NewInvalidArgumentError("rejected tx payload too short, %d bytes", len(b))
	}

	d := &RejectedTxData{}

	copy(d.TxID[:], b[:chainhash.HashSize])
	d.Height = binary.LittleEndian.Uint32(b[chainhash.HashSize : chainhash.HashSize+4])
	d.Reason = string(b[chainhash.HashSize+4:])

	return d, nil
}
