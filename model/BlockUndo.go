package model

import (
	"encoding/binary"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/utxonet/chainstate/errors"
)

// SpentCoin records a coin consumed while connecting a block, so a disconnect
// can restore it.
type SpentCoin struct {
	Outpoint Outpoint
	Coin     *Coin
}

// BlockUndo holds every coin spent by a connected block, in spend order.
// Disconnecting the block walks the list in reverse.
type BlockUndo struct {
	BlockHash chainhash.Hash
	Height    uint32
	Spent     []SpentCoin
}

func NewBlockUndo(blockHash chainhash.Hash, height uint32, txCountHint int) *BlockUndo {
	return &BlockUndo{
		BlockHash: blockHash,
		Height:    height,
		Spent:     make([]SpentCoin, 0, txCountHint),
	}
}

// Add appends a spent coin. Must be called in the order the coins were spent.
func (u *BlockUndo) Add(outpoint Outpoint, coin *Coin) {
	u.Spent = append(u.Spent, SpentCoin{Outpoint: outpoint, Coin: coin})
}

func (u *BlockUndo) Serialize() []byte {
	var tmp [binary.MaxVarintLen64]byte

	buf := make([]byte, 0, chainhash.HashSize+8+len(u.Spent)*(OutpointSize+64))

	buf = append(buf, u.BlockHash[:]...)

	n := binary.PutUvarint(tmp[:], uint64(u.Height))
	buf = append(buf, tmp[:n]...)

	n = binary.PutUvarint(tmp[:], uint64(len(u.Spent)))
	buf = append(buf, tmp[:n]...)

	for _, s := range u.Spent {
		buf = append(buf, s.Outpoint.Bytes()...)

		coin := s.Coin.Serialize()

		n = binary.PutUvarint(tmp[:], uint64(len(coin)))
		buf = append(buf, tmp[:n]...)
		buf = append(buf, coin...)
	}

	return buf
}

func NewBlockUndoFromBytes(b []byte) (*BlockUndo, error) {
	if len(b) < chainhash.HashSize+2 {
		return nil, errors.NewStorageError("block undo deserialize: truncated input")
	}

	undo := &BlockUndo{}

	copy(undo.BlockHash[:], b[:chainhash.HashSize])
	b = b[chainhash.HashSize:]

	height, n := binary.Uvarint(b)
	if n <= 0 {
		return nil, errors.NewStorageError("block undo deserialize: invalid height varint")
	}

	undo.Height = uint32(height)
	b = b[n:]

	count, n := binary.Uvarint(b)
	if n <= 0 {
		return nil, errors.NewStorageError("block undo deserialize: invalid count varint")
	}

	b = b[n:]

	undo.Spent = make([]SpentCoin, 0, count)

	for i := uint64(0); i < count; i++ {
		if len(b) < OutpointSize {
			return nil, errors.NewStorageError("block undo deserialize: truncated outpoint at %d", i)
		}

		outpoint, err := NewOutpointFromBytes(b[:OutpointSize])
		if err != nil {
			return nil, err
		}

		b = b[OutpointSize:]

		coinLen, n := binary.Uvarint(b)
		if n <= 0 {
			return nil, errors.NewStorageError("block undo deserialize: invalid coin length at %d", i)
		}

		b = b[n:]

		if uint64(len(b)) < coinLen {
			return nil, errors.NewStorageError("block undo deserialize: truncated coin at %d", i)
		}

		coin, err := NewCoinFromBytes(b[:coinLen])
		if err != nil {
			return nil, err
		}

		b = b[coinLen:]

		undo.Spent = append(undo.Spent, SpentCoin{Outpoint: outpoint, Coin: coin})
	}

	if len(b) != 0 {
		return nil, errors.NewStorageError("block undo deserialize: %d trailing bytes", len(b))
	}

	return undo, nil
}
