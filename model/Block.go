package model

import (
	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// Block is the minimal view the state engine needs when connecting or
// disconnecting: identity, height and the ordered transaction list. Header
// validation happens upstream.
//
// PrevHash is the hash of the block this one builds on. Connect uses it to
// verify the block extends the stored coin state, disconnect uses it as the
// best block marker after the block is taken off.
type Block struct {
	Hash     chainhash.Hash
	PrevHash chainhash.Hash
	Height   uint32
	Txs      []*bt.Tx
}

func NewBlock(hash chainhash.Hash, height uint32, txs []*bt.Tx) *Block {
	return &Block{
		Hash:   hash,
		Height: height,
		Txs:    txs,
	}
}

// CoinbaseTx returns the first transaction, or nil for an empty block.
func (b *Block) CoinbaseTx() *bt.Tx {
	if len(b.Txs) == 0 {
		return nil
	}

	return b.Txs[0]
}

func (b *Block) TxCount() int {
	return len(b.Txs)
}

// SizeBytes sums the serialized size of all transactions.
func (b *Block) SizeBytes() uint64 {
	var size uint64

	for _, tx := range b.Txs {
		size += uint64(tx.Size())
	}

	return size
}
