// Package coins defines the persistence contract for the UTXO set. A store
// holds one coin per unspent outpoint plus a best block marker recording the
// chain position the stored set corresponds to. All mutation goes through
// BatchWrite so a backend can make the whole batch visible atomically.
package coins

import (
	"context"
	"encoding/binary"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/model"
)

// BestBlock records the block the persisted coin set is consistent with.
type BestBlock struct {
	Hash   chainhash.Hash
	Height uint32
}

// NewBestBlockFromBytes decodes a marker written by Bytes.
func NewBestBlockFromBytes(b []byte) (*BestBlock, error) {
	if len(b) != chainhash.HashSize+4 {
		return nil, errors.NewStorageError("best block marker must be %d bytes, got %d", chainhash.HashSize+4, len(b))
	}

	bestBlock := &BestBlock{
		Height: binary.LittleEndian.Uint32(b[chainhash.HashSize:]),
	}
	copy(bestBlock.Hash[:], b[:chainhash.HashSize])

	return bestBlock, nil
}

// Bytes encodes the marker as block hash followed by little-endian height.
func (b *BestBlock) Bytes() []byte {
	out := make([]byte, chainhash.HashSize+4)
	copy(out, b.Hash[:])
	binary.LittleEndian.PutUint32(out[chainhash.HashSize:], b.Height)

	return out
}

// BatchedCoin is a single entry in a batch. A nil Coin deletes the outpoint,
// anything else upserts it. Fresh marks coins created since the last flush of
// the writing cache layer; backends ignore it, cache layers use it when
// ingesting a child batch.
type BatchedCoin struct {
	Outpoint model.Outpoint
	Coin     *model.Coin
	Fresh    bool
}

// BatchWrite is one atomic set of changes, typically a cache flush or the
// effects of connecting a block.
type BatchWrite struct {
	Coins     []BatchedCoin
	BestBlock *BestBlock
}

// Store is the backing UTXO set. Get returns ErrUtxoNotFound for unknown
// outpoints. BatchWrite applies all entries or none.
type Store interface {
	Get(ctx context.Context, outpoint model.Outpoint) (*model.Coin, error)
	BatchWrite(ctx context.Context, batch *BatchWrite) error
	GetBestBlock(ctx context.Context) (*BestBlock, error)
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
	Close() error
}
