// Package cachedstore implements a write-back overlay on top of a
// coins.Store. A CachedStore keeps coin entries in memory, keyed by outpoint,
// and only talks to its parent on a cache miss or a Flush.
//
// Every entry carries two flags:
//
//	dirty: the entry differs from the parent and must be written on Flush.
//	fresh: the parent has never seen a live version of this coin, so spending
//	       it can drop the entry outright instead of flushing a delete.
//
// Layers stack. The parent of a CachedStore can be the backing store or
// another CachedStore, which is how block connects get their atomicity: all
// spends and creates for a block go into a child layer over the tip view, and
// only when the whole block has been applied is the child flushed. A failed
// block is discarded with the parent untouched.
//
// A single RWMutex guards the overlay. Lookups that hit locally take the read
// lock; a miss fills from the parent under the write lock so a concurrent
// flush cannot race the fill and leave a stale entry behind. Coins are
// immutable once created, so entries hand out their coin pointer directly.
package cachedstore

import (
	"context"
	"sync"
	"time"

	"github.com/dolthub/swiss"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/model"
	"github.com/utxonet/chainstate/stores/coins"
	"github.com/utxonet/chainstate/ulogger"
)

// entryOverheadBytes approximates the per-entry cost outside the coin itself:
// the outpoint key, the flags, and the swiss map slot.
const entryOverheadBytes = 64

const defaultMapCapacity = 1024

// entry is one cached coin. A nil coin is a spent tombstone: either a
// memoized negative lookup (not dirty) or a spend that still has to reach the
// parent (dirty).
type entry struct {
	coin  *model.Coin
	dirty bool
	fresh bool
}

// CachedStore is a coin cache layer over a parent store.
type CachedStore struct {
	logger ulogger.Logger
	parent coins.Store

	mu        sync.RWMutex
	cacheMap  *swiss.Map[model.Outpoint, *entry]
	usage     uint64
	bestBlock *coins.BestBlock
}

// New returns an empty cache layer over parent. The parent stays owned by the
// caller: Close drops the overlay but never closes the parent.
func New(logger ulogger.Logger, parent coins.Store) *CachedStore {
	initPrometheusMetrics()

	return &CachedStore{
		logger:   logger,
		parent:   parent,
		cacheMap: swiss.NewMap[model.Outpoint, *entry](defaultMapCapacity),
	}
}

// fetch returns the entry for outpoint, filling it from the parent if needed.
// Must be called with the write lock held. A parent miss is memoized as a
// fresh, non-dirty tombstone so repeated negative lookups stay local.
func (c *CachedStore) fetch(ctx context.Context, outpoint model.Outpoint) (*entry, error) {
	if e, ok := c.cacheMap.Get(outpoint); ok {
		return e, nil
	}

	prometheusCachedStoreMiss.Inc()

	coin, err := c.parent.Get(ctx, outpoint)
	if err != nil {
		if !errors.Is(err, errors.ErrUtxoNotFound) {
			return nil, err
		}

		e := &entry{fresh: true}
		c.cacheMap.Put(outpoint, e)

		return e, nil
	}

	e := &entry{coin: coin}
	c.cacheMap.Put(outpoint, e)
	c.usage += coin.EstimateSize()

	return e, nil
}

// Get returns the coin for outpoint or ErrUtxoNotFound. The returned coin is
// shared with the overlay and must not be mutated.
func (c *CachedStore) Get(ctx context.Context, outpoint model.Outpoint) (*model.Coin, error) {
	prometheusCachedStoreGet.Inc()

	c.mu.RLock()

	if e, ok := c.cacheMap.Get(outpoint); ok {
		coin := e.coin
		c.mu.RUnlock()

		if coin == nil {
			return nil, errors.NewUtxoNotFoundError("%s not found", outpoint)
		}

		return coin, nil
	}

	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.fetch(ctx, outpoint)
	if err != nil {
		return nil, err
	}

	if e.coin == nil {
		return nil, errors.NewUtxoNotFoundError("%s not found", outpoint)
	}

	return e.coin, nil
}

// AddCoin records a newly created coin. Unspendable data outputs are skipped.
// Without overwrite, adding on top of a live coin is ErrTxInvalid: the caller
// tried to create a duplicate outpoint. Whether the coin can be marked fresh
// is decided locally, the same way a connect decides it: an entry that is
// absent or a non-dirty tombstone cannot exist live in the parent chain, a
// dirty tombstone means the parent still holds a live coin whose deletion has
// not been flushed, so the new coin must not be fresh.
func (c *CachedStore) AddCoin(outpoint model.Outpoint, coin *model.Coin, overwrite bool) error {
	if coin == nil {
		return errors.NewInvalidArgumentError("cannot add nil coin for %s", outpoint)
	}

	if coin.Script != nil && coin.Script.IsData() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.cacheMap.Get(outpoint)
	if !ok {
		e = &entry{}
		c.cacheMap.Put(outpoint, e)
	} else if e.coin != nil {
		if !overwrite {
			return errors.NewTxInvalidError("attempted to overwrite unspent coin %s", outpoint)
		}

		c.usage -= e.coin.EstimateSize()
	}

	if !overwrite {
		e.fresh = !e.dirty
	}

	e.coin = coin
	e.dirty = true
	c.usage += coin.EstimateSize()

	return nil
}

// SpendCoin removes the coin for outpoint and returns it. A fresh entry is
// erased outright, anything else becomes a dirty tombstone so the deletion
// reaches the parent on the next flush.
func (c *CachedStore) SpendCoin(ctx context.Context, outpoint model.Outpoint) (*model.Coin, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.fetch(ctx, outpoint)
	if err != nil {
		return nil, err
	}

	if e.coin == nil {
		return nil, errors.NewUtxoNotFoundError("%s not found", outpoint)
	}

	coin := e.coin
	c.usage -= coin.EstimateSize()

	if e.fresh {
		c.cacheMap.Delete(outpoint)
	} else {
		e.coin = nil
		e.dirty = true
	}

	return coin, nil
}

// SetBestBlock records the block the overlay's coin state corresponds to. The
// marker is handed to the parent on the next flush.
func (c *CachedStore) SetBestBlock(bestBlock *coins.BestBlock) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if bestBlock == nil {
		c.bestBlock = nil
		return
	}

	bb := *bestBlock
	c.bestBlock = &bb
}

// GetBestBlock returns the overlay's marker, falling back to the parent's and
// memoizing it.
func (c *CachedStore) GetBestBlock(ctx context.Context) (*coins.BestBlock, error) {
	c.mu.RLock()

	if c.bestBlock != nil {
		bb := *c.bestBlock
		c.mu.RUnlock()

		return &bb, nil
	}

	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bestBlock == nil {
		bestBlock, err := c.parent.GetBestBlock(ctx)
		if err != nil {
			return nil, err
		}

		if bestBlock == nil {
			return nil, nil
		}

		c.bestBlock = bestBlock
	}

	bb := *c.bestBlock

	return &bb, nil
}

// buildBatch collects the dirty entries into a batch. Must be called with the
// lock held.
func (c *CachedStore) buildBatch() *coins.BatchWrite {
	batch := &coins.BatchWrite{
		BestBlock: c.bestBlock,
	}

	c.cacheMap.Iter(func(outpoint model.Outpoint, e *entry) bool {
		if e.dirty {
			batch.Coins = append(batch.Coins, coins.BatchedCoin{
				Outpoint: outpoint,
				Coin:     e.coin,
				Fresh:    e.fresh,
			})
		}

		return false
	})

	return batch
}

// Flush drains every dirty entry into a single batch write on the parent and
// clears the overlay. The write lock is held for the whole drain, so readers
// never observe a partially flushed layer. On parent failure the overlay is
// left exactly as it was.
func (c *CachedStore) Flush(ctx context.Context) error {
	start := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	batch := c.buildBatch()

	if len(batch.Coins) == 0 && batch.BestBlock == nil {
		return nil
	}

	if err := c.parent.BatchWrite(ctx, batch); err != nil {
		return errors.NewProcessingError("[CachedStore] flush of %d entries failed", len(batch.Coins), err)
	}

	c.logger.Debugf("[CachedStore] flushed %d entries in %s", len(batch.Coins), time.Since(start))

	c.cacheMap.Clear()
	c.usage = 0
	c.bestBlock = nil

	prometheusCachedStoreFlush.Observe(float64(time.Since(start).Microseconds()) / 1_000_000)
	prometheusCachedStoreFlushSize.Observe(float64(len(batch.Coins)))

	return nil
}

// BatchWrite ingests a child layer's flush. Entries merge by the fresh and
// dirty rules: a fresh spent child entry that is absent here never existed
// below the child and is skipped, a spent child entry landing on a fresh
// local entry erases it outright, and a fresh child entry landing on a live
// local coin means the fresh flag was misapplied by the layer above.
func (c *CachedStore) BatchWrite(_ context.Context, batch *coins.BatchWrite) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, bc := range batch.Coins {
		e, ok := c.cacheMap.Get(bc.Outpoint)
		if !ok {
			if bc.Fresh && bc.Coin == nil {
				continue
			}

			e = &entry{coin: bc.Coin, dirty: true, fresh: bc.Fresh}
			c.cacheMap.Put(bc.Outpoint, e)

			if bc.Coin != nil {
				c.usage += bc.Coin.EstimateSize()
			}

			continue
		}

		if bc.Fresh && e.coin != nil {
			return errors.NewProcessingError("fresh flag misapplied to %s, coin is live in the parent layer", bc.Outpoint)
		}

		if e.coin != nil {
			c.usage -= e.coin.EstimateSize()
		}

		if e.fresh && bc.Coin == nil {
			c.cacheMap.Delete(bc.Outpoint)
			continue
		}

		// Keeping the local fresh flag is required here: marking the entry
		// fresh from the child would hide a spend still pending below.
		e.coin = bc.Coin
		e.dirty = true

		if bc.Coin != nil {
			c.usage += bc.Coin.EstimateSize()
		}
	}

	if batch.BestBlock != nil {
		bb := *batch.BestBlock
		c.bestBlock = &bb
	}

	return nil
}

// Health reports the parent's health. The overlay itself has no failure mode
// beyond memory pressure.
func (c *CachedStore) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	return c.parent.Health(ctx, checkLiveness)
}

// Close drops the overlay without flushing. The parent is not closed: it is
// owned by whoever constructed the layer stack.
func (c *CachedStore) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cacheMap.Clear()
	c.usage = 0
	c.bestBlock = nil

	return nil
}

// Count returns the number of entries in the overlay, tombstones included.
func (c *CachedStore) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.cacheMap.Count()
}

// DynamicMemoryUsage approximates the overlay's memory footprint in bytes,
// used for flush threshold decisions.
func (c *CachedStore) DynamicMemoryUsage() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.usage + uint64(c.cacheMap.Count())*entryOverheadBytes
}

// Unflushed returns the batch a Flush would currently send to the parent.
func (c *CachedStore) Unflushed() []coins.BatchedCoin {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.buildBatch().Coins
}
