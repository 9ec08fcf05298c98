package memory

import (
	"context"
	"net/http"
	"sync"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/model"
	"github.com/utxonet/chainstate/stores/coins"
	"github.com/utxonet/chainstate/ulogger"
)

// Memory keeps the whole coin set in a map. Used in tests and as the smallest
// possible backing store for a cache stack.
type Memory struct {
	logger ulogger.Logger

	mu        sync.RWMutex
	coinsMap  map[model.Outpoint]*model.Coin
	bestBlock *coins.BestBlock
}

func New(logger ulogger.Logger) *Memory {
	return &Memory{
		logger:   logger,
		coinsMap: make(map[model.Outpoint]*model.Coin),
	}
}

func (m *Memory) Health(_ context.Context, _ bool) (int, string, error) {
	return http.StatusOK, "Memory Store available", nil
}

func (m *Memory) Get(_ context.Context, outpoint model.Outpoint) (*model.Coin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coin, ok := m.coinsMap[outpoint]
	if !ok {
		return nil, errors.NewUtxoNotFoundError("%s not found", outpoint)
	}

	return coin.Clone(), nil
}

func (m *Memory) BatchWrite(_ context.Context, batch *coins.BatchWrite) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, entry := range batch.Coins {
		if entry.Coin == nil {
			delete(m.coinsMap, entry.Outpoint)
			continue
		}

		m.coinsMap[entry.Outpoint] = entry.Coin.Clone()
	}

	if batch.BestBlock != nil {
		bb := *batch.BestBlock
		m.bestBlock = &bb
	}

	return nil
}

func (m *Memory) GetBestBlock(_ context.Context) (*coins.BestBlock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.bestBlock == nil {
		return nil, nil
	}

	bb := *m.bestBlock

	return &bb, nil
}

// Count returns the number of coins held. Test helper.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.coinsMap)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.coinsMap = make(map[model.Outpoint]*model.Coin)
	m.bestBlock = nil

	return nil
}
