package logger

import (
	"context"

	"github.com/utxonet/chainstate/model"
	"github.com/utxonet/chainstate/stores/coins"
	"github.com/utxonet/chainstate/ulogger"
)

// Store wraps another coins.Store and logs every call with its outcome.
// Enabled through the logging=true query parameter on the store URL.
type Store struct {
	logger ulogger.Logger
	store  coins.Store
}

func New(logger ulogger.Logger, store coins.Store) coins.Store {
	return &Store{
		logger: logger,
		store:  store,
	}
}

func (s *Store) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	s.logger.Infof("[CoinStore][logger][Health] checkLiveness %t", checkLiveness)
	return s.store.Health(ctx, checkLiveness)
}

func (s *Store) Get(ctx context.Context, outpoint model.Outpoint) (*model.Coin, error) {
	coin, err := s.store.Get(ctx, outpoint)

	if coin != nil {
		s.logger.Infof("[CoinStore][logger][Get] outpoint %s value %d height %d coinbase %t err %v",
			outpoint, coin.Value, coin.Height, coin.Coinbase, err)
	} else {
		s.logger.Infof("[CoinStore][logger][Get] outpoint %s coin <nil> err %v", outpoint, err)
	}

	return coin, err
}

func (s *Store) BatchWrite(ctx context.Context, batch *coins.BatchWrite) error {
	err := s.store.BatchWrite(ctx, batch)

	var upserts, deletes int

	for _, entry := range batch.Coins {
		if entry.Coin == nil {
			deletes++
		} else {
			upserts++
		}
	}

	if batch.BestBlock != nil {
		s.logger.Infof("[CoinStore][logger][BatchWrite] upserts %d deletes %d bestBlock %s height %d err %v",
			upserts, deletes, batch.BestBlock.Hash.String(), batch.BestBlock.Height, err)
	} else {
		s.logger.Infof("[CoinStore][logger][BatchWrite] upserts %d deletes %d err %v", upserts, deletes, err)
	}

	return err
}

func (s *Store) GetBestBlock(ctx context.Context) (*coins.BestBlock, error) {
	bestBlock, err := s.store.GetBestBlock(ctx)

	if bestBlock != nil {
		s.logger.Infof("[CoinStore][logger][GetBestBlock] %s height %d err %v", bestBlock.Hash.String(), bestBlock.Height, err)
	} else {
		s.logger.Infof("[CoinStore][logger][GetBestBlock] <nil> err %v", err)
	}

	return bestBlock, err
}

func (s *Store) Close() error {
	err := s.store.Close()
	s.logger.Infof("[CoinStore][logger][Close] err %v", err)

	return err
}
