package nullstore

import (
	"context"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/model"
	"github.com/utxonet/chainstate/stores/coins"
)

// NullStore discards every write and knows no coins. Useful for benchmarks
// where the cache should never find anything below itself.
type NullStore struct {
}

func NewNullStore() (*NullStore, error) {
	return &NullStore{}, nil
}

func (m *NullStore) Health(_ context.Context, _ bool) (int, string, error) {
	return 0, "NullStore Store", nil
}

func (m *NullStore) Get(_ context.Context, outpoint model.Outpoint) (*model.Coin, error) {
	return nil, errors.NewUtxoNotFoundError("%s not found", outpoint)
}

func (m *NullStore) BatchWrite(_ context.Context, _ *coins.BatchWrite) error {
	return nil
}

func (m *NullStore) GetBestBlock(_ context.Context) (*coins.BestBlock, error) {
	return nil, nil
}

func (m *NullStore) Close() error {
	return nil
}
