package mempool

import (
	"context"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/settings"
)

func TestTrimEvictsLowestFeerate(t *testing.T) {
	clk := clock.NewTestClock(time.Unix(1_000_000, 0))

	m := newTestPool(t, func(s *settings.Settings) {
		s.Mempool.MaxSizeBytes = 100
	}, WithClock(clk))

	txA := newPoolTx(t, confirmedRef("a", 10_000))
	txB := newPoolTx(t, confirmedRef("b", 10_000))

	admit(t, m, txA, 60, 60)

	result := admit(t, m, txB, 300, 60)
	assert.False(t, result.Evicted)

	assert.Equal(t, 1, m.Size())
	assert.Equal(t, uint64(60), m.Bytes())
	assert.False(t, m.Contains(*txA.TxIDChainHash()))
	assert.True(t, m.Contains(*txB.TxIDChainHash()))

	// the bar moved above the evicted feerate of 1 by the incremental step
	assert.InDelta(t, 1.0+m.settings.Mempool.IncrementalFeeRate, m.GetRollingMinFee(), 1e-9)

	below := newPoolTx(t, confirmedRef("below", 10_000))

	belowResult, err := m.TryAdmit(context.Background(), below, fees(45, 30))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrThresholdExceeded))
	assert.Equal(t, "mempool min fee not met", belowResult.RejectReason)

	above := newPoolTx(t, confirmedRef("above", 10_000))
	admit(t, m, above, 90, 30)
}

func TestTrimEvictsPackagesNotEntries(t *testing.T) {
	m := newTestPool(t, func(s *settings.Settings) {
		s.Mempool.MaxSizeBytes = 180
	})

	// parent at 1 sat/b is priced as its package: (60+600)/(60+60) = 5.5
	parent := newPoolTx(t, confirmedRef("parent", 10_000))
	child := newPoolTx(t, childRef(parent, 0))
	loner := newPoolTx(t, confirmedRef("loner", 10_000))

	admit(t, m, parent, 60, 60)
	admit(t, m, child, 600, 60)
	admit(t, m, loner, 120, 60)

	first := newPoolTx(t, confirmedRef("first", 10_000))
	admit(t, m, first, 360, 60)

	// the loner at 2 sat/b goes before the cheap parent held by its child
	assert.False(t, m.Contains(*loner.TxIDChainHash()))
	assert.True(t, m.Contains(*parent.TxIDChainHash()))
	assert.True(t, m.Contains(*child.TxIDChainHash()))
	assert.Equal(t, uint64(180), m.Bytes())

	second := newPoolTx(t, confirmedRef("second", 10_000))
	admit(t, m, second, 420, 60)

	// now the parent package is lowest and leaves whole, no orphaned child
	assert.False(t, m.Contains(*parent.TxIDChainHash()))
	assert.False(t, m.Contains(*child.TxIDChainHash()))
	assert.True(t, m.Contains(*first.TxIDChainHash()))
	assert.True(t, m.Contains(*second.TxIDChainHash()))
	assert.Equal(t, 2, m.Size())
}

func TestTrimEvictsJustAdmitted(t *testing.T) {
	m := newTestPool(t, func(s *settings.Settings) {
		s.Mempool.MaxSizeBytes = 100
	})

	keeper := newPoolTx(t, confirmedRef("keeper", 10_000))
	admit(t, m, keeper, 500, 60)

	cheap := newPoolTx(t, confirmedRef("cheap", 10_000))

	result, err := m.TryAdmit(context.Background(), cheap, fees(60, 60))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMempoolFull))
	assert.False(t, result.Accepted)
	assert.True(t, result.Evicted)
	assert.Equal(t, "mempool full", result.RejectReason)

	assert.Equal(t, 1, m.Size())
	assert.True(t, m.Contains(*keeper.TxIDChainHash()))
	assert.False(t, m.Contains(*cheap.TxIDChainHash()))
}

func TestEvictExpired(t *testing.T) {
	start := time.Unix(1_000_000, 0)
	clk := clock.NewTestClock(start)

	m := newTestPool(t, nil, WithClock(clk))

	parent := newPoolTx(t, confirmedRef("funding", 10_000))
	admit(t, m, parent, 100, 100)

	// the child is young when the parent expires but cascades with it
	clk.SetTime(start.Add(200 * time.Hour))

	child := newPoolTx(t, childRef(parent, 0))
	admit(t, m, child, 100, 100)

	clk.SetTime(start.Add(340 * time.Hour))

	events := m.Subscribe()

	removed := m.EvictExpired(context.Background())
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, m.Size())
	assert.Equal(t, uint64(0), m.Bytes())

	for i := 0; i < 2; i++ {
		event := <-events
		assert.Equal(t, NotificationRemoved, event.Type)
		assert.Equal(t, ReasonExpiry, event.Reason)
	}

	assert.Equal(t, 0, m.EvictExpired(context.Background()))
}

func TestStartRunsExpirySweep(t *testing.T) {
	start := time.Unix(1_000_000, 0)
	tickSignal := make(chan time.Duration, 10)
	clk := clock.NewTestClockWithTickSignal(start, tickSignal)

	m := newTestPool(t, nil, WithClock(clk))

	admit(t, m, newPoolTx(t, confirmedRef("funding", 10_000)), 100, 100)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Start(ctx)

	// wait for the sweep loop to arm its ticker before moving time
	interval := <-tickSignal
	assert.Equal(t, m.settings.Mempool.ExpiryCheckInterval, interval)

	clk.SetTime(start.Add(m.settings.Mempool.EntryExpiry + 2*time.Hour))

	require.Eventually(t, func() bool {
		return m.Size() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
