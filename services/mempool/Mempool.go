package mempool

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	txmap "github.com/bsv-blockchain/go-tx-map"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/ordishs/gocore"
	"go.uber.org/atomic"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/model"
	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/ulogger"
	"github.com/utxonet/chainstate/util/agingbloom"
	"github.com/utxonet/chainstate/util/kafka"
)

// Mempool holds unconfirmed transactions under the admission and eviction
// policy. One mutex guards the DAG, the feerate index and the aggregates;
// the entry and spender maps are additionally synced so membership queries
// never take it.
type Mempool struct {
	logger   ulogger.Logger
	settings *settings.Settings
	clk      clock.Clock
	stats    *gocore.Stat

	mu      sync.Mutex
	entries *txmap.SyncedMap[chainhash.Hash, *Entry]
	spends  *txmap.SyncedMap[model.Outpoint, *Entry]
	index   feerateIndex

	sequence uint64
	usage    atomic.Uint64

	rolling *rollingFee

	// policy verdicts depend on the fee climate and the chain height, so
	// they are cleared on every confirmed block; consensus verdicts only
	// age out of their filter.
	policyRejects    *agingbloom.Filter
	consensusRejects *agingbloom.Filter

	events *notifier
}

var _ Interface = (*Mempool)(nil)

// ServiceOption configures a Mempool at construction.
type ServiceOption func(*Mempool)

// WithClock replaces the wall clock, letting tests drive expiry and fee
// decay deterministically.
func WithClock(clk clock.Clock) ServiceOption {
	return func(m *Mempool) {
		m.clk = clk
	}
}

// WithEventsProducer publishes admissions and removals to the mempool
// events topic.
func WithEventsProducer(producer kafka.AsyncProducerI) ServiceOption {
	return func(m *Mempool) {
		m.events.producer = producer
	}
}

// New creates an empty pool with the configured limits.
func New(logger ulogger.Logger, tSettings *settings.Settings, opts ...ServiceOption) *Mempool {
	initPrometheusMetrics()

	rejectsConfig := agingbloom.Config{
		Capacity: uint64(tSettings.Mempool.RecentRejectsCapacity), // nolint:gosec
		FPRate:   tSettings.Mempool.RecentRejectsFPRate,
	}

	m := &Mempool{
		logger:           logger,
		settings:         tSettings,
		clk:              clock.NewDefaultClock(),
		stats:            gocore.NewStat("mempool"),
		entries:          txmap.NewSyncedMap[chainhash.Hash, *Entry](),
		spends:           txmap.NewSyncedMap[model.Outpoint, *Entry](),
		policyRejects:    agingbloom.New(rejectsConfig),
		consensusRejects: agingbloom.New(rejectsConfig),
		events:           &notifier{buffer: tSettings.Mempool.NotificationBuffer},
	}

	for _, opt := range opts {
		opt(m)
	}

	m.rolling = newRollingFee(m.clk, tSettings.Mempool.RollingFeeHalflife, tSettings.Mempool.MinFeeRateFloor)

	return m
}

// Start runs the expiry sweep until ctx is done. The pool works without it,
// the daemon calls it once.
func (m *Mempool) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.clk.TickAfter(m.settings.Mempool.ExpiryCheckInterval):
				m.EvictExpired(ctx)
			}
		}
	}()
}

// Close closes the subscriber channels. The pool itself needs no teardown.
func (m *Mempool) Close() {
	m.events.close()
}

// Health reports pool health. With checkLiveness only the service itself is
// checked, otherwise the counts are included in the message.
func (m *Mempool) Health(_ context.Context, checkLiveness bool) (int, string, error) {
	prometheusMempoolHealth.Inc()

	if checkLiveness {
		return http.StatusOK, "OK", nil
	}

	return http.StatusOK, fmt.Sprintf("OK: %d entries, %d bytes", m.Size(), m.Bytes()), nil
}

// Size returns the number of entries in the pool. Lock free.
func (m *Mempool) Size() int {
	return m.entries.Length()
}

// Bytes returns the serialized size of all entries in the pool. Lock free.
func (m *Mempool) Bytes() uint64 {
	return m.usage.Load()
}

// Contains reports whether txid is in the pool. Lock free.
func (m *Mempool) Contains(txid chainhash.Hash) bool {
	return m.entries.Exists(txid)
}

// Get returns the entry for txid. Lock free. The entry is shared, treat it
// as read only.
func (m *Mempool) Get(txid chainhash.Hash) (*Entry, bool) {
	return m.entries.Get(txid)
}

// SpenderOf returns the in-pool transaction spending outpoint. Lock free.
func (m *Mempool) SpenderOf(outpoint model.Outpoint) (*Entry, bool) {
	return m.spends.Get(outpoint)
}

// GetRollingMinFee returns the admission bar in satoshis per byte after
// decay.
func (m *Mempool) GetRollingMinFee() float64 {
	return m.rolling.current(m.usage.Load(), m.settings.Mempool.MaxSizeBytes)
}

// Snapshot returns the entries best score first, for fee estimation and
// relay. The slice is fresh, the entries are shared.
func (m *Mempool) Snapshot() []*Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.index.descending()
}

// Subscribe returns a channel of admissions and removals, buffered per the
// notification buffer setting. Events beyond a full buffer are dropped, the
// pool never waits for a subscriber.
func (m *Mempool) Subscribe() <-chan Notification {
	return m.events.subscribe()
}

// DroppedNotifications returns how many events were lost to full subscriber
// buffers.
func (m *Mempool) DroppedNotifications() uint64 {
	return m.events.dropped.Load()
}

// MarkRejected remembers a rejected txid so repeated relay of the same
// transaction is dropped before validation. Orphans are not remembered at
// all, they may become valid when the parent arrives.
func (m *Mempool) MarkRejected(txid chainhash.Hash, rejectErr error) {
	if rejectErr == nil {
		return
	}

	switch {
	case errors.Is(rejectErr, errors.ErrTxMissingParent):
		return
	case errors.Is(rejectErr, errors.ErrTxInvalid), errors.Is(rejectErr, errors.ErrBlockInvalid):
		m.consensusRejects.Add(txid[:])
	default:
		m.policyRejects.Add(txid[:])
	}
}

// SeenRejected reports whether txid was recently rejected for any reason.
func (m *Mempool) SeenRejected(txid chainhash.Hash) bool {
	return m.policyRejects.Contains(txid[:]) || m.consensusRejects.Contains(txid[:])
}

func (m *Mempool) updateGauges() {
	prometheusMempoolEntries.Set(float64(m.entries.Length()))
	prometheusMempoolBytes.Set(float64(m.usage.Load()))
	prometheusMempoolRollingMinFee.Set(m.rolling.rate.Load())
}
