package mempool

import (
	"math"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"go.uber.org/atomic"
)

// rollingFee is the admission bar raised by size-limit evictions. It halves
// once per halflife, twice or four times as fast while the pool sits below
// half or a quarter of its byte cap, and snaps to zero under the floor so a
// quiet pool goes back to accepting anything.
//
// Decay is applied lazily on read. Concurrent reads race the stored value
// harmlessly: every writer derives it from the same bump, and the writes
// that matter happen under the pool mutex.
type rollingFee struct {
	clk      clock.Clock
	halflife time.Duration
	floor    float64

	rate      atomic.Float64
	updatedAt atomic.Int64 // unix nanos of the last bump or decay step
}

func newRollingFee(clk clock.Clock, halflife time.Duration, floor float64) *rollingFee {
	r := &rollingFee{
		clk:      clk,
		halflife: halflife,
		floor:    floor,
	}
	r.updatedAt.Store(clk.Now().UnixNano())

	return r
}

// bump raises the bar to rate when that is higher and restarts decay.
func (r *rollingFee) bump(rate float64) {
	if rate > r.rate.Load() {
		r.rate.Store(rate)
	}

	r.updatedAt.Store(r.clk.Now().UnixNano())
}

// current returns the bar after decaying it for the time since the last
// update. Pool fullness picks the effective halflife.
func (r *rollingFee) current(poolBytes, maxPoolBytes uint64) float64 {
	rate := r.rate.Load()
	if rate == 0 {
		return 0
	}

	now := r.clk.Now()

	elapsed := now.Sub(time.Unix(0, r.updatedAt.Load()))
	if elapsed <= 0 {
		return rate
	}

	halflife := r.halflife

	switch {
	case poolBytes < maxPoolBytes/4:
		halflife /= 4
	case poolBytes < maxPoolBytes/2:
		halflife /= 2
	}

	rate /= math.Pow(2, float64(elapsed)/float64(halflife))
	if rate < r.floor {
		rate = 0
	}

	r.rate.Store(rate)
	r.updatedAt.Store(now.UnixNano())

	return rate
}
