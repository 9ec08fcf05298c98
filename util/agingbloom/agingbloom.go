// Package agingbloom provides an approximate membership filter that forgets
// old entries by rotating bloom filter generations.
//
// Adds always go to the current generation. Once it has absorbed its share
// of the configured capacity the oldest generation is dropped and a fresh
// one becomes current. An element added since the last rotation is therefore
// always reported as present, and the filter remembers at least the last
// Capacity insertions in total; older elements fade out. False positives
// stay within the configured rate, split across the live generations.
package agingbloom

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/greatroar/blobloom"
	"go.uber.org/atomic"
)

// Config sizes a Filter.
type Config struct {
	// Capacity is the minimum number of most-recent insertions the filter
	// remembers.
	Capacity uint64
	// FPRate is the combined false positive rate across all generations.
	FPRate float64
	// Generations is the number of bloom filters kept, minimum 2. More
	// generations forget in finer steps at the cost of memory and lookup
	// work. Defaults to 2.
	Generations int
}

// Filter is safe for concurrent use.
type Filter struct {
	mu sync.RWMutex

	perGenCapacity uint64
	fpPerGen       float64

	// ring of generations, generations[current] receives adds
	generations []*blobloom.Filter
	current     int
	currentN    uint64

	inserts   atomic.Uint64
	queries   atomic.Uint64
	positives atomic.Uint64
	rotations atomic.Uint64
}

// Stats is a point-in-time snapshot of filter activity.
type Stats struct {
	Inserts   uint64
	Queries   uint64
	Positives uint64
	Rotations uint64
}

// New creates a filter from config, applying defaults for zero fields.
func New(config Config) *Filter {
	if config.Capacity == 0 {
		config.Capacity = 1
	}

	if config.FPRate <= 0 || config.FPRate >= 1 {
		config.FPRate = 1e-6
	}

	if config.Generations < 2 {
		config.Generations = 2
	}

	initPrometheusMetrics()

	// with g generations the filter holds up to g-1 full generations plus
	// the current one, so each generation takes capacity/(g-1) inserts
	perGen := config.Capacity / uint64(config.Generations-1) // nolint:gosec
	if perGen == 0 {
		perGen = 1
	}

	f := &Filter{
		perGenCapacity: perGen,
		fpPerGen:       config.FPRate / float64(config.Generations),
		generations:    make([]*blobloom.Filter, config.Generations),
	}

	f.generations[0] = f.newGeneration()

	return f
}

func (f *Filter) newGeneration() *blobloom.Filter {
	return blobloom.NewOptimized(blobloom.Config{
		Capacity: f.perGenCapacity,
		FPRate:   f.fpPerGen,
	})
}

// Add inserts key, rotating generations first if the current one is full.
func (f *Filter) Add(key []byte) {
	f.AddHash(xxhash.Sum64(key))
}

// AddHash inserts a pre-hashed key.
func (f *Filter) AddHash(h uint64) {
	f.mu.Lock()

	if f.currentN >= f.perGenCapacity {
		f.rotateLocked()
	}

	f.generations[f.current].Add(h)
	f.currentN++

	f.mu.Unlock()

	f.inserts.Inc()
	prometheusBloomInserts.Inc()
}

// Contains reports whether key may have been added within the live
// generations. A false return is always correct.
func (f *Filter) Contains(key []byte) bool {
	return f.ContainsHash(xxhash.Sum64(key))
}

// ContainsHash tests a pre-hashed key.
func (f *Filter) ContainsHash(h uint64) bool {
	f.mu.RLock()

	found := false

	for _, g := range f.generations {
		if g != nil && g.Has(h) {
			found = true
			break
		}
	}

	f.mu.RUnlock()

	f.queries.Inc()

	if found {
		f.positives.Inc()
	}

	return found
}

// Rotate forces a generation change, dropping the oldest live generation.
func (f *Filter) Rotate() {
	f.mu.Lock()
	f.rotateLocked()
	f.mu.Unlock()
}

func (f *Filter) rotateLocked() {
	f.current = (f.current + 1) % len(f.generations)
	f.generations[f.current] = f.newGeneration()
	f.currentN = 0

	f.rotations.Inc()
	prometheusBloomRotations.Inc()
}

// Count returns the number of insertions since creation or Reset, including
// ones already forgotten by rotation.
func (f *Filter) Count() uint64 {
	return f.inserts.Load()
}

// Reset drops all generations.
func (f *Filter) Reset() {
	f.mu.Lock()

	for i := range f.generations {
		f.generations[i] = nil
	}

	f.current = 0
	f.generations[0] = f.newGeneration()
	f.currentN = 0

	f.mu.Unlock()

	f.inserts.Store(0)
}

func (f *Filter) Stats() Stats {
	return Stats{
		Inserts:   f.inserts.Load(),
		Queries:   f.queries.Load(),
		Positives: f.positives.Load(),
		Rotations: f.rotations.Load(),
	}
}

// StatsProcessor periodically exports filter counters to prometheus until
// the context is cancelled.
func (f *Filter) StatsProcessor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := f.Stats()

				prometheusBloomQueries.Set(float64(stats.Queries))
				prometheusBloomPositives.Set(float64(stats.Positives))
			}
		}
	}()
}
