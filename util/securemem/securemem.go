// Package securemem provides a locked memory arena for buffers that must not
// reach swap, such as script interpreter scratch space holding key material.
//
// Buffers are allocated off-heap via mmap so neither GOGC nor GC moves touch
// them, then pinned with mlock up to a configured budget. When the kernel
// refuses to lock (for example RLIMIT_MEMLOCK) or the budget is spent, the
// arena falls back to unlocked memory and reports it, unless strict mode
// turns the fallback into an error. Every buffer is zeroed on free; freed
// locked chunks are kept on a free list for reuse so the mlock syscall cost
// is paid once per chunk size.
package securemem

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/ulogger"
)

// Arena hands out page-aligned locked buffers and enforces the lock budget.
type Arena struct {
	logger      ulogger.Logger
	budgetBytes uint64
	strict      bool

	mu          sync.Mutex
	lockedBytes uint64
	liveBuffers int
	fallbacks   uint64
	reused      uint64

	// zeroed, still-locked chunks by size, ready for reuse
	freeList map[int][][]byte
}

// Buffer is a single allocation from an Arena. Free must be called exactly
// once the buffer is no longer needed; the data slice must not be used
// afterwards.
type Buffer struct {
	arena  *Arena
	data   []byte // full mmap'd region, page aligned
	n      int    // requested length
	locked bool
	freed  bool
}

// ArenaStats is a snapshot of arena usage.
type ArenaStats struct {
	Locked   uint64
	Budget   uint64
	Fallback uint64
	Live     int
	Reused   uint64
}

// NewArena creates an arena that locks at most budgetBytes of memory. With
// strict set, an allocation that cannot be locked fails instead of falling
// back to unlocked memory.
func NewArena(logger ulogger.Logger, budgetBytes uint64, strict bool) *Arena {
	initPrometheusMetrics()

	return &Arena{
		logger:      logger,
		budgetBytes: budgetBytes,
		strict:      strict,
		freeList:    make(map[int][][]byte),
	}
}

// Alloc returns a zeroed buffer of n bytes backed by page-aligned locked
// memory when the budget allows it.
func (a *Arena) Alloc(n int) (*Buffer, error) {
	if n <= 0 {
		return nil, errors.NewInvalidArgumentError("[SecureMem] allocation size %d must be positive", n)
	}

	pageSize := os.Getpagesize()
	size := ((n + pageSize - 1) / pageSize) * pageSize

	a.mu.Lock()

	if chunks := a.freeList[size]; len(chunks) > 0 {
		data := chunks[len(chunks)-1]
		a.freeList[size] = chunks[:len(chunks)-1]

		a.reused++
		a.liveBuffers++
		prometheusSecureMemLiveBuffers.Set(float64(a.liveBuffers))

		a.mu.Unlock()

		return &Buffer{arena: a, data: data, n: n, locked: true}, nil
	}

	a.mu.Unlock()

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.NewProcessingError("[SecureMem] cannot allocate %d bytes via mmap", size, err)
	}

	buf := &Buffer{
		arena: a,
		data:  data,
		n:     n,
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	withinBudget := a.lockedBytes+uint64(size) <= a.budgetBytes

	if withinBudget {
		if err = unix.Mlock(data); err == nil {
			buf.locked = true
			a.lockedBytes += uint64(size)
			prometheusSecureMemLockedBytes.Set(float64(a.lockedBytes))
		}
	}

	if !buf.locked {
		if a.strict {
			_ = unix.Munmap(data)

			if !withinBudget {
				return nil, errors.NewMemoryBudgetError("[SecureMem] lock budget exhausted: %d of %d bytes locked, need %d more", a.lockedBytes, a.budgetBytes, size)
			}

			return nil, errors.NewMemoryBudgetError("[SecureMem] mlock of %d bytes refused", size, err)
		}

		a.fallbacks++
		prometheusSecureMemFallbacks.Inc()

		if !withinBudget {
			a.logger.Warnf("[SecureMem] lock budget exhausted (%d of %d bytes), handing out unlocked buffer of %d bytes", a.lockedBytes, a.budgetBytes, size)
		} else {
			a.logger.Warnf("[SecureMem] mlock of %d bytes refused, handing out unlocked buffer: %v", size, err)
		}
	}

	a.liveBuffers++
	prometheusSecureMemLiveBuffers.Set(float64(a.liveBuffers))

	return buf, nil
}

func (a *Arena) Stats() ArenaStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return ArenaStats{
		Locked:   a.lockedBytes,
		Budget:   a.budgetBytes,
		Fallback: a.fallbacks,
		Live:     a.liveBuffers,
		Reused:   a.reused,
	}
}

// Close releases the free list. Live buffers stay valid until freed.
func (a *Arena) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for size, chunks := range a.freeList {
		for _, data := range chunks {
			_ = unix.Munlock(data)
			_ = unix.Munmap(data)

			a.lockedBytes -= uint64(size)
		}
	}

	a.freeList = make(map[int][][]byte)
	prometheusSecureMemLockedBytes.Set(float64(a.lockedBytes))
}

// Bytes returns the usable region of the buffer.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.n]
}

// Locked reports whether the pages behind the buffer are pinned in memory.
func (b *Buffer) Locked() bool {
	return b.locked
}

// Zero overwrites the whole underlying region. The buffer stays usable.
func (b *Buffer) Zero() {
	for i := range b.data {
		b.data[i] = 0
	}
}

// Free zeroes the buffer and returns it to the arena. Locked chunks go to
// the free list still pinned; unlocked ones go back to the kernel. Free is
// idempotent.
func (b *Buffer) Free() {
	if b.freed {
		return
	}

	b.freed = true

	b.Zero()

	a := b.arena

	a.mu.Lock()

	a.liveBuffers--
	prometheusSecureMemLiveBuffers.Set(float64(a.liveBuffers))

	if b.locked {
		size := len(b.data)
		a.freeList[size] = append(a.freeList[size], b.data)
		a.mu.Unlock()

		b.data = nil

		return
	}

	a.mu.Unlock()

	_ = unix.Munmap(b.data)
	b.data = nil
}
