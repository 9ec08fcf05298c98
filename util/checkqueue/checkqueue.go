// Package checkqueue provides a worker pool for batches of validity checks,
// typically script verifications for all inputs of a block.
//
// One batch is in flight at a time. The goroutine that owns the batch adds
// jobs through a Control and then joins the workers itself when it calls
// Wait, so a single-threaded configuration still makes progress. The batch
// verdict is nil only when every job returned nil; after the first failure
// remaining jobs are drained without being executed and the first error is
// what Wait returns.
package checkqueue

import (
	"runtime"
	"sync"

	"github.com/gammazero/deque"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/ulogger"
)

// errQueueClosed is the verdict handed to a master whose batch was cut short
// by Close.
var errQueueClosed = errors.NewServiceError("check queue closed")

// Job is a single check. Execute returns nil when the check passed. Jobs
// must be safe to run on any worker goroutine.
type Job interface {
	Execute() error
}

// Queue schedules jobs over a fixed pool of workers.
type Queue[T Job] struct {
	logger ulogger.Logger

	mu         sync.Mutex
	condWorker *sync.Cond
	condMaster *sync.Cond

	jobs deque.Deque[T]

	// number of loops participating, workers plus a waiting master
	total int
	// number of loops blocked waiting for jobs
	idle int
	// jobs queued or running that the current batch still has to account for
	todo int

	// first failure of the current batch, nil while all checks pass
	batchErr error

	quit bool

	batchSize int

	// held by the Control owning the current batch, serializing batches
	controlMu sync.Mutex

	workersDone sync.WaitGroup
}

// New starts a queue with the given number of worker goroutines. With zero
// workers all jobs run on the goroutine calling Wait. A workers value below
// zero selects one worker per CPU, capped at 15.
func New[T Job](logger ulogger.Logger, workers, batchSize int) *Queue[T] {
	if workers < 0 {
		workers = runtime.NumCPU()
		if workers > 15 {
			workers = 15
		}
	}

	if batchSize <= 0 {
		batchSize = 128
	}

	initPrometheusMetrics()

	q := &Queue[T]{
		logger:    logger,
		batchSize: batchSize,
	}

	q.condWorker = sync.NewCond(&q.mu)
	q.condMaster = sync.NewCond(&q.mu)

	q.workersDone.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer q.workersDone.Done()
			q.loop(false)
		}()
	}

	prometheusCheckQueueWorkers.Set(float64(workers))

	return q
}

// loop processes jobs until told to stop. The master variant returns the
// batch verdict once every job of the batch is accounted for.
func (q *Queue[T]) loop(master bool) error {
	cond := q.condWorker
	if master {
		cond = q.condMaster
	}

	batch := make([]T, 0, q.batchSize)

	var (
		// number of jobs picked up in the previous round, not yet folded
		// back into todo
		now     int
		loopErr error
	)

	for {
		q.mu.Lock()

		if now > 0 {
			// fold the previous round into the batch state, first
			// failure wins
			if loopErr != nil && q.batchErr == nil {
				q.batchErr = loopErr
			}

			q.todo -= now
			if q.todo == 0 && !master {
				// the last job of the batch finished on a worker, wake
				// the master so it can collect the verdict
				q.condMaster.Signal()
			}
		} else {
			q.total++
		}

		for q.jobs.Len() == 0 && !q.quit {
			if master && q.todo == 0 {
				q.total--

				verdict := q.batchErr
				q.batchErr = nil

				q.mu.Unlock()

				return verdict
			}

			q.idle++
			cond.Wait()
			q.idle--
		}

		if q.quit {
			q.total--
			q.mu.Unlock()

			return errQueueClosed
		}

		// aim for decreasing batch sizes so all loops finish about the
		// same time, accounting for idle loops that will join in
		now = q.jobs.Len() / (q.total + q.idle + 1)
		if now > q.batchSize {
			now = q.batchSize
		}

		if now < 1 {
			now = 1
		}

		batch = batch[:0]
		for i := 0; i < now; i++ {
			batch = append(batch, q.jobs.PopFront())
		}

		// a failed job poisons the batch, remaining jobs are drained
		// without being executed
		poisoned := q.batchErr != nil

		q.mu.Unlock()

		loopErr = nil

		for _, job := range batch {
			if poisoned || loopErr != nil {
				continue
			}

			loopErr = job.Execute()
		}

		var zero T
		for i := range batch {
			batch[i] = zero
		}
	}
}

// add queues jobs for the current batch.
func (q *Queue[T]) add(jobs []T) {
	if len(jobs) == 0 {
		return
	}

	q.mu.Lock()

	for _, job := range jobs {
		q.jobs.PushBack(job)
	}

	q.todo += len(jobs)

	q.mu.Unlock()

	if len(jobs) == 1 {
		q.condWorker.Signal()
	} else {
		q.condWorker.Broadcast()
	}

	prometheusCheckQueueJobs.Add(float64(len(jobs)))
}

// Close stops the workers. Jobs not yet executed are abandoned and a master
// still waiting gets an error verdict. The queue cannot be reused afterwards.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.quit = true
	q.mu.Unlock()

	q.condWorker.Broadcast()
	q.condMaster.Broadcast()

	q.workersDone.Wait()
}

// ControlHandle owns the in-flight batch. Batches from concurrent goroutines
// are serialized in acquisition order.
type ControlHandle[T Job] struct {
	queue *Queue[T]
	done  bool
}

// Control claims the queue for one batch, blocking while another batch is in
// flight.
func (q *Queue[T]) Control() *ControlHandle[T] {
	q.controlMu.Lock()

	return &ControlHandle[T]{queue: q}
}

// Add queues more jobs for this batch. Must not be called after Wait.
func (c *ControlHandle[T]) Add(jobs []T) {
	if c.done {
		panic("checkqueue: Add after Wait")
	}

	c.queue.add(jobs)
}

// Wait runs jobs on the calling goroutine until the batch is complete and
// returns nil when every job passed, or the first failure. The queue is
// released for the next batch.
func (c *ControlHandle[T]) Wait() error {
	if c.done {
		panic("checkqueue: Wait called twice")
	}

	c.done = true

	verdict := c.queue.loop(true)

	if verdict != nil {
		prometheusCheckQueueFailedBatches.Inc()
	}

	c.queue.controlMu.Unlock()

	return verdict
}
