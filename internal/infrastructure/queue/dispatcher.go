package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/crmhub/accounts-api/internal/api/metrics"
	"github.com/crmhub/accounts-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher fans activity entries out to a fixed set of workers, sharded by
// account id so entries for one account are persisted in order.
type Dispatcher struct {
	workers []chan ports.ActivityInput
	service ports.ActivityService
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ ports.ActivityRecorder = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.ActivityService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.ActivityInput, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.ActivityInput, channelBuffer)
	}
	return d
}

// Start launches the workers. ctx is passed to every Process call; workers
// exit once Stop has closed their channel and it is drained.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an entry to the worker owning its account. It never blocks:
// when the worker channel is full, or the dispatcher is stopped, the entry is
// dropped and counted.
func (d *Dispatcher) Enqueue(in ports.ActivityInput) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.ActivityDroppedTotal.Inc()
		return
	}

	idx := d.shardIndex(in.AccountID)
	select {
	case d.workers[idx] <- in:
		metrics.ActivityQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.ActivityDroppedTotal.Inc()
		d.log.Warn().
			Str("account_id", in.AccountID).
			Str("action", string(in.Action)).
			Int("worker_id", idx).
			Msg("activity queue full, entry dropped")
	}
}

// Stop closes the worker channels and waits for pending entries to be
// persisted, or for ctx to expire.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps an account id deterministically to a worker index.
func (d *Dispatcher) shardIndex(accountID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(accountID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.ActivityInput) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for in := range ch {
		metrics.ActivityQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

		start := time.Now()
		err := d.service.Process(ctx, in)
		metrics.ActivityProcessingDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.ActivityErrorsTotal.Inc()
			d.log.Error().Err(err).
				Str("account_id", in.AccountID).
				Str("action", string(in.Action)).
				Int("worker_id", id).
				Msg("activity processing failed")
		}
	}
}
