package parallel

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gatewarden/gatewarden/gateway"
	"github.com/gatewarden/gatewarden/gateway/schedulers"

	"github.com/prometheus/client_golang/prometheus"
)

// Scheduler is a parallel scheduler that will run work on a fixed number of workers.
//
// Work is queued in a buffer of maxQueue events. AddWork only blocks when that buffer is
// full, which is the backpressure path under a join burst. There is no per-key ordering:
// two events for the same account can be handled at the same time by different workers.
type Scheduler struct {
	maxConcurrency int
	maxQueue       int

	do schedulers.HandlerFunc

	feeder chan *gateway.ShardEvent

	// passed to every task; cancelled when Shutdown runs out of time
	taskCtx     context.Context
	cancelTasks context.CancelFunc

	lk      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup

	ident string

	// metrics
	itemsAdded     prometheus.Counter
	itemsProcessed prometheus.Counter
	itemsFailed    prometheus.Counter
	itemsActive    prometheus.Gauge
	workersActive  prometheus.Gauge

	log *slog.Logger
}

var _ gateway.Scheduler = (*Scheduler)(nil)

func NewScheduler(maxC, maxQ int, ident string, do schedulers.HandlerFunc) *Scheduler {
	if maxC < 1 {
		maxC = 1
	}
	if maxQ < 0 {
		maxQ = 0
	}
	taskCtx, cancel := context.WithCancel(context.Background())
	p := &Scheduler{
		maxConcurrency: maxC,
		maxQueue:       maxQ,

		do: do,

		feeder: make(chan *gateway.ShardEvent, maxQ),

		taskCtx:     taskCtx,
		cancelTasks: cancel,

		ident: ident,

		itemsAdded:     schedulers.WorkItemsAdded.WithLabelValues(ident, "parallel"),
		itemsProcessed: schedulers.WorkItemsProcessed.WithLabelValues(ident, "parallel"),
		itemsFailed:    schedulers.WorkItemsFailed.WithLabelValues(ident, "parallel"),
		itemsActive:    schedulers.WorkItemsActive.WithLabelValues(ident, "parallel"),
		workersActive:  schedulers.WorkersActive.WithLabelValues(ident, "parallel"),

		log: slog.Default().With("system", "parallel-scheduler"),
	}

	p.wg.Add(maxC)
	for i := 0; i < maxC; i++ {
		go p.worker()
	}

	p.workersActive.Add(float64(maxC))

	return p
}

func (p *Scheduler) AddWork(ctx context.Context, val *gateway.ShardEvent) error {
	p.lk.RLock()
	defer p.lk.RUnlock()
	if p.stopped {
		return schedulers.ErrShutdown
	}

	select {
	case p.feeder <- val:
		p.itemsAdded.Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stops accepting work and waits for queued and in-flight events to finish. If ctx expires
// first, the context handed to tasks is cancelled and ctx.Err() is returned without waiting
// further.
//
// Must not be called concurrently with AddWork.
func (p *Scheduler) Shutdown(ctx context.Context) error {
	p.lk.Lock()
	if p.stopped {
		p.lk.Unlock()
		return nil
	}
	p.stopped = true
	close(p.feeder)
	p.lk.Unlock()

	p.log.Info("shutting down parallel scheduler", "ident", p.ident, "queued", len(p.feeder))

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancelTasks()
		p.log.Info("parallel scheduler shutdown complete")
		return nil
	case <-ctx.Done():
		p.cancelTasks()
		p.log.Warn("parallel scheduler drain timed out, cancelling in-flight work", "ident", p.ident)
		return ctx.Err()
	}
}

func (p *Scheduler) worker() {
	defer p.wg.Done()
	defer p.workersActive.Dec()

	for evt := range p.feeder {
		p.itemsActive.Inc()
		if err := schedulers.RunTask(p.taskCtx, p.do, evt); err != nil {
			p.itemsFailed.Inc()
			p.log.Error("event handler failed", "shard", evt.ShardID, "type", evt.Type, "err", err)
		}
		p.itemsActive.Dec()
		p.itemsProcessed.Inc()
	}
}
