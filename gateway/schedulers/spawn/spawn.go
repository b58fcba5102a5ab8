package spawn

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gatewarden/gatewarden/gateway"
	"github.com/gatewarden/gatewarden/gateway/schedulers"

	"github.com/prometheus/client_golang/prometheus"
)

// Scheduler starts a new goroutine for every event. There is no bound on concurrency, so a
// burst of events turns directly in to a burst of concurrent admin API calls.
type Scheduler struct {
	do schedulers.HandlerFunc

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

	log *slog.Logger
}

var _ gateway.Scheduler = (*Scheduler)(nil)

func NewScheduler(ident string, do schedulers.HandlerFunc) *Scheduler {
	taskCtx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		do: do,

		taskCtx:     taskCtx,
		cancelTasks: cancel,

		ident: ident,

		itemsAdded:     schedulers.WorkItemsAdded.WithLabelValues(ident, "spawn"),
		itemsProcessed: schedulers.WorkItemsProcessed.WithLabelValues(ident, "spawn"),
		itemsFailed:    schedulers.WorkItemsFailed.WithLabelValues(ident, "spawn"),
		itemsActive:    schedulers.WorkItemsActive.WithLabelValues(ident, "spawn"),

		log: slog.Default().With("system", "spawn-scheduler"),
	}
}

func (s *Scheduler) AddWork(ctx context.Context, val *gateway.ShardEvent) error {
	s.lk.RLock()
	defer s.lk.RUnlock()
	if s.stopped {
		return schedulers.ErrShutdown
	}

	s.itemsAdded.Inc()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.itemsActive.Inc()
		if err := schedulers.RunTask(s.taskCtx, s.do, val); err != nil {
			s.itemsFailed.Inc()
			s.log.Error("event handler failed", "shard", val.ShardID, "type", val.Type, "err", err)
		}
		s.itemsActive.Dec()
		s.itemsProcessed.Inc()
	}()
	return nil
}

// Stops accepting work and waits for running tasks. If ctx expires first, the task context is
// cancelled and ctx.Err() is returned.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.lk.Lock()
	if s.stopped {
		s.lk.Unlock()
		return nil
	}
	s.stopped = true
	s.lk.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancelTasks()
		s.log.Info("spawn scheduler shutdown complete", "ident", s.ident)
		return nil
	case <-ctx.Done():
		s.cancelTasks()
		s.log.Warn("spawn scheduler drain timed out, cancelling in-flight work", "ident", s.ident)
		return ctx.Err()
	}
}
