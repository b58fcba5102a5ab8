package gateway

import (
	"context"
	"log/slog"
	"strconv"
)

// Reads events from the source and hands each one to the scheduler, without waiting for
// processing to complete.
//
// Returns ctx.Err() when the context is cancelled, or ErrStreamClosed if the source channel
// closes. A scheduler error other than context cancellation is logged and the loop
// continues.
func HandleStream(ctx context.Context, src EventSource, sched Scheduler) error {
	logger := slog.Default().With("system", "gateway-stream")
	ch := src.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-ch:
			if !ok {
				return ErrStreamClosed
			}
			eventsReceived.WithLabelValues(strconv.Itoa(evt.ShardID), evt.Type).Inc()
			if err := sched.AddWork(ctx, evt); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Error("failed to schedule gateway event", "shard", evt.ShardID, "type", evt.Type, "err", err)
			}
		}
	}
}
