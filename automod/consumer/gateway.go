package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gatewarden/gatewarden/automod"
	"github.com/gatewarden/gatewarden/gateway"
	"github.com/gatewarden/gatewarden/gateway/schedulers/parallel"
	"github.com/gatewarden/gatewarden/gateway/schedulers/spawn"
)

// Consumes the merged shard event stream and runs each event through the engine.
type GatewayConsumer struct {
	// Number of concurrent workers. Zero means one goroutine per event, with no bound.
	Parallelism int
	// Events buffered ahead of the workers before the dispatcher blocks
	QueueSize int
	// How long to wait for in-flight events once the stream stops
	DrainTimeout time.Duration
	Logger       *slog.Logger
	Engine       *automod.Engine
	Source       gateway.EventSource
}

func (gc *GatewayConsumer) Run(ctx context.Context) error {

	if gc.Engine == nil {
		return fmt.Errorf("nil engine")
	}
	if gc.Source == nil {
		return fmt.Errorf("nil event source")
	}
	logger := gc.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cb := &gateway.Callbacks{
		MemberAdd: func(ctx context.Context, evt *gateway.ShardEvent) error {
			return gc.HandleMemberAdd(ctx, evt)
		},
		ShardConnected: func(ctx context.Context, evt *gateway.ShardEvent) error {
			if err := gc.Engine.ProcessShardConnected(ctx, evt.ShardConnected.ShardID); err != nil {
				logger.Error("processing shard connected failed", "shard", evt.ShardID, "err", err)
			}
			return nil
		},
	}

	var scheduler gateway.Scheduler
	if gc.Parallelism > 0 {
		queue := gc.QueueSize
		if queue <= 0 {
			queue = 1000
		}
		scheduler = parallel.NewScheduler(gc.Parallelism, queue, "gateway", cb.EventHandler)
		logger.Info("warden scheduler configured", "scheduler", "parallel", "workers", gc.Parallelism, "queue", queue)
	} else {
		scheduler = spawn.NewScheduler("gateway", cb.EventHandler)
		logger.Info("warden scheduler configured", "scheduler", "spawn")
	}

	err := gateway.HandleStream(ctx, gc.Source, scheduler)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	drainTimeout := gc.DrainTimeout
	if drainTimeout <= 0 {
		drainTimeout = 10 * time.Second
	}
	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	start := time.Now()
	if serr := scheduler.Shutdown(drainCtx); serr != nil {
		logger.Warn("in-flight events abandoned after drain timeout", "timeout", drainTimeout, "err", serr)
	} else {
		logger.Info("drained in-flight events", "duration", time.Since(start))
	}
	return err
}

// Errors are logged here rather than returned: one bad join must not affect any other event.
func (gc *GatewayConsumer) HandleMemberAdd(ctx context.Context, evt *gateway.ShardEvent) error {
	ma := evt.MemberAdd
	op := automod.MemberJoinOp{
		ShardID:       evt.ShardID,
		GuildID:       ma.GuildID,
		UserID:        ma.User.ID,
		Name:          ma.User.Name,
		Discriminator: ma.User.Discriminator,
	}
	if err := gc.Engine.ProcessMemberJoin(ctx, op); err != nil {
		logger := gc.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("processing member join failed", "shard", evt.ShardID, "guild", ma.GuildID, "user", ma.User.ID, "err", err)
	}
	return nil
}
