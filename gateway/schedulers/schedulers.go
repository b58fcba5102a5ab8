package schedulers

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatewarden/gatewarden/gateway"
)

var ErrShutdown = errors.New("scheduler is shut down")

type HandlerFunc = func(context.Context, *gateway.ShardEvent) error

// Runs a single unit of work, converting a panic in to an error so one bad event can not take
// down the worker.
func RunTask(ctx context.Context, do HandlerFunc, evt *gateway.ShardEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic handling %s event on shard %d: %v", evt.Type, evt.ShardID, r)
		}
	}()
	return do(ctx, evt)
}
