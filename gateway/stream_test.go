package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type chanSource chan *ShardEvent

func (c chanSource) Events() <-chan *ShardEvent {
	return c
}

// records work without running it; optionally blocks until released
type holdingScheduler struct {
	lk      sync.Mutex
	added   []*ShardEvent
	release chan struct{}
	wg      sync.WaitGroup
	fail    error
}

func (s *holdingScheduler) AddWork(ctx context.Context, val *ShardEvent) error {
	if s.fail != nil {
		return s.fail
	}
	s.lk.Lock()
	s.added = append(s.added, val)
	s.lk.Unlock()
	if s.release != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			<-s.release
		}()
	}
	return nil
}

func (s *holdingScheduler) Shutdown(ctx context.Context) error {
	return nil
}

func (s *holdingScheduler) count() int {
	s.lk.Lock()
	defer s.lk.Unlock()
	return len(s.added)
}

func TestCallbacksRouting(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	var joins, connects int
	gc := &Callbacks{
		MemberAdd: func(ctx context.Context, evt *ShardEvent) error {
			joins++
			return nil
		},
		ShardConnected: func(ctx context.Context, evt *ShardEvent) error {
			connects++
			return errors.New("identity fetch failed")
		},
	}

	assert.NoError(gc.EventHandler(ctx, &ShardEvent{Type: TypeMemberAdd, MemberAdd: &MemberAdd{GuildID: "1"}}))
	assert.Error(gc.EventHandler(ctx, &ShardEvent{Type: TypeShardConnected, ShardConnected: &ShardConnected{ShardID: 2}}))
	// other dispatch types are no-ops
	assert.NoError(gc.EventHandler(ctx, &ShardEvent{Type: "MESSAGE_CREATE"}))
	assert.Equal(1, joins)
	assert.Equal(1, connects)

	// missing callback is also a no-op
	empty := &Callbacks{}
	assert.NoError(empty.EventHandler(ctx, &ShardEvent{Type: TypeMemberAdd, MemberAdd: &MemberAdd{}}))
}

func TestHandleStreamDoesNotWaitForWork(t *testing.T) {
	assert := assert.New(t)

	src := make(chanSource, 10)
	sched := &holdingScheduler{release: make(chan struct{})}
	for i := 0; i < 5; i++ {
		src <- &ShardEvent{ShardID: i % 2, Type: TypeMemberAdd, MemberAdd: &MemberAdd{GuildID: "1"}}
	}
	close(src)

	// none of the scheduled work has completed, but every event was still read
	err := HandleStream(context.Background(), src, sched)
	assert.ErrorIs(err, ErrStreamClosed)
	assert.Equal(5, sched.count())

	close(sched.release)
	sched.wg.Wait()
}

func TestHandleStreamStopsOnCancel(t *testing.T) {
	assert := assert.New(t)

	src := make(chanSource)
	sched := &holdingScheduler{}
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		errc <- HandleStream(ctx, src, sched)
	}()
	src <- &ShardEvent{Type: "TYPING_START"}
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("stream loop did not stop after cancel")
	}
	assert.Equal(1, sched.count())
}

func TestHandleStreamSurvivesSchedulerErrors(t *testing.T) {
	assert := assert.New(t)

	src := make(chanSource, 2)
	src <- &ShardEvent{Type: "GUILD_CREATE"}
	src <- &ShardEvent{Type: "GUILD_CREATE"}
	close(src)

	sched := &holdingScheduler{fail: errors.New("queue broken")}
	assert.ErrorIs(HandleStream(context.Background(), src, sched), ErrStreamClosed)
}
