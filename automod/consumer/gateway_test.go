package consumer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/gatewarden/gatewarden/automod/engine"
	"github.com/gatewarden/gatewarden/automod/rules"
	"github.com/gatewarden/gatewarden/gateway"
	"github.com/stretchr/testify/assert"
)

type chanSource chan *gateway.ShardEvent

func (c chanSource) Events() <-chan *gateway.ShardEvent {
	return c
}

func consumerFixture(t *testing.T, parallelism int) (*GatewayConsumer, *engine.MockAdminClient, chanSource) {
	rs, err := rules.DefaultRules(rules.DefaultSpamConfig(time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	eng := engine.EngineTestFixture()
	eng.Rules = rs
	src := make(chanSource, 16)
	gc := &GatewayConsumer{
		Parallelism:  parallelism,
		QueueSize:    4,
		DrainTimeout: 5 * time.Second,
		Logger:       slog.Default(),
		Engine:       &eng,
		Source:       src,
	}
	return gc, eng.AdminClient.(*engine.MockAdminClient), src
}

func joinEvent(shard int, userID, name string) *gateway.ShardEvent {
	return &gateway.ShardEvent{
		ShardID: shard,
		Type:    gateway.TypeMemberAdd,
		MemberAdd: &gateway.MemberAdd{
			GuildID: "81384788765712384",
			User:    gateway.User{ID: userID, Name: name, Discriminator: "0001"},
		},
	}
}

func TestConsumerEndToEnd(t *testing.T) {
	for _, parallelism := range []int{0, 1, 8} {
		assert := assert.New(t)
		gc, admin, src := consumerFixture(t, parallelism)

		old := engine.SnowflakeAt(time.Now().Add(-3 * 365 * 24 * time.Hour))
		fresh := engine.SnowflakeAt(time.Now().Add(-10 * time.Second))

		src <- joinEvent(0, old, "h4ck /token grabber")
		src <- joinEvent(1, fresh, "newbie123")
		src <- joinEvent(0, old, "regular_user")
		src <- joinEvent(1, "not-a-snowflake", "free /token")
		src <- &gateway.ShardEvent{ShardID: 1, Type: "TYPING_START"}
		close(src)

		err := gc.Run(context.Background())
		assert.ErrorIs(err, gateway.ErrStreamClosed)

		// stream end waits for every scheduled event, so all bans have been attempted
		bans := admin.Bans()
		assert.Len(bans, 2, "parallelism=%d", parallelism)
		banned := map[string]bool{}
		for _, b := range bans {
			banned[b.UserID] = true
			assert.Equal(7, b.PurgeDays)
		}
		assert.True(banned[old])
		assert.True(banned[fresh])
	}
}

func TestConsumerIdentityFailureDoesNotStopShard(t *testing.T) {
	assert := assert.New(t)
	gc, admin, src := consumerFixture(t, 4)
	admin.CurrentUserErr = errors.New("503 Service Unavailable")
	var logs bytes.Buffer
	gc.Logger = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelInfo}))

	uid := engine.SnowflakeAt(time.Now().Add(-2 * 365 * 24 * time.Hour))
	src <- &gateway.ShardEvent{ShardID: 2, Type: gateway.TypeShardConnected, ShardConnected: &gateway.ShardConnected{ShardID: 2}}
	src <- joinEvent(2, uid, "john f. bot")
	close(src)

	assert.ErrorIs(gc.Run(context.Background()), gateway.ErrStreamClosed)
	bans := admin.Bans()
	if assert.Len(bans, 1) {
		assert.Equal(uid, bans[0].UserID)
	}

	out := logs.String()
	assert.Contains(out, `msg="processing shard connected failed"`)
	assert.Contains(out, "shard=2")
	assert.Contains(out, "503 Service Unavailable")
	assert.Contains(out, "fetching current identity for shard 2")
}

func TestConsumerDuplicateJoinsBothEnforced(t *testing.T) {
	assert := assert.New(t)
	gc, admin, src := consumerFixture(t, 4)

	uid := engine.SnowflakeAt(time.Now().Add(-5 * time.Second))
	src <- joinEvent(0, uid, "newbie")
	src <- joinEvent(1, uid, "newbie")
	close(src)

	assert.ErrorIs(gc.Run(context.Background()), gateway.ErrStreamClosed)
	assert.Len(admin.Bans(), 2)
}

func TestConsumerBanFailureIsolated(t *testing.T) {
	assert := assert.New(t)
	gc, admin, src := consumerFixture(t, 2)
	admin.BanErr = errors.New("403 Forbidden: Missing Permissions")

	old := engine.SnowflakeAt(time.Now().Add(-2 * 365 * 24 * time.Hour))
	src <- joinEvent(0, old, "motion graphics")
	src <- joinEvent(0, old, "slow motion")
	close(src)

	assert.ErrorIs(gc.Run(context.Background()), gateway.ErrStreamClosed)
	// no retries: exactly one attempt per positive verdict
	assert.Len(admin.Bans(), 2)
}

func TestConsumerStopsOnCancel(t *testing.T) {
	assert := assert.New(t)
	gc, _, _ := consumerFixture(t, 2)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		errc <- gc.Run(ctx)
	}()
	cancel()

	select {
	case err := <-errc:
		assert.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}

func TestConsumerRequiresEngine(t *testing.T) {
	assert := assert.New(t)

	gc := &GatewayConsumer{Source: make(chanSource)}
	assert.Error(gc.Run(context.Background()))
	gc, _, _ = consumerFixture(t, 1)
	gc.Source = nil
	assert.Error(gc.Run(context.Background()))
}
