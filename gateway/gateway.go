package gateway

import (
	"context"
	"errors"
)

var ErrStreamClosed = errors.New("gateway event stream closed")

// Gateway dispatch names for the event kinds this package decodes.
const (
	TypeMemberAdd      = "GUILD_MEMBER_ADD"
	TypeShardConnected = "CONNECT"
)

// A single event received on one shard of the gateway.
//
// Exactly one of the typed payload fields is set for the kinds we handle. Every other
// dispatch type arrives with only ShardID and Type populated, and is passed through so
// that the dispatcher still sees it.
type ShardEvent struct {
	ShardID int
	// Gateway dispatch name, eg "GUILD_MEMBER_ADD"
	Type string

	MemberAdd      *MemberAdd
	ShardConnected *ShardConnected
}

// Immutable
type MemberAdd struct {
	GuildID string
	User    User
}

type User struct {
	// snowflake identifier, as a decimal string
	ID            string
	Name          string
	Discriminator string
}

type ShardConnected struct {
	ShardID int
}

// Anything which produces a merged stream of shard events. Implemented by Pool; tests feed
// a plain channel.
type EventSource interface {
	Events() <-chan *ShardEvent
}

type Scheduler interface {
	AddWork(ctx context.Context, val *ShardEvent) error
	Shutdown(ctx context.Context) error
}

type Callbacks struct {
	MemberAdd      func(ctx context.Context, evt *ShardEvent) error
	ShardConnected func(ctx context.Context, evt *ShardEvent) error
}

func (gc *Callbacks) EventHandler(ctx context.Context, evt *ShardEvent) error {
	switch {
	case evt.MemberAdd != nil && gc.MemberAdd != nil:
		return gc.MemberAdd(ctx, evt)
	case evt.ShardConnected != nil && gc.ShardConnected != nil:
		return gc.ShardConnected(ctx, evt)
	default:
		return nil
	}
}
