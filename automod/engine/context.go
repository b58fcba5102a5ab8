package engine

import (
	"context"
	"log/slog"
)

// The primary interface exposed to rules. All other contexts derive from this "base" struct.
type BaseContext struct {
	// Actual golang "context.Context", if needed for timeouts etc
	Ctx context.Context
	// slog logger handle, with event-specific structured fields pre-populated. Pointer, but expected to never be nil.
	Logger *slog.Logger

	engine  *Engine // NOTE: pointer, but expected never to be nil
	effects *Effects
}

// Context for a single guild member join.
type MemberContext struct {
	BaseContext

	Member MemberMeta
}

func NewMemberContext(ctx context.Context, eng *Engine, meta MemberMeta) MemberContext {
	return MemberContext{
		BaseContext: BaseContext{
			Ctx:     ctx,
			Logger:  eng.Logger.With("shard", meta.ShardID, "guild", meta.GuildID, "user", meta.UserID),
			engine:  eng,
			effects: &Effects{},
		},
		Member: meta,
	}
}

func (c *BaseContext) Increment(name, val string) {
	c.effects.Increment(name, val)
}

func (c *BaseContext) AddAccountFlag(val string) {
	c.effects.AddAccountFlag(val)
}

func (c *BaseContext) BanAccount() {
	c.effects.BanAccount()
}

func (c *MemberContext) Verdict() Verdict {
	return Verdict{
		IsSpam:  c.effects.AccountBan,
		Signals: dedupeStrings(c.effects.AccountFlags),
	}
}
