package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gatewarden/gatewarden/automod/countstore"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("automod")

var ErrNoAdminClient = errors.New("engine has no admin client configured")

// runtime for executing rules, counting outcomes, and carrying out moderation actions.
//
// Logger and Counters must be set. AdminClient may be nil, in which case positive verdicts are only logged.
type Engine struct {
	Logger   *slog.Logger
	Rules    RuleSet
	Counters countstore.CountStore
	// used to look up the bot identity and to carry out bans
	AdminClient AdminClient
	// optional; told about every successful ban
	Notifier Notifier
	// if true, rules still run but no ban requests are sent
	ReadOnly bool
}

// Runs member rules against a single guild join, and enforces the verdict.
//
// Each call is fully independent: no state from earlier joins (even by the same account) is consulted. A malformed user identifier fails the event before any rule runs.
func (eng *Engine) ProcessMemberJoin(ctx context.Context, op MemberJoinOp) (err error) {
	ctx, span := tracer.Start(ctx, "ProcessMemberJoin", trace.WithAttributes(
		attribute.Int("shard", op.ShardID),
		attribute.String("guild", op.GuildID),
		attribute.String("user", op.UserID),
	))
	defer span.End()

	// similar to an HTTP server, we want to recover any panics from rule execution
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("automod event execution exception", "err", r, "guild", op.GuildID, "user", op.UserID)
			err = fmt.Errorf("automod event execution exception: %v", r)
		}
		if err != nil {
			eventErrorCount.WithLabelValues("member").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()
	start := time.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("member").Observe(time.Since(start).Seconds())
	}()
	eventProcessCount.WithLabelValues("member").Inc()

	meta, err := NewMemberMeta(op)
	if err != nil {
		return err
	}

	mc := NewMemberContext(ctx, eng, *meta)
	mc.Increment("member-join", meta.GuildID)
	if err := eng.Rules.CallMemberRules(&mc); err != nil {
		return err
	}
	eng.CanonicalLogLineMember(&mc)

	verdict := mc.Verdict()
	span.SetAttributes(attribute.Bool("spam", verdict.IsSpam))
	if err := eng.persistMemberModActions(&mc, verdict); err != nil {
		return err
	}
	if err := eng.persistCounters(ctx, mc.effects); err != nil {
		return err
	}
	return nil
}

// Fetches the authenticated bot identity and logs it against the shard which just connected.
func (eng *Engine) ProcessShardConnected(ctx context.Context, shardID int) error {
	ctx, span := tracer.Start(ctx, "ProcessShardConnected", trace.WithAttributes(
		attribute.Int("shard", shardID),
	))
	defer span.End()
	eventProcessCount.WithLabelValues("connect").Inc()

	if eng.AdminClient == nil {
		eventErrorCount.WithLabelValues("connect").Inc()
		return ErrNoAdminClient
	}
	ident, err := eng.AdminClient.CurrentUser(ctx)
	if err != nil {
		eventErrorCount.WithLabelValues("connect").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("fetching current identity for shard %d: %w", shardID, err)
	}
	eng.Logger.Info("shard connected", "shard", shardID, "user", ident.Tag())
	return nil
}

// Debug-level summary of rule outcomes for one event.
func (eng *Engine) CanonicalLogLineMember(c *MemberContext) {
	c.Logger.Debug("canonical-event-line",
		"accountFlags", c.effects.AccountFlags,
		"ban", c.effects.AccountBan,
		"accountCreated", c.Member.CreatedAt,
	)
}
