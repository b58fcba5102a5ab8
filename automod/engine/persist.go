package engine

import (
	"context"
	"net/url"
)

func (eng *Engine) persistCounters(ctx context.Context, eff *Effects) error {
	for _, ref := range eff.CounterIncrements {
		if err := eng.Counters.Increment(ctx, ref.Name, ref.Val); err != nil {
			return err
		}
	}
	return nil
}

// Carries out a positive verdict: exactly one ban request, with the fixed purge window and reason.
//
// A failed ban is logged and counted, and does not fail the event. Nothing is retried here.
func (eng *Engine) persistMemberModActions(c *MemberContext, verdict Verdict) error {
	for _, flag := range verdict.Signals {
		ruleMatchCount.WithLabelValues(flag).Inc()
	}
	if !verdict.IsSpam {
		return nil
	}

	if eng.ReadOnly {
		c.Logger.Info("skipping ban in readonly mode", "account", c.Member.Tag(), "signals", verdict.Signals)
		actionBanSkippedCount.Inc()
		return nil
	}
	if eng.AdminClient == nil {
		c.Logger.Warn("can not ban account without admin client", "account", c.Member.Tag())
		actionBanSkippedCount.Inc()
		return nil
	}

	req := BanRequest{
		GuildID:   c.Member.GuildID,
		UserID:    c.Member.UserID,
		PurgeDays: BanPurgeDays,
		Reason:    url.PathEscape(BanReason),
	}
	if err := eng.AdminClient.Ban(c.Ctx, req); err != nil {
		c.Logger.Error("failed to ban account", "account", c.Member.Tag(), "err", err)
		actionBanErrorCount.Inc()
		c.Increment("automod-ban-error", c.Member.GuildID)
		return nil
	}

	actionNewBanCount.Inc()
	c.Increment("automod-ban", c.Member.GuildID)
	c.Logger.Info("banned account", "account", c.Member.Tag(), "signals", verdict.Signals)

	if eng.Notifier != nil {
		if err := eng.Notifier.SendBan(c.Ctx, c); err != nil {
			c.Logger.Error("sending ban notification", "err", err)
		}
	}
	return nil
}
