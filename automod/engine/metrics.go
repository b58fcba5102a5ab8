package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventProcessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "automod_event_duration_sec",
	Help: "Total duration of automod event processing",
}, []string{"type"})

var eventProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_event_processed",
	Help: "Number of events processed",
}, []string{"type"})

var eventErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_event_errors",
	Help: "Number of events which failed processing",
}, []string{"type"})

var ruleMatchCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_rule_matches",
	Help: "Number of member joins flagged, by account flag",
}, []string{"flag"})

var actionNewBanCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automod_new_action_bans",
	Help: "Number of bans successfully applied",
})

var actionBanErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automod_action_ban_errors",
	Help: "Number of ban requests which failed",
})

var actionBanSkippedCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automod_action_bans_skipped",
	Help: "Number of positive verdicts not enforced (readonly, or no admin client)",
})
