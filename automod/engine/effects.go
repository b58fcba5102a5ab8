package engine

// Number of days of message history deleted alongside a ban.
var BanPurgeDays = 7

// Human readable audit log reason attached to automated bans (before URL encoding).
var BanReason = "User is most likely a spam account."

type CounterRef struct {
	Name string
	Val  string
}

// Mutable container for all the possible side-effects from rule execution.
type Effects struct {
	// List of counters which should be incremented as part of processing this event. These are collected during rule execution and persisted in bulk at the end.
	CounterIncrements []CounterRef
	// Moderation flags recording which signals fired for the account. Informational; they end up in logs, metrics and notifications.
	AccountFlags []string
	// If "true", the joining account should be banned from the guild.
	AccountBan bool
}

// Enqueues the named counter to be incremented at the end of all rule processing. Will automatically increment for all time periods.
func (e *Effects) Increment(name, val string) {
	e.CounterIncrements = append(e.CounterIncrements, CounterRef{Name: name, Val: val})
}

func (e *Effects) AddAccountFlag(val string) {
	e.AccountFlags = append(e.AccountFlags, val)
}

// Enqueues a ban of the joining account. Calling this more than once still results in a single ban request.
func (e *Effects) BanAccount() {
	e.AccountBan = true
}
