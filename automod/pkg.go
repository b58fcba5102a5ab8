package automod

import (
	"github.com/gatewarden/gatewarden/automod/engine"
)

type Engine = engine.Engine
type RuleSet = engine.RuleSet

type Notifier = engine.Notifier
type SlackNotifier = engine.SlackNotifier

type AdminClient = engine.AdminClient
type Identity = engine.Identity
type BanRequest = engine.BanRequest

type MemberContext = engine.MemberContext
type MemberJoinOp = engine.MemberJoinOp
type MemberMeta = engine.MemberMeta
type Verdict = engine.Verdict

type MemberRuleFunc = engine.MemberRuleFunc
