package rules

import (
	"github.com/gatewarden/gatewarden/automod"
)

func DefaultRules(cfg SpamConfig) (automod.RuleSet, error) {
	nameRule, err := SpamNameRule(cfg.NameSubstrings)
	if err != nil {
		return automod.RuleSet{}, err
	}
	ageRule, err := NewAccountRule(cfg)
	if err != nil {
		return automod.RuleSet{}, err
	}
	rules := automod.RuleSet{
		MemberRules: []automod.MemberRuleFunc{
			nameRule,
			ageRule,
		},
	}
	return rules, nil
}
