package engine

// Holds configuration of which rules should be run, and helps dispatch events to those rules.
type RuleSet struct {
	MemberRules []MemberRuleFunc
}

type MemberRuleFunc = func(c *MemberContext) error

// Executes all member join rules. Only dispatches execution, does no other de-dupe or pre/post processing.
func (r *RuleSet) CallMemberRules(c *MemberContext) error {
	for _, f := range r.MemberRules {
		err := f(c)
		if err != nil {
			return err
		}
	}
	return nil
}
