package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/gatewarden/gatewarden/automod"
	"github.com/gatewarden/gatewarden/automod/keyword"
)

const (
	// Account is spam if it was created less than the window before now.
	AgeModeAccountAge = "account-age"
	// Account is spam if process uptime plus the window, in milliseconds, exceeds the
	// account creation time in unix milliseconds. Kept for parity with older deployments;
	// in practice this only fires for absurdly large windows.
	AgeModeUptime = "uptime"
)

// Name substrings which mark an obvious spam account. Matched case-insensitively.
var DefaultSpamNames = []string{"/token", "john f", "motion"}

type SpamConfig struct {
	NameSubstrings   []string
	NewAccountWindow time.Duration
	AgeMode          string
	// Process start time, used only by the uptime age mode
	StartedAt time.Time
	// Clock; defaults to time.Now
	Now func() time.Time
}

func DefaultSpamConfig(startedAt time.Time) SpamConfig {
	return SpamConfig{
		NameSubstrings:   DefaultSpamNames,
		NewAccountWindow: 60 * time.Second,
		AgeMode:          AgeModeAccountAge,
		StartedAt:        startedAt,
		Now:              time.Now,
	}
}

func (c *SpamConfig) validate() error {
	if c.NewAccountWindow < 0 {
		return fmt.Errorf("new account window must not be negative: %s", c.NewAccountWindow)
	}
	switch c.AgeMode {
	case AgeModeAccountAge, AgeModeUptime:
	default:
		return fmt.Errorf("unknown account age mode: %q", c.AgeMode)
	}
	return nil
}

// Flags and bans members whose lower-cased name contains one of the configured substrings.
func SpamNameRule(terms []string) (automod.MemberRuleFunc, error) {
	m, err := keyword.NewSubstringMatcher(terms)
	if err != nil {
		return nil, err
	}
	return func(c *automod.MemberContext) error {
		name := strings.ToLower(c.Member.Name)
		if tok := m.FindMatch(name); tok != "" {
			c.Logger.Debug("spam name match", "term", tok)
			c.AddAccountFlag("spam-name")
			c.BanAccount()
		}
		return nil
	}, nil
}

// Flags and bans members whose account was created too recently, per the configured age mode.
func NewAccountRule(cfg SpamConfig) (automod.MemberRuleFunc, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return func(c *automod.MemberContext) error {
		var young bool
		switch cfg.AgeMode {
		case AgeModeUptime:
			uptime := now().Sub(cfg.StartedAt).Milliseconds()
			young = uptime+cfg.NewAccountWindow.Milliseconds() > c.Member.CreatedAt.UnixMilli()
		default:
			young = now().Sub(c.Member.CreatedAt) < cfg.NewAccountWindow
		}
		if young {
			c.Logger.Debug("new account", "createdAt", c.Member.CreatedAt)
			c.AddAccountFlag("new-account")
			c.BanAccount()
		}
		return nil
	}, nil
}
