package engine

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gatewarden/gatewarden/automod/countstore"
)

// Milliseconds since the unix epoch at which Discord snowflake timestamps start.
const DiscordEpoch = 1420070400000

// Builds a snowflake identifier whose embedded creation time is t. Intended for tests.
func SnowflakeAt(t time.Time) string {
	ms := t.UnixMilli() - DiscordEpoch
	return strconv.FormatInt(ms<<22, 10)
}

// In-memory AdminClient which records every ban attempt. Safe for concurrent use.
type MockAdminClient struct {
	Self           Identity
	BanErr         error
	CurrentUserErr error

	lk   sync.Mutex
	bans []BanRequest
}

var _ AdminClient = (*MockAdminClient)(nil)

func (m *MockAdminClient) CurrentUser(ctx context.Context) (*Identity, error) {
	if m.CurrentUserErr != nil {
		return nil, m.CurrentUserErr
	}
	ident := m.Self
	return &ident, nil
}

func (m *MockAdminClient) Ban(ctx context.Context, req BanRequest) error {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.bans = append(m.bans, req)
	return m.BanErr
}

// Every ban request received so far, including failed ones.
func (m *MockAdminClient) Bans() []BanRequest {
	m.lk.Lock()
	defer m.lk.Unlock()
	out := make([]BanRequest, len(m.bans))
	copy(out, m.bans)
	return out
}

var _ MemberRuleFunc = simpleRule

func simpleRule(c *MemberContext) error {
	if strings.Contains(strings.ToLower(c.Member.Name), "spam") {
		c.AddAccountFlag("spam-test")
		c.BanAccount()
	}
	return nil
}

func EngineTestFixture() Engine {
	rules := RuleSet{
		MemberRules: []MemberRuleFunc{
			simpleRule,
		},
	}
	engine := Engine{
		Logger:   slog.Default(),
		Rules:    rules,
		Counters: countstore.NewMemCountStore(),
		AdminClient: &MockAdminClient{
			Self: Identity{ID: "1", Name: "gatewarden", Discriminator: "0001"},
		},
	}
	return engine
}

// Helper to access the private effects field from a context. Intended for use in test code, *not* from rules.
func ExtractEffects(c *BaseContext) Effects {
	return *c.effects
}
