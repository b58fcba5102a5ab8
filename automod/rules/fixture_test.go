package rules

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/gatewarden/gatewarden/automod"
	"github.com/gatewarden/gatewarden/automod/engine"
)

var fixtureNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func fixtureSpamConfig() SpamConfig {
	cfg := DefaultSpamConfig(fixtureNow.Add(-1 * time.Hour))
	cfg.Now = func() time.Time { return fixtureNow }
	return cfg
}

// Engine running the default rules against a mock admin client, with log output captured.
func engineFixture(t *testing.T, cfg SpamConfig) (*automod.Engine, *engine.MockAdminClient, *bytes.Buffer) {
	rules, err := DefaultRules(cfg)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	eng := engine.EngineTestFixture()
	eng.Rules = rules
	eng.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return &eng, eng.AdminClient.(*engine.MockAdminClient), &buf
}

func memberFixture(eng *automod.Engine, name string, createdAt time.Time) automod.MemberContext {
	meta := automod.MemberMeta{
		ShardID:       0,
		GuildID:       "81384788765712384",
		UserID:        engine.SnowflakeAt(createdAt),
		Name:          name,
		Discriminator: "0001",
		CreatedAt:     createdAt,
	}
	return engine.NewMemberContext(context.Background(), eng, meta)
}
