package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gatewarden/gatewarden/automod/rules"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "warden",
		Usage:   "guild moderation daemon (bans spam accounts on join)",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			Value:   "info",
			EnvVars: []string{"WARDEN_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "log output format: 'json' or 'text'",
			Value:   "json",
			EnvVars: []string{"WARDEN_LOG_FORMAT", "LOG_FORMAT"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "connect to the gateway and moderate member joins",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "discord-token",
			Usage:    "bot token used for the gateway and the REST API",
			Required: true,
			EnvVars:  []string{"DISCORD_TOKEN"},
		},
		&cli.IntFlag{
			Name:    "shard-count",
			Usage:   "number of gateway shards to open; 0 uses the gateway's recommendation",
			Value:   0,
			EnvVars: []string{"WARDEN_SHARD_COUNT"},
		},
		&cli.IntFlag{
			Name:    "parallelism",
			Usage:   "max number of events processed concurrently; 0 spawns a goroutine per event",
			Value:   32,
			EnvVars: []string{"WARDEN_PARALLELISM"},
		},
		&cli.IntFlag{
			Name:    "queue-size",
			Usage:   "events buffered ahead of workers before the gateway reader blocks",
			Value:   1000,
			EnvVars: []string{"WARDEN_QUEUE_SIZE"},
		},
		&cli.DurationFlag{
			Name:    "drain-timeout",
			Usage:   "how long to wait for in-flight events on shutdown",
			Value:   defaultDrainTimeout,
			EnvVars: []string{"WARDEN_DRAIN_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3989",
			EnvVars: []string{"WARDEN_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for counters; in-process counters if not set",
			EnvVars: []string{"WARDEN_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "slack-webhook-url",
			Usage:   "full URL of slack-compatible webhook to post ban notifications to",
			EnvVars: []string{"SLACK_WEBHOOK_URL"},
		},
		&cli.BoolFlag{
			Name:    "readonly",
			Usage:   "evaluate rules and log verdicts, but never send bans",
			EnvVars: []string{"WARDEN_READONLY", "READONLY"},
		},
		&cli.Float64Flag{
			Name:    "ban-rate-limit",
			Usage:   "max ban requests per second; 0 disables the local limit",
			Value:   5,
			EnvVars: []string{"WARDEN_BAN_RATE_LIMIT"},
		},
		&cli.StringSliceFlag{
			Name:    "spam-names",
			Usage:   "name substrings which mark a spam account (case-insensitive)",
			Value:   cli.NewStringSlice(rules.DefaultSpamNames...),
			EnvVars: []string{"WARDEN_SPAM_NAMES"},
		},
		&cli.DurationFlag{
			Name:    "new-account-window",
			Usage:   "accounts younger than this are treated as spam; 0 uses the default",
			Value:   defaultNewAccountWindow,
			EnvVars: []string{"WARDEN_NEW_ACCOUNT_WINDOW"},
		},
		&cli.StringFlag{
			Name:    "age-mode",
			Usage:   "account age comparison: 'account-age' or 'uptime'",
			Value:   rules.AgeModeAccountAge,
			EnvVars: []string{"WARDEN_AGE_MODE"},
		},
		&cli.StringFlag{
			Name:    "presence-text",
			Usage:   "text of the 'listening to' activity shown for the bot",
			Value:   "idiots",
			EnvVars: []string{"WARDEN_PRESENCE_TEXT"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger := configLogger(cctx.String("log-level"), cctx.String("log-format"), os.Stdout)

		ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdownOTEL, err := configOTEL(ctx, "warden")
		if err != nil {
			return err
		}
		defer shutdownOTEL()

		srv, err := NewServer(Config{
			Token:            cctx.String("discord-token"),
			ShardCount:       cctx.Int("shard-count"),
			Parallelism:      cctx.Int("parallelism"),
			QueueSize:        cctx.Int("queue-size"),
			DrainTimeout:     cctx.Duration("drain-timeout"),
			RedisURL:         cctx.String("redis-url"),
			SlackWebhookURL:  cctx.String("slack-webhook-url"),
			ReadOnly:         cctx.Bool("readonly"),
			BanRateLimit:     cctx.Float64("ban-rate-limit"),
			SpamNames:        cctx.StringSlice("spam-names"),
			NewAccountWindow: cctx.Duration("new-account-window"),
			AgeMode:          cctx.String("age-mode"),
			PresenceText:     cctx.String("presence-text"),
			Logger:           logger,
		})
		if err != nil {
			return fmt.Errorf("failed to construct server: %v", err)
		}
		defer srv.Close()

		err = srv.Run(ctx, cctx.String("metrics-listen"))
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			// signal arrived during startup
			err = nil
		}
		logger.Info("warden shut down")
		return err
	},
}

func configLogger(levelName, format string, writer io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(levelName) {
	case "error":
		level = slog.LevelError
	case "warn":
		level = slog.LevelWarn
	case "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{
		Level: level,
	}
	var logger *slog.Logger
	if strings.ToLower(format) == "text" {
		logger = slog.New(slog.NewTextHandler(writer, opts))
	} else {
		logger = slog.New(slog.NewJSONHandler(writer, opts))
	}
	slog.SetDefault(logger)
	return logger
}
