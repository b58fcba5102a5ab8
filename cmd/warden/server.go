package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gatewarden/gatewarden/automod"
	"github.com/gatewarden/gatewarden/automod/consumer"
	"github.com/gatewarden/gatewarden/automod/countstore"
	"github.com/gatewarden/gatewarden/automod/rules"
	"github.com/gatewarden/gatewarden/discord"
	"github.com/gatewarden/gatewarden/gateway"
	"github.com/gatewarden/gatewarden/util"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const (
	defaultDrainTimeout     = 10 * time.Second
	defaultNewAccountWindow = 60 * time.Second
)

type Server struct {
	logger   *slog.Logger
	engine   *automod.Engine
	pool     *gateway.Pool
	consumer *consumer.GatewayConsumer
	redis    *countstore.RedisCountStore
}

type Config struct {
	Token            string
	ShardCount       int
	Parallelism      int
	QueueSize        int
	DrainTimeout     time.Duration
	RedisURL         string
	SlackWebhookURL  string
	ReadOnly         bool
	BanRateLimit     float64
	SpamNames        []string
	// Zero uses the default window (60s)
	NewAccountWindow time.Duration
	AgeMode          string
	PresenceText     string
	Logger           *slog.Logger
}

func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	spamCfg := rules.DefaultSpamConfig(time.Now())
	if len(config.SpamNames) > 0 {
		spamCfg.NameSubstrings = config.SpamNames
	}
	if config.NewAccountWindow != 0 {
		spamCfg.NewAccountWindow = config.NewAccountWindow
	}
	if config.AgeMode != "" {
		spamCfg.AgeMode = config.AgeMode
	}
	ruleset, err := rules.DefaultRules(spamCfg)
	if err != nil {
		return nil, fmt.Errorf("configuring rules: %w", err)
	}

	poolCfg := gateway.DefaultPoolConfig(config.Token)
	poolCfg.ShardCount = config.ShardCount
	if config.PresenceText != "" {
		poolCfg.Presence.ActivityText = config.PresenceText
	}
	poolCfg.HTTPClient = util.RobustHTTPClient()
	poolCfg.Logger = logger
	pool, err := gateway.NewPool(poolCfg)
	if err != nil {
		return nil, fmt.Errorf("configuring gateway pool: %w", err)
	}

	adminc, err := discord.NewAdminClient(config.Token, util.RobustHTTPClient(), config.BanRateLimit)
	if err != nil {
		return nil, fmt.Errorf("configuring admin client: %w", err)
	}

	var counters countstore.CountStore
	var rcs *countstore.RedisCountStore
	if config.RedisURL != "" {
		rcs, err = countstore.NewRedisCountStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis countstore: %v", err)
		}
		counters = rcs
	} else {
		counters = countstore.NewMemCountStore()
	}

	var notifier automod.Notifier
	if config.SlackWebhookURL != "" {
		notifier = &automod.SlackNotifier{
			SlackWebhookURL: config.SlackWebhookURL,
			Client:          util.RobustHTTPClient(),
		}
	}

	engine := automod.Engine{
		Logger:      logger,
		Rules:       ruleset,
		Counters:    counters,
		AdminClient: adminc,
		Notifier:    notifier,
		ReadOnly:    config.ReadOnly,
	}

	drain := config.DrainTimeout
	if drain <= 0 {
		drain = defaultDrainTimeout
	}
	gc := &consumer.GatewayConsumer{
		Parallelism:  config.Parallelism,
		QueueSize:    config.QueueSize,
		DrainTimeout: drain,
		Logger:       logger,
		Engine:       &engine,
		Source:       pool,
	}

	s := &Server{
		logger:   logger,
		engine:   &engine,
		pool:     pool,
		consumer: gc,
		redis:    rcs,
	}
	return s, nil
}

// Runs the metrics server, the event consumer, and the gateway pool until ctx is cancelled
// or one of them fails. In-flight events are drained before returning.
func (s *Server) Run(ctx context.Context, metricsListen string) error {
	g, gctx := errgroup.WithContext(ctx)

	if metricsListen != "" {
		g.Go(func() error {
			return s.RunMetrics(gctx, metricsListen)
		})
	}

	g.Go(func() error {
		return s.consumer.Run(gctx)
	})

	g.Go(func() error {
		defer s.pool.Down()
		if err := s.pool.Up(gctx); err != nil {
			return fmt.Errorf("connecting gateway shards: %w", err)
		}
		s.logger.Info("all gateway shards opened")
		<-gctx.Done()
		s.logger.Info("closing gateway shards")
		return nil
	})

	return g.Wait()
}

func (s *Server) RunMetrics(ctx context.Context, listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:    listen,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("metrics server shutdown", "err", err)
		}
	}()

	s.logger.Info("starting metrics server", "listen", listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func (s *Server) Close() error {
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}
