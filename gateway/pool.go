package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

// Discord only accepts one IDENTIFY per five seconds for bots without large-bot sharding.
var IdentifyInterval = 5 * time.Second

type Presence struct {
	ActivityType discordgo.ActivityType
	ActivityText string
	Status       discordgo.Status
}

type PoolConfig struct {
	Token   string
	Intents discordgo.Intent
	// Number of shards to open. Zero means use the count recommended by the gateway.
	ShardCount int
	Presence   Presence
	// Capacity of the merged event channel
	BufferSize int
	// optional; used for REST calls made by the shard sessions (eg, shard count discovery)
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func DefaultPoolConfig(token string) PoolConfig {
	return PoolConfig{
		Token:   token,
		Intents: discordgo.IntentGuildMembers,
		Presence: Presence{
			ActivityType: discordgo.ActivityTypeListening,
			ActivityText: "idiots",
			Status:       discordgo.StatusOffline,
		},
		BufferSize: 1024,
	}
}

// Manages one discordgo session per shard and merges their events in to a single channel.
//
// Reconnect and resume are handled by each session. Handlers run synchronously on the
// session read loop, so events from a single shard enter the channel in gateway order.
type Pool struct {
	cfg    PoolConfig
	logger *slog.Logger

	events   chan *ShardEvent
	done     chan struct{}
	downOnce sync.Once

	identifyLimiter *rate.Limiter

	lk       sync.Mutex
	sessions []*discordgo.Session
}

func NewPool(cfg PoolConfig) (*Pool, error) {
	if strings.TrimSpace(strings.TrimPrefix(cfg.Token, "Bot ")) == "" {
		return nil, errors.New("gateway pool requires a bot token")
	}
	if cfg.Intents == 0 {
		return nil, errors.New("gateway pool requires at least one intent")
	}
	if cfg.ShardCount < 0 {
		return nil, fmt.Errorf("invalid shard count: %d", cfg.ShardCount)
	}
	if cfg.Presence.ActivityText == "" {
		return nil, errors.New("presence activity text must not be empty")
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		cfg:             cfg,
		logger:          logger.With("system", "gateway-pool"),
		events:          make(chan *ShardEvent, cfg.BufferSize),
		done:            make(chan struct{}),
		identifyLimiter: rate.NewLimiter(rate.Every(IdentifyInterval), 1),
	}, nil
}

func (p *Pool) Events() <-chan *ShardEvent {
	return p.events
}

// Opens all shard sessions. Errors here (bad token, disallowed intents, network failure) are
// fatal for the pool; any shards already opened are closed again.
func (p *Pool) Up(ctx context.Context) error {
	count := p.cfg.ShardCount
	if count == 0 {
		probe, err := p.newSession()
		if err != nil {
			return err
		}
		gb, err := probe.GatewayBot(discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("fetching recommended shard count: %w", err)
		}
		count = max(gb.Shards, 1)
		p.logger.Info("using recommended shard count", "shards", count)
	}

	for id := 0; id < count; id++ {
		if err := p.identifyLimiter.Wait(ctx); err != nil {
			p.Down()
			return err
		}
		sess, err := p.newSession()
		if err != nil {
			p.Down()
			return err
		}
		sess.ShardID = id
		sess.ShardCount = count
		sess.AddHandler(p.handler(id))
		if err := sess.Open(); err != nil {
			p.Down()
			return fmt.Errorf("opening shard %d/%d: %w", id, count, err)
		}
		p.lk.Lock()
		p.sessions = append(p.sessions, sess)
		p.lk.Unlock()
		shardsConnected.Inc()
		p.logger.Info("opened shard session", "shard", id, "shards", count)
	}
	return nil
}

// Closes every shard session and stops feeding the event channel. Safe to call more than
// once. The channel itself is left open; consumers stop via their own context.
func (p *Pool) Down() {
	p.downOnce.Do(func() {
		close(p.done)
		p.lk.Lock()
		defer p.lk.Unlock()
		for _, sess := range p.sessions {
			if err := sess.Close(); err != nil {
				p.logger.Warn("failed to close shard session", "shard", sess.ShardID, "err", err)
			}
			shardsConnected.Dec()
		}
		p.sessions = nil
	})
}

func (p *Pool) newSession() (*discordgo.Session, error) {
	token := p.cfg.Token
	if !strings.HasPrefix(token, "Bot ") {
		token = "Bot " + token
	}
	sess, err := discordgo.New(token)
	if err != nil {
		return nil, fmt.Errorf("creating gateway session: %w", err)
	}
	sess.Identify.Intents = p.cfg.Intents
	sess.Identify.Presence = discordgo.GatewayStatusUpdate{
		Game: discordgo.Activity{
			Name: p.cfg.Presence.ActivityText,
			Type: p.cfg.Presence.ActivityType,
		},
		Status: string(p.cfg.Presence.Status),
	}
	sess.SyncEvents = true
	sess.ShouldReconnectOnError = true
	if p.cfg.HTTPClient != nil {
		sess.Client = p.cfg.HTTPClient
	}
	return sess, nil
}

func (p *Pool) handler(shardID int) func(*discordgo.Session, interface{}) {
	return func(_ *discordgo.Session, raw interface{}) {
		evt := ConvertEvent(shardID, raw)
		if evt == nil {
			return
		}
		p.deliver(evt)
	}
}

func (p *Pool) deliver(evt *ShardEvent) {
	select {
	case p.events <- evt:
	case <-p.done:
		eventsDropped.WithLabelValues(strconv.Itoa(evt.ShardID)).Inc()
	}
}

// Translates a value emitted by a discordgo session in to a ShardEvent. Returns nil for
// values which should not be forwarded.
//
// discordgo emits every dispatch twice to catch-all handlers: once as the raw *Event and
// once as the decoded struct. Member joins are forwarded from the decoded struct, all other
// dispatches from the raw one.
func ConvertEvent(shardID int, raw interface{}) *ShardEvent {
	switch v := raw.(type) {
	case *discordgo.GuildMemberAdd:
		if v.Member == nil {
			return nil
		}
		ma := &MemberAdd{GuildID: v.GuildID}
		if v.User != nil {
			ma.User = User{
				ID:            v.User.ID,
				Name:          v.User.Username,
				Discriminator: v.User.Discriminator,
			}
		}
		return &ShardEvent{ShardID: shardID, Type: TypeMemberAdd, MemberAdd: ma}
	case *discordgo.Connect:
		return &ShardEvent{
			ShardID:        shardID,
			Type:           TypeShardConnected,
			ShardConnected: &ShardConnected{ShardID: shardID},
		}
	case *discordgo.Event:
		if v.Type == "" || v.Type == TypeMemberAdd {
			return nil
		}
		return &ShardEvent{ShardID: shardID, Type: v.Type}
	default:
		return nil
	}
}
