package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gatewarden/gatewarden/automod/engine"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

// REST client for the administrative calls the engine makes: looking up the bot's own
// identity, and banning guild members.
//
// Per-route rate limit buckets are tracked by discordgo. Limiter additionally caps how fast
// bans are sent, so a join raid does not burn through the global limit.
type AdminClient struct {
	Session *discordgo.Session
	Limiter *rate.Limiter
}

var _ engine.AdminClient = (*AdminClient)(nil)

// banPerSecond <= 0 disables the local ban limiter.
func NewAdminClient(token string, client *http.Client, banPerSecond float64) (*AdminClient, error) {
	if strings.TrimSpace(strings.TrimPrefix(token, "Bot ")) == "" {
		return nil, errors.New("admin client requires a bot token")
	}
	if !strings.HasPrefix(token, "Bot ") {
		token = "Bot " + token
	}
	sess, err := discordgo.New(token)
	if err != nil {
		return nil, fmt.Errorf("creating REST session: %w", err)
	}
	if client != nil {
		sess.Client = client
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if banPerSecond > 0 {
		lim = rate.NewLimiter(rate.Limit(banPerSecond), 1)
	}
	return &AdminClient{
		Session: sess,
		Limiter: lim,
	}, nil
}

func (a *AdminClient) CurrentUser(ctx context.Context) (*engine.Identity, error) {
	u, err := a.Session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return &engine.Identity{
		ID:            u.ID,
		Name:          u.Username,
		Discriminator: u.Discriminator,
	}, nil
}

// The reason is sent verbatim as the audit log header, so callers are responsible for
// percent-encoding it.
func (a *AdminClient) Ban(ctx context.Context, req engine.BanRequest) error {
	if err := a.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting on ban rate limit: %w", err)
	}
	opts := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if req.Reason != "" {
		opts = append(opts, discordgo.WithHeader("X-Audit-Log-Reason", req.Reason))
	}
	if err := a.Session.GuildBanCreate(req.GuildID, req.UserID, req.PurgeDays, opts...); err != nil {
		var rerr *discordgo.RESTError
		if errors.As(err, &rerr) && rerr.Response != nil {
			return fmt.Errorf("ban request rejected (HTTP %d): %w", rerr.Response.StatusCode, err)
		}
		return err
	}
	return nil
}
