package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Posts to a slack-style incoming webhook. Discord webhook URLs with a "/slack" suffix accept the same body.
type SlackNotifier struct {
	SlackWebhookURL string
	// optional; defaults to http.DefaultClient
	Client *http.Client
}

var _ Notifier = (*SlackNotifier)(nil)

func (n *SlackNotifier) SendBan(ctx context.Context, c *MemberContext) error {
	msg := slackBody("⚠️ Automod Ban ⚠️\n", c.Member, c.effects.AccountFlags)
	c.Logger.Debug("sending slack notification")
	return n.sendSlackMsg(ctx, msg)
}

type SlackWebhookBody struct {
	Text string `json:"text"`
}

// Sends a simple slack message to a channel via "incoming webhook".
//
// The slack incoming webhook must be already configured in the slack workplace.
func (n *SlackNotifier) sendSlackMsg(ctx context.Context, msg string) error {
	body, err := json.Marshal(SlackWebhookBody{Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.SlackWebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("failed slack webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}

func slackBody(header string, member MemberMeta, flags []string) string {
	msg := header
	msg += fmt.Sprintf("`%s` (`%s`) in guild `%s`\n", member.Tag(), member.UserID, member.GuildID)
	msg += fmt.Sprintf("Account created: %s\n", member.CreatedAt.UTC().Format("2006-01-02 15:04:05Z"))
	if len(flags) > 0 {
		msg += fmt.Sprintf("Flags: `%s`\n", strings.Join(dedupeStrings(flags), ", "))
	}
	return msg
}
