package engine

import (
	"context"
)

// Identity of an account as returned by the admin API.
type Identity struct {
	ID            string
	Name          string
	Discriminator string
}

// Returns the "handle#discriminator" form used in log lines.
func (i Identity) Tag() string {
	return i.Name + "#" + i.Discriminator
}

// Parameters for a single guild ban. Reason must already be URL percent-encoded.
type BanRequest struct {
	GuildID   string
	UserID    string
	PurgeDays int
	Reason    string
}

// Administrative operations the engine needs from the platform. Retries, rate limits and
// request timeouts are the implementation's concern.
type AdminClient interface {
	CurrentUser(ctx context.Context) (*Identity, error)
	Ban(ctx context.Context, req BanRequest) error
}
