package engine

import (
	"context"
)

// Interface for a type that can handle sending notifications
type Notifier interface {
	SendBan(ctx context.Context, c *MemberContext) error
}
