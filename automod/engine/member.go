package engine

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
)

var ErrInvalidSnowflake = errors.New("invalid snowflake identifier")

// A guild member join, as received from one gateway shard. Immutable.
type MemberJoinOp struct {
	ShardID       int
	GuildID       string
	UserID        string
	Name          string
	Discriminator string
}

func (op *MemberJoinOp) Validate() error {
	if op.GuildID == "" {
		return fmt.Errorf("member join missing guild ID")
	}
	if op.UserID == "" {
		return fmt.Errorf("member join missing user ID")
	}
	return nil
}

// Everything rules get to see about a joining member. Derived from a MemberJoinOp, with the
// account creation time decoded from the user's snowflake.
type MemberMeta struct {
	ShardID       int
	GuildID       string
	UserID        string
	Name          string
	Discriminator string
	CreatedAt     time.Time
}

func (m *MemberMeta) Tag() string {
	return m.Name + "#" + m.Discriminator
}

// Outcome of running member rules on one join. Never cached or re-used.
type Verdict struct {
	IsSpam bool
	// account flags added by rules, in the order they fired
	Signals []string
}

// Decodes the creation time embedded in a snowflake identifier.
func SnowflakeTime(id string) (time.Time, error) {
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %w", ErrInvalidSnowflake, id, err)
	}
	t, err := discordgo.SnowflakeTimestamp(id)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %w", ErrInvalidSnowflake, id, err)
	}
	return t, nil
}

func NewMemberMeta(op MemberJoinOp) (*MemberMeta, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	createdAt, err := SnowflakeTime(op.UserID)
	if err != nil {
		return nil, fmt.Errorf("decoding account identifier: %w", err)
	}
	return &MemberMeta{
		ShardID:       op.ShardID,
		GuildID:       op.GuildID,
		UserID:        op.UserID,
		Name:          op.Name,
		Discriminator: op.Discriminator,
		CreatedAt:     createdAt,
	}, nil
}
