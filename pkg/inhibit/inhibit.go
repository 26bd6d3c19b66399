// Package inhibit provides the command-gating pipeline: a registry of named
// predicates ("inhibitors") that each decide whether a command invocation may
// proceed. A dispatcher runs them before executing a command and stops at the
// first Denial.
//
// The package is transport-agnostic. Member, channel and permission data come
// from lookups the host provides (see internal/discord for discordgo ones).
package inhibit

import (
	"context"
	"slices"

	"github.com/keshon/inhibitor/pkg/cooldown"
)

// Inhibitor inspects one invocation. It returns (nil, nil) to allow, a Denial
// to block, or an error when a host collaborator failed.
type Inhibitor func(ctx context.Context, bot *Bot, cmd *Command, opts Options) (Denial, error)

// Options is the per-invocation context. Empty strings mean absent; a direct
// message invocation has no GuildID.
type Options struct {
	MemberID  string
	GuildID   string
	ChannelID string
}

// Member is a cached guild member.
type Member struct {
	ID      string
	GuildID string
	Roles   []string
}

// Channel is a cached channel.
type Channel struct {
	ID      string
	GuildID string
	NSFW    bool
}

// MemberLookup reads cached members.
type MemberLookup interface {
	Member(guildID, memberID string) (*Member, bool)
}

// ChannelLookup reads cached channels.
type ChannelLookup interface {
	Channel(channelID string) (*Channel, bool)
}

// PermissionLookup reports which of perms userID lacks in a scope. Errors
// are faults, not denials.
type PermissionLookup interface {
	MissingGuildPermissions(guildID, userID string, perms []string) ([]string, error)
	MissingChannelPermissions(channelID, userID string, perms []string) ([]string, error)
}

// Bot is the runtime-wide configuration and cache access inhibitors read.
type Bot struct {
	ID              string
	Owners          []string
	DefaultCooldown *cooldown.Limit
	IgnoreCooldown  []string
	GuildOnly       bool
	DMOnly          bool

	Members     MemberLookup
	Channels    ChannelLookup
	Permissions PermissionLookup
}

// IsOwner reports whether id is a configured owner.
func (b *Bot) IsOwner(id string) bool {
	return id != "" && slices.Contains(b.Owners, id)
}

// Command is the gating metadata of one command.
type Command struct {
	Name      string
	GuildOnly bool
	DMOnly    bool
	NSFW      bool
	OwnerOnly bool

	HasRoles       []string
	Cooldown       *cooldown.Limit
	IgnoreCooldown []string

	BotGuildPermissions    []string
	BotChannelPermissions  []string
	UserGuildPermissions   []string
	UserChannelPermissions []string
}
