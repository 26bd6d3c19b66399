package discord

import (
	"errors"
	"fmt"
	"slices"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/inhibitor/pkg/inhibit"
)

// StateLookup answers inhibitor lookups from the discordgo state cache. It
// never calls the REST API; anything not cached counts as absent.
type StateLookup struct {
	State *discordgo.State
}

var (
	_ inhibit.MemberLookup     = (*StateLookup)(nil)
	_ inhibit.ChannelLookup    = (*StateLookup)(nil)
	_ inhibit.PermissionLookup = (*StateLookup)(nil)
)

// NewStateLookup wraps state.
func NewStateLookup(state *discordgo.State) *StateLookup {
	return &StateLookup{State: state}
}

func (l *StateLookup) Member(guildID, memberID string) (*inhibit.Member, bool) {
	m, err := l.State.Member(guildID, memberID)
	if err != nil || m == nil {
		return nil, false
	}
	return &inhibit.Member{ID: memberID, GuildID: guildID, Roles: slices.Clone(m.Roles)}, true
}

func (l *StateLookup) Channel(channelID string) (*inhibit.Channel, bool) {
	c, err := l.State.Channel(channelID)
	if err != nil || c == nil {
		return nil, false
	}
	return &inhibit.Channel{ID: c.ID, GuildID: c.GuildID, NSFW: c.NSFW}, true
}

// MissingGuildPermissions computes the user's guild-wide permissions from
// the @everyone role and the member's roles, ignoring channel overwrites.
// The guild owner and administrators hold everything.
func (l *StateLookup) MissingGuildPermissions(guildID, userID string, perms []string) ([]string, error) {
	held, err := l.guildPermissions(guildID, userID)
	if errors.Is(err, discordgo.ErrStateNotFound) {
		return slices.Clone(perms), nil
	}
	if err != nil {
		return nil, err
	}
	return missingFrom(held, perms), nil
}

// MissingChannelPermissions uses the state's channel permission resolution,
// overwrites included.
func (l *StateLookup) MissingChannelPermissions(channelID, userID string, perms []string) ([]string, error) {
	held, err := l.State.UserChannelPermissions(userID, channelID)
	if errors.Is(err, discordgo.ErrStateNotFound) {
		return slices.Clone(perms), nil
	}
	if err != nil {
		return nil, fmt.Errorf("channel permissions: %w", err)
	}
	return missingFrom(held, perms), nil
}

func (l *StateLookup) guildPermissions(guildID, userID string) (int64, error) {
	guild, err := l.State.Guild(guildID)
	if err != nil {
		return 0, err
	}
	if userID == guild.OwnerID {
		return discordgo.PermissionAll, nil
	}
	member, err := l.State.Member(guildID, userID)
	if err != nil {
		return 0, err
	}

	var held int64
	for _, role := range guild.Roles {
		if role.ID == guild.ID || slices.Contains(member.Roles, role.ID) {
			held |= role.Permissions
		}
	}
	if held&discordgo.PermissionAdministrator != 0 {
		return discordgo.PermissionAll, nil
	}
	return held, nil
}
