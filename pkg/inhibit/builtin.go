package inhibit

import (
	"context"
	"fmt"
	"slices"

	"github.com/keshon/inhibitor/pkg/cooldown"
)

// Built-in inhibitor names.
const (
	HasRole         = "hasRole"
	Cooldown        = "cooldown"
	NSFW            = "nsfw"
	OwnerOnlyCheck  = "ownerOnly"
	BotPermissions  = "botPermissions"
	UserPermissions = "userPermissions"
	GuildOrDMOnly   = "guildOrDmOnly"
)

// NewDefaultRegistry returns a registry holding the built-in inhibitors.
// tracker backs the cooldown inhibitor.
func NewDefaultRegistry(tracker *cooldown.Tracker) *Registry {
	r := NewRegistry()
	RegisterBuiltins(r, tracker)
	return r
}

// RegisterBuiltins registers the built-in inhibitors on r.
func RegisterBuiltins(r *Registry, tracker *cooldown.Tracker) {
	r.Register(HasRole, CheckHasRole)
	r.Register(Cooldown, CooldownInhibitor(tracker))
	r.Register(NSFW, CheckNSFW)
	r.Register(OwnerOnlyCheck, CheckOwnerOnly)
	r.Register(BotPermissions, CheckBotPermissions)
	r.Register(UserPermissions, CheckUserPermissions)
	r.Register(GuildOrDMOnly, CheckGuildOrDMOnly)
}

// CheckHasRole denies when the actor lacks any of cmd.HasRoles. DM-only
// commands, commands without role requirements and DM invocations pass.
// An unknown actor is denied with the full required list.
func CheckHasRole(_ context.Context, bot *Bot, cmd *Command, opts Options) (Denial, error) {
	if cmd.DMOnly || len(cmd.HasRoles) == 0 || opts.GuildID == "" {
		return nil, nil
	}
	if opts.MemberID == "" {
		return MissingRoles{Roles: slices.Clone(cmd.HasRoles)}, nil
	}

	var held []string
	if bot.Members != nil {
		if m, ok := bot.Members.Member(opts.GuildID, opts.MemberID); ok && m != nil {
			held = m.Roles
		}
	}

	var missing []string
	for _, role := range cmd.HasRoles {
		if !slices.Contains(held, role) {
			missing = append(missing, role)
		}
	}
	if len(missing) > 0 {
		return MissingRoles{Roles: missing}, nil
	}
	return nil, nil
}

// CooldownInhibitor returns the cooldown inhibitor bound to tracker.
func CooldownInhibitor(tracker *cooldown.Tracker) Inhibitor {
	return func(ctx context.Context, bot *Bot, cmd *Command, opts Options) (Denial, error) {
		limit := cmd.Cooldown
		if limit == nil {
			limit = bot.DefaultCooldown
		}
		if limit == nil {
			return nil, nil
		}
		if opts.MemberID != "" &&
			(slices.Contains(bot.IgnoreCooldown, opts.MemberID) || slices.Contains(cmd.IgnoreCooldown, opts.MemberID)) {
			return nil, nil
		}

		d, err := tracker.Hit(ctx, cooldown.Key{Actor: opts.MemberID, Command: cmd.Name}, *limit)
		if err != nil {
			return nil, err
		}
		if d.Allowed {
			return nil, nil
		}
		return CooldownActive{ExpiresAt: d.ExpiresAt, ExecutedAt: d.ExecutedAt}, nil
	}
}

// CheckNSFW denies NSFW commands unless the invocation is in a known guild
// channel flagged NSFW.
func CheckNSFW(_ context.Context, bot *Bot, cmd *Command, opts Options) (Denial, error) {
	if !cmd.NSFW {
		return nil, nil
	}
	if opts.GuildID == "" || opts.ChannelID == "" || bot.Channels == nil {
		return NSFWRequired{}, nil
	}
	ch, ok := bot.Channels.Channel(opts.ChannelID)
	if !ok || ch == nil || !ch.NSFW {
		return NSFWRequired{}, nil
	}
	return nil, nil
}

// CheckOwnerOnly denies owner-only commands for everyone but bot owners.
func CheckOwnerOnly(_ context.Context, bot *Bot, cmd *Command, opts Options) (Denial, error) {
	if cmd.OwnerOnly && !bot.IsOwner(opts.MemberID) {
		return OwnerOnly{}, nil
	}
	return nil, nil
}

// CheckBotPermissions denies when the bot itself lacks the guild or channel
// permissions the command needs. Guild scope is checked first.
func CheckBotPermissions(_ context.Context, bot *Bot, cmd *Command, opts Options) (Denial, error) {
	if cmd.DMOnly && !cmd.GuildOnly {
		return nil, nil
	}

	if len(cmd.BotGuildPermissions) > 0 {
		if opts.GuildID == "" {
			return BotMissingPermissions{Channel: false}, nil
		}
		missing, err := missingGuild(bot, opts.GuildID, bot.ID, cmd.BotGuildPermissions)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			return BotMissingPermissions{Permissions: missing, Channel: false}, nil
		}
	}

	if len(cmd.BotChannelPermissions) > 0 {
		if opts.ChannelID == "" {
			return BotMissingPermissions{Channel: true}, nil
		}
		missing, err := missingChannel(bot, opts.ChannelID, bot.ID, cmd.BotChannelPermissions)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			return BotMissingPermissions{Permissions: missing, Channel: true}, nil
		}
	}

	return nil, nil
}

// CheckUserPermissions denies when the actor lacks the guild or channel
// permissions the command needs. DM-only commands are never checked.
func CheckUserPermissions(_ context.Context, bot *Bot, cmd *Command, opts Options) (Denial, error) {
	if cmd.DMOnly {
		return nil, nil
	}

	if len(cmd.UserGuildPermissions) > 0 {
		if opts.GuildID == "" || opts.MemberID == "" {
			return UserMissingPermissions{Channel: false}, nil
		}
		missing, err := missingGuild(bot, opts.GuildID, opts.MemberID, cmd.UserGuildPermissions)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			return UserMissingPermissions{Permissions: missing, Channel: false}, nil
		}
	}

	if len(cmd.UserChannelPermissions) > 0 {
		if opts.MemberID == "" || opts.ChannelID == "" {
			return UserMissingPermissions{Channel: true}, nil
		}
		missing, err := missingChannel(bot, opts.ChannelID, opts.MemberID, cmd.UserChannelPermissions)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			return UserMissingPermissions{Permissions: missing, Channel: true}, nil
		}
	}

	return nil, nil
}

// CheckGuildOrDMOnly enforces the command's and the bot's guild/DM
// restriction against where the invocation happened.
func CheckGuildOrDMOnly(_ context.Context, bot *Bot, cmd *Command, opts Options) (Denial, error) {
	inGuild := opts.GuildID != ""
	if !inGuild && (cmd.GuildOnly || bot.GuildOnly) {
		return GuildOnlyViolation{}, nil
	}
	if inGuild && (cmd.DMOnly || bot.DMOnly) {
		return DMOnlyViolation{}, nil
	}
	return nil, nil
}

// A bot without a permission lookup cannot vouch for anything, so every
// requested permission is reported missing.
func missingGuild(bot *Bot, guildID, userID string, perms []string) ([]string, error) {
	if bot.Permissions == nil {
		return slices.Clone(perms), nil
	}
	missing, err := bot.Permissions.MissingGuildPermissions(guildID, userID, perms)
	if err != nil {
		return nil, fmt.Errorf("guild permissions for %s in %s: %w", userID, guildID, err)
	}
	return missing, nil
}

func missingChannel(bot *Bot, channelID, userID string, perms []string) ([]string, error) {
	if bot.Permissions == nil {
		return slices.Clone(perms), nil
	}
	missing, err := bot.Permissions.MissingChannelPermissions(channelID, userID, perms)
	if err != nil {
		return nil, fmt.Errorf("channel permissions for %s in %s: %w", userID, channelID, err)
	}
	return missing, nil
}
