package inhibit

import (
	"fmt"
	"strings"
	"time"
)

// Kind names a denial variant.
type Kind string

const (
	KindMissingRoles           Kind = "MISSING_REQUIRED_ROLES"
	KindCooldown               Kind = "COOLDOWN"
	KindNSFW                   Kind = "NSFW"
	KindOwnerOnly              Kind = "OWNER_ONLY"
	KindBotMissingPermissions  Kind = "BOT_MISSING_PERMISSIONS"
	KindUserMissingPermissions Kind = "USER_MISSING_PERMISSIONS"
	KindGuildsOnly             Kind = "GUILDS_ONLY"
	KindDMsOnly                Kind = "DMS_ONLY"
)

func (k Kind) String() string { return string(k) }

// Denial is the closed set of reasons an inhibitor can block an invocation.
// The variants are the types in this file; a type switch over them is
// exhaustive. Every variant is also an error.
type Denial interface {
	error
	Kind() Kind
	denial()
}

// MissingRoles lists required roles the actor does not hold.
type MissingRoles struct {
	Roles []string
}

// CooldownActive reports that the actor is inside a cooldown window.
type CooldownActive struct {
	ExpiresAt  time.Time
	ExecutedAt time.Time
}

// Remaining is how long until ExpiresAt, measured from ExecutedAt.
func (c CooldownActive) Remaining() time.Duration {
	return c.ExpiresAt.Sub(c.ExecutedAt)
}

// NSFWRequired means the command may only run in an NSFW channel.
type NSFWRequired struct{}

// OwnerOnly means the command is restricted to bot owners.
type OwnerOnly struct{}

// BotMissingPermissions lists permissions the bot lacks. Channel is true
// when the channel-scope check failed, false for the guild scope.
type BotMissingPermissions struct {
	Permissions []string
	Channel     bool
}

// UserMissingPermissions lists permissions the actor lacks.
type UserMissingPermissions struct {
	Permissions []string
	Channel     bool
}

// GuildOnlyViolation means a guild-only command was invoked outside a guild.
type GuildOnlyViolation struct{}

// DMOnlyViolation means a DM-only command was invoked inside a guild.
type DMOnlyViolation struct{}

func (MissingRoles) Kind() Kind           { return KindMissingRoles }
func (CooldownActive) Kind() Kind         { return KindCooldown }
func (NSFWRequired) Kind() Kind           { return KindNSFW }
func (OwnerOnly) Kind() Kind              { return KindOwnerOnly }
func (BotMissingPermissions) Kind() Kind  { return KindBotMissingPermissions }
func (UserMissingPermissions) Kind() Kind { return KindUserMissingPermissions }
func (GuildOnlyViolation) Kind() Kind     { return KindGuildsOnly }
func (DMOnlyViolation) Kind() Kind        { return KindDMsOnly }

func (MissingRoles) denial()           {}
func (CooldownActive) denial()         {}
func (NSFWRequired) denial()           {}
func (OwnerOnly) denial()              {}
func (BotMissingPermissions) denial()  {}
func (UserMissingPermissions) denial() {}
func (GuildOnlyViolation) denial()     {}
func (DMOnlyViolation) denial()        {}

func (d MissingRoles) Error() string {
	return fmt.Sprintf("missing required roles: %s", strings.Join(d.Roles, ", "))
}

func (d CooldownActive) Error() string {
	return fmt.Sprintf("on cooldown until %s", d.ExpiresAt.UTC().Format(time.RFC3339))
}

func (NSFWRequired) Error() string { return "command requires an nsfw channel" }

func (OwnerOnly) Error() string { return "command is restricted to bot owners" }

func (d BotMissingPermissions) Error() string {
	return fmt.Sprintf("bot is missing %s permissions: %s", scope(d.Channel), strings.Join(d.Permissions, ", "))
}

func (d UserMissingPermissions) Error() string {
	return fmt.Sprintf("user is missing %s permissions: %s", scope(d.Channel), strings.Join(d.Permissions, ", "))
}

func (GuildOnlyViolation) Error() string { return "command can only be used in a guild" }

func (DMOnlyViolation) Error() string { return "command can only be used in direct messages" }

func scope(channel bool) string {
	if channel {
		return "channel"
	}
	return "guild"
}
