package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"

	"github.com/keshon/inhibitor/pkg/inhibit"
)

const (
	EmbedColor = 0xb01e66
	ErrorColor = 0xff0000
)

// DenialEmbed wraps DenialMessage in the embed the bot replies with.
func DenialEmbed(d inhibit.Denial) *discordgo.MessageEmbed {
	return embed.NewEmbed().
		SetDescription(DenialMessage(d)).
		SetColor(EmbedColor).
		MessageEmbed
}

// ErrorEmbed is the reply for a failed check or command.
func ErrorEmbed(description string) *discordgo.MessageEmbed {
	return embed.NewEmbed().
		SetTitle("Error").
		SetDescription(description).
		SetColor(ErrorColor).
		MessageEmbed
}

// DenialMessage renders a denial for the user who triggered it.
func DenialMessage(d inhibit.Denial) string {
	switch v := d.(type) {
	case inhibit.MissingRoles:
		if len(v.Roles) == 0 {
			return "You are missing a role required for this command."
		}
		return fmt.Sprintf("You need the following roles to run this command:\n%s", roleMentions(v.Roles))
	case inhibit.CooldownActive:
		return fmt.Sprintf("Slow down. You can use this command again <t:%d:R>.", v.ExpiresAt.Unix())
	case inhibit.NSFWRequired:
		return "This command can only be used in an NSFW channel."
	case inhibit.OwnerOnly:
		return "Only the bot owners can use this command."
	case inhibit.BotMissingPermissions:
		return permissionMessage("I need", v.Permissions, v.Channel)
	case inhibit.UserMissingPermissions:
		return permissionMessage("You need", v.Permissions, v.Channel)
	case inhibit.GuildOnlyViolation:
		return "This command can only be used in a server."
	case inhibit.DMOnlyViolation:
		return "This command can only be used in direct messages."
	default:
		return "You cannot use this command right now."
	}
}

func permissionMessage(who string, perms []string, channel bool) string {
	where := "on this server"
	if channel {
		where = "in this channel"
	}
	if len(perms) == 0 {
		return fmt.Sprintf("%s more permissions %s to run this command.", who, where)
	}
	return fmt.Sprintf("%s the following permissions %s to run this command:\n`%s`",
		who, where, strings.Join(Labels(perms), "`, `"))
}

func roleMentions(ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = "<@&" + id + ">"
	}
	return strings.Join(out, " ")
}

// remaining formats a wait for log lines.
func remaining(d inhibit.CooldownActive) string {
	return d.Remaining().Round(time.Second).String()
}
