package discord

import "github.com/bwmarrin/discordgo"

type permission struct {
	bit   int64
	label string
}

// permissionTable maps the permission names used in command metadata to
// Discord bits and display labels.
var permissionTable = map[string]permission{
	"CREATE_INSTANT_INVITE":    {discordgo.PermissionCreateInstantInvite, "Create Instant Invite"},
	"KICK_MEMBERS":             {discordgo.PermissionKickMembers, "Kick Members"},
	"BAN_MEMBERS":              {discordgo.PermissionBanMembers, "Ban Members"},
	"ADMINISTRATOR":            {discordgo.PermissionAdministrator, "Administrator"},
	"MANAGE_CHANNELS":          {discordgo.PermissionManageChannels, "Manage Channels"},
	"MANAGE_GUILD":             {discordgo.PermissionManageGuild, "Manage Server"},
	"ADD_REACTIONS":            {discordgo.PermissionAddReactions, "Add Reactions"},
	"VIEW_AUDIT_LOG":           {discordgo.PermissionViewAuditLogs, "View Audit Logs"},
	"PRIORITY_SPEAKER":         {discordgo.PermissionVoicePrioritySpeaker, "Priority Speaker"},
	"STREAM":                   {discordgo.PermissionVoiceStreamVideo, "Stream Video"},
	"VIEW_CHANNEL":             {discordgo.PermissionViewChannel, "View Channel"},
	"SEND_MESSAGES":            {discordgo.PermissionSendMessages, "Send Messages"},
	"SEND_TTS_MESSAGES":        {discordgo.PermissionSendTTSMessages, "Send TTS Messages"},
	"MANAGE_MESSAGES":          {discordgo.PermissionManageMessages, "Manage Messages"},
	"EMBED_LINKS":              {discordgo.PermissionEmbedLinks, "Embed Links"},
	"ATTACH_FILES":             {discordgo.PermissionAttachFiles, "Attach Files"},
	"READ_MESSAGE_HISTORY":     {discordgo.PermissionReadMessageHistory, "Read Message History"},
	"MENTION_EVERYONE":         {discordgo.PermissionMentionEveryone, "Mention Everyone"},
	"USE_EXTERNAL_EMOJIS":      {discordgo.PermissionUseExternalEmojis, "Use External Emojis"},
	"VIEW_GUILD_INSIGHTS":      {discordgo.PermissionViewGuildInsights, "View Guild Insights"},
	"CONNECT":                  {discordgo.PermissionVoiceConnect, "Connect to Voice Channel"},
	"SPEAK":                    {discordgo.PermissionVoiceSpeak, "Speak"},
	"MUTE_MEMBERS":             {discordgo.PermissionVoiceMuteMembers, "Mute Members"},
	"DEAFEN_MEMBERS":           {discordgo.PermissionVoiceDeafenMembers, "Deafen Members"},
	"MOVE_MEMBERS":             {discordgo.PermissionVoiceMoveMembers, "Move Members"},
	"USE_VAD":                  {discordgo.PermissionVoiceUseVAD, "Use Voice Activity Detection"},
	"CHANGE_NICKNAME":          {discordgo.PermissionChangeNickname, "Change Nickname"},
	"MANAGE_NICKNAMES":         {discordgo.PermissionManageNicknames, "Manage Nicknames"},
	"MANAGE_ROLES":             {discordgo.PermissionManageRoles, "Manage Roles"},
	"MANAGE_WEBHOOKS":          {discordgo.PermissionManageWebhooks, "Manage Webhooks"},
	"USE_APPLICATION_COMMANDS": {discordgo.PermissionUseApplicationCommands, "Use Application Commands"},
	"REQUEST_TO_SPEAK":         {discordgo.PermissionVoiceRequestToSpeak, "Request to Speak"},
	"MANAGE_EVENTS":            {discordgo.PermissionManageEvents, "Manage Events"},
	"MANAGE_THREADS":           {discordgo.PermissionManageThreads, "Manage Threads"},
	"CREATE_PUBLIC_THREADS":    {discordgo.PermissionCreatePublicThreads, "Create Public Threads"},
	"CREATE_PRIVATE_THREADS":   {discordgo.PermissionCreatePrivateThreads, "Create Private Threads"},
	"USE_EXTERNAL_STICKERS":    {discordgo.PermissionUseExternalStickers, "Use External Stickers"},
	"SEND_MESSAGES_IN_THREADS": {discordgo.PermissionSendMessagesInThreads, "Send Messages in Threads"},
	"USE_EMBEDDED_ACTIVITIES":  {discordgo.PermissionUseEmbeddedActivities, "Use Embedded Activities"},
	"MODERATE_MEMBERS":         {discordgo.PermissionModerateMembers, "Moderate Members"},
}

// PermissionLabel returns the display label for a permission name, or the
// name itself when it is not known.
func PermissionLabel(name string) string {
	if p, ok := permissionTable[name]; ok {
		return p.label
	}
	return name
}

// PermissionBit returns the Discord bit for a permission name.
func PermissionBit(name string) (int64, bool) {
	p, ok := permissionTable[name]
	return p.bit, ok
}

// missingFrom returns the names in wanted not granted by held. Unknown names
// can never be granted and are always reported.
func missingFrom(held int64, wanted []string) []string {
	var missing []string
	for _, name := range wanted {
		bit, ok := PermissionBit(name)
		if !ok || held&bit != bit {
			missing = append(missing, name)
		}
	}
	return missing
}

// Labels maps permission names to their display labels.
func Labels(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = PermissionLabel(n)
	}
	return out
}
