package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/inhibitor/internal/discord"
	"github.com/keshon/inhibitor/pkg/cooldown"
	"github.com/keshon/inhibitor/pkg/inhibit"
	"github.com/keshon/inhibitor/pkg/jobmgr"
)

func registerCommands(d *discord.Dispatcher, sweeper *cooldown.Sweeper, jobs *jobmgr.Manager) {
	d.Handle(inhibit.Command{
		Name:                  "ping",
		Cooldown:              &cooldown.Limit{AllowedUses: 1, Window: 5 * time.Second},
		BotChannelPermissions: []string{"SEND_MESSAGES"},
	}, func(_ context.Context, inv *discord.Invocation) error {
		return inv.Reply("pong")
	})

	d.Handle(inhibit.Command{
		Name:     "help",
		Cooldown: &cooldown.Limit{AllowedUses: 1, Window: 10 * time.Second},
	}, func(_ context.Context, inv *discord.Invocation) error {
		var b strings.Builder
		b.WriteString("Commands:\n")
		for _, c := range d.Commands() {
			fmt.Fprintf(&b, "`%s`\n", c.Name)
		}
		return inv.Reply(b.String())
	}, "commands")

	d.Handle(inhibit.Command{
		Name:      "sweep",
		OwnerOnly: true,
	}, func(ctx context.Context, inv *discord.Invocation) error {
		n, err := sweeper.SweepOnce(ctx)
		if err != nil {
			return err
		}
		return inv.Reply(fmt.Sprintf("Cleared %d expired cooldowns. Running jobs: %s",
			n, strings.Join(jobs.List(), ", ")))
	})

	d.Handle(inhibit.Command{
		Name:                   "purge",
		GuildOnly:              true,
		UserChannelPermissions: []string{"MANAGE_MESSAGES"},
		BotChannelPermissions:  []string{"MANAGE_MESSAGES", "READ_MESSAGE_HISTORY"},
		Cooldown:               &cooldown.Limit{AllowedUses: 1, Window: 30 * time.Second},
	}, purge)
}

type messageBulkDeleter interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessagesBulkDelete(channelID string, messages []string, options ...discordgo.RequestOption) error
}

// purge deletes the last N messages (default 10, max 100) in the channel.
func purge(_ context.Context, inv *discord.Invocation) error {
	n := 10
	if len(inv.Args) > 0 {
		if _, err := fmt.Sscanf(inv.Args[0], "%d", &n); err != nil || n < 1 {
			return inv.Reply("Usage: purge [count]")
		}
	}
	if n > 100 {
		n = 100
	}

	s, ok := inv.Sender.(messageBulkDeleter)
	if !ok {
		return fmt.Errorf("sender cannot delete messages")
	}
	msgs, err := s.ChannelMessages(inv.Message.ChannelID, n, "", "", "")
	if err != nil {
		return fmt.Errorf("fetch messages: %w", err)
	}
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	if err := s.ChannelMessagesBulkDelete(inv.Message.ChannelID, ids); err != nil {
		return fmt.Errorf("bulk delete: %w", err)
	}
	return nil
}
