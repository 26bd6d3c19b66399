package discord

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/inhibitor/pkg/inhibit"
)

// Sender is the part of *discordgo.Session the dispatcher replies through.
type Sender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Invocation is what a handler receives once every inhibitor passed.
type Invocation struct {
	Sender  Sender
	Message *discordgo.MessageCreate
	Command *inhibit.Command
	Args    []string
}

// Reply sends content to the invoking channel.
func (inv *Invocation) Reply(content string) error {
	_, err := inv.Sender.ChannelMessageSend(inv.Message.ChannelID, content)
	return err
}

type HandlerFunc func(ctx context.Context, inv *Invocation) error

type route struct {
	cmd     *inhibit.Command
	handler HandlerFunc
}

// Outcome classifies what Dispatch did with a message.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeDenied
	OutcomeFailed
	OutcomeExecuted
)

// Result describes one Dispatch call.
type Result struct {
	Outcome   Outcome
	Command   string
	Inhibitor string
	Denial    inhibit.Denial
	Err       error
}

// Dispatcher routes prefixed message commands through the inhibitor
// registry before running their handlers.
type Dispatcher struct {
	prefix     string
	bot        *inhibit.Bot
	registry   *inhibit.Registry
	throttle   *ReplyThrottle
	log        zerolog.Logger

	mu         sync.RWMutex
	ignoreBots bool
	routes     map[string]route
}

// NewDispatcher builds a dispatcher. throttle may be nil to reply to every
// denial.
func NewDispatcher(prefix string, bot *inhibit.Bot, registry *inhibit.Registry, throttle *ReplyThrottle, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		prefix:     prefix,
		bot:        bot,
		registry:   registry,
		throttle:   throttle,
		log:        log.With().Str("component", "dispatcher").Logger(),
		ignoreBots: true,
		routes:     make(map[string]route),
	}
}

// SetIgnoreBots controls whether messages from other bots are dropped.
// They are by default.
func (d *Dispatcher) SetIgnoreBots(ignore bool) {
	d.mu.Lock()
	d.ignoreBots = ignore
	d.mu.Unlock()
}

// Handle registers a command under its name and any aliases.
func (d *Dispatcher) Handle(cmd inhibit.Command, h HandlerFunc, aliases ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r := route{cmd: &cmd, handler: h}
	d.routes[strings.ToLower(cmd.Name)] = r
	for _, a := range aliases {
		d.routes[strings.ToLower(a)] = r
	}
}

// Commands returns registered commands sorted by name, aliases collapsed.
func (d *Dispatcher) Commands() []*inhibit.Command {
	d.mu.RLock()
	defer d.mu.RUnlock()

	seen := map[string]bool{}
	list := make([]*inhibit.Command, 0, len(d.routes))
	for _, r := range d.routes {
		if seen[r.cmd.Name] {
			continue
		}
		seen[r.cmd.Name] = true
		list = append(list, r.cmd)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// OnMessageCreate is the discordgo handler.
func (d *Dispatcher) OnMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	d.Dispatch(context.Background(), s, m)
}

// Dispatch parses m, runs the inhibitors and, if they all pass, the handler.
func (d *Dispatcher) Dispatch(ctx context.Context, sender Sender, m *discordgo.MessageCreate) Result {
	if m == nil || m.Message == nil || m.Author == nil {
		return Result{Outcome: OutcomeIgnored}
	}
	name, args, ok := d.parse(m.Content)
	if !ok {
		return Result{Outcome: OutcomeIgnored}
	}
	d.mu.RLock()
	ignoreBots := d.ignoreBots
	r, found := d.routes[name]
	d.mu.RUnlock()
	if m.Author.ID == d.bot.ID || (ignoreBots && m.Author.Bot) || !found {
		return Result{Outcome: OutcomeIgnored}
	}

	log := d.log.With().
		Str("command", r.cmd.Name).
		Str("user", m.Author.ID).
		Str("guild", m.GuildID).
		Str("channel", m.ChannelID).
		Logger()

	opts := inhibit.Options{MemberID: m.Author.ID, GuildID: m.GuildID, ChannelID: m.ChannelID}
	inhibitor, denial, err := d.registry.Check(ctx, d.bot, r.cmd, opts)
	if err != nil {
		log.Error().Err(err).Str("inhibitor", inhibitor).Msg("inhibitor failed")
		d.reply(sender, m.ChannelID, ErrorEmbed("Something went wrong while checking this command."), false)
		return Result{Outcome: OutcomeFailed, Command: r.cmd.Name, Inhibitor: inhibitor, Err: err}
	}
	if denial != nil {
		ev := log.Debug().Str("inhibitor", inhibitor).Stringer("kind", denial.Kind())
		if cd, ok := denial.(inhibit.CooldownActive); ok {
			ev = ev.Str("remaining", remaining(cd))
		}
		ev.Msg("command denied")
		d.reply(sender, m.ChannelID, DenialEmbed(denial), true)
		return Result{Outcome: OutcomeDenied, Command: r.cmd.Name, Inhibitor: inhibitor, Denial: denial}
	}

	inv := &Invocation{Sender: sender, Message: m, Command: r.cmd, Args: args}
	if err := r.handler(ctx, inv); err != nil {
		log.Error().Err(err).Msg("command failed")
		d.reply(sender, m.ChannelID, ErrorEmbed(fmt.Sprintf("Error running command: %v", err)), false)
		return Result{Outcome: OutcomeFailed, Command: r.cmd.Name, Err: err}
	}
	log.Info().Msg("command executed")
	return Result{Outcome: OutcomeExecuted, Command: r.cmd.Name}
}

func (d *Dispatcher) parse(content string) (string, []string, bool) {
	if d.prefix == "" || !strings.HasPrefix(content, d.prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, d.prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

func (d *Dispatcher) reply(sender Sender, channelID string, embed *discordgo.MessageEmbed, throttled bool) {
	if throttled && d.throttle != nil && !d.throttle.Allow(channelID) {
		d.log.Debug().Str("channel", channelID).Msg("denial reply throttled")
		return
	}
	if _, err := sender.ChannelMessageSendEmbed(channelID, embed); err != nil {
		d.log.Warn().Err(err).Str("channel", channelID).Msg("failed to send reply")
	}
}
