// cmd/discord/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/keshon/inhibitor/datastore"
	"github.com/keshon/inhibitor/internal/config"
	"github.com/keshon/inhibitor/internal/discord"
	"github.com/keshon/inhibitor/internal/logging"
	"github.com/keshon/inhibitor/internal/redisstore"
	"github.com/keshon/inhibitor/pkg/cooldown"
	"github.com/keshon/inhibitor/pkg/inhibit"
	"github.com/keshon/inhibitor/pkg/jobmgr"
)

const (
	sweeperJob  = "cooldown-sweeper"
	throttleJob = "reply-throttle-prune"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("config")
	}

	log := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, (*discordgo.Session).Open); err != nil {
		stop()
		log.Fatal().Err(err).Msg("bot stopped")
	}
}

// run starts the bot and blocks until ctx is done. Every resource it opens
// is released before it returns, including on errors.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, connect func(*discordgo.Session) error) error {
	log.Info().Msg("starting inhibitor bot")

	store, closeStore, err := newStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	jobs := jobmgr.NewManager(log)
	defer jobs.StopAll()

	sweeper := cooldown.NewSweeper(store, nil, cfg.SweepInterval, log)
	if err := jobs.StartAsync(sweeperJob, sweeper.Run); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	lookup := discord.NewStateLookup(dg.State)
	bot := &inhibit.Bot{
		Owners:          cfg.Owners,
		DefaultCooldown: cfg.DefaultCooldown(),
		IgnoreCooldown:  cfg.IgnoreCooldown,
		GuildOnly:       cfg.GuildOnly,
		DMOnly:          cfg.DMOnly,
		Members:         lookup,
		Channels:        lookup,
		Permissions:     lookup,
	}

	registry := inhibit.NewDefaultRegistry(cooldown.NewTracker(store, nil))
	throttle := discord.NewReplyThrottle(cfg.ReplyRate, cfg.ReplyBurst)
	dispatcher := discord.NewDispatcher(cfg.CommandPrefix, bot, registry, throttle, log)
	registerCommands(dispatcher, sweeper, jobs)

	if err := jobs.StartAsync(throttleJob, pruneThrottle(throttle, log)); err != nil {
		return fmt.Errorf("start throttle pruning: %w", err)
	}

	if err := connect(dg); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	defer dg.Close()

	bot.ID = dg.State.User.ID
	dg.AddHandler(dispatcher.OnMessageCreate)
	log.Info().Str("user", dg.State.User.Username).Msg("discord bot is running")

	<-ctx.Done()
	log.Info().Msg("shutting down")
	return nil
}

func newStore(cfg *config.Config, log zerolog.Logger) (cooldown.Store, func(), error) {
	if cfg.RedisAddr == "" {
		store, closeStore := newMemoryStore(cfg.SnapshotPath, log)
		return store, closeStore, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis %s unreachable: %w", cfg.RedisAddr, err)
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("sharing cooldowns through redis")

	store := redisstore.New(rdb, redisstore.WithPrefix(cfg.RedisPrefix), redisstore.WithGrace(cfg.SweepInterval))
	return store, func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("close redis")
		}
	}, nil
}

func newMemoryStore(path string, log zerolog.Logger) (cooldown.Store, func()) {
	store := cooldown.NewMemoryStore()
	if path == "" {
		return store, func() {}
	}

	entries, err := datastore.Load(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("ignoring cooldown snapshot")
	} else {
		n := store.Restore(entries, time.Now())
		log.Info().Int("entries", n).Str("path", path).Msg("cooldowns restored")
	}

	return store, func() {
		if err := datastore.Save(path, store.Snapshot(), time.Now()); err != nil {
			log.Error().Err(err).Str("path", path).Msg("save cooldown snapshot")
		}
	}
}

func pruneThrottle(t *discord.ReplyThrottle, log zerolog.Logger) jobmgr.Runner {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := t.Prune(time.Hour); n > 0 {
					log.Debug().Int("channels", n).Msg("pruned reply throttles")
				}
			}
		}
	}
}
