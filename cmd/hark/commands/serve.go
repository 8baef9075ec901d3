package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/keshon/hark/internal/bot"
	"github.com/keshon/hark/internal/config"
	"github.com/keshon/hark/internal/discord"
	"github.com/keshon/hark/internal/media"
	"github.com/keshon/hark/internal/storage"
	"github.com/keshon/hark/pkg/retrylimit"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// serve runs the bot until the gateway closes, a signal arrives or the
// connection is lost for good.
func serve(parent context.Context, envFiles []string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(envFiles...)
	if err != nil {
		return err
	}
	setupLogging(cfg)
	discord.RouteLogs()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close storage")
		}
	}()

	resolver, err := media.New(media.Options{
		Parsers:      cfg.Media.Parsers,
		YtdlpPath:    cfg.Media.YtdlpPath,
		FFmpegPath:   cfg.Media.FFmpegPath,
		YouTubeProxy: cfg.Media.YouTubeProxy,
	})
	if err != nil {
		return err
	}

	messenger, err := discord.NewMessenger(cfg.DiscordToken)
	if err != nil {
		return err
	}

	opts := bot.Options{Trigger: cfg.CommandTrigger, Markers: cfg.Markers}
	retry := retrylimit.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Reconnect.MaxAttempts
	retry.InitialDelay = cfg.Reconnect.InitialDelay
	retry.MaxDelay = cfg.Reconnect.MaxDelay

	session := bot.NewSession(
		discord.NewClient(cfg.DiscordToken, cfg.ReadyTimeout),
		bot.NewCommandRouter(messenger, resolver, store, opts),
		bot.NewReactionTrigger(messenger, resolver, store, opts),
		bot.NewOccupancyMonitor(),
		retry,
		retrylimit.NewAdaptiveLimiter(1, 0.2, 5, 1, 0.5),
	)

	log.Info().Str("trigger", cfg.CommandTrigger).Strs("parsers", cfg.Media.Parsers).Msg("starting")
	if err := session.Run(ctx); err != nil {
		return err
	}
	log.Info().Msg("exited cleanly")
	return nil
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
