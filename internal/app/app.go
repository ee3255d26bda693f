package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/julioseixas/portalwatch/internal/chat"
	"github.com/julioseixas/portalwatch/internal/config"
	"github.com/julioseixas/portalwatch/internal/notify"
	"github.com/julioseixas/portalwatch/internal/portal"
	"github.com/julioseixas/portalwatch/internal/prefs"
	"github.com/julioseixas/portalwatch/internal/ui"
)

// Options configure a portalwatch run. Non-zero fields override the config
// file and environment.
type Options struct {
	ConfigPath   string
	PrefsPath    string // empty uses ~/.config/portalwatch/prefs.toml
	PollInterval time.Duration
	Screen       string
	Headless     bool
}

// Run boots portalwatch until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.PollInterval > 0 {
		cfg.PollInterval = opts.PollInterval
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, logFile, err := newLogger(cfg.LogFile, cfg.LogLevel, opts.Headless)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs := prefs.Load(prefsPath)

	screen, err := resolveScreen(opts.Screen, userPrefs.Screen, cfg.Screen)
	if err != nil {
		return err
	}

	var tokens portal.TokenSource = portal.StaticToken(cfg.Token)
	if cfg.TokenFile != "" {
		tokens = portal.FileToken(cfg.TokenFile)
	}
	client, err := portal.NewClient(cfg.APIBase, tokens)
	if err != nil {
		return fmt.Errorf("init portal client: %w", err)
	}

	player, err := newPlayer(cfg)
	if err != nil {
		return err
	}
	board := notify.NewBoard(nil, 0)
	var sink notify.ToastSink = board
	if opts.Headless {
		sink = newToastLog(logger)
	}
	notifier := notify.New(notify.Policy{ViewerID: cfg.ViewerID}, player, sink, logger)
	notifier.SetMuted(userPrefs.Muted)

	if cfg.MetricsAddr != "" {
		serveMetrics(ctx, cfg.MetricsAddr, logger)
	}

	tracker := NewTracker(TrackerOptions{
		Fetcher:    client,
		Notifier:   notifier,
		Screen:     screen,
		AgendaID:   cfg.AgendaID,
		PatientIDs: cfg.PatientIDs,
		ViewerID:   cfg.ViewerID,
		Interval:   cfg.PollInterval,
		Logger:     logger,
	})
	defer tracker.Stop()

	logger.Info().
		Str("api_base", cfg.APIBase).
		Str("screen", string(screen)).
		Dur("interval", cfg.PollInterval).
		Bool("headless", opts.Headless).
		Msg("starting portalwatch")

	startErr := tracker.Switch(ctx, screen)
	if opts.Headless {
		if startErr != nil {
			return fmt.Errorf("start poller: %w", startErr)
		}
		return runHeadless(ctx, tracker, logger)
	}
	if startErr != nil && !errors.Is(startErr, portal.ErrMissingContext) {
		return fmt.Errorf("start poller: %w", startErr)
	}

	uiOpts := ui.Options{
		Context:   ctx,
		Tracker:   tracker,
		Toasts:    board,
		Muter:     notifier,
		ViewerID:  cfg.ViewerID,
		LogPath:   cfg.LogFile,
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
		StartErr:  startErr,
	}
	if cfg.ChatEnabled() {
		room, leave, err := joinChat(ctx, cfg, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("chat unavailable")
			board.Post(notify.LevelError, "Chat unavailable: "+err.Error())
		} else {
			defer leave()
			uiOpts.Room = room
		}
	}

	return ui.Run(uiOpts)
}

// resolveScreen picks the first non-empty of the flag, the screen last
// chosen in the UI and the configured one.
func resolveScreen(flagValue, saved, configured string) (portal.Screen, error) {
	if flagValue != "" {
		return portal.ParseScreen(flagValue)
	}
	if saved != "" {
		if s, err := portal.ParseScreen(saved); err == nil {
			return s, nil
		}
	}
	return portal.ParseScreen(configured)
}

func newPlayer(cfg config.Config) (notify.Player, error) {
	switch cfg.Sound {
	case config.SoundOff:
		return notify.Silent{}, nil
	case config.SoundCommand:
		p, err := notify.NewCommandPlayer(cfg.SoundCommand)
		if err != nil {
			return nil, fmt.Errorf("init sound command: %w", err)
		}
		return p, nil
	default:
		return notify.BellPlayer{Out: os.Stderr}, nil
	}
}

// joinChat connects the chat bus and history and joins the configured room.
// History is optional: when Redis is unreachable the room still works.
func joinChat(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*chat.Room, func(), error) {
	bus, err := chat.ConnectNATS(chat.DefaultNATSConfig(cfg.Chat.NATSURL), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}

	var (
		history chat.History
		redis   *chat.RedisHistory
	)
	if cfg.Chat.RedisAddr != "" {
		redis, err = chat.DialRedisHistory(ctx, cfg.Chat.RedisAddr, cfg.Chat.HistoryTTL, cfg.Chat.HistoryCap)
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Chat.RedisAddr).Msg("chat history disabled")
		} else {
			history = redis
		}
	}

	senderID := cfg.ViewerID
	if senderID == "" {
		senderID = uuid.NewString()
	}
	room := chat.NewRoom(chat.RoomOptions{
		RoomID:     cfg.Chat.RoomID,
		SenderID:   senderID,
		SenderName: cfg.ChatSenderName(),
		Bus:        bus,
		History:    history,
		Cache: chat.NewCache(chat.CacheOptions{
			MaxRooms: cfg.Chat.MaxRooms,
			MaxAge:   cfg.Chat.MaxAge,
		}),
		Logger: logger,
	})

	closeAll := func() {
		bus.Close()
		if history != nil {
			_ = redis.Close()
		}
	}
	if err := room.Join(ctx); err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("join room: %w", err)
	}
	return room, func() {
		_ = room.Leave()
		closeAll()
	}, nil
}
