package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/questd/internal/config"
	"github.com/udisondev/questd/internal/game/quest"
	"github.com/udisondev/questd/internal/gameserver"
	"github.com/udisondev/questd/internal/gameserver/admin"
	"github.com/udisondev/questd/internal/gameserver/admin/commands"
	"github.com/udisondev/questd/internal/lang"
)

const ConfigPath = "config/questserver.yaml"

// flushTimeout bounds the final save after the world loop stops.
const flushTimeout = 10 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config FIRST to determine log level
	cfgPath := ConfigPath
	if p := os.Getenv("QUESTD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadQuestServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("questd starting",
		"log_level", cfg.LogLevel,
		"world", cfg.WorldID,
		"bind", cfg.BindAddress,
		"port", cfg.Port,
		"storage", cfg.Storage.Driver)

	repos, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	loc, err := cfg.Daily.Location()
	if err != nil {
		return err
	}

	// Content
	catalog := quest.NewCatalog()
	translations := lang.NewManager(cfg.LangDir, cfg.DefaultLocale)
	content := gameserver.NewContent(catalog, quest.DirSource{Root: cfg.QuestsDir}, translations)
	_, problems, err := content.Reload()
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}
	for _, p := range problems {
		slog.Warn("content problem", "error", p)
	}

	// Daily rotation
	daily := quest.NewDailyScheduler(catalog, quest.DailyConfig{
		RerollHour: cfg.Daily.RerollHour,
		Count:      cfg.Daily.Count,
		Location:   loc,
	}, nil)
	sel, err := repos.daily.LoadDaily(ctx, cfg.WorldID)
	if err != nil {
		return fmt.Errorf("loading daily selection: %w", err)
	}
	daily.Restore(sel)
	daily.EnsureSelection()

	// World, engine, transport
	world := gameserver.NewWorld(cfg.WorldID, 0)
	clients := gameserver.NewClientManager()
	locales := lang.NewLocaleStore(cfg.DefaultLocale)
	store := quest.NewProgressStore()

	syncer, err := gameserver.NewSyncer(clients, catalog, translations, locales, cfg.LocalizeCacheSize, cfg.CompressThreshold)
	if err != nil {
		return err
	}
	engine := quest.NewEngine(catalog, store, daily, gameserver.NewRewardForwarder(clients), syncer)
	autosaver := gameserver.NewAutosaver(world, store, daily, repos.progress, repos.daily, cfg.AutosaveInterval)

	cmds := admin.NewHandler()
	commands.RegisterAll(cmds, engine, daily, gameserver.NewAdminPlayers(clients), content)
	slog.Info("commands registered",
		"admin", cmds.AdminCommandCount(),
		"user", cmds.UserCommandCount())

	handler := gameserver.NewHandler(gameserver.HandlerDeps{
		World:     world,
		Engine:    engine,
		Daily:     daily,
		Repo:      repos.progress,
		Autosaver: autosaver,
		Clients:   clients,
		Locales:   locales,
		Accounts:  admin.NewAccounts(cfg.Admins),
		Commands:  cmds,
	})
	server := gameserver.NewServer(cfg, handler, clients)

	scheduler := cron.New()
	if _, err := daily.Schedule(scheduler, func(fn func()) { world.Submit(fn) }, engine.SyncAll); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := world.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("world loop: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("starting autosave loop", "interval", cfg.AutosaveInterval)
		return autosaver.Run(gctx)
	})

	g.Go(func() error {
		slog.Info("starting quest server", "port", cfg.Port)
		if err := server.Run(gctx); err != nil {
			return fmt.Errorf("quest server: %w", err)
		}
		return nil
	})

	// Wait for all loops to finish
	runErr := g.Wait()

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()
	if err := autosaver.Flush(flushCtx); err != nil {
		slog.Error("final save failed", "error", err)
	} else {
		slog.Info("final save complete")
	}

	if runErr != nil {
		return fmt.Errorf("server error: %w", runErr)
	}
	return nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
