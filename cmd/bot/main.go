// Package main contains the entrypoint for the poll bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/edgard/pollbot/internal/archive"
	"github.com/edgard/pollbot/internal/bot"
	"github.com/edgard/pollbot/internal/bot/handlers"
	"github.com/edgard/pollbot/internal/bot/tasks"
	"github.com/edgard/pollbot/internal/config"
	"github.com/edgard/pollbot/internal/dispatch"
	"github.com/edgard/pollbot/internal/logger"
	"github.com/edgard/pollbot/internal/store"
	"github.com/edgard/pollbot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run builds every component, runs the bot until ctx is cancelled and
// returns the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	transport, err := telegram.NewTransport(cfg.Telegram.Token, cfg.Telegram.APIURL, cfg.Telegram.RequestTimeout, log)
	if err != nil {
		log.Error("Failed to create Telegram transport", "error", err)
		return 1
	}
	sender, err := telegram.NewSender(cfg.Telegram.Token, cfg.Telegram.APIURL, log)
	if err != nil {
		log.Error("Failed to create Telegram sender", "error", err)
		return 1
	}

	var archiveStore archive.Store
	if cfg.Database.Path != "" {
		db, err := archive.Open(cfg.Database.Path, log)
		if err != nil {
			log.Error("Failed to open archive database", "path", cfg.Database.Path, "error", err)
			return 1
		}
		defer archive.Close(db, log)
		archiveStore = archive.NewStore(db, log)
	} else {
		log.Info("Message archive disabled")
	}

	app := bot.New(bot.Deps{
		Logger:      log,
		Transport:   transport,
		Sender:      sender,
		Store:       store.New(),
		Dispatcher:  dispatch.New(log, cfg.Dispatch.Prefix(), cfg.Dispatch.MaxHandlers),
		PollTimeout: cfg.Telegram.PollTimeout,
	})

	hDeps := handlers.HandlerDeps{Logger: log, Config: cfg}
	handlers.RegisterHandlers(app, log, handlers.RegisterAllCommands(hDeps), logger.Middleware(log))

	tDeps := tasks.TaskDeps{Logger: log, Config: cfg, Bot: app, Archive: archiveStore}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app.UseScheduler(sched)

	runErr := app.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		return 1
	}

	log.Info("Shutdown complete.")
	return 0
}
