// Package main contains the entrypoint for the multibot webhook relay.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/botrelay/internal/bot"
	"github.com/edgard/botrelay/internal/bot/handlers"
	"github.com/edgard/botrelay/internal/bot/tasks"
	"github.com/edgard/botrelay/internal/config"
	"github.com/edgard/botrelay/internal/database"
	"github.com/edgard/botrelay/internal/logger"
	"github.com/edgard/botrelay/internal/metrics"
	"github.com/edgard/botrelay/internal/registration"
	"github.com/edgard/botrelay/internal/server"
	"github.com/edgard/botrelay/internal/telegram"
	"github.com/edgard/botrelay/internal/token"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component, blocks until shutdown and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	session := telegram.NewSession(cfg.Telegram.RequestTimeout)
	factory := telegram.NewFactory(session, cfg.Telegram.APIURL, log)

	mainBot, err := factory.New(cfg.MainToken)
	if err != nil {
		log.Error("Failed to create main Telegram bot", "error", token.RedactError(err, cfg.MainToken))
		return 1
	}

	me, err := mainBot.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get main bot info", "error", token.RedactError(err, cfg.MainToken))
		return 1
	}
	log.Info("Retrieved main bot info", "bot_id", me.ID, "bot_username", me.Username)

	m := metrics.New()

	registrar := registration.NewService(registration.Options{
		BaseURL:       cfg.BaseURL,
		WebhookSecret: cfg.Telegram.WebhookSecret,
		Commands:      botCommands(cfg.Telegram.Commands),
		Factory:       factory,
		Store:         store,
		Metrics:       m,
		Logger:        log,
	})

	router := handlers.NewRouter(handlers.HandlerDeps{
		Logger:    log,
		Messages:  cfg.Messages,
		Registrar: registrar,
	})

	srv := server.New(server.Options{
		MainClient:    mainBot,
		Factory:       factory,
		Dispatcher:    router,
		Registrar:     registrar,
		Health:        store,
		Metrics:       m,
		WebhookSecret: cfg.Telegram.WebhookSecret,
		AddedMessage:  cfg.Messages.BotAdded,
		Logger:        log,
	})

	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:    log,
		Store:     store,
		Retention: cfg.Audit.Retention,
	})
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, taskMap)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	relay := bot.NewRelay(bot.RelayOptions{
		Logger:          log,
		MainClient:      mainBot,
		MainWebhookURL:  registrar.MainBotURL(),
		WebhookSecret:   cfg.Telegram.WebhookSecret,
		Addr:            cfg.Server.Addr(),
		Handler:         srv.Handler(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Scheduler:       sched,
	})

	log.Info("Starting relay...", "base_url", cfg.BaseURL)
	runErr := relay.Run(ctx)
	log.Info("Relay run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Relay stopped due to error", "error", token.RedactError(runErr, cfg.MainToken))
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Relay stopped gracefully.")
	return 0
}

func botCommands(cfg []config.CommandConfig) []models.BotCommand {
	commands := make([]models.BotCommand, 0, len(cfg))
	for _, c := range cfg {
		commands = append(commands, models.BotCommand{Command: c.Command, Description: c.Description})
	}
	return commands
}
