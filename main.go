package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"

	"github.com/example/drillbot/internal/bot"
	"github.com/example/drillbot/internal/config"
	"github.com/example/drillbot/internal/database"
	"github.com/example/drillbot/internal/platform/logger"
	"github.com/example/drillbot/internal/registry"
	"github.com/example/drillbot/internal/scheduler"
	"github.com/example/drillbot/internal/session"
	"github.com/example/drillbot/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.Setup(cfg.Log)

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("bot exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress, completions, db, err := openStores(cfg.Storage)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	reg := registry.Open(cfg.Storage.RegistryPath(), cfg.Storage.ProgressDir(), progress, completions, logger)
	controller := session.New(reg, progress, completions, logger)

	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}
	api.Debug = cfg.Bot.Debug
	logger.Info("authorized on account", "username", api.Self.UserName)

	b := bot.New(api, controller, bot.Options{
		OwnerChatID: cfg.Bot.OwnerChatID,
		UploadDir:   cfg.Bot.Uploads(cfg.Storage.DataDir),
	}, logger)

	if cfg.Reminder.Enabled {
		s := scheduler.New(b, nil, logger)
		if err := s.Start(cfg.Reminder.At); err != nil {
			return err
		}
		defer s.Stop()
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := api.GetUpdatesChan(updateConfig)
	defer api.StopReceivingUpdates()

	if err := b.Run(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// openStores builds the progress and completion stores for the configured backend.
// The returned database is nil for the file backend.
func openStores(cfg config.StorageConfig) (storage.ProgressStore, storage.CompletionStore, *sqlx.DB, error) {
	switch cfg.Backend {
	case config.BackendSQLite, config.BackendPostgres:
		driver := database.DriverSQLite
		if cfg.Backend == config.BackendPostgres {
			driver = database.DriverPostgres
		}
		db, err := database.Connect(driver, cfg.DatabaseDSN())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return database.NewProgressRepository(db), database.NewCompletionRepository(db), db, nil
	default:
		return storage.NewFileProgressStore(), storage.NewFileCompletionStore(cfg.CompletionsPath()), nil, nil
	}
}
