package main

import (
	"errors"
	"log/slog"
	"os"

	httpapi "github.com/immxrtalbeast/relay_chat/internal/api/http"
	"github.com/immxrtalbeast/relay_chat/internal/config"
	"github.com/immxrtalbeast/relay_chat/internal/repository"
	"github.com/immxrtalbeast/relay_chat/internal/repository/model"
	"github.com/immxrtalbeast/relay_chat/internal/service"
	"github.com/immxrtalbeast/relay_chat/lib/logger/slogpretty"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	messages, err := openMessageStore(cfg.Storage)
	if err != nil {
		log.Error("failed to open message store", slog.Any("error", err))
		os.Exit(1)
	}

	registry := service.NewRegistry()
	chatService := service.NewChatService(messages, registry, log, service.Options{
		DefaultRoom:  cfg.Chat.DefaultRoom,
		HistoryLimit: cfg.Chat.HistoryLimit,
		RoomsLimit:   cfg.Chat.RoomsLimit,
	})

	chatController := httpapi.NewChatController(chatService, log)
	roomsController := httpapi.NewRoomsController(chatService)

	router := httpapi.SetupRouter(chatController, roomsController, cfg.HTTP.AllowedOrigins)

	log.Info("starting application",
		slog.String("addr", cfg.HTTP.Address),
		slog.String("storage", cfg.Storage.Driver),
	)
	if err := router.Run(cfg.HTTP.Address); err != nil {
		log.Error("http server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

func openMessageStore(cfg config.StorageConfig) (repository.MessageRepository, error) {
	switch cfg.Driver {
	case "sqlite":
		return repository.NewSQLiteMessageRepository(cfg.Path)
	case "postgres":
		if cfg.DSN == "" {
			return nil, errors.New("storage dsn is empty")
		}
		db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(&model.Message{}); err != nil {
			return nil, err
		}
		return repository.NewPostgresMessageRepository(db), nil
	case "memory":
		return repository.NewInMemoryMessageRepository(), nil
	default:
		return nil, errors.New("unknown storage driver: " + cfg.Driver)
	}
}
