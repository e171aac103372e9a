package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tammmikel/task-botv2/internal/api"
	"github.com/tammmikel/task-botv2/internal/bot"
	"github.com/tammmikel/task-botv2/internal/config"
	"github.com/tammmikel/task-botv2/internal/database"
	"github.com/tammmikel/task-botv2/internal/domain"
	"github.com/tammmikel/task-botv2/internal/events"
	"github.com/tammmikel/task-botv2/internal/logging"
	"github.com/tammmikel/task-botv2/internal/repository"
	"github.com/tammmikel/task-botv2/internal/service"
	"github.com/tammmikel/task-botv2/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := initSessionService(ctx, cfg, &logger)

	fileStore, err := initFileStore(ctx, cfg, &logger)
	if err != nil {
		return err
	}

	eventBus := events.NewEventBus()
	userService := service.NewUserService(db, eventBus, &logger)
	companyService := service.NewCompanyService(db, &logger)
	taskService := service.NewTaskService(db, eventBus, &logger)
	metrics := bot.NewMetrics()

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	tgService := service.NewTelegramService(bot.NewBotWrapper(botAPI))

	telegramBot, err := bot.NewBot(
		tgService, cfg, sessions, userService,
		companyService, taskService, fileStore,
		eventBus, metrics, &logger,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}

	if cfg.API.Enabled {
		apiServer := api.NewServer(cfg, telegramBot, &logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error().Err(err).Msg("API server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = apiServer.Shutdown(shutdownCtx)
		}()
	}

	telegramBot.StartOverdueSweeper(ctx)

	if cfg.Telegram.WebhookURL != "" {
		if err := registerWebhook(botAPI, cfg); err != nil {
			logger.Error().Err(err).Msg("Ошибка регистрации вебхука")
			return err
		}
		logger.Info().Str("url", cfg.Telegram.WebhookURL).Msg("Бот запущен (webhook)...")
		<-ctx.Done()
	} else {
		logger.Info().Msg("Бот запущен (long polling)...")
		telegramBot.Start(ctx)
	}

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "bot-main").Logger()

	return cfg, logger, closer, nil
}

// initSessionService собирает session-хранилище: Redis как основное,
// память как резерв на случай его недоступности.
func initSessionService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *service.SessionService {
	ttl := time.Duration(cfg.Bot.SessionTTL) * time.Second

	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	primaryRepo := repository.NewRedisSessionRepository(redisClient, ttl)
	fallbackRepo := repository.NewMemorySessionRepository(ttl)
	sessionRepo := repository.NewFailoverSessionRepository(primaryRepo, fallbackRepo, logger)

	return service.NewSessionService(
		sessionRepo,
		time.Duration(cfg.Bot.DedupWindow)*time.Second,
		cfg.Bot.RateLimitMessages,
		time.Duration(cfg.Bot.RateLimitWindow)*time.Second,
		logger,
	)
}

// initFileStore возвращает nil, если хранилище не настроено: бот тогда
// работает без вложений.
func initFileStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (domain.FileStore, error) {
	if cfg.Storage.Endpoint == "" {
		logger.Warn().Msg("Хранилище файлов не настроено, вложения отключены")
		return nil, nil
	}

	fileStore, err := storage.NewFileStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации хранилища файлов")
		return nil, err
	}
	return fileStore, nil
}

func registerWebhook(botAPI *tgbotapi.BotAPI, cfg *config.Config) error {
	wh, err := tgbotapi.NewWebhook(cfg.Telegram.WebhookURL + "/webhook/" + cfg.Telegram.BotToken)
	if err != nil {
		return err
	}
	_, err = botAPI.Request(wh)
	return err
}
