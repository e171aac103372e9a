package bot

import (
	"context"
	"os"
	"time"

	"github.com/tammmikel/task-botv2/internal/config"
	"github.com/tammmikel/task-botv2/internal/domain"
	"github.com/tammmikel/task-botv2/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Bot struct {
	tgService      domain.TelegramService
	config         *config.Config
	sessions       domain.SessionManager
	userService    domain.UserService
	companyService domain.CompanyService
	taskService    domain.TaskService
	fileStore      domain.FileStore
	eventBus       *events.EventBus
	metrics        *Metrics
	dispatcher     *dispatcher
	logger         *zerolog.Logger
}

func NewBot(
	tgService domain.TelegramService,
	config *config.Config,
	sessions domain.SessionManager,
	userService domain.UserService,
	companyService domain.CompanyService,
	taskService domain.TaskService,
	fileStore domain.FileStore,
	eventBus *events.EventBus,
	metrics *Metrics,
	logger *zerolog.Logger,
) (*Bot, error) {
	if eventBus == nil {
		eventBus = events.NewEventBus()
	}

	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	b := &Bot{
		tgService:      tgService,
		config:         config,
		sessions:       sessions,
		userService:    userService,
		companyService: companyService,
		taskService:    taskService,
		fileStore:      fileStore,
		eventBus:       eventBus,
		metrics:        metrics,
		logger:         logger,
	}
	b.dispatcher = newDispatcher(b)
	b.subscribeNotifications()

	return b, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			b.dispatcher.shutdown()
			return
		case update, ok := <-updates:
			if !ok {
				b.dispatcher.shutdown()
				return
			}
			b.dispatcher.enqueue(ctx, update)
		}
	}
}

// HandleUpdate кладет update из вебхука в ту же очередь, что и long polling.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.dispatcher.enqueue(ctx, update)
}

func (b *Bot) Stop() {
	if b == nil || b.tgService == nil {
		return
	}
	b.tgService.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
		}
	}()

	// Отдельный контекст на каждый update
	updateCtx, cancel := context.WithTimeout(ctx, time.Duration(b.config.Bot.UpdateTimeout)*time.Second)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		userID := updateUserID(update)
		if userID == 0 {
			return
		}

		// Телеграм доставляет update как минимум один раз; повтор отбрасываем
		fresh, err := b.sessions.MarkUpdateSeen(updateCtx, update.UpdateID)
		if err != nil {
			l.Error().Err(err).Int("update_id", update.UpdateID).Msg("dedup check failed")
		} else if !fresh {
			l.Debug().Int("update_id", update.UpdateID).Msg("duplicate update discarded")
			if b.metrics != nil {
				b.metrics.DuplicatesDiscarded.Inc()
			}
			return
		}

		if update.Message != nil {
			allowed, err := b.sessions.CheckRateLimit(updateCtx, userID)
			if err != nil {
				l.Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
			} else if !allowed {
				l.Warn().Int64("user_id", userID).Msg("Rate limit exceeded")
				b.sendMessage(update.Message.Chat.ID, "⚠️ Вы отправляете сообщения слишком часто. Пожалуйста, подождите немного.")
				return
			}
		}

		if update.CallbackQuery != nil {
			b.handleCallbackQuery(updateCtx, update)
			return
		}

		if update.Message == nil {
			return
		}

		b.handleMessage(updateCtx, update)
	})
}

func updateUserID(update tgbotapi.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send message failed")
	}
}
