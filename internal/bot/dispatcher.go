package bot

import (
	"context"
	"sync"

	"github.com/tammmikel/task-botv2/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// dispatcher раскладывает updates по очередям пользователей: внутри одного
// пользователя порядок строго FIFO, разные пользователи обрабатываются
// параллельно.
type dispatcher struct {
	bot    *Bot
	mu     sync.Mutex
	queues map[int64]chan queuedUpdate
	wg     sync.WaitGroup
	closed bool
}

type queuedUpdate struct {
	ctx    context.Context
	update tgbotapi.Update
}

func newDispatcher(b *Bot) *dispatcher {
	return &dispatcher{
		bot:    b,
		queues: make(map[int64]chan queuedUpdate),
	}
}

func (d *dispatcher) enqueue(ctx context.Context, update tgbotapi.Update) {
	userID := updateUserID(update)
	if userID == 0 {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	queue, ok := d.queues[userID]
	if !ok {
		queue = make(chan queuedUpdate, models.UserQueueSize)
		d.queues[userID] = queue
		d.wg.Add(1)
		go d.worker(queue)
	}
	d.mu.Unlock()

	select {
	case queue <- queuedUpdate{ctx: ctx, update: update}:
	default:
		// Очередь пользователя переполнена; лучше потерять update, чем
		// заблокировать главный цикл
		d.bot.logger.Warn().Int64("user_id", userID).Int("update_id", update.UpdateID).Msg("user queue full, update dropped")
		if d.bot.metrics != nil {
			d.bot.metrics.UpdatesDropped.Inc()
		}
		if update.Message != nil {
			d.bot.sendMessage(update.Message.Chat.ID, "⚠️ Слишком много сообщений подряд, это не обработано. Повторите чуть позже.")
		}
	}
}

func (d *dispatcher) worker(queue chan queuedUpdate) {
	defer d.wg.Done()
	for item := range queue {
		d.bot.processUpdate(item.ctx, item.update)
	}
}

// shutdown закрывает очереди и дожидается обработки уже принятых updates.
func (d *dispatcher) shutdown() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, queue := range d.queues {
		close(queue)
	}
	d.mu.Unlock()

	d.wg.Wait()
}
