package bot

import (
	"context"
	"time"

	"github.com/tammmikel/task-botv2/internal/models"
)

// StartOverdueSweeper периодически переводит задачи с истекшим дедлайном
// в статус overdue.
func (b *Bot) StartOverdueSweeper(ctx context.Context) {
	if b == nil || b.taskService == nil {
		return
	}

	interval := time.Duration(b.config.Bot.OverdueCheckInterval) * time.Second
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.sweepOverdue(ctx)
			}
		}
	}()
}

func (b *Bot) sweepOverdue(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, time.Duration(b.config.Bot.UpdateTimeout)*time.Second)
	defer cancel()

	marked, err := b.taskService.MarkOverdue(sweepCtx)
	if err != nil {
		b.logger.Error().Err(err).Msg("overdue sweep failed")
		return
	}
	if marked > 0 && b.metrics != nil {
		b.metrics.StatusChanges.WithLabelValues(models.StatusOverdue).Add(float64(marked))
	}
}
