package bot

import (
	"encoding/json"
	"fmt"

	"github.com/tammmikel/task-botv2/internal/events"
)

// subscribeNotifications подключает уведомления исполнителям к шине событий.
func (b *Bot) subscribeNotifications() {
	b.eventBus.Subscribe(events.EventTaskCreated, func(event *events.Event) error {
		var payload events.TaskEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		// Постановщику, назначившему задачу себе, отдельное уведомление не нужно
		if payload.AssigneeTelegramID == 0 || payload.AssigneeID == payload.ChangedBy {
			return nil
		}

		text := fmt.Sprintf(
			"🆕 Вам назначена задача:\n\n%s\n🏢 %s\n📅 Дедлайн: %s",
			payload.Title, payload.CompanyName, payload.Deadline.Format("02.01.2006"),
		)
		if _, err := b.tgService.SendMessage(payload.AssigneeTelegramID, text); err != nil {
			b.logger.Error().Err(err).Str("task_id", payload.TaskID).Msg("assignee notification failed")
		}
		return nil
	})

	b.eventBus.Subscribe(events.EventTaskStatusChanged, func(event *events.Event) error {
		var payload events.TaskEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		if payload.AssigneeTelegramID == 0 {
			return nil
		}

		text := fmt.Sprintf(
			"🔄 Задача «%s»: %s → %s",
			payload.Title, statusLabel(payload.PreviousStatus), statusLabel(payload.Status),
		)
		if payload.ChangedByName != "" {
			text += "\nИзменил: " + payload.ChangedByName
		}
		if _, err := b.tgService.SendMessage(payload.AssigneeTelegramID, text); err != nil {
			b.logger.Error().Err(err).Str("task_id", payload.TaskID).Msg("status notification failed")
		}
		return nil
	})
}
