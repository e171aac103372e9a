package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tammmikel/task-botv2/internal/models"

	"github.com/rs/zerolog"
)

func (b *Bot) showTaskList(ctx context.Context, chatID int64, user *models.User) {
	l := zerolog.Ctx(ctx)

	tasks, err := b.taskService.GetUserTasks(ctx, user)
	if err != nil {
		l.Error().Err(err).Msg("list tasks failed")
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	if len(tasks) == 0 {
		b.sendMessage(chatID, "📝 Задач пока нет.")
		return
	}

	visible, remainder := truncateTasks(tasks, b.config.Bot.TaskListLimit)
	text := "📝 Ваши задачи:"
	if remainder > 0 {
		text += fmt.Sprintf("\n…и еще %d. Используйте фильтр по компаниям или экспорт.", remainder)
	}

	if _, err := b.tgService.SendWithInlineKeyboard(chatID, text, taskListKeyboard(visible)); err != nil {
		l.Error().Err(err).Int64("chat_id", chatID).Msg("send task list failed")
	}
}

func (b *Bot) showTaskCompanies(ctx context.Context, chatID int64, user *models.User) {
	l := zerolog.Ctx(ctx)

	counts, err := b.taskService.GetCompaniesWithTasks(ctx, user)
	if err != nil {
		l.Error().Err(err).Msg("list task companies failed")
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	if len(counts) == 0 {
		b.sendMessage(chatID, "📝 Задач пока нет.")
		return
	}

	if _, err := b.tgService.SendWithInlineKeyboard(chatID, "🏢 Задачи по компаниям:", taskCompaniesKeyboard(counts)); err != nil {
		l.Error().Err(err).Int64("chat_id", chatID).Msg("send task companies failed")
	}
}

func (b *Bot) showTasksByCompany(ctx context.Context, chatID int64, user *models.User, companyID string) {
	l := zerolog.Ctx(ctx)

	tasks, err := b.taskService.GetUserTasksByCompany(ctx, user, companyID)
	if err != nil {
		l.Error().Err(err).Msg("list company tasks failed")
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	if len(tasks) == 0 {
		b.sendMessage(chatID, "📝 По этой компании задач нет.")
		return
	}

	visible, remainder := truncateTasks(tasks, b.config.Bot.TaskListLimit)
	text := "📝 Задачи компании «" + tasks[0].CompanyName + "»:"
	if remainder > 0 {
		text += fmt.Sprintf("\n…и еще %d.", remainder)
	}

	if _, err := b.tgService.SendWithInlineKeyboard(chatID, text, taskListKeyboard(visible)); err != nil {
		l.Error().Err(err).Int64("chat_id", chatID).Msg("send company tasks failed")
	}
}

func (b *Bot) showTaskDetail(ctx context.Context, chatID int64, user *models.User, taskID string) {
	l := zerolog.Ctx(ctx)

	task, err := b.taskService.GetTask(ctx, taskID)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	text := b.renderTaskDetail(ctx, task)
	keyboard := taskStatusKeyboard(task)
	if keyboard != nil {
		if _, err := b.tgService.SendWithInlineKeyboard(chatID, text, *keyboard); err != nil {
			l.Error().Err(err).Msg("send task detail failed")
		}
		return
	}
	b.sendMessage(chatID, text)
}

func (b *Bot) renderTaskDetail(ctx context.Context, task *models.Task) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %s\n", task.PriorityEmoji(), task.Title)
	fmt.Fprintf(&sb, "%s %s\n\n", task.StatusEmoji(), statusLabel(task.Status))

	if task.Description != "" {
		sb.WriteString(task.Description + "\n\n")
	}
	if task.CompanyName != "" {
		fmt.Fprintf(&sb, "🏢 %s\n", task.CompanyName)
	}
	fmt.Fprintf(&sb, "👤 %s, %s\n", task.InitiatorName, task.InitiatorPhone)
	fmt.Fprintf(&sb, "📅 Дедлайн: %s\n", task.Deadline.Format("02.01.2006"))

	if assignee, err := b.userService.GetUserByID(ctx, task.AssigneeID); err == nil {
		fmt.Fprintf(&sb, "🧑‍💼 Исполнитель: %s\n", assignee.DisplayName())
	}

	files, err := b.taskService.GetTaskFiles(ctx, task.TaskID)
	if err == nil && len(files) > 0 {
		fmt.Fprintf(&sb, "\n📎 Вложения (%d):\n", len(files))
		for _, file := range files {
			if b.fileStore != nil {
				if url, err := b.fileStore.PresignedURL(ctx, file.FilePath, time.Hour); err == nil {
					fmt.Fprintf(&sb, "• %s — %s\n", file.FileName, url)
					continue
				}
			}
			fmt.Fprintf(&sb, "• %s\n", file.FileName)
		}
	}

	comments, err := b.taskService.GetTaskComments(ctx, task.TaskID)
	if err == nil && len(comments) > 0 {
		fmt.Fprintf(&sb, "\n💬 История (%d):\n", len(comments))
		for _, comment := range comments {
			fmt.Fprintf(&sb, "• %s: %s\n", comment.CreatedAt.Format("02.01 15:04"), comment.CommentText)
		}
	}

	return sb.String()
}

func truncateTasks(tasks []*models.Task, limit int) ([]*models.Task, int) {
	if limit <= 0 || len(tasks) <= limit {
		return tasks, 0
	}
	return tasks[:limit], len(tasks) - limit
}

func statusLabel(status string) string {
	switch status {
	case models.StatusNew:
		return "Новая"
	case models.StatusInProgress:
		return "В работе"
	case models.StatusCompleted:
		return "Завершена"
	case models.StatusOverdue:
		return "Просрочена"
	case models.StatusCancelled:
		return "Отменена"
	}
	return status
}
