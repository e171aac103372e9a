package bot

import (
	"context"
	"strings"
	"time"

	"github.com/tammmikel/task-botv2/internal/flow"
	"github.com/tammmikel/task-botv2/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) {
	query := update.CallbackQuery
	data := query.Data
	chatID := query.Message.Chat.ID
	l := zerolog.Ctx(ctx)

	if err := b.tgService.AnswerCallback(query.ID, ""); err != nil {
		l.Debug().Err(err).Msg("answer callback failed")
	}

	if data == "noop" {
		return
	}

	user, _, err := b.userService.EnsureUser(ctx, query.From)
	if err != nil {
		l.Error().Err(err).Int64("user_id", query.From.ID).Msg("user lookup failed")
		return
	}

	action, payload := data, ""
	if i := strings.IndexByte(data, ':'); i >= 0 {
		action, payload = data[:i], data[i+1:]
	}

	switch action {
	case "company":
		b.handleCompanyPick(ctx, chatID, user, payload)
	case "assignee":
		b.handleAssigneePick(ctx, chatID, user, payload)
	case "priority":
		b.handlePriorityPick(ctx, chatID, user, payload)
	case "deadline":
		b.handleDeadlinePick(ctx, query, user, payload)
	case "cal":
		b.handleCalendarNav(ctx, query, user, payload)
	case "date":
		b.handleCalendarDate(ctx, chatID, user, payload)
	case "task":
		b.showTaskDetail(ctx, chatID, user, payload)
	case "taskstatus":
		b.handleStatusChange(ctx, query, user, payload)
	case "taskfilter":
		if payload == "companies" {
			b.showTaskCompanies(ctx, chatID, user)
		} else {
			b.showTaskList(ctx, chatID, user)
		}
	case "taskcompany":
		b.showTasksByCompany(ctx, chatID, user, payload)
	case "company_create":
		b.startCreateCompany(ctx, chatID, user)
	case "companyinfo":
		b.showCompanyInfo(ctx, chatID, user, payload)
	case "role":
		b.handleRolePick(ctx, chatID, user, payload)
	case "setrole":
		b.handleSetRole(ctx, chatID, user, payload)
	default:
		l.Debug().Str("data", data).Msg("unknown callback")
	}
}

// taskSession возвращает активную сессию создания задачи или nil с
// подсказкой пользователю.
func (b *Bot) taskSession(ctx context.Context, chatID, userID int64) *models.Session {
	session, err := b.sessions.GetSession(ctx, userID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("get session failed")
		return nil
	}
	if !session.Active() || session.Flow != models.FlowCreateTask {
		b.sendMessage(chatID, "Этот выбор уже неактуален. Начните создание задачи заново.")
		return nil
	}
	return session
}

func (b *Bot) saveAndPrompt(ctx context.Context, chatID int64, user *models.User, session *models.Session) {
	if err := b.sessions.SetSession(ctx, session); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("set session failed")
	}
	b.promptStep(ctx, chatID, user, session)
}

func (b *Bot) handleCompanyPick(ctx context.Context, chatID int64, user *models.User, companyID string) {
	session := b.taskSession(ctx, chatID, user.TelegramID)
	if session == nil {
		return
	}

	company, err := b.companyService.GetCompanyByID(ctx, companyID)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	if err := flow.ApplyCompany(session, company.CompanyID, company.Name); err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}
	b.saveAndPrompt(ctx, chatID, user, session)
}

func (b *Bot) handleAssigneePick(ctx context.Context, chatID int64, user *models.User, assigneeID string) {
	session := b.taskSession(ctx, chatID, user.TelegramID)
	if session == nil {
		return
	}

	assignee, err := b.userService.GetUserByID(ctx, assigneeID)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	if err := flow.ApplyAssignee(session, assignee.UserID, assignee.DisplayName()); err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}
	b.saveAndPrompt(ctx, chatID, user, session)
}

func (b *Bot) handlePriorityPick(ctx context.Context, chatID int64, user *models.User, priority string) {
	session := b.taskSession(ctx, chatID, user.TelegramID)
	if session == nil {
		return
	}

	if err := flow.ApplyPriority(session, priority); err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}
	b.saveAndPrompt(ctx, chatID, user, session)
}

func (b *Bot) handleDeadlinePick(ctx context.Context, query *tgbotapi.CallbackQuery, user *models.User, choice string) {
	chatID := query.Message.Chat.ID
	session := b.taskSession(ctx, chatID, user.TelegramID)
	if session == nil {
		return
	}

	now := time.Now()
	var err error

	switch choice {
	case "today":
		err = flow.ApplyDeadline(session, flow.DeadlineToday(now))
	case "tomorrow":
		err = flow.ApplyDeadline(session, flow.DeadlineTomorrow(now))
	case "3days":
		err = flow.ApplyDeadline(session, flow.DeadlineIn3Days(now))
	case "custom":
		err = flow.RequestCustomDate(session)
	case "calendar":
		err = flow.RequestCalendar(session, now)
	default:
		return
	}

	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	if flow.Complete(session) {
		b.finalizeTask(ctx, chatID, user, session)
		return
	}
	b.saveAndPrompt(ctx, chatID, user, session)
}

// handleCalendarNav листает месяцы: payload вида "2026-08:next".
func (b *Bot) handleCalendarNav(ctx context.Context, query *tgbotapi.CallbackQuery, user *models.User, payload string) {
	chatID := query.Message.Chat.ID
	session := b.taskSession(ctx, chatID, user.TelegramID)
	if session == nil || session.Step != models.StepTaskCalendar {
		return
	}

	cursor, direction, ok := strings.Cut(payload, ":")
	if !ok {
		return
	}
	month, err := time.Parse("2006-01", cursor)
	if err != nil {
		return
	}

	if direction == "next" {
		month = month.AddDate(0, 1, 0)
	} else {
		month = month.AddDate(0, -1, 0)
	}

	session.TaskDraft.CalendarYear = month.Year()
	session.TaskDraft.CalendarMonth = int(month.Month())
	if err := b.sessions.SetSession(ctx, session); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("set session failed")
	}

	keyboard := calendarKeyboard(month.Year(), int(month.Month()), time.Now())
	if _, err := b.tgService.EditMessage(chatID, query.Message.MessageID, "📅 Выберите дату:", &keyboard); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("edit calendar failed")
	}
}

func (b *Bot) handleCalendarDate(ctx context.Context, chatID int64, user *models.User, payload string) {
	session := b.taskSession(ctx, chatID, user.TelegramID)
	if session == nil {
		return
	}

	date, err := time.ParseInLocation("2006-01-02", payload, time.Local)
	if err != nil {
		return
	}

	if err := flow.ApplyDeadline(session, date); err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	if flow.Complete(session) {
		b.finalizeTask(ctx, chatID, user, session)
		return
	}
	b.saveAndPrompt(ctx, chatID, user, session)
}

func (b *Bot) handleStatusChange(ctx context.Context, query *tgbotapi.CallbackQuery, user *models.User, payload string) {
	chatID := query.Message.Chat.ID
	taskID, status, ok := strings.Cut(payload, ":")
	if !ok {
		return
	}

	task, err := b.taskService.ChangeStatus(ctx, user, taskID, status)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	if b.metrics != nil {
		b.metrics.StatusChanges.WithLabelValues(status).Inc()
	}

	text := b.renderTaskDetail(ctx, task)
	keyboard := taskStatusKeyboard(task)
	if _, err := b.tgService.EditMessage(chatID, query.Message.MessageID, text, keyboard); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("edit task detail failed")
	}
}

func (b *Bot) showCompanyInfo(ctx context.Context, chatID int64, user *models.User, companyID string) {
	company, err := b.companyService.GetCompanyByID(ctx, companyID)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	text := "🏢 " + company.Name
	if company.Description != "" {
		text += "\n" + company.Description
	}
	text += "\nСоздана: " + company.CreatedAt.Format("02.01.2006")
	b.sendMessage(chatID, text)
}

func (b *Bot) handleRolePick(ctx context.Context, chatID int64, user *models.User, targetUserID string) {
	if user.Role != models.RoleDirector {
		b.sendMessage(chatID, "⚠️ Управление ролями доступно только директору.")
		return
	}

	target, err := b.userService.GetUserByID(ctx, targetUserID)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	text := "Выберите новую роль для " + target.DisplayName() + ":"
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, text, rolesKeyboard(targetUserID)); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("send roles failed")
	}
}

func (b *Bot) handleSetRole(ctx context.Context, chatID int64, user *models.User, payload string) {
	targetUserID, role, ok := strings.Cut(payload, ":")
	if !ok {
		return
	}

	if err := b.userService.ChangeRole(ctx, user, targetUserID, role); err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	b.sendMessage(chatID, "✅ Роль изменена на «"+roleLabel(role)+"».")
}
