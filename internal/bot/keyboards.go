package bot

import (
	"fmt"
	"time"

	"github.com/tammmikel/task-botv2/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Кнопки главного меню и сквозные кнопки диалогов.
const (
	btnCreateTask = "📋 Создать задачу"
	btnMyTasks    = "📝 Мои задачи"
	btnCompanies  = "🏢 Управление компаниями"
	btnStaff      = "👥 Сотрудники"
	btnExport     = "💾 Экспорт задач"
	btnBack       = "🔙 Назад"
	btnCancel     = "❌ Отмена"
	btnSkip       = "⏭️ Пропустить"
)

func mainMenuKeyboard(user *models.User) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton

	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnCreateTask),
		tgbotapi.NewKeyboardButton(btnMyTasks),
	))

	if user.CanManage() {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCompanies),
			tgbotapi.NewKeyboardButton(btnExport),
		))
	}

	if user.Role == models.RoleDirector {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnStaff),
		))
	}

	return tgbotapi.NewReplyKeyboard(rows...)
}

// flowKeyboard — клавиатура шага диалога: отмена всегда, назад и пропуск
// по необходимости.
func flowKeyboard(withBack, withSkip bool) tgbotapi.ReplyKeyboardMarkup {
	row := []tgbotapi.KeyboardButton{}
	if withSkip {
		row = append(row, tgbotapi.NewKeyboardButton(btnSkip))
	}
	if withBack {
		row = append(row, tgbotapi.NewKeyboardButton(btnBack))
	}
	row = append(row, tgbotapi.NewKeyboardButton(btnCancel))
	return tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(row...))
}

func companiesKeyboard(companies []*models.Company) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(companies))
	for _, company := range companies {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(company.Name, "company:"+company.CompanyID),
		})
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func assigneesKeyboard(users []*models.User) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(users))
	for _, user := range users {
		label := fmt.Sprintf("%s (%s)", user.DisplayName(), roleLabel(user.Role))
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, "assignee:"+user.UserID),
		})
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func priorityKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔴 Срочно", "priority:"+models.PriorityUrgent),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🟡 Обычная", "priority:"+models.PriorityNormal),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🟢 Низкая", "priority:"+models.PriorityLow),
		),
	)
}

func deadlineKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Сегодня", "deadline:today"),
			tgbotapi.NewInlineKeyboardButtonData("Завтра", "deadline:tomorrow"),
			tgbotapi.NewInlineKeyboardButtonData("+3 дня", "deadline:3days"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Ввести дату", "deadline:custom"),
			tgbotapi.NewInlineKeyboardButtonData("📅 Календарь", "deadline:calendar"),
		),
	)
}

func rolesKeyboard(targetUserID string) tgbotapi.InlineKeyboardMarkup {
	roles := []string{models.RoleDirector, models.RoleManager, models.RoleMainAdmin, models.RoleAdmin}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(roles))
	for _, role := range roles {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(roleLabel(role), fmt.Sprintf("setrole:%s:%s", targetUserID, role)),
		})
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func staffKeyboard(users []*models.User) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(users))
	for _, user := range users {
		label := fmt.Sprintf("%s — %s", user.DisplayName(), roleLabel(user.Role))
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, "role:"+user.UserID),
		})
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func taskListKeyboard(tasks []*models.Task) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for _, task := range tasks {
		label := fmt.Sprintf("%s %s", task.StatusEmoji(), task.Title)
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, "task:"+task.TaskID),
		})
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("🏢 По компаниям", "taskfilter:companies"),
	})
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func taskCompaniesKeyboard(counts []*models.CompanyTaskCount) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(counts))
	for _, c := range counts {
		label := fmt.Sprintf("%s (%d)", c.Name, c.TaskCount)
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, "taskcompany:"+c.CompanyID),
		})
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(btnBack, "taskfilter:all"),
	})
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// taskStatusKeyboard предлагает только допустимые переходы из текущего статуса.
func taskStatusKeyboard(task *models.Task) *tgbotapi.InlineKeyboardMarkup {
	targets := []struct {
		status string
		label  string
	}{
		{models.StatusInProgress, "▶️ В работу"},
		{models.StatusCompleted, "✅ Завершить"},
		{models.StatusCancelled, "🚫 Отменить"},
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(targets))
	for _, target := range targets {
		if !models.CanTransition(task.Status, target.status) {
			continue
		}
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(target.label, fmt.Sprintf("taskstatus:%s:%s", task.TaskID, target.status)),
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return &tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// calendarKeyboard строит инлайн-календарь месяца с навигацией.
// Дни до сегодняшнего дня недоступны для выбора.
func calendarKeyboard(year, month int, now time.Time) tgbotapi.InlineKeyboardMarkup {
	firstDay := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, now.Location())
	weekdayOffset := int(firstDay.Weekday())
	if weekdayOffset == 0 {
		weekdayOffset = 7 // сетка с понедельника
	}
	daysInMonth := firstDay.AddDate(0, 1, -1).Day()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	rows := make([][]tgbotapi.InlineKeyboardButton, 0)

	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("«", fmt.Sprintf("cal:%04d-%02d:prev", year, month)),
		tgbotapi.NewInlineKeyboardButtonData(monthTitle(year, month), "noop"),
		tgbotapi.NewInlineKeyboardButtonData("»", fmt.Sprintf("cal:%04d-%02d:next", year, month)),
	})

	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("Пн", "noop"),
		tgbotapi.NewInlineKeyboardButtonData("Вт", "noop"),
		tgbotapi.NewInlineKeyboardButtonData("Ср", "noop"),
		tgbotapi.NewInlineKeyboardButtonData("Чт", "noop"),
		tgbotapi.NewInlineKeyboardButtonData("Пт", "noop"),
		tgbotapi.NewInlineKeyboardButtonData("Сб", "noop"),
		tgbotapi.NewInlineKeyboardButtonData("Вс", "noop"),
	})

	day := 1
	headerRows := len(rows)
	for day <= daysInMonth {
		row := make([]tgbotapi.InlineKeyboardButton, 0, 7)
		for col := 1; col <= 7; col++ {
			if len(rows) == headerRows && col < weekdayOffset {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(" ", "noop"))
				continue
			}
			if day > daysInMonth {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(" ", "noop"))
				continue
			}
			date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
			if date.Before(today) {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData("·", "noop"))
			} else {
				dateStr := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d", day), "date:"+dateStr))
			}
			day++
		}
		rows = append(rows, row)
	}

	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

var monthNames = [...]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

func monthTitle(year, month int) string {
	return fmt.Sprintf("%s %d", monthNames[month-1], year)
}

func roleLabel(role string) string {
	switch role {
	case models.RoleDirector:
		return "Директор"
	case models.RoleManager:
		return "Менеджер"
	case models.RoleMainAdmin:
		return "Главный админ"
	case models.RoleAdmin:
		return "Админ"
	}
	return role
}
