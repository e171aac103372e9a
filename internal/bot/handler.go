package bot

import (
	"context"

	"github.com/tammmikel/task-botv2/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := update.Message.Text
	l := zerolog.Ctx(ctx)

	l.Debug().
		Int64("user_id", userID).
		Str("username", update.Message.From.UserName).
		Str("text", text).
		Msg("Handling message")

	user, created, err := b.userService.EnsureUser(ctx, update.Message.From)
	if err != nil {
		l.Error().Err(err).Int64("user_id", userID).Msg("user lookup failed")
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	if created {
		b.sendWelcome(ctx, chatID, user)
		return
	}

	switch text {
	case "/start":
		if err := b.sessions.ClearSession(ctx, userID); err != nil {
			l.Error().Err(err).Int64("user_id", userID).Msg("clear session failed")
		}
		b.sendWelcome(ctx, chatID, user)
		return

	case btnCancel:
		if err := b.sessions.ClearSession(ctx, userID); err != nil {
			l.Error().Err(err).Int64("user_id", userID).Msg("clear session failed")
		}
		b.sendMenu(chatID, user, "Действие отменено.")
		return
	}

	session, err := b.sessions.GetSession(ctx, userID)
	if err != nil {
		l.Error().Err(err).Int64("user_id", userID).Msg("get session failed")
	}

	if session.Active() {
		b.handleFlowInput(ctx, update, user, session)
		return
	}

	switch text {
	case btnCreateTask:
		b.startCreateTask(ctx, chatID, user)
	case btnMyTasks:
		b.showTaskList(ctx, chatID, user)
	case btnCompanies:
		b.showCompanies(ctx, chatID, user)
	case btnStaff:
		b.showStaff(ctx, chatID, user)
	case btnExport:
		b.handleExport(ctx, chatID, user)
	default:
		b.sendMenu(chatID, user, "Выберите действие на клавиатуре ниже.")
	}
}

func (b *Bot) sendWelcome(ctx context.Context, chatID int64, user *models.User) {
	text := "👋 Здравствуйте, " + user.DisplayName() + "!"
	if user.Role == models.RoleDirector {
		text += "\nВы зарегистрированы как директор."
	}
	text += "\nВыберите действие:"
	b.sendMenu(chatID, user, text)
}

func (b *Bot) sendMenu(chatID int64, user *models.User, text string) {
	if _, err := b.tgService.SendWithKeyboard(chatID, text, mainMenuKeyboard(user)); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send menu failed")
	}
}

func (b *Bot) showCompanies(ctx context.Context, chatID int64, user *models.User) {
	l := zerolog.Ctx(ctx)

	if !user.CanManage() {
		b.sendMessage(chatID, "⚠️ У вас нет прав на это действие.")
		return
	}

	companies, err := b.companyService.GetAllCompanies(ctx)
	if err != nil {
		l.Error().Err(err).Msg("list companies failed")
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	keyboard := companiesListKeyboard(companies)
	text := "🏢 Компании:"
	if len(companies) == 0 {
		text = "🏢 Компаний пока нет."
	}
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, text, keyboard); err != nil {
		l.Error().Err(err).Int64("chat_id", chatID).Msg("send companies failed")
	}
}

// companiesListKeyboard — список компаний в режиме управления плюс кнопка
// создания новой.
func companiesListKeyboard(companies []*models.Company) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(companies)+1)
	for _, company := range companies {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(company.Name, "companyinfo:"+company.CompanyID),
		})
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("➕ Создать компанию", "company_create"),
	})
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func (b *Bot) showStaff(ctx context.Context, chatID int64, user *models.User) {
	l := zerolog.Ctx(ctx)

	if user.Role != models.RoleDirector {
		b.sendMessage(chatID, "⚠️ Управление сотрудниками доступно только директору.")
		return
	}

	users, err := b.userService.GetAllUsers(ctx)
	if err != nil {
		l.Error().Err(err).Msg("list users failed")
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	if _, err := b.tgService.SendWithInlineKeyboard(chatID, "👥 Сотрудники. Нажмите, чтобы сменить роль:", staffKeyboard(users)); err != nil {
		l.Error().Err(err).Int64("chat_id", chatID).Msg("send staff failed")
	}
}

func (b *Bot) handleExport(ctx context.Context, chatID int64, user *models.User) {
	l := zerolog.Ctx(ctx)

	if !user.CanManage() {
		b.sendMessage(chatID, "⚠️ У вас нет прав на это действие.")
		return
	}

	data, fileName, err := b.taskService.ExportTasks(ctx, user)
	if err != nil {
		l.Error().Err(err).Msg("export failed")
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: fileName, Bytes: data})
	doc.Caption = "💾 Выгрузка задач"
	if _, err := b.tgService.Send(doc); err != nil {
		l.Error().Err(err).Int64("chat_id", chatID).Msg("send export failed")
	}
}
