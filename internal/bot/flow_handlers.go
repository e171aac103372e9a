package bot

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tammmikel/task-botv2/internal/flow"
	"github.com/tammmikel/task-botv2/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) startCreateTask(ctx context.Context, chatID int64, user *models.User) {
	if !user.CanManage() {
		b.sendMessage(chatID, "⚠️ Создавать задачи могут директор и менеджеры.")
		return
	}

	session := flow.NewCreateTaskSession(user.TelegramID, user.UserID)
	if err := b.sessions.SetSession(ctx, session); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("set session failed")
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	b.promptStep(ctx, chatID, user, session)
}

func (b *Bot) startCreateCompany(ctx context.Context, chatID int64, user *models.User) {
	if !user.CanManage() {
		b.sendMessage(chatID, "⚠️ У вас нет прав на это действие.")
		return
	}

	session := flow.NewCreateCompanySession(user.TelegramID, user.UserID)
	if err := b.sessions.SetSession(ctx, session); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("set session failed")
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	b.promptStep(ctx, chatID, user, session)
}

// promptStep отправляет приглашение текущего шага. Используется и при входе
// в шаг, и при повторе после ошибки валидации.
func (b *Bot) promptStep(ctx context.Context, chatID int64, user *models.User, session *models.Session) {
	l := zerolog.Ctx(ctx)

	switch session.Step {
	case models.StepTaskTitle:
		b.sendPrompt(chatID, "📋 Введите название задачи:", flowKeyboard(false, false))

	case models.StepTaskDescription:
		b.sendPrompt(chatID, "📝 Опишите задачу. Сюда же можно прикрепить файлы и фото.", flowKeyboard(true, true))

	case models.StepTaskCompany:
		companies, err := b.companyService.GetAllCompanies(ctx)
		if err != nil {
			l.Error().Err(err).Msg("list companies failed")
			b.sendMessage(chatID, b.getErrorMessage(err))
			return
		}
		if len(companies) == 0 {
			// Продолжать диалог некуда, сбрасываем его целиком
			if err := b.sessions.ClearSession(ctx, session.UserID); err != nil {
				l.Error().Err(err).Msg("clear session failed")
			}
			b.sendMenu(chatID, user, "🏢 Компаний пока нет. Сначала создайте компанию, затем начните задачу заново.")
			return
		}
		b.sendPrompt(chatID, "🏢 Выберите компанию:", flowKeyboard(true, false))
		if _, err := b.tgService.SendWithInlineKeyboard(chatID, "Компании:", companiesKeyboard(companies)); err != nil {
			l.Error().Err(err).Int64("chat_id", chatID).Msg("send companies failed")
		}

	case models.StepTaskInitiatorName:
		b.sendPrompt(chatID, "👤 Введите имя инициатора задачи:", flowKeyboard(true, false))

	case models.StepTaskInitiatorPhone:
		b.sendPrompt(chatID, "📞 Введите телефон инициатора:", flowKeyboard(true, false))

	case models.StepTaskAssignee:
		assignees, err := b.userService.GetAssignees(ctx)
		if err != nil {
			l.Error().Err(err).Msg("list assignees failed")
			b.sendMessage(chatID, b.getErrorMessage(err))
			return
		}
		b.sendPrompt(chatID, "🧑‍💼 Выберите исполнителя:", flowKeyboard(true, false))
		if _, err := b.tgService.SendWithInlineKeyboard(chatID, "Исполнители:", assigneesKeyboard(assignees)); err != nil {
			l.Error().Err(err).Int64("chat_id", chatID).Msg("send assignees failed")
		}

	case models.StepTaskPriority:
		b.sendPrompt(chatID, "⚡ Выберите приоритет:", flowKeyboard(true, false))
		if _, err := b.tgService.SendWithInlineKeyboard(chatID, "Приоритет:", priorityKeyboard()); err != nil {
			l.Error().Err(err).Int64("chat_id", chatID).Msg("send priority failed")
		}

	case models.StepTaskDeadline:
		b.sendPrompt(chatID, "📅 Выберите дедлайн:", flowKeyboard(true, false))
		if _, err := b.tgService.SendWithInlineKeyboard(chatID, "Дедлайн:", deadlineKeyboard()); err != nil {
			l.Error().Err(err).Int64("chat_id", chatID).Msg("send deadline failed")
		}

	case models.StepTaskCustomDate:
		b.sendPrompt(chatID, "✏️ Введите дату: 15.09.2026, 15.09 или «через 3 дня».", flowKeyboard(true, false))

	case models.StepTaskCalendar:
		keyboard := calendarKeyboard(session.TaskDraft.CalendarYear, session.TaskDraft.CalendarMonth, time.Now())
		if _, err := b.tgService.SendWithInlineKeyboard(chatID, "📅 Выберите дату:", keyboard); err != nil {
			l.Error().Err(err).Int64("chat_id", chatID).Msg("send calendar failed")
		}

	case models.StepCompanyName:
		b.sendPrompt(chatID, "🏢 Введите название компании:", flowKeyboard(false, false))

	case models.StepCompanyDescription:
		b.sendPrompt(chatID, "📝 Добавьте описание компании или пропустите этот шаг.", flowKeyboard(false, true))
	}
}

func (b *Bot) sendPrompt(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) {
	if _, err := b.tgService.SendWithKeyboard(chatID, text, keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send prompt failed")
	}
}

func (b *Bot) handleFlowInput(ctx context.Context, update tgbotapi.Update, user *models.User, session *models.Session) {
	chatID := update.Message.Chat.ID
	text := update.Message.Text
	l := zerolog.Ctx(ctx)

	if text == btnBack {
		if flow.Back(session) {
			if err := b.sessions.SetSession(ctx, session); err != nil {
				l.Error().Err(err).Msg("set session failed")
			}
		}
		b.promptStep(ctx, chatID, user, session)
		return
	}

	if file, ok := pendingFileFromMessage(update.Message); ok {
		if b.fileStore == nil {
			b.sendMessage(chatID, "⚠️ Хранилище файлов не настроено, вложения недоступны.")
			return
		}
		if err := flow.AddAttachment(session, file); err != nil {
			b.sendMessage(chatID, b.getErrorMessage(err))
			return
		}
		if err := flow.ApplyAttachmentCaption(session, update.Message.Caption); err != nil {
			l.Warn().Err(err).Msg("attachment caption skipped")
		}
		if err := b.sessions.SetSession(ctx, session); err != nil {
			l.Error().Err(err).Msg("set session failed")
		}
		b.sendMessage(chatID, fmt.Sprintf("📎 Файл «%s» будет прикреплен к задаче.", file.FileName))
		return
	}

	var err error
	done := false

	switch session.Flow {
	case models.FlowCreateTask:
		switch session.Step {
		case models.StepTaskTitle:
			err = flow.ApplyTitle(session, text)
		case models.StepTaskDescription:
			if text == btnSkip {
				err = flow.SkipDescription(session)
			} else {
				err = flow.ApplyDescription(session, text)
			}
		case models.StepTaskInitiatorName:
			err = flow.ApplyInitiatorName(session, text)
		case models.StepTaskInitiatorPhone:
			err = flow.ApplyInitiatorPhone(session, text)
		case models.StepTaskCustomDate:
			err = flow.ApplyCustomDate(session, text, time.Now())
			done = err == nil
		default:
			// Шаг ждет выбора кнопкой, текст не двигает диалог
			b.sendMessage(chatID, "Выберите вариант кнопкой выше.")
			return
		}

	case models.FlowCreateCompany:
		switch session.Step {
		case models.StepCompanyName:
			err = flow.ApplyCompanyName(session, text)
		case models.StepCompanyDescription:
			if text != btnSkip {
				if err = flow.ApplyCompanyDescription(session, text); err != nil {
					break
				}
			}
			b.finalizeCompany(ctx, chatID, user, session)
			return
		}

	}

	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		b.promptStep(ctx, chatID, user, session)
		return
	}

	if err := b.sessions.SetSession(ctx, session); err != nil {
		l.Error().Err(err).Msg("set session failed")
	}

	if done && flow.Complete(session) {
		b.finalizeTask(ctx, chatID, user, session)
		return
	}

	b.promptStep(ctx, chatID, user, session)
}

func pendingFileFromMessage(msg *tgbotapi.Message) (models.PendingFile, bool) {
	if msg.Document != nil {
		return models.PendingFile{
			TelegramFileID: msg.Document.FileID,
			FileName:       msg.Document.FileName,
			ContentType:    msg.Document.MimeType,
			FileSize:       int64(msg.Document.FileSize),
		}, true
	}
	if len(msg.Photo) > 0 {
		// Телеграм присылает несколько размеров, берем самый крупный
		photo := msg.Photo[len(msg.Photo)-1]
		return models.PendingFile{
			TelegramFileID: photo.FileID,
			FileName:       "photo.jpg",
			ContentType:    "image/jpeg",
			FileSize:       int64(photo.FileSize),
		}, true
	}
	return models.PendingFile{}, false
}

// finalizeTask создает задачу и лишь затем загружает вложения: сбой
// хранилища не должен терять саму задачу.
func (b *Bot) finalizeTask(ctx context.Context, chatID int64, user *models.User, session *models.Session) {
	l := zerolog.Ctx(ctx)
	draft := session.TaskDraft

	description := draft.Description
	if description == "" && len(draft.Attachments) > 0 {
		description = fmt.Sprintf("Описание во вложениях (%d)", len(draft.Attachments))
	}

	task := &models.Task{
		Title:          draft.Title,
		Description:    description,
		CompanyID:      draft.CompanyID,
		CompanyName:    draft.CompanyName,
		InitiatorName:  draft.InitiatorName,
		InitiatorPhone: draft.InitiatorPhone,
		AssigneeID:     draft.AssigneeID,
		CreatedBy:      draft.CreatedBy,
		Priority:       draft.Priority,
		Deadline:       *draft.Deadline,
	}

	if err := b.taskService.CreateTask(ctx, task); err != nil {
		l.Error().Err(err).Msg("create task failed")
		// Диалог завершен в любом случае, повторное нажатие кнопки
		// даты не должно создавать задачу еще раз
		if cerr := b.sessions.ClearSession(ctx, session.UserID); cerr != nil {
			l.Error().Err(cerr).Msg("clear session failed")
		}
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	if b.metrics != nil {
		b.metrics.TasksCreated.WithLabelValues(task.Priority).Inc()
	}

	saved := b.uploadAttachments(ctx, user, task, draft.Attachments)

	if err := b.sessions.ClearSession(ctx, session.UserID); err != nil {
		l.Error().Err(err).Msg("clear session failed")
	}

	summary := fmt.Sprintf(
		"✅ Задача создана!\n\n%s %s\n🏢 %s\n👤 %s, %s\n🧑‍💼 Исполнитель: %s\n📅 Дедлайн: %s",
		task.PriorityEmoji(), task.Title,
		draft.CompanyName,
		draft.InitiatorName, draft.InitiatorPhone,
		draft.AssigneeName,
		task.Deadline.Format("02.01.2006"),
	)
	if len(draft.Attachments) > 0 {
		summary += fmt.Sprintf("\n📎 Вложений сохранено: %d из %d", saved, len(draft.Attachments))
	}
	b.sendMenu(chatID, user, summary)
}

// uploadAttachments сохраняет вложения по одному с отдельным таймаутом на
// файл. Возвращает число успешно сохраненных.
func (b *Bot) uploadAttachments(ctx context.Context, user *models.User, task *models.Task, attachments []models.PendingFile) int {
	if b.fileStore == nil || len(attachments) == 0 {
		return 0
	}

	l := zerolog.Ctx(ctx)
	saved := 0

	for _, pending := range attachments {
		err := func() error {
			fileCtx, cancel := context.WithTimeout(ctx, time.Duration(b.config.Bot.FileTimeout)*time.Second)
			defer cancel()

			url, err := b.tgService.GetFileDirectURL(pending.TelegramFileID)
			if err != nil {
				return fmt.Errorf("resolve file url: %w", err)
			}

			req, err := http.NewRequestWithContext(fileCtx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("download: %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("download: unexpected status %d", resp.StatusCode)
			}

			path, thumbPath, err := b.fileStore.Upload(fileCtx, task.TaskID, pending.FileName, pending.ContentType, pending.FileSize, resp.Body)
			if err != nil {
				return fmt.Errorf("upload: %w", err)
			}

			return b.taskService.AttachFile(fileCtx, &models.TaskFile{
				TaskID:        task.TaskID,
				UserID:        user.UserID,
				FileName:      pending.FileName,
				FilePath:      path,
				FileSize:      pending.FileSize,
				ContentType:   pending.ContentType,
				ThumbnailPath: thumbPath,
			})
		}()

		if err != nil {
			l.Error().Err(err).Str("task_id", task.TaskID).Str("file", pending.FileName).Msg("attachment failed")
			if b.metrics != nil {
				b.metrics.FileUploadErrors.Inc()
			}
			continue
		}

		saved++
		if b.metrics != nil {
			b.metrics.FilesUploaded.Inc()
		}
	}

	return saved
}

func (b *Bot) finalizeCompany(ctx context.Context, chatID int64, user *models.User, session *models.Session) {
	l := zerolog.Ctx(ctx)
	draft := session.CompanyDraft

	company, err := b.companyService.CreateCompany(ctx, user, draft.Name, draft.Description)
	if err != nil {
		l.Error().Err(err).Msg("create company failed")
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	if err := b.sessions.ClearSession(ctx, session.UserID); err != nil {
		l.Error().Err(err).Msg("clear session failed")
	}

	b.sendMenu(chatID, user, fmt.Sprintf("✅ Компания «%s» создана.", company.Name))
}
