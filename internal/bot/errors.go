package bot

import (
	"errors"

	"github.com/tammmikel/task-botv2/internal/database"
	"github.com/tammmikel/task-botv2/internal/flow"
	"github.com/tammmikel/task-botv2/internal/service"
	"github.com/tammmikel/task-botv2/internal/storage"
)

func (b *Bot) getErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, flow.ErrEmptyInput):
		return "⚠️ Текст не может быть пустым. Попробуйте еще раз."
	case errors.Is(err, flow.ErrTooShort):
		return "⚠️ Слишком короткий текст. Напишите подробнее."
	case errors.Is(err, flow.ErrTooLong):
		return "⚠️ Слишком длинный текст. Сократите и отправьте снова."
	case errors.Is(err, flow.ErrBadPhone):
		return "⚠️ Не похоже на номер телефона. Пример: +7 999 000-11-22."
	case errors.Is(err, flow.ErrBadDateFormat):
		return "⚠️ Не удалось разобрать дату. Примеры: 15.09.2026, 15.09, через 3 дня."
	case errors.Is(err, flow.ErrPastDate):
		return "⚠️ Эта дата уже прошла. Укажите сегодняшний день или позже."
	case errors.Is(err, flow.ErrTooManyFiles):
		return "⚠️ Слишком много вложений. Остальные файлы прикрепите к задаче позже."
	case errors.Is(err, storage.ErrFileTooLarge):
		return "⚠️ Файл больше 100 МБ и не может быть сохранен."
	case errors.Is(err, database.ErrNotFound):
		return "⚠️ Запись не найдена. Возможно, она была удалена."
	case errors.Is(err, database.ErrDuplicate):
		return "⚠️ Такая запись уже существует."
	case errors.Is(err, database.ErrInvalidTransition):
		return "⚠️ Задачу нельзя перевести в этот статус."
	case errors.Is(err, service.ErrPermissionDenied):
		return "⚠️ У вас нет прав на это действие."
	}

	return "❌ Произошла ошибка при обработке вашего запроса. Пожалуйста, попробуйте позже."
}
