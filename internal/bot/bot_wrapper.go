package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotWrapper оборачивает tgbotapi.BotAPI, чтобы сервисный слой зависел от
// интерфейса, а не от конкретного клиента Телеграма. В тестах на его место
// встает заглушка.
type BotWrapper struct {
	*tgbotapi.BotAPI
}

func NewBotWrapper(api *tgbotapi.BotAPI) *BotWrapper {
	return &BotWrapper{BotAPI: api}
}

// GetSelf возвращает учетку бота, под которой прошла авторизация.
func (w *BotWrapper) GetSelf() tgbotapi.User {
	return w.Self
}

// StopReceivingUpdates останавливает long polling при завершении работы.
func (w *BotWrapper) StopReceivingUpdates() {
	w.BotAPI.StopReceivingUpdates()
}
