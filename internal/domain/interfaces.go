package domain

import (
	"context"
	"io"
	"time"

	"github.com/tammmikel/task-botv2/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Repository — постоянное хранилище бота: пользователи, компании,
// задачи с их вложениями и комментариями.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	CountUsers(ctx context.Context) (int, error)
	GetAssignees(ctx context.Context) ([]*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserRole(ctx context.Context, userID, role string) error

	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompanyByID(ctx context.Context, companyID string) (*models.Company, error)
	GetCompanyByName(ctx context.Context, name string) (*models.Company, error)
	GetAllCompanies(ctx context.Context) ([]*models.Company, error)

	CreateTask(ctx context.Context, task *models.Task) error
	GetTaskByID(ctx context.Context, taskID string) (*models.Task, error)
	GetUserTasks(ctx context.Context, userID, role string) ([]*models.Task, error)
	GetUserTasksByCompany(ctx context.Context, userID, role, companyID string) ([]*models.Task, error)
	GetCompaniesWithTasks(ctx context.Context, userID, role string) ([]*models.CompanyTaskCount, error)
	UpdateTaskStatus(ctx context.Context, taskID, status string) error
	MarkOverdueTasks(ctx context.Context, deadline time.Time) (int64, error)

	CreateTaskFile(ctx context.Context, file *models.TaskFile) error
	GetTaskFiles(ctx context.Context, taskID string) ([]*models.TaskFile, error)
	CreateTaskComment(ctx context.Context, comment *models.TaskComment) error
	GetTaskComments(ctx context.Context, taskID string) ([]*models.TaskComment, error)
}

// SessionRepository хранит диалоговые сессии пользователей и небольшое
// защитное состояние (дедупликация апдейтов, лимиты частоты). Реализация
// может терять данные при рестарте; nil-сессия означает «диалога нет».
type SessionRepository interface {
	GetSession(ctx context.Context, userID int64) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context, userID int64) error
	// MarkUpdateSeen возвращает true, если update ID еще не встречался
	// в окне дедупликации, и атомарно его захватывает.
	MarkUpdateSeen(ctx context.Context, updateID int, window time.Duration) (bool, error)
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

// SessionManager — сервисный взгляд на состояние диалогов.
type SessionManager interface {
	GetSession(ctx context.Context, userID int64) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context, userID int64) error
	MarkUpdateSeen(ctx context.Context, updateID int) (bool, error)
	CheckRateLimit(ctx context.Context, userID int64) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// TelegramSender — используемое ботом подмножество клиента Bot API.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendMarkdown(chatID int64, text string) (tgbotapi.Message, error)
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

// FileStore хранит вложения задач в объектном хранилище.
type FileStore interface {
	// Upload сохраняет вложение и возвращает ключ объекта, а для
	// поддерживаемых картинок еще и ключ миниатюры (иначе "").
	Upload(ctx context.Context, taskID, fileName, contentType string, size int64, body io.Reader) (path string, thumbnailPath string, err error)
	PresignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)
	Remove(ctx context.Context, path string) error
}

type UserService interface {
	EnsureUser(ctx context.Context, from *tgbotapi.User) (*models.User, bool, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetAssignees(ctx context.Context) ([]*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	ChangeRole(ctx context.Context, actor *models.User, targetUserID, role string) error
}

type CompanyService interface {
	CreateCompany(ctx context.Context, actor *models.User, name, description string) (*models.Company, error)
	GetCompanyByID(ctx context.Context, companyID string) (*models.Company, error)
	GetCompanyByName(ctx context.Context, name string) (*models.Company, error)
	GetAllCompanies(ctx context.Context) ([]*models.Company, error)
}

type TaskService interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, taskID string) (*models.Task, error)
	GetUserTasks(ctx context.Context, user *models.User) ([]*models.Task, error)
	GetUserTasksByCompany(ctx context.Context, user *models.User, companyID string) ([]*models.Task, error)
	GetCompaniesWithTasks(ctx context.Context, user *models.User) ([]*models.CompanyTaskCount, error)
	ChangeStatus(ctx context.Context, actor *models.User, taskID, status string) (*models.Task, error)
	AttachFile(ctx context.Context, file *models.TaskFile) error
	GetTaskFiles(ctx context.Context, taskID string) ([]*models.TaskFile, error)
	GetTaskComments(ctx context.Context, taskID string) ([]*models.TaskComment, error)
	MarkOverdue(ctx context.Context) (int64, error)
	ExportTasks(ctx context.Context, user *models.User) ([]byte, string, error)
}
