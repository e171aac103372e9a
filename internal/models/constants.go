package models

// Роли пользователей. Самый первый зарегистрировавшийся становится
// директором, все последующие начинают обычными админами.
const (
	RoleDirector  = "director"
	RoleManager   = "manager"
	RoleMainAdmin = "main_admin"
	RoleAdmin     = "admin"
)

// Статусы задач.
const (
	StatusNew        = "new"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusOverdue    = "overdue"
	StatusCancelled  = "cancelled"
)

// Приоритеты задач.
const (
	PriorityUrgent = "urgent"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

const (
	// DefaultSessionTTL: бездействующие диалоги сбрасываются через столько секунд.
	DefaultSessionTTL = 30 * 60

	// UpdateDedupWindow: повторная доставка того же update id внутри этого
	// окна (в секундах) отбрасывается.
	UpdateDedupWindow = 5 * 60

	// MaxFileSize — потолок размера файла в байтах (100 МиБ).
	MaxFileSize = 100 * 1024 * 1024

	// TaskListLimit — сколько задач показывает список, прежде чем
	// свернуть остальные в счетчик остатка.
	TaskListLimit = 15

	// ThumbnailMaxSide ограничивает размер генерируемых превью.
	ThumbnailMaxSide = 300

	// RateLimitMessages / RateLimitWindow: лимит входящих сообщений на пользователя.
	RateLimitMessages = 20
	RateLimitWindow   = 60

	// UserQueueSize ограничивает FIFO-очередь событий одного пользователя.
	UserQueueSize = 16
)

// DeadlineTimeOfDay приводит каждый дедлайн к концу выбранного дня.
const (
	DeadlineHour   = 23
	DeadlineMinute = 59
	DeadlineSecond = 59
)

const ParseModeMarkdown = "Markdown"
