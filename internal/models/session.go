package models

import "time"

// Идентификаторы диалогов.
const (
	FlowCreateTask    = "create_task"
	FlowCreateCompany = "create_company"
)

// Шаги диалога создания задачи по порядку. Шаг дедлайна ветвится либо
// в текстовый ввод даты, либо в инлайн-календарь.
const (
	StepTaskTitle          = "task_title"
	StepTaskDescription    = "task_description"
	StepTaskCompany        = "task_company"
	StepTaskInitiatorName  = "task_initiator_name"
	StepTaskInitiatorPhone = "task_initiator_phone"
	StepTaskAssignee       = "task_assignee"
	StepTaskPriority       = "task_priority"
	StepTaskDeadline       = "task_deadline"
	StepTaskCustomDate     = "task_custom_date"
	StepTaskCalendar       = "task_calendar"
)

// Шаги диалога создания компании.
const (
	StepCompanyName        = "company_name"
	StepCompanyDescription = "company_description"
)

// PendingFile — вложение, собранное по ходу диалога. Байты скачиваются
// из Телеграма только при финализации.
type PendingFile struct {
	TelegramFileID string `json:"telegram_file_id"`
	FileName       string `json:"file_name"`
	ContentType    string `json:"content_type"`
	FileSize       int64  `json:"file_size"`
}

// TaskDraft накапливает данные диалога создания задачи шаг за шагом.
// Поля заполняются строго в порядке шагов, финализация читает только то,
// что гарантируют пройденные шаги.
type TaskDraft struct {
	CreatedBy      string        `json:"created_by"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Attachments    []PendingFile `json:"attachments,omitempty"`
	CompanyID      string        `json:"company_id"`
	CompanyName    string        `json:"company_name"`
	InitiatorName  string        `json:"initiator_name"`
	InitiatorPhone string        `json:"initiator_phone"`
	AssigneeID     string        `json:"assignee_id"`
	AssigneeName   string        `json:"assignee_name"`
	Priority       string        `json:"priority"`
	Deadline       *time.Time    `json:"deadline,omitempty"`

	// Курсор календарного подшага.
	CalendarYear  int `json:"calendar_year,omitempty"`
	CalendarMonth int `json:"calendar_month,omitempty"`
}

// CompanyDraft накапливает данные диалога создания компании.
type CompanyDraft struct {
	CreatedBy   string `json:"created_by"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Session — состояние диалога одного пользователя. Ненулевой ровно один
// черновик, соответствующий Flow; пустой Flow значит, что диалога нет.
type Session struct {
	UserID       int64         `json:"user_id"`
	Flow         string        `json:"flow"`
	Step         string        `json:"step"`
	TaskDraft    *TaskDraft    `json:"task_draft,omitempty"`
	CompanyDraft *CompanyDraft `json:"company_draft,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Active сообщает, идет ли сейчас диалог.
func (s *Session) Active() bool {
	return s != nil && s.Flow != ""
}
