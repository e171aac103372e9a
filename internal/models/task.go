package models

import "time"

type Task struct {
	TaskID         string    `json:"task_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	CompanyID      string    `json:"company_id"`
	CompanyName    string    `json:"company_name,omitempty"`
	InitiatorName  string    `json:"initiator_name"`
	InitiatorPhone string    `json:"initiator_phone"`
	AssigneeID     string    `json:"assignee_id"`
	CreatedBy      string    `json:"created_by"`
	Priority       string    `json:"priority"`
	Status         string    `json:"status"`
	Deadline       time.Time `json:"deadline"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StatusEmoji возвращает маркер статуса для списков задач.
func (t *Task) StatusEmoji() string {
	switch t.Status {
	case StatusNew:
		return "🆕"
	case StatusInProgress:
		return "🔄"
	case StatusCompleted:
		return "✅"
	case StatusOverdue:
		return "⏰"
	case StatusCancelled:
		return "❌"
	}
	return "❓"
}

// PriorityEmoji возвращает маркер приоритета для списков задач.
func (t *Task) PriorityEmoji() string {
	switch t.Priority {
	case PriorityUrgent:
		return "🔴"
	case PriorityNormal:
		return "🟡"
	case PriorityLow:
		return "🟢"
	}
	return "⚪"
}

// CanTransition сообщает, допустим ли переход статуса.
// Завершенные, отмененные и просроченные задачи терминальны.
func CanTransition(from, to string) bool {
	switch from {
	case StatusNew:
		return to == StatusInProgress || to == StatusCancelled || to == StatusOverdue
	case StatusInProgress:
		return to == StatusCompleted || to == StatusCancelled || to == StatusOverdue
	}
	return false
}

type TaskFile struct {
	FileID        string    `json:"file_id"`
	TaskID        string    `json:"task_id"`
	UserID        string    `json:"user_id"`
	FileName      string    `json:"file_name"`
	FilePath      string    `json:"file_path"`
	FileSize      int64     `json:"file_size"`
	ContentType   string    `json:"content_type"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type TaskComment struct {
	CommentID   string    `json:"comment_id"`
	TaskID      string    `json:"task_id"`
	UserID      string    `json:"user_id"`
	CommentText string    `json:"comment_text"`
	CreatedAt   time.Time `json:"created_at"`
}
