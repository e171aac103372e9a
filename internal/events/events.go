package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventTaskCreated       = "task_created"
	EventTaskStatusChanged = "task_status_changed"
	EventUserRegistered    = "user_registered"
	EventRoleChanged       = "role_changed"
)

// TaskEventPayload — минимальный срез задачи для подписчиков событий.
type TaskEventPayload struct {
	TaskID             string    `json:"task_id"`
	Title              string    `json:"title"`
	CompanyName        string    `json:"company_name"`
	Priority           string    `json:"priority"`
	Status             string    `json:"status"`
	PreviousStatus     string    `json:"previous_status,omitempty"`
	Deadline           time.Time `json:"deadline"`
	AssigneeID         string    `json:"assignee_id"`
	AssigneeTelegramID int64     `json:"assignee_telegram_id,omitempty"`
	ChangedBy          string    `json:"changed_by,omitempty"`
	ChangedByName      string    `json:"changed_by_name,omitempty"`
}

// UserEventPayload сопровождает регистрацию и смену роли.
type UserEventPayload struct {
	UserID     string `json:"user_id"`
	TelegramID int64  `json:"telegram_id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	ChangedBy  string `json:"changed_by,omitempty"`
}

// Event — легковесное доменное событие.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler реагирует на событие.
type EventHandler func(event *Event) error

// EventBus — внутрипроцессный pub/sub для событий.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus создает пустую шину.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe регистрирует обработчик для типа события.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish уведомляет подписчиков данного типа события.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Обработчики выполняются синхронно, конкурентность решает вызывающий
		_ = handler(event)
	}
}

// PublishJSON сериализует полезную нагрузку и публикует событие.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
