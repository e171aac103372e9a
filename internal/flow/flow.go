package flow

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tammmikel/task-botv2/internal/models"
)

// Ошибки валидации шагов. Бот переводит их в подсказки пользователю и
// повторяет текущий шаг, не продвигая диалог.
var (
	ErrEmptyInput   = errors.New("empty input")
	ErrTooShort     = errors.New("input too short")
	ErrTooLong      = errors.New("input too long")
	ErrBadPhone     = errors.New("bad phone number")
	ErrBadPriority  = errors.New("bad priority")
	ErrWrongStep    = errors.New("input does not match current step")
	ErrTooManyFiles = errors.New("too many attachments")
)

const (
	minTitleLen           = 3
	maxTitleLen           = 200
	maxDescriptionLen     = 1000
	minNameLen            = 2
	maxNameLen            = 100
	maxCompanyDescription = 500
	minPhoneLen           = 10
	maxPhoneLen           = 20
	maxAttachments        = 10
)

var phoneRe = regexp.MustCompile(`^\+?\d[\d\s\-()]*\d$`)

// NewCreateTaskSession начинает диалог создания задачи.
func NewCreateTaskSession(userID int64, createdBy string) *models.Session {
	return &models.Session{
		UserID:    userID,
		Flow:      models.FlowCreateTask,
		Step:      models.StepTaskTitle,
		TaskDraft: &models.TaskDraft{CreatedBy: createdBy},
	}
}

// NewCreateCompanySession начинает диалог создания компании.
func NewCreateCompanySession(userID int64, createdBy string) *models.Session {
	return &models.Session{
		UserID:       userID,
		Flow:         models.FlowCreateCompany,
		Step:         models.StepCompanyName,
		CompanyDraft: &models.CompanyDraft{CreatedBy: createdBy},
	}
}

// prevTaskStep задает обратные переходы для кнопки "Назад". Шаги выбора
// даты возвращают к выбору дедлайна, а не к приоритету.
var prevTaskStep = map[string]string{
	models.StepTaskDescription:    models.StepTaskTitle,
	models.StepTaskCompany:        models.StepTaskDescription,
	models.StepTaskInitiatorName:  models.StepTaskCompany,
	models.StepTaskInitiatorPhone: models.StepTaskInitiatorName,
	models.StepTaskAssignee:       models.StepTaskInitiatorPhone,
	models.StepTaskPriority:       models.StepTaskAssignee,
	models.StepTaskDeadline:       models.StepTaskPriority,
	models.StepTaskCustomDate:     models.StepTaskDeadline,
	models.StepTaskCalendar:       models.StepTaskDeadline,
}

// Back возвращает диалог на предыдущий шаг. Возвращает false, если шаг
// первый и отступать некуда.
func Back(s *models.Session) bool {
	if s.Flow != models.FlowCreateTask {
		return false
	}
	prev, ok := prevTaskStep[s.Step]
	if !ok {
		return false
	}
	s.Step = prev
	return true
}

func ApplyTitle(s *models.Session, text string) error {
	if s.Step != models.StepTaskTitle {
		return ErrWrongStep
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}
	if utf8.RuneCountInString(text) < minTitleLen {
		return ErrTooShort
	}
	if utf8.RuneCountInString(text) > maxTitleLen {
		return ErrTooLong
	}
	s.TaskDraft.Title = text
	s.Step = models.StepTaskDescription
	return nil
}

func ApplyDescription(s *models.Session, text string) error {
	if s.Step != models.StepTaskDescription {
		return ErrWrongStep
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > maxDescriptionLen {
		return ErrTooLong
	}
	s.TaskDraft.Description = text
	s.Step = models.StepTaskCompany
	return nil
}

// SkipDescription пропускает необязательный шаг описания.
func SkipDescription(s *models.Session) error {
	if s.Step != models.StepTaskDescription {
		return ErrWrongStep
	}
	s.Step = models.StepTaskCompany
	return nil
}

// AddAttachment запоминает вложение, присланное на шаге описания.
// Сами байты скачиваются только при финализации задачи.
func AddAttachment(s *models.Session, file models.PendingFile) error {
	if s.Flow != models.FlowCreateTask || s.Step != models.StepTaskDescription {
		return ErrWrongStep
	}
	if len(s.TaskDraft.Attachments) >= maxAttachments {
		return ErrTooManyFiles
	}
	s.TaskDraft.Attachments = append(s.TaskDraft.Attachments, file)
	return nil
}

// ApplyAttachmentCaption использует подпись к файлу как описание задачи,
// если текстового описания еще не было. Шаг не продвигает: пользователь
// может прислать еще файлы.
func ApplyAttachmentCaption(s *models.Session, caption string) error {
	if s.Flow != models.FlowCreateTask || s.Step != models.StepTaskDescription {
		return ErrWrongStep
	}
	caption = strings.TrimSpace(caption)
	if caption == "" || s.TaskDraft.Description != "" {
		return nil
	}
	if utf8.RuneCountInString(caption) > maxDescriptionLen {
		return ErrTooLong
	}
	s.TaskDraft.Description = caption
	return nil
}

func ApplyCompany(s *models.Session, companyID, name string) error {
	if s.Step != models.StepTaskCompany {
		return ErrWrongStep
	}
	s.TaskDraft.CompanyID = companyID
	s.TaskDraft.CompanyName = name
	s.Step = models.StepTaskInitiatorName
	return nil
}

func ApplyInitiatorName(s *models.Session, text string) error {
	if s.Step != models.StepTaskInitiatorName {
		return ErrWrongStep
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}
	if utf8.RuneCountInString(text) < minNameLen {
		return ErrTooShort
	}
	if utf8.RuneCountInString(text) > maxNameLen {
		return ErrTooLong
	}
	s.TaskDraft.InitiatorName = text
	s.Step = models.StepTaskInitiatorPhone
	return nil
}

func ApplyInitiatorPhone(s *models.Session, text string) error {
	if s.Step != models.StepTaskInitiatorPhone {
		return ErrWrongStep
	}
	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n < minPhoneLen || n > maxPhoneLen {
		return ErrBadPhone
	}
	if !phoneRe.MatchString(text) {
		return ErrBadPhone
	}
	s.TaskDraft.InitiatorPhone = text
	s.Step = models.StepTaskAssignee
	return nil
}

func ApplyAssignee(s *models.Session, userID, name string) error {
	if s.Step != models.StepTaskAssignee {
		return ErrWrongStep
	}
	s.TaskDraft.AssigneeID = userID
	s.TaskDraft.AssigneeName = name
	s.Step = models.StepTaskPriority
	return nil
}

func ApplyPriority(s *models.Session, priority string) error {
	if s.Step != models.StepTaskPriority {
		return ErrWrongStep
	}
	switch priority {
	case models.PriorityUrgent, models.PriorityNormal, models.PriorityLow:
	default:
		return ErrBadPriority
	}
	s.TaskDraft.Priority = priority
	s.Step = models.StepTaskDeadline
	return nil
}

// ApplyDeadline завершает сбор данных фиксированной датой (быстрый выбор
// или календарь). После этого шага черновик готов к финализации.
func ApplyDeadline(s *models.Session, deadline time.Time) error {
	switch s.Step {
	case models.StepTaskDeadline, models.StepTaskCustomDate, models.StepTaskCalendar:
	default:
		return ErrWrongStep
	}
	d := EndOfDay(deadline)
	s.TaskDraft.Deadline = &d
	return nil
}

// RequestCustomDate переключает на ввод даты текстом.
func RequestCustomDate(s *models.Session) error {
	if s.Step != models.StepTaskDeadline {
		return ErrWrongStep
	}
	s.Step = models.StepTaskCustomDate
	return nil
}

// RequestCalendar переключает на инлайн-календарь с курсором на текущем месяце.
func RequestCalendar(s *models.Session, now time.Time) error {
	if s.Step != models.StepTaskDeadline {
		return ErrWrongStep
	}
	s.Step = models.StepTaskCalendar
	s.TaskDraft.CalendarYear = now.Year()
	s.TaskDraft.CalendarMonth = int(now.Month())
	return nil
}

// ApplyCustomDate разбирает дату, введенную текстом.
func ApplyCustomDate(s *models.Session, text string, now time.Time) error {
	if s.Step != models.StepTaskCustomDate {
		return ErrWrongStep
	}
	deadline, err := ParseDeadline(text, now)
	if err != nil {
		return err
	}
	s.TaskDraft.Deadline = &deadline
	return nil
}

// Complete сообщает, собраны ли все обязательные поля черновика задачи.
func Complete(s *models.Session) bool {
	if s.Flow != models.FlowCreateTask || s.TaskDraft == nil {
		return false
	}
	d := s.TaskDraft
	return d.Title != "" && d.CompanyID != "" && d.InitiatorName != "" &&
		d.InitiatorPhone != "" && d.AssigneeID != "" && d.Priority != "" && d.Deadline != nil
}

func ApplyCompanyName(s *models.Session, text string) error {
	if s.Step != models.StepCompanyName {
		return ErrWrongStep
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}
	if utf8.RuneCountInString(text) < minNameLen {
		return ErrTooShort
	}
	if utf8.RuneCountInString(text) > maxNameLen {
		return ErrTooLong
	}
	s.CompanyDraft.Name = text
	s.Step = models.StepCompanyDescription
	return nil
}

// ApplyCompanyDescription сохраняет необязательное описание компании.
func ApplyCompanyDescription(s *models.Session, text string) error {
	if s.Step != models.StepCompanyDescription {
		return ErrWrongStep
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > maxCompanyDescription {
		return ErrTooLong
	}
	s.CompanyDraft.Description = text
	return nil
}

