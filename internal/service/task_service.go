package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tammmikel/task-botv2/internal/domain"
	"github.com/tammmikel/task-botv2/internal/events"
	"github.com/tammmikel/task-botv2/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

type TaskService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewTaskService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *TaskService {
	return &TaskService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

func (s *TaskService) CreateTask(ctx context.Context, task *models.Task) error {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return ErrEmptyName
	}

	switch task.Priority {
	case models.PriorityUrgent, models.PriorityNormal, models.PriorityLow:
	default:
		return ErrUnknownPriority
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		return err
	}

	s.logger.Info().
		Str("task_id", task.TaskID).
		Str("priority", task.Priority).
		Str("assignee_id", task.AssigneeID).
		Str("created_by", task.CreatedBy).
		Msg("task created")

	s.publishTaskEvent(ctx, events.EventTaskCreated, task, "", task.CreatedBy)

	return nil
}

func (s *TaskService) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	return s.repo.GetTaskByID(ctx, taskID)
}

func (s *TaskService) GetUserTasks(ctx context.Context, user *models.User) ([]*models.Task, error) {
	return s.repo.GetUserTasks(ctx, user.UserID, user.Role)
}

func (s *TaskService) GetUserTasksByCompany(ctx context.Context, user *models.User, companyID string) ([]*models.Task, error) {
	return s.repo.GetUserTasksByCompany(ctx, user.UserID, user.Role, companyID)
}

func (s *TaskService) GetCompaniesWithTasks(ctx context.Context, user *models.User) ([]*models.CompanyTaskCount, error) {
	return s.repo.GetCompaniesWithTasks(ctx, user.UserID, user.Role)
}

// ChangeStatus переводит задачу в новый статус с проверкой допустимости
// перехода. Менять статус могут директор, постановщик и исполнитель.
func (s *TaskService) ChangeStatus(ctx context.Context, actor *models.User, taskID, status string) (*models.Task, error) {
	switch status {
	case models.StatusNew, models.StatusInProgress, models.StatusCompleted, models.StatusOverdue, models.StatusCancelled:
	default:
		return nil, ErrUnknownStatus
	}

	task, err := s.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if actor.Role != models.RoleDirector && task.CreatedBy != actor.UserID && task.AssigneeID != actor.UserID {
		return nil, ErrPermissionDenied
	}

	previous := task.Status
	if err := s.repo.UpdateTaskStatus(ctx, taskID, status); err != nil {
		return nil, err
	}

	task.Status = status

	// След в истории задачи, кто и когда сменил статус
	comment := &models.TaskComment{
		TaskID:      taskID,
		UserID:      actor.UserID,
		CommentText: fmt.Sprintf("Статус изменен: %s → %s", previous, status),
	}
	if err := s.repo.CreateTaskComment(ctx, comment); err != nil {
		s.logger.Error().Err(err).Str("task_id", taskID).Msg("create status comment failed")
	}

	s.logger.Info().
		Str("task_id", taskID).
		Str("from", previous).
		Str("to", status).
		Str("changed_by", actor.UserID).
		Msg("task status changed")

	s.publishTaskEvent(ctx, events.EventTaskStatusChanged, task, previous, actor.UserID)

	return task, nil
}

func (s *TaskService) AttachFile(ctx context.Context, file *models.TaskFile) error {
	return s.repo.CreateTaskFile(ctx, file)
}

func (s *TaskService) GetTaskFiles(ctx context.Context, taskID string) ([]*models.TaskFile, error) {
	return s.repo.GetTaskFiles(ctx, taskID)
}

func (s *TaskService) GetTaskComments(ctx context.Context, taskID string) ([]*models.TaskComment, error) {
	return s.repo.GetTaskComments(ctx, taskID)
}

// MarkOverdue переводит просроченные активные задачи в overdue.
func (s *TaskService) MarkOverdue(ctx context.Context) (int64, error) {
	marked, err := s.repo.MarkOverdueTasks(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if marked > 0 {
		s.logger.Info().Int64("count", marked).Msg("tasks marked overdue")
	}
	return marked, nil
}

var exportHeaders = []string{
	"Название", "Компания", "Инициатор", "Телефон", "Исполнитель",
	"Приоритет", "Статус", "Дедлайн", "Создана",
}

// ExportTasks выгружает видимые пользователю задачи в xlsx.
func (s *TaskService) ExportTasks(ctx context.Context, user *models.User) ([]byte, string, error) {
	tasks, err := s.repo.GetUserTasks(ctx, user.UserID, user.Role)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Задачи"
	f.SetSheetName("Sheet1", sheet)

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for row, task := range tasks {
		assignee := task.AssigneeID
		if u, err := s.repo.GetUserByID(ctx, task.AssigneeID); err == nil {
			assignee = u.DisplayName()
		}
		values := []interface{}{
			task.Title,
			task.CompanyName,
			task.InitiatorName,
			task.InitiatorPhone,
			assignee,
			task.Priority,
			task.Status,
			task.Deadline.Format("02.01.2006"),
			task.CreatedAt.Format("02.01.2006 15:04"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to write xlsx: %w", err)
	}

	fileName := fmt.Sprintf("tasks_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), fileName, nil
}

func (s *TaskService) publishTaskEvent(ctx context.Context, eventType string, task *models.Task, previousStatus, changedBy string) {
	if s.eventBus == nil {
		return
	}

	payload := events.TaskEventPayload{
		TaskID:         task.TaskID,
		Title:          task.Title,
		CompanyName:    task.CompanyName,
		Priority:       task.Priority,
		Status:         task.Status,
		PreviousStatus: previousStatus,
		Deadline:       task.Deadline,
		AssigneeID:     task.AssigneeID,
		ChangedBy:      changedBy,
	}

	if assignee, err := s.repo.GetUserByID(ctx, task.AssigneeID); err == nil {
		payload.AssigneeTelegramID = assignee.TelegramID
	}
	if actor, err := s.repo.GetUserByID(ctx, changedBy); err == nil {
		payload.ChangedByName = actor.DisplayName()
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("task_id", task.TaskID).Msg("publish event error")
	}
}
