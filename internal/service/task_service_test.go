package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/tammmikel/task-botv2/internal/database"
	"github.com/tammmikel/task-botv2/internal/events"
	"github.com/tammmikel/task-botv2/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTaskService(repo *mockRepository) (*TaskService, *events.EventBus) {
	logger := zerolog.Nop()
	bus := events.NewEventBus()
	return NewTaskService(repo, bus, &logger), bus
}

func TestCreateTask_PublishesEventWithAssignee(t *testing.T) {
	repo := new(mockRepository)
	svc, bus := newTaskService(repo)

	var payloads []events.TaskEventPayload
	bus.Subscribe(events.EventTaskCreated, func(event *events.Event) error {
		var p events.TaskEventPayload
		require.NoError(t, json.Unmarshal(event.Payload, &p))
		payloads = append(payloads, p)
		return nil
	})

	assignee := &models.User{UserID: "u-2", TelegramID: 777, FirstName: "Olga"}
	creator := &models.User{UserID: "u-1", TelegramID: 42, FirstName: "Ivan"}
	repo.On("CreateTask", mock.Anything, mock.AnythingOfType("*models.Task")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Task).TaskID = "t-1"
	}).Return(nil)
	repo.On("GetUserByID", mock.Anything, "u-2").Return(assignee, nil)
	repo.On("GetUserByID", mock.Anything, "u-1").Return(creator, nil)

	task := &models.Task{
		Title:      "Починить принтер",
		AssigneeID: "u-2",
		CreatedBy:  "u-1",
		Priority:   models.PriorityUrgent,
		Deadline:   time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, svc.CreateTask(context.Background(), task))

	require.Len(t, payloads, 1)
	assert.Equal(t, "t-1", payloads[0].TaskID)
	assert.Equal(t, int64(777), payloads[0].AssigneeTelegramID)
	assert.Equal(t, "Ivan", payloads[0].ChangedByName)
}

func TestCreateTask_Validation(t *testing.T) {
	repo := new(mockRepository)
	svc, _ := newTaskService(repo)
	ctx := context.Background()

	t.Run("empty title", func(t *testing.T) {
		err := svc.CreateTask(ctx, &models.Task{Title: "   ", Priority: models.PriorityNormal})
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("unknown priority", func(t *testing.T) {
		err := svc.CreateTask(ctx, &models.Task{Title: "x", Priority: "asap"})
		assert.ErrorIs(t, err, ErrUnknownPriority)
	})

	repo.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything)
}

func TestChangeStatus(t *testing.T) {
	director := &models.User{UserID: "d-1", Role: models.RoleDirector}
	assignee := &models.User{UserID: "u-2", Role: models.RoleAdmin}
	outsider := &models.User{UserID: "u-9", Role: models.RoleAdmin}

	task := &models.Task{TaskID: "t-1", Status: models.StatusNew, CreatedBy: "u-1", AssigneeID: "u-2"}

	t.Run("assignee can take task in progress", func(t *testing.T) {
		repo := new(mockRepository)
		svc, bus := newTaskService(repo)

		var changed []events.TaskEventPayload
		bus.Subscribe(events.EventTaskStatusChanged, func(event *events.Event) error {
			var p events.TaskEventPayload
			require.NoError(t, json.Unmarshal(event.Payload, &p))
			changed = append(changed, p)
			return nil
		})

		fresh := *task
		repo.On("GetTaskByID", mock.Anything, "t-1").Return(&fresh, nil)
		repo.On("UpdateTaskStatus", mock.Anything, "t-1", models.StatusInProgress).Return(nil)
		repo.On("CreateTaskComment", mock.Anything, mock.AnythingOfType("*models.TaskComment")).Return(nil)
		repo.On("GetUserByID", mock.Anything, mock.Anything).Return(nil, database.ErrNotFound)

		got, err := svc.ChangeStatus(context.Background(), assignee, "t-1", models.StatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInProgress, got.Status)
		require.Len(t, changed, 1)
		assert.Equal(t, models.StatusNew, changed[0].PreviousStatus)
	})

	t.Run("outsider is denied", func(t *testing.T) {
		repo := new(mockRepository)
		svc, _ := newTaskService(repo)

		fresh := *task
		repo.On("GetTaskByID", mock.Anything, "t-1").Return(&fresh, nil)

		_, err := svc.ChangeStatus(context.Background(), outsider, "t-1", models.StatusInProgress)
		assert.ErrorIs(t, err, ErrPermissionDenied)
		repo.AssertNotCalled(t, "UpdateTaskStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("illegal transition surfaces store error", func(t *testing.T) {
		repo := new(mockRepository)
		svc, _ := newTaskService(repo)

		done := &models.Task{TaskID: "t-1", Status: models.StatusCompleted, CreatedBy: "u-1", AssigneeID: "u-2"}
		repo.On("GetTaskByID", mock.Anything, "t-1").Return(done, nil)
		repo.On("UpdateTaskStatus", mock.Anything, "t-1", models.StatusInProgress).Return(database.ErrInvalidTransition)

		_, err := svc.ChangeStatus(context.Background(), director, "t-1", models.StatusInProgress)
		assert.ErrorIs(t, err, database.ErrInvalidTransition)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		repo := new(mockRepository)
		svc, _ := newTaskService(repo)

		_, err := svc.ChangeStatus(context.Background(), director, "t-1", "archived")
		assert.ErrorIs(t, err, ErrUnknownStatus)
	})
}

func TestExportTasks(t *testing.T) {
	repo := new(mockRepository)
	svc, _ := newTaskService(repo)

	director := &models.User{UserID: "d-1", Role: models.RoleDirector}
	tasks := []*models.Task{
		{
			TaskID:      "t-1",
			Title:       "Починить принтер",
			CompanyName: "Acme",
			AssigneeID:  "u-2",
			Priority:    models.PriorityNormal,
			Status:      models.StatusNew,
			Deadline:    time.Date(2026, 9, 1, 23, 59, 59, 0, time.UTC),
			CreatedAt:   time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
		},
	}
	repo.On("GetUserTasks", mock.Anything, "d-1", models.RoleDirector).Return(tasks, nil)
	repo.On("GetUserByID", mock.Anything, "u-2").Return(&models.User{FirstName: "Olga"}, nil)

	data, name, err := svc.ExportTasks(context.Background(), director)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Contains(t, name, ".xlsx")
}

func TestMarkOverdue(t *testing.T) {
	repo := new(mockRepository)
	svc, _ := newTaskService(repo)

	repo.On("MarkOverdueTasks", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(3), nil)

	marked, err := svc.MarkOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), marked)
}
