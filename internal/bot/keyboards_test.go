package bot

import (
	"testing"
	"time"

	"github.com/tammmikel/task-botv2/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMainMenuKeyboardByRole(t *testing.T) {
	director := mainMenuKeyboard(&models.User{Role: models.RoleDirector})
	assert.Len(t, director.Keyboard, 3)

	manager := mainMenuKeyboard(&models.User{Role: models.RoleManager})
	assert.Len(t, manager.Keyboard, 2)

	admin := mainMenuKeyboard(&models.User{Role: models.RoleAdmin})
	assert.Len(t, admin.Keyboard, 1)
}

func TestTaskStatusKeyboardTransitions(t *testing.T) {
	fresh := taskStatusKeyboard(&models.Task{TaskID: "t-1", Status: models.StatusNew})
	require.NotNil(t, fresh)
	assert.Len(t, fresh.InlineKeyboard, 2) // в работу, отменить

	completed := taskStatusKeyboard(&models.Task{TaskID: "t-1", Status: models.StatusCompleted})
	assert.Nil(t, completed)
}

func TestCalendarKeyboard(t *testing.T) {
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	keyboard := calendarKeyboard(2026, 9, now)

	// заголовок, дни недели и 5 недель сентября
	require.Len(t, keyboard.InlineKeyboard, 7)

	// 1 сентября 2026 — вторник, первая ячейка сетки пустая
	firstWeek := keyboard.InlineKeyboard[2]
	require.Len(t, firstWeek, 7)
	assert.Equal(t, " ", firstWeek[0].Text)
	assert.Equal(t, "1", firstWeek[1].Text)

	// дни до сегодняшнего недоступны
	assert.Equal(t, "·", firstWeek[2].Text)

	// сегодня и позже выбираются
	secondWeek := keyboard.InlineKeyboard[3]
	assert.Equal(t, "10", secondWeek[3].Text)
	assert.Equal(t, "date:2026-09-10", *secondWeek[3].CallbackData)
}

func TestCalendarKeyboardNavigation(t *testing.T) {
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	keyboard := calendarKeyboard(2026, 9, now)

	nav := keyboard.InlineKeyboard[0]
	require.Len(t, nav, 3)
	assert.Equal(t, "cal:2026-09:prev", *nav[0].CallbackData)
	assert.Equal(t, "Сентябрь 2026", nav[1].Text)
	assert.Equal(t, "cal:2026-09:next", *nav[2].CallbackData)
}

func TestTruncateTasks(t *testing.T) {
	tasks := make([]*models.Task, 20)
	for i := range tasks {
		tasks[i] = &models.Task{TaskID: "t"}
	}

	shown, rest := truncateTasks(tasks, 15)
	assert.Len(t, shown, 15)
	assert.Equal(t, 5, rest)

	shown, rest = truncateTasks(tasks[:3], 15)
	assert.Len(t, shown, 3)
	assert.Zero(t, rest)
}

func TestFlowKeyboard(t *testing.T) {
	full := flowKeyboard(true, true)
	require.Len(t, full.Keyboard, 1)
	assert.Len(t, full.Keyboard[0], 3)

	cancelOnly := flowKeyboard(false, false)
	require.Len(t, cancelOnly.Keyboard, 1)
	assert.Len(t, cancelOnly.Keyboard[0], 1)
	assert.Equal(t, btnCancel, cancelOnly.Keyboard[0][0].Text)
}
