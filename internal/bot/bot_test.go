package bot

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/tammmikel/task-botv2/internal/config"
	"github.com/tammmikel/task-botv2/internal/database"
	"github.com/tammmikel/task-botv2/internal/domain"
	"github.com/tammmikel/task-botv2/internal/events"
	"github.com/tammmikel/task-botv2/internal/models"
	"github.com/tammmikel/task-botv2/internal/repository"
	"github.com/tammmikel/task-botv2/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTelegramService struct {
	domain.TelegramService
	mu           sync.Mutex
	updatesChan  chan tgbotapi.Update
	sentMessages []tgbotapi.Chattable
	fileURL      string
}

func (m *mockTelegramService) GetFileDirectURL(fileID string) (string, error) {
	return m.fileURL + "/" + fileID, nil
}

func (m *mockTelegramService) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return m.updatesChan
}

func (m *mockTelegramService) record(c tgbotapi.Chattable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentMessages = append(m.sentMessages, c)
}

func (m *mockTelegramService) sent() []tgbotapi.Chattable {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), m.sentMessages...)
}

func (m *mockTelegramService) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.record(c)
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	return m.Send(tgbotapi.NewMessage(chatID, text))
}

func (m *mockTelegramService) SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return m.Send(msg)
}

func (m *mockTelegramService) SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return m.Send(msg)
}

func (m *mockTelegramService) EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	return m.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
}

func (m *mockTelegramService) AnswerCallback(callbackID, text string) error {
	return nil
}

func (m *mockTelegramService) GetSelf() tgbotapi.User {
	return tgbotapi.User{UserName: "test_bot"}
}

func (m *mockTelegramService) StopReceivingUpdates() {}

// lastMessageText возвращает текст последнего отправленного сообщения.
func (m *mockTelegramService) lastMessageText() string {
	msgs := m.sent()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msg, ok := msgs[i].(tgbotapi.MessageConfig); ok {
			return msg.Text
		}
	}
	return ""
}

type stubUserService struct {
	domain.UserService
	mu      sync.Mutex
	self    *models.User
	byID    map[string]*models.User
	changed map[string]string
}

func (s *stubUserService) EnsureUser(ctx context.Context, from *tgbotapi.User) (*models.User, bool, error) {
	return s.self, false, nil
}

func (s *stubUserService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[userID]; ok {
		return u, nil
	}
	return nil, database.ErrNotFound
}

func (s *stubUserService) GetAssignees(ctx context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]*models.User, 0, len(s.byID))
	for _, u := range s.byID {
		users = append(users, u)
	}
	return users, nil
}

func (s *stubUserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return s.GetAssignees(ctx)
}

func (s *stubUserService) ChangeRole(ctx context.Context, actor *models.User, targetUserID, role string) error {
	if actor.Role != models.RoleDirector {
		return service.ErrPermissionDenied
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.changed == nil {
		s.changed = make(map[string]string)
	}
	s.changed[targetUserID] = role
	return nil
}

type stubCompanyService struct {
	domain.CompanyService
	companies map[string]*models.Company
}

func (s *stubCompanyService) GetAllCompanies(ctx context.Context) ([]*models.Company, error) {
	companies := make([]*models.Company, 0, len(s.companies))
	for _, c := range s.companies {
		companies = append(companies, c)
	}
	return companies, nil
}

func (s *stubCompanyService) GetCompanyByID(ctx context.Context, companyID string) (*models.Company, error) {
	return s.companies[companyID], nil
}

type stubTaskService struct {
	domain.TaskService
	mu         sync.Mutex
	created    []*models.Task
	attached   []*models.TaskFile
	attempts   int
	failCreate error
}

func (s *stubTaskService) CreateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.failCreate != nil {
		return s.failCreate
	}
	task.TaskID = "t-1"
	task.Status = models.StatusNew
	s.created = append(s.created, task)
	return nil
}

func (s *stubTaskService) AttachFile(ctx context.Context, file *models.TaskFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = append(s.attached, file)
	return nil
}

func (s *stubTaskService) GetTaskFiles(ctx context.Context, taskID string) ([]*models.TaskFile, error) {
	return nil, nil
}

type stubFileStore struct {
	mu       sync.Mutex
	uploaded []string
}

func (s *stubFileStore) Upload(ctx context.Context, taskID, fileName, contentType string, size int64, body io.Reader) (string, string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded = append(s.uploaded, fileName)
	return "tasks/" + taskID + "/" + fileName, "", nil
}

func (s *stubFileStore) PresignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	return "https://files.local/" + path, nil
}

func (s *stubFileStore) Remove(ctx context.Context, path string) error {
	return nil
}

func newTestBot(t *testing.T, user *models.User) (*Bot, *mockTelegramService, *stubTaskService, *stubUserService) {
	t.Helper()

	tg := &mockTelegramService{updatesChan: make(chan tgbotapi.Update, 8)}
	logger := zerolog.New(io.Discard)

	sessions := service.NewSessionService(
		repository.NewMemorySessionRepository(30*time.Minute),
		5*time.Minute, 100, time.Minute, &logger,
	)

	users := &stubUserService{
		self: user,
		byID: map[string]*models.User{
			"u-2": {UserID: "u-2", TelegramID: 777, FirstName: "Ольга", Role: models.RoleAdmin},
		},
	}
	companies := &stubCompanyService{
		companies: map[string]*models.Company{
			"c-1": {CompanyID: "c-1", Name: "Acme"},
		},
	}
	tasks := &stubTaskService{}

	cfg := &config.Config{
		Telegram: config.TelegramConfig{BotToken: "test"},
		Bot: config.BotConfig{
			TaskListLimit: models.TaskListLimit,
			FileTimeout:   5,
			UpdateTimeout: 5,
		},
	}

	b, err := NewBot(tg, cfg, sessions, users, companies, tasks, nil, nil, nil, &logger)
	require.NoError(t, err)
	return b, tg, tasks, users
}

func textUpdate(id int, userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: userID, UserName: "testuser"},
			Chat: &tgbotapi.Chat{ID: userID},
			Text: text,
		},
	}
}

func callbackUpdate(id int, userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: userID},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: userID}, MessageID: 1},
			Data:    data,
		},
	}
}

func TestCreateTaskConversation(t *testing.T) {
	manager := &models.User{UserID: "u-1", TelegramID: 42, FirstName: "Иван", Role: models.RoleManager}
	b, tg, tasks, _ := newTestBot(t, manager)
	ctx := context.Background()

	updates := []tgbotapi.Update{
		textUpdate(1, 42, btnCreateTask),
		textUpdate(2, 42, "Починить принтер"),
		textUpdate(3, 42, btnSkip),
		callbackUpdate(4, 42, "company:c-1"),
		textUpdate(5, 42, "Иван Петров"),
		textUpdate(6, 42, "+7 999 000-11-22"),
		callbackUpdate(7, 42, "assignee:u-2"),
		callbackUpdate(8, 42, "priority:urgent"),
		callbackUpdate(9, 42, "deadline:tomorrow"),
	}
	for _, u := range updates {
		b.processUpdate(ctx, u)
	}

	require.Len(t, tasks.created, 1)
	task := tasks.created[0]
	assert.Equal(t, "Починить принтер", task.Title)
	assert.Equal(t, "c-1", task.CompanyID)
	assert.Equal(t, "u-2", task.AssigneeID)
	assert.Equal(t, models.PriorityUrgent, task.Priority)
	assert.Equal(t, 23, task.Deadline.Hour())

	// после финализации сессия чиста
	session, err := b.sessions.GetSession(ctx, 42)
	require.NoError(t, err)
	assert.False(t, session.Active())

	assert.Contains(t, tg.lastMessageText(), "Задача создана")
}

func TestCreateTaskPermission(t *testing.T) {
	admin := &models.User{UserID: "u-3", TelegramID: 42, Role: models.RoleAdmin}
	b, tg, tasks, _ := newTestBot(t, admin)

	b.processUpdate(context.Background(), textUpdate(1, 42, btnCreateTask))

	assert.Empty(t, tasks.created)
	assert.Contains(t, tg.lastMessageText(), "директор и менеджеры")
}

func TestCancelClearsSession(t *testing.T) {
	manager := &models.User{UserID: "u-1", TelegramID: 42, Role: models.RoleManager}
	b, tg, _, _ := newTestBot(t, manager)
	ctx := context.Background()

	b.processUpdate(ctx, textUpdate(1, 42, btnCreateTask))
	b.processUpdate(ctx, textUpdate(2, 42, "Черновик"))
	b.processUpdate(ctx, textUpdate(3, 42, btnCancel))

	session, err := b.sessions.GetSession(ctx, 42)
	require.NoError(t, err)
	assert.False(t, session.Active())
	assert.Contains(t, tg.lastMessageText(), "отменено")
}

func TestValidationRepromptsSameStep(t *testing.T) {
	manager := &models.User{UserID: "u-1", TelegramID: 42, Role: models.RoleManager}
	b, tg, _, _ := newTestBot(t, manager)
	ctx := context.Background()

	b.processUpdate(ctx, textUpdate(1, 42, btnCreateTask))
	b.processUpdate(ctx, textUpdate(2, 42, "   "))

	session, err := b.sessions.GetSession(ctx, 42)
	require.NoError(t, err)
	require.True(t, session.Active())
	assert.Equal(t, models.StepTaskTitle, session.Step)

	// повтор приглашения после подсказки об ошибке
	msgs := tg.sent()
	require.GreaterOrEqual(t, len(msgs), 2)
}

func TestDuplicateUpdateDiscarded(t *testing.T) {
	manager := &models.User{UserID: "u-1", TelegramID: 42, Role: models.RoleManager}
	b, _, _, _ := newTestBot(t, manager)
	ctx := context.Background()

	update := textUpdate(100, 42, btnCreateTask)
	b.processUpdate(ctx, update)

	session, err := b.sessions.GetSession(ctx, 42)
	require.NoError(t, err)
	require.True(t, session.Active())

	// имитируем повторную доставку того же update: отменяем диалог вручную
	// и проверяем, что дубликат его не перезапустит
	require.NoError(t, b.sessions.ClearSession(ctx, 42))
	b.processUpdate(ctx, update)

	session, err = b.sessions.GetSession(ctx, 42)
	require.NoError(t, err)
	assert.False(t, session.Active())
}

func TestRoleChangeCallback(t *testing.T) {
	director := &models.User{UserID: "u-1", TelegramID: 42, Role: models.RoleDirector}
	b, tg, _, users := newTestBot(t, director)
	ctx := context.Background()

	b.processUpdate(ctx, callbackUpdate(1, 42, "setrole:u-2:manager"))

	assert.Equal(t, models.RoleManager, users.changed["u-2"])
	assert.Contains(t, tg.lastMessageText(), "Роль изменена")
}

func TestBotStartAndShutdown(t *testing.T) {
	manager := &models.User{UserID: "u-1", TelegramID: 42, Role: models.RoleManager}
	b, tg, _, _ := newTestBot(t, manager)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Start(ctx)
		close(done)
	}()

	tg.updatesChan <- textUpdate(1, 42, "/start")

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("bot did not stop")
	}

	assert.NotEmpty(t, tg.sent())
}

func TestDispatcherKeepsPerUserOrder(t *testing.T) {
	manager := &models.User{UserID: "u-1", TelegramID: 42, Role: models.RoleManager}
	b, _, _, _ := newTestBot(t, manager)
	ctx := context.Background()

	// порядок важен: сначала старт диалога, потом название
	b.dispatcher.enqueue(ctx, textUpdate(1, 42, btnCreateTask))
	b.dispatcher.enqueue(ctx, textUpdate(2, 42, "Починить принтер"))
	b.dispatcher.shutdown()

	session, err := b.sessions.GetSession(ctx, 42)
	require.NoError(t, err)
	require.True(t, session.Active())
	assert.Equal(t, models.StepTaskDescription, session.Step)
	assert.Equal(t, "Починить принтер", session.TaskDraft.Title)
}

func TestDispatcherDropsOnOverflow(t *testing.T) {
	manager := &models.User{UserID: "u-1", TelegramID: 42, Role: models.RoleManager}
	b, _, _, _ := newTestBot(t, manager)

	// заранее заполняем очередь пользователя, не запуская воркер
	queue := make(chan queuedUpdate, models.UserQueueSize)
	for i := 0; i < models.UserQueueSize; i++ {
		queue <- queuedUpdate{ctx: context.Background(), update: textUpdate(i, 42, "x")}
	}
	b.dispatcher.queues[42] = queue

	// очередь полна, enqueue не должен блокироваться
	b.dispatcher.enqueue(context.Background(), textUpdate(99, 42, "y"))
	assert.Len(t, queue, models.UserQueueSize)
}

func documentUpdate(id int, userID int64, fileID, fileName, caption string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message: &tgbotapi.Message{
			From:    &tgbotapi.User{ID: userID, UserName: "testuser"},
			Chat:    &tgbotapi.Chat{ID: userID},
			Caption: caption,
			Document: &tgbotapi.Document{
				FileID:   fileID,
				FileName: fileName,
				MimeType: "application/pdf",
				FileSize: 128,
			},
		},
	}
}

func TestFailedFinalizationClearsSession(t *testing.T) {
	manager := &models.User{UserID: "u-1", TelegramID: 42, FirstName: "Иван", Role: models.RoleManager}
	b, tg, tasks, _ := newTestBot(t, manager)
	tasks.failCreate = errors.New("db gone")
	ctx := context.Background()

	updates := []tgbotapi.Update{
		textUpdate(1, 42, btnCreateTask),
		textUpdate(2, 42, "Починить принтер"),
		textUpdate(3, 42, btnSkip),
		callbackUpdate(4, 42, "company:c-1"),
		textUpdate(5, 42, "Иван Петров"),
		textUpdate(6, 42, "+7 999 000-11-22"),
		callbackUpdate(7, 42, "assignee:u-2"),
		callbackUpdate(8, 42, "priority:urgent"),
		callbackUpdate(9, 42, "deadline:tomorrow"),
	}
	for _, u := range updates {
		b.processUpdate(ctx, u)
	}

	assert.Equal(t, 1, tasks.attempts)
	assert.Empty(t, tasks.created)

	// неудачная финализация все равно завершает диалог
	session, err := b.sessions.GetSession(ctx, 42)
	require.NoError(t, err)
	assert.False(t, session.Active())

	// повторное нажатие кнопки даты не создает задачу еще раз
	b.processUpdate(ctx, callbackUpdate(10, 42, "deadline:tomorrow"))
	assert.Equal(t, 1, tasks.attempts)
	assert.Contains(t, tg.lastMessageText(), "неактуален")
}

func TestAssigneeNotification(t *testing.T) {
	manager := &models.User{UserID: "u-1", TelegramID: 42, Role: models.RoleManager}
	b, tg, _, _ := newTestBot(t, manager)

	payload := events.TaskEventPayload{
		TaskID:             "t-1",
		Title:              "Починить принтер",
		CompanyName:        "Acme",
		Status:             models.StatusNew,
		Deadline:           time.Now().AddDate(0, 0, 1),
		AssigneeID:         "u-2",
		AssigneeTelegramID: 777,
		ChangedBy:          "u-1",
	}
	require.NoError(t, b.eventBus.PublishJSON(events.EventTaskCreated, payload))
	assert.Contains(t, tg.lastMessageText(), "Вам назначена задача")

	// задачу самому себе бот не дублирует уведомлением
	before := len(tg.sent())
	payload.AssigneeID = "u-1"
	require.NoError(t, b.eventBus.PublishJSON(events.EventTaskCreated, payload))
	assert.Len(t, tg.sent(), before)
}

func TestAttachmentCaptionBecomesDescription(t *testing.T) {
	manager := &models.User{UserID: "u-1", TelegramID: 42, FirstName: "Иван", Role: models.RoleManager}
	b, tg, tasks, _ := newTestBot(t, manager)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()
	tg.fileURL = srv.URL

	store := &stubFileStore{}
	b.fileStore = store
	ctx := context.Background()

	updates := []tgbotapi.Update{
		textUpdate(1, 42, btnCreateTask),
		textUpdate(2, 42, "Починить принтер"),
		documentUpdate(3, 42, "f-1", "scan.pdf", "Договор во вложении"),
		textUpdate(4, 42, btnSkip),
		callbackUpdate(5, 42, "company:c-1"),
		textUpdate(6, 42, "Иван Петров"),
		textUpdate(7, 42, "+7 999 000-11-22"),
		callbackUpdate(8, 42, "assignee:u-2"),
		callbackUpdate(9, 42, "priority:normal"),
		callbackUpdate(10, 42, "deadline:tomorrow"),
	}
	for _, u := range updates {
		b.processUpdate(ctx, u)
	}

	require.Len(t, tasks.created, 1)
	assert.Equal(t, "Договор во вложении", tasks.created[0].Description)
	assert.Equal(t, []string{"scan.pdf"}, store.uploaded)
	require.Len(t, tasks.attached, 1)
	assert.Equal(t, "tasks/t-1/scan.pdf", tasks.attached[0].FilePath)
}

func TestAttachmentOnlyTaskGetsPlaceholder(t *testing.T) {
	manager := &models.User{UserID: "u-1", TelegramID: 42, FirstName: "Иван", Role: models.RoleManager}
	b, tg, tasks, _ := newTestBot(t, manager)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()
	tg.fileURL = srv.URL
	b.fileStore = &stubFileStore{}
	ctx := context.Background()

	updates := []tgbotapi.Update{
		textUpdate(1, 42, btnCreateTask),
		textUpdate(2, 42, "Починить принтер"),
		documentUpdate(3, 42, "f-1", "scan.pdf", ""),
		textUpdate(4, 42, btnSkip),
		callbackUpdate(5, 42, "company:c-1"),
		textUpdate(6, 42, "Иван Петров"),
		textUpdate(7, 42, "+7 999 000-11-22"),
		callbackUpdate(8, 42, "assignee:u-2"),
		callbackUpdate(9, 42, "priority:normal"),
		callbackUpdate(10, 42, "deadline:tomorrow"),
	}
	for _, u := range updates {
		b.processUpdate(ctx, u)
	}

	require.Len(t, tasks.created, 1)
	assert.Equal(t, "Описание во вложениях (1)", tasks.created[0].Description)
}

func TestNoCompaniesAbortsTaskFlow(t *testing.T) {
	manager := &models.User{UserID: "u-1", TelegramID: 42, Role: models.RoleManager}
	b, tg, _, _ := newTestBot(t, manager)
	b.companyService = &stubCompanyService{companies: map[string]*models.Company{}}
	ctx := context.Background()

	b.processUpdate(ctx, textUpdate(1, 42, btnCreateTask))
	b.processUpdate(ctx, textUpdate(2, 42, "Починить принтер"))
	b.processUpdate(ctx, textUpdate(3, 42, btnSkip))

	// продолжать некуда, сессия сбрасывается целиком
	session, err := b.sessions.GetSession(ctx, 42)
	require.NoError(t, err)
	assert.False(t, session.Active())
	assert.Contains(t, tg.lastMessageText(), "Компаний пока нет")
}
