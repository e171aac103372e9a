package service

import (
	"context"
	"errors"

	"github.com/tammmikel/task-botv2/internal/database"
	"github.com/tammmikel/task-botv2/internal/domain"
	"github.com/tammmikel/task-botv2/internal/events"
	"github.com/tammmikel/task-botv2/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type UserService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewUserService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// EnsureUser регистрирует пользователя при первом контакте. Возвращает true,
// если запись была создана этим вызовом. Повторная доставка того же /start
// не создает дубликата.
func (s *UserService) EnsureUser(ctx context.Context, from *tgbotapi.User) (*models.User, bool, error) {
	existing, err := s.repo.GetUserByTelegramID(ctx, from.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, false, err
	}

	user := &models.User{
		TelegramID: from.ID,
		Username:   from.UserName,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		// Конкурентная доставка того же апдейта могла успеть первой
		if errors.Is(err, database.ErrDuplicate) {
			existing, err := s.repo.GetUserByTelegramID(ctx, from.ID)
			return existing, false, err
		}
		return nil, false, err
	}

	s.logger.Info().
		Int64("telegram_id", user.TelegramID).
		Str("role", user.Role).
		Msg("user registered")

	if s.eventBus != nil {
		payload := events.UserEventPayload{
			UserID:     user.UserID,
			TelegramID: user.TelegramID,
			Name:       user.DisplayName(),
			Role:       user.Role,
		}
		if err := s.eventBus.PublishJSON(events.EventUserRegistered, payload); err != nil {
			s.logger.Error().Err(err).Msg("publish event error")
		}
	}

	return user, true, nil
}

func (s *UserService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return s.repo.GetUserByTelegramID(ctx, telegramID)
}

func (s *UserService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *UserService) GetAssignees(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAssignees(ctx)
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAllUsers(ctx)
}

// ChangeRole меняет роль сотрудника. Доступно только директору.
func (s *UserService) ChangeRole(ctx context.Context, actor *models.User, targetUserID, role string) error {
	if actor.Role != models.RoleDirector {
		return ErrPermissionDenied
	}

	switch role {
	case models.RoleDirector, models.RoleManager, models.RoleMainAdmin, models.RoleAdmin:
	default:
		return ErrUnknownRole
	}

	if err := s.repo.UpdateUserRole(ctx, targetUserID, role); err != nil {
		return err
	}

	s.logger.Info().
		Str("target_user_id", targetUserID).
		Str("role", role).
		Str("changed_by", actor.UserID).
		Msg("user role changed")

	if s.eventBus != nil {
		payload := events.UserEventPayload{
			UserID:    targetUserID,
			Role:      role,
			ChangedBy: actor.UserID,
		}
		if err := s.eventBus.PublishJSON(events.EventRoleChanged, payload); err != nil {
			s.logger.Error().Err(err).Msg("publish event error")
		}
	}

	return nil
}
