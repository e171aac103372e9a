package service

import (
	"context"
	"time"

	"github.com/tammmikel/task-botv2/internal/domain"
	"github.com/tammmikel/task-botv2/internal/models"

	"github.com/rs/zerolog"
)

// SessionService обслуживает диалоговые сессии пользователей поверх
// session-хранилища и хранит параметры дедупликации и rate limit.
type SessionService struct {
	sessionRepo domain.SessionRepository
	dedupWindow time.Duration
	rateLimit   int
	rateWindow  time.Duration
	logger      *zerolog.Logger
}

func NewSessionService(sessionRepo domain.SessionRepository, dedupWindow time.Duration, rateLimit int, rateWindow time.Duration, logger *zerolog.Logger) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		dedupWindow: dedupWindow,
		rateLimit:   rateLimit,
		rateWindow:  rateWindow,
		logger:      logger,
	}
}

func (s *SessionService) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	session, err := s.sessionRepo.GetSession(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get session")
		return nil, err
	}
	return session, nil
}

func (s *SessionService) SetSession(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()
	return s.sessionRepo.SetSession(ctx, session)
}

func (s *SessionService) ClearSession(ctx context.Context, userID int64) error {
	return s.sessionRepo.ClearSession(ctx, userID)
}

// MarkUpdateSeen возвращает true для update, который ещё не обрабатывался
// в пределах окна дедупликации.
func (s *SessionService) MarkUpdateSeen(ctx context.Context, updateID int) (bool, error) {
	return s.sessionRepo.MarkUpdateSeen(ctx, updateID, s.dedupWindow)
}

func (s *SessionService) CheckRateLimit(ctx context.Context, userID int64) (bool, error) {
	return s.sessionRepo.CheckRateLimit(ctx, userID, s.rateLimit, s.rateWindow)
}
