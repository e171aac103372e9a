package repository

import (
	"context"
	"sync"
	"time"

	"github.com/tammmikel/task-botv2/internal/models"
)

// MemorySessionRepository — резервное in-process хранилище сессий на случай
// недоступности Redis. Данные теряются при перезапуске.
type MemorySessionRepository struct {
	sessions    sync.Map
	seenUpdates sync.Map
	rateLimits  sync.Map
	ttl         time.Duration
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl: ttl,
	}
}

type sessionEntry struct {
	session   *models.Session
	expiresAt time.Time
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	val, ok := r.sessions.Load(userID)
	if !ok {
		return nil, nil
	}
	entry := val.(*sessionEntry)
	if time.Now().After(entry.expiresAt) {
		r.sessions.Delete(userID)
		return nil, nil
	}
	return entry.session, nil
}

func (r *MemorySessionRepository) SetSession(ctx context.Context, session *models.Session) error {
	r.sessions.Store(session.UserID, &sessionEntry{
		session:   session,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemorySessionRepository) ClearSession(ctx context.Context, userID int64) error {
	r.sessions.Delete(userID)
	return nil
}

func (r *MemorySessionRepository) MarkUpdateSeen(ctx context.Context, updateID int, window time.Duration) (bool, error) {
	now := time.Now()
	val, loaded := r.seenUpdates.LoadOrStore(updateID, now.Add(window))
	if !loaded {
		return true, nil
	}
	if now.After(val.(time.Time)) {
		r.seenUpdates.Store(updateID, now.Add(window))
		return true, nil
	}
	return false, nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(userID)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(userID, entry)
	return entry.count <= limit, nil
}
