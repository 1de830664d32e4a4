package repository

import (
	"context"
	"time"

	"github.com/Koyo-os/form-studio/internal/entity"
)

const (
	sessionKeyPrefix = "session:"
	formKeyPrefix    = "form:"
)

// Cacher is implemented by the redis casher and the in-memory session manager
type Cacher interface {
	AddToCash(ctx context.Context, key string, payload any, ttl time.Duration) error
	GetCashFor(ctx context.Context, key string, dst any) (bool, error)
	RemoveFromCash(ctx context.Context, key string) error
}

// SessionRepository stores editing sessions. Every save refreshes the TTL.
type SessionRepository struct {
	cache Cacher
	ttl   time.Duration
}

func NewSessionRepository(cache Cacher, ttl time.Duration) *SessionRepository {
	return &SessionRepository{cache: cache, ttl: ttl}
}

func (r *SessionRepository) Save(ctx context.Context, session *entity.Session) error {
	return r.cache.AddToCash(ctx, sessionKeyPrefix+session.ID, session, r.ttl)
}

// Get returns entity.ErrSessionNotFound for unknown or expired sessions
func (r *SessionRepository) Get(ctx context.Context, id string) (*entity.Session, error) {
	session := new(entity.Session)

	found, err := r.cache.GetCashFor(ctx, sessionKeyPrefix+id, session)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, entity.ErrSessionNotFound
	}

	return session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.cache.RemoveFromCash(ctx, sessionKeyPrefix+id)
}

// FormCacheRepository keeps fetched form definitions for a short while
type FormCacheRepository struct {
	cache Cacher
	ttl   time.Duration
}

func NewFormCacheRepository(cache Cacher, ttl time.Duration) *FormCacheRepository {
	return &FormCacheRepository{cache: cache, ttl: ttl}
}

func (r *FormCacheRepository) Get(ctx context.Context, id entity.FormID) (*entity.Form, bool, error) {
	form := new(entity.Form)

	found, err := r.cache.GetCashFor(ctx, formKeyPrefix+id.String(), form)
	if err != nil || !found {
		return nil, false, err
	}

	return form, true, nil
}

func (r *FormCacheRepository) Put(ctx context.Context, form *entity.Form) error {
	return r.cache.AddToCash(ctx, formKeyPrefix+form.ID.String(), form, r.ttl)
}

func (r *FormCacheRepository) Evict(ctx context.Context, id entity.FormID) error {
	return r.cache.RemoveFromCash(ctx, formKeyPrefix+id.String())
}
