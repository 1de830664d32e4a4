// Package service drives authoring and responding sessions
package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/Koyo-os/form-studio/internal/entity"
	"github.com/Koyo-os/form-studio/pkg/config"
	"github.com/Koyo-os/form-studio/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const lockStripes = 64

type Service struct {
	sessions  SessionStore
	forms     FormCache
	gateway   Gateway
	publisher Publisher
	journal   Journal
	logger    *logger.Logger
	cfg       *config.Config

	// requests on one session are serialised, different sessions only
	// contend when they hash to the same stripe
	locks [lockStripes]sync.Mutex
	newID func() string
	now   func() time.Time
}

type Option func(*Service)

// WithPublisher enables submission events
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithJournal enables the activity journal
func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

func Init(
	cfg *config.Config,
	logger *logger.Logger,
	sessions SessionStore,
	forms FormCache,
	gateway Gateway,
	opts ...Option,
) *Service {
	s := &Service{
		sessions: sessions,
		forms:    forms,
		gateway:  gateway,
		logger:   logger,
		cfg:      cfg,
		newID:    uuid.NewString,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Get returns a session of any kind
func (s *Service) Get(ctx context.Context, sid string) (*entity.Session, error) {
	return s.sessions.Get(ctx, sid)
}

// Discard abandons a session of the given kind. Unknown ids are not an
// error, a session of the other kind is left alone.
func (s *Service) Discard(ctx context.Context, sid string, kind entity.SessionKind) error {
	unlock := s.lock(sid)
	defer unlock()

	if _, err := s.load(ctx, sid, kind); err != nil {
		if errors.Is(err, entity.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	return s.sessions.Delete(ctx, sid)
}

// EvictForm drops a cached form definition after it changed on the backend
func (s *Service) EvictForm(ctx context.Context, id entity.FormID) error {
	if err := s.forms.Evict(ctx, id); err != nil {
		s.logger.Error("error evict form from cache",
			zap.String("form_id", id.String()),
			zap.Error(err))
		return err
	}

	s.logger.Debug("form evicted from cache", zap.String("form_id", id.String()))
	return nil
}

func (s *Service) newSession(kind entity.SessionKind) *entity.Session {
	now := s.now()
	return &entity.Session{
		ID:        s.newID(),
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Service) lock(sid string) func() {
	h := fnv.New32a()
	h.Write([]byte(sid))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// mutate loads a session of the given kind, applies fn and saves the result.
// Nothing is saved when fn fails.
func (s *Service) mutate(ctx context.Context, sid string, kind entity.SessionKind, fn func(*entity.Session) error) (*entity.Session, error) {
	unlock := s.lock(sid)
	defer unlock()

	session, err := s.load(ctx, sid, kind)
	if err != nil {
		return nil, err
	}

	if err = fn(session); err != nil {
		return nil, err
	}

	session.Touch()
	if err = s.sessions.Save(ctx, session); err != nil {
		s.logger.Error("error save session",
			zap.String("session_id", sid),
			zap.Error(err))
		return nil, err
	}

	return session, nil
}

func (s *Service) load(ctx context.Context, sid string, kind entity.SessionKind) (*entity.Session, error) {
	session, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}

	if session.Kind != kind {
		return nil, fmt.Errorf("%w: %s is %s", entity.ErrWrongSessionKind, sid, session.Kind)
	}

	return session, nil
}

// form returns a form definition, from the cache when possible
func (s *Service) form(ctx context.Context, token string, id entity.FormID) (*entity.Form, error) {
	form, found, err := s.forms.Get(ctx, id)
	if err != nil {
		s.logger.Warn("form cache unavailable",
			zap.String("form_id", id.String()),
			zap.Error(err))
	}
	if found {
		return form, nil
	}

	form, err = s.gateway.FetchForm(ctx, token, id)
	if err != nil {
		return nil, err
	}

	if err = s.forms.Put(ctx, form); err != nil {
		s.logger.Warn("error cache form",
			zap.String("form_id", id.String()),
			zap.Error(err))
	}

	return form, nil
}

func (s *Service) publish(payload any, routingKey string) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(payload, routingKey); err != nil {
		s.logger.Error("error publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err))
	}
}

func (s *Service) record(ctx context.Context, activity *entity.Activity) {
	if s.journal == nil {
		return
	}

	if err := s.journal.Record(ctx, activity); err != nil {
		s.logger.Error("error record activity",
			zap.String("type", string(activity.Type)),
			zap.Error(err))
	}
}
