package service

import (
	"context"
	"fmt"

	"github.com/Koyo-os/form-studio/internal/draft"
	"github.com/Koyo-os/form-studio/internal/entity"
	"github.com/Koyo-os/form-studio/internal/validation"
	"go.uber.org/zap"
)

// StartAuthoring opens a session with an empty form draft
func (s *Service) StartAuthoring(ctx context.Context) (*entity.Session, error) {
	session := s.newSession(entity.SessionAuthoring)
	session.FormDraft = draft.NewBuilder(nil).Draft()

	if err := s.sessions.Save(ctx, session); err != nil {
		s.logger.Error("error save session", zap.Error(err))
		return nil, err
	}

	s.logger.Info("authoring session started", zap.String("session_id", session.ID))
	return session, nil
}

// StartEditing opens a session whose draft is seeded from an existing form.
// Submitting it replaces that form.
func (s *Service) StartEditing(ctx context.Context, token string, id entity.FormID) (*entity.Session, error) {
	form, err := s.form(ctx, token, id)
	if err != nil {
		return nil, err
	}

	session := s.newSession(entity.SessionAuthoring)
	session.FormDraft = form.ToDraft()

	if err = s.sessions.Save(ctx, session); err != nil {
		s.logger.Error("error save session", zap.Error(err))
		return nil, err
	}

	s.logger.Info("editing session started",
		zap.String("session_id", session.ID),
		zap.String("form_id", id.String()))
	return session, nil
}

func (s *Service) SetDetails(ctx context.Context, sid, title, description string) (*entity.Session, error) {
	return s.build(ctx, sid, func(b *draft.Builder) error {
		b.SetDetails(title, description)
		return nil
	})
}

// AddQuestion appends a default question and returns it with the session
func (s *Service) AddQuestion(ctx context.Context, sid string) (*entity.Session, entity.Question, error) {
	var added entity.Question

	session, err := s.build(ctx, sid, func(b *draft.Builder) error {
		added = b.AddQuestion()
		return nil
	})

	return session, added, err
}

func (s *Service) RemoveQuestion(ctx context.Context, sid string, qid entity.QuestionID) (*entity.Session, error) {
	return s.build(ctx, sid, func(b *draft.Builder) error {
		b.RemoveQuestion(qid)
		return nil
	})
}

func (s *Service) UpdateQuestion(ctx context.Context, sid string, qid entity.QuestionID, field draft.Field, value any) (*entity.Session, error) {
	return s.build(ctx, sid, func(b *draft.Builder) error {
		return b.UpdateQuestion(qid, field, value)
	})
}

func (s *Service) AddOption(ctx context.Context, sid string, qid entity.QuestionID) (*entity.Session, error) {
	return s.build(ctx, sid, func(b *draft.Builder) error {
		b.AddOption(qid)
		return nil
	})
}

func (s *Service) RemoveOption(ctx context.Context, sid string, qid entity.QuestionID, index int) (*entity.Session, error) {
	return s.build(ctx, sid, func(b *draft.Builder) error {
		b.RemoveOption(qid, index)
		return nil
	})
}

func (s *Service) UpdateOption(ctx context.Context, sid string, qid entity.QuestionID, index int, value string) (*entity.Session, error) {
	return s.build(ctx, sid, func(b *draft.Builder) error {
		b.UpdateOption(qid, index, value)
		return nil
	})
}

// SubmitForm validates the draft and sends it to the backend. The session is
// closed on success and kept unchanged on any failure.
func (s *Service) SubmitForm(ctx context.Context, sid, token string) (*entity.GatewayMessage, error) {
	unlock := s.lock(sid)
	defer unlock()

	session, err := s.load(ctx, sid, entity.SessionAuthoring)
	if err != nil {
		return nil, err
	}

	payload, err := validation.ValidateFormDraft(session.FormDraft)
	if err != nil {
		s.logger.Debug("form draft rejected",
			zap.String("session_id", sid),
			zap.Error(err))
		return nil, err
	}

	formID := session.FormDraft.FormID
	updating := formID != ""
	activity := entity.ActivityFormCreated

	var msg *entity.GatewayMessage
	if updating {
		activity = entity.ActivityFormUpdated
		msg, err = s.gateway.UpdateForm(ctx, token, formID, payload)
	} else {
		msg, err = s.gateway.CreateForm(ctx, token, payload)
	}

	if err != nil {
		s.record(ctx, entity.NewActivity(sid, formID, activity, err.Error(), false))
		return nil, fmt.Errorf("submit form: %w", err)
	}

	s.record(ctx, entity.NewActivity(sid, formID, activity, msg.Message, true))
	s.publish(&entity.FormSubmitted{
		SessionID: sid,
		FormID:    formID,
		Title:     payload.Title,
		Questions: len(payload.Questions),
		Updated:   updating,
	}, s.cfg.Events.FormSubmitted)

	if updating {
		if err = s.forms.Evict(ctx, formID); err != nil {
			s.logger.Warn("error evict updated form", zap.String("form_id", formID.String()), zap.Error(err))
		}
	}

	if err = s.sessions.Delete(ctx, sid); err != nil {
		s.logger.Warn("error close submitted session", zap.String("session_id", sid), zap.Error(err))
	}

	s.logger.Info("form submitted",
		zap.String("session_id", sid),
		zap.String("form_id", formID.String()),
		zap.Bool("updated", updating))

	return msg, nil
}

func (s *Service) build(ctx context.Context, sid string, fn func(*draft.Builder) error) (*entity.Session, error) {
	return s.mutate(ctx, sid, entity.SessionAuthoring, func(session *entity.Session) error {
		// work on a copy so a failed write leaves the stored draft as it was
		d := *session.FormDraft
		d.Questions = make([]entity.Question, len(session.FormDraft.Questions))
		for i, q := range session.FormDraft.Questions {
			d.Questions[i] = q.Clone()
		}

		b := draft.NewBuilder(&d, draft.WithIDSource(func() entity.QuestionID {
			return entity.QuestionID(s.newID())
		}))
		if err := fn(b); err != nil {
			return err
		}

		session.FormDraft = b.Draft()
		return nil
	})
}
