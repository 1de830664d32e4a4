package service

import (
	"context"
	"fmt"
	"maps"

	"github.com/Koyo-os/form-studio/internal/draft"
	"github.com/Koyo-os/form-studio/internal/entity"
	"github.com/Koyo-os/form-studio/internal/validation"
	"go.uber.org/zap"
)

// StartResponding logs a view and opens a session with default answers
func (s *Service) StartResponding(ctx context.Context, token string, id entity.FormID, clientIP string) (*entity.Session, error) {
	s.gateway.RecordView(ctx, token, id, clientIP)

	form, err := s.form(ctx, token, id)
	if err != nil {
		return nil, err
	}

	session := s.newSession(entity.SessionResponding)
	session.Form = form
	session.ResponseDraft = draft.Initialize(form)

	if err = s.sessions.Save(ctx, session); err != nil {
		s.logger.Error("error save session", zap.Error(err))
		return nil, err
	}

	s.record(ctx, entity.NewActivity(session.ID, id, entity.ActivityFormViewed, form.Title, true))
	s.logger.Info("responding session started",
		zap.String("session_id", session.ID),
		zap.String("form_id", id.String()),
		zap.Bool("legacy", form.IsLegacy()))

	return session, nil
}

func (s *Service) SetAnswer(ctx context.Context, sid string, qid entity.QuestionID, answer entity.Answer) (*entity.Session, error) {
	return s.collect(ctx, sid, func(c *draft.Collector) error {
		return c.SetAnswer(qid, answer)
	})
}

func (s *Service) ToggleOption(ctx context.Context, sid string, qid entity.QuestionID, option string) (*entity.Session, error) {
	return s.collect(ctx, sid, func(c *draft.Collector) error {
		return c.ToggleChecklistOption(qid, option)
	})
}

// SubmitResponse validates the answers and posts them. The session is closed
// on success and kept unchanged on any failure.
func (s *Service) SubmitResponse(ctx context.Context, sid, token string) (*entity.GatewayMessage, error) {
	unlock := s.lock(sid)
	defer unlock()

	session, err := s.load(ctx, sid, entity.SessionResponding)
	if err != nil {
		return nil, err
	}

	payload, err := validation.ValidateResponseDraft(session.Form, session.ResponseDraft)
	if err != nil {
		s.logger.Debug("response draft rejected",
			zap.String("session_id", sid),
			zap.Error(err))
		return nil, err
	}

	formID := session.Form.ID

	msg, err := s.gateway.SubmitResponse(ctx, token, formID, payload)
	if err != nil {
		s.record(ctx, entity.NewActivity(sid, formID, entity.ActivityFormSubmitted, err.Error(), false))
		return nil, fmt.Errorf("submit response: %w", err)
	}

	s.record(ctx, entity.NewActivity(sid, formID, entity.ActivityFormSubmitted, msg.Message, true))
	s.publish(&entity.ResponseSubmitted{
		SessionID: sid,
		FormID:    formID,
		Answers:   len(payload.Responses),
	}, s.cfg.Events.ResponseSubmitted)

	if err = s.sessions.Delete(ctx, sid); err != nil {
		s.logger.Warn("error close submitted session", zap.String("session_id", sid), zap.Error(err))
	}

	s.logger.Info("response submitted",
		zap.String("session_id", sid),
		zap.String("form_id", formID.String()))

	return msg, nil
}

func (s *Service) collect(ctx context.Context, sid string, fn func(*draft.Collector) error) (*entity.Session, error) {
	return s.mutate(ctx, sid, entity.SessionResponding, func(session *entity.Session) error {
		d := &entity.ResponseDraft{
			FormID:  session.ResponseDraft.FormID,
			Answers: maps.Clone(session.ResponseDraft.Answers),
		}

		if err := fn(draft.NewCollector(session.Form, d)); err != nil {
			return err
		}

		session.ResponseDraft = d
		return nil
	})
}
