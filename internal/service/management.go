package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/Koyo-os/form-studio/internal/entity"
	"go.uber.org/zap"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 200
)

// ListForms returns the forms owned by the token's user
func (s *Service) ListForms(ctx context.Context, token string) ([]entity.Form, error) {
	forms, err := s.gateway.ListForms(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	return forms, nil
}

// DeleteForm removes a form on the backend and drops every local copy of it
func (s *Service) DeleteForm(ctx context.Context, token string, id entity.FormID) (*entity.GatewayMessage, error) {
	msg, err := s.gateway.DeleteForm(ctx, token, id)
	if err != nil {
		s.record(ctx, entity.NewActivity("", id, entity.ActivityFormDeleted, err.Error(), false))
		return nil, fmt.Errorf("delete form: %w", err)
	}

	if err = s.forms.Evict(ctx, id); err != nil {
		s.logger.Warn("error evict deleted form", zap.String("form_id", id.String()), zap.Error(err))
	}

	s.record(ctx, entity.NewActivity("", id, entity.ActivityFormDeleted, msg.Message, true))
	s.publish(&entity.FormChanged{FormID: id}, s.cfg.Events.FormDeleted)

	s.logger.Info("form deleted", zap.String("form_id", id.String()))

	return msg, nil
}

// ListResponses returns a form's responses newest first with daily and
// weekly counts
func (s *Service) ListResponses(ctx context.Context, token string, id entity.FormID) (*entity.ResponseReport, error) {
	responses, err := s.gateway.ListResponses(ctx, token, id)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	slices.SortStableFunc(responses, func(a, b entity.SubmittedResponse) int {
		return b.SubmittedAt.Compare(a.SubmittedAt.Time)
	})

	return &entity.ResponseReport{
		FormID:    id,
		Stats:     entity.Summarize(responses, s.now()),
		Responses: responses,
	}, nil
}

// Activities returns the newest journal entries of a form. limit is
// clamped to [1, 200] and defaults to 20.
func (s *Service) Activities(ctx context.Context, id entity.FormID, limit int) ([]entity.Activity, error) {
	if s.journal == nil {
		return []entity.Activity{}, nil
	}

	switch {
	case limit <= 0:
		limit = defaultActivityLimit
	case limit > maxActivityLimit:
		limit = maxActivityLimit
	}

	return s.journal.ListByForm(ctx, id, limit)
}

// SessionActivities returns what a session did, oldest first
func (s *Service) SessionActivities(ctx context.Context, sid string) ([]entity.Activity, error) {
	if s.journal == nil {
		return []entity.Activity{}, nil
	}

	return s.journal.ListBySession(ctx, sid)
}
