// Package validation runs the pure pre-submission checks on drafts.
// Each check stops at the first violation in question order.
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Koyo-os/form-studio/internal/entity"
)

// ValidateFormDraft checks a form draft and returns the submission payload
// with blank options removed.
func ValidateFormDraft(d *entity.FormDraft) (*entity.FormPayload, error) {
	if strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Description) == "" {
		return nil, entity.NewValidationError(entity.KindEmptyTitleOrDescription, "",
			"title and description are required")
	}

	payload := &entity.FormPayload{
		Title:       d.Title,
		Description: d.Description,
		Questions:   make([]entity.Question, 0, len(d.Questions)),
	}

	for i := range d.Questions {
		q := &d.Questions[i]

		if !q.Type.Valid() {
			return nil, entity.NewValidationError(entity.KindUnknownQuestionType, q.ID,
				"unknown question type %q", q.Type)
		}
		if !q.IsComplete() {
			return nil, entity.NewValidationError(entity.KindIncompleteQuestion, q.ID,
				"question %d needs text and choice questions need at least %d options", i+1, entity.MinChoiceOptions)
		}
		if q.Type == entity.QuestionRating && q.Min >= q.Max {
			return nil, entity.NewValidationError(entity.KindInvalidRatingScale, q.ID,
				"rating scale %d..%d must have min below max", q.Min, q.Max)
		}

		out := q.Clone()
		out.Options = q.FilledOptions()
		payload.Questions = append(payload.Questions, out)
	}

	return payload, nil
}

// ValidateResponseDraft checks that every required question of form has an
// answer in d and returns the submission payload. Ratings always hold a
// number once initialized and are never reported missing.
func ValidateResponseDraft(form *entity.Form, d *entity.ResponseDraft) (*entity.ResponsePayload, error) {
	if form.IsLegacy() {
		text := d.Answers[entity.LegacyContentID].Text()
		return &entity.ResponsePayload{
			Responses: copyAnswers(d.Answers),
			Content:   text,
		}, nil
	}

	for i := range form.Questions {
		q := &form.Questions[i]
		if !q.Required {
			continue
		}

		answer, ok := d.Answers[q.ID]
		if !ok || answer.IsBlank() {
			return nil, entity.NewValidationError(entity.KindMissingRequiredAnswer, q.ID,
				"%q is required", q.Prompt)
		}
	}

	responses := copyAnswers(d.Answers)
	content, err := json.Marshal(responses)
	if err != nil {
		return nil, fmt.Errorf("encode responses: %w", err)
	}

	return &entity.ResponsePayload{
		Responses: responses,
		Content:   string(content),
	}, nil
}

func copyAnswers(in map[entity.QuestionID]entity.Answer) map[entity.QuestionID]entity.Answer {
	out := make(map[entity.QuestionID]entity.Answer, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
