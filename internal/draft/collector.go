package draft

import (
	"strconv"
	"strings"

	"github.com/Koyo-os/form-studio/internal/entity"
)

// Collector mutates a ResponseDraft against the form it answers.
// Answers are replaced, never removed, so the key set fixed by Initialize
// survives any sequence of calls.
type Collector struct {
	form  *entity.Form
	draft *entity.ResponseDraft
}

// Initialize builds a draft with a default answer for every question:
// "" for scalar types, an empty set for checkbox and min for rating.
// Legacy forms get a single free-text answer under entity.LegacyContentID.
func Initialize(form *entity.Form) *entity.ResponseDraft {
	d := &entity.ResponseDraft{
		FormID:  form.ID,
		Answers: make(map[entity.QuestionID]entity.Answer, len(form.Questions)),
	}

	if form.IsLegacy() {
		d.Answers[entity.LegacyContentID] = entity.ScalarAnswer("")
		return d
	}

	for i := range form.Questions {
		q := &form.Questions[i]
		d.Answers[q.ID] = q.DefaultAnswer()
	}

	return d
}

// NewCollector wraps an initialized draft for form
func NewCollector(form *entity.Form, d *entity.ResponseDraft) *Collector {
	return &Collector{
		form:  form,
		draft: d,
	}
}

// Draft returns the underlying draft
func (c *Collector) Draft() *entity.ResponseDraft {
	return c.draft
}

// SetAnswer replaces the answer of a non-checkbox question. Unknown ids are
// ignored; an answer of the wrong shape or a rating outside [min, max] is
// rejected and the draft is left as it was.
func (c *Collector) SetAnswer(id entity.QuestionID, answer entity.Answer) error {
	if c.form.IsLegacy() {
		if id != entity.LegacyContentID {
			return nil
		}
		if answer.Kind() != entity.AnswerScalar {
			return entity.NewValidationError(entity.KindInvalidAnswer, id, "free-text answer expected")
		}
		c.draft.Answers[id] = answer
		return nil
	}

	q, ok := c.form.Question(id)
	if !ok {
		return nil
	}

	switch q.Type.AnswerKind() {
	case entity.AnswerChecklist:
		return entity.NewValidationError(entity.KindInvalidAnswer, id, "checkbox answers are changed by toggling options")
	case entity.AnswerScale:
		if answer.Kind() != entity.AnswerScale {
			return entity.NewValidationError(entity.KindInvalidAnswer, id, "rating answer must be an integer")
		}
		if answer.Scale() < q.Min || answer.Scale() > q.Max {
			return entity.NewValidationError(entity.KindInvalidAnswer, id,
				"rating %d is outside %d..%d", answer.Scale(), q.Min, q.Max)
		}
	default:
		if answer.Kind() != entity.AnswerScalar {
			return entity.NewValidationError(entity.KindInvalidAnswer, id, "%s answer must be a string", q.Type)
		}
		if q.Type.IsChoice() && answer.Text() != "" && !q.HasOption(answer.Text()) {
			return entity.NewValidationError(entity.KindInvalidAnswer, id, "%q is not one of the options", answer.Text())
		}
		if q.Type == entity.QuestionNumber && !isNumeric(answer.Text()) {
			return entity.NewValidationError(entity.KindInvalidAnswer, id, "%q is not a number", answer.Text())
		}
	}

	c.draft.Answers[id] = answer
	return nil
}

// ToggleChecklistOption adds option to a checkbox answer or removes it when
// already selected. Toggling twice restores the original set.
func (c *Collector) ToggleChecklistOption(id entity.QuestionID, option string) error {
	q, ok := c.form.Question(id)
	if !ok {
		return nil
	}
	if q.Type != entity.QuestionCheckbox {
		return entity.NewValidationError(entity.KindInvalidAnswer, id, "only checkbox questions can toggle options")
	}
	if !q.HasOption(option) {
		return entity.NewValidationError(entity.KindInvalidAnswer, id, "%q is not one of the options", option)
	}

	current, ok := c.draft.Answers[id]
	if !ok || current.Kind() != entity.AnswerChecklist {
		current = entity.ChecklistAnswer()
	}
	c.draft.Answers[id] = current.Toggle(option)

	return nil
}

// Answer returns the current answer for id
func (c *Collector) Answer(id entity.QuestionID) (entity.Answer, bool) {
	a, ok := c.draft.Answers[id]
	return a, ok
}

// isNumeric accepts blank text so an optional number can be cleared
func isNumeric(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}
	_, err := strconv.ParseFloat(text, 64)
	return err == nil
}
