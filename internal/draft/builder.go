// Package draft holds the in-memory editing state of forms and responses.
// Nothing here performs I/O; completeness is only checked by the validation
// package at submission time.
package draft

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/Koyo-os/form-studio/internal/entity"
	"github.com/google/uuid"
)

// Field names a mutable question attribute, matching the wire names
type Field string

const (
	FieldType     Field = "type"
	FieldPrompt   Field = "question"
	FieldRequired Field = "required"
	FieldOptions  Field = "options"
	FieldMin      Field = "min"
	FieldMax      Field = "max"
)

// Builder mutates a FormDraft in place
type Builder struct {
	draft *entity.FormDraft
	newID func() entity.QuestionID
}

// Option configures a Builder
type Option func(*Builder)

// WithIDSource replaces the uuid generator used for new questions
func WithIDSource(next func() entity.QuestionID) Option {
	return func(b *Builder) {
		b.newID = next
	}
}

// NewBuilder wraps d. A nil d starts an empty draft.
func NewBuilder(d *entity.FormDraft, opts ...Option) *Builder {
	if d == nil {
		d = &entity.FormDraft{}
	}
	if d.Questions == nil {
		d.Questions = []entity.Question{}
	}

	b := &Builder{
		draft: d,
		newID: func() entity.QuestionID {
			return entity.QuestionID(uuid.NewString())
		},
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Draft returns the underlying draft
func (b *Builder) Draft() *entity.FormDraft {
	return b.draft
}

func (b *Builder) SetDetails(title, description string) {
	b.draft.Title = title
	b.draft.Description = description
}

// AddQuestion appends a text question with one blank option slot and a 1..5 rating scale
func (b *Builder) AddQuestion() entity.Question {
	q := entity.Question{
		ID:      b.newID(),
		Type:    entity.QuestionText,
		Options: []string{""},
		Min:     entity.DefaultRatingMin,
		Max:     entity.DefaultRatingMax,
	}
	b.draft.Questions = append(b.draft.Questions, q)

	return q.Clone()
}

// RemoveQuestion drops the question with id; absent ids are ignored
func (b *Builder) RemoveQuestion(id entity.QuestionID) {
	kept := b.draft.Questions[:0]
	for _, q := range b.draft.Questions {
		if q.ID != id {
			kept = append(kept, q)
		}
	}
	b.draft.Questions = kept
}

// UpdateQuestion replaces one field. Absent ids are ignored. The value is
// converted to the field's type; completeness is not checked here.
func (b *Builder) UpdateQuestion(id entity.QuestionID, field Field, value any) error {
	q := b.find(id)
	if q == nil {
		return nil
	}

	switch field {
	case FieldType:
		raw, ok := value.(string)
		if !ok {
			if t, isType := value.(entity.QuestionType); isType {
				raw, ok = string(t), true
			}
		}
		if !ok {
			return invalidField(id, field, value)
		}
		t, err := entity.ParseQuestionType(raw)
		if err != nil {
			return entity.NewValidationError(entity.KindUnknownQuestionType, id, "unknown question type %q", raw)
		}
		q.Type = t
	case FieldPrompt:
		s, ok := value.(string)
		if !ok {
			return invalidField(id, field, value)
		}
		q.Prompt = s
	case FieldRequired:
		v, ok := value.(bool)
		if !ok {
			return invalidField(id, field, value)
		}
		q.Required = v
	case FieldOptions:
		opts, ok := toStrings(value)
		if !ok {
			return invalidField(id, field, value)
		}
		if len(opts) == 0 {
			opts = []string{""}
		}
		q.Options = opts
	case FieldMin, FieldMax:
		n, ok := toInt(value)
		if !ok {
			return invalidField(id, field, value)
		}
		if field == FieldMin {
			q.Min = n
		} else {
			q.Max = n
		}
	default:
		return entity.NewValidationError(entity.KindInvalidField, id, "unknown field %q", field)
	}

	return nil
}

// AddOption appends a blank option slot
func (b *Builder) AddOption(id entity.QuestionID) {
	if q := b.find(id); q != nil {
		q.Options = append(q.Options, "")
	}
}

// RemoveOption deletes the option at index. The last remaining slot is
// never removed, and out of range indexes are ignored.
func (b *Builder) RemoveOption(id entity.QuestionID, index int) {
	q := b.find(id)
	if q == nil || len(q.Options) <= 1 || index < 0 || index >= len(q.Options) {
		return
	}

	opts := make([]string, 0, len(q.Options)-1)
	opts = append(opts, q.Options[:index]...)
	opts = append(opts, q.Options[index+1:]...)
	q.Options = opts
}

func (b *Builder) UpdateOption(id entity.QuestionID, index int, value string) {
	q := b.find(id)
	if q == nil || index < 0 || index >= len(q.Options) {
		return
	}
	q.Options[index] = value
}

// Question returns a copy of the question with id
func (b *Builder) Question(id entity.QuestionID) (entity.Question, bool) {
	if q := b.find(id); q != nil {
		return q.Clone(), true
	}
	return entity.Question{}, false
}

func (b *Builder) find(id entity.QuestionID) *entity.Question {
	for i := range b.draft.Questions {
		if b.draft.Questions[i].ID == id {
			return &b.draft.Questions[i]
		}
	}
	return nil
}

func invalidField(id entity.QuestionID, field Field, value any) error {
	return entity.NewValidationError(entity.KindInvalidField, id, "invalid value %v for field %q", value, field)
}

func toStrings(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return append([]string{}, v...), true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// toInt accepts the numeric forms a decoded JSON body or a form input produces
func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}
