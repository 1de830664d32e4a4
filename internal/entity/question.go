// Package entity defines the core data structures used throughout the application
package entity

import (
	"bytes"
	"encoding/json"
	"strings"
)

// QuestionType is the tag of the closed set of question kinds
type QuestionType string

const (
	QuestionText     QuestionType = "text"
	QuestionTextarea QuestionType = "textarea"
	QuestionRadio    QuestionType = "radio"
	QuestionCheckbox QuestionType = "checkbox"
	QuestionSelect   QuestionType = "select"
	QuestionNumber   QuestionType = "number"
	QuestionEmail    QuestionType = "email"
	QuestionDate     QuestionType = "date"
	QuestionRating   QuestionType = "rating"
)

// QuestionTypes lists every supported type in builder display order
var QuestionTypes = []QuestionType{
	QuestionText,
	QuestionTextarea,
	QuestionRadio,
	QuestionCheckbox,
	QuestionSelect,
	QuestionNumber,
	QuestionEmail,
	QuestionDate,
	QuestionRating,
}

const (
	DefaultRatingMin = 1
	DefaultRatingMax = 5

	// MinChoiceOptions is the number of non-blank options a choice question needs
	MinChoiceOptions = 2
)

// ParseQuestionType maps a raw tag onto the enumeration
func ParseQuestionType(raw string) (QuestionType, error) {
	t := QuestionType(raw)
	if !t.Valid() {
		return "", newValidationError(KindUnknownQuestionType, "", "unknown question type %q", raw)
	}
	return t, nil
}

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionText, QuestionTextarea, QuestionRadio, QuestionCheckbox, QuestionSelect,
		QuestionNumber, QuestionEmail, QuestionDate, QuestionRating:
		return true
	}
	return false
}

// IsChoice reports whether the type is answered by picking from options
func (t QuestionType) IsChoice() bool {
	switch t {
	case QuestionRadio, QuestionCheckbox, QuestionSelect:
		return true
	}
	return false
}

// AnswerKind returns the shape of answers this type collects
func (t QuestionType) AnswerKind() AnswerKind {
	switch t {
	case QuestionCheckbox:
		return AnswerChecklist
	case QuestionRating:
		return AnswerScale
	default:
		return AnswerScalar
	}
}

func (t QuestionType) MarshalText() ([]byte, error) {
	return []byte(t), nil
}

func (t *QuestionType) UnmarshalText(text []byte) error {
	parsed, err := ParseQuestionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// QuestionID is opaque. The backend hands out numeric ids while the builder
// generates uuids, so both JSON numbers and strings are accepted.
type QuestionID string

func (id *QuestionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = QuestionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = QuestionID(n.String())
	return nil
}

func (id QuestionID) String() string {
	return string(id)
}

// Question represents a single question within a form
type Question struct {
	ID       QuestionID   `json:"id"`
	Type     QuestionType `json:"type"`
	Prompt   string       `json:"question"`
	Required bool         `json:"required"`
	Options  []string     `json:"options"`
	Min      int          `json:"min"`
	Max      int          `json:"max"`
}

// NewQuestion builds a question with builder defaults for the given raw type
func NewQuestion(id QuestionID, rawType, prompt string) (*Question, error) {
	t, err := ParseQuestionType(rawType)
	if err != nil {
		return nil, err
	}

	return &Question{
		ID:      id,
		Type:    t,
		Prompt:  prompt,
		Options: []string{""},
		Min:     DefaultRatingMin,
		Max:     DefaultRatingMax,
	}, nil
}

// UnmarshalJSON decodes a question, tolerating the backend's legacy
// minValue/maxValue names and missing rating bounds.
func (q *Question) UnmarshalJSON(data []byte) error {
	type plain Question
	aux := struct {
		*plain
		Min      *int `json:"min"`
		Max      *int `json:"max"`
		MinValue *int `json:"minValue"`
		MaxValue *int `json:"maxValue"`
	}{plain: (*plain)(q)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	q.Min = firstInt(DefaultRatingMin, aux.Min, aux.MinValue)
	q.Max = firstInt(DefaultRatingMax, aux.Max, aux.MaxValue)
	if q.Type == "" {
		return newValidationError(KindUnknownQuestionType, q.ID, "question type is missing")
	}

	return nil
}

func firstInt(def int, candidates ...*int) int {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return def
}

// FilledOptions returns the options that are not blank, in order
func (q *Question) FilledOptions() []string {
	out := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) != "" {
			out = append(out, opt)
		}
	}
	return out
}

// IsComplete reports whether the question can be submitted:
// a prompt, and for choice types at least two non-blank options.
func (q *Question) IsComplete() bool {
	if strings.TrimSpace(q.Prompt) == "" {
		return false
	}
	if q.Type.IsChoice() && len(q.FilledOptions()) < MinChoiceOptions {
		return false
	}
	return true
}

// HasOption reports whether option is one of the question's filled options
func (q *Question) HasOption(option string) bool {
	for _, opt := range q.Options {
		if opt == option {
			return true
		}
	}
	return false
}

// Clone returns a deep copy
func (q Question) Clone() Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}

// DefaultAnswer is the value a fresh response draft holds for this question
func (q *Question) DefaultAnswer() Answer {
	switch q.Type.AnswerKind() {
	case AnswerChecklist:
		return ChecklistAnswer()
	case AnswerScale:
		return ScaleAnswer(q.Min)
	default:
		return ScalarAnswer("")
	}
}
