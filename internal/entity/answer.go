package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// AnswerKind is the shape of an answer value
type AnswerKind string

const (
	AnswerScalar    AnswerKind = "scalar"    // text, textarea, email, date, select, radio, number
	AnswerChecklist AnswerKind = "checklist" // checkbox
	AnswerScale     AnswerKind = "scale"     // rating
)

// Answer is a tagged variant over the three answer shapes.
// Exactly one of text, set or scale is meaningful, selected by kind.
type Answer struct {
	kind  AnswerKind
	text  string
	set   []string
	scale int
}

func ScalarAnswer(text string) Answer {
	return Answer{kind: AnswerScalar, text: text}
}

// ChecklistAnswer builds a set answer; duplicates are dropped, first occurrence wins
func ChecklistAnswer(options ...string) Answer {
	set := make([]string, 0, len(options))
	for _, opt := range options {
		if !contains(set, opt) {
			set = append(set, opt)
		}
	}
	return Answer{kind: AnswerChecklist, set: set}
}

func ScaleAnswer(value int) Answer {
	return Answer{kind: AnswerScale, scale: value}
}

func (a Answer) Kind() AnswerKind {
	return a.kind
}

func (a Answer) Text() string {
	return a.text
}

func (a Answer) Scale() int {
	return a.scale
}

// Options returns a copy of the selected checklist options
func (a Answer) Options() []string {
	return append([]string{}, a.set...)
}

func (a Answer) Has(option string) bool {
	return contains(a.set, option)
}

// Toggle returns a checklist answer with option's membership flipped
func (a Answer) Toggle(option string) Answer {
	if !a.Has(option) {
		return ChecklistAnswer(append(a.Options(), option)...)
	}

	set := make([]string, 0, len(a.set))
	for _, opt := range a.set {
		if opt != option {
			set = append(set, opt)
		}
	}
	return Answer{kind: AnswerChecklist, set: set}
}

// IsBlank reports an unanswered value. Scale answers always carry a number
// and are never blank.
func (a Answer) IsBlank() bool {
	switch a.kind {
	case AnswerScalar:
		return strings.TrimSpace(a.text) == ""
	case AnswerChecklist:
		return len(a.set) == 0
	case AnswerScale:
		return false
	}
	return true
}

// Equal compares answers; checklists compare as sets
func (a Answer) Equal(b Answer) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case AnswerScalar:
		return a.text == b.text
	case AnswerScale:
		return a.scale == b.scale
	case AnswerChecklist:
		if len(a.set) != len(b.set) {
			return false
		}
		for _, opt := range a.set {
			if !b.Has(opt) {
				return false
			}
		}
		return true
	}
	return true
}

// Value returns the answer as a plain Go value (string, []string or int)
func (a Answer) Value() any {
	switch a.kind {
	case AnswerChecklist:
		return a.Options()
	case AnswerScale:
		return a.scale
	default:
		return a.text
	}
}

// MarshalJSON encodes the natural value: string, array or number
func (a Answer) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Value())
}

// UnmarshalJSON infers the kind from the JSON token
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty answer")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = ScalarAnswer(s)
	case '[':
		var opts []string
		if err := json.Unmarshal(data, &opts); err != nil {
			return fmt.Errorf("checklist answer must be a list of strings: %w", err)
		}
		*a = ChecklistAnswer(opts...)
	case 'n':
		return fmt.Errorf("answer must not be null")
	default:
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("answer must be a string, a list of strings or an integer: %w", err)
		}
		*a = ScaleAnswer(n)
	}

	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
