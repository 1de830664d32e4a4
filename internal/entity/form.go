package entity

import (
	"encoding/json"
)

// LegacyContentID keys the single free-text answer of forms that were
// created before dynamic questions existed
const LegacyContentID QuestionID = "content"

type (
	// FormID identifies a form on the backend
	FormID string

	// Form is a form definition as served by the backend
	Form struct {
		ID          FormID     `json:"id"`
		Title       string     `json:"title"`
		Description string     `json:"description"`
		Questions   []Question `json:"questions,omitempty"`
		CreatedAt   *Timestamp `json:"createdAt,omitempty"`
		ViewCount   int        `json:"viewCount,omitempty"`
	}

	// FormDraft is an author's in-progress form. FormID is set when the
	// draft edits a form that already exists on the backend.
	FormDraft struct {
		FormID      FormID     `json:"formId,omitempty"`
		Title       string     `json:"title"`
		Description string     `json:"description"`
		Questions   []Question `json:"questions"`
	}

	// FormPayload is the validated, submission-ready form body
	FormPayload struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		Questions   []Question `json:"questions"`
	}

	// ResponseDraft holds exactly one answer per question of FormID
	ResponseDraft struct {
		FormID  FormID                `json:"formId"`
		Answers map[QuestionID]Answer `json:"answers"`
	}

	// ResponsePayload is the validated response body. Content carries the
	// JSON of Responses, or the free text for legacy forms.
	ResponsePayload struct {
		Responses map[QuestionID]Answer `json:"responses"`
		Content   string                `json:"content"`
	}

	// GatewayMessage is the success body of the backend's write endpoints
	GatewayMessage struct {
		Message string `json:"message"`
	}
)

func (id *FormID) UnmarshalJSON(data []byte) error {
	var raw QuestionID
	if err := raw.UnmarshalJSON(data); err != nil {
		return err
	}
	*id = FormID(raw)
	return nil
}

func (id FormID) String() string {
	return string(id)
}

// UnmarshalJSON also accepts the "fields" alias the respond endpoint uses
func (f *Form) UnmarshalJSON(data []byte) error {
	type plain Form
	aux := struct {
		*plain
		Fields []Question `json:"fields"`
	}{plain: (*plain)(f)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(f.Questions) == 0 && len(aux.Fields) > 0 {
		f.Questions = aux.Fields
	}

	return nil
}

// IsLegacy reports a form without dynamic questions
func (f *Form) IsLegacy() bool {
	return len(f.Questions) == 0
}

// Question finds a question by id
func (f *Form) Question(id QuestionID) (*Question, bool) {
	for i := range f.Questions {
		if f.Questions[i].ID == id {
			return &f.Questions[i], true
		}
	}
	return nil, false
}

// ToDraft copies the form into an editable draft
func (f *Form) ToDraft() *FormDraft {
	draft := &FormDraft{
		FormID:      f.ID,
		Title:       f.Title,
		Description: f.Description,
		Questions:   make([]Question, len(f.Questions)),
	}

	for i, q := range f.Questions {
		q = q.Clone()
		if len(q.Options) == 0 {
			q.Options = []string{""}
		}
		draft.Questions[i] = q
	}

	return draft
}
