package entity

import "time"

// SessionKind tells which screen a session backs
type SessionKind string

const (
	SessionAuthoring  SessionKind = "authoring"
	SessionResponding SessionKind = "responding"
)

// Session is the explicit state of one open builder or respond screen.
// An authoring session owns FormDraft; a responding session owns Form and
// ResponseDraft.
type Session struct {
	ID            string         `json:"id"`
	Kind          SessionKind    `json:"kind"`
	FormDraft     *FormDraft     `json:"formDraft,omitempty"`
	Form          *Form          `json:"form,omitempty"`
	ResponseDraft *ResponseDraft `json:"responseDraft,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Touch records a mutation
func (s *Session) Touch() {
	s.UpdatedAt = time.Now()
}
