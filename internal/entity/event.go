package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID        string    `json:"id"`
	Payload   []byte    `json:"payload"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type (
	// FormSubmitted is published once the backend accepted a form draft
	FormSubmitted struct {
		SessionID string `json:"session_id"`
		FormID    FormID `json:"form_id,omitempty"`
		Title     string `json:"title"`
		Questions int    `json:"questions"`
		Updated   bool   `json:"updated"`
	}

	// ResponseSubmitted is published once the backend accepted a response
	ResponseSubmitted struct {
		SessionID string `json:"session_id"`
		FormID    FormID `json:"form_id"`
		Answers   int    `json:"answers"`
	}

	// FormChanged is consumed from the backend when a form is edited or deleted
	FormChanged struct {
		FormID FormID `json:"form_id"`
	}
)

func NewEvent(Type string, payload []byte) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Payload:   payload,
		Type:      Type,
		Timestamp: time.Now(),
	}
}

func (e *Event) Validate() error {
	if e.ID == "" {
		return errors.New("event_id is nil")
	}

	if e.Payload == nil {
		return errors.New("payload is nil")
	}

	if e.Type == "" {
		return errors.New("type is nil")
	}

	return nil
}
