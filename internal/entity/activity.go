package entity

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType names a journal entry
type ActivityType string

const (
	ActivityFormCreated   ActivityType = "FORM_CREATED"
	ActivityFormUpdated   ActivityType = "FORM_UPDATED"
	ActivityFormViewed    ActivityType = "FORM_VIEWED"
	ActivityFormSubmitted ActivityType = "FORM_SUBMITTED"
	ActivityFormDeleted   ActivityType = "FORM_DELETED"
)

// Activity is one row of the local submission journal
type Activity struct {
	ID          uuid.UUID    `gorm:"type:char(36);primaryKey" json:"id"`
	SessionID   string       `gorm:"index" json:"sessionId,omitempty"`
	FormID      string       `gorm:"index" json:"formId"`
	Type        ActivityType `gorm:"size:32" json:"type"`
	Description string       `json:"description"`
	Succeeded   bool         `json:"succeeded"`
	CreatedAt   time.Time    `json:"createdAt"`
}

func NewActivity(sessionID string, formID FormID, kind ActivityType, description string, succeeded bool) *Activity {
	return &Activity{
		ID:          uuid.New(),
		SessionID:   sessionID,
		FormID:      formID.String(),
		Type:        kind,
		Description: description,
		Succeeded:   succeeded,
		CreatedAt:   time.Now(),
	}
}
