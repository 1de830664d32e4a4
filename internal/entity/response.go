package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// the backend writes local date-times without a zone
const localDateTime = "2006-01-02T15:04:05"

type (
	// Timestamp decodes RFC 3339 as well as zoneless local date-times
	Timestamp struct {
		time.Time
	}

	// ResponseID identifies a stored response on the backend
	ResponseID string

	// SubmittedResponse is a response as listed by the backend. Answers is
	// decoded from Content; content that is not a JSON object of answers is
	// kept as a single free-text answer under LegacyContentID.
	SubmittedResponse struct {
		ID          ResponseID            `json:"id"`
		FormID      FormID                `json:"formId"`
		UserID      *int64                `json:"userId,omitempty"`
		UserName    string                `json:"userName,omitempty"`
		Content     string                `json:"content"`
		SubmittedAt Timestamp             `json:"submittedAt"`
		Answers     map[QuestionID]Answer `json:"answers,omitempty"`
	}

	ResponseStats struct {
		Total    int `json:"total"`
		Today    int `json:"today"`
		ThisWeek int `json:"thisWeek"`
	}

	// ResponseReport is what a form owner sees for one form, newest first
	ResponseReport struct {
		FormID    FormID              `json:"formId"`
		Stats     ResponseStats       `json:"stats"`
		Responses []SubmittedResponse `json:"responses"`
	}
)

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}

	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t.Time = parsed
		return nil
	}

	parsed, err := time.ParseInLocation(localDateTime, raw, time.Local)
	if err != nil {
		return fmt.Errorf("bad timestamp %q: %w", raw, err)
	}
	t.Time = parsed
	return nil
}

func (id *ResponseID) UnmarshalJSON(data []byte) error {
	var raw QuestionID
	if err := raw.UnmarshalJSON(data); err != nil {
		return err
	}
	*id = ResponseID(raw)
	return nil
}

func (r *SubmittedResponse) UnmarshalJSON(data []byte) error {
	type plain SubmittedResponse
	if err := json.Unmarshal(data, (*plain)(r)); err != nil {
		return err
	}

	r.Answers = DecodeContent(r.Content)
	return nil
}

// DecodeContent turns stored response content back into answers
func DecodeContent(content string) map[QuestionID]Answer {
	var answers map[QuestionID]Answer
	if err := json.Unmarshal([]byte(content), &answers); err == nil && answers != nil {
		return answers
	}

	return map[QuestionID]Answer{LegacyContentID: ScalarAnswer(content)}
}

// Summarize counts responses submitted on now's calendar day and within the
// last seven days
func Summarize(responses []SubmittedResponse, now time.Time) ResponseStats {
	stats := ResponseStats{Total: len(responses)}
	y, m, d := now.Date()
	weekAgo := now.Add(-7 * 24 * time.Hour)

	for _, r := range responses {
		if r.SubmittedAt.IsZero() {
			continue
		}

		at := r.SubmittedAt.In(now.Location())
		if ay, am, ad := at.Date(); ay == y && am == m && ad == d {
			stats.Today++
		}
		if !at.Before(weekAgo) {
			stats.ThisWeek++
		}
	}

	return stats
}
