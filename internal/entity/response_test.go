package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmittedResponse_DecodesContent(t *testing.T) {
	raw := `[
		{"id": 3, "formId": 7, "userId": 12, "userName": "Alice",
		 "content": "{\"name\":\"Alice\",\"tags\":[\"a\",\"b\"],\"score\":4}",
		 "submittedAt": "2025-03-01T10:15:30.123"},
		{"id": 4, "formId": 7, "userId": null, "content": "free text", "submittedAt": "2025-03-02T08:00:00Z"}
	]`

	var out []SubmittedResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	require.Len(t, out, 2)

	first := out[0]
	assert.Equal(t, ResponseID("3"), first.ID)
	assert.Equal(t, FormID("7"), first.FormID)
	require.NotNil(t, first.UserID)
	assert.Equal(t, int64(12), *first.UserID)
	assert.Equal(t, "Alice", first.Answers["name"].Text())
	assert.True(t, first.Answers["tags"].Equal(ChecklistAnswer("b", "a")))
	assert.Equal(t, 4, first.Answers["score"].Scale())
	assert.True(t, first.SubmittedAt.Equal(time.Date(2025, 3, 1, 10, 15, 30, 123000000, time.Local)))

	second := out[1]
	assert.Nil(t, second.UserID)
	require.Len(t, second.Answers, 1)
	assert.Equal(t, "free text", second.Answers[LegacyContentID].Text())
	assert.True(t, second.SubmittedAt.Equal(time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)))
}

func TestDecodeContent_FallsBackToFreeText(t *testing.T) {
	for _, content := range []string{"", "null", `{"a":true}`, `[1,2]`, "plain"} {
		answers := DecodeContent(content)

		require.Len(t, answers, 1, content)
		assert.Equal(t, content, answers[LegacyContentID].Text())
	}
}

func TestTimestamp_JSON(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`12`), &ts))

	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())

	raw, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))

	ts = Timestamp{time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	raw, err = json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2025-01-02T03:04:05Z"`, string(raw))
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) SubmittedResponse {
		return SubmittedResponse{SubmittedAt: Timestamp{now.Add(-d)}}
	}

	stats := Summarize([]SubmittedResponse{
		at(time.Hour),          // today
		at(11 * time.Hour),     // today, just after midnight
		at(13 * time.Hour),     // yesterday
		at(6 * 24 * time.Hour), // this week
		at(8 * 24 * time.Hour), // older
		{},                     // no timestamp
	}, now)

	assert.Equal(t, ResponseStats{Total: 6, Today: 2, ThisWeek: 4}, stats)
}
