package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Koyo-os/form-studio/internal/entity"
	"github.com/Koyo-os/form-studio/pkg/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestListForms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	forms := []entity.Form{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}}
	f.gateway.On("ListForms", ctx, "tok").Return(forms, nil).Once()

	out, err := f.svc.ListForms(ctx, "tok")

	require.NoError(t, err)
	assert.Equal(t, forms, out)

	apiErr := &gateway.APIError{Status: http.StatusUnauthorized, Message: "An error occurred while fetching forms"}
	f.gateway.On("ListForms", ctx, "").Return(nil, apiErr).Once()

	_, err = f.svc.ListForms(ctx, "")
	assert.ErrorIs(t, err, apiErr)
	f.gateway.AssertExpectations(t)
}

func TestDeleteForm_EvictsAndPublishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.forms.Put(ctx, &entity.Form{ID: "7", Title: "Cached"}))

	f.gateway.On("DeleteForm", ctx, "tok", entity.FormID("7")).
		Return(&entity.GatewayMessage{Message: "Form deleted successfully"}, nil)
	f.journal.On("Record", ctx, activityOf(entity.ActivityFormDeleted, true)).Return(nil)
	f.publisher.On("Publish", &entity.FormChanged{FormID: "7"}, "form.deleted").Return(nil)

	msg, err := f.svc.DeleteForm(ctx, "tok", "7")

	require.NoError(t, err)
	assert.Equal(t, "Form deleted successfully", msg.Message)

	_, found, err := f.forms.Get(ctx, "7")
	require.NoError(t, err)
	assert.False(t, found)

	f.gateway.AssertExpectations(t)
	f.journal.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestDeleteForm_GatewayErrorKeepsCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.forms.Put(ctx, &entity.Form{ID: "7", Title: "Cached"}))

	apiErr := &gateway.APIError{Status: http.StatusForbidden, Message: "You are not authorized to delete this form"}
	f.gateway.On("DeleteForm", ctx, "tok", entity.FormID("7")).Return(nil, apiErr)
	f.journal.On("Record", ctx, activityOf(entity.ActivityFormDeleted, false)).Return(nil)

	_, err := f.svc.DeleteForm(ctx, "tok", "7")

	assert.ErrorIs(t, err, apiErr)
	_, found, _ := f.forms.Get(ctx, "7")
	assert.True(t, found)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	f.journal.AssertExpectations(t)
}

func TestListResponses_SortsAndCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	at := func(id entity.ResponseID, ago time.Duration) entity.SubmittedResponse {
		return entity.SubmittedResponse{ID: id, FormID: "7", SubmittedAt: entity.Timestamp{Time: now.Add(-ago)}}
	}
	f.gateway.On("ListResponses", ctx, "tok", entity.FormID("7")).Return([]entity.SubmittedResponse{
		at("old", 30*24*time.Hour),
		at("today", 2*time.Hour),
		at("week", 3*24*time.Hour),
	}, nil)

	report, err := f.svc.ListResponses(ctx, "tok", "7")

	require.NoError(t, err)
	assert.Equal(t, entity.FormID("7"), report.FormID)
	assert.Equal(t, entity.ResponseStats{Total: 3, Today: 1, ThisWeek: 2}, report.Stats)

	ids := make([]entity.ResponseID, 0, len(report.Responses))
	for _, r := range report.Responses {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []entity.ResponseID{"today", "week", "old"}, ids)
}

func TestActivities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entries := []entity.Activity{*entity.NewActivity("s1", "7", entity.ActivityFormViewed, "", true)}
	f.journal.On("ListByForm", ctx, entity.FormID("7"), defaultActivityLimit).Return(entries, nil).Once()
	f.journal.On("ListByForm", ctx, entity.FormID("7"), maxActivityLimit).Return(entries, nil).Once()
	f.journal.On("ListBySession", ctx, "s1").Return(entries, nil).Once()

	out, err := f.svc.Activities(ctx, "7", 0)
	require.NoError(t, err)
	assert.Equal(t, entries, out)

	_, err = f.svc.Activities(ctx, "7", 10_000)
	require.NoError(t, err)

	out, err = f.svc.SessionActivities(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, entries, out)

	f.journal.AssertExpectations(t)
}
