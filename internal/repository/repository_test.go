package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Koyo-os/form-studio/internal/draft"
	"github.com/Koyo-os/form-studio/internal/entity"
	"github.com/Koyo-os/form-studio/pkg/config"
	"github.com/Koyo-os/form-studio/pkg/logger"
	"github.com/Koyo-os/form-studio/pkg/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newJournal(t *testing.T) *Repository {
	t.Helper()

	db, err := Open(config.DriverSqlite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)

	repo := Init(db, &logger.Logger{Logger: zap.NewNop()})
	t.Cleanup(func() { repo.Close() })

	return repo
}

func TestRepository_RecordAndList(t *testing.T) {
	repo := newJournal(t)
	ctx := context.Background()

	first := entity.NewActivity("s1", "7", entity.ActivityFormViewed, "opened", true)
	second := entity.NewActivity("s1", "7", entity.ActivityFormSubmitted, "submitted", true)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	other := entity.NewActivity("s2", "8", entity.ActivityFormCreated, "created", true)

	for _, a := range []*entity.Activity{first, second, other} {
		require.NoError(t, repo.Record(ctx, a))
	}

	byForm, err := repo.ListByForm(ctx, "7", 0)
	require.NoError(t, err)
	require.Len(t, byForm, 2)
	assert.Equal(t, entity.ActivityFormSubmitted, byForm[0].Type)

	limited, err := repo.ListByForm(ctx, "7", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	bySession, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, bySession, 2)
	assert.Equal(t, first.ID, bySession[0].ID)

	assert.True(t, repo.IsHealthy())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("postgres", "")

	assert.Error(t, err)
}

func TestSessionRepository_RoundTrip(t *testing.T) {
	repo := NewSessionRepository(session.NewManager(), time.Hour)
	ctx := context.Background()

	b := draft.NewBuilder(nil)
	b.SetDetails("T", "D")
	q := b.AddQuestion()
	require.NoError(t, b.UpdateQuestion(q.ID, draft.FieldType, "rating"))

	form := &entity.Form{
		ID:        "3",
		Questions: []entity.Question{{ID: "tags", Type: entity.QuestionCheckbox, Prompt: "Tags", Options: []string{"a", "b"}}},
	}
	responding := &entity.Session{
		ID:            "r1",
		Kind:          entity.SessionResponding,
		Form:          form,
		ResponseDraft: draft.Initialize(form),
	}
	authoring := &entity.Session{ID: "a1", Kind: entity.SessionAuthoring, FormDraft: b.Draft()}

	require.NoError(t, repo.Save(ctx, authoring))
	require.NoError(t, repo.Save(ctx, responding))

	got, err := repo.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, authoring.FormDraft, got.FormDraft)

	got, err = repo.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.AnswerChecklist, got.ResponseDraft.Answers["tags"].Kind())
	assert.Equal(t, entity.FormID("3"), got.ResponseDraft.FormID)

	require.NoError(t, repo.Delete(ctx, "r1"))
	_, err = repo.Get(ctx, "r1")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestFormCacheRepository(t *testing.T) {
	repo := NewFormCacheRepository(session.NewManager(), time.Minute)
	ctx := context.Background()

	_, found, err := repo.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Put(ctx, &entity.Form{ID: "1", Title: "T"}))

	form, found, err := repo.Get(ctx, "1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "T", form.Title)

	require.NoError(t, repo.Evict(ctx, "1"))
	_, found, _ = repo.Get(ctx, "1")
	assert.False(t, found)
}
