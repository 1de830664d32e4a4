package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Koyo-os/form-studio/internal/entity"
	"github.com/Koyo-os/form-studio/internal/repository"
	"github.com/Koyo-os/form-studio/internal/service"
	"github.com/Koyo-os/form-studio/pkg/config"
	"github.com/Koyo-os/form-studio/pkg/gateway"
	"github.com/Koyo-os/form-studio/pkg/logger"
	"github.com/Koyo-os/form-studio/pkg/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubGateway records what reached the backend
type stubGateway struct {
	forms     map[entity.FormID]*entity.Form
	created   []*entity.FormPayload
	responses []*entity.ResponsePayload
	tokens    []string
	failWith  error
	stored    map[entity.FormID][]entity.SubmittedResponse
}

func (g *stubGateway) CreateForm(_ context.Context, token string, p *entity.FormPayload) (*entity.GatewayMessage, error) {
	g.tokens = append(g.tokens, token)
	if g.failWith != nil {
		return nil, g.failWith
	}
	g.created = append(g.created, p)
	return &entity.GatewayMessage{Message: "Form created successfully"}, nil
}

func (g *stubGateway) UpdateForm(_ context.Context, token string, _ entity.FormID, p *entity.FormPayload) (*entity.GatewayMessage, error) {
	g.tokens = append(g.tokens, token)
	g.created = append(g.created, p)
	return &entity.GatewayMessage{Message: "Form updated successfully"}, nil
}

func (g *stubGateway) FetchForm(_ context.Context, _ string, id entity.FormID) (*entity.Form, error) {
	if f, ok := g.forms[id]; ok {
		return f, nil
	}
	return nil, &gateway.APIError{Status: http.StatusNotFound, Message: "Form not found or an error occurred"}
}

func (g *stubGateway) RecordView(context.Context, string, entity.FormID, string) {}

func (g *stubGateway) SubmitResponse(_ context.Context, token string, _ entity.FormID, p *entity.ResponsePayload) (*entity.GatewayMessage, error) {
	g.tokens = append(g.tokens, token)
	g.responses = append(g.responses, p)
	return &entity.GatewayMessage{Message: "Response submitted successfully"}, nil
}

func (g *stubGateway) ListForms(_ context.Context, token string) ([]entity.Form, error) {
	g.tokens = append(g.tokens, token)
	forms := make([]entity.Form, 0, len(g.forms))
	for _, f := range g.forms {
		forms = append(forms, *f)
	}
	return forms, nil
}

func (g *stubGateway) DeleteForm(_ context.Context, token string, id entity.FormID) (*entity.GatewayMessage, error) {
	g.tokens = append(g.tokens, token)
	if _, ok := g.forms[id]; !ok {
		return nil, &gateway.APIError{Status: http.StatusInternalServerError, Message: "Failed to delete form: Form not found"}
	}
	delete(g.forms, id)
	return &entity.GatewayMessage{Message: "Form deleted successfully"}, nil
}

func (g *stubGateway) ListResponses(_ context.Context, _ string, id entity.FormID) ([]entity.SubmittedResponse, error) {
	return g.stored[id], nil
}

func setupTestRouter(cfg *config.Config, gw *stubGateway, opts ...service.Option) *gin.Engine {
	gin.SetMode(gin.TestMode)

	log := &logger.Logger{Logger: zap.NewNop()}
	store := session.NewManager()
	svc := service.Init(cfg, log,
		repository.NewSessionRepository(store, time.Hour),
		repository.NewFormCacheRepository(store, time.Minute),
		gw,
		opts...,
	)

	return SetupRouter(cfg, log, svc)
}

func do(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAuthoringFlow(t *testing.T) {
	gw := &stubGateway{}
	router := setupTestRouter(config.Default(), gw)

	w := do(t, router, http.MethodPost, "/api/drafts", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	sid := decode[entity.Session](t, w).ID

	w = do(t, router, http.MethodPut, "/api/drafts/"+sid+"/details", gin.H{"title": "Survey", "description": "About you"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPost, "/api/drafts/"+sid+"/questions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	added := decode[struct {
		Question entity.Question `json:"question"`
	}](t, w).Question
	base := "/api/drafts/" + sid + "/questions/" + added.ID.String()

	w = do(t, router, http.MethodPatch, base, gin.H{"field": "type", "value": "select"})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, router, http.MethodPatch, base, gin.H{"field": "question", "value": "Favourite colour"})
	require.Equal(t, http.StatusOK, w.Code)

	// one filled option is not enough for a choice question
	w = do(t, router, http.MethodPut, base+"/options/0", gin.H{"value": "red"})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, router, http.MethodPost, "/api/drafts/"+sid+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, "IncompleteQuestion", body["kind"])
	assert.Equal(t, added.ID.String(), body["questionId"])

	w = do(t, router, http.MethodPost, base+"/options", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, router, http.MethodPut, base+"/options/1", gin.H{"value": "blue"})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, router, http.MethodPost, base+"/options", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPost, "/api/drafts/"+sid+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Form created successfully", decode[entity.GatewayMessage](t, w).Message)

	require.Len(t, gw.created, 1)
	assert.Equal(t, []string{"red", "blue"}, gw.created[0].Questions[0].Options)
	assert.Equal(t, []string{"secret"}, gw.tokens)

	w = do(t, router, http.MethodGet, "/api/drafts/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateQuestion_BadValues(t *testing.T) {
	router := setupTestRouter(config.Default(), &stubGateway{})

	w := do(t, router, http.MethodPost, "/api/drafts", nil)
	sid := decode[entity.Session](t, w).ID
	w = do(t, router, http.MethodPost, "/api/drafts/"+sid+"/questions", nil)
	qid := decode[struct {
		Question entity.Question `json:"question"`
	}](t, w).Question.ID
	base := "/api/drafts/" + sid + "/questions/" + qid.String()

	w = do(t, router, http.MethodPatch, base, gin.H{"field": "type", "value": "slider"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "UnknownQuestionType", decode[map[string]string](t, w)["kind"])

	w = do(t, router, http.MethodPatch, base, gin.H{"field": "max", "value": 10})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPatch, base, gin.H{"field": "required", "value": "yes"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, router, http.MethodDelete, base+"/options/x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespondFlow(t *testing.T) {
	gw := &stubGateway{forms: map[entity.FormID]*entity.Form{
		"7": {
			ID:    "7",
			Title: "Feedback",
			Questions: []entity.Question{
				{ID: "name", Type: entity.QuestionText, Prompt: "Name", Required: true, Min: 1, Max: 5},
				{ID: "tags", Type: entity.QuestionCheckbox, Prompt: "Tags", Options: []string{"a", "b"}, Min: 1, Max: 5},
				{ID: "score", Type: entity.QuestionRating, Prompt: "Score", Min: 1, Max: 5},
			},
		},
	}}
	router := setupTestRouter(config.Default(), gw)

	w := do(t, router, http.MethodPost, "/api/responses/7", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	s := decode[entity.Session](t, w)
	assert.Equal(t, 1, s.ResponseDraft.Answers["score"].Scale())
	base := "/api/responses/s/" + s.ID

	w = do(t, router, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "MissingRequiredAnswer", decode[map[string]string](t, w)["kind"])

	w = do(t, router, http.MethodPut, base+"/answers/name", gin.H{"value": "Alice"})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, router, http.MethodPost, base+"/answers/tags/toggle", gin.H{"option": "b"})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, router, http.MethodPut, base+"/answers/score", gin.H{"value": 4})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPut, base+"/answers/tags", gin.H{"value": []string{"a"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = do(t, router, http.MethodPut, base+"/answers/name", gin.H{"value": nil})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, gw.responses, 1)
	assert.JSONEq(t, `{"name":"Alice","tags":["b"],"score":4}`, gw.responses[0].Content)
}

func TestErrorMapping(t *testing.T) {
	gw := &stubGateway{}
	router := setupTestRouter(config.Default(), gw)

	w := do(t, router, http.MethodPost, "/api/responses/404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Form not found or an error occurred", decode[map[string]string](t, w)["error"])

	w = do(t, router, http.MethodGet, "/api/drafts/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodPost, "/api/drafts", nil)
	sid := decode[entity.Session](t, w).ID
	w = do(t, router, http.MethodGet, "/api/responses/s/"+sid, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	do(t, router, http.MethodPut, "/api/drafts/"+sid+"/details", gin.H{"title": "T", "description": "D"})
	gw.failWith = &gateway.APIError{Message: "An error occurred while creating the form"}
	w = do(t, router, http.MethodPost, "/api/drafts/"+sid+"/submit", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "An error occurred while creating the form", decode[map[string]string](t, w)["error"])

	w = do(t, router, http.MethodGet, "/api/drafts/"+sid, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDiscard_ChecksSessionKind(t *testing.T) {
	router := setupTestRouter(config.Default(), &stubGateway{})

	w := do(t, router, http.MethodPost, "/api/drafts", nil)
	sid := decode[entity.Session](t, w).ID

	w = do(t, router, http.MethodDelete, "/api/responses/s/"+sid, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = do(t, router, http.MethodGet, "/api/drafts/"+sid, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodDelete, "/api/drafts/"+sid, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, router, http.MethodGet, "/api/drafts/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodDelete, "/api/drafts/"+sid, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestFormManagement(t *testing.T) {
	gw := &stubGateway{
		forms: map[entity.FormID]*entity.Form{"7": {ID: "7", Title: "Feedback"}},
		stored: map[entity.FormID][]entity.SubmittedResponse{
			"7": {
				{ID: "1", FormID: "7", Content: `{"name":"Alice"}`, Answers: entity.DecodeContent(`{"name":"Alice"}`),
					SubmittedAt: entity.Timestamp{Time: time.Now().Add(-30 * 24 * time.Hour)}},
				{ID: "2", FormID: "7", Content: "free text", Answers: entity.DecodeContent("free text"),
					SubmittedAt: entity.Timestamp{Time: time.Now()}},
			},
		},
	}
	router := setupTestRouter(config.Default(), gw)

	w := do(t, router, http.MethodGet, "/api/forms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	forms := decode[[]entity.Form](t, w)
	require.Len(t, forms, 1)
	assert.Equal(t, "Feedback", forms[0].Title)

	w = do(t, router, http.MethodGet, "/api/forms/7/responses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[entity.ResponseReport](t, w)
	assert.Equal(t, 2, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.ThisWeek)
	require.Len(t, report.Responses, 2)
	assert.Equal(t, entity.ResponseID("2"), report.Responses[0].ID)
	assert.Equal(t, "free text", report.Responses[0].Answers[entity.LegacyContentID].Text())
	assert.Equal(t, "Alice", report.Responses[1].Answers["name"].Text())

	w = do(t, router, http.MethodDelete, "/api/forms/7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Form deleted successfully", decode[entity.GatewayMessage](t, w).Message)

	w = do(t, router, http.MethodDelete, "/api/forms/7", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to delete form: Form not found", decode[map[string]string](t, w)["error"])

	assert.Equal(t, []string{"secret", "secret", "secret"}, gw.tokens)
}

func TestJournalRoutes(t *testing.T) {
	db, err := repository.Open(config.DriverSqlite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	journal := repository.Init(db, &logger.Logger{Logger: zap.NewNop()})
	t.Cleanup(func() { journal.Close() })

	gw := &stubGateway{forms: map[entity.FormID]*entity.Form{"7": {ID: "7", Title: "Old"}}}
	router := setupTestRouter(config.Default(), gw, service.WithJournal(journal))

	w := do(t, router, http.MethodPost, "/api/responses/7", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	sid := decode[entity.Session](t, w).ID

	w = do(t, router, http.MethodGet, "/api/journal/forms/7?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]entity.Activity](t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.ActivityFormViewed, entries[0].Type)
	assert.Equal(t, sid, entries[0].SessionID)

	w = do(t, router, http.MethodGet, "/api/journal/sessions/"+sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entity.Activity](t, w), 1)

	w = do(t, router, http.MethodGet, "/api/journal/forms/8", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = do(t, router, http.MethodGet, "/api/journal/forms/7?limit=lots", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitRateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Server.RateLimit = 0.001
	cfg.Server.RateBurst = 1
	router := setupTestRouter(cfg, &stubGateway{})

	w := do(t, router, http.MethodPost, "/api/drafts/x/submit", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodPost, "/api/drafts/x/submit", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	assert.Equal(t, "", bearer(c))

	c.Request.Header.Set("Authorization", "bearer abc ")
	assert.Equal(t, "abc", bearer(c))

	c.Request.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "", bearer(c))
}
