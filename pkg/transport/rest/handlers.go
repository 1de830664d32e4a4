package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Koyo-os/form-studio/internal/draft"
	"github.com/Koyo-os/form-studio/internal/entity"
	"github.com/Koyo-os/form-studio/pkg/gateway"
	"github.com/Koyo-os/form-studio/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	studio Studio
	logger *logger.Logger
}

type (
	detailsRequest struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}

	updateQuestionRequest struct {
		Field string `json:"field" binding:"required"`
		Value any    `json:"value"`
	}

	optionRequest struct {
		Value string `json:"value"`
	}

	answerRequest struct {
		Value json.RawMessage `json:"value" binding:"required"`
	}

	toggleRequest struct {
		Option string `json:"option"`
	}
)

func (h *Handlers) StartAuthoring(c *gin.Context) {
	session, err := h.studio.StartAuthoring(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *Handlers) StartEditing(c *gin.Context) {
	session, err := h.studio.StartEditing(c.Request.Context(), bearer(c), entity.FormID(c.Param("formId")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *Handlers) GetDraft(c *gin.Context) {
	h.get(c, entity.SessionAuthoring)
}

func (h *Handlers) GetResponse(c *gin.Context) {
	h.get(c, entity.SessionResponding)
}

func (h *Handlers) get(c *gin.Context, kind entity.SessionKind) {
	session, err := h.studio.Get(c.Request.Context(), c.Param("sid"))
	if err == nil && session.Kind != kind {
		err = entity.ErrWrongSessionKind
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handlers) DiscardDraft(c *gin.Context) {
	h.discard(c, entity.SessionAuthoring)
}

func (h *Handlers) DiscardResponse(c *gin.Context) {
	h.discard(c, entity.SessionResponding)
}

func (h *Handlers) discard(c *gin.Context, kind entity.SessionKind) {
	if err := h.studio.Discard(c.Request.Context(), c.Param("sid"), kind); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) SetDetails(c *gin.Context) {
	var req detailsRequest
	if !h.bind(c, &req) {
		return
	}

	session, err := h.studio.SetDetails(c.Request.Context(), c.Param("sid"), req.Title, req.Description)
	h.respond(c, session, err)
}

func (h *Handlers) AddQuestion(c *gin.Context) {
	session, question, err := h.studio.AddQuestion(c.Request.Context(), c.Param("sid"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session, "question": question})
}

func (h *Handlers) RemoveQuestion(c *gin.Context) {
	session, err := h.studio.RemoveQuestion(c.Request.Context(), c.Param("sid"), entity.QuestionID(c.Param("qid")))
	h.respond(c, session, err)
}

func (h *Handlers) UpdateQuestion(c *gin.Context) {
	var req updateQuestionRequest
	if !h.bind(c, &req) {
		return
	}

	session, err := h.studio.UpdateQuestion(c.Request.Context(), c.Param("sid"),
		entity.QuestionID(c.Param("qid")), draft.Field(req.Field), req.Value)
	h.respond(c, session, err)
}

func (h *Handlers) AddOption(c *gin.Context) {
	session, err := h.studio.AddOption(c.Request.Context(), c.Param("sid"), entity.QuestionID(c.Param("qid")))
	h.respond(c, session, err)
}

func (h *Handlers) UpdateOption(c *gin.Context) {
	idx, ok := h.index(c)
	if !ok {
		return
	}

	var req optionRequest
	if !h.bind(c, &req) {
		return
	}

	session, err := h.studio.UpdateOption(c.Request.Context(), c.Param("sid"), entity.QuestionID(c.Param("qid")), idx, req.Value)
	h.respond(c, session, err)
}

func (h *Handlers) RemoveOption(c *gin.Context) {
	idx, ok := h.index(c)
	if !ok {
		return
	}

	session, err := h.studio.RemoveOption(c.Request.Context(), c.Param("sid"), entity.QuestionID(c.Param("qid")), idx)
	h.respond(c, session, err)
}

func (h *Handlers) SubmitForm(c *gin.Context) {
	msg, err := h.studio.SubmitForm(c.Request.Context(), c.Param("sid"), bearer(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *Handlers) StartResponding(c *gin.Context) {
	session, err := h.studio.StartResponding(c.Request.Context(), bearer(c), entity.FormID(c.Param("formId")), c.ClientIP())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *Handlers) SetAnswer(c *gin.Context) {
	var req answerRequest
	if !h.bind(c, &req) {
		return
	}

	var answer entity.Answer
	if err := json.Unmarshal(req.Value, &answer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.studio.SetAnswer(c.Request.Context(), c.Param("sid"), entity.QuestionID(c.Param("qid")), answer)
	h.respond(c, session, err)
}

func (h *Handlers) ToggleOption(c *gin.Context) {
	var req toggleRequest
	if !h.bind(c, &req) {
		return
	}

	session, err := h.studio.ToggleOption(c.Request.Context(), c.Param("sid"), entity.QuestionID(c.Param("qid")), req.Option)
	h.respond(c, session, err)
}

func (h *Handlers) SubmitResponse(c *gin.Context) {
	msg, err := h.studio.SubmitResponse(c.Request.Context(), c.Param("sid"), bearer(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *Handlers) ListForms(c *gin.Context) {
	forms, err := h.studio.ListForms(c.Request.Context(), bearer(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, forms)
}

func (h *Handlers) DeleteForm(c *gin.Context) {
	msg, err := h.studio.DeleteForm(c.Request.Context(), bearer(c), entity.FormID(c.Param("formId")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *Handlers) ListResponses(c *gin.Context) {
	report, err := h.studio.ListResponses(c.Request.Context(), bearer(c), entity.FormID(c.Param("formId")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handlers) FormActivities(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return
	}

	activities, err := h.studio.Activities(c.Request.Context(), entity.FormID(c.Param("formId")), limit)
	h.activities(c, activities, err)
}

func (h *Handlers) SessionActivities(c *gin.Context) {
	activities, err := h.studio.SessionActivities(c.Request.Context(), c.Param("sid"))
	h.activities(c, activities, err)
}

func (h *Handlers) activities(c *gin.Context, activities []entity.Activity, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	if activities == nil {
		activities = []entity.Activity{}
	}
	c.JSON(http.StatusOK, activities)
}

func (h *Handlers) respond(c *gin.Context, session *entity.Session, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handlers) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (h *Handlers) index(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "option index must be an integer"})
		return 0, false
	}
	return idx, true
}

// fail maps domain errors to status codes
func (h *Handlers) fail(c *gin.Context, err error) {
	var (
		verr   *entity.ValidationError
		apiErr *gateway.APIError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      verr.Message,
			"kind":       verr.Kind,
			"questionId": verr.QuestionID,
		})
	case errors.Is(err, entity.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrWrongSessionKind):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status == 0 {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": apiErr.Message})
	default:
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func bearer(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
