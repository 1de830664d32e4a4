// Package rest exposes the studio over HTTP
package rest

import (
	"context"
	"time"

	"github.com/Koyo-os/form-studio/internal/draft"
	"github.com/Koyo-os/form-studio/internal/entity"
	"github.com/Koyo-os/form-studio/pkg/config"
	"github.com/Koyo-os/form-studio/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Studio is the session API served by the handlers
type Studio interface {
	Get(ctx context.Context, sid string) (*entity.Session, error)
	Discard(ctx context.Context, sid string, kind entity.SessionKind) error

	StartAuthoring(ctx context.Context) (*entity.Session, error)
	StartEditing(ctx context.Context, token string, id entity.FormID) (*entity.Session, error)
	SetDetails(ctx context.Context, sid, title, description string) (*entity.Session, error)
	AddQuestion(ctx context.Context, sid string) (*entity.Session, entity.Question, error)
	RemoveQuestion(ctx context.Context, sid string, qid entity.QuestionID) (*entity.Session, error)
	UpdateQuestion(ctx context.Context, sid string, qid entity.QuestionID, field draft.Field, value any) (*entity.Session, error)
	AddOption(ctx context.Context, sid string, qid entity.QuestionID) (*entity.Session, error)
	RemoveOption(ctx context.Context, sid string, qid entity.QuestionID, index int) (*entity.Session, error)
	UpdateOption(ctx context.Context, sid string, qid entity.QuestionID, index int, value string) (*entity.Session, error)
	SubmitForm(ctx context.Context, sid, token string) (*entity.GatewayMessage, error)

	StartResponding(ctx context.Context, token string, id entity.FormID, clientIP string) (*entity.Session, error)
	SetAnswer(ctx context.Context, sid string, qid entity.QuestionID, answer entity.Answer) (*entity.Session, error)
	ToggleOption(ctx context.Context, sid string, qid entity.QuestionID, option string) (*entity.Session, error)
	SubmitResponse(ctx context.Context, sid, token string) (*entity.GatewayMessage, error)

	ListForms(ctx context.Context, token string) ([]entity.Form, error)
	DeleteForm(ctx context.Context, token string, id entity.FormID) (*entity.GatewayMessage, error)
	ListResponses(ctx context.Context, token string, id entity.FormID) (*entity.ResponseReport, error)
	Activities(ctx context.Context, id entity.FormID, limit int) ([]entity.Activity, error)
	SessionActivities(ctx context.Context, sid string) ([]entity.Activity, error)
}

// SetupRouter registers every route under /api
func SetupRouter(cfg *config.Config, logger *logger.Logger, studio Studio) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !allowsAll(cfg.Server.AllowOrigins),
		MaxAge:           12 * time.Hour,
	}))

	h := &Handlers{studio: studio, logger: logger}

	submitLimit := newClientLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)

	api := router.Group("/api")
	{
		drafts := api.Group("/drafts")
		{
			drafts.POST("", h.StartAuthoring)
			drafts.POST("/edit/:formId", h.StartEditing)
			drafts.GET("/:sid", h.GetDraft)
			drafts.DELETE("/:sid", h.DiscardDraft)
			drafts.PUT("/:sid/details", h.SetDetails)
			drafts.POST("/:sid/questions", h.AddQuestion)
			drafts.DELETE("/:sid/questions/:qid", h.RemoveQuestion)
			drafts.PATCH("/:sid/questions/:qid", h.UpdateQuestion)
			drafts.POST("/:sid/questions/:qid/options", h.AddOption)
			drafts.PUT("/:sid/questions/:qid/options/:idx", h.UpdateOption)
			drafts.DELETE("/:sid/questions/:qid/options/:idx", h.RemoveOption)
			drafts.POST("/:sid/submit", submitLimit.Middleware(), h.SubmitForm)
		}

		responses := api.Group("/responses")
		{
			responses.POST("/:formId", h.StartResponding)
			responses.GET("/s/:sid", h.GetResponse)
			responses.DELETE("/s/:sid", h.DiscardResponse)
			responses.PUT("/s/:sid/answers/:qid", h.SetAnswer)
			responses.POST("/s/:sid/answers/:qid/toggle", h.ToggleOption)
			responses.POST("/s/:sid/submit", submitLimit.Middleware(), h.SubmitResponse)
		}

		forms := api.Group("/forms")
		{
			forms.GET("", h.ListForms)
			forms.DELETE("/:formId", h.DeleteForm)
			forms.GET("/:formId/responses", h.ListResponses)
		}

		journal := api.Group("/journal")
		{
			journal.GET("/forms/:formId", h.FormActivities)
			journal.GET("/sessions/:sid", h.SessionActivities)
		}
	}

	return router
}

func allowsAll(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
