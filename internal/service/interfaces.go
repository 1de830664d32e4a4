package service

import (
	"context"

	"github.com/Koyo-os/form-studio/internal/entity"
)

type (
	SessionStore interface {
		Save(ctx context.Context, session *entity.Session) error
		Get(ctx context.Context, id string) (*entity.Session, error)
		Delete(ctx context.Context, id string) error
	}

	FormCache interface {
		Get(ctx context.Context, id entity.FormID) (*entity.Form, bool, error)
		Put(ctx context.Context, form *entity.Form) error
		Evict(ctx context.Context, id entity.FormID) error
	}

	Gateway interface {
		CreateForm(ctx context.Context, token string, payload *entity.FormPayload) (*entity.GatewayMessage, error)
		UpdateForm(ctx context.Context, token string, id entity.FormID, payload *entity.FormPayload) (*entity.GatewayMessage, error)
		FetchForm(ctx context.Context, token string, id entity.FormID) (*entity.Form, error)
		RecordView(ctx context.Context, token string, id entity.FormID, clientIP string)
		SubmitResponse(ctx context.Context, token string, id entity.FormID, payload *entity.ResponsePayload) (*entity.GatewayMessage, error)
		ListForms(ctx context.Context, token string) ([]entity.Form, error)
		DeleteForm(ctx context.Context, token string, id entity.FormID) (*entity.GatewayMessage, error)
		ListResponses(ctx context.Context, token string, id entity.FormID) ([]entity.SubmittedResponse, error)
	}

	Publisher interface {
		Publish(any, string) error
	}

	Journal interface {
		Record(ctx context.Context, activity *entity.Activity) error
		ListByForm(ctx context.Context, formID entity.FormID, limit int) ([]entity.Activity, error)
		ListBySession(ctx context.Context, sessionID string) ([]entity.Activity, error)
	}
)
