// Package gateway is the client of the forms backend API
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Koyo-os/form-studio/internal/entity"
	"github.com/Koyo-os/form-studio/pkg/config"
	"github.com/Koyo-os/form-studio/pkg/logger"
	"github.com/Koyo-os/form-studio/pkg/retrier"
	"go.uber.org/zap"
)

const (
	msgCreateFailed = "An error occurred while creating the form"
	msgUpdateFailed = "An error occurred while updating the form"
	msgFetchFailed  = "Form not found or an error occurred"
	msgSubmitFailed = "An error occurred while submitting your response"

	msgListFailed      = "An error occurred while fetching forms"
	msgDeleteFailed    = "An error occurred while deleting the form"
	msgResponsesFailed = "An error occurred while fetching responses"
)

// APIError is a failed backend call. Message is shown to the user verbatim.
type APIError struct {
	Status  int // 0 when the backend was not reached
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("gateway returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Temporary reports failures worth retrying on idempotent calls
func (e *APIError) Temporary() bool {
	return e.Status == 0 || e.Status >= http.StatusInternalServerError
}

type Client struct {
	baseURL string
	client  *http.Client
	retry   retrier.Opts
	logger  *logger.Logger
}

func Init(cfg *config.Config, logger *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.Gateway.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Gateway.Timeout},
		retry: retrier.Opts{
			Count:    uint(cfg.Gateway.FetchRetries),
			Interval: cfg.Gateway.RetryInterval,
			Retryable: func(err error) bool {
				var apiErr *APIError
				return errors.As(err, &apiErr) && apiErr.Temporary()
			},
		},
		logger: logger,
	}
}

// CreateForm posts a new form
func (c *Client) CreateForm(ctx context.Context, token string, payload *entity.FormPayload) (*entity.GatewayMessage, error) {
	msg := new(entity.GatewayMessage)
	if err := c.do(ctx, http.MethodPost, "/forms", token, payload, msg, msgCreateFailed); err != nil {
		return nil, err
	}
	return msg, nil
}

// UpdateForm replaces an existing form
func (c *Client) UpdateForm(ctx context.Context, token string, id entity.FormID, payload *entity.FormPayload) (*entity.GatewayMessage, error) {
	msg := new(entity.GatewayMessage)
	path := "/forms/" + url.PathEscape(id.String())
	if err := c.do(ctx, http.MethodPut, path, token, payload, msg, msgUpdateFailed); err != nil {
		return nil, err
	}
	return msg, nil
}

// FetchForm loads a form definition, retrying transport errors and 5xx
func (c *Client) FetchForm(ctx context.Context, token string, id entity.FormID) (*entity.Form, error) {
	path := "/forms/" + url.PathEscape(id.String())

	return retrier.Do(ctx, c.retry, func() (*entity.Form, error) {
		form := new(entity.Form)
		if err := c.do(ctx, http.MethodGet, path, token, nil, form, msgFetchFailed); err != nil {
			return nil, err
		}
		if form.ID == "" {
			form.ID = id
		}
		return form, nil
	})
}

// RecordView logs that the form was opened for responding. Failures are
// only logged.
func (c *Client) RecordView(ctx context.Context, token string, id entity.FormID, clientIP string) {
	path := "/forms/" + url.PathEscape(id.String()) + "/view"
	if clientIP != "" {
		path += "?" + url.Values{"ipAddress": {clientIP}}.Encode()
	}

	if err := c.do(ctx, http.MethodPost, path, token, nil, nil, ""); err != nil {
		c.logger.Warn("failed to record form view",
			zap.String("form_id", id.String()),
			zap.Error(err))
	}
}

// SubmitResponse posts a validated response
func (c *Client) SubmitResponse(ctx context.Context, token string, id entity.FormID, payload *entity.ResponsePayload) (*entity.GatewayMessage, error) {
	msg := new(entity.GatewayMessage)
	path := "/forms/" + url.PathEscape(id.String()) + "/responses"
	if err := c.do(ctx, http.MethodPost, path, token, payload, msg, msgSubmitFailed); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListForms returns the forms owned by the token's user
func (c *Client) ListForms(ctx context.Context, token string) ([]entity.Form, error) {
	return retrier.Do(ctx, c.retry, func() ([]entity.Form, error) {
		var forms []entity.Form
		if err := c.do(ctx, http.MethodGet, "/forms", token, nil, &forms, msgListFailed); err != nil {
			return nil, err
		}
		if forms == nil {
			forms = []entity.Form{}
		}
		return forms, nil
	})
}

// DeleteForm removes a form together with its responses
func (c *Client) DeleteForm(ctx context.Context, token string, id entity.FormID) (*entity.GatewayMessage, error) {
	msg := new(entity.GatewayMessage)
	path := "/forms/" + url.PathEscape(id.String())
	if err := c.do(ctx, http.MethodDelete, path, token, nil, msg, msgDeleteFailed); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListResponses returns every response stored for a form, answers decoded
// from their content
func (c *Client) ListResponses(ctx context.Context, token string, id entity.FormID) ([]entity.SubmittedResponse, error) {
	path := "/forms/" + url.PathEscape(id.String()) + "/responses"

	return retrier.Do(ctx, c.retry, func() ([]entity.SubmittedResponse, error) {
		var responses []entity.SubmittedResponse
		if err := c.do(ctx, http.MethodGet, path, token, nil, &responses, msgResponsesFailed); err != nil {
			return nil, err
		}
		if responses == nil {
			responses = []entity.SubmittedResponse{}
		}
		for i := range responses {
			if responses[i].FormID == "" {
				responses[i].FormID = id
			}
		}
		return responses, nil
	})
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any, fallback string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("prepare request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		c.logger.Debug("no bearer token for request", zap.String("path", path))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("gateway call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return &APIError{Message: fallback, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: fallback, Err: err}
	}

	c.logger.Debug("gateway response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: fallback}

		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &errBody) == nil && errBody.Error != "" {
			apiErr.Message = errBody.Error
		}

		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err = json.Unmarshal(raw, out); err != nil {
		c.logger.Error("failed to decode gateway response",
			zap.String("path", path),
			zap.ByteString("body", raw),
			zap.Error(err))
		return &APIError{Status: resp.StatusCode, Message: fallback, Err: err}
	}

	return nil
}
