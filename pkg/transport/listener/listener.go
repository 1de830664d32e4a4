// Package listener applies consumed backend events to the studio
package listener

import (
	"context"
	"encoding/json"

	"github.com/Koyo-os/form-studio/internal/entity"
	"github.com/Koyo-os/form-studio/pkg/config"
	"github.com/Koyo-os/form-studio/pkg/logger"
	"go.uber.org/zap"
)

// FormEvictor drops cached form definitions
type FormEvictor interface {
	EvictForm(ctx context.Context, id entity.FormID) error
}

type Listener struct {
	inputChan <-chan entity.Event
	logger    *logger.Logger
	service   FormEvictor
	cfg       *config.Config
}

func Init(
	inputChan <-chan entity.Event,
	logger *logger.Logger,
	cfg *config.Config,
	service FormEvictor,
) *Listener {
	return &Listener{
		inputChan: inputChan,
		service:   service,
		logger:    logger,
		cfg:       cfg,
	}
}

// Listen handles events until ctx is done or the input channel closes
func (list *Listener) Listen(ctx context.Context) {
	for {
		select {
		case event, ok := <-list.inputChan:
			if !ok {
				list.logger.Info("input channel closed, stopping listener")
				return
			}
			list.handle(ctx, event)

		case <-ctx.Done():
			list.logger.Info("stopping listeners...")
			return
		}
	}
}

func (list *Listener) handle(ctx context.Context, event entity.Event) {
	switch event.Type {
	case list.cfg.Reqs.FormUpdatedType, list.cfg.Reqs.FormDeletedType:
		changed := new(entity.FormChanged)

		if err := json.Unmarshal(event.Payload, changed); err != nil {
			list.logger.Error("error unmarshal event payload to form change",
				zap.String("event_type", event.Type),
				zap.String("event_id", event.ID),
				zap.Error(err))
			return
		}

		if changed.FormID == "" {
			list.logger.Warn("form change without form id", zap.String("event_id", event.ID))
			return
		}

		if err := list.service.EvictForm(ctx, changed.FormID); err != nil {
			list.logger.Error("error evict form",
				zap.String("form_id", changed.FormID.String()),
				zap.Error(err))
		}

	default:
		list.logger.Debug("ignoring event",
			zap.String("event_type", event.Type),
			zap.String("event_id", event.ID))
	}
}
