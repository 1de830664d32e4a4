// Package publisher sends studio events to RabbitMQ
package publisher

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Koyo-os/form-studio/internal/entity"
	"github.com/Koyo-os/form-studio/pkg/config"
	"github.com/Koyo-os/form-studio/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	EXCHANGE_TYPE   = "direct"
	PUBLISH_TIMEOUT = 5 * time.Second
)

type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
	cfg     *config.Config
	mu      sync.Mutex
}

func Init(cfg *config.Config, logger *logger.Logger, conn *amqp.Connection) (*Publisher, error) {
	channel, err := conn.Channel()
	if err != nil {
		logger.Error("error opening channel", zap.Error(err))
		conn.Close()
		return nil, err
	}

	if err = channel.ExchangeDeclare(
		cfg.Exchange.Output,
		EXCHANGE_TYPE,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		logger.Error("error declare output exchange",
			zap.String("exchange", cfg.Exchange.Output),
			zap.Error(err))
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &Publisher{
		conn:    conn,
		channel: channel,
		logger:  logger,
		cfg:     cfg,
	}, nil
}

func (p *Publisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.logger.Error("error closing channel", zap.Error(err))
	}
	return p.conn.Close()
}

func (p *Publisher) IsHealthy() bool {
	return !p.conn.IsClosed() && !p.channel.IsClosed()
}

// Publish wraps payload in an entity.Event of type routingKey and sends it
// to the output exchange
func (p *Publisher) Publish(payload any, routingKey string) error {
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("error encode payload for publish", zap.Error(err))
		return err
	}

	event := entity.NewEvent(routingKey, payloadJson)

	eventJson, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("error encode event for publish",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), PUBLISH_TIMEOUT)
	defer cancel()

	p.mu.Lock()
	err = p.channel.PublishWithContext(ctx,
		p.cfg.Exchange.Output, // exchange
		routingKey,            // routing key
		false,                 // mandatory
		false,                 // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Body:         eventJson,
			Timestamp:    event.Timestamp,
		},
	)
	p.mu.Unlock()

	if err != nil {
		p.logger.Error("error publishing event",
			zap.String("event_id", event.ID),
			zap.String("routing_key", routingKey),
			zap.Error(err))
		return err
	}

	p.logger.Info("successfully published event",
		zap.String("event_id", event.ID),
		zap.String("routing_key", routingKey),
	)

	return nil
}
