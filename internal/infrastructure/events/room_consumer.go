package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hilthontt/proctor/internal/domain"
	"github.com/hilthontt/proctor/internal/infrastructure/contracts"
	"github.com/hilthontt/proctor/internal/infrastructure/logging"
	"github.com/hilthontt/proctor/internal/infrastructure/messaging"
	"github.com/rabbitmq/amqp091-go"
)

// AuditConsumer turns room events into audit log entries.
type AuditConsumer struct {
	rabbitmq *messaging.RabbitMQ
	audit    domain.RoomAuditRepository
	logger   logging.Logger
}

func NewAuditConsumer(rabbitmq *messaging.RabbitMQ, audit domain.RoomAuditRepository, logger logging.Logger) *AuditConsumer {
	return &AuditConsumer{
		rabbitmq: rabbitmq,
		audit:    audit,
		logger:   logger,
	}
}

func (c *AuditConsumer) Listen() error {
	return c.rabbitmq.ConsumeMessages(messaging.RoomEventsQueue, func(ctx context.Context, msg amqp091.Delivery) error {
		return c.Handle(ctx, msg.RoutingKey, msg.Body)
	})
}

func (c *AuditConsumer) Handle(ctx context.Context, routingKey string, body []byte) error {
	var message contracts.AmqpMessage
	if err := json.Unmarshal(body, &message); err != nil {
		c.logger.Error(logging.RabbitMQ, logging.Audit, "failed to unmarshal message", map[logging.ExtraKey]any{
			logging.EventType:    routingKey,
			logging.ErrorMessage: err.Error(),
		})
		return err
	}

	var payload messaging.RoomEventData
	if err := json.Unmarshal(message.Data, &payload); err != nil {
		c.logger.Error(logging.RabbitMQ, logging.Audit, "failed to unmarshal payload", map[logging.ExtraKey]any{
			logging.EventType:    routingKey,
			logging.ErrorMessage: err.Error(),
		})
		return err
	}

	entry, err := auditLogFor(routingKey, payload)
	if err != nil {
		c.logger.Warn(logging.RabbitMQ, logging.Audit, "unhandled room event", map[logging.ExtraKey]any{
			logging.EventType: routingKey,
		})
		return err
	}

	if err := c.audit.Log(ctx, entry); err != nil {
		c.logger.Error(logging.RabbitMQ, logging.Audit, "failed to write audit log", map[logging.ExtraKey]any{
			logging.EventType:    routingKey,
			logging.RoomCode:     payload.RoomCode,
			logging.ErrorMessage: err.Error(),
		})
		return err
	}

	return nil
}

func auditLogFor(routingKey string, payload messaging.RoomEventData) (*domain.RoomAuditLog, error) {
	var entry *domain.RoomAuditLog

	switch routingKey {
	case contracts.EventRoomCreated:
		if payload.Room == nil {
			return nil, fmt.Errorf("%w: %s without room", domain.ErrInvalidInput, routingKey)
		}
		entry = domain.NewRoomCreatedLog(payload.RoomCode, payload.Room.HostEndpointID)
	case contracts.EventMemberJoined:
		if payload.Room == nil || payload.Participant == nil {
			return nil, fmt.Errorf("%w: %s without room or participant", domain.ErrInvalidInput, routingKey)
		}
		entry = domain.NewMemberJoinedLog(payload.RoomCode, payload.Participant.ID, payload.Participant.Name, len(payload.Room.Members))
	case contracts.EventIncidentRecorded:
		if payload.Incident == nil {
			return nil, fmt.Errorf("%w: %s without incident", domain.ErrInvalidInput, routingKey)
		}
		entry = domain.NewIncidentRecordedLog(payload.Incident)
	case contracts.EventRoomClosed:
		entry = domain.NewRoomClosedLog(payload.RoomCode, payload.Evicted)
	default:
		return nil, fmt.Errorf("%w: unknown routing key %q", domain.ErrInvalidInput, routingKey)
	}

	if !payload.OccurredAt.IsZero() {
		entry.Timestamp = payload.OccurredAt
	}
	return entry, nil
}
