package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hilthontt/proctor/internal/domain"
	"github.com/hilthontt/proctor/internal/infrastructure/contracts"
	"github.com/hilthontt/proctor/internal/infrastructure/messaging"
)

// Publisher broadcasts room lifecycle events to other services.
type Publisher interface {
	PublishRoomCreated(ctx context.Context, room domain.Room) error
	PublishMemberJoined(ctx context.Context, room domain.Room, participant domain.Participant) error
	PublishIncidentRecorded(ctx context.Context, incident domain.Incident) error
	PublishRoomClosed(ctx context.Context, roomCode string, evicted int) error
}

type messagePublisher interface {
	PublishMessage(ctx context.Context, routingKey string, message contracts.AmqpMessage) error
}

type RoomPublisher struct {
	rabbitmq messagePublisher
	now      func() time.Time
}

func NewRoomPublisher(rabbitmq *messaging.RabbitMQ) *RoomPublisher {
	return newRoomPublisher(rabbitmq)
}

func newRoomPublisher(mp messagePublisher) *RoomPublisher {
	return &RoomPublisher{
		rabbitmq: mp,
		now:      time.Now,
	}
}

func (p *RoomPublisher) PublishRoomCreated(ctx context.Context, room domain.Room) error {
	return p.publish(ctx, contracts.EventRoomCreated, string(room.HostEndpointID), messaging.RoomEventData{
		RoomCode: room.Code,
		Room:     &room,
	})
}

func (p *RoomPublisher) PublishMemberJoined(ctx context.Context, room domain.Room, participant domain.Participant) error {
	return p.publish(ctx, contracts.EventMemberJoined, string(room.HostEndpointID), messaging.RoomEventData{
		RoomCode:    room.Code,
		Room:        &room,
		Participant: &participant,
	})
}

func (p *RoomPublisher) PublishIncidentRecorded(ctx context.Context, incident domain.Incident) error {
	return p.publish(ctx, contracts.EventIncidentRecorded, incident.ParticipantID, messaging.RoomEventData{
		RoomCode: incident.RoomCode,
		Incident: &incident,
	})
}

func (p *RoomPublisher) PublishRoomClosed(ctx context.Context, roomCode string, evicted int) error {
	return p.publish(ctx, contracts.EventRoomClosed, "", messaging.RoomEventData{
		RoomCode: roomCode,
		Evicted:  evicted,
	})
}

func (p *RoomPublisher) publish(ctx context.Context, routingKey, ownerID string, payload messaging.RoomEventData) error {
	payload.OccurredAt = p.now().UTC()

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", routingKey, err)
	}

	return p.rabbitmq.PublishMessage(ctx, routingKey, contracts.AmqpMessage{
		OwnerID: ownerID,
		Data:    data,
	})
}

// NoopPublisher is used when messaging is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishRoomCreated(context.Context, domain.Room) error { return nil }

func (NoopPublisher) PublishMemberJoined(context.Context, domain.Room, domain.Participant) error {
	return nil
}

func (NoopPublisher) PublishIncidentRecorded(context.Context, domain.Incident) error { return nil }

func (NoopPublisher) PublishRoomClosed(context.Context, string, int) error { return nil }
