// Package session routes socket events for exam rooms: hosts create and
// close rooms, students join, and detector reports reach the host.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hilthontt/proctor/internal/application/incidents"
	"github.com/hilthontt/proctor/internal/domain"
	"github.com/hilthontt/proctor/internal/infrastructure/events"
	"github.com/hilthontt/proctor/internal/infrastructure/logging"
	"github.com/hilthontt/proctor/internal/infrastructure/metrics"
	"github.com/hilthontt/proctor/internal/infrastructure/tracing"
	"github.com/hilthontt/proctor/internal/infrastructure/validate"
	"github.com/hilthontt/proctor/internal/infrastructure/ws"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrUnknownEvent = errors.New("unknown event type")

const (
	msgRoomNotFound = "Room not found"
	msgInvalidJoin  = "Room code and user name are required"
	msgJoinFailed   = "Could not join room"
)

type Coordinator struct {
	registry  *ws.Registry
	store     domain.RoomStore
	incidents *incidents.Logger
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    logging.Logger
	tracer    trace.Tracer

	roomCode validate.Validator
	userName validate.Validator
}

func NewCoordinator(
	registry *ws.Registry,
	store domain.RoomStore,
	incidentLogger *incidents.Logger,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger logging.Logger,
) *Coordinator {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if m == nil {
		m = metrics.New()
	}

	return &Coordinator{
		registry:  registry,
		store:     store,
		incidents: incidentLogger,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		tracer:    tracing.GetTracer("proctor/session"),
		roomCode:  validate.RoomCode(),
		userName:  validate.DisplayName(),
	}
}

// Connect registers a freshly upgraded endpoint. It holds no role until it
// creates or joins a room.
func (c *Coordinator) Connect(ctx context.Context, ep ws.Endpoint) {
	c.registry.Register(ep)
	c.metrics.EndpointConnected()

	c.logger.Info(logging.Socket, logging.Connect, "endpoint connected", map[logging.ExtraKey]any{
		logging.EndpointID: ep.ID(),
	})
}

// Disconnect only drops the endpoint's bindings. Rooms and participants stay
// stored; a room whose host left stays open until someone closes it.
func (c *Coordinator) Disconnect(ctx context.Context, ep ws.Endpoint) {
	binding, _ := c.registry.Binding(ep.ID())
	c.registry.Unregister(ep.ID())
	c.metrics.EndpointDisconnected()

	c.logger.Info(logging.Socket, logging.Disconnect, "endpoint disconnected", map[logging.ExtraKey]any{
		logging.EndpointID: ep.ID(),
		logging.RoomCode:   binding.RoomCode,
		"role":             binding.Role.String(),
	})
}

// Dispatch handles one inbound event. Failures are logged and counted; only
// join failures are reported back to the sender.
func (c *Coordinator) Dispatch(ctx context.Context, ep ws.Endpoint, evt *ws.InboundEvent) {
	start := time.Now()

	ctx, span := c.tracer.Start(ctx, "session."+evt.Type, trace.WithAttributes(
		attribute.String("proctor.event", evt.Type),
		attribute.String("proctor.endpoint_id", string(ep.ID())),
	))
	defer span.End()

	var err error
	switch evt.Type {
	case ws.CreateRoom:
		var payload ws.RoomPayload
		if err = evt.Bind(&payload); err == nil {
			err = c.CreateRoom(ctx, ep, payload)
		}
	case ws.JoinRoom:
		var payload ws.MemberPayload
		if err = evt.Bind(&payload); err != nil {
			c.reply(ep, ws.NewRoomError("", msgInvalidJoin))
		} else {
			err = c.JoinRoom(ctx, ep, payload)
		}
	case ws.CheatingDetected:
		var payload ws.MemberPayload
		if err = evt.Bind(&payload); err == nil {
			err = c.ReportIncident(ctx, ep, payload, domain.IncidentCheating)
		}
	case ws.CameraBlocked:
		var payload ws.MemberPayload
		if err = evt.Bind(&payload); err == nil {
			err = c.ReportIncident(ctx, ep, payload, domain.IncidentCameraBlocked)
		}
	case ws.CloseRoom:
		var payload ws.RoomPayload
		if err = evt.Bind(&payload); err == nil {
			err = c.CloseRoom(ctx, ep, payload)
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownEvent, evt.Type)
	}

	c.metrics.EventDispatched(evt.Type, time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.fail(evt.Type, ep, err)
	}
}

// CreateRoom stores a new room and makes ep its host. Nothing is sent back.
func (c *Coordinator) CreateRoom(ctx context.Context, ep ws.Endpoint, payload ws.RoomPayload) error {
	if err := c.roomCode(payload.RoomCode); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	if hosted, ok := c.registry.HostedRoom(ep.ID()); ok && hosted != payload.RoomCode {
		return &ws.AlreadyBoundError{Endpoint: ep.ID(), Bound: hosted, Requested: payload.RoomCode}
	}

	room, err := c.store.CreateRoom(ctx, payload.RoomCode, ep.ID())
	if err != nil {
		return fmt.Errorf("create room %q: %w", payload.RoomCode, err)
	}

	if err := c.registry.BindHost(ep.ID(), room.Code); err != nil {
		// The host is gone or busy; leave no room without a way to close it.
		if delErr := c.store.DeleteRoom(ctx, room.Code); delErr != nil {
			c.logger.Error(logging.Session, logging.CreateRoom, "failed to roll back room", map[logging.ExtraKey]any{
				logging.RoomCode:     room.Code,
				logging.ErrorMessage: delErr.Error(),
			})
		}
		return fmt.Errorf("bind host for %q: %w", room.Code, err)
	}

	c.logger.Info(logging.Session, logging.CreateRoom, "room created", map[logging.ExtraKey]any{
		logging.RoomCode:   room.Code,
		logging.EndpointID: ep.ID(),
	})

	c.published(room.Code, c.publisher.PublishRoomCreated(ctx, *room))

	return nil
}

// JoinRoom adds a participant for ep and tells the host. A missing room is
// answered with room_error to ep alone.
func (c *Coordinator) JoinRoom(ctx context.Context, ep ws.Endpoint, payload ws.MemberPayload) error {
	if err := c.validateMember(payload); err != nil {
		c.reply(ep, ws.NewRoomError(payload.RoomCode, msgInvalidJoin))
		return err
	}

	if hosted, ok := c.registry.HostedRoom(ep.ID()); ok && hosted != payload.RoomCode {
		c.reply(ep, ws.NewRoomError(payload.RoomCode, msgJoinFailed))
		return &ws.AlreadyBoundError{Endpoint: ep.ID(), Bound: hosted, Requested: payload.RoomCode}
	}

	room, err := c.store.FindRoom(ctx, payload.RoomCode)
	if err != nil {
		c.reply(ep, ws.NewRoomError(payload.RoomCode, joinErrorMessage(err)))
		return fmt.Errorf("join room %q: %w", payload.RoomCode, err)
	}

	participant, err := c.store.CreateParticipant(ctx, payload.UserName, ep.ID(), room)
	if err != nil {
		c.reply(ep, ws.NewRoomError(payload.RoomCode, joinErrorMessage(err)))
		return fmt.Errorf("create participant in %q: %w", payload.RoomCode, err)
	}

	room, err = c.store.AddMember(ctx, payload.RoomCode, participant)
	if err != nil {
		c.rollbackJoin(ctx, participant)
		c.reply(ep, ws.NewRoomError(payload.RoomCode, joinErrorMessage(err)))
		return fmt.Errorf("add member to %q: %w", payload.RoomCode, err)
	}

	if err := c.registry.BindMember(ep.ID(), room.Code); err != nil {
		c.rollbackJoin(ctx, participant)
		c.reply(ep, ws.NewRoomError(payload.RoomCode, msgJoinFailed))
		return fmt.Errorf("bind member to %q: %w", room.Code, err)
	}

	c.logger.Info(logging.Session, logging.JoinRoom, "student joined", map[logging.ExtraKey]any{
		logging.RoomCode:      room.Code,
		logging.UserName:      participant.Name,
		logging.ParticipantID: participant.ID,
		logging.EndpointID:    ep.ID(),
	})

	c.published(room.Code, c.publisher.PublishMemberJoined(ctx, *room, *participant))

	return c.notifyHost(room.Code, ws.NewStudentJoined(room.Code, participant.Name))
}

// ReportIncident records one incident for the named participant and forwards
// the log line to the host. Reports for unknown students record nothing.
func (c *Coordinator) ReportIncident(ctx context.Context, ep ws.Endpoint, payload ws.MemberPayload, kind domain.IncidentKind) error {
	if err := c.validateMember(payload); err != nil {
		return err
	}

	room, err := c.store.FindRoom(ctx, payload.RoomCode)
	if err != nil {
		return fmt.Errorf("%w: %s in %q: %w", domain.ErrParticipantNotFound, payload.UserName, payload.RoomCode, err)
	}

	participant, err := c.store.FindParticipant(ctx, payload.UserName, payload.RoomCode)
	if err != nil {
		return fmt.Errorf("find %s in %q: %w", payload.UserName, payload.RoomCode, err)
	}
	if !participant.BelongsTo(room) {
		return fmt.Errorf("%w: %s joined an earlier %q", domain.ErrParticipantNotFound, payload.UserName, payload.RoomCode)
	}

	incident, err := c.incidents.Record(ctx, participant, kind)
	if err != nil {
		return err
	}
	c.metrics.IncidentRecorded(string(kind))

	c.logger.Info(logging.Incident, logging.Detection, incident.Message, map[logging.ExtraKey]any{
		logging.RoomCode:      room.Code,
		logging.UserName:      participant.Name,
		logging.ParticipantID: participant.ID,
		logging.IncidentKind:  kind,
	})

	c.published(room.Code, c.publisher.PublishIncidentRecorded(ctx, *incident))

	return c.notifyHost(room.Code, c.incidents.Notification(incident, participant.Name))
}

// CloseRoom deletes the room and sends room_closed to every endpoint bound to
// it at that moment. Connections stay open; they just lose the binding.
func (c *Coordinator) CloseRoom(ctx context.Context, ep ws.Endpoint, payload ws.RoomPayload) error {
	if err := c.roomCode(payload.RoomCode); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	var result error
	if err := c.store.DeleteRoom(ctx, payload.RoomCode); err != nil {
		result = fmt.Errorf("delete room %q: %w", payload.RoomCode, err)
		c.logger.Error(logging.Session, logging.CloseRoom, "failed to delete room", map[logging.ExtraKey]any{
			logging.RoomCode:     payload.RoomCode,
			logging.ErrorMessage: err.Error(),
		})
	}

	evicted := c.registry.EvictGroup(payload.RoomCode)
	closed := ws.NewRoomClosed(payload.RoomCode)
	for _, member := range evicted {
		if err := member.Send(closed); err != nil {
			c.logger.Warn(logging.Socket, logging.Delivery, "room_closed not delivered", map[logging.ExtraKey]any{
				logging.RoomCode:     payload.RoomCode,
				logging.EndpointID:   member.ID(),
				logging.ErrorMessage: err.Error(),
			})
		}
	}

	c.logger.Info(logging.Session, logging.CloseRoom, "room closed", map[logging.ExtraKey]any{
		logging.RoomCode:   payload.RoomCode,
		logging.EndpointID: ep.ID(),
		"evicted":          len(evicted),
	})

	c.published(payload.RoomCode, c.publisher.PublishRoomClosed(ctx, payload.RoomCode, len(evicted)))

	return result
}

// rollbackJoin removes a participant whose join was answered with room_error,
// so no incident can be raised against it.
func (c *Coordinator) rollbackJoin(ctx context.Context, participant *domain.Participant) {
	if err := c.store.RemoveParticipant(ctx, participant); err != nil {
		c.logger.Error(logging.Session, logging.JoinRoom, "failed to roll back participant", map[logging.ExtraKey]any{
			logging.RoomCode:      participant.RoomCode,
			logging.ParticipantID: participant.ID,
			logging.ErrorMessage:  err.Error(),
		})
	}
}

func (c *Coordinator) validateMember(payload ws.MemberPayload) error {
	if err := c.roomCode(payload.RoomCode); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := c.userName(payload.UserName); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// notifyHost returns ErrHostUnreachable when the host cannot be addressed.
// The state change that triggered the notification stays committed.
func (c *Coordinator) notifyHost(roomCode string, evt *ws.Event) error {
	host, err := c.registry.ResolveHost(roomCode)
	if err != nil {
		return fmt.Errorf("%w: %s for %q: %w", domain.ErrHostUnreachable, evt.Type, roomCode, err)
	}
	if err := host.Send(evt); err != nil {
		return fmt.Errorf("%w: %s for %q: %w", domain.ErrHostUnreachable, evt.Type, roomCode, err)
	}
	return nil
}

func (c *Coordinator) reply(ep ws.Endpoint, evt *ws.Event) {
	if err := ep.Send(evt); err != nil {
		c.logger.Warn(logging.Socket, logging.Delivery, "reply not delivered", map[logging.ExtraKey]any{
			logging.EndpointID:   ep.ID(),
			logging.EventType:    evt.Type,
			logging.ErrorMessage: err.Error(),
		})
	}
}

func (c *Coordinator) published(roomCode string, err error) {
	if err != nil {
		c.logger.Warn(logging.RabbitMQ, logging.Publish, "failed to publish room event", map[logging.ExtraKey]any{
			logging.RoomCode:     roomCode,
			logging.ErrorMessage: err.Error(),
		})
	}
}

func (c *Coordinator) fail(eventType string, ep ws.Endpoint, err error) {
	reason := Reason(err)
	c.metrics.Failure(eventType, reason)

	extra := map[logging.ExtraKey]any{
		logging.EventType:    eventType,
		logging.EndpointID:   ep.ID(),
		logging.ErrorMessage: err.Error(),
		"reason":             reason,
	}

	if reason == reasonInternal {
		c.logger.Error(logging.Session, subCategory(eventType), "event failed", extra)
		return
	}
	c.logger.Warn(logging.Session, subCategory(eventType), "event rejected", extra)
}

func joinErrorMessage(err error) string {
	if errors.Is(err, domain.ErrRoomNotFound) {
		return msgRoomNotFound
	}
	return msgJoinFailed
}

func subCategory(eventType string) logging.SubCategory {
	switch eventType {
	case ws.CreateRoom:
		return logging.CreateRoom
	case ws.JoinRoom:
		return logging.JoinRoom
	case ws.CloseRoom:
		return logging.CloseRoom
	case ws.CheatingDetected, ws.CameraBlocked:
		return logging.Detection
	default:
		return logging.Decode
	}
}
