package ws

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedEvent = errors.New("malformed event")

// Event is the outbound envelope written to a socket.
type Event struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId,omitempty"`
	Data   any    `json:"data"`
}

// InboundEvent is the envelope read from a socket. Data is decoded lazily by
// the handler that owns the event type.
type InboundEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Payload structs
type RoomPayload struct {
	RoomCode string `json:"roomCode"`
}

type MemberPayload struct {
	RoomCode string `json:"roomCode"`
	UserName string `json:"userName"`
}

type StudentJoinedPayload struct {
	UserName string `json:"userName"`
}

type LogPayload struct {
	LogMessage string `json:"logMessage"`
}

type RoomClosedPayload struct{}

type ErrorPayload struct {
	Message string `json:"message"`
}

func DecodeInbound(raw []byte) (*InboundEvent, error) {
	var evt InboundEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if evt.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}
	return &evt, nil
}

// Bind decodes the event data into v. A missing data field decodes as {}.
func (e *InboundEvent) Bind(v any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedEvent, e.Type, err)
	}
	return nil
}

func NewStudentJoined(roomCode, userName string) *Event {
	return &Event{
		Type:   StudentJoined,
		RoomID: roomCode,
		Data:   StudentJoinedPayload{UserName: userName},
	}
}

func NewCheatingLog(roomCode, logMessage string) *Event {
	return &Event{
		Type:   CheatingLog,
		RoomID: roomCode,
		Data:   LogPayload{LogMessage: logMessage},
	}
}

func NewCameraBlockedLog(roomCode, logMessage string) *Event {
	return &Event{
		Type:   CameraBlockedLog,
		RoomID: roomCode,
		Data:   LogPayload{LogMessage: logMessage},
	}
}

func NewRoomClosed(roomCode string) *Event {
	return &Event{
		Type:   RoomClosed,
		RoomID: roomCode,
		Data:   RoomClosedPayload{},
	}
}

func NewRoomError(roomCode, message string) *Event {
	return &Event{
		Type:   RoomError,
		RoomID: roomCode,
		Data:   ErrorPayload{Message: message},
	}
}
