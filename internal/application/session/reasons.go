package session

import (
	"errors"

	"github.com/hilthontt/proctor/internal/domain"
	"github.com/hilthontt/proctor/internal/infrastructure/ws"
)

const (
	reasonInvalidInput        = "invalid_input"
	reasonMalformed           = "malformed"
	reasonUnknownEvent        = "unknown_event"
	reasonDuplicateRoom       = "duplicate_room"
	reasonAlreadyBound        = "already_bound"
	reasonRoomNotFound        = "room_not_found"
	reasonParticipantNotFound = "participant_not_found"
	reasonHostUnreachable     = "host_unreachable"
	reasonInternal            = "internal"
)

// Reason maps a handler failure to the label used in failure metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrInvalidInput):
		return reasonInvalidInput
	case errors.Is(err, ws.ErrMalformedEvent):
		return reasonMalformed
	case errors.Is(err, ErrUnknownEvent):
		return reasonUnknownEvent
	case errors.Is(err, domain.ErrDuplicateRoom):
		return reasonDuplicateRoom
	case errors.Is(err, ws.ErrAlreadyBound):
		return reasonAlreadyBound
	case errors.Is(err, domain.ErrParticipantNotFound):
		return reasonParticipantNotFound
	case errors.Is(err, domain.ErrRoomNotFound):
		return reasonRoomNotFound
	case errors.Is(err, domain.ErrHostUnreachable):
		return reasonHostUnreachable
	default:
		return reasonInternal
	}
}
