package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrDuplicateRoom       = errors.New("room already exists")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrHostUnreachable     = errors.New("host unreachable")
	ErrInvalidInput        = errors.New("invalid input")
)

// EndpointID identifies a live socket connection, independent of any room.
type EndpointID string

type Room struct {
	ID             string     `bson:"_id" json:"id"`
	Code           string     `bson:"code" json:"code"`
	HostEndpointID EndpointID `bson:"host_endpoint_id" json:"hostEndpointId"`
	Members        []string   `bson:"members" json:"members"`
	CreatedAt      time.Time  `bson:"created_at" json:"createdAt"`
}

// RoomStore is the durable home of rooms and their participants.
// Every mutating call is atomic with respect to its own precondition, but
// nothing is atomic across calls.
type RoomStore interface {
	CreateRoom(ctx context.Context, code string, host EndpointID) (*Room, error)
	FindRoom(ctx context.Context, code string) (*Room, error)
	AddMember(ctx context.Context, code string, participant *Participant) (*Room, error)
	DeleteRoom(ctx context.Context, code string) error

	CreateParticipant(ctx context.Context, name string, endpoint EndpointID, room *Room) (*Participant, error)
	FindParticipant(ctx context.Context, name, roomCode string) (*Participant, error)
	ListParticipants(ctx context.Context, roomCode string) ([]Participant, error)
	GetParticipant(ctx context.Context, id string) (*Participant, error)
	// RemoveParticipant undoes a join that never completed. Closing a room
	// does not remove its participants.
	RemoveParticipant(ctx context.Context, participant *Participant) error
}

func (r *Room) HasMember(participantID string) bool {
	for _, id := range r.Members {
		if id == participantID {
			return true
		}
	}
	return false
}
