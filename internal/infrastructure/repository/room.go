package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hilthontt/proctor/internal/domain"
)

// roomStore keeps rooms and participants in memory. Callers get copies, so
// stored records never change behind the lock. Participants outlive their
// room; RoomID tells the incarnations apart.
type roomStore struct {
	rooms        map[string]*domain.Room           // code -> Room
	participants map[string][]*domain.Participant // code -> participants of every incarnation, join order
	byID         map[string]*domain.Participant
	mu           *sync.RWMutex
}

func NewRoomStore() domain.RoomStore {
	return &roomStore{
		rooms:        make(map[string]*domain.Room),
		participants: make(map[string][]*domain.Participant),
		byID:         make(map[string]*domain.Participant),
		mu:           &sync.RWMutex{},
	}
}

func (r *roomStore) CreateRoom(ctx context.Context, code string, host domain.EndpointID) (*domain.Room, error) {
	if code == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[code]; exists {
		return nil, domain.ErrDuplicateRoom
	}

	room := &domain.Room{
		ID:             uuid.NewString(),
		Code:           code,
		HostEndpointID: host,
		Members:        []string{},
		CreatedAt:      time.Now().UTC(),
	}
	r.rooms[code] = room

	return cloneRoom(room), nil
}

func (r *roomStore) FindRoom(ctx context.Context, code string) (*domain.Room, error) {
	if code == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[code]
	if !exists {
		return nil, domain.ErrRoomNotFound
	}
	return cloneRoom(room), nil
}

func (r *roomStore) AddMember(ctx context.Context, code string, participant *domain.Participant) (*domain.Room, error) {
	if code == "" || participant == nil || participant.ID == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[code]
	if !exists || room.ID != participant.RoomID {
		return nil, domain.ErrRoomNotFound
	}

	if !room.HasMember(participant.ID) {
		room.Members = append(room.Members, participant.ID)
	}
	return cloneRoom(room), nil
}

// DeleteRoom is idempotent. Participants stay for incident history.
func (r *roomStore) DeleteRoom(ctx context.Context, code string) error {
	if code == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rooms, code)
	return nil
}

func (r *roomStore) CreateParticipant(ctx context.Context, name string, endpoint domain.EndpointID, room *domain.Room) (*domain.Participant, error) {
	if name == "" || room == nil || room.Code == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.rooms[room.Code]
	if !exists || current.ID != room.ID {
		return nil, domain.ErrRoomNotFound
	}

	p := &domain.Participant{
		ID:         uuid.NewString(),
		Name:       name,
		EndpointID: endpoint,
		RoomCode:   room.Code,
		RoomID:     room.ID,
		JoinedAt:   time.Now().UTC(),
	}
	r.participants[room.Code] = append(r.participants[room.Code], p)
	r.byID[p.ID] = p

	cp := *p
	return &cp, nil
}

// FindParticipant returns the most recently joined participant with that name.
func (r *roomStore) FindParticipant(ctx context.Context, name, roomCode string) (*domain.Participant, error) {
	if name == "" || roomCode == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.participants[roomCode]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Name == name {
			cp := *list[i]
			return &cp, nil
		}
	}
	return nil, domain.ErrParticipantNotFound
}

func (r *roomStore) ListParticipants(ctx context.Context, roomCode string) ([]domain.Participant, error) {
	if roomCode == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.participants[roomCode]
	out := make([]domain.Participant, 0, len(list))
	for _, p := range list {
		out = append(out, *p)
	}
	return out, nil
}

func (r *roomStore) GetParticipant(ctx context.Context, id string) (*domain.Participant, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.byID[id]
	if !exists {
		return nil, domain.ErrParticipantNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *roomStore) RemoveParticipant(ctx context.Context, participant *domain.Participant) error {
	if participant == nil || participant.ID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byID, participant.ID)
	r.participants[participant.RoomCode] = slices.DeleteFunc(r.participants[participant.RoomCode], func(p *domain.Participant) bool {
		return p.ID == participant.ID
	})

	if room, exists := r.rooms[participant.RoomCode]; exists && room.ID == participant.RoomID {
		room.Members = slices.DeleteFunc(room.Members, func(id string) bool {
			return id == participant.ID
		})
	}
	return nil
}

func cloneRoom(room *domain.Room) *domain.Room {
	cp := *room
	cp.Members = slices.Clone(room.Members)
	return &cp
}
