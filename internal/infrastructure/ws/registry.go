package ws

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hilthontt/proctor/internal/domain"
)

var (
	ErrAlreadyBound          = errors.New("endpoint already bound to another room")
	ErrEndpointNotRegistered = errors.New("endpoint not registered")
	ErrHostNotFound          = errors.New("host not found")
)

type AlreadyBoundError struct {
	Endpoint  domain.EndpointID
	Bound     string
	Requested string
}

func (e *AlreadyBoundError) Error() string {
	return fmt.Sprintf("endpoint %s already hosts room %q, cannot host %q", e.Endpoint, e.Bound, e.Requested)
}

func (e *AlreadyBoundError) Is(target error) bool {
	return target == ErrAlreadyBound
}

type Role int

const (
	RoleNone Role = iota
	RoleHost
	RoleParticipant
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RoleParticipant:
		return "participant"
	default:
		return "none"
	}
}

// Binding is the registry's view of one live endpoint.
type Binding struct {
	Endpoint Endpoint
	Role     Role
	RoomCode string
}

// Registry tracks live endpoints and which room each one hosts or joined.
// It only knows about connections; rooms themselves live in the store.
type Registry struct {
	bindings map[domain.EndpointID]*Binding
	groups   map[string]map[domain.EndpointID]Endpoint // roomCode → members, host included
	hosts    map[string]domain.EndpointID              // roomCode → host endpoint
	mu       sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[domain.EndpointID]*Binding),
		groups:   make(map[string]map[domain.EndpointID]Endpoint),
		hosts:    make(map[string]domain.EndpointID),
	}
}

func (r *Registry) Register(ep Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bindings[ep.ID()]; ok {
		return
	}
	r.bindings[ep.ID()] = &Binding{Endpoint: ep, Role: RoleNone}
}

func (r *Registry) BindHost(id domain.EndpointID, roomCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bindings[id]
	if !ok {
		return ErrEndpointNotRegistered
	}

	if b.Role == RoleHost {
		if b.RoomCode == roomCode {
			return nil
		}
		return &AlreadyBoundError{Endpoint: id, Bound: b.RoomCode, Requested: roomCode}
	}

	// A participant promoted to host leaves its previous group.
	if b.Role == RoleParticipant && b.RoomCode != roomCode {
		r.leaveGroupLocked(id, b.RoomCode)
	}

	// A previous host of this code may still be connected after a close and
	// recreate; the new host wins.
	if prev, ok := r.hosts[roomCode]; ok && prev != id {
		if pb, ok := r.bindings[prev]; ok && pb.Role == RoleHost && pb.RoomCode == roomCode {
			pb.Role = RoleNone
			pb.RoomCode = ""
		}
		r.leaveGroupLocked(prev, roomCode)
	}

	b.Role = RoleHost
	b.RoomCode = roomCode
	r.hosts[roomCode] = id
	r.joinGroupLocked(b.Endpoint, roomCode)

	return nil
}

// BindMember adds the endpoint to the room group. An endpoint joins one room
// at a time; rejoining elsewhere moves it.
func (r *Registry) BindMember(id domain.EndpointID, roomCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bindings[id]
	if !ok {
		return ErrEndpointNotRegistered
	}

	if b.Role == RoleHost {
		if b.RoomCode == roomCode {
			return nil
		}
		return &AlreadyBoundError{Endpoint: id, Bound: b.RoomCode, Requested: roomCode}
	}

	if b.Role == RoleParticipant && b.RoomCode != roomCode {
		r.leaveGroupLocked(id, b.RoomCode)
	}

	b.Role = RoleParticipant
	b.RoomCode = roomCode
	r.joinGroupLocked(b.Endpoint, roomCode)

	return nil
}

func (r *Registry) ResolveHost(roomCode string) (Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.hosts[roomCode]
	if !ok {
		return nil, ErrHostNotFound
	}

	b, ok := r.bindings[id]
	if !ok {
		return nil, ErrHostNotFound
	}

	return b.Endpoint, nil
}

func (r *Registry) HostedRoom(id domain.EndpointID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bindings[id]
	if !ok || b.Role != RoleHost {
		return "", false
	}
	return b.RoomCode, true
}

func (r *Registry) Binding(id domain.EndpointID) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bindings[id]
	if !ok {
		return Binding{}, false
	}
	return *b, true
}

func (r *Registry) Group(roomCode string) []Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	group := r.groups[roomCode]
	out := make([]Endpoint, 0, len(group))
	for _, ep := range group {
		out = append(out, ep)
	}
	return out
}

// EvictGroup drops every binding to roomCode and returns the endpoints that
// were bound. The connections themselves stay open.
func (r *Registry) EvictGroup(roomCode string) []Endpoint {
	r.mu.Lock()
	defer r.mu.Unlock()

	group := r.groups[roomCode]
	evicted := make([]Endpoint, 0, len(group))
	for id, ep := range group {
		evicted = append(evicted, ep)
		if b, ok := r.bindings[id]; ok && b.RoomCode == roomCode {
			b.Role = RoleNone
			b.RoomCode = ""
		}
	}

	delete(r.groups, roomCode)
	delete(r.hosts, roomCode)

	return evicted
}

func (r *Registry) Unregister(id domain.EndpointID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bindings[id]
	if !ok {
		return
	}

	if b.RoomCode != "" {
		r.leaveGroupLocked(id, b.RoomCode)
		if b.Role == RoleHost && r.hosts[b.RoomCode] == id {
			delete(r.hosts, b.RoomCode)
		}
	}
	delete(r.bindings, id)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

func (r *Registry) joinGroupLocked(ep Endpoint, roomCode string) {
	group, ok := r.groups[roomCode]
	if !ok {
		group = make(map[domain.EndpointID]Endpoint)
		r.groups[roomCode] = group
	}
	group[ep.ID()] = ep
}

func (r *Registry) leaveGroupLocked(id domain.EndpointID, roomCode string) {
	group, ok := r.groups[roomCode]
	if !ok {
		return
	}
	delete(group, id)
	if len(group) == 0 {
		delete(r.groups, roomCode)
	}
}
