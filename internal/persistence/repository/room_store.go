package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hilthontt/proctor/internal/domain"
	"github.com/hilthontt/proctor/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RoomStore persists rooms and participants in MongoDB. Code uniqueness is
// enforced by a unique index, so EnsureIndexes must run before first use.
type RoomStore struct {
	db *mongo.Database
}

func NewRoomStore(db *mongo.Database) *RoomStore {
	return &RoomStore{
		db: db,
	}
}

func (s *RoomStore) rooms() *mongo.Collection {
	return s.db.Collection(db.RoomsCollection)
}

func (s *RoomStore) participants() *mongo.Collection {
	return s.db.Collection(db.ParticipantsCollection)
}

func (s *RoomStore) CreateRoom(ctx context.Context, code string, host domain.EndpointID) (*domain.Room, error) {
	if code == "" {
		return nil, domain.ErrInvalidInput
	}

	room := &domain.Room{
		ID:             uuid.NewString(),
		Code:           code,
		HostEndpointID: host,
		Members:        []string{},
		CreatedAt:      time.Now().UTC(),
	}

	if _, err := s.rooms().InsertOne(ctx, room); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateRoom
		}
		return nil, err
	}

	return room, nil
}

func (s *RoomStore) FindRoom(ctx context.Context, code string) (*domain.Room, error) {
	if code == "" {
		return nil, domain.ErrInvalidInput
	}

	var room domain.Room
	if err := s.rooms().FindOne(ctx, bson.M{"code": code}).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}

	return &room, nil
}

// AddMember only touches the incarnation the participant joined.
func (s *RoomStore) AddMember(ctx context.Context, code string, participant *domain.Participant) (*domain.Room, error) {
	if code == "" || participant == nil || participant.ID == "" {
		return nil, domain.ErrInvalidInput
	}

	filter := bson.M{"code": code, "_id": participant.RoomID}
	update := bson.M{"$addToSet": bson.M{"members": participant.ID}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var room domain.Room
	if err := s.rooms().FindOneAndUpdate(ctx, filter, update, opts).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}

	return &room, nil
}

// DeleteRoom removes the room only; participants stay so incidents keep
// pointing at a record. Deleting a missing room is not an error.
func (s *RoomStore) DeleteRoom(ctx context.Context, code string) error {
	if code == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.rooms().DeleteOne(ctx, bson.M{"code": code})
	return err
}

func (s *RoomStore) CreateParticipant(ctx context.Context, name string, endpoint domain.EndpointID, room *domain.Room) (*domain.Participant, error) {
	if name == "" || room == nil || room.Code == "" {
		return nil, domain.ErrInvalidInput
	}

	count, err := s.rooms().CountDocuments(ctx, bson.M{"code": room.Code, "_id": room.ID})
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, domain.ErrRoomNotFound
	}

	participant := &domain.Participant{
		ID:         uuid.NewString(),
		Name:       name,
		EndpointID: endpoint,
		RoomCode:   room.Code,
		RoomID:     room.ID,
		JoinedAt:   time.Now().UTC(),
	}

	if _, err := s.participants().InsertOne(ctx, participant); err != nil {
		return nil, err
	}

	return participant, nil
}

// FindParticipant returns the most recently joined participant with that name.
func (s *RoomStore) FindParticipant(ctx context.Context, name, roomCode string) (*domain.Participant, error) {
	if name == "" || roomCode == "" {
		return nil, domain.ErrInvalidInput
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "joined_at", Value: -1}, {Key: "_id", Value: -1}})

	var participant domain.Participant
	if err := s.participants().FindOne(ctx, bson.M{"name": name, "room_code": roomCode}, opts).Decode(&participant); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrParticipantNotFound
		}
		return nil, err
	}

	return &participant, nil
}

func (s *RoomStore) ListParticipants(ctx context.Context, roomCode string) ([]domain.Participant, error) {
	if roomCode == "" {
		return nil, domain.ErrInvalidInput
	}

	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}})

	cursor, err := s.participants().Find(ctx, bson.M{"room_code": roomCode}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	participants := []domain.Participant{}
	if err := cursor.All(ctx, &participants); err != nil {
		return nil, err
	}

	return participants, nil
}

func (s *RoomStore) GetParticipant(ctx context.Context, id string) (*domain.Participant, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	var participant domain.Participant
	if err := s.participants().FindOne(ctx, bson.M{"_id": id}).Decode(&participant); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrParticipantNotFound
		}
		return nil, err
	}

	return &participant, nil
}

func (s *RoomStore) RemoveParticipant(ctx context.Context, participant *domain.Participant) error {
	if participant == nil || participant.ID == "" {
		return domain.ErrInvalidInput
	}

	if _, err := s.participants().DeleteOne(ctx, bson.M{"_id": participant.ID}); err != nil {
		return err
	}

	_, err := s.rooms().UpdateOne(ctx,
		bson.M{"code": participant.RoomCode, "_id": participant.RoomID},
		bson.M{"$pull": bson.M{"members": participant.ID}},
	)
	return err
}

func (s *RoomStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.rooms().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}

	_, err := s.participants().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "room_code", Value: 1},
			{Key: "name", Value: 1},
			{Key: "joined_at", Value: -1},
		},
	})
	return err
}

var _ domain.RoomStore = (*RoomStore)(nil)
