package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hilthontt/proctor/internal/domain"
	"github.com/hilthontt/proctor/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type IncidentRepository struct {
	db *mongo.Database
}

// NewIncidentRepository keeps incidents forever; there is no TTL index.
func NewIncidentRepository(db *mongo.Database) *IncidentRepository {
	return &IncidentRepository{
		db: db,
	}
}

func (r *IncidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	if incident == nil || incident.RoomCode == "" || incident.ParticipantID == "" {
		return domain.ErrInvalidInput
	}
	if incident.ID == "" {
		incident.ID = uuid.NewString()
	}

	collection := r.db.Collection(db.IncidentsCollection)

	_, err := collection.InsertOne(ctx, incident)
	return err
}

func (r *IncidentRepository) ListByRoom(ctx context.Context, roomCode string, limit int) ([]domain.Incident, error) {
	if roomCode == "" {
		return nil, domain.ErrInvalidInput
	}

	collection := r.db.Collection(db.IncidentsCollection)

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := collection.Find(ctx, bson.M{"room_code": roomCode}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	incidents := []domain.Incident{}
	if err := cursor.All(ctx, &incidents); err != nil {
		return nil, err
	}

	return incidents, nil
}

func (r *IncidentRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.IncidentsCollection)

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "room_code", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "participant_id", Value: 1}},
		},
	})
	return err
}
var _ domain.IncidentRepository = (*IncidentRepository)(nil)
