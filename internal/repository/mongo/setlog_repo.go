package mongo

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const setLogCollectionName = "workout_set_logs"

// mongoSetLogRepository implements repository.SetLogRepository
type mongoSetLogRepository struct {
	collection *mongo.Collection
}

// NewMongoSetLogRepository creates a new SetLog repository backed by MongoDB.
func NewMongoSetLogRepository(db *mongo.Database) repository.SetLogRepository {
	return &mongoSetLogRepository{
		collection: db.Collection(setLogCollectionName),
	}
}

// BulkUpsert writes one batch of set logs in a single bulk call. Each log is
// upserted by its natural key (sessionId, exerciseId, setIndex) and
// overwrites prior values: last write wins, the history is not append-only.
// The batch is unordered; one failed write does not stop the rest.
func (r *mongoSetLogRepository) BulkUpsert(ctx context.Context, logs []domain.SetLog) error {
	if len(logs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(logs))
	for _, l := range logs {
		filter := bson.M{
			"sessionId":  l.SessionID,
			"exerciseId": l.ExerciseID,
			"setIndex":   l.SetIndex,
		}
		update := bson.M{"$set": bson.M{
			"reps":      l.Reps,
			"weight":    l.Weight,
			"completed": l.Completed,
			"updatedAt": now,
		}}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(update).
			SetUpsert(true))
	}

	_, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}

// ListBySession retrieves every set log of one session, ordered for stable
// draft hydration.
func (r *mongoSetLogRepository) ListBySession(ctx context.Context, sessionID primitive.ObjectID) ([]domain.SetLog, error) {
	var logs []domain.SetLog
	findOptions := options.Find().SetSort(bson.D{
		{Key: "exerciseId", Value: 1},
		{Key: "setIndex", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, cursor.Err()
}

// EnsureSetLogIndexes creates necessary indexes for the workout_set_logs
// collection. The unique natural-key index makes the upsert batch safe to
// replay.
func EnsureSetLogIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "sessionId", Value: 1},
				{Key: "exerciseId", Value: 1},
				{Key: "setIndex", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
