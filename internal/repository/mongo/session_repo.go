package mongo

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionCollectionName = "workout_sessions"

// mongoSessionRepository implements repository.SessionRepository
type mongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new WorkoutSession repository backed by MongoDB.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

// Create inserts a new in-progress session stamped with the current time
// (unless the caller already set StartedAt, e.g. in tests).
func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	if session.ClientID == primitive.NilObjectID || session.WorkoutID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("session requires clientId and workoutId")
	}

	session.ID = primitive.NewObjectID()
	if session.Status == "" {
		session.Status = domain.SessionInProgress
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted session ID")
	}
	return insertedID, nil
}

// GetByID retrieves a session by its ID.
func (r *mongoSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	var session domain.WorkoutSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// GetInProgress finds the client's open session for a workout assignment.
// This lookup-before-create is what keeps at most one in_progress session
// per (client, workoutAssignment) pair; there is no storage constraint.
func (r *mongoSessionRepository) GetInProgress(ctx context.Context, clientID primitive.ObjectID, workoutAssignmentID *primitive.ObjectID) (*domain.WorkoutSession, error) {
	filter := bson.M{
		"clientId": clientID,
		"status":   domain.SessionInProgress,
	}
	if workoutAssignmentID != nil {
		filter["workoutAssignmentId"] = *workoutAssignmentID
	} else {
		filter["workoutAssignmentId"] = bson.M{"$exists": false}
	}

	// If somehow more than one exists, resume the most recent.
	opts := options.FindOne().SetSort(bson.D{{Key: "startedAt", Value: -1}})

	var session domain.WorkoutSession
	err := r.collection.FindOne(ctx, filter, opts).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Finish marks the session completed with its final elapsed duration.
func (r *mongoSessionRepository) Finish(ctx context.Context, id primitive.ObjectID, durationSec int) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"status":      domain.SessionCompleted,
		"finishedAt":  now,
		"durationSec": durationSec,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureSessionIndexes creates necessary indexes for the workout_sessions collection.
func EnsureSessionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "clientId", Value: 1},
				{Key: "workoutAssignmentId", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "startedAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
