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

const workoutAssignmentCollectionName = "workout_assignments"

// mongoWorkoutAssignmentRepository implements repository.WorkoutAssignmentRepository
type mongoWorkoutAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutAssignmentRepository creates a new WorkoutAssignment repository backed by MongoDB.
func NewMongoWorkoutAssignmentRepository(db *mongo.Database) repository.WorkoutAssignmentRepository {
	return &mongoWorkoutAssignmentRepository{
		collection: db.Collection(workoutAssignmentCollectionName),
	}
}

// Create inserts a single workout assignment (manual or program-generated).
func (r *mongoWorkoutAssignmentRepository) Create(ctx context.Context, assignment *domain.WorkoutAssignment) (primitive.ObjectID, error) {
	if assignment.ClientID == primitive.NilObjectID || assignment.WorkoutID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("workout assignment requires clientId and workoutId")
	}

	prepareWorkoutAssignment(assignment)

	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted assignment ID")
	}
	return insertedID, nil
}

// GetByID retrieves a workout assignment by its ID.
func (r *mongoWorkoutAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutAssignment, error) {
	var assignment domain.WorkoutAssignment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// GetByClientID retrieves all workout assignments for a client ordered by
// scheduled date.
func (r *mongoWorkoutAssignmentRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.WorkoutAssignment, error) {
	return r.find(ctx, bson.M{"clientId": clientID})
}

// GetByClientAndDate retrieves the workout assignments due on one calendar
// date. Dates are stored UTC-normalized, so an exact match suffices.
func (r *mongoWorkoutAssignmentRepository) GetByClientAndDate(ctx context.Context, clientID primitive.ObjectID, date time.Time) ([]domain.WorkoutAssignment, error) {
	return r.find(ctx, bson.M{"clientId": clientID, "scheduledFor": date.UTC()})
}

// GetByProgramAssignmentID retrieves the generated day rows of one program
// assignment.
func (r *mongoWorkoutAssignmentRepository) GetByProgramAssignmentID(ctx context.Context, programAssignmentID primitive.ObjectID) ([]domain.WorkoutAssignment, error) {
	return r.find(ctx, bson.M{"programAssignmentId": programAssignmentID})
}

func (r *mongoWorkoutAssignmentRepository) find(ctx context.Context, filter bson.M) ([]domain.WorkoutAssignment, error) {
	var assignments []domain.WorkoutAssignment
	findOptions := options.Find().SetSort(bson.D{{Key: "scheduledFor", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, cursor.Err()
}

// ReplaceForProgram implements replaceExisting=true generation: every row
// previously derived from the program assignment is dropped and the fresh
// rows are written in one go. Used after reactivation, reset and start-date
// edits, when every offset's calendar date may have shifted.
func (r *mongoWorkoutAssignmentRepository) ReplaceForProgram(ctx context.Context, programAssignmentID primitive.ObjectID, rows []domain.WorkoutAssignment) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"programAssignmentId": programAssignmentID}); err != nil {
		return err
	}
	return r.insertRows(ctx, rows)
}

// InsertMissingForProgram implements replaceExisting=false generation: only
// day keys that are not present yet are inserted, so re-running generation
// after the initial assignment is idempotent.
func (r *mongoWorkoutAssignmentRepository) InsertMissingForProgram(ctx context.Context, programAssignmentID primitive.ObjectID, rows []domain.WorkoutAssignment) error {
	existing, err := r.collection.Distinct(ctx, "programDayKey", bson.M{"programAssignmentId": programAssignmentID})
	if err != nil {
		return err
	}
	present := make(map[string]struct{}, len(existing))
	for _, v := range existing {
		if key, ok := v.(string); ok {
			present[key] = struct{}{}
		}
	}

	missing := make([]domain.WorkoutAssignment, 0, len(rows))
	for _, row := range rows {
		if _, ok := present[row.ProgramDayKey]; ok {
			continue
		}
		missing = append(missing, row)
	}
	return r.insertRows(ctx, missing)
}

func (r *mongoWorkoutAssignmentRepository) insertRows(ctx context.Context, rows []domain.WorkoutAssignment) error {
	if len(rows) == 0 {
		return nil
	}
	docs := make([]interface{}, len(rows))
	for i := range rows {
		prepareWorkoutAssignment(&rows[i])
		docs[i] = rows[i]
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// UpdateStatus transitions a workout assignment's lifecycle status.
func (r *mongoWorkoutAssignmentRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.WorkoutAssignmentStatus) error {
	update := bson.M{"$set": bson.M{
		"status":    status,
		"updatedAt": time.Now().UTC(),
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

func prepareWorkoutAssignment(assignment *domain.WorkoutAssignment) {
	if assignment.ID == primitive.NilObjectID {
		assignment.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	if assignment.Status == "" {
		assignment.Status = domain.WorkoutStatusAssigned
	}
	if assignment.Source == "" {
		assignment.Source = domain.WorkoutAssignedManually
	}
	assignment.ScheduledFor = assignment.ScheduledFor.UTC()
}

// EnsureWorkoutAssignmentIndexes creates necessary indexes for the
// workout_assignments collection.
func EnsureWorkoutAssignmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "scheduledFor", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "programAssignmentId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
