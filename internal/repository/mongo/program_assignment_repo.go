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

const programAssignmentCollectionName = "program_assignments"

// mongoProgramAssignmentRepository implements repository.ProgramAssignmentRepository
type mongoProgramAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoProgramAssignmentRepository creates a new ProgramAssignment repository backed by MongoDB.
func NewMongoProgramAssignmentRepository(db *mongo.Database) repository.ProgramAssignmentRepository {
	return &mongoProgramAssignmentRepository{
		collection: db.Collection(programAssignmentCollectionName),
	}
}

// Create inserts a new program assignment. The unique compound index on
// (clientId, programId, startDate) rejects duplicates regardless of status;
// that violation is mapped to repository.ErrDuplicateKey so the service can
// branch into its resolution flow.
func (r *mongoProgramAssignmentRepository) Create(ctx context.Context, assignment *domain.ProgramAssignment) (primitive.ObjectID, error) {
	if assignment.TrainerID == primitive.NilObjectID ||
		assignment.ClientID == primitive.NilObjectID ||
		assignment.ProgramID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("program assignment requires trainerId, clientId and programId")
	}

	assignment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	if assignment.Status == "" {
		assignment.Status = domain.ProgramStatusActive
	}
	if assignment.Progress.CompletedDayKeys == nil {
		assignment.Progress.CompletedDayKeys = []string{}
	}

	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted assignment ID")
	}
	return insertedID, nil
}

// GetByID retrieves a program assignment by its ID.
func (r *mongoProgramAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramAssignment, error) {
	var assignment domain.ProgramAssignment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// GetByTriple retrieves the assignment row holding the unique
// (clientId, programId, startDate) slot, whatever its status.
func (r *mongoProgramAssignmentRepository) GetByTriple(ctx context.Context, clientID, programID primitive.ObjectID, startDate time.Time) (*domain.ProgramAssignment, error) {
	var assignment domain.ProgramAssignment
	filter := bson.M{
		"clientId":  clientID,
		"programId": programID,
		"startDate": startDate.UTC(),
	}
	err := r.collection.FindOne(ctx, filter).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// GetByClientID retrieves all program assignments for a client, newest first.
func (r *mongoProgramAssignmentRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.ProgramAssignment, error) {
	var assignments []domain.ProgramAssignment
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"clientId": clientID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, cursor.Err()
}

// ActiveClientIDs returns the subset of the given clients that currently
// hold an active program assignment. Used by the pre-assignment lock.
func (r *mongoProgramAssignmentRepository) ActiveClientIDs(ctx context.Context, clientIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(clientIDs) == 0 {
		return nil, nil
	}
	filter := bson.M{
		"clientId": bson.M{"$in": clientIDs},
		"status":   domain.ProgramStatusActive,
	}
	values, err := r.collection.Distinct(ctx, "clientId", filter)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Reactivate sets an archived assignment back to active. Progress is left
// untouched.
func (r *mongoProgramAssignmentRepository) Reactivate(ctx context.Context, id primitive.ObjectID) error {
	return r.setFields(ctx, id, bson.M{"status": domain.ProgramStatusActive})
}

// ResetProgress empties the completed-day set without touching the status.
func (r *mongoProgramAssignmentRepository) ResetProgress(ctx context.Context, id primitive.ObjectID) error {
	return r.setFields(ctx, id, bson.M{
		"progress.completedDayKeys": []string{},
		"progress.lastCompletedAt":  nil,
	})
}

// Archive soft-deletes the assignment; the row stays in place and keeps
// occupying its unique triple.
func (r *mongoProgramAssignmentRepository) Archive(ctx context.Context, id primitive.ObjectID) error {
	return r.setFields(ctx, id, bson.M{"status": domain.ProgramStatusArchived})
}

// UpdateStartDate moves the assignment to a new start date. Derived workout
// rows must be regenerated by the caller afterwards.
func (r *mongoProgramAssignmentRepository) UpdateStartDate(ctx context.Context, id primitive.ObjectID, startDate time.Time) error {
	return r.setFields(ctx, id, bson.M{"startDate": startDate.UTC()})
}

func (r *mongoProgramAssignmentRepository) setFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updatedAt"] = time.Now().UTC()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MarkDayComplete adds a day key to the completed set in one atomic,
// idempotent operation ($addToSet never duplicates) and returns the
// authoritative post-state. The core deliberately never does
// read-modify-write on the key list, so concurrent marks cannot lose
// updates.
func (r *mongoProgramAssignmentRepository) MarkDayComplete(ctx context.Context, id primitive.ObjectID, dayKey string) (*domain.ProgramAssignment, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$addToSet": bson.M{"progress.completedDayKeys": dayKey},
		"$set": bson.M{
			"progress.lastCompletedAt": now,
			"updatedAt":                now,
		},
	}
	return r.findOneAndUpdate(ctx, id, update)
}

// UnmarkDayComplete removes a day key from the completed set; removing an
// absent key is a no-op.
func (r *mongoProgramAssignmentRepository) UnmarkDayComplete(ctx context.Context, id primitive.ObjectID, dayKey string) (*domain.ProgramAssignment, error) {
	update := bson.M{
		"$pull": bson.M{"progress.completedDayKeys": dayKey},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.findOneAndUpdate(ctx, id, update)
}

func (r *mongoProgramAssignmentRepository) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*domain.ProgramAssignment, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var assignment domain.ProgramAssignment
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// EnsureProgramAssignmentIndexes creates necessary indexes for the
// program_assignments collection. The unique triple index is what turns a
// duplicate assignment into a detectable conflict instead of a silent
// second row.
func EnsureProgramAssignmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "clientId", Value: 1},
				{Key: "programId", Value: 1},
				{Key: "startDate", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
