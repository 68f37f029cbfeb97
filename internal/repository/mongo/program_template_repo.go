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

const programTemplateCollectionName = "program_templates"

// mongoProgramTemplateRepository implements repository.ProgramTemplateRepository
type mongoProgramTemplateRepository struct {
	collection *mongo.Collection
}

// NewMongoProgramTemplateRepository creates a new ProgramTemplate repository backed by MongoDB.
func NewMongoProgramTemplateRepository(db *mongo.Database) repository.ProgramTemplateRepository {
	return &mongoProgramTemplateRepository{
		collection: db.Collection(programTemplateCollectionName),
	}
}

// Create inserts a new program template. Authoring happens elsewhere; this
// exists so deployments can seed templates and tests can set up fixtures.
func (r *mongoProgramTemplateRepository) Create(ctx context.Context, tpl *domain.ProgramTemplate) (primitive.ObjectID, error) {
	if tpl.Name == "" || tpl.TrainerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("program name and trainerId are required")
	}

	tpl.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, tpl)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted program ID")
	}
	return insertedID, nil
}

// GetByID retrieves a program template by its ID.
func (r *mongoProgramTemplateRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramTemplate, error) {
	var tpl domain.ProgramTemplate
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tpl)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

// GetByTrainerID retrieves all program templates owned by the trainer.
func (r *mongoProgramTemplateRepository) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.ProgramTemplate, error) {
	var templates []domain.ProgramTemplate
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"trainerId": trainerID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, cursor.Err()
}

// EnsureProgramTemplateIndexes creates necessary indexes for the program_templates collection.
func EnsureProgramTemplateIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
