package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutExercise is one exercise entry inside a workout template, with the
// authored prescription the client starts from when logging a run.
type WorkoutExercise struct {
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Sets       int                `bson:"sets" json:"sets"` // authored set count, drives draft initialization
	TargetReps int                `bson:"targetReps,omitempty" json:"targetReps,omitempty"`
	RestSec    int                `bson:"restSec,omitempty" json:"restSec,omitempty"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Sequence   int                `bson:"sequence" json:"sequence"` // order within the workout
}

// WorkoutTemplate is a reusable, coach-authored workout. It is referenced by
// program days (via WorkoutRef) and by standalone workout assignments.
type WorkoutTemplate struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID   primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Exercises   []WorkoutExercise  `bson:"exercises" json:"exercises"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
