package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramAssignmentStatus type for the program assignment lifecycle.
type ProgramAssignmentStatus string

const (
	ProgramStatusActive    ProgramAssignmentStatus = "active"
	ProgramStatusArchived  ProgramAssignmentStatus = "archived" // soft delete, row kept for history
	ProgramStatusCompleted ProgramAssignmentStatus = "completed"
)

// ProgramProgress is the per-assignment completion bookkeeping. The key list
// is stored as an array but treated as a set; normalization happens on read.
type ProgramProgress struct {
	CompletedDayKeys []string   `bson:"completedDayKeys" json:"completedDayKeys"`
	LastCompletedAt  *time.Time `bson:"lastCompletedAt,omitempty" json:"lastCompletedAt,omitempty"`
}

// ProgramAssignment binds a program template to a client with a start date.
// The storage layer enforces uniqueness on (clientId, programId, startDate)
// regardless of status, which is why reactivation/reset flows exist for
// archived duplicates.
type ProgramAssignment struct {
	ID        primitive.ObjectID      `bson:"_id,omitempty" json:"id"`
	TrainerID primitive.ObjectID      `bson:"trainerId" json:"trainerId"`
	ClientID  primitive.ObjectID      `bson:"clientId" json:"clientId"`
	ProgramID primitive.ObjectID      `bson:"programId" json:"programId"`
	StartDate time.Time               `bson:"startDate" json:"startDate"` // calendar date, stored UTC
	Status    ProgramAssignmentStatus `bson:"status" json:"status"`
	Notes     string                  `bson:"notes,omitempty" json:"notes,omitempty"`
	Progress  ProgramProgress         `bson:"progress" json:"progress"`
	CreatedAt time.Time               `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time               `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutAssignmentStatus type for the workout assignment lifecycle.
type WorkoutAssignmentStatus string

const (
	WorkoutStatusAssigned  WorkoutAssignmentStatus = "assigned"
	WorkoutStatusCompleted WorkoutAssignmentStatus = "completed"
	WorkoutStatusSkipped   WorkoutAssignmentStatus = "skipped"
	WorkoutStatusCancelled WorkoutAssignmentStatus = "cancelled"
)

// WorkoutAssignmentSource tells whether the row was generated from a program
// day or assigned manually as a standalone workout.
type WorkoutAssignmentSource string

const (
	WorkoutAssignedManually    WorkoutAssignmentSource = "manual"
	WorkoutAssignedFromProgram WorkoutAssignmentSource = "program"
)

// WorkoutAssignment is one dated workout obligation for a client.
// ProgramAssignmentID and ProgramDayKey are nil/empty for manually assigned
// standalone workouts.
type WorkoutAssignment struct {
	ID                  primitive.ObjectID      `bson:"_id,omitempty" json:"id"`
	TrainerID           primitive.ObjectID      `bson:"trainerId" json:"trainerId"`
	ClientID            primitive.ObjectID      `bson:"clientId" json:"clientId"`
	WorkoutID           primitive.ObjectID      `bson:"workoutId" json:"workoutId"`
	ScheduledFor        time.Time               `bson:"scheduledFor" json:"scheduledFor"` // calendar date, stored UTC
	Status              WorkoutAssignmentStatus `bson:"status" json:"status"`
	Source              WorkoutAssignmentSource `bson:"source" json:"source"`
	ProgramAssignmentID *primitive.ObjectID     `bson:"programAssignmentId,omitempty" json:"programAssignmentId,omitempty"`
	ProgramDayKey       string                  `bson:"programDayKey,omitempty" json:"programDayKey,omitempty"`
	CreatedAt           time.Time               `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time               `bson:"updatedAt" json:"updatedAt"`
}
