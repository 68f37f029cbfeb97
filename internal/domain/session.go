package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionStatus type for the workout session state machine:
// in_progress -> completed. Cancelled is reserved for administrative use;
// the run session manager never initiates it.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

// WorkoutSession is one timed execution attempt of a workout by a client.
// At most one in_progress session exists per (client, workoutAssignment);
// this is enforced by lookup-before-create in the session manager.
type WorkoutSession struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientID            primitive.ObjectID  `bson:"clientId" json:"clientId"`
	TrainerID           primitive.ObjectID  `bson:"trainerId" json:"trainerId"`
	WorkoutID           primitive.ObjectID  `bson:"workoutId" json:"workoutId"`
	WorkoutAssignmentID *primitive.ObjectID `bson:"workoutAssignmentId,omitempty" json:"workoutAssignmentId,omitempty"`
	Status              SessionStatus       `bson:"status" json:"status"`
	StartedAt           time.Time           `bson:"startedAt" json:"startedAt"`
	FinishedAt          *time.Time          `bson:"finishedAt,omitempty" json:"finishedAt,omitempty"`
	DurationSec         int                 `bson:"durationSec,omitempty" json:"durationSec,omitempty"`
}

// SetLog is the logged outcome for one set of one exercise within a session.
// Rows are uniquely keyed by (sessionId, exerciseId, setIndex); upserts
// overwrite prior values (last-write-wins, not append-only). Weight is a
// pointer because a set can be logged without weight (bodyweight, or the
// client typed something unparsable).
type SetLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID  primitive.ObjectID `bson:"sessionId" json:"sessionId"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	SetIndex   int                `bson:"setIndex" json:"setIndex"`
	Reps       int                `bson:"reps" json:"reps"`
	Weight     *float64           `bson:"weight,omitempty" json:"weight,omitempty"`
	Completed  bool               `bson:"completed" json:"completed"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
