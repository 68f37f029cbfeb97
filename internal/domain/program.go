package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutRefSource tags where a day's workout reference points to.
type WorkoutRefSource string

const (
	// WorkoutSourceCatalog references a workout template in our own catalog.
	WorkoutSourceCatalog WorkoutRefSource = "catalog"
	// WorkoutSourceExternal references a workout kept in an external/legacy
	// system; it never resolves to a concrete template id.
	WorkoutSourceExternal WorkoutRefSource = "external"
)

// WorkoutRef is a tagged reference from a program day to a workout.
// WorkoutID is only meaningful when Source == WorkoutSourceCatalog.
type WorkoutRef struct {
	Source    WorkoutRefSource   `bson:"source" json:"source"`
	WorkoutID primitive.ObjectID `bson:"workoutId,omitempty" json:"workoutId,omitempty"`
}

// IsCatalog reports whether the reference resolves to a catalog workout.
func (r WorkoutRef) IsCatalog() bool {
	return r.Source == WorkoutSourceCatalog && r.WorkoutID != primitive.NilObjectID
}

// ProgramDay is one authored day inside a program template week.
// DayKey is the stable identifier used for completion tracking; authoring
// should guarantee it is non-empty and unique within the template.
// Workouts is the current multi-reference list; Workout is the legacy single
// reference kept for templates authored before multi-workout days existed.
type ProgramDay struct {
	DayKey   string       `bson:"dayKey" json:"dayKey"`
	Title    string       `bson:"title,omitempty" json:"title,omitempty"`
	Workouts []WorkoutRef `bson:"workouts,omitempty" json:"workouts,omitempty"`
	Workout  *WorkoutRef  `bson:"workout,omitempty" json:"workout,omitempty"`
}

// ProgramWeek is an ordered list of authored days.
type ProgramWeek struct {
	Title string       `bson:"title,omitempty" json:"title,omitempty"`
	Days  []ProgramDay `bson:"days" json:"days"`
}

// ProgramPhase groups consecutive weeks, e.g. "Phase 1: Hypertrophy".
type ProgramPhase struct {
	Title string        `bson:"title,omitempty" json:"title,omitempty"`
	Weeks []ProgramWeek `bson:"weeks" json:"weeks"`
}

// ProgramTemplate is a coach-authored, reusable multi-week structure of
// phases/weeks/days. It is owned by the authoring side; the scheduling
// engine only ever reads it.
type ProgramTemplate struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID   primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Phases      []ProgramPhase     `bson:"phases" json:"phases"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
