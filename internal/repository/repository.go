package repository

import (
	"alcyxob/coach-app/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicateKey = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	AddClientIDToTrainer(ctx context.Context, trainerID, clientID primitive.ObjectID) error
	SetTrainerForClient(ctx context.Context, clientID, trainerID primitive.ObjectID) error
	GetClientsByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error)
}

// ExerciseRepository defines the interface for the exercise library.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Exercise, error)
	SetDemoVideoKey(ctx context.Context, id primitive.ObjectID, objectKey string) error
}

// WorkoutTemplateRepository defines the interface for workout templates.
type WorkoutTemplateRepository interface {
	Create(ctx context.Context, workout *domain.WorkoutTemplate) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.WorkoutTemplate, error)
}

// ProgramTemplateRepository defines the interface for program templates.
// Templates are authored elsewhere; the scheduling engine reads them.
type ProgramTemplateRepository interface {
	Create(ctx context.Context, tpl *domain.ProgramTemplate) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramTemplate, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.ProgramTemplate, error)
}

// ProgramAssignmentRepository defines the interface for program assignments.
// Create returns ErrDuplicateKey when the (clientId, programId, startDate)
// unique index is violated; callers branch into the duplicate-resolution
// flow from there. MarkDayComplete/UnmarkDayComplete are idempotent atomic
// set operations and return the authoritative post-state.
type ProgramAssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.ProgramAssignment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramAssignment, error)
	GetByTriple(ctx context.Context, clientID, programID primitive.ObjectID, startDate time.Time) (*domain.ProgramAssignment, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.ProgramAssignment, error)
	ActiveClientIDs(ctx context.Context, clientIDs []primitive.ObjectID) ([]primitive.ObjectID, error)
	Reactivate(ctx context.Context, id primitive.ObjectID) error
	ResetProgress(ctx context.Context, id primitive.ObjectID) error
	Archive(ctx context.Context, id primitive.ObjectID) error
	UpdateStartDate(ctx context.Context, id primitive.ObjectID, startDate time.Time) error
	MarkDayComplete(ctx context.Context, id primitive.ObjectID, dayKey string) (*domain.ProgramAssignment, error)
	UnmarkDayComplete(ctx context.Context, id primitive.ObjectID, dayKey string) (*domain.ProgramAssignment, error)
}

// WorkoutAssignmentRepository defines the interface for dated per-day
// workout rows. ReplaceForProgram drops and rewrites all rows generated
// from one program assignment; InsertMissingForProgram only inserts rows
// whose day key is not present yet (replaceExisting=false semantics).
type WorkoutAssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.WorkoutAssignment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutAssignment, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.WorkoutAssignment, error)
	GetByClientAndDate(ctx context.Context, clientID primitive.ObjectID, date time.Time) ([]domain.WorkoutAssignment, error)
	GetByProgramAssignmentID(ctx context.Context, programAssignmentID primitive.ObjectID) ([]domain.WorkoutAssignment, error)
	ReplaceForProgram(ctx context.Context, programAssignmentID primitive.ObjectID, rows []domain.WorkoutAssignment) error
	InsertMissingForProgram(ctx context.Context, programAssignmentID primitive.ObjectID, rows []domain.WorkoutAssignment) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.WorkoutAssignmentStatus) error
}

// SessionRepository defines the interface for workout run sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error)
	GetInProgress(ctx context.Context, clientID primitive.ObjectID, workoutAssignmentID *primitive.ObjectID) (*domain.WorkoutSession, error)
	Finish(ctx context.Context, id primitive.ObjectID, durationSec int) error
}

// SetLogRepository defines the interface for per-set logs. BulkUpsert is
// keyed by (sessionId, exerciseId, setIndex) and overwrites prior values.
type SetLogRepository interface {
	BulkUpsert(ctx context.Context, logs []domain.SetLog) error
	ListBySession(ctx context.Context, sessionID primitive.ObjectID) ([]domain.SetLog, error)
}
