package session

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Fakes ---

type fakeSetLogRepo struct {
	mu       sync.Mutex
	batches  [][]domain.SetLog
	failNext int // number of upcoming BulkUpsert calls to fail
	existing []domain.SetLog
}

func (f *fakeSetLogRepo) BulkUpsert(_ context.Context, logs []domain.SetLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext > 0 {
		f.failNext--
		return repository.ErrUpdateFailed
	}
	batch := make([]domain.SetLog, len(logs))
	copy(batch, logs)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeSetLogRepo) ListBySession(_ context.Context, sessionID primitive.ObjectID) ([]domain.SetLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.SetLog
	for _, entry := range f.existing {
		if entry.SessionID == sessionID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (f *fakeSetLogRepo) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func (f *fakeSetLogRepo) lastBatch() []domain.SetLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		return nil
	}
	return f.batches[len(f.batches)-1]
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[primitive.ObjectID]*domain.WorkoutSession
	created  int
	finished map[primitive.ObjectID]int // session id -> durationSec
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions: make(map[primitive.ObjectID]*domain.WorkoutSession),
		finished: make(map[primitive.ObjectID]int),
	}
}

func (f *fakeSessionRepo) Create(_ context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := primitive.NewObjectID()
	stored := *session
	stored.ID = id
	f.sessions[id] = &stored
	f.created++
	return id, nil
}

func (f *fakeSessionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessionRepo) GetInProgress(_ context.Context, clientID primitive.ObjectID, workoutAssignmentID *primitive.ObjectID) (*domain.WorkoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, session := range f.sessions {
		if session.Status != domain.SessionInProgress || session.ClientID != clientID {
			continue
		}
		if workoutAssignmentID == nil {
			if session.WorkoutAssignmentID != nil {
				continue
			}
		} else if session.WorkoutAssignmentID == nil || *session.WorkoutAssignmentID != *workoutAssignmentID {
			continue
		}
		copied := *session
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSessionRepo) Finish(_ context.Context, id primitive.ObjectID, durationSec int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	session.Status = domain.SessionCompleted
	f.finished[id] = durationSec
	return nil
}

type fakeWorkoutRepo struct {
	workouts map[primitive.ObjectID]*domain.WorkoutTemplate
}

func (f *fakeWorkoutRepo) Create(_ context.Context, _ *domain.WorkoutTemplate) (primitive.ObjectID, error) {
	return primitive.NewObjectID(), nil
}

func (f *fakeWorkoutRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	workout, ok := f.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return workout, nil
}

func (f *fakeWorkoutRepo) GetByTrainerID(_ context.Context, _ primitive.ObjectID) ([]domain.WorkoutTemplate, error) {
	return nil, nil
}

type fakeWorkoutAsgRepo struct {
	assignments map[primitive.ObjectID]*domain.WorkoutAssignment
}

func (f *fakeWorkoutAsgRepo) Create(_ context.Context, _ *domain.WorkoutAssignment) (primitive.ObjectID, error) {
	return primitive.NewObjectID(), nil
}

func (f *fakeWorkoutAsgRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutAssignment, error) {
	assignment, ok := f.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return assignment, nil
}

func (f *fakeWorkoutAsgRepo) GetByClientID(_ context.Context, _ primitive.ObjectID) ([]domain.WorkoutAssignment, error) {
	return nil, nil
}

func (f *fakeWorkoutAsgRepo) GetByClientAndDate(_ context.Context, _ primitive.ObjectID, _ time.Time) ([]domain.WorkoutAssignment, error) {
	return nil, nil
}

func (f *fakeWorkoutAsgRepo) GetByProgramAssignmentID(_ context.Context, _ primitive.ObjectID) ([]domain.WorkoutAssignment, error) {
	return nil, nil
}

func (f *fakeWorkoutAsgRepo) ReplaceForProgram(_ context.Context, _ primitive.ObjectID, _ []domain.WorkoutAssignment) error {
	return nil
}

func (f *fakeWorkoutAsgRepo) InsertMissingForProgram(_ context.Context, _ primitive.ObjectID, _ []domain.WorkoutAssignment) error {
	return nil
}

func (f *fakeWorkoutAsgRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, status domain.WorkoutAssignmentStatus) error {
	assignment, ok := f.assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	assignment.Status = status
	return nil
}
