package session

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Service Errors ---

var (
	ErrWorkoutNotFound    = errors.New("workout template not found")
	ErrAssignmentNotFound = errors.New("workout assignment not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionFinished    = errors.New("session is already finished")
	ErrAccessDenied       = errors.New("access denied to this resource")
)

// Manager hands out runners for active workout sessions. It guarantees at
// most one in-memory Runner per session, and at most one in_progress
// session per (client, workoutAssignment) via lookup-before-create: an
// existing open session is resumed, never duplicated.
type Manager struct {
	sessionRepo repository.SessionRepository
	logRepo     repository.SetLogRepository
	workoutRepo repository.WorkoutTemplateRepository
	asgRepo     repository.WorkoutAssignmentRepository

	flushDelay time.Duration
	now        func() time.Time

	mu      sync.Mutex
	runners map[primitive.ObjectID]*Runner
}

// NewManager creates the session manager. flushDelay <= 0 falls back to
// DefaultFlushDelay.
func NewManager(
	sessionRepo repository.SessionRepository,
	logRepo repository.SetLogRepository,
	workoutRepo repository.WorkoutTemplateRepository,
	asgRepo repository.WorkoutAssignmentRepository,
	flushDelay time.Duration,
) *Manager {
	if flushDelay <= 0 {
		flushDelay = DefaultFlushDelay
	}
	return &Manager{
		sessionRepo: sessionRepo,
		logRepo:     logRepo,
		workoutRepo: workoutRepo,
		asgRepo:     asgRepo,
		flushDelay:  flushDelay,
		now:         time.Now,
		runners:     make(map[primitive.ObjectID]*Runner),
	}
}

// StartResult is the outcome of StartOrResume.
type StartResult struct {
	Runner  *Runner
	Resumed bool // true when an existing in_progress session was picked up
}

// StartWorkout starts (or resumes) a run of a standalone workout template,
// not tied to a dated assignment row.
func (m *Manager) StartWorkout(ctx context.Context, clientID, trainerID, workoutID primitive.ObjectID) (*StartResult, error) {
	return m.startOrResume(ctx, clientID, trainerID, workoutID, nil)
}

// StartAssignment starts (or resumes) a run of a dated workout assignment
// belonging to the client.
func (m *Manager) StartAssignment(ctx context.Context, clientID, workoutAssignmentID primitive.ObjectID) (*StartResult, error) {
	assignment, err := m.asgRepo.GetByID(ctx, workoutAssignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	if assignment.ClientID != clientID {
		return nil, ErrAccessDenied
	}
	return m.startOrResume(ctx, clientID, assignment.TrainerID, assignment.WorkoutID, &assignment.ID)
}

// startOrResume resolves the workout template, looks for an open session to
// resume, creates one if none exists, and returns a hydrated runner.
func (m *Manager) startOrResume(ctx context.Context, clientID, trainerID, workoutID primitive.ObjectID, workoutAssignmentID *primitive.ObjectID) (*StartResult, error) {
	// 1. The template must still exist; drafts are seeded from it.
	workout, err := m.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}

	if trainerID == primitive.NilObjectID {
		trainerID = workout.TrainerID
	}

	// 2. Resume an open session for the same target if there is one.
	resumed := true
	sess, err := m.sessionRepo.GetInProgress(ctx, clientID, workoutAssignmentID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		resumed = false
		sess = &domain.WorkoutSession{
			ClientID:            clientID,
			TrainerID:           trainerID,
			WorkoutID:           workoutID,
			WorkoutAssignmentID: workoutAssignmentID,
			Status:              domain.SessionInProgress,
			StartedAt:           m.now().UTC(),
		}
		id, createErr := m.sessionRepo.Create(ctx, sess)
		if createErr != nil {
			return nil, createErr
		}
		sess.ID = id
	}

	m.mu.Lock()
	if runner, ok := m.runners[sess.ID]; ok {
		m.mu.Unlock()
		return &StartResult{Runner: runner, Resumed: true}, nil
	}
	m.mu.Unlock()

	runner := newRunner(sess, m.logRepo, m.flushDelay, m.now)
	seedDrafts(runner, workout)
	if resumed {
		// Persisted logs win over template defaults.
		logs, listErr := m.logRepo.ListBySession(ctx, sess.ID)
		if listErr != nil {
			return nil, listErr
		}
		overlayLogs(runner, logs)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Lost the race to another caller: their runner is authoritative.
	if existing, ok := m.runners[sess.ID]; ok {
		return &StartResult{Runner: existing, Resumed: true}, nil
	}
	m.runners[sess.ID] = runner
	return &StartResult{Runner: runner, Resumed: resumed}, nil
}

// Get returns the live runner for a session owned by the client.
func (m *Manager) Get(sessionID, clientID primitive.ObjectID) (*Runner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	runner, ok := m.runners[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if runner.Session().ClientID != clientID {
		return nil, ErrAccessDenied
	}
	return runner, nil
}

// Finish flushes any pending drafts synchronously, stamps the session
// completed with its duration, and retires the runner. A failed flush
// leaves the session in_progress with its drafts intact for retry.
func (m *Manager) Finish(ctx context.Context, sessionID, clientID primitive.ObjectID) (*domain.WorkoutSession, error) {
	runner, err := m.Get(sessionID, clientID)
	if err != nil {
		return nil, err
	}
	sess := runner.Session()
	if sess.Status != domain.SessionInProgress {
		return nil, ErrSessionFinished
	}

	if err := runner.Flush(ctx); err != nil {
		return nil, err
	}

	finishedAt := m.now().UTC()
	durationSec := int(finishedAt.Sub(sess.StartedAt).Seconds())
	if durationSec < 0 {
		durationSec = 0
	}
	if err := m.sessionRepo.Finish(ctx, sess.ID, durationSec); err != nil {
		return nil, err
	}
	sess.Status = domain.SessionCompleted
	sess.FinishedAt = &finishedAt
	sess.DurationSec = durationSec

	// A finished run completes its assignment row. Best-effort: the session
	// itself is already closed.
	if sess.WorkoutAssignmentID != nil {
		if err := m.asgRepo.UpdateStatus(ctx, *sess.WorkoutAssignmentID, domain.WorkoutStatusCompleted); err != nil {
			log.Printf("WARN: failed to mark workout assignment %s completed: %v", sess.WorkoutAssignmentID.Hex(), err)
		}
	}

	m.mu.Lock()
	delete(m.runners, sess.ID)
	m.mu.Unlock()

	return sess, nil
}

// seedDrafts creates one empty draft per authored set so every set is
// addressable from the first render. Reps prefill from the target.
func seedDrafts(runner *Runner, workout *domain.WorkoutTemplate) {
	runner.mu.Lock()
	defer runner.mu.Unlock()
	for _, exercise := range workout.Exercises {
		for setIndex := 1; setIndex <= exercise.Sets; setIndex++ {
			key := SetKey{ExerciseID: exercise.ExerciseID, SetIndex: setIndex}
			runner.drafts[key] = &SetDraft{Reps: exercise.TargetReps}
		}
	}
}

// overlayLogs replays persisted set logs onto the seeded drafts. Seeding
// never marks anything dirty: a resume with no edits flushes nothing.
func overlayLogs(runner *Runner, logs []domain.SetLog) {
	runner.mu.Lock()
	defer runner.mu.Unlock()
	for _, entry := range logs {
		key := SetKey{ExerciseID: entry.ExerciseID, SetIndex: entry.SetIndex}
		draft := &SetDraft{Reps: entry.Reps, Completed: entry.Completed}
		if entry.Weight != nil {
			draft.Weight = formatWeight(*entry.Weight)
		}
		runner.drafts[key] = draft
	}
}

func formatWeight(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
