// Package session owns the lifecycle of one workout execution: starting or
// resuming a run, buffering per-set draft edits, flushing them to storage in
// debounced batches, and finishing the session with its final duration.
package session

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultFlushDelay is the debounce window between the last draft edit and
// the batched persist.
const DefaultFlushDelay = 700 * time.Millisecond

// SetKey addresses one draft entry: one set of one exercise.
type SetKey struct {
	ExerciseID primitive.ObjectID
	SetIndex   int // 1-based
}

// SetDraft is the local, authoritative state of one set while a run is in
// progress. Weight stays free-text exactly as typed; it is parsed to
// numeric-or-null only when persisted.
type SetDraft struct {
	Reps      int
	Weight    string
	Completed bool
}

// BatchState is the explicit state of the pending-write batch.
type BatchState int

const (
	// BatchClean: nothing to persist.
	BatchClean BatchState = iota
	// BatchDirty: edits are waiting for the debounce timer.
	BatchDirty
	// BatchFlushing: a flush is in flight.
	BatchFlushing
)

// Runner drives one workout run. Exactly one Runner exists per active
// session (the Manager's registry enforces this); its draft map and dirty
// set are owned exclusively by that instance.
//
// Draft edits never fail and are never rolled back: local state is the
// source of truth until a flush succeeds. A failed flush re-marks its keys
// dirty and leaves a sticky save error for the caller to surface with a
// manual retry.
type Runner struct {
	session *domain.WorkoutSession
	logRepo repository.SetLogRepository

	flushDelay time.Duration
	now        func() time.Time

	// flushMu serializes flushes: only one is ever in flight, and Finish
	// blocks behind a timer-triggered flush instead of racing it.
	flushMu sync.Mutex

	mu      sync.Mutex
	drafts  map[SetKey]*SetDraft
	dirty   map[SetKey]struct{}
	state   BatchState
	timer   *time.Timer
	saveErr error
}

func newRunner(session *domain.WorkoutSession, logRepo repository.SetLogRepository, flushDelay time.Duration, now func() time.Time) *Runner {
	if flushDelay <= 0 {
		flushDelay = DefaultFlushDelay
	}
	if now == nil {
		now = time.Now
	}
	return &Runner{
		session:    session,
		logRepo:    logRepo,
		flushDelay: flushDelay,
		now:        now,
		drafts:     make(map[SetKey]*SetDraft),
		dirty:      make(map[SetKey]struct{}),
	}
}

// Session returns the session row this runner drives.
func (r *Runner) Session() *domain.WorkoutSession {
	return r.session
}

// Drafts returns a snapshot copy of the current draft state.
func (r *Runner) Drafts() map[SetKey]SetDraft {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[SetKey]SetDraft, len(r.drafts))
	for key, draft := range r.drafts {
		out[key] = *draft
	}
	return out
}

// State returns the batch state.
func (r *Runner) State() BatchState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SaveError returns the sticky error of the last failed flush, nil after a
// successful one.
func (r *Runner) SaveError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveErr
}

// Elapsed is the running duration of the session. Purely a display
// derivative; it is only persisted at finish.
func (r *Runner) Elapsed() time.Duration {
	return r.now().Sub(r.session.StartedAt)
}

// SetReps records a reps edit for one set.
func (r *Runner) SetReps(exerciseID primitive.ObjectID, setIndex, reps int) {
	r.edit(SetKey{ExerciseID: exerciseID, SetIndex: setIndex}, func(d *SetDraft) {
		d.Reps = reps
	})
}

// SetWeight records a weight edit for one set. The raw text is kept as
// typed.
func (r *Runner) SetWeight(exerciseID primitive.ObjectID, setIndex int, weight string) {
	r.edit(SetKey{ExerciseID: exerciseID, SetIndex: setIndex}, func(d *SetDraft) {
		d.Weight = weight
	})
}

// SetCompleted toggles the completed mark for one set.
func (r *Runner) SetCompleted(exerciseID primitive.ObjectID, setIndex int, completed bool) {
	r.edit(SetKey{ExerciseID: exerciseID, SetIndex: setIndex}, func(d *SetDraft) {
		d.Completed = completed
	})
}

// edit applies a mutation, marks the key dirty and (re)starts the debounce
// timer. Rapid edits within the window coalesce into one flush.
func (r *Runner) edit(key SetKey, mutate func(*SetDraft)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	draft, ok := r.drafts[key]
	if !ok {
		draft = &SetDraft{}
		r.drafts[key] = draft
	}
	mutate(draft)
	r.dirty[key] = struct{}{}
	if r.state != BatchFlushing {
		r.state = BatchDirty
	}
	r.scheduleLocked()
}

// scheduleLocked (re)arms the debounce timer. The timer is cancellable and
// replaceable up to the moment it fires.
func (r *Runner) scheduleLocked() {
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.flushDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Errors stay sticky in saveErr; the screen surfaces them with a
		// retry action.
		_ = r.Flush(ctx)
	})
}

// Flush persists all currently dirty drafts in one batched upsert and
// clears the dirty set. On failure the flushed keys are re-marked dirty and
// the error is kept until the next successful flush; draft values are never
// reverted. Safe to call concurrently with the debounce timer — flushes are
// serialized, never interleaved.
func (r *Runner) Flush(ctx context.Context) error {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if len(r.dirty) == 0 {
		r.state = BatchClean
		r.mu.Unlock()
		return nil
	}

	keys := make([]SetKey, 0, len(r.dirty))
	logs := make([]domain.SetLog, 0, len(r.dirty))
	for key := range r.dirty {
		draft := r.drafts[key]
		keys = append(keys, key)
		logs = append(logs, domain.SetLog{
			SessionID:  r.session.ID,
			ExerciseID: key.ExerciseID,
			SetIndex:   key.SetIndex,
			Reps:       draft.Reps,
			Weight:     parseWeight(draft.Weight),
			Completed:  draft.Completed,
		})
	}
	r.dirty = make(map[SetKey]struct{})
	r.state = BatchFlushing
	r.mu.Unlock()

	err := r.logRepo.BulkUpsert(ctx, logs)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		for _, key := range keys {
			r.dirty[key] = struct{}{}
		}
		r.state = BatchDirty
		r.saveErr = err
		return err
	}
	r.saveErr = nil
	if len(r.dirty) > 0 {
		// Edits arrived while the batch was in flight; they form the next
		// one.
		r.state = BatchDirty
		r.scheduleLocked()
	} else {
		r.state = BatchClean
	}
	return nil
}

// Retry re-attempts a failed flush on user request.
func (r *Runner) Retry(ctx context.Context) error {
	return r.Flush(ctx)
}

// parseWeight converts the free-text weight field to numeric-or-null.
func parseWeight(raw string) *float64 {
	trimmed := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if trimmed == "" {
		return nil
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil
	}
	return &value
}
