package service

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/program"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type assignmentFixture struct {
	svc            AssignmentService
	userRepo       *fakeUserRepo
	programRepo    *fakeProgramRepo
	workoutRepo    *fakeWorkoutRepo
	programAsgRepo *fakeProgramAsgRepo
	workoutAsgRepo *fakeWorkoutAsgRepo

	trainerID primitive.ObjectID
	clientID  primitive.ObjectID
	pushID    primitive.ObjectID // catalog workout used by the template
	pullID    primitive.ObjectID
	programID primitive.ObjectID
}

// newAssignmentFixture wires a trainer with one managed client and a
// two-week program: week 1 has workout/rest/workout days, week 2 has one
// day with an external reference that must not generate a row.
func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()
	fx := &assignmentFixture{
		userRepo:       newFakeUserRepo(),
		programRepo:    newFakeProgramRepo(),
		workoutRepo:    newFakeWorkoutRepo(),
		programAsgRepo: newFakeProgramAsgRepo(),
		workoutAsgRepo: &fakeWorkoutAsgRepo{},
	}
	fx.svc = NewAssignmentService(fx.userRepo, fx.programRepo, fx.workoutRepo, fx.programAsgRepo, fx.workoutAsgRepo)

	ctx := context.Background()
	trainerID, err := fx.userRepo.Create(ctx, &domain.User{Name: "Coach", Email: "coach@example.com", Role: domain.RoleTrainer})
	require.NoError(t, err)
	fx.trainerID = trainerID

	clientID, err := fx.userRepo.Create(ctx, &domain.User{Name: "Client", Email: "client@example.com", Role: domain.RoleClient, TrainerID: &trainerID})
	require.NoError(t, err)
	fx.clientID = clientID

	fx.pushID, err = fx.workoutRepo.Create(ctx, &domain.WorkoutTemplate{TrainerID: trainerID, Name: "Push"})
	require.NoError(t, err)
	fx.pullID, err = fx.workoutRepo.Create(ctx, &domain.WorkoutTemplate{TrainerID: trainerID, Name: "Pull"})
	require.NoError(t, err)

	fx.programID, err = fx.programRepo.Create(ctx, &domain.ProgramTemplate{
		TrainerID: trainerID,
		Name:      "Base Block",
		Phases: []domain.ProgramPhase{{
			Weeks: []domain.ProgramWeek{
				{Days: []domain.ProgramDay{
					{DayKey: "w1d1", Workouts: []domain.WorkoutRef{{Source: domain.WorkoutSourceCatalog, WorkoutID: fx.pushID}}},
					{DayKey: "w1d2", Title: "Rest"},
					{DayKey: "w1d3", Workout: &domain.WorkoutRef{Source: domain.WorkoutSourceCatalog, WorkoutID: fx.pullID}},
				}},
				{Days: []domain.ProgramDay{
					{DayKey: "w2d1", Workouts: []domain.WorkoutRef{{Source: domain.WorkoutSourceExternal}}},
				}},
			},
		}},
	})
	require.NoError(t, err)
	return fx
}

func (fx *assignmentFixture) addManagedClient(t *testing.T, email string) primitive.ObjectID {
	t.Helper()
	id, err := fx.userRepo.Create(context.Background(), &domain.User{Email: email, Role: domain.RoleClient, TrainerID: &fx.trainerID})
	require.NoError(t, err)
	return id
}

var assignStart = time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)

func TestAssignWorkout(t *testing.T) {
	fx := newAssignmentFixture(t)
	other := fx.addManagedClient(t, "second@example.com")

	count, err := fx.svc.AssignWorkout(context.Background(), fx.trainerID, fx.pushID, []primitive.ObjectID{fx.clientID, other}, assignStart)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.Len(t, fx.workoutAsgRepo.rows, 2)
	for _, row := range fx.workoutAsgRepo.rows {
		assert.Equal(t, fx.pushID, row.WorkoutID)
		assert.Equal(t, domain.WorkoutAssignedManually, row.Source)
		assert.Equal(t, program.AnchorDate(assignStart), row.ScheduledFor)
		assert.Nil(t, row.ProgramAssignmentID)
	}
}

func TestAssignWorkoutStaleReference(t *testing.T) {
	fx := newAssignmentFixture(t)

	// A picked workout deleted before submit must fail loudly before any
	// row is written, not be half-applied.
	_, err := fx.svc.AssignWorkout(context.Background(), fx.trainerID, primitive.NewObjectID(), []primitive.ObjectID{fx.clientID}, assignStart)
	assert.ErrorIs(t, err, ErrWorkoutNotFound)
	assert.Empty(t, fx.workoutAsgRepo.rows)
}

func TestAssignWorkoutGuards(t *testing.T) {
	fx := newAssignmentFixture(t)
	ctx := context.Background()

	_, err := fx.svc.AssignWorkout(ctx, fx.trainerID, fx.pushID, nil, assignStart)
	assert.ErrorIs(t, err, ErrNoClientsSelected)

	_, err = fx.svc.AssignWorkout(ctx, fx.trainerID, fx.pushID, []primitive.ObjectID{primitive.NewObjectID()}, assignStart)
	assert.ErrorIs(t, err, ErrClientNotFound)

	foreign, err := fx.userRepo.Create(ctx, &domain.User{Email: "other@example.com", Role: domain.RoleClient})
	require.NoError(t, err)
	_, err = fx.svc.AssignWorkout(ctx, fx.trainerID, fx.pushID, []primitive.ObjectID{foreign}, assignStart)
	assert.ErrorIs(t, err, ErrClientNotManaged)
}

func TestAssignProgramGeneratesDayRows(t *testing.T) {
	fx := newAssignmentFixture(t)

	assignment, conflict, err := fx.svc.AssignProgram(context.Background(), fx.trainerID, fx.clientID, fx.programID, assignStart, "ease in")
	require.NoError(t, err)
	require.Nil(t, conflict)
	require.NotNil(t, assignment)
	assert.Equal(t, domain.ProgramStatusActive, assignment.Status)
	assert.Equal(t, program.AnchorDate(assignStart), assignment.StartDate)

	// Only the two catalog days produce rows; the rest day and the
	// external reference do not.
	require.Len(t, fx.workoutAsgRepo.rows, 2)
	byKey := map[string]domain.WorkoutAssignment{}
	for _, row := range fx.workoutAsgRepo.rows {
		byKey[row.ProgramDayKey] = row
	}

	first := byKey["w1d1"]
	assert.Equal(t, fx.pushID, first.WorkoutID)
	assert.Equal(t, program.DateForOffset(assignment.StartDate, 0), first.ScheduledFor)
	assert.Equal(t, domain.WorkoutAssignedFromProgram, first.Source)
	require.NotNil(t, first.ProgramAssignmentID)
	assert.Equal(t, assignment.ID, *first.ProgramAssignmentID)

	third := byKey["w1d3"]
	assert.Equal(t, fx.pullID, third.WorkoutID)
	assert.Equal(t, program.DateForOffset(assignment.StartDate, 2), third.ScheduledFor)

	assert.Equal(t, 1, fx.workoutAsgRepo.insertCalls)
	assert.Equal(t, 0, fx.workoutAsgRepo.replaceCalls)
}

func TestAssignProgramDuplicateIsConflictNotError(t *testing.T) {
	fx := newAssignmentFixture(t)
	ctx := context.Background()

	first, _, err := fx.svc.AssignProgram(ctx, fx.trainerID, fx.clientID, fx.programID, assignStart, "")
	require.NoError(t, err)

	assignment, conflict, err := fx.svc.AssignProgram(ctx, fx.trainerID, fx.clientID, fx.programID, assignStart, "")
	require.NoError(t, err, "a duplicate is a decision point, not a failure")
	assert.Nil(t, assignment)
	require.NotNil(t, conflict)
	assert.Equal(t, first.ID, conflict.Existing.ID)
	assert.Equal(t, []DuplicateResolution{ResolutionResetProgress}, conflict.Resolutions)
}

func TestAssignProgramDuplicateArchivedOffersReactivation(t *testing.T) {
	fx := newAssignmentFixture(t)
	ctx := context.Background()

	first, _, err := fx.svc.AssignProgram(ctx, fx.trainerID, fx.clientID, fx.programID, assignStart, "")
	require.NoError(t, err)
	require.NoError(t, fx.svc.ArchiveAssignment(ctx, fx.trainerID, first.ID))

	_, conflict, err := fx.svc.AssignProgram(ctx, fx.trainerID, fx.clientID, fx.programID, assignStart, "")
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, domain.ProgramStatusArchived, conflict.Existing.Status)
	assert.Equal(t, []DuplicateResolution{ResolutionReactivate, ResolutionResetAndReactivate}, conflict.Resolutions)
}

func TestResolveDuplicateResetProgress(t *testing.T) {
	fx := newAssignmentFixture(t)
	ctx := context.Background()

	assignment, _, err := fx.svc.AssignProgram(ctx, fx.trainerID, fx.clientID, fx.programID, assignStart, "")
	require.NoError(t, err)
	_, err = fx.programAsgRepo.MarkDayComplete(ctx, assignment.ID, "w1d1")
	require.NoError(t, err)

	resolved, err := fx.svc.ResolveDuplicate(ctx, fx.trainerID, assignment.ID, ResolutionResetProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.ProgramStatusActive, resolved.Status, "reset does not touch status")
	assert.Empty(t, resolved.Progress.CompletedDayKeys)
	assert.Nil(t, resolved.Progress.LastCompletedAt)
	assert.Equal(t, 1, fx.workoutAsgRepo.replaceCalls, "rows rebuilt from the template")
}

func TestResolveDuplicateReactivateKeepsProgress(t *testing.T) {
	fx := newAssignmentFixture(t)
	ctx := context.Background()

	assignment, _, err := fx.svc.AssignProgram(ctx, fx.trainerID, fx.clientID, fx.programID, assignStart, "")
	require.NoError(t, err)
	_, err = fx.programAsgRepo.MarkDayComplete(ctx, assignment.ID, "w1d1")
	require.NoError(t, err)
	require.NoError(t, fx.svc.ArchiveAssignment(ctx, fx.trainerID, assignment.ID))

	resolved, err := fx.svc.ResolveDuplicate(ctx, fx.trainerID, assignment.ID, ResolutionReactivate)
	require.NoError(t, err)
	assert.Equal(t, domain.ProgramStatusActive, resolved.Status)
	assert.Equal(t, []string{"w1d1"}, resolved.Progress.CompletedDayKeys, "reactivation alone keeps progress")
}

func TestResolveDuplicateResetAndReactivate(t *testing.T) {
	fx := newAssignmentFixture(t)
	ctx := context.Background()

	assignment, _, err := fx.svc.AssignProgram(ctx, fx.trainerID, fx.clientID, fx.programID, assignStart, "")
	require.NoError(t, err)
	_, err = fx.programAsgRepo.MarkDayComplete(ctx, assignment.ID, "w1d1")
	require.NoError(t, err)
	require.NoError(t, fx.svc.ArchiveAssignment(ctx, fx.trainerID, assignment.ID))

	resolved, err := fx.svc.ResolveDuplicate(ctx, fx.trainerID, assignment.ID, ResolutionResetAndReactivate)
	require.NoError(t, err)
	assert.Equal(t, domain.ProgramStatusActive, resolved.Status)
	assert.Empty(t, resolved.Progress.CompletedDayKeys)
}

func TestResolveDuplicateInvalidTransitions(t *testing.T) {
	fx := newAssignmentFixture(t)
	ctx := context.Background()

	assignment, _, err := fx.svc.AssignProgram(ctx, fx.trainerID, fx.clientID, fx.programID, assignStart, "")
	require.NoError(t, err)

	_, err = fx.svc.ResolveDuplicate(ctx, fx.trainerID, assignment.ID, ResolutionReactivate)
	assert.ErrorIs(t, err, ErrInvalidResolution, "cannot reactivate an active assignment")

	_, err = fx.svc.ResolveDuplicate(ctx, fx.trainerID, assignment.ID, DuplicateResolution("replace"))
	assert.ErrorIs(t, err, ErrInvalidResolution)

	_, err = fx.svc.ResolveDuplicate(ctx, primitive.NewObjectID(), assignment.ID, ResolutionResetProgress)
	assert.ErrorIs(t, err, ErrAssignmentNotFound, "foreign trainer sees no assignment")

	// Reset alone is only ever offered for an active duplicate; an archived
	// one must go through a reactivating resolution instead.
	require.NoError(t, fx.svc.ArchiveAssignment(ctx, fx.trainerID, assignment.ID))
	_, err = fx.svc.ResolveDuplicate(ctx, fx.trainerID, assignment.ID, ResolutionResetProgress)
	assert.ErrorIs(t, err, ErrInvalidResolution, "cannot reset-only an archived assignment")
}

func TestUpdateStartDateShiftsEveryRow(t *testing.T) {
	fx := newAssignmentFixture(t)
	ctx := context.Background()

	assignment, _, err := fx.svc.AssignProgram(ctx, fx.trainerID, fx.clientID, fx.programID, assignStart, "")
	require.NoError(t, err)

	newStart := assignStart.AddDate(0, 0, 14)
	updated, err := fx.svc.UpdateStartDate(ctx, fx.trainerID, assignment.ID, newStart)
	require.NoError(t, err)
	assert.Equal(t, program.AnchorDate(newStart), updated.StartDate)

	require.Len(t, fx.workoutAsgRepo.rows, 2)
	for _, row := range fx.workoutAsgRepo.rows {
		switch row.ProgramDayKey {
		case "w1d1":
			assert.Equal(t, program.DateForOffset(updated.StartDate, 0), row.ScheduledFor)
		case "w1d3":
			assert.Equal(t, program.DateForOffset(updated.StartDate, 2), row.ScheduledFor)
		default:
			t.Fatalf("unexpected row for day %q", row.ProgramDayKey)
		}
	}
	assert.Equal(t, 1, fx.workoutAsgRepo.replaceCalls)
}

func TestAssignProgramBlockedByOtherActiveProgram(t *testing.T) {
	fx := newAssignmentFixture(t)
	ctx := context.Background()

	otherProgramID, err := fx.programRepo.Create(ctx, &domain.ProgramTemplate{
		TrainerID: fx.trainerID,
		Name:      "Peak Block",
		Phases: []domain.ProgramPhase{{
			Weeks: []domain.ProgramWeek{
				{Days: []domain.ProgramDay{
					{DayKey: "w1d1", Workouts: []domain.WorkoutRef{{Source: domain.WorkoutSourceCatalog, WorkoutID: fx.pullID}}},
				}},
			},
		}},
	})
	require.NoError(t, err)

	_, _, err = fx.svc.AssignProgram(ctx, fx.trainerID, fx.clientID, fx.programID, assignStart, "")
	require.NoError(t, err)
	rowsBefore := len(fx.workoutAsgRepo.rows)

	// A second program for the same client must be refused outright, not
	// stacked next to the running one.
	assignment, conflict, err := fx.svc.AssignProgram(ctx, fx.trainerID, fx.clientID, otherProgramID, assignStart.AddDate(0, 0, 7), "")
	assert.ErrorIs(t, err, ErrActiveProgram)
	assert.Nil(t, assignment)
	assert.Nil(t, conflict)
	assert.Len(t, fx.workoutAsgRepo.rows, rowsBefore)

	// Same program, different start date: still a second active program.
	_, _, err = fx.svc.AssignProgram(ctx, fx.trainerID, fx.clientID, fx.programID, assignStart.AddDate(0, 0, 7), "")
	assert.ErrorIs(t, err, ErrActiveProgram)
}

func TestAssignProgramArchivedTripleBehindAnotherActiveProgram(t *testing.T) {
	fx := newAssignmentFixture(t)
	ctx := context.Background()

	otherProgramID, err := fx.programRepo.Create(ctx, &domain.ProgramTemplate{
		TrainerID: fx.trainerID,
		Name:      "Peak Block",
	})
	require.NoError(t, err)

	first, _, err := fx.svc.AssignProgram(ctx, fx.trainerID, fx.clientID, fx.programID, assignStart, "")
	require.NoError(t, err)
	require.NoError(t, fx.svc.ArchiveAssignment(ctx, fx.trainerID, first.ID))
	_, _, err = fx.svc.AssignProgram(ctx, fx.trainerID, fx.clientID, otherProgramID, assignStart, "")
	require.NoError(t, err)

	// Re-assigning the archived triple must not offer reactivation while a
	// different program is running.
	_, conflict, err := fx.svc.AssignProgram(ctx, fx.trainerID, fx.clientID, fx.programID, assignStart, "")
	assert.ErrorIs(t, err, ErrActiveProgram)
	assert.Nil(t, conflict)
}

func TestAssignProgramBatchSkipsLockedClients(t *testing.T) {
	fx := newAssignmentFixture(t)
	ctx := context.Background()
	free := fx.addManagedClient(t, "free@example.com")

	// The first client already runs a program; the batch must not stack a
	// second one on them.
	_, _, err := fx.svc.AssignProgram(ctx, fx.trainerID, fx.clientID, fx.programID, assignStart.AddDate(0, 0, -28), "")
	require.NoError(t, err)

	result, err := fx.svc.AssignProgramBatch(ctx, fx.trainerID, fx.programID, []primitive.ObjectID{fx.clientID, free}, assignStart, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Assigned, 1)
	assert.Equal(t, free, result.Assigned[0].ClientID)
	assert.Empty(t, result.Conflicts)
}

func TestAssignProgramBatchEmptySelection(t *testing.T) {
	fx := newAssignmentFixture(t)
	_, err := fx.svc.AssignProgramBatch(context.Background(), fx.trainerID, fx.programID, nil, assignStart, "")
	assert.ErrorIs(t, err, ErrNoClientsSelected)
}
