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

type scheduleFixture struct {
	*assignmentFixture
	svc        ScheduleService
	assignment *domain.ProgramAssignment
}

func newScheduleFixture(t *testing.T) *scheduleFixture {
	t.Helper()
	base := newAssignmentFixture(t)
	fx := &scheduleFixture{
		assignmentFixture: base,
		svc:               NewScheduleService(base.programRepo, base.programAsgRepo, base.workoutAsgRepo),
	}
	assignment, conflict, err := base.svc.AssignProgram(context.Background(), base.trainerID, base.clientID, base.programID, assignStart, "")
	require.NoError(t, err)
	require.Nil(t, conflict)
	fx.assignment = assignment
	return fx
}

func TestGetScheduleProjectsTemplateOntoCalendar(t *testing.T) {
	fx := newScheduleFixture(t)

	days, summary, err := fx.svc.GetSchedule(context.Background(), fx.clientID, fx.assignment.ID)
	require.NoError(t, err)
	require.Len(t, days, 4)

	assert.Equal(t, "w1d1", days[0].DayKey)
	assert.Equal(t, 1, days[0].WeekIndex)
	assert.Equal(t, 1, days[0].DayIndex)
	require.NotNil(t, days[0].WorkoutID)
	assert.Equal(t, fx.pushID, *days[0].WorkoutID)
	assert.Equal(t, program.DateForOffset(fx.assignment.StartDate, 0), days[0].Date)

	// The rest day keeps its slot in the projection, just without a
	// workout.
	assert.Equal(t, "w1d2", days[1].DayKey)
	assert.Nil(t, days[1].WorkoutID)

	// Document order across weeks, not padded to 7-day weeks: the second
	// week starts at offset 3.
	assert.Equal(t, "w2d1", days[3].DayKey)
	assert.Equal(t, 3, days[3].Offset)
	assert.Nil(t, days[3].WorkoutID, "external reference never resolves")

	assert.Equal(t, 0, summary.CompletedDays)
	assert.Equal(t, 4, summary.TotalDays)
	assert.Equal(t, 0, summary.Percent)
}

func TestMarkDayCompleteIsIdempotent(t *testing.T) {
	fx := newScheduleFixture(t)
	ctx := context.Background()

	summary, err := fx.svc.MarkDayComplete(ctx, fx.clientID, fx.assignment.ID, "w1d1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CompletedDays)
	assert.Equal(t, 25, summary.Percent)
	assert.NotNil(t, summary.LastCompletedAt)

	// Double-tap: same post-state, no double count.
	summary, err = fx.svc.MarkDayComplete(ctx, fx.clientID, fx.assignment.ID, "w1d1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CompletedDays)

	days, _, err := fx.svc.GetSchedule(ctx, fx.clientID, fx.assignment.ID)
	require.NoError(t, err)
	assert.True(t, days[0].Completed)
	assert.False(t, days[1].Completed)
}

func TestUnmarkDayComplete(t *testing.T) {
	fx := newScheduleFixture(t)
	ctx := context.Background()

	_, err := fx.svc.MarkDayComplete(ctx, fx.clientID, fx.assignment.ID, "w1d1")
	require.NoError(t, err)
	_, err = fx.svc.MarkDayComplete(ctx, fx.clientID, fx.assignment.ID, "w1d3")
	require.NoError(t, err)

	summary, err := fx.svc.UnmarkDayComplete(ctx, fx.clientID, fx.assignment.ID, "w1d1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CompletedDays)

	// Unmarking a day that was never marked is a no-op.
	summary, err = fx.svc.UnmarkDayComplete(ctx, fx.clientID, fx.assignment.ID, "w1d2")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CompletedDays)
}

func TestMarkDayCompleteGuards(t *testing.T) {
	fx := newScheduleFixture(t)
	ctx := context.Background()

	_, err := fx.svc.MarkDayComplete(ctx, fx.clientID, fx.assignment.ID, "")
	assert.Error(t, err)

	_, err = fx.svc.MarkDayComplete(ctx, primitive.NewObjectID(), fx.assignment.ID, "w1d1")
	assert.ErrorIs(t, err, ErrAssignmentNotFound, "another client's assignment is invisible")

	_, err = fx.svc.MarkDayComplete(ctx, fx.clientID, primitive.NewObjectID(), "w1d1")
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestGetTodayPlanCombinesProgramAndStandalone(t *testing.T) {
	fx := newScheduleFixture(t)
	ctx := context.Background()

	// A standalone workout on day 3 of the program (offset 2, "w1d3").
	today := assignStart.AddDate(0, 0, 2)
	_, err := fx.assignmentFixture.svc.AssignWorkout(ctx, fx.trainerID, fx.pushID, []primitive.ObjectID{fx.clientID}, today)
	require.NoError(t, err)

	plan, err := fx.svc.GetTodayPlan(ctx, fx.clientID, today)
	require.NoError(t, err)

	require.NotNil(t, plan.ProgramDay)
	assert.Equal(t, "w1d3", plan.ProgramDay.DayKey)
	require.NotNil(t, plan.ProgramDay.WorkoutID)
	assert.Equal(t, fx.pullID, *plan.ProgramDay.WorkoutID)
	require.NotNil(t, plan.ProgramAssignmentID)
	assert.Equal(t, fx.assignment.ID, *plan.ProgramAssignmentID)

	require.Len(t, plan.Standalone, 1)
	assert.Equal(t, fx.pushID, plan.Standalone[0].WorkoutID)
}

func TestGetTodayPlanOutsideProgramWindow(t *testing.T) {
	fx := newScheduleFixture(t)
	ctx := context.Background()

	// Before the start date: no program day, no error.
	plan, err := fx.svc.GetTodayPlan(ctx, fx.clientID, assignStart.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Nil(t, plan.ProgramDay)

	// Past the last flattened day: the program is simply over.
	plan, err = fx.svc.GetTodayPlan(ctx, fx.clientID, assignStart.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Nil(t, plan.ProgramDay)
	assert.NotNil(t, plan.Standalone, "standalone list is always present")
}

func TestGetTodayPlanIgnoresArchivedPrograms(t *testing.T) {
	fx := newScheduleFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.assignmentFixture.svc.ArchiveAssignment(ctx, fx.trainerID, fx.assignment.ID))

	plan, err := fx.svc.GetTodayPlan(ctx, fx.clientID, assignStart)
	require.NoError(t, err)
	assert.Nil(t, plan.ProgramDay)
}

func TestGetTodayPlanSkipsDeletedTemplate(t *testing.T) {
	fx := newScheduleFixture(t)
	ctx := context.Background()

	delete(fx.programRepo.programs, fx.programID)

	plan, err := fx.svc.GetTodayPlan(ctx, fx.clientID, assignStart)
	require.NoError(t, err)
	assert.Nil(t, plan.ProgramDay)
}

func TestGetScheduleNormalizesDuplicateKeys(t *testing.T) {
	fx := newScheduleFixture(t)
	ctx := context.Background()

	// Simulate historical double-writes in the stored array; reads must
	// treat it as a set.
	stored := fx.programAsgRepo.assignments[fx.assignment.ID]
	stored.Progress.CompletedDayKeys = []string{"w1d1", "w1d1", "", "w1d3"}
	now := time.Now().UTC()
	stored.Progress.LastCompletedAt = &now

	_, summary, err := fx.svc.GetSchedule(ctx, fx.clientID, fx.assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.CompletedDays)
	assert.Equal(t, 50, summary.Percent)
}
