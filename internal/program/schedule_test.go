package program_test

import (
	"testing"
	"time"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/program"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDateForOffset_RoundTripsAcrossDST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// Start shortly before the March DST transition, expressed in local
	// wall-clock time; offsets up to 400 cross two transitions.
	starts := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 25, 23, 30, 0, 0, berlin),
		time.Date(2024, 10, 26, 8, 0, 0, 0, berlin),
	}

	for _, start := range starts {
		for offset := 0; offset <= 400; offset++ {
			projected := program.DateForOffset(start, offset)
			assert.Equal(t, offset, program.DaysBetween(start, projected),
				"start=%v offset=%d", start, offset)
		}
	}
}

func TestOffsetForDate(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	offset, ok := program.OffsetForDate(start, start)
	require.True(t, ok)
	assert.Equal(t, 0, offset)

	offset, ok = program.OffsetForDate(start, start.AddDate(0, 0, 13))
	require.True(t, ok)
	assert.Equal(t, 13, offset)

	// before the start date: program hasn't started
	_, ok = program.OffsetForDate(start, start.AddDate(0, 0, -1))
	assert.False(t, ok)
}

func TestDaysBetween_IgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)
	b := time.Date(2024, 5, 2, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, program.DaysBetween(a, b))
	assert.Equal(t, -1, program.DaysBetween(b, a))
	assert.Equal(t, 0, program.DaysBetween(a, a))
}

func TestWorkoutForDate(t *testing.T) {
	workoutID := primitive.NewObjectID()
	tpl := &domain.ProgramTemplate{
		Phases: []domain.ProgramPhase{{Weeks: []domain.ProgramWeek{{
			Days: []domain.ProgramDay{
				{DayKey: "d1"},
				{DayKey: "d2", Workouts: []domain.WorkoutRef{
					{Source: domain.WorkoutSourceCatalog, WorkoutID: workoutID},
				}},
			},
		}}}},
	}
	days := program.Flatten(tpl)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	// day 0 is a rest day
	_, ok := program.WorkoutForDate(days, start, start)
	assert.False(t, ok)

	id, ok := program.WorkoutForDate(days, start, start.AddDate(0, 0, 1))
	require.True(t, ok)
	assert.Equal(t, workoutID, id)

	// past the end of the program
	_, ok = program.WorkoutForDate(days, start, start.AddDate(0, 0, 2))
	assert.False(t, ok)

	// before the start
	_, ok = program.WorkoutForDate(days, start, start.AddDate(0, 0, -1))
	assert.False(t, ok)
}
