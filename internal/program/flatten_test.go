package program_test

import (
	"testing"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/program"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func day(key string, refs ...domain.WorkoutRef) domain.ProgramDay {
	return domain.ProgramDay{DayKey: key, Workouts: refs}
}

func catalogRef(id primitive.ObjectID) domain.WorkoutRef {
	return domain.WorkoutRef{Source: domain.WorkoutSourceCatalog, WorkoutID: id}
}

func TestFlatten_OffsetsAndWeekDayIndices(t *testing.T) {
	// 2 phases, uneven authored weeks: 5 + 3 + 9 days = 17 total.
	tpl := &domain.ProgramTemplate{
		Phases: []domain.ProgramPhase{
			{Weeks: []domain.ProgramWeek{
				{Days: []domain.ProgramDay{day("d1"), day("d2"), day("d3"), day("d4"), day("d5")}},
				{Days: []domain.ProgramDay{day("d6"), day("d7"), day("d8")}},
			}},
			{Weeks: []domain.ProgramWeek{
				{Days: []domain.ProgramDay{
					day("d9"), day("d10"), day("d11"), day("d12"), day("d13"),
					day("d14"), day("d15"), day("d16"), day("d17"),
				}},
			}},
		},
	}

	days := program.Flatten(tpl)
	require.Len(t, days, 17)

	for i, d := range days {
		assert.Equal(t, i, d.Offset)
		// week/day indices follow fixed 7-day blocks, not authored weeks
		assert.Equal(t, i/7+1, d.WeekIndex)
		assert.Equal(t, i%7+1, d.DayIndex)
	}

	// document order: phase -> week -> day
	assert.Equal(t, "d1", days[0].DayKey)
	assert.Equal(t, "d6", days[5].DayKey)
	assert.Equal(t, "d9", days[8].DayKey)
	assert.Equal(t, "d17", days[16].DayKey)

	assert.Equal(t, 17, program.TotalDays(tpl))
}

func TestFlatten_EmptyInputs(t *testing.T) {
	assert.Nil(t, program.Flatten(nil))
	assert.Empty(t, program.Flatten(&domain.ProgramTemplate{}))
	assert.Zero(t, program.TotalDays(nil))
}

func TestFlatten_WorkoutRefResolution(t *testing.T) {
	multiID := primitive.NewObjectID()
	legacyID := primitive.NewObjectID()

	legacy := catalogRef(legacyID)
	tpl := &domain.ProgramTemplate{
		Phases: []domain.ProgramPhase{{Weeks: []domain.ProgramWeek{{
			Days: []domain.ProgramDay{
				// multi list wins over the legacy single ref
				{DayKey: "a", Workouts: []domain.WorkoutRef{catalogRef(multiID)}, Workout: &legacy},
				// legacy single ref used when no list is present
				{DayKey: "b", Workout: &legacy},
				// rest day
				{DayKey: "c"},
			},
		}}}},
	}

	days := program.Flatten(tpl)
	require.Len(t, days, 3)

	id, ok := days[0].PrimaryWorkoutID()
	require.True(t, ok)
	assert.Equal(t, multiID, id)

	id, ok = days[1].PrimaryWorkoutID()
	require.True(t, ok)
	assert.Equal(t, legacyID, id)

	_, ok = days[2].PrimaryWorkoutID()
	assert.False(t, ok)
}

func TestFlatten_ExternalRefsNeverResolve(t *testing.T) {
	catalogID := primitive.NewObjectID()
	tpl := &domain.ProgramTemplate{
		Phases: []domain.ProgramPhase{{Weeks: []domain.ProgramWeek{{
			Days: []domain.ProgramDay{
				// first CATALOG ref is the representative, skipping externals
				day("a",
					domain.WorkoutRef{Source: domain.WorkoutSourceExternal},
					catalogRef(catalogID),
				),
				// only external refs: day has no representative workout
				day("b", domain.WorkoutRef{Source: domain.WorkoutSourceExternal}),
			},
		}}}},
	}

	days := program.Flatten(tpl)
	require.Len(t, days, 2)

	id, ok := days[0].PrimaryWorkoutID()
	require.True(t, ok)
	assert.Equal(t, catalogID, id)

	_, ok = days[1].PrimaryWorkoutID()
	assert.False(t, ok)
}
