// Package program holds the pure scheduling core: flattening a nested
// program template into an addressable day sequence, projecting that
// sequence onto calendar dates, and computing completion progress.
// Everything here is deterministic, does no I/O, and degrades to empty/zero
// results on malformed input instead of returning errors.
package program

import (
	"alcyxob/coach-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FlattenedDay is one day of a program template in its fully linearized
// form. It is derived on demand and never persisted.
type FlattenedDay struct {
	// Offset is the 0-based position in the full linear sequence.
	Offset int
	// WeekIndex/DayIndex are 1-based and computed over fixed 7-day blocks
	// (offset/7+1, offset%7+1), regardless of authored week boundaries.
	WeekIndex int
	DayIndex  int
	// DayKey is taken verbatim from the authored day; may be empty for
	// templates authored before keys were required.
	DayKey   string
	Title    string
	Workouts []domain.WorkoutRef
}

// PrimaryWorkoutID resolves the representative workout for the day: the
// first reference whose source is the catalog. External/legacy references
// never resolve.
func (d FlattenedDay) PrimaryWorkoutID() (primitive.ObjectID, bool) {
	for _, ref := range d.Workouts {
		if ref.IsCatalog() {
			return ref.WorkoutID, true
		}
	}
	return primitive.NilObjectID, false
}

// Flatten linearizes a program template into document order: phase order,
// then week order, then day order, with Offset strictly increasing from 0.
// A day's references come from the multi-workout list if present, else the
// single legacy reference if present, else none.
func Flatten(tpl *domain.ProgramTemplate) []FlattenedDay {
	if tpl == nil {
		return nil
	}
	var days []FlattenedDay
	offset := 0
	for _, phase := range tpl.Phases {
		for _, week := range phase.Weeks {
			for _, day := range week.Days {
				days = append(days, FlattenedDay{
					Offset:    offset,
					WeekIndex: offset/7 + 1,
					DayIndex:  offset%7 + 1,
					DayKey:    day.DayKey,
					Title:     day.Title,
					Workouts:  dayWorkoutRefs(day),
				})
				offset++
			}
		}
	}
	return days
}

// TotalDays returns the number of authored days without materializing the
// flattened slice.
func TotalDays(tpl *domain.ProgramTemplate) int {
	if tpl == nil {
		return 0
	}
	total := 0
	for _, phase := range tpl.Phases {
		for _, week := range phase.Weeks {
			total += len(week.Days)
		}
	}
	return total
}

func dayWorkoutRefs(day domain.ProgramDay) []domain.WorkoutRef {
	if len(day.Workouts) > 0 {
		return day.Workouts
	}
	if day.Workout != nil {
		return []domain.WorkoutRef{*day.Workout}
	}
	return nil
}
