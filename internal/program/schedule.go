package program

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Calendar-day arithmetic for mapping assignment start dates to flattened
// offsets. All math is anchored to 12:00 UTC of the calendar date so that
// local midnight boundaries shifting with DST can never move a day on or
// off the schedule.

// AnchorDate strips a timestamp down to its calendar date, anchored at noon
// UTC of that date.
func AnchorDate(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 12, 0, 0, 0, time.UTC)
}

// DateForOffset returns the calendar date of the day at the given flattened
// offset for an assignment starting at startDate.
func DateForOffset(startDate time.Time, offset int) time.Time {
	return AnchorDate(startDate).AddDate(0, 0, offset)
}

// DaysBetween returns the number of whole calendar days from 'from' to
// 'to'; negative when 'to' is before 'from'.
func DaysBetween(from, to time.Time) int {
	return int(AnchorDate(to).Sub(AnchorDate(from)).Hours() / 24)
}

// OffsetForDate maps a calendar date back to a flattened offset. The bool
// is false when the date falls before the start (program hasn't started).
func OffsetForDate(startDate, date time.Time) (int, bool) {
	offset := DaysBetween(startDate, date)
	if offset < 0 {
		return 0, false
	}
	return offset, true
}

// WorkoutForDate resolves the representative workout id planned for the
// given date: the flattened day at the date's offset, if it exists and
// carries a catalog workout reference.
func WorkoutForDate(days []FlattenedDay, startDate, date time.Time) (primitive.ObjectID, bool) {
	offset, ok := OffsetForDate(startDate, date)
	if !ok || offset >= len(days) {
		return primitive.NilObjectID, false
	}
	return days[offset].PrimaryWorkoutID()
}
