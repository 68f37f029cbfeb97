package service

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/program"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleDay is one day of a client's program, projected onto the
// calendar with its completion state.
type ScheduleDay struct {
	Offset    int                 `json:"offset"`
	WeekIndex int                 `json:"weekIndex"`
	DayIndex  int                 `json:"dayIndex"`
	DayKey    string              `json:"dayKey"`
	Title     string              `json:"title,omitempty"`
	Date      time.Time           `json:"date"`
	WorkoutID *primitive.ObjectID `json:"workoutId,omitempty"`
	Completed bool                `json:"completed"`
}

// ProgressSummary is the adherence view over one program assignment.
type ProgressSummary struct {
	CompletedDays   int        `json:"completedDays"`
	TotalDays       int        `json:"totalDays"`
	Percent         int        `json:"percent"`
	LastCompletedAt *time.Time `json:"lastCompletedAt,omitempty"`
}

// TodayPlan is what a client is due to do on a given date: the planned
// program day, if any, plus any standalone workout assignments.
type TodayPlan struct {
	ProgramAssignmentID *primitive.ObjectID        `json:"programAssignmentId,omitempty"`
	ProgramDay          *ScheduleDay               `json:"programDay,omitempty"`
	Standalone          []domain.WorkoutAssignment `json:"standalone"`
}

// --- Service Interface ---
type ScheduleService interface {
	GetSchedule(ctx context.Context, clientID, assignmentID primitive.ObjectID) ([]ScheduleDay, *ProgressSummary, error)
	GetTodayPlan(ctx context.Context, clientID primitive.ObjectID, today time.Time) (*TodayPlan, error)
	MarkDayComplete(ctx context.Context, clientID, assignmentID primitive.ObjectID, dayKey string) (*ProgressSummary, error)
	UnmarkDayComplete(ctx context.Context, clientID, assignmentID primitive.ObjectID, dayKey string) (*ProgressSummary, error)
}

// --- Service Implementation ---

type scheduleService struct {
	programRepo    repository.ProgramTemplateRepository
	programAsgRepo repository.ProgramAssignmentRepository
	workoutAsgRepo repository.WorkoutAssignmentRepository
}

// NewScheduleService creates a new instance of scheduleService.
func NewScheduleService(
	programRepo repository.ProgramTemplateRepository,
	programAsgRepo repository.ProgramAssignmentRepository,
	workoutAsgRepo repository.WorkoutAssignmentRepository,
) ScheduleService {
	return &scheduleService{
		programRepo:    programRepo,
		programAsgRepo: programAsgRepo,
		workoutAsgRepo: workoutAsgRepo,
	}
}

// GetSchedule projects the assignment's flattened template onto calendar
// dates and overlays the completed-day set.
func (s *scheduleService) GetSchedule(ctx context.Context, clientID, assignmentID primitive.ObjectID) ([]ScheduleDay, *ProgressSummary, error) {
	assignment, tpl, err := s.loadAssignment(ctx, clientID, assignmentID)
	if err != nil {
		return nil, nil, err
	}

	days := program.Flatten(tpl)
	completed := keySet(assignment.Progress.CompletedDayKeys)

	schedule := make([]ScheduleDay, 0, len(days))
	for _, day := range days {
		sd := ScheduleDay{
			Offset:    day.Offset,
			WeekIndex: day.WeekIndex,
			DayIndex:  day.DayIndex,
			DayKey:    day.DayKey,
			Title:     day.Title,
			Date:      program.DateForOffset(assignment.StartDate, day.Offset),
		}
		if workoutID, ok := day.PrimaryWorkoutID(); ok {
			sd.WorkoutID = &workoutID
		}
		if _, ok := completed[day.DayKey]; ok && day.DayKey != "" {
			sd.Completed = true
		}
		schedule = append(schedule, sd)
	}

	return schedule, summarize(assignment, len(days)), nil
}

// GetTodayPlan derives what is due today: the active program's day at
// offset daysBetween(startDate, today) plus standalone workout rows
// scheduled for the date. A negative offset means the program hasn't
// started; past the last day means it is over. Neither is an error.
func (s *scheduleService) GetTodayPlan(ctx context.Context, clientID primitive.ObjectID, today time.Time) (*TodayPlan, error) {
	plan := &TodayPlan{Standalone: []domain.WorkoutAssignment{}}

	date := program.AnchorDate(today)
	standalone, err := s.workoutAsgRepo.GetByClientAndDate(ctx, clientID, date)
	if err != nil {
		return nil, err
	}
	for _, wa := range standalone {
		if wa.Source == domain.WorkoutAssignedManually {
			plan.Standalone = append(plan.Standalone, wa)
		}
	}

	assignments, err := s.programAsgRepo.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	for i := range assignments {
		assignment := &assignments[i]
		if assignment.Status != domain.ProgramStatusActive {
			continue
		}
		offset, ok := program.OffsetForDate(assignment.StartDate, date)
		if !ok {
			continue
		}
		tpl, err := s.programRepo.GetByID(ctx, assignment.ProgramID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue // template deleted from under the assignment
			}
			return nil, err
		}
		days := program.Flatten(tpl)
		if offset >= len(days) {
			continue
		}
		day := days[offset]
		completed := keySet(assignment.Progress.CompletedDayKeys)
		sd := ScheduleDay{
			Offset:    day.Offset,
			WeekIndex: day.WeekIndex,
			DayIndex:  day.DayIndex,
			DayKey:    day.DayKey,
			Title:     day.Title,
			Date:      date,
		}
		if workoutID, ok := day.PrimaryWorkoutID(); ok {
			sd.WorkoutID = &workoutID
		}
		if _, ok := completed[day.DayKey]; ok && day.DayKey != "" {
			sd.Completed = true
		}
		plan.ProgramAssignmentID = &assignment.ID
		plan.ProgramDay = &sd
		break // one active program per client
	}

	return plan, nil
}

// MarkDayComplete delegates to the repository's single idempotent set
// operation and recomputes the summary from the authoritative post-state.
func (s *scheduleService) MarkDayComplete(ctx context.Context, clientID, assignmentID primitive.ObjectID, dayKey string) (*ProgressSummary, error) {
	if dayKey == "" {
		return nil, errors.New("day key is required")
	}
	if _, _, err := s.loadAssignment(ctx, clientID, assignmentID); err != nil {
		return nil, err
	}

	updated, err := s.programAsgRepo.MarkDayComplete(ctx, assignmentID, dayKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return s.summaryFor(ctx, updated)
}

// UnmarkDayComplete is the inverse of MarkDayComplete and equally
// idempotent.
func (s *scheduleService) UnmarkDayComplete(ctx context.Context, clientID, assignmentID primitive.ObjectID, dayKey string) (*ProgressSummary, error) {
	if dayKey == "" {
		return nil, errors.New("day key is required")
	}
	if _, _, err := s.loadAssignment(ctx, clientID, assignmentID); err != nil {
		return nil, err
	}

	updated, err := s.programAsgRepo.UnmarkDayComplete(ctx, assignmentID, dayKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return s.summaryFor(ctx, updated)
}

func (s *scheduleService) summaryFor(ctx context.Context, assignment *domain.ProgramAssignment) (*ProgressSummary, error) {
	tpl, err := s.programRepo.GetByID(ctx, assignment.ProgramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return summarize(assignment, program.TotalDays(tpl)), nil
}

func (s *scheduleService) loadAssignment(ctx context.Context, clientID, assignmentID primitive.ObjectID) (*domain.ProgramAssignment, *domain.ProgramTemplate, error) {
	assignment, err := s.programAsgRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrAssignmentNotFound
		}
		return nil, nil, err
	}
	if assignment.ClientID != clientID {
		return nil, nil, ErrAssignmentNotFound
	}
	tpl, err := s.programRepo.GetByID(ctx, assignment.ProgramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrProgramNotFound
		}
		return nil, nil, err
	}
	return assignment, tpl, nil
}

func summarize(assignment *domain.ProgramAssignment, totalDays int) *ProgressSummary {
	completed := program.NormalizeCompletedDayKeys(assignment.Progress.CompletedDayKeys)
	return &ProgressSummary{
		CompletedDays:   len(completed),
		TotalDays:       totalDays,
		Percent:         program.PercentComplete(len(completed), totalDays),
		LastCompletedAt: assignment.Progress.LastCompletedAt,
	}
}

func keySet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, key := range program.NormalizeCompletedDayKeys(keys) {
		set[key] = struct{}{}
	}
	return set
}
