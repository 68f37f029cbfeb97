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

// --- Error Definitions ---
var (
	ErrWorkoutNotFound    = errors.New("workout template not found")
	ErrProgramNotFound    = errors.New("program template not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrClientNotFound     = errors.New("client user not found")
	ErrClientNotManaged   = errors.New("client is not managed by this trainer")
	ErrNoClientsSelected  = errors.New("no clients selected")
	ErrInvalidResolution  = errors.New("resolution not applicable to this assignment")
	ErrActiveProgram      = errors.New("client already has an active program assignment")
)

// DuplicateResolution names one way out of a duplicate-assignment conflict.
type DuplicateResolution string

const (
	// ResolutionReactivate flips an archived duplicate back to active,
	// keeping its progress.
	ResolutionReactivate DuplicateResolution = "reactivate"
	// ResolutionResetProgress empties the completed-day set of an active
	// duplicate without touching its status.
	ResolutionResetProgress DuplicateResolution = "reset_progress"
	// ResolutionResetAndReactivate does both, for an archived duplicate
	// being restarted from scratch.
	ResolutionResetAndReactivate DuplicateResolution = "reset_and_reactivate"
)

// DuplicateConflict is the typed outcome of hitting the unique
// (client, program, startDate) constraint. It is not an error to the user:
// the caller presents Resolutions and calls ResolveDuplicate with the pick.
type DuplicateConflict struct {
	Existing    *domain.ProgramAssignment
	Resolutions []DuplicateResolution
}

// BatchAssignResult reports a batch program assignment: clients that got a
// new assignment vs. clients skipped because they already hold an active
// program (one active program per client at a time).
type BatchAssignResult struct {
	Assigned  []domain.ProgramAssignment
	Skipped   int
	Conflicts []DuplicateConflict
}

// --- Service Interface ---
type AssignmentService interface {
	// Standalone workouts
	AssignWorkout(ctx context.Context, trainerID, workoutID primitive.ObjectID, clientIDs []primitive.ObjectID, scheduledFor time.Time) (int, error)

	// Program assignments
	AssignProgram(ctx context.Context, trainerID, clientID, programID primitive.ObjectID, startDate time.Time, notes string) (*domain.ProgramAssignment, *DuplicateConflict, error)
	AssignProgramBatch(ctx context.Context, trainerID, programID primitive.ObjectID, clientIDs []primitive.ObjectID, startDate time.Time, notes string) (*BatchAssignResult, error)
	ResolveDuplicate(ctx context.Context, trainerID, assignmentID primitive.ObjectID, resolution DuplicateResolution) (*domain.ProgramAssignment, error)
	UpdateStartDate(ctx context.Context, trainerID, assignmentID primitive.ObjectID, newStartDate time.Time) (*domain.ProgramAssignment, error)
	ArchiveAssignment(ctx context.Context, trainerID, assignmentID primitive.ObjectID) error
}

// --- Service Implementation ---

type assignmentService struct {
	userRepo       repository.UserRepository
	programRepo    repository.ProgramTemplateRepository
	workoutRepo    repository.WorkoutTemplateRepository
	programAsgRepo repository.ProgramAssignmentRepository
	workoutAsgRepo repository.WorkoutAssignmentRepository
}

// NewAssignmentService creates a new instance of assignmentService.
func NewAssignmentService(
	userRepo repository.UserRepository,
	programRepo repository.ProgramTemplateRepository,
	workoutRepo repository.WorkoutTemplateRepository,
	programAsgRepo repository.ProgramAssignmentRepository,
	workoutAsgRepo repository.WorkoutAssignmentRepository,
) AssignmentService {
	return &assignmentService{
		userRepo:       userRepo,
		programRepo:    programRepo,
		workoutRepo:    workoutRepo,
		programAsgRepo: programAsgRepo,
		workoutAsgRepo: workoutAsgRepo,
	}
}

// === Standalone workout assignment ===

// AssignWorkout assigns one workout template to a batch of clients for a
// given date. The template is verified first: a stale picker selection may
// reference a workout deleted in the meantime, and that must surface as a
// distinct not-found failure before any row is written.
func (s *assignmentService) AssignWorkout(ctx context.Context, trainerID, workoutID primitive.ObjectID, clientIDs []primitive.ObjectID, scheduledFor time.Time) (int, error) {
	if trainerID == primitive.NilObjectID || workoutID == primitive.NilObjectID {
		return 0, errors.New("trainer ID and workout ID are required")
	}
	if len(clientIDs) == 0 {
		return 0, ErrNoClientsSelected
	}

	if _, err := s.workoutRepo.GetByID(ctx, workoutID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrWorkoutNotFound
		}
		return 0, err
	}

	assigned := 0
	for _, clientID := range clientIDs {
		if err := s.verifyManagedClient(ctx, trainerID, clientID); err != nil {
			return assigned, err
		}
		assignment := &domain.WorkoutAssignment{
			TrainerID:    trainerID,
			ClientID:     clientID,
			WorkoutID:    workoutID,
			ScheduledFor: program.AnchorDate(scheduledFor),
			Source:       domain.WorkoutAssignedManually,
		}
		if _, err := s.workoutAsgRepo.Create(ctx, assignment); err != nil {
			return assigned, err
		}
		assigned++
	}
	return assigned, nil
}

// === Program assignment ===

// AssignProgram binds a program template to one client starting at a date.
// A client holds at most one active program: if the client's active
// assignment occupies this exact (client, program, startDate) triple it is
// returned as a DuplicateConflict carrying the applicable resolutions; any
// other active assignment blocks the call with ErrActiveProgram.
func (s *assignmentService) AssignProgram(ctx context.Context, trainerID, clientID, programID primitive.ObjectID, startDate time.Time, notes string) (*domain.ProgramAssignment, *DuplicateConflict, error) {
	if trainerID == primitive.NilObjectID || clientID == primitive.NilObjectID || programID == primitive.NilObjectID {
		return nil, nil, errors.New("trainer ID, client ID, and program ID are required")
	}

	tpl, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrProgramNotFound
		}
		return nil, nil, err
	}

	if err := s.verifyManagedClient(ctx, trainerID, clientID); err != nil {
		return nil, nil, err
	}

	start := program.AnchorDate(startDate)

	activeIDs, err := s.programAsgRepo.ActiveClientIDs(ctx, []primitive.ObjectID{clientID})
	if err != nil {
		return nil, nil, err
	}
	if len(activeIDs) > 0 {
		existing, err := s.programAsgRepo.GetByTriple(ctx, clientID, programID, start)
		if err == nil && existing.Status == domain.ProgramStatusActive {
			conflict, confErr := s.buildConflict(ctx, clientID, programID, start)
			return nil, conflict, confErr
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, nil, err
		}
		// The active assignment is a different program (or date); an
		// archived row on this triple must not be offered for reactivation
		// while another program is running.
		return nil, nil, ErrActiveProgram
	}
	assignment := &domain.ProgramAssignment{
		TrainerID: trainerID,
		ClientID:  clientID,
		ProgramID: programID,
		StartDate: start,
		Status:    domain.ProgramStatusActive,
		Notes:     notes,
	}

	assignmentID, err := s.programAsgRepo.Create(ctx, assignment)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			conflict, confErr := s.buildConflict(ctx, clientID, programID, start)
			return nil, conflict, confErr
		}
		return nil, nil, err
	}
	assignment.ID = assignmentID

	// Generate the per-day workout rows so the program-level and
	// workout-level views stay consistent. replaceExisting=false keeps the
	// step idempotent if it is re-run.
	if err := s.generateWorkoutRows(ctx, assignment, tpl, false); err != nil {
		return nil, nil, err
	}
	return assignment, nil, nil
}

// AssignProgramBatch assigns one program to many clients at once, applying
// the pre-assignment lock: clients who already hold an active program
// assignment are excluded up front and reported as skipped.
func (s *assignmentService) AssignProgramBatch(ctx context.Context, trainerID, programID primitive.ObjectID, clientIDs []primitive.ObjectID, startDate time.Time, notes string) (*BatchAssignResult, error) {
	if len(clientIDs) == 0 {
		return nil, ErrNoClientsSelected
	}

	activeIDs, err := s.programAsgRepo.ActiveClientIDs(ctx, clientIDs)
	if err != nil {
		return nil, err
	}
	active := make(map[primitive.ObjectID]struct{}, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = struct{}{}
	}

	result := &BatchAssignResult{}
	for _, clientID := range clientIDs {
		if _, locked := active[clientID]; locked {
			result.Skipped++
			continue
		}
		assignment, conflict, err := s.AssignProgram(ctx, trainerID, clientID, programID, startDate, notes)
		if err != nil {
			return result, err
		}
		if conflict != nil {
			result.Conflicts = append(result.Conflicts, *conflict)
			continue
		}
		result.Assigned = append(result.Assigned, *assignment)
	}
	return result, nil
}

// buildConflict re-fetches the row occupying the unique triple and decides
// which resolutions apply: an archived duplicate can be reactivated (with or
// without a progress reset), an active duplicate can only have its progress
// reset — it is never silently replaced.
func (s *assignmentService) buildConflict(ctx context.Context, clientID, programID primitive.ObjectID, startDate time.Time) (*DuplicateConflict, error) {
	existing, err := s.programAsgRepo.GetByTriple(ctx, clientID, programID, startDate)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// The row vanished between insert and re-fetch; treat as a
			// transient failure and let the caller retry.
			return nil, repository.ErrDuplicateKey
		}
		return nil, err
	}

	conflict := &DuplicateConflict{Existing: existing}
	switch existing.Status {
	case domain.ProgramStatusActive:
		conflict.Resolutions = []DuplicateResolution{ResolutionResetProgress}
	default:
		conflict.Resolutions = []DuplicateResolution{ResolutionReactivate, ResolutionResetAndReactivate}
	}
	return conflict, nil
}

// ResolveDuplicate applies the trainer's pick for a duplicate conflict.
// Every path that reactivates or resets also regenerates the per-day rows
// with replaceExisting=true, so previously generated rows are rebuilt from
// the template's current shape.
func (s *assignmentService) ResolveDuplicate(ctx context.Context, trainerID, assignmentID primitive.ObjectID, resolution DuplicateResolution) (*domain.ProgramAssignment, error) {
	assignment, err := s.getOwnedAssignment(ctx, trainerID, assignmentID)
	if err != nil {
		return nil, err
	}

	switch resolution {
	case ResolutionReactivate:
		if assignment.Status == domain.ProgramStatusActive {
			return nil, ErrInvalidResolution
		}
		if err := s.programAsgRepo.Reactivate(ctx, assignmentID); err != nil {
			return nil, err
		}
	case ResolutionResetProgress:
		if assignment.Status != domain.ProgramStatusActive {
			return nil, ErrInvalidResolution
		}
		if err := s.programAsgRepo.ResetProgress(ctx, assignmentID); err != nil {
			return nil, err
		}
	case ResolutionResetAndReactivate:
		if assignment.Status == domain.ProgramStatusActive {
			return nil, ErrInvalidResolution
		}
		if err := s.programAsgRepo.ResetProgress(ctx, assignmentID); err != nil {
			return nil, err
		}
		if err := s.programAsgRepo.Reactivate(ctx, assignmentID); err != nil {
			return nil, err
		}
	default:
		return nil, ErrInvalidResolution
	}

	if err := s.regenerateWorkoutRows(ctx, assignmentID); err != nil {
		return nil, err
	}
	return s.programAsgRepo.GetByID(ctx, assignmentID)
}

// UpdateStartDate moves an assignment to a new start date and regenerates
// all derived rows with replaceExisting=true, since every offset's calendar
// date shifts.
func (s *assignmentService) UpdateStartDate(ctx context.Context, trainerID, assignmentID primitive.ObjectID, newStartDate time.Time) (*domain.ProgramAssignment, error) {
	if _, err := s.getOwnedAssignment(ctx, trainerID, assignmentID); err != nil {
		return nil, err
	}

	if err := s.programAsgRepo.UpdateStartDate(ctx, assignmentID, program.AnchorDate(newStartDate)); err != nil {
		return nil, err
	}
	if err := s.regenerateWorkoutRows(ctx, assignmentID); err != nil {
		return nil, err
	}
	return s.programAsgRepo.GetByID(ctx, assignmentID)
}

// ArchiveAssignment soft-deletes a program assignment. The row keeps
// occupying its unique triple, which is exactly what the reactivation flow
// exists for.
func (s *assignmentService) ArchiveAssignment(ctx context.Context, trainerID, assignmentID primitive.ObjectID) error {
	if _, err := s.getOwnedAssignment(ctx, trainerID, assignmentID); err != nil {
		return err
	}
	return s.programAsgRepo.Archive(ctx, assignmentID)
}

// === Day-row generation ===

// regenerateWorkoutRows reloads the assignment and its template and rebuilds
// the derived rows with replaceExisting=true.
func (s *assignmentService) regenerateWorkoutRows(ctx context.Context, assignmentID primitive.ObjectID) error {
	assignment, err := s.programAsgRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}
	tpl, err := s.programRepo.GetByID(ctx, assignment.ProgramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProgramNotFound
		}
		return err
	}
	return s.generateWorkoutRows(ctx, assignment, tpl, true)
}

// generateWorkoutRows turns the flattened template into dated workout rows:
// one row per day that resolves to a catalog workout, scheduled at
// startDate + offset. Rest days and external references produce no row.
func (s *assignmentService) generateWorkoutRows(ctx context.Context, assignment *domain.ProgramAssignment, tpl *domain.ProgramTemplate, replaceExisting bool) error {
	days := program.Flatten(tpl)
	rows := make([]domain.WorkoutAssignment, 0, len(days))
	for _, day := range days {
		workoutID, ok := day.PrimaryWorkoutID()
		if !ok {
			continue
		}
		rows = append(rows, domain.WorkoutAssignment{
			TrainerID:           assignment.TrainerID,
			ClientID:            assignment.ClientID,
			WorkoutID:           workoutID,
			ScheduledFor:        program.DateForOffset(assignment.StartDate, day.Offset),
			Source:              domain.WorkoutAssignedFromProgram,
			ProgramAssignmentID: &assignment.ID,
			ProgramDayKey:       day.DayKey,
		})
	}

	if replaceExisting {
		return s.workoutAsgRepo.ReplaceForProgram(ctx, assignment.ID, rows)
	}
	return s.workoutAsgRepo.InsertMissingForProgram(ctx, assignment.ID, rows)
}

// verifyManagedClient ensures the target user exists, is a client, and is
// managed by the requesting trainer.
func (s *assignmentService) verifyManagedClient(ctx context.Context, trainerID, clientID primitive.ObjectID) error {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}
	if !client.IsClient() || client.TrainerID == nil || *client.TrainerID != trainerID {
		return ErrClientNotManaged
	}
	return nil
}

func (s *assignmentService) getOwnedAssignment(ctx context.Context, trainerID, assignmentID primitive.ObjectID) (*domain.ProgramAssignment, error) {
	assignment, err := s.programAsgRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	if assignment.TrainerID != trainerID {
		return nil, ErrAssignmentNotFound
	}
	return assignment, nil
}
