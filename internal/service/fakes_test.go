package service

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They mirror the storage contracts closely
// enough for service-level tests: the program assignment fake enforces the
// unique (clientId, programId, startDate) triple, the workout assignment
// fake implements both row-generation modes.

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	stored := *user
	stored.ID = id
	f.users[id] = &stored
	return id, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) AddClientIDToTrainer(_ context.Context, trainerID, clientID primitive.ObjectID) error {
	trainer, ok := f.users[trainerID]
	if !ok {
		return repository.ErrNotFound
	}
	trainer.ClientIDs = append(trainer.ClientIDs, clientID)
	return nil
}

func (f *fakeUserRepo) SetTrainerForClient(_ context.Context, clientID, trainerID primitive.ObjectID) error {
	client, ok := f.users[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	client.TrainerID = &trainerID
	return nil
}

func (f *fakeUserRepo) GetClientsByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	var out []domain.User
	for _, user := range f.users {
		if user.TrainerID != nil && *user.TrainerID == trainerID {
			out = append(out, *user)
		}
	}
	return out, nil
}

type fakeProgramRepo struct {
	programs map[primitive.ObjectID]*domain.ProgramTemplate
}

func newFakeProgramRepo() *fakeProgramRepo {
	return &fakeProgramRepo{programs: make(map[primitive.ObjectID]*domain.ProgramTemplate)}
}

func (f *fakeProgramRepo) Create(_ context.Context, tpl *domain.ProgramTemplate) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	stored := *tpl
	stored.ID = id
	f.programs[id] = &stored
	return id, nil
}

func (f *fakeProgramRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ProgramTemplate, error) {
	tpl, ok := f.programs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return tpl, nil
}

func (f *fakeProgramRepo) GetByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.ProgramTemplate, error) {
	var out []domain.ProgramTemplate
	for _, tpl := range f.programs {
		if tpl.TrainerID == trainerID {
			out = append(out, *tpl)
		}
	}
	return out, nil
}

type fakeWorkoutRepo struct {
	workouts map[primitive.ObjectID]*domain.WorkoutTemplate
}

func newFakeWorkoutRepo() *fakeWorkoutRepo {
	return &fakeWorkoutRepo{workouts: make(map[primitive.ObjectID]*domain.WorkoutTemplate)}
}

func (f *fakeWorkoutRepo) Create(_ context.Context, workout *domain.WorkoutTemplate) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	stored := *workout
	stored.ID = id
	f.workouts[id] = &stored
	return id, nil
}

func (f *fakeWorkoutRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	workout, ok := f.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return workout, nil
}

func (f *fakeWorkoutRepo) GetByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.WorkoutTemplate, error) {
	var out []domain.WorkoutTemplate
	for _, workout := range f.workouts {
		if workout.TrainerID == trainerID {
			out = append(out, *workout)
		}
	}
	return out, nil
}

type fakeProgramAsgRepo struct {
	assignments map[primitive.ObjectID]*domain.ProgramAssignment
}

func newFakeProgramAsgRepo() *fakeProgramAsgRepo {
	return &fakeProgramAsgRepo{assignments: make(map[primitive.ObjectID]*domain.ProgramAssignment)}
}

func (f *fakeProgramAsgRepo) Create(_ context.Context, assignment *domain.ProgramAssignment) (primitive.ObjectID, error) {
	for _, existing := range f.assignments {
		if existing.ClientID == assignment.ClientID &&
			existing.ProgramID == assignment.ProgramID &&
			existing.StartDate.Equal(assignment.StartDate) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
	}
	id := primitive.NewObjectID()
	stored := *assignment
	stored.ID = id
	f.assignments[id] = &stored
	return id, nil
}

func (f *fakeProgramAsgRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ProgramAssignment, error) {
	assignment, ok := f.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *assignment
	return &copied, nil
}

func (f *fakeProgramAsgRepo) GetByTriple(_ context.Context, clientID, programID primitive.ObjectID, startDate time.Time) (*domain.ProgramAssignment, error) {
	for _, assignment := range f.assignments {
		if assignment.ClientID == clientID && assignment.ProgramID == programID && assignment.StartDate.Equal(startDate) {
			copied := *assignment
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProgramAsgRepo) GetByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.ProgramAssignment, error) {
	var out []domain.ProgramAssignment
	for _, assignment := range f.assignments {
		if assignment.ClientID == clientID {
			out = append(out, *assignment)
		}
	}
	return out, nil
}

func (f *fakeProgramAsgRepo) ActiveClientIDs(_ context.Context, clientIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	wanted := make(map[primitive.ObjectID]struct{}, len(clientIDs))
	for _, id := range clientIDs {
		wanted[id] = struct{}{}
	}
	seen := make(map[primitive.ObjectID]struct{})
	var out []primitive.ObjectID
	for _, assignment := range f.assignments {
		if assignment.Status != domain.ProgramStatusActive {
			continue
		}
		if _, ok := wanted[assignment.ClientID]; !ok {
			continue
		}
		if _, dup := seen[assignment.ClientID]; dup {
			continue
		}
		seen[assignment.ClientID] = struct{}{}
		out = append(out, assignment.ClientID)
	}
	return out, nil
}

func (f *fakeProgramAsgRepo) Reactivate(_ context.Context, id primitive.ObjectID) error {
	assignment, ok := f.assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	assignment.Status = domain.ProgramStatusActive
	return nil
}

func (f *fakeProgramAsgRepo) ResetProgress(_ context.Context, id primitive.ObjectID) error {
	assignment, ok := f.assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	assignment.Progress = domain.ProgramProgress{CompletedDayKeys: []string{}}
	return nil
}

func (f *fakeProgramAsgRepo) Archive(_ context.Context, id primitive.ObjectID) error {
	assignment, ok := f.assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	assignment.Status = domain.ProgramStatusArchived
	return nil
}

func (f *fakeProgramAsgRepo) UpdateStartDate(_ context.Context, id primitive.ObjectID, startDate time.Time) error {
	assignment, ok := f.assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	assignment.StartDate = startDate
	return nil
}

func (f *fakeProgramAsgRepo) MarkDayComplete(_ context.Context, id primitive.ObjectID, dayKey string) (*domain.ProgramAssignment, error) {
	assignment, ok := f.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	found := false
	for _, key := range assignment.Progress.CompletedDayKeys {
		if key == dayKey {
			found = true
			break
		}
	}
	if !found {
		assignment.Progress.CompletedDayKeys = append(assignment.Progress.CompletedDayKeys, dayKey)
	}
	now := time.Now().UTC()
	assignment.Progress.LastCompletedAt = &now
	copied := *assignment
	return &copied, nil
}

func (f *fakeProgramAsgRepo) UnmarkDayComplete(_ context.Context, id primitive.ObjectID, dayKey string) (*domain.ProgramAssignment, error) {
	assignment, ok := f.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	kept := assignment.Progress.CompletedDayKeys[:0]
	for _, key := range assignment.Progress.CompletedDayKeys {
		if key != dayKey {
			kept = append(kept, key)
		}
	}
	assignment.Progress.CompletedDayKeys = kept
	copied := *assignment
	return &copied, nil
}

type fakeWorkoutAsgRepo struct {
	rows []domain.WorkoutAssignment

	replaceCalls int
	insertCalls  int
}

func (f *fakeWorkoutAsgRepo) Create(_ context.Context, assignment *domain.WorkoutAssignment) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	stored := *assignment
	stored.ID = id
	stored.Status = domain.WorkoutStatusAssigned
	f.rows = append(f.rows, stored)
	return id, nil
}

func (f *fakeWorkoutAsgRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutAssignment, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			copied := f.rows[i]
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeWorkoutAsgRepo) GetByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.WorkoutAssignment, error) {
	var out []domain.WorkoutAssignment
	for _, row := range f.rows {
		if row.ClientID == clientID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeWorkoutAsgRepo) GetByClientAndDate(_ context.Context, clientID primitive.ObjectID, date time.Time) ([]domain.WorkoutAssignment, error) {
	var out []domain.WorkoutAssignment
	for _, row := range f.rows {
		if row.ClientID == clientID && row.ScheduledFor.Equal(date) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeWorkoutAsgRepo) GetByProgramAssignmentID(_ context.Context, programAssignmentID primitive.ObjectID) ([]domain.WorkoutAssignment, error) {
	var out []domain.WorkoutAssignment
	for _, row := range f.rows {
		if row.ProgramAssignmentID != nil && *row.ProgramAssignmentID == programAssignmentID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeWorkoutAsgRepo) ReplaceForProgram(_ context.Context, programAssignmentID primitive.ObjectID, rows []domain.WorkoutAssignment) error {
	f.replaceCalls++
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.ProgramAssignmentID == nil || *row.ProgramAssignmentID != programAssignmentID {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	for _, row := range rows {
		row.ID = primitive.NewObjectID()
		row.Status = domain.WorkoutStatusAssigned
		f.rows = append(f.rows, row)
	}
	return nil
}

func (f *fakeWorkoutAsgRepo) InsertMissingForProgram(_ context.Context, programAssignmentID primitive.ObjectID, rows []domain.WorkoutAssignment) error {
	f.insertCalls++
	present := make(map[string]struct{})
	for _, row := range f.rows {
		if row.ProgramAssignmentID != nil && *row.ProgramAssignmentID == programAssignmentID {
			present[row.ProgramDayKey] = struct{}{}
		}
	}
	for _, row := range rows {
		if _, ok := present[row.ProgramDayKey]; ok {
			continue
		}
		row.ID = primitive.NewObjectID()
		row.Status = domain.WorkoutStatusAssigned
		f.rows = append(f.rows, row)
	}
	return nil
}

func (f *fakeWorkoutAsgRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, status domain.WorkoutAssignmentStatus) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}
