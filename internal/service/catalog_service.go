package service

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"alcyxob/coach-app/internal/storage"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound     = errors.New("exercise not found")
	ErrExerciseAccessDenied = errors.New("access denied to this exercise")
	ErrUploadURLError       = errors.New("failed to generate upload URL")
	ErrDownloadURLError     = errors.New("failed to generate download URL")
	ErrNoDemoVideo          = errors.New("exercise has no demo video")
)

// UploadURLResponse carries a presigned PUT URL plus the object key the
// caller must report back on confirm.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// --- Service Interface ---
type CatalogService interface {
	// Exercise library
	CreateExercise(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error)
	GetTrainerExercises(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Exercise, error)

	// Workout & program templates (read side of the authoring collaborator)
	CreateWorkoutTemplate(ctx context.Context, workout *domain.WorkoutTemplate) (*domain.WorkoutTemplate, error)
	GetWorkoutTemplate(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error)
	GetTrainerWorkoutTemplates(ctx context.Context, trainerID primitive.ObjectID) ([]domain.WorkoutTemplate, error)
	CreateProgramTemplate(ctx context.Context, tpl *domain.ProgramTemplate) (*domain.ProgramTemplate, error)
	GetProgramTemplate(ctx context.Context, id primitive.ObjectID) (*domain.ProgramTemplate, error)
	GetTrainerProgramTemplates(ctx context.Context, trainerID primitive.ObjectID) ([]domain.ProgramTemplate, error)

	// Demo video upload flow
	RequestDemoVideoUploadURL(ctx context.Context, trainerID, exerciseID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmDemoVideoUpload(ctx context.Context, trainerID, exerciseID primitive.ObjectID, objectKey string) error
	GetDemoVideoDownloadURL(ctx context.Context, exerciseID primitive.ObjectID) (string, error)
}

// --- Service Implementation ---

type catalogService struct {
	exerciseRepo repository.ExerciseRepository
	workoutRepo  repository.WorkoutTemplateRepository
	programRepo  repository.ProgramTemplateRepository
	fileStorage  storage.FileStorage
}

// NewCatalogService creates a new instance of catalogService.
func NewCatalogService(
	exerciseRepo repository.ExerciseRepository,
	workoutRepo repository.WorkoutTemplateRepository,
	programRepo repository.ProgramTemplateRepository,
	fileStorage storage.FileStorage,
) CatalogService {
	return &catalogService{
		exerciseRepo: exerciseRepo,
		workoutRepo:  workoutRepo,
		programRepo:  programRepo,
		fileStorage:  fileStorage,
	}
}

// === Exercise library ===

func (s *catalogService) CreateExercise(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error) {
	if exercise.Name == "" || exercise.TrainerID == primitive.NilObjectID {
		return nil, errors.New("exercise name and trainer ID are required")
	}
	id, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	exercise.ID = id
	return exercise, nil
}

func (s *catalogService) GetTrainerExercises(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Exercise, error) {
	return s.exerciseRepo.GetByTrainerID(ctx, trainerID)
}

// === Templates ===

func (s *catalogService) CreateWorkoutTemplate(ctx context.Context, workout *domain.WorkoutTemplate) (*domain.WorkoutTemplate, error) {
	if workout.Name == "" || workout.TrainerID == primitive.NilObjectID {
		return nil, errors.New("workout name and trainer ID are required")
	}
	id, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, err
	}
	workout.ID = id
	return workout, nil
}

func (s *catalogService) GetWorkoutTemplate(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	workout, err := s.workoutRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return workout, nil
}

func (s *catalogService) GetTrainerWorkoutTemplates(ctx context.Context, trainerID primitive.ObjectID) ([]domain.WorkoutTemplate, error) {
	return s.workoutRepo.GetByTrainerID(ctx, trainerID)
}

func (s *catalogService) CreateProgramTemplate(ctx context.Context, tpl *domain.ProgramTemplate) (*domain.ProgramTemplate, error) {
	if tpl.Name == "" || tpl.TrainerID == primitive.NilObjectID {
		return nil, errors.New("program name and trainer ID are required")
	}
	id, err := s.programRepo.Create(ctx, tpl)
	if err != nil {
		return nil, err
	}
	tpl.ID = id
	return tpl, nil
}

func (s *catalogService) GetProgramTemplate(ctx context.Context, id primitive.ObjectID) (*domain.ProgramTemplate, error) {
	tpl, err := s.programRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return tpl, nil
}

func (s *catalogService) GetTrainerProgramTemplates(ctx context.Context, trainerID primitive.ObjectID) ([]domain.ProgramTemplate, error) {
	return s.programRepo.GetByTrainerID(ctx, trainerID)
}

// === Demo video upload flow ===

// RequestDemoVideoUploadURL generates a presigned PUT URL for a trainer to
// upload a demo video for one of their exercises.
func (s *catalogService) RequestDemoVideoUploadURL(ctx context.Context, trainerID, exerciseID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), "video/") {
		return nil, errors.New("invalid or missing video content type")
	}

	exercise, err := s.getOwnedExercise(ctx, trainerID, exerciseID)
	if err != nil {
		return nil, err
	}

	fileExtension := "bin"
	if parts := strings.Split(contentType, "/"); len(parts) == 2 {
		fileExtension = parts[1]
	}
	objectKey := path.Join("demo-videos", exercise.TrainerID.Hex(), exerciseID.Hex(),
		fmt.Sprintf("%s.%s", uuid.NewString(), fileExtension))

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}

	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmDemoVideoUpload records the object key on the exercise after the
// trainer finished the direct-to-storage upload.
func (s *catalogService) ConfirmDemoVideoUpload(ctx context.Context, trainerID, exerciseID primitive.ObjectID, objectKey string) error {
	if objectKey == "" {
		return errors.New("object key is required")
	}
	if _, err := s.getOwnedExercise(ctx, trainerID, exerciseID); err != nil {
		return err
	}
	return s.exerciseRepo.SetDemoVideoKey(ctx, exerciseID, objectKey)
}

// GetDemoVideoDownloadURL generates a temporary viewing URL for an
// exercise's demo video.
func (s *catalogService) GetDemoVideoDownloadURL(ctx context.Context, exerciseID primitive.ObjectID) (string, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrExerciseNotFound
		}
		return "", err
	}
	if exercise.DemoVideoKey == "" {
		return "", ErrNoDemoVideo
	}

	downloadURL, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, exercise.DemoVideoKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", ErrDownloadURLError
	}
	return downloadURL, nil
}

func (s *catalogService) getOwnedExercise(ctx context.Context, trainerID, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if exercise.TrainerID != trainerID {
		return nil, ErrExerciseAccessDenied
	}
	return exercise, nil
}
