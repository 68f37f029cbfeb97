package api

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/service"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogHandler serves the trainer's library: exercises, workout templates,
// program templates, and the demo video upload flow.
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// --- DTOs ---

type CreateExerciseRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	MuscleGroup string `json:"muscleGroup" binding:"omitempty"` // e.g., "Chest", "Legs"
	Difficulty  string `json:"difficulty" binding:"omitempty"`  // e.g., "Novice", "Medium", "Advanced"
}

type ExerciseResponse struct {
	ID           string    `json:"id"`
	TrainerID    string    `json:"trainerId"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	MuscleGroup  string    `json:"muscleGroup,omitempty"`
	Difficulty   string    `json:"difficulty,omitempty"`
	HasDemoVideo bool      `json:"hasDemoVideo"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MapExerciseToResponse converts a domain.Exercise to ExerciseResponse DTO.
func MapExerciseToResponse(ex *domain.Exercise) ExerciseResponse {
	if ex == nil {
		return ExerciseResponse{}
	}
	return ExerciseResponse{
		ID:           ex.ID.Hex(),
		TrainerID:    ex.TrainerID.Hex(),
		Name:         ex.Name,
		Description:  ex.Description,
		MuscleGroup:  ex.MuscleGroup,
		Difficulty:   ex.Difficulty,
		HasDemoVideo: ex.DemoVideoKey != "",
		CreatedAt:    ex.CreatedAt,
		UpdatedAt:    ex.UpdatedAt,
	}
}

type WorkoutExerciseRequest struct {
	ExerciseID string `json:"exerciseId" binding:"required"`
	Sets       int    `json:"sets" binding:"required,min=1"`
	TargetReps int    `json:"targetReps" binding:"omitempty,min=0"`
	RestSec    int    `json:"restSec" binding:"omitempty,min=0"`
	Notes      string `json:"notes"`
}

type CreateWorkoutTemplateRequest struct {
	Name        string                   `json:"name" binding:"required"`
	Description string                   `json:"description"`
	Exercises   []WorkoutExerciseRequest `json:"exercises" binding:"required,min=1,dive"`
}

type RequestUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmUploadRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

// --- Exercise library ---

// CreateExercise godoc
// @Summary Create a new exercise
// @Description Creates a new exercise in the authenticated trainer's library.
// @Tags Catalog
// @Accept json
// @Produce json
// @Param exercise body CreateExerciseRequest true "Exercise details"
// @Success 201 {object} ExerciseResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Router /exercises [post]
func (h *CatalogHandler) CreateExercise(c *gin.Context) {
	trainerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	var req CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercise, err := h.catalogService.CreateExercise(c.Request.Context(), &domain.Exercise{
		TrainerID:   trainerID,
		Name:        req.Name,
		Description: req.Description,
		MuscleGroup: req.MuscleGroup,
		Difficulty:  req.Difficulty,
	})
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to create exercise")
		return
	}
	c.JSON(http.StatusCreated, MapExerciseToResponse(exercise))
}

// GetTrainerExercises lists the authenticated trainer's exercise library.
func (h *CatalogHandler) GetTrainerExercises(c *gin.Context) {
	trainerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	exercises, err := h.catalogService.GetTrainerExercises(c.Request.Context(), trainerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to fetch exercises")
		return
	}

	responses := make([]ExerciseResponse, len(exercises))
	for i := range exercises {
		responses[i] = MapExerciseToResponse(&exercises[i])
	}
	c.JSON(http.StatusOK, responses)
}

// --- Workout templates ---

func (h *CatalogHandler) CreateWorkoutTemplate(c *gin.Context) {
	trainerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	var req CreateWorkoutTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercises := make([]domain.WorkoutExercise, 0, len(req.Exercises))
	for i, entry := range req.Exercises {
		exerciseID, err := primitive.ObjectIDFromHex(entry.ExerciseID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid exercise ID at position %d", i))
			return
		}
		exercises = append(exercises, domain.WorkoutExercise{
			ExerciseID: exerciseID,
			Sets:       entry.Sets,
			TargetReps: entry.TargetReps,
			RestSec:    entry.RestSec,
			Notes:      entry.Notes,
			Sequence:   i + 1,
		})
	}

	workout, err := h.catalogService.CreateWorkoutTemplate(c.Request.Context(), &domain.WorkoutTemplate{
		TrainerID:   trainerID,
		Name:        req.Name,
		Description: req.Description,
		Exercises:   exercises,
	})
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to create workout template")
		return
	}
	c.JSON(http.StatusCreated, workout)
}

func (h *CatalogHandler) GetTrainerWorkoutTemplates(c *gin.Context) {
	trainerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}
	workouts, err := h.catalogService.GetTrainerWorkoutTemplates(c.Request.Context(), trainerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to fetch workout templates")
		return
	}
	c.JSON(http.StatusOK, workouts)
}

func (h *CatalogHandler) GetWorkoutTemplate(c *gin.Context) {
	workoutID, ok := pathObjectID(c, "workoutId")
	if !ok {
		return
	}
	workout, err := h.catalogService.GetWorkoutTemplate(c.Request.Context(), workoutID)
	if err != nil {
		if errors.Is(err, service.ErrWorkoutNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to fetch workout template")
		return
	}
	c.JSON(http.StatusOK, workout)
}

// --- Program templates ---

// CreateProgramTemplate accepts the full phases/weeks/days structure as
// authored. Day keys are the client's completion anchors and should be
// unique within the template.
func (h *CatalogHandler) CreateProgramTemplate(c *gin.Context) {
	trainerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	var tpl domain.ProgramTemplate
	if err := c.ShouldBindJSON(&tpl); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	tpl.TrainerID = trainerID

	created, err := h.catalogService.CreateProgramTemplate(c.Request.Context(), &tpl)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to create program template")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *CatalogHandler) GetTrainerProgramTemplates(c *gin.Context) {
	trainerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}
	programs, err := h.catalogService.GetTrainerProgramTemplates(c.Request.Context(), trainerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to fetch program templates")
		return
	}
	c.JSON(http.StatusOK, programs)
}

func (h *CatalogHandler) GetProgramTemplate(c *gin.Context) {
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	tpl, err := h.catalogService.GetProgramTemplate(c.Request.Context(), programID)
	if err != nil {
		if errors.Is(err, service.ErrProgramNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to fetch program template")
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// --- Demo video flow ---

// RequestDemoVideoUploadURL returns a presigned PUT URL; the client uploads
// directly to object storage and then confirms with the object key.
func (h *CatalogHandler) RequestDemoVideoUploadURL(c *gin.Context) {
	trainerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}
	exerciseID, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}

	var req RequestUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	resp, err := h.catalogService.RequestDemoVideoUploadURL(c.Request.Context(), trainerID, exerciseID, req.ContentType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExerciseNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrExerciseAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrUploadURLError):
			abortWithError(c, http.StatusBadGateway, err.Error())
		default:
			abortWithError(c, http.StatusBadRequest, err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) ConfirmDemoVideoUpload(c *gin.Context) {
	trainerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}
	exerciseID, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}

	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.catalogService.ConfirmDemoVideoUpload(c.Request.Context(), trainerID, exerciseID, req.ObjectKey); err != nil {
		switch {
		case errors.Is(err, service.ErrExerciseNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrExerciseAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to confirm upload")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) GetDemoVideoDownloadURL(c *gin.Context) {
	exerciseID, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}

	url, err := h.catalogService.GetDemoVideoDownloadURL(c.Request.Context(), exerciseID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExerciseNotFound), errors.Is(err, service.ErrNoDemoVideo):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrDownloadURLError):
			abortWithError(c, http.StatusBadGateway, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to generate download URL")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}
