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

// AssignmentHandler serves the trainer-side operations: roster management
// and assigning workouts/programs to clients.
type AssignmentHandler struct {
	rosterService     service.RosterService
	assignmentService service.AssignmentService
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(rosterService service.RosterService, assignmentService service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{
		rosterService:     rosterService,
		assignmentService: assignmentService,
	}
}

// --- DTOs ---

type AddClientRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type AssignWorkoutRequest struct {
	WorkoutID    string    `json:"workoutId" binding:"required"`
	ClientIDs    []string  `json:"clientIds" binding:"required,min=1"`
	ScheduledFor time.Time `json:"scheduledFor" binding:"required"`
}

type AssignProgramRequest struct {
	ProgramID string    `json:"programId" binding:"required"`
	ClientIDs []string  `json:"clientIds" binding:"required,min=1"`
	StartDate time.Time `json:"startDate" binding:"required"`
	Notes     string    `json:"notes"`
}

type ResolveDuplicateRequest struct {
	Resolution service.DuplicateResolution `json:"resolution" binding:"required"`
}

type UpdateStartDateRequest struct {
	StartDate time.Time `json:"startDate" binding:"required"`
}

// DuplicateConflictResponse is the 409 payload: the occupying assignment
// plus the resolutions the trainer may pick from.
type DuplicateConflictResponse struct {
	Existing    *domain.ProgramAssignment     `json:"existing"`
	Resolutions []service.DuplicateResolution `json:"resolutions"`
}

type BatchAssignResponse struct {
	Assigned  []domain.ProgramAssignment  `json:"assigned"`
	Skipped   int                         `json:"skipped"`
	Conflicts []DuplicateConflictResponse `json:"conflicts,omitempty"`
}

// --- Roster ---

// AddClient links a client to the trainer's roster by email.
func (h *AssignmentHandler) AddClient(c *gin.Context) {
	trainerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	var req AddClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	client, err := h.rosterService.AddClientByEmail(c.Request.Context(), trainerID, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClientNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrClientNotRole):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrClientAlreadyAssigned):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to add client")
		}
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(client))
}

// GetManagedClients lists the trainer's roster.
func (h *AssignmentHandler) GetManagedClients(c *gin.Context) {
	trainerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	clients, err := h.rosterService.GetManagedClients(c.Request.Context(), trainerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to fetch clients")
		return
	}

	responses := make([]UserResponse, len(clients))
	for i := range clients {
		responses[i] = MapUserToResponse(&clients[i])
	}
	c.JSON(http.StatusOK, responses)
}

// --- Workout assignment ---

// AssignWorkout assigns a standalone workout to one or more clients for a
// date.
func (h *AssignmentHandler) AssignWorkout(c *gin.Context) {
	trainerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	var req AssignWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	workoutID, err := primitive.ObjectIDFromHex(req.WorkoutID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return
	}
	clientIDs, ok := parseObjectIDs(c, req.ClientIDs)
	if !ok {
		return
	}

	count, err := h.assignmentService.AssignWorkout(c.Request.Context(), trainerID, workoutID, clientIDs, req.ScheduledFor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWorkoutNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrClientNotFound), errors.Is(err, service.ErrClientNotManaged):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrNoClientsSelected):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to assign workout")
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"assigned": count})
}

// --- Program assignment ---

// AssignProgram assigns a program to clients. A duplicate on the unique
// (client, program, startDate) triple returns 409 with the resolution
// options rather than a bare failure.
func (h *AssignmentHandler) AssignProgram(c *gin.Context) {
	trainerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	var req AssignProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	programID, err := primitive.ObjectIDFromHex(req.ProgramID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid program ID format")
		return
	}
	clientIDs, ok := parseObjectIDs(c, req.ClientIDs)
	if !ok {
		return
	}

	// Single-client assignment surfaces the conflict directly; the batch
	// variant reports skips and conflicts in bulk.
	if len(clientIDs) == 1 {
		assignment, conflict, err := h.assignmentService.AssignProgram(c.Request.Context(), trainerID, clientIDs[0], programID, req.StartDate, req.Notes)
		if err != nil {
			h.abortAssignProgramError(c, err)
			return
		}
		if conflict != nil {
			c.JSON(http.StatusConflict, DuplicateConflictResponse{
				Existing:    conflict.Existing,
				Resolutions: conflict.Resolutions,
			})
			return
		}
		c.JSON(http.StatusCreated, assignment)
		return
	}

	result, err := h.assignmentService.AssignProgramBatch(c.Request.Context(), trainerID, programID, clientIDs, req.StartDate, req.Notes)
	if err != nil {
		h.abortAssignProgramError(c, err)
		return
	}

	resp := BatchAssignResponse{Assigned: result.Assigned, Skipped: result.Skipped}
	for _, conflict := range result.Conflicts {
		resp.Conflicts = append(resp.Conflicts, DuplicateConflictResponse{
			Existing:    conflict.Existing,
			Resolutions: conflict.Resolutions,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AssignmentHandler) abortAssignProgramError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProgramNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrClientNotFound), errors.Is(err, service.ErrClientNotManaged):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNoClientsSelected):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrActiveProgram):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Failed to assign program")
	}
}

// ResolveDuplicate applies the trainer's chosen resolution to a conflicted
// assignment.
func (h *AssignmentHandler) ResolveDuplicate(c *gin.Context) {
	trainerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}
	assignmentID, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}

	var req ResolveDuplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	assignment, err := h.assignmentService.ResolveDuplicate(c.Request.Context(), trainerID, assignmentID, req.Resolution)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAssignmentNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidResolution):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to resolve conflict")
		}
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// UpdateStartDate moves a program assignment to a new start date.
func (h *AssignmentHandler) UpdateStartDate(c *gin.Context) {
	trainerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}
	assignmentID, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}

	var req UpdateStartDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	assignment, err := h.assignmentService.UpdateStartDate(c.Request.Context(), trainerID, assignmentID, req.StartDate)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to update start date")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// ArchiveAssignment soft-deletes a program assignment.
func (h *AssignmentHandler) ArchiveAssignment(c *gin.Context) {
	trainerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}
	assignmentID, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}

	if err := h.assignmentService.ArchiveAssignment(c.Request.Context(), trainerID, assignmentID); err != nil {
		if errors.Is(err, service.ErrAssignmentNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to archive assignment")
		return
	}
	c.Status(http.StatusNoContent)
}

// parseObjectIDs converts a list of hex IDs, aborting with 400 on the first
// malformed entry.
func parseObjectIDs(c *gin.Context, hexIDs []string) ([]primitive.ObjectID, bool) {
	ids := make([]primitive.ObjectID, 0, len(hexIDs))
	for _, hex := range hexIDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid client ID format: %s", hex))
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}
