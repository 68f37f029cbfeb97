package api

import (
	"alcyxob/coach-app/internal/picker"
	"alcyxob/coach-app/internal/session"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionHandler serves the workout run flow: start/resume, draft edits,
// save retries, finish, and the workout-picker mailbox.
type SessionHandler struct {
	manager *session.Manager
	mailbox *picker.Mailbox
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(manager *session.Manager, mailbox *picker.Mailbox) *SessionHandler {
	return &SessionHandler{manager: manager, mailbox: mailbox}
}

// --- DTOs ---

type StartSessionRequest struct {
	// Exactly one of the two must be set.
	WorkoutAssignmentID string `json:"workoutAssignmentId"`
	WorkoutID           string `json:"workoutId"`
}

type EditSetRequest struct {
	ExerciseID string  `json:"exerciseId" binding:"required"`
	SetIndex   int     `json:"setIndex" binding:"required,min=1"`
	Reps       *int    `json:"reps"`
	Weight     *string `json:"weight"`
	Completed  *bool   `json:"completed"`
}

type SetDraftResponse struct {
	ExerciseID string `json:"exerciseId"`
	SetIndex   int    `json:"setIndex"`
	Reps       int    `json:"reps"`
	Weight     string `json:"weight"`
	Completed  bool   `json:"completed"`
}

type SessionStateResponse struct {
	SessionID  string             `json:"sessionId"`
	WorkoutID  string             `json:"workoutId"`
	Status     string             `json:"status"`
	Resumed    bool               `json:"resumed,omitempty"`
	ElapsedSec int                `json:"elapsedSec"`
	BatchState string             `json:"batchState"`
	SaveError  string             `json:"saveError,omitempty"`
	Drafts     []SetDraftResponse `json:"drafts"`
}

type FulfillPickRequest struct {
	WorkoutID string `json:"workoutId" binding:"required"`
}

// --- Run flow ---

// StartSession starts or resumes a run, from a dated assignment or an
// ad-hoc workout template.
func (h *SessionHandler) StartSession(c *gin.Context) {
	clientID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	var result *session.StartResult
	var err error
	switch {
	case req.WorkoutAssignmentID != "":
		assignmentID, parseErr := primitive.ObjectIDFromHex(req.WorkoutAssignmentID)
		if parseErr != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid workout assignment ID format")
			return
		}
		result, err = h.manager.StartAssignment(c.Request.Context(), clientID, assignmentID)
	case req.WorkoutID != "":
		workoutID, parseErr := primitive.ObjectIDFromHex(req.WorkoutID)
		if parseErr != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
			return
		}
		result, err = h.manager.StartWorkout(c.Request.Context(), clientID, primitive.NilObjectID, workoutID)
	default:
		abortWithError(c, http.StatusBadRequest, "Either workoutAssignmentId or workoutId is required")
		return
	}
	if err != nil {
		h.abortSessionError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, mapRunnerToResponse(result.Runner, result.Resumed))
}

// GetSession returns the live state of a run.
func (h *SessionHandler) GetSession(c *gin.Context) {
	clientID, ok := currentUserObjectID(c)
	if !ok {
		return
	}
	sessionID, ok := pathObjectID(c, "sessionId")
	if !ok {
		return
	}

	runner, err := h.manager.Get(sessionID, clientID)
	if err != nil {
		h.abortSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapRunnerToResponse(runner, false))
}

// EditSet records a draft edit. The edit is applied locally and persisted
// on the debounced batch schedule; this endpoint never waits for storage.
func (h *SessionHandler) EditSet(c *gin.Context) {
	clientID, ok := currentUserObjectID(c)
	if !ok {
		return
	}
	sessionID, ok := pathObjectID(c, "sessionId")
	if !ok {
		return
	}

	var req EditSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(req.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format")
		return
	}

	runner, err := h.manager.Get(sessionID, clientID)
	if err != nil {
		h.abortSessionError(c, err)
		return
	}

	if req.Reps != nil {
		runner.SetReps(exerciseID, req.SetIndex, *req.Reps)
	}
	if req.Weight != nil {
		runner.SetWeight(exerciseID, req.SetIndex, *req.Weight)
	}
	if req.Completed != nil {
		runner.SetCompleted(exerciseID, req.SetIndex, *req.Completed)
	}

	c.JSON(http.StatusAccepted, mapRunnerToResponse(runner, false))
}

// RetrySave re-attempts a failed flush on user request.
func (h *SessionHandler) RetrySave(c *gin.Context) {
	clientID, ok := currentUserObjectID(c)
	if !ok {
		return
	}
	sessionID, ok := pathObjectID(c, "sessionId")
	if !ok {
		return
	}

	runner, err := h.manager.Get(sessionID, clientID)
	if err != nil {
		h.abortSessionError(c, err)
		return
	}
	if err := runner.Retry(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, mapRunnerToResponse(runner, false))
		return
	}
	c.JSON(http.StatusOK, mapRunnerToResponse(runner, false))
}

// FinishSession flushes pending drafts and completes the run. If the final
// flush fails the session stays open and the client may retry.
func (h *SessionHandler) FinishSession(c *gin.Context) {
	clientID, ok := currentUserObjectID(c)
	if !ok {
		return
	}
	sessionID, ok := pathObjectID(c, "sessionId")
	if !ok {
		return
	}

	sess, err := h.manager.Finish(c.Request.Context(), sessionID, clientID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, session.ErrSessionFinished):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, session.ErrAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusBadGateway, "Failed to persist pending set logs; session left open")
		}
		return
	}
	c.JSON(http.StatusOK, sess)
}

// --- Pick mailbox ---

// OpenPick opens a pick request and returns its token.
func (h *SessionHandler) OpenPick(c *gin.Context) {
	userID, ok := currentUserObjectID(c)
	if !ok {
		return
	}
	token := h.mailbox.Open(userID)
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

// FulfillPick deposits the picked workout for a token.
func (h *SessionHandler) FulfillPick(c *gin.Context) {
	userID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	var req FulfillPickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	workoutID, err := primitive.ObjectIDFromHex(req.WorkoutID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return
	}

	if err := h.mailbox.Fulfill(c.Param("token"), userID, picker.Pick{WorkoutID: workoutID}); err != nil {
		abortWithError(c, http.StatusNotFound, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

// ClaimPick consumes the fulfilled pick. 204 means the picker has not
// returned yet; the owner keeps polling.
func (h *SessionHandler) ClaimPick(c *gin.Context) {
	userID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	pick, err := h.mailbox.Claim(c.Param("token"), userID)
	if err != nil {
		if errors.Is(err, picker.ErrNotFulfilled) {
			c.Status(http.StatusNoContent)
			return
		}
		abortWithError(c, http.StatusNotFound, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"workoutId": pick.WorkoutID.Hex()})
}

// --- Mapping ---

func (h *SessionHandler) abortSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrWorkoutNotFound),
		errors.Is(err, session.ErrAssignmentNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Session operation failed")
	}
}

func mapRunnerToResponse(runner *session.Runner, resumed bool) SessionStateResponse {
	sess := runner.Session()
	resp := SessionStateResponse{
		SessionID:  sess.ID.Hex(),
		WorkoutID:  sess.WorkoutID.Hex(),
		Status:     string(sess.Status),
		Resumed:    resumed,
		ElapsedSec: int(runner.Elapsed().Seconds()),
		BatchState: batchStateLabel(runner.State()),
		Drafts:     mapDrafts(runner.Drafts()),
	}
	if err := runner.SaveError(); err != nil {
		resp.SaveError = err.Error()
	}
	return resp
}

func mapDrafts(drafts map[session.SetKey]session.SetDraft) []SetDraftResponse {
	out := make([]SetDraftResponse, 0, len(drafts))
	for key, draft := range drafts {
		out = append(out, SetDraftResponse{
			ExerciseID: key.ExerciseID.Hex(),
			SetIndex:   key.SetIndex,
			Reps:       draft.Reps,
			Weight:     draft.Weight,
			Completed:  draft.Completed,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExerciseID != out[j].ExerciseID {
			return out[i].ExerciseID < out[j].ExerciseID
		}
		return out[i].SetIndex < out[j].SetIndex
	})
	return out
}

func batchStateLabel(state session.BatchState) string {
	switch state {
	case session.BatchDirty:
		return "dirty"
	case session.BatchFlushing:
		return "flushing"
	default:
		return "clean"
	}
}
