package api

import (
	"alcyxob/coach-app/internal/service"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleHandler serves the client-side schedule views: today's plan, the
// full program day list, and completion marking.
type ScheduleHandler struct {
	scheduleService service.ScheduleService
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduleService service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// --- DTOs ---

type MarkDayRequest struct {
	DayKey string `json:"dayKey" binding:"required"`
}

type ScheduleResponse struct {
	Days     []service.ScheduleDay    `json:"days"`
	Progress *service.ProgressSummary `json:"progress"`
}

// --- Handler Methods ---

// GetToday returns what the authenticated client is due to do on a date
// (default: today). The date is interpreted as a calendar date; time of day
// and zone offsets are normalized away.
func (h *ScheduleHandler) GetToday(c *gin.Context) {
	clientID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	plan, err := h.scheduleService.GetTodayPlan(c.Request.Context(), clientID, date)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to fetch today's plan")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// GetSchedule returns the full projected day list of one program assignment
// with its progress summary.
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	clientID, ok := currentUserObjectID(c)
	if !ok {
		return
	}
	assignmentID, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}

	days, progress, err := h.scheduleService.GetSchedule(c.Request.Context(), clientID, assignmentID)
	if err != nil {
		h.abortScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ScheduleResponse{Days: days, Progress: progress})
}

// MarkDayComplete marks a program day as done and returns the updated
// progress summary. Idempotent: marking twice changes nothing.
func (h *ScheduleHandler) MarkDayComplete(c *gin.Context) {
	h.markDay(c, h.scheduleService.MarkDayComplete)
}

// UnmarkDayComplete removes a completion mark.
func (h *ScheduleHandler) UnmarkDayComplete(c *gin.Context) {
	h.markDay(c, h.scheduleService.UnmarkDayComplete)
}

func (h *ScheduleHandler) markDay(c *gin.Context, op func(ctx context.Context, clientID, assignmentID primitive.ObjectID, dayKey string) (*service.ProgressSummary, error)) {
	clientID, ok := currentUserObjectID(c)
	if !ok {
		return
	}
	assignmentID, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}

	var req MarkDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	progress, err := op(c.Request.Context(), clientID, assignmentID, req.DayKey)
	if err != nil {
		h.abortScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *ScheduleHandler) abortScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound), errors.Is(err, service.ErrProgramNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fmt.Sprintf("Schedule operation failed: %v", err))
	}
}
