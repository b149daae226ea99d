package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kindora/therapy-platform/internal/model"
	"github.com/kindora/therapy-platform/internal/schedule"
	"github.com/kindora/therapy-platform/internal/service"
)

type RecurringHandler struct {
	recurring *service.RecurringService
}

func NewRecurringHandler(recurring *service.RecurringService) *RecurringHandler {
	return &RecurringHandler{recurring: recurring}
}

type createRecurringRequest struct {
	ParentID   string `json:"parent_id" binding:"required,uuid"`
	ChildID    string `json:"child_id" binding:"required,uuid"`
	ProviderID string `json:"provider_id" binding:"required,uuid"`
	SlotTime   string `json:"slot_time" binding:"required,hhmm"`
	StartDate  string `json:"start_date" binding:"required"`
	EndDate    string `json:"end_date" binding:"required"`
	Pattern    string `json:"pattern" binding:"required,oneof=daily weekly"`
	Weekdays   []int  `json:"weekdays" binding:"omitempty,dive,min=0,max=6"`
}

// Create — POST /recurring-bookings
func (h *RecurringHandler) Create(c *gin.Context) {
	var req createRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	startDate, err := schedule.ParseLocalDate(req.StartDate)
	if err != nil {
		respondError(c, err)
		return
	}
	endDate, err := schedule.ParseLocalDate(req.EndDate)
	if err != nil {
		respondError(c, err)
		return
	}
	weekdays := make([]time.Weekday, 0, len(req.Weekdays))
	for _, w := range req.Weekdays {
		weekdays = append(weekdays, time.Weekday(w))
	}

	plan, err := h.recurring.CreateRecurringBooking(c.Request.Context(), req.ParentID, service.RecurringInput{
		ChildID:    req.ChildID,
		ProviderID: req.ProviderID,
		SlotTime:   req.SlotTime,
		StartDate:  startDate,
		EndDate:    endDate,
		Pattern:    model.RecurrencePattern(req.Pattern),
		Weekdays:   weekdays,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"recurring_booking": plan.Plan,
		"booked_dates":      formatDates(plan.BookedDates),
		"gap_dates":         formatDates(plan.GapDates),
	})
}

type cancelRecurringRequest struct {
	ParentID string `json:"parent_id" binding:"required,uuid"`
}

// Cancel — POST /recurring-bookings/:id/cancel
func (h *RecurringHandler) Cancel(c *gin.Context) {
	var req cancelRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	plan, err := h.recurring.CancelRecurringBooking(c.Request.Context(), req.ParentID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recurring_booking": plan})
}

// ListForParent — GET /parents/:id/recurring-bookings
func (h *RecurringHandler) ListForParent(c *gin.Context) {
	plans, err := h.recurring.ListPlans(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recurring_bookings": plans})
}

// Upcoming — GET /recurring-bookings/:id/upcoming?parent_id=
func (h *RecurringHandler) Upcoming(c *gin.Context) {
	bookings, err := h.recurring.GetUpcomingSessions(c.Request.Context(), c.Query("parent_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func formatDates(dates []schedule.LocalDate) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.String())
	}
	return out
}
