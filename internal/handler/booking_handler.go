package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kindora/therapy-platform/internal/schedule"
	"github.com/kindora/therapy-platform/internal/service"
)

type BookingHandler struct {
	bookings *service.BookingService
}

func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

type bookSlotRequest struct {
	ParentID string `json:"parent_id" binding:"required,uuid"`
	ChildID  string `json:"child_id" binding:"required,uuid"`
	SlotID   string `json:"slot_id" binding:"required,uuid"`
}

// Book — POST /bookings
func (h *BookingHandler) Book(c *gin.Context) {
	var req bookSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	booking, err := h.bookings.BookSlot(c.Request.Context(), req.ParentID, req.ChildID, req.SlotID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}

// ListForParent — GET /parents/:id/bookings?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *BookingHandler) ListForParent(c *gin.Context) {
	from, err := schedule.ParseLocalDate(c.Query("from"))
	if err != nil {
		respondError(c, err)
		return
	}
	to, err := schedule.ParseLocalDate(c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	bookings, err := h.bookings.ListForParent(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// Complete — POST /bookings/:id/complete
func (h *BookingHandler) Complete(c *gin.Context) {
	booking, err := h.bookings.CompleteBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}
