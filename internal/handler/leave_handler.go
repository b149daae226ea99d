package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kindora/therapy-platform/internal/model"
	"github.com/kindora/therapy-platform/internal/schedule"
	"github.com/kindora/therapy-platform/internal/service"
)

type LeaveHandler struct {
	leaves *service.LeaveService
}

func NewLeaveHandler(leaves *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaves: leaves}
}

type requestLeaveRequest struct {
	Date   string `json:"date" binding:"required"`
	Type   string `json:"type" binding:"required,oneof=casual sick festive optional"`
	Reason string `json:"reason"`
}

// Request — POST /providers/:id/leaves
func (h *LeaveHandler) Request(c *gin.Context) {
	var req requestLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := schedule.ParseLocalDate(req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	leave, err := h.leaves.RequestLeave(
		c.Request.Context(),
		c.Param("id"),
		date,
		model.LeaveType(req.Type),
		req.Reason,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"leave": leave})
}

// List — GET /providers/:id/leaves
func (h *LeaveHandler) List(c *gin.Context) {
	leaves, err := h.leaves.ListLeaves(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaves": leaves})
}

type processLeaveRequest struct {
	Action string `json:"action" binding:"required,oneof=approve reject"`
	Notes  string `json:"notes"`
}

// Process — POST /leaves/:id/process
func (h *LeaveHandler) Process(c *gin.Context) {
	var req processLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	leave, err := h.leaves.ProcessLeave(
		c.Request.Context(),
		c.Param("id"),
		service.LeaveAction(req.Action),
		req.Notes,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leave": leave})
}
