package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kindora/therapy-platform/internal/schedule"
	"github.com/kindora/therapy-platform/internal/service"
)

type SlotHandler struct {
	slots *service.SlotService
}

func NewSlotHandler(slots *service.SlotService) *SlotHandler {
	return &SlotHandler{slots: slots}
}

// Materialize — POST /providers/:id/slots/materialize
func (h *SlotHandler) Materialize(c *gin.Context) {
	if err := h.slots.MaterializeSlots(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "materialized"})
}

// ListForDate — GET /providers/:id/slots?date=YYYY-MM-DD
// Генерирует слоты даты при первом обращении.
func (h *SlotHandler) ListForDate(c *gin.Context) {
	date, err := schedule.ParseLocalDate(c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	slots, err := h.slots.GetOrGenerateForDate(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

type updateTemplateRequest struct {
	SlotTimes   []string `json:"slot_times" binding:"required,len=8,dive,hhmm"`
	DurationMin int64    `json:"duration_minutes" binding:"required,gt=0"`
	Timezone    string   `json:"timezone" binding:"required"`
}

// UpdateTemplate — PUT /providers/:id/template
// Перегенерирует будущие незабронированные слоты по новому шаблону.
func (h *SlotHandler) UpdateTemplate(c *gin.Context) {
	var req updateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.slots.RegenerateForTemplateChange(
		c.Request.Context(),
		c.Param("id"),
		req.SlotTimes,
		req.DurationMin,
		req.Timezone,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "regenerated"})
}
