package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kindora/therapy-platform/internal/schedule"
	"github.com/kindora/therapy-platform/internal/service"
)

// respondError переводит доменную ошибку в HTTP-статус.
// Тексты политик отдаются клиенту дословно.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProviderNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrLeaveNotFound),
		errors.Is(err, service.ErrRecurringNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, service.ErrSlotUnavailable),
		errors.Is(err, service.ErrDuplicateLeave),
		errors.Is(err, service.ErrLeaveAlreadyProcessed),
		errors.Is(err, service.ErrAlreadyCancelled),
		errors.Is(err, service.ErrBookingNotScheduled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, service.ErrWeekendNotBookable),
		errors.Is(err, service.ErrChildNotOwned),
		errors.Is(err, service.ErrNotOwner),
		errors.Is(err, service.ErrBookingWindowExceeded),
		errors.Is(err, service.ErrPastDate),
		errors.Is(err, service.ErrNoBalanceRemaining),
		errors.Is(err, service.ErrOptionalAlreadyUsedThisMonth):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	case errors.Is(err, service.ErrInvalidConfiguration),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrSlotTimeNotOffered),
		errors.Is(err, schedule.ErrInvalidDate),
		errors.Is(err, schedule.ErrInvalidSlotTime):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, service.ErrTransactionTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
