package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/kindora/therapy-platform/internal/schedule"
)

// registerValidations добавляет кастомные правила в validator gin-а.
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// hhmm — локальное время сессии "HH:MM".
		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			_, err := schedule.ParseSlotTime(fl.Field().String())
			return err == nil
		})
	}
}

// NewRouter собирает HTTP-маршруты ядра расписания.
func NewRouter(
	slots *SlotHandler,
	bookings *BookingHandler,
	leaves *LeaveHandler,
	recurring *RecurringHandler,
) *gin.Engine {
	registerValidations()

	r := gin.Default()
	r.Use(cors.Default())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/providers/:id/slots/materialize", slots.Materialize)
	r.GET("/providers/:id/slots", slots.ListForDate)
	r.PUT("/providers/:id/template", slots.UpdateTemplate)

	r.POST("/bookings", bookings.Book)
	r.POST("/bookings/:id/complete", bookings.Complete)
	r.GET("/parents/:id/bookings", bookings.ListForParent)

	r.POST("/providers/:id/leaves", leaves.Request)
	r.GET("/providers/:id/leaves", leaves.List)
	r.POST("/leaves/:id/process", leaves.Process)

	r.POST("/recurring-bookings", recurring.Create)
	r.POST("/recurring-bookings/:id/cancel", recurring.Cancel)
	r.GET("/recurring-bookings/:id/upcoming", recurring.Upcoming)
	r.GET("/parents/:id/recurring-bookings", recurring.ListForParent)

	return r
}
