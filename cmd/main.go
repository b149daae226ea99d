package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kindora/therapy-platform/internal/config"
	"github.com/kindora/therapy-platform/internal/db"
	"github.com/kindora/therapy-platform/internal/handler"
	"github.com/kindora/therapy-platform/internal/model"
	"github.com/kindora/therapy-platform/internal/repository"
	"github.com/kindora/therapy-platform/internal/service"
)

func main() {
	// 1. .env (если есть) + конфиг из окружения.
	_ = godotenv.Load()
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// 2. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(cfg)
	if err != nil {
		log.Fatalf("init db: %v", err)
	}

	// 3. Миграции моделей.
	if err := model.AutoMigrate(gormDB); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("sql DB: %v", err)
	}
	defer sqlDB.Close()

	// 4. Репозитории (реализации на GORM).
	providerRepo := repository.NewGormProviderRepository(gormDB)
	parentRepo := repository.NewGormParentRepository(gormDB)
	slotRepo := repository.NewGormSlotRepository(gormDB)
	bookingRepo := repository.NewGormBookingRepository(gormDB)
	leaveRepo := repository.NewGormLeaveRepository(gormDB)
	recurringRepo := repository.NewGormRecurringRepository(gormDB)

	// 5. Сервисы ядра расписания.
	notifier := service.NewEventNotifier(gormDB)
	slotSvc := service.NewSlotService(gormDB, providerRepo, slotRepo, leaveRepo, cfg.Scheduling.HorizonDays)
	bookingSvc := service.NewBookingService(gormDB, bookingRepo, notifier, cfg.Scheduling.BookingWindowDays)
	leaveSvc := service.NewLeaveService(gormDB, providerRepo, leaveRepo, notifier)
	recurringSvc := service.NewRecurringService(
		gormDB,
		parentRepo,
		providerRepo,
		leaveRepo,
		bookingRepo,
		recurringRepo,
		slotSvc,
		bookingSvc,
		notifier,
	)

	// 6. HTTP-роутер.
	router := handler.NewRouter(
		handler.NewSlotHandler(slotSvc),
		handler.NewBookingHandler(bookingSvc),
		handler.NewLeaveHandler(leaveSvc),
		handler.NewRecurringHandler(recurringSvc),
	)

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	log.Printf("scheduling core listening on %s", addr)

	// 7. Запускаем сервер в горутине.
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	// 8. Грейсфул-шатдаун по сигналу.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down http server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	// Дожидаемся фоновых уведомлений.
	notifier.Wait()
}
