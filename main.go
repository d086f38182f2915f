package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stayhub-backend/config"
	"stayhub-backend/controllers"
	"stayhub-backend/repository"
	"stayhub-backend/routes"
	"stayhub-backend/services"
	"stayhub-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// hash-password prints a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
	if len(os.Args) == 3 && os.Args[1] == "hash-password" {
		hash, err := utils.HashPassword(os.Args[2])
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := config.NewLogger(cfg.Environment)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	db, err := config.ConnectDB(cfg.Database, logger)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	reservations := repository.NewReservationRepository(db)
	templates := repository.NewTemplateRepository(db)
	schedules := repository.NewScheduleRepository(db)
	campaigns := repository.NewCampaignRepository(db)

	sender, err := services.NewSMSSender(cfg.SMS, logger)
	if err != nil {
		return err
	}

	loc, _ := time.LoadLocation(cfg.Scheduler.Timezone)
	dispatcher := services.NewDispatcher(schedules, templates, campaigns, reservations, sender,
		services.DispatcherOptions{
			Location:    loc,
			Concurrency: cfg.Scheduler.DispatchConcurrency,
			SendTimeout: cfg.Scheduler.SendTimeout,
			Party:       cfg.Party,
		}, logger)

	core := services.NewSchedulerCore(logger)
	sync := services.NewSynchronizer(core, schedules, dispatcher, cfg.Scheduler.Timezone, logger)
	scheduleService := services.NewScheduleService(schedules, templates, sync, dispatcher, logger)
	templateService := services.NewTemplateService(templates, logger)

	core.Start()
	if _, err := sync.ResyncAll(context.Background()); err != nil {
		logger.Error("initial schedule sync failed", zap.Error(err))
	}

	router := routes.SetupRouter(cfg, routes.Handlers{
		Auth:      &controllers.AuthController{Auth: cfg.Auth, Secure: cfg.IsProduction(), Logger: logger},
		Schedules: &controllers.ScheduleController{Schedules: scheduleService, Logger: logger},
		Scheduler: &controllers.SchedulerController{Core: core},
		Templates: &controllers.TemplateController{Templates: templateService},
		Campaigns: &controllers.CampaignController{Campaigns: campaigns, Dispatcher: dispatcher},
	}, logger)
	if !cfg.IsProduction() {
		printRoutes(router, logger)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			zap.String("addr", srv.Addr),
			zap.String("sms_provider", sender.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Scheduler.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := core.Stop(ctx); err != nil {
		logger.Error("scheduler shutdown", zap.Error(err))
	}
	return nil
}

func printRoutes(r *gin.Engine, logger *zap.Logger) {
	for _, route := range r.Routes() {
		logger.Debug("route", zap.String("method", route.Method), zap.String("path", route.Path))
	}
}
