// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/unclebandit/recall-outreach/internal/config"
	"github.com/unclebandit/recall-outreach/internal/controller"
	"github.com/unclebandit/recall-outreach/internal/db"
	"github.com/unclebandit/recall-outreach/internal/handler"
	"github.com/unclebandit/recall-outreach/internal/logger"
	"github.com/unclebandit/recall-outreach/internal/queue"
	"github.com/unclebandit/recall-outreach/internal/repository"
	"github.com/unclebandit/recall-outreach/internal/scheduling"
	"github.com/unclebandit/recall-outreach/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Must(false).Fatal("load config", zap.Error(err))
	}

	log := logger.Must(cfg.IsProduction())
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer database.Close()

	if err := db.RunMigrations(ctx, database, db.Migrations()); err != nil {
		log.Fatal("run migrations", zap.Error(err))
	}

	broker := queue.NewBroker(cfg.AMQP.URL, log.Named("amqp"))
	defer broker.Close()

	campaignRepo := &repository.CampaignRepository{DB: database}
	contactRepo := &repository.ContactRepository{DB: database}
	messageRepo := &repository.MessageRepository{DB: database}
	appointmentRepo := &repository.AppointmentRepository{DB: database}

	hours := scheduling.BusinessHours{Start: cfg.Business.StartHour, End: cfg.Business.EndHour, SlotDuration: time.Hour}
	scheduler := scheduling.NewService(appointmentRepo, contactRepo, hours, cfg.Business.Location, log.Named("scheduling"))

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		ContactRepo:  contactRepo,
		Queue:        broker,
		SmsQueue:     cfg.AMQP.SmsQueue,
		Limiter:      rate.NewLimiter(rate.Limit(cfg.Dispatch.RatePerSecond), cfg.Dispatch.Burst),
		Logger:       log.Named("campaigns"),
	}
	conversationService := &service.ConversationService{
		ContactRepo:     contactRepo,
		MessageRepo:     messageRepo,
		AppointmentRepo: appointmentRepo,
		Queue:           broker,
		SmsQueue:        cfg.AMQP.SmsQueue,
		AgentQueue:      cfg.AMQP.AgentQueue,
		Scheduler:       scheduler,
		Logger:          log.Named("conversations"),
	}

	router := handler.NewRouter(handler.Controllers{
		Campaigns:    &controller.CampaignController{CampaignService: campaignService, Logger: log},
		Contacts:     &controller.ContactController{CampaignService: campaignService, Conversation: conversationService, Logger: log},
		Availability: &controller.AvailabilityController{Scheduler: scheduler, Logger: log},
	}, log.Named("http"))

	server := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("🚀 Server running", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}
}
