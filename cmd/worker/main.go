// cmd/worker/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/recall-outreach/internal/agent"
	"github.com/unclebandit/recall-outreach/internal/agent/gemini"
	"github.com/unclebandit/recall-outreach/internal/config"
	"github.com/unclebandit/recall-outreach/internal/db"
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

	redisClient, err := queue.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal("connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	backend, err := gemini.New(ctx, cfg.Agent.APIKey, cfg.Agent.Model)
	if err != nil {
		log.Fatal("create model backend", zap.Error(err))
	}
	defer backend.Close()

	broker := queue.NewBroker(cfg.AMQP.URL, log.Named("amqp"))
	defer broker.Close()

	contactRepo := &repository.ContactRepository{DB: database}
	messageRepo := &repository.MessageRepository{DB: database}
	appointmentRepo := &repository.AppointmentRepository{DB: database}

	hours := scheduling.BusinessHours{Start: cfg.Business.StartHour, End: cfg.Business.EndHour, SlotDuration: time.Hour}
	scheduler := scheduling.NewService(appointmentRepo, contactRepo, hours, cfg.Business.Location, log.Named("scheduling"))

	assistant := agent.New(backend, scheduler, agent.Options{
		MaxSteps:    cfg.Agent.MaxSteps,
		TurnTimeout: cfg.Agent.TurnTimeout,
		Hours:       hours,
		Location:    cfg.Business.Location,
		Logger:      log.Named("agent"),
	})

	conversations := &service.ConversationService{
		ContactRepo:     contactRepo,
		MessageRepo:     messageRepo,
		AppointmentRepo: appointmentRepo,
		Queue:           broker,
		SmsQueue:        cfg.AMQP.SmsQueue,
		AgentQueue:      cfg.AMQP.AgentQueue,
		Scheduler:       scheduler,
		Agent:           assistant,
		Deduper:         queue.NewDeduper(redisClient, cfg.Redis.DedupTTL),
		HistorySize:     cfg.Agent.HistorySize,
		Logger:          log.Named("conversations"),
	}

	worker := service.NewWorker(broker, conversations, cfg.AMQP.SmsQueue, cfg.AMQP.AgentQueue, log.Named("worker"))
	if err := worker.Run(ctx); err != nil {
		log.Fatal("worker", zap.Error(err))
	}
}
