// cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/unclebandit/recall-outreach/internal/config"
	"github.com/unclebandit/recall-outreach/internal/db"
	"github.com/unclebandit/recall-outreach/internal/logger"
	"github.com/unclebandit/recall-outreach/internal/repository"
	"github.com/unclebandit/recall-outreach/internal/service"
)

// Applies pending migrations and optionally loads a campaign from a CSV
// file without sending anything.
func main() {
	csvPath := flag.String("csv", "", "recall contacts CSV to load as a new campaign")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Must(false).Fatal("load config", zap.Error(err))
	}
	log := logger.Must(cfg.IsProduction())
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer database.Close()

	if err := db.RunMigrations(ctx, database, db.Migrations()); err != nil {
		log.Fatal("run migrations", zap.Error(err))
	}
	log.Info("✅ migrations applied")

	if *csvPath == "" {
		return
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatal("open csv", zap.String("path", *csvPath), zap.Error(err))
	}
	defer f.Close()

	campaigns := &service.CampaignService{
		CampaignRepo: &repository.CampaignRepository{DB: database},
		ContactRepo:  &repository.ContactRepository{DB: database},
		Logger:       log,
	}
	result, err := campaigns.CreateCampaign(ctx, f, nil, false)
	if err != nil {
		log.Fatal("seed campaign", zap.Error(err))
	}
	log.Info("✅ Database seeding completed", zap.String("campaignID", result.CampaignID), zap.Int("contacts", result.Contacts))
}
