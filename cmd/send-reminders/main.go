// Command send-reminders runs a single meeting reminder sweep and exits.
// Schedule it every few minutes (cron, Kubernetes CronJob) alongside the API.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/legalconnect/legalconnect-api/config"
	"github.com/legalconnect/legalconnect-api/models"
	"github.com/legalconnect/legalconnect-api/services"
	"github.com/legalconnect/legalconnect-api/utils"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Reminder sweep failed: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := utils.InitSentry(cfg.SentryDSN, cfg.GoEnv, "1.0.0"); err != nil {
		log.Printf("Sentry disabled: %v", err)
	}
	defer utils.FlushSentry()

	if err := config.ConnectDatabase(cfg); err != nil {
		return err
	}
	db := config.GetDB()
	if err := models.AutoMigrate(db); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := services.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		services.SetNotificationPublisher(publisher)
		defer publisher.Close()
	}

	reminders, cleanup, err := services.NewReminderServiceFromConfig(ctx, db, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := reminders.Sweep(ctx)
	if result != nil {
		log.Printf("Reminder sweep done: %d candidates, %d sent, skipped=%t", result.Candidates, result.Sent, result.Skipped)
	}
	if err != nil {
		utils.CaptureError(err, map[string]interface{}{"job": "send-reminders"})
		return err
	}
	return nil
}
