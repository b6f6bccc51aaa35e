// Command reminder-lambda runs the meeting reminder sweep as an AWS Lambda function,
// triggered by an EventBridge schedule.
package main

import (
	"context"
	"log"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/legalconnect/legalconnect-api/config"
	"github.com/legalconnect/legalconnect-api/services"
	"github.com/legalconnect/legalconnect-api/utils"
)

var (
	setupOnce sync.Once
	reminders *services.ReminderService
	setupErr  error
)

// setup connects once per container; warm invocations reuse the pool
func setup(ctx context.Context) (*services.ReminderService, error) {
	setupOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			setupErr = err
			return
		}

		if err := utils.InitSentry(cfg.SentryDSN, cfg.GoEnv, "1.0.0"); err != nil {
			log.Printf("Sentry disabled: %v", err)
		}

		if err := config.ConnectDatabase(cfg); err != nil {
			setupErr = err
			return
		}

		if len(cfg.KafkaBrokers) > 0 {
			publisher, err := services.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
			if err != nil {
				setupErr = err
				return
			}
			services.SetNotificationPublisher(publisher)
		}

		reminders, _, setupErr = services.NewReminderServiceFromConfig(ctx, config.GetDB(), cfg)
	})
	return reminders, setupErr
}

func handler(ctx context.Context, event events.CloudWatchEvent) (*services.SweepResult, error) {
	defer utils.FlushSentry()

	svc, err := setup(ctx)
	if err != nil {
		log.Printf("Reminder lambda setup failed: %v", err)
		return nil, err
	}

	result, err := svc.Sweep(ctx)
	if err != nil {
		utils.CaptureError(err, map[string]interface{}{"job": "reminder-lambda", "event_id": event.ID})
		return result, err
	}

	log.Printf("Reminder sweep done: %d candidates, %d sent, skipped=%t", result.Candidates, result.Sent, result.Skipped)
	return result, nil
}

func main() {
	lambda.Start(handler)
}
